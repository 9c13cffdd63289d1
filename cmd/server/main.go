// Package main initializes and starts the Spektr API server, setting
// up configuration, logging, the storage backend, stores, handlers,
// and routing.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/spektr-im/spektr/internal/config"
	"github.com/spektr-im/spektr/internal/logger"
	"github.com/spektr-im/spektr/internal/server/handler/http"
	"github.com/spektr-im/spektr/internal/service"
	"github.com/spektr-im/spektr/internal/storage"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Open the storage backend.
	kv, err := openStorage(options)
	if err != nil {
		zapLogger.Fatal("cannot open storage", zap.Error(err))
	}

	// Initialize the stores over the shared key-value adapter.
	identity := service.NewIdentity(kv, zapLogger)
	chats := service.NewConversations(kv, identity, zapLogger)
	identity.SetBootstrapper(chats)
	settings := service.NewSettings(kv)

	// Create HTTP handlers for the store endpoints.
	authHandler := &http.AuthHandler{Identity: identity}
	chatHandler := &http.ChatHandler{Chats: chats}
	settingsHandler := &http.SettingsHandler{Settings: settings}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, chatHandler, settingsHandler, zapLogger)

	zapLogger.Info("starting HTTP server",
		zap.String("addr", options.Addr),
		zap.String("backend", options.Backend),
	)
	if err := nethttp.ListenAndServe(options.Addr, router); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// openStorage selects the key-value backend from configuration.
func openStorage(options *config.Options) (storage.KV, error) {
	switch options.Backend {
	case "memory":
		return storage.NewMemory(), nil
	case "file":
		return storage.OpenFile(options.StoragePath)
	case "sqlite3":
		return storage.OpenSQL("sqlite3", options.StoragePath)
	case "postgres":
		return storage.OpenSQL("postgres", options.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", options.Backend)
	}
}
