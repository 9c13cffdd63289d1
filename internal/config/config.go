// Package config provides functionality for managing configuration
// options for the application using command-line flags, environment
// variables, and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string

	// Backend selects the storage backend: "memory", "file",
	// "sqlite3", or "postgres".
	Backend string

	// StoragePath is the data file path for the file and sqlite3
	// backends.
	StoragePath string

	// DatabaseDSN holds the connection string for the postgres
	// backend.
	DatabaseDSN string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.Backend, "b", "file", "storage backend: memory | file | sqlite3 | postgres")
	flag.StringVar(&options.StoragePath, "f", "spektr.json", "data file for file/sqlite3 backends")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to
// set configuration values. A .env file in the working directory is
// loaded first when present. It returns a pointer to the Options
// struct containing the parsed configuration values.
func Parse() *Options {
	_ = godotenv.Load()
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		options.Backend = backend
	}
	if path := os.Getenv("STORAGE_PATH"); path != "" {
		options.StoragePath = path
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options
}
