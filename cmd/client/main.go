// Package main provides an interactive local client that works
// directly against a file-backed store, without the API server.
package main

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/service"
	"github.com/spektr-im/spektr/internal/storage"
)

var (
	version   string
	buildDate string
)

// repl runs the interactive shell loop, accepting commands to manage
// the session, chats, and messages.
func repl(identity *service.Identity, chats *service.Conversations, settings *service.Settings) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("spektr> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, register <username> <password> [name], login <username> <password>, logout, whoami, search <query>, chats, open <chatId>, send <chatId> <text>, msg <userId>, theme [name], exit")
		case "register":
			if len(args) < 3 {
				fmt.Println("Usage: register <username> <password> [name]")
				continue
			}
			name := args[1]
			if len(args) > 3 {
				name = strings.Join(args[3:], " ")
			}
			user, err := identity.Register(ctx, args[1], name, args[2])
			if err != nil {
				fmt.Println("Registration failed:", err)
				continue
			}
			fmt.Printf("Registered %s (%s)\n", user.Username, user.ID)
		case "login":
			if len(args) < 3 {
				fmt.Println("Usage: login <username> <password>")
				continue
			}
			user, err := identity.Login(ctx, args[1], args[2])
			if err != nil {
				fmt.Println("Login failed:", err)
				continue
			}
			fmt.Printf("Logged in as %s\n", user.Username)
		case "logout":
			if err := identity.Logout(ctx); err != nil {
				fmt.Println("Logout failed:", err)
				continue
			}
			fmt.Println("Logged out")
		case "whoami":
			user, err := identity.CurrentUser(ctx)
			if err != nil {
				fmt.Println("Not logged in")
				continue
			}
			fmt.Printf("%s (%s)\n", user.Username, user.ID)
		case "search":
			if len(args) < 2 {
				fmt.Println("Usage: search <query>")
				continue
			}
			users, err := identity.SearchUsers(ctx, strings.Join(args[1:], " "))
			if err != nil {
				fmt.Println("Search failed:", err)
				continue
			}
			for _, u := range users {
				fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, u.Name)
			}
		case "chats":
			list, err := chats.List(ctx)
			if err != nil {
				fmt.Println("Cannot list chats:", err)
				continue
			}
			for _, c := range list {
				preview := ""
				if c.LastMessage != nil {
					preview = c.LastMessage.Text
				}
				fmt.Printf("%s\tunread=%d\t%s\n", c.ID, c.UnreadCount, preview)
			}
		case "open":
			if len(args) < 2 {
				fmt.Println("Usage: open <chatId>")
				continue
			}
			msgs, err := chats.GetMessages(ctx, args[1])
			if err != nil {
				fmt.Println("Cannot open chat:", err)
				continue
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04"), m.SenderID, m.Text)
			}
			if err := chats.MarkRead(ctx, args[1]); err != nil {
				fmt.Println("Cannot mark chat read:", err)
			}
		case "send":
			if len(args) < 3 {
				fmt.Println("Usage: send <chatId> <text>")
				continue
			}
			text := strings.Join(args[2:], " ")
			if _, err := chats.SendMessage(ctx, args[1], service.MessageDraft{Text: text}); err != nil {
				fmt.Println("Cannot send message:", err)
			}
		case "msg":
			if len(args) < 2 {
				fmt.Println("Usage: msg <userId>")
				continue
			}
			chat, err := chats.GetOrCreate(ctx, args[1])
			if err != nil {
				fmt.Println("Cannot open direct chat:", err)
				continue
			}
			fmt.Println("Chat:", chat.ID)
		case "theme":
			if len(args) < 2 {
				theme, err := settings.Theme(ctx)
				if err != nil {
					fmt.Println("Cannot read theme:", err)
					continue
				}
				fmt.Println("Theme:", theme)
				continue
			}
			if err := settings.SetTheme(ctx, models.Theme(args[1])); err != nil {
				if errors.Is(err, service.ErrUnknownTheme) {
					fmt.Println("Unknown theme:", args[1])
				} else {
					fmt.Println("Cannot set theme:", err)
				}
				continue
			}
			fmt.Println("Theme set to", args[1])
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// main parses command-line flags and starts the interactive shell
// over a file-backed store.
func main() {
	var (
		dataFile string
		showVer  bool
	)

	flag.StringVar(&dataFile, "file", "spektr.json", "path to the data file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Spektr Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	kv, err := storage.OpenFile(dataFile)
	if err != nil {
		fmt.Println("Cannot open data file:", err)
		os.Exit(1)
	}

	log := zap.NewNop()
	identity := service.NewIdentity(kv, log)
	chats := service.NewConversations(kv, identity, log)
	identity.SetBootstrapper(chats)
	settings := service.NewSettings(kv)

	repl(identity, chats, settings)
}
