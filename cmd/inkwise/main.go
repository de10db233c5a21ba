package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"inkwise/internal/config"
	"inkwise/internal/database"
	"inkwise/internal/models"
	"inkwise/internal/services"
	"inkwise/internal/session"
	"inkwise/internal/store"
	"inkwise/internal/view"
)

const usage = `Commands:
  /new              start a new chat
  /list             show chats
  /switch N         open chat N from /list
  /rename TITLE     rename the active chat
  /delete [N]       delete the active chat, or chat N
  /style [NAME]     show or set the writing style
  /quit             exit
Anything else is sent as a writing prompt.`

func main() {
	serverURL := flag.String("server", "", "InkWise server URL (overrides INKWISE_SERVER_URL)")
	email := flag.String("email", os.Getenv("INKWISE_EMAIL"), "login email for the server")
	password := flag.String("password", os.Getenv("INKWISE_PASSWORD"), "login password for the server")
	style := flag.String("style", string(models.DefaultStyle), "initial writing style")
	flag.Parse()

	cfg := config.LoadClient()
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chatStore, cleanup, err := openStore(ctx, cfg, *email, *password)
	if err != nil {
		log.Fatalf("✗ %v", err)
	}
	defer cleanup()

	term := view.NewTerminal(os.Stdout)
	opts := []session.Option{session.WithRenderer(term)}
	if cfg.ServerURL == "" {
		creds := config.NewCredentialLoader(store.NewMemoryKV(), cfg.EnvFile)
		opts = append(opts, session.WithGenerator(services.NewGenerationClient(cfg.GenerationEndpoint, creds)))
	}
	ctrl := session.New(chatStore, opts...)

	if err := ctrl.SetStyle(models.Style(*style)); err != nil {
		log.Fatalf("✗ %v", err)
	}
	if err := ctrl.Load(ctx); err != nil {
		log.Fatalf("✗ Loading chats failed: %v", err)
	}

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := run(ctx, ctrl, term, line)
		if errors.Is(err, store.ErrSessionExpired) {
			log.Fatal("✗ Session expired, log in again")
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if quit || ctx.Err() != nil {
			return
		}
	}
}

// openStore picks the chat backend: the server when one is configured,
// otherwise Redis or a local directory.
func openStore(ctx context.Context, cfg *config.ClientConfig, email, password string) (store.ChatStore, func(), error) {
	noop := func() {}

	if cfg.ServerURL != "" {
		remote, err := store.NewRemoteStore(cfg.ServerURL)
		if err != nil {
			return nil, noop, err
		}
		if email != "" {
			if err := remote.Login(ctx, email, password); err != nil {
				return nil, noop, fmt.Errorf("login failed: %w", err)
			}
			log.Printf("✓ Logged in to %s", cfg.ServerURL)
		}
		return remote, noop, nil
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Println("✓ Chats stored in Redis")
		return store.NewLocalStore(store.NewRedisKV(client)), func() { client.Close() }, nil
	}

	kv, err := store.NewFileKV(cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("data directory: %w", err)
	}
	log.Printf("✓ Chats stored in %s", cfg.DataDir)
	return store.NewLocalStore(kv), noop, nil
}

func run(ctx context.Context, ctrl *session.Controller, term *view.Terminal, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, ctrl.SendMessage(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(usage)
	case "/new":
		_, err := ctrl.CreateChat(ctx)
		return false, err
	case "/list":
		term.RenderChatList(ctrl.Chats(), ctrl.ActiveChatID())
	case "/switch":
		id, err := chatAt(ctrl, arg)
		if err != nil {
			return false, err
		}
		return false, ctrl.SetActiveChat(ctx, id)
	case "/rename":
		return false, ctrl.RenameChat(ctx, ctrl.ActiveChatID(), arg)
	case "/delete":
		id := ctrl.ActiveChatID()
		if arg != "" {
			var err error
			if id, err = chatAt(ctrl, arg); err != nil {
				return false, err
			}
		}
		return false, ctrl.DeleteChat(ctx, id)
	case "/style":
		if arg == "" {
			for _, s := range models.Styles {
				marker := " "
				if s == ctrl.Style() {
					marker = "*"
				}
				fmt.Printf(" %s %s\n", marker, s)
			}
			return false, nil
		}
		return false, ctrl.SetStyle(models.Style(strings.ToLower(arg)))
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

// chatAt resolves a 1-based position in the chat list.
func chatAt(ctrl *session.Controller, arg string) (string, error) {
	chats := ctrl.Chats()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(chats) {
		return "", fmt.Errorf("no chat %q, use /list", arg)
	}
	return chats[n-1].ID, nil
}
