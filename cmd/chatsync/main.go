package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-sync/contract"
	"chat-sync/domain"
	cerrors "chat-sync/errors"
	"chat-sync/infrastructure/rest"
	"chat-sync/internal"
	"chat-sync/repositories"
	"chat-sync/runtime"
	"chat-sync/runtime/workers"
	"chat-sync/transport"
	"chat-sync/ui"
	"chat-sync/uploads"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles configuration loading, the session lifecycle, and the
// terminal loop. Keeping it out of main ensures deferred cleanup runs
// before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Local state (BadgerDB settings record)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	settingsRepo := repositories.NewSettingsRepository(db, log)
	settings, err := settingsRepo.Load()
	if errors.Is(err, cerrors.ErrSettingsNotFound) {
		settings = domain.Settings{
			DisplayName: config.DisplayName,
			Endpoint:    config.Endpoint,
			DemoMode:    config.DemoMode,
		}
		if err := settingsRepo.Save(settings); err != nil {
			return exitRuntime, fmt.Errorf("settings save failed: %w", err)
		}
	} else if err != nil {
		return exitRuntime, err
	}

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Wiring: session <-> engine <-> queries
	identity := domain.Identity{DisplayName: settings.DisplayName}
	restClient := rest.NewClient(log, config.RestBaseURL, config.HTTPTimeout)
	session := transport.NewSession(log, config.BackoffBase, config.BackoffCeiling)
	engine := runtime.NewEngine(log, identity, session, restClient, restClient, runtime.Options{
		QueueSize:    config.QueueSize,
		DemoMode:     settings.DemoMode,
		DemoPeerName: config.DemoPeerName,
		DemoReplyMin: config.DemoReplyMin,
		DemoReplyMax: config.DemoReplyMax,
	})
	session.BindSink(engine)

	uploader := uploads.NewUploader(log, config.RestBaseURL, uploads.Limits{
		Image: config.UploadMaxImageBytes,
		Audio: config.UploadMaxAudioBytes,
		Video: config.UploadMaxVideoBytes,
		File:  config.UploadMaxFileBytes,
	}, config.HTTPTimeout)

	console := ui.NewConsole(os.Stdout)
	tail := ui.NewTail(console)
	engine.SetOnChange(func() {
		tail.Render(engine.Messages())
	})

	// 5. Start the engine under supervision and open the session
	sup := workers.NewSupervisor(log, config.RestartPause).Add(engine)
	go sup.Run(ctx)
	defer sup.Stop()

	if err := session.Connect(ctx, settings.Endpoint, identity, settings.DemoMode); err != nil {
		return exitRuntime, fmt.Errorf("session connect failed: %w", err)
	}
	defer session.Shutdown()

	engine.Dispatch(domain.RefreshDirectoryCommand{})
	log.Info("Connected", "endpoint", settings.Endpoint, "as", settings.DisplayName,
		"demo", settings.DemoMode)

	// 6. Terminal loop
	repl(ctx, engine, session, uploader, console)
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

// repl reads user intents from stdin until EOF, /quit, or shutdown.
func repl(ctx context.Context, engine *runtime.Engine, session contract.Transport,
	uploader contract.Uploader, console *ui.Console) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			engine.Dispatch(domain.SendTextCommand{Body: line})
			continue
		}

		verb, args, _ := strings.Cut(line, " ")
		switch verb {
		case "/quit":
			return
		case "/rooms":
			console.RenderDirectory(engine.Conversations(), engine.Identity().ActiveConversation)
		case "/log":
			console.RenderLog(engine.Messages())
		case "/status":
			console.RenderStatus(engine.State())
			if stats := session.Stats(); stats.Attempt > 0 {
				fmt.Printf("reconnect attempt %d, next delay %s\n", stats.Attempt, stats.Delay)
			}
		case "/join":
			engine.Dispatch(domain.SwitchConversationCommand{ConversationID: args})
		case "/create":
			name, description, _ := strings.Cut(args, " ")
			engine.Dispatch(domain.CreateConversationCommand{Name: name, Description: description})
		case "/edit":
			id, body, _ := strings.Cut(args, " ")
			engine.Dispatch(domain.EditCommand{MessageID: id, Body: body})
		case "/delete":
			engine.Dispatch(domain.DeleteCommand{MessageID: args})
		case "/react":
			id, symbol, _ := strings.Cut(args, " ")
			engine.Dispatch(domain.ReactCommand{MessageID: id, Symbol: symbol})
		case "/forward":
			id, target, _ := strings.Cut(args, " ")
			engine.Dispatch(domain.ForwardCommand{MessageID: id, TargetConversationID: target})
		case "/send-file":
			path, caption, _ := strings.Cut(args, " ")
			sendFile(ctx, engine, uploader, path, caption)
		default:
			fmt.Println("Commands: /rooms /log /status /join /create /edit /delete /react /forward /send-file /quit")
		}
	}
}

// sendFile uploads a local file and posts the resulting descriptor.
// An upload failure aborts the send; nothing is queued.
func sendFile(ctx context.Context, engine *runtime.Engine, uploader contract.Uploader,
	path, caption string) {
	blob, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read %s: %v\n", path, err)
		return
	}
	kind := uploads.KindFor(blob)
	upload, err := uploader.Upload(ctx, blob, kind, strings.TrimSpace(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		return
	}
	engine.Dispatch(domain.SendMediaCommand{Upload: upload, Caption: caption})
}
