package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/akastas/screenshot-processor/pkg/ai"
	"github.com/akastas/screenshot-processor/pkg/api"
	"github.com/akastas/screenshot-processor/pkg/config"
	"github.com/akastas/screenshot-processor/pkg/dashboard"
	"github.com/akastas/screenshot-processor/pkg/db"
	"github.com/akastas/screenshot-processor/pkg/inbox"
	"github.com/akastas/screenshot-processor/pkg/integration/discord"
	"github.com/akastas/screenshot-processor/pkg/integration/drive"
	"github.com/akastas/screenshot-processor/pkg/integration/telegram"
	"github.com/akastas/screenshot-processor/pkg/integration/ticktick"
	"github.com/akastas/screenshot-processor/pkg/proactive"
	"github.com/akastas/screenshot-processor/pkg/vault"
)

func main() {
	dbPath := flag.String("db", "screenshot-processor.db", "Path to SQLite DB")
	port := flag.String("port", "8080", "HTTP Port")
	watchInterval := flag.Duration("watch", 0, "Inbox polling interval (0 disables the watcher)")
	taskProject := flag.String("task-project", "Inbox", "TickTick project for unhinted tasks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()

	// Initialize DB
	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}
	repo := db.NewRepository(database)

	// Initialize AI client
	aiClient, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	defer aiClient.Close()

	// Initialize Drive service (inbox queue + vault store)
	driveService, err := drive.NewService(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to create Drive service: %v", err)
	}
	resolver := vault.NewResolver(driveService, cfg.VaultRootFolderID)
	bookings := vault.NewBookingManager(driveService, resolver, aiClient)

	// Initialize TickTick (optional)
	var tasks *ticktick.Client
	if cfg.TickTickAccessToken != "" {
		tasks = ticktick.NewClient(cfg.TickTickAccessToken, cfg.TickTickAPIBase, *taskProject)
		log.Println("TickTick task creation enabled")
	} else {
		log.Println("TICKTICK_ACCESS_TOKEN not set, skipping task creation")
	}

	// Initialize notifier: Telegram preferred, Discord as alternative
	var notifier proactive.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		chatID, err := strconv.ParseInt(cfg.TelegramChatID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		tg, err := telegram.NewNotifier(cfg.TelegramToken, chatID)
		if err != nil {
			log.Printf("Failed to create Telegram notifier: %v", err)
		} else {
			notifier = tg
			log.Println("Telegram notifications enabled")
		}
	}
	if notifier == nil && cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		dc, err := discord.NewNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			log.Printf("Failed to create Discord notifier: %v", err)
		} else {
			notifier = dc
			defer dc.Close()
			log.Println("Discord notifications enabled")
		}
	}
	if notifier == nil {
		log.Println("No notifier configured, digests disabled")
	}

	// Assemble the pipeline
	opts := inbox.Options{Repo: repo}
	if tasks != nil {
		opts.Tasks = tasks
	}
	if notifier != nil {
		opts.Notifier = notifier
		opts.Summarize = telegram.FormatBatchSummary
	}
	processor := inbox.NewProcessor(driveService, aiClient, resolver, bookings,
		cfg.InboxFolderID, cfg.ArchiveFolderID, opts)

	var digests api.DigestRunner
	if notifier != nil {
		var lister dashboard.TaskLister
		if tasks != nil {
			lister = tasks
		}
		scanner := dashboard.NewScanner(driveService, resolver, lister, *taskProject)
		digests = proactive.NewEngine(aiClient, scanner, notifier)
	}

	// Optional built-in scheduler
	if *watchInterval > 0 {
		watcher := inbox.NewWatcher(processor, *watchInterval)
		if err := watcher.Start(); err != nil {
			log.Printf("Failed to start watcher: %v", err)
		} else {
			log.Printf("Inbox watcher running every %s", watchInterval)
			defer watcher.Stop()
		}
	}

	router := api.NewRouter(processor, digests)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // a full batch can take a while
	}
	log.Printf("Starting server on :%s", *port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
