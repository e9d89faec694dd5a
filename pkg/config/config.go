package config

import (
	"fmt"
	"os"
)

// Config holds all runtime settings. Credentials and folder IDs come from
// environment variables; everything else has fixed defaults matching the
// vault layout.
type Config struct {
	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Google Drive folder IDs
	InboxFolderID     string
	ArchiveFolderID   string
	VaultRootFolderID string

	// Drive service account credentials file (optional; falls back to ADC)
	CredentialsFile string

	// TickTick
	TickTickAccessToken string
	TickTickAPIBase     string

	// Telegram
	TelegramToken  string
	TelegramChatID string

	// Discord
	DiscordToken     string
	DiscordChannelID string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		InboxFolderID:       os.Getenv("DRIVE_INBOX_FOLDER_ID"),
		ArchiveFolderID:     os.Getenv("DRIVE_ARCHIVE_FOLDER_ID"),
		VaultRootFolderID:   os.Getenv("DRIVE_VAULT_ROOT_FOLDER_ID"),
		CredentialsFile:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		TickTickAccessToken: os.Getenv("TICKTICK_ACCESS_TOKEN"),
		TickTickAPIBase:     envOr("TICKTICK_API_BASE", "https://api.ticktick.com/open/v1"),
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:      os.Getenv("TELEGRAM_CHAT_ID"),
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID:    os.Getenv("DISCORD_CHANNEL_ID"),
	}

	if cfg.InboxFolderID == "" {
		return nil, fmt.Errorf("DRIVE_INBOX_FOLDER_ID is required")
	}
	if cfg.ArchiveFolderID == "" {
		return nil, fmt.Errorf("DRIVE_ARCHIVE_FOLDER_ID is required")
	}
	if cfg.VaultRootFolderID == "" {
		return nil, fmt.Errorf("DRIVE_VAULT_ROOT_FOLDER_ID is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ImageExtensions are the inbox file extensions treated as screenshots.
var ImageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true,
	"heic": true, "heif": true, "bmp": true, "gif": true,
}

// TextExtensions are the inbox file extensions treated as text notes.
var TextExtensions = map[string]bool{
	"txt": true, "md": true,
}

// DailyNotesFolder is the vault folder holding one note per calendar date.
const DailyNotesFolder = "Daily Notes"

// Vault-relative destination paths per concern.
const (
	EventsPath      = "2-Areas/Calendar/Events.md"
	IdeasPath       = "3-Resources/Ideas/Ideas.md"
	ReferencesPath  = "3-Resources/References.md"
	FinancesPath    = "2-Areas/Finances/Transactions.md"
	PeoplePath      = "3-Resources/People/People.md"
	PlacesPath      = "3-Resources/Places/Places.md"
	InspirationPath = "3-Resources/Inspiration/Inspiration.md"
	QuotesPath      = "3-Resources/Quotes/Quotes.md"
	LearningPath    = "3-Resources/Learning/Learning.md"
	WishlistPath    = "3-Resources/Wishlist/Wishlist.md"
	RecipesPath     = "3-Resources/Recipes/Recipes.md"
	ClientsPath     = "2-Areas/Clients"
	FAQPath         = "2-Areas/Clients/FAQ.md"
)

// DailyNoteTemplate is the body of a freshly created daily note. The %s is
// the ISO date.
const DailyNoteTemplate = `---
date: %s
---

## Tasks

## Events

## Diary

## Notes
`

// MaxBatchSize caps inbox files processed per invocation so one run stays
// inside the external scheduler's time budget.
const MaxBatchSize = 15

// MaxTextBytes caps the size of a text note sent for analysis; larger input
// is truncated.
const MaxTextBytes = 100_000
