// Package telegram sends proactive notifications through a Telegram bot.
package telegram

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akastas/screenshot-processor/pkg/ai"
)

// Notifier sends messages to a single configured chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates a Telegram notifier bound to one chat.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}
	return &Notifier{api: api, chatID: chatID}, nil
}

// SendMessage sends a markdown-formatted message to the configured chat.
func (n *Notifier) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send Telegram message: %w", err)
	}
	return nil
}

// maxReportedErrors caps the error lines in a batch summary so a bad run
// does not flood the chat.
const maxReportedErrors = 5

// FormatBatchSummary renders the post-processing notification for one batch.
func FormatBatchSummary(processed, skipped, failed int, counts map[ai.ItemType]int, errs []error) string {
	var b strings.Builder
	b.WriteString("📥 *Inbox processed*\n")
	fmt.Fprintf(&b, "Files: %d processed", processed)
	if skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", skipped)
	}
	if failed > 0 {
		fmt.Fprintf(&b, ", %d failed", failed)
	}
	b.WriteString("\n")

	if len(counts) > 0 {
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, string(t))
		}
		sort.Strings(types)
		b.WriteString("Items:")
		for _, t := range types {
			fmt.Fprintf(&b, " %s ×%d", strings.ToLower(t), counts[ai.ItemType(t)])
		}
		b.WriteString("\n")
	}

	if len(errs) > 0 {
		fmt.Fprintf(&b, "⚠️ %d error(s):\n", len(errs))
		for i, err := range errs {
			if i == maxReportedErrors {
				fmt.Fprintf(&b, "… and %d more\n", len(errs)-maxReportedErrors)
				break
			}
			fmt.Fprintf(&b, "- %s\n", err)
		}
	}
	return b.String()
}
