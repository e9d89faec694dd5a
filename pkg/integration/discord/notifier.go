// Package discord sends notifications to a Discord channel, as an
// alternative delivery channel to Telegram.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages over 2000 characters.
const maxMessageLen = 2000

// Notifier sends messages to a single configured channel.
type Notifier struct {
	session   *discordgo.Session
	channelID string
}

// NewNotifier creates a Discord notifier bound to one channel.
func NewNotifier(token, channelID string) (*Notifier, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	return &Notifier{session: dg, channelID: channelID}, nil
}

// SendMessage sends a message to the configured channel, splitting it into
// chunks when it exceeds the Discord length limit.
func (n *Notifier) SendMessage(text string) error {
	for _, chunk := range SplitMessage(text, maxMessageLen) {
		if _, err := n.session.ChannelMessageSend(n.channelID, chunk); err != nil {
			return fmt.Errorf("send Discord message: %w", err)
		}
	}
	return nil
}

// Close shuts down the underlying session.
func (n *Notifier) Close() error {
	return n.session.Close()
}

// SplitMessage splits text into chunks of at most limit runes, preferring
// line boundaries.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
