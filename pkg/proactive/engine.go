// Package proactive turns dashboard snapshots into scheduled digest
// messages: a morning briefing, a midday nudge and an evening review.
package proactive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/akastas/screenshot-processor/pkg/dashboard"
)

// DigestKind selects which digest to generate.
type DigestKind string

const (
	MorningBriefing DigestKind = "morning_briefing"
	MiddayNudge     DigestKind = "nudge"
	EveningReview   DigestKind = "evening_review"
)

// Generator produces the digest text from a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers the digest.
type Notifier interface {
	SendMessage(text string) error
}

// Scanner provides the state snapshot a digest is written from.
type Scanner interface {
	Scan(ctx context.Context, today time.Time) *dashboard.Snapshot
}

// Engine generates and sends digests.
type Engine struct {
	generator Generator
	scanner   Scanner
	notifier  Notifier
}

// NewEngine creates a digest engine.
func NewEngine(generator Generator, scanner Scanner, notifier Notifier) *Engine {
	return &Engine{generator: generator, scanner: scanner, notifier: notifier}
}

// Run generates a digest of the given kind and sends it. Generation failures
// fall back to a fixed message so the scheduled ping still arrives.
func (e *Engine) Run(ctx context.Context, kind DigestKind, now time.Time) error {
	snapshot := e.scanner.Scan(ctx, now)

	message, err := e.generate(ctx, kind, snapshot)
	if err != nil {
		log.Printf("proactive: %s generation failed, using fallback: %v", kind, err)
		message = FallbackMessage(kind)
	}

	if err := e.notifier.SendMessage(message); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

// digestResponse is the JSON shape the model is asked to return.
type digestResponse struct {
	Message string `json:"message"`
}

func (e *Engine) generate(ctx context.Context, kind DigestKind, snapshot *dashboard.Snapshot) (string, error) {
	prompt, err := BuildPrompt(kind, snapshot)
	if err != nil {
		return "", err
	}

	raw, err := e.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return "", err
	}

	var resp digestResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("decode digest response: %w", err)
	}
	if resp.Message == "" {
		return "", fmt.Errorf("empty digest message")
	}
	return resp.Message, nil
}

// BuildPrompt assembles the generation prompt for a digest kind.
func BuildPrompt(kind DigestKind, snapshot *dashboard.Snapshot) (string, error) {
	intro, ok := promptIntros[kind]
	if !ok {
		return "", fmt.Errorf("unknown digest kind %q", kind)
	}
	return fmt.Sprintf("%s\n\nCurrent state:\n%s\n%s", intro, snapshot.Render(), promptOutro), nil
}

var promptIntros = map[DigestKind]string{
	MorningBriefing: `You are a friendly personal assistant writing a short morning briefing.
Summarize what matters today: overdue and due tasks, booking clients waiting
for a reply, and anything scheduled. Be warm and brief, at most 6 lines.`,
	MiddayNudge: `You are a friendly personal assistant writing a short midday nudge.
Pick the single most urgent open item (an overdue task or a client waiting
for a reply) and nudge about it in 1-2 sentences. If nothing is urgent, send
a short encouraging check-in instead.`,
	EveningReview: `You are a friendly personal assistant writing a short evening review.
Recap what got captured and done today and mention what is coming up
tomorrow. Be warm and brief, at most 6 lines.`,
}

const promptOutro = `Respond with JSON: {"message": "<the text to send, telegram markdown allowed>"}`

// FallbackMessage is sent when generation fails.
func FallbackMessage(kind DigestKind) string {
	switch kind {
	case MorningBriefing:
		return "☀️ Good morning! I couldn't put together a full briefing, but your vault and tasks are waiting for you."
	case MiddayNudge:
		return "👋 Midday check-in: take a minute to look at your open tasks."
	case EveningReview:
		return "🌙 Evening! I couldn't compile today's review, but tomorrow is a fresh start."
	default:
		return "🤖 Your assistant is alive, but had trouble writing this digest."
	}
}
