// Package api exposes the HTTP trigger surface. A scheduler (or a person
// with curl) posts a trigger; the action field selects the pipeline run or
// one of the proactive digests.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/akastas/screenshot-processor/pkg/ai"
	"github.com/akastas/screenshot-processor/pkg/inbox"
	"github.com/akastas/screenshot-processor/pkg/proactive"
)

// BatchRunner runs one inbox processing batch.
type BatchRunner interface {
	ProcessBatch(ctx context.Context, triggerSource string) (*inbox.Result, error)
}

// DigestRunner generates and sends one proactive digest.
type DigestRunner interface {
	Run(ctx context.Context, kind proactive.DigestKind, now time.Time) error
}

// Handler holds dependencies for API handlers
type Handler struct {
	Processor BatchRunner
	Digests   DigestRunner // nil when no notifier is configured
}

// TriggerRequest is the payload for POST /trigger. An empty or absent action
// runs the inbox processor.
type TriggerRequest struct {
	Action string `json:"action"`
}

// TriggerResponse reports what a trigger did.
type TriggerResponse struct {
	Status    string              `json:"status"`
	Action    string              `json:"action"`
	Processed int                 `json:"processed,omitempty"`
	Skipped   int                 `json:"skipped,omitempty"`
	Failed    int                 `json:"failed,omitempty"`
	Items     map[ai.ItemType]int `json:"items,omitempty"`
	Errors    []string            `json:"errors,omitempty"`
}

// HandleTrigger handles POST /trigger.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "", "process":
		h.handleProcess(w, r)
	case string(proactive.MorningBriefing), string(proactive.MiddayNudge), string(proactive.EveningReview):
		h.handleDigest(w, r, proactive.DigestKind(req.Action))
	default:
		http.Error(w, "Unknown action: "+req.Action, http.StatusBadRequest)
	}
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	result, err := h.Processor.ProcessBatch(r.Context(), "api")
	if errors.Is(err, inbox.ErrBusy) {
		// A run is in flight; the trigger is handled by being skipped.
		writeJSON(w, http.StatusOK, TriggerResponse{Status: "busy, skipped", Action: "process"})
		return
	}
	if err != nil {
		log.Printf("api: process trigger: %v", err)
		http.Error(w, "Processing failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TriggerResponse{
		Status:    "ok",
		Action:    "process",
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Items:     result.Counts,
		Errors:    errorStrings(result.Errors),
	})
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

func (h *Handler) handleDigest(w http.ResponseWriter, r *http.Request, kind proactive.DigestKind) {
	if h.Digests == nil {
		http.Error(w, "No notifier configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.Digests.Run(r.Context(), kind, time.Now()); err != nil {
		log.Printf("api: %s trigger: %v", kind, err)
		http.Error(w, "Digest failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, TriggerResponse{Status: "ok", Action: string(kind)})
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
