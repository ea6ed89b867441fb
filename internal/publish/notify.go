package publish

import (
	"context"
	"time"
)

// RunCompletion is the message announced after a place finishes publishing.
// Downstream consumers (the mobile backend cache, content review tooling)
// key off RunID and Place.
type RunCompletion struct {
	RunID       string    `json:"run_id"`
	Place       string    `json:"place"`
	Status      string    `json:"status"`
	AudioGuides int       `json:"audio_guides"`
	CompletedAt time.Time `json:"completed_at"`
	Error       string    `json:"error,omitempty"`
}

// Completion statuses.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Notifier announces run completion to interested consumers.
type Notifier interface {
	Notify(ctx context.Context, completion RunCompletion) error
}

// NopNotifier discards completions; used when no topic is configured.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, RunCompletion) error { return nil }
