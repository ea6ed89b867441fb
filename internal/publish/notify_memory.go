package publish

import (
	"context"
	"sync"
)

// MemoryNotifier records completions in memory; used in tests and local
// runs without a Pub/Sub topic.
type MemoryNotifier struct {
	mu          sync.Mutex
	completions []RunCompletion
}

// NewMemoryNotifier returns an empty recorder.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Notify implements Notifier.
func (n *MemoryNotifier) Notify(_ context.Context, completion RunCompletion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, completion)
	return nil
}

// Completions returns a copy of everything recorded so far.
func (n *MemoryNotifier) Completions() []RunCompletion {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]RunCompletion, len(n.completions))
	copy(out, n.completions)
	return out
}
