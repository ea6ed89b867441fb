// Package synth converts narration script sections into per-section audio
// files with time-aligned SRT subtitles, upgrading Silver to Gold.
package synth

import (
	"context"
	"time"
)

// EventType tags the two kinds of events a synthesis stream produces.
type EventType string

// Synthesis stream event types.
const (
	EventAudioChunk   EventType = "audio"
	EventWordBoundary EventType = "word_boundary"
)

// Event is one item of a synthesis stream: either a chunk of encoded audio
// or a word-boundary timing mark used for subtitle alignment.
type Event struct {
	Type EventType
	// Audio holds encoded audio bytes for EventAudioChunk.
	Audio []byte
	// Word, Offset and Duration describe a word boundary: the spoken word,
	// its start offset from the beginning of the clip, and how long it is
	// voiced.
	Word     string
	Offset   time.Duration
	Duration time.Duration
}

// EventHandler consumes synthesis events in stream order. Returning an error
// aborts the stream.
type EventHandler func(Event) error

// Synthesizer streams speech synthesis for a piece of text in a fixed voice.
// The full audio is delivered as a sequence of EventAudioChunk events and
// the word timing as interleaved EventWordBoundary events.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, handle EventHandler) error
}
