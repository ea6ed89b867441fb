// Package pipeline chains the four stages (harvest, script, synth, publish)
// over run-scoped tier artifacts and classifies their failures.
package pipeline

import "fmt"

// ConfigError reports invalid pipeline or place configuration.
type ConfigError struct {
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Detail, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError reports a failed page harvest.
type FetchError struct {
	Place string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("harvest %s: %v", e.Place, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *FetchError) Unwrap() error { return e.Err }

// GenerationError reports a failed narration script generation.
type GenerationError struct {
	Place string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate script for %s: %v", e.Place, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *GenerationError) Unwrap() error { return e.Err }

// SynthesisError reports a failed audio composition.
type SynthesisError struct {
	Place string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize audio for %s: %v", e.Place, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *SynthesisError) Unwrap() error { return e.Err }

// PublishError reports a failed publish; the database was left untouched
// unless the wrapped cause says otherwise.
type PublishError struct {
	Place string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Place, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *PublishError) Unwrap() error { return e.Err }
