package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageHarvestStart Stage = "HARVEST_START"
	StageHarvestPage  Stage = "HARVEST_PAGE"
	StageHarvestDone  Stage = "HARVEST_DONE"
	StageScriptStart  Stage = "SCRIPT_START"
	StageScriptDone   Stage = "SCRIPT_DONE"
	StageSynthStart   Stage = "SYNTH_START"
	StageSynthSection Stage = "SYNTH_SECTION"
	StageSynthDone    Stage = "SYNTH_DONE"
	StagePublishStart Stage = "PUBLISH_START"
	StagePublishDone  Stage = "PUBLISH_DONE"
	StageError        Stage = "STAGE_ERROR"
)

// Event captures a single pipeline milestone for one place within a run.
type Event struct {
	// RunID identifies the pipeline execution the event belongs to.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Place is the place name the pipeline instance is processing.
	Place string
	// URL optionally scopes harvest events to a source page.
	URL string
	// Fraction reports stage completion in [0, 1] for page/section events.
	Fraction float64
	// Dur captures execution latency for done events.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Place == "" {
		return errors.New("place is required")
	}
	switch e.Stage {
	case StageHarvestStart, StageHarvestDone,
		StageScriptStart, StageScriptDone,
		StageSynthStart, StageSynthSection, StageSynthDone,
		StagePublishStart, StagePublishDone, StageError:
	case StageHarvestPage:
		if e.URL == "" {
			return errors.New("harvest page event requires url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Fraction < 0 || e.Fraction > 1 {
		return errors.New("fraction must be in [0, 1]")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
