package synth

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/localgaid/pipeline/internal/place"
	"github.com/localgaid/pipeline/internal/progress"
	"github.com/localgaid/pipeline/internal/retrypolicy"
)

// DefaultMinInterval spaces consecutive synthesis calls so the speech
// service is not hammered with back-to-back utterances.
const DefaultMinInterval = 5 * time.Second

// ComposerConfig controls per-section synthesis.
type ComposerConfig struct {
	// Voice names the speech voice used for every section.
	Voice string
	// MinInterval is the minimum spacing between synthesis calls; zero or
	// negative falls back to DefaultMinInterval.
	MinInterval time.Duration
}

// Composer turns a Silver script into per-section MP3 and SRT files and
// merges the results into Gold. Sections synthesize serially in script
// order; any section failure fails the whole composition so Gold is never
// produced with holes.
type Composer struct {
	synth   Synthesizer
	cfg     ComposerConfig
	limiter *rate.Limiter
	retry   *retrypolicy.Policy
	emitter progress.Emitter
	logger  *zap.Logger

	// measure is a seam for tests; production uses AudioDuration.
	measure func(data []byte) (int, error)
}

// NewComposer wires a synthesizer with rate limiting, retries, and progress
// reporting. A nil retry policy falls back to the default; a nil emitter
// discards progress.
func NewComposer(synth Synthesizer, cfg ComposerConfig, retry *retrypolicy.Policy, emitter progress.Emitter, logger *zap.Logger) *Composer {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if retry == nil {
		retry = retrypolicy.Default()
	}
	if emitter == nil {
		emitter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		synth:   synth,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		retry:   retry,
		emitter: emitter,
		logger:  logger,
		measure: AudioDuration,
	}
}

// SectionFileStem is the shared base name of a section's audio and subtitle
// files: the two-digit section number and the title with spaces hyphenated.
// Titles come from generated script text, so path separators and NUL bytes
// are hyphenated too; the stem is always a single path element under the
// run directory.
func SectionFileStem(section place.AudioScriptSection) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', 0:
			return '-'
		default:
			return r
		}
	}, section.Title)
	return fmt.Sprintf("%02d_%s", section.Number, title)
}

// Compose synthesizes every section of the Silver script into outDir and
// returns the Gold record. Audio and subtitle URLs point at the written
// local files; publishing rewrites them later.
func (c *Composer) Compose(ctx context.Context, runID string, silver place.PlaceDataSilver, outDir string) (place.PlaceDataGold, error) {
	sections := place.ParseSections(silver.Script)
	if len(sections) == 0 {
		return place.PlaceDataGold{}, fmt.Errorf("script for %q has no sections", silver.Name)
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return place.PlaceDataGold{}, fmt.Errorf("create output dir: %w", err)
	}

	guides := make([]place.AudioGuide, 0, len(sections))
	for i, section := range sections {
		guide, err := c.composeSection(ctx, section, outDir)
		if err != nil {
			return place.PlaceDataGold{}, fmt.Errorf("section %d (%s): %w", section.Number, section.Title, err)
		}
		guides = append(guides, guide)

		c.logger.Info("synthesized section",
			zap.String("place", silver.Name),
			zap.Int("section", section.Number),
			zap.String("title", section.Title),
			zap.Int("duration_seconds", guide.DurationSeconds),
		)
		c.emitter.Emit(progress.Event{
			RunID:    runID,
			TS:       time.Now().UTC(),
			Stage:    progress.StageSynthSection,
			Place:    silver.Name,
			Fraction: float64(i+1) / float64(len(sections)),
			Note:     section.Title,
		})
	}

	return place.WithAudioGuides(silver, guides), nil
}

func (c *Composer) composeSection(ctx context.Context, section place.AudioScriptSection, outDir string) (place.AudioGuide, error) {
	if strings.TrimSpace(section.Content) == "" {
		return place.AudioGuide{}, fmt.Errorf("section has no narration text")
	}

	var audio bytes.Buffer
	var subs *SubtitleBuilder
	err := c.retry.Do(ctx, func() error {
		// Every attempt is an outbound call, so each takes a limiter slot.
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for synthesis slot: %w", err)
		}
		audio.Reset()
		subs = NewSubtitleBuilder()
		return c.synth.Synthesize(ctx, section.Content, c.cfg.Voice, func(evt Event) error {
			switch evt.Type {
			case EventAudioChunk:
				_, _ = audio.Write(evt.Audio)
			case EventWordBoundary:
				subs.Feed(evt.Word, evt.Offset, evt.Duration)
			}
			return nil
		})
	})
	if err != nil {
		return place.AudioGuide{}, fmt.Errorf("synthesize: %w", err)
	}
	if audio.Len() == 0 {
		return place.AudioGuide{}, fmt.Errorf("synthesis produced no audio")
	}

	stem := SectionFileStem(section)
	audioPath := filepath.Join(outDir, stem+".mp3")
	subtitlePath := filepath.Join(outDir, stem+".srt")

	if err := os.WriteFile(audioPath, audio.Bytes(), 0o640); err != nil {
		return place.AudioGuide{}, fmt.Errorf("write audio file: %w", err)
	}
	if err := os.WriteFile(subtitlePath, []byte(subs.SRT()), 0o640); err != nil {
		return place.AudioGuide{}, fmt.Errorf("write subtitle file: %w", err)
	}

	seconds, err := c.measure(audio.Bytes())
	if err != nil {
		return place.AudioGuide{}, fmt.Errorf("measure audio duration: %w", err)
	}

	return place.AudioGuide{
		Title:           section.Title,
		FullSubtitle:    section.Content,
		AudioURL:        audioPath,
		DurationSeconds: seconds,
		SubtitleURL:     subtitlePath,
	}, nil
}
