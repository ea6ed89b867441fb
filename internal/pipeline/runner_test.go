package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localgaid/pipeline/internal/artifact"
	"github.com/localgaid/pipeline/internal/harvest"
	"github.com/localgaid/pipeline/internal/place"
	"github.com/localgaid/pipeline/internal/progress"
	"github.com/localgaid/pipeline/internal/publish"
	"github.com/localgaid/pipeline/internal/retrypolicy"
	"github.com/localgaid/pipeline/internal/script"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

type captureEmitter struct{ events []progress.Event }

func (c *captureEmitter) Emit(evt progress.Event) { c.events = append(c.events, evt) }

type fakeHarvester struct {
	result harvest.Result
	err    error
}

func (f *fakeHarvester) Harvest(context.Context, string, place.PlaceConfig) (harvest.Result, error) {
	return f.result, f.err
}

type fakeGenerator struct {
	script   string
	err      error
	failures int
	calls    int
}

func (f *fakeGenerator) GenerateScript(context.Context, string) (string, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New("generation hiccup")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.script, nil
}

type fakeComposer struct {
	err error
}

func (f *fakeComposer) Compose(_ context.Context, _ string, silver place.PlaceDataSilver, outDir string) (place.PlaceDataGold, error) {
	if f.err != nil {
		return place.PlaceDataGold{}, f.err
	}
	sections := place.ParseSections(silver.Script)
	guides := make([]place.AudioGuide, 0, len(sections))
	for _, s := range sections {
		guides = append(guides, place.AudioGuide{
			Title:           s.Title,
			FullSubtitle:    s.Content,
			AudioURL:        filepath.Join(outDir, fmt.Sprintf("%02d.mp3", s.Number)),
			DurationSeconds: 10,
			SubtitleURL:     filepath.Join(outDir, fmt.Sprintf("%02d.srt", s.Number)),
		})
	}
	return place.WithAudioGuides(silver, guides), nil
}

type fakePublisher struct {
	err       error
	published []place.PlaceDataGold
}

func (f *fakePublisher) Publish(_ context.Context, _ string, gold place.PlaceDataGold) (place.PlaceDataGold, error) {
	if f.err != nil {
		return place.PlaceDataGold{}, f.err
	}
	f.published = append(f.published, gold)
	return gold, nil
}

type runnerFixture struct {
	runner    *Runner
	stores    Stores
	generator *fakeGenerator
	publisher *fakePublisher
	notifier  *publish.MemoryNotifier
}

func newFixture(t *testing.T, mutate func(*RunnerOptions)) *runnerFixture {
	t.Helper()
	root := t.TempDir()
	newStore := func(tier string) *artifact.Store {
		s, err := artifact.NewStore(filepath.Join(root, tier))
		require.NoError(t, err)
		return s
	}
	stores := Stores{
		Bronze: newStore("bronze"),
		Silver: newStore("silver"),
		Gold:   newStore("gold"),
	}
	prompt, err := script.ParsePromptTemplate("Narrate {{.Name}}:\n{{.Content}}")
	require.NoError(t, err)

	generator := &fakeGenerator{script: "# Intro\nHello.\n# History\nOnce upon a time."}
	publisher := &fakePublisher{}
	notifier := publish.NewMemoryNotifier()

	opts := RunnerOptions{
		RunID:  "run-1",
		Stores: stores,
		Harvester: &fakeHarvester{result: harvest.Result{
			Content: "https://example.com/a\npage text\n\n\n",
			Pages: []harvest.PageImages{{
				SourceURL: "https://example.com/a",
				Images:    []harvest.ImageDescriptor{{Src: "/img1.jpg", Desc: "View"}},
			}},
		}},
		Prompt:    prompt,
		Generator: generator,
		Composer:  &fakeComposer{},
		Publisher: publisher,
		Notifier:  notifier,
		Retry:     retrypolicy.New(3, time.Millisecond, 5*time.Millisecond),
	}
	if mutate != nil {
		mutate(&opts)
	}
	runner, err := NewRunner(opts)
	require.NoError(t, err)
	return &runnerFixture{
		runner:    runner,
		stores:    stores,
		generator: generator,
		publisher: publisher,
		notifier:  notifier,
	}
}

func placeConfig() place.PlaceConfig {
	return place.PlaceConfig{
		Name:     "Bach Dinh",
		Location: "10.34, 107.07",
		URLs:     []string{"https://example.com/a"},
	}
}

func TestRunBronzeWritesTierFile(t *testing.T) {
	fx := newFixture(t, nil)

	bronze, err := fx.runner.RunBronze(context.Background(), placeConfig())
	require.NoError(t, err)
	require.Equal(t, "Bach Dinh", bronze.Name)
	require.Equal(t, 10.34, bronze.Latitude)
	require.Equal(t, 107.07, bronze.Longitude)
	require.Equal(t, []string{"https://example.com/img1.jpg"}, bronze.Images)

	var stored place.PlaceDataBronze
	require.NoError(t, fx.stores.Bronze.ReadJSON("run-1", "Bach Dinh", &stored))
	require.Equal(t, bronze, stored)
}

func TestRunBronzeRejectsBadConfig(t *testing.T) {
	fx := newFixture(t, nil)

	cfg := placeConfig()
	cfg.Location = "not-coordinates"
	_, err := fx.runner.RunBronze(context.Background(), cfg)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunBronzeWrapsHarvestFailure(t *testing.T) {
	fx := newFixture(t, func(opts *RunnerOptions) {
		opts.Harvester = &fakeHarvester{err: errors.New("page unreachable")}
	})

	_, err := fx.runner.RunBronze(context.Background(), placeConfig())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "Bach Dinh", fetchErr.Place)
	// No Bronze file on failure.
	path, err := fx.stores.Bronze.Path("run-1", "Bach Dinh")
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunSilverGeneratesScriptWithRetries(t *testing.T) {
	fx := newFixture(t, nil)
	fx.generator.failures = 2

	_, err := fx.runner.RunBronze(context.Background(), placeConfig())
	require.NoError(t, err)

	silver, err := fx.runner.RunSilver(context.Background(), "Bach Dinh")
	require.NoError(t, err)
	require.Equal(t, fx.generator.script, silver.Script)
	require.Equal(t, 3, fx.generator.calls)

	var stored place.PlaceDataSilver
	require.NoError(t, fx.stores.Silver.ReadJSON("run-1", "Bach Dinh", &stored))
	require.Equal(t, silver, stored)
}

func TestRunSilverWrapsGenerationFailure(t *testing.T) {
	fx := newFixture(t, nil)
	fx.generator.err = errors.New("model unavailable")

	_, err := fx.runner.RunBronze(context.Background(), placeConfig())
	require.NoError(t, err)

	_, err = fx.runner.RunSilver(context.Background(), "Bach Dinh")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestRunSilverRequiresBronze(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.runner.RunSilver(context.Background(), "Bach Dinh")
	require.Error(t, err)
}

func TestRunGoldGuideCountMatchesSections(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, err := fx.runner.RunBronze(ctx, placeConfig())
	require.NoError(t, err)
	silver, err := fx.runner.RunSilver(ctx, "Bach Dinh")
	require.NoError(t, err)

	gold, err := fx.runner.RunGold(ctx, "Bach Dinh")
	require.NoError(t, err)

	sections := place.ParseSections(silver.Script)
	require.Len(t, gold.AudioGuides, len(sections))
	for i, guide := range gold.AudioGuides {
		require.Equal(t, sections[i].Title, guide.Title)
	}

	// The stored Gold file round-trips with the same guide count.
	var stored place.PlaceDataGold
	require.NoError(t, fx.stores.Gold.ReadJSON("run-1", "Bach Dinh", &stored))
	require.Len(t, stored.AudioGuides, len(sections))
	require.Equal(t, silver.Script, stored.Script)
}

func TestRunGoldWrapsSynthesisFailure(t *testing.T) {
	fx := newFixture(t, func(opts *RunnerOptions) {
		opts.Composer = &fakeComposer{err: errors.New("voice service down")}
	})
	ctx := context.Background()

	_, err := fx.runner.RunBronze(ctx, placeConfig())
	require.NoError(t, err)
	_, err = fx.runner.RunSilver(ctx, "Bach Dinh")
	require.NoError(t, err)

	_, err = fx.runner.RunGold(ctx, "Bach Dinh")
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestRunPublishNotifiesCompletion(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, err := fx.runner.RunAll(ctx, placeConfig())
	require.NoError(t, err)

	require.Len(t, fx.publisher.published, 1)
	completions := fx.notifier.Completions()
	require.Len(t, completions, 1)
	require.Equal(t, publish.StatusCompleted, completions[0].Status)
	require.Equal(t, "run-1", completions[0].RunID)
	require.Equal(t, "Bach Dinh", completions[0].Place)
	require.Equal(t, 2, completions[0].AudioGuides)
}

func TestRunPublishNotifiesFailure(t *testing.T) {
	fx := newFixture(t, func(opts *RunnerOptions) {
		opts.Publisher = &fakePublisher{err: errors.New("bucket gone")}
	})
	ctx := context.Background()

	_, err := fx.runner.RunAll(ctx, placeConfig())
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)

	completions := fx.notifier.Completions()
	require.Len(t, completions, 1)
	require.Equal(t, publish.StatusFailed, completions[0].Status)
	require.NotEmpty(t, completions[0].Error)
}

func TestRunAllHaltsOnFirstFailure(t *testing.T) {
	fx := newFixture(t, func(opts *RunnerOptions) {
		opts.Harvester = &fakeHarvester{err: errors.New("network down")}
	})

	_, err := fx.runner.RunAll(context.Background(), placeConfig())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Empty(t, fx.publisher.published)
	require.Equal(t, 0, fx.generator.calls)
}

func TestRunnerStampsEventsFromClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	emitter := &captureEmitter{}
	fx := newFixture(t, func(opts *RunnerOptions) {
		opts.Emitter = emitter
		opts.Clock = fixedClock{now: at}
	})

	_, err := fx.runner.RunAll(context.Background(), placeConfig())
	require.NoError(t, err)

	require.NotEmpty(t, emitter.events)
	for _, evt := range emitter.events {
		require.Equal(t, at, evt.TS)
		require.Equal(t, "run-1", evt.RunID)
		require.NoError(t, evt.Validate())
	}

	completions := fx.notifier.Completions()
	require.Len(t, completions, 1)
	require.Equal(t, at, completions[0].CompletedAt)
}

func TestNewRunnerRequiresRunID(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
