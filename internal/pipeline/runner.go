package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/artifact"
	"github.com/localgaid/pipeline/internal/clock"
	"github.com/localgaid/pipeline/internal/clock/system"
	"github.com/localgaid/pipeline/internal/harvest"
	"github.com/localgaid/pipeline/internal/place"
	"github.com/localgaid/pipeline/internal/progress"
	"github.com/localgaid/pipeline/internal/publish"
	"github.com/localgaid/pipeline/internal/retrypolicy"
	"github.com/localgaid/pipeline/internal/script"
)

// Harvester produces the raw page content and image candidates for a place.
type Harvester interface {
	Harvest(ctx context.Context, runID string, cfg place.PlaceConfig) (harvest.Result, error)
}

// Composer turns a Silver record into Gold, writing section audio and
// subtitle files into outDir.
type Composer interface {
	Compose(ctx context.Context, runID string, silver place.PlaceDataSilver, outDir string) (place.PlaceDataGold, error)
}

// Publisher pushes a Gold record to production storage and database.
type Publisher interface {
	Publish(ctx context.Context, runID string, gold place.PlaceDataGold) (place.PlaceDataGold, error)
}

// Stores bundles the three tier artifact stores.
type Stores struct {
	Bronze *artifact.Store
	Silver *artifact.Store
	Gold   *artifact.Store
}

// Runner executes pipeline stages for one run. Each stage reads its input
// tier from the artifact store, produces the next tier, and writes exactly
// one tier file; a stage failure leaves downstream tiers unwritten.
type Runner struct {
	runID     string
	stores    Stores
	harvester Harvester
	filter    harvest.FilterOptions
	prompt    *script.PromptTemplate
	generator script.Generator
	composer  Composer
	publisher Publisher
	notifier  publish.Notifier
	retry     *retrypolicy.Policy
	emitter   progress.Emitter
	clock     clock.Clock
	logger    *zap.Logger
}

// RunnerOptions carries the collaborators a Runner needs. Optional fields
// (Notifier, Retry, Emitter, Clock, Logger) may be nil.
type RunnerOptions struct {
	RunID     string
	Stores    Stores
	Harvester Harvester
	Filter    harvest.FilterOptions
	Prompt    *script.PromptTemplate
	Generator script.Generator
	Composer  Composer
	Publisher Publisher
	Notifier  publish.Notifier
	Retry     *retrypolicy.Policy
	Emitter   progress.Emitter
	Clock     clock.Clock
	Logger    *zap.Logger
}

// NewRunner validates and assembles a stage runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.RunID == "" {
		return nil, &ConfigError{Detail: "run id", Err: errors.New("run id is required")}
	}
	if opts.Notifier == nil {
		opts.Notifier = publish.NopNotifier{}
	}
	if opts.Retry == nil {
		opts.Retry = retrypolicy.Default()
	}
	if opts.Emitter == nil {
		opts.Emitter = progress.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = system.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		runID:     opts.RunID,
		stores:    opts.Stores,
		harvester: opts.Harvester,
		filter:    opts.Filter,
		prompt:    opts.Prompt,
		generator: opts.Generator,
		composer:  opts.Composer,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		retry:     opts.Retry,
		emitter:   opts.Emitter,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}, nil
}

// RunID returns the run this Runner is scoped to.
func (r *Runner) RunID() string { return r.runID }

// RunBronze harvests the place's source pages, filters image candidates, and
// writes the Bronze tier file.
func (r *Runner) RunBronze(ctx context.Context, cfg place.PlaceConfig) (place.PlaceDataBronze, error) {
	if err := cfg.Validate(); err != nil {
		return place.PlaceDataBronze{}, &ConfigError{Detail: "place config", Err: err}
	}
	latitude, longitude, err := cfg.Coordinates()
	if err != nil {
		return place.PlaceDataBronze{}, &ConfigError{Detail: "place coordinates", Err: err}
	}

	started := r.clock.Now()
	r.emit(progress.Event{Stage: progress.StageHarvestStart, Place: cfg.Name})

	result, err := r.harvester.Harvest(ctx, r.runID, cfg)
	if err != nil {
		r.emitError(cfg.Name, err)
		return place.PlaceDataBronze{}, &FetchError{Place: cfg.Name, Err: err}
	}

	bronze := place.PlaceDataBronze{
		Name:      cfg.Name,
		Latitude:  latitude,
		Longitude: longitude,
		Content:   result.Content,
		Images:    harvest.FilterImages(result.Pages, r.filter),
	}
	path, err := r.stores.Bronze.WriteJSON(r.runID, bronze.Name, bronze)
	if err != nil {
		return place.PlaceDataBronze{}, err
	}

	r.logger.Info("bronze tier written",
		zap.String("run_id", r.runID),
		zap.String("place", bronze.Name),
		zap.String("path", path),
		zap.Int("images", len(bronze.Images)),
	)
	r.emit(progress.Event{Stage: progress.StageHarvestDone, Place: cfg.Name, Fraction: 1, Dur: r.clock.Now().Sub(started)})
	return bronze, nil
}

// RunSilver loads the Bronze tier, generates the narration script, and
// writes the Silver tier file.
func (r *Runner) RunSilver(ctx context.Context, name string) (place.PlaceDataSilver, error) {
	var bronze place.PlaceDataBronze
	if err := r.stores.Bronze.ReadJSON(r.runID, name, &bronze); err != nil {
		return place.PlaceDataSilver{}, err
	}

	started := r.clock.Now()
	r.emit(progress.Event{Stage: progress.StageScriptStart, Place: bronze.Name})

	prompt, err := r.prompt.Render(script.PromptData{Name: bronze.Name, Content: bronze.Content})
	if err != nil {
		return place.PlaceDataSilver{}, &GenerationError{Place: bronze.Name, Err: err}
	}

	var generated string
	err = r.retry.Do(ctx, func() error {
		var genErr error
		generated, genErr = r.generator.GenerateScript(ctx, prompt)
		return genErr
	})
	if err != nil {
		r.emitError(bronze.Name, err)
		return place.PlaceDataSilver{}, &GenerationError{Place: bronze.Name, Err: err}
	}

	silver := place.WithScript(bronze, generated)
	path, err := r.stores.Silver.WriteJSON(r.runID, silver.Name, silver)
	if err != nil {
		return place.PlaceDataSilver{}, err
	}

	r.logger.Info("silver tier written",
		zap.String("run_id", r.runID),
		zap.String("place", silver.Name),
		zap.String("path", path),
		zap.Int("script_chars", len(silver.Script)),
	)
	r.emit(progress.Event{Stage: progress.StageScriptDone, Place: silver.Name, Fraction: 1, Dur: r.clock.Now().Sub(started)})
	return silver, nil
}

// RunGold loads the Silver tier, synthesizes per-section audio into the gold
// run directory, and writes the Gold tier file.
func (r *Runner) RunGold(ctx context.Context, name string) (place.PlaceDataGold, error) {
	var silver place.PlaceDataSilver
	if err := r.stores.Silver.ReadJSON(r.runID, name, &silver); err != nil {
		return place.PlaceDataGold{}, err
	}

	started := r.clock.Now()
	r.emit(progress.Event{Stage: progress.StageSynthStart, Place: silver.Name})

	outDir, err := r.stores.Gold.RunDir(r.runID)
	if err != nil {
		return place.PlaceDataGold{}, err
	}
	gold, err := r.composer.Compose(ctx, r.runID, silver, outDir)
	if err != nil {
		r.emitError(silver.Name, err)
		return place.PlaceDataGold{}, &SynthesisError{Place: silver.Name, Err: err}
	}

	path, err := r.stores.Gold.WriteJSON(r.runID, gold.Name, gold)
	if err != nil {
		return place.PlaceDataGold{}, err
	}

	r.logger.Info("gold tier written",
		zap.String("run_id", r.runID),
		zap.String("place", gold.Name),
		zap.String("path", path),
		zap.Int("audio_guides", len(gold.AudioGuides)),
	)
	r.emit(progress.Event{Stage: progress.StageSynthDone, Place: gold.Name, Fraction: 1, Dur: r.clock.Now().Sub(started)})
	return gold, nil
}

// RunPublish loads the Gold tier and pushes it to production, announcing the
// outcome to the notifier.
func (r *Runner) RunPublish(ctx context.Context, name string) (place.PlaceDataGold, error) {
	var gold place.PlaceDataGold
	if err := r.stores.Gold.ReadJSON(r.runID, name, &gold); err != nil {
		return place.PlaceDataGold{}, err
	}

	started := r.clock.Now()
	r.emit(progress.Event{Stage: progress.StagePublishStart, Place: gold.Name})

	published, err := r.publisher.Publish(ctx, r.runID, gold)
	if err != nil {
		r.emitError(gold.Name, err)
		r.notify(ctx, publish.RunCompletion{
			RunID:       r.runID,
			Place:       gold.Name,
			Status:      publish.StatusFailed,
			CompletedAt: r.clock.Now(),
			Error:       err.Error(),
		})
		return place.PlaceDataGold{}, &PublishError{Place: gold.Name, Err: err}
	}

	r.logger.Info("published",
		zap.String("run_id", r.runID),
		zap.String("place", published.Name),
		zap.Int("audio_guides", len(published.AudioGuides)),
	)
	r.emit(progress.Event{Stage: progress.StagePublishDone, Place: published.Name, Fraction: 1, Dur: r.clock.Now().Sub(started)})
	r.notify(ctx, publish.RunCompletion{
		RunID:       r.runID,
		Place:       published.Name,
		Status:      publish.StatusCompleted,
		AudioGuides: len(published.AudioGuides),
		CompletedAt: r.clock.Now(),
	})
	return published, nil
}

// RunAll chains the four stages; the first failing stage halts the chain.
func (r *Runner) RunAll(ctx context.Context, cfg place.PlaceConfig) (place.PlaceDataGold, error) {
	bronze, err := r.RunBronze(ctx, cfg)
	if err != nil {
		return place.PlaceDataGold{}, err
	}
	if _, err := r.RunSilver(ctx, bronze.Name); err != nil {
		return place.PlaceDataGold{}, err
	}
	if _, err := r.RunGold(ctx, bronze.Name); err != nil {
		return place.PlaceDataGold{}, err
	}
	return r.RunPublish(ctx, bronze.Name)
}

func (r *Runner) emit(evt progress.Event) {
	evt.RunID = r.runID
	evt.TS = r.clock.Now()
	r.emitter.Emit(evt)
}

func (r *Runner) emitError(placeName string, err error) {
	r.emit(progress.Event{Stage: progress.StageError, Place: placeName, Note: err.Error()})
}

func (r *Runner) notify(ctx context.Context, completion publish.RunCompletion) {
	if err := r.notifier.Notify(ctx, completion); err != nil {
		r.logger.Warn("completion notification failed",
			zap.String("run_id", completion.RunID),
			zap.String("place", completion.Place),
			zap.Error(err),
		)
	}
}
