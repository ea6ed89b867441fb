package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	"github.com/localgaid/pipeline/internal/artifact"
	"github.com/localgaid/pipeline/internal/harvest"
	"github.com/localgaid/pipeline/internal/pipeline"
	"github.com/localgaid/pipeline/internal/publish"
	"github.com/localgaid/pipeline/internal/retrypolicy"
	"github.com/localgaid/pipeline/internal/script"
	"github.com/localgaid/pipeline/internal/synth"
	"github.com/localgaid/pipeline/pkg/config"
)

func newRetry(rt *Runtime) *retrypolicy.Policy {
	cfg := config.LoadRetryConfig(rt.V)
	return retrypolicy.New(cfg.MaxAttempts, cfg.BaseDelay, cfg.MaxDelay)
}

func newStores(rt *Runtime) (pipeline.Stores, error) {
	dirs := config.LoadDirsConfig(rt.V)
	bronze, err := artifact.NewStore(dirs.Bronze)
	if err != nil {
		return pipeline.Stores{}, fmt.Errorf("bronze store: %w", err)
	}
	silver, err := artifact.NewStore(dirs.Silver)
	if err != nil {
		return pipeline.Stores{}, fmt.Errorf("silver store: %w", err)
	}
	gold, err := artifact.NewStore(dirs.Gold)
	if err != nil {
		return pipeline.Stores{}, fmt.Errorf("gold store: %w", err)
	}
	return pipeline.Stores{Bronze: bronze, Silver: silver, Gold: gold}, nil
}

func filterOptions(rt *Runtime) harvest.FilterOptions {
	cfg := config.LoadHarvestConfig(rt.V)
	return harvest.FilterOptions{
		MaxDescLength:  cfg.MaxDescLength,
		DenySubstrings: cfg.DenySubstrings,
	}
}

// buildHarvester starts the headless browser; callers must Close the
// returned fetcher.
func buildHarvester(rt *Runtime) (*harvest.Harvester, *harvest.ChromedpFetcher, error) {
	cfg := config.LoadHarvestConfig(rt.V)
	fetcher, err := harvest.NewChromedpFetcher(harvest.FetcherConfig{
		Timeout:               cfg.PageTimeout,
		Windowed:              !cfg.Headless,
		ExcludeExternalImages: cfg.ExcludeExternalImages,
		RelevanceMinScore:     cfg.RelevanceMinScore,
	}, rt.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start fetch engine: %w", err)
	}
	harvester := harvest.NewHarvester(fetcher, newRetry(rt), rt.Emitter, rt.Logger)
	return harvester, fetcher, nil
}

func buildGenerator(rt *Runtime) (script.Generator, *script.PromptTemplate, error) {
	cfg := config.LoadScriptConfig(rt.V)
	generator, err := script.NewAnthropicGenerator(script.AnthropicConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, rt.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build script generator: %w", err)
	}
	prompt, err := script.LoadPromptTemplate(cfg.PromptTemplate)
	if err != nil {
		return nil, nil, err
	}
	return generator, prompt, nil
}

func buildComposer(rt *Runtime) *synth.Composer {
	cfg := config.LoadSynthConfig(rt.V)
	synthesizer := synth.NewEdgeSynthesizer(synth.EdgeConfig{Token: cfg.Token}, rt.Logger)
	return synth.NewComposer(synthesizer, synth.ComposerConfig{
		Voice:       cfg.Voice,
		MinInterval: cfg.MinInterval,
	}, newRetry(rt), rt.Emitter, rt.Logger)
}

// buildPublisher connects to GCS and Postgres; callers must call the
// returned cleanup when done.
func buildPublisher(ctx context.Context, rt *Runtime) (*publish.Publisher, publish.Notifier, func(), error) {
	cfg := config.LoadPublishConfig(rt.V)

	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect object storage: %w", err)
	}
	blobs, err := publish.NewGCSBlobStore(gcsClient, publish.GCSConfig{Bucket: cfg.Bucket})
	if err != nil {
		_ = gcsClient.Close()
		return nil, nil, nil, err
	}

	store, err := publish.NewPostgresPlaceStore(ctx, publish.PostgresStoreConfig{DSN: cfg.DatabaseDSN})
	if err != nil {
		_ = gcsClient.Close()
		return nil, nil, nil, err
	}

	var notifier publish.Notifier = publish.NopNotifier{}
	var pubsubClient *pubsub.Client
	if cfg.CompletionTopic != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			store.Close()
			_ = gcsClient.Close()
			return nil, nil, nil, fmt.Errorf("connect pubsub: %w", err)
		}
		notifier, err = publish.NewPubSubNotifier(pubsubClient.Topic(cfg.CompletionTopic))
		if err != nil {
			_ = pubsubClient.Close()
			store.Close()
			_ = gcsClient.Close()
			return nil, nil, nil, err
		}
	}

	cleanup := func() {
		if pubsubClient != nil {
			_ = pubsubClient.Close()
		}
		store.Close()
		_ = gcsClient.Close()
	}
	return publish.NewPublisher(blobs, store, newRetry(rt), rt.Logger), notifier, cleanup, nil
}
