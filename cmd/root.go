// Package cmd defines and implements the CLI commands for the guidectl
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/id/uuid"
	"github.com/localgaid/pipeline/internal/logging"
	"github.com/localgaid/pipeline/internal/progress"
	"github.com/localgaid/pipeline/internal/progress/sinks"
	"github.com/localgaid/pipeline/pkg/config"
)

var (
	cfgFile string
	runID   string
)

// runtimeKeyType is the key for storing the Runtime in the context.
type runtimeKeyType string

const runtimeKey runtimeKeyType = "runtime"

// Runtime bundles the shared services every subcommand needs: configuration,
// logging, the progress hub with its metrics registry, and the run ID
// scoping all artifacts.
type Runtime struct {
	V        *viper.Viper
	Logger   *zap.Logger
	Hub      *progress.Hub
	Emitter  progress.Emitter
	Registry *prometheus.Registry
	RunID    string
}

// newRuntime is the service factory; a variable so tests can replace it.
var newRuntime = func(_ context.Context) (*Runtime, error) {
	// Bootstrap logger from the environment; config is not parsed yet.
	dev := logging.EnvDevMode()
	logger, err := logging.New(dev)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	v := config.Init(cfgFile, logger)
	if !dev && v.GetBool("logging.development") {
		if devLogger, err := logging.New(true); err == nil {
			logger = devLogger
		}
	}

	id := runID
	if id == "" {
		generated, err := uuid.NewUUIDGenerator().NewID()
		if err != nil {
			return nil, fmt.Errorf("generate run id: %w", err)
		}
		id = generated
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return nil, fmt.Errorf("register pipeline metrics: %w", err)
	}

	hub := progress.NewHub(progress.Config{Logger: logger}, sinks.NewLogSink(logger), promSink)
	return &Runtime{
		V:        v,
		Logger:   logger,
		Hub:      hub,
		Emitter:  hub,
		Registry: registry,
		RunID:    id,
	}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guidectl",
		Short: "Audio-guide content pipeline for places.",
		Long: `guidectl turns a place configuration (name, location, source URLs) into
published audio-guide content: it harvests the source pages, generates a
narration script, synthesizes per-section audio with subtitles, and publishes
the result to object storage and the production database.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey, rt))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*Runtime); ok && rt != nil {
				if err := rt.Hub.Close(cmd.Context()); err != nil {
					rt.Logger.Warn("close progress hub", zap.Error(err))
				}
				_ = rt.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/guidectl, $HOME/.guidectl)")
	cmd.PersistentFlags().StringVar(&runID, "run-id", "", "run id to scope artifacts (default generates a UUIDv7)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newScriptCmd())
	cmd.AddCommand(newAudioCmd())
	cmd.AddCommand(newPublishCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveRuntime(ctx context.Context) (*Runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*Runtime)
	if !ok || rt == nil {
		return nil, fmt.Errorf("services not initialized")
	}
	return rt, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
