package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/pipeline"
	"github.com/localgaid/pipeline/internal/place"
)

func newRunCmd() *cobra.Command {
	var placePath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline for one place",
		Long: `Chains all four stages for the place: harvest the source pages,
generate the narration script, synthesize the audio guides, and publish
them. The first failing stage halts the chain; completed tier files stay on
disk so the run can resume from the failed stage with --run-id.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			cfg, err := place.LoadConfig(placePath)
			if err != nil {
				return err
			}

			harvester, fetcher, err := buildHarvester(rt)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := fetcher.Close(); cerr != nil {
					rt.Logger.Warn("close fetch engine", zap.Error(cerr))
				}
			}()

			generator, prompt, err := buildGenerator(rt)
			if err != nil {
				return err
			}
			publisher, notifier, cleanup, err := buildPublisher(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer cleanup()

			stores, err := newStores(rt)
			if err != nil {
				return err
			}
			runner, err := pipeline.NewRunner(pipeline.RunnerOptions{
				RunID:     rt.RunID,
				Stores:    stores,
				Harvester: harvester,
				Filter:    filterOptions(rt),
				Prompt:    prompt,
				Generator: generator,
				Composer:  buildComposer(rt),
				Publisher: publisher,
				Notifier:  notifier,
				Retry:     newRetry(rt),
				Emitter:   rt.Emitter,
				Logger:    rt.Logger,
			})
			if err != nil {
				return err
			}

			published, err := runner.RunAll(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Printf("pipeline complete for %q (run %s, %d audio guides)\n",
				published.Name, rt.RunID, len(published.AudioGuides))
			return nil
		},
	}
	cmd.Flags().StringVar(&placePath, "place", "", "path to the place configuration JSON (required)")
	_ = cmd.MarkFlagRequired("place")
	return cmd
}
