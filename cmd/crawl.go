package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localgaid/pipeline/internal/pipeline"
	"github.com/localgaid/pipeline/internal/place"
)

func newCrawlCmd() *cobra.Command {
	var placePath string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvest a place's source pages into the Bronze tier",
		Long: `Fetches every source URL of the place with a headless browser, extracts
the page text and image candidates, and writes the Bronze tier file under
the run directory.`,
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

			stores, err := newStores(rt)
			if err != nil {
				return err
			}
			runner, err := pipeline.NewRunner(pipeline.RunnerOptions{
				RunID:     rt.RunID,
				Stores:    stores,
				Harvester: harvester,
				Filter:    filterOptions(rt),
				Retry:     newRetry(rt),
				Emitter:   rt.Emitter,
				Logger:    rt.Logger,
			})
			if err != nil {
				return err
			}

			bronze, err := runner.RunBronze(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Printf("bronze written for %q (run %s)\n", bronze.Name, rt.RunID)
			return nil
		},
	}
	cmd.Flags().StringVar(&placePath, "place", "", "path to the place configuration JSON (required)")
	_ = cmd.MarkFlagRequired("place")
	return cmd
}
