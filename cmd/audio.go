package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localgaid/pipeline/internal/pipeline"
)

func newAudioCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Synthesize per-section audio guides, upgrading Silver to Gold",
		Long: `Loads the Silver tier file of the named place, splits the narration
script into sections, synthesizes each section into an MP3 with an SRT
subtitle track, and writes the Gold tier file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			stores, err := newStores(rt)
			if err != nil {
				return err
			}
			runner, err := pipeline.NewRunner(pipeline.RunnerOptions{
				RunID:    rt.RunID,
				Stores:   stores,
				Composer: buildComposer(rt),
				Retry:    newRetry(rt),
				Emitter:  rt.Emitter,
				Logger:   rt.Logger,
			})
			if err != nil {
				return err
			}

			gold, err := runner.RunGold(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Printf("gold written for %q (run %s, %d audio guides)\n",
				gold.Name, rt.RunID, len(gold.AudioGuides))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "place name whose Silver tier to upgrade (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
