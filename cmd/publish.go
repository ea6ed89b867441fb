package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localgaid/pipeline/internal/pipeline"
)

func newPublishCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the Gold tier to object storage and the database",
		Long: `Loads the Gold tier file of the named place, uploads every audio and
subtitle file to the configured bucket, and replaces the place row and its
audio-guide children in the production database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
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
				Publisher: publisher,
				Notifier:  notifier,
				Retry:     newRetry(rt),
				Emitter:   rt.Emitter,
				Logger:    rt.Logger,
			})
			if err != nil {
				return err
			}

			published, err := runner.RunPublish(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Printf("published %q (run %s, %d audio guides)\n",
				published.Name, rt.RunID, len(published.AudioGuides))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "place name whose Gold tier to publish (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
