package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localgaid/pipeline/internal/pipeline"
)

func newScriptCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Generate the narration script, upgrading Bronze to Silver",
		Long: `Loads the Bronze tier file of the named place, renders the narration
prompt with the harvested content, submits it to the text-generation service,
and writes the Silver tier file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			generator, prompt, err := buildGenerator(rt)
			if err != nil {
				return err
			}
			stores, err := newStores(rt)
			if err != nil {
				return err
			}
			runner, err := pipeline.NewRunner(pipeline.RunnerOptions{
				RunID:     rt.RunID,
				Stores:    stores,
				Prompt:    prompt,
				Generator: generator,
				Retry:     newRetry(rt),
				Emitter:   rt.Emitter,
				Logger:    rt.Logger,
			})
			if err != nil {
				return err
			}

			silver, err := runner.RunSilver(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Printf("silver written for %q (run %s, %d script chars)\n",
				silver.Name, rt.RunID, len(silver.Script))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "place name whose Bronze tier to upgrade (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
