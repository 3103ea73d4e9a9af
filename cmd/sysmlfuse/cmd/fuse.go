package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fuseOut outputs

var fuseCmd = &cobra.Command{
	Use:   "fuse <batch.json>...",
	Short: "Fuse batches into the graph store and export the flat document",
	Long: `Fuse batches into the configured graph store, unify the models and
export the flat element document without any orphan cleanup. With a
persistent store (kuzu, pgvector) later invocations fuse into the same model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := fuseOut.withDefaults()
		out.xmi = ""
		if out.document == "" {
			return fmt.Errorf("no document output: pass -o or set output.document")
		}

		batches, err := readBatches(ctx, args)
		if err != nil {
			return err
		}
		c, err := openComponents(ctx, true)
		if err != nil {
			return err
		}
		defer c.Close()

		res, runErr := c.pipeline(cfg.PipelineOptions()).Fuse(ctx, batches)
		if err := writeResult(ctx, res, out); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	fuseCmd.Flags().StringVarP(&fuseOut.document, "output", "o", "", "flat JSON output location")
	fuseCmd.Flags().StringVar(&fuseOut.report, "report", "", "run report output location")
	rootCmd.AddCommand(fuseCmd)
}
