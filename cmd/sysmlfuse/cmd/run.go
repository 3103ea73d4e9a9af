package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

var runOut outputs

var runCmd = &cobra.Command{
	Use:   "run <batch.json>...",
	Short: "Fuse, repair and export batches to XMI",
	Long: `Run the whole pipeline over one or more extraction batches:

- fuse every batch into the graph store by canonical key and similarity
- unify all models into one master model
- export the flat element document
- remove structurally meaningless orphans
- repair the remaining dangling references
- generate the XMI document`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := runOut.withDefaults()
		if out.xmi == "" {
			return fmt.Errorf("no XMI output: pass -o or set output.xmi")
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

		res, runErr := c.pipeline(cfg.PipelineOptions()).Run(ctx, batches)
		if err := writeResult(ctx, res, out); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		logger.Info("[Pipeline] Model written", "xmi", out.xmi, "elements", len(res.Document.Elements))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOut.xmi, "output", "o", "", "XMI output location")
	runCmd.Flags().StringVar(&runOut.document, "document", "", "repaired JSON output location")
	runCmd.Flags().StringVar(&runOut.report, "report", "", "run report output location")
	rootCmd.AddCommand(runCmd)
}

