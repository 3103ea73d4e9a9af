package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanOut outputs

var cleanCmd = &cobra.Command{
	Use:   "clean <document.json>",
	Short: "Remove and repair orphans in a flat document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cleanOut
		if out.report == "" {
			out.report = cfg.Output.Report
		}
		if out.document == "" {
			return fmt.Errorf("no output: pass -o")
		}

		doc, err := readDocument(ctx, args[0])
		if err != nil {
			return err
		}
		c, err := openComponents(ctx, false)
		if err != nil {
			return err
		}
		defer c.Close()

		opts := cfg.PipelineOptions()
		opts.SkipXMI = out.xmi == ""
		res, runErr := c.pipeline(opts).Clean(ctx, doc)
		if err := writeResult(ctx, res, out); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOut.document, "output", "o", "", "repaired JSON output location")
	cleanCmd.Flags().StringVar(&cleanOut.xmi, "xmi", "", "also generate XMI at this location")
	cleanCmd.Flags().StringVar(&cleanOut.report, "report", "", "run report output location")
	rootCmd.AddCommand(cleanCmd)
}
