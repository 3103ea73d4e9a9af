package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/xmi"
)

var xmiOut string

var xmiCmd = &cobra.Command{
	Use:   "xmi <document.json>",
	Short: "Generate XMI from an already repaired flat document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := xmiOut
		if out == "" {
			out = cfg.Output.XMI
		}
		if out == "" {
			return fmt.Errorf("no XMI output: pass -o or set output.xmi")
		}

		doc, err := readDocument(ctx, args[0])
		if err != nil {
			return err
		}
		data, rep, err := xmi.GenerateBytes(doc, xmi.Options{
			ModelID:   cfg.Fusion.MasterModelID,
			ModelName: cfg.Fusion.MasterModelName,
		})
		if err != nil {
			return err
		}
		for _, s := range rep.Skipped {
			logger.Warn("[XMI] Element not exported", "id", s.ID, "type", s.Type, "reason", s.Reason)
		}
		return artifacts.Write(ctx, out, data)
	},
}

func init() {
	xmiCmd.Flags().StringVarP(&xmiOut, "output", "o", "", "XMI output location")
	rootCmd.AddCommand(xmiCmd)
}
