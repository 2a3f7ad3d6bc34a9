package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scottgpt/career-cli/internal/report"
)

var (
	reportOut       string
	reportThreshold string
)

var reportCmd = &cobra.Command{
	Use:   "report [path]",
	Short: "Build a combined company and duplicate report",
	Long:  "Builds the company groups and duplicate groups in one report. Writes an XLSX workbook with --out, JSON to stdout otherwise.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng, err := buildEngines()
		if err != nil {
			return err
		}
		positions, err := loadPositions(ctx, firstArg(args))
		if err != nil {
			return err
		}

		rep, err := report.Build(ctx, positions, report.Deps{
			Grouper:   eng.grouper,
			Detector:  eng.detector,
			Temporal:  eng.temporal,
			Threshold: reportThreshold,
		})
		if err != nil {
			return err
		}

		if reportOut == "" {
			return printJSON(cmd.OutOrStdout(), rep)
		}
		if err := report.WriteXLSX(reportOut, rep); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", reportOut))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write an XLSX workbook to this path")
	reportCmd.Flags().StringVar(&reportThreshold, "threshold", "", "duplicate similarity threshold (default from config)")
	rootCmd.AddCommand(reportCmd)
}
