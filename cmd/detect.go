package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var detectThreshold string

var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Detect duplicate positions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines()
		if err != nil {
			return err
		}
		positions, err := loadPositions(cmd.Context(), firstArg(args))
		if err != nil {
			return err
		}

		res := eng.detector.Detect(positions, detectThreshold)
		if res.ThresholdDefaulted {
			zap.L().Warn("invalid threshold, using configured default",
				zap.String("threshold", detectThreshold),
				zap.Float64("used", res.Threshold),
			)
		}
		zap.L().Info("duplicate detection complete",
			zap.Int("jobs", res.TotalJobs),
			zap.Int("groups", len(res.Groups)),
		)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectThreshold, "threshold", "", "similarity threshold in (0, 1] (default from config)")
	rootCmd.AddCommand(detectCmd)
}
