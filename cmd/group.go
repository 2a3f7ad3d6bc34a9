package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var groupCmd = &cobra.Command{
	Use:   "group [path]",
	Short: "Group positions by employer",
	Long:  "Groups positions from a file or directory, or from the store when no path is given, and prints the company groups as JSON.",
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

		groups := eng.grouper.Group(positions)
		zap.L().Info("grouped positions",
			zap.Int("positions", len(positions)),
			zap.Int("companies", len(groups)),
		)
		return printJSON(cmd.OutOrStdout(), groups)
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	rootCmd.AddCommand(groupCmd)
}
