package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scottgpt/career-cli/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import positions from a file or directory into the store",
	Long:  "Reads markdown (YAML frontmatter), YAML, JSON and XLSX position files and upserts them by id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		positions, err := importer.LoadPath(args[0])
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertPositions(ctx, positions)
		if err != nil {
			return eris.Wrap(err, "import positions")
		}

		zap.L().Info("import complete",
			zap.String("path", args[0]),
			zap.Int("read", len(positions)),
			zap.Int("upserted", n),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
