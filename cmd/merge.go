package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scottgpt/career-cli/internal/merge"
	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/resilience"
)

var (
	mergeSource     string
	mergeTarget     string
	mergeConfirm    bool
	mergeStrategies map[string]string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a duplicate position into another",
	Long:  "Previews the merge of --source into --target. With --confirm the merged record replaces the target and the source is deleted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		eng, err := buildEngines()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := mergeops.NewService(eng.merger, st, st, 1,
			mergeops.WithRetry(resilience.FromConfig(cfg.Retry)))
		req := merge.Request{
			SourceID:        mergeSource,
			TargetID:        mergeTarget,
			FieldStrategies: mergeStrategies,
		}

		if !mergeConfirm {
			res, err := svc.Preview(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}

		op, err := svc.Start(ctx, req)
		if err != nil {
			return err
		}
		svc.Wait()

		final, err := svc.Status(ctx, op.ID)
		if err != nil {
			return err
		}
		if final.Status == mergeops.StatusFailed {
			return eris.Errorf("merge %s failed: %s", final.ID, final.Error)
		}
		zap.L().Info("merge complete",
			zap.String("merge_id", final.ID),
			zap.String("source_id", final.SourceID),
			zap.String("target_id", final.TargetID),
		)
		return printJSON(cmd.OutOrStdout(), final)
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeSource, "source", "", "id of the position merged away (required)")
	mergeCmd.Flags().StringVar(&mergeTarget, "target", "", "id of the position that survives (required)")
	mergeCmd.Flags().BoolVar(&mergeConfirm, "confirm", false, "apply the merge instead of previewing it")
	mergeCmd.Flags().StringToStringVar(&mergeStrategies, "strategy", nil, "per-field strategy overrides, e.g. title=prefer_longest")
	_ = mergeCmd.MarkFlagRequired("source")
	_ = mergeCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(mergeCmd)
}
