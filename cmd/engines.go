package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/company"
	"github.com/scottgpt/career-cli/internal/dedupe"
	"github.com/scottgpt/career-cli/internal/importer"
	"github.com/scottgpt/career-cli/internal/merge"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/progression"
	"github.com/scottgpt/career-cli/internal/store"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// engines bundles the analysis engines built from the loaded config. They share
// one normalizer and one clock.
type engines struct {
	temporal *temporal.Analyzer
	grouper  *company.Engine
	detector *dedupe.Detector
	merger   *merge.Engine
}

func buildEngines() (*engines, error) {
	if err := company.ValidateConfig(cfg.Grouping); err != nil {
		return nil, err
	}
	if err := dedupe.ValidateConfig(cfg.Detection); err != nil {
		return nil, err
	}
	if err := merge.ValidateConfig(cfg.Merge); err != nil {
		return nil, err
	}

	ta := temporal.NewAnalyzer()
	norm := company.NewNormalizer(nil)
	groupOpts := []company.Option{company.WithTemporal(ta), company.WithNormalizer(norm)}
	if cfg.Grouping.LadderFile != "" {
		ladder, err := progression.LoadLadder(cfg.Grouping.LadderFile)
		if err != nil {
			return nil, eris.Wrap(err, "load ladder")
		}
		groupOpts = append(groupOpts, company.WithLadder(ladder))
	}

	return &engines{
		temporal: ta,
		grouper:  company.NewEngine(cfg.Grouping, groupOpts...),
		detector: dedupe.NewDetector(cfg.Detection, dedupe.WithTemporal(ta), dedupe.WithNormalizer(norm)),
		merger:   merge.NewEngine(cfg.Merge, merge.WithTemporal(ta)),
	}, nil
}

// loadPositions reads positions from path when one is given, otherwise from
// the configured store.
func loadPositions(ctx context.Context, path string) ([]model.Position, error) {
	if path != "" {
		positions, err := importer.LoadPath(path)
		if err != nil {
			return nil, eris.Wrapf(err, "load %s", path)
		}
		return positions, nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	positions, err := st.ListPositions(ctx, store.PositionFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "list positions")
	}
	return model.NormalizePositions(positions), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
