// Package report combines company grouping and duplicate detection into one
// career analysis report.
package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scottgpt/career-cli/internal/company"
	"github.com/scottgpt/career-cli/internal/dedupe"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Summary holds headline counts for a report.
type Summary struct {
	Positions          int             `json:"positions"`
	Companies          int             `json:"companies"`
	BoomerangCompanies int             `json:"boomerangCompanies"`
	DuplicateGroups    int             `json:"duplicateGroups"`
	TotalTenure        temporal.Tenure `json:"totalTenure"`
}

// Report is the combined analysis of a set of positions.
type Report struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Companies   []company.CompanyGroup `json:"companies"`
	Duplicates  dedupe.Result          `json:"duplicates"`
	Summary     Summary                `json:"summary"`
}

// Deps are the analyzers a report is built from. Threshold is passed to the
// detector as-is; nil uses the configured default.
type Deps struct {
	Grouper   *company.Engine
	Detector  *dedupe.Detector
	Temporal  *temporal.Analyzer
	Threshold any
}

// Build runs grouping and duplicate detection concurrently.
func Build(ctx context.Context, positions []model.Position, deps Deps) (*Report, error) {
	if deps.Grouper == nil || deps.Detector == nil {
		return nil, eris.New("report: grouper and detector are required")
	}
	ta := deps.Temporal
	if ta == nil {
		ta = temporal.NewAnalyzer()
	}

	start := time.Now()
	positions = model.NormalizePositions(positions)
	rep := &Report{GeneratedAt: ta.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return guard(gctx, "group companies", func() {
			rep.Companies = deps.Grouper.Group(positions)
		})
	})
	g.Go(func() error {
		return guard(gctx, "detect duplicates", func() {
			rep.Duplicates = deps.Detector.Detect(positions, deps.Threshold)
		})
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "report: build")
	}

	rep.Summary = summarize(positions, rep, ta)

	zap.L().Info("report built",
		zap.Int("positions", rep.Summary.Positions),
		zap.Int("companies", rep.Summary.Companies),
		zap.Int("duplicate_groups", rep.Summary.DuplicateGroups),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}

// guard runs fn unless ctx is already done and turns a panic into a ComputationError.
func guard(ctx context.Context, op string, fn func()) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = &model.ComputationError{Op: op, Err: eris.Errorf("panic: %v", r)}
		}
	}()
	fn()
	return nil
}

func summarize(positions []model.Position, rep *Report, ta *temporal.Analyzer) Summary {
	s := Summary{
		Positions:       len(positions),
		Companies:       len(rep.Companies),
		DuplicateGroups: len(rep.Duplicates.Groups),
	}
	for _, c := range rep.Companies {
		if c.BoomerangPattern.IsBoomerang {
			s.BoomerangCompanies++
		}
	}

	spans := make([]temporal.Span, len(positions))
	for i, p := range positions {
		spans[i] = temporal.Span{Start: p.DateStart, End: p.DateEnd}
	}
	s.TotalTenure = ta.TotalTenure(spans)
	return s
}
