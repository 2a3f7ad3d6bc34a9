package progression

import (
	"sort"
	"time"

	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Gap is a break between stints that exceeded the boomerang threshold.
type Gap struct {
	Start             string `json:"start"`
	End               string `json:"end"`
	Duration          int    `json:"duration"`
	DurationFormatted string `json:"durationFormatted"`
}

// BoomerangPattern describes whether someone left and came back.
// Stints is always len(Gaps)+1.
type BoomerangPattern struct {
	IsBoomerang bool  `json:"isBoomerang"`
	Stints      int   `json:"stints"`
	Gaps        []Gap `json:"gaps"`
}

type dated struct {
	start time.Time
	end   time.Time
}

// DetectBoomerang finds gaps longer than the configured threshold between
// consecutive positions. The comparison uses the latest end seen so far, so a
// long enclosing role does not produce a false gap. Positions with unknown
// start dates are skipped.
func (a *Analyzer) DetectBoomerang(positions []model.Position) BoomerangPattern {
	out := BoomerangPattern{Stints: 1, Gaps: []Gap{}}

	spans := make([]dated, 0, len(positions))
	for _, p := range positions {
		if iv, ok := a.temporal.Interval(p.DateStart, p.DateEnd); ok {
			spans = append(spans, dated{start: iv.Start, end: iv.End})
		}
	}
	if len(spans) < 2 {
		return out
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].start.Before(spans[j].start)
	})

	latestEnd := spans[0].end
	for _, s := range spans[1:] {
		days := temporal.DaysBetween(latestEnd, s.start)
		if days > a.cfg.BoomerangGapDays {
			out.Gaps = append(out.Gaps, Gap{
				Start:             latestEnd.Format("2006-01-02"),
				End:               s.start.Format("2006-01-02"),
				Duration:          days,
				DurationFormatted: temporal.FormatDays(days),
			})
		}
		if s.end.After(latestEnd) {
			latestEnd = s.end
		}
	}

	out.Stints = len(out.Gaps) + 1
	out.IsBoomerang = out.Stints > 1
	return out
}
