// Package temporal does interval arithmetic over position date ranges:
// durations, signed gaps, and tenure over the union of intervals.
package temporal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// dateLayouts lists accepted date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate parses an ISO date string. Missing or malformed input returns false;
// callers treat it as "unknown" rather than as an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Interval is a resolved [Start, End] range. Ongoing intervals end at the analyzer's clock.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Analyzer evaluates date ranges against a clock used for ongoing positions.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an Analyzer that measures ongoing positions against time.Now.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// WithNow returns a copy of the analyzer pinned to a fixed time.
func (a *Analyzer) WithNow(t time.Time) *Analyzer {
	return &Analyzer{now: func() time.Time { return t.UTC() }}
}

// Now returns the analyzer's current processing time.
func (a *Analyzer) Now() time.Time {
	return a.now().UTC()
}

// ResolveEnd parses an end date. Empty (ongoing) and unparseable end dates resolve to now.
func (a *Analyzer) ResolveEnd(end string) time.Time {
	if t, ok := ParseDate(end); ok {
		return t
	}
	return a.Now()
}

// Interval resolves a start/end pair. It returns false when the start is unknown.
func (a *Analyzer) Interval(start, end string) (Interval, bool) {
	s, ok := ParseDate(start)
	if !ok {
		return Interval{}, false
	}
	return Interval{Start: s, End: a.ResolveEnd(end)}, true
}

// DurationMonths returns whole months between start and end, floor-rounded.
// Unknown starts and negative ranges yield 0.
func (a *Analyzer) DurationMonths(start, end string) int {
	iv, ok := a.Interval(start, end)
	if !ok {
		return 0
	}
	return MonthsBetween(iv.Start, iv.End)
}

// GapDays returns the signed number of days from earlierEnd to laterStart.
// Negative values are overlaps. An ongoing earlier end is measured as now.
// The bool is false when laterStart is unknown.
func (a *Analyzer) GapDays(earlierEnd, laterStart string) (int, bool) {
	next, ok := ParseDate(laterStart)
	if !ok {
		return 0, false
	}
	prev := a.ResolveEnd(earlierEnd)
	return DaysBetween(prev, next), true
}

// Span is one date range to be counted toward tenure.
type Span struct {
	Start string
	End   string
}

// Tenure is the total time covered by a set of positions.
type Tenure struct {
	Months    int    `json:"months"`
	Formatted string `json:"formatted"`
}

// TotalTenure sums the union of all spans so overlapping positions are not double counted.
// Spans with unknown start dates are ignored.
func (a *Analyzer) TotalTenure(spans []Span) Tenure {
	intervals := make([]Interval, 0, len(spans))
	for _, s := range spans {
		if iv, ok := a.Interval(s.Start, s.End); ok && !iv.End.Before(iv.Start) {
			intervals = append(intervals, iv)
		}
	}

	months := 0
	for _, iv := range MergeIntervals(intervals) {
		months += MonthsBetween(iv.Start, iv.End)
	}
	return Tenure{Months: months, Formatted: FormatMonths(months)}
}

// MergeIntervals returns the union of the given intervals as disjoint, sorted intervals.
// The input slice is not modified.
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := append([]Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// MonthsBetween counts whole calendar months from start to end. Negative ranges yield 0.
func MonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// DaysBetween returns the signed whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// OverlapDays returns the number of days two intervals share, or 0 when disjoint.
func OverlapDays(a, b Interval) int {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if end.Before(start) {
		return 0
	}
	return DaysBetween(start, end)
}

// FormatMonths renders a month count as "N years M months", omitting zero parts.
func FormatMonths(months int) string {
	if months <= 0 {
		return "0 months"
	}
	years, rem := months/12, months%12
	switch {
	case years > 0 && rem > 0:
		return fmt.Sprintf("%s %s", plural(years, "year"), plural(rem, "month"))
	case years > 0:
		return plural(years, "year")
	default:
		return plural(rem, "month")
	}
}

// FormatDays renders a day count using FormatMonths for anything a month or longer.
func FormatDays(days int) string {
	if days < 30 {
		return plural(days, "day")
	}
	return FormatMonths(days * 12 / 365)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
