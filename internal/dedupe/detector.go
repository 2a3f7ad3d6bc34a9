// Package dedupe finds duplicate and near-duplicate job records.
package dedupe

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/scottgpt/career-cli/internal/company"
	"github.com/scottgpt/career-cli/internal/config"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// Confidence tiers for duplicate groups.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MessageTooFewJobs is returned when detection has nothing to compare.
const MessageTooFewJobs = "at least two jobs are required to detect duplicates"

// PairMatch is one pair of jobs that passed the threshold.
type PairMatch struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	PairScore
}

// DuplicateGroup is a set of jobs chained together by passing pairs.
type DuplicateGroup struct {
	Jobs            []model.Position `json:"jobs"`
	Confidence      Confidence       `json:"confidence"`
	SimilarityScore float64          `json:"similarityScore"`
	MatchedFields   []string         `json:"matchedFields"`
	Pairs           []PairMatch      `json:"pairs"`
}

// Result is the outcome of one detection run.
type Result struct {
	Groups             []DuplicateGroup `json:"groups"`
	Threshold          float64          `json:"threshold"`
	ThresholdDefaulted bool             `json:"thresholdDefaulted"`
	TotalJobs          int              `json:"totalJobs"`
	PairsCompared      int              `json:"pairsCompared"`
	Message            string           `json:"message,omitempty"`
}

// Detector scores job pairs and chains passing pairs into groups.
type Detector struct {
	cfg        config.DetectionConfig
	normalizer *company.Normalizer
	temporal   *temporal.Analyzer
}

// Option configures a Detector.
type Option func(*Detector)

// WithNormalizer overrides the company name normalizer used for org matching.
func WithNormalizer(n *company.Normalizer) Option {
	return func(d *Detector) { d.normalizer = n }
}

// WithTemporal overrides the temporal analyzer used for date overlap.
func WithTemporal(ta *temporal.Analyzer) Option {
	return func(d *Detector) { d.temporal = ta }
}

// NewDetector creates a Detector.
func NewDetector(cfg config.DetectionConfig, opts ...Option) *Detector {
	d := &Detector{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	if d.normalizer == nil {
		d.normalizer = company.NewNormalizer(nil)
	}
	if d.temporal == nil {
		d.temporal = temporal.NewAnalyzer()
	}
	return d
}

// ParseThreshold accepts a number or numeric string in (0, 1]. Nil returns
// fallback. Anything else returns fallback with defaulted set.
func ParseThreshold(raw any, fallback float64) (threshold float64, defaulted bool) {
	var v float64
	switch t := raw.(type) {
	case nil:
		return fallback, false
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return fallback, true
		}
		v = f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return fallback, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback, true
		}
		v = f
	default:
		return fallback, true
	}

	if math.IsNaN(v) || v <= 0 || v > 1 {
		return fallback, true
	}
	return v, false
}

// Detect finds duplicate groups among jobs. rawThreshold may be any value a
// caller received; invalid values fall back to the configured threshold.
func (d *Detector) Detect(jobs []model.Position, rawThreshold any) Result {
	threshold, defaulted := ParseThreshold(rawThreshold, d.cfg.Threshold)
	res := Result{
		Groups:             []DuplicateGroup{},
		Threshold:          threshold,
		ThresholdDefaulted: defaulted,
		TotalJobs:          len(jobs),
	}
	if len(jobs) < 2 {
		res.Message = MessageTooFewJobs
		return res
	}

	uf := newUnionFind(len(jobs))
	var passing []indexedPair
	for i := 0; i < len(jobs); i++ {
		for j := i + 1; j < len(jobs); j++ {
			res.PairsCompared++
			ps := d.Similarity(jobs[i], jobs[j])
			if ps.Score >= threshold && !ps.SeparateStints {
				passing = append(passing, indexedPair{i: i, j: j, score: ps})
				uf.union(i, j)
			}
		}
	}

	res.Groups = d.buildGroups(jobs, uf, passing, threshold)
	return res
}

type indexedPair struct {
	i, j  int
	score PairScore
}

func (d *Detector) buildGroups(jobs []model.Position, uf *unionFind, passing []indexedPair, threshold float64) []DuplicateGroup {
	members := make(map[int][]int)
	var roots []int
	for i := range jobs {
		r := uf.find(i)
		if _, ok := members[r]; !ok {
			roots = append(roots, r)
		}
		members[r] = append(members[r], i)
	}

	pairsByRoot := make(map[int][]indexedPair)
	for _, p := range passing {
		r := uf.find(p.i)
		pairsByRoot[r] = append(pairsByRoot[r], p)
	}

	groups := []DuplicateGroup{}
	first := make(map[int]int)
	for _, r := range roots {
		idx := members[r]
		if len(idx) < 2 {
			continue
		}
		pairs := pairsByRoot[r]

		g := DuplicateGroup{
			Jobs:  make([]model.Position, 0, len(idx)),
			Pairs: make([]PairMatch, 0, len(pairs)),
		}
		for _, i := range idx {
			g.Jobs = append(g.Jobs, jobs[i].Clone())
		}

		var total float64
		for _, p := range pairs {
			total += p.score.Score
			g.Pairs = append(g.Pairs, PairMatch{SourceID: jobs[p.i].ID, TargetID: jobs[p.j].ID, PairScore: p.score})
		}
		g.SimilarityScore = total / float64(len(pairs))
		g.Confidence = d.confidence(g.SimilarityScore, threshold)
		g.MatchedFields = d.matchedFields(pairs)

		first[len(groups)] = idx[0]
		groups = append(groups, g)
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ga, gb := groups[order[a]], groups[order[b]]
		if ga.SimilarityScore != gb.SimilarityScore {
			return ga.SimilarityScore > gb.SimilarityScore
		}
		return first[order[a]] < first[order[b]]
	})
	sorted := make([]DuplicateGroup, len(groups))
	for i, k := range order {
		sorted[i] = groups[k]
	}
	return sorted
}

func (d *Detector) confidence(score, threshold float64) Confidence {
	switch {
	case score >= d.cfg.HighConfidence:
		return ConfidenceHigh
	case score >= math.Max(threshold, d.cfg.MediumConfidence):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// matchedFields lists the components that scored at or above the cutoff in
// every passing pair of the group.
func (d *Detector) matchedFields(pairs []indexedPair) []string {
	fields := []string{}
	for _, c := range componentOrder {
		matched := len(pairs) > 0
		for _, p := range pairs {
			if s, ok := p.score.Components[c]; !ok || s < d.cfg.MatchedFieldCutoff {
				matched = false
				break
			}
		}
		if matched {
			fields = append(fields, c)
		}
	}
	return fields
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
