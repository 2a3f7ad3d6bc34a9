package merge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/temporal"
)

var mergeNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngine(DefaultMergeConfig(), WithTemporal(temporal.NewAnalyzer().WithNow(mergeNow)))
}

func fullJob(id string) model.Position {
	return model.Position{
		ID:          id,
		Title:       "Senior Software Engineer",
		Org:         "Acme Corp",
		DateStart:   "2019-01-01",
		DateEnd:     "2021-06-01",
		Skills:      []string{"Go", "PostgreSQL"},
		Description: "Built the billing platform and led the migration to Kubernetes",
		Location:    "San Francisco, CA",
	}
}

func TestMerge_ExactDuplicate(t *testing.T) {
	res := testEngine().Merge(fullJob("src"), fullJob("tgt"), nil)

	assert.Equal(t, "tgt", res.MergedData.ID)
	assert.Equal(t, "src", res.MergedData.MergeSourceID)
	assert.Equal(t, mergeNow, res.MergedData.MergeTimestamp)
	assert.Empty(t, res.Analysis.ChangedFields)
	assert.False(t, res.Analysis.HasSignificantChanges)
	assert.Empty(t, res.Risks)
	assert.InDelta(t, 0.85, res.Quality.Score, 1e-9)
	assert.Equal(t, GradeExcellent, res.Quality.Grade)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, RecommendProceed, res.Recommendations[0].Type)
	assert.Equal(t, PriorityLow, res.Recommendations[0].Priority)
}

func TestMerge_FillsGapsFromSource(t *testing.T) {
	source := model.Position{
		ID:          "src",
		Title:       "Senior Software Engineer, Payments",
		Org:         "Acme Corporation",
		DateStart:   "2018-11-01",
		DateEnd:     "",
		Skills:      []string{"go", "Kafka"},
		Description: "Built the billing platform and led the migration to Kubernetes across three regions",
		Location:    "SF",
	}
	target := fullJob("tgt")

	res := testEngine().Merge(source, target, nil)
	m := res.MergedData

	assert.Equal(t, "Senior Software Engineer, Payments", m.Title)
	assert.Equal(t, "Acme Corporation", m.Org)
	assert.Equal(t, "2018-11-01", m.DateStart)
	assert.Equal(t, "", m.DateEnd, "ongoing end date is preserved")
	assert.Equal(t, []string{"Go", "Kafka", "PostgreSQL"}, m.Skills)
	assert.Equal(t, "San Francisco, CA", m.Location)
	assert.True(t, res.Analysis.HasSignificantChanges)
	assert.Contains(t, res.Analysis.ChangedFields, model.FieldDateEnd)
	assert.Empty(t, res.Quality.Factors.LostFields)

	// Inputs untouched.
	assert.Equal(t, fullJob("tgt"), target)
	assert.Equal(t, []string{"go", "Kafka"}, source.Skills)
}

func TestMerge_NeverLosesPopulatedFieldsUnderDefaults(t *testing.T) {
	values := []model.Position{
		{},
		{ID: "a", Title: "Engineer", Org: "Acme", DateStart: "2020-01-01", DateEnd: "2021-01-01"},
		{ID: "b", Skills: []string{"Go"}, Description: "Did things", Location: "Remote"},
		{ID: "c", Title: "Lead", DateStart: "garbage", DateEnd: "2019-05"},
		fullJob("d"),
	}
	e := testEngine()
	for _, src := range values {
		for _, tgt := range values {
			res := e.Merge(src, tgt, nil)
			m := res.MergedData.Position
			for _, field := range []string{model.FieldTitle, model.FieldOrg, model.FieldDateStart, model.FieldDescription, model.FieldLocation} {
				if src.Text(field) != "" || tgt.Text(field) != "" {
					assert.NotEmpty(t, m.Text(field), "field %s lost merging %s into %s", field, src.ID, tgt.ID)
				}
			}
			if len(src.Skills) > 0 || len(tgt.Skills) > 0 {
				assert.NotEmpty(t, m.Skills)
			}
			if src.DateEnd != "" && tgt.DateEnd != "" {
				assert.NotEmpty(t, m.DateEnd)
			}
			assert.Empty(t, res.Quality.Factors.LostFields)
		}
	}
}

func TestMerge_PreferSourceFlagsDataLoss(t *testing.T) {
	source := fullJob("src")
	source.Location = ""
	target := fullJob("tgt")

	res := testEngine().Merge(source, target, map[string]Strategy{model.FieldLocation: PreferSource})

	assert.Equal(t, "", res.MergedData.Location)
	assert.Equal(t, []string{model.FieldLocation}, res.Quality.Factors.LostFields)
	require.NotEmpty(t, res.Risks)
	assert.Equal(t, RiskDataLoss, res.Risks[len(res.Risks)-1].Type)
	assert.Equal(t, RecommendInvestigate, res.Recommendations[0].Type)
	assert.Equal(t, "prefer_source", res.Strategies[model.FieldLocation])
}

func TestMerge_InapplicableStrategyIgnored(t *testing.T) {
	res := testEngine().Merge(fullJob("src"), fullJob("tgt"), map[string]Strategy{model.FieldSkills: UseEarliest})
	assert.Equal(t, "merge_unique", res.Strategies[model.FieldSkills])
}

func TestIdentifyRisks(t *testing.T) {
	e := testEngine()
	source := model.Position{
		DateStart:   "2018-01-01",
		Skills:      []string{"Go"},
		Description: "Managed a warehouse team",
	}
	target := model.Position{
		DateStart:   "2019-01-01",
		Skills:      []string{"Photoshop"},
		Description: "Designed marketing brochures for clients",
	}

	risks := e.IdentifyRisks(source, target, nil)
	require.Len(t, risks, 3)
	assert.Equal(t, RiskContentDivergence, risks[0].Type)
	assert.Equal(t, SeverityMedium, risks[0].Severity)
	assert.Equal(t, RiskSkillsMismatch, risks[1].Type)
	assert.Equal(t, SeverityLow, risks[1].Severity)
	assert.Equal(t, RiskDateMismatch, risks[2].Type)
	assert.Equal(t, SeverityHigh, risks[2].Severity)
	assert.Equal(t, "start dates 2018-01-01 and 2019-01-01 are 12 months apart", risks[2].Detail)
	for _, r := range risks {
		assert.NotEmpty(t, r.Detail)
	}
}

func TestIdentifyRisks_SmallDateDifferenceIsFine(t *testing.T) {
	risks := testEngine().IdentifyRisks(
		model.Position{DateStart: "2020-01-01"},
		model.Position{DateStart: "2020-03-15"},
		nil,
	)
	assert.Empty(t, risks)
}

func TestRecommend(t *testing.T) {
	e := testEngine()
	good := Quality{Score: 0.9, Grade: GradeExcellent}
	fair := Quality{Score: 0.6, Grade: GradeFair}
	poor := Quality{Score: 0.3, Grade: GradePoor}
	high := []Risk{{Type: RiskDateMismatch, Severity: SeverityHigh}}
	medium := []Risk{{Type: RiskContentDivergence, Severity: SeverityMedium}}
	low := []Risk{{Type: RiskSkillsMismatch, Severity: SeverityLow}}

	recs := e.Recommend(good, high)
	require.Len(t, recs, 1)
	assert.Equal(t, RecommendInvestigate, recs[0].Type)
	assert.Equal(t, PriorityHigh, recs[0].Priority)

	recs = e.Recommend(good, medium)
	require.Len(t, recs, 1)
	assert.Equal(t, RecommendCaution, recs[0].Type)
	assert.Equal(t, PriorityMedium, recs[0].Priority)

	recs = e.Recommend(poor, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, RecommendCaution, recs[0].Type)
	assert.Equal(t, PriorityHigh, recs[0].Priority)

	recs = e.Recommend(fair, low)
	require.Len(t, recs, 1)
	assert.Equal(t, RecommendProceed, recs[0].Type)
	assert.Equal(t, PriorityMedium, recs[0].Priority)

	recs = e.Recommend(poor, append(high, medium...))
	require.Len(t, recs, 3)
	assert.Equal(t, RecommendInvestigate, recs[0].Type)
}

func TestAssessQuality_Grades(t *testing.T) {
	e := testEngine()

	q := e.AssessQuality(model.Position{}, model.Position{}, nil)
	assert.InDelta(t, 0.15, q.Score, 1e-9) // start unknown: consistency 0.5
	assert.Equal(t, GradePoor, q.Grade)

	inverted := fullJob("x")
	inverted.DateEnd = "2010-01-01"
	q = e.AssessQuality(fullJob("x"), inverted, nil)
	assert.Zero(t, q.Factors.Consistency)
	assert.Equal(t, GradeFair, q.Grade)

	q = e.AssessQuality(fullJob("x"), fullJob("x"), []string{"a", "b", "c", "d", "e"})
	assert.Zero(t, q.Score)
}

func TestCompleteness(t *testing.T) {
	assert.InDelta(t, 1.0, Completeness(fullJob("x")), 1e-9)
	assert.InDelta(t, 0.0, Completeness(model.Position{}), 1e-9)
	assert.InDelta(t, 2.0/6.0, Completeness(model.Position{Title: "T", DateStart: "2020", DateEnd: "2021"}), 1e-9)
	assert.InDelta(t, 1.0/6.0, Completeness(model.Position{Title: "T", DateStart: "soon"}), 1e-9)
}

func TestAnalyzeChanges(t *testing.T) {
	orig := model.Position{Title: "Engineer", Skills: []string{"Go"}, Location: "NYC"}
	merged := model.Position{Title: "Senior Engineer", Skills: []string{"go"}, Description: "new", Location: ""}

	a := AnalyzeChanges(orig, merged)
	assert.Equal(t, []string{model.FieldTitle, model.FieldDescription, model.FieldLocation}, a.ChangedFields)
	assert.True(t, a.HasSignificantChanges)
	assert.Equal(t, ChangeModified, a.Changes[0].Type)
	assert.Equal(t, ChangeAdded, a.Changes[1].Type)
	assert.Equal(t, ChangeRemoved, a.Changes[2].Type)

	a = AnalyzeChanges(orig, model.Position{Title: "Engineer", Skills: []string{"Go", "Rust"}, Location: "NYC"})
	assert.Equal(t, []string{model.FieldSkills}, a.ChangedFields)
	assert.False(t, a.HasSignificantChanges)
}

type countingLookup struct {
	SliceLookup
	calls int
	err   error
}

func (c *countingLookup) GetPosition(ctx context.Context, id string) (*model.Position, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.SliceLookup.GetPosition(ctx, id)
}

func TestMergeByID_Validation(t *testing.T) {
	e := testEngine()
	tests := []struct {
		name string
		req  Request
	}{
		{"missing source", Request{TargetID: "b"}},
		{"missing target", Request{SourceID: "a"}},
		{"blank source", Request{SourceID: "  ", TargetID: "b"}},
		{"self merge", Request{SourceID: "a", TargetID: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &countingLookup{SliceLookup: SliceLookup{fullJob("a"), fullJob("b")}}
			res, err := e.MergeByID(context.Background(), lookup, tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, model.IsValidation(err))
			assert.Zero(t, lookup.calls, "lookup must not be called")
		})
	}
}

func TestMergeByID_NotFound(t *testing.T) {
	lookup := SliceLookup{fullJob("a")}

	_, err := testEngine().MergeByID(context.Background(), lookup, Request{SourceID: "a", TargetID: "missing"})
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing")

	_, err = testEngine().MergeByID(context.Background(), lookup, Request{SourceID: "ghost", TargetID: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestMergeByID_LookupError(t *testing.T) {
	lookup := &countingLookup{err: errors.New("connection refused")}

	_, err := testEngine().MergeByID(context.Background(), lookup, Request{SourceID: "a", TargetID: "b"})
	require.Error(t, err)
	assert.False(t, model.IsNotFound(err))
	assert.Contains(t, err.Error(), "merge: load position a")
}

func TestMergeByID_Success(t *testing.T) {
	src := fullJob("a")
	src.Skills = []string{"Rust"}
	lookup := SliceLookup{src, fullJob("b")}

	res, err := testEngine().MergeByID(context.Background(), lookup, Request{
		SourceID:        "a",
		TargetID:        "b",
		FieldStrategies: map[string]string{"title": "prefer_target", "skills": "bogus"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", res.MergedData.ID)
	assert.Equal(t, "a", res.SourceID)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Rust"}, res.MergedData.Skills)
	assert.Equal(t, "prefer_target", res.Strategies["title"])
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `unknown strategy "bogus"`)
}

func TestNewEngine_ConfiguredDefaults(t *testing.T) {
	cfg := DefaultMergeConfig()
	cfg.FieldStrategies = map[string]string{"title": "prefer_longest", "org": "merge_unique"}
	e := NewEngine(cfg)

	require.Len(t, e.Warnings(), 1)
	s, _ := e.Strategies(nil)
	assert.Equal(t, PreferLongest, s[model.FieldTitle])
	assert.Equal(t, PreferComplete, s[model.FieldOrg])
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultMergeConfig()))

	cfg := DefaultMergeConfig()
	cfg.FairScore = 0.95
	cfg.DateMismatchMonths = -1
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grade scores must be ordered")
	assert.Contains(t, err.Error(), "date_mismatch_months")
}

func TestMergedData_JSONKeepsProvenance(t *testing.T) {
	in := MergedData{
		Position:       model.Position{ID: "t", Title: "Eng", Skills: []string{"Go"}},
		MergeSourceID:  "s",
		MergeTimestamp: mergeNow,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out MergedData
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "t", out.ID)
	assert.Equal(t, []string{"Go"}, out.Skills)
	assert.Equal(t, "s", out.MergeSourceID)
	assert.True(t, mergeNow.Equal(out.MergeTimestamp))
}
