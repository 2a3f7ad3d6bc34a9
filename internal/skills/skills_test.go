package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottgpt/career-cli/internal/model"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		skill string
		want  string
	}{
		{"Go", CategoryLanguages},
		{"  PYTHON ", CategoryLanguages},
		{"React", CategoryFrameworks},
		{"Kubernetes", CategoryCloud},
		{"AWS Lambda", CategoryCloud},
		{"PostgreSQL", CategoryDatabases},
		{"Database Design", CategoryDatabases},
		{"Data Engineering", CategoryData},
		{"Deep Learning", CategoryData},
		{"Team Management", CategoryLeadership},
		{"Scrum", CategoryLeadership},
		{"HTML", CategoryOther},
		{"Figma", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.skill, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.skill))
		})
	}
}

func TestAggregate_CaseInsensitiveFirstSeenCasing(t *testing.T) {
	ag := NewAggregator(3).Aggregate([]model.Position{
		{Title: "Engineer", Skills: []string{"golang", "Docker", "docker"}},
		{Title: "Senior Engineer", Skills: []string{"GoLang", "Kubernetes"}},
	})

	assert.Equal(t, []string{"golang", "Docker", "Kubernetes"}, ag.UniqueSkills)
	assert.Equal(t, 2, ag.SkillFrequency["golang"])
	assert.Equal(t, 1, ag.SkillFrequency["Docker"])
	assert.Equal(t, 1, ag.CategoryDistribution[CategoryLanguages])
	assert.Equal(t, 2, ag.CategoryDistribution[CategoryCloud])
}

func TestAggregate_Evolution(t *testing.T) {
	ag := NewAggregator(5).Aggregate([]model.Position{
		{Title: "A", Skills: []string{"Go", "SQL"}},
		{Title: "B", DateStart: "2020-01-01", Skills: []string{"go", "Kubernetes"}},
	})

	require.Len(t, ag.SkillEvolution, 1)
	e := ag.SkillEvolution[0]
	assert.Equal(t, "A", e.From)
	assert.Equal(t, "B", e.To)
	assert.Equal(t, "2020-01-01", e.Date)
	assert.Equal(t, []string{"Kubernetes"}, e.Added)
	assert.Equal(t, []string{"SQL"}, e.Removed)
	assert.Equal(t, []string{"Go"}, e.Retained)
}

func TestAggregate_EmptySkillListsStillProduceEvolution(t *testing.T) {
	ag := NewAggregator(5).Aggregate([]model.Position{
		{Title: "A"},
		{Title: "B"},
		{Title: "C", Skills: nil},
	})

	require.Len(t, ag.SkillEvolution, 2)
	for _, e := range ag.SkillEvolution {
		assert.NotNil(t, e.Added)
		assert.Empty(t, e.Added)
		assert.Empty(t, e.Removed)
		assert.Empty(t, e.Retained)
	}
	assert.Equal(t, []string{"No skills recorded"}, ag.Insights)
}

func TestAggregate_UnknownSkillsCountAsOther(t *testing.T) {
	ag := NewAggregator(5).Aggregate([]model.Position{
		{Skills: []string{"Underwater Basket Weaving", "Figma"}},
	})
	assert.Equal(t, 2, ag.CategoryDistribution[CategoryOther])
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	in := []model.Position{{Skills: []string{" Go ", "Rust"}}}
	NewAggregator(5).Aggregate(in)
	assert.Equal(t, []string{" Go ", "Rust"}, in[0].Skills)
}

func TestAggregate_Insights(t *testing.T) {
	ag := NewAggregator(2).Aggregate([]model.Position{
		{Skills: []string{"Go", "Docker"}},
		{Skills: []string{"Go", "Python", "Docker"}},
		{Skills: []string{"Go"}},
	})

	assert.Equal(t, []string{"Go", "Docker"}, ag.TopSkills(2))
	assert.Contains(t, ag.Insights, "3 unique skills across 3 positions")
	assert.Contains(t, ag.Insights, "Top skills: Go, Docker")
	assert.Contains(t, ag.Insights, "Strongest category: Programming Languages")
	assert.Contains(t, ag.Insights, "1 skill picked up across role changes")
}
