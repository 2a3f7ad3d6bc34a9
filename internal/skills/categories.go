package skills

import (
	"strings"
	"unicode"
)

// Skill categories.
const (
	CategoryLanguages  = "Programming Languages"
	CategoryFrameworks = "Frameworks & Libraries"
	CategoryCloud      = "Cloud & DevOps"
	CategoryData       = "Data & Analytics"
	CategoryDatabases  = "Databases"
	CategoryLeadership = "Leadership & Management"
	CategoryOther      = "Other"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryLanguages,
	CategoryFrameworks,
	CategoryCloud,
	CategoryData,
	CategoryDatabases,
	CategoryLeadership,
	CategoryOther,
}

// exactCategories maps lowercased skill names to their category.
var exactCategories = map[string]string{
	"go":         CategoryLanguages,
	"golang":     CategoryLanguages,
	"python":     CategoryLanguages,
	"java":       CategoryLanguages,
	"javascript": CategoryLanguages,
	"typescript": CategoryLanguages,
	"c":          CategoryLanguages,
	"c++":        CategoryLanguages,
	"c#":         CategoryLanguages,
	"rust":       CategoryLanguages,
	"ruby":       CategoryLanguages,
	"php":        CategoryLanguages,
	"kotlin":     CategoryLanguages,
	"swift":      CategoryLanguages,
	"scala":      CategoryLanguages,
	"r":          CategoryLanguages,
	"bash":       CategoryLanguages,
	"shell":      CategoryLanguages,
	"perl":       CategoryLanguages,
	"matlab":     CategoryLanguages,

	"react":      CategoryFrameworks,
	"angular":    CategoryFrameworks,
	"vue":        CategoryFrameworks,
	"django":     CategoryFrameworks,
	"flask":      CategoryFrameworks,
	"fastapi":    CategoryFrameworks,
	"spring":     CategoryFrameworks,
	"rails":      CategoryFrameworks,
	"express":    CategoryFrameworks,
	"node.js":    CategoryFrameworks,
	"nodejs":     CategoryFrameworks,
	".net":       CategoryFrameworks,
	"tensorflow": CategoryFrameworks,
	"pytorch":    CategoryFrameworks,

	"aws":            CategoryCloud,
	"azure":          CategoryCloud,
	"gcp":            CategoryCloud,
	"docker":         CategoryCloud,
	"kubernetes":     CategoryCloud,
	"k8s":            CategoryCloud,
	"terraform":      CategoryCloud,
	"ansible":        CategoryCloud,
	"jenkins":        CategoryCloud,
	"ci/cd":          CategoryCloud,
	"linux":          CategoryCloud,
	"github actions": CategoryCloud,

	"pandas":           CategoryData,
	"spark":            CategoryData,
	"hadoop":           CategoryData,
	"tableau":          CategoryData,
	"power bi":         CategoryData,
	"machine learning": CategoryData,
	"statistics":       CategoryData,
	"etl":              CategoryData,
	"airflow":          CategoryData,

	"sql":           CategoryDatabases,
	"postgresql":    CategoryDatabases,
	"postgres":      CategoryDatabases,
	"mysql":         CategoryDatabases,
	"mongodb":       CategoryDatabases,
	"redis":         CategoryDatabases,
	"dynamodb":      CategoryDatabases,
	"elasticsearch": CategoryDatabases,
	"sqlite":        CategoryDatabases,
	"oracle":        CategoryDatabases,

	"leadership":         CategoryLeadership,
	"project management": CategoryLeadership,
	"agile":              CategoryLeadership,
	"scrum":              CategoryLeadership,
	"mentoring":          CategoryLeadership,
	"team building":      CategoryLeadership,
	"budgeting":          CategoryLeadership,
	"hiring":             CategoryLeadership,
}

// keywordCategories is consulted when no exact match exists. Order matters:
// "database" must be tried before "data".
var keywordCategories = []struct {
	keyword  string
	category string
}{
	{"database", CategoryDatabases},
	{"sql", CategoryDatabases},
	{"cloud", CategoryCloud},
	{"devops", CategoryCloud},
	{"aws", CategoryCloud},
	{"azure", CategoryCloud},
	{"kubernetes", CategoryCloud},
	{"deployment", CategoryCloud},
	{"infrastructure", CategoryCloud},
	{"data", CategoryData},
	{"analytics", CategoryData},
	{"learning", CategoryData},
	{"ml", CategoryData},
	{"ai", CategoryData},
	{"framework", CategoryFrameworks},
	{"library", CategoryFrameworks},
	{"js", CategoryFrameworks},
	{"management", CategoryLeadership},
	{"manager", CategoryLeadership},
	{"leadership", CategoryLeadership},
	{"strategy", CategoryLeadership},
	{"stakeholder", CategoryLeadership},
	{"programming", CategoryLanguages},
}

// Categorize returns the category for a skill. Unknown skills are "Other".
func Categorize(skill string) string {
	key := strings.ToLower(strings.TrimSpace(skill))
	if cat, ok := exactCategories[key]; ok {
		return cat
	}

	words := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, kc := range keywordCategories {
		for _, w := range words {
			if w == kc.keyword || (len(kc.keyword) > 3 && strings.HasPrefix(w, kc.keyword)) {
				return kc.category
			}
		}
	}
	return CategoryOther
}
