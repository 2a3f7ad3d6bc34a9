package progression

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rung is one step on the seniority ladder. A title matching any keyword
// phrase is placed at Level.
type Rung struct {
	Level    int      `yaml:"level"`
	Keywords []string `yaml:"keywords"`
}

// Ladder orders seniority markers. Titles without any marker sit at Baseline.
type Ladder struct {
	Baseline int    `yaml:"baseline"`
	Rungs    []Rung `yaml:"rungs"`
}

// DefaultLadder returns the built-in English seniority ladder.
func DefaultLadder() Ladder {
	return Ladder{
		Baseline: 2,
		Rungs: []Rung{
			{Level: 0, Keywords: []string{"intern", "trainee", "apprentice"}},
			{Level: 1, Keywords: []string{"junior", "jr", "associate", "entry"}},
			{Level: 3, Keywords: []string{"senior", "sr"}},
			{Level: 4, Keywords: []string{"lead", "staff"}},
			{Level: 5, Keywords: []string{"principal", "architect"}},
			{Level: 6, Keywords: []string{"manager"}},
			{Level: 7, Keywords: []string{"director", "head"}},
			{Level: 8, Keywords: []string{"vp", "vice president", "svp", "evp"}},
			{Level: 9, Keywords: []string{"chief", "cto", "ceo", "cio", "cfo", "coo", "president", "founder"}},
		},
	}
}

// LoadLadder reads a YAML ladder file.
func LoadLadder(path string) (Ladder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Ladder{}, eris.Wrapf(err, "progression: read ladder %s", path)
	}
	return ParseLadder(data)
}

// ParseLadder decodes and validates a YAML ladder.
func ParseLadder(data []byte) (Ladder, error) {
	var l Ladder
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Ladder{}, eris.Wrap(err, "progression: parse ladder")
	}
	if err := l.Validate(); err != nil {
		return Ladder{}, err
	}
	return l, nil
}

// Validate checks that the ladder has rungs and that no keyword appears twice.
func (l Ladder) Validate() error {
	var errs []string
	if len(l.Rungs) == 0 {
		errs = append(errs, "ladder must have at least one rung")
	}
	seen := make(map[string]int)
	for _, r := range l.Rungs {
		if len(r.Keywords) == 0 {
			errs = append(errs, fmt.Sprintf("rung %d has no keywords", r.Level))
		}
		for _, kw := range r.Keywords {
			key := strings.Join(titleWords(kw), " ")
			if key == "" {
				errs = append(errs, fmt.Sprintf("rung %d has an empty keyword", r.Level))
				continue
			}
			if lvl, dup := seen[key]; dup {
				errs = append(errs, fmt.Sprintf("keyword %q appears in rungs %d and %d", key, lvl, r.Level))
			}
			seen[key] = r.Level
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("progression: invalid ladder: %s", strings.Join(errs, "; "))
	}
	return nil
}

type phrase struct {
	words []string
	level int
}

// phrases flattens the ladder into keyword phrases, longest first, so
// "vice president" is consumed before "president" can match.
func (l Ladder) phrases() []phrase {
	var out []phrase
	for _, r := range l.Rungs {
		for _, kw := range r.Keywords {
			if w := titleWords(kw); len(w) > 0 {
				out = append(out, phrase{words: w, level: r.Level})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].words) > len(out[j].words)
	})
	return out
}

// Level returns the highest seniority level found in title and the marker
// that produced it. Titles without a marker return the baseline and "".
func (l Ladder) Level(title string) (int, string) {
	words := titleWords(title)
	used := make([]bool, len(words))
	level, marker := l.Baseline, ""
	found := false

	for _, p := range l.phrases() {
		for i := 0; i+len(p.words) <= len(words); i++ {
			if !matchAt(words, used, i, p.words) {
				continue
			}
			for k := range p.words {
				used[i+k] = true
			}
			if !found || p.level > level {
				level, marker, found = p.level, strings.Join(p.words, " "), true
			}
		}
	}
	return level, marker
}

func matchAt(words []string, used []bool, i int, phrase []string) bool {
	for k, w := range phrase {
		if used[i+k] || words[i+k] != w {
			return false
		}
	}
	return true
}

// titleWords lowercases s and splits it on anything that is not a letter or digit.
func titleWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
