package company

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnknownKey is the grouping key for blank organization names. An organization
// literally named "Unknown" shares it: Normalize must be idempotent and
// Normalize("") is "unknown", so the two cannot be told apart.
const UnknownKey = "unknown"

// legalSuffixes are stripped from either end of a name.
var legalSuffixes = map[string]bool{
	"corp":         true,
	"corporation":  true,
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"llp":          true,
	"ltd":          true,
	"limited":      true,
	"co":           true,
	"company":      true,
	"plc":          true,
}

// fillerWords carry no identity and are dropped anywhere in a name.
var fillerWords = map[string]bool{
	"the":     true,
	"global":  true,
	"systems": true,
}

// DefaultAliases maps known renames and parent companies to one canonical key.
// Every value must normalize to itself.
var DefaultAliases = map[string]string{
	"alphabet":                        "google",
	"google llc":                      "google",
	"facebook":                        "meta",
	"meta platforms":                  "meta",
	"amazon web services":             "amazon",
	"aws":                             "amazon",
	"amazon com":                      "amazon",
	"microsoft azure":                 "microsoft",
	"international business machines": "ibm",
	"hewlett packard enterprise":      "hpe",
}

// dottedForms collapses dotted legal abbreviations before punctuation removal.
var dottedForms = strings.NewReplacer(
	"l.l.c.", "llc", "l.l.c", "llc",
	"l.l.p.", "llp", "l.l.p", "llp",
	"p.l.c.", "plc", "p.l.c", "plc",
)

// decorative punctuation is replaced with spaces. Joining characters such
// as & - + / and ' are kept so "AT&T" and "AT T" stay distinct.
var decorative = strings.NewReplacer(
	".", " ", ",", " ", ";", " ", ":", " ", "!", " ", "?", " ",
	`"`, " ", "(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ",
)

// Normalizer turns free-text organization names into stable grouping keys.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer creates a Normalizer. A nil alias table uses DefaultAliases.
func NewNormalizer(aliases map[string]string) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases
	}
	return &Normalizer{aliases: aliases}
}

// Normalize returns the grouping key for raw. It is idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	cleaned := clean(raw)
	if cleaned == "" {
		return UnknownKey
	}

	tokens := strings.Fields(cleaned)
	kept := tokens[:0:0]
	for _, t := range tokens {
		if !fillerWords[t] {
			kept = append(kept, t)
		}
	}
	kept = stripSuffixes(kept)

	if len(kept) == 0 {
		// Nothing but fillers and suffixes; keep the whole name so
		// "The Company" does not collapse into "unknown".
		return cleaned
	}

	key := strings.Join(kept, " ")
	if alias, ok := n.aliases[key]; ok {
		return alias
	}
	return key
}

// clean lowercases, folds diacritics, collapses dotted abbreviations and
// removes decorative punctuation, returning single-spaced text.
func clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = foldDiacritics(s)
	s = dottedForms.Replace(s)
	s = decorative.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripSuffixes(tokens []string) []string {
	for len(tokens) > 0 {
		switch {
		case legalSuffixes[tokens[len(tokens)-1]]:
			tokens = tokens[:len(tokens)-1]
		case legalSuffixes[tokens[0]]:
			tokens = tokens[1:]
		default:
			return tokens
		}
	}
	return tokens
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
