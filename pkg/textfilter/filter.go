package textfilter

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const censored = "[censored]"

// replacements maps each filtered word to the text that stands in for it.
// Slurs have no sensible substitute and are censored outright.
var replacements = map[string]string{
	"fuck":         "fudge",
	"motherfucker": "mother-trucker",
	"shit":         "shoot",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"ass":          "butt",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"smartass":     "smarty",
	"badass":       "tough",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"dick":         "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douche":       "jerk",
	"douchebag":    "jerk",
	"christ":       "crikey",
	"jesus christ": "jeez",
	"cock":         censored,
	"pussy":        censored,
	"whore":        censored,
	"slut":         censored,
	"fag":          censored,
	"retard":       censored,
	"nigger":       censored,
	"nigga":        censored,
	"spic":         censored,
	"chink":        censored,
	"kike":         censored,
}

// ProfanityFilter swaps profanity in generated narration for milder words
type ProfanityFilter struct {
	pattern *regexp.Regexp
	title   cases.Caser
}

// NewProfanityFilter compiles the word list into a single matcher
func NewProfanityFilter() *ProfanityFilter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, w)
	}
	// Longest first so compound words win over their stems.
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}

	return &ProfanityFilter{
		pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)(e?s)?\b`),
		title:   cases.Title(language.English),
	}
}

// FilterText replaces every filtered word in text, keeping the case of the
// original and carrying plurals over to the replacement
func (pf *ProfanityFilter) FilterText(text string) string {
	return pf.pattern.ReplaceAllStringFunc(text, func(match string) string {
		m := pf.pattern.FindStringSubmatch(match)
		word, plural := m[1], m[2]

		replacement, ok := replacements[strings.ToLower(word)]
		if !ok {
			return match
		}
		if replacement == censored {
			return censored
		}
		out := pf.matchCase(word, replacement)
		if plural != "" {
			out += pf.matchCase(plural, "s")
		}
		return out
	})
}

// ContainsProfanity reports whether text holds any filtered word
func (pf *ProfanityFilter) ContainsProfanity(text string) bool {
	return pf.pattern.MatchString(text)
}

// matchCase gives replacement the case pattern of original
func (pf *ProfanityFilter) matchCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	case pf.title.String(strings.ToLower(original)) == original:
		return pf.title.String(replacement)
	}

	orig := []rune(original)
	out := []rune(replacement)
	for i, r := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return string(out)
}

// ShouldFilterContent reports whether narration for a case with the given
// content rating should be filtered
func ShouldFilterContent(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}
