package liedetector

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/mystery-engine/pkg/facts"
)

// quickPairs is the fixed table used by QuickContradictionCheck. It is
// narrower than the fact ledger's table and matches whole words only.
var quickPairs = [][2]string{
	{"never", "always"},
	{"didn't", "did"},
	{"wasn't", "was"},
	{"innocent", "guilty"},
	{"alive", "dead"},
	{"true", "false"},
	{"yes", "no"},
}

// QuickContradictionCheck reports whether two claims look contradictory
// without consulting a model: one carries a word from a negation pair, the
// other carries its partner, and the claims share a content word.
func QuickContradictionCheck(claimA, claimB string) bool {
	a, b := words(claimA), words(claimB)
	if !sharesContentWord(a, b) {
		return false
	}
	for _, p := range quickPairs {
		if (a[p[0]] && b[p[1]]) || (a[p[1]] && b[p[0]]) {
			return true
		}
	}
	return a["not"] != b["not"]
}

func words(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"()[]")
		if w != "" {
			out[w] = true
		}
	}
	return out
}

func sharesContentWord(a, b map[string]bool) bool {
	for w := range a {
		if len(w) > 3 && b[w] {
			return true
		}
	}
	return false
}

// FormatSuspicions lists the ledger's suspicious facts grouped by subject
func (d *Detector) FormatSuspicions() string {
	return FormatSuspicions(d.store.GetSuspiciousFacts())
}

// FormatSuspicions renders suspicious facts grouped by subject, subjects in
// alphabetical order and facts in ledger order
func FormatSuspicions(suspicious []*facts.Fact) string {
	if len(suspicious) == 0 {
		return "Nothing seems out of place yet."
	}

	groups := make(map[string][]*facts.Fact)
	var subjects []string
	for _, f := range suspicious {
		if _, ok := groups[f.Subject]; !ok {
			subjects = append(subjects, f.Subject)
		}
		groups[f.Subject] = append(groups[f.Subject], f)
	}
	slices.Sort(subjects)

	var b strings.Builder
	b.WriteString("Things that don't add up:\n")
	for _, subject := range subjects {
		fmt.Fprintf(&b, "\nAbout %s:\n", subject)
		for _, f := range groups[subject] {
			fmt.Fprintf(&b, "  - %q (%s, day %d) [%s, %d%% confidence]\n",
				f.Claim, f.Source.Name, f.Source.Day, f.Status, int(f.Confidence*100+0.5))
		}
	}
	return b.String()
}
