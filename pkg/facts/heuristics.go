package facts

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// NormalizeSubject produces the index key for a subject
func NormalizeSubject(subject string) string {
	return lower.String(strings.TrimSpace(subject))
}

func sourceKey(t SourceType, name string) string {
	return string(t) + ":" + lower.String(strings.TrimSpace(name))
}

// wordPair is an antonym or negation pair. A claim pair conflicts when one
// claim carries one member and the other claim carries the other.
// Single words match whole tokens; members containing a space match as phrases.
// When onSubject is set the pair describes where the subject is or what state
// it is in, so the subject alone is enough shared topic. Other pairs only
// conflict when the claims share a content word of their own.
type wordPair struct {
	a, b      string
	onSubject bool
}

var negationPairs = []wordPair{
	{a: "never", b: "always"},
	{a: "didn't", b: "did"},
	{a: "wasn't", b: "was"},
	{a: "isn't", b: "is"},
	{a: "can't", b: "can"},
	{a: "won't", b: "will"},
	{a: "nobody", b: "somebody"},
	{a: "nothing", b: "something"},
	{a: "innocent", b: "guilty", onSubject: true},
	{a: "alive", b: "dead", onSubject: true},
	{a: "truth", b: "lie"},
	{a: "honest", b: "lying"},
	{a: "friend", b: "enemy"},
	{a: "love", b: "hate"},
	{a: "trust", b: "betray"},
	{a: "loyal", b: "traitor"},
	{a: "alone", b: "with"},
	{a: "asleep", b: "awake", onSubject: true},
	{a: "inside", b: "outside", onSubject: true},
	{a: "home", b: "seen at", onSubject: true},
	{a: "stayed", b: "left", onSubject: true},
	{a: "before", b: "after"},
}

// claimText is a lower-cased claim with its tokens, ready for matching
type claimText struct {
	padded string
	tokens map[string]bool
}

func newClaimText(s string) claimText {
	norm := lower.String(s)
	ct := claimText{tokens: make(map[string]bool)}
	var b strings.Builder
	for _, w := range tokenize(norm) {
		ct.tokens[w] = true
		b.WriteString(" ")
		b.WriteString(w)
	}
	b.WriteString(" ")
	ct.padded = b.String()
	return ct
}

func (c claimText) has(member string) bool {
	if strings.Contains(member, " ") {
		return strings.Contains(c.padded, " "+member+" ")
	}
	return c.tokens[member]
}

// tokenize splits lower-cased text into words, keeping apostrophes inside words
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
}

// contentWords returns the distinct words longer than three characters
func contentWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range tokenize(lower.String(s)) {
		w = strings.Trim(w, "'’")
		if len([]rune(w)) > 3 {
			words[w] = true
		}
	}
	return words
}

func sharesWord(a, b map[string]bool) bool {
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}

// Contradicts reports whether two claims about subject pull in opposite
// directions. A named antonym pair must be present across the two claims.
// Whereabouts and state pairs need nothing more since both claims are about
// subject; every other pair, and a bare "not" on one side only, also needs
// the claims to share a content word.
func Contradicts(subject, claimA, claimB string) bool {
	a, b := newClaimText(claimA), newClaimText(claimB)
	shared := sharesWord(contentWords(claimA), contentWords(claimB))

	for _, p := range negationPairs {
		if (a.has(p.a) && b.has(p.b)) || (a.has(p.b) && b.has(p.a)) {
			if p.onSubject || shared {
				return true
			}
		}
	}

	if a.tokens["not"] != b.tokens["not"] {
		return shared
	}
	return false
}

// Corroborates reports whether two claims say substantially the same thing:
// more than half of the smaller claim's content words appear in the other.
func Corroborates(claimA, claimB string) bool {
	return overlapRatio(contentWords(claimA), contentWords(claimB)) > 0.5
}

func overlapRatio(a, b map[string]bool) float64 {
	smaller := min(len(a), len(b))
	if smaller == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	return float64(shared) / float64(smaller)
}
