package liedetector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/textfilter"
)

// Generator is a free-form text completion backend
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Severity is how strongly an alert points at a lie
type Severity string

const (
	SeveritySuspicion     Severity = "suspicion"
	SeverityInconsistency Severity = "inconsistency"
	SeverityLie           Severity = "lie"
)

// severityFor maps the model's judgement onto an alert severity
func severityFor(judged string) Severity {
	switch strings.ToLower(strings.TrimSpace(judged)) {
	case "direct":
		return SeverityLie
	case "significant":
		return SeverityInconsistency
	default:
		return SeveritySuspicion
	}
}

// Alert is a suspected contradiction between a new claim and a recorded fact
type Alert struct {
	NPC         string      `json:"npc"`
	Claim       string      `json:"claim"`
	Subject     string      `json:"subject"`
	Conflicting *facts.Fact `json:"conflicting_fact"`
	Severity    Severity    `json:"severity"`
	Explanation string      `json:"explanation"`
	GutFeeling  string      `json:"gut_feeling"`
}

// Result is the outcome of CheckClaim. Alert is nil when nothing conflicts.
type Result struct {
	Alert      *Alert `json:"alert,omitempty"`
	TokensUsed int    `json:"tokens_used"`
}

// judgement is the JSON object the model is asked to return
type judgement struct {
	Contradict  bool   `json:"contradict"`
	Severity    string `json:"severity"`
	Explanation string `json:"explanation"`
}

// Detector asks a language model whether new NPC claims conflict with the
// fact ledger and narrates the player's suspicion when they do.
type Detector struct {
	store  *facts.Store
	llm    Generator
	logger *slog.Logger
	filter *textfilter.ProfanityFilter
	rating string
}

// Option configures a Detector
type Option func(*Detector)

// WithLogger sets the detector's logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// WithContentRating filters narration for family-friendly ratings
func WithContentRating(rating string) Option {
	return func(d *Detector) { d.rating = rating }
}

// NewDetector creates a detector that checks claims against store
func NewDetector(store *facts.Store, llm Generator, opts ...Option) *Detector {
	d := &Detector{
		store:  store,
		llm:    llm,
		logger: slog.Default(),
		filter: textfilter.NewProfanityFilter(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CheckClaim compares a claim npc just made about subject with every recorded
// fact about subject from other sources. It stops at the first conflict the
// model confirms and narrates it. Model failures and unparseable responses
// count as no conflict, so CheckClaim never fails.
func (d *Detector) CheckClaim(ctx context.Context, npc, claim, subject string) Result {
	var result Result
	for _, f := range d.candidates(npc, subject) {
		if ctx.Err() != nil {
			break
		}

		j, tokens, ok := d.compare(ctx, npc, claim, subject, f)
		result.TokensUsed += tokens
		if !ok || !j.Contradict {
			continue
		}

		alert := &Alert{
			NPC:         npc,
			Claim:       claim,
			Subject:     facts.NormalizeSubject(subject),
			Conflicting: f,
			Severity:    severityFor(j.Severity),
			Explanation: j.Explanation,
		}
		narration, tokens := d.narrate(ctx, alert)
		alert.GutFeeling = narration
		result.TokensUsed += tokens
		result.Alert = alert

		d.logger.Debug("Claim contradicts recorded fact",
			"npc", npc,
			"subject", alert.Subject,
			"fact_id", f.ID,
			"severity", alert.Severity)
		return result
	}
	return result
}

// candidates are the facts about subject not asserted by npc
func (d *Detector) candidates(npc, subject string) []*facts.Fact {
	var out []*facts.Fact
	for _, f := range d.store.GetFactsAbout(subject) {
		if f.Source.Type == facts.SourceNPC && strings.EqualFold(f.Source.Name, npc) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (d *Detector) compare(ctx context.Context, npc, claim, subject string, f *facts.Fact) (judgement, int, bool) {
	prompt := comparisonPrompt(npc, claim, subject, f)
	response, err := d.llm.Generate(ctx, prompt)
	if err != nil {
		d.logger.Warn("Contradiction check failed", "npc", npc, "fact_id", f.ID, "error", err)
		return judgement{}, 0, false
	}

	raw := extractJSON(response)
	if raw == "" {
		d.logger.Warn("Contradiction check returned no JSON", "npc", npc, "fact_id", f.ID)
		return judgement{}, 0, false
	}
	var j judgement
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		d.logger.Warn("Contradiction check returned invalid JSON", "npc", npc, "fact_id", f.ID, "error", err)
		return judgement{}, 0, false
	}
	return j, estimateTokens(prompt, response), true
}

// narrate writes the player's gut feeling about alert, falling back to a
// fixed line when the model is unavailable
func (d *Detector) narrate(ctx context.Context, alert *Alert) (string, int) {
	prompt := narrationPrompt(alert)
	response, err := d.llm.Generate(ctx, prompt)
	text := strings.TrimSpace(response)
	if err != nil || text == "" {
		if err != nil {
			d.logger.Warn("Suspicion narration failed", "npc", alert.NPC, "error", err)
		}
		return fallbackNarration(alert.NPC), 0
	}
	if textfilter.ShouldFilterContent(d.rating) {
		text = d.filter.FilterText(text)
	}
	return text, estimateTokens(prompt, response)
}

func fallbackNarration(npc string) string {
	return fmt.Sprintf("Something about what %s just said doesn't quite add up...", npc)
}

// estimateTokens approximates usage at four characters per token, since
// completion backends only return text
func estimateTokens(prompt, response string) int {
	return (len(prompt) + len(response) + 3) / 4
}

// extractJSON returns the first balanced {...} object in s, or "" if none
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func comparisonPrompt(npc, claim, subject string, f *facts.Fact) string {
	var b strings.Builder
	b.WriteString("You are checking witness testimony in a mystery for contradictions.\n\n")
	fmt.Fprintf(&b, "Recorded statement about %s, from %s:\n%q\n\n", subject, f.Source, f.Claim)
	fmt.Fprintf(&b, "New statement about %s, from %s:\n%q\n\n", subject, npc, claim)
	b.WriteString("Can both statements be true at the same time? ")
	b.WriteString("Respond with only a JSON object, no other text:\n")
	b.WriteString(`{"contradict": true or false, "severity": "none" | "minor" | "significant" | "direct", "explanation": "one short sentence"}`)
	return b.String()
}

func narrationPrompt(alert *Alert) string {
	var b strings.Builder
	b.WriteString("Write the detective's gut feeling in one or two sentences, in second person.\n")
	fmt.Fprintf(&b, "%s just said: %q\n", alert.NPC, alert.Claim)
	if f := alert.Conflicting; f != nil {
		fmt.Fprintf(&b, "That does not fit with what %s said earlier: %q\n", f.Source.Name, f.Claim)
	}
	if alert.Explanation != "" {
		fmt.Fprintf(&b, "Why it is off: %s\n", alert.Explanation)
	}
	b.WriteString("Hint at the conflict and who it came from. Do not accuse anyone outright. Reply with the narration only.")
	return b.String()
}
