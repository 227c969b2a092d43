package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

// CaseState is the persisted state of one investigation: the scored
// progress, the fact ledger and the buffered NPC activity.
type CaseState struct {
	ID            uuid.UUID            `json:"id"`
	CaseFile      string               `json:"case_file"`
	CaseName      string               `json:"case_name"`
	ContentRating string               `json:"content_rating,omitempty"`
	Rules         puzzle.ScoringRules  `json:"rules"`
	Difficulty    int                  `json:"difficulty"`
	Progress      *puzzle.CaseProgress `json:"progress"`
	Facts         facts.Snapshot       `json:"facts"`
	Activity      digest.Snapshot      `json:"activity"`
	LastDigest    *digest.DailyDigest  `json:"last_digest,omitempty"`
	LastVisit     time.Time            `json:"last_visit"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewCaseState opens an investigation of cf. The case's scoring overrides
// are applied over rules, its NPC knowledge is registered and its seed facts
// are put on the ledger.
func NewCaseState(cf *casefile.CaseFile, rules puzzle.ScoringRules, difficulty int) *CaseState {
	now := time.Now()
	cs := &CaseState{
		ID:            uuid.New(),
		CaseFile:      cf.FileName,
		CaseName:      cf.Name,
		ContentRating: cf.ContentRating,
		Rules:         cf.Rules(rules),
		Difficulty:    cf.Difficulty(difficulty),
		LastVisit:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	cs.Progress = cs.Engine().CreateCaseProgress(cs.ID.String(), cf.Name)

	ledger := facts.NewStore()
	for _, sf := range cf.SeedFacts {
		ledger.AddFact(sf.Subject, sf.Claim, sf.Source)
	}
	gen := digest.NewGenerator()
	for _, npc := range cf.NPCs {
		gen.RegisterNPC(npc)
	}
	cs.Capture(ledger, gen)
	return cs
}

// Engine returns a puzzle engine using the case's rules and difficulty
func (cs *CaseState) Engine(opts ...puzzle.Option) *puzzle.Engine {
	opts = append([]puzzle.Option{puzzle.WithDifficulty(cs.Difficulty)}, opts...)
	return puzzle.NewEngine(cs.Rules, opts...)
}

// Ledger returns a fact store loaded with the case's facts
func (cs *CaseState) Ledger() *facts.Store {
	s := facts.NewStore()
	s.Restore(cs.Facts)
	return s
}

// Digests returns a digest generator loaded with the case's NPC knowledge
// and buffered activity
func (cs *CaseState) Digests(opts ...digest.Option) *digest.Generator {
	g := digest.NewGenerator(opts...)
	g.Restore(cs.Activity)
	return g
}

// Capture writes the working ledger and generator back into the state.
// Either may be nil to leave that part unchanged.
func (cs *CaseState) Capture(ledger *facts.Store, gen *digest.Generator) {
	if ledger != nil {
		cs.Facts = ledger.Snapshot()
	}
	if gen != nil {
		cs.Activity = gen.Snapshot()
	}
	cs.UpdatedAt = time.Now()
}

// Active reports whether the investigation is still open
func (cs *CaseState) Active() bool {
	return cs.Progress != nil && cs.Progress.Status == puzzle.CaseActive
}
