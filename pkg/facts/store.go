package facts

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFactNotFound      = errors.New("fact not found")
	ErrInvalidResolution = errors.New("fact can only be resolved as truth or lie")
)

// Store is the claim ledger for one investigation. It indexes facts by
// subject and by source and links facts that contradict or corroborate
// each other.
//
// Adding a fact can change the status and confidence of facts already in the
// store. Links are always recorded on both sides.
//
// Store is not safe for concurrent use; callers serialize mutations.
type Store struct {
	facts     map[string]*Fact
	order     []string
	bySubject map[string][]string
	bySource  map[string][]string
	now       func() time.Time
}

// NewStore creates an empty fact store
func NewStore() *Store {
	return &Store{
		facts:     make(map[string]*Fact),
		bySubject: make(map[string][]string),
		bySource:  make(map[string][]string),
		now:       time.Now,
	}
}

// SetClock replaces the clock used to stamp new facts
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// AddResult is returned from AddFact
type AddResult struct {
	Fact           *Fact
	Contradictions []Contradiction
}

// AddFact records a claim about subject made by source. Existing facts about
// the same subject from other sources are checked for contradiction first and
// then for corroboration; both the new fact and any matched facts are updated.
// When a new fact both contradicts one fact and corroborates another, the
// corroboration pass runs last and its status wins while both link lists stay
// populated.
func (s *Store) AddFact(subject, claim string, source Source) AddResult {
	subjectKey := NormalizeSubject(subject)
	fact := &Fact{
		ID:             "fact_" + uuid.NewString(),
		Subject:        subjectKey,
		Claim:          claim,
		Source:         source,
		Status:         StatusUnverified,
		Confidence:     InitialConfidence,
		Contradictions: []string{},
		Corroborations: []string{},
		CreatedAt:      s.now(),
	}

	var contradicting, corroborating []*Fact
	for _, existing := range s.GetFactsAbout(subjectKey) {
		if existing.Source.Key() == source.Key() {
			continue
		}
		if Contradicts(subjectKey, claim, existing.Claim) {
			contradicting = append(contradicting, existing)
		}
	}
	for _, existing := range s.GetFactsAbout(subjectKey) {
		if existing.Source.Key() == source.Key() {
			continue
		}
		if Corroborates(claim, existing.Claim) {
			corroborating = append(corroborating, existing)
		}
	}

	var found []Contradiction
	if len(contradicting) > 0 {
		fact.Status = StatusContradicted
		fact.Confidence = clamp(fact.Confidence-ContradictionPenalty*float64(len(contradicting)), ContradictionFloor, 1)
		for _, existing := range contradicting {
			fact.Contradictions = appendUnique(fact.Contradictions, existing.ID)
			existing.Contradictions = appendUnique(existing.Contradictions, fact.ID)
			if !existing.Status.pinned() {
				existing.Status = StatusContradicted
			}
			found = append(found, Contradiction{
				FactA:       existing,
				FactB:       fact,
				Description: describeContradiction(existing, fact),
			})
		}
	}

	if len(corroborating) > 0 {
		fact.Status = StatusVerified
		fact.Confidence = clamp(fact.Confidence+CorroborationBoost*float64(len(corroborating)), 0, 1)
		for _, existing := range corroborating {
			fact.Corroborations = appendUnique(fact.Corroborations, existing.ID)
			existing.Corroborations = appendUnique(existing.Corroborations, fact.ID)
			if !existing.Status.pinned() {
				existing.Status = StatusVerified
				existing.Confidence = clamp(existing.Confidence+CorroboratedBoost, 0, 1)
			}
		}
	}

	s.insert(fact)

	return AddResult{Fact: fact, Contradictions: found}
}

func describeContradiction(earlier, later *Fact) string {
	return fmt.Sprintf("%s said %q about %s, but %s said %q",
		earlier.Source.Name, earlier.Claim, later.Subject, later.Source.Name, later.Claim)
}

func (s *Store) insert(f *Fact) {
	s.facts[f.ID] = f
	s.order = append(s.order, f.ID)
	s.bySubject[f.Subject] = append(s.bySubject[f.Subject], f.ID)
	key := f.Source.Key()
	s.bySource[key] = append(s.bySource[key], f.ID)
}

// Get returns the fact with the given id
func (s *Store) Get(id string) (*Fact, bool) {
	f, ok := s.facts[id]
	return f, ok
}

// GetFactsAbout returns the facts about subject in insertion order
func (s *Store) GetFactsAbout(subject string) []*Fact {
	return s.lookup(s.bySubject[NormalizeSubject(subject)])
}

// GetFactsFrom returns the facts asserted by the given source
func (s *Store) GetFactsFrom(sourceType SourceType, name string) []*Fact {
	return s.lookup(s.bySource[sourceKey(sourceType, name)])
}

func (s *Store) lookup(ids []string) []*Fact {
	out := make([]*Fact, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.facts[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// All returns every fact in insertion order
func (s *Store) All() []*Fact {
	return s.lookup(s.order)
}

// Len returns the number of facts in the store
func (s *Store) Len() int {
	return len(s.facts)
}

// Resolve pins a fact as truth or lie. Resolving a fact as truth turns every
// fact that contradicts it into a lie. Resolving as lie does not promote its
// contradictions.
func (s *Store) Resolve(factID string, status Status) (*Fact, error) {
	if status != StatusTruth && status != StatusLie {
		return nil, ErrInvalidResolution
	}
	f, ok := s.facts[factID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFactNotFound, factID)
	}

	f.Status = status
	if status == StatusLie {
		f.Confidence = 0
		return f, nil
	}

	f.Confidence = 1
	for _, id := range f.Contradictions {
		if other, ok := s.facts[id]; ok {
			other.Status = StatusLie
			other.Confidence = 0
		}
	}
	return f, nil
}

// GetSuspiciousFacts returns contradicted facts and unverified facts whose
// confidence has dropped below SuspicionThreshold
func (s *Store) GetSuspiciousFacts() []*Fact {
	var out []*Fact
	for _, f := range s.All() {
		switch {
		case f.Status == StatusContradicted:
			out = append(out, f)
		case f.Status == StatusUnverified && f.Confidence < SuspicionThreshold:
			out = append(out, f)
		}
	}
	return out
}

// Clear removes every fact
func (s *Store) Clear() {
	s.facts = make(map[string]*Fact)
	s.order = nil
	s.bySubject = make(map[string][]string)
	s.bySource = make(map[string][]string)
}
