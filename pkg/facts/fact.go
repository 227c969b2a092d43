package facts

import (
	"fmt"
	"time"
)

// SourceType identifies what kind of entity asserted a claim
type SourceType string

const (
	SourceNPC         SourceType = "npc"
	SourcePlayer      SourceType = "player"
	SourceObservation SourceType = "observation"
	SourceWorld       SourceType = "world"
)

// Valid reports whether t is one of the known source types
func (t SourceType) Valid() bool {
	switch t {
	case SourceNPC, SourcePlayer, SourceObservation, SourceWorld:
		return true
	}
	return false
}

// Status is the verification state of a fact
type Status string

const (
	StatusUnverified   Status = "unverified"
	StatusVerified     Status = "verified"
	StatusContradicted Status = "contradicted"
	StatusLie          Status = "lie"
	StatusTruth        Status = "truth"
)

// pinned statuses come from an explicit resolution and are not
// overwritten by later contradiction or corroboration discovery.
func (s Status) pinned() bool {
	return s == StatusTruth || s == StatusLie
}

const (
	InitialConfidence = 0.5

	// ContradictionPenalty is applied to a new fact once per contradicting fact.
	ContradictionPenalty = 0.2
	// ContradictionFloor is the lowest confidence a contradiction can push a new fact to.
	ContradictionFloor = 0.2

	// CorroborationBoost is applied to a new fact once per corroborating fact.
	CorroborationBoost = 0.2
	// CorroboratedBoost is the flat boost an existing fact gets when a new fact agrees with it.
	CorroboratedBoost = 0.1

	// SuspicionThreshold is the confidence under which an unverified fact is suspicious.
	SuspicionThreshold = 0.4
)

// Source is the provenance of a fact: who said it and on which game day
type Source struct {
	Type    SourceType `json:"type"`
	Name    string     `json:"name"`
	Day     int        `json:"day"`
	Context string     `json:"context,omitempty"`
}

// Key is the "type:name" index key for the source
func (s Source) Key() string {
	return sourceKey(s.Type, s.Name)
}

func (s Source) String() string {
	if s.Context != "" {
		return fmt.Sprintf("%s (%s, day %d, %s)", s.Name, s.Type, s.Day, s.Context)
	}
	return fmt.Sprintf("%s (%s, day %d)", s.Name, s.Type, s.Day)
}

// Fact is a single claim attributed to a source
type Fact struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Claim          string    `json:"claim"`
	Source         Source    `json:"source"`
	Status         Status    `json:"status"`
	Confidence     float64   `json:"confidence"`
	Contradictions []string  `json:"contradictions"`
	Corroborations []string  `json:"corroborations"`
	CreatedAt      time.Time `json:"created_at"`
}

// Contradiction is a conflicting pair surfaced when a fact is added.
// It is not stored.
type Contradiction struct {
	FactA       *Fact  `json:"fact_a"`
	FactB       *Fact  `json:"fact_b"`
	Description string `json:"description"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
