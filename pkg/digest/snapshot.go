package digest

import (
	"slices"
	"strings"
)

// Snapshot is the serializable state of a Generator
type Snapshot struct {
	Knowledge     []NPCKnowledge `json:"knowledge"`
	Conversations []Conversation `json:"conversations"`
	Activities    []Activity     `json:"activities"`
}

// Snapshot captures registered knowledge and buffered activity. Knowledge
// is ordered by agent name.
func (g *Generator) Snapshot() Snapshot {
	snap := Snapshot{
		Knowledge:     make([]NPCKnowledge, 0, len(g.knowledge)),
		Conversations: append([]Conversation{}, g.conversations...),
		Activities:    append([]Activity{}, g.activities...),
	}
	for _, k := range g.knowledge {
		snap.Knowledge = append(snap.Knowledge, k)
	}
	slices.SortFunc(snap.Knowledge, func(a, b NPCKnowledge) int {
		return strings.Compare(a.Agent, b.Agent)
	})
	return snap
}

// Restore replaces the generator's state with snap
func (g *Generator) Restore(snap Snapshot) {
	g.knowledge = make(map[string]NPCKnowledge, len(snap.Knowledge))
	for _, k := range snap.Knowledge {
		g.RegisterNPC(k)
	}
	g.conversations = append([]Conversation(nil), snap.Conversations...)
	g.activities = append([]Activity(nil), snap.Activities...)
}
