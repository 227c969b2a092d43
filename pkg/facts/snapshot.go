package facts

import (
	"encoding/json"
	"fmt"
)

// Entry is one [id, fact] pair of a serialized store
type Entry struct {
	ID   string
	Fact *Fact
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.Fact})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("fact entry must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return fmt.Errorf("failed to parse fact id: %w", err)
	}
	e.Fact = &Fact{}
	if err := json.Unmarshal(pair[1], e.Fact); err != nil {
		return fmt.Errorf("failed to parse fact %s: %w", e.ID, err)
	}
	return nil
}

// Snapshot is the persisted form of a Store
type Snapshot struct {
	Facts []Entry `json:"facts"`
}

// Snapshot captures every fact in insertion order
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{Facts: make([]Entry, 0, len(s.order))}
	for _, f := range s.All() {
		snap.Facts = append(snap.Facts, Entry{ID: f.ID, Fact: f})
	}
	return snap
}

// Restore replaces the store contents with the snapshot and rebuilds the indices
func (s *Store) Restore(snap Snapshot) {
	s.Clear()
	for _, e := range snap.Facts {
		if e.Fact == nil || e.ID == "" {
			continue
		}
		f := e.Fact
		f.ID = e.ID
		if f.Contradictions == nil {
			f.Contradictions = []string{}
		}
		if f.Corroborations == nil {
			f.Corroborations = []string{}
		}
		f.Confidence = clamp(f.Confidence, 0, 1)
		s.insert(f)
	}
}

// Serialize encodes the store as {"facts": [[id, fact], ...]}
func (s *Store) Serialize() ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize facts: %w", err)
	}
	return data, nil
}

// Deserialize replaces the store contents with serialized data. Input that
// cannot be read, or that has no facts key, leaves the store empty.
func (s *Store) Deserialize(data []byte) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.Clear()
		return
	}
	s.Restore(snap)
}
