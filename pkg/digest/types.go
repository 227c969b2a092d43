package digest

import (
	"time"

	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

// EventType classifies a digest event
type EventType string

const (
	EventConversation EventType = "conversation"
	EventDiscovery    EventType = "discovery"
	EventMovement     EventType = "movement"
	EventTension      EventType = "tension"
)

// NPCKnowledge is what one character knows, hides, suspects and is willing to lie about
type NPCKnowledge struct {
	Agent      string   `json:"agent" yaml:"agent"`
	Facts      []string `json:"facts" yaml:"facts"`
	Secrets    []string `json:"secrets,omitempty" yaml:"secrets"`
	Suspicions []string `json:"suspicions,omitempty" yaml:"suspicions"`
	Lies       []string `json:"lies" yaml:"lies"`
}

// Message is one line spoken during a conversation
type Message struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// Conversation is a raw exchange between characters reported by the narrative driver
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Topic        string    `json:"topic,omitempty"`
	Location     string    `json:"location,omitempty"`
	Messages     []Message `json:"messages,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Activity is something one character did alone. Secret activities are
// reported as tension in the digest.
type Activity struct {
	ID        string    `json:"id"`
	Agent     string    `json:"agent"`
	Action    string    `json:"action"`
	Location  string    `json:"location,omitempty"`
	Secret    bool      `json:"secret,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Statement is a fact or lie attributed to the character who would say it
type Statement struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

// Event is one digest entry built from a conversation or activity
type Event struct {
	ID             string      `json:"id"`
	Timestamp      time.Time   `json:"timestamp"`
	Type           EventType   `json:"type"`
	Description    string      `json:"description"`
	InvolvedAgents []string    `json:"involved_agents"`
	Facts          []Statement `json:"facts"`
	PossibleLies   []Statement `json:"possible_lies"`
}

// DailyDigest is everything that happened since the player's last visit,
// paired with the day's puzzle
type DailyDigest struct {
	Date    string         `json:"date"`
	Events  []Event        `json:"events"`
	Summary string         `json:"summary"`
	Puzzle  *puzzle.Puzzle `json:"puzzle"`
}

var _ puzzle.Source = (*DailyDigest)(nil)

// Truths returns every fact across the digest's events in event order
func (d *DailyDigest) Truths() []puzzle.Evidence {
	var out []puzzle.Evidence
	for _, ev := range d.Events {
		for _, s := range ev.Facts {
			out = append(out, puzzle.Evidence{Speaker: s.Agent, Statement: s.Text})
		}
	}
	return out
}

// Lies returns every possible lie across the digest's events in event order
func (d *DailyDigest) Lies() []puzzle.Evidence {
	var out []puzzle.Evidence
	for _, ev := range d.Events {
		for _, s := range ev.PossibleLies {
			out = append(out, puzzle.Evidence{Speaker: s.Agent, Statement: s.Text})
		}
	}
	return out
}

// EventIDs returns the ids of the digest's events
func (d *DailyDigest) EventIDs() []string {
	ids := make([]string, 0, len(d.Events))
	for _, ev := range d.Events {
		ids = append(ids, ev.ID)
	}
	return ids
}

// Agents returns every involved character once, in order of first appearance
func (d *DailyDigest) Agents() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range d.Events {
		for _, a := range ev.InvolvedAgents {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// Redacted returns a copy for the player: events keep their descriptions but
// lose the statements the puzzle was built from, and the puzzle is redacted
func (d *DailyDigest) Redacted() *DailyDigest {
	if d == nil {
		return nil
	}
	cp := &DailyDigest{
		Date:    d.Date,
		Summary: d.Summary,
		Events:  make([]Event, len(d.Events)),
		Puzzle:  d.Puzzle.Redacted(),
	}
	for i, ev := range d.Events {
		ev.InvolvedAgents = append([]string(nil), ev.InvolvedAgents...)
		ev.Facts = []Statement{}
		ev.PossibleLies = []Statement{}
		cp.Events[i] = ev
	}
	return cp
}
