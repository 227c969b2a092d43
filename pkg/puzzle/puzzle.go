package puzzle

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the puzzle format
type Type string

const (
	TypeSpotTheLie Type = "spot_the_lie"
	TypeWhoSaidIt  Type = "who_said_it"
	TypeSequence   Type = "sequence"
	TypeFillBlank  Type = "fill_blank"
)

// Status is the lifecycle state of a puzzle. Pending is the only
// non-terminal status.
type Status string

const (
	StatusPending Status = "pending"
	StatusSolved  Status = "solved"
	StatusFailed  Status = "failed"
	StatusExpired Status = "expired"
)

// Terminal reports whether the status can no longer change
func (s Status) Terminal() bool {
	return s == StatusSolved || s == StatusFailed || s == StatusExpired
}

// Content is the type-specific body of a puzzle. The set of implementations
// is closed: SpotTheLie, WhoSaidIt, Sequence and FillBlank.
type Content interface {
	Type() Type
	isContent()
}

// Statement is one line of a spot-the-lie puzzle
type Statement struct {
	Speaker   string `json:"speaker"`
	Statement string `json:"statement"`
	IsLie     bool   `json:"is_lie"`
}

// SpotTheLie presents three statements, exactly one of them false.
// The answer is the 1-based index of the false statement.
type SpotTheLie struct {
	Statements []Statement `json:"statements"`
}

// WhoSaidIt asks which character spoke a quote.
// The answer is the name of the speaker.
type WhoSaidIt struct {
	Quote   string   `json:"quote"`
	Options []string `json:"options"`
}

// Sequence asks for the order in which events happened.
// The answer is the comma separated 1-based indexes in order.
type Sequence struct {
	Events []string `json:"events"`
}

// FillBlank asks for the missing word in a statement.
type FillBlank struct {
	Template string   `json:"template"`
	Options  []string `json:"options"`
}

func (SpotTheLie) Type() Type { return TypeSpotTheLie }
func (WhoSaidIt) Type() Type  { return TypeWhoSaidIt }
func (Sequence) Type() Type   { return TypeSequence }
func (FillBlank) Type() Type  { return TypeFillBlank }

func (SpotTheLie) isContent() {}
func (WhoSaidIt) isContent()  {}
func (Sequence) isContent()   {}
func (FillBlank) isContent()  {}

// SourceContext records which digest events and characters a puzzle came from
type SourceContext struct {
	EventIDs []string `json:"event_ids"`
	Agents   []string `json:"agents"`
}

// Puzzle is a single daily deduction puzzle
type Puzzle struct {
	ID            string        `json:"id"`
	Type          Type          `json:"type"`
	GeneratedAt   time.Time     `json:"generated_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
	Difficulty    int           `json:"difficulty"`
	Content       Content       `json:"content"`
	CorrectAnswer string        `json:"correct_answer"`
	SourceContext SourceContext `json:"source_context"`
	Status        Status        `json:"status"`
	Attempts      int           `json:"attempts"`
	SolvedAt      *time.Time    `json:"solved_at,omitempty"`
	UserAnswer    string        `json:"user_answer,omitempty"`
}

// SpotTheLie returns the puzzle content when it is a spot-the-lie puzzle
func (p *Puzzle) SpotTheLie() (SpotTheLie, bool) {
	c, ok := p.Content.(SpotTheLie)
	return c, ok
}

// Clone returns a deep copy of the puzzle
func (p *Puzzle) Clone() *Puzzle {
	if p == nil {
		return nil
	}
	cp := *p
	cp.SourceContext.EventIDs = append([]string(nil), p.SourceContext.EventIDs...)
	cp.SourceContext.Agents = append([]string(nil), p.SourceContext.Agents...)
	if p.SolvedAt != nil {
		t := *p.SolvedAt
		cp.SolvedAt = &t
	}
	switch c := p.Content.(type) {
	case SpotTheLie:
		cp.Content = SpotTheLie{Statements: append([]Statement(nil), c.Statements...)}
	case WhoSaidIt:
		cp.Content = WhoSaidIt{Quote: c.Quote, Options: append([]string(nil), c.Options...)}
	case Sequence:
		cp.Content = Sequence{Events: append([]string(nil), c.Events...)}
	case FillBlank:
		cp.Content = FillBlank{Template: c.Template, Options: append([]string(nil), c.Options...)}
	}
	return &cp
}

// Redacted returns a copy that is safe to show a player. While the puzzle
// is pending the correct answer and the lie markers are removed.
func (p *Puzzle) Redacted() *Puzzle {
	cp := p.Clone()
	if cp == nil || cp.Status != StatusPending {
		return cp
	}
	cp.CorrectAnswer = ""
	if c, ok := cp.Content.(SpotTheLie); ok {
		for i := range c.Statements {
			c.Statements[i].IsLie = false
		}
	}
	return cp
}

// MarshalJSON writes the content under the puzzle's type discriminator
func (p Puzzle) MarshalJSON() ([]byte, error) {
	type Alias Puzzle
	if p.Content != nil && p.Type == "" {
		p.Type = p.Content.Type()
	}
	return json.Marshal(&struct {
		Content Content `json:"content"`
		Alias
	}{
		Content: p.Content,
		Alias:   Alias(p),
	})
}

// UnmarshalJSON decodes content into the concrete type named by "type"
func (p *Puzzle) UnmarshalJSON(data []byte) error {
	type Alias Puzzle
	aux := &struct {
		Content json.RawMessage `json:"content"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	content, err := decodeContent(p.Type, aux.Content)
	if err != nil {
		return err
	}
	p.Content = content
	return nil
}

func decodeContent(t Type, raw json.RawMessage) (Content, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch t {
	case TypeSpotTheLie:
		var c SpotTheLie
		err := json.Unmarshal(raw, &c)
		return c, err
	case TypeWhoSaidIt:
		var c WhoSaidIt
		err := json.Unmarshal(raw, &c)
		return c, err
	case TypeSequence:
		var c Sequence
		err := json.Unmarshal(raw, &c)
		return c, err
	case TypeFillBlank:
		var c FillBlank
		err := json.Unmarshal(raw, &c)
		return c, err
	default:
		return nil, fmt.Errorf("unknown puzzle type: %q", t)
	}
}
