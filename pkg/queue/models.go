package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeConversation records a conversation between NPCs
	RequestTypeConversation RequestType = "conversation"

	// RequestTypeActivity records something an NPC did alone
	RequestTypeActivity RequestType = "activity"

	// RequestTypeClaim puts an NPC's claim on the fact ledger
	RequestTypeClaim RequestType = "claim"

	// RequestTypeKnowledge registers or replaces an NPC's knowledge
	RequestTypeKnowledge RequestType = "knowledge"
)

// Claim is a statement asserted about a subject
type Claim struct {
	Subject string       `json:"subject"`
	Claim   string       `json:"claim"`
	Source  facts.Source `json:"source"`
}

// Request is one unit of narrative input for an investigation
type Request struct {
	RequestID       string      `json:"request_id"`
	Type            RequestType `json:"type"`
	InvestigationID uuid.UUID   `json:"investigation_id"`

	Conversation *digest.Conversation `json:"conversation,omitempty"`
	Activity     *digest.Activity     `json:"activity,omitempty"`
	Claim        *Claim               `json:"claim,omitempty"`
	Knowledge    *digest.NPCKnowledge `json:"knowledge,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRequest creates a request with a fresh id
func NewRequest(investigationID uuid.UUID, t RequestType) *Request {
	return &Request{
		RequestID:       uuid.NewString(),
		Type:            t,
		InvestigationID: investigationID,
		EnqueuedAt:      time.Now(),
	}
}

// Validate checks that the request carries the payload its type needs
func (r *Request) Validate() error {
	if r.InvestigationID == uuid.Nil {
		return fmt.Errorf("investigation_id is required")
	}
	switch r.Type {
	case RequestTypeConversation:
		if r.Conversation == nil || len(r.Conversation.Participants) == 0 {
			return fmt.Errorf("conversation request needs at least one participant")
		}
	case RequestTypeActivity:
		if r.Activity == nil || r.Activity.Agent == "" || r.Activity.Action == "" {
			return fmt.Errorf("activity request needs an agent and an action")
		}
	case RequestTypeClaim:
		if r.Claim == nil || r.Claim.Subject == "" || r.Claim.Claim == "" {
			return fmt.Errorf("claim request needs a subject and a claim")
		}
		if !r.Claim.Source.Type.Valid() || r.Claim.Source.Name == "" {
			return fmt.Errorf("claim request needs a valid source")
		}
	case RequestTypeKnowledge:
		if r.Knowledge == nil || r.Knowledge.Agent == "" {
			return fmt.Errorf("knowledge request needs an agent")
		}
	default:
		return fmt.Errorf("unknown request type %q", r.Type)
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
