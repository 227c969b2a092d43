package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/liedetector"
	"github.com/jwebster45206/mystery-engine/pkg/queue"
	"github.com/jwebster45206/mystery-engine/pkg/state"
)

// ErrInvestigationClosed is returned for requests against a solved or
// abandoned investigation
var ErrInvestigationClosed = errors.New("investigation is closed")

// Outcome describes what applying a request changed
type Outcome struct {
	Contradictions []facts.Contradiction
	Alert          *liedetector.Alert
	TokensUsed     int
}

// Processor applies queued narrative requests to case state.
// It is used by the worker and by the API when a request is handled inline.
type Processor struct {
	llm    liedetector.Generator
	logger *slog.Logger
}

// NewProcessor creates a processor. A nil llm turns lie detection off.
func NewProcessor(llm liedetector.Generator, logger *slog.Logger) *Processor {
	return &Processor{
		llm:    llm,
		logger: logger,
	}
}

// Apply records req in cs. Claims go on the fact ledger and, when they come
// from an NPC and lie detection is on, are checked by the lie detector.
func (p *Processor) Apply(ctx context.Context, cs *state.CaseState, req *queue.Request) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if !cs.Active() {
		return nil, ErrInvestigationClosed
	}

	out := &Outcome{}
	switch req.Type {
	case queue.RequestTypeConversation:
		gen := cs.Digests()
		gen.RecordConversation(*req.Conversation)
		cs.Capture(nil, gen)

	case queue.RequestTypeActivity:
		gen := cs.Digests()
		gen.RecordActivity(*req.Activity)
		cs.Capture(nil, gen)

	case queue.RequestTypeKnowledge:
		gen := cs.Digests()
		gen.RegisterNPC(*req.Knowledge)
		cs.Capture(nil, gen)

	case queue.RequestTypeClaim:
		ledger := cs.Ledger()
		c := req.Claim
		added := ledger.AddFact(c.Subject, c.Claim, c.Source)
		out.Contradictions = added.Contradictions

		if p.llm != nil && c.Source.Type == facts.SourceNPC {
			detector := liedetector.NewDetector(ledger, p.llm,
				liedetector.WithLogger(p.logger),
				liedetector.WithContentRating(cs.ContentRating))
			result := detector.CheckClaim(ctx, c.Source.Name, c.Claim, c.Subject)
			out.Alert = result.Alert
			out.TokensUsed = result.TokensUsed
		}
		cs.Capture(ledger, nil)

		p.logger.Debug("Claim recorded",
			"investigation_id", cs.ID.String(),
			"fact_id", added.Fact.ID,
			"contradictions", len(out.Contradictions),
			"lie_suspected", out.Alert != nil)
	}
	return out, nil
}
