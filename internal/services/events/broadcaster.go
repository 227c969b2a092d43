package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/liedetector"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeActivityRecorded EventType = "activity.recorded"
	EventTypeContradiction    EventType = "fact.contradiction"
	EventTypeLieSuspected     EventType = "lie.suspected"
	EventTypePuzzleGenerated  EventType = "puzzle.generated"
	EventTypePuzzleResolved   EventType = "puzzle.resolved"
	EventTypeCaseSolved       EventType = "case.solved"
)

// Event represents a generic event structure
type Event struct {
	Type            EventType      `json:"type"`
	RequestID       string         `json:"request_id,omitempty"`
	InvestigationID string         `json:"investigation_id,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// Channel is the Pub/Sub channel for an investigation's events
func Channel(investigationID uuid.UUID) string {
	return fmt.Sprintf("investigation-events:%s", investigationID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution.
// A nil Broadcaster drops every event.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishActivityRecorded publishes an activity.recorded event
func (b *Broadcaster) PublishActivityRecorded(ctx context.Context, id uuid.UUID, requestID string, requestType string) error {
	return b.publish(ctx, id, Event{
		Type:      EventTypeActivityRecorded,
		RequestID: requestID,
		Data: map[string]any{
			"type": requestType,
		},
	})
}

// PublishContradiction publishes a fact.contradiction event
func (b *Broadcaster) PublishContradiction(ctx context.Context, id uuid.UUID, requestID string, c facts.Contradiction) error {
	return b.publish(ctx, id, Event{
		Type:      EventTypeContradiction,
		RequestID: requestID,
		Data: map[string]any{
			"fact_a":      c.FactA.ID,
			"fact_b":      c.FactB.ID,
			"subject":     c.FactB.Subject,
			"description": c.Description,
		},
	})
}

// PublishLieSuspected publishes a lie.suspected event
func (b *Broadcaster) PublishLieSuspected(ctx context.Context, id uuid.UUID, requestID string, alert *liedetector.Alert) error {
	data := map[string]any{
		"npc":         alert.NPC,
		"subject":     alert.Subject,
		"severity":    alert.Severity,
		"gut_feeling": alert.GutFeeling,
	}
	if alert.Conflicting != nil {
		data["fact_id"] = alert.Conflicting.ID
	}
	return b.publish(ctx, id, Event{
		Type:      EventTypeLieSuspected,
		RequestID: requestID,
		Data:      data,
	})
}

// PublishPuzzleGenerated publishes a puzzle.generated event
func (b *Broadcaster) PublishPuzzleGenerated(ctx context.Context, id uuid.UUID, p *puzzle.Puzzle) error {
	return b.publish(ctx, id, Event{
		Type: EventTypePuzzleGenerated,
		Data: map[string]any{
			"puzzle_id":  p.ID,
			"expires_at": p.ExpiresAt,
			"difficulty": p.Difficulty,
		},
	})
}

// PublishPuzzleResolved publishes a puzzle.resolved event
func (b *Broadcaster) PublishPuzzleResolved(ctx context.Context, id uuid.UUID, p *puzzle.Puzzle, result puzzle.Result) error {
	return b.publish(ctx, id, Event{
		Type: EventTypePuzzleResolved,
		Data: map[string]any{
			"puzzle_id":     p.ID,
			"status":        p.Status,
			"points_earned": result.PointsEarned,
			"new_total":     result.NewTotal,
		},
	})
}

// PublishCaseSolved publishes a case.solved event
func (b *Broadcaster) PublishCaseSolved(ctx context.Context, id uuid.UUID, progress *puzzle.CaseProgress) error {
	return b.publish(ctx, id, Event{
		Type: EventTypeCaseSolved,
		Data: map[string]any{
			"case_name":      progress.CaseName,
			"points":         progress.ProgressPoints,
			"puzzles_solved": progress.PuzzlesSolved,
		},
	})
}

// publish sends an event to the investigation's channel
func (b *Broadcaster) publish(ctx context.Context, id uuid.UUID, event Event) error {
	if b == nil {
		return nil
	}
	event.InvestigationID = id.String()
	channel := Channel(id)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}
