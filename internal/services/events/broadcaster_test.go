package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

func TestBroadcaster_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	id := uuid.New()
	sub := client.Subscribe(ctx, Channel(id))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	b := NewBroadcaster(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c := facts.Contradiction{
		FactA:       &facts.Fact{ID: "fact_a", Subject: "kira"},
		FactB:       &facts.Fact{ID: "fact_b", Subject: "kira"},
		Description: "they disagree",
	}
	require.NoError(t, b.PublishContradiction(ctx, id, "req-1", c))

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, EventTypeContradiction, event.Type)
		assert.Equal(t, "req-1", event.RequestID)
		assert.Equal(t, id.String(), event.InvestigationID)
		assert.Equal(t, "fact_b", event.Data["fact_b"])
		assert.Equal(t, "kira", event.Data["subject"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcaster_Nil(t *testing.T) {
	var b *Broadcaster
	ctx := context.Background()
	id := uuid.New()

	assert.NoError(t, b.PublishActivityRecorded(ctx, id, "req", "activity"))
	assert.NoError(t, b.PublishCaseSolved(ctx, id, &puzzle.CaseProgress{CaseName: "x"}))
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2c6e-5a7d-4c55-9d1e-0c0b7d1e2f3a")
	assert.Equal(t, "investigation-events:6f1c2c6e-5a7d-4c55-9d1e-0c0b7d1e2f3a", Channel(id))
}
