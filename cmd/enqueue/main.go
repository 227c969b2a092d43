package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/internal/services/queue"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	queuemodels "github.com/jwebster45206/mystery-engine/pkg/queue"
)

func main() {
	redisURL := flag.String("redis", envOr("REDIS_URL", "redis://localhost:6379"), "Redis URL")
	investigation := flag.String("investigation", "", "investigation ID to feed (required)")
	day := flag.Int("day", 2, "in-game day for the sample claim")
	flag.Parse()

	id, err := uuid.Parse(*investigation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s -investigation <uuid> [-redis url] [-day n]\n", os.Args[0])
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := queue.NewClient(ctx, *redisURL, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer client.Close()
	q := queue.NewActivityQueue(client)

	for _, req := range sampleRequests(id, *day) {
		if err := req.Validate(); err != nil {
			log.Fatalf("Invalid sample %s request: %v", req.Type, err)
		}
		if err := q.Enqueue(ctx, req); err != nil {
			log.Fatal("Failed to enqueue request: ", err)
		}
		fmt.Printf("Enqueued %s request: %s\n", req.Type, req.RequestID)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth: ", err)
	}
	fmt.Printf("\nQueue depth: %d requests\n", depth)
	fmt.Println("Start the worker to process them: go run ./cmd/worker")
}

// sampleRequests is a night at the harbour: a conversation, a secret errand
// and a claim that disagrees with kira's alibi
func sampleRequests(id uuid.UUID, day int) []*queuemodels.Request {
	conversation := queuemodels.NewRequest(id, queuemodels.RequestTypeConversation)
	conversation.Conversation = &digest.Conversation{
		Participants: []string{"kira", "thom"},
		Topic:        "the late ferry",
		Location:     "the quay",
		Messages: []digest.Message{
			{Speaker: "kira", Content: "You were late again."},
			{Speaker: "thom", Content: "The fog was thick past the point."},
		},
	}

	errand := queuemodels.NewRequest(id, queuemodels.RequestTypeActivity)
	errand.Activity = &digest.Activity{
		Agent:    "mara",
		Action:   "carried a coil of rope up to the lighthouse",
		Location: "the lighthouse path",
		Secret:   true,
	}

	claim := queuemodels.NewRequest(id, queuemodels.RequestTypeClaim)
	claim.Claim = &queuemodels.Claim{
		Subject: "kira",
		Claim:   "was seen at the docks after midnight",
		Source:  facts.Source{Type: facts.SourceNPC, Name: "thom", Day: day, Context: "the quay"},
	}

	return []*queuemodels.Request{conversation, errand, claim}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
