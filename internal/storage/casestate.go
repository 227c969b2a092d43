package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/mystery-engine/pkg/state"
)

// CaseState operations (Redis-backed)

func caseStateKey(id uuid.UUID) string {
	return caseStatePrefix + id.String()
}

func (r *RedisStorage) SaveCaseState(ctx context.Context, id uuid.UUID, cs *state.CaseState) error {
	cs.UpdatedAt = time.Now()

	data, err := json.Marshal(cs)
	if err != nil {
		r.logger.Error("Failed to marshal case state", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal case state: %w", err)
	}

	if err := r.client.Set(ctx, caseStateKey(id), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save case state", "uuid", id, "error", err)
		return fmt.Errorf("failed to save case state: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadCaseState(ctx context.Context, id uuid.UUID) (*state.CaseState, error) {
	data, err := r.client.Get(ctx, caseStateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Case state not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load case state", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load case state: %w", err)
	}

	var cs state.CaseState
	if err := json.Unmarshal(data, &cs); err != nil {
		r.logger.Error("Failed to unmarshal case state", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal case state: %w", err)
	}
	return &cs, nil
}

func (r *RedisStorage) DeleteCaseState(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, caseStateKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete case state", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete case state: %w", err)
	}
	return nil
}
