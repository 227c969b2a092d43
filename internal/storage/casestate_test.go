package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
	"github.com/jwebster45206/mystery-engine/pkg/state"
)

func setupTestStorage(t *testing.T, dataDir string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewRedisStorageWithClient(client, dataDir, time.Hour, logger)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func testCaseState() *state.CaseState {
	cf := &casefile.CaseFile{
		ID:       "harbour",
		Name:     "The Harbour Lantern",
		FileName: "harbour.yaml",
		NPCs: []digest.NPCKnowledge{
			{Agent: "kira", Facts: []string{"The lamp was lit."}, Lies: []string{"I was home."}},
		},
	}
	return state.NewCaseState(cf, puzzle.DefaultScoringRules(), 2)
}

func TestRedisStorage_SaveAndLoadCaseState(t *testing.T) {
	s, mr := setupTestStorage(t, t.TempDir())
	ctx := context.Background()

	cs := testCaseState()
	if err := s.SaveCaseState(ctx, cs.ID, cs); err != nil {
		t.Fatalf("Failed to save case state: %v", err)
	}

	if !mr.Exists("case:" + cs.ID.String()) {
		t.Fatal("Expected case key to exist in redis")
	}
	if ttl := mr.TTL("case:" + cs.ID.String()); ttl != time.Hour {
		t.Errorf("Expected TTL of 1h, got %v", ttl)
	}

	loaded, err := s.LoadCaseState(ctx, cs.ID)
	if err != nil {
		t.Fatalf("Failed to load case state: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil case state")
	}
	if loaded.ID != cs.ID {
		t.Errorf("Expected ID %v, got %v", cs.ID, loaded.ID)
	}
	if loaded.CaseName != "The Harbour Lantern" {
		t.Errorf("Expected case name 'The Harbour Lantern', got %q", loaded.CaseName)
	}
	if loaded.Progress == nil || loaded.Progress.Status != puzzle.CaseActive {
		t.Errorf("Expected active progress, got %+v", loaded.Progress)
	}
	if _, ok := loaded.Digests().Knowledge("kira"); !ok {
		t.Error("Expected kira's knowledge to survive the round trip")
	}
}

func TestRedisStorage_LoadMissingCaseState(t *testing.T) {
	s, _ := setupTestStorage(t, t.TempDir())

	loaded, err := s.LoadCaseState(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for missing case state, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing case state")
	}
}

func TestRedisStorage_LoadCorruptCaseState(t *testing.T) {
	s, mr := setupTestStorage(t, t.TempDir())
	id := uuid.New()
	if err := mr.Set("case:"+id.String(), "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadCaseState(context.Background(), id); err == nil {
		t.Error("Expected error for corrupt case state")
	}
}

func TestRedisStorage_DeleteCaseState(t *testing.T) {
	s, _ := setupTestStorage(t, t.TempDir())
	ctx := context.Background()

	cs := testCaseState()
	if err := s.SaveCaseState(ctx, cs.ID, cs); err != nil {
		t.Fatalf("Failed to save case state: %v", err)
	}
	if err := s.DeleteCaseState(ctx, cs.ID); err != nil {
		t.Fatalf("Failed to delete case state: %v", err)
	}

	loaded, err := s.LoadCaseState(ctx, cs.ID)
	if err != nil || loaded != nil {
		t.Errorf("Expected case state to be gone, got %v, %v", loaded, err)
	}
}

func TestRedisStorage_Locks(t *testing.T) {
	s, mr := setupTestStorage(t, t.TempDir())
	ctx := context.Background()
	id := uuid.New()

	ok, err := s.AcquireLock(ctx, id, "worker-a", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("Expected worker-a to acquire the lock, got %v, %v", ok, err)
	}

	ok, err = s.AcquireLock(ctx, id, "worker-b", 30*time.Second)
	if err != nil || ok {
		t.Fatalf("Expected worker-b to be refused, got %v, %v", ok, err)
	}

	// A release by a non-owner leaves the lock in place
	if err := s.ReleaseLock(ctx, id, "worker-b"); err != nil {
		t.Fatalf("Unexpected release error: %v", err)
	}
	if got, _ := mr.Get("case-lock:" + id.String()); got != "worker-a" {
		t.Errorf("Expected lock to still belong to worker-a, got %q", got)
	}

	if err := s.ReleaseLock(ctx, id, "worker-a"); err != nil {
		t.Fatalf("Unexpected release error: %v", err)
	}
	ok, err = s.AcquireLock(ctx, id, "worker-b", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("Expected worker-b to acquire the released lock, got %v, %v", ok, err)
	}
}

func TestRedisStorage_LockExpires(t *testing.T) {
	s, mr := setupTestStorage(t, t.TempDir())
	ctx := context.Background()
	id := uuid.New()

	if ok, _ := s.AcquireLock(ctx, id, "worker-a", time.Second); !ok {
		t.Fatal("Expected to acquire lock")
	}
	mr.FastForward(2 * time.Second)

	if ok, _ := s.AcquireLock(ctx, id, "worker-b", time.Second); !ok {
		t.Error("Expected expired lock to be free")
	}
}

func TestRedisStorage_ExtendLock(t *testing.T) {
	s, mr := setupTestStorage(t, t.TempDir())
	ctx := context.Background()
	id := uuid.New()

	if ok, _ := s.AcquireLock(ctx, id, "worker-a", 2*time.Second); !ok {
		t.Fatal("Expected to acquire lock")
	}
	mr.FastForward(time.Second)

	ok, err := s.ExtendLock(ctx, id, "worker-a", 30*time.Second)
	if err != nil || !ok {
		t.Fatalf("Expected owner to extend the lock, got %v, %v", ok, err)
	}
	if ttl := mr.TTL("case-lock:" + id.String()); ttl != 30*time.Second {
		t.Errorf("Expected TTL of 30s after extend, got %v", ttl)
	}

	ok, err = s.ExtendLock(ctx, id, "worker-b", 30*time.Second)
	if err != nil || ok {
		t.Fatalf("Expected non-owner extend to be refused, got %v, %v", ok, err)
	}

	// Once the lock has lapsed and someone else took it, the old owner cannot revive it
	mr.FastForward(31 * time.Second)
	if ok, _ := s.AcquireLock(ctx, id, "api-x", 30*time.Second); !ok {
		t.Fatal("Expected api-x to take the expired lock")
	}
	ok, err = s.ExtendLock(ctx, id, "worker-a", 30*time.Second)
	if err != nil || ok {
		t.Fatalf("Expected stale owner extend to be refused, got %v, %v", ok, err)
	}
	if got, _ := mr.Get("case-lock:" + id.String()); got != "api-x" {
		t.Errorf("Expected lock to belong to api-x, got %q", got)
	}
}

func TestRedisStorage_Ping(t *testing.T) {
	s, mr := setupTestStorage(t, t.TempDir())
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Expected ping to succeed: %v", err)
	}

	mr.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail once redis is gone")
	}
}
