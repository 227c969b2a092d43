package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/mystery-engine/internal/services/events"
	"github.com/jwebster45206/mystery-engine/pkg/queue"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

const (
	defaultPollTimeout = 5 * time.Second
	defaultLockTTL     = 30 * time.Second
	// Model calls must finish well inside the lock so the save happens while it is held
	defaultApplyTimeout = 20 * time.Second
	errorBackoff        = 1 * time.Second
)

// Queue is the part of the activity queue a worker consumes
type Queue interface {
	Enqueue(ctx context.Context, req *queue.Request) error
	BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error)
}

// Worker drains the activity queue into stored case state
type Worker struct {
	id          string
	queue       Queue
	storage     storage.Storage
	processor   *Processor
	broadcaster *events.Broadcaster
	log         *slog.Logger

	pollTimeout  time.Duration
	lockTTL      time.Duration
	applyTimeout time.Duration
}

// New creates a new worker instance. An empty workerID gets a generated one.
func New(q Queue, store storage.Storage, processor *Processor, broadcaster *events.Broadcaster, log *slog.Logger, workerID string) *Worker {
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	return &Worker{
		id:           workerID,
		queue:        q,
		storage:      store,
		processor:    processor,
		broadcaster:  broadcaster,
		log:          log,
		pollTimeout:  defaultPollTimeout,
		lockTTL:      defaultLockTTL,
		applyTimeout: defaultApplyTimeout,
	}
}

// ID returns the worker's lock owner id
func (w *Worker) ID() string {
	return w.id
}

// Run processes requests until ctx is done
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Worker starting", "worker_id", w.id)
	for {
		if ctx.Err() != nil {
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		}
		if _, err := w.ProcessNext(ctx); err != nil {
			w.log.Error("Error processing request", "error", err, "worker_id", w.id)
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

// ProcessNext waits for one request and handles it. It reports whether a
// request was taken off the queue.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	req, err := w.queue.BlockingDequeue(ctx, w.pollTimeout)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		return false, nil
	}

	log := w.log.With(
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"investigation_id", req.InvestigationID.String())

	locked, err := w.storage.AcquireLock(ctx, req.InvestigationID, w.id, w.lockTTL)
	if err != nil {
		w.requeue(ctx, req, log)
		return true, fmt.Errorf("failed to acquire investigation lock: %w", err)
	}
	if !locked {
		// Another worker holds this investigation; send the request to the back
		log.Debug("Investigation locked, re-queueing request")
		w.requeue(ctx, req, log)
		return true, nil
	}
	defer func() {
		if err := w.storage.ReleaseLock(context.WithoutCancel(ctx), req.InvestigationID, w.id); err != nil {
			log.Error("Failed to release investigation lock", "error", err)
		}
	}()

	return true, w.process(ctx, req, log)
}

func (w *Worker) requeue(ctx context.Context, req *queue.Request, log *slog.Logger) {
	if err := w.queue.Enqueue(context.WithoutCancel(ctx), req); err != nil {
		log.Error("Failed to re-queue request", "error", err)
	}
}

func (w *Worker) process(ctx context.Context, req *queue.Request, log *slog.Logger) error {
	start := time.Now()

	cs, err := w.storage.LoadCaseState(ctx, req.InvestigationID)
	if err != nil {
		return fmt.Errorf("failed to load case state: %w", err)
	}
	if cs == nil {
		log.Warn("Dropping request for unknown investigation")
		return nil
	}

	applyCtx, cancel := context.WithTimeout(ctx, w.applyTimeout)
	out, err := w.processor.Apply(applyCtx, cs, req)
	cancel()
	if errors.Is(err, ErrInvestigationClosed) {
		log.Info("Dropping request for closed investigation")
		return nil
	}
	if err != nil {
		// Malformed requests can never succeed, so they are dropped
		log.Warn("Dropping request", "error", err)
		return nil
	}

	// The lock may have lapsed during a slow apply and been taken by someone
	// else. Saving now would overwrite their write, so retry from fresh state.
	held, err := w.storage.ExtendLock(ctx, req.InvestigationID, w.id, w.lockTTL)
	if err != nil {
		w.requeue(ctx, req, log)
		return fmt.Errorf("failed to extend investigation lock: %w", err)
	}
	if !held {
		log.Warn("Investigation lock lost before save, re-queueing request",
			"duration_ms", time.Since(start).Milliseconds())
		w.requeue(ctx, req, log)
		return nil
	}

	if err := w.storage.SaveCaseState(ctx, cs.ID, cs); err != nil {
		return fmt.Errorf("failed to save case state: %w", err)
	}

	w.publish(ctx, req, out, log)
	log.Info("Request processed",
		"duration_ms", time.Since(start).Milliseconds(),
		"contradictions", len(out.Contradictions),
		"tokens_used", out.TokensUsed)
	return nil
}

// publish broadcasts what changed. Failures are logged and never fail the request.
func (w *Worker) publish(ctx context.Context, req *queue.Request, out *Outcome, log *slog.Logger) {
	id := req.InvestigationID
	if err := w.broadcaster.PublishActivityRecorded(ctx, id, req.RequestID, string(req.Type)); err != nil {
		log.Error("Failed to publish activity event", "error", err)
	}
	for _, c := range out.Contradictions {
		if err := w.broadcaster.PublishContradiction(ctx, id, req.RequestID, c); err != nil {
			log.Error("Failed to publish contradiction event", "error", err)
		}
	}
	if out.Alert != nil {
		if err := w.broadcaster.PublishLieSuspected(ctx, id, req.RequestID, out.Alert); err != nil {
			log.Error("Failed to publish lie event", "error", err)
		}
	}
}

// RunPool runs every worker until ctx is done or one of them fails
func RunPool(ctx context.Context, workers ...*Worker) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	return g.Wait()
}
