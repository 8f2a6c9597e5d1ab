package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const retryDelay = 5 * time.Second

// DraftWriter persists one autosaved answer.
type DraftWriter interface {
	Upsert(ctx context.Context, scheduleID uuid.UUID, userID, position, answer int) error
}

// AutosaveWorker consumes the persist-answers queue and UPSERTs each
// autosaved answer into exam_answer_drafts, so exam state survives a Redis
// eviction.
type AutosaveWorker struct {
	drafts DraftWriter
	rdb    *redis.Client
	queue  string
	log    zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(drafts DraftWriter, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		drafts: drafts,
		rdb:    rdb,
		queue:  config.WorkerKey.AutosaveQueue,
		log:    log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the worker loop and blocks until ctx is cancelled. Call in
// a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Msg("Persist error, requeueing")
		w.rdb.RPush(context.Background(), w.queue, result[1])

		select {
		case <-ctx.Done():
		case <-time.After(retryDelay):
		}
	}
}

// handle persists one queued draft. Malformed payloads are logged and
// dropped; only storage failures are returned for requeue.
func (w *AutosaveWorker) handle(ctx context.Context, raw string) error {
	var draft model.AnswerDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		w.log.Error().Err(err).Str("payload", raw).Msg("Dropping malformed draft")
		return nil
	}
	if draft.ScheduleID == uuid.Nil || draft.UserID <= 0 || draft.Position < 0 {
		w.log.Error().Str("payload", raw).Msg("Dropping incomplete draft")
		return nil
	}

	if err := w.drafts.Upsert(ctx, draft.ScheduleID, draft.UserID, draft.Position, draft.Answer); err != nil {
		return fmt.Errorf("upsert draft %s/%d: %w", draft.ScheduleID, draft.Position, err)
	}
	return nil
}

// drain persists what is left in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}

		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, w.queue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
