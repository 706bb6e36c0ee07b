package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnova/mocktest-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	FinalizeBatchSize    = 50
	FinalizeBatchTimeout = 2 * time.Second
	FinalizePollTimeout  = 1 * time.Second
)

// FinalizeWorker consumes finalize_results_queue and closes expired
// attempts in batches. The clock stream enqueues a payload when an
// attempt's time runs out; the batch update only touches rows where
// finished_at is still NULL, so racing a manual submit is harmless.
type FinalizeWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewFinalizeWorker creates a new FinalizeWorker.
func NewFinalizeWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *FinalizeWorker {
	return &FinalizeWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "finalize_worker").Logger(),
	}
}

type finalizePayload struct {
	CandidateID string `json:"candidate_id"`
	TestID      string `json:"test_id"`
	ExpiredAt   int64  `json:"expired_at"`
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *FinalizeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("FinalizeWorker started")

	batch := make([]*finalizePayload, 0, FinalizeBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= FinalizeBatchSize || time.Since(lastFlush) >= FinalizeBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			return

		default:
			item, err := w.rdb.BLPop(ctx, FinalizePollTimeout, config.WorkerKey.FinalizeResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p finalizePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *FinalizeWorker) flushSafe(ctx context.Context, batch []*finalizePayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkFinalize(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk finalize failed, using fallback")

		for _, p := range batch {
			if err := w.finalizeSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("finalizeSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.FinalizeResultsQueue, raw)
			}
		}
		return
	}

	// Closed attempts no longer need their cached start times.
	w.bulkClearStartKeys(ctx, batch)
}

// bulkFinalize closes every attempt in the batch with one UNNEST update.
func (w *FinalizeWorker) bulkFinalize(ctx context.Context, batch []*finalizePayload) error {
	n := len(batch)

	candidateIDs := make([]uuid.UUID, 0, n)
	testIDs := make([]uuid.UUID, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		cID, err := uuid.Parse(p.CandidateID)
		if err != nil {
			return err
		}
		tID, err := uuid.Parse(p.TestID)
		if err != nil {
			return err
		}
		candidateIDs = append(candidateIDs, cID)
		testIDs = append(testIDs, tID)
		finishedAts = append(finishedAts, time.Unix(p.ExpiredAt, 0))
	}

	query := `
		UPDATE results AS r
		SET finished_at = t.finished_at
		FROM (
			SELECT
				u.candidate_id,
				u.test_id,
				u.finished_at
			FROM UNNEST(
				$1::uuid[],
				$2::uuid[],
				$3::timestamptz[]
			) AS u (candidate_id, test_id, finished_at)
		) AS t
		WHERE r.candidate_id = t.candidate_id
		  AND r.test_id = t.test_id
		  AND r.finished_at IS NULL
	`

	_, err := w.pool.Exec(ctx, query, candidateIDs, testIDs, finishedAts)
	return err
}

func (w *FinalizeWorker) bulkClearStartKeys(ctx context.Context, batch []*finalizePayload) {
	pipe := w.rdb.Pipeline()

	for _, p := range batch {
		key := config.CacheKey.AttemptStartKey(p.TestID, p.CandidateID)
		pipe.Del(ctx, key)
	}

	_, _ = pipe.Exec(ctx)
}

// finalizeSingle is the fallback when the bulk update fails.
func (w *FinalizeWorker) finalizeSingle(ctx context.Context, p *finalizePayload) error {
	cID, err := uuid.Parse(p.CandidateID)
	if err != nil {
		return err
	}
	tID, err := uuid.Parse(p.TestID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE results
		 SET finished_at = $1
		 WHERE candidate_id = $2 AND test_id = $3 AND finished_at IS NULL`,
		time.Unix(p.ExpiredAt, 0), cID, tID,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *FinalizeWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.FinalizeResultsQueue).Result()
		if err != nil {
			break
		}

		var payload finalizePayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.finalizeSingle(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain finalize error")
			w.rdb.RPush(ctx, config.WorkerKey.FinalizeResultsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
