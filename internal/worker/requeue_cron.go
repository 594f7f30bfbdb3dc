package worker

// requeue_cron.go
// Background goroutine that periodically drains the dead letter queues
// and puts salvageable jobs back on their original queue. Entries that
// have already burned through the requeue budget are parked instead of
// cycling forever. Uses the SMTP circuit breaker to avoid requeueing
// email jobs while the mail server is down.

import (
	"context"
	"encoding/json"
	"time"

	"retailpos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	requeueTickInterval = time.Minute
	requeueBatchSize    = 10

	// maxTotalAttempts is the overall attempt budget across requeues.
	// With MaxJobAttempts=3 per dequeue this allows two trips through
	// the DLQ before parking.
	maxTotalAttempts = 3 * MaxJobAttempts
)

// RequeueCronConfig holds the dependencies for the requeue goroutine.
type RequeueCronConfig struct {
	RDB         *redis.Client
	SMTPBreaker *infra.CircuitBreaker
}

// StartRequeueCron launches a background goroutine that ticks every
// minute and re-enqueues failed jobs from the DLQs.
// It respects the context for graceful shutdown.
func StartRequeueCron(ctx context.Context, cfg RequeueCronConfig) {
	go func() {
		ticker := time.NewTicker(requeueTickInterval)
		defer ticker.Stop()

		log.Info().Msg("requeue_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("requeue_cron: shutting down")
				return
			case <-ticker.C:
				processRequeues(ctx, cfg)
			}
		}
	}()
}

func processRequeues(ctx context.Context, cfg RequeueCronConfig) {
	for _, queue := range []string{QueueReceipt, QueueEmail} {
		// Don't requeue email jobs into a tripped mail server
		if queue == QueueEmail && cfg.SMTPBreaker != nil && cfg.SMTPBreaker.State() == infra.CBOpen {
			log.Debug().Msg("requeue_cron: SMTP circuit breaker is open, skipping email DLQ")
			continue
		}
		drainDLQ(ctx, cfg.RDB, queue)
	}
}

func drainDLQ(ctx context.Context, rdb *redis.Client, queue string) {
	dlqKey := DLQPrefix + queue
	for i := 0; i < requeueBatchSize; i++ {
		raw, err := rdb.RPop(ctx, dlqKey).Result()
		if err != nil {
			return // empty or redis unavailable
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("dlq_key", dlqKey).Msg("requeue_cron: corrupt DLQ entry, parking")
			_ = rdb.LPush(ctx, ParkedPrefix+queue, raw).Err()
			continue
		}

		if entry.Attempts >= maxTotalAttempts {
			log.Warn().
				Str("queue", queue).
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("requeue_cron: attempt budget exhausted, parking entry")
			_ = rdb.LPush(ctx, ParkedPrefix+queue, raw).Err()
			continue
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts}
		encoded, err := json.Marshal(job)
		if err != nil {
			log.Error().Err(err).Msg("requeue_cron: failed to marshal job")
			continue
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("requeue_cron: failed to requeue job")
			// Put the entry back so it isn't lost
			_ = rdb.LPush(ctx, dlqKey, raw).Err()
			return
		}

		log.Info().
			Str("queue", queue).
			Str("job_type", entry.JobType).
			Int("attempts", entry.Attempts).
			Msg("requeue_cron: job requeued from DLQ")
	}
}
