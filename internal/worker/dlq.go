package worker

// dlq.go: dead letter queue.
// Jobs that run out of attempts, or whose payload can never be processed,
// land in one Redis list per source queue (dlq:<queue>) to be inspected and
// re-queued by hand.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces the dead letter list of each queue: dlq:<queue>.
const DLQPrefix = "dlq:"

// DLQEntry is what ends up in the dead letter list for manual inspection.
type DLQEntry struct {
	Queue    string          `json:"queue"`    // list the job was popped from
	JobType  string          `json:"job_type"` // "desconocido" when the envelope did not decode
	Payload  json.RawMessage `json:"payload"`  // original payload, untouched
	Reason   string          `json:"reason"`   // last error
	Attempts int             `json:"attempts"` // 0 when no handler ran
	FailedAt time.Time       `json:"failed_at"`
}

// SendToDLQ parks a job that exhausted its attempts. Errors are logged, never
// returned: the worker has nothing left to do with the job either way.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	data, err := json.Marshal(DLQEntry{
		Queue:    queue,
		JobType:  jobType,
		Payload:  payload,
		Reason:   reason,
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal failed")
		return
	}

	key := DLQPrefix + queue
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength is reported by the health endpoint.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
