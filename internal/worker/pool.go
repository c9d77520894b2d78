package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tiendapos/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email" // Redis list consumed by the pool

	JobEmail = "email" // Job.Type routed to the email handler

	maxJobAttempts = 3 // per job, before it is sent to the DLQ
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists. The worker pool dequeues
// them via BRPOP.
type Dispatcher struct {
	rdb      *redis.Client
	notifyTo string
}

// NewDispatcher builds the producer side. notifyTo is the address that
// receives recaudacion notices; empty disables them.
func NewDispatcher(rdb *redis.Client, notifyTo string) *Dispatcher {
	return &Dispatcher{rdb: rdb, notifyTo: notifyTo}
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

// NotificarRecaudacion queues the notice for a committed pickup. It runs after
// the transaction, so failures are only logged.
func (d *Dispatcher) NotificarRecaudacion(rec dto.RecaudacionResponse) {
	if d.notifyTo == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := d.EnqueueEmail(ctx, RecaudacionEmail(d.notifyTo, rec)); err != nil {
		log.Error().Err(err).Uint("recaudacion_id", rec.ID).Msg("dispatcher: no se pudo encolar la notificacion")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// JobHandler processes one payload. A returned error is retried and the job
// goes to the DLQ once attempts run out.
type JobHandler func(ctx context.Context, payload json.RawMessage) error

// WorkerHandlers maps job types to their handler.
type WorkerHandlers map[string]JobHandler

// ErrPayloadInvalido marks a job that will never succeed; it skips retries.
var ErrPayloadInvalido = errors.New("payload invalido")

// StartWorkerPool launches numWorkers goroutines consuming the queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers WorkerHandlers) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handlers WorkerHandlers) {
	queues := []string{QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			queue, raw := result[0], result[1]
			job, attempts, err := processJob(ctx, handlers, raw)
			if err != nil {
				SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), attempts)
			}
		}
	}
}

// processJob decodes and runs one job, returning the decoded envelope, the
// attempts used and the final error.
func processJob(ctx context.Context, handlers WorkerHandlers, raw string) (Job, int, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{Type: "desconocido", Payload: json.RawMessage(raw)}, 0, fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	}
	handler, ok := handlers[job.Type]
	if !ok {
		return job, 0, fmt.Errorf("sin handler para el tipo %q", job.Type)
	}

	attempts := 0
	err := withRetry(ctx, maxJobAttempts, func(int) error {
		attempts++
		err := handler(ctx, job.Payload)
		if errors.Is(err, ErrPayloadInvalido) {
			return retryStop{err}
		}
		return err
	})
	var stop retryStop
	if errors.As(err, &stop) {
		err = stop.err
	}
	if err != nil {
		log.Error().Err(err).Str("type", job.Type).Int("attempts", attempts).Msg("job failed")
		return job, attempts, err
	}
	log.Debug().Str("type", job.Type).Msg("job processed")
	return job, attempts, nil
}

// retryStop aborts withRetry early.
type retryStop struct{ err error }

func (r retryStop) Error() string { return r.err.Error() }

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, 1s, 2s, ...). A retryStop error ends the loop at once.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		var stop retryStop
		if errors.As(err, &stop) {
			return err
		}
	}
	return lastErr
}
