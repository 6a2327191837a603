package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kerem-gursoy/uup/internal/metrics"
)

const (
	QueueThumbnails = "jobs:thumbnails"

	JobInvoiceThumbnail = "invoice_thumbnail"

	defaultMaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes the payload of one job type. A returned error is
// retried and finally dead-lettered.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueThumbnail schedules thumbnail rendering for an uploaded invoice.
func (d *Dispatcher) EnqueueThumbnail(ctx context.Context, invoiceID uint) error {
	return d.enqueue(ctx, QueueThumbnails, JobInvoiceThumbnail, ThumbnailPayload{InvoiceID: invoiceID})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
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

// Pool consumes job queues with a fixed number of goroutines.
type Pool struct {
	rdb         *redis.Client
	handlers    map[string]JobHandler
	queues      []string
	maxAttempts int
	backoff     func(attempt int) time.Duration
	wg          sync.WaitGroup
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{
		rdb:         rdb,
		handlers:    make(map[string]JobHandler),
		maxAttempts: defaultMaxAttempts,
		backoff:     exponentialBackoff,
	}
}

// Handle registers h for jobType on queue. Must be called before Start.
func (p *Pool) Handle(queue, jobType string, h JobHandler) {
	p.handlers[jobType] = h
	for _, q := range p.queues {
		if q == queue {
			return
		}
	}
	p.queues = append(p.queues, queue)
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle workers
// cost nothing. Workers stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if len(p.queues) == 0 {
		log.Warn().Msg("worker pool started without handlers")
		return
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}

		// Blocking pop, waits up to 5s then loops to check ctx
		result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("dequeue failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.processJob(ctx, result[0], result[1])
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(fmt.Sprintf("%q", raw)), "malformed job", 0)
		metrics.JobsProcessed.WithLabelValues("unknown", "malformed").Inc()
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", 0)
		metrics.JobsProcessed.WithLabelValues(job.Type, "unhandled").Inc()
		return
	}

	attempts := 0
	err := withRetry(ctx, p.maxAttempts, p.backoff, func(attempt int) error {
		attempts = attempt + 1
		err := h.Process(ctx, job.Payload)
		var perm *PermanentError
		if err != nil && !errors.As(err, &perm) && attempt+1 < p.maxAttempts {
			log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempt+1).Msg("job failed, retrying")
		}
		return err
	})
	if err != nil {
		var perm *PermanentError
		if errors.As(err, &perm) {
			log.Info().Err(err).Str("type", job.Type).Msg("job skipped")
			metrics.JobsProcessed.WithLabelValues(job.Type, "skipped").Inc()
			return
		}
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), attempts)
		metrics.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
		return
	}
	metrics.JobsProcessed.WithLabelValues(job.Type, "ok").Inc()
}

// PermanentError marks a job that must not be retried nor dead-lettered.
type PermanentError struct{ Reason string }

func (e *PermanentError) Error() string { return e.Reason }

// Skip returns a PermanentError.
func Skip(format string, args ...any) error {
	return &PermanentError{Reason: fmt.Sprintf(format, args...)}
}

// exponentialBackoff waits 1s, 2s, 4s ... before the second, third ... attempt.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// withRetry calls fn up to maxAttempts times, waiting backoff(i) before
// attempt i (i >= 1). A PermanentError stops immediately.
func withRetry(ctx context.Context, maxAttempts int, backoff func(int) time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(i)):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		var perm *PermanentError
		if errors.As(err, &perm) {
			return err
		}
	}
	return lastErr
}
