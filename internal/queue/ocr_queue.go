/**
 * OCR Queue - single-writer access to the process-wide OCR engine
 *
 * Requests submit jobs on a channel; one worker goroutine owns the engine and
 * runs them in arrival order. Callers block until their own job completes.
 */

package queue

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/adverant/nexus/mathsolver/internal/logging"
	"github.com/adverant/nexus/mathsolver/internal/processor"
)

// ErrQueueStopped is returned for jobs submitted after Stop
var ErrQueueStopped = errors.New("OCR queue is stopped")

type ocrJob struct {
	ctx    context.Context
	image  *image.Gray
	result chan ocrResult
}

type ocrResult struct {
	lines []processor.OCRLine
	err   error
}

// OCRQueue serializes Recognize calls onto one goroutine
type OCRQueue struct {
	engine processor.OCREngine
	jobs   chan ocrJob
	logger *logging.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// OCRQueueConfig holds queue configuration
type OCRQueueConfig struct {
	Engine processor.OCREngine
	// Backlog is the number of jobs that may wait without blocking Submit
	Backlog int
}

// NewOCRQueue creates a queue; call Start before submitting jobs
func NewOCRQueue(cfg *OCRQueueConfig) (*OCRQueue, error) {
	if cfg == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("OCR engine is required")
	}
	if cfg.Backlog < 0 {
		return nil, fmt.Errorf("Backlog must not be negative, got %d", cfg.Backlog)
	}

	return &OCRQueue{
		engine: cfg.Engine,
		jobs:   make(chan ocrJob, cfg.Backlog),
		logger: logging.NewLogger("OCRQueue"),
		done:   make(chan struct{}),
	}, nil
}

// Start launches the worker goroutine
func (q *OCRQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return fmt.Errorf("OCR queue already started")
	}
	q.started = true

	q.wg.Add(1)
	go q.worker()

	q.logger.Info("OCR queue started", "engine", q.engine.Name())
	return nil
}

// Stop finishes the job in flight and rejects any new submissions
func (q *OCRQueue) Stop() error {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.done)
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("OCR queue stopped")
	return nil
}

// Recognize runs img through the engine on the worker goroutine
func (q *OCRQueue) Recognize(ctx context.Context, img *image.Gray) ([]processor.OCRLine, error) {
	job := ocrJob{ctx: ctx, image: img, result: make(chan ocrResult, 1)}

	// Holding the read lock across the send keeps Stop from closing the
	// queue between the state check and the hand-off.
	q.mu.RLock()
	if !q.started || q.stopped {
		q.mu.RUnlock()
		return nil, ErrQueueStopped
	}
	select {
	case q.jobs <- job:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return nil, ctx.Err()
	}

	// The worker always answers a job it has taken off the channel
	res := <-job.result
	return res.lines, res.err
}

// Name reports the wrapped engine so the queue can stand in for it
func (q *OCRQueue) Name() string {
	return q.engine.Name()
}

func (q *OCRQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			q.drain()
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

// drain fails jobs that were buffered before Stop
func (q *OCRQueue) drain() {
	for {
		select {
		case job := <-q.jobs:
			job.result <- ocrResult{err: ErrQueueStopped}
		default:
			return
		}
	}
}

func (q *OCRQueue) run(job ocrJob) {
	if err := job.ctx.Err(); err != nil {
		job.result <- ocrResult{err: err}
		return
	}

	start := time.Now()
	lines, err := q.engine.Recognize(job.ctx, job.image)
	if err != nil {
		q.logger.Warn("OCR job failed", "error", err, "duration", time.Since(start))
	} else {
		q.logger.Debug("OCR job complete", "lines", len(lines), "duration", time.Since(start))
	}
	job.result <- ocrResult{lines: lines, err: err}
}
