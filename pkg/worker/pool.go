// Package worker provides an asynchronous worker pool that archives
// conversations through an archive.Archiver.
//
// The pool decouples archival from request handling and directory watching so
// callers can hand off conversations without waiting on embedding or index
// round trips.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/chatvault/pkg/archive"
	"github.com/papercomputeco/chatvault/pkg/logger"
	"github.com/papercomputeco/chatvault/pkg/metrics"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 5 * time.Minute
)

// Archiver is the subset of *archive.Archiver the pool needs.
type Archiver interface {
	Archive(ctx context.Context, conv archive.Conversation) (*archive.MetadataRecord, error)
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Conversation is archived by a worker.
	Conversation archive.Conversation

	// Origin describes where the conversation came from, e.g. a file path.
	Origin string

	// Done, when set, is called with the outcome once the job finishes.
	Done func(*archive.MetadataRecord, error)
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Archiver processes each job. Required.
	Archiver Archiver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds a single archive call (defaults to 5 minutes). A job
	// that runs past it fails with the archiver's typed error instead of
	// holding its worker.
	JobTimeout time.Duration

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Pool processes archive jobs asynchronously via a worker pool.
type Pool struct {
	config  *Config
	queue   chan Job
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Archiver == nil {
		return nil, errors.New("archiver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config:  c,
		queue:   make(chan Job, c.QueueSize),
		logger:  log,
		metrics: c.Metrics,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed, job dropped",
			"id", job.Conversation.ID,
			"origin", job.Origin,
		)
		p.metrics.RecordJob(metrics.StatusDropped)
		return false
	}

	select {
	case p.queue <- job:
		p.metrics.SetQueueDepth(len(p.queue))
		p.logger.Debug("job queued",
			"id", job.Conversation.ID,
			"source", job.Conversation.Source,
			"origin", job.Origin,
		)
		return true
	default:
		p.metrics.RecordJob(metrics.StatusDropped)
		p.logger.Error("job not queued, queue full, job dropped",
			"id", job.Conversation.ID,
			"source", job.Conversation.Source,
			"origin", job.Origin,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after producers have stopped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.metrics.SetQueueDepth(len(p.queue))
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob archives one conversation and reports the outcome.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	rec, err := p.config.Archiver.Archive(ctx, job.Conversation)
	if err != nil {
		p.metrics.RecordJob(metrics.StatusError)
		p.logger.Error("async archive failed",
			"id", job.Conversation.ID,
			"origin", job.Origin,
			"error", err,
		)
	} else {
		p.metrics.RecordJob(metrics.StatusSuccess)
		p.logger.Debug("async archive finished",
			"id", rec.ID,
			"archive_id", rec.ArchiveID,
			"origin", job.Origin,
		)
	}

	if job.Done != nil {
		job.Done(rec, err)
	}
}
