package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"icednano/nano/design"
)

// ErrSaverClosed is returned by Save after Close.
var ErrSaverClosed = errors.New("saver closed")

// SaveResult reports one finished save.
type SaveResult struct {
	Path    string
	Elapsed time.Duration
	Err     error
}

type saveJob struct {
	path string
	d    *design.Design
	done chan<- SaveResult
}

// Saver writes designs on a worker goroutine so saving never blocks the
// render loop. Callers hand it a design nobody else mutates, usually a clone.
type Saver struct {
	Logger *slog.Logger
	// Observe, if set, is called after each save from the worker goroutine.
	Observe func(SaveResult)

	jobs      chan saveJob
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewSaver starts a worker with room for queue pending saves.
func NewSaver(queue int, logger *slog.Logger) *Saver {
	if queue <= 0 {
		queue = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Saver{Logger: logger, jobs: make(chan saveJob, queue)}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Saver) run() {
	defer s.wg.Done()
	for job := range s.jobs {
		start := time.Now()
		err := SaveFile(job.path, job.d)
		res := SaveResult{Path: job.path, Elapsed: time.Since(start), Err: err}
		if err != nil {
			s.Logger.Error("save failed", "path", job.path, "err", err)
		} else {
			s.Logger.Info("saved design", "path", job.path, "elapsed", res.Elapsed)
		}
		if s.Observe != nil {
			s.Observe(res)
		}
		if job.done != nil {
			job.done <- res
		}
	}
}

// Save queues d for writing to path. The returned channel receives exactly
// one result. Save blocks while the queue is full, until ctx is done.
func (s *Saver) Save(ctx context.Context, path string, d *design.Design) (<-chan SaveResult, error) {
	done := make(chan SaveResult, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSaverClosed
	}
	select {
	case s.jobs <- saveJob{path: path, d: d, done: done}:
		return done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close waits for queued saves to finish.
func (s *Saver) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.jobs)
		s.mu.Unlock()
		s.wg.Wait()
	})
}
