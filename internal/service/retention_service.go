package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pathshala-plus/pathshala-api/pkg/jobs"
)

// RetentionService periodically enqueues sweeps that delete posts older than
// the retention period. Sweeps run through the job queue so transient DB
// errors are retried instead of waiting for the next tick.
type RetentionService struct {
	posts     *PostService
	metrics   *MetricsService
	queue     *jobs.Queue
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger

	cancel context.CancelFunc
}

// NewRetentionService constructs the retention service.
func NewRetentionService(posts *PostService, metrics *MetricsService, retention, interval time.Duration, workers int, logger *zap.Logger) *RetentionService {
	if retention <= 0 {
		retention = 10 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &RetentionService{
		posts:     posts,
		metrics:   metrics,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("post-retention", s.handleSweep, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the queue workers and the sweep ticker.
func (s *RetentionService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "sweep"}); err != nil {
					s.logger.Warn("failed to enqueue retention sweep", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the ticker and waits for in-flight sweeps.
func (s *RetentionService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

func (s *RetentionService) handleSweep(ctx context.Context, job jobs.Job) error {
	count, err := s.posts.SweepExpired(ctx, s.retention)
	if err != nil {
		return err
	}
	s.metrics.RecordPostsSwept(count)
	return nil
}
