package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/queue"
	"github.com/stepwise/planner/internal/schedule"
	"github.com/stepwise/planner/internal/store"
)

// Reassigner processes per-user reassignment sweep jobs: it loads the
// user's collection, rolls stale incomplete steps forward, and persists the
// collection when anything moved.
type Reassigner struct {
	store    store.Store
	capacity int
	logger   *zap.Logger
}

// NewReassigner creates a new reassigner worker
func NewReassigner(st store.Store, capacity int, logger *zap.Logger) *Reassigner {
	if capacity <= 0 {
		capacity = schedule.DefaultDailyCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reassigner{store: st, capacity: capacity, logger: logger}
}

// ProcessReassignJob sweeps one user's collection through the reassignment
// engine. A user with no stored collection is not an error.
func (r *Reassigner) ProcessReassignJob(ctx context.Context, job *queue.Job) error {
	if job.UserKey == "" {
		return fmt.Errorf("user_key is required for reassign job")
	}

	assignments, err := r.store.Get(ctx, job.UserKey)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if len(assignments) == 0 {
		return nil
	}

	now := time.Now()
	updated, changed := schedule.RollForward(assignments, now, r.capacity)
	if !changed {
		r.logger.Debug("reassign_sweep_no_changes",
			zap.String("user", job.UserKey),
		)
		return nil
	}

	if err := r.store.Put(ctx, job.UserKey, updated); err != nil {
		return fmt.Errorf("failed to persist swept collection: %w", err)
	}

	r.logger.Info("reassign_sweep_completed",
		zap.String("user", job.UserKey),
		zap.Int("assignments", len(updated)),
	)
	return nil
}

// EnqueueSweeps enqueues one reassign job per known user. Called by the
// cron schedule in the worker binary.
func EnqueueSweeps(ctx context.Context, st store.Store, jobQueue queue.JobQueue, logger *zap.Logger) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var enqueued int
	for _, user := range users {
		job := queue.NewJob(queue.JobTypeReassignUser, user, "")
		if err := jobQueue.Enqueue(ctx, job); err != nil {
			logger.Error("failed_to_enqueue_sweep",
				zap.String("user", user),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	logger.Info("sweep_jobs_enqueued",
		zap.Int("users", len(users)),
		zap.Int("enqueued", enqueued),
	)
	return nil
}
