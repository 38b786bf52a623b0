package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/services/ai"
	"github.com/stepwise/planner/internal/queue"
	"github.com/stepwise/planner/internal/store"
)

// AssignmentAnalyzer retries analyses that fell back to the canned failure
// breakdown at upload time. On success the fallback analysis is replaced in
// place; step completion state from the fallback is not carried over since
// the only fallback step is the retry hint.
type AssignmentAnalyzer struct {
	analyzer ai.Analyzer
	store    store.Store
	jobQueue queue.JobQueue // for re-enqueueing with backoff
	logger   *zap.Logger
}

// NewAssignmentAnalyzer creates a new analysis retry worker
func NewAssignmentAnalyzer(analyzer ai.Analyzer, st store.Store, jobQueue queue.JobQueue, logger *zap.Logger) *AssignmentAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentAnalyzer{
		analyzer: analyzer,
		store:    st,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessAnalyzeJob re-runs analysis for one assignment. Rate limit and
// quota errors re-enqueue the job with a backoff delay until retries are
// exhausted; anything else is returned for the runner to dead-letter.
func (a *AssignmentAnalyzer) ProcessAnalyzeJob(ctx context.Context, job *queue.Job) error {
	if job.AssignmentID == "" {
		return fmt.Errorf("assignment_id is required for analyze job")
	}

	assignments, err := a.store.Get(ctx, job.UserKey)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	idx := -1
	for i := range assignments {
		if assignments[i].ID == job.AssignmentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Deleted in the meantime; nothing to retry.
		a.logger.Debug("analyze_job_assignment_gone",
			zap.String("user", job.UserKey),
			zap.String("assignment_id", job.AssignmentID),
		)
		return nil
	}

	assignment := &assignments[idx]
	if assignment.OriginalText == "" {
		return fmt.Errorf("assignment %s has no source text to analyze", assignment.ID)
	}

	now := time.Now()
	analysis, err := a.analyzer.AnalyzeAssignment(ctx, assignment.OriginalText, assignment.DueDate, now)
	if err != nil {
		if job.CanRetry() && (ai.IsRateLimitError(err) || ai.IsQuotaError(err)) {
			return a.requeueWithBackoff(ctx, job, err)
		}
		return fmt.Errorf("failed to analyze assignment: %w", err)
	}

	assignment.Analysis = *analysis
	assignment.UpdatedAt = now
	assignment.EnsureStepIDs()

	if err := a.store.Put(ctx, job.UserKey, assignments); err != nil {
		return fmt.Errorf("failed to persist reanalyzed assignment: %w", err)
	}

	a.logger.Info("assignment_reanalyzed",
		zap.String("user", job.UserKey),
		zap.String("assignment_id", assignment.ID),
		zap.String("title", analysis.Title),
		zap.Int("steps", len(analysis.Steps)),
	)
	return nil
}

// requeueWithBackoff schedules another attempt after the provider-derived delay
func (a *AssignmentAnalyzer) requeueWithBackoff(ctx context.Context, job *queue.Job, cause error) error {
	job.IncrementRetry()
	delay := ai.GetRetryDelay(cause, job.RetryCount)
	notBefore := time.Now().Add(delay)
	job.NotBefore = &notBefore

	if err := a.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to re-enqueue analyze job: %w", err)
	}

	a.logger.Warn("analyze_job_requeued",
		zap.String("user", job.UserKey),
		zap.String("assignment_id", job.AssignmentID),
		zap.Int("retry_count", job.RetryCount),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)
	return nil
}
