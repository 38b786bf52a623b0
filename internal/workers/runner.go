package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/queue"
)

// maxNotBeforeWait caps how long the runner holds a message that is not yet
// due. Longer waits requeue instead so the consumer is not pinned.
const maxNotBeforeWait = 5 * time.Minute

// Runner consumes jobs from the queue and dispatches them to the workers
type Runner struct {
	jobQueue   queue.JobQueue
	analyzer   *AssignmentAnalyzer
	reassigner *Reassigner
	prefetch   int
	logger     *zap.Logger
}

// NewRunner creates a worker runner
func NewRunner(jobQueue queue.JobQueue, analyzer *AssignmentAnalyzer, reassigner *Reassigner, prefetch int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		jobQueue:   jobQueue,
		analyzer:   analyzer,
		reassigner: reassigner,
		prefetch:   prefetch,
		logger:     logger,
	}
}

// Run consumes and processes jobs until the context is cancelled
func (r *Runner) Run(ctx context.Context) error {
	messages, errs, err := r.jobQueue.Consume(ctx, r.prefetch)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				return err
			}
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handle(ctx, msg)
		}
	}
}

// handle processes one message, acking on success and dead-lettering on
// failure. Messages that are not due yet are briefly held or requeued.
func (r *Runner) handle(ctx context.Context, msg *queue.Message) {
	job := msg.Job()

	if !job.ShouldProcess(time.Now()) {
		wait := time.Until(*job.NotBefore)
		if wait > maxNotBeforeWait {
			if err := msg.Nack(true); err != nil {
				r.logger.Warn("failed_to_requeue_early_job", zap.Error(err))
			}
			return
		}
		select {
		case <-ctx.Done():
			_ = msg.Nack(true)
			return
		case <-time.After(wait):
		}
	}

	var err error
	switch job.Type {
	case queue.JobTypeAnalyzeAssignment:
		err = r.analyzer.ProcessAnalyzeJob(ctx, job)
	case queue.JobTypeReassignUser:
		err = r.reassigner.ProcessReassignJob(ctx, job)
	default:
		r.logger.Warn("unknown_job_type",
			zap.String("type", string(job.Type)),
			zap.String("job_id", job.ID.String()),
		)
		_ = msg.Nack(false)
		return
	}

	if err != nil {
		r.logger.Error("job_failed",
			zap.String("type", string(job.Type)),
			zap.String("job_id", job.ID.String()),
			zap.String("user", job.UserKey),
			zap.Error(err),
		)
		_ = msg.Nack(false)
		return
	}

	if err := msg.Ack(); err != nil {
		r.logger.Warn("failed_to_ack_job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
