// Package reconcile keeps a client-visible copy of a user's assignment
// collection consistent with the persisted copy under optimistic edits.
// Step toggles mutate local state immediately, then confirm against the
// remote store: the server's copy wins on success, and an exact pre-edit
// snapshot is restored on failure.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/models"
)

// Remote is the persistence collaborator as seen from the client side
type Remote interface {
	// FetchAssignments returns the authoritative collection for a user
	FetchAssignments(ctx context.Context, userKey string) ([]models.Assignment, error)

	// UpdateStep toggles one step and returns the full updated assignment
	UpdateStep(ctx context.Context, userKey, assignmentID string, stepID uuid.UUID, completed bool) (*models.Assignment, error)
}

// toggleOutcome tracks the lifecycle of one optimistic edit
type toggleOutcome string

const (
	togglePendingLocal toggleOutcome = "pending-local"
	toggleConfirmed    toggleOutcome = "confirmed"
	toggleRolledBack   toggleOutcome = "rolled-back"
)

// stepSnapshot is the pre-edit state captured once before mutation. Rollback
// restores this pair exactly rather than inverting the new value, which
// matters when a toggle races a concurrently computed reassignment.
type stepSnapshot struct {
	completed bool
	status    models.StepStatus
}

// Collection is the in-memory assignment collection for one user. It is
// owned by a single rendering or request context; the mutex only guards
// against accidental cross-goroutine use, not multi-writer semantics.
type Collection struct {
	mu          sync.Mutex
	userKey     string
	remote      Remote
	assignments []models.Assignment
	logger      *zap.Logger
}

// NewCollection creates an empty collection bound to a user and a remote
func NewCollection(userKey string, remote Remote, logger *zap.Logger) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection{userKey: userKey, remote: remote, logger: logger}
}

// Refresh replaces local state with the authoritative collection
func (c *Collection) Refresh(ctx context.Context) error {
	assignments, err := c.remote.FetchAssignments(ctx, c.userKey)
	if err != nil {
		return fmt.Errorf("failed to fetch assignments: %w", err)
	}
	c.mu.Lock()
	c.assignments = assignments
	c.mu.Unlock()
	return nil
}

// Assignments returns a copy of the current local state
func (c *Collection) Assignments() []models.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Assignment, len(c.assignments))
	copy(out, c.assignments)
	return out
}

// AssignmentByID returns a copy of one assignment, or nil if absent
func (c *Collection) AssignmentByID(id string) *models.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.assignments {
		if c.assignments[i].ID == id {
			a := c.assignments[i]
			return &a
		}
	}
	return nil
}

// ToggleStep applies an optimistic completion toggle to the named step,
// observable locally before the remote round-trip finishes. On confirmation
// the server's copy of the assignment replaces the optimistic guess; on
// failure the step's exact prior completed/status pair is restored and the
// error is returned for the caller to surface.
func (c *Collection) ToggleStep(ctx context.Context, assignmentID string, stepID uuid.UUID, completed bool) error {
	c.mu.Lock()
	step := c.findStep(assignmentID, stepID)
	if step == nil {
		c.mu.Unlock()
		return fmt.Errorf("step %s not found in assignment %s", stepID, assignmentID)
	}
	snapshot := stepSnapshot{completed: step.Completed, status: step.Status}
	step.SetCompleted(completed)
	c.mu.Unlock()

	c.logger.Debug("step_toggle",
		zap.String("assignment_id", assignmentID),
		zap.String("step_id", stepID.String()),
		zap.Bool("completed", completed),
		zap.String("state", string(togglePendingLocal)),
	)

	updated, err := c.remote.UpdateStep(ctx, c.userKey, assignmentID, stepID, completed)
	if err != nil {
		c.mu.Lock()
		if step := c.findStep(assignmentID, stepID); step != nil {
			step.Completed = snapshot.completed
			step.Status = snapshot.status
		}
		c.mu.Unlock()
		c.logger.Warn("step_toggle_rolled_back",
			zap.String("assignment_id", assignmentID),
			zap.String("step_id", stepID.String()),
			zap.String("state", string(toggleRolledBack)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to update step: %w", err)
	}

	c.mu.Lock()
	c.replaceAssignment(updated)
	c.mu.Unlock()

	c.logger.Debug("step_toggle",
		zap.String("assignment_id", assignmentID),
		zap.String("step_id", stepID.String()),
		zap.String("state", string(toggleConfirmed)),
	)
	return nil
}

// findStep locates a step in local state. Caller must hold the mutex.
func (c *Collection) findStep(assignmentID string, stepID uuid.UUID) *models.Step {
	for i := range c.assignments {
		if c.assignments[i].ID != assignmentID {
			continue
		}
		return c.assignments[i].Analysis.StepByID(stepID)
	}
	return nil
}

// replaceAssignment swaps in the server's authoritative copy. Caller must
// hold the mutex. A server copy for an unknown assignment is appended; the
// collection may have been pruned locally in between.
func (c *Collection) replaceAssignment(updated *models.Assignment) {
	if updated == nil {
		return
	}
	for i := range c.assignments {
		if c.assignments[i].ID == updated.ID {
			c.assignments[i] = *updated
			return
		}
	}
	c.assignments = append(c.assignments, *updated)
}
