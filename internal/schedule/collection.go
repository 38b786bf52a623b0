package schedule

import (
	"time"

	"github.com/stepwise/planner/internal/models"
)

// RollForward runs the reassignment engine over every assignment in a
// collection and reports whether anything moved. Each assignment's own due
// date bounds its capacity window. Called before a collection is rendered
// or swept so stale incomplete steps are never shown as plain pending.
func RollForward(assignments []models.Assignment, today time.Time, capacity int) ([]models.Assignment, bool) {
	out := make([]models.Assignment, len(assignments))
	copy(out, assignments)

	changed := false
	for i := range out {
		due := out[i].Analysis.DueDate
		if due == "" {
			due = out[i].DueDate
		}
		steps := ReassignIncompleteCapacity(out[i].Analysis.Steps, due, today, capacity)
		if !stepsEqual(out[i].Analysis.Steps, steps) {
			out[i].Analysis.Steps = steps
			out[i].UpdatedAt = today
			changed = true
		}
	}
	return out, changed
}

// stepsEqual compares the scheduling-relevant fields of two step lists
func stepsEqual(a, b []models.Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].AssignedDate != b[i].AssignedDate ||
			a[i].Completed != b[i].Completed ||
			a[i].Status != b[i].Status {
			return false
		}
	}
	return true
}
