package schedule

import (
	"sort"
	"time"

	"github.com/stepwise/planner/internal/models"
)

// DefaultDailyCapacity is the maximum number of steps the reassignment
// engine will place on a single calendar date. Overflow steps are flagged
// overdue instead of piling onto one day, keeping schedule slippage visible.
const DefaultDailyCapacity = 3

// ReassignIncomplete rolls stale incomplete steps forward using the default
// per-day capacity. today is passed explicitly so callers control the clock.
func ReassignIncomplete(steps []models.Step, dueDate string, today time.Time) []models.Step {
	return ReassignIncompleteCapacity(steps, dueDate, today, DefaultDailyCapacity)
}

// ReassignIncompleteCapacity returns the full step set, sorted by assigned
// date, with every stale incomplete step (assigned date strictly before
// today) moved to the first date between today and dueDate that still has
// free capacity. Completed steps keep their date and are forced to
// completed status; steps scheduled today or later stay pending in place.
// A stale step that cannot fit anywhere before the due date is marked
// overdue with its date untouched, never dropped.
//
// Incomplete steps already scheduled inside the window count against that
// day's capacity, which keeps the pass idempotent: running it again on its
// own output (same today, no completions) changes nothing.
func ReassignIncompleteCapacity(steps []models.Step, dueDate string, today time.Time, capacity int) []models.Step {
	if capacity <= 0 {
		capacity = DefaultDailyCapacity
	}

	out := make([]models.Step, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})

	todayDate := Today(today)
	due, dueOK := NormalizeDate(dueDate)

	// Capacity window from today through the due date inclusive.
	var window []string
	used := make(map[string]int)
	if dueOK {
		for d := todayDate; d <= due; d = AddDays(d, 1) {
			window = append(window, d)
			used[d] = 0
		}
	}

	for i := range out {
		if out[i].Completed {
			continue
		}
		if d, ok := NormalizeDate(out[i].AssignedDate); ok {
			if _, inWindow := used[d]; inWindow && d >= todayDate {
				used[d]++
			}
		}
	}

	for i := range out {
		step := &out[i]
		if step.Completed {
			step.Status = models.StepStatusCompleted
			continue
		}

		assigned, ok := NormalizeDate(step.AssignedDate)
		if ok && assigned < todayDate {
			placed := false
			for _, d := range window {
				if used[d] < capacity {
					step.AssignedDate = d
					used[d]++
					step.Status = models.StepStatusPending
					placed = true
					break
				}
			}
			if !placed {
				step.Status = models.StepStatusOverdue
			}
			continue
		}

		step.Status = models.StepStatusPending
	}
	return out
}

// sortKey normalizes a step's assigned date for ordering. Unparseable dates
// sort after everything else while keeping their relative order.
func sortKey(s models.Step) string {
	if d, ok := NormalizeDate(s.AssignedDate); ok {
		return d
	}
	return "~" + s.AssignedDate
}
