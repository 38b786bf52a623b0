package schedule

import (
	"github.com/stepwise/planner/internal/models"
)

// DistributeEvenly assigns a calendar date to every step, spreading the list
// across the [startDate, dueDate] window in order. Each day receives
// ceil(len(steps)/daysAvailable) consecutive steps before the date advances.
// When the window is zero or negative every step collapses onto startDate
// instead of failing. The input slice is not mutated.
//
// With a short window and a long list the trailing steps can land past the
// due date. The timeline view tolerates those dates, so the spill is kept
// as-is rather than clamped.
func DistributeEvenly(steps []models.Step, startDate, dueDate string) []models.Step {
	out := make([]models.Step, len(steps))
	copy(out, steps)

	start := startDate
	if normalized, ok := NormalizeDate(startDate); ok {
		start = normalized
	}

	daysAvailable := DaysBetween(startDate, dueDate)
	if daysAvailable <= 0 {
		for i := range out {
			out[i].AssignedDate = start
			out[i].Status = models.StepStatusPending
		}
		return out
	}

	stepsPerDay := (len(out) + daysAvailable - 1) / daysAvailable
	currentDate := start
	placedToday := 0
	for i := range out {
		if placedToday >= stepsPerDay {
			currentDate = AddDays(currentDate, 1)
			placedToday = 0
		}
		placedToday++
		out[i].AssignedDate = currentDate
		out[i].Status = models.StepStatusPending
	}
	return out
}
