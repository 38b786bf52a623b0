package schedule

import (
	"reflect"
	"testing"
	"time"

	"github.com/stepwise/planner/internal/models"
)

func datedStep(title, date string, completed bool) models.Step {
	status := models.StepStatusPending
	if completed {
		status = models.StepStatusCompleted
	}
	return models.Step{
		Title:        title,
		AssignedDate: date,
		Completed:    completed,
		Status:       status,
	}
}

func stepByTitle(t *testing.T, steps []models.Step, title string) models.Step {
	t.Helper()
	for _, s := range steps {
		if s.Title == title {
			return s
		}
	}
	t.Fatalf("step %q not found", title)
	return models.Step{}
}

func TestReassignIncomplete(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("stale step moves to today", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{datedStep("late", "2024-01-05", false)}
		got := ReassignIncomplete(steps, "2024-01-15", today)

		s := stepByTitle(t, got, "late")
		if s.AssignedDate != "2024-01-10" {
			t.Errorf("assigned date = %q, want 2024-01-10", s.AssignedDate)
		}
		if s.Status != models.StepStatusPending {
			t.Errorf("status = %q, want pending", s.Status)
		}
	})

	t.Run("completed step keeps its date", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("done", "2024-01-05", true),
			datedStep("late", "2024-01-06", false),
		}
		got := ReassignIncomplete(steps, "2024-01-15", today)

		done := stepByTitle(t, got, "done")
		if done.AssignedDate != "2024-01-05" {
			t.Errorf("completed step moved to %q", done.AssignedDate)
		}
		if done.Status != models.StepStatusCompleted {
			t.Errorf("completed step status = %q", done.Status)
		}
	})

	t.Run("future steps stay in place", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("today", "2024-01-10", false),
			datedStep("future", "2024-01-12", false),
		}
		got := ReassignIncomplete(steps, "2024-01-15", today)

		if s := stepByTitle(t, got, "today"); s.AssignedDate != "2024-01-10" {
			t.Errorf("today's step moved to %q", s.AssignedDate)
		}
		if s := stepByTitle(t, got, "future"); s.AssignedDate != "2024-01-12" {
			t.Errorf("future step moved to %q", s.AssignedDate)
		}
	})

	t.Run("daily capacity spills to the next day", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("s1", "2024-01-05", false),
			datedStep("s2", "2024-01-06", false),
			datedStep("s3", "2024-01-07", false),
			datedStep("s4", "2024-01-08", false),
		}
		got := ReassignIncomplete(steps, "2024-01-12", today)

		counts := make(map[string]int)
		for _, s := range got {
			counts[s.AssignedDate]++
		}
		if counts["2024-01-10"] != 3 {
			t.Errorf("today holds %d steps, want 3", counts["2024-01-10"])
		}
		if counts["2024-01-11"] != 1 {
			t.Errorf("next day holds %d steps, want 1", counts["2024-01-11"])
		}
	})

	t.Run("no date before due fits marks overdue in place", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("s1", "2024-01-05", false),
			datedStep("s2", "2024-01-06", false),
			datedStep("s3", "2024-01-07", false),
			datedStep("s4", "2024-01-08", false),
		}
		// Window is a single day holding at most three steps
		got := ReassignIncomplete(steps, "2024-01-10", today)

		overdue := 0
		for _, s := range got {
			if s.Status == models.StepStatusOverdue {
				overdue++
				if s.AssignedDate == "2024-01-10" {
					t.Errorf("overdue step %q was moved", s.Title)
				}
			}
		}
		if overdue != 1 {
			t.Errorf("got %d overdue steps, want 1", overdue)
		}
		if len(got) != len(steps) {
			t.Errorf("step count changed: %d -> %d", len(steps), len(got))
		}
	})

	t.Run("steps already scheduled in the window consume capacity", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("w1", "2024-01-10", false),
			datedStep("w2", "2024-01-10", false),
			datedStep("w3", "2024-01-10", false),
			datedStep("late", "2024-01-05", false),
		}
		got := ReassignIncomplete(steps, "2024-01-10", today)

		late := stepByTitle(t, got, "late")
		if late.Status != models.StepStatusOverdue {
			t.Errorf("stale step status = %q, want overdue (today is full)", late.Status)
		}
	})

	t.Run("unparseable due date leaves no window", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{datedStep("late", "2024-01-05", false)}
		got := ReassignIncomplete(steps, "garbage", today)

		s := stepByTitle(t, got, "late")
		if s.Status != models.StepStatusOverdue {
			t.Errorf("status = %q, want overdue", s.Status)
		}
		if s.AssignedDate != "2024-01-05" {
			t.Errorf("assigned date changed to %q", s.AssignedDate)
		}
	})

	t.Run("output is sorted by assigned date", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("c", "2024-01-14", false),
			datedStep("a", "2024-01-10", false),
			datedStep("b", "2024-01-12", false),
		}
		got := ReassignIncomplete(steps, "2024-01-15", today)

		for i := 1; i < len(got); i++ {
			if got[i-1].AssignedDate > got[i].AssignedDate {
				t.Errorf("output not sorted: %q before %q", got[i-1].AssignedDate, got[i].AssignedDate)
			}
		}
	})

	t.Run("idempotent for a fixed today", func(t *testing.T) {
		t.Parallel()

		steps := []models.Step{
			datedStep("s1", "2024-01-05", false),
			datedStep("s2", "2024-01-06", false),
			datedStep("s3", "2024-01-07", false),
			datedStep("s4", "2024-01-08", false),
			datedStep("done", "2024-01-03", true),
		}
		once := ReassignIncomplete(steps, "2024-01-13", today)
		twice := ReassignIncomplete(once, "2024-01-13", today)

		if !reflect.DeepEqual(once, twice) {
			t.Errorf("second pass changed the steps:\nonce:  %+v\ntwice: %+v", once, twice)
		}
	})
}

func TestReassignIncompleteCapacity(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	steps := []models.Step{
		datedStep("s1", "2024-01-05", false),
		datedStep("s2", "2024-01-06", false),
		datedStep("s3", "2024-01-07", false),
	}
	got := ReassignIncompleteCapacity(steps, "2024-01-13", today, 1)

	counts := make(map[string]int)
	for _, s := range got {
		counts[s.AssignedDate]++
	}
	for date, n := range counts {
		if n > 1 {
			t.Errorf("date %s holds %d steps with capacity 1", date, n)
		}
	}
}

func TestRollForward(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assignment := models.Assignment{
		ID:      "1700000000000",
		DueDate: "2024-01-15",
		Analysis: models.Analysis{
			Title:   "Essay",
			DueDate: "2024-01-15",
			Steps: []models.Step{
				datedStep("late", "2024-01-05", false),
				datedStep("future", "2024-01-12", false),
			},
		},
	}

	t.Run("stale step triggers a change", func(t *testing.T) {
		t.Parallel()

		got, changed := RollForward([]models.Assignment{assignment}, today, DefaultDailyCapacity)
		if !changed {
			t.Fatal("expected changed=true")
		}
		late := stepByTitle(t, got[0].Analysis.Steps, "late")
		if late.AssignedDate != "2024-01-10" {
			t.Errorf("stale step moved to %q, want 2024-01-10", late.AssignedDate)
		}
		if !got[0].UpdatedAt.Equal(today) {
			t.Errorf("UpdatedAt = %v, want %v", got[0].UpdatedAt, today)
		}
	})

	t.Run("second pass reports no change", func(t *testing.T) {
		t.Parallel()

		once, _ := RollForward([]models.Assignment{assignment}, today, DefaultDailyCapacity)
		_, changed := RollForward(once, today, DefaultDailyCapacity)
		if changed {
			t.Error("roll forward of its own output reported a change")
		}
	})

	t.Run("falls back to the assignment due date", func(t *testing.T) {
		t.Parallel()

		a := assignment
		a.Analysis.DueDate = ""
		got, changed := RollForward([]models.Assignment{a}, today, DefaultDailyCapacity)
		if !changed {
			t.Fatal("expected changed=true")
		}
		late := stepByTitle(t, got[0].Analysis.Steps, "late")
		if late.Status != models.StepStatusPending {
			t.Errorf("status = %q, want pending", late.Status)
		}
	})
}
