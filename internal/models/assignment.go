package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Difficulty is one of five ordered levels, reported in Korean by the analyzer
type Difficulty string

const (
	DifficultyVeryEasy Difficulty = "매우 쉬움"
	DifficultyEasy     Difficulty = "쉬움"
	DifficultyNormal   Difficulty = "보통"
	DifficultyHard     Difficulty = "어려움"
	DifficultyVeryHard Difficulty = "매우 어려움"
)

// StepStatus represents the scheduling state of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
	StepStatusOverdue   StepStatus = "overdue"
)

// Step is one actionable sub-task of an assignment. Steps carry a generated
// ID so toggles address a step unambiguously even if two titles collide.
type Step struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Tip          string     `json:"tip,omitempty"`
	AssignedDate string     `json:"assignedDate"`
	Completed    bool       `json:"completed"`
	Status       StepStatus `json:"status"`
}

// SetCompleted updates the completion flag and the derived status together,
// preserving the status==completed iff completed invariant.
func (s *Step) SetCompleted(completed bool) {
	s.Completed = completed
	if completed {
		s.Status = StepStatusCompleted
	} else {
		s.Status = StepStatusPending
	}
}

// Analysis is the structured breakdown produced for one assignment
type Analysis struct {
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Difficulty    Difficulty `json:"difficulty"`
	EstimatedTime string     `json:"estimatedTime"`
	DueDate       string     `json:"dueDate"`
	Steps         []Step     `json:"steps"`
}

// StepByID returns the step with the given ID, or nil if absent
func (a *Analysis) StepByID(id uuid.UUID) *Step {
	for i := range a.Steps {
		if a.Steps[i].ID == id {
			return &a.Steps[i]
		}
	}
	return nil
}

// Assignment is one uploaded academic task plus its derived analysis
type Assignment struct {
	ID           string    `json:"id"`
	OriginalText string    `json:"originalText"`
	DueDate      string    `json:"dueDate"`
	Analysis     Analysis  `json:"analysis"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAssignmentID generates a time-based assignment token. Uniqueness is only
// required within one user's collection, so millisecond resolution suffices.
func NewAssignmentID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// EnsureStepIDs assigns IDs to any steps that arrived without one, such as
// steps produced by the analysis collaborator.
func (a *Assignment) EnsureStepIDs() {
	for i := range a.Analysis.Steps {
		if a.Analysis.Steps[i].ID == uuid.Nil {
			a.Analysis.Steps[i].ID = uuid.New()
		}
	}
}
