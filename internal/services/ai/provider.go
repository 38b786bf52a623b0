package ai

import (
	"context"
	"time"

	"github.com/stepwise/planner/internal/models"
)

// Analyzer produces a structured breakdown for an assignment's extracted
// text. today is passed explicitly so prompts and fallbacks never read the
// wall clock themselves.
type Analyzer interface {
	AnalyzeAssignment(ctx context.Context, text, dueDate string, today time.Time) (*models.Analysis, error)
}

// FallbackAnalysis is the breakdown stored when analysis fails, so the user
// always gets a renderable assignment. The single step tells them to retry.
func FallbackAnalysis(dueDate string, today time.Time) *models.Analysis {
	return &models.Analysis{
		Title:         "Assignment Analysis Failed",
		Summary:       "Failed to analyze the assignment. Please try again.",
		Difficulty:    models.DifficultyNormal,
		EstimatedTime: "1시간",
		DueDate:       dueDate,
		Steps: []models.Step{
			{
				Title:        "Try Again",
				Description:  "Please try uploading the assignment again.",
				Tip:          "Make sure the PDF file is not corrupted and contains readable text.",
				AssignedDate: today.UTC().Format("2006-01-02"),
				Completed:    false,
				Status:       models.StepStatusPending,
			},
		},
	}
}
