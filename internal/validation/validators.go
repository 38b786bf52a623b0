package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/stepwise/planner/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("difficulty", validateDifficulty); err != nil {
		panic(fmt.Sprintf("failed to register difficulty validator: %v", err))
	}
	if err := Validate.RegisterValidation("step_status", validateStepStatus); err != nil {
		panic(fmt.Sprintf("failed to register step_status validator: %v", err))
	}
}

// validateDifficulty validates that a string is one of the five difficulty levels
func validateDifficulty(fl validator.FieldLevel) bool {
	return ValidateDifficulty(fl.Field().String()) == nil
}

// validateStepStatus validates that a string is a valid StepStatus enum value
func validateStepStatus(fl validator.FieldLevel) bool {
	return ValidateStepStatus(fl.Field().String()) == nil
}

// ValidateDifficulty validates a Difficulty string value
func ValidateDifficulty(value string) error {
	switch models.Difficulty(value) {
	case models.DifficultyVeryEasy, models.DifficultyEasy, models.DifficultyNormal,
		models.DifficultyHard, models.DifficultyVeryHard:
		return nil
	default:
		return fmt.Errorf("invalid difficulty: %s", value)
	}
}

// ValidateStepStatus validates a StepStatus string value
func ValidateStepStatus(value string) error {
	switch models.StepStatus(value) {
	case models.StepStatusPending, models.StepStatusCompleted, models.StepStatusOverdue:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending', 'completed', or 'overdue')", value)
	}
}

// SanitizeText trims whitespace and removes control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
