package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeAnalyzeAssignment retries analysis for an assignment whose
	// initial analysis fell back to the canned failure breakdown
	JobTypeAnalyzeAssignment JobType = "analyze_assignment"
	// JobTypeReassignUser sweeps one user's collection through the step
	// reassignment engine
	JobTypeReassignUser JobType = "reassign_user"
)

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Type         JobType    `json:"type"`
	UserKey      string     `json:"user_key"`
	AssignmentID string     `json:"assignment_id,omitempty"`
	NotBefore    *time.Time `json:"not_before,omitempty"` // earliest time to process (nil = immediate)
	CreatedAt    time.Time  `json:"created_at"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
}

// NewJob creates a new job for a user. assignmentID may be empty for
// whole-collection jobs.
func NewJob(jobType JobType, userKey, assignmentID string) *Job {
	return &Job{
		ID:           uuid.New(),
		Type:         jobType,
		UserKey:      userKey,
		AssignmentID: assignmentID,
		CreatedAt:    time.Now(),
		RetryCount:   0,
		MaxRetries:   3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess(now time.Time) bool {
	return j.NotBefore == nil || !now.Before(*j.NotBefore)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
