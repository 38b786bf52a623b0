package store

import (
	"context"
	"errors"

	"github.com/stepwise/planner/internal/models"
)

// ErrNotFound is returned when a requested assignment does not exist
var ErrNotFound = errors.New("assignment not found")

// Store is the persistence contract for per-user assignment collections.
// A collection is the unit of persistence: Put replaces the whole list
// atomically and the last writer wins at collection granularity.
type Store interface {
	// Get returns the user's collection, empty (not an error) when the
	// user has no stored assignments yet.
	Get(ctx context.Context, userKey string) ([]models.Assignment, error)

	// Put replaces the user's collection. Entries with a duplicate
	// analysis title are collapsed keeping the first occurrence.
	Put(ctx context.Context, userKey string, assignments []models.Assignment) error

	// Delete removes the user's collection entirely.
	Delete(ctx context.Context, userKey string) error

	// ListUsers returns every user key with a stored collection.
	ListUsers(ctx context.Context) ([]string, error)
}

// DeduplicateByTitle collapses assignments sharing an analysis title,
// keeping the first occurrence. This is the mechanism that stops the same
// analyzed assignment from being stored twice when the legacy-file recovery
// path and the primary collection disagree.
func DeduplicateByTitle(assignments []models.Assignment) []models.Assignment {
	seen := make(map[string]struct{}, len(assignments))
	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if _, dup := seen[a.Analysis.Title]; dup {
			continue
		}
		seen[a.Analysis.Title] = struct{}{}
		out = append(out, a)
	}
	return out
}
