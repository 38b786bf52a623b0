package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/models"
)

const collectionFileName = "assignments.json"

// FileStore persists one JSON collection file per user under a data
// directory. Writes go through a temp file and rename so a crashed put
// never leaves a partial collection behind.
type FileStore struct {
	dataDir string
	logger  *zap.Logger
}

// NewFileStore creates a file store rooted at dataDir, creating it if needed
func NewFileStore(dataDir string, logger *zap.Logger) (*FileStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dataDir: dataDir, logger: logger}, nil
}

// Get returns the user's collection. When the collection file is missing it
// attempts a recovery merge from legacy per-assignment JSON files before
// giving up and returning an empty list.
func (s *FileStore) Get(ctx context.Context, userKey string) ([]models.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.userDir(userKey)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, collectionFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s.recoverFromLegacyFiles(ctx, userKey, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}

	var assignments []models.Assignment
	if err := json.Unmarshal(data, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	return assignments, nil
}

// Put replaces the user's collection, collapsing duplicate analysis titles
// keep-first before writing.
func (s *FileStore) Put(ctx context.Context, userKey string, assignments []models.Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.userDir(userKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}

	unique := DeduplicateByTitle(assignments)
	data, err := json.MarshalIndent(unique, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}

	path := filepath.Join(dir, collectionFileName)
	tmp, err := os.CreateTemp(dir, collectionFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace collection: %w", err)
	}
	return nil
}

// Delete removes the user's directory and everything in it
func (s *FileStore) Delete(ctx context.Context, userKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.userDir(userKey)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete user data: %w", err)
	}
	return nil
}

// ListUsers returns every user key with a directory under the data root
func (s *FileStore) ListUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	return users, nil
}

// recoverFromLegacyFiles rebuilds a collection from individual analysis
// files written by older versions, one JSON file per assignment. Duplicate
// titles keep the first file encountered. The rebuilt collection is written
// back so the next get takes the fast path.
func (s *FileStore) recoverFromLegacyFiles(ctx context.Context, userKey, dir string) ([]models.Assignment, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []models.Assignment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user directory: %w", err)
	}

	now := time.Now().UTC()
	seenTitles := make(map[string]struct{})
	var assignments []models.Assignment
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == collectionFileName || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			s.logger.Warn("skipping_unreadable_legacy_file",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}

		var analysis models.Analysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			s.logger.Warn("skipping_malformed_legacy_file",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}

		title := analysis.Title
		if title == "" {
			title = strings.TrimSuffix(name, ".json")
			analysis.Title = title
		}
		if _, dup := seenTitles[title]; dup {
			continue
		}
		seenTitles[title] = struct{}{}

		a := models.Assignment{
			ID:        strings.TrimSuffix(name, ".json"),
			DueDate:   analysis.DueDate,
			Analysis:  analysis,
			CreatedAt: now,
			UpdatedAt: now,
		}
		a.EnsureStepIDs()
		assignments = append(assignments, a)
	}

	if len(assignments) == 0 {
		return []models.Assignment{}, nil
	}

	if err := s.Put(ctx, userKey, assignments); err != nil {
		return nil, fmt.Errorf("failed to persist recovered collection: %w", err)
	}
	s.logger.Info("recovered_collection_from_legacy_files",
		zap.String("user", s.logKey(userKey)),
		zap.Int("assignments", len(assignments)),
	)
	return assignments, nil
}

// userDir resolves and validates the directory for a user key. Keys that
// would escape the data root are rejected.
func (s *FileStore) userDir(userKey string) (string, error) {
	if userKey == "" {
		return "", fmt.Errorf("user key is required")
	}
	if strings.ContainsAny(userKey, "/\\") || userKey == "." || userKey == ".." {
		return "", fmt.Errorf("invalid user key")
	}
	return filepath.Join(s.dataDir, userKey), nil
}

// logKey truncates long user keys for logging
func (s *FileStore) logKey(userKey string) string {
	if len(userKey) > 64 {
		return userKey[:64] + "..."
	}
	return userKey
}
