package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/models"
	"github.com/stepwise/planner/internal/queue"
	"github.com/stepwise/planner/internal/services/ai"
)

// fakeStore keeps collections in memory and records writes
type fakeStore struct {
	collections map[string][]models.Assignment
	puts        int
	getErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: make(map[string][]models.Assignment)}
}

func (f *fakeStore) Get(ctx context.Context, userKey string) ([]models.Assignment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.collections[userKey], nil
}

func (f *fakeStore) Put(ctx context.Context, userKey string, assignments []models.Assignment) error {
	f.puts++
	f.collections[userKey] = assignments
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, userKey string) error {
	delete(f.collections, userKey)
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]string, error) {
	users := make([]string, 0, len(f.collections))
	for u := range f.collections {
		users = append(users, u)
	}
	return users, nil
}

// fakeQueue records enqueued jobs
type fakeQueue struct {
	jobs       []*queue.Job
	enqueueErr error
}

func (f *fakeQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeQueue) Close() error { return nil }

func (f *fakeQueue) HealthCheck(ctx context.Context) error { return nil }

// fakeAnalyzer scripts analysis outcomes
type fakeAnalyzer struct {
	analysis *models.Analysis
	err      error
	calls    int
}

func (f *fakeAnalyzer) AnalyzeAssignment(ctx context.Context, text, dueDate string, today time.Time) (*models.Analysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func staleAssignment(id string) models.Assignment {
	due := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	past := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")
	return models.Assignment{
		ID:           id,
		OriginalText: "write the essay",
		DueDate:      due,
		Analysis: models.Analysis{
			Title:   "Essay " + id,
			DueDate: due,
			Steps: []models.Step{
				{ID: uuid.New(), Title: "outline", AssignedDate: past, Status: models.StepStatusPending},
			},
		},
	}
}

func freshAssignment(id string) models.Assignment {
	due := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	return models.Assignment{
		ID:           id,
		OriginalText: "write the essay",
		DueDate:      due,
		Analysis: models.Analysis{
			Title:   "Essay " + id,
			DueDate: due,
			Steps: []models.Step{
				{ID: uuid.New(), Title: "outline", AssignedDate: future, Status: models.StepStatusPending},
			},
		},
	}
}

func TestProcessReassignJob(t *testing.T) {
	t.Parallel()

	t.Run("persists when steps moved", func(t *testing.T) {
		t.Parallel()

		st := newFakeStore()
		st.collections["alice"] = []models.Assignment{staleAssignment("1")}
		r := NewReassigner(st, 3, zap.NewNop())

		job := queue.NewJob(queue.JobTypeReassignUser, "alice", "")
		if err := r.ProcessReassignJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessReassignJob: %v", err)
		}
		if st.puts != 1 {
			t.Errorf("puts = %d, want 1", st.puts)
		}

		today := time.Now().UTC().Format("2006-01-02")
		got := st.collections["alice"][0].Analysis.Steps[0]
		if got.AssignedDate != today {
			t.Errorf("stale step on %q, want %q", got.AssignedDate, today)
		}
	})

	t.Run("skips write when nothing moved", func(t *testing.T) {
		t.Parallel()

		st := newFakeStore()
		st.collections["alice"] = []models.Assignment{freshAssignment("1")}
		r := NewReassigner(st, 3, zap.NewNop())

		job := queue.NewJob(queue.JobTypeReassignUser, "alice", "")
		if err := r.ProcessReassignJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessReassignJob: %v", err)
		}
		if st.puts != 0 {
			t.Errorf("puts = %d, want 0", st.puts)
		}
	})

	t.Run("empty collection is not an error", func(t *testing.T) {
		t.Parallel()

		r := NewReassigner(newFakeStore(), 3, zap.NewNop())
		job := queue.NewJob(queue.JobTypeReassignUser, "nobody", "")
		if err := r.ProcessReassignJob(context.Background(), job); err != nil {
			t.Errorf("ProcessReassignJob: %v", err)
		}
	})

	t.Run("missing user key fails", func(t *testing.T) {
		t.Parallel()

		r := NewReassigner(newFakeStore(), 3, zap.NewNop())
		job := queue.NewJob(queue.JobTypeReassignUser, "", "")
		if err := r.ProcessReassignJob(context.Background(), job); err == nil {
			t.Error("expected error for empty user key")
		}
	})
}

func TestProcessAnalyzeJob(t *testing.T) {
	t.Parallel()

	t.Run("replaces the fallback analysis", func(t *testing.T) {
		t.Parallel()

		st := newFakeStore()
		assignment := staleAssignment("1")
		st.collections["alice"] = []models.Assignment{assignment}

		analyzer := &fakeAnalyzer{analysis: &models.Analysis{
			Title:      "새 분석",
			Difficulty: models.DifficultyNormal,
			DueDate:    assignment.DueDate,
			Steps:      []models.Step{{Title: "자료 조사", AssignedDate: assignment.DueDate}},
		}}
		q := &fakeQueue{}
		w := NewAssignmentAnalyzer(analyzer, st, q, zap.NewNop())

		job := queue.NewJob(queue.JobTypeAnalyzeAssignment, "alice", "1")
		if err := w.ProcessAnalyzeJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessAnalyzeJob: %v", err)
		}

		got := st.collections["alice"][0]
		if got.Analysis.Title != "새 분석" {
			t.Errorf("analysis not replaced: %q", got.Analysis.Title)
		}
		if got.Analysis.Steps[0].ID == uuid.Nil {
			t.Error("replacement steps did not get IDs")
		}
		if len(q.jobs) != 0 {
			t.Errorf("%d jobs enqueued on success", len(q.jobs))
		}
	})

	t.Run("rate limit error requeues with backoff", func(t *testing.T) {
		t.Parallel()

		st := newFakeStore()
		st.collections["alice"] = []models.Assignment{staleAssignment("1")}

		analyzer := &fakeAnalyzer{err: &ai.APIError{StatusCode: 429}}
		q := &fakeQueue{}
		w := NewAssignmentAnalyzer(analyzer, st, q, zap.NewNop())

		job := queue.NewJob(queue.JobTypeAnalyzeAssignment, "alice", "1")
		if err := w.ProcessAnalyzeJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessAnalyzeJob: %v", err)
		}

		if len(q.jobs) != 1 {
			t.Fatalf("%d jobs enqueued, want 1", len(q.jobs))
		}
		requeued := q.jobs[0]
		if requeued.RetryCount != 1 {
			t.Errorf("retry count = %d, want 1", requeued.RetryCount)
		}
		if requeued.NotBefore == nil || !requeued.NotBefore.After(time.Now()) {
			t.Error("requeued job has no future NotBefore")
		}
		if st.puts != 0 {
			t.Errorf("collection written on failed analysis: %d puts", st.puts)
		}
	})

	t.Run("retries exhausted surfaces the error", func(t *testing.T) {
		t.Parallel()

		st := newFakeStore()
		st.collections["alice"] = []models.Assignment{staleAssignment("1")}

		analyzer := &fakeAnalyzer{err: &ai.APIError{StatusCode: 429}}
		q := &fakeQueue{}
		w := NewAssignmentAnalyzer(analyzer, st, q, zap.NewNop())

		job := queue.NewJob(queue.JobTypeAnalyzeAssignment, "alice", "1")
		job.RetryCount = job.MaxRetries
		if err := w.ProcessAnalyzeJob(context.Background(), job); err == nil {
			t.Error("expected error once retries are exhausted")
		}
		if len(q.jobs) != 0 {
			t.Errorf("%d jobs enqueued after retries exhausted", len(q.jobs))
		}
	})

	t.Run("deleted assignment is a no-op", func(t *testing.T) {
		t.Parallel()

		analyzer := &fakeAnalyzer{}
		w := NewAssignmentAnalyzer(analyzer, newFakeStore(), &fakeQueue{}, zap.NewNop())

		job := queue.NewJob(queue.JobTypeAnalyzeAssignment, "alice", "gone")
		if err := w.ProcessAnalyzeJob(context.Background(), job); err != nil {
			t.Errorf("ProcessAnalyzeJob: %v", err)
		}
		if analyzer.calls != 0 {
			t.Errorf("analyzer called %d times for missing assignment", analyzer.calls)
		}
	})
}

func TestEnqueueSweeps(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	st.collections["alice"] = []models.Assignment{freshAssignment("1")}
	st.collections["bob"] = []models.Assignment{freshAssignment("2")}
	q := &fakeQueue{}

	if err := EnqueueSweeps(context.Background(), st, q, zap.NewNop()); err != nil {
		t.Fatalf("EnqueueSweeps: %v", err)
	}

	if len(q.jobs) != 2 {
		t.Fatalf("%d jobs enqueued, want 2", len(q.jobs))
	}
	users := map[string]bool{}
	for _, job := range q.jobs {
		if job.Type != queue.JobTypeReassignUser {
			t.Errorf("job type = %q", job.Type)
		}
		users[job.UserKey] = true
	}
	if !users["alice"] || !users["bob"] {
		t.Errorf("swept users: %v", users)
	}
}
