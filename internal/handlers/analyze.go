package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/models"
	"github.com/stepwise/planner/internal/queue"
	"github.com/stepwise/planner/internal/schedule"
	"github.com/stepwise/planner/internal/services/ai"
	"github.com/stepwise/planner/internal/services/pdftext"
	"github.com/stepwise/planner/internal/store"
	"github.com/stepwise/planner/internal/validation"
)

const (
	// DefaultMaxUploadBytes caps uploaded PDF size (5MB)
	DefaultMaxUploadBytes int64 = 5 << 20
)

// AnalyzeHandler handles PDF upload and analysis requests
type AnalyzeHandler struct {
	analyzer  ai.Analyzer
	store     store.Store
	jobQueue  queue.JobQueue
	maxUpload int64
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyzeHandler creates a new analyze handler. jobQueue may be nil, in
// which case failed analyses are not retried in the background.
func NewAnalyzeHandler(analyzer ai.Analyzer, st store.Store, jobQueue queue.JobQueue, maxUpload int64, logger *zap.Logger) *AnalyzeHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &AnalyzeHandler{
		analyzer:  analyzer,
		store:     st,
		jobQueue:  jobQueue,
		maxUpload: maxUpload,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze accepts a multipart PDF upload plus a due date, extracts the text,
// asks the analyzer for a breakdown and stores the result. When the analyzer
// fails the canned fallback breakdown is stored instead and a retry job is
// enqueued.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userKey := r.URL.Query().Get("user")
	if userKey == "" {
		userKey = r.FormValue("user")
	}
	if userKey == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "user is required")
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Uploaded file exceeds the size limit")
		return
	}

	dueDate, ok := schedule.NormalizeDate(r.FormValue("dueDate"))
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid due date")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "PDF file is required")
		return
	}
	defer file.Close()

	if !isPDFUpload(header.Filename, header.Header.Get("Content-Type")) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Only PDF files are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUpload {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Uploaded file exceeds the size limit")
		return
	}

	text, err := pdftext.Extract(data)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Could not extract text from the PDF")
		return
	}
	text = validation.SanitizeText(text)

	now := h.now()
	analysis, analyzeErr := h.analyzer.AnalyzeAssignment(ctx, text, dueDate, now)
	if analyzeErr != nil {
		h.logger.Warn("assignment_analysis_failed",
			zap.Error(analyzeErr),
		)
		analysis = ai.FallbackAnalysis(dueDate, now)
	}

	assignment := models.Assignment{
		ID:           models.NewAssignmentID(now),
		OriginalText: text,
		DueDate:      dueDate,
		Analysis:     *analysis,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	assignment.EnsureStepIDs()
	if stepsNeedDates(assignment.Analysis.Steps) {
		assignment.Analysis.Steps = schedule.DistributeEvenly(assignment.Analysis.Steps, schedule.Today(now), dueDate)
	}

	assignments, err := h.store.Get(ctx, userKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load assignments")
		return
	}
	for _, existing := range assignments {
		if existing.Analysis.Title == assignment.Analysis.Title {
			// Same title means the same assignment was already analyzed;
			// return the stored copy instead of duplicating it
			respondJSON(w, http.StatusOK, existing)
			return
		}
	}

	assignments = append(assignments, assignment)
	if err := h.store.Put(ctx, userKey, assignments); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save assignment")
		return
	}

	if analyzeErr != nil && h.jobQueue != nil {
		job := queue.NewJob(queue.JobTypeAnalyzeAssignment, userKey, assignment.ID)
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			h.logger.Warn("failed_to_enqueue_analysis_retry",
				zap.String("assignment_id", assignment.ID),
				zap.Error(err),
			)
		} else {
			h.logger.Info("analysis_retry_enqueued",
				zap.String("assignment_id", assignment.ID),
				zap.String("job_id", job.ID.String()),
			)
		}
	}

	h.logger.Info("assignment_analyzed",
		zap.String("assignment_id", assignment.ID),
		zap.Int("step_count", len(assignment.Analysis.Steps)),
		zap.Bool("fallback", analyzeErr != nil),
	)

	respondJSON(w, http.StatusCreated, assignment)
}

// isPDFUpload accepts the upload when either the extension or the declared
// content type says PDF; browsers are inconsistent about which they set.
func isPDFUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(contentType, "application/pdf")
}
