package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/models"
	"github.com/stepwise/planner/internal/schedule"
	"github.com/stepwise/planner/internal/store"
	"github.com/stepwise/planner/internal/validation"
)

// AssignmentHandler handles assignment collection requests
type AssignmentHandler struct {
	store    store.Store
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(st store.Store, capacity int, logger *zap.Logger) *AssignmentHandler {
	if capacity <= 0 {
		capacity = schedule.DefaultDailyCapacity
	}
	return &AssignmentHandler{
		store:    st,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterRoutes registers assignment routes on the given router.
// The router should already have the /assignments prefix.
func (h *AssignmentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{user}", h.ListAssignments).Methods("GET")
	r.HandleFunc("/{user}", h.CreateAssignment).Methods("POST")
	r.HandleFunc("/{user}/{id}", h.ToggleStep).Methods("PUT")
	r.HandleFunc("/{user}/{id}/reassign", h.ReassignAssignment).Methods("PUT")
	r.HandleFunc("/{user}/{id}", h.DeleteAssignment).Methods("DELETE")
}

// CreateAssignmentRequest represents a create assignment request carrying an
// externally produced analysis
type CreateAssignmentRequest struct {
	OriginalText string          `json:"originalText"`
	DueDate      string          `json:"dueDate" validate:"required"`
	Analysis     models.Analysis `json:"analysis"`
}

// ToggleStepRequest identifies one step and its new completion state
type ToggleStepRequest struct {
	StepID    uuid.UUID `json:"stepId" validate:"required"`
	Completed bool      `json:"completed"`
}

// ListAssignments lists a user's assignments. Stale incomplete steps are
// rolled forward through the reassignment engine before rendering, and the
// collection is persisted when the sweep moved anything.
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	userKey := mux.Vars(r)["user"]
	ctx := r.Context()

	assignments, err := h.store.Get(ctx, userKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load assignments")
		return
	}

	swept, changed := schedule.RollForward(assignments, h.now(), h.capacity)
	if changed {
		if err := h.store.Put(ctx, userKey, swept); err != nil {
			// Serve the swept view anyway; the next request retries the write
			h.logger.Warn("failed_to_persist_rolled_forward_collection",
				zap.Error(err),
			)
		}
	}

	respondJSON(w, http.StatusOK, swept)
}

// CreateAssignment adds an externally analyzed assignment to the collection
func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	userKey := mux.Vars(r)["user"]
	ctx := r.Context()

	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Analysis.Title = validation.SanitizeText(req.Analysis.Title)
	if req.Analysis.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Analysis title is required")
		return
	}

	dueDate, ok := schedule.NormalizeDate(req.DueDate)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid due date")
		return
	}

	assignments, err := h.store.Get(ctx, userKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load assignments")
		return
	}
	for _, a := range assignments {
		if a.Analysis.Title == req.Analysis.Title {
			respondJSONError(w, http.StatusConflict, "Conflict", "An assignment with this title already exists")
			return
		}
	}

	now := h.now()
	assignment := models.Assignment{
		ID:           models.NewAssignmentID(now),
		OriginalText: req.OriginalText,
		DueDate:      dueDate,
		Analysis:     req.Analysis,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if assignment.Analysis.DueDate == "" {
		assignment.Analysis.DueDate = dueDate
	}
	assignment.EnsureStepIDs()

	// Steps that arrive undated get spread across the remaining window
	if stepsNeedDates(assignment.Analysis.Steps) {
		assignment.Analysis.Steps = schedule.DistributeEvenly(assignment.Analysis.Steps, schedule.Today(now), dueDate)
	}

	assignments = append(assignments, assignment)
	if err := h.store.Put(ctx, userKey, assignments); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save assignment")
		return
	}

	h.logger.Info("assignment_created",
		zap.String("assignment_id", assignment.ID),
		zap.Int("step_count", len(assignment.Analysis.Steps)),
	)

	respondJSON(w, http.StatusCreated, assignment)
}

// ToggleStep sets one step's completion state and returns the full updated
// assignment so the client can reconcile its optimistic copy.
func (h *AssignmentHandler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userKey := vars["user"]
	assignmentID := vars["id"]
	ctx := r.Context()

	var req ToggleStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if req.StepID == uuid.Nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "stepId is required")
		return
	}

	assignments, err := h.store.Get(ctx, userKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load assignments")
		return
	}

	idx := indexOfAssignment(assignments, assignmentID)
	if idx < 0 {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Assignment not found")
		return
	}

	step := assignments[idx].Analysis.StepByID(req.StepID)
	if step == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Step not found")
		return
	}

	step.SetCompleted(req.Completed)
	assignments[idx].UpdatedAt = h.now()

	if err := h.store.Put(ctx, userKey, assignments); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save assignment")
		return
	}

	respondJSON(w, http.StatusOK, assignments[idx])
}

// ReassignAssignment runs an explicit reassignment pass on one assignment
func (h *AssignmentHandler) ReassignAssignment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userKey := vars["user"]
	assignmentID := vars["id"]
	ctx := r.Context()

	assignments, err := h.store.Get(ctx, userKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load assignments")
		return
	}

	idx := indexOfAssignment(assignments, assignmentID)
	if idx < 0 {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Assignment not found")
		return
	}

	now := h.now()
	due := assignments[idx].Analysis.DueDate
	if due == "" {
		due = assignments[idx].DueDate
	}
	assignments[idx].Analysis.Steps = schedule.ReassignIncompleteCapacity(assignments[idx].Analysis.Steps, due, now, h.capacity)
	assignments[idx].UpdatedAt = now

	if err := h.store.Put(ctx, userKey, assignments); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save assignment")
		return
	}

	respondJSON(w, http.StatusOK, assignments[idx])
}

// DeleteAssignment removes one assignment from the collection
func (h *AssignmentHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userKey := vars["user"]
	assignmentID := vars["id"]
	ctx := r.Context()

	assignments, err := h.store.Get(ctx, userKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load assignments")
		return
	}

	idx := indexOfAssignment(assignments, assignmentID)
	if idx < 0 {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Assignment not found")
		return
	}

	remaining := append(assignments[:idx:idx], assignments[idx+1:]...)
	if err := h.store.Put(ctx, userKey, remaining); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete assignment")
		return
	}

	h.logger.Info("assignment_deleted",
		zap.String("assignment_id", assignmentID),
	)

	respondJSON(w, http.StatusOK, map[string]string{"id": assignmentID})
}

func indexOfAssignment(assignments []models.Assignment, id string) int {
	for i := range assignments {
		if assignments[i].ID == id {
			return i
		}
	}
	return -1
}

func stepsNeedDates(steps []models.Step) bool {
	for _, s := range steps {
		if s.AssignedDate == "" {
			return true
		}
	}
	return false
}
