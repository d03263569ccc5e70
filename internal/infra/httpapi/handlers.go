package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"performance_review_service/internal/app"
	"performance_review_service/internal/domain/cycle"
	"performance_review_service/internal/domain/notification"
	"performance_review_service/internal/domain/review"
	idb "performance_review_service/internal/infra/database"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler exposes the application services over REST. It owns no business
// rules: parse, delegate, map errors to status codes.
type Handler struct {
	cycleService    *app.CycleService
	reviewService   *app.ReviewService
	reminderService *app.ReminderService
	notifRepo       notification.Repository
	logger          *logrus.Logger
}

func NewHandler(
	cs *app.CycleService,
	rs *app.ReviewService,
	rms *app.ReminderService,
	nr notification.Repository,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		cycleService:    cs,
		reviewService:   rs,
		reminderService: rms,
		notifRepo:       nr,
		logger:          logger,
	}
}

type answerPayload struct {
	QuestionID int64  `json:"questionId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func toAnswers(payload []answerPayload) []review.Answer {
	answers := make([]review.Answer, 0, len(payload))
	for _, p := range payload {
		answers = append(answers, review.Answer{QuestionID: p.QuestionID, Rating: p.Rating, Comment: p.Comment})
	}
	return answers
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error              string  `json:"error"`
	InvalidEmployeeIDs []int64 `json:"invalidEmployeeIds,omitempty"`
}

// writeServiceError maps service errors onto status codes without leaking
// internal storage errors verbatim.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var missing *app.MissingManagersError
	var rating *app.RatingRangeError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), InvalidEmployeeIDs: missing.EmployeeIDs})
	case errors.As(err, &rating), errors.Is(err, app.ErrNoAnswers):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrNotReviewActor):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrInvalidReviewState),
		errors.Is(err, app.ErrCycleHasReviews),
		errors.Is(err, app.ErrCycleInactive):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, idb.ErrReviewNotFound),
		errors.Is(err, idb.ErrCycleNotFound),
		errors.Is(err, idb.ErrEmployeeNotFound),
		errors.Is(err, idb.ErrTemplateNotFound),
		errors.Is(err, idb.ErrNotificationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.Errorf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
}

// --- Cycle management ---

type createCycleRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Frequency           string   `json:"frequency"`
	StartDate           string   `json:"startDate"` // YYYY-MM-DD
	DueDate             string   `json:"dueDate"`   // YYYY-MM-DD, optional
	IncludeAllEmployees bool     `json:"includeAllEmployees"`
	Departments         []string `json:"departments"`
	TemplateID          int64    `json:"templateId"`
}

func (h *Handler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	var req createCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "startDate must be YYYY-MM-DD"})
		return
	}
	input := app.CreateCycleInput{
		Name:                req.Name,
		Description:         req.Description,
		Frequency:           cycle.Frequency(req.Frequency),
		StartDate:           start,
		IncludeAllEmployees: req.IncludeAllEmployees,
		Departments:         req.Departments,
		TemplateID:          req.TemplateID,
		CreatedBy:           actor,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "dueDate must be YYYY-MM-DD"})
			return
		}
		input.DueDate = &due
	}
	c, err := h.cycleService.CreateCycle(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type renameCycleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) RenameCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}
	var req renameCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	c, err := h.cycleService.Rename(r.Context(), id, req.Name, req.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}
	if err := h.cycleService.DeleteCycle(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCycleActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}
	c, err := h.cycleService.SetActive(r.Context(), id, active)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ActivateCycle(w http.ResponseWriter, r *http.Request) {
	h.setCycleActive(w, r, true)
}

func (h *Handler) DeactivateCycle(w http.ResponseWriter, r *http.Request) {
	h.setCycleActive(w, r, false)
}

func (h *Handler) RunCycleNow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}
	res, err := h.cycleService.RunCycleNow(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SendCycleReminders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}
	res, err := h.reminderService.SendCycleReminders(r.Context(), id, time.Now())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Review workflow ---

func (h *Handler) reviewAction(w http.ResponseWriter, r *http.Request, action func(reviewID, actorID int64, answers []review.Answer) error) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid review id"})
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	var payload []answerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := action(id, actor, toAnswers(payload)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitEmployeeResponses(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(reviewID, actor int64, answers []review.Answer) error {
		return h.reviewService.SubmitEmployeeResponses(r.Context(), reviewID, actor, answers)
	})
}

func (h *Handler) SubmitManagerResponses(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(reviewID, actor int64, answers []review.Answer) error {
		return h.reviewService.SubmitManagerResponses(r.Context(), reviewID, actor, answers)
	})
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(reviewID, actor int64, answers []review.Answer) error {
		return h.reviewService.SaveDraft(r.Context(), reviewID, actor, answers)
	})
}

func (h *Handler) ReviewForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid review id"})
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	form, err := h.reviewService.Form(r.Context(), id, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// --- Notifications ---

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	notifications, err := h.notifRepo.ListByUser(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid notification id"})
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	if err := h.notifRepo.MarkRead(r.Context(), id, actor); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid notification id"})
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	if err := h.notifRepo.Delete(r.Context(), id, actor); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
