package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/service/assessment"
)

// AssessmentHandler serves attempts, results, reviews, history, curricula
// and analytics for the authenticated user.
type AssessmentHandler struct {
	service assessment.Service
	logger  *slog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(service assessment.Service, log *slog.Logger) *AssessmentHandler {
	if service == nil {
		panic("assessment service cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if log == nil {
		log = slog.Default()
	}
	return &AssessmentHandler{
		service: service,
		logger:  log.With(slog.String("component", "assessment_handler")),
	}
}

// RecordAttempt handles POST /api/attempts.
func (h *AssessmentHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req AttemptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	score, ok := rawScore(req.Score)
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "score must be a number or a numeric string")
		return
	}

	outcome, err := h.service.RecordAttempt(r.Context(), userID, assessment.AttemptInput{
		ConceptID:       req.ConceptID,
		ConceptLabel:    req.ConceptLabel,
		KnowledgeBaseID: req.KnowledgeBaseID,
		Context:         req.Context,
		Question:        req.Question,
		Answer:          req.Answer,
		RawScore:        score,
		Feedback:        req.Feedback,
	})
	if err != nil {
		var writeErr *assessment.RecordWriteError
		if errors.As(err, &writeErr) {
			h.respondRecordWriteError(w, r, writeErr)
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	if outcome.HistoryPending {
		logFrom(r, h.logger).Warn("attempt stored with history append pending",
			slog.String("concept_id", outcome.Record.ConceptID))
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AttemptResponse{
		Result:         &assessment.ResultView{ScheduleRecord: outcome.Record, Tier: outcome.Tier},
		Entry:          outcome.Entry,
		HistoryPending: outcome.HistoryPending,
	})
}

func (h *AssessmentHandler) respondRecordWriteError(
	w http.ResponseWriter,
	r *http.Request,
	writeErr *assessment.RecordWriteError,
) {
	shared.LogError(r, http.StatusInternalServerError, "Failed to store result", writeErr)
	shared.RespondWithJSON(w, r, http.StatusInternalServerError, RecordWriteErrorResponse{
		Error:   "Failed to store result",
		TraceID: shared.GetTraceID(r.Context()),
		Record:  writeErr.Record,
	})
}

// Results handles GET /api/results?kb=.
func (h *AssessmentHandler) Results(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	results, err := h.service.Results(r.Context(), userID, r.URL.Query().Get("kb"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newListResponse(results))
}

// Result handles GET /api/results/{conceptID}.
func (h *AssessmentHandler) Result(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conceptID, ok := conceptParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.Result(r.Context(), userID, conceptID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// DueItems handles GET /api/reviews/due?kb=&order=.
func (h *AssessmentHandler) DueItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	due, err := h.service.DueItems(r.Context(), userID, q.Get("kb"), srs.ParseReviewOrder(q.Get("order")))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newListResponse(due))
}

// Postpone handles POST /api/results/{conceptID}/postpone.
func (h *AssessmentHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conceptID, ok := conceptParam(w, r)
	if !ok {
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Postpone(r.Context(), userID, conceptID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// History handles GET /api/history.
func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newListResponse(entries))
}

// SaveCurriculum handles PUT /api/knowledge-bases/{kbID}/curriculum.
func (h *AssessmentHandler) SaveCurriculum(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CurriculumRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c := &domain.Curriculum{
		KnowledgeBaseID: chi.URLParam(r, "kbID"),
		Title:           req.Title,
		Modules:         req.Modules,
	}
	if err := h.service.SaveCurriculum(r.Context(), userID, c); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, c)
}

// LearningPath handles GET /api/knowledge-bases/{kbID}/path.
func (h *AssessmentHandler) LearningPath(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	path, err := h.service.LearningPath(r.Context(), userID, chi.URLParam(r, "kbID"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, path)
}

// Analytics handles GET /api/analytics?kb=.
func (h *AssessmentHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Analytics(r.Context(), userID, r.URL.Query().Get("kb"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, a)
}

func conceptParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	conceptID := chi.URLParam(r, "conceptID")
	if err := domain.ValidateConceptID(conceptID); err != nil {
		HandleAPIError(w, r, err, "")
		return "", false
	}
	return conceptID, true
}
