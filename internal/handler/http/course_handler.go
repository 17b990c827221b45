package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/stake-calculator-service/internal/course"
	"github.com/cypherlabdev/stake-calculator-service/internal/service"
)

// CourseHandler handles HTTP requests for the curriculum, lesson progress and the quiz
type CourseHandler struct {
	responder
	service *service.CourseService
}

// NewCourseHandler creates a new course HTTP handler
func NewCourseHandler(service *service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		responder: responder{logger: logger.With().Str("component", "course_handler").Logger()},
		service:   service,
	}
}

// RegisterRoutes registers the course and quiz routes on r
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/course", func(r chi.Router) {
		r.Get("/weeks", h.handleWeeks)
		r.Get("/weeks/{week}", h.handleWeek)
		r.Post("/lessons/{lessonID}/toggle", h.handleToggleLesson)
		r.Get("/progress", h.handleProgress)
	})

	r.Route("/api/v1/quiz", func(r chi.Router) {
		r.Get("/", h.handleQuizState)
		r.Post("/answer", h.handleQuizAnswer)
		r.Post("/next", h.handleQuizNext)
		r.Post("/reset", h.handleQuizReset)
	})
}

// handleWeeks handles GET /api/v1/course/weeks
func (h *CourseHandler) handleWeeks(w http.ResponseWriter, r *http.Request) {
	weeks := h.service.Weeks()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count": len(weeks),
		"weeks": weeks,
	})
}

// handleWeek handles GET /api/v1/course/weeks/{week}
func (h *CourseHandler) handleWeek(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "week must be a number")
		return
	}

	week, err := h.service.Week(number)
	if err != nil {
		h.writeCourseError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, week)
}

// handleToggleLesson handles POST /api/v1/course/lessons/{lessonID}/toggle
func (h *CourseHandler) handleToggleLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.Atoi(chi.URLParam(r, "lessonID"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "lesson id must be a number")
		return
	}

	completed, progress, err := h.service.ToggleLesson(lessonID)
	if err != nil {
		h.writeCourseError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"lesson_id": lessonID,
		"completed": completed,
		"progress":  progress,
	})
}

// handleProgress handles GET /api/v1/course/progress
func (h *CourseHandler) handleProgress(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.service.Progress())
}

// handleQuizState handles GET /api/v1/quiz
func (h *CourseHandler) handleQuizState(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.service.QuizState())
}

// AnswerRequest is the body of POST /api/v1/quiz/answer
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// handleQuizAnswer handles POST /api/v1/quiz/answer
func (h *CourseHandler) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answer == "" {
		h.writeCourseError(w, course.ErrNoAnswerSelected)
		return
	}

	res, err := h.service.AnswerQuiz(req.Answer)
	if err != nil {
		h.writeCourseError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, res)
}

// handleQuizNext handles POST /api/v1/quiz/next
func (h *CourseHandler) handleQuizNext(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.NextExercise()
	if err != nil {
		h.writeCourseError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, state)
}

// handleQuizReset handles POST /api/v1/quiz/reset
func (h *CourseHandler) handleQuizReset(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.service.ResetQuiz())
}

// writeCourseError maps course errors onto HTTP status codes
func (h *CourseHandler) writeCourseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrWeekNotFound), errors.Is(err, course.ErrLessonNotFound):
		h.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, course.ErrNoAnswerSelected), errors.Is(err, course.ErrInvalidOption):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, course.ErrAlreadySubmitted), errors.Is(err, course.ErrNotSubmitted):
		h.errorResponse(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("course request failed")
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}
