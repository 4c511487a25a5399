package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Najnomics/lockedin-api/internal/payload"
	"github.com/Najnomics/lockedin-api/internal/usecase"
	"github.com/Najnomics/lockedin-api/internal/validation"
)

// UserHandler exposes the LockedIn HTTP API.
type UserHandler struct {
	userUsecase usecase.UserUsecase
	validator   *validation.Validator
	logger      *zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	userUsecase usecase.UserUsecase,
	validator *validation.Validator,
	logger *zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
		validator:   validator,
		logger:      logger,
	}
}

// Router builds the chi router for the /api surface.
func (h *UserHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.root)
		r.Post("/users/signup", h.signUp)
		r.Get("/users/{phone}", h.getUser)
		r.Put("/users/reminder-times", h.updateReminderTimes)
		r.Delete("/users/{phone}", h.deactivateUser)
		r.Get("/scheduler/jobs", h.listJobs)
		r.Post("/test/send-message", h.sendTestMessage)
	})

	return r
}

func (h *UserHandler) root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "LockedIn API is running! 🔒",
		"version": "1.0.0",
	})
}

func (h *UserHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req payload.SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.userUsecase.SignUp(r.Context(), usecase.SignUpParams{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Goals:         req.Goals,
		ReminderTimes: req.ReminderTimes,
		Timezone:      req.Timezone,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserAlreadyExists) {
			h.writeError(w, http.StatusConflict, "phone number already registered")
			return
		}
		h.logger.Error().Err(err).Msg("signup failed")
		h.writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.writeJSON(w, http.StatusCreated, payload.SignUpResponse{
		User:             result.User,
		WelcomeEmailSent: result.WelcomeEmailSent,
		WelcomeEmailErr:  result.WelcomeEmailErr,
		JobsScheduled:    result.JobsScheduled,
		SkippedPairs:     result.SkippedPairs,
		SchedulingErr:    result.SchedulingErr,
	})
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	user, err := h.userUsecase.GetUserByPhone(r.Context(), phone)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error().Err(err).Msg("get user failed")
		h.writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateReminderTimes(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateReminderTimesRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.userUsecase.UpdateReminderTimes(r.Context(), req.Phone, req.ReminderTimes)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, usecase.ErrNoReminderPairs):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error().Err(err).Msg("update reminder times failed")
			h.writeError(w, http.StatusInternalServerError, "something went wrong")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, payload.UpdateReminderTimesResponse{
		Message:       "Reminder times updated successfully",
		Status:        "success",
		JobsScheduled: report.JobsScheduled,
		SkippedPairs:  report.SkippedPairs,
	})
}

func (h *UserHandler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	if err := h.userUsecase.DeactivateUser(r.Context(), phone); err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error().Err(err).Msg("deactivate user failed")
		h.writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "User deactivated and reminders removed",
		"status":  "success",
	})
}

func (h *UserHandler) listJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := h.userUsecase.ListScheduledJobs()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *UserHandler) sendTestMessage(w http.ResponseWriter, r *http.Request) {
	var req payload.SendTestMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.userUsecase.SendTestMessage(r.Context(), req.Phone, req.Message); err != nil {
		h.logger.Error().Err(err).Msg("test message failed")
		h.writeError(w, http.StatusInternalServerError, "failed to send test message")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Test message sent successfully"})
}

// decode unmarshals and validates the request body, writing a 400 with
// per-field messages on failure.
func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: "invalid JSON body"})
		return false
	}

	if fields := h.validator.Struct(dst); fields != nil {
		h.writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
		return false
	}

	return true
}

func (h *UserHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, payload.ErrorResponse{Error: msg})
}

func (h *UserHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
