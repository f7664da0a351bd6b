package tasks

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/core/services/verification"
	"github.com/cfwarrior/tgbot/internal/handlers"
	"github.com/cfwarrior/tgbot/internal/handlers/response"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

// TaskHandler handles scheduled task callbacks
type TaskHandler struct {
	verificationService verification.IVerificationService
	bindingRepo         secondary.BindingRepository
	notifier            secondary.Notifier
	logger              primary.Logger
	chatID              int64
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	verificationService verification.IVerificationService,
	bindingRepo secondary.BindingRepository,
	notifier secondary.Notifier,
	logger primary.Logger,
	chatID int64,
) *TaskHandler {
	return &TaskHandler{
		verificationService: verificationService,
		bindingRepo:         bindingRepo,
		notifier:            notifier,
		logger:              logger,
		chatID:              chatID,
	}
}

// RegisterRoutes registers the API routes for TaskHandler
func (h *TaskHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	protected := router.PathPrefix("/tasks").Subrouter()
	protected.Use(mw.TaskToken)
	protected.HandleFunc("/"+string(secondary.TaskVerifyHandle), h.VerifyHandle).Methods("POST")
	protected.HandleFunc("/"+string(secondary.TaskDeclineJoinRequest), h.DeclineJoinRequest).Methods("POST")
}

// VerifyHandle runs one verification re-check
func (h *TaskHandler) VerifyHandle(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.TaskUserID(r)
	if !ok {
		response.WriteFailure(w, http.StatusBadRequest, "Missing user id")
		return
	}

	err := h.verificationService.Check(r.Context(), userID)
	if errors.Is(err, errs.NoPendingVerification) {
		// Stale callback, the verification already resolved.
		response.WriteSuccess(w)
		return
	}
	if err != nil {
		h.logger.Error("Verification check failed", "userId", userID, "error", err)
		response.WriteFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteSuccess(w)
}

// DeclineJoinRequest declines an unverified member's join request
func (h *TaskHandler) DeclineJoinRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.TaskUserID(r)
	if !ok {
		response.WriteFailure(w, http.StatusBadRequest, "Missing user id")
		return
	}

	binding, err := h.bindingRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to look up binding", "userId", userID, "error", err)
		response.WriteFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	if binding != nil {
		// Verified during the grace period, the join request is already
		// approved.
		response.WriteSuccess(w)
		return
	}

	if err := h.notifier.DeclineJoinRequest(r.Context(), h.chatID, userID); err != nil {
		h.logger.Warn("Failed to decline join request", "userId", userID, "error", err)
	}
	response.WriteSuccess(w)
}
