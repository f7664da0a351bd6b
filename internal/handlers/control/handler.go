package control

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/services/delta"
	"github.com/cfwarrior/tgbot/internal/core/services/tracker"
	"github.com/cfwarrior/tgbot/internal/handlers"
	"github.com/cfwarrior/tgbot/internal/handlers/response"
)

// ControlHandler handles operator API requests
type ControlHandler struct {
	trackerService tracker.ITrackerService
	deltaService   delta.IDeltaService
	logger         primary.Logger
	chatID         int64
}

// NewControlHandler creates a new control handler
func NewControlHandler(
	trackerService tracker.ITrackerService,
	deltaService delta.IDeltaService,
	logger primary.Logger,
	chatID int64,
) *ControlHandler {
	return &ControlHandler{
		trackerService: trackerService,
		deltaService:   deltaService,
		logger:         logger,
		chatID:         chatID,
	}
}

// RegisterRoutes registers the API routes for ControlHandler
func (h *ControlHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	protected := router.NewRoute().Subrouter()
	protected.Use(mw.SharedSecret)
	protected.HandleFunc("/", h.Reconcile).Methods("POST")
	protected.HandleFunc("/delta", h.TriggerDelta).Methods("POST")
}

// ReconcileRequest carries the full desired handle set.
type ReconcileRequest struct {
	Handles []string `json:"handles"`
}

// Reconcile handles tracked-handle replacement requests
func (h *ControlHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteFailure(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.trackerService.Reconcile(r.Context(), req.Handles); err != nil {
		h.logger.Error("Failed to reconcile handles", "error", err)
		response.WriteFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteSuccess(w)
}

// TriggerDeltaRequest optionally overrides the report's destination chat.
type TriggerDeltaRequest struct {
	ChatID int64 `json:"chat_id,omitempty"`
}

// TriggerDelta handles delta report requests. The report is built
// out-of-band; the call acknowledges acceptance, not delivery.
func (h *ControlHandler) TriggerDelta(w http.ResponseWriter, r *http.Request) {
	var req TriggerDeltaRequest
	if r.Body != nil {
		// An empty body means the default chat.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	chatID := req.ChatID
	if chatID == 0 {
		chatID = h.chatID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.deltaService.SendDeltaReport(ctx, chatID); err != nil {
			h.logger.Error("Failed to send delta report", "chatId", chatID, "error", err)
		}
	}()
	response.WriteSuccess(w)
}
