package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/services/digester"
	"github.com/cfwarrior/tgbot/internal/domain"
)

// WebhookHandler handles Telegram webhook requests
type WebhookHandler struct {
	digesterService digester.IDigesterService
	logger          primary.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(digesterService digester.IDigesterService, logger primary.Logger) *WebhookHandler {
	return &WebhookHandler{
		digesterService: digesterService,
		logger:          logger,
	}
}

// RegisterRoutes registers the API routes for WebhookHandler
func (h *WebhookHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhook", h.Digest).Methods("POST")
}

// Digest handles one Telegram update. Telegram redelivers updates on
// non-200 answers, so every outcome including failure answers empty 200;
// errors only reach the log.
func (h *WebhookHandler) Digest(w http.ResponseWriter, r *http.Request) {
	var update domain.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Error("Failed to decode update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.digesterService.Digest(r.Context(), &update); err != nil {
		h.logger.Error("Failed to digest update", "updateId", update.UpdateID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}
