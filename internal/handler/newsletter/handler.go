package newsletter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	newsletterService "github.com/orvn/orvi/backend/internal/service/newsletter"
	"github.com/orvn/orvi/backend/internal/store"
	"github.com/orvn/orvi/backend/pkg/utils"
)

// Handler serves the newsletter subscription endpoint.
type Handler struct {
	svc *newsletterService.Service
}

// New creates the newsletter handler.
func New(svc *newsletterService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the subscribe endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/newsletter/subscribe", h.handleSubscribe)
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "Email is required")
		return
	}

	err := h.svc.Subscribe(r.Context(), payload.Email)
	switch {
	case err == nil:
		utils.RespondMessage(w, http.StatusOK, "Subscribed successfully")
	case errors.Is(err, newsletterService.ErrEmailRequired):
		utils.RespondMessage(w, http.StatusBadRequest, "Email is required")
	case errors.Is(err, store.ErrAlreadySubscribed):
		utils.RespondMessage(w, http.StatusConflict, "Already subscribed")
	default:
		slog.Error("newsletter subscribe failed", "error", err)
		utils.RespondMessage(w, http.StatusInternalServerError, "Server error")
	}
}
