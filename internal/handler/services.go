package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/marine-storefront/internal/domain/catalog"
)

// ListServices returns the service list from the admin API.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListServices(r.Context())
	if err != nil {
		zctx.From(r.Context()).Warn("List services", zap.Error(err))
		respondError(w, r, http.StatusBadGateway, "failed to load services")
		return
	}
	if list == nil {
		list = []catalog.Summary{}
	}
	respondJSON(w, r, http.StatusOK, list)
}

// GetService returns the full record of one service.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	svc, err := h.catalog.GetService(r.Context(), id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "service not found")
		return
	case err != nil:
		zctx.From(r.Context()).Warn("Get service", zap.String("service_id", id), zap.Error(err))
		respondError(w, r, http.StatusBadGateway, "failed to load service")
		return
	}
	respondJSON(w, r, http.StatusOK, svc)
}
