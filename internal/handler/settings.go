package handler

import (
	"net/http"

	"github.com/xenking/marine-storefront/internal/domain/settings"
)

type settingsResponse struct {
	Settings settings.SiteSettings `json:"settings"`
	Loading  bool                  `json:"loading"`
	Error    *string               `json:"error"`
}

func (h *Handler) writeSettings(w http.ResponseWriter, r *http.Request) {
	state := h.settings.State()
	resp := settingsResponse{
		Settings: state.Settings,
		Loading:  state.Loading,
	}
	if state.Error != "" {
		resp.Error = &state.Error
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// GetSettings returns the current site settings. Until the first remote
// fetch settles the hardcoded defaults are served with loading set.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeSettings(w, r)
}

// ReloadSettings fetches the settings again and returns the resulting state.
// A failed fetch still answers 200; the error is part of the state.
func (h *Handler) ReloadSettings(w http.ResponseWriter, r *http.Request) {
	h.settings.Reload(r.Context())
	h.writeSettings(w, r)
}
