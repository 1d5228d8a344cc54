// Package handler exposes the cart, site settings and service catalog over
// HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/marine-storefront/internal/domain/cart"
	"github.com/xenking/marine-storefront/internal/domain/catalog"
	"github.com/xenking/marine-storefront/internal/domain/settings"
	"github.com/xenking/marine-storefront/pkg/httpmiddleware"
)

// maxBodyBytes caps request payloads. Cart lines are small.
const maxBodyBytes = 64 << 10

// Handler serves the storefront API on top of the domain components.
type Handler struct {
	cart     *cart.Store
	settings *settings.Accessor
	catalog  catalog.Source
	validate *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(store *cart.Store, accessor *settings.Accessor, source catalog.Source) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		cart:     store,
		settings: accessor,
		catalog:  source,
		validate: validate,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Patch("/items/{id}", h.UpdateItem)
			r.Delete("/items/{id}", h.RemoveItem)
		})

		r.Get("/site-settings", h.GetSettings)
		r.Post("/site-settings/reload", h.ReloadSettings)

		r.Get("/services", h.ListServices)
		r.Get("/services/{id}", h.GetService)
	})
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	// RequestID lets clients quote the failing request.
	RequestID string `json:"requestId,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Warn("Failed to write response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, errorResponse{
		Code:      status,
		Message:   msg,
		RequestID: httpmiddleware.RequestIDFromContext(r.Context()),
	})
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// On failure it writes the 400 response itself and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	lg := zctx.From(r.Context())

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		lg.Debug("Invalid request body", zap.Error(err))
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			lg.Error("Validate request", zap.Error(err))
			respondError(w, r, http.StatusBadRequest, "invalid request body")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on rule: " + fe.Tag()
		}
		lg.Debug("Request validation failed", zap.Any("fields", fields))
		respondJSON(w, r, http.StatusBadRequest, errorResponse{
			Code:      http.StatusBadRequest,
			Message:   "validation failed",
			Fields:    fields,
			RequestID: httpmiddleware.RequestIDFromContext(r.Context()),
		})
		return false
	}
	return true
}
