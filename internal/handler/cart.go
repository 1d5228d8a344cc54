package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/marine-storefront/internal/domain/cart"
)

type cartResponse struct {
	Items      []cart.Item      `json:"items"`
	TotalItems int              `json:"totalItems"`
	Estimate   estimateResponse `json:"estimate"`
}

type estimateResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Unpriced []string        `json:"unpriced"`
}

type addItemRequest struct {
	ID       string `json:"id" validate:"required,max=128"`
	Name     string `json:"name" validate:"required"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=1000000"`
	Unit     string `json:"unit" validate:"required,oneof=piece set pair"`
}

type updateItemRequest struct {
	// Zero or negative removes the line.
	Quantity *int `json:"quantity" validate:"required,max=1000000"`
}

// writeCart responds with the cart contents taken from a single snapshot so
// items and totals agree.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, status int) {
	items := h.cart.Items()
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	est := cart.EstimateTotal(items)

	resp := cartResponse{
		Items:      items,
		TotalItems: total,
		Estimate: estimateResponse{
			Subtotal: est.Subtotal,
			Unpriced: est.Unpriced,
		},
	}
	if resp.Items == nil {
		resp.Items = []cart.Item{}
	}
	if resp.Estimate.Unpriced == nil {
		resp.Estimate.Unpriced = []string{}
	}
	respondJSON(w, r, status, resp)
}

// GetCart returns the cart lines, the total quantity and a price estimate.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, http.StatusOK)
}

// AddItem adds a line or grows the quantity of an existing one.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	item := cart.Item{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Image:    req.Image,
		Quantity: req.Quantity,
		Unit:     cart.Unit(req.Unit),
	}
	if err := h.cart.Add(r.Context(), item); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	zctx.From(r.Context()).Debug("Cart item added",
		zap.String("item_id", item.ID),
		zap.Int("quantity", item.Quantity),
	)
	h.writeCart(w, r, http.StatusOK)
}

// UpdateItem sets the quantity of a line. Unknown ids leave the cart as is.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.cart.UpdateQuantity(r.Context(), id, *req.Quantity); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.writeCart(w, r, http.StatusOK)
}

// RemoveItem deletes a line. Unknown ids leave the cart as is.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.cart.Remove(r.Context(), chi.URLParam(r, "id"))
	h.writeCart(w, r, http.StatusOK)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	h.writeCart(w, r, http.StatusOK)
}
