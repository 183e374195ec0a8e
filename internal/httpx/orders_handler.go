package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestacom/go-stock-orders/internal/orders"
)

type OrderStore interface {
	Create(ctx context.Context, customerName string) (orders.Order, error)
	Get(ctx context.Context, id string) (orders.View, error)
	List(ctx context.Context) ([]orders.View, error)
	UpdateCustomer(ctx context.Context, id, customerName string) (orders.Order, error)
}

type StockEngine interface {
	AddOrSetLine(ctx context.Context, orderID, productID string, qty int) error
	ResizeLine(ctx context.Context, orderID, productID string, qty int) error
	RemoveLine(ctx context.Context, orderID, productID string) error
	ClearLines(ctx context.Context, orderID string) error
	DeleteOrder(ctx context.Context, orderID string) error
}

type OrderValidator interface {
	Validate(ctx context.Context, orderID string) (orders.ValidationOutcome, error)
}

type OrdersHandler struct {
	Store     OrderStore
	Engine    StockEngine
	Validator OrderValidator
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/{id}", h.get)
	r.Patch("/orders/{id}", h.patch)
	r.Delete("/orders/{id}", h.delete)

	r.Post("/orders/{id}/validate", h.validate)
	r.Post("/orders/{id}/add_product", h.addProduct)
	r.Delete("/orders/{id}/remove_product", h.removeProduct)
	r.Put("/orders/{id}/update_product_quantity", h.updateQuantity)
	r.Post("/orders/{id}/clear_products", h.clearProducts)
}

type createOrderReq struct {
	CustomerName string `json:"customer_name"`
}

type lineReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Store.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}
	o, err := h.Store.Create(r.Context(), req.CustomerName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type patchOrderReq struct {
	CustomerName *string `json:"customer_name"`
	Status       *string `json:"status"`
}

// patch updates the customer name; a status patch to VALIDATED routes through
// the validation state machine instead of writing the column directly.
func (h *OrdersHandler) patch(w http.ResponseWriter, r *http.Request) {
	var req patchOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	id := chi.URLParam(r, "id")

	if req.Status != nil {
		if orders.Status(*req.Status) != orders.StatusValidated {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status can only be set to VALIDATED"})
			return
		}
		out, err := h.Validator.Validate(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	if req.CustomerName == nil || *req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to update"})
		return
	}
	o, err := h.Store.UpdateCustomer(r.Context(), id, *req.CustomerName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) validate(w http.ResponseWriter, r *http.Request) {
	out, err := h.Validator.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLineReq(w, r)
	if !ok {
		return
	}
	if err := h.Engine.AddOrSetLine(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product added to order"})
}

func (h *OrdersHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLineReq(w, r)
	if !ok {
		return
	}
	if err := h.Engine.ResizeLine(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "quantity updated"})
}

func (h *OrdersHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	var req lineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id is required"})
		return
	}
	if err := h.Engine.RemoveLine(r.Context(), chi.URLParam(r, "id"), req.ProductID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product removed from order"})
}

func (h *OrdersHandler) clearProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.ClearLines(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all products removed, stock restored"})
}

func decodeLineReq(w http.ResponseWriter, r *http.Request) (lineReq, bool) {
	var req lineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id is required"})
		return req, false
	}
	return req, true
}
