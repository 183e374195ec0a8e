package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestacom/go-stock-orders/internal/catalog"
)

// CatalogService is what the product endpoints need from the catalog layer.
type CatalogService interface {
	List(ctx context.Context, q catalog.Search) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
	Refresh(ctx context.Context) (catalog.SyncResult, error)
}

type ProductsHandler struct {
	Catalog CatalogService
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Patch("/products/{id}", h.patch)
	r.Delete("/products/{id}", h.delete)
	r.Post("/products/refresh", h.refresh)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := catalog.Search{
		Name:      r.URL.Query().Get("name"),
		Reference: r.URL.Query().Get("reference"),
	}
	ps, err := h.Catalog.List(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productReq struct {
	Reference     *string `json:"reference"`
	Name          *string `json:"name"`
	PurchaseCents *int64  `json:"purchase_cents"`
	SaleCents     *int64  `json:"sale_cents"`
	Stock         *int    `json:"stock"`
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if (req.Stock != nil && *req.Stock < 0) ||
		(req.PurchaseCents != nil && *req.PurchaseCents < 0) ||
		(req.SaleCents != nil && *req.SaleCents < 0) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock and prices must not be negative"})
		return
	}

	var p catalog.Product
	applyProductReq(&p, req)
	out, err := h.Catalog.Create(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *ProductsHandler) patch(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if (req.Stock != nil && *req.Stock < 0) ||
		(req.PurchaseCents != nil && *req.PurchaseCents < 0) ||
		(req.SaleCents != nil && *req.SaleCents < 0) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock and prices must not be negative"})
		return
	}

	p, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	applyProductReq(&p, req)
	out, err := h.Catalog.Update(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func applyProductReq(p *catalog.Product, req productReq) {
	if req.Reference != nil {
		p.Reference = *req.Reference
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.PurchaseCents != nil {
		p.PurchaseCents = *req.PurchaseCents
	}
	if req.SaleCents != nil {
		p.SaleCents = *req.SaleCents
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.Refresh(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
