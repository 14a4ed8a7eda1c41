package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DavidEng0805/web-final-re-exam/internal/cart"
	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
	"github.com/DavidEng0805/web-final-re-exam/internal/pricing"
)

// ProductSource is the catalog collaborator as the handlers see it.
type ProductSource interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	Cached() []domain.Product
}

type CartHandler struct {
	store    *cart.Store
	products ProductSource
}

func NewCartHandler(store *cart.Store, products ProductSource) *CartHandler {
	return &CartHandler{
		store:    store,
		products: products,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type ChangeQtyRequestDTO struct {
	Delta int `json:"delta"`
}

// CartResponse is the cart snapshot plus its derived totals, recomputed
// on every render.
type CartResponse struct {
	Items      domain.Snapshot `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalUSD   float64         `json:"total_usd"`
	TotalKHR   int64           `json:"total_khr"`
}

func cartResponse(snap domain.Snapshot) CartResponse {
	return CartResponse{
		Items:      snap,
		TotalItems: pricing.TotalItems(snap),
		TotalUSD:   pricing.TotalUSD(snap),
		TotalKHR:   pricing.TotalKHR(snap),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.store.Snapshot()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, ok := h.findProduct(r.Context(), req.ProductID)
	if !ok {
		respondError(w, http.StatusNotFound, "product_not_found", "no such product in the catalog")
		return
	}

	h.store.Add(r.Context(), product)
	respondJSON(w, http.StatusCreated, cartResponse(h.store.Snapshot()))
}

func (h *CartHandler) ChangeQty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	var req ChangeQtyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero")
		return
	}

	h.store.ChangeQty(r.Context(), id, req.Delta)
	respondJSON(w, http.StatusOK, cartResponse(h.store.Snapshot()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	h.store.Remove(r.Context(), id)
	respondJSON(w, http.StatusOK, cartResponse(h.store.Snapshot()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(h.store.Snapshot()))
}

// findProduct resolves a product id against the catalog, falling back
// to the last fetched list when the feed is unreachable.
func (h *CartHandler) findProduct(ctx context.Context, id int64) (domain.Product, bool) {
	products, err := h.products.FetchProducts(ctx)
	if err != nil {
		log.Printf("catalog fetch failed, using cached products: %v", err)
		products = h.products.Cached()
	}

	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
