package httpapi

import (
	"log"
	"net/http"
	"strings"

	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
)

type ProductHandler struct {
	products ProductSource
}

func NewProductHandler(products ProductSource) *ProductHandler {
	return &ProductHandler{products: products}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// Get lists catalog products, optionally filtered by display category
// and a case-insensitive title search term. A catalog fetch failure is
// logged and the previously fetched list is served instead.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.FetchProducts(r.Context())
	if err != nil {
		log.Printf("catalog fetch failed, serving cached products: %v", err)
		products = h.products.Cached()
	}

	category := r.URL.Query().Get("category")
	term := strings.ToLower(r.URL.Query().Get("q"))

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Title), term) {
			continue
		}
		filtered = append(filtered, p)
	}

	respondJSON(w, http.StatusOK, ProductsResponse{Products: filtered})
}
