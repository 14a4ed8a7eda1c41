package httpapi

import (
	"net/http"
	"time"

	"github.com/DavidEng0805/web-final-re-exam/internal/cart"
	"github.com/DavidEng0805/web-final-re-exam/internal/invoice"
)

type InvoiceHandler struct {
	store *cart.Store
	now   func() time.Time
}

func NewInvoiceHandler(store *cart.Store) *InvoiceHandler {
	return &InvoiceHandler{
		store: store,
		now:   time.Now,
	}
}

type InvoiceResponse struct {
	invoice.Invoice
	TotalKHRFormatted string `json:"total_khr_formatted"`
}

// Get renders the invoice for the current cart. An empty cart is
// rejected; there is nothing to invoice.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if len(snap) == 0 {
		respondError(w, http.StatusConflict, "empty_cart", "the cart is empty")
		return
	}

	inv := invoice.Build(snap, h.now())
	respondJSON(w, http.StatusOK, InvoiceResponse{
		Invoice:           inv,
		TotalKHRFormatted: invoice.FormatKHR(inv.TotalKHR),
	})
}
