package domain

// Product is a catalog record. The catalog source owns it; the cart only
// ever stores a copy, so mutating a Product after adding it does not
// change what the cart holds.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
}

// LineItem is a product plus the quantity held in the cart. At most one
// line item exists per product id, and Qty is >= 1 while the item is
// present. An item whose quantity drops to zero is deleted, never kept.
type LineItem struct {
	Product
	Qty int `json:"qty"`
}

// Snapshot is an insertion-ordered, read-only view of the cart at a
// point in time. Consumers must not use it to mutate cart state.
type Snapshot []LineItem
