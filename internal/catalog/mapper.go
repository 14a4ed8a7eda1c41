package catalog

import "github.com/DavidEng0805/web-final-re-exam/internal/domain"

// Storefront display categories. The upstream feed uses its own labels;
// mapProduct translates them into this closed set.
const (
	CategoryMakeUp    = "Make Up"
	CategoryFood      = "Food"
	CategoryFurniture = "Furniture"
)

// PlaceholderThumbnail is substituted when a record carries no image.
const PlaceholderThumbnail = "https://via.placeholder.com/300x300?text=No+Image"

var categoryByFeedLabel = map[string]string{
	"skincare":   CategoryMakeUp,
	"fragrances": CategoryMakeUp,
	"groceries":  CategoryFood,
	"furniture":  CategoryFurniture,
}

// rawProduct is the record shape the upstream feed returns.
type rawProduct struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Thumbnail   string  `json:"thumbnail"`
}

type productsPayload struct {
	Products []rawProduct `json:"products"`
}

// mapProduct converts a raw feed record into the Product the rest of
// the system uses. Unrecognized feed categories fall back to Make Up,
// missing thumbnails get the placeholder, and a negative price is
// clamped to zero.
func mapProduct(raw rawProduct) domain.Product {
	category, ok := categoryByFeedLabel[raw.Category]
	if !ok {
		category = CategoryMakeUp
	}

	thumbnail := raw.Thumbnail
	if thumbnail == "" {
		thumbnail = PlaceholderThumbnail
	}

	price := raw.Price
	if price < 0 {
		price = 0
	}

	return domain.Product{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Price:       price,
		Category:    category,
		Thumbnail:   thumbnail,
	}
}
