package domain

import "github.com/shopspring/decimal"

// MaxCartQuantity caps how many of one product a cart may hold.
const MaxCartQuantity = 99

// CartItem is a product snapshot taken when the shopper added it, plus the
// selected quantity.
type CartItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	NameAr     string          `json:"nameAr"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	Category   string          `json:"category,omitempty"`
	CategoryAr string          `json:"categoryAr,omitempty"`
	Quantity   int             `json:"quantity"`
}

func NewCartItem(p Product, category *Category) CartItem {
	item := CartItem{
		ID:     p.ID,
		Name:   p.Name,
		NameAr: p.NameAr,
		Price:  p.Price,
		Image:  p.PrimaryImage(),
	}
	if category != nil {
		item.Category = category.Name
		item.CategoryAr = category.NameAr
	}
	return item
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
