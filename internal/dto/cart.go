package dto

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"max=99"`
}

type CartOpenRequest struct {
	Open bool `json:"open"`
}

type CartItemDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameAr      string `json:"nameAr"`
	DisplayName string `json:"displayName"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"lineTotal"`
}

type CartResponse struct {
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"itemCount"`
	Total     string        `json:"total"`
	IsOpen    bool          `json:"isOpen"`
}
