package workflow

import "strings"

// ShippingForm is the first checkout step. Lengths are counted in runes.
type ShippingForm struct {
	FirstName string `json:"firstName" validate:"required,max=50,personname"`
	LastName  string `json:"lastName" validate:"required,max=50,personname"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Phone     string `json:"phone" validate:"required,phone"`
	Address   string `json:"address" validate:"required,min=5,max=200"`
	City      string `json:"city" validate:"required,min=2,max=50"`
}

// Normalize trims surrounding whitespace from every field and lowercases the
// email address.
func (f ShippingForm) Normalize() ShippingForm {
	return ShippingForm{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:     strings.TrimSpace(f.Phone),
		Address:   strings.TrimSpace(f.Address),
		City:      strings.TrimSpace(f.City),
	}
}

func (f ShippingForm) FullName() string {
	return f.FirstName + " " + f.LastName
}
