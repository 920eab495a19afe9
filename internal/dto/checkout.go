package dto

import "time"

type ShippingRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

type PaymentMethodRequest struct {
	Method string `json:"method"`
}

type PaymentOptionDTO struct {
	Method  string `json:"method"`
	Account string `json:"account"`
}

type ScreenshotDTO struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type CheckoutResponse struct {
	Step           string             `json:"step"`
	Shipping       *ShippingRequest   `json:"shipping,omitempty"`
	PaymentMethod  string             `json:"paymentMethod,omitempty"`
	Screenshot     *ScreenshotDTO     `json:"screenshot,omitempty"`
	PaymentOptions []PaymentOptionDTO `json:"paymentOptions"`
	Cart           CartResponse       `json:"cart"`
}

type ConfirmOrderResponse struct {
	TraceID       string    `json:"traceId"`
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	Total         string    `json:"total"`
	OrderStatus   string    `json:"orderStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	Timestamp     time.Time `json:"timestamp"`
}
