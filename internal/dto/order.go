package dto

import "time"

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type RejectOrderRequest struct {
	Note string `json:"note"`
}

type OrderItemDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NameAr    string `json:"nameAr"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
	LineTotal string `json:"lineTotal"`
}

type TimelineEntryDTO struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Note      *string   `json:"note"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type OrderSummaryDTO struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	City          string    `json:"city"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentStatus string    `json:"paymentStatus"`
	OrderStatus   string    `json:"orderStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderDetailDTO struct {
	OrderSummaryDTO
	CustomerPhone   string             `json:"customerPhone"`
	ShippingAddress string             `json:"shippingAddress"`
	Items           []OrderItemDTO     `json:"items"`
	Subtotal        string             `json:"subtotal"`
	Shipping        string             `json:"shipping"`
	ScreenshotURL   string             `json:"screenshotUrl,omitempty"`
	AdminNotes      *string            `json:"adminNotes"`
	NextStatuses    []string           `json:"nextStatuses"`
	Timeline        []TimelineEntryDTO `json:"timeline"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type OrderListResponse struct {
	Orders []OrderSummaryDTO `json:"orders"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type TransitionResponse struct {
	TraceID            string    `json:"traceId"`
	OrderID            string    `json:"orderId"`
	OrderStatus        string    `json:"orderStatus"`
	PaymentStatus      string    `json:"paymentStatus"`
	NotificationQueued bool      `json:"notificationQueued"`
	Warnings           []string  `json:"warnings"`
	Timestamp          time.Time `json:"timestamp"`
}
