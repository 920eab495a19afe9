package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	"github.com/moaz267/furniture/internal/order/service"
	"github.com/moaz267/furniture/internal/order/usecase"
)

type ManageOrderUseCase interface {
	Transition(ctx context.Context, actorID, orderID string, status domain.OrderStatus, note string) (*service.TransitionResult, error)
	Delete(ctx context.Context, actorID, orderID string) error
	List(ctx context.Context, q usecase.ListQuery) (*usecase.OrderPage, error)
	Detail(ctx context.Context, orderID string) (*usecase.OrderDetail, error)
}

type Gate interface {
	Require(capability guard.Capability) func(http.Handler) http.Handler
}

type AdminOrderController struct {
	useCase ManageOrderUseCase
	logger  *zap.Logger
}

func NewAdminOrderController(useCase ManageOrderUseCase, logger *zap.Logger) *AdminOrderController {
	return &AdminOrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *AdminOrderController) Routes(r chi.Router, gate Gate) {
	r.With(gate.Require(guard.ViewOrders)).Get("/orders", c.ListOrders)
	r.With(gate.Require(guard.ViewOrders)).Get("/orders/{id}", c.GetOrder)
	r.With(gate.Require(guard.UpdateOrders)).Post("/orders/{id}/status", c.UpdateStatus)
	r.With(gate.Require(guard.UpdateOrders)).Post("/orders/{id}/approve", c.Approve)
	r.With(gate.Require(guard.UpdateOrders)).Post("/orders/{id}/reject", c.Reject)
	r.With(gate.Require(guard.DeleteOrders)).Delete("/orders/{id}", c.DeleteOrder)
}

func (c *AdminOrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	q := usecase.ListQuery{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			httpjson.WriteValidationError(w, traceID, "invalid status filter", logger, apperrors.ValidationDetail{
				Field:   "status",
				Message: "must be a known order status",
			})
			return
		}
		q.Status = &status
	}

	var err error
	if q.Limit, err = intParam(r, "limit"); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	if q.Offset, err = intParam(r, "offset"); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	page, err := c.useCase.List(r.Context(), q)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	resp := dto.OrderListResponse{
		Orders: make([]dto.OrderSummaryDTO, 0, len(page.Orders)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, o := range page.Orders {
		resp.Orders = append(resp.Orders, toSummary(o))
	}
	httpjson.Write(w, http.StatusOK, resp, logger)
}

func (c *AdminOrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	detail, err := c.useCase.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, toDetail(detail), logger)
}

func (c *AdminOrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.UpdateOrderStatusRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		httpjson.WriteValidationError(w, traceID, "invalid status", logger, apperrors.ValidationDetail{
			Field:   "status",
			Message: "must be a known order status",
		})
		return
	}

	c.transition(w, r, traceID, logger, status, req.Note)
}

func (c *AdminOrderController) Approve(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)
	c.transition(w, r, traceID, logger, domain.OrderStatusConfirmed, "")
}

func (c *AdminOrderController) Reject(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.RejectOrderRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	c.transition(w, r, traceID, logger, domain.OrderStatusPaymentFailed, req.Note)
}

func (c *AdminOrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	principal, _ := guard.FromContext(r.Context())
	if err := c.useCase.Delete(r.Context(), principal.UserID, chi.URLParam(r, "id")); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AdminOrderController) transition(
	w http.ResponseWriter,
	r *http.Request,
	traceID string,
	logger *zap.Logger,
	status domain.OrderStatus,
	note string,
) {
	principal, _ := guard.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	result, err := c.useCase.Transition(r.Context(), principal.UserID, orderID, status, note)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	httpjson.Write(w, http.StatusOK, dto.TransitionResponse{
		TraceID:            traceID,
		OrderID:            result.Order.ID,
		OrderStatus:        string(result.Order.OrderStatus),
		PaymentStatus:      string(result.Order.PaymentStatus),
		NotificationQueued: result.NotificationQueued,
		Warnings:           warnings,
		Timestamp:          time.Now().UTC(),
	}, logger)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a non-negative integer",
		})
	}
	return n, nil
}

func toSummary(o domain.Order) dto.OrderSummaryDTO {
	return dto.OrderSummaryDTO{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		City:          o.City,
		Total:         o.Total.StringFixed(2),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		OrderStatus:   string(o.OrderStatus),
		CreatedAt:     o.CreatedAt,
	}
}

func toDetail(d *usecase.OrderDetail) dto.OrderDetailDTO {
	o := d.Order
	out := dto.OrderDetailDTO{
		OrderSummaryDTO: toSummary(o),
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress,
		Items:           make([]dto.OrderItemDTO, 0, len(o.Items.Items)),
		Subtotal:        o.Subtotal.StringFixed(2),
		Shipping:        o.Shipping.StringFixed(2),
		ScreenshotURL:   d.ScreenshotURL,
		AdminNotes:      o.AdminNotes,
		NextStatuses:    []string{},
		Timeline:        make([]dto.TimelineEntryDTO, 0, len(d.Timeline)),
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items.Items {
		out.Items = append(out.Items, dto.OrderItemDTO{
			ID:        item.ID,
			Name:      item.Name,
			NameAr:    item.NameAr,
			Price:     item.Price.StringFixed(2),
			Quantity:  item.Quantity,
			Image:     item.Image,
			LineTotal: item.LineTotal().StringFixed(2),
		})
	}
	for _, s := range o.OrderStatus.NextStatuses() {
		out.NextStatuses = append(out.NextStatuses, string(s))
	}
	for _, e := range d.Timeline {
		out.Timeline = append(out.Timeline, dto.TimelineEntryDTO{
			ID:        e.ID,
			Status:    string(e.Status),
			Note:      e.Note,
			CreatedBy: e.CreatedBy,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
