package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	cartcontroller "github.com/moaz267/furniture/internal/cart/controller"
	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/checkout/usecase"
	"github.com/moaz267/furniture/internal/checkout/workflow"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/i18n"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	"github.com/moaz267/furniture/internal/session"
)

const (
	screenshotFormField = "file"
	multipartOverhead   = 1 << 20
)

type Carts interface {
	Get(session string) (*store.Store, error)
}

type Workflows interface {
	Get(session string) (*workflow.Workflow, error)
	Release(session string)
}

type SubmitOrderUseCase interface {
	Confirm(ctx context.Context, sessionID string) (*usecase.Confirmation, error)
}

// PaymentOption is an account the shopper transfers money to.
type PaymentOption struct {
	Method  domain.PaymentMethod
	Account string
}

type CheckoutController struct {
	carts              Carts
	workflows          Workflows
	submit             SubmitOrderUseCase
	options            []PaymentOption
	maxScreenshotBytes int64
	logger             *zap.Logger
}

func NewCheckoutController(
	carts Carts,
	workflows Workflows,
	submit SubmitOrderUseCase,
	options []PaymentOption,
	maxScreenshotBytes int64,
	logger *zap.Logger,
) *CheckoutController {
	return &CheckoutController{
		carts:              carts,
		workflows:          workflows,
		submit:             submit,
		options:            options,
		maxScreenshotBytes: maxScreenshotBytes,
		logger:             logger,
	}
}

func (c *CheckoutController) Routes(r chi.Router) {
	r.Get("/", c.GetCheckout)
	r.Post("/shipping", c.SubmitShipping)
	r.Post("/back", c.Back)
	r.Put("/payment-method", c.SelectPaymentMethod)
	r.Post("/screenshot", c.AttachScreenshot)
	r.Delete("/screenshot", c.RemoveScreenshot)
	r.Post("/confirm", c.Confirm)
}

func (c *CheckoutController) GetCheckout(w http.ResponseWriter, r *http.Request) {
	c.withWorkflow(w, r, func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger) {
		c.writeState(w, r, flow, cart, logger)
	})
}

func (c *CheckoutController) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	c.withWorkflow(w, r, func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger) {
		var req dto.ShippingRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		if err := flow.SubmitShipping(workflow.ShippingForm(req)); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}
		c.writeState(w, r, flow, cart, logger)
	})
}

func (c *CheckoutController) Back(w http.ResponseWriter, r *http.Request) {
	c.withWorkflow(w, r, func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger) {
		flow.Back()
		c.writeState(w, r, flow, cart, logger)
	})
}

func (c *CheckoutController) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c.withWorkflow(w, r, func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger) {
		var req dto.PaymentMethodRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		method, _ := domain.ParsePaymentMethod(req.Method)
		if err := flow.SelectPaymentMethod(method); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}
		c.writeState(w, r, flow, cart, logger)
	})
}

func (c *CheckoutController) AttachScreenshot(w http.ResponseWriter, r *http.Request) {
	c.withWorkflow(w, r, func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger) {
		attachment, err := c.readAttachment(w, r)
		if err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		if err := flow.AttachScreenshot(attachment); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}
		logger.Debug("payment screenshot attached", zap.Int64("size", attachment.Size), zap.String("contentType", attachment.ContentType))
		c.writeState(w, r, flow, cart, logger)
	})
}

func (c *CheckoutController) RemoveScreenshot(w http.ResponseWriter, r *http.Request) {
	c.withWorkflow(w, r, func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger) {
		flow.RemoveScreenshot()
		c.writeState(w, r, flow, cart, logger)
	})
}

func (c *CheckoutController) Confirm(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	sessionID, ok := session.FromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, traceID, apperrors.NewInternalError("missing shopper session", nil), logger)
		return
	}

	conf, err := c.submit.Confirm(r.Context(), sessionID)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	httpjson.Write(w, http.StatusCreated, dto.ConfirmOrderResponse{
		TraceID:       traceID,
		OrderID:       conf.OrderID,
		OrderNumber:   conf.OrderNumber,
		Total:         conf.Total.StringFixed(2),
		OrderStatus:   string(domain.OrderStatusAwaitingPayment),
		PaymentStatus: string(domain.PaymentStatusPending),
		Timestamp:     time.Now().UTC(),
	}, logger)
}

// withWorkflow resolves the shopper's cart and checkout. An empty cart ends
// any checkout in progress.
func (c *CheckoutController) withWorkflow(
	w http.ResponseWriter,
	r *http.Request,
	fn func(flow *workflow.Workflow, cart *store.Store, traceID string, logger *zap.Logger),
) {
	traceID, logger := httpjson.Trace(c.logger, r)

	sessionID, ok := session.FromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, traceID, apperrors.NewInternalError("missing shopper session", nil), logger)
		return
	}
	logger = logger.With(zap.String("session", sessionID))

	cart, err := c.carts.Get(sessionID)
	if err != nil {
		httpjson.WriteError(w, traceID, apperrors.NewUnavailableError("cart is unavailable", err), logger)
		return
	}
	if cart.IsEmpty() {
		c.workflows.Release(sessionID)
		httpjson.WriteError(w, traceID, workflow.ErrEmptyCart, logger)
		return
	}

	flow, err := c.workflows.Get(sessionID)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	fn(flow, cart, traceID, logger)
}

func (c *CheckoutController) readAttachment(w http.ResponseWriter, r *http.Request) (workflow.Attachment, error) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxScreenshotBytes+multipartOverhead)

	file, header, err := r.FormFile(screenshotFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return workflow.Attachment{}, workflow.ValidateScreenshot(workflow.Attachment{
				Size: tooLarge.Limit,
				Data: []byte{0},
			}, c.maxScreenshotBytes)
		}
		return workflow.Attachment{}, apperrors.NewValidationError("payment screenshot is required", apperrors.ValidationDetail{
			Field:   "screenshot",
			Message: "attach the payment screenshot as a multipart \"file\" field",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, c.maxScreenshotBytes+1))
	if err != nil {
		return workflow.Attachment{}, apperrors.NewValidationError("could not read the payment screenshot", apperrors.ValidationDetail{
			Field:   "screenshot",
			Message: "the upload was interrupted, please try again",
		})
	}

	return workflow.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

func (c *CheckoutController) writeState(w http.ResponseWriter, r *http.Request, flow *workflow.Workflow, cart *store.Store, logger *zap.Logger) {
	st := flow.State()
	resp := dto.CheckoutResponse{
		Step:           string(st.Step),
		PaymentMethod:  string(st.Method),
		PaymentOptions: make([]dto.PaymentOptionDTO, 0, len(c.options)),
		Cart:           cartcontroller.RenderCart(cart, i18n.FromContext(r.Context())),
	}
	if st.Form != nil {
		form := dto.ShippingRequest(*st.Form)
		resp.Shipping = &form
	}
	if st.Screenshot != nil {
		resp.Screenshot = &dto.ScreenshotDTO{
			Filename:    st.Screenshot.Filename,
			ContentType: st.Screenshot.ContentType,
			Size:        st.Screenshot.Size,
		}
	}
	for _, opt := range c.options {
		resp.PaymentOptions = append(resp.PaymentOptions, dto.PaymentOptionDTO{
			Method:  string(opt.Method),
			Account: opt.Account,
		})
	}
	httpjson.Write(w, http.StatusOK, resp, logger)
}
