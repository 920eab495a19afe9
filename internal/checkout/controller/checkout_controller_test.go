package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/checkout/usecase"
	"github.com/moaz267/furniture/internal/checkout/workflow"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	"github.com/moaz267/furniture/internal/infrastructure/localstore"
	"github.com/moaz267/furniture/internal/infrastructure/validation"
	"github.com/moaz267/furniture/internal/session"
)

const (
	testSession   = "shopper-1"
	maxScreenshot = 5 * 1024 * 1024
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockSubmitOrderUseCase struct {
	ConfirmFunc func(ctx context.Context, sessionID string) (*usecase.Confirmation, error)
}

func (m *mockSubmitOrderUseCase) Confirm(ctx context.Context, sessionID string) (*usecase.Confirmation, error) {
	return m.ConfirmFunc(ctx, sessionID)
}

type harness struct {
	handler http.Handler
	cart    *store.Store
	submit  *mockSubmitOrderUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cart := store.New(localstore.NewMemory(), zap.NewNop())
	carts := session.NewRegistry(func(string) (*store.Store, error) { return cart, nil })
	workflows := session.NewRegistry(func(id string) (*workflow.Workflow, error) {
		c, err := carts.Get(id)
		if err != nil {
			return nil, err
		}
		return workflow.Begin(c, workflow.Options{
			Methods:            []domain.PaymentMethod{domain.PaymentMethodVodafone, domain.PaymentMethodInstapay},
			MaxScreenshotBytes: maxScreenshot,
			Validator:          validation.New(),
		})
	})
	submit := &mockSubmitOrderUseCase{}
	ctrl := NewCheckoutController(carts, workflows, submit, []PaymentOption{
		{Method: domain.PaymentMethodVodafone, Account: "+201060044708"},
		{Method: domain.PaymentMethodInstapay, Account: "@capital-furniture"},
	}, maxScreenshot, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/checkout", ctrl.Routes)
	return &harness{handler: r, cart: cart, submit: submit}
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req = req.WithContext(session.WithID(req.Context(), testSession))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) json(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return h.do(t, httptest.NewRequest(method, path, strings.NewReader(body)))
}

func (h *harness) upload(t *testing.T, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="` + filename + `"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/checkout/screenshot", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(t, req)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) dto.CheckoutResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpjson.ErrorResponse {
	t.Helper()
	var resp httpjson.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const validShipping = `{"firstName":"Mona","lastName":"Hassan","email":"mona@example.com","phone":"+201001234567","address":"12 Tahrir Street","city":"Cairo"}`

func (h *harness) fillCart() {
	h.cart.Add(domain.CartItem{ID: "p-sofa", Name: "Sofa", Price: decimal.NewFromInt(12000)})
}

func png(size int) []byte {
	data := make([]byte, size)
	copy(data, pngHeader)
	return data
}

func TestGetCheckout_EmptyCart(t *testing.T) {
	h := newHarness(t)

	rec := h.json(t, http.MethodGet, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart", decodeError(t, rec).Details[0].Field)
}

func TestGetCheckout_StartsOnShipping(t *testing.T) {
	h := newHarness(t)
	h.fillCart()

	state := decodeState(t, h.json(t, http.MethodGet, "/checkout", ""))
	assert.Equal(t, "shipping", state.Step)
	assert.Len(t, state.PaymentOptions, 2)
	assert.Equal(t, "12000.00", state.Cart.Total)
}

func TestSubmitShipping_InvalidFields(t *testing.T) {
	h := newHarness(t)
	h.fillCart()

	rec := h.json(t, http.MethodPost, "/checkout/shipping",
		`{"firstName":"M0na","lastName":"Hassan","email":"nope","phone":"123","address":"12 Tahrir Street","city":"Cairo"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := map[string]bool{}
	for _, d := range decodeError(t, rec).Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["firstName"])
	assert.True(t, fields["email"])
	assert.True(t, fields["phone"])
	assert.False(t, fields["city"])

	state := decodeState(t, h.json(t, http.MethodGet, "/checkout", ""))
	assert.Equal(t, "shipping", state.Step)
}

func TestCheckout_PaymentStep(t *testing.T) {
	h := newHarness(t)
	h.fillCart()

	state := decodeState(t, h.json(t, http.MethodPost, "/checkout/shipping", validShipping))
	assert.Equal(t, "payment", state.Step)
	assert.Equal(t, "vodafone", state.PaymentMethod)

	state = decodeState(t, h.json(t, http.MethodPut, "/checkout/payment-method", `{"method":"instapay"}`))
	assert.Equal(t, "instapay", state.PaymentMethod)

	rec := h.json(t, http.MethodPut, "/checkout/payment-method", `{"method":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	state = decodeState(t, h.upload(t, "receipt.png", "image/png", png(4096)))
	require.NotNil(t, state.Screenshot)
	assert.Equal(t, "receipt.png", state.Screenshot.Filename)

	rec = h.upload(t, "notes.txt", "image/png", []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "screenshot", decodeError(t, rec).Details[0].Field)

	state = decodeState(t, h.json(t, http.MethodGet, "/checkout", ""))
	require.NotNil(t, state.Screenshot, "a rejected file keeps the previous screenshot")
	assert.Equal(t, "receipt.png", state.Screenshot.Filename)

	state = decodeState(t, h.json(t, http.MethodPost, "/checkout/back", ""))
	assert.Equal(t, "shipping", state.Step)
	require.NotNil(t, state.Shipping)
	assert.Equal(t, "Mona", state.Shipping.FirstName)
}

func TestAttachScreenshot_TooLarge(t *testing.T) {
	h := newHarness(t)
	h.fillCart()
	decodeState(t, h.json(t, http.MethodPost, "/checkout/shipping", validShipping))

	rec := h.upload(t, "huge.png", "image/png", png(6*1024*1024))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "screenshot", decodeError(t, rec).Details[0].Field)
}

func TestRemoveScreenshot(t *testing.T) {
	h := newHarness(t)
	h.fillCart()
	decodeState(t, h.json(t, http.MethodPost, "/checkout/shipping", validShipping))
	decodeState(t, h.upload(t, "receipt.png", "image/png", png(1024)))

	state := decodeState(t, h.json(t, http.MethodDelete, "/checkout/screenshot", ""))
	assert.Nil(t, state.Screenshot)
}

func TestConfirm(t *testing.T) {
	h := newHarness(t)
	h.submit.ConfirmFunc = func(ctx context.Context, sessionID string) (*usecase.Confirmation, error) {
		assert.Equal(t, testSession, sessionID)
		return &usecase.Confirmation{OrderID: "order-1", OrderNumber: "TRK-LOYW3V28", Total: decimal.NewFromInt(50000)}, nil
	}

	rec := h.json(t, http.MethodPost, "/checkout/confirm", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.ConfirmOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "TRK-LOYW3V28", resp.OrderNumber)
	assert.Equal(t, "50000.00", resp.Total)
	assert.Equal(t, "awaiting_payment", resp.OrderStatus)
}

func TestConfirm_Retryable(t *testing.T) {
	h := newHarness(t)
	h.submit.ConfirmFunc = func(ctx context.Context, sessionID string) (*usecase.Confirmation, error) {
		return nil, apperrors.NewUnavailableError("could not upload the payment screenshot, please try again", nil)
	}

	rec := h.json(t, http.MethodPost, "/checkout/confirm", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "RETRYABLE", decodeError(t, rec).Error)
}
