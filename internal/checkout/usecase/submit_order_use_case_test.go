package usecase

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/checkout/workflow"
	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
	"github.com/moaz267/furniture/internal/infrastructure/localstore"
	"github.com/moaz267/furniture/internal/infrastructure/validation"
)

const testSession = "0b8f5f5e-3f0a-4e55-9a55-8d1c0c7a9a11"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// Mock implementations

type fakeCarts struct {
	cart *store.Store
}

func (f *fakeCarts) Get(session string) (*store.Store, error) {
	return f.cart, nil
}

type fakeWorkflows struct {
	flow     *workflow.Workflow
	released bool
}

func (f *fakeWorkflows) Peek(session string) (*workflow.Workflow, bool) {
	return f.flow, f.flow != nil
}

func (f *fakeWorkflows) Release(session string) {
	f.released = true
	f.flow = nil
}

type mockUploader struct {
	UploadFunc func(ctx context.Context, bucket, key string, r io.Reader) error
	calls      int
}

func (m *mockUploader) Upload(ctx context.Context, bucket, key string, r io.Reader) error {
	m.calls++
	return m.UploadFunc(ctx, bucket, key, r)
}

type mockOrderCreator struct {
	CreateFunc func(ctx context.Context, order *domain.Order) error
	calls      int
}

func (m *mockOrderCreator) Create(ctx context.Context, order *domain.Order) error {
	m.calls++
	return m.CreateFunc(ctx, order)
}

type recordingOrphans struct {
	keys []string
}

func (r *recordingOrphans) Record(ctx context.Context, bucket, key string) error {
	r.keys = append(r.keys, bucket+"/"+key)
	return nil
}

// Helpers

func newTestCart(t *testing.T, items ...domain.CartItem) *store.Store {
	t.Helper()
	cart := store.New(localstore.NewMemory(), zap.NewNop())
	for _, item := range items {
		cart.Add(item)
	}
	return cart
}

func table() domain.CartItem {
	return domain.CartItem{ID: "p-table", Name: "Oak Table", NameAr: "طاولة", Price: decimal.NewFromInt(25000)}
}

func newPaymentStepWorkflow(t *testing.T, cart *store.Store, withScreenshot bool) *workflow.Workflow {
	t.Helper()
	flow, err := workflow.Begin(cart, workflow.Options{
		Methods:            []domain.PaymentMethod{domain.PaymentMethodVodafone, domain.PaymentMethodInstapay},
		MaxScreenshotBytes: 5 * 1024 * 1024,
		Validator:          validation.New(),
	})
	require.NoError(t, err)
	require.NoError(t, flow.SubmitShipping(workflow.ShippingForm{
		FirstName: "Mona",
		LastName:  "Hassan",
		Email:     "Mona@Example.com",
		Phone:     "+201001234567",
		Address:   "12 Tahrir Street",
		City:      "Cairo",
	}))
	if withScreenshot {
		data := make([]byte, 2048)
		copy(data, pngHeader)
		require.NoError(t, flow.AttachScreenshot(workflow.Attachment{
			Filename: "receipt.png", ContentType: "image/png", Size: int64(len(data)), Data: data,
		}))
	}
	return flow
}

type fixture struct {
	cart      *store.Store
	workflows *fakeWorkflows
	uploader  *mockUploader
	orders    *mockOrderCreator
	orphans   *recordingOrphans
	uc        *SubmitOrderUseCase
}

func newFixture(t *testing.T, withScreenshot bool) *fixture {
	t.Helper()
	item := table()
	cart := newTestCart(t, item)
	cart.Add(item)

	f := &fixture{
		cart:      cart,
		workflows: &fakeWorkflows{flow: newPaymentStepWorkflow(t, cart, withScreenshot)},
		uploader: &mockUploader{UploadFunc: func(ctx context.Context, bucket, key string, r io.Reader) error {
			return nil
		}},
		orders: &mockOrderCreator{CreateFunc: func(ctx context.Context, order *domain.Order) error {
			return nil
		}},
		orphans: &recordingOrphans{},
	}
	f.uc = NewSubmitOrderUseCase(&fakeCarts{cart: cart}, f.workflows, f.uploader, f.orders, f.orphans, zap.NewNop())
	f.uc.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return f
}

// Tests

func TestConfirm_PlacesOrder(t *testing.T) {
	f := newFixture(t, true)

	var uploadedBucket, uploadedKey string
	f.uploader.UploadFunc = func(ctx context.Context, bucket, key string, r io.Reader) error {
		uploadedBucket, uploadedKey = bucket, key
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Len(t, data, 2048)
		return nil
	}
	var created *domain.Order
	f.orders.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		created = order
		return nil
	}

	conf, err := f.uc.Confirm(context.Background(), testSession)
	require.NoError(t, err)

	assert.Equal(t, blob.BucketPaymentScreenshots, uploadedBucket)
	assert.Regexp(t, regexp.MustCompile(`^1700000000000-[0-9a-f]{12}\.png$`), uploadedKey)

	require.NotNil(t, created)
	assert.Equal(t, "50000", created.Subtotal.String())
	assert.Equal(t, "50000", created.Total.String())
	assert.True(t, created.Shipping.IsZero())
	assert.Equal(t, domain.OrderStatusAwaitingPayment, created.OrderStatus)
	assert.Equal(t, domain.PaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, domain.PaymentMethodVodafone, created.PaymentMethod)
	assert.Equal(t, "Mona Hassan", created.CustomerName)
	assert.Equal(t, "mona@example.com", created.CustomerEmail)
	assert.Equal(t, uploadedKey, created.ScreenshotKey)
	assert.Equal(t, "TRK-LOYW3V28", created.OrderNumber)
	require.Len(t, created.Items.Items, 1)
	assert.Equal(t, 2, created.Items.Items[0].Quantity)

	assert.Equal(t, created.ID, conf.OrderID)
	assert.Equal(t, "50000.00", conf.Total.StringFixed(2))
	assert.True(t, f.cart.IsEmpty())
	assert.True(t, f.workflows.released)
	assert.Empty(t, f.orphans.keys)
}

func TestConfirm_UploadFailure(t *testing.T) {
	f := newFixture(t, true)
	f.uploader.UploadFunc = func(ctx context.Context, bucket, key string, r io.Reader) error {
		return errors.New("storage timeout")
	}

	conf, err := f.uc.Confirm(context.Background(), testSession)
	assert.Nil(t, conf)
	_, ok := apperrors.IsUnavailableError(err)
	assert.True(t, ok)

	assert.Equal(t, 0, f.orders.calls, "no order may be inserted after a failed upload")
	assert.Equal(t, 2, f.cart.ItemCount())
	assert.False(t, f.workflows.released)
	assert.Equal(t, workflow.StepPayment, f.workflows.flow.Step())
	assert.Empty(t, f.orphans.keys)
}

func TestConfirm_InsertFailure(t *testing.T) {
	f := newFixture(t, true)
	var uploadedKey string
	f.uploader.UploadFunc = func(ctx context.Context, bucket, key string, r io.Reader) error {
		uploadedKey = key
		return nil
	}
	f.orders.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		return errors.New("connection refused")
	}

	_, err := f.uc.Confirm(context.Background(), testSession)
	_, ok := apperrors.IsUnavailableError(err)
	assert.True(t, ok)

	assert.Equal(t, 2, f.cart.ItemCount())
	assert.False(t, f.workflows.released)
	assert.Equal(t, []string{blob.BucketPaymentScreenshots + "/" + uploadedKey}, f.orphans.keys)

	// The workflow is free for another attempt.
	f.orders.CreateFunc = func(ctx context.Context, order *domain.Order) error { return nil }
	_, err = f.uc.Confirm(context.Background(), testSession)
	require.NoError(t, err)
}

func TestConfirm_OrderNumberTaken(t *testing.T) {
	f := newFixture(t, true)

	var numbers []string
	f.orders.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		numbers = append(numbers, order.OrderNumber)
		if len(numbers) == 1 {
			return apperrors.NewConflictError("order number " + order.OrderNumber + " is already taken")
		}
		return nil
	}

	conf, err := f.uc.Confirm(context.Background(), testSession)
	require.NoError(t, err)

	require.Len(t, numbers, 2)
	base := domain.NewOrderNumber(time.UnixMilli(1700000000000))
	assert.Equal(t, base, numbers[0])
	assert.Regexp(t, "^"+base+"-[0-9A-F]{4}$", numbers[1])
	assert.Equal(t, numbers[1], conf.OrderNumber)
	assert.Empty(t, f.orphans.keys)
	assert.Equal(t, 0, f.cart.ItemCount())
}

func TestConfirm_OrderNumberRetriesExhausted(t *testing.T) {
	f := newFixture(t, true)

	calls := 0
	f.orders.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		calls++
		return apperrors.NewConflictError("order number taken")
	}

	_, err := f.uc.Confirm(context.Background(), testSession)
	_, ok := apperrors.IsUnavailableError(err)
	assert.True(t, ok)
	assert.Equal(t, maxOrderNumberRetries+1, calls)
	assert.Len(t, f.orphans.keys, 1)
}

func TestConfirm_MissingScreenshot(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.uc.Confirm(context.Background(), testSession)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.NotEmpty(t, ve.Field("screenshot"))

	assert.Equal(t, 0, f.uploader.calls)
	assert.Equal(t, 0, f.orders.calls)
}

func TestConfirm_TotalOverStorableAmount(t *testing.T) {
	f := newFixture(t, true)
	f.cart.Add(domain.CartItem{ID: "p-vault", Name: "Vault", NameAr: "خزنة", Price: domain.MaxOrderAmount})

	_, err := f.uc.Confirm(context.Background(), testSession)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.NotEmpty(t, ve.Field("cart"))

	assert.Equal(t, 0, f.uploader.calls)
	assert.Equal(t, 0, f.orders.calls)
	assert.Empty(t, f.orphans.keys)
	assert.False(t, f.cart.IsEmpty())
}

func TestConfirm_EmptyCart(t *testing.T) {
	f := newFixture(t, true)
	f.cart.Clear()

	_, err := f.uc.Confirm(context.Background(), testSession)
	assert.ErrorIs(t, err, workflow.ErrEmptyCart)
	assert.Equal(t, 0, f.uploader.calls)
}

func TestConfirm_NotStarted(t *testing.T) {
	f := newFixture(t, true)
	f.workflows.flow = nil

	_, err := f.uc.Confirm(context.Background(), testSession)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestConfirm_ConcurrentSubmissionRejected(t *testing.T) {
	f := newFixture(t, true)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	f.uploader.UploadFunc = func(ctx context.Context, bucket, key string, r io.Reader) error {
		close(entered)
		<-unblock
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Confirm(context.Background(), testSession)
		done <- err
	}()
	<-entered

	_, err := f.uc.Confirm(context.Background(), testSession)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)

	close(unblock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.orders.calls)
}

func TestScreenshotKey(t *testing.T) {
	key := ScreenshotKey(time.UnixMilli(1700000000123), ".jpg")
	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-f]{12}\.jpg$`), key)
	assert.NotEqual(t, key, ScreenshotKey(time.UnixMilli(1700000000123), ".jpg"))
}
