package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/moaz267/furniture/internal/errors"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir(), "https://shop.example.com", NewSigner("blob-secret"), BucketProductImages)
	require.NoError(t, err)
	return store
}

func TestFSStore_UploadOpenDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, BucketPaymentScreenshots, "1700000000000-abc.png", strings.NewReader("png-bytes")))

	f, err := store.Open(BucketPaymentScreenshots, "1700000000000-abc.png")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, BucketPaymentScreenshots, "1700000000000-abc.png"))
	require.NoError(t, store.Delete(ctx, BucketPaymentScreenshots, "1700000000000-abc.png"))

	_, err = store.Open(BucketPaymentScreenshots, "1700000000000-abc.png")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestFSStore_UploadNeverOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, BucketPaymentScreenshots, "a.png", strings.NewReader("first")))
	err := store.Upload(ctx, BucketPaymentScreenshots, "a.png", strings.NewReader("second"))

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	err := store.Upload(context.Background(), BucketPaymentScreenshots, "../escape.png", strings.NewReader("x"))
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestFSStore_PublicURL(t *testing.T) {
	store := newTestStore(t)

	u, err := store.PublicURL(BucketProductImages, "sofa.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/public/product-images/sofa.jpg", u)

	_, err = store.PublicURL(BucketPaymentScreenshots, "a.png")
	assert.Error(t, err)
}

func TestSigner_RoundTrip(t *testing.T) {
	signer := NewSigner("blob-secret")

	token, err := signer.Sign(BucketPaymentScreenshots, "a.png", time.Hour)
	require.NoError(t, err)

	assert.NoError(t, signer.Verify(token, BucketPaymentScreenshots, "a.png"))
	assert.ErrorIs(t, signer.Verify(token, BucketPaymentScreenshots, "b.png"), ErrInvalidSignature)
	assert.ErrorIs(t, NewSigner("other").Verify(token, BucketPaymentScreenshots, "a.png"), ErrInvalidSignature)
}

func TestSigner_Expired(t *testing.T) {
	signer := NewSigner("blob-secret")
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := signer.Sign(BucketPaymentScreenshots, "a.png", time.Hour)
	require.NoError(t, err)

	signer.now = time.Now
	assert.ErrorIs(t, signer.Verify(token, BucketPaymentScreenshots, "a.png"), ErrInvalidSignature)
}

func TestHandler_ServeSigned(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upload(context.Background(), BucketPaymentScreenshots, "shot.png", strings.NewReader("image")))

	router := chi.NewRouter()
	NewHandler(store, zap.NewNop()).Routes(router)

	signed, err := store.SignedURL(BucketPaymentScreenshots, "shot.png", time.Hour)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blobs/payment-screenshots/shot.png?token=forged", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_ServePublicOnlyPublicBuckets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, BucketProductImages, "sofa.jpg", strings.NewReader("jpeg")))
	require.NoError(t, store.Upload(ctx, BucketPaymentScreenshots, "shot.png", strings.NewReader("image")))

	router := chi.NewRouter()
	NewHandler(store, zap.NewNop()).Routes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/product-images/sofa.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/payment-screenshots/shot.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
