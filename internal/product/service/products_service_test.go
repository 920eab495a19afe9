package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/validation"
	"github.com/moaz267/furniture/internal/product/repository"
)

type mockRepository struct {
	ListFunc               func(ctx context.Context, filter repository.Filter) ([]domain.Product, error)
	CountFunc              func(ctx context.Context, filter repository.Filter) (int, error)
	FindByIDFunc           func(ctx context.Context, id string) (*domain.Product, error)
	FindBySlugFunc         func(ctx context.Context, slug string) (*domain.Product, error)
	CreateFunc             func(ctx context.Context, p *domain.Product) error
	UpdateFunc             func(ctx context.Context, p *domain.Product) error
	DeleteFunc             func(ctx context.Context, id string) error
	ListCategoriesFunc     func(ctx context.Context) ([]domain.Category, error)
	FindCategoryBySlugFunc func(ctx context.Context, slug string) (*domain.Category, error)
	FindCategoryByIDFunc   func(ctx context.Context, id string) (*domain.Category, error)
}

func (m *mockRepository) List(ctx context.Context, filter repository.Filter) ([]domain.Product, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockRepository) Count(ctx context.Context, filter repository.Filter) (int, error) {
	return m.CountFunc(ctx, filter)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return m.FindBySlugFunc(ctx, slug)
}

func (m *mockRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.CreateFunc(ctx, p)
}

func (m *mockRepository) Update(ctx context.Context, p *domain.Product) error {
	return m.UpdateFunc(ctx, p)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return m.ListCategoriesFunc(ctx)
}

func (m *mockRepository) FindCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return m.FindCategoryBySlugFunc(ctx, slug)
}

func (m *mockRepository) FindCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	return m.FindCategoryByIDFunc(ctx, id)
}

type mockImageStore struct {
	UploadFunc func(ctx context.Context, bucket, key string, r io.Reader) error
}

func (m *mockImageStore) Upload(ctx context.Context, bucket, key string, r io.Reader) error {
	return m.UploadFunc(ctx, bucket, key, r)
}

func (m *mockImageStore) PublicURL(bucket, key string) (string, error) {
	return "https://shop.example.com/public/" + bucket + "/" + key, nil
}

func newTestService(repo Repository, images ImageStore) *ProductService {
	s := NewService(repo, images, validation.New(), zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestList_PagesByNine(t *testing.T) {
	var got repository.Filter
	repo := &mockRepository{
		FindCategoryBySlugFunc: func(ctx context.Context, slug string) (*domain.Category, error) {
			return &domain.Category{ID: "cat-1", Slug: slug}, nil
		},
		CountFunc: func(ctx context.Context, filter repository.Filter) (int, error) { return 19, nil },
		ListFunc: func(ctx context.Context, filter repository.Filter) ([]domain.Product, error) {
			got = filter
			return []domain.Product{{ID: "p1"}}, nil
		},
	}

	page, err := newTestService(repo, nil).List(context.Background(), Query{CategorySlug: "tables", Page: 2})

	require.NoError(t, err)
	assert.Equal(t, 9, got.Limit)
	assert.Equal(t, 9, got.Offset)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, "cat-1", *got.CategoryID)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 19, page.Total)
}

func TestList_UnknownCategoryIsEmpty(t *testing.T) {
	repo := &mockRepository{
		FindCategoryBySlugFunc: func(ctx context.Context, slug string) (*domain.Category, error) {
			return nil, apperrors.NewNotFoundError("category not found")
		},
	}

	page, err := newTestService(repo, nil).List(context.Background(), Query{CategorySlug: "beds"})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, 1, page.Page)
}

func TestList_InvertedRange(t *testing.T) {
	minPrice, maxPrice := decimal.NewFromInt(500), decimal.NewFromInt(100)

	_, err := newTestService(&mockRepository{}, nil).List(context.Background(), Query{MinPrice: &minPrice, MaxPrice: &maxPrice})
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestGet_FallsBackToSlug(t *testing.T) {
	repo := &mockRepository{
		FindBySlugFunc: func(ctx context.Context, slug string) (*domain.Product, error) {
			return &domain.Product{ID: "p1", Slug: slug}, nil
		},
	}

	p, err := newTestService(repo, nil).Get(context.Background(), "oak-table")
	require.NoError(t, err)
	assert.Equal(t, "oak-table", p.Slug)
}

func TestCartSnapshot(t *testing.T) {
	catID := "cat-1"
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return &domain.Product{
				ID: id, Name: "Sofa", NameAr: "كنبة", Price: decimal.NewFromInt(18000),
				Images: []string{"a.jpg", "b.jpg"}, CategoryID: &catID, InStock: true,
			}, nil
		},
		FindCategoryByIDFunc: func(ctx context.Context, id string) (*domain.Category, error) {
			return &domain.Category{ID: id, Name: "Living Room", NameAr: "غرفة المعيشة"}, nil
		},
	}

	item, err := newTestService(repo, nil).CartSnapshot(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", item.Image)
	assert.Equal(t, "Living Room", item.Category)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(18000)))
}

func TestCartSnapshot_OutOfStock(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
			return &domain.Product{ID: id, Name: "Sofa", InStock: false}, nil
		},
	}

	_, err := newTestService(repo, nil).CartSnapshot(context.Background(), "p1")
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestCreate_DefaultsSlug(t *testing.T) {
	var created *domain.Product
	repo := &mockRepository{CreateFunc: func(ctx context.Context, p *domain.Product) error {
		created = p
		return nil
	}}

	p, err := newTestService(repo, nil).Create(context.Background(), dto.ProductRequest{
		Name:    "Walnut Coffee Table",
		Price:   "7499.5",
		InStock: true,
	})

	require.NoError(t, err)
	assert.Same(t, created, p)
	assert.Equal(t, "walnut-coffee-table", p.Slug)
	assert.Equal(t, "7499.50", p.Price.StringFixed(2))
	assert.NotEmpty(t, p.ID)
}

func TestCreate_Invalid(t *testing.T) {
	svc := newTestService(&mockRepository{}, nil)

	_, err := svc.Create(context.Background(), dto.ProductRequest{Name: "Chair", Price: "-5"})
	vErr, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "price", vErr.Details[0].Field)

	_, err = svc.Create(context.Background(), dto.ProductRequest{Name: "كرسي", Price: "100"})
	vErr, ok = apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "slug", vErr.Details[0].Field)

	_, err = svc.Create(context.Background(), dto.ProductRequest{Price: "100"})
	vErr, ok = apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", vErr.Details[0].Field)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockRepository{FindByIDFunc: func(ctx context.Context, id string) (*domain.Product, error) {
		return nil, apperrors.NewNotFoundError("product not found")
	}}

	_, err := newTestService(repo, nil).Update(context.Background(), "p1", dto.ProductRequest{Name: "Chair", Price: "100"})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestUploadImage(t *testing.T) {
	var bucket, key string
	images := &mockImageStore{UploadFunc: func(ctx context.Context, b, k string, r io.Reader) error {
		bucket, key = b, k
		return nil
	}}

	url, gotKey, err := newTestService(&mockRepository{}, images).UploadImage(context.Background(), pngBytes)

	require.NoError(t, err)
	assert.Equal(t, "product-images", bucket)
	assert.Equal(t, key, gotKey)
	assert.Contains(t, key, ".png")
	assert.Equal(t, "https://shop.example.com/public/product-images/"+key, url)
}

func TestUploadImage_Rejects(t *testing.T) {
	images := &mockImageStore{UploadFunc: func(ctx context.Context, b, k string, r io.Reader) error {
		t.Fatal("upload must not be attempted")
		return nil
	}}
	svc := newTestService(&mockRepository{}, images)

	_, _, err := svc.UploadImage(context.Background(), []byte("%PDF-1.7 not an image"))
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)

	_, _, err = svc.UploadImage(context.Background(), nil)
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestUploadImage_StoreFailure(t *testing.T) {
	images := &mockImageStore{UploadFunc: func(ctx context.Context, b, k string, r io.Reader) error {
		return errors.New("disk full")
	}}

	_, _, err := newTestService(&mockRepository{}, images).UploadImage(context.Background(), pngBytes)
	_, ok := apperrors.IsUnavailableError(err)
	assert.True(t, ok)
}
