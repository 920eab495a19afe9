package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
	"github.com/moaz267/furniture/internal/product/repository"
)

const PageSize = 9

const MaxImageBytes = 10 << 20

type Repository interface {
	List(ctx context.Context, filter repository.Filter) ([]domain.Product, error)
	Count(ctx context.Context, filter repository.Filter) (int, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	FindCategoryByID(ctx context.Context, id string) (*domain.Category, error)
}

type ImageStore interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader) error
	PublicURL(bucket, key string) (string, error)
}

type Validator interface {
	Struct(s any) error
}

type Query struct {
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Page         int
}

type Page struct {
	Products   []domain.Product
	Total      int
	Page       int
	TotalPages int
}

type ProductService struct {
	repo     Repository
	images   ImageStore
	validate Validator
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, images ImageStore, validate Validator, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		images:   images,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns one page of products, newest first. An unknown category
// yields an empty page.
func (s *ProductService) List(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, apperrors.NewValidationError("invalid price range", apperrors.ValidationDetail{
			Field:   "min",
			Message: "min must not exceed max",
		})
	}

	filter := repository.Filter{
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Limit:    PageSize,
		Offset:   (q.Page - 1) * PageSize,
	}
	if q.CategorySlug != "" {
		cat, err := s.repo.FindCategoryBySlug(ctx, q.CategorySlug)
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return &Page{Products: []domain.Product{}, Page: q.Page}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &cat.ID
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Page{
		Products:   products,
		Total:      total,
		Page:       q.Page,
		TotalPages: (total + PageSize - 1) / PageSize,
	}, nil
}

// Get finds a product by id, falling back to slug.
func (s *ProductService) Get(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		p, err := s.repo.FindByID(ctx, idOrSlug)
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			return p, err
		}
	}
	return s.repo.FindBySlug(ctx, idOrSlug)
}

func (s *ProductService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// CartSnapshot captures the product as a cart line. Out-of-stock products
// cannot be added.
func (s *ProductService) CartSnapshot(ctx context.Context, productID string) (domain.CartItem, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !p.InStock {
		return domain.CartItem{}, apperrors.NewConflictError(p.Name + " is out of stock")
	}

	var category *domain.Category
	if p.CategoryID != nil {
		category, err = s.repo.FindCategoryByID(ctx, *p.CategoryID)
		if _, ok := apperrors.IsNotFoundError(err); ok {
			category, err = nil, nil
		}
		if err != nil {
			return domain.CartItem{}, err
		}
	}
	return domain.NewCartItem(*p, category), nil
}

func (s *ProductService) Create(ctx context.Context, req dto.ProductRequest) (*domain.Product, error) {
	now := s.now().UTC()
	p := &domain.Product{ID: uuid.NewString(), CreatedAt: now}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("productId", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req dto.ProductRequest) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product updated", zap.String("productId", p.ID))
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("productId", id))
	return nil
}

// UploadImage stores an image in the public product bucket and returns its
// URL and key.
func (s *ProductService) UploadImage(ctx context.Context, data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", apperrors.NewValidationError("image is required", apperrors.ValidationDetail{
			Field:   "file",
			Message: "an image file is required",
		})
	}
	if len(data) > MaxImageBytes {
		return "", "", apperrors.NewValidationError("image too large", apperrors.ValidationDetail{
			Field:   "file",
			Message: "image must be at most 10 MB",
		})
	}
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", "", apperrors.NewValidationError("unsupported file type", apperrors.ValidationDetail{
			Field:   "file",
			Message: "file must be an image",
		})
	}

	key := uuid.NewString() + detected.Extension()
	if err := s.images.Upload(ctx, blob.BucketProductImages, key, bytes.NewReader(data)); err != nil {
		return "", "", apperrors.NewUnavailableError("image upload failed, please try again", err)
	}
	url, err := s.images.PublicURL(blob.BucketProductImages, key)
	if err != nil {
		return "", "", err
	}

	s.logger.Info("product image uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return url, key, nil
}

func (s *ProductService) apply(p *domain.Product, req dto.ProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if err := s.validate.Struct(req); err != nil {
		return err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || !price.IsPositive() {
		return apperrors.NewValidationError("invalid price", apperrors.ValidationDetail{
			Field:   "price",
			Message: "price must be a positive amount",
		})
	}

	slug := req.Slug
	if slug == "" {
		slug = domain.Slugify(req.Name)
	}
	if slug == "" {
		return apperrors.NewValidationError("slug is required", apperrors.ValidationDetail{
			Field:   "slug",
			Message: "slug is required when the name has no latin letters or digits",
		})
	}

	p.Name = req.Name
	p.NameAr = strings.TrimSpace(req.NameAr)
	p.Slug = slug
	p.Description = req.Description
	p.DescriptionAr = req.DescriptionAr
	p.Price = price.Round(2)
	p.Images = req.Images
	p.CategoryID = req.CategoryID
	p.Material = req.Material
	p.MaterialAr = req.MaterialAr
	p.Color = req.Color
	p.ColorAr = req.ColorAr
	p.Dimensions = req.Dimensions
	p.InStock = req.InStock
	p.Featured = req.Featured
	return nil
}
