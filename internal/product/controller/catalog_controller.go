package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/i18n"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	"github.com/moaz267/furniture/internal/product/service"
)

type SearchUseCase interface {
	SearchProducts(ctx context.Context, lang domain.Language, q service.Query) (*dto.ProductListResponse, error)
	GetProduct(ctx context.Context, lang domain.Language, idOrSlug string) (*dto.ProductDTO, error)
	Categories(ctx context.Context, lang domain.Language) ([]dto.CategoryDTO, error)
}

type CatalogController struct {
	useCase SearchUseCase
	logger  *zap.Logger
}

func NewCatalogController(useCase SearchUseCase, logger *zap.Logger) *CatalogController {
	return &CatalogController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *CatalogController) Routes(r chi.Router) {
	r.Get("/categories", c.ListCategories)
	r.Get("/products", c.ListProducts)
	r.Get("/products/{idOrSlug}", c.GetProduct)
}

func (c *CatalogController) ListProducts(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	q, err := parseQuery(r)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	resp, err := c.useCase.SearchProducts(r.Context(), i18n.FromContext(r.Context()), q)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, resp, logger)
}

func (c *CatalogController) GetProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	p, err := c.useCase.GetProduct(r.Context(), i18n.FromContext(r.Context()), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, p, logger)
}

func (c *CatalogController) ListCategories(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	categories, err := c.useCase.Categories(r.Context(), i18n.FromContext(r.Context()))
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, categories, logger)
}

func parseQuery(r *http.Request) (service.Query, error) {
	values := r.URL.Query()
	q := service.Query{CategorySlug: values.Get("category"), Page: 1}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, apperrors.NewValidationError("invalid page", apperrors.ValidationDetail{
				Field:   "page",
				Message: "page must be a positive integer",
			})
		}
		q.Page = page
	}

	var err error
	if q.MinPrice, err = priceParam(values.Get("min"), "min"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceParam(values.Get("max"), "max"); err != nil {
		return q, err
	}
	return q, nil
}

func priceParam(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperrors.NewValidationError("invalid price filter", apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be a non-negative amount",
		})
	}
	return &d, nil
}
