package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/access/guard"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/i18n"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	"github.com/moaz267/furniture/internal/product/service"
)

type ManageUseCase interface {
	CreateProduct(ctx context.Context, lang domain.Language, req dto.ProductRequest) (*dto.ProductDTO, error)
	UpdateProduct(ctx context.Context, lang domain.Language, id string, req dto.ProductRequest) (*dto.ProductDTO, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadImage(ctx context.Context, data []byte) (*dto.ImageUploadResponse, error)
}

type Gate interface {
	Require(capability guard.Capability) func(http.Handler) http.Handler
}

type AdminProductController struct {
	useCase ManageUseCase
	logger  *zap.Logger
}

func NewAdminProductController(useCase ManageUseCase, logger *zap.Logger) *AdminProductController {
	return &AdminProductController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *AdminProductController) Routes(r chi.Router, gate Gate) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(guard.ManageProducts))
		r.Post("/products", c.CreateProduct)
		r.Post("/products/images", c.UploadImage)
		r.Put("/products/{id}", c.UpdateProduct)
		r.Delete("/products/{id}", c.DeleteProduct)
	})
}

func (c *AdminProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.ProductRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.CreateProduct(r.Context(), i18n.FromContext(r.Context()), req)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusCreated, p, logger)
}

func (c *AdminProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	var req dto.ProductRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.UpdateProduct(r.Context(), i18n.FromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusOK, p, logger)
}

func (c *AdminProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	if err := c.useCase.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AdminProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpjson.Trace(c.logger, r)

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageBytes+(1<<20))
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpjson.WriteValidationError(w, traceID, "image too large", logger, apperrors.ValidationDetail{
				Field:   "file",
				Message: "image must be at most 10 MB",
			})
			return
		}
		httpjson.WriteValidationError(w, traceID, "image is required", logger, apperrors.ValidationDetail{
			Field:   "file",
			Message: "an image file is required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageBytes+1))
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}

	resp, err := c.useCase.UploadImage(r.Context(), data)
	if err != nil {
		httpjson.WriteError(w, traceID, err, logger)
		return
	}
	httpjson.Write(w, http.StatusCreated, resp, logger)
}
