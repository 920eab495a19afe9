package usecase

import (
	"context"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
)

type AdminService interface {
	Create(ctx context.Context, req dto.ProductRequest) (*domain.Product, error)
	Update(ctx context.Context, id string, req dto.ProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, data []byte) (url string, key string, err error)
}

type ManageUseCase struct {
	service AdminService
}

func NewManageUseCase(service AdminService) *ManageUseCase {
	return &ManageUseCase{service: service}
}

func (uc *ManageUseCase) CreateProduct(ctx context.Context, lang domain.Language, req dto.ProductRequest) (*dto.ProductDTO, error) {
	p, err := uc.service.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	out := ToProductDTO(*p, lang)
	return &out, nil
}

func (uc *ManageUseCase) UpdateProduct(ctx context.Context, lang domain.Language, id string, req dto.ProductRequest) (*dto.ProductDTO, error) {
	p, err := uc.service.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	out := ToProductDTO(*p, lang)
	return &out, nil
}

func (uc *ManageUseCase) DeleteProduct(ctx context.Context, id string) error {
	return uc.service.Delete(ctx, id)
}

func (uc *ManageUseCase) UploadImage(ctx context.Context, data []byte) (*dto.ImageUploadResponse, error) {
	url, key, err := uc.service.UploadImage(ctx, data)
	if err != nil {
		return nil, err
	}
	return &dto.ImageUploadResponse{URL: url, Key: key}, nil
}
