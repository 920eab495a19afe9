package usecase

import (
	"context"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	"github.com/moaz267/furniture/internal/product/service"
)

type CatalogService interface {
	List(ctx context.Context, q service.Query) (*service.Page, error)
	Get(ctx context.Context, idOrSlug string) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type SearchUseCase struct {
	service CatalogService
}

func NewSearchUseCase(service CatalogService) *SearchUseCase {
	return &SearchUseCase{service: service}
}

func (uc *SearchUseCase) SearchProducts(ctx context.Context, lang domain.Language, q service.Query) (*dto.ProductListResponse, error) {
	page, err := uc.service.List(ctx, q)
	if err != nil {
		return nil, err
	}

	products := make([]dto.ProductDTO, 0, len(page.Products))
	for _, p := range page.Products {
		products = append(products, ToProductDTO(p, lang))
	}

	return &dto.ProductListResponse{
		Products:   products,
		Page:       page.Page,
		PageSize:   service.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, nil
}

func (uc *SearchUseCase) GetProduct(ctx context.Context, lang domain.Language, idOrSlug string) (*dto.ProductDTO, error) {
	p, err := uc.service.Get(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	out := ToProductDTO(*p, lang)
	return &out, nil
}

func (uc *SearchUseCase) Categories(ctx context.Context, lang domain.Language) ([]dto.CategoryDTO, error) {
	categories, err := uc.service.Categories(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, dto.CategoryDTO{
			ID:          c.ID,
			Name:        c.Name,
			NameAr:      c.NameAr,
			DisplayName: lang.Pick(c.Name, c.NameAr),
			Slug:        c.Slug,
		})
	}
	return out, nil
}

// ToProductDTO returns both language variants plus the ones resolved for lang.
func ToProductDTO(p domain.Product, lang domain.Language) dto.ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return dto.ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		NameAr:             p.NameAr,
		DisplayName:        lang.Pick(p.Name, p.NameAr),
		Slug:               p.Slug,
		Description:        p.Description,
		DescriptionAr:      p.DescriptionAr,
		DisplayDescription: lang.Pick(p.Description, p.DescriptionAr),
		Price:              p.Price.StringFixed(2),
		Images:             images,
		CategoryID:         p.CategoryID,
		Material:           p.Material,
		MaterialAr:         p.MaterialAr,
		Color:              p.Color,
		ColorAr:            p.ColorAr,
		Dimensions:         p.Dimensions,
		InStock:            p.InStock,
		Featured:           p.Featured,
		CreatedAt:          p.CreatedAt,
	}
}
