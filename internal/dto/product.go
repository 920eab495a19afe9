package dto

import "time"

type CategoryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameAr      string `json:"nameAr"`
	DisplayName string `json:"displayName"`
	Slug        string `json:"slug"`
}

type ProductDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	NameAr             string    `json:"nameAr"`
	DisplayName        string    `json:"displayName"`
	Slug               string    `json:"slug"`
	Description        string    `json:"description"`
	DescriptionAr      string    `json:"descriptionAr"`
	DisplayDescription string    `json:"displayDescription"`
	Price              string    `json:"price"`
	Images             []string  `json:"images"`
	CategoryID         *string   `json:"categoryId"`
	Material           string    `json:"material"`
	MaterialAr         string    `json:"materialAr"`
	Color              string    `json:"color"`
	ColorAr            string    `json:"colorAr"`
	Dimensions         string    `json:"dimensions"`
	InStock            bool      `json:"inStock"`
	Featured           bool      `json:"featured"`
	CreatedAt          time.Time `json:"createdAt"`
}

type ProductListResponse struct {
	Products   []ProductDTO `json:"products"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}

type ProductRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	NameAr        string   `json:"nameAr" validate:"max=200"`
	Slug          string   `json:"slug" validate:"omitempty,max=220"`
	Description   string   `json:"description"`
	DescriptionAr string   `json:"descriptionAr"`
	Price         string   `json:"price" validate:"required"`
	Images        []string `json:"images" validate:"max=12,dive,required,max=500"`
	CategoryID    *string  `json:"categoryId" validate:"omitempty,uuid"`
	Material      string   `json:"material" validate:"max=120"`
	MaterialAr    string   `json:"materialAr" validate:"max=120"`
	Color         string   `json:"color" validate:"max=80"`
	ColorAr       string   `json:"colorAr" validate:"max=80"`
	Dimensions    string   `json:"dimensions" validate:"max=120"`
	InStock       bool     `json:"inStock"`
	Featured      bool     `json:"featured"`
}

type ImageUploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}
