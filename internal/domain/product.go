package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string
	Name          string
	NameAr        string
	Slug          string
	Description   string
	DescriptionAr string
	Price         decimal.Decimal
	Images        []string
	CategoryID    *string
	Material      string
	MaterialAr    string
	Color         string
	ColorAr       string
	Dimensions    string
	InStock       bool
	Featured      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PrimaryImage is the image shown in listings and cart rows.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Category struct {
	ID        string
	Name      string
	NameAr    string
	Slug      string
	CreatedAt time.Time
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every run of characters outside
// [a-z0-9] into a single hyphen. Names without any latin letters or digits
// produce an empty slug.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
