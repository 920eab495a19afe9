package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/infrastructure/mysql"
)

const productColumns = `
	id, name, name_ar, slug, COALESCE(description, ''), COALESCE(description_ar, ''),
	price, images, category_id, material, material_ar, color, color_ar,
	dimensions, in_stock, featured, created_at, updated_at`

// Filter narrows a product listing. Nil bounds are open.
type Filter struct {
	CategoryID *string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Limit      int
	Offset     int
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.CategoryID != nil {
		clauses = append(clauses, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.MinPrice != nil {
		clauses = append(clauses, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p      domain.Product
		images []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.NameAr, &p.Slug, &p.Description, &p.DescriptionAr,
		&p.Price, &images, &p.CategoryID, &p.Material, &p.MaterialAr, &p.Color, &p.ColorAr,
		&p.Dimensions, &p.InStock, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("decoding images of product %s: %w", p.ID, err)
	}
	return &p, nil
}

// List returns products newest first.
func (r *MySQLRepository) List(ctx context.Context, filter Filter) ([]domain.Product, error) {
	where, args := filter.where()
	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return products, nil
}

func (r *MySQLRepository) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.where()

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

func (r *MySQLRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *MySQLRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, `slug = ?`, slug)
}

func (r *MySQLRepository) findOne(ctx context.Context, cond string, arg any) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE `+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %v not found", arg))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return p, nil
}

func (r *MySQLRepository) Create(ctx context.Context, p *domain.Product) error {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	query := `
		INSERT INTO products (
			id, name, name_ar, slug, description, description_ar, price, images, category_id,
			material, material_ar, color, color_ar, dimensions, in_stock, featured, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.NameAr, p.Slug, p.Description, p.DescriptionAr, p.Price, images, p.CategoryID,
		p.Material, p.MaterialAr, p.Color, p.ColorAr, p.Dimensions, p.InStock, p.Featured, p.CreatedAt, p.UpdatedAt,
	)
	return writeError(err, p, "inserting product")
}

func (r *MySQLRepository) Update(ctx context.Context, p *domain.Product) error {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	query := `
		UPDATE products SET
			name = ?, name_ar = ?, slug = ?, description = ?, description_ar = ?, price = ?, images = ?,
			category_id = ?, material = ?, material_ar = ?, color = ?, color_ar = ?, dimensions = ?,
			in_stock = ?, featured = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.NameAr, p.Slug, p.Description, p.DescriptionAr, p.Price, images,
		p.CategoryID, p.Material, p.MaterialAr, p.Color, p.ColorAr, p.Dimensions,
		p.InStock, p.Featured, p.UpdatedAt, p.ID,
	)
	if err := writeError(err, p, "updating product"); err != nil {
		return err
	}

	// MySQL reports matched rows as unaffected when nothing changed, so a
	// zero count is confirmed with a lookup.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := r.FindByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
	}
	return nil
}

func (r *MySQLRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, name_ar, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.NameAr, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *MySQLRepository) FindCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.findCategory(ctx, `slug = ?`, slug)
}

func (r *MySQLRepository) FindCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.findCategory(ctx, `id = ?`, id)
}

func (r *MySQLRepository) findCategory(ctx context.Context, cond string, arg any) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, name_ar, slug, created_at FROM categories WHERE `+cond, arg,
	).Scan(&c.ID, &c.Name, &c.NameAr, &c.Slug, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("category %v not found", arg))
	}
	if err != nil {
		return nil, fmt.Errorf("querying category: %w", err)
	}
	return &c, nil
}

func writeError(err error, p *domain.Product, op string) error {
	switch {
	case err == nil:
		return nil
	case mysql.IsDuplicateEntry(err):
		return apperrors.NewConflictError(fmt.Sprintf("slug %q is already used by another product", p.Slug))
	case mysql.IsMissingReference(err):
		return apperrors.NewValidationError("unknown category", apperrors.ValidationDetail{
			Field:   "categoryId",
			Message: "categoryId must name an existing category",
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nonNil(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
