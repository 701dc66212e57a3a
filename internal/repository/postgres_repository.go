package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vendorhub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The service layer maps these to field-level validation errors
// (duplicate category name, duplicate stock row, SKU collision).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type VendorCreateInput struct {
	Name  string
	Email *string
}

func (r *Repository) CreateVendor(ctx context.Context, input VendorCreateInput) (domain.Vendor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Vendor{}, domain.FieldError("name", "Vendor name is required.")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO vendors (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email, active, created_at, updated_at
	`, name, input.Email)

	vendor, err := scanVendorRow(row)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	return vendor, nil
}

func (r *Repository) GetVendor(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM vendors
		WHERE id = $1
	`, id)
	vendor, err := scanVendorRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vendor %s: %w", id, err)
	}
	return &vendor, nil
}

func (r *Repository) ListVendors(ctx context.Context, limit, offset int) ([]domain.Vendor, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM vendors
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	vendors := make([]domain.Vendor, 0, limit)
	for rows.Next() {
		vendor, err := scanVendorRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}
	return vendors, nil
}

type CategoryCreateInput struct {
	VendorID uuid.UUID
	Name     string
	Tools    []string
}

type CategoryPatchInput struct {
	Name  *string
	Tools *[]string
}

func (r *Repository) CreateCategory(ctx context.Context, input CategoryCreateInput) (domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Category{}, domain.FieldError("name", "Category name is required.")
	}
	tools := input.Tools
	if tools == nil {
		tools = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (vendor_id, name, tools)
		VALUES ($1, $2, $3)
		RETURNING id, vendor_id, name, tools, created_at, updated_at
	`, input.VendorID, name, tools)

	category, err := scanCategoryRow(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.Category{}, domain.FieldError("name", "A category with this name already exists for this vendor.")
		}
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (r *Repository) GetCategory(ctx context.Context, vendorID, id uuid.UUID) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, name, tools, created_at, updated_at
		FROM categories
		WHERE vendor_id = $1 AND id = $2
	`, vendorID, id)
	category, err := scanCategoryRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return &category, nil
}

func (r *Repository) ListCategories(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]domain.Category, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	rows, err := r.pool.Query(ctx, `
		SELECT id, vendor_id, name, tools, created_at, updated_at
		FROM categories
		WHERE vendor_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`, vendorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, limit)
	for rows.Next() {
		category, err := scanCategoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *Repository) PatchCategory(ctx context.Context, vendorID, id uuid.UUID, input CategoryPatchInput) (*domain.Category, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch category tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, vendor_id, name, tools, created_at, updated_at
		FROM categories
		WHERE vendor_id = $1 AND id = $2
		FOR UPDATE
	`, vendorID, id)
	category, err := scanCategoryRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load category for patch: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.FieldError("name", "Category name cannot be empty.")
		}
		category.Name = name
	}
	if input.Tools != nil {
		category.Tools = *input.Tools
		if category.Tools == nil {
			category.Tools = []string{}
		}
	}

	row = tx.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, tools = $4, updated_at = NOW()
		WHERE vendor_id = $1 AND id = $2
		RETURNING id, vendor_id, name, tools, created_at, updated_at
	`, vendorID, id, category.Name, category.Tools)
	updated, err := scanCategoryRow(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, domain.FieldError("name", "A category with this name already exists for this vendor.")
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch category tx: %w", err)
	}
	return &updated, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, vendorID, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM categories WHERE vendor_id = $1 AND id = $2", vendorID, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVendorRow(row pgx.Row) (domain.Vendor, error) {
	var vendor domain.Vendor
	if err := row.Scan(
		&vendor.ID,
		&vendor.Name,
		&vendor.Email,
		&vendor.Active,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	); err != nil {
		return domain.Vendor{}, err
	}
	return vendor, nil
}

func scanCategoryRow(row pgx.Row) (domain.Category, error) {
	var category domain.Category
	if err := row.Scan(
		&category.ID,
		&category.VendorID,
		&category.Name,
		&category.Tools,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return domain.Category{}, err
	}
	if category.Tools == nil {
		category.Tools = []string{}
	}
	return category, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
