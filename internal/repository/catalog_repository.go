package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vendorhub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductCreateInput struct {
	VendorID    uuid.UUID
	CategoryID  uuid.UUID
	SKU         string
	Tool        string
	Attributes  map[string]any
	Description string
}

type ProductPatchInput struct {
	Tool        *string
	Attributes  *map[string]any
	Description *string
}

type ProductListFilter struct {
	Search     string
	CategoryID *uuid.UUID
	Limit      int
	Offset     int
}

// CreateProduct inserts a product with an already-resolved SKU and tool.
// A unique violation on the SKU is returned as-is so the service can retry
// generation; callers check it with IsUniqueViolation.
func (r *Repository) CreateProduct(ctx context.Context, input ProductCreateInput) (domain.Product, error) {
	attributes := input.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (vendor_id, category_id, sku, tool, attributes, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, vendor_id, category_id, sku, tool, attributes, description, created_at, updated_at
	`, input.VendorID, input.CategoryID, input.SKU, input.Tool, attributes, strings.TrimSpace(input.Description))

	product, err := scanProductRow(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (r *Repository) GetProduct(ctx context.Context, vendorID, id uuid.UUID) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, category_id, sku, tool, attributes, description, created_at, updated_at
		FROM products
		WHERE vendor_id = $1 AND id = $2
	`, vendorID, id)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

func (r *Repository) ListProducts(ctx context.Context, vendorID uuid.UUID, filter ProductListFilter) ([]domain.Product, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	query := `
		SELECT id, vendor_id, category_id, sku, tool, attributes, description, created_at, updated_at
		FROM products
		WHERE vendor_id = $1
		  AND ($2 = '' OR sku ILIKE '%' || $2 || '%' OR tool ILIKE '%' || $2 || '%')
	`
	args := []any{vendorID, search}
	argIndex := 3
	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argIndex)
		args = append(args, *filter.CategoryID)
		argIndex++
	}
	query += fmt.Sprintf(" ORDER BY sku ASC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		product, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// PatchProduct updates the mutable product fields. The SKU is assigned at
// creation and never regenerated afterwards, so it is not patchable.
func (r *Repository) PatchProduct(ctx context.Context, vendorID, id uuid.UUID, input ProductPatchInput) (*domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch product tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, vendor_id, category_id, sku, tool, attributes, description, created_at, updated_at
		FROM products
		WHERE vendor_id = $1 AND id = $2
		FOR UPDATE
	`, vendorID, id)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load product for patch: %w", err)
	}

	if input.Tool != nil {
		product.Tool = strings.TrimSpace(*input.Tool)
	}
	if input.Attributes != nil {
		product.Attributes = *input.Attributes
		if product.Attributes == nil {
			product.Attributes = map[string]any{}
		}
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}

	row = tx.QueryRow(ctx, `
		UPDATE products
		SET tool = $3, attributes = $4, description = $5, updated_at = NOW()
		WHERE vendor_id = $1 AND id = $2
		RETURNING id, vendor_id, category_id, sku, tool, attributes, description, created_at, updated_at
	`, vendorID, id, product.Tool, product.Attributes, product.Description)
	updated, err := scanProductRow(row)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch product tx: %w", err)
	}
	return &updated, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, vendorID, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM products WHERE vendor_id = $1 AND id = $2", vendorID, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type WarehouseCreateInput struct {
	VendorID uuid.UUID
	Name     string
	Location string
}

type WarehousePatchInput struct {
	Name     *string
	Location *string
}

func (r *Repository) CreateWarehouse(ctx context.Context, input WarehouseCreateInput) (domain.Warehouse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Warehouse{}, domain.FieldError("name", "Warehouse name is required.")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO warehouses (vendor_id, name, location)
		VALUES ($1, $2, $3)
		RETURNING id, vendor_id, name, location, created_at, updated_at
	`, input.VendorID, name, strings.TrimSpace(input.Location))

	warehouse, err := scanWarehouseRow(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.Warehouse{}, domain.FieldError("name", "A warehouse with this name already exists for this vendor.")
		}
		return domain.Warehouse{}, fmt.Errorf("create warehouse: %w", err)
	}
	return warehouse, nil
}

func (r *Repository) GetWarehouse(ctx context.Context, vendorID, id uuid.UUID) (*domain.Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, name, location, created_at, updated_at
		FROM warehouses
		WHERE vendor_id = $1 AND id = $2
	`, vendorID, id)
	warehouse, err := scanWarehouseRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get warehouse %s: %w", id, err)
	}
	return &warehouse, nil
}

func (r *Repository) ListWarehouses(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]domain.Warehouse, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	rows, err := r.pool.Query(ctx, `
		SELECT id, vendor_id, name, location, created_at, updated_at
		FROM warehouses
		WHERE vendor_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`, vendorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := make([]domain.Warehouse, 0, limit)
	for rows.Next() {
		warehouse, err := scanWarehouseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		warehouses = append(warehouses, warehouse)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouses: %w", err)
	}
	return warehouses, nil
}

func (r *Repository) PatchWarehouse(ctx context.Context, vendorID, id uuid.UUID, input WarehousePatchInput) (*domain.Warehouse, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch warehouse tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, vendor_id, name, location, created_at, updated_at
		FROM warehouses
		WHERE vendor_id = $1 AND id = $2
		FOR UPDATE
	`, vendorID, id)
	warehouse, err := scanWarehouseRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load warehouse for patch: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.FieldError("name", "Warehouse name cannot be empty.")
		}
		warehouse.Name = name
	}
	if input.Location != nil {
		warehouse.Location = strings.TrimSpace(*input.Location)
	}

	row = tx.QueryRow(ctx, `
		UPDATE warehouses
		SET name = $3, location = $4, updated_at = NOW()
		WHERE vendor_id = $1 AND id = $2
		RETURNING id, vendor_id, name, location, created_at, updated_at
	`, vendorID, id, warehouse.Name, warehouse.Location)
	updated, err := scanWarehouseRow(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, domain.FieldError("name", "A warehouse with this name already exists for this vendor.")
		}
		return nil, fmt.Errorf("update warehouse: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch warehouse tx: %w", err)
	}
	return &updated, nil
}

func (r *Repository) DeleteWarehouse(ctx context.Context, vendorID, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM warehouses WHERE vendor_id = $1 AND id = $2", vendorID, id)
	if err != nil {
		return fmt.Errorf("delete warehouse %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProductRow(row pgx.Row) (domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.VendorID,
		&product.CategoryID,
		&product.SKU,
		&product.Tool,
		&product.Attributes,
		&product.Description,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	if product.Attributes == nil {
		product.Attributes = map[string]any{}
	}
	return product, nil
}

func scanWarehouseRow(row pgx.Row) (domain.Warehouse, error) {
	var warehouse domain.Warehouse
	if err := row.Scan(
		&warehouse.ID,
		&warehouse.VendorID,
		&warehouse.Name,
		&warehouse.Location,
		&warehouse.CreatedAt,
		&warehouse.UpdatedAt,
	); err != nil {
		return domain.Warehouse{}, err
	}
	return warehouse, nil
}
