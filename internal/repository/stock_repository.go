package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vendorhub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type StockCreateInput struct {
	VendorID             uuid.UUID
	ProductID            uuid.UUID
	WarehouseID          uuid.UUID
	Quantity             int
	PurchasePricePerUnit decimal.Decimal
	CommissionPercent    decimal.Decimal
}

type StockPatchInput struct {
	Quantity             *int
	PurchasePricePerUnit *decimal.Decimal
	CommissionPercent    *decimal.Decimal
}

func (r *Repository) CreateStock(ctx context.Context, input StockCreateInput) (domain.Stock, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO stocks (vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent, created_at, updated_at
	`, input.VendorID, input.ProductID, input.WarehouseID, input.Quantity, input.PurchasePricePerUnit, input.CommissionPercent)

	stock, err := scanStockRow(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.Stock{}, domain.FieldError("warehouse", "A stock entry for this product and warehouse already exists.")
		}
		return domain.Stock{}, fmt.Errorf("create stock: %w", err)
	}
	return stock, nil
}

func (r *Repository) GetStock(ctx context.Context, vendorID, id uuid.UUID) (*domain.Stock, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent, created_at, updated_at
		FROM stocks
		WHERE vendor_id = $1 AND id = $2
	`, vendorID, id)
	stock, err := scanStockRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get stock %s: %w", id, err)
	}
	return &stock, nil
}

// FindStock returns the stock row for a product at a specific warehouse, or
// ErrNotFound when none exists. The warehouse is always explicit; there is no
// ambient first-stock fallback.
func (r *Repository) FindStock(ctx context.Context, vendorID, productID, warehouseID uuid.UUID) (*domain.Stock, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent, created_at, updated_at
		FROM stocks
		WHERE vendor_id = $1 AND product_id = $2 AND warehouse_id = $3
	`, vendorID, productID, warehouseID)
	stock, err := scanStockRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find stock for product %s at warehouse %s: %w", productID, warehouseID, err)
	}
	return &stock, nil
}

type StockListFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Limit       int
	Offset      int
}

func (r *Repository) ListStocks(ctx context.Context, vendorID uuid.UUID, filter StockListFilter) ([]domain.Stock, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent, created_at, updated_at
		FROM stocks
		WHERE vendor_id = $1
	`
	args := []any{vendorID}
	argIndex := 2
	if filter.ProductID != nil {
		query += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
		argIndex++
	}
	if filter.WarehouseID != nil {
		query += fmt.Sprintf(" AND warehouse_id = $%d", argIndex)
		args = append(args, *filter.WarehouseID)
		argIndex++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]domain.Stock, 0, limit)
	for rows.Next() {
		stock, err := scanStockRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stocks: %w", err)
	}
	return stocks, nil
}

func (r *Repository) PatchStock(ctx context.Context, vendorID, id uuid.UUID, input StockPatchInput) (*domain.Stock, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch stock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent, created_at, updated_at
		FROM stocks
		WHERE vendor_id = $1 AND id = $2
		FOR UPDATE
	`, vendorID, id)
	stock, err := scanStockRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load stock for patch: %w", err)
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, domain.FieldError("quantity", "Quantity cannot be negative.")
		}
		stock.Quantity = *input.Quantity
	}
	if input.PurchasePricePerUnit != nil {
		if input.PurchasePricePerUnit.IsNegative() {
			return nil, domain.FieldError("purchase_price_per_unit", "Purchase price cannot be negative.")
		}
		stock.PurchasePricePerUnit = *input.PurchasePricePerUnit
	}
	if input.CommissionPercent != nil {
		if input.CommissionPercent.IsNegative() {
			return nil, domain.FieldError("commission_percent", "Commission percent cannot be negative.")
		}
		stock.CommissionPercent = *input.CommissionPercent
	}

	row = tx.QueryRow(ctx, `
		UPDATE stocks
		SET quantity = $3, purchase_price_per_unit = $4, commission_percent = $5, updated_at = NOW()
		WHERE vendor_id = $1 AND id = $2
		RETURNING id, vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent, created_at, updated_at
	`, vendorID, id, stock.Quantity, stock.PurchasePricePerUnit, stock.CommissionPercent)
	updated, err := scanStockRow(row)
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch stock tx: %w", err)
	}
	return &updated, nil
}

func (r *Repository) DeleteStock(ctx context.Context, vendorID, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM stocks WHERE vendor_id = $1 AND id = $2", vendorID, id)
	if err != nil {
		return fmt.Errorf("delete stock %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyMovement records a stock movement and applies it to the stock ledger in
// one transaction. The movement must already pass structural validation. Rules:
//
//	in:       increments the stock row at the destination warehouse
//	out:      decrements the stock row at the source warehouse
//	transfer: decrements source, increments destination
//
// Stock rows are created via the stock API, not by movements: a movement that
// references a warehouse without a stock row for the product fails validation.
// Decrements lock the row and re-check sufficiency, so the ledger quantity can
// never go negative.
func (r *Repository) ApplyMovement(ctx context.Context, movement domain.StockMovement) (domain.StockMovement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.StockMovement{}, fmt.Errorf("begin movement tx: %w", err)
	}
	defer tx.Rollback(ctx)

	switch movement.MovementType {
	case domain.MovementIn:
		if err := incrementStockTx(ctx, tx, movement.VendorID, movement.ProductID, *movement.ToWarehouseID, movement.Quantity, "to_warehouse"); err != nil {
			return domain.StockMovement{}, err
		}
	case domain.MovementOut:
		if err := decrementStockTx(ctx, tx, movement.VendorID, movement.ProductID, *movement.FromWarehouseID, movement.Quantity, "from_warehouse"); err != nil {
			return domain.StockMovement{}, err
		}
	case domain.MovementTransfer:
		if err := decrementStockTx(ctx, tx, movement.VendorID, movement.ProductID, *movement.FromWarehouseID, movement.Quantity, "from_warehouse"); err != nil {
			return domain.StockMovement{}, err
		}
		if err := incrementStockTx(ctx, tx, movement.VendorID, movement.ProductID, *movement.ToWarehouseID, movement.Quantity, "to_warehouse"); err != nil {
			return domain.StockMovement{}, err
		}
	default:
		return domain.StockMovement{}, domain.FieldError("movement_type", "Movement type must be one of: in, out, transfer.")
	}

	recorded, err := insertMovementTx(ctx, tx, movement)
	if err != nil {
		return domain.StockMovement{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StockMovement{}, fmt.Errorf("commit movement tx: %w", err)
	}
	return recorded, nil
}

type MovementListFilter struct {
	ProductID    *uuid.UUID
	MovementType string
	Limit        int
	Offset       int
}

func (r *Repository) ListMovements(ctx context.Context, vendorID uuid.UUID, filter MovementListFilter) ([]domain.StockMovement, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, vendor_id, product_id, movement_type, from_warehouse_id, to_warehouse_id, quantity, remarks, created_at
		FROM stock_movements
		WHERE vendor_id = $1
		  AND ($2 = '' OR movement_type = $2)
	`
	args := []any{vendorID, strings.TrimSpace(filter.MovementType)}
	argIndex := 3
	if filter.ProductID != nil {
		query += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
		argIndex++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		movement, err := scanMovementRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return movements, nil
}

// BulkUpsertStocks imports stock rows resolved by product SKU and warehouse
// name. Rows whose SKU or warehouse cannot be resolved for the vendor are
// reported in Unmatched rather than failing the whole import.
func (r *Repository) BulkUpsertStocks(ctx context.Context, vendorID uuid.UUID, rows []domain.StockImportRow) (domain.StockImportResult, error) {
	result := domain.StockImportResult{}
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin stock import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, line := range rows {
		sku := strings.TrimSpace(line.SKU)
		warehouseName := strings.TrimSpace(line.WarehouseName)
		if sku == "" || warehouseName == "" {
			continue
		}

		var productID uuid.UUID
		err := tx.QueryRow(ctx,
			"SELECT id FROM products WHERE vendor_id = $1 AND sku = $2",
			vendorID, sku,
		).Scan(&productID)
		if errors.Is(err, pgx.ErrNoRows) {
			result.Unmatched = append(result.Unmatched, sku)
			continue
		}
		if err != nil {
			return domain.StockImportResult{}, fmt.Errorf("resolve product %q: %w", sku, err)
		}

		var warehouseID uuid.UUID
		err = tx.QueryRow(ctx,
			"SELECT id FROM warehouses WHERE vendor_id = $1 AND LOWER(name) = LOWER($2)",
			vendorID, warehouseName,
		).Scan(&warehouseID)
		if errors.Is(err, pgx.ErrNoRows) {
			result.Unmatched = append(result.Unmatched, sku+" @ "+warehouseName)
			continue
		}
		if err != nil {
			return domain.StockImportResult{}, fmt.Errorf("resolve warehouse %q: %w", warehouseName, err)
		}

		var inserted bool
		if err := tx.QueryRow(ctx, `
			INSERT INTO stocks (vendor_id, product_id, warehouse_id, quantity, purchase_price_per_unit, commission_percent)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT ON CONSTRAINT uq_stocks_product_warehouse
			DO UPDATE SET
				quantity = EXCLUDED.quantity,
				purchase_price_per_unit = EXCLUDED.purchase_price_per_unit,
				commission_percent = EXCLUDED.commission_percent,
				updated_at = NOW()
			RETURNING (xmax = 0)
		`, vendorID, productID, warehouseID, line.Quantity, line.PurchasePrice, line.CommissionPercent).Scan(&inserted); err != nil {
			return domain.StockImportResult{}, fmt.Errorf("upsert stock for %q: %w", sku, err)
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StockImportResult{}, fmt.Errorf("commit stock import tx: %w", err)
	}
	return result, nil
}

func incrementStockTx(ctx context.Context, tx pgx.Tx, vendorID, productID, warehouseID uuid.UUID, quantity int, field string) error {
	cmd, err := tx.Exec(ctx, `
		UPDATE stocks
		SET quantity = quantity + $4, updated_at = NOW()
		WHERE vendor_id = $1 AND product_id = $2 AND warehouse_id = $3
	`, vendorID, productID, warehouseID, quantity)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.FieldError(field, "No stock entry found for this product at the destination warehouse.")
	}
	return nil
}

func decrementStockTx(ctx context.Context, tx pgx.Tx, vendorID, productID, warehouseID uuid.UUID, quantity int, field string) error {
	var available int
	err := tx.QueryRow(ctx, `
		SELECT quantity
		FROM stocks
		WHERE vendor_id = $1 AND product_id = $2 AND warehouse_id = $3
		FOR UPDATE
	`, vendorID, productID, warehouseID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FieldError(field, "No stock entry found for this product at the source warehouse.")
	}
	if err != nil {
		return fmt.Errorf("lock stock for decrement: %w", err)
	}

	// Conditional decrement: the quantity guard re-checks sufficiency under
	// the lock, so concurrent movements cannot jointly overdraw the row.
	cmd, err := tx.Exec(ctx, `
		UPDATE stocks
		SET quantity = quantity - $4, updated_at = NOW()
		WHERE vendor_id = $1 AND product_id = $2 AND warehouse_id = $3 AND quantity >= $4
	`, vendorID, productID, warehouseID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.FieldError("quantity", "Not enough stock available.")
	}
	return nil
}

func insertMovementTx(ctx context.Context, tx pgx.Tx, movement domain.StockMovement) (domain.StockMovement, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO stock_movements (vendor_id, product_id, movement_type, from_warehouse_id, to_warehouse_id, quantity, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, vendor_id, product_id, movement_type, from_warehouse_id, to_warehouse_id, quantity, remarks, created_at
	`,
		movement.VendorID,
		movement.ProductID,
		movement.MovementType,
		movement.FromWarehouseID,
		movement.ToWarehouseID,
		movement.Quantity,
		strings.TrimSpace(movement.Remarks),
	)
	recorded, err := scanMovementRow(row)
	if err != nil {
		return domain.StockMovement{}, fmt.Errorf("insert movement: %w", err)
	}
	return recorded, nil
}

func scanStockRow(row pgx.Row) (domain.Stock, error) {
	var stock domain.Stock
	if err := row.Scan(
		&stock.ID,
		&stock.VendorID,
		&stock.ProductID,
		&stock.WarehouseID,
		&stock.Quantity,
		&stock.PurchasePricePerUnit,
		&stock.CommissionPercent,
		&stock.CreatedAt,
		&stock.UpdatedAt,
	); err != nil {
		return domain.Stock{}, err
	}
	return stock, nil
}

func scanMovementRow(row pgx.Row) (domain.StockMovement, error) {
	var movement domain.StockMovement
	if err := row.Scan(
		&movement.ID,
		&movement.VendorID,
		&movement.ProductID,
		&movement.MovementType,
		&movement.FromWarehouseID,
		&movement.ToWarehouseID,
		&movement.Quantity,
		&movement.Remarks,
		&movement.CreatedAt,
	); err != nil {
		return domain.StockMovement{}, err
	}
	return movement, nil
}
