package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendorhub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type SaleCreateInput struct {
	VendorID            uuid.UUID
	ProductID           uuid.UUID
	WarehouseID         uuid.UUID
	Quantity            int
	SellingPricePerUnit decimal.Decimal
	// Process applies the sale to the stock ledger in the same transaction
	// as the insert, so create-and-process is all-or-nothing.
	Process bool
}

func (r *Repository) CreateSale(ctx context.Context, input SaleCreateInput) (domain.Sale, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("begin create sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO sales (vendor_id, product_id, warehouse_id, quantity, selling_price_per_unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, vendor_id, product_id, warehouse_id, quantity, selling_price_per_unit, processed_at, created_at, updated_at
	`, input.VendorID, input.ProductID, input.WarehouseID, input.Quantity, input.SellingPricePerUnit)
	sale, err := scanSaleRow(row)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("insert sale: %w", err)
	}

	if input.Process {
		processed, err := processSaleTx(ctx, tx, &sale)
		if err != nil {
			return domain.Sale{}, err
		}
		sale = *processed
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Sale{}, fmt.Errorf("commit create sale tx: %w", err)
	}
	return sale, nil
}

// ProcessSale atomically applies a previously created sale to the stock
// ledger: the stock row is locked, sufficiency is re-checked under the lock,
// the quantity is decremented with a conditional update, an implicit "out"
// movement is recorded, and the sale is stamped processed. Either every write
// commits or none does. Processing is terminal; a second call fails validation.
func (r *Repository) ProcessSale(ctx context.Context, vendorID, saleID uuid.UUID) (*domain.Sale, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin process sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, selling_price_per_unit, processed_at, created_at, updated_at
		FROM sales
		WHERE vendor_id = $1 AND id = $2
		FOR UPDATE
	`, vendorID, saleID)
	sale, err := scanSaleRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load sale %s: %w", saleID, err)
	}

	processed, err := processSaleTx(ctx, tx, &sale)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit process sale tx: %w", err)
	}
	return processed, nil
}

func processSaleTx(ctx context.Context, tx pgx.Tx, sale *domain.Sale) (*domain.Sale, error) {
	if sale.Processed() {
		return nil, domain.FieldError("sale", "Sale has already been processed.")
	}

	var available int
	err := tx.QueryRow(ctx, `
		SELECT quantity
		FROM stocks
		WHERE vendor_id = $1 AND product_id = $2 AND warehouse_id = $3
		FOR UPDATE
	`, sale.VendorID, sale.ProductID, sale.WarehouseID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.FieldError("product", "No stock entry found for this product.")
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock for sale: %w", err)
	}

	// Conditional decrement guards against a race between validation and
	// execution: two concurrent sales against the same row can never jointly
	// exceed the available quantity.
	cmd, err := tx.Exec(ctx, `
		UPDATE stocks
		SET quantity = quantity - $4, updated_at = NOW()
		WHERE vendor_id = $1 AND product_id = $2 AND warehouse_id = $3 AND quantity >= $4
	`, sale.VendorID, sale.ProductID, sale.WarehouseID, sale.Quantity)
	if err != nil {
		return nil, fmt.Errorf("decrement stock for sale: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.FieldError("quantity", "Not enough stock to complete the sale.")
	}

	// The sale writes through to the movement log so the two ledgers stay
	// reconciled.
	if _, err := insertMovementTx(ctx, tx, domain.StockMovement{
		VendorID:        sale.VendorID,
		ProductID:       sale.ProductID,
		MovementType:    domain.MovementOut,
		FromWarehouseID: &sale.WarehouseID,
		Quantity:        sale.Quantity,
		Remarks:         fmt.Sprintf("Sale %s processed", sale.ID),
	}); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE sales
		SET processed_at = NOW(), updated_at = NOW()
		WHERE vendor_id = $1 AND id = $2
		RETURNING id, vendor_id, product_id, warehouse_id, quantity, selling_price_per_unit, processed_at, created_at, updated_at
	`, sale.VendorID, sale.ID)
	processed, err := scanSaleRow(row)
	if err != nil {
		return nil, fmt.Errorf("mark sale processed: %w", err)
	}
	return &processed, nil
}

func (r *Repository) GetSale(ctx context.Context, vendorID, id uuid.UUID) (*domain.Sale, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, selling_price_per_unit, processed_at, created_at, updated_at
		FROM sales
		WHERE vendor_id = $1 AND id = $2
	`, vendorID, id)
	sale, err := scanSaleRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sale %s: %w", id, err)
	}
	return &sale, nil
}

type SaleListFilter struct {
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

func (r *Repository) ListSales(ctx context.Context, vendorID uuid.UUID, filter SaleListFilter) ([]domain.Sale, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, vendor_id, product_id, warehouse_id, quantity, selling_price_per_unit, processed_at, created_at, updated_at
		FROM sales
		WHERE vendor_id = $1
	`
	args := []any{vendorID}
	argIndex := 2
	if filter.ProductID != nil {
		query += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
		argIndex++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		sale, err := scanSaleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

type InventorySummary struct {
	TotalProducts int             `json:"total_products"`
	TotalQuantity int             `json:"total_quantity"`
	StockValue    decimal.Decimal `json:"stock_value"`
}

func (r *Repository) GetInventorySummary(ctx context.Context, vendorID uuid.UUID) (InventorySummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT product_id)::int,
			COALESCE(SUM(quantity), 0)::int,
			COALESCE(SUM(quantity * purchase_price_per_unit), 0)
		FROM stocks
		WHERE vendor_id = $1
	`, vendorID)
	var summary InventorySummary
	if err := row.Scan(&summary.TotalProducts, &summary.TotalQuantity, &summary.StockValue); err != nil {
		return InventorySummary{}, fmt.Errorf("inventory summary: %w", err)
	}
	return summary, nil
}

type LowStockRow struct {
	SKU           string          `json:"sku"`
	Tool          string          `json:"tool"`
	WarehouseName string          `json:"warehouse"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price_per_unit"`
}

func (r *Repository) GetLowStock(ctx context.Context, vendorID uuid.UUID, threshold int) ([]LowStockRow, error) {
	if threshold <= 0 {
		threshold = 5
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.sku, p.tool, w.name, s.quantity, s.purchase_price_per_unit
		FROM stocks s
		JOIN products p ON p.id = s.product_id
		JOIN warehouses w ON w.id = s.warehouse_id
		WHERE s.vendor_id = $1 AND s.quantity <= $2
		ORDER BY s.quantity ASC, p.sku ASC
	`, vendorID, threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock query: %w", err)
	}
	defer rows.Close()

	list := make([]LowStockRow, 0)
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.SKU, &row.Tool, &row.WarehouseName, &row.Quantity, &row.PurchasePrice); err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low stock rows: %w", err)
	}
	return list, nil
}

type SalesSummary struct {
	TotalSales       int             `json:"total_sales"`
	TotalQuantity    int             `json:"total_quantity"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	SellerCommission decimal.Decimal `json:"seller_commission"`
	CompanyProfit    decimal.Decimal `json:"company_profit"`
}

// GetSalesSummary aggregates processed sales joined with their stock rows.
// Company profit follows the same asymmetric split as single-sale figures:
// revenue minus cost minus seller commission.
func (r *Repository) GetSalesSummary(ctx context.Context, vendorID uuid.UUID, from, to *time.Time) (SalesSummary, error) {
	query := `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(s.quantity), 0)::int,
			COALESCE(SUM(s.quantity * s.selling_price_per_unit), 0),
			COALESCE(SUM(s.quantity * st.purchase_price_per_unit), 0),
			COALESCE(SUM(s.quantity * st.purchase_price_per_unit * st.commission_percent / 100), 0)
		FROM sales s
		JOIN stocks st ON st.product_id = s.product_id AND st.warehouse_id = s.warehouse_id
		WHERE s.vendor_id = $1 AND s.processed_at IS NOT NULL
	`
	args := []any{vendorID}
	argIndex := 2
	if from != nil {
		query += fmt.Sprintf(" AND s.processed_at >= $%d", argIndex)
		args = append(args, *from)
		argIndex++
	}
	if to != nil {
		query += fmt.Sprintf(" AND s.processed_at <= $%d", argIndex)
		args = append(args, *to)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	var summary SalesSummary
	if err := row.Scan(
		&summary.TotalSales,
		&summary.TotalQuantity,
		&summary.TotalRevenue,
		&summary.TotalCost,
		&summary.SellerCommission,
	); err != nil {
		return SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}
	summary.CompanyProfit = summary.TotalRevenue.Sub(summary.TotalCost).Sub(summary.SellerCommission)
	return summary, nil
}

func scanSaleRow(row pgx.Row) (domain.Sale, error) {
	var sale domain.Sale
	if err := row.Scan(
		&sale.ID,
		&sale.VendorID,
		&sale.ProductID,
		&sale.WarehouseID,
		&sale.Quantity,
		&sale.SellingPricePerUnit,
		&sale.ProcessedAt,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}
