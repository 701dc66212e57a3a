package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	Tools     []string  `json:"tools"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID          uuid.UUID      `json:"id"`
	VendorID    uuid.UUID      `json:"vendor_id"`
	CategoryID  uuid.UUID      `json:"category_id"`
	SKU         string         `json:"sku"`
	Tool        string         `json:"tool"`
	Attributes  map[string]any `json:"attributes"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Stock struct {
	ID                   uuid.UUID       `json:"id"`
	VendorID             uuid.UUID       `json:"vendor_id"`
	ProductID            uuid.UUID       `json:"product_id"`
	WarehouseID          uuid.UUID       `json:"warehouse_id"`
	Quantity             int             `json:"quantity"`
	PurchasePricePerUnit decimal.Decimal `json:"purchase_price_per_unit"`
	CommissionPercent    decimal.Decimal `json:"commission_percent"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type StockMovement struct {
	ID              uuid.UUID    `json:"id"`
	VendorID        uuid.UUID    `json:"vendor_id"`
	ProductID       uuid.UUID    `json:"product_id"`
	MovementType    MovementType `json:"movement_type"`
	FromWarehouseID *uuid.UUID   `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *uuid.UUID   `json:"to_warehouse_id,omitempty"`
	Quantity        int          `json:"quantity"`
	Remarks         string       `json:"remarks,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

type Sale struct {
	ID                  uuid.UUID       `json:"id"`
	VendorID            uuid.UUID       `json:"vendor_id"`
	ProductID           uuid.UUID       `json:"product_id"`
	WarehouseID         uuid.UUID       `json:"warehouse_id"`
	Quantity            int             `json:"quantity"`
	SellingPricePerUnit decimal.Decimal `json:"selling_price_per_unit"`
	ProcessedAt         *time.Time      `json:"processed_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Processed reports whether the sale has already been applied to the stock
// ledger. Processing is terminal; a processed sale is never updated or reversed.
func (s *Sale) Processed() bool {
	return s.ProcessedAt != nil
}

// StockImportRow is one parsed line of a bulk stock import sheet. Product and
// warehouse are resolved by SKU and name within the importing vendor.
type StockImportRow struct {
	SKU               string          `json:"sku"`
	WarehouseName     string          `json:"warehouse"`
	Quantity          int             `json:"quantity"`
	PurchasePrice     decimal.Decimal `json:"purchase_price_per_unit"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}

type StockImportResult struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched,omitempty"`
}
