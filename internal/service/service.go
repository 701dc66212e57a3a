package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendorhub/internal/domain"
	"vendorhub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateVendor(ctx context.Context, input repository.VendorCreateInput) (domain.Vendor, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.Vendor{}, domain.FieldError("name", "This field is required.")
	}
	return s.repo.CreateVendor(ctx, input)
}

func (s *Service) GetVendor(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	return s.repo.GetVendor(ctx, id)
}

func (s *Service) ListVendors(ctx context.Context, limit, offset int) ([]domain.Vendor, error) {
	return s.repo.ListVendors(ctx, limit, offset)
}

func (s *Service) CreateCategory(ctx context.Context, input repository.CategoryCreateInput) (domain.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.Category{}, domain.FieldError("name", "This field is required.")
	}
	return s.repo.CreateCategory(ctx, input)
}

func (s *Service) GetCategory(ctx context.Context, vendorID, id uuid.UUID) (*domain.Category, error) {
	return s.repo.GetCategory(ctx, vendorID, id)
}

func (s *Service) ListCategories(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, vendorID, limit, offset)
}

func (s *Service) PatchCategory(ctx context.Context, vendorID, id uuid.UUID, input repository.CategoryPatchInput) (*domain.Category, error) {
	return s.repo.PatchCategory(ctx, vendorID, id, input)
}

func (s *Service) DeleteCategory(ctx context.Context, vendorID, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, vendorID, id)
}

type ProductCreateRequest struct {
	CategoryID  uuid.UUID
	Tool        string
	Attributes  map[string]any
	Description string
}

// CreateProduct resolves the tool against the category's tool list and
// generates a unique SKU from the category name. SKU collisions are retried
// with a fresh random suffix up to domain.SKUMaxAttempts times before giving
// up; in practice a retry is rare even for crowded categories.
func (s *Service) CreateProduct(ctx context.Context, vendorID uuid.UUID, req ProductCreateRequest) (domain.Product, error) {
	category, err := s.repo.GetCategory(ctx, vendorID, req.CategoryID)
	if err != nil {
		return domain.Product{}, err
	}
	tool, ok := domain.ChooseTool(category.Tools, req.Tool)
	if !ok {
		return domain.Product{}, domain.FieldError("category", "Category has no tools configured.")
	}

	var lastErr error
	for attempt := 0; attempt < domain.SKUMaxAttempts; attempt++ {
		product, err := s.repo.CreateProduct(ctx, repository.ProductCreateInput{
			VendorID:    vendorID,
			CategoryID:  category.ID,
			SKU:         domain.GenerateSKU(category.Name),
			Tool:        tool,
			Attributes:  req.Attributes,
			Description: req.Description,
		})
		if err == nil {
			return product, nil
		}
		if !repository.IsUniqueViolation(err) {
			return domain.Product{}, err
		}
		lastErr = err
	}
	return domain.Product{}, fmt.Errorf("sku generation exhausted after %d attempts: %w", domain.SKUMaxAttempts, lastErr)
}

func (s *Service) GetProduct(ctx context.Context, vendorID, id uuid.UUID) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, vendorID, id)
}

func (s *Service) ListProducts(ctx context.Context, vendorID uuid.UUID, filter repository.ProductListFilter) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, vendorID, filter)
}

func (s *Service) PatchProduct(ctx context.Context, vendorID, id uuid.UUID, input repository.ProductPatchInput) (*domain.Product, error) {
	if input.Tool != nil {
		product, err := s.repo.GetProduct(ctx, vendorID, id)
		if err != nil {
			return nil, err
		}
		category, err := s.repo.GetCategory(ctx, vendorID, product.CategoryID)
		if err != nil {
			return nil, err
		}
		tool, ok := domain.ChooseTool(category.Tools, *input.Tool)
		if !ok {
			return nil, domain.FieldError("category", "Category has no tools configured.")
		}
		input.Tool = &tool
	}
	return s.repo.PatchProduct(ctx, vendorID, id, input)
}

func (s *Service) DeleteProduct(ctx context.Context, vendorID, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, vendorID, id)
}

func (s *Service) CreateWarehouse(ctx context.Context, input repository.WarehouseCreateInput) (domain.Warehouse, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return domain.Warehouse{}, domain.FieldError("name", "This field is required.")
	}
	return s.repo.CreateWarehouse(ctx, input)
}

func (s *Service) GetWarehouse(ctx context.Context, vendorID, id uuid.UUID) (*domain.Warehouse, error) {
	return s.repo.GetWarehouse(ctx, vendorID, id)
}

func (s *Service) ListWarehouses(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]domain.Warehouse, error) {
	return s.repo.ListWarehouses(ctx, vendorID, limit, offset)
}

func (s *Service) PatchWarehouse(ctx context.Context, vendorID, id uuid.UUID, input repository.WarehousePatchInput) (*domain.Warehouse, error) {
	return s.repo.PatchWarehouse(ctx, vendorID, id, input)
}

func (s *Service) DeleteWarehouse(ctx context.Context, vendorID, id uuid.UUID) error {
	return s.repo.DeleteWarehouse(ctx, vendorID, id)
}

func (s *Service) CreateStock(ctx context.Context, input repository.StockCreateInput) (domain.Stock, error) {
	verrs := domain.NewValidationError()
	if input.Quantity < 0 {
		verrs.Add("quantity", "Quantity cannot be negative.")
	}
	if input.PurchasePricePerUnit.IsNegative() {
		verrs.Add("purchase_price_per_unit", "Purchase price cannot be negative.")
	}
	if input.CommissionPercent.IsNegative() || input.CommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		verrs.Add("commission_percent", "Commission percent must be between 0 and 100.")
	}
	if err := verrs.Err(); err != nil {
		return domain.Stock{}, err
	}
	if _, err := s.repo.GetProduct(ctx, input.VendorID, input.ProductID); err != nil {
		return domain.Stock{}, err
	}
	if _, err := s.repo.GetWarehouse(ctx, input.VendorID, input.WarehouseID); err != nil {
		return domain.Stock{}, err
	}
	return s.repo.CreateStock(ctx, input)
}

func (s *Service) GetStock(ctx context.Context, vendorID, id uuid.UUID) (*domain.Stock, error) {
	return s.repo.GetStock(ctx, vendorID, id)
}

func (s *Service) ListStocks(ctx context.Context, vendorID uuid.UUID, filter repository.StockListFilter) ([]domain.Stock, error) {
	return s.repo.ListStocks(ctx, vendorID, filter)
}

func (s *Service) PatchStock(ctx context.Context, vendorID, id uuid.UUID, input repository.StockPatchInput) (*domain.Stock, error) {
	verrs := domain.NewValidationError()
	if input.Quantity != nil && *input.Quantity < 0 {
		verrs.Add("quantity", "Quantity cannot be negative.")
	}
	if input.PurchasePricePerUnit != nil && input.PurchasePricePerUnit.IsNegative() {
		verrs.Add("purchase_price_per_unit", "Purchase price cannot be negative.")
	}
	if input.CommissionPercent != nil && (input.CommissionPercent.IsNegative() || input.CommissionPercent.GreaterThan(decimal.NewFromInt(100))) {
		verrs.Add("commission_percent", "Commission percent must be between 0 and 100.")
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}
	return s.repo.PatchStock(ctx, vendorID, id, input)
}

func (s *Service) DeleteStock(ctx context.Context, vendorID, id uuid.UUID) error {
	return s.repo.DeleteStock(ctx, vendorID, id)
}

// CreateMovement validates the movement's structure, checks every referenced
// entity belongs to the vendor, then applies it to the ledger. The returned
// movement reflects the stock changes already committed.
func (s *Service) CreateMovement(ctx context.Context, movement domain.StockMovement) (domain.StockMovement, error) {
	if err := movement.ValidateStructure(); err != nil {
		return domain.StockMovement{}, err
	}
	if _, err := s.repo.GetProduct(ctx, movement.VendorID, movement.ProductID); err != nil {
		return domain.StockMovement{}, err
	}
	if movement.FromWarehouseID != nil {
		if _, err := s.repo.GetWarehouse(ctx, movement.VendorID, *movement.FromWarehouseID); err != nil {
			return domain.StockMovement{}, err
		}
	}
	if movement.ToWarehouseID != nil {
		if _, err := s.repo.GetWarehouse(ctx, movement.VendorID, *movement.ToWarehouseID); err != nil {
			return domain.StockMovement{}, err
		}
	}
	return s.repo.ApplyMovement(ctx, movement)
}

func (s *Service) ListMovements(ctx context.Context, vendorID uuid.UUID, filter repository.MovementListFilter) ([]domain.StockMovement, error) {
	return s.repo.ListMovements(ctx, vendorID, filter)
}

type SaleCreateRequest struct {
	ProductID           uuid.UUID
	WarehouseID         uuid.UUID
	Quantity            int
	SellingPricePerUnit decimal.Decimal
	Process             bool
}

// CreateSale records a sale against an explicit warehouse. The sale is
// pre-validated against the current stock row so an obviously unfillable sale
// fails fast; when Process is set, quantity sufficiency is re-checked under a
// row lock inside the same transaction that decrements stock.
func (s *Service) CreateSale(ctx context.Context, vendorID uuid.UUID, req SaleCreateRequest) (domain.Sale, error) {
	stock, err := s.findSaleStock(ctx, vendorID, req.ProductID, req.WarehouseID)
	if err != nil {
		return domain.Sale{}, err
	}

	sale := domain.Sale{
		VendorID:            vendorID,
		ProductID:           req.ProductID,
		WarehouseID:         req.WarehouseID,
		Quantity:            req.Quantity,
		SellingPricePerUnit: req.SellingPricePerUnit,
	}
	if err := sale.ValidateAgainstStock(stock); err != nil {
		return domain.Sale{}, err
	}

	return s.repo.CreateSale(ctx, repository.SaleCreateInput{
		VendorID:            vendorID,
		ProductID:           req.ProductID,
		WarehouseID:         req.WarehouseID,
		Quantity:            req.Quantity,
		SellingPricePerUnit: req.SellingPricePerUnit,
		Process:             req.Process,
	})
}

func (s *Service) ProcessSale(ctx context.Context, vendorID, saleID uuid.UUID) (*domain.Sale, error) {
	return s.repo.ProcessSale(ctx, vendorID, saleID)
}

func (s *Service) GetSale(ctx context.Context, vendorID, id uuid.UUID) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, vendorID, id)
}

// GetSaleFigures recomputes the profit split of a sale from the stock row it
// was sold against. Figures are derived, never stored, so a corrected
// commission percent is reflected on the next read.
func (s *Service) GetSaleFigures(ctx context.Context, vendorID, id uuid.UUID) (*domain.Sale, *domain.SaleFigures, error) {
	sale, err := s.repo.GetSale(ctx, vendorID, id)
	if err != nil {
		return nil, nil, err
	}
	stock, err := s.repo.FindStock(ctx, vendorID, sale.ProductID, sale.WarehouseID)
	if err != nil {
		return nil, nil, err
	}
	figures := sale.Figures(stock)
	return sale, &figures, nil
}

func (s *Service) ListSales(ctx context.Context, vendorID uuid.UUID, filter repository.SaleListFilter) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, vendorID, filter)
}

func (s *Service) findSaleStock(ctx context.Context, vendorID, productID, warehouseID uuid.UUID) (*domain.Stock, error) {
	if _, err := s.repo.GetProduct(ctx, vendorID, productID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetWarehouse(ctx, vendorID, warehouseID); err != nil {
		return nil, err
	}
	stock, err := s.repo.FindStock(ctx, vendorID, productID, warehouseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.FieldError("warehouse", "No stock entry found for this product at the given warehouse.")
		}
		return nil, err
	}
	return stock, nil
}

func (s *Service) ImportStocks(ctx context.Context, vendorID uuid.UUID, rows []domain.StockImportRow) (domain.StockImportResult, error) {
	if len(rows) == 0 {
		return domain.StockImportResult{}, domain.FieldError("file", "Import file has no data rows.")
	}
	return s.repo.BulkUpsertStocks(ctx, vendorID, rows)
}

func (s *Service) InventorySummary(ctx context.Context, vendorID uuid.UUID) (repository.InventorySummary, error) {
	return s.repo.GetInventorySummary(ctx, vendorID)
}

func (s *Service) LowStock(ctx context.Context, vendorID uuid.UUID, threshold int) ([]repository.LowStockRow, error) {
	return s.repo.GetLowStock(ctx, vendorID, threshold)
}

func (s *Service) SalesSummary(ctx context.Context, vendorID uuid.UUID, from, to *time.Time) (repository.SalesSummary, error) {
	return s.repo.GetSalesSummary(ctx, vendorID, from, to)
}
