package repository_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"vendorhub/internal/db"
	"vendorhub/internal/domain"
	"vendorhub/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *repository.Repository {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE sales, stock_movements, stocks, products, warehouses, categories, vendors CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return repository.New(pool)
}

type fixture struct {
	vendor    domain.Vendor
	category  domain.Category
	product   domain.Product
	warehouse domain.Warehouse
	stock     domain.Stock
}

func seedFixture(t *testing.T, repo *repository.Repository, quantity int) fixture {
	t.Helper()
	ctx := context.Background()

	vendor, err := repo.CreateVendor(ctx, repository.VendorCreateInput{Name: "Acme Traders"})
	if err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	category, err := repo.CreateCategory(ctx, repository.CategoryCreateInput{
		VendorID: vendor.ID,
		Name:     "Electronics",
		Tools:    []string{"assembler", "tester"},
	})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	product, err := repo.CreateProduct(ctx, repository.ProductCreateInput{
		VendorID:   vendor.ID,
		CategoryID: category.ID,
		SKU:        domain.GenerateSKU(category.Name),
		Tool:       "assembler",
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	warehouse, err := repo.CreateWarehouse(ctx, repository.WarehouseCreateInput{
		VendorID: vendor.ID,
		Name:     "Main",
	})
	if err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	stock, err := repo.CreateStock(ctx, repository.StockCreateInput{
		VendorID:             vendor.ID,
		ProductID:            product.ID,
		WarehouseID:          warehouse.ID,
		Quantity:             quantity,
		PurchasePricePerUnit: decimal.RequireFromString("10.00"),
		CommissionPercent:    decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	return fixture{vendor: vendor, category: category, product: product, warehouse: warehouse, stock: stock}
}

func stockQuantity(t *testing.T, repo *repository.Repository, f fixture) int {
	t.Helper()
	stock, err := repo.FindStock(context.Background(), f.vendor.ID, f.product.ID, f.warehouse.ID)
	if err != nil {
		t.Fatalf("find stock: %v", err)
	}
	return stock.Quantity
}

func TestSaleProcessing_ExactQuantityBoundary(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 5)
	ctx := context.Background()

	sale, err := repo.CreateSale(ctx, repository.SaleCreateInput{
		VendorID:            f.vendor.ID,
		ProductID:           f.product.ID,
		WarehouseID:         f.warehouse.ID,
		Quantity:            5,
		SellingPricePerUnit: decimal.RequireFromString("15.00"),
		Process:             true,
	})
	if err != nil {
		t.Fatalf("sale for the entire stock should succeed: %v", err)
	}
	if !sale.Processed() {
		t.Fatal("sale should be marked processed")
	}
	if qty := stockQuantity(t, repo, f); qty != 0 {
		t.Errorf("stock after exact-quantity sale = %d, want 0", qty)
	}

	// A second sale against the emptied stock must fail and leave no trace.
	_, err = repo.CreateSale(ctx, repository.SaleCreateInput{
		VendorID:            f.vendor.ID,
		ProductID:           f.product.ID,
		WarehouseID:         f.warehouse.ID,
		Quantity:            1,
		SellingPricePerUnit: decimal.RequireFromString("15.00"),
		Process:             true,
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if qty := stockQuantity(t, repo, f); qty != 0 {
		t.Errorf("failed sale must not change stock, got %d", qty)
	}

	sales, err := repo.ListSales(ctx, f.vendor.ID, repository.SaleListFilter{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 1 {
		t.Errorf("failed processed sale must roll back its insert, have %d sales", len(sales))
	}
}

func TestProcessSale_Terminal(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 10)
	ctx := context.Background()

	sale, err := repo.CreateSale(ctx, repository.SaleCreateInput{
		VendorID:            f.vendor.ID,
		ProductID:           f.product.ID,
		WarehouseID:         f.warehouse.ID,
		Quantity:            4,
		SellingPricePerUnit: decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.Processed() {
		t.Fatal("sale should start unprocessed")
	}
	if qty := stockQuantity(t, repo, f); qty != 10 {
		t.Fatalf("creating without processing must not touch stock, got %d", qty)
	}

	processed, err := repo.ProcessSale(ctx, f.vendor.ID, sale.ID)
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}
	if !processed.Processed() {
		t.Fatal("sale should be processed")
	}
	if qty := stockQuantity(t, repo, f); qty != 6 {
		t.Errorf("stock after processing = %d, want 6", qty)
	}

	_, err = repo.ProcessSale(ctx, f.vendor.ID, sale.ID)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error on repeat processing, got %v", err)
	}
	if msgs := verr.Fields["sale"]; len(msgs) == 0 || !strings.Contains(msgs[0], "already been processed") {
		t.Errorf("unexpected messages: %v", verr.Fields)
	}
	if qty := stockQuantity(t, repo, f); qty != 6 {
		t.Errorf("repeat processing must not decrement again, got %d", qty)
	}
}

func TestProcessSale_RecordsOutMovement(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 10)
	ctx := context.Background()

	if _, err := repo.CreateSale(ctx, repository.SaleCreateInput{
		VendorID:            f.vendor.ID,
		ProductID:           f.product.ID,
		WarehouseID:         f.warehouse.ID,
		Quantity:            3,
		SellingPricePerUnit: decimal.RequireFromString("20.00"),
		Process:             true,
	}); err != nil {
		t.Fatalf("create processed sale: %v", err)
	}

	movements, err := repo.ListMovements(ctx, f.vendor.ID, repository.MovementListFilter{})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	m := movements[0]
	if m.MovementType != domain.MovementOut || m.Quantity != 3 {
		t.Errorf("unexpected movement: %+v", m)
	}
	if m.FromWarehouseID == nil || *m.FromWarehouseID != f.warehouse.ID {
		t.Errorf("movement source = %v, want %s", m.FromWarehouseID, f.warehouse.ID)
	}
}

func TestConcurrentSales_NeverOversell(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 5)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.CreateSale(context.Background(), repository.SaleCreateInput{
				VendorID:            f.vendor.ID,
				ProductID:           f.product.ID,
				WarehouseID:         f.warehouse.ID,
				Quantity:            3,
				SellingPricePerUnit: decimal.RequireFromString("15.00"),
				Process:             true,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one of two competing sales of 3 against 5 should succeed, got %d", succeeded)
	}
	if qty := stockQuantity(t, repo, f); qty != 2 {
		t.Errorf("stock after concurrent sales = %d, want 2", qty)
	}
}

func TestApplyMovement_TransferAndOut(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 10)
	ctx := context.Background()

	second, err := repo.CreateWarehouse(ctx, repository.WarehouseCreateInput{
		VendorID: f.vendor.ID,
		Name:     "Backup",
	})
	if err != nil {
		t.Fatalf("create second warehouse: %v", err)
	}
	if _, err := repo.CreateStock(ctx, repository.StockCreateInput{
		VendorID:             f.vendor.ID,
		ProductID:            f.product.ID,
		WarehouseID:          second.ID,
		Quantity:             0,
		PurchasePricePerUnit: decimal.RequireFromString("10.00"),
		CommissionPercent:    decimal.RequireFromString("10.00"),
	}); err != nil {
		t.Fatalf("create destination stock: %v", err)
	}

	if _, err := repo.ApplyMovement(ctx, domain.StockMovement{
		VendorID:        f.vendor.ID,
		ProductID:       f.product.ID,
		MovementType:    domain.MovementTransfer,
		FromWarehouseID: &f.warehouse.ID,
		ToWarehouseID:   &second.ID,
		Quantity:        4,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if qty := stockQuantity(t, repo, f); qty != 6 {
		t.Errorf("source after transfer = %d, want 6", qty)
	}
	dest, err := repo.FindStock(ctx, f.vendor.ID, f.product.ID, second.ID)
	if err != nil {
		t.Fatalf("find destination stock: %v", err)
	}
	if dest.Quantity != 4 {
		t.Errorf("destination after transfer = %d, want 4", dest.Quantity)
	}

	// Outgoing more than available must fail atomically.
	_, err = repo.ApplyMovement(ctx, domain.StockMovement{
		VendorID:        f.vendor.ID,
		ProductID:       f.product.ID,
		MovementType:    domain.MovementOut,
		FromWarehouseID: &f.warehouse.ID,
		Quantity:        7,
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if qty := stockQuantity(t, repo, f); qty != 6 {
		t.Errorf("failed movement must not change stock, got %d", qty)
	}
}

func TestBulkUpsertStocks(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 3)
	ctx := context.Background()

	if _, err := repo.CreateWarehouse(ctx, repository.WarehouseCreateInput{
		VendorID: f.vendor.ID,
		Name:     "Backup",
	}); err != nil {
		t.Fatalf("create second warehouse: %v", err)
	}

	result, err := repo.BulkUpsertStocks(ctx, f.vendor.ID, []domain.StockImportRow{
		{
			SKU:               f.product.SKU,
			WarehouseName:     "Main",
			Quantity:          20,
			PurchasePrice:     decimal.RequireFromString("11.00"),
			CommissionPercent: decimal.RequireFromString("12.00"),
		},
		{
			SKU:               f.product.SKU,
			WarehouseName:     "Backup",
			Quantity:          7,
			PurchasePrice:     decimal.RequireFromString("11.00"),
			CommissionPercent: decimal.RequireFromString("12.00"),
		},
		{
			SKU:               "ZZZ-GEN-0000",
			WarehouseName:     "Main",
			Quantity:          1,
			PurchasePrice:     decimal.RequireFromString("1.00"),
			CommissionPercent: decimal.RequireFromString("10.00"),
		},
	})
	if err != nil {
		t.Fatalf("bulk upsert: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 {
		t.Errorf("created/updated = %d/%d, want 1/1", result.Created, result.Updated)
	}
	if len(result.Unmatched) != 1 || !strings.Contains(result.Unmatched[0], "ZZZ-GEN-0000") {
		t.Errorf("unmatched = %v", result.Unmatched)
	}

	if qty := stockQuantity(t, repo, f); qty != 20 {
		t.Errorf("updated stock quantity = %d, want 20", qty)
	}
}

func TestVendorScoping(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 5)
	ctx := context.Background()

	other, err := repo.CreateVendor(ctx, repository.VendorCreateInput{Name: "Other Corp"})
	if err != nil {
		t.Fatalf("create other vendor: %v", err)
	}

	if _, err := repo.GetProduct(ctx, other.ID, f.product.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("cross-vendor product read should be not found, got %v", err)
	}
	if _, err := repo.FindStock(ctx, other.ID, f.product.ID, f.warehouse.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("cross-vendor stock read should be not found, got %v", err)
	}

	// Same category name in another tenant is fine; a duplicate in the same
	// tenant is rejected.
	if _, err := repo.CreateCategory(ctx, repository.CategoryCreateInput{
		VendorID: other.ID,
		Name:     "Electronics",
		Tools:    []string{"assembler"},
	}); err != nil {
		t.Errorf("same name in another tenant should be allowed: %v", err)
	}
	_, err = repo.CreateCategory(ctx, repository.CategoryCreateInput{
		VendorID: f.vendor.ID,
		Name:     "Electronics",
		Tools:    []string{"assembler"},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("duplicate category in same tenant should fail validation, got %v", err)
	}
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	repo := setupTestDB(t)
	f := seedFixture(t, repo, 1)
	ctx := context.Background()

	// The raw unique violation surfaces so the service can regenerate the SKU.
	_, err := repo.CreateProduct(ctx, repository.ProductCreateInput{
		VendorID:   f.vendor.ID,
		CategoryID: f.category.ID,
		SKU:        f.product.SKU,
		Tool:       "assembler",
	})
	if !repository.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
