package domain_test

import (
	"errors"
	"testing"

	"vendorhub/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeSaleFigures_WorkedScenario(t *testing.T) {
	// Stock purchased @ 10.00 with 10% commission; 5 units sold @ 15.00.
	figures := domain.ComputeSaleFigures(5, dec("15.00"), dec("10.00"), dec("10"))

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"total_revenue", figures.TotalRevenue, "75.00"},
		{"total_cost", figures.TotalCost, "50.00"},
		{"seller_commission", figures.SellerCommission, "5.00"},
		{"seller_profit", figures.SellerProfit, "30.00"},
		{"company_profit", figures.CompanyProfit, "20.00"},
	}
	for _, check := range checks {
		if !check.got.Equal(dec(check.want)) {
			t.Errorf("%s = %s, want %s", check.name, check.got, check.want)
		}
	}
}

func TestComputeSaleFigures_SellingBelowPurchaseClampsExtraProfit(t *testing.T) {
	// Selling @ 8.00 against purchase @ 10.00: extra profit clamps to zero,
	// seller profit equals commission only.
	figures := domain.ComputeSaleFigures(5, dec("8.00"), dec("10.00"), dec("10"))

	if !figures.SellerProfit.Equal(figures.SellerCommission) {
		t.Errorf("seller_profit = %s, want commission only %s", figures.SellerProfit, figures.SellerCommission)
	}
	if !figures.SellerCommission.Equal(dec("5.00")) {
		t.Errorf("seller_commission = %s, want 5.00", figures.SellerCommission)
	}
	// Company still absorbs the loss: 40 - 50 - 5 = -15.
	if !figures.CompanyProfit.Equal(dec("-15.00")) {
		t.Errorf("company_profit = %s, want -15.00", figures.CompanyProfit)
	}
}

func TestComputeSaleFigures_Recomputable(t *testing.T) {
	first := domain.ComputeSaleFigures(7, dec("12.50"), dec("9.99"), dec("12.5"))
	second := domain.ComputeSaleFigures(7, dec("12.50"), dec("9.99"), dec("12.5"))

	if !first.TotalRevenue.Equal(second.TotalRevenue) ||
		!first.SellerProfit.Equal(second.SellerProfit) ||
		!first.CompanyProfit.Equal(second.CompanyProfit) {
		t.Errorf("figures differ across recomputation: %+v vs %+v", first, second)
	}
}

func TestSale_ValidateAgainstStock(t *testing.T) {
	stock := &domain.Stock{
		Quantity:             10,
		PurchasePricePerUnit: dec("10.00"),
		CommissionPercent:    dec("10"),
	}

	tests := []struct {
		name      string
		quantity  int
		price     decimal.Decimal
		stock     *domain.Stock
		wantField string
	}{
		{"valid", 5, dec("15.00"), stock, ""},
		{"exact available quantity", 10, dec("15.00"), stock, ""},
		{"one over available", 11, dec("15.00"), stock, "quantity"},
		{"zero quantity", 0, dec("15.00"), stock, "quantity"},
		{"negative quantity", -1, dec("15.00"), stock, "quantity"},
		{"price unset", 5, decimal.Zero, stock, "selling_price_per_unit"},
		{"no stock row", 5, dec("15.00"), nil, "product"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sale := &domain.Sale{Quantity: tc.quantity, SellingPricePerUnit: tc.price}
			err := sale.ValidateAgainstStock(tc.stock)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid sale, got %v", err)
				}
				return
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields[tc.wantField]) == 0 {
				t.Errorf("expected error on field %q, got %v", tc.wantField, verr.Fields)
			}
		})
	}
}
