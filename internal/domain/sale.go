package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// SaleFigures holds the monetary breakdown derived from a sale and the stock
// row it was (or will be) settled against. Figures are never stored; they are
// recomputed from the sale and stock on every read.
type SaleFigures struct {
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	SellerCommission  decimal.Decimal `json:"seller_commission"`
	SellerProfit      decimal.Decimal `json:"seller_profit"`
	CompanyProfit     decimal.Decimal `json:"company_profit"`
}

// ComputeSaleFigures derives the revenue, cost, and profit split for selling
// quantity units at sellingPrice against stock purchased at purchasePrice with
// the given commission rate.
//
// The split is deliberately asymmetric: the seller keeps the commission plus
// any upside of the selling price over the purchase price, while the company
// subtracts only the commission from its margin. The seller's extra profit is
// not deducted from company profit.
func ComputeSaleFigures(quantity int, sellingPrice, purchasePrice, commissionPercent decimal.Decimal) SaleFigures {
	qty := decimal.NewFromInt(int64(quantity))

	totalRevenue := sellingPrice.Mul(qty)
	totalCost := purchasePrice.Mul(qty)
	sellerCommission := purchasePrice.Mul(commissionPercent.Div(hundred)).Mul(qty)

	extraPerUnit := sellingPrice.Sub(purchasePrice)
	if extraPerUnit.IsNegative() {
		extraPerUnit = decimal.Zero
	}

	return SaleFigures{
		CommissionPercent: commissionPercent,
		TotalRevenue:      totalRevenue,
		TotalCost:         totalCost,
		SellerCommission:  sellerCommission,
		SellerProfit:      sellerCommission.Add(extraPerUnit.Mul(qty)),
		CompanyProfit:     totalRevenue.Sub(totalCost).Sub(sellerCommission),
	}
}

// Figures computes the derived breakdown for the sale against a stock row.
func (s *Sale) Figures(stock *Stock) SaleFigures {
	return ComputeSaleFigures(s.Quantity, s.SellingPricePerUnit, stock.PurchasePricePerUnit, stock.CommissionPercent)
}

// ValidateAgainstStock checks a prospective sale before it is persisted or
// processed: positive quantity, selling price set, and enough quantity in the
// given stock row. stock may be nil when no row exists for the product at the
// requested warehouse.
func (s *Sale) ValidateAgainstStock(stock *Stock) error {
	errs := NewValidationError()

	if s.Quantity <= 0 {
		errs.Add("quantity", "Quantity must be positive and set.")
	}
	if s.SellingPricePerUnit.IsZero() || s.SellingPricePerUnit.IsNegative() {
		errs.Add("selling_price_per_unit", "Selling price must be set.")
	}

	if stock == nil {
		errs.Add("product", "No stock entry found for this product.")
	} else if s.Quantity > 0 && stock.Quantity < s.Quantity {
		errs.Add("quantity", "Not enough stock available.")
	}

	return errs.Err()
}
