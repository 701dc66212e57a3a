package excel

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"vendorhub/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var headerAliases = map[string]string{
	"sku":                     "sku",
	"product sku":             "sku",
	"warehouse":               "warehouse",
	"warehouse name":          "warehouse",
	"quantity":                "quantity",
	"qty":                     "quantity",
	"purchase price":          "purchase_price",
	"purchase price per unit": "purchase_price",
	"unit price":              "purchase_price",
	"price":                   "purchase_price",
	"commission":              "commission_percent",
	"commission percent":      "commission_percent",
	"commission %":            "commission_percent",
}

// Stocks without an explicit commission column fall back to the standard
// seller cut.
var defaultCommissionPercent = decimal.NewFromInt(10)

// ParseStockRows reads the first sheet of an xlsx workbook into import rows.
// The header row is matched case-insensitively against known aliases; sku,
// warehouse, quantity and purchase price are required, commission is optional.
// Rows with an empty SKU cell are skipped.
func ParseStockRows(reader io.Reader) ([]domain.StockImportRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"sku", "warehouse", "quantity", "purchase_price"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]domain.StockImportRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		sku := strings.TrimSpace(readCell(cells, colMap["sku"]))
		if sku == "" {
			continue
		}

		warehouse := strings.TrimSpace(readCell(cells, colMap["warehouse"]))
		if warehouse == "" {
			return nil, fmt.Errorf("row %d missing warehouse name", index+1)
		}

		qty, err := parseInt(readCell(cells, colMap["quantity"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid quantity: %w", index+1, err)
		}
		if qty < 0 {
			return nil, fmt.Errorf("row %d quantity cannot be negative", index+1)
		}

		price, err := parseDecimal(readCell(cells, colMap["purchase_price"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid purchase price: %w", index+1, err)
		}

		commission := defaultCommissionPercent
		if idx, ok := colMap["commission_percent"]; ok {
			raw := strings.TrimSpace(readCell(cells, idx))
			if raw != "" {
				parsed, err := parseDecimal(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d invalid commission percent: %w", index+1, err)
				}
				commission = parsed
			}
		}

		result = append(result, domain.StockImportRow{
			SKU:               strings.ToUpper(sku),
			WarehouseName:     warehouse,
			Quantity:          qty,
			PurchasePrice:     price,
			CommissionPercent: commission,
		})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no valid data rows")
	}
	return result, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}

	asFloat, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	return int(asFloat), nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("value is empty")
	}
	parsed, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number")
	}
	if parsed.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("cannot be negative")
	}
	return parsed, nil
}
