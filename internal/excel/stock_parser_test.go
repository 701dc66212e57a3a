package excel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParseStockRows(t *testing.T) {
	reader := buildWorkbook(t, [][]any{
		{"SKU", "Warehouse", "Quantity", "Purchase Price", "Commission %"},
		{"ELE-GEN-1234", "Main", 10, "99.50", "12.5"},
		{"ele-gen-5678", "Backup", "3", "1,250.00", ""},
		{"", "Ignored", 1, "1.00", ""},
	})

	rows, err := ParseStockRows(reader)
	if err != nil {
		t.Fatalf("ParseStockRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.SKU != "ELE-GEN-1234" || first.WarehouseName != "Main" || first.Quantity != 10 {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.PurchasePrice.String() != "99.5" {
		t.Errorf("purchase price = %s", first.PurchasePrice)
	}
	if first.CommissionPercent.String() != "12.5" {
		t.Errorf("commission = %s", first.CommissionPercent)
	}

	second := rows[1]
	if second.SKU != "ELE-GEN-5678" {
		t.Errorf("sku not uppercased: %s", second.SKU)
	}
	if second.PurchasePrice.String() != "1250" {
		t.Errorf("comma-formatted price = %s", second.PurchasePrice)
	}
	if second.CommissionPercent.String() != "10" {
		t.Errorf("default commission = %s", second.CommissionPercent)
	}
}

func TestParseStockRowsHeaderAliases(t *testing.T) {
	reader := buildWorkbook(t, [][]any{
		{"product_sku", "warehouse_name", "qty", "unit_price"},
		{"TOY-GEN-9999", "East", 5, "20"},
	})

	rows, err := ParseStockRows(reader)
	if err != nil {
		t.Fatalf("ParseStockRows: %v", err)
	}
	if len(rows) != 1 || rows[0].SKU != "TOY-GEN-9999" || rows[0].Quantity != 5 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseStockRowsErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]any
		wantErr string
	}{
		{
			name: "missing sku column",
			rows: [][]any{
				{"Warehouse", "Quantity", "Purchase Price"},
				{"Main", 1, "1.00"},
			},
			wantErr: "missing required column: sku",
		},
		{
			name: "missing warehouse value",
			rows: [][]any{
				{"SKU", "Warehouse", "Quantity", "Purchase Price"},
				{"ELE-GEN-1111", "", 1, "1.00"},
			},
			wantErr: "missing warehouse name",
		},
		{
			name: "fractional quantity",
			rows: [][]any{
				{"SKU", "Warehouse", "Quantity", "Purchase Price"},
				{"ELE-GEN-1111", "Main", "2.5", "1.00"},
			},
			wantErr: "invalid quantity",
		},
		{
			name: "negative price",
			rows: [][]any{
				{"SKU", "Warehouse", "Quantity", "Purchase Price"},
				{"ELE-GEN-1111", "Main", 1, "-4.00"},
			},
			wantErr: "invalid purchase price",
		},
		{
			name: "no data rows",
			rows: [][]any{
				{"SKU", "Warehouse", "Quantity", "Purchase Price"},
			},
			wantErr: "no valid data rows",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStockRows(buildWorkbook(t, tc.rows))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}
