package domain_test

import (
	"regexp"
	"strings"
	"testing"

	"vendorhub/internal/domain"
)

func TestGenerateSKU_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^ELE-GEN-\d{4}$`)
	for i := 0; i < 50; i++ {
		sku := domain.GenerateSKU("Electronics")
		if !pattern.MatchString(sku) {
			t.Fatalf("sku %q does not match expected format", sku)
		}
		if !domain.ValidSKUFormat(sku) {
			t.Fatalf("ValidSKUFormat rejected generated sku %q", sku)
		}
	}
}

func TestGenerateSKU_ShortCategoryName(t *testing.T) {
	sku := domain.GenerateSKU("tv")
	if !strings.HasPrefix(sku, "TV-GEN-") {
		t.Errorf("sku %q should use the whole short category name as prefix", sku)
	}
}

func TestGenerateSKU_TrimsAndUppercases(t *testing.T) {
	sku := domain.GenerateSKU("  kitchen ")
	if !strings.HasPrefix(sku, "KIT-GEN-") {
		t.Errorf("sku %q should be prefixed KIT-GEN-", sku)
	}
}

func TestChooseTool(t *testing.T) {
	tools := []string{"oven", "grill", "fryer"}

	tests := []struct {
		name      string
		requested string
		want      string
		wantOK    bool
		tools     []string
	}{
		{"valid requested tool", "grill", "grill", true, tools},
		{"unknown tool falls back to first", "blender", "oven", true, tools},
		{"empty request falls back to first", "", "oven", true, tools},
		{"no tools defined", "grill", "", false, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := domain.ChooseTool(tc.tools, tc.requested)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ChooseTool(%v, %q) = (%q, %v), want (%q, %v)",
					tc.tools, tc.requested, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
