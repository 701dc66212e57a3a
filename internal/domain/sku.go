package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// SKUMaxAttempts bounds the regenerate-on-collision loop when a freshly
// generated SKU collides with an existing one.
const SKUMaxAttempts = 5

var skuPattern = regexp.MustCompile(`^[A-Z]{1,3}-GEN-\d{4}$`)

// GenerateSKU builds a stock-keeping identifier from the product's category:
// the first three letters of the category name uppercased, a literal GEN
// segment, and a random four-digit suffix, e.g. "ELE-GEN-4821".
func GenerateSKU(categoryName string) string {
	prefix := []rune(strings.ToUpper(strings.TrimSpace(categoryName)))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-GEN-%04d", string(prefix), 1000+rand.IntN(9000))
}

// ValidSKUFormat reports whether sku matches the generated format. Client
// supplied SKUs are stored as-is and are not required to match.
func ValidSKUFormat(sku string) bool {
	return skuPattern.MatchString(sku)
}
