/*
coerce.go - Lenient numeric coercion at the input boundary

PURPOSE:
  Raw reading and tariff input arrives from humans: formatted currency
  ("1.100.000"), stray whitespace, or garbage. Policy: invalid or missing
  numeric input coerces to ZERO, it is never rejected. The pure calculator in
  invoice.go assumes already-coerced values and has no error path.

  This leniency is documented behavior, not a defect. It lives here, outside
  the calculator, so the calculation itself stays strict about its inputs.

SEE ALSO:
  - invoice.go: Consumes coerced values
*/
package billing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// digitsOnly strips every non-digit rune, keeping a single leading minus.
// "1.100.000 đ" becomes "1100000".
func digitsOnly(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '-' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseAmount coerces a currency string to a decimal amount. Malformed or
// empty input yields zero.
func ParseAmount(s string) decimal.Decimal {
	cleaned := digitsOnly(strings.TrimSpace(s))
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseMeter coerces a meter-reading string to an integer. Malformed or empty
// input yields zero.
func ParseMeter(s string) int64 {
	cleaned := digitsOnly(strings.TrimSpace(s))
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
