package constants

import "fmt"

// StandardVATRate is the assumed VAT rate when an invoice carries a total but
// no explicit subtotal or tax breakdown (total = subtotal * 1.20).
const StandardVATRate = 0.20

// DeclarationPeriod is the granularity of a VAT declaration.
type DeclarationPeriod string

const (
	PeriodMonthly   DeclarationPeriod = "MONTHLY"
	PeriodQuarterly DeclarationPeriod = "QUARTERLY"
)

// ParseDeclarationPeriod validates a period label from the API.
func ParseDeclarationPeriod(s string) (DeclarationPeriod, error) {
	switch DeclarationPeriod(s) {
	case PeriodMonthly, PeriodQuarterly:
		return DeclarationPeriod(s), nil
	default:
		return "", fmt.Errorf("unknown declaration period: %q", s)
	}
}
