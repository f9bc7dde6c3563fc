package fields

import (
	"log/slog"
	"math"

	"github.com/besoincompta/compta-backend/constants"
)

// defaultItemDescription labels the single synthesized line item when the
// line-item scan finds nothing usable.
const defaultItemDescription = "Item from invoice"

// Extractor turns raw OCR text into a structured invoice record. It never
// fails: fields that cannot be extracted stay at their defaults and the
// Confidence field is the only machine-readable quality signal.
type Extractor interface {
	Extract(text string) InvoiceData
}

// RegexExtractor runs an ordered list of independent per-field regex rules
// over the full text. OCR text is noisy and label positions vary, so each
// field is a best-effort pattern match rather than a structured parse.
type RegexExtractor struct {
	logger *slog.Logger
}

func NewRegexExtractor(logger *slog.Logger) *RegexExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegexExtractor{logger: logger}
}

// Extract applies every field rule, derives missing amounts from the total,
// scans for line items, and scores confidence. Any panic during the pass is
// recovered into an all-default record with confidence 0.
func (e *RegexExtractor) Extract(text string) (out InvoiceData) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("invoice extraction failed", "error", r)
			out = emptyInvoiceData()
		}
	}()

	d := emptyInvoiceData()
	matched := make(map[string]bool, len(fieldRules))
	for _, rule := range fieldRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			matched[rule.name] = rule.apply(&d, m)
		}
	}

	// Back-compute missing amounts assuming the standard VAT rate.
	if !matched["subtotal"] {
		d.Subtotal = round2(d.Total / (1 + constants.StandardVATRate))
	}
	if !matched["tax_amount"] {
		d.TaxAmount = round2(d.Total - d.Subtotal)
	}

	d.Items = extractItems(text)
	if len(d.Items) == 0 {
		d.Items = []InvoiceItem{{
			Description: defaultItemDescription,
			Quantity:    1,
			UnitPrice:   d.Subtotal,
			Amount:      d.Subtotal,
		}}
	}

	d.Currency = constants.DetectCurrency(text)
	d.Confidence = scoreConfidence(&d)
	return d
}

func emptyInvoiceData() InvoiceData {
	return InvoiceData{
		Currency: constants.DefaultCurrency,
		Items:    []InvoiceItem{},
	}
}

// scoreConfidence is the fraction of the four key fields that were populated:
// invoice number, date, supplier name, and a positive total.
func scoreConfidence(d *InvoiceData) float64 {
	found := 0
	if d.InvoiceNumber != "" {
		found++
	}
	if d.Date != "" {
		found++
	}
	if d.Supplier.Name != "" {
		found++
	}
	if d.Total > 0 {
		found++
	}
	return math.Min(1, float64(found)/4)
}
