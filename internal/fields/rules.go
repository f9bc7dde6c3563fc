package fields

import (
	"regexp"
	"strings"
)

// number matches a decimal token with either comma or dot separators,
// optionally preceded by a currency symbol.
const number = `(?:[€$£]\s*)?(\d+(?:[.,]\d+)*)`

// fieldRule pairs a compiled pattern with the assignment it performs. Rules
// run independently against the full text; a miss leaves the field at its
// zero value. apply reports whether the field was actually populated.
type fieldRule struct {
	name  string
	re    *regexp.Regexp
	apply func(d *InvoiceData, m []string) bool
}

var fieldRules = []fieldRule{
	{
		name: "invoice_number",
		re:   regexp.MustCompile(`(?i)(?:invoice|facture|inv)\D*(\d+[-\s]?\d+)`),
		apply: func(d *InvoiceData, m []string) bool {
			d.InvoiceNumber = strings.TrimSpace(m[1])
			return d.InvoiceNumber != ""
		},
	},
	{
		name: "date",
		re:   regexp.MustCompile(`(?i)date\s*:?\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`),
		apply: func(d *InvoiceData, m []string) bool {
			d.Date = m[1]
			return true
		},
	},
	{
		name: "due_date",
		re:   regexp.MustCompile(`(?i)(?:due|échéance)\D*?(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`),
		apply: func(d *InvoiceData, m []string) bool {
			d.DueDate = m[1]
			return true
		},
	},
	{
		name: "supplier_name",
		re:   regexp.MustCompile(`(?i)(?:from|de|supplier|fournisseur)\s*:?[ \t]*(.+)`),
		apply: func(d *InvoiceData, m []string) bool {
			d.Supplier.Name = strings.TrimSpace(m[1])
			return d.Supplier.Name != ""
		},
	},
	{
		name: "supplier_address",
		re:   regexp.MustCompile(`(?i)(?:address|adresse)\s*:?[ \t]*((?:[^\n]+\n?){1,3})`),
		apply: func(d *InvoiceData, m []string) bool {
			var lines []string
			for _, ln := range strings.Split(m[1], "\n") {
				if ln = strings.TrimSpace(ln); ln != "" {
					lines = append(lines, ln)
				}
			}
			d.Supplier.Address = strings.Join(lines, ", ")
			return d.Supplier.Address != ""
		},
	},
	{
		name: "supplier_tax_id",
		re:   regexp.MustCompile(`(?i)(?:tax\s*id|vat|tva|nif)\s*:?[ \t]*(.+)`),
		apply: func(d *InvoiceData, m []string) bool {
			d.Supplier.TaxID = strings.TrimSpace(m[1])
			return d.Supplier.TaxID != ""
		},
	},
	{
		name: "total",
		re:   regexp.MustCompile(`(?i)(?:total|amount|montant)\s*:?\s*` + number),
		apply: func(d *InvoiceData, m []string) bool {
			v, ok := parseAmount(m[1])
			if ok {
				d.Total = v
			}
			return ok
		},
	},
	{
		name: "subtotal",
		re:   regexp.MustCompile(`(?i)(?:subtotal|sous-total|net)\s*:?\s*` + number),
		apply: func(d *InvoiceData, m []string) bool {
			v, ok := parseAmount(m[1])
			if ok {
				d.Subtotal = v
			}
			return ok
		},
	},
	{
		name: "tax_amount",
		re:   regexp.MustCompile(`(?i)(?:tax|vat|tva|taxe)\s*:?\s*` + number),
		apply: func(d *InvoiceData, m []string) bool {
			v, ok := parseAmount(m[1])
			if ok {
				d.TaxAmount = v
			}
			return ok
		},
	},
}
