package fields

import (
	"regexp"
	"strings"
)

var (
	// reItemsBlock bounds the itemized section: everything between an items
	// header keyword and the first trailing total-like keyword, across lines.
	reItemsBlock  = regexp.MustCompile(`(?is)(?:items|description|article|désignation)(.*?)(?:total|subtotal|amount)`)
	reItemExclude = regexp.MustCompile(`(?i)total|subtotal|amount|tax|vat`)
	reHasDigit    = regexp.MustCompile(`\d`)
)

// extractItems scans the items section line by line. A line qualifies when it
// carries at least one digit and no summary keyword. The last token must parse
// as the line amount; the second-to-last token is treated as a quantity when
// numeric, otherwise the quantity defaults to 1.
func extractItems(text string) []InvoiceItem {
	m := reItemsBlock.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []InvoiceItem
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !reHasDigit.MatchString(line) || reItemExclude.MatchString(line) {
			continue
		}
		tokens := strings.Fields(line)
		amount, ok := parseAmount(tokens[len(tokens)-1])
		if !ok {
			continue
		}

		item := InvoiceItem{Quantity: 1, UnitPrice: amount, Amount: amount}
		if len(tokens) >= 2 {
			// qty 0 would make the unit price non-finite; treat the token
			// as part of the description instead
			if qty, numeric := parseAmount(tokens[len(tokens)-2]); numeric && qty != 0 {
				item.Quantity = qty
				item.UnitPrice = amount / qty
				item.Description = strings.Join(tokens[:len(tokens)-2], " ")
			} else {
				item.Description = strings.Join(tokens[:len(tokens)-1], " ")
			}
		}
		items = append(items, item)
	}
	return items
}
