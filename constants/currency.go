package constants

import "strings"

// DefaultCurrency is assumed when no currency marker is found in OCR text.
const DefaultCurrency = "USD"

// currencyTokens maps symbols and codes seen in invoice text to ISO-like
// currency codes. Order matters: the first token present in the text wins.
var currencyTokens = []struct {
	Token string
	Code  string
}{
	{"€", "EUR"},
	{"$", "USD"},
	{"£", "GBP"},
	{"EUR", "EUR"},
	{"USD", "USD"},
	{"GBP", "GBP"},
	{"MAD", "MAD"},
	{"DH", "MAD"},
}

// DetectCurrency scans raw text for a currency symbol or code and returns the
// canonical code, defaulting to DefaultCurrency when nothing is recognized.
func DetectCurrency(text string) string {
	up := strings.ToUpper(text)
	for _, c := range currencyTokens {
		if strings.Contains(up, c.Token) {
			return c.Code
		}
	}
	return DefaultCurrency
}
