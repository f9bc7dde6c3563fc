package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrenchInvoice(t *testing.T) {
	e := NewRegexExtractor(nil)
	text := "Facture 2024-0458\nDate: 12/05/2024\nFournisseur: ACME Corp\nTotal: 1200.00"

	d := e.Extract(text)

	assert.Equal(t, "2024-0458", d.InvoiceNumber)
	assert.Equal(t, "12/05/2024", d.Date)
	assert.Equal(t, "ACME Corp", d.Supplier.Name)
	assert.InDelta(t, 1200.0, d.Total, 1e-9)
	assert.InDelta(t, 1000.0, d.Subtotal, 1e-9)
	assert.InDelta(t, 200.0, d.TaxAmount, 1e-9)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestExtractNoLabels(t *testing.T) {
	e := NewRegexExtractor(nil)

	d := e.Extract("xxxx yyyy zzzz")

	assert.Empty(t, d.InvoiceNumber)
	assert.Empty(t, d.Date)
	assert.Empty(t, d.DueDate)
	assert.Empty(t, d.Supplier.Name)
	assert.Empty(t, d.Supplier.Address)
	assert.Zero(t, d.Subtotal)
	assert.Zero(t, d.TaxAmount)
	assert.Zero(t, d.Total)
	assert.Equal(t, "USD", d.Currency)
	assert.Zero(t, d.Confidence)

	// a single synthesized item mirrors the (zero) subtotal
	require.Len(t, d.Items, 1)
	assert.Equal(t, defaultItemDescription, d.Items[0].Description)
	assert.Equal(t, 1.0, d.Items[0].Quantity)
	assert.Zero(t, d.Items[0].Amount)
}

func TestExtractCustomerNeverPopulated(t *testing.T) {
	e := NewRegexExtractor(nil)
	d := e.Extract("Invoice 99-1\nFrom: Supplier SA\nTotal: 10.00")

	assert.Empty(t, d.Customer.Name)
	assert.Empty(t, d.Customer.Address)
}

func TestExtractDerivedAmounts(t *testing.T) {
	e := NewRegexExtractor(nil)

	// total present, subtotal/tax absent: back-computed at the 20% rate
	d := e.Extract("Montant: 1199.99")
	assert.InDelta(t, 1199.99, d.Total, 1e-9)
	assert.InDelta(t, 999.99, d.Subtotal, 1e-9) // round2(1199.99 / 1.2)
	assert.InDelta(t, 200.0, d.TaxAmount, 1e-9)
	assert.InDelta(t, d.Total, d.Subtotal+d.TaxAmount, 0.01)
}

func TestExtractExplicitAmounts(t *testing.T) {
	e := NewRegexExtractor(nil)
	text := "Sous-total: 500.00\nTVA: 100.00\nMontant: 600.00"

	d := e.Extract(text)

	assert.InDelta(t, 500.0, d.Subtotal, 1e-9)
	assert.InDelta(t, 100.0, d.TaxAmount, 1e-9)
	// "Sous-total" also satisfies the total label, and the first match wins
	assert.InDelta(t, 500.0, d.Total, 1e-9)
}

func TestExtractLineItems(t *testing.T) {
	e := NewRegexExtractor(nil)
	text := "Invoice 12345\nDescription\nWidget A 2 100.00\nService B 50.00\nTotal: 150.00"

	d := e.Extract(text)

	require.Len(t, d.Items, 2)
	assert.Equal(t, "Widget A", d.Items[0].Description)
	assert.Equal(t, 2.0, d.Items[0].Quantity)
	assert.InDelta(t, 50.0, d.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 100.0, d.Items[0].Amount, 1e-9)

	assert.Equal(t, "Service B", d.Items[1].Description)
	assert.Equal(t, 1.0, d.Items[1].Quantity)
	assert.InDelta(t, 50.0, d.Items[1].UnitPrice, 1e-9)
	assert.InDelta(t, 50.0, d.Items[1].Amount, 1e-9)
}

func TestExtractZeroQuantityItemStaysFinite(t *testing.T) {
	e := NewRegexExtractor(nil)
	text := "Invoice 12-34\nDescription\nDiscount 0 100.00\nTotal: 100.00"

	d := e.Extract(text)

	require.Len(t, d.Items, 1)
	assert.Equal(t, "Discount 0", d.Items[0].Description)
	assert.Equal(t, 1.0, d.Items[0].Quantity)
	assert.InDelta(t, 100.0, d.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 100.0, d.Items[0].Amount, 1e-9)

	// the record must stay serializable; +Inf/NaN would break json.Marshal
	_, err := json.Marshal(d)
	require.NoError(t, err)
}

func TestExtractItemsHeaderWithoutRows(t *testing.T) {
	e := NewRegexExtractor(nil)
	d := e.Extract("Articles\nTotal: 120.00")

	require.Len(t, d.Items, 1)
	assert.Equal(t, defaultItemDescription, d.Items[0].Description)
	assert.InDelta(t, d.Subtotal, d.Items[0].Amount, 1e-9)
	assert.InDelta(t, 100.0, d.Items[0].Amount, 1e-9)
}

func TestExtractCurrency(t *testing.T) {
	e := NewRegexExtractor(nil)

	assert.Equal(t, "EUR", e.Extract("Total: 50,00 €").Currency)
	assert.Equal(t, "MAD", e.Extract("Total: 500 DH").Currency)
	assert.Equal(t, "MAD", e.Extract("Montant 500 MAD").Currency)
	assert.Equal(t, "GBP", e.Extract("Total: £12.00").Currency)
	assert.Equal(t, "USD", e.Extract("Total: 12.00").Currency)
}

func TestConfidenceMonotonic(t *testing.T) {
	e := NewRegexExtractor(nil)

	steps := []string{
		"xxxx",
		"Invoice 77-01",
		"Invoice 77-01\nDate: 01/02/2024",
		"Invoice 77-01\nDate: 01/02/2024\nSupplier: Acme",
		"Invoice 77-01\nDate: 01/02/2024\nSupplier: Acme\nTotal: 99.00",
	}
	prev := -1.0
	for _, text := range steps {
		c := e.Extract(text).Confidence
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		assert.Greater(t, c, prev, "confidence should increase with each populated key field: %q", text)
		prev = c
	}
	assert.Equal(t, 1.0, prev)
}

func TestExtractDueDate(t *testing.T) {
	e := NewRegexExtractor(nil)
	text := "Facture 10-22\nDate: 01/03/2024\nÉchéance: 31/03/2024\nTotal: 60.00"

	d := e.Extract(text)

	assert.Equal(t, "01/03/2024", d.Date)
	assert.Equal(t, "31/03/2024", d.DueDate)
}

func TestExtractSupplierBlock(t *testing.T) {
	e := NewRegexExtractor(nil)
	text := "Fournisseur: Transit SARL\nAdresse: 12 rue des Fleurs\n75011 Paris\nFrance\nNIF: FR40123456789\nTotal: 42.00"

	d := e.Extract(text)

	assert.Equal(t, "Transit SARL", d.Supplier.Name)
	assert.Equal(t, "12 rue des Fleurs, 75011 Paris, France", d.Supplier.Address)
	assert.Equal(t, "FR40123456789", d.Supplier.TaxID)
}
