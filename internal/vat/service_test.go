package vat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
	"github.com/besoincompta/compta-backend/internal/repository"
)

type fakeInvoices struct {
	invoices []*entity.Invoice
	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeInvoices) UpsertFromExtraction(context.Context, *repository.CreateInvoiceRequest) (*entity.Invoice, error) {
	return nil, common.ErrInternal
}
func (f *fakeInvoices) GetByID(context.Context, uuid.UUID) (*entity.Invoice, error) {
	return nil, common.ErrNotFound
}
func (f *fakeInvoices) ListByCompany(context.Context, uuid.UUID, repository.InvoiceFilter) ([]*entity.Invoice, error) {
	return nil, nil
}
func (f *fakeInvoices) ListForPeriod(_ context.Context, _ uuid.UUID, start, end time.Time) ([]*entity.Invoice, error) {
	f.gotStart, f.gotEnd = start, end
	return f.invoices, nil
}
func (f *fakeInvoices) UpdateStatus(context.Context, uuid.UUID, string) error { return nil }
func (f *fakeInvoices) MarkReconciled(context.Context, uuid.UUID) error       { return nil }

type fakeDecls struct {
	created   *entity.VATDeclaration
	submitted []uuid.UUID
}

func (f *fakeDecls) Create(_ context.Context, d *entity.VATDeclaration) (*entity.VATDeclaration, error) {
	out := *d
	out.ID = uuid.New()
	out.Status = string(constants.DeclarationStatusDraft)
	f.created = &out
	return &out, nil
}
func (f *fakeDecls) GetByID(context.Context, uuid.UUID) (*entity.VATDeclaration, error) {
	return nil, common.ErrNotFound
}
func (f *fakeDecls) ListByCompany(context.Context, uuid.UUID) ([]*entity.VATDeclaration, error) {
	return nil, nil
}
func (f *fakeDecls) Submit(_ context.Context, id uuid.UUID, at time.Time) (*entity.VATDeclaration, error) {
	f.submitted = append(f.submitted, id)
	return &entity.VATDeclaration{ID: id, Status: string(constants.DeclarationStatusSubmitted), SubmittedAt: &at}, nil
}

func TestPeriodBoundsMonthly(t *testing.T) {
	ref := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	start, end, err := PeriodBounds(constants.PeriodMonthly, ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", start.Format("2006-01-02"))
	assert.Equal(t, "2024-05-31", end.Format("2006-01-02"))
}

func TestPeriodBoundsQuarterly(t *testing.T) {
	tests := []struct {
		ref        string
		start, end string
	}{
		{"2024-01-15", "2024-01-01", "2024-03-31"},
		{"2024-05-17", "2024-04-01", "2024-06-30"},
		{"2024-09-30", "2024-07-01", "2024-09-30"},
		{"2024-12-01", "2024-10-01", "2024-12-31"},
	}
	for _, tt := range tests {
		ref, _ := time.Parse("2006-01-02", tt.ref)
		start, end, err := PeriodBounds(constants.PeriodQuarterly, ref)
		require.NoError(t, err)
		assert.Equal(t, tt.start, start.Format("2006-01-02"), "ref %s", tt.ref)
		assert.Equal(t, tt.end, end.Format("2006-01-02"), "ref %s", tt.ref)
	}
}

func TestPeriodBoundsUnknown(t *testing.T) {
	_, _, err := PeriodBounds("WEEKLY", time.Now())
	assert.Error(t, err)
}

func TestDraftAggregatesInvoices(t *testing.T) {
	companyID := uuid.New()
	invs := &fakeInvoices{invoices: []*entity.Invoice{
		{Subtotal: 1000.00, Total: 1200.00},
		{Subtotal: 500.00, Total: 600.00},
		{Subtotal: 83.33, Total: 99.99},
	}}
	decls := &fakeDecls{}

	ref := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	d, err := NewService(invs, decls, nil).Draft(context.Background(), companyID, constants.PeriodMonthly, ref)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01", invs.gotStart.Format("2006-01-02"))
	assert.Equal(t, "2024-05-31", invs.gotEnd.Format("2006-01-02"))

	assert.InDelta(t, 1583.33, d.TaxableBase, 1e-9)
	// collected VAT is recomputed from the base, not summed from rows
	assert.InDelta(t, 316.67, d.CollectedVAT, 1e-9)
	assert.InDelta(t, 1899.99, d.DeclaredTotal, 1e-9)
	assert.Equal(t, 3, d.InvoiceCount)
	assert.Equal(t, string(constants.DeclarationStatusDraft), d.Status)
}

func TestDraftEmptyPeriod(t *testing.T) {
	decls := &fakeDecls{}
	d, err := NewService(&fakeInvoices{}, decls, nil).
		Draft(context.Background(), uuid.New(), constants.PeriodQuarterly, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, d.TaxableBase)
	assert.Zero(t, d.CollectedVAT)
	assert.Zero(t, d.InvoiceCount)
}

func TestSubmitDelegates(t *testing.T) {
	decls := &fakeDecls{}
	id := uuid.New()
	out, err := NewService(&fakeInvoices{}, decls, nil).Submit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, decls.submitted)
	assert.Equal(t, string(constants.DeclarationStatusSubmitted), out.Status)
}
