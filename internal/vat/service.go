// Package vat aggregates validated invoices into periodic VAT declarations.
package vat

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
	"github.com/besoincompta/compta-backend/internal/repository"
)

type Service struct {
	invoices     repository.InvoiceRepository
	declarations repository.VATDeclarationRepository
	logger       *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, declarations repository.VATDeclarationRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, declarations: declarations, logger: logger}
}

// PeriodBounds resolves a declaration period to its calendar bounds.
// For MONTHLY, ref selects the month; for QUARTERLY, the quarter containing ref.
func PeriodBounds(period constants.DeclarationPeriod, ref time.Time) (time.Time, time.Time, error) {
	y, m, _ := ref.Date()
	switch period {
	case constants.PeriodMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	case constants.PeriodQuarterly:
		qm := time.Month((int(m-1)/3)*3 + 1)
		start := time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, -1), nil
	default:
		return time.Time{}, time.Time{}, common.NewAppError("INVALID_PERIOD",
			fmt.Sprintf("unknown declaration period %q", period), common.ErrInvalidInput)
	}
}

// Draft builds a draft declaration for the company over the period containing ref.
// It sums validated and reconciled invoices; the collected VAT is recomputed
// from the taxable base at the standard rate so the declared figures agree
// even when individual extractions carried rounding drift.
func (s *Service) Draft(ctx context.Context, companyID uuid.UUID, period constants.DeclarationPeriod, ref time.Time) (*entity.VATDeclaration, error) {
	start, end, err := PeriodBounds(period, ref)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoices.ListForPeriod(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	base := decimal.Zero
	total := decimal.Zero
	for _, inv := range invoices {
		base = base.Add(decimal.NewFromFloat(inv.Subtotal))
		total = total.Add(decimal.NewFromFloat(inv.Total))
	}
	collected := base.Mul(decimal.NewFromFloat(constants.StandardVATRate)).Round(2)

	d := &entity.VATDeclaration{
		CompanyID:     companyID,
		Period:        string(period),
		PeriodStart:   start,
		PeriodEnd:     end,
		TaxableBase:   roundCents(base),
		CollectedVAT:  roundCents(collected),
		DeclaredTotal: roundCents(total),
		InvoiceCount:  len(invoices),
	}
	out, err := s.declarations.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vat draft built",
		"company_id", companyID, "period", period,
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"),
		"invoices", len(invoices), "collected_vat", out.CollectedVAT)
	return out, nil
}

// Submit finalizes a draft declaration.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*entity.VATDeclaration, error) {
	return s.declarations.Submit(ctx, id, time.Now().UTC())
}

func roundCents(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return math.Round(f*100) / 100
}
