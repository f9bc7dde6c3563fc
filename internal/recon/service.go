package recon

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/entity"
	"github.com/besoincompta/compta-backend/internal/repository"
)

// MatchOptions tunes the reconciliation pass.
type MatchOptions struct {
	// DateWindowDays is how far a transaction date may drift from the
	// invoice date and still count as a match. Default 5.
	DateWindowDays int
}

// Match pairs one bank transaction with one invoice.
type Match struct {
	Transaction *entity.BankTransaction `json:"transaction"`
	Invoice     *entity.Invoice         `json:"invoice"`
	// LabelHit reports that the invoice number appeared in the statement label.
	LabelHit bool `json:"label_hit"`
}

// Ambiguous is a transaction with several plausible invoices.
type Ambiguous struct {
	Transaction *entity.BankTransaction `json:"transaction"`
	InvoiceIDs  []uuid.UUID             `json:"invoice_ids"`
}

// Result summarizes one reconciliation pass.
type Result struct {
	Matched   []Match                   `json:"matched"`
	Ambiguous []Ambiguous               `json:"ambiguous"`
	Unmatched []*entity.BankTransaction `json:"unmatched"`
}

type Service struct {
	txs      repository.BankTransactionRepository
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(txs repository.BankTransactionRepository, invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{txs: txs, invoices: invoices, logger: logger}
}

// Reconcile matches every unmatched bank transaction of the company against
// its validated invoices, linking unambiguous pairs. Matching compares exact
// amounts, with the transaction date allowed to drift inside the window; a
// statement label carrying the invoice number breaks amount-only ties.
func (s *Service) Reconcile(ctx context.Context, companyID uuid.UUID, opts MatchOptions) (*Result, error) {
	if opts.DateWindowDays <= 0 {
		opts.DateWindowDays = 5
	}

	txs, err := s.txs.ListUnmatched(ctx, companyID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListByCompany(ctx, companyID, repository.InvoiceFilter{
		Status: string(constants.InvoiceStatusValidated),
	})
	if err != nil {
		return nil, err
	}

	res := &Result{}
	taken := make(map[uuid.UUID]bool) // invoices already claimed in this pass

	for _, tx := range txs {
		var candidates []*entity.Invoice
		var labelHits []*entity.Invoice

		txAmount := decimal.NewFromFloat(tx.Amount)
		for _, inv := range invoices {
			if taken[inv.ID] {
				continue
			}
			if !txAmount.Equal(decimal.NewFromFloat(inv.Total)) {
				continue
			}
			hit := labelMentionsInvoice(tx.Label, inv.InvoiceNumber)
			if !hit && !withinWindow(tx, inv, opts.DateWindowDays) {
				continue
			}
			candidates = append(candidates, inv)
			if hit {
				labelHits = append(labelHits, inv)
			}
		}

		// an invoice number in the label outranks amount-and-date candidates
		if len(labelHits) == 1 {
			candidates = labelHits
		}

		switch len(candidates) {
		case 0:
			res.Unmatched = append(res.Unmatched, tx)
		case 1:
			inv := candidates[0]
			if err := s.link(ctx, tx, inv); err != nil {
				return nil, err
			}
			taken[inv.ID] = true
			res.Matched = append(res.Matched, Match{
				Transaction: tx,
				Invoice:     inv,
				LabelHit:    labelMentionsInvoice(tx.Label, inv.InvoiceNumber),
			})
		default:
			ids := make([]uuid.UUID, 0, len(candidates))
			for _, inv := range candidates {
				ids = append(ids, inv.ID)
			}
			res.Ambiguous = append(res.Ambiguous, Ambiguous{Transaction: tx, InvoiceIDs: ids})
		}
	}

	s.logger.Info("reconciliation pass finished",
		"company_id", companyID,
		"matched", len(res.Matched),
		"ambiguous", len(res.Ambiguous),
		"unmatched", len(res.Unmatched))
	return res, nil
}

// MatchManually links a specific transaction to a specific invoice,
// for resolving ambiguous candidates from the review UI.
func (s *Service) MatchManually(ctx context.Context, txID, invoiceID uuid.UUID) error {
	tx, err := s.txs.GetByID(ctx, txID)
	if err != nil {
		return err
	}
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	return s.link(ctx, tx, inv)
}

func (s *Service) link(ctx context.Context, tx *entity.BankTransaction, inv *entity.Invoice) error {
	if err := s.txs.LinkInvoice(ctx, tx.ID, inv.ID); err != nil {
		return err
	}
	return s.invoices.MarkReconciled(ctx, inv.ID)
}

func withinWindow(tx *entity.BankTransaction, inv *entity.Invoice, days int) bool {
	if inv.InvoiceDate == nil {
		return false
	}
	diff := tx.TxDate.Sub(*inv.InvoiceDate)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours()) <= days*24
}

func labelMentionsInvoice(label, invoiceNumber string) bool {
	if invoiceNumber == "" {
		return false
	}
	return strings.Contains(strings.ToLower(label), strings.ToLower(invoiceNumber))
}
