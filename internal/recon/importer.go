// Package recon imports bank statements and matches them against invoices.
package recon

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/entity"
)

// statementRow is one raw CSV row. The tags cover the common French and
// English bank-export column names (gocsv matches by header name).
type statementRow struct {
	Date    string `csv:"date"`
	DateOp  string `csv:"date opération"`
	DateOp2 string `csv:"date operation"`

	Label       string `csv:"label"`
	Libelle     string `csv:"libellé"`
	Libelle2    string `csv:"libelle"`
	Description string `csv:"description"`

	Amount  string `csv:"amount"`
	Montant string `csv:"montant"`

	Currency string `csv:"currency"`
	Devise   string `csv:"devise"`
}

// ImportError reports one unusable statement row.
type ImportError struct {
	Row     int
	Message string
}

func (e ImportError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ImportResult is the outcome of parsing one statement file.
type ImportResult struct {
	Transactions []*entity.BankTransaction
	Errors       []ImportError
	TotalRows    int
}

var statementDateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
}

// ParseStatement reads a CSV bank statement into transactions.
// Rows missing a date or amount are reported, not fatal.
func ParseStatement(r io.Reader, defaultCurrency string) (*ImportResult, error) {
	var rows []statementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if defaultCurrency == "" {
		defaultCurrency = constants.DefaultCurrency
	}

	res := &ImportResult{TotalRows: len(rows)}
	for i, row := range rows {
		rowNum := i + 2 // 1-indexed plus header

		dateStr := coalesce(row.Date, row.DateOp, row.DateOp2)
		if dateStr == "" {
			res.Errors = append(res.Errors, ImportError{Row: rowNum, Message: "missing date"})
			continue
		}
		txDate, ok := parseStatementDate(dateStr)
		if !ok {
			res.Errors = append(res.Errors, ImportError{Row: rowNum, Message: fmt.Sprintf("unrecognized date %q", dateStr)})
			continue
		}

		amountStr := coalesce(row.Amount, row.Montant)
		if amountStr == "" {
			res.Errors = append(res.Errors, ImportError{Row: rowNum, Message: "missing amount"})
			continue
		}
		amount, err := parseStatementAmount(amountStr)
		if err != nil {
			res.Errors = append(res.Errors, ImportError{Row: rowNum, Message: fmt.Sprintf("unrecognized amount %q", amountStr)})
			continue
		}

		currency := strings.ToUpper(coalesce(row.Currency, row.Devise, defaultCurrency))
		res.Transactions = append(res.Transactions, &entity.BankTransaction{
			TxDate:       txDate,
			Label:        strings.TrimSpace(coalesce(row.Label, row.Libelle, row.Libelle2, row.Description)),
			Amount:       amount,
			CurrencyCode: currency,
		})
	}
	return res, nil
}

func parseStatementDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseStatementAmount accepts both "1234.56" and the French "1 234,56".
func parseStatementAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
