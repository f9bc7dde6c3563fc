package repository

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func documentRows(id, companyID uuid.UUID, hash []byte) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "company_id", "filename", "file_ext", "file_size",
		"content_hash", "storage_path", "uploaded_at",
	}).AddRow(id, companyID, "facture.pdf", "pdf", 1024, hash, "/data/documents/facture.pdf", time.Now())
}

func TestDocumentUpsertByHashReturnsExisting(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDocumentRepository(mock, testLogger())

	companyID := uuid.New()
	docID := uuid.New()
	hash := []byte{0xde, 0xad, 0xbe, 0xef}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM documents WHERE company_id = $1 AND content_hash = $2`)).
		WithArgs(companyID, hash).
		WillReturnRows(documentRows(docID, companyID, hash))

	doc, existed, err := repo.UpsertByHash(context.Background(), companyID, "facture.pdf", "pdf", 1024, hash, "/data/documents/facture.pdf", time.Now())
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, docID, doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentUpsertByHashCreatesWhenMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewDocumentRepository(mock, testLogger())

	companyID := uuid.New()
	docID := uuid.New()
	hash := []byte{0x01, 0x02}
	uploadedAt := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM documents WHERE company_id = $1 AND content_hash = $2`)).
		WithArgs(companyID, hash).
		WillReturnError(common.ErrNotFound)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents`)).
		WithArgs(companyID, "facture.pdf", "pdf", 1024, hash, "/data/documents/facture.pdf", uploadedAt).
		WillReturnRows(documentRows(docID, companyID, hash))

	doc, existed, err := repo.UpsertByHash(context.Background(), companyID, "facture.pdf", "pdf", 1024, hash, "/data/documents/facture.pdf", uploadedAt)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, docID, doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractJobFinishOCRRoutesErrorsToFailure(t *testing.T) {
	mock := newMockPool(t)
	repo := NewExtractJobRepository(mock, testLogger())

	jobID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE extract_jobs`)).
		WithArgs(jobID, string(constants.JobStatusFailed), "pdftotext: exit status 1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.FinishOCR(context.Background(), jobID, OCROutcome{ErrorMessage: "pdftotext: exit status 1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceUpdateStatusNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewInvoiceRepository(mock, testLogger())

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE invoices SET status = $2`)).
		WithArgs(id, string(constants.InvoiceStatusValidated)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), id, string(constants.InvoiceStatusValidated))
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseInvoiceDate(t *testing.T) {
	tests := []struct {
		in   string
		want string // empty means nil
	}{
		{"12/05/2024", "2024-05-12"},
		{"01-02-2023", "2023-02-01"},
		{"31.12.2024", "2024-12-31"},
		{"2024-05-12", "2024-05-12"},
		{"", ""},
		{"not a date", ""},
	}
	for _, tt := range tests {
		got := ParseInvoiceDate(tt.in)
		if tt.want == "" {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, tt.want, got.Format("2006-01-02"), "input %q", tt.in)
	}
}

func TestVATDeclarationCreateDuplicatePeriod(t *testing.T) {
	mock := newMockPool(t)
	repo := NewVATDeclarationRepository(mock, testLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO vat_declarations`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "vat_declarations_company_id_period_start_period_end_key",
		})

	_, err := repo.Create(context.Background(), &entity.VATDeclaration{
		CompanyID:   uuid.New(),
		Period:      string(constants.PeriodMonthly),
		PeriodStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, common.ErrDuplicate)
	assert.Equal(t, http.StatusConflict, common.HTTPStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock, testLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), uuid.New(), "dup@example.com", "Dup", "accountant")
	assert.ErrorIs(t, err, common.ErrDuplicate)
	assert.Equal(t, http.StatusConflict, common.HTTPStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankLinkInvoiceNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewBankTransactionRepository(mock, testLogger())

	txID, invID := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bank_transactions SET invoice_id = $2 WHERE id = $1`)).
		WithArgs(txID, invID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.LinkInvoice(context.Background(), txID, invID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
