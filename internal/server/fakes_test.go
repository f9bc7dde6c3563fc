package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
	"github.com/besoincompta/compta-backend/internal/fields"
	"github.com/besoincompta/compta-backend/internal/repository"
)

// memStore is an in-memory stand-in for the whole persistence layer.
type memStore struct {
	mu        sync.Mutex
	companies map[uuid.UUID]*entity.Company
	users     map[uuid.UUID]*entity.User
	docs      map[uuid.UUID]*entity.Document
	jobs      map[uuid.UUID]*entity.ExtractJob
	invoices  map[uuid.UUID]*entity.Invoice
	txs       map[uuid.UUID]*entity.BankTransaction
	decls     map[uuid.UUID]*entity.VATDeclaration
}

func newMemStore() *memStore {
	return &memStore{
		companies: make(map[uuid.UUID]*entity.Company),
		users:     make(map[uuid.UUID]*entity.User),
		docs:      make(map[uuid.UUID]*entity.Document),
		jobs:      make(map[uuid.UUID]*entity.ExtractJob),
		invoices:  make(map[uuid.UUID]*entity.Invoice),
		txs:       make(map[uuid.UUID]*entity.BankTransaction),
		decls:     make(map[uuid.UUID]*entity.VATDeclaration),
	}
}

type memCompanies struct{ s *memStore }

func (m memCompanies) Create(_ context.Context, name string, taxID *string, currency string) (*entity.Company, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := &entity.Company{ID: uuid.New(), Name: name, TaxID: taxID, DefaultCurrency: currency, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.s.companies[c.ID] = c
	return c, nil
}
func (m memCompanies) GetByID(_ context.Context, id uuid.UUID) (*entity.Company, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.companies[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return c, nil
}
func (m memCompanies) List(context.Context) ([]*entity.Company, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.Company
	for _, c := range m.s.companies {
		out = append(out, c)
	}
	return out, nil
}

type memUsers struct{ s *memStore }

func (m memUsers) Create(_ context.Context, companyID uuid.UUID, email, fullName, role string) (*entity.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u := &entity.User{ID: uuid.New(), CompanyID: companyID, Email: email, FullName: fullName, Role: role}
	m.s.users[u.ID] = u
	return u, nil
}
func (m memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}
func (m memUsers) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*entity.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.User
	for _, u := range m.s.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

type memDocs struct{ s *memStore }

func (m memDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}
func (m memDocs) GetByCompanyAndHash(_ context.Context, companyID uuid.UUID, hash []byte) (*entity.Document, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range m.s.docs {
		if d.CompanyID == companyID && string(d.ContentHash) == string(hash) {
			return d, nil
		}
	}
	return nil, common.ErrNotFound
}
func (m memDocs) Create(_ context.Context, companyID uuid.UUID, filename, ext string, size int, hash []byte, storagePath string, uploadedAt time.Time) (*entity.Document, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d := &entity.Document{ID: uuid.New(), CompanyID: companyID, Filename: filename, FileExt: ext,
		FileSize: size, ContentHash: hash, StoragePath: storagePath, UploadedAt: uploadedAt}
	m.s.docs[d.ID] = d
	return d, nil
}
func (m memDocs) UpsertByHash(ctx context.Context, companyID uuid.UUID, filename, ext string, size int, hash []byte, storagePath string, uploadedAt time.Time) (*entity.Document, bool, error) {
	if existing, err := m.GetByCompanyAndHash(ctx, companyID, hash); err == nil {
		return existing, true, nil
	}
	d, err := m.Create(ctx, companyID, filename, ext, size, hash, storagePath, uploadedAt)
	return d, false, err
}
func (m memDocs) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*entity.Document, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.Document
	for _, d := range m.s.docs {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memJobs struct{ s *memStore }

func (m memJobs) Start(_ context.Context, documentID, companyID uuid.UUID, format string) (*entity.ExtractJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j := &entity.ExtractJob{ID: uuid.New(), DocumentID: documentID, CompanyID: companyID,
		Format: format, StartedAt: time.Now(), Status: string(constants.JobStatusRunning)}
	m.s.jobs[j.ID] = j
	return j, nil
}
func (m memJobs) GetByID(_ context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return j, nil
}
func (m memJobs) GetWithDocument(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, *entity.Document, error) {
	j, err := m.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	d, err := memDocs{m.s}.GetByID(ctx, j.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return j, d, nil
}
func (m memJobs) FinishOCR(_ context.Context, jobID uuid.UUID, out repository.OCROutcome) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j := m.s.jobs[jobID]
	if out.ErrorMessage != "" {
		j.Status = string(constants.JobStatusFailed)
		j.ErrorMessage = &out.ErrorMessage
		return nil
	}
	text := out.OCRText
	j.Status = string(constants.JobStatusOCROK)
	j.OCRText = &text
	j.NeedsReview = out.NeedsReview
	return nil
}
func (m memJobs) FinishParse(_ context.Context, jobID uuid.UUID, out repository.ParseOutcome) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j := m.s.jobs[jobID]
	j.Status = string(constants.JobStatusParseOK)
	j.ExtractedJSON = out.ExtractedJSON
	j.ExtractionConfidence = &out.Confidence
	j.NeedsReview = out.NeedsReview
	return nil
}
func (m memJobs) FinishFailure(_ context.Context, jobID uuid.UUID, message string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j := m.s.jobs[jobID]
	j.Status = string(constants.JobStatusFailed)
	j.ErrorMessage = &message
	return nil
}
func (m memJobs) SetInvoiceID(_ context.Context, jobID, invoiceID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.jobs[jobID].InvoiceID = &invoiceID
	return nil
}
func (m memJobs) ListByDocument(_ context.Context, documentID uuid.UUID) ([]*entity.ExtractJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.ExtractJob
	for _, j := range m.s.jobs {
		if j.DocumentID == documentID {
			out = append(out, j)
		}
	}
	return out, nil
}

type memInvoices struct{ s *memStore }

func (m memInvoices) UpsertFromExtraction(_ context.Context, req *repository.CreateInvoiceRequest) (*entity.Invoice, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	items, _ := json.Marshal(req.Data.Items)
	for _, inv := range m.s.invoices {
		if inv.DocumentID != nil && *inv.DocumentID == req.Document.ID {
			applyExtraction(inv, req.Data, items)
			return inv, nil
		}
	}
	inv := &entity.Invoice{ID: uuid.New(), CompanyID: req.Document.CompanyID, DocumentID: &req.Document.ID,
		Status: string(constants.InvoiceStatusPending), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	applyExtraction(inv, req.Data, items)
	m.s.invoices[inv.ID] = inv
	return inv, nil
}

func applyExtraction(inv *entity.Invoice, data fields.InvoiceData, items []byte) {
	inv.InvoiceNumber = data.InvoiceNumber
	inv.SupplierName = data.Supplier.Name
	inv.InvoiceDate = repository.ParseInvoiceDate(data.Date)
	inv.DueDate = repository.ParseInvoiceDate(data.DueDate)
	inv.Subtotal = data.Subtotal
	inv.TaxAmount = data.TaxAmount
	inv.Total = data.Total
	inv.CurrencyCode = data.Currency
	inv.Confidence = data.Confidence
	inv.Items = items
}

func (m memInvoices) GetByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inv, ok := m.s.invoices[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return inv, nil
}
func (m memInvoices) ListByCompany(_ context.Context, companyID uuid.UUID, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range m.s.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}
func (m memInvoices) ListForPeriod(_ context.Context, companyID uuid.UUID, start, end time.Time) ([]*entity.Invoice, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range m.s.invoices {
		if inv.CompanyID != companyID || inv.InvoiceDate == nil {
			continue
		}
		if inv.Status != string(constants.InvoiceStatusValidated) && inv.Status != string(constants.InvoiceStatusReconciled) {
			continue
		}
		if inv.InvoiceDate.Before(start) || inv.InvoiceDate.After(end) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}
func (m memInvoices) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inv, ok := m.s.invoices[id]
	if !ok {
		return common.ErrNotFound
	}
	inv.Status = status
	return nil
}
func (m memInvoices) MarkReconciled(ctx context.Context, id uuid.UUID) error {
	return m.UpdateStatus(ctx, id, string(constants.InvoiceStatusReconciled))
}

type memBankTxs struct{ s *memStore }

func (m memBankTxs) BulkInsert(_ context.Context, companyID uuid.UUID, txs []*entity.BankTransaction) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, tx := range txs {
		cp := *tx
		cp.ID = uuid.New()
		cp.CompanyID = companyID
		cp.ImportedAt = time.Now()
		m.s.txs[cp.ID] = &cp
	}
	return len(txs), nil
}
func (m memBankTxs) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*entity.BankTransaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.BankTransaction
	for _, tx := range m.s.txs {
		if tx.CompanyID == companyID {
			out = append(out, tx)
		}
	}
	return out, nil
}
func (m memBankTxs) ListUnmatched(_ context.Context, companyID uuid.UUID) ([]*entity.BankTransaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.BankTransaction
	for _, tx := range m.s.txs {
		if tx.CompanyID == companyID && tx.InvoiceID == nil {
			out = append(out, tx)
		}
	}
	return out, nil
}
func (m memBankTxs) GetByID(_ context.Context, id uuid.UUID) (*entity.BankTransaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tx, ok := m.s.txs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return tx, nil
}
func (m memBankTxs) LinkInvoice(_ context.Context, txID, invoiceID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tx, ok := m.s.txs[txID]
	if !ok {
		return common.ErrNotFound
	}
	tx.InvoiceID = &invoiceID
	return nil
}

type memDecls struct{ s *memStore }

func (m memDecls) Create(_ context.Context, d *entity.VATDeclaration) (*entity.VATDeclaration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *d
	cp.ID = uuid.New()
	cp.Status = string(constants.DeclarationStatusDraft)
	cp.CreatedAt = time.Now()
	m.s.decls[cp.ID] = &cp
	return &cp, nil
}
func (m memDecls) GetByID(_ context.Context, id uuid.UUID) (*entity.VATDeclaration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.decls[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}
func (m memDecls) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*entity.VATDeclaration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*entity.VATDeclaration
	for _, d := range m.s.decls {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}
func (m memDecls) Submit(_ context.Context, id uuid.UUID, at time.Time) (*entity.VATDeclaration, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.decls[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if d.Status != string(constants.DeclarationStatusDraft) {
		return nil, common.NewAppError("ALREADY_SUBMITTED", "declaration is not a draft", common.ErrInvalidInput)
	}
	d.Status = string(constants.DeclarationStatusSubmitted)
	d.SubmittedAt = &at
	return d, nil
}
