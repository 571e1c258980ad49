package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
	"github.com/safwanm/biztrack-backend/internal/service/ledger"
)

type ledgerService interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
	RecordEntry(ctx context.Context, req ledger.EntryRequest) (*domain.Transaction, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	Transfer(ctx context.Context, req ledger.TransferRequest) error
}

type AccountHandler struct {
	ledger ledgerService
}

func NewAccountHandler(ledger ledgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

type createAccountRequest struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Segment string `json:"segment"`
	Balance string `json:"balance"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.AccountKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be cash, bank, or mobile"})
	}
	if !domain.Segment(r.Segment).IsValid() {
		errs = append(errs, FieldError{Field: "segment", Message: "must be travel or isp"})
	}
	return errs
}

type accountDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Segment   string    `json:"segment"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Name:      a.Name,
		Kind:      string(a.Kind),
		Segment:   string(a.Segment),
		Balance:   a.Balance.String(),
		CreatedAt: a.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var balance domain.Minor
	if req.Balance != "" {
		var err error
		balance, err = domain.ParseAmount(req.Balance)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "balance", Message: "invalid amount"}})
			return
		}
	}

	account := &domain.Account{
		ID:        uuid.New(),
		Name:      req.Name,
		Kind:      domain.AccountKind(req.Kind),
		Segment:   domain.Segment(req.Segment),
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.ledger.CreateAccount(r.Context(), account); err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type transactionDTO struct {
	ID            uuid.UUID  `json:"id"`
	Date          time.Time  `json:"date"`
	Amount        string     `json:"amount"`
	Type          string     `json:"type"`
	Category      string     `json:"category"`
	Segment       string     `json:"segment"`
	AccountID     uuid.UUID  `json:"account_id"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceKind *string    `json:"reference_kind,omitempty"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Date:        t.Date,
		Amount:      t.Amount.String(),
		Type:        string(t.Type),
		Category:    t.Category,
		Segment:     string(t.Segment),
		AccountID:   t.AccountID,
		ReferenceID: t.ReferenceID,
		Note:        t.Note,
		CreatedAt:   t.CreatedAt,
	}
	if t.ReferenceKind != nil {
		kind := string(*t.ReferenceKind)
		dto.ReferenceKind = &kind
	}
	return dto
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	txns, total, err := h.ledger.ListTransactions(r.Context(), id, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"transactions": dtos,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

type recordEntryRequest struct {
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Segment   string `json:"segment"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

func (r recordEntryRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid id"})
	}
	if !domain.TransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be income or expense"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	if r.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "required"})
	}
	if !domain.Segment(r.Segment).IsValid() {
		errs = append(errs, FieldError{Field: "segment", Message: "must be travel or isp"})
	}
	return errs
}

func (h *AccountHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	var req recordEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil || amount == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "invalid date"}})
		return
	}

	accountID, _ := uuid.Parse(req.AccountID)
	entry, err := h.ledger.RecordEntry(r.Context(), ledger.EntryRequest{
		AccountID: accountID,
		Type:      domain.TransactionType(req.Type),
		Amount:    amount,
		Category:  req.Category,
		Segment:   domain.Segment(req.Segment),
		Date:      date,
		Note:      req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to record entry", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(entry))
}

func (h *AccountHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.ledger.DeleteEntry(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Note          string `json:"note"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.FromAccountID); err != nil {
		errs = append(errs, FieldError{Field: "from_account_id", Message: "must be a valid id"})
	}
	if _, err := uuid.Parse(r.ToAccountID); err != nil {
		errs = append(errs, FieldError{Field: "to_account_id", Message: "must be a valid id"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	return errs
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil || amount == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "invalid date"}})
		return
	}

	from, _ := uuid.Parse(req.FromAccountID)
	to, _ := uuid.Parse(req.ToAccountID)
	if err := h.ledger.Transfer(r.Context(), ledger.TransferRequest{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        amount,
		Date:          date,
		Note:          req.Note,
	}); err != nil {
		logging.FromContext(r.Context()).Error("failed to transfer", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"from_account_id": from.String(),
		"to_account_id":   to.String(),
		"amount":          amount.String(),
	})
}
