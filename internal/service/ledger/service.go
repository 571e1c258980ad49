package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type accountRepo interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

// Service covers direct ledger work: manual income and expense entries,
// entry deletion, and account-to-account transfers.
type Service struct {
	accounts     accountRepo
	transactions transactionRepo
	db           *sql.DB
}

func NewService(accounts accountRepo, transactions transactionRepo, db *sql.DB) *Service {
	return &Service{accounts: accounts, transactions: transactions, db: db}
}

func (s *Service) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := s.accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	txns, total, err := s.transactions.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, total, nil
}

type EntryRequest struct {
	AccountID uuid.UUID
	Type      domain.TransactionType
	Amount    domain.Minor
	Category  string
	Segment   domain.Segment
	Date      time.Time
	Note      string
}

// RecordEntry books a manual income or expense against an account. An expense
// may not push the account below zero.
func (s *Service) RecordEntry(ctx context.Context, req EntryRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("RecordEntry: %w", domain.ErrInvalidAmount)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("RecordEntry: %w", domain.ErrInvalidStatus)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RecordEntry: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("RecordEntry: %w", err)
	}

	delta := req.Amount
	if req.Type == domain.TransactionExpense {
		if account.Balance < req.Amount {
			return nil, fmt.Errorf("RecordEntry: %w", domain.ErrInsufficientFunds)
		}
		delta = -req.Amount
	}

	entry := &domain.Transaction{
		ID:        uuid.New(),
		Date:      req.Date,
		Amount:    req.Amount,
		Type:      req.Type,
		Category:  req.Category,
		Segment:   req.Segment,
		AccountID: account.ID,
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("RecordEntry: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance+delta, account.Version+1); err != nil {
		return nil, fmt.Errorf("RecordEntry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RecordEntry: commit: %w", err)
	}

	log.Info("ledger entry recorded",
		"transaction_id", entry.ID,
		"account_id", account.ID,
		"type", entry.Type,
		"amount", entry.Amount,
	)
	return entry, nil
}

// DeleteEntry removes a manual entry and reverses its effect on the account.
// Settlement entries carry a document reference and can only disappear with
// their parent document.
func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteEntry: begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.transactions.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	if entry.ReferenceID != nil {
		return fmt.Errorf("DeleteEntry: %w", domain.ErrLinkedTransaction)
	}

	account, err := s.accounts.GetForUpdate(ctx, tx, entry.AccountID)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}

	delta := -entry.Amount
	if entry.Type == domain.TransactionExpense {
		delta = entry.Amount
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance+delta, account.Version+1); err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}

	if err := s.transactions.Delete(ctx, tx, entry.ID); err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteEntry: commit: %w", err)
	}
	return nil
}

type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        domain.Minor
	Date          time.Time
	Note          string
}

// Transfer moves cash between two accounts: an expense leg on the source and
// an income leg on the destination, one atomic unit.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) error {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}
	if req.FromAccountID == req.ToAccountID {
		return fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	first, second := req.FromAccountID, req.ToAccountID
	if second.String() < first.String() {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*domain.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		acct, err := s.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("Transfer: %w", err)
		}
		locked[id] = acct
	}

	src, dst := locked[req.FromAccountID], locked[req.ToAccountID]
	if src.Balance < req.Amount {
		return fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	out := &domain.Transaction{
		ID:        uuid.New(),
		Date:      req.Date,
		Amount:    req.Amount,
		Type:      domain.TransactionExpense,
		Category:  "Transfer Out",
		Segment:   src.Segment,
		AccountID: src.ID,
		Note:      req.Note,
		CreatedAt: now,
	}
	if err := s.transactions.Create(ctx, tx, out); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	in := &domain.Transaction{
		ID:        uuid.New(),
		Date:      req.Date,
		Amount:    req.Amount,
		Type:      domain.TransactionIncome,
		Category:  "Transfer In",
		Segment:   dst.Segment,
		AccountID: dst.ID,
		Note:      req.Note,
		CreatedAt: now,
	}
	if err := s.transactions.Create(ctx, tx, in); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, src.ID, src.Balance-req.Amount, src.Version+1); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, dst.ID, dst.Balance+req.Amount, dst.Version+1); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("transfer completed",
		"from_account", src.ID,
		"to_account", dst.ID,
		"amount", req.Amount,
	)
	return nil
}
