package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

type receivableRepo interface {
	Create(ctx context.Context, tx *sql.Tx, rec *domain.Receivable) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Receivable, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Receivable, error)
	ListOpenByCustomerForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) ([]domain.Receivable, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Receivable, error)
	Update(ctx context.Context, tx *sql.Tx, rec *domain.Receivable) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type payableRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payable) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payable, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payable, error)
	ListOpenByVendorForUpdate(ctx context.Context, tx *sql.Tx, vendorID uuid.UUID) ([]domain.Payable, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Payable, error)
	Update(ctx context.Context, tx *sql.Tx, p *domain.Payable) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type customerRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Customer, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type vendorRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Vendor, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type accountRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	ListByReferenceForUpdate(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) ([]domain.Transaction, error)
	DeleteByReference(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) error
}

// Service owns receivable and payable settlement. Every mutation runs as one
// database transaction: balance updates and ledger entries commit together or
// not at all.
type Service struct {
	receivables  receivableRepo
	payables     payableRepo
	customers    customerRepo
	vendors      vendorRepo
	accounts     accountRepo
	transactions transactionRepo
	db           *sql.DB
}

func NewService(
	receivables receivableRepo,
	payables payableRepo,
	customers customerRepo,
	vendors vendorRepo,
	accounts accountRepo,
	transactions transactionRepo,
	db *sql.DB,
) *Service {
	return &Service{
		receivables:  receivables,
		payables:     payables,
		customers:    customers,
		vendors:      vendors,
		accounts:     accounts,
		transactions: transactions,
		db:           db,
	}
}

// adjustObligation applies surcharge then discount to a single obligation's
// amount. The adjusted amount may never drop below what was already paid.
func adjustObligation(amount, paid, discount, surcharge domain.Minor) (domain.Minor, error) {
	adjusted := amount + surcharge - discount
	if adjusted < paid {
		return 0, fmt.Errorf("adjustObligation: %w", domain.ErrAmountBelowPaid)
	}
	return adjusted, nil
}

// reverseSettlements deletes the settlement entries referencing a document and
// backs their amounts out of the touched accounts. This is the corrective
// reversal path: balances move, no new transactions are written.
func (s *Service) reverseSettlements(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) error {
	txns, err := s.transactions.ListByReferenceForUpdate(ctx, tx, referenceID)
	if err != nil {
		return fmt.Errorf("reverseSettlements: %w", err)
	}
	if len(txns) == 0 {
		return nil
	}

	deltas := make(map[uuid.UUID]domain.Minor)
	var order []uuid.UUID
	for _, t := range txns {
		if _, seen := deltas[t.AccountID]; !seen {
			order = append(order, t.AccountID)
		}
		if t.Type == domain.TransactionIncome {
			deltas[t.AccountID] -= t.Amount
		} else {
			deltas[t.AccountID] += t.Amount
		}
	}
	sortUUIDs(order)

	for _, accountID := range order {
		acct, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("reverseSettlements: %w", err)
		}
		if err := s.accounts.UpdateBalance(ctx, tx, accountID, acct.Balance+deltas[accountID], acct.Version+1); err != nil {
			return fmt.Errorf("reverseSettlements: %w", err)
		}
	}

	if err := s.transactions.DeleteByReference(ctx, tx, referenceID); err != nil {
		return fmt.Errorf("reverseSettlements: %w", err)
	}
	return nil
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
