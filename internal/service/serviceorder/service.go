package serviceorder

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

type orderRepo interface {
	Create(ctx context.Context, tx *sql.Tx, o *domain.ServiceOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.ServiceOrder, error)
	List(ctx context.Context, segment domain.Segment) ([]domain.ServiceOrder, error)
	Update(ctx context.Context, tx *sql.Tx, o *domain.ServiceOrder) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type receivableRepo interface {
	Create(ctx context.Context, tx *sql.Tx, rec *domain.Receivable) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Receivable, error)
	Update(ctx context.Context, tx *sql.Tx, rec *domain.Receivable) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type payableRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payable) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payable, error)
	Update(ctx context.Context, tx *sql.Tx, p *domain.Payable) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type customerRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Customer, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type vendorRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Vendor, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type accountRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type transactionRepo interface {
	ListByReferenceForUpdate(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) ([]domain.Transaction, error)
	DeleteByReference(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) error
}

// Service drives the order state machine. Status changes and their receivable
// and payable side effects commit in the same unit: a failed transition leaves
// the status untouched.
type Service struct {
	orders       orderRepo
	receivables  receivableRepo
	payables     payableRepo
	customers    customerRepo
	vendors      vendorRepo
	accounts     accountRepo
	transactions transactionRepo
	db           *sql.DB
	grace        time.Duration
}

func NewService(
	orders orderRepo,
	receivables receivableRepo,
	payables payableRepo,
	customers customerRepo,
	vendors vendorRepo,
	accounts accountRepo,
	transactions transactionRepo,
	db *sql.DB,
	graceDays int,
) *Service {
	return &Service{
		orders:       orders,
		receivables:  receivables,
		payables:     payables,
		customers:    customers,
		vendors:      vendors,
		accounts:     accounts,
		transactions: transactions,
		db:           db,
		grace:        time.Duration(graceDays) * 24 * time.Hour,
	}
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetOrder: %w", err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, segment domain.Segment) ([]domain.ServiceOrder, error) {
	orders, err := s.orders.List(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("ListOrders: %w", err)
	}
	return orders, nil
}

// purgeEntries removes the settlement transactions hanging off a deleted
// document and backs their amounts out of the accounts they touched. Balances
// move, no replacement entries are written.
func (s *Service) purgeEntries(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) error {
	txns, err := s.transactions.ListByReferenceForUpdate(ctx, tx, referenceID)
	if err != nil {
		return fmt.Errorf("purgeEntries: %w", err)
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
	sort.Slice(order, func(i, j int) bool {
		return order[i].String() < order[j].String()
	})

	for _, accountID := range order {
		acct, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("purgeEntries: %w", err)
		}
		if err := s.accounts.UpdateBalance(ctx, tx, accountID, acct.Balance+deltas[accountID], acct.Version+1); err != nil {
			return fmt.Errorf("purgeEntries: %w", err)
		}
	}

	if err := s.transactions.DeleteByReference(ctx, tx, referenceID); err != nil {
		return fmt.Errorf("purgeEntries: %w", err)
	}
	return nil
}
