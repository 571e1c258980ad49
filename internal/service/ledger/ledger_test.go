package ledger_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/repository"
	"github.com/safwanm/biztrack-backend/internal/service/ledger"
	"github.com/safwanm/biztrack-backend/internal/testutil"
)

func newService(db *sql.DB) *ledger.Service {
	return ledger.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
}

func TestLedgerEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	t.Run("income raises the balance", func(t *testing.T) {
		accountID := testutil.SeedAccount(t, db, "Till", domain.SegmentTravel, 10000)

		entry, err := svc.RecordEntry(ctx, ledger.EntryRequest{
			AccountID: accountID,
			Type:      domain.TransactionIncome,
			Amount:    25000,
			Category:  "Commission",
			Segment:   domain.SegmentTravel,
			Date:      time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Nil(t, entry.ReferenceID)
		assert.Equal(t, domain.Minor(35000), testutil.GetAccountBalance(t, db, accountID))
	})

	t.Run("expense may not overdraw the account", func(t *testing.T) {
		accountID := testutil.SeedAccount(t, db, "Till 2", domain.SegmentTravel, 10000)

		_, err := svc.RecordEntry(ctx, ledger.EntryRequest{
			AccountID: accountID,
			Type:      domain.TransactionExpense,
			Amount:    15000,
			Category:  "Rent",
			Segment:   domain.SegmentTravel,
			Date:      time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.Equal(t, domain.Minor(10000), testutil.GetAccountBalance(t, db, accountID))
	})

	t.Run("delete reverses a manual entry", func(t *testing.T) {
		accountID := testutil.SeedAccount(t, db, "Till 3", domain.SegmentTravel, 50000)

		entry, err := svc.RecordEntry(ctx, ledger.EntryRequest{
			AccountID: accountID,
			Type:      domain.TransactionExpense,
			Amount:    20000,
			Category:  "Fuel",
			Segment:   domain.SegmentTravel,
			Date:      time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(30000), testutil.GetAccountBalance(t, db, accountID))

		require.NoError(t, svc.DeleteEntry(ctx, entry.ID))
		assert.Equal(t, domain.Minor(50000), testutil.GetAccountBalance(t, db, accountID))
	})

	t.Run("settlement entries cannot be deleted directly", func(t *testing.T) {
		accountID := testutil.SeedAccount(t, db, "Till 4", domain.SegmentTravel, 50000)
		customerID := testutil.SeedCustomer(t, db, "Imran", domain.SegmentTravel)

		entryID := uuid.New()
		refID := uuid.New()
		_, err := db.Exec(
			`INSERT INTO transactions (id, date, amount, type, category, segment, account_id, customer_id, reference_id, reference_kind, created_at)
			 VALUES ($1, now(), 10000, 'income', 'Collection', 'travel', $2, $3, $4, 'receivable', now())`,
			entryID, accountID, customerID, refID,
		)
		require.NoError(t, err)

		err = svc.DeleteEntry(ctx, entryID)
		require.ErrorIs(t, err, domain.ErrLinkedTransaction)
	})

	t.Run("lists entries newest first with a total", func(t *testing.T) {
		accountID := testutil.SeedAccount(t, db, "Till 5", domain.SegmentTravel, 0)

		for i := 0; i < 3; i++ {
			_, err := svc.RecordEntry(ctx, ledger.EntryRequest{
				AccountID: accountID,
				Type:      domain.TransactionIncome,
				Amount:    domain.Minor(1000 * (i + 1)),
				Category:  "Commission",
				Segment:   domain.SegmentTravel,
				Date:      time.Now().UTC(),
			})
			require.NoError(t, err)
		}

		entries, total, err := svc.ListTransactions(ctx, accountID, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, entries, 2)
	})
}

func TestTransfer(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	t.Run("moves cash with a leg on each side", func(t *testing.T) {
		fromID := testutil.SeedAccount(t, db, "Bank", domain.SegmentTravel, 100000)
		toID := testutil.SeedAccount(t, db, "Cash Drawer", domain.SegmentTravel, 5000)

		err := svc.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: fromID,
			ToAccountID:   toID,
			Amount:        30000,
			Date:          time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(70000), testutil.GetAccountBalance(t, db, fromID))
		assert.Equal(t, domain.Minor(35000), testutil.GetAccountBalance(t, db, toID))

		_, fromTotal, err := svc.ListTransactions(ctx, fromID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, fromTotal)
		_, toTotal, err := svc.ListTransactions(ctx, toID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, toTotal)
	})

	t.Run("source must cover the transfer", func(t *testing.T) {
		fromID := testutil.SeedAccount(t, db, "Bank 2", domain.SegmentTravel, 1000)
		toID := testutil.SeedAccount(t, db, "Cash Drawer 2", domain.SegmentTravel, 0)

		err := svc.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: fromID,
			ToAccountID:   toID,
			Amount:        30000,
			Date:          time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.Equal(t, domain.Minor(1000), testutil.GetAccountBalance(t, db, fromID))
		assert.Equal(t, domain.Minor(0), testutil.GetAccountBalance(t, db, toID))
	})

	t.Run("self transfer is rejected", func(t *testing.T) {
		accountID := testutil.SeedAccount(t, db, "Bank 3", domain.SegmentTravel, 100000)

		err := svc.Transfer(ctx, ledger.TransferRequest{
			FromAccountID: accountID,
			ToAccountID:   accountID,
			Amount:        10000,
			Date:          time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrSelfTransfer)
	})
}
