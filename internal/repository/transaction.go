package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

const transactionColumns = `id, date, amount, type, category, segment, account_id,
	customer_id, vendor_id, reference_id, reference_kind, note, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, date, amount, type, category, segment, account_id,
			customer_id, vendor_id, reference_id, reference_kind, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.Date, t.Amount, t.Type, t.Category, t.Segment, t.AccountID,
		t.CustomerID, t.VendorID, t.ReferenceID, t.ReferenceKind, t.Note, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return txns, total, nil
}

// ListByReferenceForUpdate locks the settlement entries hanging off a document
// so a delete can reverse the touched account balances before purging them.
func (r *TransactionRepository) ListByReferenceForUpdate(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE reference_id = $1 ORDER BY created_at FOR UPDATE`,
		referenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByReferenceForUpdate: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByReferenceForUpdate: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByReferenceForUpdate: rows: %w", err)
	}
	return txns, nil
}

func (r *TransactionRepository) DeleteByReference(ctx context.Context, tx *sql.Tx, referenceID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE reference_id = $1`, referenceID)
	if err != nil {
		return fmt.Errorf("DeleteByReference: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var customerID, vendorID, referenceID uuid.NullUUID
	var referenceKind *string

	err := s.Scan(
		&t.ID, &t.Date, &t.Amount, &t.Type, &t.Category, &t.Segment, &t.AccountID,
		&customerID, &vendorID, &referenceID, &referenceKind, &t.Note, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		t.CustomerID = &customerID.UUID
	}
	if vendorID.Valid {
		t.VendorID = &vendorID.UUID
	}
	if referenceID.Valid {
		t.ReferenceID = &referenceID.UUID
	}
	if referenceKind != nil {
		k := domain.ReferenceKind(*referenceKind)
		t.ReferenceKind = &k
	}

	return &t, nil
}
