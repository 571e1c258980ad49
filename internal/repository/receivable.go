package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

const receivableColumns = `id, customer_id, service_order_id, amount, paid_amount,
	due_date, status, description, created_at`

type ReceivableRepository struct {
	db *sql.DB
}

func NewReceivableRepository(db *sql.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

func (r *ReceivableRepository) Create(ctx context.Context, tx *sql.Tx, rec *domain.Receivable) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO receivables (
			id, customer_id, service_order_id, amount, paid_amount,
			due_date, status, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.CustomerID, rec.ServiceOrderID, rec.Amount, rec.PaidAmount,
		rec.DueDate, rec.Status, rec.Description, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ReceivableRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Receivable, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+receivableColumns+` FROM receivables WHERE id = $1`, id,
	)
	rec, err := scanReceivable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rec, nil
}

func (r *ReceivableRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Receivable, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+receivableColumns+` FROM receivables WHERE id = $1 FOR UPDATE`, id,
	)
	rec, err := scanReceivable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return rec, nil
}

// ListOpenByCustomerForUpdate locks the customer's unsettled receivables in the
// allocation order: oldest due date first, creation time as tie-break.
func (r *ReceivableRepository) ListOpenByCustomerForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) ([]domain.Receivable, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+receivableColumns+` FROM receivables
		WHERE customer_id = $1 AND paid_amount < amount
		ORDER BY due_date, created_at FOR UPDATE`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListOpenByCustomerForUpdate: %w", err)
	}
	defer rows.Close()

	var recs []domain.Receivable
	for rows.Next() {
		rec, err := scanReceivable(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOpenByCustomerForUpdate: scan: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOpenByCustomerForUpdate: rows: %w", err)
	}
	return recs, nil
}

func (r *ReceivableRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Receivable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+receivableColumns+` FROM receivables
		WHERE customer_id = $1 ORDER BY due_date, created_at`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByCustomer: %w", err)
	}
	defer rows.Close()

	var recs []domain.Receivable
	for rows.Next() {
		rec, err := scanReceivable(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByCustomer: scan: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByCustomer: rows: %w", err)
	}
	return recs, nil
}

// ListOutstanding feeds the aging report: every receivable with something
// still due, joined with the customer name. Read-only, no locks.
func (r *ReceivableRepository) ListOutstanding(ctx context.Context, segment domain.Segment) ([]domain.AgingItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.customer_id, c.name, r.amount - r.paid_amount, r.due_date, r.created_at
		FROM receivables r
		JOIN customers c ON c.id = r.customer_id
		WHERE r.paid_amount < r.amount AND c.segment = $1
		ORDER BY r.due_date, r.created_at`,
		segment,
	)
	if err != nil {
		return nil, fmt.Errorf("ListOutstanding: %w", err)
	}
	defer rows.Close()

	var items []domain.AgingItem
	for rows.Next() {
		var it domain.AgingItem
		if err := rows.Scan(&it.ID, &it.PartyID, &it.PartyName, &it.Remaining, &it.DueDate, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListOutstanding: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOutstanding: rows: %w", err)
	}
	return items, nil
}

// Update rewrites the mutable fields in place. Used by settlement and by the
// service order re-sync path; always called with the row already locked.
func (r *ReceivableRepository) Update(ctx context.Context, tx *sql.Tx, rec *domain.Receivable) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE receivables
		SET customer_id = $1, amount = $2, paid_amount = $3, due_date = $4, status = $5, description = $6
		WHERE id = $7`,
		rec.CustomerID, rec.Amount, rec.PaidAmount, rec.DueDate, rec.Status, rec.Description, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ReceivableRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM receivables WHERE id = $1`, id)
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

func scanReceivable(s scanner) (*domain.Receivable, error) {
	var rec domain.Receivable
	var orderID uuid.NullUUID
	err := s.Scan(
		&rec.ID, &rec.CustomerID, &orderID, &rec.Amount, &rec.PaidAmount,
		&rec.DueDate, &rec.Status, &rec.Description, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		rec.ServiceOrderID = &orderID.UUID
	}
	return &rec, nil
}
