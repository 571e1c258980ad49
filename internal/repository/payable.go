package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

const payableColumns = `id, vendor_id, service_order_id, amount, paid_amount,
	due_date, status, description, created_at`

type PayableRepository struct {
	db *sql.DB
}

func NewPayableRepository(db *sql.DB) *PayableRepository {
	return &PayableRepository{db: db}
}

func (r *PayableRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payable) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payables (
			id, vendor_id, service_order_id, amount, paid_amount,
			due_date, status, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.VendorID, p.ServiceOrderID, p.Amount, p.PaidAmount,
		p.DueDate, p.Status, p.Description, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PayableRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payable, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+payableColumns+` FROM payables WHERE id = $1`, id,
	)
	p, err := scanPayable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PayableRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Payable, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+payableColumns+` FROM payables WHERE id = $1 FOR UPDATE`, id,
	)
	p, err := scanPayable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

func (r *PayableRepository) ListOpenByVendorForUpdate(ctx context.Context, tx *sql.Tx, vendorID uuid.UUID) ([]domain.Payable, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+payableColumns+` FROM payables
		WHERE vendor_id = $1 AND paid_amount < amount
		ORDER BY due_date, created_at FOR UPDATE`,
		vendorID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListOpenByVendorForUpdate: %w", err)
	}
	defer rows.Close()

	var payables []domain.Payable
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOpenByVendorForUpdate: scan: %w", err)
		}
		payables = append(payables, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOpenByVendorForUpdate: rows: %w", err)
	}
	return payables, nil
}

func (r *PayableRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Payable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+payableColumns+` FROM payables
		WHERE vendor_id = $1 ORDER BY due_date, created_at`,
		vendorID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByVendor: %w", err)
	}
	defer rows.Close()

	var payables []domain.Payable
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByVendor: scan: %w", err)
		}
		payables = append(payables, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByVendor: rows: %w", err)
	}
	return payables, nil
}

func (r *PayableRepository) ListOutstanding(ctx context.Context, segment domain.Segment) ([]domain.AgingItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.vendor_id, v.name, p.amount - p.paid_amount, p.due_date, p.created_at
		FROM payables p
		JOIN vendors v ON v.id = p.vendor_id
		WHERE p.paid_amount < p.amount AND v.segment = $1
		ORDER BY p.due_date, p.created_at`,
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

func (r *PayableRepository) Update(ctx context.Context, tx *sql.Tx, p *domain.Payable) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payables
		SET vendor_id = $1, amount = $2, paid_amount = $3, due_date = $4, status = $5, description = $6
		WHERE id = $7`,
		p.VendorID, p.Amount, p.PaidAmount, p.DueDate, p.Status, p.Description, p.ID,
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

func (r *PayableRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM payables WHERE id = $1`, id)
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

func scanPayable(s scanner) (*domain.Payable, error) {
	var p domain.Payable
	var orderID uuid.NullUUID
	err := s.Scan(
		&p.ID, &p.VendorID, &orderID, &p.Amount, &p.PaidAmount,
		&p.DueDate, &p.Status, &p.Description, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		p.ServiceOrderID = &orderID.UUID
	}
	return &p, nil
}
