package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

const serviceOrderColumns = `id, customer_id, vendor_id, title, segment, price, cost,
	status, delivery_date, receivable_id, payable_id, created_at, updated_at`

type ServiceOrderRepository struct {
	db *sql.DB
}

func NewServiceOrderRepository(db *sql.DB) *ServiceOrderRepository {
	return &ServiceOrderRepository{db: db}
}

func (r *ServiceOrderRepository) Create(ctx context.Context, tx *sql.Tx, o *domain.ServiceOrder) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO service_orders (
			id, customer_id, vendor_id, title, segment, price, cost,
			status, delivery_date, receivable_id, payable_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.CustomerID, o.VendorID, o.Title, o.Segment, o.Price, o.Cost,
		o.Status, o.DeliveryDate, o.ReceivableID, o.PayableID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ServiceOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+serviceOrderColumns+` FROM service_orders WHERE id = $1`, id,
	)
	o, err := scanServiceOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return o, nil
}

func (r *ServiceOrderRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.ServiceOrder, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+serviceOrderColumns+` FROM service_orders WHERE id = $1 FOR UPDATE`, id,
	)
	o, err := scanServiceOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return o, nil
}

func (r *ServiceOrderRepository) List(ctx context.Context, segment domain.Segment) ([]domain.ServiceOrder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceOrderColumns+` FROM service_orders
		WHERE segment = $1 ORDER BY created_at DESC`,
		segment,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var orders []domain.ServiceOrder
	for rows.Next() {
		o, err := scanServiceOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return orders, nil
}

func (r *ServiceOrderRepository) Update(ctx context.Context, tx *sql.Tx, o *domain.ServiceOrder) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE service_orders
		SET customer_id = $1, vendor_id = $2, title = $3, price = $4, cost = $5,
			status = $6, delivery_date = $7, receivable_id = $8, payable_id = $9,
			updated_at = $10
		WHERE id = $11`,
		o.CustomerID, o.VendorID, o.Title, o.Price, o.Cost,
		o.Status, o.DeliveryDate, o.ReceivableID, o.PayableID,
		o.UpdatedAt, o.ID,
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

func (r *ServiceOrderRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM service_orders WHERE id = $1`, id)
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

func scanServiceOrder(s scanner) (*domain.ServiceOrder, error) {
	var o domain.ServiceOrder
	var vendorID, receivableID, payableID uuid.NullUUID

	err := s.Scan(
		&o.ID, &o.CustomerID, &vendorID, &o.Title, &o.Segment, &o.Price, &o.Cost,
		&o.Status, &o.DeliveryDate, &receivableID, &payableID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if vendorID.Valid {
		o.VendorID = &vendorID.UUID
	}
	if receivableID.Valid {
		o.ReceivableID = &receivableID.UUID
	}
	if payableID.Valid {
		o.PayableID = &payableID.UUID
	}

	return &o, nil
}
