package party

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

type customerRepo interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context, segment domain.Segment) ([]domain.Customer, error)
}

type vendorRepo interface {
	Create(ctx context.Context, v *domain.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error)
	List(ctx context.Context, segment domain.Segment) ([]domain.Vendor, error)
}

// Service is plain CRUD over counterparties. Balances are owned by the
// settlement and order services; nothing here touches them.
type Service struct {
	customers customerRepo
	vendors   vendorRepo
}

func NewService(customers customerRepo, vendors vendorRepo) *Service {
	return &Service{customers: customers, vendors: vendors}
}

func (s *Service) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	if !c.Segment.IsValid() {
		return fmt.Errorf("CreateCustomer: %w", domain.ErrInvalidSegment)
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return fmt.Errorf("CreateCustomer: %w", err)
	}
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetCustomer: %w", err)
	}
	return c, nil
}

func (s *Service) ListCustomers(ctx context.Context, segment domain.Segment) ([]domain.Customer, error) {
	customers, err := s.customers.List(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("ListCustomers: %w", err)
	}
	return customers, nil
}

func (s *Service) CreateVendor(ctx context.Context, v *domain.Vendor) error {
	if !v.Segment.IsValid() {
		return fmt.Errorf("CreateVendor: %w", domain.ErrInvalidSegment)
	}
	if err := s.vendors.Create(ctx, v); err != nil {
		return fmt.Errorf("CreateVendor: %w", err)
	}
	return nil
}

func (s *Service) GetVendor(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetVendor: %w", err)
	}
	return v, nil
}

func (s *Service) ListVendors(ctx context.Context, segment domain.Segment) ([]domain.Vendor, error) {
	vendors, err := s.vendors.List(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("ListVendors: %w", err)
	}
	return vendors, nil
}
