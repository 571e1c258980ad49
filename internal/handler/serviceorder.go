package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
	"github.com/safwanm/biztrack-backend/internal/service/serviceorder"
)

type orderService interface {
	CreateOrder(ctx context.Context, req serviceorder.CreateOrderRequest) (*domain.ServiceOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error)
	ListOrders(ctx context.Context, segment domain.Segment) ([]domain.ServiceOrder, error)
	UpdateOrder(ctx context.Context, req serviceorder.UpdateOrderRequest) (*domain.ServiceOrder, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, deliveryDate *time.Time) (*domain.ServiceOrder, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

type OrderHandler struct {
	orders orderService
}

func NewOrderHandler(orders orderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderDTO struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customer_id"`
	VendorID     *uuid.UUID `json:"vendor_id,omitempty"`
	Title        string     `json:"title"`
	Segment      string     `json:"segment"`
	Price        string     `json:"price"`
	Cost         string     `json:"cost"`
	Profit       string     `json:"profit"`
	Status       string     `json:"status"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	ReceivableID *uuid.UUID `json:"receivable_id,omitempty"`
	PayableID    *uuid.UUID `json:"payable_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toOrderDTO(o *domain.ServiceOrder) orderDTO {
	return orderDTO{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		VendorID:     o.VendorID,
		Title:        o.Title,
		Segment:      string(o.Segment),
		Price:        o.Price.String(),
		Cost:         o.Cost.String(),
		Profit:       o.Profit().String(),
		Status:       string(o.Status),
		DeliveryDate: o.DeliveryDate,
		ReceivableID: o.ReceivableID,
		PayableID:    o.PayableID,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

type createOrderRequest struct {
	CustomerID string  `json:"customer_id"`
	VendorID   *string `json:"vendor_id"`
	Title      string  `json:"title"`
	Segment    string  `json:"segment"`
	Price      string  `json:"price"`
	Cost       string  `json:"cost"`
	Status     string  `json:"status"`
}

func (r createOrderRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a valid id"})
	}
	if r.VendorID != nil {
		if _, err := uuid.Parse(*r.VendorID); err != nil {
			errs = append(errs, FieldError{Field: "vendor_id", Message: "must be a valid id"})
		}
	}
	if r.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if !domain.Segment(r.Segment).IsValid() {
		errs = append(errs, FieldError{Field: "segment", Message: "must be travel or isp"})
	}
	if r.Price == "" {
		errs = append(errs, FieldError{Field: "price", Message: "required"})
	}
	if r.Status != "" && !domain.OrderStatus(r.Status).IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "invalid status"})
	}
	return errs
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	price, err := domain.ParseAmount(req.Price)
	if err != nil || price == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}
	var cost domain.Minor
	if req.Cost != "" {
		if cost, err = domain.ParseAmount(req.Cost); err != nil {
			RespondAppError(w, ErrInvalidAmount, nil)
			return
		}
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	var vendorID *uuid.UUID
	if req.VendorID != nil {
		id, _ := uuid.Parse(*req.VendorID)
		vendorID = &id
	}

	order, err := h.orders.CreateOrder(r.Context(), serviceorder.CreateOrderRequest{
		CustomerID: customerID,
		VendorID:   vendorID,
		Title:      req.Title,
		Segment:    domain.Segment(req.Segment),
		Price:      price,
		Cost:       cost,
		Status:     domain.OrderStatus(req.Status),
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create order", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toOrderDTO(order))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	segment, appErr := segmentFromQuery(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), segment)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list orders", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]orderDTO, len(orders))
	for i := range orders {
		dtos[i] = toOrderDTO(&orders[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type updateOrderRequest struct {
	CustomerID string  `json:"customer_id"`
	VendorID   *string `json:"vendor_id"`
	Title      string  `json:"title"`
	Price      string  `json:"price"`
	Cost       string  `json:"cost"`
}

func (r updateOrderRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a valid id"})
	}
	if r.VendorID != nil {
		if _, err := uuid.Parse(*r.VendorID); err != nil {
			errs = append(errs, FieldError{Field: "vendor_id", Message: "must be a valid id"})
		}
	}
	if r.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if r.Price == "" {
		errs = append(errs, FieldError{Field: "price", Message: "required"})
	}
	return errs
}

// Update edits an order and re-syncs its billing documents to the new price,
// cost, and counterparties.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	price, err := domain.ParseAmount(req.Price)
	if err != nil || price == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}
	var cost domain.Minor
	if req.Cost != "" {
		if cost, err = domain.ParseAmount(req.Cost); err != nil {
			RespondAppError(w, ErrInvalidAmount, nil)
			return
		}
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	var vendorID *uuid.UUID
	if req.VendorID != nil {
		vid, _ := uuid.Parse(*req.VendorID)
		vendorID = &vid
	}

	order, err := h.orders.UpdateOrder(r.Context(), serviceorder.UpdateOrderRequest{
		OrderID:    id,
		CustomerID: customerID,
		VendorID:   vendorID,
		Title:      req.Title,
		Price:      price,
		Cost:       cost,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update order", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(order))
}

type transitionRequest struct {
	Status       string `json:"status"`
	DeliveryDate string `json:"delivery_date"`
}

func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if !domain.OrderStatus(req.Status).IsValid() {
		RespondAppError(w, ErrInvalidStatus, nil)
		return
	}

	var deliveryDate *time.Time
	if req.DeliveryDate != "" {
		d, err := parseDate(req.DeliveryDate)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "delivery_date", Message: "invalid date"}})
			return
		}
		deliveryDate = &d
	}

	order, err := h.orders.TransitionStatus(r.Context(), id, domain.OrderStatus(req.Status), deliveryDate)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to transition order", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete order", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
}
