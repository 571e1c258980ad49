package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
	"github.com/safwanm/biztrack-backend/internal/service/settlement"
)

type customerService interface {
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	ListCustomers(ctx context.Context, segment domain.Segment) ([]domain.Customer, error)
}

type customerSettlementService interface {
	RecordCustomerPayment(ctx context.Context, req settlement.CustomerPaymentRequest) (*settlement.CustomerPaymentResult, error)
	ListReceivablesByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Receivable, error)
}

type CustomerHandler struct {
	customers  customerService
	settlement customerSettlementService
}

func NewCustomerHandler(customers customerService, settlement customerSettlementService) *CustomerHandler {
	return &CustomerHandler{customers: customers, settlement: settlement}
}

type createCustomerRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Segment string  `json:"segment"`
}

func (r createCustomerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.Segment(r.Segment).IsValid() {
		errs = append(errs, FieldError{Field: "segment", Message: "must be travel or isp"})
	}
	return errs
}

type customerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Segment   string    `json:"segment"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomerDTO(c *domain.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Segment:   string(c.Segment),
		Balance:   c.Balance.String(),
		CreatedAt: c.CreatedAt,
	}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customer := &domain.Customer{
		ID:        uuid.New(),
		Name:      req.Name,
		Phone:     req.Phone,
		Segment:   domain.Segment(req.Segment),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.customers.CreateCustomer(r.Context(), customer); err != nil {
		logging.FromContext(r.Context()).Error("failed to create customer", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toCustomerDTO(customer))
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toCustomerDTO(customer))
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	segment, appErr := segmentFromQuery(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	customers, err := h.customers.ListCustomers(r.Context(), segment)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list customers", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]customerDTO, len(customers))
	for i := range customers {
		dtos[i] = toCustomerDTO(&customers[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *CustomerHandler) ListReceivables(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	recs, err := h.settlement.ListReceivablesByCustomer(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]receivableDTO, len(recs))
	for i := range recs {
		dtos[i] = toReceivableDTO(&recs[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type customerPaymentRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Discount  string `json:"discount"`
	Surcharge string `json:"surcharge"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

func (r customerPaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid id"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	// Distributed payments settle at billed value; surcharge only applies
	// when settling one named receivable.
	if r.Surcharge != "" && r.Surcharge != "0" && r.Surcharge != "0.00" {
		errs = append(errs, FieldError{Field: "surcharge", Message: "not supported on distributed payments"})
	}
	return errs
}

// RecordPayment takes one lump payment and spreads it across the customer's
// open receivables, oldest first. Overpayment is kept as advance credit.
func (h *CustomerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	customerID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req customerPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil || amount == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}
	var discount domain.Minor
	if req.Discount != "" {
		if discount, err = domain.ParseAmount(req.Discount); err != nil {
			RespondAppError(w, ErrInvalidAmount, nil)
			return
		}
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "invalid date"}})
		return
	}

	accountID, _ := uuid.Parse(req.AccountID)
	result, err := h.settlement.RecordCustomerPayment(r.Context(), settlement.CustomerPaymentRequest{
		CustomerID: customerID,
		AccountID:  accountID,
		Amount:     amount,
		Discount:   discount,
		Date:       date,
		Note:       req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to record customer payment", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"settled":         result.Settled.String(),
		"advance":         result.Advance.String(),
		"total_due_after": result.TotalDueAfter.String(),
	})
}
