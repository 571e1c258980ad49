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

type receivableService interface {
	CreateReceivable(ctx context.Context, req settlement.CreateReceivableRequest) (*domain.Receivable, error)
	SettleReceivable(ctx context.Context, req settlement.SettleReceivableRequest) (*settlement.SettleResult, error)
	DeleteReceivable(ctx context.Context, id uuid.UUID) error
}

type ReceivableHandler struct {
	settlement receivableService
}

func NewReceivableHandler(settlement receivableService) *ReceivableHandler {
	return &ReceivableHandler{settlement: settlement}
}

type receivableDTO struct {
	ID             uuid.UUID  `json:"id"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	ServiceOrderID *uuid.UUID `json:"service_order_id,omitempty"`
	Amount         string     `json:"amount"`
	PaidAmount     string     `json:"paid_amount"`
	Remaining      string     `json:"remaining"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	Description    string     `json:"description,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toReceivableDTO(rec *domain.Receivable) receivableDTO {
	return receivableDTO{
		ID:             rec.ID,
		CustomerID:     rec.CustomerID,
		ServiceOrderID: rec.ServiceOrderID,
		Amount:         rec.Amount.String(),
		PaidAmount:     rec.PaidAmount.String(),
		Remaining:      rec.Remaining().String(),
		DueDate:        rec.DueDate,
		Status:         string(rec.Status),
		Description:    rec.Description,
		CreatedAt:      rec.CreatedAt,
	}
}

type createReceivableRequest struct {
	CustomerID  string `json:"customer_id"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
}

func (r createReceivableRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.CustomerID); err != nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be a valid id"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	if r.DueDate == "" {
		errs = append(errs, FieldError{Field: "due_date", Message: "required"})
	}
	return errs
}

func (h *ReceivableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReceivableRequest
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
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "due_date", Message: "invalid date"}})
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	rec, err := h.settlement.CreateReceivable(r.Context(), settlement.CreateReceivableRequest{
		CustomerID:  customerID,
		Amount:      amount,
		DueDate:     dueDate,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create receivable", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toReceivableDTO(rec))
}

type settleRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Discount  string `json:"discount"`
	Surcharge string `json:"surcharge"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

func (r settleRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid id"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	return errs
}

func (r settleRequest) amounts() (amount, discount, surcharge domain.Minor, err error) {
	if amount, err = domain.ParseAmount(r.Amount); err != nil {
		return
	}
	if r.Discount != "" {
		if discount, err = domain.ParseAmount(r.Discount); err != nil {
			return
		}
	}
	if r.Surcharge != "" {
		if surcharge, err = domain.ParseAmount(r.Surcharge); err != nil {
			return
		}
	}
	return
}

// Settle collects a payment against one named receivable. The payment may not
// exceed what remains; overpayments belong on the customer payment route.
func (h *ReceivableHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, discount, surcharge, err := req.amounts()
	if err != nil || amount == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "invalid date"}})
		return
	}

	accountID, _ := uuid.Parse(req.AccountID)
	result, err := h.settlement.SettleReceivable(r.Context(), settlement.SettleReceivableRequest{
		ReceivableID: id,
		AccountID:    accountID,
		Amount:       amount,
		Discount:     discount,
		Surcharge:    surcharge,
		Date:         date,
		Note:         req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to settle receivable", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"applied":   result.Applied.String(),
		"advance":   result.Advance.String(),
		"remaining": result.Remaining.String(),
	})
}

// Delete removes a receivable and corrects every balance it ever moved,
// including already-settled portions.
func (h *ReceivableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.settlement.DeleteReceivable(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete receivable", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
}
