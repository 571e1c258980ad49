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

type payableService interface {
	CreatePayable(ctx context.Context, req settlement.CreatePayableRequest) (*domain.Payable, error)
	SettlePayable(ctx context.Context, req settlement.SettlePayableRequest) (*settlement.SettleResult, error)
	DeletePayable(ctx context.Context, id uuid.UUID) error
}

type PayableHandler struct {
	settlement payableService
}

func NewPayableHandler(settlement payableService) *PayableHandler {
	return &PayableHandler{settlement: settlement}
}

type payableDTO struct {
	ID             uuid.UUID  `json:"id"`
	VendorID       uuid.UUID  `json:"vendor_id"`
	ServiceOrderID *uuid.UUID `json:"service_order_id,omitempty"`
	Amount         string     `json:"amount"`
	PaidAmount     string     `json:"paid_amount"`
	Remaining      string     `json:"remaining"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	Description    string     `json:"description,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toPayableDTO(p *domain.Payable) payableDTO {
	return payableDTO{
		ID:             p.ID,
		VendorID:       p.VendorID,
		ServiceOrderID: p.ServiceOrderID,
		Amount:         p.Amount.String(),
		PaidAmount:     p.PaidAmount.String(),
		Remaining:      p.Remaining().String(),
		DueDate:        p.DueDate,
		Status:         string(p.Status),
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
	}
}

type createPayableRequest struct {
	VendorID    string `json:"vendor_id"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
}

func (r createPayableRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.VendorID); err != nil {
		errs = append(errs, FieldError{Field: "vendor_id", Message: "must be a valid id"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	if r.DueDate == "" {
		errs = append(errs, FieldError{Field: "due_date", Message: "required"})
	}
	return errs
}

func (h *PayableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPayableRequest
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

	vendorID, _ := uuid.Parse(req.VendorID)
	p, err := h.settlement.CreatePayable(r.Context(), settlement.CreatePayableRequest{
		VendorID:    vendorID,
		Amount:      amount,
		DueDate:     dueDate,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create payable", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toPayableDTO(p))
}

// Settle pays down one named payable out of an account.
func (h *PayableHandler) Settle(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.settlement.SettlePayable(r.Context(), settlement.SettlePayableRequest{
		PayableID: id,
		AccountID: accountID,
		Amount:    amount,
		Discount:  discount,
		Surcharge: surcharge,
		Date:      date,
		Note:      req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to settle payable", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"applied":   result.Applied.String(),
		"remaining": result.Remaining.String(),
	})
}

func (h *PayableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.settlement.DeletePayable(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete payable", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
}
