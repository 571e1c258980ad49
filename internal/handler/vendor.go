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

type vendorService interface {
	CreateVendor(ctx context.Context, v *domain.Vendor) error
	GetVendor(ctx context.Context, id uuid.UUID) (*domain.Vendor, error)
	ListVendors(ctx context.Context, segment domain.Segment) ([]domain.Vendor, error)
}

type vendorSettlementService interface {
	PayVendorBill(ctx context.Context, req settlement.VendorPaymentRequest) (*settlement.VendorPaymentResult, error)
	ListPayablesByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Payable, error)
}

type VendorHandler struct {
	vendors    vendorService
	settlement vendorSettlementService
}

func NewVendorHandler(vendors vendorService, settlement vendorSettlementService) *VendorHandler {
	return &VendorHandler{vendors: vendors, settlement: settlement}
}

type createVendorRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Segment string  `json:"segment"`
}

func (r createVendorRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.Segment(r.Segment).IsValid() {
		errs = append(errs, FieldError{Field: "segment", Message: "must be travel or isp"})
	}
	return errs
}

type vendorDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Segment   string    `json:"segment"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func toVendorDTO(v *domain.Vendor) vendorDTO {
	return vendorDTO{
		ID:        v.ID,
		Name:      v.Name,
		Phone:     v.Phone,
		Segment:   string(v.Segment),
		Balance:   v.Balance.String(),
		CreatedAt: v.CreatedAt,
	}
}

func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	vendor := &domain.Vendor{
		ID:        uuid.New(),
		Name:      req.Name,
		Phone:     req.Phone,
		Segment:   domain.Segment(req.Segment),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.vendors.CreateVendor(r.Context(), vendor); err != nil {
		logging.FromContext(r.Context()).Error("failed to create vendor", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toVendorDTO(vendor))
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	vendor, err := h.vendors.GetVendor(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toVendorDTO(vendor))
}

func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	segment, appErr := segmentFromQuery(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	vendors, err := h.vendors.ListVendors(r.Context(), segment)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list vendors", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]vendorDTO, len(vendors))
	for i := range vendors {
		dtos[i] = toVendorDTO(&vendors[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *VendorHandler) ListPayables(w http.ResponseWriter, r *http.Request) {
	id, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	payables, err := h.settlement.ListPayablesByVendor(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]payableDTO, len(payables))
	for i := range payables {
		dtos[i] = toPayableDTO(&payables[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type vendorPaymentRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

func (r vendorPaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid id"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	return errs
}

// PayBill spreads one outgoing payment across the vendor's open payables,
// oldest first. Payments beyond the total due are rejected.
func (h *VendorHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	vendorID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req vendorPaymentRequest
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
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "invalid date"}})
		return
	}

	accountID, _ := uuid.Parse(req.AccountID)
	result, err := h.settlement.PayVendorBill(r.Context(), settlement.VendorPaymentRequest{
		VendorID:  vendorID,
		AccountID: accountID,
		Amount:    amount,
		Date:      date,
		Note:      req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to pay vendor bill", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"applied":         result.Applied.String(),
		"total_due_after": result.TotalDueAfter.String(),
	})
}
