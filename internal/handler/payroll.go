package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
	"github.com/safwanm/biztrack-backend/internal/service/payroll"
)

type payrollService interface {
	CreateEmployee(ctx context.Context, e *domain.Employee) error
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	GenerateMonthly(ctx context.Context, month, year int) (int, error)
	ListByPeriod(ctx context.Context, month, year int) ([]domain.Salary, error)
	PaySalary(ctx context.Context, req payroll.PaySalaryRequest) error
}

type PayrollHandler struct {
	payroll payrollService
}

func NewPayrollHandler(payroll payrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

type createEmployeeRequest struct {
	Name          string  `json:"name"`
	Phone         *string `json:"phone"`
	Segment       string  `json:"segment"`
	MonthlySalary string  `json:"monthly_salary"`
}

func (r createEmployeeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.Segment(r.Segment).IsValid() {
		errs = append(errs, FieldError{Field: "segment", Message: "must be travel or isp"})
	}
	if r.MonthlySalary == "" {
		errs = append(errs, FieldError{Field: "monthly_salary", Message: "required"})
	}
	return errs
}

type employeeDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Phone         *string   `json:"phone,omitempty"`
	Segment       string    `json:"segment"`
	MonthlySalary string    `json:"monthly_salary"`
	CreatedAt     time.Time `json:"created_at"`
}

func toEmployeeDTO(e *domain.Employee) employeeDTO {
	return employeeDTO{
		ID:            e.ID,
		Name:          e.Name,
		Phone:         e.Phone,
		Segment:       string(e.Segment),
		MonthlySalary: e.MonthlySalary.String(),
		CreatedAt:     e.CreatedAt,
	}
}

func (h *PayrollHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	salary, err := domain.ParseAmount(req.MonthlySalary)
	if err != nil || salary == 0 {
		RespondAppError(w, ErrInvalidAmount, nil)
		return
	}

	employee := &domain.Employee{
		ID:            uuid.New(),
		Name:          req.Name,
		Phone:         req.Phone,
		Segment:       domain.Segment(req.Segment),
		MonthlySalary: salary,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.payroll.CreateEmployee(r.Context(), employee); err != nil {
		logging.FromContext(r.Context()).Error("failed to create employee", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toEmployeeDTO(employee))
}

func (h *PayrollHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.payroll.ListEmployees(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]employeeDTO, len(employees))
	for i := range employees {
		dtos[i] = toEmployeeDTO(&employees[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type salaryDTO struct {
	ID         uuid.UUID  `json:"id"`
	EmployeeID uuid.UUID  `json:"employee_id"`
	Amount     string     `json:"amount"`
	Month      int        `json:"month"`
	Year       int        `json:"year"`
	Status     string     `json:"status"`
	PaidDate   *time.Time `json:"paid_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toSalaryDTO(s *domain.Salary) salaryDTO {
	return salaryDTO{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Amount:     s.Amount.String(),
		Month:      s.Month,
		Year:       s.Year,
		Status:     string(s.Status),
		PaidDate:   s.PaidDate,
		CreatedAt:  s.CreatedAt,
	}
}

type generateSalariesRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (h *PayrollHandler) GenerateSalaries(w http.ResponseWriter, r *http.Request) {
	var req generateSalariesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be 1-12"}})
		return
	}

	created, err := h.payroll.GenerateMonthly(r.Context(), req.Month, req.Year)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to generate salaries", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]int{"created": created})
}

func (h *PayrollHandler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	month, err1 := strconv.Atoi(r.URL.Query().Get("month"))
	year, err2 := strconv.Atoi(r.URL.Query().Get("year"))
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "month and year query params required"}})
		return
	}

	salaries, err := h.payroll.ListByPeriod(r.Context(), month, year)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]salaryDTO, len(salaries))
	for i := range salaries {
		dtos[i] = toSalaryDTO(&salaries[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type paySalaryRequest struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

func (h *PayrollHandler) PaySalary(w http.ResponseWriter, r *http.Request) {
	salaryID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req paySalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "account_id", Message: "must be a valid id"}})
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "invalid date"}})
		return
	}

	if err := h.payroll.PaySalary(r.Context(), payroll.PaySalaryRequest{
		SalaryID:  salaryID,
		AccountID: accountID,
		Date:      date,
		Note:      req.Note,
	}); err != nil {
		logging.FromContext(r.Context()).Error("failed to pay salary", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"paid": salaryID.String()})
}
