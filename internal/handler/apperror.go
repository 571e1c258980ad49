package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount  = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive value with at most two decimal places"}
	ErrInvalidSegment = &AppError{http.StatusBadRequest, "INVALID_SEGMENT", "Segment must be travel or isp"}
	ErrInvalidStatus  = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Invalid status value"}
	ErrVendorRequired = &AppError{http.StatusBadRequest, "VENDOR_REQUIRED", "A vendor is required when cost is set"}

	ErrAlreadyPaid         = &AppError{http.StatusConflict, "ALREADY_PAID", "Already fully paid"}
	ErrAmountBelowPaid     = &AppError{http.StatusConflict, "AMOUNT_BELOW_PAID", "Amount cannot drop below what was already paid"}
	ErrLinkedTransaction   = &AppError{http.StatusConflict, "LINKED_TRANSACTION", "Transaction belongs to a document and cannot be deleted directly"}
	ErrSalaryExists        = &AppError{http.StatusConflict, "SALARY_EXISTS", "Salary already generated for this period"}
	ErrVersionConflict     = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrExceedsRemainingDue = &AppError{http.StatusUnprocessableEntity, "EXCEEDS_REMAINING_DUE", "Payment exceeds the remaining due"}
	ErrExceedsTotalDue     = &AppError{http.StatusUnprocessableEntity, "EXCEEDS_TOTAL_DUE", "Payment exceeds the total due"}
	ErrNoDueEntries        = &AppError{http.StatusUnprocessableEntity, "NO_DUE_ENTRIES", "No open entries to pay against"}
	ErrInsufficientFunds   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Account balance cannot cover this payment"}
	ErrCancelledService    = &AppError{http.StatusUnprocessableEntity, "CANCELLED_SERVICE", "A cancelled service cannot be delivered"}
	ErrSelfTransfer        = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
)
