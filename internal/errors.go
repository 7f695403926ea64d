package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidRating    ErrorCode = "INVALID_RATING"
	ErrCodeAmountTooLow     ErrorCode = "AMOUNT_TOO_LOW"

	ErrCodeOrderNotFound      ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_ORDER_TRANSITION"
	ErrCodeStatusConflict     ErrorCode = "ORDER_STATUS_CONFLICT"

	ErrCodePaymentNotFound      ErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodePaymentFailed        ErrorCode = "PAYMENT_FAILED"
	ErrCodePaymentNotPending    ErrorCode = "PAYMENT_NOT_PENDING"
	ErrCodeDuplicatePayment     ErrorCode = "DUPLICATE_PAYMENT"
	ErrCodeInvalidReference     ErrorCode = "INVALID_PAYMENT_REFERENCE"
	ErrCodeConfirmationTimeout  ErrorCode = "PAYMENT_CONFIRMATION_TIMEOUT"
	ErrCodeOrderUpdateStale     ErrorCode = "PAYMENT_RECORDED_ORDER_STALE"
	ErrCodeGatewayConfig        ErrorCode = "GATEWAY_CONFIG_ERROR"
	ErrCodeGatewayUnavailable   ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrCodeInvalidSignature     ErrorCode = "INVALID_WEBHOOK_SIGNATURE"
	ErrCodeWithdrawalNotFound   ErrorCode = "WITHDRAWAL_NOT_FOUND"
	ErrCodeInsufficientBalance  ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeWithdrawalProcessed  ErrorCode = "WITHDRAWAL_ALREADY_PROCESSED"
	ErrCodeTooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	ErrCodeDisputeNotResolvable ErrorCode = "DISPUTE_NOT_RESOLVABLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       ErrCodeTooManyRequests,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

var (
	ErrOrderNotFound      = NewNotFoundError("Order not found", ErrCodeOrderNotFound)
	ErrPaymentNotFound    = NewNotFoundError("Payment not found", ErrCodePaymentNotFound)
	ErrWithdrawalNotFound = NewNotFoundError("Withdrawal not found", ErrCodeWithdrawalNotFound)
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access to order", ErrCodeUnauthorizedAccess)
	ErrInvalidTransition  = NewValidationError("order status does not allow this operation", ErrCodeInvalidTransition)
	ErrStatusConflict     = NewConflictError("order was updated concurrently, re-check its status", ErrCodeStatusConflict)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)

	// ErrOrderUpdateStale is the severe case: the gateway charged the payer and the
	// payment row exists, but the order status write failed afterwards.
	ErrOrderUpdateStale = &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeOrderUpdateStale,
		Message:    "payment recorded but order update failed, contact support",
		StatusCode: http.StatusInternalServerError,
	}
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
