package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// ErrorKind groups domain errors by how a caller should react to them.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindInternal          ErrorKind = "internal"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeNoItems                 = "NO_ITEMS"
	ErrCodeInvalidItem             = "INVALID_ITEM"
	ErrCodeInvalidCode             = "INVALID_PICKUP_CODE"
	ErrCodeInvalidOrderID          = "INVALID_ORDER_ID"
	ErrCodeNoFieldsToUpdate        = "NO_FIELDS_TO_UPDATE"
	ErrCodeInvalidStatus           = "INVALID_STATUS"
	ErrCodeInvalidPaymentMethod    = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidPaymentStatus    = "INVALID_PAYMENT_STATUS"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodePickupCodeTaken         = "PICKUP_CODE_TAKEN"
	ErrCodeInsufficientStock       = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition       = "INVALID_TRANSITION"
	ErrCodeCodeGenerationExhausted = "CODE_GENERATION_EXHAUSTED"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure raised by the order engine.
// Two DomainErrors match under errors.Is when their codes are equal, so a
// copy carrying extra detail still matches its sentinel.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the error code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithCause returns a copy of e wrapping err.
func (e *DomainError) WithCause(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// KindOf returns the kind of the first DomainError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common domain errors
var (
	ErrNoItems              = NewDomainError(KindValidation, ErrCodeNoItems, "order must contain at least one item")
	ErrInvalidItem          = NewDomainError(KindValidation, ErrCodeInvalidItem, "invalid item in order")
	ErrInvalidCode          = NewDomainError(KindValidation, ErrCodeInvalidCode, "pickup code must be exactly 4 digits")
	ErrNoFieldsToUpdate     = NewDomainError(KindValidation, ErrCodeNoFieldsToUpdate, "no valid fields to update")
	ErrInvalidStatus        = NewDomainError(KindValidation, ErrCodeInvalidStatus, "unknown order status")
	ErrInvalidPaymentMethod = NewDomainError(KindValidation, ErrCodeInvalidPaymentMethod, "unknown payment method")
	ErrInvalidPaymentStatus = NewDomainError(KindValidation, ErrCodeInvalidPaymentStatus, "unknown payment status")

	ErrOrderNotFound   = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "order not found")
	ErrProductNotFound = NewDomainError(KindNotFound, ErrCodeProductNotFound, "product not found")

	ErrPickupCodeTaken   = NewDomainError(KindConflict, ErrCodePickupCodeTaken, "pickup code already in use")
	ErrInsufficientStock = NewDomainError(KindInsufficientStock, ErrCodeInsufficientStock, "insufficient stock")
	ErrInvalidTransition = NewDomainError(KindInvalidTransition, ErrCodeInvalidTransition, "transition not allowed")

	ErrCodeGenerationExhausted = NewDomainError(KindInternal, ErrCodeCodeGenerationExhausted, "failed to generate a unique pickup code")
)
