package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Redirect      string `json:"redirect,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeAuthRequired         = "AUTH_REQUIRED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeLineNotFound         = "LINE_NOT_FOUND"
	ErrCodeLinePending          = "LINE_PENDING"
	ErrCodeNotConfirmed         = "NOT_CONFIRMED"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeIllegalTransition    = "ILLEGAL_TRANSITION"
	ErrCodePaymentUnavailable   = "PAYMENT_UNAVAILABLE"
	ErrCodeVerificationFailed   = "PAYMENT_VERIFICATION_FAILED"
	ErrCodeNotCancellable       = "NOT_CANCELLABLE"
	ErrCodeUpstream             = "UPSTREAM_ERROR"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeUndeliverablePincode = "UNDELIVERABLE_PINCODE"
	ErrCodeSoldOut              = "SOLD_OUT"
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any domain error carrying the same code, so a validation error with a
// specific message still satisfies errors.Is(err, ErrValidation).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a user-facing message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// Common domain errors
var (
	ErrValidation           = NewDomainError(ErrCodeValidation, "Validation failed")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrAuthRequired         = NewDomainError(ErrCodeAuthRequired, "Please login to continue")
	ErrForbidden            = NewDomainError(ErrCodeForbidden, "Admin access required")
	ErrNotFound             = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrLineNotFound         = NewDomainError(ErrCodeLineNotFound, "Cart item not found")
	ErrLinePending          = NewDomainError(ErrCodeLinePending, "An update for this item is still in progress")
	ErrNotConfirmed         = NewDomainError(ErrCodeNotConfirmed, "Action was not confirmed")
	ErrEmptyCart            = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrIllegalTransition    = NewDomainError(ErrCodeIllegalTransition, "This checkout step is not available right now")
	ErrPaymentUnavailable   = NewDomainError(ErrCodePaymentUnavailable, "UPI payment will be implemented soon!")
	ErrVerificationFailed   = NewDomainError(ErrCodeVerificationFailed, "Payment verification failed")
	ErrNotCancellable       = NewDomainError(ErrCodeNotCancellable, "This order can no longer be cancelled")
	ErrUndeliverablePincode = NewDomainError(ErrCodeUndeliverablePincode, "We do not deliver to this pincode yet")
	ErrSoldOut              = NewDomainError(ErrCodeSoldOut, "This product is sold out!")
	ErrSessionNotFound      = NewDomainError(ErrCodeSessionNotFound, "Your session has expired, please login again")
)
