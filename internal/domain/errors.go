package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	// State errors.
	ErrInvalidStatus        = errors.New("invalid status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrTripNotEditable      = errors.New("trip is no longer editable")
	ErrInvoiceExists        = errors.New("invoice already exists for trip")
	ErrInvoiceNotEditable   = errors.New("invoice is no longer editable")
	ErrTripNotBillable      = errors.New("trip is not completed")

	ErrResourceBusy = errors.New("resource is locked by another request")
)

// FieldError is one rule-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors is the ordered list of every problem found in a payload.
// A nil or empty list means the payload is valid.
type ValidationErrors []FieldError

func (v *ValidationErrors) Add(field, msg string) {
	*v = append(*v, FieldError{Field: field, Message: msg})
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the human-readable messages in order.
func (v ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Message)
	}
	return out
}

// AsValidation extracts a validation list from err, if it carries one.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
