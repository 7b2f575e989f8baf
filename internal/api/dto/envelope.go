package dto

import "manifest-service/internal/domain"

// Envelope wraps every JSON response body.
type Envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}
