package dto

import (
	"manifest-service/internal/domain"
	"manifest-service/internal/services"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceLine struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	TaxAmount   string `json:"taxAmount"`
}

type InvoiceResponse struct {
	ID            string        `json:"id"`
	TripID        string        `json:"tripId"`
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceDate   string        `json:"invoiceDate"`
	Status        string        `json:"status"`
	Lines         []InvoiceLine `json:"lines"`
	TotalAmount   string        `json:"totalAmount"`
	TotalTax      string        `json:"totalTax"`
	GrandTotal    string        `json:"grandTotal"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func NewInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	lines := make([]InvoiceLine, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLine{
			Description: l.Description,
			Amount:      l.Amount.StringFixed(2),
			TaxAmount:   l.TaxAmount.StringFixed(2),
		}
	}
	return InvoiceResponse{
		ID:            inv.ID,
		TripID:        inv.TripID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate.Format(DateLayout),
		Status:        string(inv.Status),
		Lines:         lines,
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		TotalTax:      inv.TotalTax.StringFixed(2),
		GrandTotal:    inv.GrandTotal().StringFixed(2),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// InvoiceLineRequest accepts amounts as JSON numbers or strings.
// Header totals are not accepted; they are recomputed from the lines.
type InvoiceLineRequest struct {
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	TaxAmount   *decimal.Decimal `json:"taxAmount"`
}

type InvoiceUpdateRequest struct {
	InvoiceDate string               `json:"invoiceDate"`
	Lines       []InvoiceLineRequest `json:"lines"`
}

func (r InvoiceUpdateRequest) ToInput() (services.InvoiceInput, error) {
	var in services.InvoiceInput
	if r.InvoiceDate != "" {
		d, err := ParseDate("invoiceDate", r.InvoiceDate)
		if err != nil {
			return in, err
		}
		in.InvoiceDate = &d
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, services.LineInput{
			Description: l.Description,
			Amount:      l.Amount,
			TaxAmount:   l.TaxAmount,
		})
	}
	return in, nil
}
