package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft           InvoiceStatus = "Draft"
	InvoiceApproved        InvoiceStatus = "Approved"
	InvoiceAccrued         InvoiceStatus = "Accrued"
	InvoiceInvoiced        InvoiceStatus = "Invoiced"
	InvoicePaymentReceived InvoiceStatus = "PaymentReceived"
	InvoiceCancelled       InvoiceStatus = "Cancelled"
	InvoiceVoid            InvoiceStatus = "Void"
)

var invoiceStatuses = []InvoiceStatus{
	InvoiceDraft,
	InvoiceApproved,
	InvoiceAccrued,
	InvoiceInvoiced,
	InvoicePaymentReceived,
	InvoiceCancelled,
	InvoiceVoid,
}

func ParseInvoiceStatus(name string) (InvoiceStatus, error) {
	n := strings.TrimSpace(name)
	for _, s := range invoiceStatuses {
		if strings.EqualFold(n, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: invoice status %q", ErrInvalidStatus, name)
}

// CanTransitionTo reports whether an invoice may move from s to target.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceDraft:
		switch target {
		case InvoiceApproved, InvoiceAccrued, InvoiceCancelled, InvoiceVoid:
			return true
		}
		return false
	case InvoiceApproved:
		return target == InvoiceInvoiced || target == InvoiceCancelled || target == InvoiceVoid
	case InvoiceAccrued:
		return target == InvoiceInvoiced
	case InvoiceInvoiced:
		return target == InvoicePaymentReceived
	default:
		return false
	}
}

// Represents one billable charge on an invoice.
type InvoiceLine struct {
	Description string
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
}

// Invoice aggregate. At most one exists per trip; it is voided, never deleted.
type Invoice struct {
	ID            string
	TripID        string
	InvoiceNumber string
	InvoiceDate   time.Time
	Lines         []InvoiceLine
	TotalAmount   decimal.Decimal
	TotalTax      decimal.Decimal
	Status        InvoiceStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecomputeTotals sets the header totals from the lines.
func (inv *Invoice) RecomputeTotals() {
	amount := decimal.Zero
	tax := decimal.Zero
	for _, l := range inv.Lines {
		amount = amount.Add(l.Amount)
		tax = tax.Add(l.TaxAmount)
	}
	inv.TotalAmount = amount
	inv.TotalTax = tax
}

// GrandTotal is the amount payable including tax.
func (inv *Invoice) GrandTotal() decimal.Decimal {
	return inv.TotalAmount.Add(inv.TotalTax)
}

func (inv *Invoice) Advance(target InvoiceStatus, now time.Time) error {
	if !inv.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: invoice %s -> %s", ErrTransitionNotAllowed, inv.Status, target)
	}
	inv.Status = target
	inv.UpdatedAt = now
	return nil
}
