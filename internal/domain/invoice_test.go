package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInvoiceRecomputeTotals(t *testing.T) {
	inv := &Invoice{Lines: []InvoiceLine{
		{Description: "Transport Charges", Amount: decimal.NewFromInt(80), TaxAmount: decimal.RequireFromString("7.2")},
		{Description: "Pallet Surcharge", Amount: decimal.NewFromInt(60), TaxAmount: decimal.RequireFromString("5.4")},
	}}
	inv.RecomputeTotals()

	if !inv.TotalAmount.Equal(decimal.NewFromInt(140)) {
		t.Errorf("TotalAmount = %s, want 140", inv.TotalAmount)
	}
	if !inv.TotalTax.Equal(decimal.RequireFromString("12.6")) {
		t.Errorf("TotalTax = %s, want 12.6", inv.TotalTax)
	}
	if !inv.GrandTotal().Equal(decimal.RequireFromString("152.6")) {
		t.Errorf("GrandTotal = %s, want 152.6", inv.GrandTotal())
	}
}

func TestInvoiceStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{InvoiceDraft, InvoiceApproved, true},
		{InvoiceDraft, InvoiceAccrued, true},
		{InvoiceDraft, InvoiceVoid, true},
		{InvoiceDraft, InvoiceInvoiced, false},
		{InvoiceApproved, InvoiceInvoiced, true},
		{InvoiceApproved, InvoiceCancelled, true},
		{InvoiceAccrued, InvoiceInvoiced, true},
		{InvoiceAccrued, InvoiceVoid, false},
		{InvoiceInvoiced, InvoicePaymentReceived, true},
		{InvoiceInvoiced, InvoiceVoid, false},
		{InvoicePaymentReceived, InvoiceDraft, false},
		{InvoiceVoid, InvoiceDraft, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestInvoiceAdvanceRejectsJump(t *testing.T) {
	inv := &Invoice{Status: InvoiceDraft}
	err := inv.Advance(InvoicePaymentReceived, time.Now())
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("err = %v, want ErrTransitionNotAllowed", err)
	}
	if inv.Status != InvoiceDraft {
		t.Fatalf("status = %q, want Draft", inv.Status)
	}
}
