package services

import (
	"manifest-service/internal/config"
	"manifest-service/internal/domain"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewInvoiceLineRounding(t *testing.T) {
	l := NewInvoiceLine("x", decimal.RequireFromString("15.55"), decimal.RequireFromString("0.09"))
	if !l.TaxAmount.Equal(decimal.RequireFromString("1.40")) {
		t.Fatalf("tax = %s, want 1.40", l.TaxAmount)
	}
}

func TestBuildInvoiceLinesIsDeterministic(t *testing.T) {
	n := 3
	trip := &domain.Trip{
		TruckType:   "10FT",
		Packages:    []domain.Package{{PackageType: domain.PackageTypePallets, Quantity: 1, PalletCount: &n}},
		RequiresPOD: true,
	}
	tariff := config.DefaultTariff()

	a := BuildInvoiceLines(trip, tariff)
	b := BuildInvoiceLines(trip, tariff)
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("len = %d/%d, want 3", len(a), len(b))
	}
	for i := range a {
		if a[i].Description != b[i].Description || !a[i].Amount.Equal(b[i].Amount) || !a[i].TaxAmount.Equal(b[i].TaxAmount) {
			t.Fatalf("line %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if a[1].Description != "Pallet Surcharge (3 × $15)" {
		t.Fatalf("pallet line = %q", a[1].Description)
	}
}
