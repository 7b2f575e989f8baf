package render

import (
	"bytes"
	"manifest-service/internal/config"
	"manifest-service/internal/domain"
	"manifest-service/internal/services"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoicePDF(t *testing.T) {
	tariff := config.DefaultTariff()
	pallets := 4
	trip := &domain.Trip{
		ID:            "trip-1",
		TripNumber:    "TRP-20260302-0001",
		TripDate:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:        domain.TripCompleted,
		TruckType:     "14FT",
		Packages:      []domain.Package{{PackageType: domain.PackageTypePallets, Quantity: 1, PalletCount: &pallets}},
		CustomerID:    "CUST-9",
		PickupAddress: "1 Jurong Port Rd",
		DropAddress:   "80 Pasir Panjang Rd",
		PODURL:        "/pod/trip-1/a.pdf",
	}
	inv := &domain.Invoice{
		ID:            "inv-1",
		TripID:        trip.ID,
		InvoiceNumber: "INV-20260302-0001",
		InvoiceDate:   trip.TripDate,
		Lines:         services.BuildInvoiceLines(trip, tariff),
		Status:        domain.InvoiceDraft,
	}
	inv.RecomputeTotals()
	require.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(140)))

	var buf bytes.Buffer
	err := InvoicePDF(&buf, &services.InvoiceDocument{Invoice: inv, Trip: trip, Tariff: tariff})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output is not a PDF")
	assert.Greater(t, buf.Len(), 1000)
}
