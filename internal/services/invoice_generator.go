package services

import (
	"fmt"
	"manifest-service/internal/config"
	"manifest-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Line descriptions written on generated invoices.
const (
	LineTransport = "Transport Charges"
	LineHelper    = "Helper Service"
	LinePOD       = "POD Handling Fee"
)

// BuildInvoiceLines derives the billable lines of a trip. The result depends
// only on the trip and the tariff, so regenerating gives identical lines.
func BuildInvoiceLines(trip *domain.Trip, tariff config.Tariff) []domain.InvoiceLine {
	base := tariff.StandardTruckRate
	if trip.TruckType == tariff.LargeTruckType {
		base = tariff.LargeTruckRate
	}

	lines := []domain.InvoiceLine{NewInvoiceLine(LineTransport, base, tariff.TaxRate)}

	if n := domain.TotalPallets(trip.Packages); n > 0 {
		desc := fmt.Sprintf("Pallet Surcharge (%d × %s%s)", n, tariff.CurrencySymbol, tariff.PalletRate.String())
		amount := tariff.PalletRate.Mul(decimal.NewFromInt(int64(n)))
		lines = append(lines, NewInvoiceLine(desc, amount, tariff.TaxRate))
	}

	if trip.HelperName != "" {
		lines = append(lines, NewInvoiceLine(LineHelper, tariff.HelperFee, tariff.TaxRate))
	}

	if trip.RequiresPOD {
		lines = append(lines, NewInvoiceLine(LinePOD, tariff.PODFee, tariff.TaxRate))
	}

	return lines
}

// NewInvoiceLine computes the line tax as amount × rate rounded to cents.
func NewInvoiceLine(description string, amount, rate decimal.Decimal) domain.InvoiceLine {
	return domain.InvoiceLine{
		Description: description,
		Amount:      amount.Round(2),
		TaxAmount:   amount.Mul(rate).Round(2),
	}
}
