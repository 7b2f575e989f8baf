package render

import (
	"bytes"
	"fmt"
	"io"
	"manifest-service/internal/services"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const dateLayout = "02 Jan 2006"

// InvoicePDF writes a one-page A4 invoice for doc to w.
func InvoicePDF(w io.Writer, doc *services.InvoiceDocument) error {
	inv, trip, tariff := doc.Invoice, doc.Trip, doc.Tariff
	sym := tariff.CurrencySymbol

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Tax Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	header := [][2]string{
		{"Invoice No", inv.InvoiceNumber},
		{"Invoice Date", inv.InvoiceDate.Format(dateLayout)},
		{"Status", string(inv.Status)},
		{"Trip No", trip.TripNumber},
		{"Trip Date", trip.TripDate.Format(dateLayout)},
		{"Truck Type", trip.TruckType},
	}
	if trip.CustomerID != "" {
		header = append(header, [2]string{"Customer", trip.CustomerID})
	}
	if trip.PickupAddress != "" {
		header = append(header, [2]string{"Pickup", trip.PickupAddress})
	}
	if trip.DropAddress != "" {
		header = append(header, [2]string{"Drop", trip.DropAddress})
	}
	for _, h := range header {
		pdf.CellFormat(35, 7, h[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(h[1]), "", 1, "L", false, 0, "")
	}

	qr, err := qrcode.Encode(
		fmt.Sprintf("%s|%s|%s", inv.InvoiceNumber, trip.TripNumber, inv.GrandTotal().StringFixed(2)),
		qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("render invoice %s: qr code: %w", inv.InvoiceNumber, err)
	}
	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 160, 15, 35, 35, false, imageOpts, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(110, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Tax", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, l := range inv.Lines {
		pdf.CellFormat(110, 8, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, tr(sym+l.Amount.StringFixed(2)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, tr(sym+l.TaxAmount.StringFixed(2)), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	totals := [][2]string{
		{"Subtotal", inv.TotalAmount.StringFixed(2)},
		{fmt.Sprintf("Tax (%s%%)", tariff.TaxRate.Shift(2).String()), inv.TotalTax.StringFixed(2)},
		{"Total", inv.GrandTotal().StringFixed(2)},
	}
	for _, t := range totals {
		pdf.CellFormat(145, 8, t[0], "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, tr(sym+t[1]), "1", 1, "R", false, 0, "")
	}

	if trip.PODURL != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.Cell(0, 6, tr("Proof of delivery: "+trip.PODURL))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return nil
}
