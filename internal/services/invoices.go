package services

import (
	"context"
	"errors"
	"fmt"
	"manifest-service/internal/config"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/clock"
	"manifest-service/internal/platform/logger"
	"manifest-service/internal/platform/metrics"
	"manifest-service/internal/platform/obs"
	"manifest-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceService generates and maintains trip invoices.
type InvoiceService struct {
	uow     unitOfWork
	store   ports.Store
	clock   clock.Clock
	tariff  config.Tariff
	metrics *metrics.Metrics
}

func NewInvoiceService(
	store ports.Store,
	locker ports.Locker,
	clk clock.Clock,
	tariff config.Tariff,
	m *metrics.Metrics,
) *InvoiceService {
	if m == nil {
		m = metrics.Nop()
	}
	return &InvoiceService{
		uow:     unitOfWork{store: store, locker: locker},
		store:   store,
		clock:   clk,
		tariff:  tariff,
		metrics: m,
	}
}

// Generate creates the Draft invoice for a completed trip.
//
// It is idempotent: when the trip already has an invoice, that invoice is
// returned with created == false and nothing is written. The existence check
// and the insert share one transaction under the trip lock.
func (s *InvoiceService) Generate(ctx context.Context, tripID string) (_ *domain.Invoice, created bool, err error) {
	defer obs.Time(ctx, "invoices.Generate")(&err)

	var inv *domain.Invoice
	err = s.uow.run(ctx, []string{tripKey(tripID)}, func(ctx context.Context, tx ports.Tx) error {
		trip, err := tx.GetTrip(ctx, tripID)
		if err != nil {
			return err
		}

		existing, err := tx.GetInvoiceByTrip(ctx, trip.ID)
		switch {
		case err == nil:
			inv = existing
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("look up invoice: %w", err)
		}

		if trip.Status != domain.TripCompleted {
			return fmt.Errorf("%w: trip %s is %s", domain.ErrTripNotBillable, trip.TripNumber, trip.Status)
		}

		now := s.clock.Now()
		day := dateOnly(now)
		seq, err := tx.NextSequence(ctx, "invoice", day)
		if err != nil {
			return fmt.Errorf("allocate invoice number: %w", err)
		}

		inv = &domain.Invoice{
			ID:            uuid.NewString(),
			TripID:        trip.ID,
			InvoiceNumber: formatNumber("INV", day, seq),
			InvoiceDate:   day,
			Lines:         BuildInvoiceLines(trip, s.tariff),
			Status:        domain.InvoiceDraft,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		inv.RecomputeTotals()

		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("generate invoice for trip %q: %w", tripID, err)
	}

	if created {
		s.metrics.InvoicesGenerated.Inc()
		s.metrics.InvoiceAmount.Observe(inv.TotalAmount.InexactFloat64())

		l := logger.FromContext(ctx)
		l.Info().
			Str("invoice", inv.InvoiceNumber).
			Str("trip_id", tripID).
			Str("total", inv.TotalAmount.StringFixed(2)).
			Str("tax", inv.TotalTax.StringFixed(2)).
			Msg("invoice generated")
	}
	return inv, created, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.store.InTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		inv, err = tx.GetInvoice(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get invoice %q: %w", id, err)
	}
	return inv, nil
}

// LineInput is one caller-supplied invoice line. A nil TaxAmount takes the tariff rate.
type LineInput struct {
	Description string
	Amount      decimal.Decimal
	TaxAmount   *decimal.Decimal
}

// InvoiceInput is the full replacement payload for an invoice.
type InvoiceInput struct {
	InvoiceDate *time.Time
	Lines       []LineInput
}

// Update replaces every line of a Draft invoice and recomputes the header
// totals from the new lines; caller totals are never trusted.
func (s *InvoiceService) Update(ctx context.Context, id string, in InvoiceInput) (_ *domain.Invoice, err error) {
	defer obs.Time(ctx, "invoices.Update")(&err)

	var verrs domain.ValidationErrors
	if len(in.Lines) == 0 {
		verrs.Add("lines", "at least one line is required")
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.Description) == "" {
			verrs.Add(fmt.Sprintf("lines[%d].description", i), fmt.Sprintf("line %d: description is required", i+1))
		}
		if l.Amount.IsNegative() {
			verrs.Add(fmt.Sprintf("lines[%d].amount", i), fmt.Sprintf("line %d: amount must not be negative", i+1))
		}
		if l.TaxAmount != nil && l.TaxAmount.IsNegative() {
			verrs.Add(fmt.Sprintf("lines[%d].taxAmount", i), fmt.Sprintf("line %d: tax amount must not be negative", i+1))
		}
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	var inv *domain.Invoice
	err = s.uow.run(ctx, []string{"invoice:" + id}, func(ctx context.Context, tx ports.Tx) error {
		var err error
		inv, err = tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvoiceDraft {
			return fmt.Errorf("%w: invoice %s is %s", domain.ErrInvoiceNotEditable, inv.InvoiceNumber, inv.Status)
		}

		lines := make([]domain.InvoiceLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			line := NewInvoiceLine(strings.TrimSpace(l.Description), l.Amount, s.tariff.TaxRate)
			if l.TaxAmount != nil {
				line.TaxAmount = l.TaxAmount.Round(2)
			}
			lines = append(lines, line)
		}

		inv.Lines = lines
		if in.InvoiceDate != nil {
			inv.InvoiceDate = dateOnly(*in.InvoiceDate)
		}
		inv.RecomputeTotals()
		inv.UpdatedAt = s.clock.Now()

		return tx.UpdateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("update invoice %q: %w", id, err)
	}
	return inv, nil
}

// AdvanceStatus moves an invoice along its billing workflow.
func (s *InvoiceService) AdvanceStatus(ctx context.Context, id, statusName string) (_ *domain.Invoice, err error) {
	defer obs.Time(ctx, "invoices.AdvanceStatus")(&err)

	target, err := domain.ParseInvoiceStatus(statusName)
	if err != nil {
		return nil, err
	}

	var inv *domain.Invoice
	err = s.uow.run(ctx, []string{"invoice:" + id}, func(ctx context.Context, tx ports.Tx) error {
		var err error
		inv, err = tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := inv.Advance(target, s.clock.Now()); err != nil {
			return err
		}
		return tx.UpdateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("advance invoice %q to %s: %w", id, target, err)
	}
	return inv, nil
}

// InvoiceDocument is everything needed to print an invoice.
type InvoiceDocument struct {
	Invoice *domain.Invoice
	Trip    *domain.Trip
	Tariff  config.Tariff
}

func (s *InvoiceService) Document(ctx context.Context, id string) (*InvoiceDocument, error) {
	doc := &InvoiceDocument{Tariff: s.tariff}
	err := s.store.InTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		trip, err := tx.GetTrip(ctx, inv.TripID)
		if err != nil {
			return err
		}
		doc.Invoice, doc.Trip = inv, trip
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("invoice document %q: %w", id, err)
	}
	return doc, nil
}
