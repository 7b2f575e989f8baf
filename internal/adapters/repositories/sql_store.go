package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/db"
	"manifest-service/internal/platform/obs"
	"manifest-service/internal/ports"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQL-backed implementation of the Store port, for Postgres (pgx) and SQLite.
type SQLStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLStore(conn *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{DB: conn, Dialect: dialect}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if s.DB == nil {
		return errors.New("sql store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sql store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &sqlTx{tx: tx, dialect: s.Dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sql store: commit tx: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx      *sql.Tx
	dialect db.Dialect
}

// rebind rewrites ? placeholders to $n for Postgres.
func rebind(dialect db.Dialect, query string) string {
	if dialect != db.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (t *sqlTx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, rebind(t.dialect, query), args...)
}

func (t *sqlTx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, rebind(t.dialect, query), args...)
}

func (t *sqlTx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, rebind(t.dialect, query), args...)
}

// LockKeys takes transaction-scoped advisory locks on Postgres. SQLite runs
// on a single connection, so its transactions are already serialized.
func (t *sqlTx) LockKeys(ctx context.Context, keys ...string) error {
	if t.dialect != db.Postgres {
		return nil
	}
	for _, k := range keys {
		if _, err := t.exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended(?, 0))`, k); err != nil {
			return fmt.Errorf("advisory lock %q: %w", k, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

// ---- trips ----

const tripColumns = `
	id, trip_number, trip_date, status, vehicle_id, driver_id,
	start_time, end_time, time_window_from, time_window_to,
	truck_type, number_of_trips, packages,
	customer_id, pickup_address, drop_address, helper_name,
	requires_pod, pod_url, remarks, created_at, updated_at`

type packageRow struct {
	PackageType string   `json:"packageType"`
	Quantity    int      `json:"quantity"`
	Volume      *float64 `json:"volume,omitempty"`
	PalletCount *int     `json:"palletCount,omitempty"`
}

func encodePackages(pkgs []domain.Package) (string, error) {
	rows := make([]packageRow, len(pkgs))
	for i, p := range pkgs {
		rows[i] = packageRow(p)
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode packages: %w", err)
	}
	return string(b), nil
}

func decodePackages(raw string) ([]domain.Package, error) {
	var rows []packageRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode packages: %w", err)
	}
	pkgs := make([]domain.Package, len(rows))
	for i, r := range rows {
		pkgs[i] = domain.Package(r)
	}
	return pkgs, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var (
		trip                           domain.Trip
		status, packages               string
		start, end, winFrom, winTo     sql.NullTime
		tripDate, createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&trip.ID, &trip.TripNumber, &tripDate, &status, &trip.VehicleID, &trip.DriverID,
		&start, &end, &winFrom, &winTo,
		&trip.TruckType, &trip.NumberOfTrips, &packages,
		&trip.CustomerID, &trip.PickupAddress, &trip.DropAddress, &trip.HelperName,
		&trip.RequiresPOD, &trip.PODURL, &trip.Remarks, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	pkgs, err := decodePackages(packages)
	if err != nil {
		return nil, fmt.Errorf("trip %q: %w", trip.ID, err)
	}

	trip.Status = domain.TripStatus(status)
	trip.TripDate = tripDate.UTC()
	trip.StartTime = timePtr(start)
	trip.EndTime = timePtr(end)
	trip.TimeWindowFrom = timePtr(winFrom)
	trip.TimeWindowTo = timePtr(winTo)
	trip.Packages = pkgs
	trip.CreatedAt = createdAt.UTC()
	trip.UpdatedAt = updatedAt.UTC()
	return &trip, nil
}

func (t *sqlTx) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	row := t.queryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	trip, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip %q: %w", id, err)
	}
	return trip, nil
}

func (t *sqlTx) ListTrips(ctx context.Context, f ports.TripFilter) (trips []*domain.Trip, err error) {
	defer obs.Time(ctx, "repo.ListTrips")(&err)

	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.TripDate != nil {
		y, m, d := f.TripDate.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		where = append(where, "trip_date >= ? AND trip_date < ?")
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	if f.VehicleID != "" {
		where = append(where, "vehicle_id = ?")
		args = append(args, f.VehicleID)
	}
	if f.DriverID != "" {
		where = append(where, "driver_id = ?")
		args = append(args, f.DriverID)
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY trip_date, trip_number"

	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: query trips table: %w", err)
	}
	defer rows.Close()

	trips = make([]*domain.Trip, 0, 16)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}
	return trips, nil
}

func tripArgs(trip *domain.Trip) ([]any, error) {
	pkgs, err := encodePackages(trip.Packages)
	if err != nil {
		return nil, err
	}
	return []any{
		trip.TripNumber, trip.TripDate.UTC(), string(trip.Status), trip.VehicleID, trip.DriverID,
		nullTime(trip.StartTime), nullTime(trip.EndTime), nullTime(trip.TimeWindowFrom), nullTime(trip.TimeWindowTo),
		trip.TruckType, trip.NumberOfTrips, pkgs,
		trip.CustomerID, trip.PickupAddress, trip.DropAddress, trip.HelperName,
		trip.RequiresPOD, trip.PODURL, trip.Remarks, trip.CreatedAt.UTC(), trip.UpdatedAt.UTC(),
	}, nil
}

func (t *sqlTx) InsertTrip(ctx context.Context, trip *domain.Trip) error {
	args, err := tripArgs(trip)
	if err != nil {
		return fmt.Errorf("insert trip %q: %w", trip.ID, err)
	}
	query := `INSERT INTO trips (` + tripColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := t.exec(ctx, query, append([]any{trip.ID}, args...)...); err != nil {
		return fmt.Errorf("insert trip %q: %w", trip.ID, err)
	}
	return nil
}

func (t *sqlTx) UpdateTrip(ctx context.Context, trip *domain.Trip) error {
	args, err := tripArgs(trip)
	if err != nil {
		return fmt.Errorf("update trip %q: %w", trip.ID, err)
	}
	query := `
	UPDATE trips SET
		trip_number = ?, trip_date = ?, status = ?, vehicle_id = ?, driver_id = ?,
		start_time = ?, end_time = ?, time_window_from = ?, time_window_to = ?,
		truck_type = ?, number_of_trips = ?, packages = ?,
		customer_id = ?, pickup_address = ?, drop_address = ?, helper_name = ?,
		requires_pod = ?, pod_url = ?, remarks = ?, created_at = ?, updated_at = ?
	WHERE id = ?`
	res, err := t.exec(ctx, query, append(args, trip.ID)...)
	if err != nil {
		return fmt.Errorf("update trip %q: %w", trip.ID, err)
	}
	return requireRow(res, "trip", trip.ID)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %q: rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// ---- bookings and sequences ----

func (t *sqlTx) ListBookings(ctx context.Context, kind domain.ResourceKind, resourceID string) (out []domain.Booking, err error) {
	defer obs.Time(ctx, "repo.ListBookings")(&err)

	var column string
	switch kind {
	case domain.ResourceVehicle:
		column = "vehicle_id"
	case domain.ResourceDriver:
		column = "driver_id"
	default:
		return nil, fmt.Errorf("list bookings: unknown resource kind %q", kind)
	}

	rows, err := t.query(ctx, `
	SELECT id, status, start_time, end_time
	FROM trips
	WHERE `+column+` = ? AND start_time IS NOT NULL AND end_time IS NOT NULL`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: query trips table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, status string
			start, end time.Time
		)
		if err := rows.Scan(&id, &status, &start, &end); err != nil {
			return nil, fmt.Errorf("list bookings: scan row: %w", err)
		}
		out = append(out, domain.Booking{
			TripID:     id,
			TripStatus: domain.TripStatus(status),
			Window:     domain.Interval{Start: start.UTC(), End: end.UTC()},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: row iteration: %w", err)
	}
	return out, nil
}

func (t *sqlTx) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	var n int
	err := t.queryRow(ctx, `
	INSERT INTO sequences (scope, day, last_value)
	VALUES (?, ?, 1)
	ON CONFLICT (scope, day) DO UPDATE SET last_value = sequences.last_value + 1
	RETURNING last_value`, scope, day.Format("2006-01-02")).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s/%s: %w", scope, day.Format("2006-01-02"), err)
	}
	return n, nil
}

// ---- stops ----

func (t *sqlTx) GetStop(ctx context.Context, id string) (*domain.TripStop, error) {
	var (
		st     domain.TripStop
		status string
	)
	err := t.queryRow(ctx, `
	SELECT id, trip_id, job_id, sequence_order, status
	FROM trip_stops WHERE id = ?`, id).Scan(&st.ID, &st.TripID, &st.JobID, &st.SequenceOrder, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stop %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stop %q: %w", id, err)
	}
	st.Status = domain.StopStatus(status)
	return &st, nil
}

func (t *sqlTx) ListStops(ctx context.Context, tripID string) ([]domain.TripStop, error) {
	rows, err := t.query(ctx, `
	SELECT id, trip_id, job_id, sequence_order, status
	FROM trip_stops
	WHERE trip_id = ?
	ORDER BY sequence_order`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list stops: query trip_stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.TripStop, 0, 8)
	for rows.Next() {
		var (
			st     domain.TripStop
			status string
		)
		if err := rows.Scan(&st.ID, &st.TripID, &st.JobID, &st.SequenceOrder, &status); err != nil {
			return nil, fmt.Errorf("list stops: scan row: %w", err)
		}
		st.Status = domain.StopStatus(status)
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}
	return stops, nil
}

func (t *sqlTx) ReplaceStops(ctx context.Context, tripID string, stops []domain.TripStop) error {
	if err := checkSequence(stops); err != nil {
		return err
	}
	if _, err := t.exec(ctx, `DELETE FROM trip_stops WHERE trip_id = ?`, tripID); err != nil {
		return fmt.Errorf("replace stops for trip %q: delete: %w", tripID, err)
	}
	for _, st := range stops {
		_, err := t.exec(ctx, `
		INSERT INTO trip_stops (id, trip_id, job_id, sequence_order, status)
		VALUES (?, ?, ?, ?, ?)`, st.ID, tripID, st.JobID, st.SequenceOrder, string(st.Status))
		if err != nil {
			return fmt.Errorf("replace stops for trip %q: insert stop %q: %w", tripID, st.ID, err)
		}
	}
	return nil
}

func (t *sqlTx) UpdateStop(ctx context.Context, stop *domain.TripStop) error {
	res, err := t.exec(ctx, `UPDATE trip_stops SET status = ? WHERE id = ?`, string(stop.Status), stop.ID)
	if err != nil {
		return fmt.Errorf("update stop %q: %w", stop.ID, err)
	}
	return requireRow(res, "stop", stop.ID)
}

func (t *sqlTx) ActiveTripForJob(ctx context.Context, jobID, excludeTripID string) (string, error) {
	var number string
	err := t.queryRow(ctx, `
	SELECT t.trip_number
	FROM trip_stops s
	JOIN trips t ON t.id = s.trip_id
	WHERE s.job_id = ? AND t.id <> ? AND t.status NOT IN (?, ?)
	ORDER BY t.trip_number
	LIMIT 1`, jobID, excludeTripID, string(domain.TripCompleted), string(domain.TripCancelled)).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("active trip for job %q: %w", jobID, err)
	}
	return number, nil
}

// ---- jobs ----

func (t *sqlTx) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	var (
		j      domain.Job
		status string
	)
	err := t.queryRow(ctx, `
	SELECT id, status, weight, volume, customer_ref, pickup_address, drop_address
	FROM jobs WHERE id = ?`, id).Scan(&j.ID, &status, &j.Weight, &j.Volume, &j.CustomerRef, &j.PickupAddress, &j.DropAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %q: %w", id, err)
	}
	j.Status = domain.JobStatus(status)
	return &j, nil
}

func (t *sqlTx) InsertJob(ctx context.Context, job *domain.Job) error {
	_, err := t.exec(ctx, `
	INSERT INTO jobs (id, status, weight, volume, customer_ref, pickup_address, drop_address)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Status), job.Weight, job.Volume, job.CustomerRef, job.PickupAddress, job.DropAddress)
	if err != nil {
		return fmt.Errorf("insert job %q: %w", job.ID, err)
	}
	return nil
}

func (t *sqlTx) UpdateJob(ctx context.Context, job *domain.Job) error {
	res, err := t.exec(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, string(job.Status), job.ID)
	if err != nil {
		return fmt.Errorf("update job %q: %w", job.ID, err)
	}
	return requireRow(res, "job", job.ID)
}

// ---- invoices ----

const invoiceColumns = `id, trip_id, invoice_number, invoice_date, total_amount, total_tax, status, created_at, updated_at`

func (t *sqlTx) loadInvoice(ctx context.Context, where string, arg string) (*domain.Invoice, error) {
	var (
		inv                               domain.Invoice
		status                            string
		invoiceDate, createdAt, updatedAt time.Time
	)
	err := t.queryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE `+where+` = ?`, arg).Scan(
		&inv.ID, &inv.TripID, &inv.InvoiceNumber, &invoiceDate,
		&inv.TotalAmount, &inv.TotalTax, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatus(status)
	inv.InvoiceDate = invoiceDate.UTC()
	inv.CreatedAt = createdAt.UTC()
	inv.UpdatedAt = updatedAt.UTC()

	rows, err := t.query(ctx, `
	SELECT description, amount, tax_amount
	FROM invoice_lines
	WHERE invoice_id = ?
	ORDER BY line_no`, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("query invoice_lines table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.InvoiceLine
		if err := rows.Scan(&l.Description, &l.Amount, &l.TaxAmount); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice line iteration: %w", err)
	}
	return &inv, nil
}

func (t *sqlTx) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := t.loadInvoice(ctx, "id", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %q: %w", id, err)
	}
	return inv, nil
}

func (t *sqlTx) GetInvoiceByTrip(ctx context.Context, tripID string) (*domain.Invoice, error) {
	inv, err := t.loadInvoice(ctx, "trip_id", tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice for trip %q: %w", tripID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice for trip %q: %w", tripID, err)
	}
	return inv, nil
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func (t *sqlTx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	_, err := t.exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TripID, inv.InvoiceNumber, inv.InvoiceDate.UTC(),
		money(inv.TotalAmount), money(inv.TotalTax), string(inv.Status),
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("trip %q: %w", inv.TripID, domain.ErrInvoiceExists)
	}
	if err != nil {
		return fmt.Errorf("insert invoice %q: %w", inv.ID, err)
	}
	return t.insertLines(ctx, inv)
}

func (t *sqlTx) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	res, err := t.exec(ctx, `
	UPDATE invoices SET
		invoice_date = ?, total_amount = ?, total_tax = ?, status = ?, updated_at = ?
	WHERE id = ?`,
		inv.InvoiceDate.UTC(), money(inv.TotalAmount), money(inv.TotalTax), string(inv.Status),
		inv.UpdatedAt.UTC(), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice %q: %w", inv.ID, err)
	}
	if err := requireRow(res, "invoice", inv.ID); err != nil {
		return err
	}

	if _, err := t.exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = ?`, inv.ID); err != nil {
		return fmt.Errorf("update invoice %q: delete lines: %w", inv.ID, err)
	}
	return t.insertLines(ctx, inv)
}

func (t *sqlTx) insertLines(ctx context.Context, inv *domain.Invoice) error {
	for i, l := range inv.Lines {
		_, err := t.exec(ctx, `
		INSERT INTO invoice_lines (invoice_id, line_no, description, amount, tax_amount)
		VALUES (?, ?, ?, ?, ?)`, inv.ID, i+1, l.Description, money(l.Amount), money(l.TaxAmount))
		if err != nil {
			return fmt.Errorf("invoice %q: insert line %d: %w", inv.ID, i+1, err)
		}
	}
	return nil
}
