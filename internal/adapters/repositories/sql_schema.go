package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/db"
	"os"
	"strings"
)

// Column types that differ between the two dialects.
var columnTypes = map[db.Dialect]*strings.Replacer{
	db.Postgres: strings.NewReplacer("{{money}}", "NUMERIC(14,2)", "{{ts}}", "TIMESTAMPTZ", "{{bool}}", "BOOLEAN"),
	db.SQLite:   strings.NewReplacer("{{money}}", "TEXT", "{{ts}}", "DATETIME", "{{bool}}", "BOOLEAN"),
}

var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		customer_ref TEXT NOT NULL DEFAULT '',
		pickup_address TEXT NOT NULL DEFAULT '',
		drop_address TEXT NOT NULL DEFAULT ''
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		trip_number TEXT NOT NULL UNIQUE,
		trip_date {{ts}} NOT NULL,
		status TEXT NOT NULL,
		vehicle_id TEXT NOT NULL DEFAULT '',
		driver_id TEXT NOT NULL DEFAULT '',
		start_time {{ts}},
		end_time {{ts}},
		time_window_from {{ts}},
		time_window_to {{ts}},
		truck_type TEXT NOT NULL,
		number_of_trips INTEGER NOT NULL DEFAULT 1,
		packages TEXT NOT NULL DEFAULT '[]',
		customer_id TEXT NOT NULL DEFAULT '',
		pickup_address TEXT NOT NULL DEFAULT '',
		drop_address TEXT NOT NULL DEFAULT '',
		helper_name TEXT NOT NULL DEFAULT '',
		requires_pod {{bool}} NOT NULL DEFAULT FALSE,
		pod_url TEXT NOT NULL DEFAULT '',
		remarks TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_trips_vehicle ON trips(vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_driver ON trips(driver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_date ON trips(trip_date, trip_number);`,
	`
	CREATE TABLE IF NOT EXISTS trip_stops (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		job_id TEXT NOT NULL REFERENCES jobs(id),
		sequence_order INTEGER NOT NULL,
		status TEXT NOT NULL,
		UNIQUE (trip_id, sequence_order)
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_trip_stops_job ON trip_stops(job_id);`,
	`
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL UNIQUE REFERENCES trips(id),
		invoice_number TEXT NOT NULL UNIQUE,
		invoice_date {{ts}} NOT NULL,
		total_amount {{money}} NOT NULL,
		total_tax {{money}} NOT NULL,
		status TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS invoice_lines (
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		description TEXT NOT NULL,
		amount {{money}} NOT NULL,
		tax_amount {{money}} NOT NULL,
		PRIMARY KEY (invoice_id, line_no)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS sequences (
		scope TEXT NOT NULL,
		day TEXT NOT NULL,
		last_value INTEGER NOT NULL,
		PRIMARY KEY (scope, day)
	);
	`,
}

// Initialize the database schema for the given dialect.
func InitSchema(conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}
	types, ok := columnTypes[dialect]
	if !ok {
		return fmt.Errorf("init schema: unknown dialect %q", dialect)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.Exec(types.Replace(stmt)); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type JobSeed struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Weight        float64 `json:"weight"`
	Volume        float64 `json:"volume"`
	CustomerRef   string  `json:"customer_ref"`
	PickupAddress string  `json:"pickup_address"`
	DropAddress   string  `json:"drop_address"`
}

// LoadJobSeeds reads and validates a JSON array of jobs.
func LoadJobSeeds(jsonPath string) ([]domain.Job, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed jobs: read %q: %w", jsonPath, err)
	}

	var data []JobSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed jobs: parse json: %w", err)
	}

	jobs := make([]domain.Job, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("seed jobs: item at index %d: id cannot be empty", i+1)
		}

		status := domain.JobReceived
		if item.Status != "" {
			status, err = domain.ParseJobStatus(item.Status)
			if err != nil {
				return nil, fmt.Errorf("seed jobs: item %q: %w", id, err)
			}
		}

		jobs = append(jobs, domain.Job{
			ID:            id,
			Status:        status,
			Weight:        item.Weight,
			Volume:        item.Volume,
			CustomerRef:   item.CustomerRef,
			PickupAddress: item.PickupAddress,
			DropAddress:   item.DropAddress,
		})
	}
	return jobs, nil
}

// Populate the jobs table from a JSON file. Existing jobs keep their status.
func SeedFromJSON(conn *sql.DB, dialect db.Dialect, jsonPath string) (int, error) {
	jobs, err := LoadJobSeeds(jsonPath)
	if err != nil {
		return 0, err
	}

	tx, err := conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("seed jobs: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := rebind(dialect, `
	INSERT INTO jobs (
		id,
		status,
		weight,
		volume,
		customer_ref,
		pickup_address,
		drop_address
	)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		weight = excluded.weight,
		volume = excluded.volume,
		customer_ref = excluded.customer_ref,
		pickup_address = excluded.pickup_address,
		drop_address = excluded.drop_address;
	`)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("seed jobs: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range jobs {
		if _, err := stmt.Exec(j.ID, string(j.Status), j.Weight, j.Volume, j.CustomerRef, j.PickupAddress, j.DropAddress); err != nil {
			return 0, fmt.Errorf("seed jobs: insert id=%s: %w", j.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed jobs: commit tx: %w", err)
	}

	return len(jobs), nil
}
