package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/resilience"
)

// SnapshotRepository reads the fleet and compliance tables owned by the
// dashboard CRUD screens. It never writes document rows.
type SnapshotRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewSnapshotRepository(db *sql.DB, executor *resilience.Executor) *SnapshotRepository {
	return &SnapshotRepository{db: db, executor: executor}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2024031001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS vehicles (
	id TEXT PRIMARY KEY,
	plate_number TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS permits (
	id TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL,
	permit_type TEXT NOT NULL,
	holder_name TEXT NOT NULL DEFAULT '',
	start_date DATE,
	end_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT permits_end_date_required CHECK (permit_type = 'actual_user' OR end_date IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS insurances (
	id TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	policy_number TEXT NOT NULL DEFAULT '',
	start_date DATE,
	expiry_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS operating_cards (
	id TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL,
	card_number TEXT NOT NULL DEFAULT '',
	issue_date DATE,
	expiry_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS driver_cards (
	id TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL,
	driver_name TEXT NOT NULL DEFAULT '',
	card_number TEXT NOT NULL DEFAULT '',
	issue_date DATE,
	expiry_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_permits_end_date ON permits(end_date);
CREATE INDEX IF NOT EXISTS idx_insurances_expiry_date ON insurances(expiry_date);
CREATE INDEX IF NOT EXISTS idx_operating_cards_expiry_date ON operating_cards(expiry_date);
CREATE INDEX IF NOT EXISTS idx_driver_cards_expiry_date ON driver_cards(expiry_date);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// LoadSnapshot reads all five tables inside one read-only transaction so the
// collections agree with each other.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	snapshot, err := resilience.Call(ctx, r.executor, "postgres.load_snapshot", r.loadSnapshot, classifyPostgresError)
	if err != nil {
		return domain.Snapshot{}, wrapTemporaryIfNeeded("load snapshot", err)
	}
	return snapshot, nil
}

func (r *SnapshotRepository) loadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var s domain.Snapshot
	if s.Vehicles, err = queryAll(ctx, tx, "vehicles", selectVehicles, scanVehicle); err != nil {
		return domain.Snapshot{}, err
	}
	if s.Permits, err = queryAll(ctx, tx, "permits", selectPermits, scanPermit); err != nil {
		return domain.Snapshot{}, err
	}
	if s.Insurances, err = queryAll(ctx, tx, "insurances", selectInsurances, scanInsurance); err != nil {
		return domain.Snapshot{}, err
	}
	if s.OperatingCards, err = queryAll(ctx, tx, "operating cards", selectOperatingCards, scanOperatingCard); err != nil {
		return domain.Snapshot{}, err
	}
	if s.DriverCards, err = queryAll(ctx, tx, "driver cards", selectDriverCards, scanDriverCard); err != nil {
		return domain.Snapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("commit snapshot tx: %w", err)
	}
	return s, nil
}

const (
	selectVehicles = `
SELECT id, plate_number, model, year
FROM vehicles
ORDER BY created_at, id`

	selectPermits = `
SELECT id, vehicle_id, permit_type, holder_name,
	COALESCE(to_char(start_date, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(end_date, 'YYYY-MM-DD'), '')
FROM permits
ORDER BY created_at, id`

	selectInsurances = `
SELECT id, vehicle_id, company, policy_number,
	COALESCE(to_char(start_date, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(expiry_date, 'YYYY-MM-DD'), '')
FROM insurances
ORDER BY created_at, id`

	selectOperatingCards = `
SELECT id, vehicle_id, card_number,
	COALESCE(to_char(issue_date, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(expiry_date, 'YYYY-MM-DD'), '')
FROM operating_cards
ORDER BY created_at, id`

	selectDriverCards = `
SELECT id, vehicle_id, driver_name, card_number,
	COALESCE(to_char(issue_date, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(expiry_date, 'YYYY-MM-DD'), '')
FROM driver_cards
ORDER BY created_at, id`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func queryAll[T any](ctx context.Context, tx *sql.Tx, table, query string, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func scanVehicle(row rowScanner) (domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.PlateNumber, &v.Model, &v.Year)
	return v, err
}

func scanPermit(row rowScanner) (domain.Permit, error) {
	var p domain.Permit
	var permitType string
	err := row.Scan(&p.ID, &p.VehicleID, &permitType, &p.HolderName, &p.StartDate, &p.EndDate)
	p.PermitType = domain.PermitType(permitType)
	return p, err
}

func scanInsurance(row rowScanner) (domain.Insurance, error) {
	var i domain.Insurance
	err := row.Scan(&i.ID, &i.VehicleID, &i.Company, &i.PolicyNumber, &i.StartDate, &i.ExpiryDate)
	return i, err
}

func scanOperatingCard(row rowScanner) (domain.OperatingCard, error) {
	var c domain.OperatingCard
	err := row.Scan(&c.ID, &c.VehicleID, &c.CardNumber, &c.IssueDate, &c.ExpiryDate)
	return c, err
}

func scanDriverCard(row rowScanner) (domain.DriverCard, error) {
	var c domain.DriverCard
	err := row.Scan(&c.ID, &c.VehicleID, &c.DriverName, &c.CardNumber, &c.IssueDate, &c.ExpiryDate)
	return c, err
}
