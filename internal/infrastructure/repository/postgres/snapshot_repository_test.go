package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/resilience"
)

func newRepoWithMock(t *testing.T, executor *resilience.Executor) (*SnapshotRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewSnapshotRepository(db, executor), mock, func() { _ = db.Close() }
}

func expectSnapshotQueries(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM vehicles").WillReturnRows(
		sqlmock.NewRows([]string{"id", "plate_number", "model", "year"}).
			AddRow("v1", "ABC-1234", "Toyota Hilux", 2019).
			AddRow("v2", "XYZ-9876", "Isuzu NPR", 2021),
	)
	mock.ExpectQuery("FROM permits").WillReturnRows(
		sqlmock.NewRows([]string{"id", "vehicle_id", "permit_type", "holder_name", "start_date", "end_date"}).
			AddRow("p1", "v1", "delegation", "Salem", "2023-01-01", "2024-03-09").
			AddRow("p2", "v2", "actual_user", "Fahad", "2020-05-01", ""),
	)
	mock.ExpectQuery("FROM insurances").WillReturnRows(
		sqlmock.NewRows([]string{"id", "vehicle_id", "company", "policy_number", "start_date", "expiry_date"}).
			AddRow("i1", "v2", "Tawuniya", "POL-77", "2023-03-25", "2024-03-25"),
	)
	mock.ExpectQuery("FROM operating_cards").WillReturnRows(
		sqlmock.NewRows([]string{"id", "vehicle_id", "card_number", "issue_date", "expiry_date"}),
	)
	mock.ExpectQuery("FROM driver_cards").WillReturnRows(
		sqlmock.NewRows([]string{"id", "vehicle_id", "driver_name", "card_number", "issue_date", "expiry_date"}).
			AddRow("d1", "v1", "Omar", "DC-1", "2022-01-01", "2025-01-01"),
	)
}

func TestLoadSnapshotReadsAllCollectionsInOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectBegin()
	expectSnapshotQueries(mock)
	mock.ExpectCommit()

	s, err := repo.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(s.Vehicles) != 2 || s.Vehicles[1].PlateNumber != "XYZ-9876" || s.Vehicles[0].Year != 2019 {
		t.Fatalf("unexpected vehicles %+v", s.Vehicles)
	}
	if len(s.Permits) != 2 || s.Permits[0].ID != "p1" || s.Permits[1].PermitType != domain.PermitActualUser {
		t.Fatalf("unexpected permits %+v", s.Permits)
	}
	if s.Permits[1].EndDate != "" {
		t.Fatalf("actual user permit must have no end date, got %q", s.Permits[1].EndDate)
	}
	if len(s.Insurances) != 1 || s.Insurances[0].ExpiryDate != "2024-03-25" {
		t.Fatalf("unexpected insurances %+v", s.Insurances)
	}
	if s.OperatingCards == nil || len(s.OperatingCards) != 0 {
		t.Fatalf("expected empty operating cards, got %+v", s.OperatingCards)
	}
	if len(s.DriverCards) != 1 || s.DriverCards[0].DriverName != "Omar" {
		t.Fatalf("unexpected driver cards %+v", s.DriverCards)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadSnapshotRetriesConnectionFailure(t *testing.T) {
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	})
	repo, mock, done := newRepoWithMock(t, executor)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM vehicles").WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	expectSnapshotQueries(mock)
	mock.ExpectCommit()

	s, err := repo.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(s.Vehicles) != 2 {
		t.Fatalf("expected snapshot from second attempt, got %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadSnapshotMarksExhaustedConnectionFailureTemporary(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM vehicles").WillReturnError(&pgconn.PgError{Code: "57P01", Message: "terminating connection"})
	mock.ExpectRollback()

	_, err := repo.LoadSnapshot(context.Background())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestLoadSnapshotDoesNotRetrySchemaError(t *testing.T) {
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})
	repo, mock, done := newRepoWithMock(t, executor)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM vehicles").WillReturnRows(sqlmock.NewRows([]string{"id", "plate_number", "model", "year"}))
	mock.ExpectQuery("FROM permits").WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "permits" does not exist`})
	mock.ExpectRollback()

	_, err := repo.LoadSnapshot(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("schema errors must not be temporary, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(2024031001)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vehicles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
