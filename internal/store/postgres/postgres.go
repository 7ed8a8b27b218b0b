// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/sablehq/eventq/internal/model"
	"github.com/sablehq/eventq/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event *model.Event) error {
	return queryCreateEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return queryGetEvent(ctx, s.db, id)
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]*model.Event, int, error) {
	return queryListEvents(ctx, s.db, filter)
}

func (s *PostgresStore) ClaimDue(ctx context.Context, limit int, stuckTimeout time.Duration) ([]*model.Event, error) {
	return queryClaimDue(ctx, s.db, limit, stuckTimeout)
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id string, result json.RawMessage) (*model.Event, error) {
	return queryMarkCompleted(ctx, s.db, id, result)
}

func (s *PostgresStore) MarkRetry(ctx context.Context, id string, errMsg string, scheduledAt time.Time) (*model.Event, error) {
	return queryMarkRetry(ctx, s.db, id, errMsg, scheduledAt)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id string, errMsg string) (*model.Event, error) {
	return queryMarkFailed(ctx, s.db, id, errMsg)
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, id string, progress int) error {
	return queryUpdateProgress(ctx, s.db, id, progress)
}

func (s *PostgresStore) RequeueFailed(ctx context.Context, id string) (*model.Event, error) {
	return queryRequeueFailed(ctx, s.db, id)
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (*model.StatusCounts, error) {
	return queryCountByStatus(ctx, s.db)
}
