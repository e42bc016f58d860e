//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username           TEXT PRIMARY KEY,
	password           TEXT NOT NULL,
	full_name          TEXT NOT NULL,
	role               TEXT NOT NULL,
	job_title          TEXT NOT NULL DEFAULT '',
	photo_url          TEXT NOT NULL DEFAULT '',
	required_uniform   TEXT NOT NULL DEFAULT '',
	assigned_store_ids TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS stores (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	lat     DOUBLE PRECISION NOT NULL,
	lng     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS time_logs (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	user_full_name    TEXT NOT NULL,
	user_photo_url    TEXT NOT NULL DEFAULT '',
	store_id          TEXT NOT NULL,
	store_name        TEXT NOT NULL,
	type              TEXT NOT NULL,
	timestamp         TIMESTAMPTZ NOT NULL,
	has_incident      BOOLEAN NOT NULL DEFAULT FALSE,
	incident_detail   TEXT NOT NULL DEFAULT '',
	identity_score    INTEGER NOT NULL DEFAULT 0,
	uniform_ok        BOOLEAN NOT NULL DEFAULT TRUE,
	uniform_details   TEXT NOT NULL DEFAULT '',
	lat               DOUBLE PRECISION,
	lng               DOUBLE PRECISION,
	distance_to_store DOUBLE PRECISION,
	location_allowed  BOOLEAN
);

CREATE TABLE IF NOT EXISTS audits (
	id              TEXT PRIMARY KEY,
	store_id        TEXT NOT NULL,
	store_name      TEXT NOT NULL,
	user_id         TEXT NOT NULL,
	answers         JSONB NOT NULL,
	photos          JSONB NOT NULL,
	score           INTEGER NOT NULL,
	summary         TEXT NOT NULL DEFAULT '',
	critical_issues TEXT[] NOT NULL DEFAULT '{}',
	recommendations TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the service
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("timeclock"),
		tcpostgres.WithUsername("timeclock"),
		tcpostgres.WithPassword("timeclock"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return &PostgresContainer{Container: container, URL: url, DB: db}
}

// Truncate empties the given tables. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return err
		}
	}
	return nil
}
