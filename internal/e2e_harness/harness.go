package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHarness holds a throwaway Postgres for end-to-end tests. PGDB is a
// database/sql handle independent of the engine's pgx pool, so reads made
// through it observe only committed state.
type TestHarness struct {
	PGContainer testcontainers.Container
	PGDSN       string
	PGDB        *sql.DB
	Pool        *pgxpool.Pool
}

// StartPostgres starts a postgres container and returns a DSN.
// It waits until Postgres is reachable. Caller is responsible for calling StopPostgres.
func (h *TestHarness) StartPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "MD",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.PGContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/MD?sslmode=disable", host, mapped.Port())
	h.PGDSN = dsn

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", err
	}
	deadline := time.Now().Add(20 * time.Second)
	for {
		if err := db.PingContext(ctx); err == nil {
			h.PGDB = db
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return "", fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("open pgx pool: %w", err)
	}
	h.Pool = pool
	return dsn, nil
}

// StopPostgres closes both handles and stops the container.
func (h *TestHarness) StopPostgres(ctx context.Context) error {
	if h.Pool != nil {
		h.Pool.Close()
		h.Pool = nil
	}
	if h.PGDB != nil {
		h.PGDB.Close()
		h.PGDB = nil
	}
	if h.PGContainer != nil {
		if err := h.PGContainer.Terminate(ctx); err != nil {
			return err
		}
		h.PGContainer = nil
	}
	return nil
}

var seedStatements = []string{
	`CREATE TABLE entretien (
		num        SERIAL PRIMARY KEY,
		date       DATE NOT NULL,
		sexe       VARCHAR(2),
		nb_enfants SMALLINT,
		commune    VARCHAR(80)
	)`,
	`COMMENT ON COLUMN entretien.date IS 'Date de l''entretien, Rubrique Entretien'`,
	`COMMENT ON COLUMN entretien.sexe IS 'Sexe (1:Homme; 2:Femme), Rubrique Usager'`,
	`COMMENT ON COLUMN entretien.nb_enfants IS 'Nombre d''enfants (Enfant(s) à charge), Rubrique Usager'`,
	`CREATE TABLE demande (
		num    INTEGER NOT NULL REFERENCES entretien (num) ON DELETE CASCADE,
		pos    SMALLINT NOT NULL,
		nature VARCHAR(3) NOT NULL,
		PRIMARY KEY (num, pos)
	)`,
	`COMMENT ON COLUMN demande.nature IS 'Nature de la demande (D:Divorce; L:Logement)'`,
	`CREATE TABLE solution (
		num    INTEGER NOT NULL REFERENCES entretien (num) ON DELETE CASCADE,
		pos    SMALLINT NOT NULL,
		nature VARCHAR(3) NOT NULL,
		PRIMARY KEY (num, pos)
	)`,
	`COMMENT ON COLUMN solution.nature IS 'Nature de la solution (I:Information; O:Orientation)'`,
}

// SeedSchema creates the three tables with their column comments.
func SeedSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range seedStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// CountRows returns the number of committed rows in table.
func CountRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&n)
	return n, err
}
