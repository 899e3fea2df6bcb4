// Package db provides the Postgres-backed module-state repository and its
// connection pooling via pgx. The connector_modules table is the host's
// record of which deployment units are installed; the repository doubles
// as the availability flag source the connector core consumes.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const modulesLogPrefix = "db:modules"

// StateInstalled is the module state that counts as enabled.
const StateInstalled = "installed"

// Module represents a row in the connector_modules table.
type Module struct {
	Name     string    `json:"name"`
	State    string    `json:"state"`
	Modified time.Time `json:"modified"`
}

// Repository provides access to the module-state table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Repository over the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetModule finds a module by name, nil when unknown.
func (r *Repository) GetModule(ctx context.Context, name string) (*Module, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT name, state, modified
		 FROM connector_modules
		 WHERE name = $1
		 LIMIT 1`, name)

	var m Module
	if err := row.Scan(&m.Name, &m.State, &m.Modified); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s - get module %q: %w", modulesLogPrefix, name, err)
	}
	return &m, nil
}

// ListModules returns all modules ordered by name.
func (r *Repository) ListModules(ctx context.Context) ([]Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, state, modified FROM connector_modules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s - list modules: %w", modulesLogPrefix, err)
	}
	defer rows.Close()

	var out []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.Name, &m.State, &m.Modified); err != nil {
			return nil, fmt.Errorf("%s - scan module: %w", modulesLogPrefix, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetModuleState creates or updates a module's state.
func (r *Repository) SetModuleState(ctx context.Context, name, state string) error {
	slog.Info(fmt.Sprintf("%s - SetModuleState name=%s state=%s", modulesLogPrefix, name, state))

	_, err := r.pool.Exec(ctx,
		`INSERT INTO connector_modules (name, state, modified)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET state = EXCLUDED.state, modified = now()`,
		name, state)
	if err != nil {
		return fmt.Errorf("%s - set module state %q: %w", modulesLogPrefix, name, err)
	}
	return nil
}

// SeedModules upserts a module-name → state map, typically from a
// bootstrap file. Idempotent.
func (r *Repository) SeedModules(ctx context.Context, states map[string]string) error {
	slog.Info(fmt.Sprintf("%s - seeding %d module states", modulesLogPrefix, len(states)))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", modulesLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	for name, state := range states {
		_, err := tx.Exec(ctx,
			`INSERT INTO connector_modules (name, state, modified)
			 VALUES ($1, $2, now())
			 ON CONFLICT (name) DO UPDATE SET state = EXCLUDED.state, modified = now()`,
			name, state)
		if err != nil {
			return fmt.Errorf("%s - seed module %q: %w", modulesLogPrefix, name, err)
		}
	}
	return tx.Commit(ctx)
}

// Enabled implements availability.FlagSource: a module is enabled when
// its state is "installed". Unknown modules are disabled, matching how a
// host treats units it has never installed.
func (r *Repository) Enabled(origin string) (bool, error) {
	m, err := r.GetModule(context.Background(), origin)
	if err != nil {
		return false, err
	}
	return m != nil && m.State == StateInstalled, nil
}
