// Package db provides module-state data clearing.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearModules truncates the connector_modules table. Schema is
// preserved; only data is removed.
func ClearModules(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing module-state table", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE connector_modules RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Module states cleared", clearLogPrefix))
	return nil
}
