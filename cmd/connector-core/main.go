// Package main is the entrypoint for connector-core (binary name "connector-core" in Docker).
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/syncline/connector-core/internal/config"
	"github.com/syncline/connector-core/internal/server"
	"github.com/syncline/connector-core/pkg/availability"
	"github.com/syncline/connector-core/pkg/backend"
	"github.com/syncline/connector-core/pkg/bootstrap"
	"github.com/syncline/connector-core/pkg/db"
)

const usage = `Usage: connector-core [command]
       connector-core serve            Start the diagnostics server (COMMS, HTTP).
       connector-core check            Build the bootstrap topology and run its resolution probes.
       connector-core migrate up       Run database migrations.
       connector-core migrate down     Roll back one migration (optional; not all migrations support down).
       connector-core migrate status   Show migration status.
       connector-core ensure-db [name] Create database if missing (default name: connector_test). Uses DATABASE_URL host/user.
       connector-core clear            Truncate the module-state table; schema is preserved.
       connector-core seed [file]      Seed module states from a bootstrap file (default: resolved bootstrap).

Commands:
  serve           (default) Start the connector diagnostics server.
  check           Validate the bootstrap topology; exit non-zero when a probe fails.
  migrate up      Run database migrations only.
  migrate down    Roll back last migration (optional).
  migrate status  Show current migration status.
  ensure-db [name] Create database (e.g. connector_test) on same host as DATABASE_URL; then run tests with that URL.
  clear           Truncate module states; schema preserved.
  seed [file]     Seed module states from the bootstrap "modules" map.

Environment: COMMS_URL, DATABASE_URL, MIGRATION_PATH, CONNECTOR_HTTP_ADDR (default 0.0.0.0:8080), CONNECTOR_BOOTSTRAP_FILE. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "check":
		bootstrapFile := ""
		if len(args) > 1 {
			bootstrapFile = args[1]
		}
		if err := runCheck(bootstrapFile); err != nil {
			log.Fatalf("connector-core check: %v", err)
		}
		return
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("connector-core migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("connector-core migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("connector-core migrate status: %v", err)
			}
		case "down":
			if err := runMigrateDown(); err != nil {
				log.Fatalf("connector-core migrate down: %v", err)
			}
		default:
			log.Fatalf("connector-core migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("connector-core clear: %v", err)
		}
		return
	case "seed":
		bootstrapFile := ""
		if len(args) > 1 {
			bootstrapFile = args[1]
		}
		if err := runSeed(bootstrapFile); err != nil {
			log.Fatalf("connector-core seed: %v", err)
		}
		return
	case "ensure-db":
		dbName := "connector_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("connector-core ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("connector-core: %v", err)
	}
}

// runCheck builds the topology from the bootstrap file and exercises
// every declared resolution probe. Module-state gating applies when
// DATABASE_URL is set.
func runCheck(bootstrapFileOverride string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var paths []string
	if bootstrapFileOverride != "" {
		paths = append(paths, bootstrapFileOverride)
	} else if cfg.BootstrapFile != "" {
		paths = append(paths, cfg.BootstrapFile)
	}
	boot, err := bootstrap.LoadConfig(paths...)
	if err != nil {
		return fmt.Errorf("load bootstrap: %w", err)
	}

	var checker availability.Checker = availability.Always{}
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		checker = availability.NewOracle(db.NewRepository(pool))
	}

	idx := backend.NewIndex(checker)
	if err := bootstrap.Build(idx, boot); err != nil {
		return fmt.Errorf("build topology: %w", err)
	}

	results := bootstrap.RunChecks(idx, boot)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("FAIL  %s/%s on %s: %v\n", r.Check.Backend, r.Check.Role, r.Check.EntityType, r.Err)
			continue
		}
		fmt.Printf("ok    %s/%s on %s -> %s\n", r.Check.Backend, r.Check.Role, r.Check.EntityType, r.Impl)
	}
	fmt.Printf("%d probes, %d failed\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d probes failed", failed, len(results))
	}
	return nil
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
}

func runMigrateDown() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return db.MigrationDown(ctx, pool, cfg.MigrationPath)
}

func runClear() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearModules(ctx, pool); err != nil {
		return fmt.Errorf("clear module states: %w", err)
	}
	return nil
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	// Replace path with target database name; query (e.g. sslmode) is kept on u.RawQuery.
	u.Path = "/" + dbName
	targetURL := u.String()
	ctx := context.Background()
	if err := db.EnsureDatabase(ctx, targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

func runSeed(bootstrapFileOverride string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}

	var paths []string
	if bootstrapFileOverride != "" {
		paths = append(paths, bootstrapFileOverride)
	} else if cfg.BootstrapFile != "" {
		paths = append(paths, cfg.BootstrapFile)
	}
	boot, err := bootstrap.LoadConfig(paths...)
	if err != nil {
		return fmt.Errorf("load bootstrap: %w", err)
	}
	if len(boot.Modules) == 0 {
		return fmt.Errorf("bootstrap file declares no module states")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.NewRepository(pool).SeedModules(ctx, boot.Modules); err != nil {
		return fmt.Errorf("seed module states: %w", err)
	}
	fmt.Printf("Seeded %d module states.\n", len(boot.Modules))
	return nil
}
