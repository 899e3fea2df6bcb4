// Package server orchestrates all components: COMMS client, DB, backend
// index, event bus, dispatcher, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/syncline/connector-core/internal/config"
	"github.com/syncline/connector-core/pkg/availability"
	"github.com/syncline/connector-core/pkg/backend"
	"github.com/syncline/connector-core/pkg/bootstrap"
	"github.com/syncline/connector-core/pkg/commsutil"
	"github.com/syncline/connector-core/pkg/db"
	"github.com/syncline/connector-core/pkg/dispatcher"
	"github.com/syncline/connector-core/pkg/event"
	"github.com/syncline/connector-core/pkg/relay"
)

const logPrefix = "server:server"

// Server is the connector-core diagnostics orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	httpServer *http.Server
	idx        *backend.Index
	repo       *db.Repository
	boot       *bootstrap.Config
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	// Setup structured logging
	var logLevel slog.Level
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting connector-core", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Load bootstrap topology
	var paths []string
	if cfg.BootstrapFile != "" {
		paths = append(paths, cfg.BootstrapFile)
	}
	boot, err := bootstrap.LoadConfig(paths...)
	if err != nil {
		return fmt.Errorf("%s - failed to load bootstrap config: %w", logPrefix, err)
	}
	s.boot = boot

	// Determine diagnostics subject
	diagSubject := cfg.DiagnosticsSubject
	if diagSubject == "" {
		diagSubject = commsutil.SubjectDiagnostics
	}
	slog.Info(fmt.Sprintf("%s - Diagnostics subject: %s", logPrefix, diagSubject))

	// Step 2: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc
	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, cfg.COMMSURL))

	// Step 3: Optional module-state database. Without one every origin
	// counts as enabled.
	var checker availability.Checker = availability.Always{}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}

		s.repo = db.NewRepository(pool)
		if cfg.RunMigrations && len(boot.Modules) > 0 {
			if err := s.repo.SeedModules(ctx, boot.Modules); err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to seed module states: %w", logPrefix, err)
			}
		}
		checker = availability.NewOracle(availability.NewCachedSource(s.repo, cfg.ModuleCacheTTL))
		slog.Info(fmt.Sprintf("%s - Module-state gating enabled (cache TTL %s)", logPrefix, cfg.ModuleCacheTTL))
	}

	// Step 4: Build the backend index from the bootstrap topology
	idx := backend.NewIndex(checker)
	if err := bootstrap.Build(idx, boot); err != nil {
		s.close()
		return fmt.Errorf("%s - failed to build backend topology: %w", logPrefix, err)
	}
	s.idx = idx
	for _, r := range bootstrap.RunChecks(idx, boot) {
		if r.Err != nil {
			slog.Warn(fmt.Sprintf("%s - bootstrap check %s/%s on %s: %v",
				logPrefix, r.Check.Backend, r.Check.Role, r.Check.EntityType, r.Err))
		}
	}

	// Step 5: Event bus with outbound relay
	events := event.NewRecordEvents(checker)
	publisherOpts := &relay.CommsPublisherOpts{}
	if cfg.RecordEventSubject != "" {
		publisherOpts.GlobalSubject = cfg.RecordEventSubject
	}
	relay.Attach(events, relay.NewCommsPublisher(nc, publisherOpts), "")

	// Step 6: Create dispatcher and subscribe
	var lister dispatcher.ModuleLister
	if s.repo != nil {
		lister = s.repo
	}
	disp := dispatcher.NewDispatcher(idx, events, lister, cfg.COMMSName)

	requestTimeout := cfg.RequestTimeout
	sub, err := nc.Subscribe(diagSubject, func(msg *comms.Msg) {
		var req dispatcher.DiagnosticsRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			resp := &dispatcher.DiagnosticsResponse{
				Ok: false,
				Error: &dispatcher.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			}
			data, _ := json.Marshal(resp)
			msg.Respond(data)
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp := disp.Dispatch(reqCtx, &req)

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			return
		}
		msg.Respond(data)
	})
	if err != nil {
		s.close()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, diagSubject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, diagSubject))

	// Step 7: Start HTTP health server
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Connector core is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	sub.Unsubscribe()
	s.httpServer.Shutdown(ctx)
	nc.Drain()
	if s.pool != nil {
		s.pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func (s *Server) close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

// healthStatus is the /health response body.
type healthStatus struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

// handleHealth returns an HTTP handler reporting COMMS and database
// connectivity.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		h := healthStatus{
			Status:    "healthy",
			Checks:    map[string]bool{"comms": s.nc.IsConnected()},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if s.pool != nil {
			h.Checks["database"] = s.pool.Ping(ctx) == nil
		}
		for _, ok := range h.Checks {
			if !ok {
				h.Status = "unhealthy"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	}
}

// homePageTemplate is the HTML for the diagnostics home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Connector Core</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    .error { color: #cc0000; }
    .ok { color: #0066cc; font-weight: bold; }
  </style>
</head>
<body>
  <h1>Connector Core</h1>
  <p class="meta">Backend topology, module states, and bootstrap probes.</p>

  <section>
    <h2>Backends</h2>
    {{if not .Backends}}
    <p>No backends registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Name</th><th>Version</th><th>Parent</th></tr>
      </thead>
      <tbody>
        {{range .Backends}}
        <tr><td>{{.Name}}</td><td>{{.Version}}</td><td>{{.Parent}}</td></tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  <section>
    <h2>Modules</h2>
    {{if .ModulesError}}
    <p class="error">Could not load module states: {{.ModulesError}}</p>
    {{else if not .Modules}}
    <p>No module-state store configured.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Module</th><th>State</th></tr>
      </thead>
      <tbody>
        {{range .Modules}}
        <tr><td>{{.Name}}</td><td>{{.State}}</td></tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  <section>
    <h2>Bootstrap probes</h2>
    {{if not .Checks}}
    <p>No probes declared.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Backend</th><th>Role</th><th>Entity type</th><th>Result</th></tr>
      </thead>
      <tbody>
        {{range .Checks}}
        <tr>
          <td>{{.Check.Backend}}</td>
          <td>{{.Check.Role}}</td>
          <td>{{.Check.EntityType}}</td>
          <td>{{if .Err}}<span class="error">{{.Err}}</span>{{else}}<span class="ok">{{.Impl}}</span>{{end}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Backends     []dispatcher.BackendInfo
	Modules      []db.Module
	ModulesError string
	Checks       []bootstrap.CheckResult
}

// handleHome returns an HTTP handler for the diagnostics home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		data := homeData{Checks: bootstrap.RunChecks(s.idx, s.boot)}
		for _, n := range s.idx.Backends() {
			info := dispatcher.BackendInfo{Name: n.Name(), Version: n.Version()}
			if p := n.Parent(); p != nil {
				info.Parent = p.String()
			}
			data.Backends = append(data.Backends, info)
		}
		if s.repo != nil {
			modules, err := s.repo.ListModules(ctx)
			if err != nil {
				data.ModulesError = err.Error()
			} else {
				data.Modules = modules
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
