package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syncline/connector-core/pkg/backend"
	"github.com/syncline/connector-core/pkg/db"
	"github.com/syncline/connector-core/pkg/event"
)

const logPrefix = "dispatcher:dispatch"

// ModuleLister lists tracked modules and their states. Nil when the
// host runs without a database.
type ModuleLister interface {
	ListModules(ctx context.Context) ([]db.Module, error)
}

// Dispatcher routes COMMS diagnostics requests to the backend index and
// the record event topics.
type Dispatcher struct {
	index   *backend.Index
	events  *event.RecordEvents
	modules ModuleLister
	service string
	started time.Time
}

// NewDispatcher creates a new Dispatcher. Pass nil for modules when no
// module-state store is configured.
func NewDispatcher(idx *backend.Index, events *event.RecordEvents, modules ModuleLister, service string) *Dispatcher {
	return &Dispatcher{
		index:   idx,
		events:  events,
		modules: modules,
		service: service,
		started: time.Now(),
	}
}

// Dispatch routes a request to the appropriate handler and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *DiagnosticsRequest) *DiagnosticsResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	switch req.Method {
	case "resolve":
		return d.handleResolve(req)
	case "hasConsumer":
		return d.handleHasConsumer(req)
	case "backends":
		return d.handleBackends(req)
	case "modules":
		return d.handleModules(ctx, req)
	case "health":
		return d.handleHealth(req)
	default:
		return errorResponse(req.ID, "METHOD_NOT_FOUND",
			fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handleResolve(req *DiagnosticsRequest) *DiagnosticsResponse {
	var params ResolveParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse resolve params", false)
	}
	if params.Backend == "" || params.Role == "" {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "backend and role are required", false)
	}

	var (
		node *backend.Backend
		ok   bool
	)
	if params.VersionRange != "" {
		var err error
		node, ok, err = d.index.FindRange(params.Backend, params.VersionRange)
		if err != nil {
			return errorResponse(req.ID, "INVALID_ARGUMENT", err.Error(), false)
		}
	} else {
		node, ok = d.index.Find(params.Backend, params.Version)
	}
	if !ok {
		return errorResponse(req.ID, "BACKEND_NOT_FOUND",
			fmt.Sprintf("No backend named %q", params.Backend), false)
	}

	impl, found, err := node.Resolve(backend.Role(params.Role), params.EntityType)
	if err != nil {
		return resolutionErrorToResponse(req.ID, err)
	}
	result := &ResolveResult{Found: found, Backend: node.String()}
	if found {
		result.Impl = fmt.Sprintf("%v", impl)
	}
	return &DiagnosticsResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleHasConsumer(req *DiagnosticsRequest) *DiagnosticsResponse {
	var params HasConsumerParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse hasConsumer params", false)
	}

	topic, ok := d.events.Topic(params.Event)
	if !ok {
		return errorResponse(req.ID, "INVALID_ARGUMENT",
			fmt.Sprintf("Unknown record event %q", params.Event), false)
	}
	result := &HasConsumerResult{HasConsumer: topic.HasConsumerFor(params.EntityType)}
	return &DiagnosticsResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleBackends(req *DiagnosticsRequest) *DiagnosticsResponse {
	nodes := d.index.Backends()
	infos := make([]BackendInfo, 0, len(nodes))
	for _, n := range nodes {
		info := BackendInfo{Name: n.Name(), Version: n.Version()}
		if p := n.Parent(); p != nil {
			info.Parent = p.String()
		}
		infos = append(infos, info)
	}
	return &DiagnosticsResponse{ID: req.ID, Ok: true, Result: infos}
}

func (d *Dispatcher) handleModules(ctx context.Context, req *DiagnosticsRequest) *DiagnosticsResponse {
	if d.modules == nil {
		return errorResponse(req.ID, "NOT_CONFIGURED", "No module-state store configured", false)
	}

	list, err := d.modules.ListModules(ctx)
	if err != nil {
		return errorResponse(req.ID, "INTERNAL_ERROR", err.Error(), true)
	}
	infos := make([]ModuleInfo, 0, len(list))
	for _, m := range list {
		infos = append(infos, ModuleInfo{Name: m.Name, State: m.State})
	}
	return &DiagnosticsResponse{ID: req.ID, Ok: true, Result: infos}
}

func (d *Dispatcher) handleHealth(req *DiagnosticsRequest) *DiagnosticsResponse {
	result := &HealthResult{
		Status:  "ok",
		Service: d.service,
		Uptime:  time.Since(d.started).Round(time.Second).String(),
	}
	return &DiagnosticsResponse{ID: req.ID, Ok: true, Result: result}
}

// --- helpers ---

func errorResponse(id, code, message string, retryable bool) *DiagnosticsResponse {
	return &DiagnosticsResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func resolutionErrorToResponse(id string, err error) *DiagnosticsResponse {
	var ambErr *backend.AmbiguityError
	if errors.As(err, &ambErr) {
		names := make([]string, 0, len(ambErr.Candidates))
		for _, c := range ambErr.Candidates {
			names = append(names, fmt.Sprintf("%v", c))
		}
		return &DiagnosticsResponse{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:      "AMBIGUOUS_MATCH",
				Message:   ambErr.Error(),
				Details:   names,
				Retryable: false,
			},
		}
	}
	var cfgErr *backend.ConfigError
	if errors.As(err, &cfgErr) {
		return errorResponse(id, "CONFIGURATION_ERROR", cfgErr.Message, false)
	}
	return errorResponse(id, "INTERNAL_ERROR", err.Error(), true)
}
