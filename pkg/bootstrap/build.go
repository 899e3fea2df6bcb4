package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/syncline/connector-core/pkg/backend"
)

const buildLogPrefix = "bootstrap:build"

// Build constructs every declared backend in an index, in declaration
// order. Parents must be declared before their children.
func Build(idx *backend.Index, cfg *Config) error {
	for i, decl := range cfg.Backends {
		params := backend.Params{Name: decl.Name, Version: decl.Version}
		if decl.Parent != "" {
			parent, ok := idx.Find(decl.Parent, decl.ParentVersion)
			if !ok {
				return fmt.Errorf("%s - backend %d references undeclared parent %q %q",
					buildLogPrefix, i, decl.Parent, decl.ParentVersion)
			}
			params.Parent = parent
		}
		if _, err := idx.NewBackend(params); err != nil {
			return fmt.Errorf("%s - backend %d: %w", buildLogPrefix, i, err)
		}
	}
	slog.Info(fmt.Sprintf("%s - Built %d backends", buildLogPrefix, len(cfg.Backends)))
	return nil
}

// CheckResult is the outcome of one self-check probe.
type CheckResult struct {
	Check CheckDecl
	// Impl is the resolved implementation's description, empty on failure.
	Impl string
	// Err is nil when the probe resolved exactly one implementation.
	Err error
}

// RunChecks resolves every declared probe against the built topology.
// Ambiguity and resolution misses are reported per probe rather than
// aborting, so a startup log shows every defect at once.
func RunChecks(idx *backend.Index, cfg *Config) []CheckResult {
	results := make([]CheckResult, 0, len(cfg.Checks))
	for _, check := range cfg.Checks {
		results = append(results, runCheck(idx, check))
	}
	return results
}

func runCheck(idx *backend.Index, check CheckDecl) CheckResult {
	result := CheckResult{Check: check}

	node, ok := idx.Find(check.Backend, check.Version)
	if !ok {
		result.Err = fmt.Errorf("%s - unknown backend %q %q", buildLogPrefix, check.Backend, check.Version)
		return result
	}

	impl, found, err := node.Resolve(backend.Role(check.Role), check.EntityType)
	if err != nil {
		result.Err = err
		return result
	}
	if !found {
		result.Err = fmt.Errorf("%s - no %q implementation for %q on %s",
			buildLogPrefix, check.Role, check.EntityType, node)
		return result
	}
	result.Impl = fmt.Sprintf("%v", impl)
	return result
}
