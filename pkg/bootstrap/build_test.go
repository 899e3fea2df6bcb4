package bootstrap

import (
	"testing"

	"github.com/syncline/connector-core/pkg/backend"
)

func topologyConfig() *Config {
	return &Config{
		Name: "shopstream-connector",
		Backends: []BackendDecl{
			{Name: "shopstream"},
			{Name: "shopstream", Version: "1.7.0", Parent: "shopstream"},
			{Name: "shopstream", Version: "2.0.0", Parent: "shopstream"},
		},
	}
}

func TestBuild(t *testing.T) {
	idx := backend.NewIndex(nil)
	if err := Build(idx, topologyConfig()); err != nil {
		t.Fatalf("bootstrap:build_test - Build failed: %v", err)
	}

	root, ok := idx.Find("shopstream", "")
	if !ok {
		t.Fatal("bootstrap:build_test - root backend missing")
	}
	v17, ok := idx.Find("shopstream", "1.7.0")
	if !ok {
		t.Fatal("bootstrap:build_test - versioned backend missing")
	}
	if v17.Parent() != root {
		t.Error("bootstrap:build_test - versioned backend not parented to root")
	}
}

func TestBuild_ForwardParentReference(t *testing.T) {
	idx := backend.NewIndex(nil)
	cfg := &Config{
		Backends: []BackendDecl{
			{Name: "shopstream", Version: "1.7.0", Parent: "shopstream"},
			{Name: "shopstream"},
		},
	}

	if err := Build(idx, cfg); err == nil {
		t.Error("bootstrap:build_test - expected error for parent declared after child")
	}
}

func TestBuild_NamelessBackend(t *testing.T) {
	idx := backend.NewIndex(nil)
	cfg := &Config{Backends: []BackendDecl{{Version: "1.0.0"}}}

	if err := Build(idx, cfg); err == nil {
		t.Error("bootstrap:build_test - expected error for backend with neither name nor parent")
	}
}

func TestRunChecks(t *testing.T) {
	idx := backend.NewIndex(nil)
	cfg := topologyConfig()
	cfg.Checks = []CheckDecl{
		{Backend: "shopstream", Version: "1.7.0", Role: "binder", EntityType: "res.partner"},
		{Backend: "shopstream", Version: "1.7.0", Role: "mapper", EntityType: "res.partner"},
		{Backend: "roundcart", Role: "binder", EntityType: "res.partner"},
	}
	if err := Build(idx, cfg); err != nil {
		t.Fatalf("bootstrap:build_test - Build failed: %v", err)
	}

	root, _ := idx.Find("shopstream", "")
	root.Register(&backend.Unit{
		Name:   "partner-binder",
		Module: "connector",
		Roles:  []backend.Role{backend.RoleBinder},
		Types:  []string{"res.partner"},
	})

	results := RunChecks(idx, cfg)
	if len(results) != 3 {
		t.Fatalf("bootstrap:build_test - expected 3 results, got %d", len(results))
	}

	// Probe 1: resolves through the parent chain.
	if results[0].Err != nil {
		t.Errorf("bootstrap:build_test - binder probe failed: %v", results[0].Err)
	}
	if results[0].Impl != "partner-binder" {
		t.Errorf("bootstrap:build_test - Impl = %q, want %q", results[0].Impl, "partner-binder")
	}

	// Probe 2: no mapper registered anywhere.
	if results[1].Err == nil {
		t.Error("bootstrap:build_test - expected failure for missing mapper")
	}

	// Probe 3: unknown backend.
	if results[2].Err == nil {
		t.Error("bootstrap:build_test - expected failure for unknown backend")
	}
}

func TestRunChecks_SurfacesAmbiguity(t *testing.T) {
	idx := backend.NewIndex(nil)
	cfg := &Config{
		Backends: []BackendDecl{{Name: "shopstream"}},
		Checks: []CheckDecl{
			{Backend: "shopstream", Role: "mapper", EntityType: "m"},
		},
	}
	if err := Build(idx, cfg); err != nil {
		t.Fatalf("bootstrap:build_test - Build failed: %v", err)
	}

	node, _ := idx.Find("shopstream", "")
	for _, name := range []string{"first", "second"} {
		node.Register(&backend.Unit{
			Name:   name,
			Module: "connector",
			Roles:  []backend.Role{backend.RoleMapper},
			Types:  []string{"m"},
		})
	}

	results := RunChecks(idx, cfg)
	if len(results) != 1 || results[0].Err == nil {
		t.Fatal("bootstrap:build_test - expected the ambiguity to surface")
	}
}
