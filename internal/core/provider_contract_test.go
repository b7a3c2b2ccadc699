package core

import (
	"go/types"
	"sort"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestProviderImplementationsHardening keeps concrete domain.Provider
// implementations inside the persistence packages. Test doubles in this
// package are the only exception.
func TestProviderImplementationsHardening(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes, Tests: true}
	pkgs, err := packages.Load(cfg, "repokit/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var provider *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "repokit/pkg/domain" || p.Types == nil {
			continue
		}
		obj := p.Types.Scope().Lookup("Provider")
		if obj == nil {
			t.Fatalf("domain.Provider not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.Provider is not an interface")
		}
		provider = iface
	}
	if provider == nil {
		t.Fatalf("failed to resolve Provider interface")
	}
	allowed := map[string]struct{}{
		"repokit/internal/infra/persistence/memory":   {},
		"repokit/internal/infra/persistence/sqlstore": {},
		"repokit/internal/core":                       {},
	}
	seen := make(map[string]struct{})
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			named, ok := p.Types.Scope().Lookup(name).Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Interface); ok {
				continue
			}
			if types.Implements(named, provider) || types.Implements(types.NewPointer(named), provider) {
				if _, ok := allowed[p.PkgPath]; !ok {
					seen[p.PkgPath+"."+name] = struct{}{}
				}
			}
		}
	}
	if len(seen) > 0 {
		unexpected := make([]string, 0, len(seen))
		for v := range seen {
			unexpected = append(unexpected, v)
		}
		sort.Strings(unexpected)
		t.Fatalf("unexpected Provider implementations (extend the allowed list when adding a backend):\n%v", unexpected)
	}
}
