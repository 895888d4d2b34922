package loader

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/modverse/loader/pkg/config"
)

// shouldMockDecision mirrors spec.md's ShouldMockDecision entity.
type shouldMockDecision int

const (
	decisionUnset shouldMockDecision = iota
	decisionForceMock
	decisionForceReal
)

// PolicyEngine decides, for a resolution, whether mock or real is
// delivered. No teacher analog exists for this decision table; it is
// built directly from spec.md §4.2's ordered rule list (documented in
// DESIGN.md as an intentional fresh contribution).
type PolicyEngine struct {
	cfg *config.LoaderConfig

	mu               sync.Mutex
	autoMockEnabled  bool
	explicitOverride map[ModuleID]shouldMockDecision
	cachedByName     map[string]bool
}

// NewPolicyEngine builds a PolicyEngine seeded from the config's
// auto-mock default.
func NewPolicyEngine(cfg *config.LoaderConfig) *PolicyEngine {
	return &PolicyEngine{
		cfg:              cfg,
		autoMockEnabled:  cfg.AutoMockDefault,
		explicitOverride: make(map[ModuleID]shouldMockDecision),
		cachedByName:     make(map[string]bool),
	}
}

// ShouldMock implements spec.md §4.2's decision order. resolveReal is
// called lazily only when rules 6-8 need the real path; it returns
// ("", false) if resolution fails.
func (p *PolicyEngine) ShouldMock(id ModuleID, requestedName string, resolveReal func() (string, bool)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if decision, ok := p.explicitOverride[id]; ok {
		return decision == decisionForceMock
	}

	if id.Kind == KindCore {
		return false
	}

	if !p.autoMockEnabled {
		return false
	}

	if cached, ok := p.cachedByName[requestedName]; ok {
		return cached
	}

	if len(p.cfg.UnmockedModulePathPatterns) == 0 {
		return true
	}

	realPath, resolvedOK := resolveReal()
	if !resolvedOK {
		return id.MockPath != ""
	}

	if p.cfg.VendorPath != "" && isUnderPath(realPath, p.cfg.VendorPath) {
		p.cachedByName[requestedName] = false
		return false
	}

	realAbs := realPath
	resolvedPath, err := filepath.EvalSymlinks(realPath)
	if err != nil {
		resolvedPath = realPath
	}

	mock := true
	for _, pattern := range p.cfg.UnmockedModulePathPatterns {
		if strings.Contains(resolvedPath, pattern) || strings.Contains(realAbs, pattern) {
			mock = false
			break
		}
	}
	p.cachedByName[requestedName] = mock
	return mock
}

func isUnderPath(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// SetAutoMock toggles the global auto-mock flag (jest.autoMockOn/Off).
func (p *PolicyEngine) SetAutoMock(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoMockEnabled = enabled
}

// SetExplicitOverride installs mock(x)/dontMock(x) for a ModuleID.
func (p *PolicyEngine) SetExplicitOverride(id ModuleID, mock bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mock {
		p.explicitOverride[id] = decisionForceMock
	} else {
		p.explicitOverride[id] = decisionForceReal
	}
}

// ResetNameCache clears the per-name should-mock cache. spec.md's reset
// semantics (§4.3) only name the real/mock registries and explicit
// overrides explicitly; the should-mock cache is policy memoization
// derived from unmock patterns, not evaluation state, so Registry.Reset
// does not call this — it exists for callers that want a harder reset.
func (p *PolicyEngine) ResetNameCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cachedByName = make(map[string]bool)
}
