// Package binding implements the binding table (C3): the sealed,
// read-only mapping from Key to construction strategy that the resolver
// consults first on every request.
package binding

import (
	"anvil/key"
	"anvil/provider"
)

// ScopeKind names the three spellings of scope-policy a Binding can carry,
// per §3: "no scope", "singleton", or a named scope looked up by
// identifier in the container's scope registry.
type ScopeKind int

const (
	// Unscoped means every Get invokes the raw provider (§4.4 "No scope").
	Unscoped ScopeKind = iota
	// Singleton means the container-lifetime cache applies (§4.4).
	Singleton
	// Named means a scope plugged in via the scope-identifier -> Scope
	// mapping (§4.4 "Additional named scopes") applies.
	Named
)

// ScopePolicy is the (kind, optional name) pair stored on a Binding.
type ScopePolicy struct {
	Kind ScopeKind
	Name string // meaningful only when Kind == Named
}

// NoScope is the zero-value "no scope" policy.
var NoScope = ScopePolicy{Kind: Unscoped}

// SingletonScope is the intrinsic container-lifetime policy.
var SingletonScope = ScopePolicy{Kind: Singleton}

// NamedScope builds a policy referring to a scope registered under name.
func NamedScope(name string) ScopePolicy {
	return ScopePolicy{Kind: Named, Name: name}
}

// LoadStrategy is EAGER or LAZY (§3): EAGER bindings are constructed during
// sealing rather than on first request.
type LoadStrategy int

const (
	// Lazy defers construction to the first request, the default.
	Lazy LoadStrategy = iota
	// Eager forces construction during Seal (§4.4 "Eager singleton").
	Eager
)

// Binding is the record (key, source, factory, scope-policy, load-strategy)
// from §3. Source is opaque to the core; it exists purely so diagnostics
// can point at where a binding came from (a module name, a file:line, a
// call-site string — whatever the binder surface chooses to pass through).
type Binding struct {
	Key      key.Key
	Source   any
	Factory  provider.Func
	Scope    ScopePolicy
	Strategy LoadStrategy
}
