// Package scope implements the scope machinery (C5): transformers that
// wrap an unscoped provider.Func into a scoped one, plus the registry that
// lets a binder plug in additional named scopes (§4.4).
package scope

import (
	"context"

	"anvil/key"
	"anvil/provider"
)

// Scope is the (Key, raw Provider) -> scoped Provider transformer from
// §4.4. It is a capability interface, not a struct — a binding owns its
// raw provider.Func exclusively, and a scope wraps it without taking
// ownership of anything beyond what it needs to cache.
type Scope interface {
	Wrap(k key.Key, raw provider.Func) provider.Func
}

// none is the "No scope" intrinsic policy: identity, every Get invokes
// the raw provider.
type none struct{}

// None returns the "no scope" Scope: every resolution re-invokes raw.
func None() Scope { return none{} }

func (none) Wrap(_ key.Key, raw provider.Func) provider.Func { return raw }

// stdContextCarrier is implemented by the container's call context,
// letting a scope reach the caller-supplied context.Context (which in turn
// may carry request/session storage bags) without this package importing
// the container package — avoiding an import cycle between scope and
// container, since container must import scope to build its scope
// registry.
type stdContextCarrier interface {
	StdContext() context.Context
}

func stdContextOf(ctx any) context.Context {
	if c, ok := ctx.(stdContextCarrier); ok {
		return c.StdContext()
	}
	return nil
}
