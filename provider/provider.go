// Package provider implements the opaque value-producer (C4) the rest of
// the container is built on, plus the generic Provider[T] type that gives
// application code a type-safe handle onto the resolver's "Provider of T"
// unwrap (§4.8) without reaching for reflect.
package provider

import "reflect"

// Func is a raw, reflection-mediated provider: given the current call
// context (opaque to this package — see package container), it produces a
// reflect.Value of one type or fails. Every Binding owns exactly one Func;
// scopes wrap it, they never share its internals.
type Func func(ctx any) (reflect.Value, error)

// Provider[T] is the parametric "Provider of T" from §4.8: a dependency
// declared with this type requires only a binding of T, and resolution of
// T is deferred until Get is called — potentially many times, each
// producing a fresh T for an unscoped binding of T.
//
// ResolveFunc is exported so the container can populate it through
// reflect: the resolver discovers "Provider of T" fields structurally
// (see key.DescriptorOf), at which point T is only known as a
// reflect.Type, not a compile-time type argument this package could
// instantiate Of[T] against. Application code should never set
// ResolveFunc itself; use Of when constructing a Provider[T] by hand (for
// tests, mainly) and Get to read it.
type Provider[T any] struct {
	ResolveFunc func() (T, error)
}

// Of wraps a zero-argument getter as a Provider[T].
func Of[T any](get func() (T, error)) Provider[T] {
	return Provider[T]{ResolveFunc: get}
}

// Get runs the deferred resolution, producing T.
func (p Provider[T]) Get() (T, error) {
	if p.ResolveFunc == nil {
		var zero T
		return zero, errNotBound
	}
	return p.ResolveFunc()
}

// ElemType reports T's reflect.Type. The key package uses this to detect
// the "Provider of X" shape structurally (an interface check), without
// parsing the string form of the instantiated generic type's name.
func (p Provider[T]) ElemType() reflect.Type {
	var zero T
	return reflect.TypeOf(&zero).Elem()
}

var errNotBound = providerError("provider: Provider[T] used without being constructed by the container")

type providerError string

func (e providerError) Error() string { return string(e) }
