package container

import (
	"context"
	"fmt"
	"reflect"

	"anvil/key"
)

// typeOf returns T's reflect.Type, including interface types (for which
// reflect.TypeOf on a zero value would otherwise return nil).
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get is the generic, type-safe wrapper around GetKey (§9 "every public
// entry point is additionally exposed through a generic type-safe
// wrapper... so application call sites never touch reflect directly").
// Go does not allow a generic method on a non-generic receiver, so this
// is a package-level function taking the Container explicitly.
func Get[T any](c *Container, ctx context.Context) (T, error) {
	var zero T
	raw, err := c.GetKey(ctx, key.Of(typeOf[T]()))
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("container: resolved value of type %T is not assignable to %s", raw, typeOf[T]())
	}
	return v, nil
}

// GetNamed resolves T under the given named qualifier.
func GetNamed[T any](c *Container, ctx context.Context, name string) (T, error) {
	var zero T
	raw, err := c.GetKey(ctx, key.OfQualified(typeOf[T](), key.Named(name)))
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("container: resolved value of type %T is not assignable to %s", raw, typeOf[T]())
	}
	return v, nil
}

// MustGet panics instead of returning an error, for call sites (typically
// during application start-up) that treat a missing or failed binding as
// fatal.
func MustGet[T any](c *Container, ctx context.Context) T {
	v, err := Get[T](c, ctx)
	if err != nil {
		panic(err)
	}
	return v
}
