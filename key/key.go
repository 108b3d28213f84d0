// Package key implements the identity used throughout the container: a
// type descriptor paired with an optional qualifier. Keys are the sole
// currency of lookup: callers always pass a Key, and the maps that store
// bindings and construction frames use Key.String() only as the internal
// map key (see Key).
package key

import (
	"fmt"
	"reflect"
)

// Qualifier disambiguates multiple bindings of the same type. It is either
// absent, a plain name (the common case — Guice's @Named), or an
// annotation-like marker value (Guice's custom @BindingAnnotation).
//
// Two Qualifiers are equal iff their Kind matches and, for Named, their
// Name matches, or, for Marker, their Value compares == (markers are
// expected to be small comparable structs or string constants, mirroring
// how a real binding-annotation type is typically a zero-size marker).
type Qualifier struct {
	kind  qualifierKind
	name  string
	value any
}

type qualifierKind int

const (
	qualifierNone qualifierKind = iota
	qualifierNamed
	qualifierMarker
)

// Named returns a Qualifier identified by a plain string name.
func Named(name string) Qualifier {
	return Qualifier{kind: qualifierNamed, name: name}
}

// Marker returns a Qualifier identified by an arbitrary comparable value,
// standing in for an annotation-like binding-qualifier marker.
func Marker(value any) Qualifier {
	if !reflect.TypeOf(value).Comparable() {
		panic(fmt.Sprintf("key: marker qualifier value of type %T must be comparable", value))
	}
	return Qualifier{kind: qualifierMarker, value: value}
}

// IsZero reports whether the qualifier is absent (the default, unqualified
// binding).
func (q Qualifier) IsZero() bool {
	return q.kind == qualifierNone
}

// String renders the qualifier for diagnostics.
func (q Qualifier) String() string {
	switch q.kind {
	case qualifierNamed:
		return q.name
	case qualifierMarker:
		return fmt.Sprintf("%v", q.value)
	default:
		return ""
	}
}

func (q Qualifier) equal(o Qualifier) bool {
	if q.kind != o.kind {
		return false
	}
	switch q.kind {
	case qualifierNamed:
		return q.name == o.name
	case qualifierMarker:
		return q.value == o.value
	default:
		return true
	}
}

// Key is the pair (type descriptor, optional qualifier) that identifies a
// requested value. Key is comparable (Marker already rejects
// non-comparable qualifier values at construction time), but it is NOT
// safe to use directly as a Go map key for structural lookups: an array or
// Provider-of-T descriptor carries a *TypeDescriptor element pointer, and
// two Keys built independently for the same logical shape get distinct
// pointers there, so native map equality can treat structurally-equal
// Keys as different entries. Callers that need a map keyed by logical Key
// identity (binding.Table, the resolver's construction-frame graph, the
// request scope's value bag) key by Key.String() instead.
type Key struct {
	Type      TypeDescriptor
	Qualifier Qualifier
}

// Of builds a Key for a concrete Go type with no qualifier.
func Of(t reflect.Type) Key {
	return Key{Type: DescriptorOf(t)}
}

// OfQualified builds a Key for a concrete Go type with the given qualifier.
func OfQualified(t reflect.Type, q Qualifier) Key {
	return Key{Type: DescriptorOf(t), Qualifier: q}
}

// Equal reports structural equality: same type descriptor, same qualifier.
// Primitive/pointer interchange (T vs *T, see TypeDescriptor.Interchanges)
// is NOT folded into Key equality — it is a resolver-level fallback (§4.1
// edge cases), not an identity relation, so two Keys for T and *T remain
// distinct entries in the binding table even though the resolver may
// satisfy one from the other.
func (k Key) Equal(o Key) bool {
	return k.Type.Equal(o.Type) && k.Qualifier.equal(o.Qualifier)
}

// WithType returns a copy of the Key substituting its type descriptor,
// keeping the qualifier — the `with_type(T')` operation from §4.1.
func (k Key) WithType(t TypeDescriptor) Key {
	return Key{Type: t, Qualifier: k.Qualifier}
}

// RawType projects the key's underlying reflect.Type with pointer
// indirection stripped (*T -> T); see TypeDescriptor.RawType. A
// Provider[T] key's raw type is the Provider[T] type itself.
func (k Key) RawType() reflect.Type {
	return k.Type.RawType()
}

// String renders the key for diagnostics, e.g. "repo.UserRepo" or
// "repo.UserRepo@primary".
func (k Key) String() string {
	if k.Qualifier.IsZero() {
		return k.Type.String()
	}
	return fmt.Sprintf("%s@%s", k.Type.String(), k.Qualifier.String())
}
