package key

import (
	"fmt"
	"reflect"
)

// descKind distinguishes the handful of shapes a TypeDescriptor can take.
// Go's reflect.Type already carries full, unerased static type information
// for any concrete instantiation (unlike Java's generics, there is no
// separate "raw List" vs "List<String>" distinction to model for ordinary
// types) so TypeDescriptor only needs to add structure for the two shapes
// the spec calls out explicitly: arrays/slices, and the parametric
// "Provider of T" (§4.8).
type descKind int

const (
	descConcrete descKind = iota
	descArray
	descProviderOf
)

// providerElemTyper is implemented by provider.Provider[T] (value receiver)
// for every T. It lets the key package recognise the "Provider of X"
// pattern from §4.8 structurally, via an interface check, rather than by
// parsing the string form of a generic type's name.
type providerElemTyper interface {
	ElemType() reflect.Type
}

var providerElemTyperType = reflect.TypeOf((*providerElemTyper)(nil)).Elem()

// TypeDescriptor is the runtime representation of a (possibly parametric)
// type, per §3/§4.1: structural equality, a raw-type projection, an
// assignability check, and substitution are all exposed as methods.
type TypeDescriptor struct {
	kind    descKind
	raw     reflect.Type
	elem    *TypeDescriptor // element type for descArray; T's descriptor for descProviderOf
	varName string          // name for descVariable
}

// DescriptorOf builds a TypeDescriptor from a Go reflect.Type, classifying
// it as a plain concrete type, an array/slice, or a Provider-of-T marker.
func DescriptorOf(t reflect.Type) TypeDescriptor {
	if t == nil {
		panic("key: DescriptorOf called with nil reflect.Type")
	}
	if t.Implements(providerElemTyperType) {
		zero := reflect.New(t).Elem().Interface().(providerElemTyper)
		elem := DescriptorOf(zero.ElemType())
		return TypeDescriptor{kind: descProviderOf, raw: t, elem: &elem}
	}
	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		elem := DescriptorOf(t.Elem())
		return TypeDescriptor{kind: descArray, raw: t, elem: &elem}
	default:
		return TypeDescriptor{kind: descConcrete, raw: t}
	}
}

// IsProviderOf reports whether this descriptor is the parametric
// "Provider of X" shape, and if so returns X's descriptor.
func (d TypeDescriptor) IsProviderOf() (TypeDescriptor, bool) {
	if d.kind == descProviderOf {
		return *d.elem, true
	}
	return TypeDescriptor{}, false
}

// IsArray reports whether this descriptor is an array/slice type, and if
// so returns the element descriptor.
func (d TypeDescriptor) IsArray() (TypeDescriptor, bool) {
	if d.kind == descArray {
		return *d.elem, true
	}
	return TypeDescriptor{}, false
}

// ReflectType returns the underlying Go reflect.Type verbatim.
func (d TypeDescriptor) ReflectType() reflect.Type {
	return d.raw
}

// RawType projects away the interchangeable pointer/value distinction the
// container treats as the Go analogue of primitive/box interchange (§3):
// *T and T share the same raw type, which is always the non-pointer named
// type. This is the type used to index the binding table's secondary
// by-raw-type listing (§4.2) and to decide implicit-binding eligibility
// (§4.3 step 4).
func (d TypeDescriptor) RawType() reflect.Type {
	t := d.raw
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Equal reports structural equality between two descriptors: same kind,
// same raw reflect.Type (which, for Go, already encodes any type
// arguments — see descKind's doc comment), and recursively equal element
// descriptors for array/provider shapes.
func (d TypeDescriptor) Equal(o TypeDescriptor) bool {
	if d.kind != o.kind {
		return false
	}
	if d.kind == descVariable {
		return d.varName == o.varName
	}
	if d.raw != o.raw {
		return false
	}
	if d.elem != nil && o.elem != nil {
		return d.elem.Equal(*o.elem)
	}
	return d.elem == nil && o.elem == nil
}

// Interchanges reports whether d and o denote the same Go analogue of the
// primitive/box interchange described in §3: one is T, the other *T (or
// they're already equal).
func (d TypeDescriptor) Interchanges(o TypeDescriptor) bool {
	if d.Equal(o) {
		return true
	}
	if d.kind != descConcrete || o.kind != descConcrete {
		return false
	}
	if d.raw.Kind() == reflect.Ptr && d.raw.Elem() == o.raw {
		return true
	}
	if o.raw.Kind() == reflect.Ptr && o.raw.Elem() == d.raw {
		return true
	}
	return false
}

// IsAssignableFrom reports whether a value described by other may be used
// wherever d is required: identical descriptors, or other's raw type is
// assignable to d's raw type (covers interface satisfaction), or the
// pointer/value interchange from Interchanges.
func (d TypeDescriptor) IsAssignableFrom(other TypeDescriptor) bool {
	if d.Equal(other) || d.Interchanges(other) {
		return true
	}
	return other.raw != nil && d.raw != nil && other.raw.AssignableTo(d.raw)
}

// TypeVarBindings maps a type-variable name to a concrete TypeDescriptor,
// used by Substitute. The container's own components never construct open
// type variables at runtime (Go resolves generics at compile time for any
// concrete binding it registers) so this map is consulted only when
// application code hand-builds a descriptor referencing a Variable — kept
// for completeness with §4.1's substitution contract. No other package of
// this module calls Substitute.
type TypeVarBindings map[string]TypeDescriptor

// Variable returns a type-variable placeholder descriptor, resolved later
// via Substitute.
func Variable(name string) TypeDescriptor {
	return TypeDescriptor{kind: descVariable, varName: name}
}

const descVariable descKind = -1

// Substitute replaces any type-variable reference in d (or, recursively,
// in its array/provider element) using bindings, returning a fully
// concrete descriptor. Substituting a descriptor with no variables is a
// no-op that returns d unchanged.
func (d TypeDescriptor) Substitute(bindings TypeVarBindings) TypeDescriptor {
	switch d.kind {
	case descVariable:
		if bound, ok := bindings[d.varName]; ok {
			return bound
		}
		panic(fmt.Sprintf("key: unbound type variable %q", d.varName))
	case descArray, descProviderOf:
		substituted := d.elem.Substitute(bindings)
		return TypeDescriptor{kind: d.kind, raw: d.raw, elem: &substituted}
	default:
		return d
	}
}

// String renders the descriptor for diagnostics.
func (d TypeDescriptor) String() string {
	switch d.kind {
	case descVariable:
		return fmt.Sprintf("<%s>", d.varName)
	case descProviderOf:
		return fmt.Sprintf("Provider[%s]", d.elem.String())
	case descArray:
		return fmt.Sprintf("[]%s", d.elem.String())
	default:
		return d.raw.String()
	}
}
