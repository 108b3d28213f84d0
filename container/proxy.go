package container

import (
	"fmt"
	"reflect"
)

// newInterfaceProxy builds a deferred-reference proxy for an
// interface-typed Key encountered while its own construction is still in
// progress higher up the call chain (§4.3 "Cycle handling").
//
// reflect.MakeFunc only produces single function values, not an object
// satisfying an arbitrary interface, so there is no way to synthesise a
// proxy type at runtime by hand-building its method set. Instead this
// embeds the interface as an anonymous field of a throwaway struct type
// built with reflect.StructOf: embedding promotes the interface's entire
// method set onto the struct, so the struct satisfies ifaceType while the
// embedded field is still the nil zero value.
//
// The returned value is a *pointer* to the holder struct, not the struct
// itself: a consumer's interface field is filled via
// convertForAssignment/field.Set, which boxes whatever reflect.Value it is
// given — boxing a struct by value copies it, so a later mutation through
// `set` would only ever be visible on the original, never on any copy
// already handed out to a consumer. Boxing a pointer instead copies only
// the pointer; every holder of that pointer keeps observing the same
// underlying struct, so `set` mutating the pointee through
// holder.Elem().Field(0) is visible everywhere the proxy was distributed.
// A pointer to a struct embedding an interface field satisfies the
// interface exactly as the struct itself does (method promotion includes
// *T whenever it includes T), so this is a transparent change in
// representation, not in what the proxy can do.
//
// Calling the proxy before the frame completes dereferences the nil
// embedded interface and panics, exactly as calling a method through a
// nil interface reference normally would — acceptable because real call
// graphs only invoke a cyclic dependency's methods after construction has
// finished, never during it.
func newInterfaceProxy(ifaceType reflect.Type) (reflect.Value, func(reflect.Value)) {
	if ifaceType.Kind() != reflect.Interface {
		panic(fmt.Sprintf("container: newInterfaceProxy called with non-interface type %s", ifaceType))
	}
	if ifaceType.Name() == "" {
		panic(fmt.Sprintf("container: cannot proxy unnamed interface type %s", ifaceType))
	}

	structType := reflect.StructOf([]reflect.StructField{
		{
			Name:      ifaceType.Name(),
			Type:      ifaceType,
			Anonymous: true,
		},
	})

	holder := reflect.New(structType)
	field := holder.Elem().Field(0)

	set := func(concrete reflect.Value) {
		field.Set(concrete)
	}

	return holder, set
}
