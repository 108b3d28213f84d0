package container

import (
	"reflect"

	"anvil/key"
)

// resolveProviderOf implements §4.8: a dependency on "Provider of X"
// requires only a binding of X, and construction of X is deferred until
// the returned provider's Get is called. Building this dynamically means
// constructing a concrete provider.Provider[X] value via reflect, since X
// is only known as a reflect.Type here, not a compile-time type argument.
func (r *resolver) resolveProviderOf(k key.Key, elemDesc key.TypeDescriptor) reflect.Value {
	elemKey := k.WithType(elemDesc)
	fieldType := k.RawType()

	providerValue := reflect.New(fieldType).Elem()
	resolveField := providerValue.FieldByName("ResolveFunc")
	fnType := resolveField.Type()
	outType, errType := fnType.Out(0), fnType.Out(1)

	wrapped := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		// Each call gets a fresh provisioning context: a deferred Get() is
		// a brand-new logical resolution, not a continuation of whatever
		// call originally asked for this Provider[X].
		cc := newCallContext(nil)
		v, err := r.resolve(cc, elemKey)
		if err != nil {
			return []reflect.Value{reflect.Zero(outType), reflect.ValueOf(err)}
		}
		return []reflect.Value{convertForAssignment(v, outType), reflect.Zero(errType)}
	})
	resolveField.Set(wrapped)

	return providerValue
}

// convertForAssignment adapts v to target, handling the T/*T interchange
// (§3) the way field injection and binding resolution both need to.
func convertForAssignment(v reflect.Value, target reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(target)
	}
	if v.Type().AssignableTo(target) {
		return v
	}
	if v.Type().Kind() == reflect.Ptr && v.Type().Elem() == target && !v.IsNil() {
		return v.Elem()
	}
	if target.Kind() == reflect.Ptr && target.Elem() == v.Type() {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		return ptr
	}
	if v.Type().ConvertibleTo(target) {
		return v.Convert(target)
	}
	return v
}
