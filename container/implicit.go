package container

import (
	"fmt"
	"reflect"

	dierrors "anvil/errors"
	"anvil/key"
	"anvil/plan"
	"anvil/provider"
)

// tryImplicitBinding implements §4.3 step 4: a concrete, non-array,
// non-interface type gets a just-in-time binding synthesised from its
// injection plan, wrapped in whatever scope WithImplicitScope assigned to
// that type (or left unscoped), memoised at-most-once per type.
func (r *resolver) tryImplicitBinding(cc *callContext, k key.Key) (reflect.Value, bool, error) {
	rt := k.RawType()
	if rt.Kind() != reflect.Struct {
		return reflect.Value{}, false, nil
	}

	entry, err := r.implicit.GetOrCreate(rt, func() (*implicitEntry, error) {
		p, perr := r.plans.PlanFor(rt)
		if perr != nil {
			return nil, dierrors.Newf(dierrors.TypeNoConstructor, perr, "no eligible constructor for %s", rt)
		}
		return &implicitEntry{plan: p}, nil
	})
	if err != nil {
		return reflect.Value{}, true, err
	}

	factory := r.implicitFactoryFor(rt, entry)
	v, err := factory(cc)
	if err != nil {
		return reflect.Value{}, true, err
	}
	return convertForAssignment(v, k.Type.ReflectType()), true, nil
}

// implicitFactoryFor returns the scoped provider.Func constructing rt,
// building and caching it once so a singleton-scoped implicit binding's
// cache cell persists across requests exactly like an explicit one.
func (r *resolver) implicitFactoryFor(rt reflect.Type, entry *implicitEntry) provider.Func {
	r.implicitScopedMu.Lock()
	defer r.implicitScopedMu.Unlock()

	if f, ok := r.implicitScoped[rt]; ok {
		return f
	}

	raw := provider.Func(func(ctx any) (reflect.Value, error) {
		cc, ok := ctx.(*callContext)
		if !ok {
			return reflect.Value{}, dierrors.New(dierrors.TypeProviderFailure,
				"implicit binding invoked without a provisioning context", nil)
		}
		return r.constructInstance(cc, entry.plan)
	})

	scoped := r.scopeFor(r.implicitScopes[rt]).Wrap(key.Of(rt), raw)
	r.implicitScoped[rt] = scoped
	return scoped
}

// constructInstance runs the full injection-plan pipeline from §4.3's
// "Order of construction steps per instance": invoke the constructor (or
// allocate the zero value), then apply field and method injections in
// plan order.
func (r *resolver) constructInstance(cc *callContext, p *plan.Plan) (reflect.Value, error) {
	ptr := reflect.New(p.Type)
	elem := ptr.Elem()

	if p.Constructor.hasFunc() {
		point := "constructor of " + p.Type.String()
		args, err := r.resolveParams(cc, p.Constructor.Params, point)
		if err != nil {
			return reflect.Value{}, err
		}
		results := p.Constructor.Func.Call(args)
		if len(results) == 2 && !results[1].IsNil() {
			return reflect.Value{}, wrapProviderFailureAt(results[1].Interface().(error), key.Of(p.Type), point)
		}
		result := results[0]
		if result.Kind() == reflect.Ptr {
			ptr = result
			elem = ptr.Elem()
		} else {
			elem.Set(result)
		}
	}

	for _, step := range p.Fields {
		point := fmt.Sprintf("field %s of %s", fieldName(p.Type, step.Index), p.Type)
		v, err := r.resolve(cc.withInjectionPoint(point), step.Key)
		if err != nil {
			if step.Optional {
				continue
			}
			return reflect.Value{}, err
		}
		field := elem.FieldByIndex(step.Index)
		field.Set(convertForAssignment(v, field.Type()))
	}

	for _, step := range p.Methods {
		point := step.Method.Name + " of " + p.Type.String()
		args, err := r.resolveParams(cc, step.Params, point)
		if err != nil {
			return reflect.Value{}, err
		}
		callArgs := append([]reflect.Value{ptr}, args...)
		results := step.Method.Func.Call(callArgs)
		if len(results) == 1 && !results[0].IsNil() {
			return reflect.Value{}, wrapProviderFailureAt(results[0].Interface().(error), key.Of(p.Type), point)
		}
	}

	return ptr, nil
}

// fieldName renders the name of the field at index within t, for
// injection-point diagnostics (§7); index may descend through an
// embedded struct, which reflect.Type.FieldByIndex follows natively.
func fieldName(t reflect.Type, index []int) string {
	return t.FieldByIndex(index).Name
}

func (r *resolver) resolveParams(cc *callContext, params []plan.Param, point string) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(params))
	for i, param := range params {
		paramPoint := fmt.Sprintf("%s, parameter %d", point, i)
		v, err := r.resolve(cc.withInjectionPoint(paramPoint), param.Key)
		if err != nil {
			if param.Optional {
				args[i] = reflect.Zero(param.Key.RawType())
				continue
			}
			return nil, err
		}
		args[i] = convertForAssignment(v, param.Key.Type.ReflectType())
	}
	return args, nil
}
