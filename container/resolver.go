package container

import (
	"fmt"
	"reflect"
	"sync"

	"anvil/binding"
	"anvil/cache"
	"anvil/convert"
	dierrors "anvil/errors"
	"anvil/key"
	"anvil/plan"
	"anvil/provider"
	"anvil/scope"
)

// resolver is the resolver (C8): given a Key and a provisioning context,
// produces a fully-injected value honouring scope, cycles, implicit
// bindings and constant conversion, trying the four strategies from §4.3
// in order.
type resolver struct {
	table     *binding.Table
	plans     *plan.Cache
	converter *convert.Converter
	scopeReg  *scope.Registry
	monitor   *scope.Monitor

	scopedMu sync.Mutex
	scoped   map[string]provider.Func // Key.String() -> scoped factory, built once per binding

	implicitScopes map[reflect.Type]binding.ScopePolicy
	implicit       *cache.Cache[*implicitEntry]

	implicitScopedMu sync.Mutex
	implicitScoped   map[reflect.Type]provider.Func
}

type implicitEntry struct {
	plan *plan.Plan
}

// newResolver builds a resolver over a sealed table, pre-wrapping every
// explicit binding's raw factory with its scope once (§3 invariant:
// "applying the scope to the factory produces a Provider"), so a
// singleton binding's cache cell is shared across every subsequent
// request rather than rebuilt per call.
func newResolver(
	table *binding.Table,
	plans *plan.Cache,
	converter *convert.Converter,
	scopeReg *scope.Registry,
	monitor *scope.Monitor,
	implicitScopes map[reflect.Type]binding.ScopePolicy,
) *resolver {
	r := &resolver{
		table:          table,
		plans:          plans,
		converter:      converter,
		scopeReg:       scopeReg,
		monitor:        monitor,
		scoped:         make(map[string]provider.Func),
		implicitScopes: implicitScopes,
		implicit:       cache.New[*implicitEntry](),
		implicitScoped: make(map[reflect.Type]provider.Func),
	}
	for _, b := range table.IterateAll() {
		r.scoped[b.Key.String()] = r.scopeFor(b.Scope).Wrap(b.Key, b.Factory)
	}
	return r
}

func (r *resolver) scopeFor(policy binding.ScopePolicy) scope.Scope {
	switch policy.Kind {
	case binding.Singleton:
		return scope.NewSingleton(r.monitor)
	case binding.Named:
		if s, ok := r.scopeReg.Lookup(policy.Name); ok {
			return s
		}
		return scope.None()
	default:
		return scope.None()
	}
}

// resolve is the resolver's single entry point. It wraps resolveStrategy
// with the construction-frame bookkeeping from §4.3's "Cycle handling":
// a fresh frame is pushed for k, a re-entrant request for the same key
// either returns a deferred-reference proxy (interface Keys) or fails
// with a circular-dependency diagnostic (everything else).
func (r *resolver) resolve(cc *callContext, k key.Key) (reflect.Value, error) {
	f, fresh := cc.beginFrame(k)
	if !fresh {
		if v, err, ready := f.snapshot(); ready {
			return v, augmentInjectionPoint(err, cc.injectionPoint)
		}
		if k.RawType().Kind() == reflect.Interface {
			proxy := f.proxyOrInstall(func() (reflect.Value, func(reflect.Value)) {
				return newInterfaceProxy(k.RawType())
			})
			return proxy, nil
		}
		return reflect.Value{}, augmentInjectionPoint(dierrors.Newf(dierrors.TypeCircularDependency, nil,
			"circular dependency resolving %s", k), cc.injectionPoint)
	}
	defer cc.endFrame(k)

	v, err := r.resolveStrategy(cc, k)
	f.complete(v, err)
	return v, augmentInjectionPoint(err, cc.injectionPoint)
}

// augmentInjectionPoint sets err's InjectionPoint to point, from the
// provisioning context's current slot (§4.6, §7 "runtime errors are
// augmented with the current injection-point description from the
// provisioning context"), unless err already carries a more deeply
// nested injection point or isn't a *errors.AppError at all.
func augmentInjectionPoint(err error, point string) error {
	if err == nil || point == "" {
		return err
	}
	if ae, ok := err.(*dierrors.AppError); ok {
		return ae.WithInjectionPoint(point)
	}
	return err
}

func (r *resolver) resolveStrategy(cc *callContext, k key.Key) (reflect.Value, error) {
	if b, ok := r.table.Get(k); ok {
		return r.invokeBinding(cc, b)
	}

	if elemDesc, ok := k.Type.IsProviderOf(); ok {
		return r.resolveProviderOf(k, elemDesc), nil
	}

	if v, handled, err := r.tryConstantConversion(cc, k); handled {
		return v, err
	}

	if v, handled, err := r.tryImplicitBinding(cc, k); handled {
		return v, err
	}

	return reflect.Value{}, r.missingBindingError(k)
}

func (r *resolver) invokeBinding(cc *callContext, b binding.Binding) (reflect.Value, error) {
	factory := r.scoped[b.Key.String()]
	v, err := factory(cc)
	if err != nil {
		return reflect.Value{}, wrapProviderFailure(err, b.Key)
	}
	if !v.IsValid() {
		return reflect.Value{}, dierrors.New(dierrors.TypeNilProvision,
			fmt.Sprintf("binding for %s produced no value", b.Key), nil)
	}
	return v, nil
}

func wrapProviderFailure(err error, k key.Key) error {
	if _, ok := err.(*dierrors.AppError); ok {
		return err
	}
	return dierrors.Newf(dierrors.TypeProviderFailure, err, "provider for %s failed", k)
}

// wrapProviderFailureAt wraps a constructor/method invocation failure and
// augments it with point in one step, for call sites outside resolve()
// itself (which augments its own return value automatically).
func wrapProviderFailureAt(err error, k key.Key, point string) error {
	return augmentInjectionPoint(wrapProviderFailure(err, k), point)
}

func (r *resolver) missingBindingError(k key.Key) error {
	others := r.table.QualifiersFor(k.RawType())
	if len(others) == 0 {
		return dierrors.Newf(dierrors.TypeMissingBinding, nil, "no binding for %s", k)
	}
	return dierrors.Newf(dierrors.TypeMissingBinding, nil,
		"no binding for %s (other qualifiers bound for %s: %v)", k, k.RawType(), others)
}
