// Package binder implements the module/binder DSL from §6: the
// configuration-phase surface a caller uses to populate a binding.Table
// and plan.Registry before the container is sealed, generalizing the
// teacher's core.Module/ModuleBuilder (controllers and HTTP providers)
// into a fluent "bind a Key to a construction strategy" builder in the
// shape of Guice's own binder.
package binder

import (
	"fmt"
	"reflect"

	"anvil/binding"
	"anvil/container"
	dierrors "anvil/errors"
	"anvil/key"
	"anvil/plan"
	"anvil/provider"
)

// Qualifier re-exports key.Qualifier under the binder's own vocabulary.
type Qualifier = key.Qualifier

// Named builds a Qualifier identified by a plain string, Guice's
// Names.named(...).
func Named(name string) Qualifier { return key.Named(name) }

// NewQualifier builds a Qualifier identified by an arbitrary comparable
// marker value, Guice's custom @BindingAnnotation.
func NewQualifier(marker any) Qualifier { return key.Marker(marker) }

// Scope policies re-exported so a module never needs to import the
// binding package directly just to write `.In(binder.Singleton)`.
var (
	NoScope   = binding.NoScope
	Singleton = binding.SingletonScope
)

// InScope builds a policy referring to a named scope registered on the
// container via container.WithScope.
func InScope(name string) binding.ScopePolicy { return binding.NamedScope(name) }

// Module is the unit of configuration composition: a self-contained set
// of bindings, modeled directly on the teacher's core.Module, narrowed
// from (Imports, Exports, Providers, Controllers) to the one thing this
// container's configuration phase needs — a Configure callback.
type Module interface {
	Configure(b *Binder)
}

// ModuleFunc adapts a plain function to Module, the Go analogue of the
// teacher's BaseModule for callers who don't need a dedicated type.
type ModuleFunc func(b *Binder)

// Configure implements Module.
func (f ModuleFunc) Configure(b *Binder) { f(b) }

// Binder accumulates binding declarations and constructor/injectable-
// method registrations during the configuration phase. Modules never
// construct one directly; New creates it and hands it to each Module's
// Configure method.
type Binder struct {
	table     *binding.Table
	planReg   *plan.Registry
	pending   []*BindingBuilder
	collector *dierrors.Collector
	bound     *container.Container // set by New once container.New returns, for To(...) delegation
}

func newBinder() *Binder {
	return &Binder{table: binding.NewTable(), planReg: plan.NewRegistry(), collector: dierrors.NewCollector()}
}

// Install runs each module's Configure method against this binder, the
// composition step corresponding to the teacher's
// ModuleManager.RegisterModule followed by dependency resolution, except
// modules are flattened eagerly here rather than kept as a graph — a
// binder has no notion of "export" a dependent module can selectively
// see, every binding it collects lands in the same table.
func (b *Binder) Install(modules ...Module) {
	for _, m := range modules {
		m.Configure(b)
	}
}

// RegisterConstructor declares fn (a func(...) T or func(...) (T, error))
// as T's injectable constructor, inferring T from fn's return type.
func (b *Binder) RegisterConstructor(fn any) {
	ft := reflect.TypeOf(fn)
	if ft == nil || ft.Kind() != reflect.Func || ft.NumOut() == 0 {
		b.collector.Report(dierrors.Diagnostic{
			Source:  "RegisterConstructor",
			Type:    dierrors.TypeNoConstructor,
			Message: fmt.Sprintf("RegisterConstructor requires a func(...) T or func(...) (T, error), got %v", ft),
		})
		return
	}
	rt := ft.Out(0)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	b.planReg.RegisterConstructor(rt, fn)
}

// RegisterInjectMethod declares methodName on t (a struct type, or a
// pointer to one) as an injectable method whose parameters are resolved
// as part of t's injection plan.
func (b *Binder) RegisterInjectMethod(t reflect.Type, methodName string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	b.planReg.RegisterInjectMethod(t, methodName)
}

// Bind starts a binding for t with no qualifier.
func (b *Binder) Bind(t reflect.Type) *BindingBuilder {
	bb := &BindingBuilder{binder: b, key: key.Of(t), scope: binding.NoScope}
	b.pending = append(b.pending, bb)
	return bb
}

// BindQualified starts a binding for t under the given qualifier.
func (b *Binder) BindQualified(t reflect.Type, q Qualifier) *BindingBuilder {
	bb := &BindingBuilder{binder: b, key: key.OfQualified(t, q), scope: binding.NoScope}
	b.pending = append(b.pending, bb)
	return bb
}

// BindConstant binds a string qualifier directly to a literal value, the
// common case behind §8 seed scenario 2 ("bind string qualifier 'n' to
// literal '5'"). value is bound through ToInstance, so the binding is
// singleton-scoped.
func (b *Binder) BindConstant(name string, value string) {
	b.BindQualified(reflect.TypeOf(""), Named(name)).ToInstance(value)
}

// build replays every pending BindingBuilder into the table, reporting
// every Binder-level or Table-level error to the collector instead of
// stopping at the first one, so a module with several broken bindings
// surfaces all of them in a single aggregate failure (§4.10, §7
// "Duplicate binding -> aggregated failure"). Builders with a deferred
// To(implType) target close over b itself, so their factory can delegate
// into b.bound once New has finished constructing the Container — this
// must only ever be invoked after all pending bindings are walked, never
// while a factory runs.
func (b *Binder) build() (*binding.Table, *plan.Registry, error) {
	for _, bb := range b.pending {
		factory, err := bb.resolveFactory(b)
		if err != nil {
			b.collector.Report(dierrors.Diagnostic{
				Source:  bb.source,
				Type:    dierrors.TypeMissingDependency,
				Message: err.Error(),
			})
			continue
		}
		if err := b.table.Add(binding.Binding{
			Key:      bb.key,
			Source:   bb.source,
			Factory:  factory,
			Scope:    bb.scope,
			Strategy: bb.strategy,
		}); err != nil {
			b.collector.Report(dierrors.Diagnostic{
				Source:  bb.source,
				Type:    dierrors.TypeDuplicateBinding,
				Message: err.Error(),
			})
			continue
		}
	}

	if err := b.collector.Seal(); err != nil {
		return nil, nil, err
	}

	return b.table, b.planReg, nil
}

// BindingBuilder is the fluent per-binding configuration surface returned
// by Bind/BindQualified/BindConstant, mirroring Guice's
// `bind(Key).to(Impl).in(Scope)`. Every method mutates and returns the
// same builder. In, ToInstance and AsEagerSingleton each set the scope
// policy, so the last of them in the chain decides it; a factory set by
// ToInstance or ToProvider takes precedence over a To target.
type BindingBuilder struct {
	binder   *Binder
	key      key.Key
	source   any
	factory  provider.Func
	implType reflect.Type
	scope    binding.ScopePolicy
	strategy binding.LoadStrategy
}

// From annotates the binding with a diagnostics source (a module name, a
// call-site string) surfaced on Binding.Source.
func (bb *BindingBuilder) From(source any) *BindingBuilder {
	bb.source = source
	return bb
}

// To binds the key to the concrete implementation type implType,
// constructed the way an implicit just-in-time binding would be (its own
// constructor, field and method injections) but registered explicitly so
// an interface key resolves to it.
func (bb *BindingBuilder) To(implType reflect.Type) *BindingBuilder {
	if implType.Kind() == reflect.Ptr {
		implType = implType.Elem()
	}
	bb.implType = implType
	return bb
}

// ToInstance binds the key to a pre-built value. The binding is always
// effectively singleton (there is only ever the one instance to hand
// out), regardless of any scope set elsewhere in the chain.
func (bb *BindingBuilder) ToInstance(value any) *BindingBuilder {
	v := reflect.ValueOf(value)
	bb.factory = func(ctx any) (reflect.Value, error) { return v, nil }
	bb.scope = binding.SingletonScope
	return bb
}

// ToProvider binds the key to a raw provider.Func, the escape hatch for
// hand-written factories that need the provisioning context directly.
func (bb *BindingBuilder) ToProvider(factory provider.Func) *BindingBuilder {
	bb.factory = factory
	return bb
}

// In sets the binding's scope policy.
func (bb *BindingBuilder) In(scope binding.ScopePolicy) *BindingBuilder {
	bb.scope = scope
	return bb
}

// AsEagerSingleton marks the binding singleton-scoped and constructed
// during Seal rather than on first request (§4.4 "Eager singleton").
func (bb *BindingBuilder) AsEagerSingleton() *BindingBuilder {
	bb.scope = binding.SingletonScope
	bb.strategy = binding.Eager
	return bb
}

// resolveFactory produces the final provider.Func for this builder: the
// explicit one set by ToInstance/ToProvider, or, for a To(implType)
// binding, a factory that delegates into the eventual Container's
// resolver for implType once it exists.
func (bb *BindingBuilder) resolveFactory(b *Binder) (provider.Func, error) {
	if bb.factory != nil {
		return bb.factory, nil
	}
	if bb.implType == nil {
		return nil, fmt.Errorf("binder: binding for %s has no target (call To/ToInstance/ToProvider)", bb.key)
	}
	implKey := key.Of(bb.implType)
	return func(ctx any) (reflect.Value, error) {
		if b.bound == nil {
			return reflect.Value{}, fmt.Errorf("binder: binding for %s invoked before the container finished sealing", bb.key)
		}
		return b.bound.ResolveForBinding(ctx, implKey)
	}, nil
}

// New assembles every module's bindings into a sealed Container — the
// single public entry point replacing a hand-rolled
// table+registry+container wiring dance. Sealing runs validation, primes
// eager singletons, and executes static injections (§4.5), exactly as
// Container.Seal does.
func New(modules []Module, opts ...container.Option) (*container.Container, error) {
	b := newBinder()
	b.Install(modules...)

	table, planReg, err := b.build()
	if err != nil {
		return nil, err
	}

	c := container.New(table, planReg, opts...)
	b.bound = c

	if err := c.Seal(); err != nil {
		return nil, err
	}
	return c, nil
}
