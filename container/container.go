// Package container implements the provisioning context (C7), the
// resolver (C8) and the container facade (C12): the public entry points a
// caller uses to request a value by Key, inject members into a
// pre-existing object, or list bindings by type.
package container

import (
	"context"
	"fmt"
	"log"
	"reflect"

	"anvil/binding"
	"anvil/convert"
	dierrors "anvil/errors"
	"anvil/key"
	"anvil/plan"
	"anvil/scope"
)

// Options configures a Container at construction time (§10.3: plain
// option structs with functional-option constructors, the teacher's
// GoblinAppOptions idiom, not a parsed config file).
type Options struct {
	// Scopes registers additional named scopes beyond the three
	// intrinsic ones, keyed by the identifier bindings reference via
	// binding.NamedScope (§4.4 "Additional named scopes").
	Scopes map[string]scope.Scope
	// ImplicitScopes optionally assigns a scope policy to a just-in-time
	// implicit binding for a concrete type (§4.3 step 4: "wrap it in the
	// type's scope ... if the type is annotated as scoped").
	ImplicitScopes map[reflect.Type]binding.ScopePolicy
	// StaticInjections runs once during Seal, after eager singletons are
	// primed (§4.5 "Static injections").
	StaticInjections []func(*Container) error
}

// Option mutates Options; WithX constructors build these the way the
// teacher's container.WithScope(id, scope) style functional options do.
type Option func(*Options)

// WithScope registers a named scope under id.
func WithScope(id string, s scope.Scope) Option {
	return func(o *Options) {
		if o.Scopes == nil {
			o.Scopes = make(map[string]scope.Scope)
		}
		o.Scopes[id] = s
	}
}

// WithImplicitScope assigns policy to every just-in-time binding for t.
func WithImplicitScope(t reflect.Type, policy binding.ScopePolicy) Option {
	return func(o *Options) {
		if o.ImplicitScopes == nil {
			o.ImplicitScopes = make(map[reflect.Type]binding.ScopePolicy)
		}
		o.ImplicitScopes[t] = policy
	}
}

// WithStaticInjection registers a function to run once at Seal time,
// after eager singletons are constructed.
func WithStaticInjection(fn func(*Container) error) Option {
	return func(o *Options) {
		o.StaticInjections = append(o.StaticInjections, fn)
	}
}

// Container is the facade (C12): the only type application code holds a
// reference to once the container is sealed.
type Container struct {
	table      *binding.Table
	planReg    *plan.Registry
	plans      *plan.Cache
	converter  *convert.Converter
	scopeReg   *scope.Registry
	monitor    *scope.Monitor
	collector  *dierrors.Collector
	resolver   *resolver
	opts       Options
	eagerTypes []key.Key
	sealed     bool
}

// New builds an unsealed Container over table and planReg, which the
// binder package populates during the configuration phase. Application
// code that assembles its own binding.Table/plan.Registry by hand (rather
// than through the binder DSL) can call this directly too.
func New(table *binding.Table, planReg *plan.Registry, opts ...Option) *Container {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	c := newContainer(table, planReg, o)
	c.opts = o
	return c
}

// Seal freezes the container: see the unexported seal for the full
// validate/prime-eager-singletons/run-static-injections sequence (§4.5).
func (c *Container) Seal() error {
	return c.seal(c.opts)
}

// ResolveForBinding lets a binding's factory delegate back into this
// container's resolver using the caller's own provisioning context
// (rather than starting a fresh one), so a "bind interface to
// implementation type" binding built by the binder package preserves
// cycle detection across the delegation exactly like every built-in
// resolution strategy does. Application code should use Get/MustGet
// instead; this exists for binder-constructed factories only.
func (c *Container) ResolveForBinding(ctx any, k key.Key) (reflect.Value, error) {
	cc, ok := ctx.(*callContext)
	if !ok {
		return reflect.Value{}, fmt.Errorf("container: ResolveForBinding called outside a provisioning context")
	}
	return c.resolver.resolve(cc, k)
}

// newContainer constructs an unsealed Container over the given plan
// registry, wired with fresh per-container state: its own plan cache, its
// own coarse Monitor (§4.4), and
// a scope registry seeded with any named scopes the options supply. It
// is unexported: application code builds one through the binder package,
// which owns collecting bindings before sealing.
func newContainer(table *binding.Table, planReg *plan.Registry, opts Options) *Container {
	scopeReg := scope.NewRegistry()
	for id, s := range opts.Scopes {
		scopeReg.Register(id, s)
	}

	c := &Container{
		table:     table,
		planReg:   planReg,
		plans:     plan.NewCache(plan.NewBuilder(planReg)),
		converter: convert.New(),
		scopeReg:  scopeReg,
		monitor:   scope.NewMonitor(),
		collector: dierrors.NewCollector(),
	}

	implicitScopes := opts.ImplicitScopes
	if implicitScopes == nil {
		implicitScopes = make(map[reflect.Type]binding.ScopePolicy)
	}

	c.resolver = newResolver(table, c.plans, c.converter, scopeReg, c.monitor, implicitScopes)
	return c
}

// seal freezes table, validates the configuration and primes eager
// singletons / static injections, matching §2's "container sealing
// triggers validation, which primes C6 injection plans and resolves
// static eager singletons" data flow.
func (c *Container) seal(opts Options) error {
	log.Printf("container: sealing with %d binding(s)", len(c.table.IterateAll()))

	c.table.Seal()

	log.Printf("container: validating %d binding(s)", len(c.table.IterateAll()))
	for _, b := range c.table.IterateAll() {
		if b.Strategy == binding.Eager {
			c.eagerTypes = append(c.eagerTypes, b.Key)
		}
	}

	c.validate()

	if err := c.collector.Seal(); err != nil {
		return err
	}

	log.Printf("container: priming %d eager binding(s)", len(c.eagerTypes))
	for _, k := range c.eagerTypes {
		if _, err := c.resolver.resolve(newCallContext(nil), k); err != nil {
			return fmt.Errorf("container: eager binding %s failed: %w", k, err)
		}
	}

	log.Printf("container: running %d static injection(s)", len(opts.StaticInjections))
	for _, fn := range opts.StaticInjections {
		if err := fn(c); err != nil {
			return fmt.Errorf("container: static injection failed: %w", err)
		}
	}

	c.sealed = true
	return nil
}

// validate walks every type the binder registered a constructor or
// injectable method for, reporting unreachable non-optional dependencies
// to the collector (§4.5 Invariant: "validated during sealing...
// unresolvable non-optional dependencies are reported then"; §7 "Missing
// dependency -> collected at seal if required", "No eligible constructor
// -> collected at seal when reachable"). Types reachable only through an
// implicit just-in-time binding discovered purely at request time are out
// of scope here, matching the resolver's own "struct types always have an
// implicit binding" leniency: validate only refuses what the resolver
// itself could never serve.
func (c *Container) validate() {
	visiting := make(map[reflect.Type]bool)
	for _, t := range c.planReg.Types() {
		c.validateType(t, visiting)
	}
}

func (c *Container) validateType(t reflect.Type, visiting map[reflect.Type]bool) {
	if visiting[t] {
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	p, err := c.plans.PlanFor(t)
	if err != nil {
		c.collector.Report(dierrors.Diagnostic{
			Source:  t.String(),
			Type:    dierrors.TypeNoConstructor,
			Message: err.Error(),
		})
		return
	}

	for i, param := range p.Constructor.Params {
		point := fmt.Sprintf("constructor of %s, parameter %d", t, i)
		c.validateParam(param.Key, param.Optional, point, visiting)
	}
	for _, step := range p.Fields {
		point := fmt.Sprintf("field %v of %s", step.Index, t)
		c.validateParam(step.Key, step.Optional, point, visiting)
	}
	for _, step := range p.Methods {
		for i, param := range step.Params {
			point := fmt.Sprintf("%s of %s, parameter %d", step.Method.Name, t, i)
			c.validateParam(param.Key, param.Optional, point, visiting)
		}
	}
}

// validateParam reports k as unreachable unless it can be satisfied by an
// explicit binding, a Provider-of-T unwrap, a qualified constant-string
// fallback, or (recursively) an implicit binding over a concrete struct
// type — the same four strategies resolveStrategy tries in order, minus
// actually invoking any factory.
func (c *Container) validateParam(k key.Key, optional bool, point string, visiting map[reflect.Type]bool) {
	if _, ok := c.table.Get(k); ok {
		return
	}
	if _, ok := k.Type.IsProviderOf(); ok {
		return
	}
	if k.RawType() != stringType {
		if _, ok := c.table.Get(key.OfQualified(stringType, k.Qualifier)); ok {
			return
		}
	}
	if rt := k.RawType(); rt.Kind() == reflect.Struct {
		c.validateType(rt, visiting)
		return
	}
	if optional {
		return
	}
	c.collector.Report(dierrors.Diagnostic{
		Source:  point,
		Type:    dierrors.TypeMissingDependency,
		Message: fmt.Sprintf("no binding for %s", k),
	})
}

// Sealed reports whether the container has finished sealing.
func (c *Container) Sealed() bool { return c.sealed }

// GetKey resolves k against an internally-created provisioning context,
// the untyped counterpart to Get[T] for callers that only have a Key
// (diagnostics tooling, static-injection callbacks).
func (c *Container) GetKey(ctx context.Context, k key.Key) (any, error) {
	cc := newCallContext(ctx)
	v, err := c.resolver.resolve(cc, k)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// InjectMembers applies target's injection plan to an already-allocated
// value without calling a constructor. ptr must be a non-nil pointer to a
// struct.
func (c *Container) InjectMembers(ctx context.Context, ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container: InjectMembers requires a pointer to struct, got %T", ptr)
	}

	p, err := c.plans.PlanFor(v.Elem().Type())
	if err != nil {
		return err
	}

	cc := newCallContext(ctx)
	elem := v.Elem()
	for _, step := range p.Fields {
		point := fmt.Sprintf("field %s of %s", fieldName(elem.Type(), step.Index), elem.Type())
		val, err := c.resolver.resolve(cc.withInjectionPoint(point), step.Key)
		if err != nil {
			if step.Optional {
				continue
			}
			return err
		}
		field := elem.FieldByIndex(step.Index)
		field.Set(convertForAssignment(val, field.Type()))
	}
	for _, step := range p.Methods {
		point := step.Method.Name + " of " + elem.Type().String()
		args, err := c.resolver.resolveParams(cc, step.Params, point)
		if err != nil {
			return err
		}
		callArgs := append([]reflect.Value{v}, args...)
		results := step.Method.Func.Call(callArgs)
		if len(results) == 1 && !results[0].IsNil() {
			return wrapProviderFailureAt(results[0].Interface().(error), key.Of(elem.Type()), point)
		}
	}
	return nil
}

// FindBindingsByType lists every binding whose raw type equals t, in
// configuration-insertion order (§4.11, supplemented in §11.1 to be a
// public, Source-carrying listing operation rather than just an internal
// debugging aid).
func (c *Container) FindBindingsByType(t reflect.Type) []binding.Binding {
	return c.table.FindByRawType(t)
}
