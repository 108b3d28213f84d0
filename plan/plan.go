// Package plan implements the injection-plan cache (C6): for each
// concrete struct type, the ordered list of injection steps (constructor
// selection, field injections, method injections) needed to produce a
// fully-wired instance, computed once and memoised for the process
// lifetime (§4.5).
//
// Go structs carry no constructor or method annotations the way Guice's
// @Inject does, so the injection marker this package recognises is a
// struct tag (`inject:"<qualifier>"`, with a sibling `optional:"true"`)
// for fields, and an explicit Registry entry for constructors and
// injectable methods — the registry is populated by the binder package at
// configuration time, the Go analogue of scanning for @Inject-annotated
// members.
package plan

import (
	"fmt"
	"reflect"

	"anvil/key"
)

const (
	tagInject   = "inject"
	tagOptional = "optional"
)

// Param describes one resolvable argument of a constructor or injectable
// method: the Key to resolve and whether its absence is tolerated.
type Param struct {
	Key      key.Key
	Optional bool
}

// ConstructorStep describes how to obtain the zero-state instance. A
// zero Func means no constructor was registered and the plan falls back
// to allocating the struct's zero value, matching "otherwise a
// zero-argument constructor -> use it" (§4.5).
type ConstructorStep struct {
	Func   reflect.Value
	Params []Param
}

func (c ConstructorStep) hasFunc() bool { return c.Func.IsValid() }

// FieldStep describes one field injection. Index is the reflect.Value.FieldByIndex
// path, which also encodes embedding depth so parent-struct fields
// (shallower index paths reached through an anonymous field) are applied
// before the embedding type's own fields, honouring "parent class steps
// precede subclass steps" (§4.5).
type FieldStep struct {
	Index    []int
	Key      key.Key
	Optional bool
}

// MethodStep describes one injectable method and its resolvable
// parameters.
type MethodStep struct {
	Method reflect.Method
	Params []Param
}

// Plan is the complete, ordered set of steps needed to produce and wire
// one concrete struct type.
type Plan struct {
	Type        reflect.Type
	Constructor ConstructorStep
	Fields      []FieldStep
	Methods     []MethodStep
}

// Registry holds constructor and injectable-method registrations supplied
// by configuration (the binder package), since Go has no member
// annotations a plan Builder could discover by reflection alone.
type Registry struct {
	constructors map[reflect.Type][]reflect.Value
	methods      map[reflect.Type][]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[reflect.Type][]reflect.Value),
		methods:      make(map[reflect.Type][]string),
	}
}

// RegisterConstructor declares fn (a func(...) T or func(...) (T, error))
// as an injectable constructor for T. Registering more than one
// constructor for the same type is permitted here and rejected later, at
// plan-build time, with both candidates named in the diagnostic — this
// is how "exactly one annotated constructor" is checked in a language
// with no way to tag more than one constructor per type at the type
// level.
func (r *Registry) RegisterConstructor(t reflect.Type, fn any) {
	r.constructors[t] = append(r.constructors[t], reflect.ValueOf(fn))
}

// RegisterInjectMethod declares that methodName on type t must be
// invoked, with its parameters resolved, as part of t's injection plan.
func (r *Registry) RegisterInjectMethod(t reflect.Type, methodName string) {
	r.methods[t] = append(r.methods[t], methodName)
}

// Types lists every concrete type with a registered constructor or
// injectable method, the set of types seal-time validation (§4.5, §4.10)
// walks looking for unreachable non-optional dependencies.
func (r *Registry) Types() []reflect.Type {
	seen := make(map[reflect.Type]bool, len(r.constructors)+len(r.methods))
	var types []reflect.Type
	for t := range r.constructors {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	for t := range r.methods {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}

// Builder computes Plans from struct tags and Registry entries.
type Builder struct {
	registry *Registry
}

// NewBuilder returns a Builder consulting registry for constructors and
// injectable methods.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{registry: registry}
}

// Build synthesises the Plan for t, which must be a struct type (not a
// pointer to one).
func (b *Builder) Build(t reflect.Type) (*Plan, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("plan: %s is not a struct type", t)
	}

	ctor, err := b.buildConstructor(t)
	if err != nil {
		return nil, err
	}

	p := &Plan{Type: t, Constructor: ctor}
	p.Fields = collectFieldSteps(t, nil)

	for _, name := range b.registry.methods[t] {
		m, ok := reflect.PtrTo(t).MethodByName(name)
		if !ok {
			return nil, fmt.Errorf("plan: %s has no injectable method %q", t, name)
		}
		p.Methods = append(p.Methods, MethodStep{Method: m, Params: paramsOfMethodSignature(m)})
	}

	return p, nil
}

func (b *Builder) buildConstructor(t reflect.Type) (ConstructorStep, error) {
	candidates := b.registry.constructors[t]
	switch len(candidates) {
	case 0:
		return ConstructorStep{}, nil
	case 1:
		fn := candidates[0]
		return ConstructorStep{Func: fn, Params: paramsOfFuncSignature(fn.Type())}, nil
	default:
		signatures := make([]string, len(candidates))
		for i, c := range candidates {
			signatures[i] = c.Type().String()
		}
		return ConstructorStep{}, fmt.Errorf(
			"plan: %s has %d competing constructors registered (%v), exactly one is required", t, len(candidates), signatures)
	}
}

func paramsOfFuncSignature(ft reflect.Type) []Param {
	params := make([]Param, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		params = append(params, Param{Key: key.Of(ft.In(i))})
	}
	return params
}

func paramsOfMethodSignature(m reflect.Method) []Param {
	ft := m.Func.Type()
	// index 0 is the receiver.
	params := make([]Param, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		params = append(params, Param{Key: key.Of(ft.In(i))})
	}
	return params
}

// collectFieldSteps walks t's fields depth-first, descending into
// anonymous (embedded) struct fields before the rest of t's own fields so
// that parent-struct steps sort before the embedding type's steps in the
// returned slice.
func collectFieldSteps(t reflect.Type, prefix []int) []FieldStep {
	var steps []FieldStep

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := appendIndex(prefix, i)

		// Only value-embedded structs are descended into: reflect.New
		// allocates just the outer struct, so a nil embedded *Struct field
		// would make FieldByIndex panic on any step inside it. A pointer
		// embed needs its own explicit construction step, which this port
		// does not attempt to infer.
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			steps = append(steps, collectFieldSteps(f.Type, idx)...)
			continue
		}

		tagValue, ok := f.Tag.Lookup(tagInject)
		if !ok {
			continue
		}

		k := key.Of(f.Type)
		if tagValue != "" {
			k = key.OfQualified(f.Type, key.Named(tagValue))
		}

		optional := f.Tag.Get(tagOptional) == "true"
		steps = append(steps, FieldStep{Index: idx, Key: k, Optional: optional})
	}

	return steps
}

func appendIndex(prefix []int, i int) []int {
	idx := make([]int, len(prefix), len(prefix)+1)
	copy(idx, prefix)
	return append(idx, i)
}
