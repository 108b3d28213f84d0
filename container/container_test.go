package container

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"anvil/binding"
	"anvil/convert"
	"anvil/key"
	"anvil/plan"
	"anvil/provider"
	"anvil/scope"
)

// harness bundles the pieces newResolver needs, built directly (not
// through the binder package, which owns turning module DSL calls into a
// binding.Table) so each test controls its table contents precisely.
type harness struct {
	table    *binding.Table
	planReg  *plan.Registry
	plans    *plan.Cache
	res      *resolver
	monitor  *scope.Monitor
	scopeReg *scope.Registry
}

func newHarness(t *testing.T, bindings []binding.Binding, implicitScopes map[reflect.Type]binding.ScopePolicy) *harness {
	t.Helper()
	table := binding.NewTable()
	for _, b := range bindings {
		require.NoError(t, table.Add(b))
	}
	table.Seal()

	planReg := plan.NewRegistry()
	plans := plan.NewCache(plan.NewBuilder(planReg))
	converter := convert.New()
	scopeReg := scope.NewRegistry()
	monitor := scope.NewMonitor()
	if implicitScopes == nil {
		implicitScopes = make(map[reflect.Type]binding.ScopePolicy)
	}
	res := newResolver(table, plans, converter, scopeReg, monitor, implicitScopes)

	return &harness{table: table, planReg: planReg, plans: plans, res: res, monitor: monitor, scopeReg: scopeReg}
}

func counterFactory(n *int) provider.Func {
	return func(ctx any) (reflect.Value, error) {
		*n++
		return reflect.ValueOf(*n), nil
	}
}

func TestResolveExplicitSingletonBindingCachesAcrossCalls(t *testing.T) {
	var calls int
	h := newHarness(t, []binding.Binding{
		{Key: key.Of(reflect.TypeOf(0)), Factory: counterFactory(&calls), Scope: binding.SingletonScope},
	}, nil)

	cc := newCallContext(context.Background())
	v1, err := h.res.resolve(cc, key.Of(reflect.TypeOf(0)))
	require.NoError(t, err)
	v2, err := h.res.resolve(cc, key.Of(reflect.TypeOf(0)))
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.Equal(t, v1.Interface(), v2.Interface())
}

func TestResolveUnscopedBindingInvokesEveryCall(t *testing.T) {
	var calls int
	h := newHarness(t, []binding.Binding{
		{Key: key.Of(reflect.TypeOf(0)), Factory: counterFactory(&calls), Scope: binding.NoScope},
	}, nil)

	cc := newCallContext(context.Background())
	v1, err := h.res.resolve(cc, key.Of(reflect.TypeOf(0)))
	require.NoError(t, err)
	v2, err := h.res.resolve(cc, key.Of(reflect.TypeOf(0)))
	require.NoError(t, err)

	require.Equal(t, 2, calls)
	require.NotEqual(t, v1.Interface(), v2.Interface())
}

type widget struct {
	Name string
}

func TestResolveProviderOfDefersConstructionToGetCall(t *testing.T) {
	var calls int
	h := newHarness(t, []binding.Binding{
		{Key: key.Of(reflect.TypeOf(widget{})), Factory: func(ctx any) (reflect.Value, error) {
			calls++
			return reflect.ValueOf(widget{Name: "w"}), nil
		}, Scope: binding.NoScope},
	}, nil)

	providerKey := key.Of(reflect.TypeOf(provider.Provider[widget]{}))
	cc := newCallContext(context.Background())

	v, err := h.res.resolve(cc, providerKey)
	require.NoError(t, err)
	require.Equal(t, 0, calls, "constructing the Provider itself must not invoke the underlying binding")

	p := v.Interface().(provider.Provider[widget])
	w1, err := p.Get()
	require.NoError(t, err)
	w2, err := p.Get()
	require.NoError(t, err)

	require.Equal(t, 2, calls, "each Get() call resolves again")
	require.Equal(t, "w", w1.Name)
	require.Equal(t, "w", w2.Name)
}

func TestResolveConstantConversionFromQualifiedStringBinding(t *testing.T) {
	h := newHarness(t, []binding.Binding{
		{
			Key:     key.OfQualified(reflect.TypeOf(""), key.Named("port")),
			Factory: func(ctx any) (reflect.Value, error) { return reflect.ValueOf("8080"), nil },
			Scope:   binding.NoScope,
		},
	}, nil)

	cc := newCallContext(context.Background())
	v, err := h.res.resolve(cc, key.OfQualified(reflect.TypeOf(0), key.Named("port")))
	require.NoError(t, err)
	require.Equal(t, 8080, v.Interface())
}

type engine struct{}

type car struct {
	Engine *engine `inject:""`
	Radio  *string `inject:"" optional:"true"`
}

func TestResolveImplicitBindingInjectsFieldsAndSkipsMissingOptional(t *testing.T) {
	h := newHarness(t, []binding.Binding{
		{Key: key.Of(reflect.TypeOf(&engine{})), Factory: func(ctx any) (reflect.Value, error) {
			return reflect.ValueOf(&engine{}), nil
		}, Scope: binding.SingletonScope},
	}, nil)

	cc := newCallContext(context.Background())
	v, err := h.res.resolve(cc, key.Of(reflect.TypeOf(&car{})))
	require.NoError(t, err)

	c := v.Interface().(*car)
	require.NotNil(t, c.Engine)
	require.Nil(t, c.Radio)
}

// stereo's only dependency is a *int with no binding: int is not a struct,
// so no implicit binding can serve it.
type stereo struct {
	Volume *int `inject:""`
}

func TestResolveImplicitBindingFailsMissingRequiredDependency(t *testing.T) {
	h := newHarness(t, nil, nil)

	cc := newCallContext(context.Background())
	_, err := h.res.resolve(cc, key.Of(reflect.TypeOf(&stereo{})))
	require.Error(t, err)
}

func TestResolveMissingBindingListsOtherQualifiers(t *testing.T) {
	h := newHarness(t, []binding.Binding{
		{
			Key:     key.OfQualified(reflect.TypeOf(0), key.Named("primary")),
			Factory: func(ctx any) (reflect.Value, error) { return reflect.ValueOf(1), nil },
			Scope:   binding.NoScope,
		},
	}, nil)

	cc := newCallContext(context.Background())
	_, err := h.res.resolve(cc, key.Of(reflect.TypeOf(0)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "primary")
}

// Interfaces and implementations for the cyclic-interface-proxy scenario
// (§8 scenario 4): IA -> A, IB -> B, each referencing the other only
// through the opposing interface, resolved entirely via implicit
// construction reached through the two interface bindings.
type iaIface interface {
	Hello() string
}

type ibIface interface {
	World() string
}

type aStruct struct {
	IB ibIface `inject:""`
}

func (a *aStruct) Hello() string { return "A" }

type bStruct struct {
	IA iaIface `inject:""`
}

func (b *bStruct) World() string { return "B" }

func TestResolveCyclicInterfaceProxyCrossWiresBothSides(t *testing.T) {
	iaType := reflect.TypeOf((*iaIface)(nil)).Elem()
	ibType := reflect.TypeOf((*ibIface)(nil)).Elem()
	aType := reflect.TypeOf(&aStruct{})
	bType := reflect.TypeOf(&bStruct{})

	var res *resolver
	delegateTo := func(implType reflect.Type) provider.Func {
		return func(ctx any) (reflect.Value, error) {
			cc, ok := ctx.(*callContext)
			if !ok {
				t.Fatalf("factory invoked without a *callContext")
			}
			return res.resolve(cc, key.Of(implType))
		}
	}

	table := binding.NewTable()
	require.NoError(t, table.Add(binding.Binding{Key: key.Of(iaType), Factory: delegateTo(aType), Scope: binding.NoScope}))
	require.NoError(t, table.Add(binding.Binding{Key: key.Of(ibType), Factory: delegateTo(bType), Scope: binding.NoScope}))
	table.Seal()

	planReg := plan.NewRegistry()
	plans := plan.NewCache(plan.NewBuilder(planReg))
	converter := convert.New()
	scopeReg := scope.NewRegistry()
	monitor := scope.NewMonitor()
	res = newResolver(table, plans, converter, scopeReg, monitor, map[reflect.Type]binding.ScopePolicy{})

	cc := newCallContext(context.Background())
	v, err := res.resolve(cc, key.Of(iaType))
	require.NoError(t, err)

	a, ok := v.Interface().(*aStruct)
	require.True(t, ok)
	require.Equal(t, "B", a.IB.World())

	b, ok := a.IB.(*bStruct)
	require.True(t, ok)
	require.Equal(t, "A", b.IA.Hello())
}

func TestInjectMembersAppliesFieldInjections(t *testing.T) {
	table := binding.NewTable()
	require.NoError(t, table.Add(binding.Binding{
		Key:     key.Of(reflect.TypeOf(&engine{})),
		Factory: func(ctx any) (reflect.Value, error) { return reflect.ValueOf(&engine{}), nil },
		Scope:   binding.SingletonScope,
	}))
	table.Seal()

	planReg := plan.NewRegistry()
	c := newContainer(table, planReg, Options{})

	target := &car{}
	err := c.InjectMembers(context.Background(), target)
	require.NoError(t, err)
	require.NotNil(t, target.Engine)
}

func TestFindBindingsByTypeReturnsInsertionOrder(t *testing.T) {
	table := binding.NewTable()
	k1 := key.OfQualified(reflect.TypeOf(0), key.Named("a"))
	k2 := key.OfQualified(reflect.TypeOf(0), key.Named("b"))
	require.NoError(t, table.Add(binding.Binding{Key: k1, Factory: func(ctx any) (reflect.Value, error) { return reflect.ValueOf(1), nil }}))
	require.NoError(t, table.Add(binding.Binding{Key: k2, Factory: func(ctx any) (reflect.Value, error) { return reflect.ValueOf(2), nil }}))

	planReg := plan.NewRegistry()
	c := newContainer(table, planReg, Options{})

	found := c.FindBindingsByType(reflect.TypeOf(0))
	require.Len(t, found, 2)
	require.Equal(t, "a", found[0].Key.Qualifier.String())
	require.Equal(t, "b", found[1].Key.Qualifier.String())
}
