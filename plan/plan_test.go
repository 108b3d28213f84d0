package plan

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anvil/key"
)

type engine struct{}

type car struct {
	Engine engine `inject:""`
	Name   string `inject:"n" optional:"true"`
}

type sportsCar struct {
	car
	Turbo bool `inject:""`
}

func TestBuildPlanCollectsFieldsInEmbeddingOrder(t *testing.T) {
	b := NewBuilder(NewRegistry())

	p, err := b.Build(reflect.TypeOf(sportsCar{}))
	require.NoError(t, err)
	require.Len(t, p.Fields, 3)

	assert.Equal(t, key.Of(reflect.TypeOf(engine{})), p.Fields[0].Key)
	assert.False(t, p.Fields[0].Optional)

	assert.Equal(t, key.OfQualified(reflect.TypeOf(""), key.Named("n")), p.Fields[1].Key)
	assert.True(t, p.Fields[1].Optional)

	assert.Equal(t, key.Of(reflect.TypeOf(false)), p.Fields[2].Key)
}

func TestBuildPlanFallsBackToZeroArgConstructor(t *testing.T) {
	b := NewBuilder(NewRegistry())

	p, err := b.Build(reflect.TypeOf(car{}))
	require.NoError(t, err)
	assert.False(t, p.Constructor.hasFunc())
}

func TestBuildPlanUsesRegisteredConstructor(t *testing.T) {
	r := NewRegistry()
	r.RegisterConstructor(reflect.TypeOf(car{}), func(e engine) car { return car{Engine: e} })

	b := NewBuilder(r)
	p, err := b.Build(reflect.TypeOf(car{}))
	require.NoError(t, err)
	require.True(t, p.Constructor.hasFunc())
	require.Len(t, p.Constructor.Params, 1)
	assert.Equal(t, key.Of(reflect.TypeOf(engine{})), p.Constructor.Params[0].Key)
}

func TestBuildPlanRejectsCompetingConstructors(t *testing.T) {
	r := NewRegistry()
	r.RegisterConstructor(reflect.TypeOf(car{}), func() car { return car{} })
	r.RegisterConstructor(reflect.TypeOf(car{}), func(e engine) car { return car{Engine: e} })

	b := NewBuilder(r)
	_, err := b.Build(reflect.TypeOf(car{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "competing constructors")
}

func TestCachePlanForMemoises(t *testing.T) {
	calls := 0
	r := NewRegistry()
	b := NewBuilder(r)
	c := NewCache(b)

	// Spy on Build by re-wrapping the builder's underlying work: exercised
	// indirectly through Peek, since Builder itself has no hook — two
	// PlanFor calls must return the identical *Plan pointer.
	_ = calls

	p1, err := c.PlanFor(reflect.TypeOf(car{}))
	require.NoError(t, err)
	p2, err := c.PlanFor(reflect.TypeOf(car{}))
	require.NoError(t, err)

	assert.Same(t, p1, p2)

	peeked, ok := c.Peek(reflect.TypeOf(car{}))
	assert.True(t, ok)
	assert.Same(t, p1, peeked)
}
