package binder_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"anvil/binder"
	"anvil/container"
)

type engineIface interface {
	Power() int
}

type v8 struct{}

func (v8) Power() int { return 8 }

type car struct {
	Engine engineIface `inject:""`
	Port   int         `inject:"port"`
}

func TestNewWiresBindToAndConstantInjection(t *testing.T) {
	module := binder.ModuleFunc(func(b *binder.Binder) {
		b.Bind(reflect.TypeOf((*engineIface)(nil)).Elem()).To(reflect.TypeOf(v8{}))
		b.BindConstant("port", "8080")
	})

	c, err := binder.New([]binder.Module{module})
	require.NoError(t, err)

	got, err := container.Get[*car](c, context.Background())
	require.NoError(t, err)
	require.Equal(t, 8, got.Engine.Power())
	require.Equal(t, 8080, got.Port)
}

type resource struct {
	N int
}

func TestNewBasicSingletonAndUnscopedBindings(t *testing.T) {
	var built int
	module := binder.ModuleFunc(func(b *binder.Binder) {
		b.BindQualified(reflect.TypeOf(&resource{}), binder.Named("s")).
			ToProvider(func(ctx any) (reflect.Value, error) {
				built++
				return reflect.ValueOf(&resource{N: built}), nil
			}).
			In(binder.Singleton)
		b.BindQualified(reflect.TypeOf(&resource{}), binder.Named("p")).
			ToProvider(func(ctx any) (reflect.Value, error) {
				built++
				return reflect.ValueOf(&resource{N: built}), nil
			}).
			In(binder.NoScope)
	})

	c, err := binder.New([]binder.Module{module})
	require.NoError(t, err)

	s1, err := container.GetNamed[*resource](c, context.Background(), "s")
	require.NoError(t, err)
	s2, err := container.GetNamed[*resource](c, context.Background(), "s")
	require.NoError(t, err)
	require.Same(t, s1, s2)

	p1, err := container.GetNamed[*resource](c, context.Background(), "p")
	require.NoError(t, err)
	p2, err := container.GetNamed[*resource](c, context.Background(), "p")
	require.NoError(t, err)
	require.NotSame(t, p1, p2)
}

func TestNewReportsBindingWithNoTarget(t *testing.T) {
	module := binder.ModuleFunc(func(b *binder.Binder) {
		b.Bind(reflect.TypeOf((*engineIface)(nil)).Elem())
	})

	_, err := binder.New([]binder.Module{module})
	require.Error(t, err)
}

func TestNewReportsDuplicateBinding(t *testing.T) {
	module := binder.ModuleFunc(func(b *binder.Binder) {
		b.Bind(reflect.TypeOf(0)).ToInstance(1)
		b.Bind(reflect.TypeOf(0)).ToInstance(2)
	})

	_, err := binder.New([]binder.Module{module})
	require.Error(t, err)
}

func TestNewEagerSingletonConstructedDuringSeal(t *testing.T) {
	built := false
	module := binder.ModuleFunc(func(b *binder.Binder) {
		b.Bind(reflect.TypeOf(&resource{})).
			ToProvider(func(ctx any) (reflect.Value, error) {
				built = true
				return reflect.ValueOf(&resource{N: 1}), nil
			}).
			AsEagerSingleton()
	})

	_, err := binder.New([]binder.Module{module})
	require.NoError(t, err)
	require.True(t, built, "eager singleton must be constructed during Seal, not on first Get")
}
