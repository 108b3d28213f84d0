package scope

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"anvil/key"
)

func strKey(t *testing.T) key.Key {
	t.Helper()
	return key.Of(reflect.TypeOf(""))
}

func TestNoneInvokesEveryTime(t *testing.T) {
	calls := 0
	raw := func(ctx any) (reflect.Value, error) {
		calls++
		return reflect.ValueOf(calls), nil
	}

	wrapped := None().Wrap(strKey(t), raw)

	v1, err := wrapped(nil)
	assert.NoError(t, err)
	v2, err := wrapped(nil)
	assert.NoError(t, err)

	assert.Equal(t, 1, v1.Interface())
	assert.Equal(t, 2, v2.Interface())
	assert.Equal(t, 2, calls)
}

func TestSingletonCachesAcrossCalls(t *testing.T) {
	calls := 0
	raw := func(ctx any) (reflect.Value, error) {
		calls++
		return reflect.ValueOf(calls), nil
	}

	wrapped := NewSingleton(NewMonitor()).Wrap(strKey(t), raw)

	v1, err := wrapped(nil)
	assert.NoError(t, err)
	v2, err := wrapped(nil)
	assert.NoError(t, err)

	assert.Equal(t, v1.Interface(), v2.Interface())
	assert.Equal(t, 1, calls)
}

func TestSingletonMonitorReentrant(t *testing.T) {
	m := NewMonitor()
	owner := "owner-token"

	var inner func() int
	inner = func() int {
		m.lock(owner)
		defer m.unlock()
		return 1
	}

	m.lock(owner)
	defer m.unlock()
	assert.Equal(t, 1, inner())
}
