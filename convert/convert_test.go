package convert

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type Level int

const (
	LevelLow Level = iota
	LevelHigh
)

func init() {
	RegisterEnum(map[string]Level{
		"LevelLow":  LevelLow,
		"LevelHigh": LevelHigh,
	})
}

func TestConvertPrimitives(t *testing.T) {
	c := New()

	v, err := c.Convert("5", reflect.TypeOf(int(0)), "n")
	assert.NoError(t, err)
	assert.Equal(t, int64(5), v.Int())

	v, err = c.Convert("true", reflect.TypeOf(false), "flag")
	assert.NoError(t, err)
	assert.True(t, v.Bool())

	v, err = c.Convert("3.14", reflect.TypeOf(float64(0)), "pi")
	assert.NoError(t, err)
	assert.InDelta(t, 3.14, v.Float(), 0.0001)
}

func TestConvertIsMemoised(t *testing.T) {
	c := New()

	v1, err := c.Convert("5", reflect.TypeOf(int(0)), "n")
	assert.NoError(t, err)

	v2, err := c.Convert("5", reflect.TypeOf(int(0)), "n")
	assert.NoError(t, err)

	assert.Equal(t, v1.Int(), v2.Int())
	assert.Len(t, c.cache, 1)
}

func TestConvertEnum(t *testing.T) {
	c := New()

	v, err := c.Convert("LevelHigh", reflect.TypeOf(LevelLow), "level")
	assert.NoError(t, err)
	assert.Equal(t, LevelHigh, Level(v.Int()))
}

func TestConvertRune(t *testing.T) {
	c := New()

	v, err := c.Convert(" x ", reflect.TypeOf(rune(0)), "initial")
	assert.NoError(t, err)
	assert.Equal(t, 'x', rune(v.Int()))
}

func TestConvertFailure(t *testing.T) {
	c := New()

	_, err := c.Convert("not-a-number", reflect.TypeOf(int(0)), "n")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CONVERSION_FAILURE")
	assert.Contains(t, err.Error(), "n")
}

func TestConvertPointerTarget(t *testing.T) {
	c := New()

	var zero *int
	v, err := c.Convert("42", reflect.TypeOf(zero), "n")
	assert.NoError(t, err)
	assert.Equal(t, 42, *(v.Interface().(*int)))
}

func TestConvertResolvesRegisteredTypeName(t *testing.T) {
	RegisterNamedType("anvil/convert.Level", reflect.TypeOf(LevelLow))

	c := New()
	v, err := c.Convert("anvil/convert.Level", reflectTypeType, "driver")
	assert.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(LevelLow), v.Interface().(reflect.Type))
}

func TestConvertTypeDescriptorFailsForUnregisteredName(t *testing.T) {
	c := New()

	_, err := c.Convert("no/such.Type", reflectTypeType, "driver")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CONVERSION_FAILURE")
}
