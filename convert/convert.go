// Package convert implements the constant converter (C9): turning a
// configured string constant into a target primitive/enum/type value on
// demand, memoised per (value, target) pair so repeated conversions are a
// function (§8 "Constant conversion is a function").
package convert

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	dierrors "anvil/errors"
)

// Converter converts string constants to a supported target type (§4.7).
// It is safe for concurrent use; successful conversions are cached so a
// given (value, target) pair is parsed at most once, matching the "first
// successful convert replaces the on-demand conversion with a constant
// factory" behaviour.
type Converter struct {
	mu    sync.Mutex
	cache map[cacheKey]reflect.Value
}

type cacheKey struct {
	value  string
	target reflect.Type
}

// New creates an empty Converter.
func New() *Converter {
	return &Converter{cache: make(map[cacheKey]reflect.Value)}
}

// Convert parses value into a reflect.Value assignable to target, or
// returns a *errors.AppError of Type TypeConversionFailure describing the
// offending value, target type and underlying parse error (§4.7
// "Failure"). member names the field/parameter the constant is being
// bound to, for the same diagnostic.
func (c *Converter) Convert(value string, target reflect.Type, member string) (reflect.Value, error) {
	key := cacheKey{value: value, target: target}

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	result, err := convert(value, target)
	if err != nil {
		return reflect.Value{}, dierrors.Newf(dierrors.TypeConversionFailure, err,
			"cannot convert %q to %s for %s", value, target, member)
	}

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()

	return result, nil
}

func convert(value string, target reflect.Type) (reflect.Value, error) {
	// Type descriptor target (§4.7 "resolve by fully-qualified class
	// name"): checked before anything else since target == reflectTypeType
	// is an interface kind that otherwise falls through every case below
	// to the unsupported-target error.
	if target == reflectTypeType {
		return convertToTypeDescriptor(value)
	}

	// Single-character type: a value trimmed to length exactly 1 maps onto a
	// Go rune (int32) target; this is the closest Go analogue to Java's
	// primitive char.
	if target.Kind() == reflect.Int32 && target == reflect.TypeOf(rune(0)) {
		trimmed := trim(value)
		runes := []rune(trimmed)
		if len(runes) != 1 {
			return reflect.Value{}, fmt.Errorf("value %q is not exactly one character", value)
		}
		return reflect.ValueOf(runes[0]), nil
	}

	// Enumerations are checked before the generic numeric/string switch
	// below: a Go "enum" is conventionally a defined type (often backed
	// by int) with package-level named constants, so its Kind() would
	// otherwise be caught by the plain numeric case and parsed as a raw
	// number instead of looked up by member name. Go exposes no
	// reflective constant registry (unlike Java's Enum.valueOf), so
	// enum-like targets must be registered ahead of time via
	// RegisterEnum.
	if names, ok := enumRegistry.lookup(target); ok {
		if v, ok := names[value]; ok {
			return v, nil
		}
		return reflect.Value{}, fmt.Errorf("no enum member named %q for type %s", value, target)
	}

	switch target.Kind() {
	case reflect.String:
		return reflect.ValueOf(value).Convert(target), nil

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b).Convert(target), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, target.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(target).Elem()
		v.SetInt(n)
		return v, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, target.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(target).Elem()
		v.SetUint(n)
		return v, nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, target.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(target).Elem()
		v.SetFloat(f)
		return v, nil

	case reflect.Ptr:
		// Pointer target (the Go analogue of a "box" type, §3): convert
		// to the pointee and take its address.
		elem, err := convert(value, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	return reflect.Value{}, fmt.Errorf("unsupported conversion target %s", target)
}

func trim(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
