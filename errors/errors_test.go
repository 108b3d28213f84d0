package errors_test

import (
	"fmt"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anvil/errors"
)

func TestAppErrorMessageIncludesInjectionPointAndCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := errors.New(errors.TypeProviderFailure, "provider returned an error", cause).
		WithInjectionPoint("UserService.repo")

	msg := err.Error()
	assert.Contains(t, msg, string(errors.TypeProviderFailure))
	assert.Contains(t, msg, "UserService.repo")
	assert.Contains(t, msg, "boom")
}

func TestAppErrorUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := errors.New(errors.TypeConversionFailure, "bad constant", cause)

	assert.True(t, stderrors.Is(err, cause))
}

func TestWithInjectionPointDoesNotOverwriteExisting(t *testing.T) {
	err := errors.New(errors.TypeMissingBinding, "no binding", nil).
		WithInjectionPoint("first").
		WithInjectionPoint("second")

	assert.Equal(t, "first", err.InjectionPoint)
}

func TestCollectorAggregatesDiagnosticsUntilSeal(t *testing.T) {
	c := errors.NewCollector()
	require.False(t, c.Sealed())

	c.Report(errors.Diagnostic{Source: "moduleA", Type: errors.TypeDuplicateBinding, Message: "dup key"})
	c.Report(errors.Diagnostic{Source: "moduleB", Type: errors.TypeNoConstructor, Message: "no ctor"})

	err := c.Seal()
	require.Error(t, err)
	require.True(t, c.Sealed())

	agg, ok := err.(*errors.AggregateError)
	require.True(t, ok)
	assert.Len(t, agg.Diagnostics, 2)
	assert.Contains(t, agg.Error(), "dup key")
	assert.Contains(t, agg.Error(), "no ctor")
}

func TestCollectorSealWithNoDiagnosticsReturnsNil(t *testing.T) {
	c := errors.NewCollector()
	assert.NoError(t, c.Seal())
	assert.True(t, c.Sealed())
}
