// Package errors implements the container's error kinds from §7 as a
// single typed error struct, adapted from the teacher framework's
// errors.AppError. The HTTP-flavoured constructors and status codes that
// made sense for a web framework are dropped — this module answers no HTTP
// requests — but the shape (a stable Type discriminant, a wrapped cause, a
// single Error() implementation) carries over unchanged, so a caller can
// switch on Type exactly the way the teacher's middleware would have
// switched on AppError.Type to pick a response.
package errors

import "fmt"

// Type discriminates the eight error kinds from §7's table. Each kind maps
// 1:1 to a row of that table.
type Type string

const (
	// TypeDuplicateBinding: two bindings for the same Key (collected at
	// seal; aggregated failure).
	TypeDuplicateBinding Type = "DUPLICATE_BINDING"
	// TypeMissingBinding: resolution found no rule (runtime failure with
	// suggestions).
	TypeMissingBinding Type = "MISSING_BINDING"
	// TypeMissingDependency: a plan step references an unbindable Key
	// (collected at seal if required, otherwise the step is skipped).
	TypeMissingDependency Type = "MISSING_DEPENDENCY"
	// TypeConversionFailure: the constant converter rejected a string
	// value (runtime failure with value/target/member).
	TypeConversionFailure Type = "CONVERSION_FAILURE"
	// TypeNoConstructor: injection-plan synthesis found neither an
	// annotated nor a zero-argument constructor.
	TypeNoConstructor Type = "NO_ELIGIBLE_CONSTRUCTOR"
	// TypeCircularDependency: a cycle without an interface edge to break
	// it (runtime failure with the cycle path).
	TypeCircularDependency Type = "CIRCULAR_DEPENDENCY"
	// TypeProviderFailure: a user-supplied Provider returned an error
	// (wrapped with injection-point context and re-raised).
	TypeProviderFailure Type = "PROVIDER_FAILURE"
	// TypeNilProvision: a provider returned an absent value where the
	// injection point does not accept one (runtime failure).
	TypeNilProvision Type = "NIL_PROVISION"
)

// AppError is the container's error value: a typed, optionally-wrapped
// diagnostic. The resolver reports its failures as *AppError values so
// callers can recover structured information instead of parsing a message
// string. Seal reports collected configuration problems as one
// *AggregateError instead.
type AppError struct {
	Type Type
	// Message is a human-readable description; InjectionPoint, when
	// non-empty, names the field/parameter/constructor on whose behalf
	// resolution was happening when the error occurred (§7 "Propagation
	// policy": runtime errors are "augmented with the current
	// injection-point description").
	Message        string
	InjectionPoint string
	Err            error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := string(e.Type) + ": " + e.Message
	if e.InjectionPoint != "" {
		msg += " (at " + e.InjectionPoint + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithInjectionPoint returns a copy of e with InjectionPoint set, used by
// the resolver to augment an error as it unwinds through nested
// resolution frames without losing the original Type/Err.
func (e *AppError) WithInjectionPoint(point string) *AppError {
	if e.InjectionPoint != "" {
		return e
	}
	cp := *e
	cp.InjectionPoint = point
	return &cp
}

// New builds an *AppError of the given type.
func New(t Type, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, Err: cause}
}

// Newf builds an *AppError with a formatted message.
func Newf(t Type, cause error, format string, args ...any) *AppError {
	return &AppError{Type: t, Message: fmt.Sprintf(format, args...), Err: cause}
}
