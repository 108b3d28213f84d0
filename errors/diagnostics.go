package errors

import (
	"fmt"
	"strings"
	"sync"
)

// Diagnostic is one accumulated configuration-time problem: an opaque
// source (whatever the binder surface passed through — a module name, a
// registration call site) plus a message (§4.10: "a format string plus
// arguments").
type Diagnostic struct {
	Source  any
	Type    Type
	Message string
}

func (d Diagnostic) String() string {
	if d.Source != nil {
		return fmt.Sprintf("[%s] %s: %s", d.Source, d.Type, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Type, d.Message)
}

// AggregateError is raised on Seal when the Collector holds at least one
// Diagnostic: a single failure containing the full ordered list (§4.10).
type AggregateError struct {
	Diagnostics []Diagnostic
}

func (e *AggregateError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return fmt.Sprintf("%d configuration error(s):\n  %s", len(e.Diagnostics), strings.Join(lines, "\n  "))
}

// Collector accumulates diagnostics during the configuration/sealing
// phase (C10). Report appends in every mode. Seal builds the aggregate
// from what was reported before it and marks the collector sealed; a
// diagnostic reported after Seal is appended but is part of no aggregate
// and raises nothing. RuntimeError builds the *AppError for a post-seal
// diagnostic, which the caller returns itself.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	sealed      bool
}

// NewCollector creates an empty Collector in collecting mode.
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends a diagnostic for later aggregation by Seal. It does not
// check whether the collector is sealed and never returns an error.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, d)
}

// Seal transitions the collector to runtime mode and returns an
// *AggregateError if any diagnostic was reported, or nil otherwise. The
// caller (container.Seal) is expected to abort construction on a non-nil
// return.
func (c *Collector) Seal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	if len(c.diagnostics) == 0 {
		return nil
	}
	return &AggregateError{Diagnostics: append([]Diagnostic(nil), c.diagnostics...)}
}

// Sealed reports whether Seal has been called.
func (c *Collector) Sealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sealed
}

// RuntimeError builds the *AppError a post-seal diagnostic should surface
// as, per §4.10's "runtime mode": further diagnostics are raised
// synchronously as the calling goroutine's resolution fails, rather than
// being appended to the collected list.
func (c *Collector) RuntimeError(d Diagnostic) *AppError {
	return &AppError{Type: d.Type, Message: d.Message}
}
