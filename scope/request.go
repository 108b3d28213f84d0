package scope

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"anvil/key"
	"anvil/provider"
)

type requestBagKey struct{}

// requestBag is the per-request storage cell a Request-scoped binding
// memoizes into, grounded in the teacher's resolveRequestScoped gin.Context
// storage (di/di.go), generalized from *gin.Context keys to Key values so
// it is usable outside of an HTTP handler too.
// values is keyed by Key.String(): two Keys for the same array or
// Provider-of-T shape can carry distinct TypeDescriptor.elem pointers, so
// native map equality on key.Key itself would not reliably collapse them
// to the same cache cell.
type requestBag struct {
	mu     sync.Mutex
	values map[string]reflect.Value
}

// NewRequestContext attaches a fresh, empty request bag to parent,
// returning a context a Request scope can resolve against. A container's
// HTTP entrypoint calls this once per inbound request.
func NewRequestContext(parent context.Context) context.Context {
	return context.WithValue(parent, requestBagKey{}, &requestBag{values: make(map[string]reflect.Value)})
}

func bagOf(ctx any) *requestBag {
	std := stdContextOf(ctx)
	if std == nil {
		return nil
	}
	bag, _ := std.Value(requestBagKey{}).(*requestBag)
	return bag
}

// request is the "Named (request-local)" scope (§4.4): one cached value
// per request context, cleared implicitly once that context is discarded.
type request struct{}

// Request returns the request-local Scope. Resolving a request-scoped
// binding outside of a request context (one created by
// NewRequestContext) is an error, mirroring the teacher's "context
// required for request-scoped dependency" failure.
func Request() Scope { return request{} }

func (request) Wrap(k key.Key, raw provider.Func) provider.Func {
	return func(ctx any) (reflect.Value, error) {
		bag := bagOf(ctx)
		if bag == nil {
			return reflect.Value{}, fmt.Errorf("request scope: no request context available for %s", k)
		}

		id := k.String()

		bag.mu.Lock()
		if v, ok := bag.values[id]; ok {
			bag.mu.Unlock()
			return v, nil
		}
		bag.mu.Unlock()

		v, err := raw(ctx)
		if err != nil {
			return v, err
		}

		bag.mu.Lock()
		defer bag.mu.Unlock()
		if existing, ok := bag.values[id]; ok {
			return existing, nil
		}
		bag.values[id] = v
		return v, nil
	}
}
