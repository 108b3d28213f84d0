package container

import (
	"context"
	"reflect"
	"sync"

	"anvil/key"
)

// callContext is the provisioning context (C7): per-call state threaded
// explicitly through every resolver call on behalf of one outermost
// public entry-point invocation. The design notes call for passing this
// by explicit parameter rather than a thread-local, since Go has no
// per-goroutine storage analogue worth reaching for here — a goroutine
// that calls Container.Get synchronously owns its callContext for the
// duration of that call and everything it recursively resolves.
type callContext struct {
	std   context.Context
	graph *constructionGraph

	injectionPoint string
}

// constructionGraph is the frame stack shared by a callContext and every
// withInjectionPoint copy derived from it, so the cycle-detection map
// spans the whole outermost call even as the injection-point slot changes
// at each nesting level.
//
// frames is keyed by Key.String() rather than Key itself: two Keys built
// independently for the same array or Provider-of-T shape carry distinct
// TypeDescriptor.elem pointers, so native map equality would treat them
// as different entries even though they denote the same logical
// dependency (the same defect binding.Table's byKey index had to work
// around).
type constructionGraph struct {
	mu     sync.Mutex
	frames map[string]*frame
}

// frame is a construction-in-progress record for one Key, pushed before
// invoking its constructor and popped once member injection finishes
// (§4.3 "Order of construction steps per instance").
type frame struct {
	mu    sync.Mutex
	key   key.Key
	ready bool
	value reflect.Value
	err   error

	proxy    reflect.Value
	proxySet func(reflect.Value)
	hasProxy bool
}

// proxyOrInstall returns the frame's existing deferred-reference proxy
// for an interface-typed re-entrant request, building one via build if
// none exists yet.
func (f *frame) proxyOrInstall(build func() (reflect.Value, func(reflect.Value))) reflect.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasProxy {
		f.proxy, f.proxySet = build()
		f.hasProxy = true
	}
	return f.proxy
}

// complete stores the fully-injected value (or failure) and, if a proxy
// was handed out earlier, fills its embedded interface field in so every
// holder of the proxy now observes the real instance.
func (f *frame) complete(value reflect.Value, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value, f.err, f.ready = value, err, true
	if f.hasProxy && err == nil {
		f.proxySet(value)
	}
}

// snapshot returns the frame's current value/err/ready triple.
func (f *frame) snapshot() (reflect.Value, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, f.ready
}

// newCallContext creates an empty provisioning context carrying std,
// which scope.Request/scope.Session reach through the stdContextCarrier
// structural interface.
func newCallContext(std context.Context) *callContext {
	if std == nil {
		std = context.Background()
	}
	return &callContext{
		std:   std,
		graph: &constructionGraph{frames: make(map[string]*frame)},
	}
}

// StdContext satisfies scope.stdContextCarrier.
func (c *callContext) StdContext() context.Context { return c.std }

// beginFrame records that construction of k has started, returning the
// new frame and true, or the existing frame and false if k is already
// under construction somewhere up the call chain (a cycle).
func (c *callContext) beginFrame(k key.Key) (*frame, bool) {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()

	id := k.String()
	if f, ok := c.graph.frames[id]; ok {
		return f, false
	}
	f := &frame{key: k}
	c.graph.frames[id] = f
	return f, true
}

// endFrame removes k's frame once construction (including member
// injection) has fully completed.
func (c *callContext) endFrame(k key.Key) {
	c.graph.mu.Lock()
	defer c.graph.mu.Unlock()
	delete(c.graph.frames, k.String())
}

// withInjectionPoint returns a shallow copy of c describing whose benefit
// the current resolution happens on behalf of, for diagnostics (§4.6). It
// shares the frame map and mutex with c: the injection-point slot is the
// only thing scoped to one resolver call, not the whole construction
// graph.
func (c *callContext) withInjectionPoint(point string) *callContext {
	cp := *c
	cp.injectionPoint = point
	return &cp
}
