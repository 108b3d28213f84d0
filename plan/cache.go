package plan

import (
	"reflect"

	"anvil/cache"
)

// Cache memoises Plans per concrete struct type, giving C6 its "computed
// once per class" guarantee (§3 Lifecycle: "lives for the process
// lifetime") on top of the generic reference cache (C11).
type Cache struct {
	builder *Builder
	store   *cache.Cache[*Plan]
}

// NewCache builds a Plan cache backed by builder.
func NewCache(builder *Builder) *Cache {
	return &Cache{builder: builder, store: cache.New[*Plan]()}
}

// PlanFor returns the memoised Plan for t, building it on first request.
func (c *Cache) PlanFor(t reflect.Type) (*Plan, error) {
	return c.store.GetOrCreate(t, func() (*Plan, error) {
		return c.builder.Build(t)
	})
}

// Peek returns the cached Plan for t without building it.
func (c *Cache) Peek(t reflect.Type) (*Plan, bool) {
	return c.store.Peek(t)
}
