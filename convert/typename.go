package convert

import (
	"fmt"
	"reflect"
	"sync"
)

// reflectTypeType is reflect.Type itself, the Go analogue of java.lang.Class
// — the target kind §4.7's "Type descriptor: resolve by fully-qualified
// class name" conversion asks for.
var reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()

// typeNameRegistration maps a fully-qualified name to the reflect.Type it
// names. Go has no runtime class loader or reflective "resolve by name"
// primitive (unlike Java's Class.forName), so, exactly like RegisterEnum
// above, any type a configured string constant may name must be registered
// once, typically in an init func of the package that declares it.
type typeNameRegistration struct {
	mu    sync.RWMutex
	named map[string]reflect.Type
}

var typeNameRegistry = &typeNameRegistration{named: make(map[string]reflect.Type)}

// RegisterNamedType declares the fully-qualified name a type descriptor
// constant resolves to. name is conventionally the type's package path
// joined with its name (e.g. "myapp/storage.SQLiteDriver"), since Go types
// have no single canonical "fully-qualified class name" string the way
// reflect.Type.String() already produces one unambiguously only within a
// single package.
func RegisterNamedType(name string, t reflect.Type) {
	typeNameRegistry.mu.Lock()
	defer typeNameRegistry.mu.Unlock()
	typeNameRegistry.named[name] = t
}

func (r *typeNameRegistration) lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.named[name]
	return t, ok
}

// convertToTypeDescriptor resolves value as a fully-qualified name against
// typeNameRegistry, the §4.7 "Type descriptor" conversion target.
func convertToTypeDescriptor(value string) (reflect.Value, error) {
	t, ok := typeNameRegistry.lookup(value)
	if !ok {
		return reflect.Value{}, fmt.Errorf("no type registered under name %q", value)
	}
	return reflect.ValueOf(t), nil
}
