package container

import (
	"reflect"

	"go.uber.org/fx"

	"anvil/binding"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// AsFxOptions projects every sealed singleton binding into an
// fx.Provide(...) option, grounded directly on the teacher's
// Container.BuildFxOptions (di/di.go, which does the same
// "one fx.Provide per singleton-scoped provider" projection over its own
// provider map). This container deliberately never delegates resolution
// to fx itself — fx is its own reflection-based DI container, and
// routing Get/InjectMembers through it would just re-implement this
// resolver on top of another one — so the bridge only runs in this one
// direction: an application that is also assembling an fx.App for its
// HTTP/lifecycle layer can obtain this container's already-resolved
// singletons without re-registering them with fx by hand.
func (c *Container) AsFxOptions() fx.Option {
	var opts []fx.Option
	for _, b := range c.table.IterateAll() {
		if b.Scope.Kind != binding.Singleton {
			continue
		}
		opts = append(opts, fx.Provide(c.fxConstructorFor(b)))
	}
	return fx.Options(opts...)
}

// fxConstructorFor builds a func() (T, error) value via reflect, T being
// b.Key's raw type, since fx.Provide needs a function whose static return
// type fx can match against other providers' dependencies — T is only
// known as a reflect.Type here, not a compile-time type argument this
// package could instantiate a generic constructor against.
func (c *Container) fxConstructorFor(b binding.Binding) any {
	rt := b.Key.RawType()
	fnType := reflect.FuncOf(nil, []reflect.Type{rt, errorType}, false)

	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		v, err := c.resolver.resolve(newCallContext(nil), b.Key)
		if err != nil {
			return []reflect.Value{reflect.Zero(rt), reflect.ValueOf(err)}
		}
		return []reflect.Value{convertForAssignment(v, rt), reflect.Zero(errorType)}
	})
	return fn.Interface()
}
