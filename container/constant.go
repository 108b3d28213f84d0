package container

import (
	"reflect"

	dierrors "anvil/errors"
	"anvil/key"
)

var stringType = reflect.TypeOf("")

// tryConstantConversion implements §4.3 step 3: if a string-valued
// binding exists under the same qualifier as k and k's raw type is a
// supported conversion target, convert the bound string on demand. The
// converter itself memoises successful conversions (§4.7), so repeated
// requests for the same (value, target) do not re-parse.
func (r *resolver) tryConstantConversion(cc *callContext, k key.Key) (reflect.Value, bool, error) {
	if k.RawType() == stringType {
		return reflect.Value{}, false, nil
	}

	stringKey := key.OfQualified(stringType, k.Qualifier)
	b, ok := r.table.Get(stringKey)
	if !ok {
		return reflect.Value{}, false, nil
	}

	factory := r.scoped[b.Key.String()]
	raw, err := factory(cc)
	if err != nil {
		return reflect.Value{}, true, wrapProviderFailure(err, stringKey)
	}

	converted, err := r.converter.Convert(raw.String(), k.RawType(), k.String())
	if err != nil {
		if _, ok := err.(*dierrors.AppError); ok {
			return reflect.Value{}, true, err
		}
		return reflect.Value{}, true, dierrors.Newf(dierrors.TypeConversionFailure, err,
			"cannot convert %q to %s", raw.String(), k.RawType())
	}
	return converted, true, nil
}
