package custom

import "github.com/Station-Manager/jsonmapper/mapping"

// Compose chains handlers left-to-right. The first error aborts and a nil
// output ends the chain with nil.
func Compose(fns ...Func) Func {
	return func(value any, ctx *mapping.Context) (any, error) {
		cur := value
		for _, fn := range fns {
			out, err := fn(cur, ctx)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, nil
			}
			cur = out
		}
		return cur, nil
	}
}

// MapString applies f to string values and passes anything else through.
func MapString(f func(string) string) Func {
	return func(value any, _ *mapping.Context) (any, error) {
		if s, ok := value.(string); ok {
			return f(s), nil
		}
		return value, nil
	}
}
