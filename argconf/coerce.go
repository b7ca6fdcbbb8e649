package argconf

import (
	"strconv"
	"time"
)

// CoerceFunc turns the raw string form of a value into its typed form.
// Settings.Type accepts any value of this shape.
type CoerceFunc func(string) (any, error)

func Int(raw string) (any, error) {
	return strconv.Atoi(raw)
}

func Float(raw string) (any, error) {
	return strconv.ParseFloat(raw, 64)
}

func Bool(raw string) (any, error) {
	return strconv.ParseBool(raw)
}

func Duration(raw string) (any, error) {
	return time.ParseDuration(raw)
}

// coerceFunc normalizes the open Settings.Type field into a CoerceFunc,
// returning nil when the value is not callable.
func coerceFunc(v any) CoerceFunc {
	switch fn := v.(type) {
	case CoerceFunc:
		return fn
	case func(string) (any, error):
		return fn
	default:
		return nil
	}
}
