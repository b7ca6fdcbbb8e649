package argconf

import (
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-errors"
	"github.com/mitchellh/copystructure"
)

// Namespace is the result record of a resolution: every declared option's
// final value keyed by its destination attribute, insertion order kept.
type Namespace struct {
	keys   []string
	values map[string]any
}

func newNamespace() *Namespace {
	return &Namespace{values: map[string]any{}}
}

func (n *Namespace) set(key string, v any) {
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = v
}

func (n *Namespace) Has(key string) bool {
	_, ok := n.values[key]
	return ok
}

func (n *Namespace) Get(key string) (any, bool) {
	v, ok := n.values[key]
	return v, ok
}

// Keys returns the attribute names in the order they were resolved.
func (n *Namespace) Keys() []string {
	return slices.Clone(n.keys)
}

// String returns the value at key as a string, or "" when absent or not a
// string.
func (n *Namespace) String(key string) string {
	if v, ok := n.values[key].(string); ok {
		return v
	}
	return ""
}

// Strings flattens a list value into []string, skipping non-string
// elements. Scalar strings come back as a single-element list.
func (n *Namespace) Strings(key string) []string {
	switch v := n.values[key].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

func (n *Namespace) Int(key string) int {
	if v, ok := n.values[key].(int); ok {
		return v
	}
	return 0
}

func (n *Namespace) Bool(key string) bool {
	if v, ok := n.values[key].(bool); ok {
		return v
	}
	return false
}

// Decode unmarshals the namespace into target using mapstructure with
// weakly typed input, so string values fill ints, bools, and friends.
func (n *Namespace) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to build namespace decoder").
			WithTextCode("NAMESPACE_DECODER_FAILED")
	}
	if err := decoder.Decode(n.values); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to decode namespace").
			WithTextCode("NAMESPACE_DECODE_FAILED")
	}
	return nil
}

// Clone deep-copies the namespace so callers can mutate slices and maps
// without touching the original.
func (n *Namespace) Clone() *Namespace {
	out := newNamespace()
	for _, k := range n.keys {
		out.set(k, cloneAny(n.values[k]))
	}
	return out
}

func cloneAny(v any) any {
	if v == nil {
		return nil
	}
	cloned, err := copystructure.Copy(v)
	if err != nil {
		return v
	}
	return cloned
}
