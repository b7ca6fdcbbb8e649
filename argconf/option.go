package argconf

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-errors"
	"github.com/mitchellh/copystructure"

	"github.com/goliatone/go-argconf/store"
)

const (
	ActionStore      = "store"
	ActionStoreTrue  = "store_true"
	ActionStoreFalse = "store_false"
	ActionStoreConst = "store_const"
)

// Settings holds everything configurable about an Option. The zero value
// is usable: Action falls back to "store" and SplitChar to ",".
type Settings struct {
	// Action decides what a present flag means: store a value, or set a
	// fixed true/false/Const.
	Action string
	// Nargs is the value cardinality. Zero value means scalar.
	Nargs Nargs
	// Const is stored when Action is ActionStoreConst and the flag is set.
	Const any
	// Default is returned when the option is not required and no source
	// provides a value.
	Default any
	// Type coerces raw strings into typed values. It must hold a
	// CoerceFunc; anything else fails at decode time.
	Type any
	// Choices restricts the resolved value (each element, for lists) to
	// this set.
	Choices []any
	// Required makes resolution fail unless some source supplies a value.
	Required bool
	Help     string
	Metavar  string
	// Dest overrides the namespace key the value is stored under.
	Dest      string
	SplitChar string
}

// ConfigPath locates a value in the config store.
type ConfigPath struct {
	Section string
	Key     string
}

func (p ConfigPath) String() string {
	return p.Section + ":" + p.Key
}

// attr is the namespace key a config-only option writes to.
func (p ConfigPath) attr() string {
	return p.Section + "_" + p.Key
}

// MissingConfigError reports a required option no source provided. It
// travels through resolution as a placeholder value and only becomes a
// returned error if the command line never overrides it.
type MissingConfigError struct {
	Paths []ConfigPath
}

func (e *MissingConfigError) Error() string {
	names := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		names[i] = p.String()
	}
	return fmt.Sprintf("no configuration value found for required Option(%s)", strings.Join(names, ", "))
}

// Option declares one configurable value. Its names span three domains:
// flag spellings (-x, --xxx), config paths (section:key), and bare
// positional names. Options are immutable once built.
type Option struct {
	settings    Settings
	names       []string
	configPaths []ConfigPath
	positionals []string
	longs       []string
	shorts      []string
}

// NewOption classifies the given names and returns the declared option.
// A name starting with "-" is a flag, a name containing ":" is a config
// path, anything else is positional. Flag and positional names cannot be
// mixed on one option.
func NewOption(settings Settings, names ...string) (*Option, error) {
	if settings.Action == "" {
		settings.Action = ActionStore
	}
	if settings.SplitChar == "" {
		settings.SplitChar = ","
	}

	switch settings.Action {
	case ActionStore, ActionStoreTrue, ActionStoreFalse, ActionStoreConst:
	default:
		return nil, errors.New("unknown action: "+settings.Action, errors.CategoryBadInput).
			WithTextCode("UNKNOWN_ACTION")
	}

	if len(names) == 0 {
		return nil, errors.New("option requires at least one name", errors.CategoryBadInput).
			WithTextCode("MISSING_OPTION_NAMES")
	}

	o := &Option{
		settings: settings,
		names:    slices.Clone(names),
	}

	for _, name := range names {
		switch {
		case strings.HasPrefix(name, "--"):
			long := strings.TrimPrefix(name, "--")
			if long == "" {
				return nil, badName(name, "empty long flag")
			}
			o.longs = append(o.longs, long)
		case strings.HasPrefix(name, "-"):
			short := strings.TrimPrefix(name, "-")
			if utf8.RuneCountInString(short) != 1 {
				return nil, badName(name, "short flag must be a single character")
			}
			o.shorts = append(o.shorts, short)
		case strings.Contains(name, ":"):
			parts := strings.SplitN(name, ":", 2)
			if parts[0] == "" || parts[1] == "" {
				return nil, badName(name, "config path needs both section and key")
			}
			o.configPaths = append(o.configPaths, ConfigPath{Section: parts[0], Key: parts[1]})
		case name == "":
			return nil, badName(name, "empty name")
		default:
			o.positionals = append(o.positionals, name)
		}
	}

	if len(o.positionals) > 0 && (len(o.longs) > 0 || len(o.shorts) > 0) {
		return nil, errors.New("cannot mix positional and flag names in "+o.describe(), errors.CategoryBadInput).
			WithTextCode("MIXED_NAME_DOMAINS")
	}

	return o, nil
}

// MustOption is NewOption that panics on authoring errors, for package
// level declarations.
func MustOption(settings Settings, names ...string) *Option {
	o, err := NewOption(settings, names...)
	if err != nil {
		panic(err)
	}
	return o
}

func badName(name, reason string) error {
	return errors.New("invalid option name: "+reason, errors.CategoryBadInput).
		WithTextCode("INVALID_OPTION_NAME").
		WithMetadata(map[string]any{
			"name": name,
		})
}

// ConfigPaths returns the declared config locations in lookup order.
func (o *Option) ConfigPaths() []ConfigPath {
	return slices.Clone(o.configPaths)
}

func (o *Option) describe() string {
	return "Option(" + strings.Join(o.names, ", ") + ")"
}

func (o *Option) configOnly() bool {
	return len(o.longs) == 0 && len(o.shorts) == 0 && len(o.positionals) == 0
}

// Equal reports field-by-field equality. Coercers compare by function
// identity, everything else by deep equality. The resolver uses this to
// drop duplicate declarations.
func (o *Option) Equal(other *Option) bool {
	if other == nil {
		return false
	}
	a, b := o.settings, other.settings
	if a.Action != b.Action || a.Nargs != b.Nargs || a.Required != b.Required ||
		a.Help != b.Help || a.Metavar != b.Metavar || a.Dest != b.Dest ||
		a.SplitChar != b.SplitChar {
		return false
	}
	if !reflect.DeepEqual(a.Const, b.Const) ||
		!reflect.DeepEqual(a.Default, b.Default) ||
		!reflect.DeepEqual(a.Choices, b.Choices) {
		return false
	}
	if !sameCoercer(a.Type, b.Type) {
		return false
	}
	return slices.Equal(o.configPaths, other.configPaths) &&
		slices.Equal(o.positionals, other.positionals) &&
		slices.Equal(o.longs, other.longs) &&
		slices.Equal(o.shorts, other.shorts)
}

func sameCoercer(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Func || vb.Kind() != reflect.Func {
		// Non-callable values are rejected later by decode; compare them
		// by value so equality never panics.
		return reflect.DeepEqual(a, b)
	}
	return va.Pointer() == vb.Pointer()
}

// decode applies the declared coercion to a raw string.
func (o *Option) decode(raw string) (any, error) {
	if o.settings.Type == nil {
		return raw, nil
	}
	fn := coerceFunc(o.settings.Type)
	if fn == nil {
		return nil, errors.New("type is not callable for "+o.describe(), errors.CategoryBadInput).
			WithTextCode("TYPE_NOT_CALLABLE")
	}
	v, err := fn(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to coerce value for "+o.describe()).
			WithTextCode("COERCE_FAILED").
			WithMetadata(map[string]any{
				"raw": raw,
			})
	}
	return v, nil
}

// checkValue verifies membership in Choices, when declared.
func (o *Option) checkValue(v any) error {
	if o.settings.Choices == nil {
		return nil
	}
	allowed := make([]string, len(o.settings.Choices))
	for i, c := range o.settings.Choices {
		if reflect.DeepEqual(c, v) {
			return nil
		}
		allowed[i] = fmt.Sprintf("%v", c)
	}
	return errors.New(
		fmt.Sprintf("invalid choice: %v (choose from %s)", v, strings.Join(allowed, ", ")),
		errors.CategoryValidation,
	).
		WithTextCode("INVALID_CHOICE").
		WithMetadata(map[string]any{
			"value":  fmt.Sprintf("%v", v),
			"option": o.describe(),
		})
}

func (o *Option) decodeList(tokens []string) ([]any, error) {
	vals := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		v, err := o.decode(tok)
		if err != nil {
			return nil, err
		}
		if err := o.checkValue(v); err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// fromStore resolves the option against the merged config store. A missing
// required value comes back as a *MissingConfigError placeholder, not an
// error: the command line still gets a chance to supply it.
func (o *Option) fromStore(st *store.Store) (any, error) {
	raw, path, ok := o.lookup(st)
	if !ok {
		if o.settings.Required {
			return &MissingConfigError{Paths: slices.Clone(o.configPaths)}, nil
		}
		return cloneValue(o.settings.Default), nil
	}

	if o.settings.Nargs.IsScalar() {
		v, err := o.decode(raw)
		if err != nil {
			return nil, err
		}
		if err := o.checkValue(v); err != nil {
			return nil, err
		}
		return v, nil
	}

	tokens := splitTokens(raw, o.settings.SplitChar)
	switch o.settings.Nargs.kind {
	case nargsOneOrMore:
		if len(tokens) == 0 {
			return nil, countError(
				fmt.Sprintf("require at least one value in [%s] %s", path.Section, path.Key),
				path, o.settings.Nargs, len(tokens))
		}
	case nargsExact:
		if len(tokens) != o.settings.Nargs.count {
			return nil, countError(
				fmt.Sprintf("require exactly %d values in [%s] %s, got %d",
					o.settings.Nargs.count, path.Section, path.Key, len(tokens)),
				path, o.settings.Nargs, len(tokens))
		}
	}

	return o.decodeList(tokens)
}

func (o *Option) lookup(st *store.Store) (string, ConfigPath, bool) {
	for _, p := range o.configPaths {
		if st.Has(p.Section, p.Key) {
			return st.Get(p.Section, p.Key), p, true
		}
	}
	return "", ConfigPath{}, false
}

func countError(msg string, path ConfigPath, nargs Nargs, got int) error {
	return errors.New(msg, errors.CategoryValidation).
		WithTextCode("VALUE_COUNT_MISMATCH").
		WithMetadata(map[string]any{
			"config_path": path.String(),
			"nargs":       nargs.String(),
			"got":         got,
		})
}

// splitTokens splits a raw config string into trimmed tokens. A string
// that trims to nothing yields zero tokens rather than one empty token.
func splitTokens(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	cloned, err := copystructure.Copy(v)
	if err != nil {
		return v
	}
	return cloned
}
