package argconf

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/spf13/pflag"
)

type flagSpec struct {
	name      string
	shorthand string
}

// flagSpecs lists the pflag registrations this option needs. The first
// entry is canonical; the rest are aliases kept hidden from usage output.
func (o *Option) flagSpecs() []flagSpec {
	var specs []flagSpec
	if len(o.longs) > 0 {
		canonical := flagSpec{name: o.longs[0]}
		if len(o.shorts) > 0 {
			canonical.shorthand = o.shorts[0]
		}
		specs = append(specs, canonical)
		for _, long := range o.longs[1:] {
			specs = append(specs, flagSpec{name: long})
		}
		if len(o.shorts) > 1 {
			for _, short := range o.shorts[1:] {
				specs = append(specs, flagSpec{name: short, shorthand: short})
			}
		}
		return specs
	}
	for _, short := range o.shorts {
		specs = append(specs, flagSpec{name: short, shorthand: short})
	}
	return specs
}

func (o *Option) boolLike() bool {
	switch o.settings.Action {
	case ActionStoreTrue, ActionStoreFalse, ActionStoreConst:
		return true
	}
	return false
}

func (o *Option) usage() string {
	u := o.settings.Help
	if o.settings.Metavar != "" {
		mv := "`" + o.settings.Metavar + "`"
		if u == "" {
			u = mv
		} else {
			u += " " + mv
		}
	}
	return u
}

// register adds the option to the flag set, or, for a config-only option,
// writes the resolved value straight into the namespace under every
// section_key attribute and never touches the flag layer.
func (o *Option) register(fs *pflag.FlagSet, fromConfig any, ns *Namespace) error {
	if o.configOnly() {
		for _, p := range o.configPaths {
			ns.set(p.attr(), fromConfig)
		}
		return nil
	}

	if len(o.longs) == 0 && len(o.shorts) == 0 {
		// positional, consumed after the flag parse
		return nil
	}

	for i, spec := range o.flagSpecs() {
		if fs.Lookup(spec.name) != nil {
			return errors.New("flag already registered: "+spec.name, errors.CategoryBadInput).
				WithTextCode("DUPLICATE_FLAG").
				WithMetadata(map[string]any{
					"option": o.describe(),
				})
		}
		usage := o.usage()
		switch {
		case o.boolLike():
			fs.BoolP(spec.name, spec.shorthand, false, usage)
		case !o.settings.Nargs.IsScalar():
			fs.StringArrayP(spec.name, spec.shorthand, nil, usage)
		default:
			fs.StringP(spec.name, spec.shorthand, "", usage)
		}
		if i > 0 {
			_ = fs.MarkHidden(spec.name)
		}
	}
	return nil
}

// changedFlag returns the first spelling the command line actually set,
// canonical name first, or "" when the flag was never given.
func (o *Option) changedFlag(fs *pflag.FlagSet) string {
	for _, spec := range o.flagSpecs() {
		if fs.Changed(spec.name) {
			return spec.name
		}
	}
	return ""
}

// destKey derives the namespace attribute the resolved value lands on.
func (o *Option) destKey() string {
	if o.settings.Dest != "" {
		return o.settings.Dest
	}
	if len(o.longs) > 0 {
		return strings.ReplaceAll(o.longs[0], "-", "_")
	}
	if len(o.shorts) > 0 {
		return o.shorts[0]
	}
	if len(o.positionals) > 0 {
		return strings.ReplaceAll(o.positionals[0], "-", "_")
	}
	if len(o.configPaths) > 0 {
		return o.configPaths[0].attr()
	}
	return ""
}

// extract writes the option's final value into the namespace: the command
// line value when one was given (re-decoded and validated through the same
// rules), otherwise whatever fromStore produced, markers included. It
// returns the positional tokens it did not consume.
func (o *Option) extract(fs *pflag.FlagSet, args []string, fromConfig any, ns *Namespace) ([]string, error) {
	if o.configOnly() {
		return args, nil
	}
	dest := o.destKey()

	if len(o.longs) > 0 || len(o.shorts) > 0 {
		name := o.changedFlag(fs)
		if name == "" {
			ns.set(dest, fromConfig)
			return args, nil
		}

		switch o.settings.Action {
		case ActionStoreTrue:
			ns.set(dest, true)
		case ActionStoreFalse:
			ns.set(dest, false)
		case ActionStoreConst:
			ns.set(dest, o.settings.Const)
		default:
			if o.settings.Nargs.IsScalar() {
				raw, err := fs.GetString(name)
				if err != nil {
					return args, errors.Wrap(err, errors.CategoryOperation, "failed to read flag value").
						WithTextCode("FLAG_READ_FAILED")
				}
				v, err := o.decode(raw)
				if err != nil {
					return args, err
				}
				if err := o.checkValue(v); err != nil {
					return args, err
				}
				ns.set(dest, v)
				return args, nil
			}

			raws, err := fs.GetStringArray(name)
			if err != nil {
				return args, errors.Wrap(err, errors.CategoryOperation, "failed to read flag values").
					WithTextCode("FLAG_READ_FAILED")
			}
			if o.settings.Nargs.kind == nargsExact && len(raws) != o.settings.Nargs.count {
				return args, errors.New(
					fmt.Sprintf("require exactly %d values for --%s, got %d",
						o.settings.Nargs.count, name, len(raws)),
					errors.CategoryBadInput,
				).WithTextCode("VALUE_COUNT_MISMATCH")
			}
			vals, err := o.decodeList(raws)
			if err != nil {
				return args, err
			}
			ns.set(dest, vals)
		}
		return args, nil
	}

	// positional consumption, declaration order
	take := 0
	switch o.settings.Nargs.kind {
	case nargsSingle:
		if len(args) > 0 {
			take = 1
		}
	case nargsExact:
		if len(args) >= o.settings.Nargs.count {
			take = o.settings.Nargs.count
		} else if len(args) > 0 {
			return args, errors.New(
				fmt.Sprintf("require exactly %d values for %s, got %d",
					o.settings.Nargs.count, o.positionals[0], len(args)),
				errors.CategoryBadInput,
			).WithTextCode("VALUE_COUNT_MISMATCH")
		}
	case nargsOneOrMore, nargsZeroOrMore:
		take = len(args)
	}

	if take == 0 {
		ns.set(dest, fromConfig)
		return args, nil
	}

	tokens := args[:take]
	rest := args[take:]

	if o.settings.Nargs.IsScalar() {
		v, err := o.decode(tokens[0])
		if err != nil {
			return rest, err
		}
		if err := o.checkValue(v); err != nil {
			return rest, err
		}
		ns.set(dest, v)
		return rest, nil
	}

	vals, err := o.decodeList(tokens)
	if err != nil {
		return rest, err
	}
	ns.set(dest, vals)
	return rest, nil
}
