package argconf

import (
	goerrors "errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-errors"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-argconf/logger"
	"github.com/goliatone/go-argconf/store"
)

type parseMode int

const (
	modeStrict parseMode = iota
	modeKnown
	modeBootstrap
)

// Resolver merges config-file values and command line arguments into one
// namespace. Precedence, highest first: command line, environment overlay
// (when enabled), extra config files, primary config file, declared
// defaults.
//
// A Resolver is not safe for concurrent use; callers may add options
// between resolution calls but not during one.
type Resolver struct {
	name       string
	options    []*Option
	cfgShort   string
	cfgLong    string
	cfgDefault string
	cfgHelp    string
	cfgMetavar string
	extras     []string
	envPrefix  string
	envDelim   string
	log        logger.Logger
	store      *store.Store
}

func New() *Resolver {
	return &Resolver{
		name:       "argconf",
		cfgShort:   "-c",
		cfgLong:    "--config",
		cfgHelp:    "Path to the config file",
		cfgMetavar: "CFG",
		envDelim:   "__",
		log:        logger.NewDefaultLogger("argconf"),
	}
}

func (r *Resolver) WithName(name string) *Resolver {
	r.name = name
	return r
}

// WithConfigFlag changes the spelling of the config-file flag itself,
// e.g. WithConfigFlag("-f", "--settings"). Either may be empty.
func (r *Resolver) WithConfigFlag(short, long string) *Resolver {
	r.cfgShort = short
	r.cfgLong = long
	return r
}

// WithConfigDefault sets the file read when the config flag is absent.
func (r *Resolver) WithConfigDefault(path string) *Resolver {
	r.cfgDefault = path
	return r
}

func (r *Resolver) WithConfigHelp(help string) *Resolver {
	r.cfgHelp = help
	return r
}

func (r *Resolver) WithConfigMetavar(metavar string) *Resolver {
	r.cfgMetavar = metavar
	return r
}

// WithExtraConfigs registers files merged after the primary config file.
// They are overrides: read in order, last value wins per key.
func (r *Resolver) WithExtraConfigs(paths ...string) *Resolver {
	r.extras = append(r.extras, paths...)
	return r
}

// WithEnv enables an environment overlay above all files: with prefix
// "APP_" and delim "__", APP_DB__HOST overrides [db] host.
func (r *Resolver) WithEnv(prefix, delim string) *Resolver {
	r.envPrefix = prefix
	if delim != "" {
		r.envDelim = delim
	}
	return r
}

func (r *Resolver) WithLogger(l logger.Logger) *Resolver {
	if l != nil {
		r.log = l
	}
	return r
}

// Append adds one option, silently skipping one equal to an option already
// declared so the same declaration can arrive from several call sites.
func (r *Resolver) Append(opt *Option) *Resolver {
	if opt == nil {
		return r
	}
	for _, existing := range r.options {
		if existing.Equal(opt) {
			return r
		}
	}
	r.options = append(r.options, opt)
	return r
}

// Extend appends many options with the same dedup rule as Append.
func (r *Resolver) Extend(opts ...*Option) *Resolver {
	for _, opt := range opts {
		r.Append(opt)
	}
	return r
}

// Options returns the declared options in registration order.
func (r *Resolver) Options() []*Option {
	out := make([]*Option, len(r.options))
	copy(out, r.options)
	return out
}

// Store exposes the merged config state from the last resolution, with
// command line values folded in. Nil before the first parse.
func (r *Resolver) Store() *store.Store {
	return r.store
}

// Parse resolves strictly: unknown flags, malformed values, and surplus
// positional arguments are errors.
func (r *Resolver) Parse(args []string) (*Namespace, error) {
	ns, _, err := r.resolve(args, modeStrict)
	return ns, err
}

// ParseKnown resolves permissively, returning tokens it could not place
// alongside the namespace.
func (r *Resolver) ParseKnown(args []string) (*Namespace, []string, error) {
	return r.resolve(args, modeKnown)
}

// Bootstrap resolves permissively with help flags inert, so early passes
// can run before every option has been declared. Leftover tokens are
// discarded.
func (r *Resolver) Bootstrap(args []string) (*Namespace, error) {
	ns, _, err := r.resolve(args, modeBootstrap)
	return ns, err
}

func (r *Resolver) resolve(args []string, mode parseMode) (*Namespace, []string, error) {
	if args == nil {
		args = os.Args[1:]
	}

	st, err := r.loadStore(args)
	if err != nil {
		return nil, nil, err
	}

	resolved := make([]any, len(r.options))
	for i, opt := range r.options {
		v, err := opt.fromStore(st)
		if err != nil {
			return nil, nil, err
		}
		resolved[i] = v
	}

	fs := r.newFlagSet(mode)
	r.addConfigFlag(fs)

	ns := newNamespace()
	for i, opt := range r.options {
		if err := opt.register(fs, resolved[i], ns); err != nil {
			return nil, nil, err
		}
	}

	toParse := args
	var rest []string
	if mode != modeStrict {
		toParse, rest = splitUnknown(fs, args, mode == modeBootstrap)
	}

	if err := fs.Parse(toParse); err != nil {
		if goerrors.Is(err, pflag.ErrHelp) {
			return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "help requested").
				WithTextCode("HELP_REQUESTED").
				WithMetadata(map[string]any{
					"usage": fs.FlagUsages(),
				})
		}
		return nil, nil, errors.Wrap(err, errors.CategoryBadInput, "argument parsing failed").
			WithTextCode("USAGE_ERROR").
			WithMetadata(map[string]any{
				"usage": fs.FlagUsages(),
			})
	}

	cfgVal, _ := fs.GetString(r.configFlagName())
	ns.set("config", cfgVal)

	leftover := fs.Args()
	for i, opt := range r.options {
		leftover, err = opt.extract(fs, leftover, resolved[i], ns)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(leftover) > 0 {
		if mode == modeStrict {
			return nil, nil, errors.New("unrecognized arguments: "+strings.Join(leftover, " "), errors.CategoryBadInput).
				WithTextCode("UNRECOGNIZED_ARGUMENTS").
				WithMetadata(map[string]any{
					"arguments": leftover,
				})
		}
		rest = append(rest, leftover...)
	}

	r.foldFlags(st, fs)
	r.store = st

	// reconciliation: a marker that survived both sources is the final error
	for _, key := range ns.Keys() {
		if v, _ := ns.Get(key); v != nil {
			if missing, ok := v.(*MissingConfigError); ok {
				return nil, nil, missing
			}
		}
	}

	return ns, rest, nil
}

// loadStore runs the bootstrap pass for the config flag and merges every
// file layer into a fresh store.
func (r *Resolver) loadStore(args []string) (*store.Store, error) {
	path := r.bootstrapConfigPath(args)

	st := store.New().WithLogger(r.log)
	if path != "" {
		if err := r.readOptional(st, path); err != nil {
			return nil, err
		}
	}
	for _, extra := range r.extras {
		if err := r.readOptional(st, extra); err != nil {
			return nil, err
		}
	}
	if r.envPrefix != "" {
		if err := st.ReadEnv(r.envPrefix, r.envDelim); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// bootstrapConfigPath parses only the config flag out of args, ignoring
// everything else, to learn which file to read.
func (r *Resolver) bootstrapConfigPath(args []string) string {
	fs := r.newFlagSet(modeBootstrap)
	r.addConfigFlag(fs)

	known, _ := splitUnknown(fs, args, true)
	if err := fs.Parse(known); err != nil {
		r.log.Debug("bootstrap parse failed, using default config path", "error", err)
		return r.cfgDefault
	}

	v, err := fs.GetString(r.configFlagName())
	if err != nil || v == "" {
		return r.cfgDefault
	}
	return v
}

func (r *Resolver) readOptional(st *store.Store, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			r.log.Debug("config file not found, skipping", "path", path)
			return nil
		}
		return errors.Wrap(err, errors.CategoryOperation, "failed to stat config file").
			WithTextCode("FILE_STAT_FAILED").
			WithMetadata(map[string]any{
				"path": path,
			})
	}
	return st.Read(path)
}

func (r *Resolver) newFlagSet(mode parseMode) *pflag.FlagSet {
	fs := pflag.NewFlagSet(r.name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	if mode != modeStrict {
		fs.ParseErrorsWhitelist.UnknownFlags = true
	}
	return fs
}

func (r *Resolver) configFlagName() string {
	if long := strings.TrimLeft(r.cfgLong, "-"); long != "" {
		return long
	}
	return strings.TrimLeft(r.cfgShort, "-")
}

func (r *Resolver) addConfigFlag(fs *pflag.FlagSet) {
	name := r.configFlagName()
	shorthand := strings.TrimLeft(r.cfgShort, "-")
	if utf8.RuneCountInString(shorthand) != 1 {
		shorthand = ""
	}

	usage := r.cfgHelp
	if r.cfgMetavar != "" {
		usage = strings.TrimSpace(usage + " `" + r.cfgMetavar + "`")
	}
	fs.StringP(name, shorthand, r.cfgDefault, usage)
}

// foldFlags merges command line supplied values back into the store so the
// exposed store reflects final precedence.
func (r *Resolver) foldFlags(st *store.Store, fs *pflag.FlagSet) {
	changed := pflag.NewFlagSet(r.name, pflag.ContinueOnError)
	fs.Visit(func(f *pflag.Flag) {
		changed.AddFlag(f)
	})
	if err := st.LoadFlags(changed, r.flagKey); err != nil {
		r.log.Debug("skipping flag fold-back", "error", err)
	}
}

// flagKey maps a flag spelling onto the store key it shadows: the option's
// first config path when it has one, its destination attribute otherwise.
func (r *Resolver) flagKey(flag string) string {
	for _, opt := range r.options {
		for _, spec := range opt.flagSpecs() {
			if spec.name == flag {
				if len(opt.configPaths) > 0 {
					p := opt.configPaths[0]
					return p.Section + store.Delimiter + p.Key
				}
				return opt.destKey()
			}
		}
	}
	return ""
}

// splitUnknown separates tokens the flag set can place from ones it
// cannot, mirroring pflag's rule that an unknown flag without "=" greedily
// takes the next bare token as its value. When helpInert is set, help
// spellings are treated as unknown instead of reaching the parser.
func splitUnknown(fs *pflag.FlagSet, args []string, helpInert bool) (known, unknown []string) {
	i := 0
	for i < len(args) {
		tok := args[i]
		i++

		if tok == "--" {
			known = append(known, tok)
			known = append(known, args[i:]...)
			break
		}

		if strings.HasPrefix(tok, "--") {
			name := strings.TrimPrefix(tok, "--")
			if eq := strings.Index(name, "="); eq >= 0 {
				name = name[:eq]
			}
			// "help" without a declared flag triggers pflag's built-in
			// handling, which bootstrap mode keeps inert
			declared := fs.Lookup(name) != nil || (name == "help" && !helpInert)
			if declared {
				known = append(known, tok)
				continue
			}
			unknown = append(unknown, tok)
			if !strings.Contains(tok, "=") && i < len(args) && !strings.HasPrefix(args[i], "-") {
				unknown = append(unknown, args[i])
				i++
			}
			continue
		}

		if strings.HasPrefix(tok, "-") && len(tok) > 1 {
			shorthand := string([]rune(tok[1:])[0])
			declared := fs.ShorthandLookup(shorthand) != nil || (shorthand == "h" && !helpInert)
			if declared {
				known = append(known, tok)
				continue
			}
			unknown = append(unknown, tok)
			if len(tok) == 2 && i < len(args) && !strings.HasPrefix(args[i], "-") {
				unknown = append(unknown, args[i])
				i++
			}
			continue
		}

		known = append(known, tok)
	}

	return known, unknown
}
