package store

import (
	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-argconf/logger"
)

// Delimiter joins section and key into a koanf lookup path.
var Delimiter = "."

// Store is a merged section/key view over one or more configuration
// sources. Reads are layered: every Read or Load call deep-merges into the
// existing state and the last write wins per key.
type Store struct {
	k   *koanf.Koanf
	log logger.Logger
}

func New() *Store {
	return &Store{
		k:   koanf.New(Delimiter),
		log: logger.Noop{},
	}
}

// FromMap builds a store from an in-memory section map, mostly for tests
// and for seeding programmatic defaults.
func FromMap(data map[string]any) (*Store, error) {
	s := New()
	if err := s.k.Load(confmap.Provider(data, Delimiter), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load config map").
			WithTextCode("CONFMAP_LOAD_FAILED").
			WithMetadata(map[string]any{
				"keys_count": len(data),
			})
	}
	return s, nil
}

func (s *Store) WithLogger(l logger.Logger) *Store {
	if l != nil {
		s.log = l
	}
	return s
}

// Read merges the file at path into the store. The parser is inferred from
// the file extension (json, toml, yaml). A missing file is an error here;
// callers that treat absent files as empty should stat first.
func (s *Store) Read(path string) error {
	filetype := InferFileType(path)
	s.log.Debug("reading config file", "path", path, "type", filetype)

	parser, err := filetype.Parser()
	if err != nil {
		return err
	}
	if err := s.k.Load(file.Provider(path), parser); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to read config file").
			WithTextCode("FILE_READ_FAILED").
			WithMetadata(map[string]any{
				"path":      path,
				"file_type": string(filetype),
			})
	}
	return nil
}

// LoadStruct merges the fields of v, using the given struct tag to derive
// section/key names.
func (s *Store) LoadStruct(v any, tag string) error {
	if err := s.k.Load(structs.Provider(v, tag), nil); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to load config struct").
			WithTextCode("STRUCT_LOAD_FAILED").
			WithMetadata(map[string]any{
				"tag": tag,
			})
	}
	return nil
}

// LoadFlags merges values from a flag set. rename maps a flag name to the
// dotted section/key it should land on; returning "" keeps the flag name
// itself. When the store already holds a value for a key, only changed
// flags override it.
func (s *Store) LoadFlags(fs *pflag.FlagSet, rename func(flag string) string) error {
	cb := func(key, value string) (string, any) {
		mapped := ""
		if rename != nil {
			mapped = rename(key)
		}
		if mapped == "" {
			mapped = key
		}
		return mapped, value
	}

	if err := s.k.Load(posflag.ProviderWithValue(fs, Delimiter, s.k, cb), nil); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to load flag values").
			WithTextCode("FLAGS_LOAD_FAILED")
	}
	return nil
}

// Has reports whether section/key resolved to a value in any merged source.
// Missing files, sections, and keys all land here as a plain false.
func (s *Store) Has(section, key string) bool {
	return s.k.Exists(s.path(section, key))
}

// Get returns the string form of the value at section/key, or "" when the
// lookup is negative.
func (s *Store) Get(section, key string) string {
	return s.k.String(s.path(section, key))
}

// Strings returns a list-valued entry at section/key. Entries written as
// delimited strings are not split here; that is the reader's concern.
func (s *Store) Strings(section, key string) []string {
	return s.k.Strings(s.path(section, key))
}

// Set writes a single value, overriding anything previously merged.
func (s *Store) Set(section, key string, value any) error {
	return s.k.Set(s.path(section, key), value)
}

// Sections lists the top-level section names currently present.
func (s *Store) Sections() []string {
	return s.k.MapKeys("")
}

func (s *Store) Raw() map[string]any {
	return s.k.Raw()
}

func (s *Store) path(section, key string) string {
	return section + Delimiter + key
}
