package store

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/tidwall/sjson"
)

// ReadEnv merges environment variables into the store. Variables must carry
// the given prefix; the remainder is lowercased and delim separates section
// from key, so with prefix "APP_" and delim "__", APP_DB__HOST lands on
// section "db", key "host".
func (s *Store) ReadEnv(prefix, delim string) error {
	p := &envProvider{prefix: prefix, delim: delim}
	s.log.Debug("reading environment", "prefix", prefix)

	if err := s.k.Load(p, json.Parser()); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to load environment variables").
			WithTextCode("ENV_LOAD_FAILED").
			WithMetadata(map[string]any{
				"prefix":    prefix,
				"delimiter": delim,
			})
	}
	return nil
}

// envProvider is a koanf provider that renders matching environment
// variables as a nested JSON document, so the standard JSON parser can
// merge them like any other source.
type envProvider struct {
	prefix string
	delim  string
}

func (e *envProvider) ReadBytes() ([]byte, error) {
	out := "{}"

	for _, raw := range os.Environ() {
		if e.prefix != "" && !strings.HasPrefix(raw, e.prefix) {
			continue
		}

		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimPrefix(parts[0], e.prefix)
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, strings.ToLower(e.delim), Delimiter)
		if key == "" {
			continue
		}

		next, err := sjson.Set(out, key, parts[1])
		if err != nil {
			return nil, err
		}
		out = next
	}

	return []byte(out), nil
}

func (e *envProvider) Read() (map[string]any, error) {
	return nil, errors.New("env provider does not support direct reads", errors.CategoryOperation).
		WithTextCode("ENV_READ_UNSUPPORTED")
}
