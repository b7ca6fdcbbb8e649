package store

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

type FileType string

const (
	FileTypeYAML FileType = "yaml"
	FileTypeTOML FileType = "toml"
	FileTypeJSON FileType = "json"
)

// Parser returns the koanf parser for the file type.
func (t FileType) Parser() (koanf.Parser, error) {
	switch t {
	case FileTypeJSON:
		return json.Parser(), nil
	case FileTypeTOML:
		return toml.Parser(), nil
	case FileTypeYAML:
		return yaml.Parser(), nil
	default:
		return nil, errors.New("invalid config file type", errors.CategoryValidation).
			WithTextCode("INVALID_FILE_TYPE").
			WithMetadata(map[string]any{
				"file_type": string(t),
				"valid_types": []string{
					string(FileTypeJSON),
					string(FileTypeYAML),
					string(FileTypeTOML),
				},
			})
	}
}

// InferFileType picks a file type from the path extension, defaulting to
// JSON unless a fallback is given.
func InferFileType(path string, fallback ...FileType) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FileTypeTOML
	case ".json":
		return FileTypeJSON
	case ".yaml", ".yml":
		return FileTypeYAML
	}

	if len(fallback) > 0 {
		return fallback[0]
	}

	return FileTypeJSON
}
