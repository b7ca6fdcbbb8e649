package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferFileType(t *testing.T) {
	cases := []struct {
		path string
		want FileType
	}{
		{"config/app.json", FileTypeJSON},
		{"config/app.yaml", FileTypeYAML},
		{"config/app.yml", FileTypeYAML},
		{"config/app.TOML", FileTypeTOML},
		{"config/app", FileTypeJSON},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InferFileType(tc.path), "path %q", tc.path)
	}

	assert.Equal(t, FileTypeYAML, InferFileType("noext", FileTypeYAML))
}

func TestFileTypeParser(t *testing.T) {
	for _, ft := range []FileType{FileTypeJSON, FileTypeYAML, FileTypeTOML} {
		parser, err := ft.Parser()
		assert.NoError(t, err)
		assert.NotNil(t, parser)
	}

	parser, err := FileType("ini").Parser()
	assert.Error(t, err)
	assert.Nil(t, parser)
}
