package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFromMap(t *testing.T) {
	st, err := FromMap(map[string]any{
		"db": map[string]any{"host": "a.example"},
	})
	require.NoError(t, err)

	assert.True(t, st.Has("db", "host"))
	assert.Equal(t, "a.example", st.Get("db", "host"))

	assert.False(t, st.Has("db", "port"))
	assert.False(t, st.Has("missing", "key"))
	assert.Equal(t, "", st.Get("missing", "key"))
}

func TestReadJSON(t *testing.T) {
	path := writeFile(t, "app.json", `{"db": {"host": "a.example", "port": 5432}}`)

	st := New()
	require.NoError(t, st.Read(path))

	assert.Equal(t, "a.example", st.Get("db", "host"))
	assert.Equal(t, "5432", st.Get("db", "port"))
}

func TestReadYAML(t *testing.T) {
	path := writeFile(t, "app.yaml", "db:\n  host: a.example\n")

	st := New()
	require.NoError(t, st.Read(path))

	assert.Equal(t, "a.example", st.Get("db", "host"))
}

func TestReadTOML(t *testing.T) {
	path := writeFile(t, "app.toml", "[db]\nhost = \"a.example\"\n")

	st := New()
	require.NoError(t, st.Read(path))

	assert.Equal(t, "a.example", st.Get("db", "host"))
}

func TestReadMergesLastWins(t *testing.T) {
	first := writeFile(t, "first.json", `{"app": {"env": "dev", "name": "svc"}}`)
	second := writeFile(t, "second.json", `{"app": {"env": "prod"}}`)

	st := New()
	require.NoError(t, st.Read(first))
	require.NoError(t, st.Read(second))

	assert.Equal(t, "prod", st.Get("app", "env"), "later read should win per key")
	assert.Equal(t, "svc", st.Get("app", "name"), "untouched keys should survive the merge")
}

func TestReadMissingFile(t *testing.T) {
	st := New()
	assert.Error(t, st.Read("/nonexistent/app.json"))
}

func TestLoadStruct(t *testing.T) {
	type dbConfig struct {
		Host string `koanf:"host"`
	}
	type appConfig struct {
		DB dbConfig `koanf:"db"`
	}

	st := New()
	require.NoError(t, st.LoadStruct(appConfig{DB: dbConfig{Host: "struct.example"}}, "koanf"))

	assert.Equal(t, "struct.example", st.Get("db", "host"))
}

func TestLoadFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("host", "", "usage")
	require.NoError(t, fs.Parse([]string{"--host", "flag.example"}))

	st := New()
	require.NoError(t, st.LoadFlags(fs, func(flag string) string {
		if flag == "host" {
			return "db.host"
		}
		return ""
	}))

	assert.Equal(t, "flag.example", st.Get("db", "host"))
}

func TestStrings(t *testing.T) {
	st, err := FromMap(map[string]any{
		"db": map[string]any{"hosts": []string{"a.example", "b.example"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.example", "b.example"}, st.Strings("db", "hosts"))
}

func TestSetAndSections(t *testing.T) {
	st := New()
	require.NoError(t, st.Set("db", "host", "a.example"))
	require.NoError(t, st.Set("app", "env", "dev"))

	assert.Equal(t, "a.example", st.Get("db", "host"))
	assert.ElementsMatch(t, []string{"db", "app"}, st.Sections())
}
