package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEnv(t *testing.T) {
	t.Setenv("STORETEST_DB__HOST", "env.example")
	t.Setenv("STORETEST_DB__PORT", "5433")
	t.Setenv("STORETEST_APP__ENV", "prod")
	t.Setenv("UNRELATED_DB__HOST", "other.example")

	st := New()
	require.NoError(t, st.ReadEnv("STORETEST_", "__"))

	assert.Equal(t, "env.example", st.Get("db", "host"))
	assert.Equal(t, "5433", st.Get("db", "port"))
	assert.Equal(t, "prod", st.Get("app", "env"))
	assert.False(t, st.Has("unrelated_db", "host"), "variables without the prefix should be ignored")
}

func TestReadEnvOverridesFile(t *testing.T) {
	t.Setenv("STORETEST_DB__HOST", "env.example")

	st, err := FromMap(map[string]any{
		"db": map[string]any{"host": "map.example", "name": "svc"},
	})
	require.NoError(t, err)
	require.NoError(t, st.ReadEnv("STORETEST_", "__"))

	assert.Equal(t, "env.example", st.Get("db", "host"))
	assert.Equal(t, "svc", st.Get("db", "name"))
}

func TestReadEnvValueWithEquals(t *testing.T) {
	t.Setenv("STORETEST_DB__DSN", "host=a.example port=5432")

	st := New()
	require.NoError(t, st.ReadEnv("STORETEST_", "__"))

	assert.Equal(t, "host=a.example port=5432", st.Get("db", "dsn"))
}
