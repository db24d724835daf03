package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookstore.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, "users.dat", cfg.Files.Users)
	assert.Equal(t, filepath.Join(".", "log.dat"), cfg.Path(cfg.Files.Log))
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: "/var/lib/bookstore"
verbose:  true
files: finance: "ledger.dat"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/bookstore", cfg.DataDir)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "ledger.dat", cfg.Files.Finance)
	assert.Equal(t, "books.dat", cfg.Files.Books, "unset fields keep defaults")
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":  `colour: "red"`,
		"wrong type":     `verbose: "yes"`,
		"empty data dir": `data_dir: ""`,
		"file with path": `files: users: "../users.dat"`,
		"syntax":         `data_dir: [`,
		"shared file":    "files: {users: \"a.dat\", books: \"a.dat\"}",
		"default clash":  `files: finance: "log.dat"`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, src))
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.NotEmpty(t, le.Error())
		})
	}
}

func TestValidate_DistinctFiles(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Files.Log = cfg.Files.Users
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `files.users and files.log both name "users.dat"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
}
