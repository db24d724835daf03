// Package config loads the optional bookstore configuration file.
//
// The file is CUE, validated against an embedded schema. Fields left out
// keep their defaults; command-line flags override both.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// Default file names.
const (
	DefaultUsers   = "users.dat"
	DefaultBooks   = "books.dat"
	DefaultFinance = "finance.dat"
	DefaultLog     = "log.dat"
)

// Files names the record files inside the data directory.
type Files struct {
	Users   string `json:"users"`
	Books   string `json:"books"`
	Finance string `json:"finance"`
	Log     string `json:"log"`
}

// Config is the resolved configuration.
type Config struct {
	DataDir string `json:"data_dir"`
	Verbose bool   `json:"verbose"`
	Files   Files  `json:"files"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir: ".",
		Files: Files{
			Users:   DefaultUsers,
			Books:   DefaultBooks,
			Finance: DefaultFinance,
			Log:     DefaultLog,
		},
	}
}

// Path joins name onto the data directory.
func (c Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// LoadError describes a config file that could not be read or validated.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func loadError(path string, err error) *LoadError {
	le := &LoadError{Path: path, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Message = errs[0].Error()
		if pos := errs[0].Position(); pos.IsValid() {
			le.Pos = pos
		}
	}
	return le
}

// Load reads the CUE file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	src, err := os.ReadFile(path)
	if err != nil {
		return cfg, &LoadError{Path: path, Message: err.Error()}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cfg, fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(path))
	if err := value.Err(); err != nil {
		return cfg, loadError(path, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cfg, loadError(path, err)
	}

	var loaded Config
	if err := unified.Decode(&loaded); err != nil {
		return cfg, loadError(path, err)
	}
	cfg.merge(loaded)
	if err := cfg.Validate(); err != nil {
		return cfg, &LoadError{Path: path, Message: err.Error()}
	}
	return cfg, nil
}

// Validate checks that the four record files have distinct names. Two
// stores sharing one file would overwrite each other's header.
func (c Config) Validate() error {
	seen := make(map[string]string, 4)
	for _, f := range []struct{ key, name string }{
		{"users", c.Files.Users},
		{"books", c.Files.Books},
		{"finance", c.Files.Finance},
		{"log", c.Files.Log},
	} {
		if other, ok := seen[f.name]; ok {
			return fmt.Errorf("files.%s and files.%s both name %q", other, f.key, f.name)
		}
		seen[f.name] = f.key
	}
	return nil
}

// merge copies the non-empty fields of o into c.
func (c *Config) merge(o Config) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Verbose {
		c.Verbose = true
	}
	if o.Files.Users != "" {
		c.Files.Users = o.Files.Users
	}
	if o.Files.Books != "" {
		c.Files.Books = o.Files.Books
	}
	if o.Files.Finance != "" {
		c.Files.Finance = o.Files.Finance
	}
	if o.Files.Log != "" {
		c.Files.Log = o.Files.Log
	}
}
