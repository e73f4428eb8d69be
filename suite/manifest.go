// Package suite loads the benchmark program image: a workspace of
// decompiled class files, their metadata, and per-method instruction
// lists. It implements the loader interface the interpreter consumes.
package suite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a jpamb.toml workspace configuration.
type Manifest struct {
	Suite       SuiteConfig       `toml:"suite"`
	Interpreter InterpreterConfig `toml:"interpreter"`
	Cache       CacheConfig       `toml:"cache"`
	Runlog      RunlogConfig      `toml:"runlog"`

	// Dir is the directory containing the jpamb.toml file (set at load
	// time).
	Dir string `toml:"-"`
}

// SuiteConfig locates the program image within the workspace.
type SuiteConfig struct {
	// Decompiled is the directory of jvm2json class files, one
	// "<class>.json" per class, mirroring the package tree.
	Decompiled string `toml:"decompiled"`
	// Source is the root of the Java sources the image was built from.
	Source string `toml:"source"`
}

// InterpreterConfig carries interpreter defaults.
type InterpreterConfig struct {
	// Budget is the per-run step budget. Zero means the built-in default.
	Budget int `toml:"budget"`
}

// CacheConfig configures the decoded-opcode cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// RunlogConfig configures the run-log database.
type RunlogConfig struct {
	Path string `toml:"path"`
}

// Default returns the manifest used when a workspace has no jpamb.toml.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses a jpamb.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "jpamb.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a jpamb.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", startDir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "jpamb.toml")); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Suite.Decompiled == "" {
		m.Suite.Decompiled = "decompiled"
	}
	if m.Suite.Source == "" {
		m.Suite.Source = filepath.Join("src", "main", "java")
	}
	if m.Cache.Dir == "" {
		m.Cache.Dir = filepath.Join(".jpamb", "cache")
	}
	if m.Runlog.Path == "" {
		m.Runlog.Path = filepath.Join(".jpamb", "runs.db")
	}
}

// DecompiledDir returns the absolute decompiled-classes directory.
func (m *Manifest) DecompiledDir() string {
	return filepath.Join(m.Dir, m.Suite.Decompiled)
}

// SourceDir returns the absolute Java source root.
func (m *Manifest) SourceDir() string {
	return filepath.Join(m.Dir, m.Suite.Source)
}

// CacheDir returns the absolute opcode-cache directory.
func (m *Manifest) CacheDir() string {
	return filepath.Join(m.Dir, m.Cache.Dir)
}

// RunlogPath returns the absolute run-log database path.
func (m *Manifest) RunlogPath() string {
	return filepath.Join(m.Dir, m.Runlog.Path)
}
