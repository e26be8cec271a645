// Package manifest handles prism.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a prism.toml binding-generation configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Scan    Scan    `toml:"scan"`
	Engines Engines `toml:"engines"`
	Output  Output  `toml:"output"`
	Cache   Cache   `toml:"cache"`

	// Dir is the directory containing the prism.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name   string `toml:"name"`
	Module string `toml:"module"` // foreign namespace the classes land in
}

// Scan configures which Go packages and types are described.
type Scan struct {
	Packages []string `toml:"packages"`
	Include  []string `toml:"include"` // type names; empty means every exported struct
	Exclude  []string `toml:"exclude"`
}

// Engines selects the scripting runtimes to generate registration
// code for.
type Engines struct {
	Targets []string `toml:"targets"`
}

// Output configures the generated Go source.
type Output struct {
	Dir     string `toml:"dir"`
	Package string `toml:"package"`
}

// Cache configures the signature cache used for change detection
// between generator runs.
type Cache struct {
	Path string `toml:"path"`
}

// Load parses a prism.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "prism.toml")
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

	// Defaults
	if len(m.Scan.Packages) == 0 {
		m.Scan.Packages = []string{"./..."}
	}
	if len(m.Engines.Targets) == 0 {
		m.Engines.Targets = []string{"js", "lua"}
	}
	if m.Output.Dir == "" {
		m.Output.Dir = "bindings"
	}
	if m.Output.Package == "" {
		m.Output.Package = filepath.Base(m.Output.Dir)
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".prism", "signatures.db")
	}
	if m.Project.Module == "" {
		m.Project.Module = m.Project.Name
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a prism.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "prism.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// OutputDir returns the absolute path of the generated-source directory.
func (m *Manifest) OutputDir() string {
	return filepath.Join(m.Dir, m.Output.Dir)
}

// CachePath returns the absolute path of the signature cache database.
func (m *Manifest) CachePath() string {
	return filepath.Join(m.Dir, m.Cache.Path)
}

// Included reports whether a type name passes the include/exclude
// filters. Exclude wins over include.
func (m *Manifest) Included(name string) bool {
	for _, x := range m.Scan.Exclude {
		if x == name {
			return false
		}
	}
	if len(m.Scan.Include) == 0 {
		return true
	}
	for _, in := range m.Scan.Include {
		if in == name {
			return true
		}
	}
	return false
}
