package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrIncompatible is returned when a manifest was written by a generator whose
// major version differs from the running one.
var ErrIncompatible = errors.New("manifest written by an incompatible generator")

// Artifact represents a generated document entry in the manifest.
type Artifact struct {
	Kind   string   `yaml:"kind" json:"kind"`
	File   string   `yaml:"file" json:"file"`
	Guard  string   `yaml:"guard" json:"guard"`
	Inputs []string `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Bytes  int      `yaml:"bytes" json:"bytes"`
}

// Manifest tracks the generated artifacts of a project.
type Manifest struct {
	GeneratorVersion string     `yaml:"generator_version" json:"generator_version"`
	Artifacts        []Artifact `yaml:"artifacts" json:"artifacts"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal manifest")
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create manifest directory")
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write manifest")
	}

	return nil
}

// AddArtifact records a, replacing an existing entry for the same file.
// Entries are kept sorted by file.
func (m *Manifest) AddArtifact(a Artifact) {
	replaced := false
	for i := range m.Artifacts {
		if m.Artifacts[i].File == a.File {
			m.Artifacts[i] = a
			replaced = true
		}
	}
	if !replaced {
		m.Artifacts = append(m.Artifacts, a)
	}
	sort.SliceStable(m.Artifacts, func(i, j int) bool {
		return m.Artifacts[i].File < m.Artifacts[j].File
	})
}

// ArtifactFile returns the file recorded for kind, if present.
func (m *Manifest) ArtifactFile(kind string) string {
	for _, a := range m.Artifacts {
		if a.Kind == kind {
			return a.File
		}
	}
	return ""
}

// CheckCompatible reports ErrIncompatible when the manifest's generator
// version has a different major version than current. Manifests without a
// version, and non-semver builds, are accepted.
func (m *Manifest) CheckCompatible(current string) error {
	if m.GeneratorVersion == "" {
		return nil
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return nil
	}
	recorded, err := semver.NewVersion(m.GeneratorVersion)
	if err != nil {
		return errors.Wrapf(err, "manifest generator version %q", m.GeneratorVersion)
	}

	constraint, err := semver.NewConstraint(fmt.Sprintf(">= %d.0.0-0, < %d.0.0-0", recorded.Major(), recorded.Major()+1))
	if err != nil {
		return errors.Wrap(err, "version constraint")
	}
	if !constraint.Check(cur) {
		return errors.WithHintf(
			errors.Wrapf(ErrIncompatible, "manifest from %s, running %s", recorded, cur),
			"regenerate every artifact with %s to rewrite the manifest", cur,
		)
	}
	return nil
}
