// Package manifest edits package.json files structurally: parse, merge, serialize.
package manifest

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/mod/semver"

	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/fsutil"
)

const (
	Dependencies    = "dependencies"
	DevDependencies = "devDependencies"
)

// Manifest is a parsed package.json.
type Manifest struct {
	root *Object
}

// Parse decodes a package.json document. Anything but a JSON object is E_PARSE.
func Parse(data []byte) (*Manifest, error) {
	root := NewObject()
	if err := json.Unmarshal(data, root); err != nil {
		return nil, generr.Wrap(generr.EParse, "invalid package.json", err)
	}
	return &Manifest{root: root}, nil
}

// Dependency returns the version range recorded for name in section.
func (m *Manifest) Dependency(section, name string) (string, bool) {
	deps, err := m.section(section)
	if err != nil {
		return "", false
	}
	raw, ok := deps.Get(name)
	if !ok {
		return "", false
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", false
	}
	return version, true
}

// AddDependency adds name@version to section, overwriting an existing entry
// for name and keeping every other entry and its position.
func (m *Manifest) AddDependency(section, name, version string) error {
	if name == "" {
		return generr.New(generr.EParse, "dependency name is empty")
	}
	if !ValidRange(version) {
		return generr.Newf(generr.EParse, "invalid version range %q for %s", version, name)
	}

	deps, err := m.section(section)
	if err != nil {
		return err
	}
	v, _ := json.Marshal(version)
	deps.Set(name, v)

	raw, err := json.Marshal(deps)
	if err != nil {
		return generr.Wrap(generr.EParse, "encode "+section, err)
	}
	m.root.Set(section, raw)
	return nil
}

// section returns the object stored under key, or a new empty one.
func (m *Manifest) section(key string) (*Object, error) {
	deps := NewObject()
	raw, ok := m.root.Get(key)
	if !ok || string(raw) == "null" {
		return deps, nil
	}
	if err := json.Unmarshal(raw, deps); err != nil {
		return nil, generr.Wrap(generr.EParse, key+" is not an object", err)
	}
	return deps, nil
}

// Bytes serializes the manifest with two-space indentation.
func (m *Manifest) Bytes() ([]byte, error) {
	compact, err := json.Marshal(m.root)
	if err != nil {
		return nil, generr.Wrap(generr.EParse, "encode package.json", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, generr.Wrap(generr.EParse, "encode package.json", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// ValidRange accepts the single-version ranges generators write: an optional
// ^, ~, >=, > or = operator followed by a semantic version.
func ValidRange(r string) bool {
	v := r
	for _, op := range []string{">=", "^", "~", ">", "="} {
		if strings.HasPrefix(v, op) {
			v = strings.TrimPrefix(v, op)
			break
		}
	}
	v = strings.TrimPrefix(v, "v")
	return v != "" && semver.IsValid("v"+v)
}

// Dep is one dependency entry to merge into a manifest.
type Dep struct {
	Section string
	Name    string
	Version string
}

// AddDependencies patches the package.json at path in place.
func AddDependencies(path string, deps ...Dep) error {
	return fsutil.PatchFile(path, func(data []byte) ([]byte, error) {
		m, err := Parse(data)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if current, ok := m.Dependency(d.Section, d.Name); ok && current == d.Version {
				continue
			}
			if err := m.AddDependency(d.Section, d.Name, d.Version); err != nil {
				return nil, err
			}
		}
		out, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// keep the file byte-identical when nothing changed
		if normalized(data) == normalized(out) {
			return data, nil
		}
		return out, nil
	})
}

func normalized(b []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}
