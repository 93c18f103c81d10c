package plan

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// File is a plan document: components and the scenarios that use them.
// Scenario components refer to components by ID.
type File struct {
	Components []Component `json:"components" yaml:"components"`
	Scenarios  []Scenario  `json:"scenarios" yaml:"scenarios"`
}

// LoadFile reads a plan file (YAML or JSON).
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	f := &File{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, f)
	if err != nil {
		*f = File{}
		if jerr := json.Unmarshal(data, f); jerr != nil {
			return nil, fmt.Errorf("parse plan (tried YAML and JSON): %w", err)
		}
	}
	return f, nil
}

// SaveToFile writes the plan as YAML or JSON based on the extension.
func (f *File) SaveToFile(path string) error {
	var data []byte
	var err error

	if isYAML(path) {
		data, err = yaml.Marshal(f)
	} else {
		data, err = json.MarshalIndent(f, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	return (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml")
}

// Normalize applies defaults to every record.
func (f *File) Normalize(defaultMonths int) {
	for i := range f.Components {
		f.Components[i].Normalize()
	}
	for i := range f.Scenarios {
		f.Scenarios[i].Normalize(defaultMonths)
	}
}

func (f *File) Validate(maxFormulaLen, maxMonths int) error {
	ids := make(map[string]bool, len(f.Components))
	for i := range f.Components {
		c := &f.Components[i]
		if err := c.Validate(maxFormulaLen); err != nil {
			return err
		}
		if c.ID != "" {
			if ids[c.ID] {
				return fmt.Errorf("%w: duplicate component id %s", ErrInvalid, c.ID)
			}
			ids[c.ID] = true
		}
	}
	for i := range f.Scenarios {
		if err := f.Scenarios[i].Validate(maxMonths); err != nil {
			return err
		}
	}
	return nil
}

// ComponentMap indexes components by ID.
func (f *File) ComponentMap() map[string]Component {
	m := make(map[string]Component, len(f.Components))
	for _, c := range f.Components {
		m[c.ID] = c
	}
	return m
}
