package problem

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Category is a typed group of detected objects.
type Category struct {
	Name    string   `json:"name" yaml:"name"`
	Objects []string `json:"objects" yaml:"objects"`
}

// Manifest lists detected objects by category. Order is significant: it
// fixes the order of the objects section, the stacking order of the goal
// (smallest first) and the goal target (last object of the target category).
type Manifest []Category

// Objects returns a copy of the objects in the named category, or nil.
func (m Manifest) Objects(category string) []string {
	for _, c := range m {
		if c.Name == category {
			out := make([]string, len(c.Objects))
			copy(out, c.Objects)
			return out
		}
	}
	return nil
}

// Names returns every object name across all categories, in order.
func (m Manifest) Names() []string {
	var names []string
	for _, c := range m {
		names = append(names, c.Objects...)
	}
	return names
}

// Map returns the manifest as a plain map. Order is lost.
func (m Manifest) Map() map[string][]string {
	out := make(map[string][]string, len(m))
	for _, c := range m {
		out[c.Name] = append([]string(nil), c.Objects...)
	}
	return out
}

// Validate checks that category names are unique and non-empty and that no
// object is listed twice.
func (m Manifest) Validate() error {
	seenCat := make(map[string]bool, len(m))
	seenObj := make(map[string]string)
	for _, c := range m {
		if c.Name == "" {
			return fmt.Errorf("manifest category with empty name")
		}
		if seenCat[c.Name] {
			return fmt.Errorf("manifest category %q listed twice", c.Name)
		}
		seenCat[c.Name] = true
		for _, o := range c.Objects {
			if o == "" {
				return fmt.Errorf("manifest category %q has an empty object name", c.Name)
			}
			if prev, ok := seenObj[o]; ok {
				return fmt.Errorf("object %q listed in both %q and %q", o, prev, c.Name)
			}
			seenObj[o] = c.Name
		}
	}
	return nil
}

// UnmarshalYAML decodes a mapping of category to object list, keeping
// document order. JSON objects decode the same way.
func (m *Manifest) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var cats []Category
		if err := node.Decode(&cats); err != nil {
			return err
		}
		*m = cats
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest must be a mapping of category to objects (line %d)", node.Line)
	}

	out := make(Manifest, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		var objects []string
		if err := v.Decode(&objects); err != nil {
			return fmt.Errorf("manifest category %q at line %d: %w", k.Value, v.Line, err)
		}
		out = append(out, Category{Name: k.Value, Objects: objects})
	}
	*m = out
	return nil
}

// MarshalJSON encodes the manifest as a JSON object in category order.
func (m Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		objects := c.Objects
		if objects == nil {
			objects = []string{}
		}
		v, err := json.Marshal(objects)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object or array, keeping order.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	return yaml.Unmarshal(data, m)
}
