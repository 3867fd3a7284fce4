package predicate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Observation is one perceived fact and its truth value.
type Observation struct {
	Key   string `json:"key" yaml:"key"`
	Value bool   `json:"value" yaml:"value"`
}

// Observations is an ordered mapping from predicate keys to truth values.
type Observations []Observation

// Set updates the value of key in place, or appends it when absent.
func (o *Observations) Set(key string, value bool) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Observation{Key: key, Value: value})
}

// Get returns the value for key and whether it was present.
func (o Observations) Get(key string) (bool, bool) {
	for _, ob := range o {
		if ob.Key == key {
			return ob.Value, true
		}
	}
	return false, false
}

// True returns the keys of all true observations in order.
func (o Observations) True() []string {
	keys := make([]string, 0, len(o))
	for _, ob := range o {
		if ob.Value {
			keys = append(keys, ob.Key)
		}
	}
	return keys
}

// FormatTrue formats every true observation, in input order.
func FormatTrue(obs Observations) []string {
	facts := make([]string, 0, len(obs))
	for _, ob := range obs {
		if ob.Value {
			facts = append(facts, Format(ob.Key))
		}
	}
	return facts
}

// UnmarshalYAML decodes a mapping of key to bool, keeping document order.
// A sequence of {key, value} items is accepted as well. Since YAML is a
// superset of JSON, JSON objects decode through yaml.Unmarshal too.
func (o *Observations) UnmarshalYAML(node *yaml.Node) error {
	var out Observations
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			var value bool
			if err := v.Decode(&value); err != nil {
				return fmt.Errorf("observation %q at line %d: %w", k.Value, v.Line, err)
			}
			out.Set(k.Value, value)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			var ob Observation
			if err := item.Decode(&ob); err != nil {
				return fmt.Errorf("observation at line %d: %w", item.Line, err)
			}
			out.Set(ob.Key, ob.Value)
		}
	default:
		return fmt.Errorf("observations must be a mapping or sequence, got line %d", node.Line)
	}
	*o = out
	return nil
}

// MarshalYAML encodes observations as an ordered mapping.
func (o Observations) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, ob := range o {
		value := "false"
		if ob.Value {
			value = "true"
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: ob.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value},
		)
	}
	return node, nil
}

// MarshalJSON encodes observations as a JSON object in order.
func (o Observations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ob := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(ob.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(fmt.Sprint(ob.Value))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object or array, keeping order.
func (o *Observations) UnmarshalJSON(data []byte) error {
	return yaml.Unmarshal(data, o)
}
