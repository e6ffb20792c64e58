package compose

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Service is a read-only view of a compose service. Only the fields the
// augmenter and the check command care about are decoded; the node tree
// keeps everything else.
type Service struct {
	Image    string      `yaml:"image,omitempty"`
	Networks NetworkList `yaml:"networks,omitempty"`
}

// NetworkList holds the names a service is attached to.
type NetworkList []string

// UnmarshalYAML accepts both the short syntax (a list of names) and the long
// syntax (a mapping of name to attachment options).
func (l *NetworkList) UnmarshalYAML(value *yaml.Node) error {
	value = resolve(value)
	switch value.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*l = names
	case yaml.MappingNode:
		names := make([]string, 0, len(value.Content)/2)
		for i := 0; i < len(value.Content); i += 2 {
			names = append(names, value.Content[i].Value)
		}
		*l = names
	case yaml.ScalarNode:
		if !isNull(value) {
			return fmt.Errorf("line %d: networks must be a list or a mapping", value.Line)
		}
		*l = nil
	}
	return nil
}

// Network is a top-level network declaration.
type Network struct {
	Driver   string `yaml:"driver,omitempty"`
	External bool   `yaml:"external,omitempty"`
}

// UnmarshalYAML allows external to be given in the legacy mapping form
// (external: {name: foo}), which also marks the network as external.
func (n *Network) UnmarshalYAML(value *yaml.Node) error {
	value = resolve(value)
	if isNull(value) {
		*n = Network{}
		return nil
	}

	var raw struct {
		Driver   string    `yaml:"driver"`
		External yaml.Node `yaml:"external"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	n.Driver = raw.Driver
	n.External = false
	switch raw.External.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := raw.External.Decode(&b); err != nil {
			return err
		}
		n.External = b
	case yaml.MappingNode:
		n.External = true
	}
	return nil
}
