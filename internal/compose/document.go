/*
Package compose holds a Docker Compose descriptor as an order-preserving YAML
node tree and exposes the two containers the network augmenter mutates: the
per-service network attachments and the top-level network declarations.

Everything the augmenter does not touch (key order, scalar styles, comments,
anchors, unknown keys) is kept as parsed and written back unchanged.
*/
package compose

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/composenet/internal/schema"
)

const (
	keyVersion  = "version"
	keyServices = "services"
	keyNetworks = "networks"
)

// Descriptor is a parsed compose document.
type Descriptor struct {
	doc *yaml.Node
}

// Load reads and parses the descriptor at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	log.Debug("Read descriptor", "path", path, "bytes", len(data))
	return Parse(data)
}

// Parse parses a descriptor from raw YAML. Empty input and a null document
// both yield an empty descriptor.
func Parse(data []byte) (*Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewParseError("", fmt.Sprintf("invalid YAML syntax: %v", err), ErrInvalidYAML)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{newMapping()}}
	}

	root := doc.Content[0]
	if isNull(root) {
		setMapping(root)
	}
	if root.Kind != yaml.MappingNode {
		return nil, NewParseError("", "descriptor must be a mapping", ErrInvalidShape)
	}

	var tree interface{}
	if err := root.Decode(&tree); err != nil {
		return nil, NewParseError("", fmt.Sprintf("invalid YAML syntax: %v", err), ErrInvalidYAML)
	}
	result := schema.ValidateDocument(tree)
	if !result.Valid {
		first := result.Errors[0]
		return nil, NewParseError(first.Path, first.Message, ErrInvalidShape)
	}

	return &Descriptor{doc: &doc}, nil
}

// Encode writes the descriptor as YAML using the given indentation.
func (d *Descriptor) Encode(w io.Writer, indent int) error {
	untagMergeKeys(d.doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(d.doc); err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	return enc.Close()
}

// Bytes returns the encoded descriptor.
func (d *Descriptor) Bytes(indent int) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Version returns the version marker, or "" when there is none.
func (d *Descriptor) Version() string {
	v := lookup(d.root(), keyVersion)
	if v == nil {
		return ""
	}
	return resolve(v).Value
}

// ServiceNames returns the service names in document order.
func (d *Descriptor) ServiceNames() []string {
	services := lookup(d.root(), keyServices)
	services = resolve(services)
	if services == nil || services.Kind != yaml.MappingNode {
		return nil
	}

	names := make([]string, 0, len(services.Content)/2)
	for i := 0; i < len(services.Content); i += 2 {
		names = append(names, services.Content[i].Value)
	}
	return names
}

// Service decodes the named service.
func (d *Descriptor) Service(name string) (Service, error) {
	node, err := d.serviceNode(name)
	if err != nil {
		return Service{}, err
	}

	var svc Service
	if isNull(node) {
		return svc, nil
	}
	if err := node.Decode(&svc); err != nil {
		return Service{}, NewParseError(keyServices+"."+name, err.Error(), ErrInvalidShape)
	}
	return svc, nil
}

// Networks decodes the top-level network declarations. Order is not kept;
// use NetworkNames for document order.
func (d *Descriptor) Networks() (map[string]Network, error) {
	networks := lookup(d.root(), keyNetworks)
	networks = resolve(networks)
	if networks == nil || isNull(networks) {
		return map[string]Network{}, nil
	}

	out := make(map[string]Network)
	if err := networks.Decode(&out); err != nil {
		return nil, NewParseError(keyNetworks, err.Error(), ErrInvalidShape)
	}
	return out, nil
}

// NetworkNames returns the declared network names in document order.
func (d *Descriptor) NetworkNames() []string {
	networks := lookup(d.root(), keyNetworks)
	networks = resolve(networks)
	if networks == nil || networks.Kind != yaml.MappingNode {
		return nil
	}

	names := make([]string, 0, len(networks.Content)/2)
	for i := 0; i < len(networks.Content); i += 2 {
		names = append(names, networks.Content[i].Value)
	}
	return names
}

// Attachments returns the network attachments of the named service,
// creating an empty networks list on the service when it has none.
func (d *Descriptor) Attachments(service string) (*Attachments, error) {
	node, err := d.serviceNode(service)
	if err != nil {
		return nil, err
	}
	if isNull(node) {
		setMapping(node)
	}
	if node.Kind != yaml.MappingNode {
		return nil, NewParseError(keyServices+"."+service, "service must be a mapping", ErrInvalidShape)
	}

	field := keyServices + "." + service + "." + keyNetworks
	networks := lookup(node, keyNetworks)
	if networks == nil {
		// A key written on the service hides the merged one, so an
		// inherited list is copied in before anything is added to it.
		if inherited := mergedValue(node, keyNetworks); inherited != nil {
			log.Debug("Copying inherited networks", "service", service)
			networks = clone(resolve(inherited))
		} else {
			log.Debug("Creating networks list", "service", service)
			networks = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		}
		appendPair(node, keyNetworks, networks)
	}
	networks = resolve(networks)
	if isNull(networks) {
		setSequence(networks)
	}
	if networks.Kind != yaml.SequenceNode && networks.Kind != yaml.MappingNode {
		return nil, NewParseError(field, "networks must be a list or a mapping", ErrInvalidShape)
	}

	return &Attachments{service: service, node: networks}, nil
}

// Declarations returns the top-level networks table, creating it when the
// descriptor has none.
func (d *Descriptor) Declarations() (*Declarations, error) {
	root := d.root()
	networks := lookup(root, keyNetworks)
	if networks == nil {
		log.Debug("Creating top-level networks table")
		networks = newMapping()
		appendPair(root, keyNetworks, networks)
	}
	networks = resolve(networks)
	if isNull(networks) {
		setMapping(networks)
	}
	if networks.Kind != yaml.MappingNode {
		return nil, NewParseError(keyNetworks, "networks must be a mapping", ErrInvalidShape)
	}

	return &Declarations{node: networks}, nil
}

func (d *Descriptor) root() *yaml.Node {
	return d.doc.Content[0]
}

func (d *Descriptor) serviceNode(name string) (*yaml.Node, error) {
	services := lookup(d.root(), keyServices)
	services = resolve(services)
	if services == nil || services.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("service %q not found", name)
	}

	node := lookup(services, name)
	if node == nil {
		return nil, fmt.Errorf("service %q not found", name)
	}
	return resolve(node), nil
}

// Attachments is the networks container of a single service, in either the
// short (list) or long (mapping) syntax.
type Attachments struct {
	service string
	node    *yaml.Node
}

// Names returns the attached network names in document order.
func (a *Attachments) Names() ([]string, error) {
	var names NetworkList
	if err := names.UnmarshalYAML(a.node); err != nil {
		return nil, NewParseError(keyServices+"."+a.service+"."+keyNetworks, err.Error(), ErrInvalidShape)
	}
	return names, nil
}

// Has reports whether the service is attached to the network.
func (a *Attachments) Has(network string) bool {
	if a.node.Kind == yaml.MappingNode {
		v := lookup(a.node, network)
		return v != nil
	}
	for _, item := range a.node.Content {
		if resolve(item).Value == network {
			return true
		}
	}
	return false
}

// Add attaches the network at the end of the list. It returns false when
// the network was already attached; existing entries never move.
func (a *Attachments) Add(network string) bool {
	if a.Has(network) {
		return false
	}

	if a.node.Kind == yaml.MappingNode {
		appendPair(a.node, network, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"})
	} else {
		a.node.Content = append(a.node.Content, newString(network))
	}
	return true
}

// Declarations is the top-level networks table.
type Declarations struct {
	node *yaml.Node
}

// Has reports whether the network is declared, with any attributes.
func (t *Declarations) Has(network string) bool {
	v := lookup(t.node, network)
	return v != nil
}

// Declare adds the network with the given attributes. Existing declarations
// are never overwritten; false is returned for them.
func (t *Declarations) Declare(network string, attrs Network) (bool, error) {
	if t.Has(network) {
		return false, nil
	}

	var value yaml.Node
	if err := value.Encode(attrs); err != nil {
		return false, fmt.Errorf("failed to encode network %s: %w", network, err)
	}
	appendPair(t.node, network, &value)
	return true, nil
}

// lookup returns the value stored under key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// mergedValue returns the value a mapping inherits for key through "<<"
// merge keys. Sources listed first win, as in YAML merge.
func mergedValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if !isMergeKey(m.Content[i]) {
			continue
		}
		sources := []*yaml.Node{m.Content[i+1]}
		if src := resolve(m.Content[i+1]); src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for _, src := range sources {
			src = resolve(src)
			if v := lookup(src, key); v != nil {
				return v
			}
			if v := mergedValue(src, key); v != nil {
				return v
			}
		}
	}
	return nil
}

// isMergeKey matches "<<" keys the same way the yaml.v3 decoder does, so a
// key stays a merge key after untagMergeKeys has run.
func isMergeKey(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode || n.Value != "<<" {
		return false
	}
	return n.Tag == "" || n.Tag == "!" || n.Tag == "!!merge"
}

// untagMergeKeys drops the explicit !!merge tag the decoder puts on "<<"
// keys so the encoder writes them back as plain "<<".
func untagMergeKeys(n *yaml.Node) {
	if n == nil || n.Kind == yaml.AliasNode {
		return
	}
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Tag == "!!merge" && k.Value == "<<" {
				k.Tag = ""
			}
		}
	}
	for _, child := range n.Content {
		untagMergeKeys(child)
	}
}

// clone deep-copies a subtree without its anchors and comments. Aliases
// inside it keep pointing at their original anchors.
func clone(n *yaml.Node) *yaml.Node {
	c := *n
	c.Anchor = ""
	c.HeadComment, c.LineComment, c.FootComment = "", "", ""
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = clone(child)
		}
	}
	return &c
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, newString(key), value)
}

// resolve follows aliases to the anchored node.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	if n == nil {
		return true
	}
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func newString(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func setMapping(n *yaml.Node) {
	n.Kind = yaml.MappingNode
	n.Tag = "!!map"
	n.Value = ""
	n.Style = 0
}

func setSequence(n *yaml.Node) {
	n.Kind = yaml.SequenceNode
	n.Tag = "!!seq"
	n.Value = ""
	n.Style = 0
}
