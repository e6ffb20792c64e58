/*
Package augment attaches a derived set of networks to every service of a
compose descriptor and declares those networks in the top-level networks
table.
*/
package augment

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/oarkflow/composenet/internal/compose"
)

const (
	// DefaultDriver is the driver given to networks the augmenter declares.
	DefaultDriver = "overlay"

	// DefaultSuffix is appended to every label to form a network name.
	DefaultSuffix = "_dependencies_net"

	// DefaultSentinel is always attached, after the label networks.
	DefaultSentinel = "traefik_net"

	// DefaultIndent is the YAML indentation of the emitted descriptor.
	DefaultIndent = 2
)

// Options configures a single augmentation run.
type Options struct {
	// Path of the descriptor to read.
	Path string

	// Labels is the comma-separated label list.
	Labels string

	// Driver for newly declared networks.
	Driver string

	// Suffix appended to each label.
	Suffix string

	// Sentinel network attached after the label networks.
	Sentinel string

	// Indent of the emitted YAML.
	Indent int

	// Strict validates the augmented descriptor with the compose loader
	// before it is written.
	Strict bool
}

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = DefaultDriver
	}
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
	if o.Sentinel == "" {
		o.Sentinel = DefaultSentinel
	}
	if o.Indent == 0 {
		o.Indent = DefaultIndent
	}
	return o
}

// Augment loads the descriptor at opts.Path, attaches and declares the
// networks derived from opts.Labels, and writes the result to w. Nothing is
// written unless every step succeeds.
func Augment(ctx context.Context, opts Options, w io.Writer) error {
	opts = opts.withDefaults()

	doc, err := compose.Load(opts.Path)
	if err != nil {
		return err
	}

	networks := DeriveNetworks(opts.Labels, WithSuffix(opts.Suffix), WithSentinel(opts.Sentinel))
	log.Info("Derived networks", "networks", networks)

	if err := AttachNetworks(doc, networks); err != nil {
		return err
	}
	if err := EnsureNetworkDeclarations(doc, networks, opts.Driver); err != nil {
		return err
	}

	data, err := doc.Bytes(opts.Indent)
	if err != nil {
		return err
	}

	if opts.Strict {
		log.Debug("Validating augmented descriptor", "path", opts.Path)
		if err := compose.ValidateProject(ctx, data, filepath.Dir(opts.Path)); err != nil {
			return err
		}
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

// AttachNetworks makes every service attached to each of the networks.
// Missing names are appended in the given order; names already attached
// keep their position. Running it twice changes nothing the second time.
func AttachNetworks(doc *compose.Descriptor, networks []string) error {
	for _, name := range doc.ServiceNames() {
		attachments, err := doc.Attachments(name)
		if err != nil {
			return err
		}

		added := 0
		for _, network := range networks {
			if attachments.Add(network) {
				added++
			}
		}
		attached, err := attachments.Names()
		if err != nil {
			return err
		}
		log.Info("Attached networks", "service", name, "added", added, "networks", attached)
	}
	return nil
}

// EnsureNetworkDeclarations declares each network that the descriptor does
// not declare yet, with the given driver. Existing declarations are left
// exactly as they are.
func EnsureNetworkDeclarations(doc *compose.Descriptor, networks []string, driver string) error {
	decls, err := doc.Declarations()
	if err != nil {
		return err
	}

	for _, network := range networks {
		added, err := decls.Declare(network, compose.Network{Driver: driver})
		if err != nil {
			return err
		}
		if added {
			log.Info("Declared network", "name", network, "driver", driver)
		} else {
			log.Debug("Network already declared", "name", network)
		}
	}
	return nil
}

type deriveConfig struct {
	suffix   string
	sentinel string
}

// Option customizes DeriveNetworks.
type Option func(*deriveConfig)

// WithSuffix sets the suffix appended to each label.
func WithSuffix(suffix string) Option {
	return func(c *deriveConfig) {
		c.suffix = suffix
	}
}

// WithSentinel sets the network appended after the label networks.
func WithSentinel(sentinel string) Option {
	return func(c *deriveConfig) {
		c.sentinel = sentinel
	}
}

// DeriveNetworks turns a comma-separated label list into network names:
// each trimmed, non-empty label gets the suffix, and the sentinel is
// appended last. Repeated names are kept once, at their first position.
func DeriveNetworks(labels string, opts ...Option) []string {
	cfg := deriveConfig{suffix: DefaultSuffix, sentinel: DefaultSentinel}
	for _, opt := range opts {
		opt(&cfg)
	}

	seen := map[string]bool{cfg.sentinel: true}
	networks := make([]string, 0)
	for _, label := range strings.Split(labels, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		name := label + cfg.suffix
		if seen[name] {
			continue
		}
		seen[name] = true
		networks = append(networks, name)
	}

	return append(networks, cfg.sentinel)
}
