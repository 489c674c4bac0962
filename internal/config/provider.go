package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider looks up a named input.
type Provider interface {
	// Lookup returns the raw value of the input and whether it was supplied at all.
	Lookup(name string) (string, bool)
}

// MapProvider serves inputs from memory.
type MapProvider map[string]string

// Lookup implements Provider.
func (m MapProvider) Lookup(name string) (string, bool) {
	value, ok := m[name]

	return value, ok
}

// EnvProvider reads inputs the way the GitHub Actions runner exposes them:
// "ref-name" is read from INPUT_REF-NAME.
type EnvProvider struct {
	// lookupEnv reads a single environment variable.
	lookupEnv func(string) (string, bool)
}

// NewEnvProvider returns a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{
		lookupEnv: os.LookupEnv,
	}
}

// Lookup implements Provider.
func (p *EnvProvider) Lookup(name string) (string, bool) {
	return p.lookupEnv(EnvName(name))
}

// EnvName returns the environment variable carrying the named input.
func EnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Chain asks each provider in turn and returns the first supplied value.
type Chain []Provider

// Lookup implements Provider.
func (c Chain) Lookup(name string) (string, bool) {
	for _, provider := range c {
		if provider == nil {
			continue
		}

		if value, ok := provider.Lookup(name); ok {
			return value, true
		}
	}

	return "", false
}

// LoadFile reads a YAML settings file whose keys are input names.
// Scalars are taken as written, so "commit: 1234e56" stays "1234e56".
// Sequence values are joined with commas, so lists may be written either way:
//
//	platform: linux, darwin
//	architecture: [amd64, arm64]
func LoadFile(path string) (MapProvider, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var raw map[string]yaml.Node
	if err = yaml.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	inputs := make(MapProvider, len(raw))

	for name, node := range raw {
		value, nodeErr := nodeValue(&node)
		if nodeErr != nil {
			return nil, fmt.Errorf("%w: %s", nodeErr, name)
		}

		inputs[name] = value
	}

	return inputs, nil
}

// nodeValue returns the literal text of a scalar node, or the comma-joined
// text of a sequence of scalars.
func nodeValue(node *yaml.Node) (string, error) {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.ScalarNode:
		return scalarValue(node), nil
	case yaml.SequenceNode:
		elements := make([]string, 0, len(node.Content))

		for _, element := range node.Content {
			element = resolveAlias(element)
			if element.Kind != yaml.ScalarNode {
				return "", errNestedInput
			}

			elements = append(elements, scalarValue(element))
		}

		return strings.Join(elements, ","), nil
	default:
		return "", errNestedInput
	}
}

// scalarValue returns the text of a scalar node; null is "".
func scalarValue(node *yaml.Node) string {
	if node.ShortTag() == "!!null" {
		return ""
	}

	return node.Value
}

// resolveAlias follows alias nodes to the anchored node.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	return node
}
