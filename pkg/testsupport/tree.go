// Package testsupport provides an in-memory administrative tree loaded from
// YAML and a fake upstream serving the children and ancestors endpoints over
// it. Tests and the demo server use it in place of the real region API.
package testsupport

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-regioncascade/pkg/region"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// DefaultFixture is the embedded sample tree.
const DefaultFixture = "fixtures/benin.yaml"

// ErrUnknownRegion is returned by Ancestors for ids missing from the tree.
var ErrUnknownRegion = errors.New("testsupport: unknown region")

// Node is one region with its children.
type Node struct {
	region.Region `yaml:",inline"`
	Children      []Node `yaml:"children,omitempty"`
}

type document struct {
	Regions []Node `yaml:"regions"`
}

// Tree indexes a region hierarchy by parent. It satisfies cascade.Source.
type Tree struct {
	roots    []region.Region
	children map[string][]region.Region
	parents  map[string]string
}

// ParseTree decodes a YAML document with a top-level "regions" list.
func ParseTree(data []byte) (*Tree, error) {
	return LoadTree(bytes.NewReader(data))
}

// LoadTree decodes a YAML tree from r.
func LoadTree(r io.Reader) (*Tree, error) {
	if r == nil {
		return nil, errors.New("testsupport: missing reader")
	}
	var doc document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("testsupport: decode tree: %w", err)
	}

	t := &Tree{
		children: make(map[string][]region.Region),
		parents:  make(map[string]string),
	}
	for _, node := range doc.Regions {
		if err := t.add("", node); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadTreeFile reads a YAML tree from path.
func LoadTreeFile(path string) (*Tree, error) {
	if path == "" {
		return nil, errors.New("testsupport: tree path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: open tree: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadTree(f)
}

// DefaultTree loads the embedded sample tree.
func DefaultTree() (*Tree, error) {
	f, err := fixtureFS.Open(DefaultFixture)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadTree(f)
}

// MustTree parses data or fails the test.
func MustTree(t testing.TB, data string) *Tree {
	t.Helper()
	tree, err := ParseTree([]byte(data))
	if err != nil {
		t.Fatalf("parse tree: %v", err)
	}
	return tree
}

func (t *Tree) add(parent string, node Node) error {
	id := strings.TrimSpace(node.ID)
	if id == "" {
		return fmt.Errorf("testsupport: region %q under %q has no id", node.Name, parent)
	}
	if _, dup := t.parents[id]; dup {
		return fmt.Errorf("testsupport: duplicate region id %q", id)
	}
	t.parents[id] = parent

	entry := node.Region
	entry.ID = id
	if parent == "" {
		t.roots = append(t.roots, entry)
	} else {
		t.children[parent] = append(t.children[parent], entry)
	}
	for _, child := range node.Children {
		if err := t.add(id, child); err != nil {
			return err
		}
	}
	return nil
}

// Roots returns the top-level regions.
func (t *Tree) Roots() []region.Region {
	return append([]region.Region(nil), t.roots...)
}

// Children returns the direct children of parentID; an empty parent lists the
// roots.
func (t *Tree) Children(ctx context.Context, parentID string) ([]region.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if parentID == "" {
		return t.Roots(), nil
	}
	return append([]region.Region(nil), t.children[parentID]...), nil
}

// Ancestors returns the ids above id ordered root first. Roots have no
// ancestors.
func (t *Tree) Ancestors(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parent, ok := t.parents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	var chain []string
	for parent != "" {
		chain = append([]string{parent}, chain...)
		parent = t.parents[parent]
	}
	return chain, nil
}

// Region looks up a region by id.
func (t *Tree) Region(id string) (region.Region, bool) {
	parent, ok := t.parents[id]
	if !ok {
		return region.Region{}, false
	}
	list := t.roots
	if parent != "" {
		list = t.children[parent]
	}
	for _, r := range list {
		if r.ID == id {
			return r, true
		}
	}
	return region.Region{}, false
}
