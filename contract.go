package outscope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// internalMarker prefixes child names reserved for framework metadata.
// Entries with marker names are skipped by traversal and resolution.
const internalMarker = "~"

// Contract is a node in a contract tree. A leaf (created with Route)
// declares one RPC operation: an HTTP method and a URL path template.
// A group (created with Group) holds named children in declaration order.
//
// Contract trees are assembled once at startup and must not be modified
// after registration begins.
//
// Example:
//
//	var API = outscope.Group().
//	    Add("planet", outscope.Group().
//	        Add("list", outscope.Route("GET", "/planets")).
//	        Add("create", outscope.Route("POST", "/planets")))
type Contract struct {
	leaf    bool
	method  string
	path    string
	summary string
	tags    []string

	// id is the dot-joined key path from the root, assigned when the
	// tree is attached to an App. Empty until then (and for the root).
	id string

	entries []contractEntry
}

type contractEntry struct {
	name string
	node *Contract
}

// NamedContract pairs a child node with the name it was declared under.
type NamedContract struct {
	Name     string
	Contract *Contract
}

// Route creates a contract leaf declaring a single RPC operation.
// Path templates use chi syntax, e.g. "/planets/{id}".
func Route(method, path string) *Contract {
	return &Contract{
		leaf:   true,
		method: strings.ToUpper(method),
		path:   path,
	}
}

// Group creates an empty contract group. Children are appended with Add.
func Group() *Contract {
	return &Contract{}
}

// Add appends a named child to a group, preserving declaration order.
// It returns the group for chaining.
func (c *Contract) Add(name string, child *Contract) *Contract {
	if c.leaf {
		panic("outscope: Add called on a route leaf")
	}
	if name == "" {
		panic("outscope: Add called with empty name")
	}
	if child == nil {
		panic("outscope: Add called with nil contract")
	}
	c.entries = append(c.entries, contractEntry{name: name, node: child})
	return c
}

// WithSummary sets a human-readable summary on a route leaf.
func (c *Contract) WithSummary(summary string) *Contract {
	if !c.leaf {
		panic("outscope: WithSummary called on a group")
	}
	c.summary = summary
	return c
}

// WithTags sets descriptive tags on a route leaf.
func (c *Contract) WithTags(tags ...string) *Contract {
	if !c.leaf {
		panic("outscope: WithTags called on a group")
	}
	c.tags = tags
	return c
}

// IsLeaf reports whether the node declares an operation.
func (c *Contract) IsLeaf() bool { return c.leaf }

// Method returns the declared HTTP method, or "" for groups.
func (c *Contract) Method() string { return c.method }

// Path returns the declared URL path template, or "" for groups.
func (c *Contract) Path() string { return c.path }

// Summary returns the declared summary.
func (c *Contract) Summary() string { return c.summary }

// Tags returns the declared tags.
func (c *Contract) Tags() []string { return c.tags }

// ID returns the node's assigned identifier: the dot-joined key path from
// the root contract ("planet.list"). It is empty until the tree has been
// attached to an App with WithContract, and empty for the root itself.
func (c *Contract) ID() string { return c.id }

// describe returns a short identifier for error messages: the assigned ID
// when present, otherwise the declared operation or a generic label.
func (c *Contract) describe() string {
	if c.id != "" {
		return c.id
	}
	if c.leaf {
		return fmt.Sprintf("%s %s", c.method, c.path)
	}
	return "group"
}

// Child returns the named child, or nil if absent.
func (c *Contract) Child(name string) *Contract {
	for _, e := range c.entries {
		if e.name == name {
			return e.node
		}
	}
	return nil
}

// Entries returns the node's children in declaration order.
func (c *Contract) Entries() []NamedContract {
	out := make([]NamedContract, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, NamedContract{Name: e.name, Contract: e.node})
	}
	return out
}

// assignIDs interns the key path of every reachable node. Marker-named
// entries are left unassigned, matching traversal.
func (c *Contract) assignIDs(prefix string) {
	c.id = prefix
	for _, e := range c.entries {
		if strings.HasPrefix(e.name, internalMarker) {
			continue
		}
		childID := e.name
		if prefix != "" {
			childID = prefix + "." + e.name
		}
		e.node.assignIDs(childID)
	}
}

// MarshalJSON emits the manifest form of the tree. Leaves serialize as
// {"method": ..., "path": ..., "summary": ..., "tags": [...]} with empty
// fields omitted; groups serialize as an object of named children in
// declaration order.
func (c *Contract) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Contract) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	if c.leaf {
		fmt.Fprintf(buf, `"method":%q,"path":%q`, c.method, c.path)
		if c.summary != "" {
			data, err := json.Marshal(c.summary)
			if err != nil {
				return err
			}
			buf.WriteString(`,"summary":`)
			buf.Write(data)
		}
		if len(c.tags) > 0 {
			data, err := json.Marshal(c.tags)
			if err != nil {
				return err
			}
			buf.WriteString(`,"tags":`)
			buf.Write(data)
		}
	} else {
		for i, e := range c.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(e.name)
			if err != nil {
				return err
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := e.node.writeJSON(buf); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

// ParseContract reads a manifest produced by MarshalJSON, preserving the
// declaration order of children. An object is treated as a leaf when it
// carries string-valued route fields ("method", "path", "summary") or a
// "tags" array; mixing route fields with child objects is an error.
func ParseContract(data []byte) (*Contract, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	c, err := parseContractNode(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("contract manifest: trailing data after root object")
	}
	return c, nil
}

func parseContractNode(dec *json.Decoder) (*Contract, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("contract manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("contract manifest: expected object, got %v", tok)
	}

	node := &Contract{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("contract manifest: %w", err)
		}
		key := keyTok.(string)

		switch key {
		case "method", "path", "summary":
			var s string
			if err := dec.Decode(&s); err != nil {
				return nil, fmt.Errorf("contract manifest: field %q: %w", key, err)
			}
			if len(node.entries) > 0 {
				return nil, fmt.Errorf("contract manifest: node mixes route field %q with children", key)
			}
			node.leaf = true
			switch key {
			case "method":
				node.method = strings.ToUpper(s)
			case "path":
				node.path = s
			case "summary":
				node.summary = s
			}
		case "tags":
			var tags []string
			if err := dec.Decode(&tags); err != nil {
				return nil, fmt.Errorf("contract manifest: field tags: %w", err)
			}
			if len(node.entries) > 0 {
				return nil, fmt.Errorf("contract manifest: node mixes tags with children")
			}
			node.leaf = true
			node.tags = tags
		default:
			child, err := parseContractNode(dec)
			if err != nil {
				return nil, err
			}
			if node.leaf {
				return nil, fmt.Errorf("contract manifest: node mixes route fields with child %q", key)
			}
			node.entries = append(node.entries, contractEntry{name: key, node: child})
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("contract manifest: %w", err)
	}
	return node, nil
}
