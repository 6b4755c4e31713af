package outscope

import "strings"

// PathOf returns the ordered key path from c to target. Traversal is
// depth-first pre-order over declared children, first match wins, ties
// broken by declaration order. Children with marker names (see
// internalMarker) are skipped.
//
// The zero-depth case and the not-found case are distinguishable: when c
// and target are the same node the result is an empty, non-nil path with
// ok true; when target is unreachable the result is (nil, false).
func (c *Contract) PathOf(target *Contract) ([]string, bool) {
	if c == nil || target == nil {
		return nil, false
	}
	if c.same(target) {
		return []string{}, true
	}
	for _, e := range c.entries {
		if strings.HasPrefix(e.name, internalMarker) {
			continue
		}
		if sub, ok := e.node.PathOf(target); ok {
			return append([]string{e.name}, sub...), true
		}
	}
	return nil, false
}

// At navigates from c along path and returns the reached node. The boolean
// is false when any key along the way is missing. An empty path yields c.
func (c *Contract) At(path ...string) (*Contract, bool) {
	node := c
	for _, key := range path {
		if node = node.Child(key); node == nil {
			return nil, false
		}
	}
	return node, true
}

// same reports node identity: pointer equality first, assigned-ID equality
// second. The explicit ID keeps matching stable when a contract value has
// crossed a serialization or module boundary and pointer identity is lost.
func (c *Contract) same(other *Contract) bool {
	if c == other {
		return true
	}
	return c.id != "" && other != nil && c.id == other.id
}

// findLeaf locates the node matching target inside scope using the same
// traversal as PathOf. Returns nil when target is not present.
func findLeaf(scope, target *Contract) *Contract {
	if scope == nil {
		return nil
	}
	if scope.same(target) {
		return scope
	}
	for _, e := range scope.entries {
		if strings.HasPrefix(e.name, internalMarker) {
			continue
		}
		if n := findLeaf(e.node, target); n != nil {
			return n
		}
	}
	return nil
}
