package outscope

import (
	"testing"
)

func testTree() (root, list, get, create *Contract) {
	list = Route("GET", "/planets")
	get = Route("GET", "/planets/{id}")
	create = Route("POST", "/planets")
	root = Group().
		Add("planet", Group().
			Add("list", list).
			Add("get", get).
			Add("create", create)).
		Add("system", Group().
			Add("info", Route("GET", "/system")))
	return root, list, get, create
}

func TestPathOf(t *testing.T) {
	root, list, get, _ := testTree()

	tests := []struct {
		name   string
		target *Contract
		want   []string
	}{
		{"first leaf", list, []string{"planet", "list"}},
		{"second leaf", get, []string{"planet", "get"}},
		{"group node", root.Child("planet"), []string{"planet"}},
		{"nested in second group", root.Child("system").Child("info"), []string{"system", "info"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := root.PathOf(tt.target)
			if !ok {
				t.Fatal("expected target to be found")
			}
			if len(path) != len(tt.want) {
				t.Fatalf("expected path %v, got %v", tt.want, path)
			}
			for i := range path {
				if path[i] != tt.want[i] {
					t.Fatalf("expected path %v, got %v", tt.want, path)
				}
			}
		})
	}
}

// Resolving a path and re-navigating it must reach the same node, for every
// node reachable from the root.
func TestPathOf_RoundTrip(t *testing.T) {
	root, _, _, _ := testTree()

	var walk func(node *Contract)
	walk = func(node *Contract) {
		path, ok := root.PathOf(node)
		if !ok {
			t.Fatalf("node %s not found from root", node.describe())
		}
		back, ok := root.At(path...)
		if !ok {
			t.Fatalf("At(%v) failed", path)
		}
		if back != node {
			t.Errorf("round trip via %v reached a different node", path)
		}
		for _, e := range node.Entries() {
			walk(e.Contract)
		}
	}
	walk(root)
}

// The zero-depth case and the not-found case are distinguishable: the root
// resolves to an empty, non-nil path; a stranger node to (nil, false).
func TestPathOf_ZeroDepthVersusNotFound(t *testing.T) {
	root, _, _, _ := testTree()

	path, ok := root.PathOf(root)
	if !ok {
		t.Fatal("root must resolve against itself")
	}
	if path == nil || len(path) != 0 {
		t.Errorf("expected empty non-nil path for root, got %v", path)
	}

	stranger := Route("GET", "/elsewhere")
	path, ok = root.PathOf(stranger)
	if ok {
		t.Error("unreachable target must not resolve")
	}
	if path != nil {
		t.Errorf("expected nil path for unreachable target, got %v", path)
	}

	if _, ok := root.PathOf(nil); ok {
		t.Error("nil target must not resolve")
	}
}

// When the same node is reachable under several names, the first declared
// wins.
func TestPathOf_FirstMatchWins(t *testing.T) {
	leaf := Route("GET", "/shared")
	root := Group().
		Add("beta", Group().Add("op", leaf)).
		Add("alpha", Group().Add("op", leaf))

	path, ok := root.PathOf(leaf)
	if !ok {
		t.Fatal("expected leaf to be found")
	}
	if len(path) != 2 || path[0] != "beta" || path[1] != "op" {
		t.Errorf("expected declaration-order match [beta op], got %v", path)
	}
}

func TestPathOf_SkipsMarkerEntries(t *testing.T) {
	hidden := Route("GET", "/hidden")
	visible := Route("GET", "/visible")
	root := Group().
		Add("~internal", Group().Add("leak", hidden)).
		Add("ops", Group().Add("visible", visible))

	if _, ok := root.PathOf(hidden); ok {
		t.Error("nodes under marker entries must not resolve")
	}
	path, ok := root.PathOf(visible)
	if !ok || len(path) != 2 || path[0] != "ops" {
		t.Errorf("expected [ops visible], got %v (ok=%v)", path, ok)
	}
}

// After IDs are assigned, matching survives the loss of pointer identity,
// e.g. a contract value decoded from a manifest.
func TestPathOf_MatchesByAssignedID(t *testing.T) {
	root, _, _, _ := testTree()
	root.assignIDs("")

	clone, _, _, _ := testTree()
	clone.assignIDs("")
	detached := clone.Child("planet").Child("get")

	path, ok := root.PathOf(detached)
	if !ok {
		t.Fatal("expected ID-based match to succeed")
	}
	if len(path) != 2 || path[0] != "planet" || path[1] != "get" {
		t.Errorf("expected [planet get], got %v", path)
	}

	// Without assigned IDs, distinct pointers do not match.
	fresh, _, _, _ := testTree()
	freshDetached, _, _, _ := testTree()
	if _, ok := fresh.PathOf(freshDetached.Child("planet").Child("get")); ok {
		t.Error("expected no match without IDs or pointer identity")
	}
}

func TestAt(t *testing.T) {
	root, list, _, _ := testTree()

	node, ok := root.At("planet", "list")
	if !ok || node != list {
		t.Errorf("expected planet.list leaf, got %v (ok=%v)", node, ok)
	}

	node, ok = root.At()
	if !ok || node != root {
		t.Error("empty path must yield the receiver")
	}

	if _, ok := root.At("planet", "missing"); ok {
		t.Error("expected missing key to fail")
	}
	if _, ok := root.At("missing"); ok {
		t.Error("expected missing key to fail")
	}
}

func TestFindLeaf(t *testing.T) {
	root, list, _, _ := testTree()

	if got := findLeaf(root, list); got != list {
		t.Errorf("expected leaf to be found, got %v", got)
	}
	if got := findLeaf(root.Child("planet"), list); got != list {
		t.Error("expected leaf to be found from subtree scope")
	}
	if got := findLeaf(root.Child("system"), list); got != nil {
		t.Errorf("expected nil for leaf outside scope, got %v", got)
	}
	if got := findLeaf(nil, list); got != nil {
		t.Errorf("expected nil for nil scope, got %v", got)
	}
}
