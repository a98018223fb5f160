package registry_test

import (
	"testing"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

func floatBuiltin(name string) *registry.Builtin {
	return &registry.Builtin{
		Type: graph.NodeType{Name: name, OutputType: dtype.Float},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterBuiltin(floatBuiltin("float")); err != nil {
		t.Fatalf("RegisterBuiltin: %v", err)
	}
	if err := reg.RegisterBuiltin(floatBuiltin("float")); err == nil {
		t.Error("duplicate builtin registration must fail")
	}

	nt := reg.Lookup("float")
	if nt == nil || nt.Name != "float" {
		t.Fatalf("Lookup(float) = %v", nt)
	}
	if reg.Lookup("nope") != nil {
		t.Error("Lookup of unknown name must return nil")
	}

	// Lookup hands out a copy; callers must not be able to corrupt the
	// registered descriptor.
	nt.OutputType = dtype.Int
	if !reg.Lookup("float").OutputType.Equal(dtype.Float) {
		t.Error("Lookup must return a copy of the builtin type")
	}
}

func TestNetworkRegistration(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterBuiltin(floatBuiltin("float")); err != nil {
		t.Fatal(err)
	}

	sub := graph.NewNetwork("wheel")
	if err := reg.AddNetwork(sub); err != nil {
		t.Fatalf("AddNetwork: %v", err)
	}
	if err := reg.AddNetwork(graph.NewNetwork("wheel")); err == nil {
		t.Error("duplicate network name must fail")
	}
	if err := reg.AddNetwork(graph.NewNetwork("float")); err == nil {
		t.Error("network shadowing a builtin must fail")
	}

	if nt := reg.Lookup("wheel"); nt == nil || !nt.Subnetwork {
		t.Errorf("Lookup(wheel) = %v, want subnetwork type", nt)
	}
}

func TestParentNetworksAndRemove(t *testing.T) {
	reg := registry.New()
	sub := graph.NewNetwork("wheel")
	main := graph.NewNetwork("main")
	other := graph.NewNetwork("other")
	for _, nw := range []*graph.NodeNetwork{sub, main, other} {
		if err := reg.AddNetwork(nw); err != nil {
			t.Fatal(err)
		}
	}
	main.AddNode("wheel", 0, nil, graph.Position{})
	other.AddNode("float", 0, nil, graph.Position{})

	parents := reg.ParentNetworks("wheel")
	if len(parents) != 1 || parents[0] != "main" {
		t.Errorf("ParentNetworks(wheel) = %v, want [main]", parents)
	}

	affected := reg.RemoveNetwork("wheel")
	if len(affected) != 1 || affected[0] != "main" {
		t.Errorf("RemoveNetwork affected = %v, want [main]", affected)
	}
	if reg.Lookup("wheel") != nil {
		t.Error("removed network still resolvable")
	}
}

func TestUsageCycle(t *testing.T) {
	reg := registry.New()
	a := graph.NewNetwork("a")
	b := graph.NewNetwork("b")
	c := graph.NewNetwork("c")
	for _, nw := range []*graph.NodeNetwork{a, b, c} {
		if err := reg.AddNetwork(nw); err != nil {
			t.Fatal(err)
		}
	}
	// a uses b, b uses c: no cycle anywhere.
	a.AddNode("b", 0, nil, graph.Position{})
	b.AddNode("c", 0, nil, graph.Position{})
	for _, name := range []string{"a", "b", "c"} {
		if reg.UsageCycle(name) {
			t.Errorf("UsageCycle(%s) = true on a DAG", name)
		}
	}

	// c uses a: every network on the loop now cycles.
	c.AddNode("a", 0, nil, graph.Position{})
	for _, name := range []string{"a", "b", "c"} {
		if !reg.UsageCycle(name) {
			t.Errorf("UsageCycle(%s) = false, want true", name)
		}
	}
}
