package textfmt

import (
	"strings"
	"testing"

	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/nodes"
	"github.com/chazu/facet/pkg/registry"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := nodes.Register(reg); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	return reg
}

func TestApplyCreatesAndWires(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")

	res := Apply(nw, reg, `
r = float {
    value = 2.5
}
ball = sphere {
    radius = r
}
output ball
`, false)

	if len(res.Errors) != 0 {
		t.Fatalf("errors: %v", res.Errors)
	}
	if len(res.Created) != 2 {
		t.Fatalf("created = %v, want 2 nodes", res.Created)
	}
	if res.Connections != 1 {
		t.Errorf("connections = %d, want 1", res.Connections)
	}

	ball := nw.NodeByName("ball")
	if ball == nil {
		t.Fatal("ball not created")
	}
	r := nw.NodeByName("r")
	if r.Data.(*nodes.FloatData).Value != 2.5 {
		t.Errorf("float value = %v, want 2.5", r.Data.(*nodes.FloatData).Value)
	}
	if got := ball.Args[0].Wires; len(got) != 1 || got[0].Source != r.ID {
		t.Errorf("radius wires = %v", got)
	}
	if nw.ReturnNode != ball.ID {
		t.Errorf("return node = %d, want %d", nw.ReturnNode, ball.ID)
	}
}

func TestApplyForwardReference(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")

	// u references its sources before their blocks appear.
	res := Apply(nw, reg, `
u = union {
    shapes = [a, b]
}
a = sphere {}
b = sphere {}
`, false)
	if len(res.Errors) != 0 {
		t.Fatalf("errors: %v", res.Errors)
	}
	u := nw.NodeByName("u")
	if len(u.Args[0].Wires) != 2 {
		t.Errorf("shapes wires = %v, want 2", u.Args[0].Wires)
	}
}

func TestApplyUnknownTypeSkipsStatementOnly(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")

	res := Apply(nw, reg, `
bad = frobnicator {
    value = 1
}
ok = float {
    value = 3
}
`, false)
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "frobnicator") {
		t.Fatalf("errors = %v", res.Errors)
	}
	if nw.NodeByName("bad") != nil {
		t.Error("node of unknown type was created")
	}
	if nw.NodeByName("ok") == nil {
		t.Error("valid sibling statement was not applied")
	}
}

func TestApplyRejectsIncompatibleWire(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")

	res := Apply(nw, reg, `
s = string {
    value = "hi"
}
ball = sphere {
    radius = s
}
`, false)
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	ball := nw.NodeByName("ball")
	if len(ball.Args[0].Wires) != 0 {
		t.Errorf("incompatible wire was applied: %v", ball.Args[0].Wires)
	}
	// Both nodes still exist and the graph is intact.
	if nw.NodeByName("s") == nil || ball == nil {
		t.Error("nodes missing after rejected wire")
	}
}

func TestApplyUpdateAndDelete(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")
	Apply(nw, reg, "r = float {\n value = 1 \n}\nx = float {\n value = 2 \n}\n", false)

	res := Apply(nw, reg, `
r = float {
    value = 9
}
delete x
`, false)
	if len(res.Errors) != 0 {
		t.Fatalf("errors: %v", res.Errors)
	}
	if len(res.Updated) != 1 || res.Updated[0] != "r" {
		t.Errorf("updated = %v", res.Updated)
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != "x" {
		t.Errorf("deleted = %v", res.Deleted)
	}
	if got := nw.NodeByName("r").Data.(*nodes.FloatData).Value; got != 9 {
		t.Errorf("value = %v, want 9", got)
	}
	if nw.NodeByName("x") != nil {
		t.Error("x survived delete")
	}
}

func TestApplyReplaceDropsUnmentioned(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")
	Apply(nw, reg, "a = float {}\nb = float {}\n", false)

	res := Apply(nw, reg, "a = float {}\n", true)
	if len(res.Deleted) != 1 || res.Deleted[0] != "b" {
		t.Errorf("deleted = %v, want [b]", res.Deleted)
	}
	if nw.NodeByName("a") == nil || nw.NodeByName("b") != nil {
		t.Error("replace kept the wrong nodes")
	}
}

func TestApplyTypeMismatchOnExistingName(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")
	Apply(nw, reg, "a = float {}\n", false)

	res := Apply(nw, reg, "a = sphere {}\n", false)
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if nw.NodeByName("a").TypeName != "float" {
		t.Error("node was retyped in place")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")
	res := Apply(nw, reg, `
r = float {
    value = 2.5
}
c = vec3 {
    x = 1
    z = 3
}
ball = sphere {
    radius = r
    center = c
}
display ball
output ball
`, false)
	if len(res.Errors) != 0 {
		t.Fatalf("errors: %v", res.Errors)
	}

	text := Serialize(nw, reg)
	for _, want := range []string{"radius = r", "center = c", "display ball", "output ball"} {
		if !strings.Contains(text, want) {
			t.Errorf("serialized text missing %q:\n%s", want, text)
		}
	}

	// Applying the rendered text to a fresh network reproduces it.
	nw2 := graph.NewNetwork("copy")
	res2 := Apply(nw2, reg, text, false)
	if len(res2.Errors) != 0 {
		t.Fatalf("reapply errors: %v", res2.Errors)
	}
	if got := Serialize(nw2, reg); got != text {
		t.Errorf("round trip drifted:\n--- first\n%s--- second\n%s", text, got)
	}
}

func TestSerializeIsPure(t *testing.T) {
	reg := newRegistry(t)
	nw := graph.NewNetwork("main")
	Apply(nw, reg, "a = float {}\nb = sphere {\n radius = a \n}\n", false)

	first := Serialize(nw, reg)
	for i := 0; i < 5; i++ {
		if got := Serialize(nw, reg); got != first {
			t.Fatalf("serialization unstable on call %d", i+2)
		}
	}
}
