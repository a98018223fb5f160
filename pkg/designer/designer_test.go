package designer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/nodes"
)

var directOnly = eval.DisplayOptions{SkipImplicit: true}

func newDesigner(t *testing.T) *Designer {
	t.Helper()
	d, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// buildSized creates subnetwork "sized" (one float parameter feeding its
// return) and network "main" calling it with a literal 5.0 wired in.
func buildSized(t *testing.T, d *Designer) (param, call *graph.Node) {
	t.Helper()
	if err := d.NewNetwork("sized"); err != nil {
		t.Fatal(err)
	}
	param, err := d.AddNode("sized", "parameter", graph.Position{})
	if err != nil {
		t.Fatal(err)
	}
	param.Data.(*nodes.ParameterData).ParamName = "size"
	if _, err := d.Validate("sized"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetReturnNode("sized", param.ID); err != nil {
		t.Fatal(err)
	}

	if err := d.NewNetwork("main"); err != nil {
		t.Fatal(err)
	}
	call, err = d.AddNode("main", "sized", graph.Position{})
	if err != nil {
		t.Fatal(err)
	}
	lit, err := d.AddNode("main", "float", graph.Position{})
	if err != nil {
		t.Fatal(err)
	}
	lit.Data.(*nodes.FloatData).Value = 5.0
	if err := d.Connect("main", lit.ID, 0, call.ID, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.SetReturnNode("main", call.ID); err != nil {
		t.Fatal(err)
	}
	return param, call
}

func sceneValue(t *testing.T, d *Designer, network string, id graph.NodeID) eval.Value {
	t.Helper()
	scene, err := d.GenerateScene(context.Background(), network, directOnly, false)
	if err != nil {
		t.Fatal(err)
	}
	if msg, bad := scene.Errors[id]; bad {
		t.Fatalf("node %d failed: %s", id, msg)
	}
	return scene.Values[id]
}

func TestRenameParameterKeepsWiredValue(t *testing.T) {
	d := newDesigner(t)
	param, call := buildSized(t, d)

	if got := sceneValue(t, d, "main", call.ID); got.Float != 5.0 {
		t.Fatalf("value before rename = %v, want 5", got.Float)
	}

	argsBefore := append([]graph.Argument(nil), call.Args...)
	param.Data.(*nodes.ParameterData).ParamName = "length"
	if res, err := d.Validate("sized"); err != nil || !res.Valid {
		t.Fatalf("validate: %v %v", err, res)
	}

	if got := sceneValue(t, d, "main", call.ID); got.Float != 5.0 {
		t.Errorf("value after rename = %v, want 5", got.Float)
	}
	for i := range argsBefore {
		if len(argsBefore[i].Wires) != len(call.Args[i].Wires) {
			t.Fatalf("slot %d wiring changed by rename", i)
		}
		for j := range argsBefore[i].Wires {
			if argsBefore[i].Wires[j] != call.Args[i].Wires[j] {
				t.Fatalf("slot %d wire %d changed by rename", i, j)
			}
		}
	}
}

func TestInvalidSubnetworkBlocksCallSites(t *testing.T) {
	d := newDesigner(t)
	param, call := buildSized(t, d)

	// A second parameter forced onto the first one's id fails validation.
	extra, err := d.AddNode("sized", "parameter", graph.Position{})
	if err != nil {
		t.Fatal(err)
	}
	extra.Data.(*nodes.ParameterData).ID = param.Data.(*nodes.ParameterData).ID
	res, err := d.Validate("sized")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("duplicate parameter id passed validation")
	}

	scene, err := d.GenerateScene(context.Background(), "main", directOnly, false)
	if err != nil {
		t.Fatal(err)
	}
	if msg := scene.Errors[call.ID]; msg == "" {
		t.Errorf("call site of invalid subnetwork evaluated without error: values=%v", scene.Values)
	}

	// Deleting the offender restores evaluation.
	if err := d.DeleteNode("sized", extra.ID); err != nil {
		t.Fatal(err)
	}
	if res, err := d.Validate("sized"); err != nil || !res.Valid {
		t.Fatalf("validate after fix: %v %v", err, res)
	}
	if got := sceneValue(t, d, "main", call.ID); got.Float != 5.0 {
		t.Errorf("value after fix = %v, want 5", got.Float)
	}
}

func TestDeletedSubnetworkFailsCallSiteOnly(t *testing.T) {
	d := newDesigner(t)
	_, call := buildSized(t, d)

	sibling, err := d.AddNode("main", "int", graph.Position{})
	if err != nil {
		t.Fatal(err)
	}
	sibling.Data.(*nodes.IntData).Value = 7
	if err := d.SetDisplay("main", call.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDisplay("main", sibling.ID, true); err != nil {
		t.Fatal(err)
	}

	affected, err := d.DeleteNetwork("sized")
	if err != nil {
		t.Fatal(err)
	}
	if len(affected) != 1 || affected[0] != "main" {
		t.Errorf("affected = %v, want [main]", affected)
	}
	if d.Network("main").Validated {
		t.Error("caller still marked validated")
	}

	scene, err := d.GenerateScene(context.Background(), "main", directOnly, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, bad := scene.Errors[call.ID]; !bad {
		t.Error("call site of deleted subnetwork evaluated without error")
	}
	if scene.Values[sibling.ID].Int != 7 {
		t.Errorf("sibling value = %v, want 7", scene.Values[sibling.ID].Int)
	}
}

func TestConnectTypeGate(t *testing.T) {
	d := newDesigner(t)
	if err := d.NewNetwork("main"); err != nil {
		t.Fatal(err)
	}
	str, _ := d.AddNode("main", "string", graph.Position{})
	ball, _ := d.AddNode("main", "sphere", graph.Position{})
	u, _ := d.AddNode("main", "union", graph.Position{})

	err := d.Connect("main", str.ID, 0, ball.ID, 0)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("string into float slot: err = %v, want ErrTypeMismatch", err)
	}
	if len(ball.Args[0].Wires) != 0 {
		t.Error("rejected connect left a wire behind")
	}

	// Scalar geometry widens into the union's array slot.
	if err := d.Connect("main", ball.ID, 0, u.ID, 0); err != nil {
		t.Errorf("geometry into array<geometry> slot: %v", err)
	}
}

func TestDuplicateParameterGetsFreshID(t *testing.T) {
	d := newDesigner(t)
	param, _ := buildSized(t, d)

	dup, err := d.DuplicateNode("sized", param.ID)
	if err != nil {
		t.Fatal(err)
	}
	origID := param.Data.(*nodes.ParameterData).ID
	dupID := dup.Data.(*nodes.ParameterData).ID
	if dupID == 0 || dupID == origID {
		t.Errorf("duplicate parameter id = %d (original %d), want fresh", dupID, origID)
	}
	nw := d.Network("sized")
	if !nw.Validated {
		t.Error("network invalid after duplicating a parameter")
	}
	if len(nw.Type.Parameters) != 2 {
		t.Errorf("interface has %d parameters, want 2", len(nw.Type.Parameters))
	}
}

func TestQueryEditRoundTrip(t *testing.T) {
	d := newDesigner(t)
	if err := d.NewNetwork("main"); err != nil {
		t.Fatal(err)
	}
	res, err := d.Edit("main", "r = float {\n value = 3 \n}\nball = sphere {\n radius = r \n}\noutput ball\n", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("edit errors: %v", res.Errors)
	}

	text, err := d.Query("main")
	if err != nil {
		t.Fatal(err)
	}
	again, err := d.Query("main")
	if err != nil {
		t.Fatal(err)
	}
	if text != again {
		t.Error("query is not a pure function of graph state")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := newDesigner(t)
	_, call := buildSized(t, d)
	before := sceneValue(t, d, "main", call.ID)

	path := filepath.Join(t.TempDir(), "design.json")
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}

	d2 := newDesigner(t)
	if err := d2.Load(path); err != nil {
		t.Fatal(err)
	}
	names := d2.NetworkNames()
	if len(names) != 2 {
		t.Fatalf("loaded networks = %v, want 2", names)
	}
	nw := d2.Network("sized")
	if len(nw.Type.Parameters) != 1 || !nw.Type.Parameters[0].Type.Equal(dtype.Float) {
		t.Fatalf("reloaded interface = %+v", nw.Type.Parameters)
	}
	after := sceneValue(t, d2, "main", d2.Network("main").ReturnNode)
	if after.Float != before.Float {
		t.Errorf("reloaded value = %v, want %v", after.Float, before.Float)
	}
}

func TestEvaluateAsyncDelivers(t *testing.T) {
	d := newDesigner(t)
	_, call := buildSized(t, d)

	ch, err := d.EvaluateAsync(context.Background(), "main", directOnly)
	if err != nil {
		t.Fatal(err)
	}
	scene := <-ch
	if scene == nil {
		t.Fatal("no scene delivered")
	}
	if scene.Values[call.ID].Float != 5.0 {
		t.Errorf("async value = %v, want 5", scene.Values[call.ID].Float)
	}
}

func TestEvaluateAsyncCancellation(t *testing.T) {
	d := newDesigner(t)
	_, _ = buildSized(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch, err := d.EvaluateAsync(ctx, "main", directOnly)
	if err != nil {
		t.Fatal(err)
	}
	scene := <-ch
	if scene == nil {
		t.Fatal("no scene delivered after cancellation")
	}
	if !scene.Partial {
		t.Error("cancelled pass did not mark the scene partial")
	}
}
