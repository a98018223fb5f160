package validate

import (
	"reflect"
	"testing"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
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

func addParam(t *testing.T, nw *graph.NodeNetwork, name string, typ dtype.Type, order int) *graph.Node {
	t.Helper()
	return nw.AddNode("parameter", 1, &nodes.ParameterData{ParamName: name, Type: typ, SortOrder: order}, graph.Position{})
}

// buildLens registers a subnetwork "lens" with two parameters (radius float,
// center vec3) and a sphere return node, then validates it.
func buildLens(t *testing.T, reg *registry.Registry, v *Validator) *graph.NodeNetwork {
	t.Helper()
	sub := graph.NewNetwork("lens")
	pr := addParam(t, sub, "radius", dtype.Float, 0)
	pc := addParam(t, sub, "center", dtype.Vec3, 1)
	sph := sub.AddNode("sphere", 2, &nodes.SphereData{Radius: 1}, graph.Position{})
	if err := sub.Connect(pr.ID, 0, sph.ID, 0); err != nil {
		t.Fatalf("connect radius: %v", err)
	}
	if err := sub.Connect(pc.ID, 0, sph.ID, 1); err != nil {
		t.Fatalf("connect center: %v", err)
	}
	if err := sub.SetReturnNode(sph.ID); err != nil {
		t.Fatalf("return node: %v", err)
	}
	if err := reg.AddNetwork(sub); err != nil {
		t.Fatalf("add network: %v", err)
	}
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatalf("validate lens: %v", err)
	}
	if !res.Valid {
		t.Fatalf("lens invalid: %v", res.Errors)
	}
	return sub
}

// buildCaller registers a parent network "main" with a lens call site whose
// first slot is fed by a float node and second by a vec3 node.
func buildCaller(t *testing.T, reg *registry.Registry, v *Validator) (*graph.NodeNetwork, *graph.Node) {
	t.Helper()
	main := graph.NewNetwork("main")
	lensType := reg.Lookup("lens")
	if lensType == nil {
		t.Fatal("lens type not registered")
	}
	call := main.AddNode("lens", len(lensType.Parameters), nodes.NewCallData(), graph.Position{})
	f := main.AddNode("float", 0, &nodes.FloatData{Value: 5}, graph.Position{})
	vec := main.AddNode("vec3", 3, &nodes.Vec3Data{X: 1}, graph.Position{})
	if err := main.Connect(f.ID, 0, call.ID, 0); err != nil {
		t.Fatalf("connect float: %v", err)
	}
	if err := main.Connect(vec.ID, 0, call.ID, 1); err != nil {
		t.Fatalf("connect vec3: %v", err)
	}
	if err := main.SetReturnNode(call.ID); err != nil {
		t.Fatalf("return node: %v", err)
	}
	if err := reg.AddNetwork(main); err != nil {
		t.Fatalf("add network: %v", err)
	}
	if res, err := v.ValidateNetwork("main"); err != nil || !res.Valid {
		t.Fatalf("validate main: %v %v", err, res)
	}
	return main, call
}

func TestInterfaceFromParameterNodes(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)

	params := sub.Type.Parameters
	if len(params) != 2 {
		t.Fatalf("got %d parameters, want 2", len(params))
	}
	if params[0].Name != "radius" || !params[0].Type.Equal(dtype.Float) {
		t.Errorf("param 0 = %v %s", params[0].Name, params[0].Type)
	}
	if params[1].Name != "center" || !params[1].Type.Equal(dtype.Vec3) {
		t.Errorf("param 1 = %v %s", params[1].Name, params[1].Type)
	}
	if params[0].ID == 0 || params[1].ID == 0 {
		t.Error("parameter ids were not minted")
	}
	if params[0].ID == params[1].ID {
		t.Error("parameter ids collide")
	}
	if !sub.Type.OutputType.Equal(dtype.Geometry) {
		t.Errorf("output type = %s, want geometry", sub.Type.OutputType)
	}
	if !sub.Validated {
		t.Error("network not marked validated")
	}
}

func TestRevalidateIsStable(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)

	before := append([]graph.Parameter(nil), sub.Type.Parameters...)
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if res.InterfaceChanged {
		t.Error("no-op revalidation reported an interface change")
	}
	if !reflect.DeepEqual(before, sub.Type.Parameters) {
		t.Errorf("parameters drifted: %v -> %v", before, sub.Type.Parameters)
	}
}

func TestRenamePreservesCallSiteWiring(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	_, call := buildCaller(t, reg, v)

	before := make([]graph.Argument, len(call.Args))
	for i := range call.Args {
		before[i] = call.Args[i].Clone()
	}

	p := sub.NodeByName("parameter1")
	p.Data.(*nodes.ParameterData).ParamName = "r"
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("invalid after rename: %v", res.Errors)
	}

	if !reflect.DeepEqual(before, call.Args) {
		t.Errorf("wiring changed by a rename:\n before %v\n after  %v", before, call.Args)
	}
	if sub.Type.Parameters[0].Name != "r" {
		t.Errorf("interface name = %q, want r", sub.Type.Parameters[0].Name)
	}
}

func TestReorderMovesWiresWithParameters(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	_, call := buildCaller(t, reg, v)

	radiusWires := call.Args[0].Clone()
	centerWires := call.Args[1].Clone()

	// Swap the declared order: center first, radius second.
	sub.NodeByName("parameter1").Data.(*nodes.ParameterData).SortOrder = 1
	sub.NodeByName("parameter2").Data.(*nodes.ParameterData).SortOrder = 0
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if !res.InterfaceChanged {
		t.Error("reorder did not report an interface change")
	}
	if got := res.Cascaded; len(got) != 1 || got[0] != "main" {
		t.Errorf("cascaded = %v, want [main]", got)
	}

	if sub.Type.Parameters[0].Name != "center" || sub.Type.Parameters[1].Name != "radius" {
		t.Fatalf("parameter order = %q, %q", sub.Type.Parameters[0].Name, sub.Type.Parameters[1].Name)
	}
	if !reflect.DeepEqual(call.Args[0], centerWires) {
		t.Errorf("center slot lost its wires: %v", call.Args[0])
	}
	if !reflect.DeepEqual(call.Args[1], radiusWires) {
		t.Errorf("radius slot lost its wires: %v", call.Args[1])
	}
}

func TestAddedParameterGetsEmptySlot(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	_, call := buildCaller(t, reg, v)

	radiusWires := call.Args[0].Clone()
	addParam(t, sub, "squish", dtype.Float, 2)
	if res, err := v.ValidateNetwork("lens"); err != nil || !res.Valid {
		t.Fatalf("validate: %v %v", err, res)
	}

	if len(call.Args) != 3 {
		t.Fatalf("call site has %d slots, want 3", len(call.Args))
	}
	if !reflect.DeepEqual(call.Args[0], radiusWires) {
		t.Error("existing wiring disturbed by parameter addition")
	}
	if len(call.Args[2].Wires) != 0 {
		t.Errorf("new parameter slot is not empty: %v", call.Args[2])
	}
}

func TestRemovedParameterDropsSlotKeepsOthers(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	_, call := buildCaller(t, reg, v)

	centerID := sub.Type.Parameters[1].ID
	centerWires := call.Args[1].Clone()

	// Store a literal for radius so pruning has something to drop.
	radiusID := sub.Type.Parameters[0].ID
	cd := call.Data.(*nodes.CallData)
	cd.SetLiteral(radiusID, eval.FloatVal(9))
	cd.SetLiteral(centerID, eval.Vec3Val(eval.Vec3{X: 1}))

	if err := sub.DeleteNode(sub.NodeByName("parameter1").ID); err != nil {
		t.Fatal(err)
	}
	if res, err := v.ValidateNetwork("lens"); err != nil || !res.Valid {
		t.Fatalf("validate: %v %v", err, res)
	}

	if len(call.Args) != 1 {
		t.Fatalf("call site has %d slots, want 1", len(call.Args))
	}
	if !reflect.DeepEqual(call.Args[0], centerWires) {
		t.Errorf("surviving parameter's wires disturbed: %v", call.Args[0])
	}
	if _, ok := cd.ParamLiteral(radiusID); ok {
		t.Error("literal for removed parameter survived pruning")
	}
	if _, ok := cd.ParamLiteral(centerID); !ok {
		t.Error("literal for surviving parameter was pruned")
	}
}

func TestRetypeDropsIncompatibleWiresOnly(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	_, call := buildCaller(t, reg, v)

	centerWires := call.Args[1].Clone()

	// radius float -> string: the float wire cannot convert and must go.
	sub.NodeByName("parameter1").Data.(*nodes.ParameterData).Type = dtype.String
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if !res.InterfaceChanged {
		t.Error("retype did not report an interface change")
	}

	if len(call.Args[0].Wires) != 0 {
		t.Errorf("incompatible wire survived retype: %v", call.Args[0])
	}
	if !reflect.DeepEqual(call.Args[1], centerWires) {
		t.Error("unaffected parameter's wires disturbed by retype")
	}
}

func TestWideningRetypeKeepsWires(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	_, call := buildCaller(t, reg, v)

	before := call.Args[0].Clone()

	// float -> array<float>: a scalar source still satisfies the array slot.
	sub.NodeByName("parameter1").Data.(*nodes.ParameterData).Type = dtype.Array(dtype.Float)
	if _, err := v.ValidateNetwork("lens"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(call.Args[0], before) {
		t.Errorf("compatible wire dropped by widening retype: %v", call.Args[0])
	}
}

func TestDuplicateParamIDFailsValidation(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)

	id := sub.Type.Parameters[0].ID
	sub.NodeByName("parameter2").Data.(*nodes.ParameterData).ID = id
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("duplicate parameter id passed validation")
	}
	if sub.Validated {
		t.Error("network still marked validated")
	}
}

func TestUsageCycleFailsValidation(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	buildLens(t, reg, v)

	// Wrap lens in outer, then plant an outer call inside lens.
	outer := graph.NewNetwork("outer")
	outer.AddNode("lens", 2, nodes.NewCallData(), graph.Position{})
	if err := reg.AddNetwork(outer); err != nil {
		t.Fatal(err)
	}
	if res, err := v.ValidateNetwork("outer"); err != nil || !res.Valid {
		t.Fatalf("validate outer: %v %v", err, res)
	}
	lens := reg.Network("lens")
	lens.AddNode("outer", 0, nodes.NewCallData(), graph.Position{})

	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("mutually recursive networks passed validation")
	}
	if lens.Validated {
		t.Error("cyclic network still marked validated")
	}
}

func TestCascadeThroughTwoLevels(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	buildLens(t, reg, v)

	// mid wraps lens and returns it; top wraps mid.
	mid := graph.NewNetwork("mid")
	midCall := mid.AddNode("lens", 2, nodes.NewCallData(), graph.Position{})
	if err := mid.SetReturnNode(midCall.ID); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddNetwork(mid); err != nil {
		t.Fatal(err)
	}
	if res, err := v.ValidateNetwork("mid"); err != nil || !res.Valid {
		t.Fatalf("validate mid: %v %v", err, res)
	}

	top := graph.NewNetwork("top")
	topCall := top.AddNode("mid", 0, nodes.NewCallData(), graph.Position{})
	if err := top.SetReturnNode(topCall.ID); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddNetwork(top); err != nil {
		t.Fatal(err)
	}
	if res, err := v.ValidateNetwork("top"); err != nil || !res.Valid {
		t.Fatalf("validate top: %v %v", err, res)
	}

	// Breaking lens's return node changes its output type, which flows
	// through mid's return into top.
	lens := reg.Network("lens")
	if err := lens.SetReturnNode(0); err != nil {
		t.Fatal(err)
	}
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Cascaded) != 2 || res.Cascaded[0] != "mid" || res.Cascaded[1] != "top" {
		t.Errorf("cascaded = %v, want [mid top]", res.Cascaded)
	}
	if !mid.Type.OutputType.Equal(dtype.None) {
		t.Errorf("mid output = %s, want none", mid.Type.OutputType)
	}
	if !top.Type.OutputType.Equal(dtype.None) {
		t.Errorf("top output = %s, want none", top.Type.OutputType)
	}
}

func TestFailedValidationMarksNetworkInvalid(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	sub := buildLens(t, reg, v)
	if sub.Invalid {
		t.Fatal("valid network flagged invalid")
	}

	p := sub.NodeByName("parameter2").Data.(*nodes.ParameterData)
	p.ID = sub.Type.Parameters[0].ID
	res, err := v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || !sub.Invalid {
		t.Fatalf("duplicate id: valid=%v invalid=%v", res.Valid, sub.Invalid)
	}

	// A clean pass clears the flag.
	p.ID = 0
	res, err = v.ValidateNetwork("lens")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid || sub.Invalid {
		t.Fatalf("after fix: valid=%v invalid=%v", res.Valid, sub.Invalid)
	}
}

func TestValidateAllCoversEveryNetwork(t *testing.T) {
	reg := newRegistry(t)
	v := New(reg)
	buildLens(t, reg, v)
	buildCaller(t, reg, v)

	out := v.ValidateAll()
	if len(out) != 2 {
		t.Fatalf("validated %d networks, want 2", len(out))
	}
	for name, res := range out {
		if !res.Valid {
			t.Errorf("%s invalid: %v", name, res.Errors)
		}
	}
}
