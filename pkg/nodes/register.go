// Package nodes implements the built-in node bodies: literals and vectors,
// parameter declarations, zygomys expression nodes, CSG geometry with paired
// direct and per-sample evaluation, lattice atom filling, and the
// higher-order range/map/fn trio.
package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// decodeInto returns a Decode func unmarshalling into a fresh T.
func decodeInto[T any]() func(json.RawMessage) (graph.NodeData, error) {
	return func(raw json.RawMessage) (graph.NodeData, error) {
		data := new(T)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, data); err != nil {
				return nil, err
			}
		}
		return any(data).(graph.NodeData), nil
	}
}

// Register installs every built-in node type and the subnetwork call-site
// codec into the registry. It is called once per registry, at startup.
func Register(reg *registry.Registry) error {
	builtins := []*registry.Builtin{
		{
			Type:    graph.NodeType{Name: "bool", OutputType: dtype.Bool},
			NewData: func() graph.NodeData { return &BoolData{} },
			Decode:  decodeInto[BoolData](),
		},
		{
			Type:    graph.NodeType{Name: "int", OutputType: dtype.Int},
			NewData: func() graph.NodeData { return &IntData{} },
			Decode:  decodeInto[IntData](),
		},
		{
			Type:    graph.NodeType{Name: "float", OutputType: dtype.Float},
			NewData: func() graph.NodeData { return &FloatData{} },
			Decode:  decodeInto[FloatData](),
		},
		{
			Type:    graph.NodeType{Name: "string", OutputType: dtype.String},
			NewData: func() graph.NodeData { return &StringData{} },
			Decode:  decodeInto[StringData](),
		},
		{
			Type: graph.NodeType{
				Name: "vec2",
				Parameters: []graph.Parameter{
					{Name: "x", Type: dtype.Float},
					{Name: "y", Type: dtype.Float},
				},
				OutputType: dtype.Vec2,
			},
			NewData: func() graph.NodeData { return &Vec2Data{} },
			Decode:  decodeInto[Vec2Data](),
		},
		{
			Type: graph.NodeType{
				Name: "vec3",
				Parameters: []graph.Parameter{
					{Name: "x", Type: dtype.Float},
					{Name: "y", Type: dtype.Float},
					{Name: "z", Type: dtype.Float},
				},
				OutputType: dtype.Vec3,
			},
			NewData: func() graph.NodeData { return &Vec3Data{} },
			Decode:  decodeInto[Vec3Data](),
		},
		{
			Type: graph.NodeType{
				Name: "ivec2",
				Parameters: []graph.Parameter{
					{Name: "x", Type: dtype.Int},
					{Name: "y", Type: dtype.Int},
				},
				OutputType: dtype.IVec2,
			},
			NewData: func() graph.NodeData { return &IVec2Data{} },
			Decode:  decodeInto[IVec2Data](),
		},
		{
			Type: graph.NodeType{
				Name: "ivec3",
				Parameters: []graph.Parameter{
					{Name: "x", Type: dtype.Int},
					{Name: "y", Type: dtype.Int},
					{Name: "z", Type: dtype.Int},
				},
				OutputType: dtype.IVec3,
			},
			NewData: func() graph.NodeData { return &IVec3Data{} },
			Decode:  decodeInto[IVec3Data](),
		},
		{
			// Carries a precomputed value; planted by closure invocation.
			Type:    graph.NodeType{Name: "value", OutputType: dtype.None},
			NewData: func() graph.NodeData { return &eval.ValueData{} },
			Decode: func(raw json.RawMessage) (graph.NodeData, error) {
				d := &eval.ValueData{}
				if len(raw) > 0 {
					if err := json.Unmarshal(raw, &d.V); err != nil {
						return nil, err
					}
				}
				return d, nil
			},
		},
		{
			Type: graph.NodeType{
				Name:       "parameter",
				Parameters: []graph.Parameter{{Name: "default", Type: dtype.None}},
				OutputType: dtype.None,
			},
			NewData: func() graph.NodeData { return &ParameterData{Type: dtype.Float} },
			Decode:  decodeInto[ParameterData](),
		},
		{
			Type:    graph.NodeType{Name: "expr", OutputType: dtype.Float},
			NewData: func() graph.NodeData { return &ExprData{Output: dtype.Float} },
			Decode:  decodeInto[ExprData](),
		},
		{
			Type: graph.NodeType{
				Name: "range",
				Parameters: []graph.Parameter{
					{Name: "start", Type: dtype.Int},
					{Name: "count", Type: dtype.Int},
					{Name: "step", Type: dtype.Int},
				},
				OutputType: dtype.Array(dtype.Int),
			},
			NewData: func() graph.NodeData { return &RangeData{Count: 0, Step: 1} },
			Decode:  decodeInto[RangeData](),
		},
		{
			Type: graph.NodeType{
				Name: "map",
				Parameters: []graph.Parameter{
					{Name: "items", Type: dtype.Array(dtype.Float)},
					{Name: "fn", Type: dtype.Function([]dtype.Type{dtype.Float}, dtype.Float)},
				},
				OutputType: dtype.Array(dtype.Float),
			},
			NewData: func() graph.NodeData { return &MapData{} },
			Decode:  decodeInto[MapData](),
		},
		{
			Type:    graph.NodeType{Name: "fn", OutputType: dtype.Function(nil, dtype.None)},
			NewData: func() graph.NodeData { return &FnData{} },
			Decode:  decodeInto[FnData](),
		},
		{
			Type: graph.NodeType{
				Name: "sphere",
				Parameters: []graph.Parameter{
					{Name: "radius", Type: dtype.Float},
					{Name: "center", Type: dtype.Vec3},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &SphereData{Radius: 1} },
			Decode:  decodeInto[SphereData](),
		},
		{
			Type: graph.NodeType{
				Name: "cuboid",
				Parameters: []graph.Parameter{
					{Name: "size", Type: dtype.Vec3},
					{Name: "center", Type: dtype.Vec3},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &CuboidData{Size: eval.Vec3{X: 1, Y: 1, Z: 1}} },
			Decode:  decodeInto[CuboidData](),
		},
		{
			Type: graph.NodeType{
				Name: "halfspace",
				Parameters: []graph.Parameter{
					{Name: "normal", Type: dtype.Vec3},
					{Name: "offset", Type: dtype.Float},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &HalfSpaceData{Normal: eval.Vec3{Z: 1}} },
			Decode:  decodeInto[HalfSpaceData](),
		},
		{
			Type: graph.NodeType{
				Name: "union",
				Parameters: []graph.Parameter{
					{Name: "shapes", Type: dtype.Array(dtype.Geometry)},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &UnionData{} },
			Decode:  decodeInto[UnionData](),
		},
		{
			Type: graph.NodeType{
				Name: "intersect",
				Parameters: []graph.Parameter{
					{Name: "shapes", Type: dtype.Array(dtype.Geometry)},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &IntersectData{} },
			Decode:  decodeInto[IntersectData](),
		},
		{
			Type: graph.NodeType{
				Name: "diff",
				Parameters: []graph.Parameter{
					{Name: "base", Type: dtype.Geometry},
					{Name: "sub", Type: dtype.Array(dtype.Geometry)},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &DiffData{} },
			Decode:  decodeInto[DiffData](),
		},
		{
			Type: graph.NodeType{
				Name: "translate",
				Parameters: []graph.Parameter{
					{Name: "geometry", Type: dtype.Geometry},
					{Name: "offset", Type: dtype.Vec3},
				},
				OutputType: dtype.Geometry,
			},
			NewData: func() graph.NodeData { return &TranslateData{} },
			Decode:  decodeInto[TranslateData](),
		},
		{
			Type: graph.NodeType{
				Name: "atomfill",
				Parameters: []graph.Parameter{
					{Name: "geometry", Type: dtype.Geometry},
					{Name: "spacing", Type: dtype.Float},
				},
				OutputType: dtype.Atomic,
			},
			NewData: func() graph.NodeData { return &AtomFillData{Element: "C", Spacing: 1} },
			Decode:  decodeInto[AtomFillData](),
		},
	}

	for _, b := range builtins {
		if err := reg.RegisterBuiltin(b); err != nil {
			return fmt.Errorf("nodes: %w", err)
		}
	}

	reg.SubnetData = func() graph.NodeData { return NewCallData() }
	reg.SubnetDecode = decodeInto[CallData]()
	return nil
}
