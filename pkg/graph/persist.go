package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DataDecoder reconstructs node bodies from their persisted form. The
// registry implements it; the graph package stays free of any knowledge of
// concrete body types.
type DataDecoder interface {
	DecodeNodeData(typeName string, raw json.RawMessage) (NodeData, error)
}

type networkJSON struct {
	Name         string            `json:"name"`
	Type         NodeType          `json:"node_type"`
	Nodes        []*Node           `json:"nodes"`
	NextNodeID   NodeID            `json:"next_node_id,omitempty"`
	NextParamID  ParamID           `json:"next_param_id,omitempty"`
	NameCounters map[string]uint64 `json:"name_counters,omitempty"`
	ReturnNode   NodeID            `json:"return_node,omitempty"`
	Displayed    []NodeID          `json:"displayed,omitempty"`
}

// MarshalJSON emits the persisted form: nodes in id order with their bodies
// encoded inline.
func (nw *NodeNetwork) MarshalJSON() ([]byte, error) {
	out := networkJSON{
		Name:         nw.Name,
		Type:         nw.Type,
		NextNodeID:   nw.NextNodeID,
		NextParamID:  nw.NextParamID,
		NameCounters: nw.NameCounters,
		ReturnNode:   nw.ReturnNode,
		Displayed:    nw.DisplayedNodes(),
	}
	for _, n := range nw.SortedNodes() {
		persisted := *n
		if n.Data != nil {
			raw, err := json.Marshal(n.Data)
			if err != nil {
				return nil, fmt.Errorf("graph: encoding node %d (%s): %w", n.ID, n.TypeName, err)
			}
			persisted.RawData = raw
		}
		out.Nodes = append(out.Nodes, &persisted)
	}
	return json.Marshal(out)
}

// LoadNetwork decodes a persisted network. Older persisted forms may lack
// id counters, name counters, or node names; those are reconstructed rather
// than rejected. Structural corruption (dangling wire references, cycles) is
// an error.
func LoadNetwork(data []byte, dec DataDecoder) (*NodeNetwork, error) {
	var in networkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("graph: decoding network: %w", err)
	}
	nw := NewNetwork(in.Name)
	if in.Type.Name != "" {
		nw.Type = in.Type
	}
	nw.NextNodeID = in.NextNodeID
	nw.NextParamID = in.NextParamID
	if in.NameCounters != nil {
		nw.NameCounters = in.NameCounters
	}
	nw.ReturnNode = in.ReturnNode

	for _, n := range in.Nodes {
		if prev := nw.Nodes[n.ID]; prev != nil {
			return nil, fmt.Errorf("graph: duplicate node id %d in network %q", n.ID, in.Name)
		}
		if len(n.RawData) > 0 && dec != nil {
			body, err := dec.DecodeNodeData(n.TypeName, n.RawData)
			if err != nil {
				return nil, fmt.Errorf("graph: node %d (%s): %w", n.ID, n.TypeName, err)
			}
			n.Data = body
			n.RawData = nil
		}
		nw.Nodes[n.ID] = n
		if n.ID >= nw.NextNodeID {
			nw.NextNodeID = n.ID + 1
		}
	}

	// Legacy files predate the id counters. Keep both ahead of every id
	// already in use: a fresh mint must never collide with a persisted id or
	// hand out the zero sentinel.
	if nw.NextNodeID < 1 {
		nw.NextNodeID = 1
	}
	for _, n := range nw.Nodes {
		if pd, ok := n.Data.(ParameterDecl); ok {
			if id, _, _, _ := pd.ParamDecl(); id >= nw.NextParamID {
				nw.NextParamID = id + 1
			}
		}
	}
	if nw.NextParamID < 1 {
		nw.NextParamID = 1
	}

	// Reconstruct generated names and counters for legacy files.
	for _, n := range nw.SortedNodes() {
		if n.Name == "" {
			n.Name = nw.generateName(n.TypeName)
		} else {
			bumpNameCounter(nw.NameCounters, n.TypeName, n.Name)
		}
	}

	for _, n := range nw.Nodes {
		for i := range n.Args {
			for _, w := range n.Args[i].Wires {
				if nw.Nodes[w.Source] == nil {
					return nil, fmt.Errorf("graph: node %d references missing node %d", n.ID, w.Source)
				}
			}
		}
	}
	if in.ReturnNode != 0 && nw.Nodes[in.ReturnNode] == nil {
		nw.ReturnNode = 0
	}
	if !nw.Acyclic() {
		return nil, fmt.Errorf("graph: network %q contains a wire cycle", in.Name)
	}

	for _, id := range in.Displayed {
		if nw.Nodes[id] != nil {
			_ = nw.SetDisplay(id, true)
		}
	}
	for _, n := range nw.Nodes {
		if n.Display {
			_ = nw.SetDisplay(n.ID, true)
		}
	}
	return nw, nil
}

// bumpNameCounter keeps the generated-name counter ahead of every name
// already in use, so reloaded sessions never re-mint an existing name.
func bumpNameCounter(counters map[string]uint64, typeName, name string) {
	if !strings.HasPrefix(name, typeName) {
		return
	}
	num, err := strconv.ParseUint(name[len(typeName):], 10, 64)
	if err != nil {
		return
	}
	if counters[typeName] < num {
		counters[typeName] = num
	}
}
