package graph

import (
	"encoding/json"
	"testing"

	"github.com/chazu/facet/pkg/dtype"
)

// declBody is a minimal parameter declaration for persistence tests; the
// real bodies live outside this package.
type declBody struct {
	ID ParamID `json:"id"`
}

func (d *declBody) CloneData() NodeData { c := *d; return &c }

func (d *declBody) ParamDecl() (ParamID, string, dtype.Type, int) {
	return d.ID, "p", dtype.Float, 0
}

func (d *declBody) SetParamID(id ParamID) { d.ID = id }

type declDecoder struct{}

func (declDecoder) DecodeNodeData(typeName string, raw json.RawMessage) (NodeData, error) {
	d := &declBody{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, err
	}
	return d, nil
}

func TestLoadLegacyFileFloorsParamCounter(t *testing.T) {
	// An old persisted form: no next_param_id, but a parameter node whose
	// id 2 is already in use.
	legacy := `{
		"name": "old",
		"nodes": [
			{"id": 5, "type": "parameter", "args": [{}], "data": {"id": 2}}
		]
	}`
	nw, err := LoadNetwork([]byte(legacy), declDecoder{})
	if err != nil {
		t.Fatal(err)
	}
	if nw.NextNodeID != 6 {
		t.Errorf("NextNodeID = %d, want 6", nw.NextNodeID)
	}
	if nw.NextParamID != 3 {
		t.Errorf("NextParamID = %d, want 3", nw.NextParamID)
	}
	// A fresh mint must neither reuse id 2 nor hand out the zero sentinel.
	if id := nw.MintParamID(); id != 3 {
		t.Errorf("minted id %d, want 3", id)
	}
}

func TestLoadLegacyEmptyNetworkFloorsCounters(t *testing.T) {
	nw, err := LoadNetwork([]byte(`{"name": "old"}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if nw.NextNodeID != 1 {
		t.Errorf("NextNodeID = %d, want 1", nw.NextNodeID)
	}
	if nw.NextParamID != 1 {
		t.Errorf("NextParamID = %d, want 1", nw.NextParamID)
	}
	// Node id 0 is the "none" sentinel used by ReturnNode and Selected.
	if n := nw.AddNode("float", 0, nil, Position{}); n.ID == 0 {
		t.Error("first node after load minted the zero id")
	}
}

func TestLoadKeepsPersistedCounters(t *testing.T) {
	persisted := `{
		"name": "new",
		"next_node_id": 9,
		"next_param_id": 7,
		"nodes": [
			{"id": 3, "type": "parameter", "args": [{}], "data": {"id": 4}}
		]
	}`
	nw, err := LoadNetwork([]byte(persisted), declDecoder{})
	if err != nil {
		t.Fatal(err)
	}
	if nw.NextNodeID != 9 {
		t.Errorf("NextNodeID = %d, want 9", nw.NextNodeID)
	}
	if nw.NextParamID != 7 {
		t.Errorf("NextParamID = %d, want 7", nw.NextParamID)
	}
}
