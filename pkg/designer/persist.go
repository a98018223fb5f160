package designer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/facet/pkg/graph"
)

// designFile is the persisted form of a whole design: every network, with
// node bodies encoded inline.
type designFile struct {
	Version  int               `json:"version"`
	Networks []json.RawMessage `json:"networks"`
}

const designFileVersion = 1

// Save writes every network to a JSON design file. Networks are emitted in
// name order, so saving an unchanged design produces identical bytes.
func (d *Designer) Save(path string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := designFile{Version: designFileVersion}
	for _, name := range d.reg.NetworkNames() {
		raw, err := json.Marshal(d.reg.Network(name))
		if err != nil {
			return fmt.Errorf("designer: encoding network %q: %w", name, err)
		}
		out.Networks = append(out.Networks, raw)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads a design file, replacing any networks already registered under
// the same names. Every network is decoded and registered before validation
// runs, so call sites can reference networks that appear later in the file;
// a full validation pass then rebuilds interfaces and repairs call sites.
func (d *Designer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("designer: reading design: %w", err)
	}
	var in designFile
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("designer: decoding design: %w", err)
	}
	if in.Version > designFileVersion {
		return fmt.Errorf("designer: design file version %d is newer than supported %d", in.Version, designFileVersion)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	loaded := make([]*graph.NodeNetwork, 0, len(in.Networks))
	for i, raw := range in.Networks {
		nw, err := graph.LoadNetwork(raw, d.reg)
		if err != nil {
			return fmt.Errorf("designer: network %d: %w", i, err)
		}
		loaded = append(loaded, nw)
	}
	for _, nw := range loaded {
		d.reg.RemoveNetwork(nw.Name)
		if err := d.reg.AddNetwork(nw); err != nil {
			return err
		}
	}
	for name, res := range d.val.ValidateAll() {
		if !res.Valid {
			d.log.Warn("loaded network failed validation", "network", name, "errors", res.Errors)
		}
	}
	d.log.Info("loaded design", "path", path, "networks", len(loaded))
	return nil
}
