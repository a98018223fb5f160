package graph

// color values for the cycle-detection DFS.
type color int

const (
	white color = iota // unvisited
	gray               // in progress
	black              // done
)

// wouldCycle reports whether wiring source into dest would close a cycle:
// true when source already depends on dest through its argument wires, or
// when source and dest are the same node.
func (nw *NodeNetwork) wouldCycle(source, dest NodeID) bool {
	if source == dest {
		return true
	}
	// Walk upstream from source; if dest feeds source, the new wire
	// dest<-source would complete a loop.
	stack := []NodeID{source}
	visited := map[NodeID]bool{source: true}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := nw.Nodes[id]
		if n == nil {
			continue
		}
		for _, src := range n.ArgSources() {
			if src == dest {
				return true
			}
			if !visited[src] {
				visited[src] = true
				stack = append(stack, src)
			}
		}
	}
	return false
}

// Acyclic verifies the whole wire graph contains no cycle. Connect refuses
// cycle-forming wires, so this only fails on hand-built or corrupted
// persisted data.
func (nw *NodeNetwork) Acyclic() bool {
	colors := make(map[NodeID]color, len(nw.Nodes))
	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch colors[id] {
		case gray:
			return false
		case black:
			return true
		}
		colors[id] = gray
		if n := nw.Nodes[id]; n != nil {
			for _, src := range n.ArgSources() {
				if !visit(src) {
					return false
				}
			}
		}
		colors[id] = black
		return true
	}
	for _, n := range nw.SortedNodes() {
		if !visit(n.ID) {
			return false
		}
	}
	return true
}
