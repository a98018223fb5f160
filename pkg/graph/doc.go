// Package graph implements the mutable node network: typed nodes, argument
// wiring, display and selection state, structural invariants (acyclicity,
// argument arity, no dangling references), and the persisted form.
//
// The graph enforces structure only. Type compatibility between pins is the
// caller's concern, checked against pkg/dtype before Connect; interface
// consistency across subnetworks is pkg/validate's concern.
package graph
