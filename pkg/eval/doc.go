// Package eval turns a node network plus a chosen root into values and
// renderable data. The direct pass computes one typed value per contributing
// node in a deterministic topological order, recording per-node errors
// instead of aborting. The implicit pass answers per-sample signed-distance
// queries over the same frames, reusing the direct results for scalar
// inputs, and feeds the point-cloud sampler and the sdfx marching-cubes
// mesher.
package eval
