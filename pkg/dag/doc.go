// Package dag provides a string-keyed graph arena for dependency graphs.
//
// # Overview
//
// Nodes are stored by ID and edges are adjacency lists of IDs rather than
// pointers. The same logical component can then appear in several
// independently decoded graphs and still be compared and merged by value.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "project :app", Kind: dag.NodeKindRoot})
//	g.AddNode(dag.Node{ID: "org:lib:1.0"})
//	g.AddEdge(dag.Edge{From: "project :app", To: "org:lib:1.0"})
//
// Query the structure with [DAG.Children] and [DAG.Node].
// Children preserve insertion order, which keeps walks deterministic.
//
// # Cycles
//
// Resolved graphs are usually acyclic but capability substitution can
// produce cycles, so [DAG.AddEdge] accepts them. Walkers track visited
// IDs themselves.
package dag
