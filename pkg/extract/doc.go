// Package extract walks resolved dependency graphs into flat configurations.
//
// The resolver's result is consumed through the [Graph] and [Component]
// interfaces, so any in-memory representation can be walked. [Attribute]
// decides which project or build owns a resolution and [Walk] produces a
// [model.ResolvedConfiguration] whose edges are component ids.
//
// Walks hold no state between calls and are safe to run concurrently.
package extract
