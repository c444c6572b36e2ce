// Package model defines the value types shared by the extraction engine.
//
// A resolution event produces a [ResolvedConfiguration]: a [ResolutionRoot]
// plus a flat list of [ResolvedNode] values whose edges are expressed as
// component ids rather than pointers. Because the same logical component
// recurs across independent graphs, ids are what the merger keys on.
//
// # Lattices
//
// [Relationship] and [Scope] are small join-semilattices. [Promote] and
// [PromoteScope] are their joins, so folding observations in any order
// yields the same result:
//
//	indirect ⊑ direct
//	unknown ⊑ development ⊑ runtime
//
// # Package URLs
//
// [Coordinates.PackageURL] renders a Maven package URL, adding a
// repository_url qualifier only for non-default repositories.
package model
