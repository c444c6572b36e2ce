// Package snapshot assembles merged manifests into a dependency submission
// document and serializes it.
//
// # Assembly
//
// [Assemble] is a pure function of the merged manifests, the build
// metadata in [Params] and a [FileLocator] that knows each manifest's
// descriptor file. Manifest file references are made relative to the
// workspace with forward slashes.
//
// # Output
//
// [Encode] and [Marshal] produce indented JSON with a stable field order and
// sorted map keys, so identical input always yields identical bytes.
// [WriteFile] stores the document as <dir>/<correlator>.json.
//
// # Reports
//
// [DependencyList] and [DependencyScopes] render the simpler plain-text and
// JSON reports from walked configurations.
package snapshot
