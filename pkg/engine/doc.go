// Package engine drives dependency extraction for one build.
//
// An [Extractor] receives the build's lifecycle events, in any order and from
// any number of goroutines:
//
//   - [Extractor.SettingsEvaluated] and [Extractor.ProjectsLoaded] record where
//     descriptor files live.
//   - [Extractor.ConfigurationResolved] attributes, filters, walks and merges
//     one resolved configuration.
//
// [Extractor.Finish] turns the merged manifests into a snapshot. Failures of
// individual configurations never interrupt the build; they are collected and
// reported together by [Extractor.Err] and [Extractor.Finish], which then
// refuses to produce a partial snapshot.
package engine
