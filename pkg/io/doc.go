// Package io decodes resolution event streams.
//
// # Overview
//
// A build reports its dependency resolution as newline-delimited JSON. The
// first line is a header that names the stream schema:
//
//	{"schema": 2, "producer": "gradle-8.10"}
//
// Every following line is one event object whose "event" field selects its
// kind:
//
//	{"event": "settings_evaluated", "build_path": ":", "settings_file": "/src/settings.gradle"}
//	{"event": "projects_loaded", "root_project": {"identity_path": ":", "build_file": "/src/build.gradle", "children": [...]}}
//	{"event": "configuration_resolved", "build_path": ":", "configuration": "runtimeClasspath", ...}
//
// Unknown event kinds are skipped. Blank lines are ignored.
//
// # Schemas
//
// The header is read once and selects a [Strategy] for the rest of the
// stream. Both strategies build the same [extract.Graph], backed by a
// [dag.DAG] whose node metadata carries the component details.
//
// Schema 2 lists components flat and connects them by id:
//
//	"root": "project :",
//	"components": [
//	  {"id": "project :", "project": ":", "dependencies": [{"selected": "com.example:lib:1.0"}]},
//	  {"id": "com.example:lib:1.0", "module": {"group": "com.example", "module": "lib", "version": "1.0"},
//	   "repository": "maven", "dependencies": [{"requested": "org.missing:x:1", "failure": "not found"}]}
//	]
//
// Schema 1 nests dependencies as a tree. A component that appears more than
// once is defined by its first occurrence; later occurrences only refer to it:
//
//	"tree": {"id": "project :", "project": ":", "dependencies": [
//	  {"component": {"id": "com.example:lib:1.0", "module": {...}}},
//	  {"requested": "org.missing:x:1", "failure": "not found"}
//	]}
//
// # Errors
//
// A malformed line fails the stream with an INVALID_EVENT error naming the
// line number. Streams with an unknown schema fail with UNSUPPORTED.
package io
