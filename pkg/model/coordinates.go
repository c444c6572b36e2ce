package model

import (
	"strings"

	"github.com/package-url/packageurl-go"
)

// DefaultRepositoryURL is the public Maven repository that package URLs
// leave implicit.
const DefaultRepositoryURL = "https://repo.maven.apache.org/maven2"

// unknownCoordinate fills every field of coordinates that could not be
// determined for a component.
const unknownCoordinate = "unknown"

// Coordinates identifies a resolved component. Two coordinates are equal
// iff all three fields match exactly.
type Coordinates struct {
	Group   string `json:"group"`
	Module  string `json:"module"`
	Version string `json:"version"`
}

// UnknownCoordinates is substituted for components without module version data.
var UnknownCoordinates = Coordinates{
	Group:   unknownCoordinate,
	Module:  unknownCoordinate,
	Version: unknownCoordinate,
}

// String returns the coordinates in group:module:version form.
func (c Coordinates) String() string {
	return c.Group + ":" + c.Module + ":" + c.Version
}

// PackageURL renders c as a Maven package URL. The repository_url qualifier
// is included only when repositoryURL is set and is not [DefaultRepositoryURL].
func (c Coordinates) PackageURL(repositoryURL string) string {
	namespace := c.Group
	if namespace == "" {
		namespace = c.Module
	}

	var qualifiers packageurl.Qualifiers
	if u := strings.TrimSuffix(repositoryURL, "/"); u != "" && u != DefaultRepositoryURL {
		qualifiers = packageurl.Qualifiers{{Key: "repository_url", Value: u}}
	}
	return packageurl.NewPackageURL(packageurl.TypeMaven, namespace, c.Module, c.Version, qualifiers, "").ToString()
}
