package analysis

import (
	"path/filepath"
	"regexp"
	"strings"

	"javaseeker/internal/javamodel"
)

// Origin tags.
const (
	OriginSelf       = "self"
	OriginPlatform   = "platform"
	OriginDependency = "dependency:"
)

// a version starts at the first "-<digit>" of the jar name
var versionSuffix = regexp.MustCompile(`-[0-9].*\.jar$`)

// Classifier attributes declarations to the project, a dependency archive
// or the platform library.
type Classifier struct {
	PlatformPrefixes []string
}

// Origin classifies a type binding. Archive classes are dependencies;
// otherwise a platform namespace makes it platform, and everything else,
// compiled class directories included, is the project itself.
func (c Classifier) Origin(b javamodel.TypeBinding) string {
	if b.Kind == javamodel.Binary && b.Class != nil && b.Class.Archive {
		return OriginDependency + ArtifactStem(b.Class.Location)
	}
	if b.Kind == javamodel.Platform || c.IsPlatform(b.Name) {
		return OriginPlatform
	}
	return OriginSelf
}

// DeclOrigin classifies a source declaration.
func (c Classifier) DeclOrigin(d javamodel.Decl) string {
	if c.IsPlatform(d.QualifiedName()) {
		return OriginPlatform
	}
	return OriginSelf
}

// IsPlatform reports whether name sits under a platform namespace.
func (c Classifier) IsPlatform(name string) bool {
	prefixes := c.PlatformPrefixes
	if len(prefixes) == 0 {
		prefixes = javamodel.DefaultPlatformPrefixes
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ArtifactStem is the jar file name without its directory and version:
// commons-lang3-3.12.0.jar becomes commons-lang3.jar. Names without a
// version are returned as they are.
func ArtifactStem(path string) string {
	return versionSuffix.ReplaceAllString(filepath.Base(path), ".jar")
}
