// Package build detects a project's build tool and runs a non-interactive
// compile with a hard timeout.
package build

import (
	"os"
	"path/filepath"
	"runtime"
)

// Tool identifies a build system.
type Tool string

const (
	ToolMaven  Tool = "maven"
	ToolGradle Tool = "gradle"
)

// Plan is the command chosen for a project directory.
type Plan struct {
	Tool       Tool     `json:"tool"`
	BuildFile  string   `json:"buildFile"`
	Executable string   `json:"executable"`
	Args       []string `json:"args"`
	Wrapper    bool     `json:"wrapper"`
}

type toolSpec struct {
	tool       Tool
	buildFiles []string
	wrapper    string
	winWrapper string
	bare       string
	args       []string
}

// Maven is checked before Gradle; tests are always skipped.
var toolSpecs = []toolSpec{
	{
		tool:       ToolMaven,
		buildFiles: []string{"pom.xml"},
		wrapper:    "mvnw",
		winWrapper: "mvnw.cmd",
		bare:       "mvn",
		args:       []string{"clean", "compile", "-DskipTests"},
	},
	{
		tool:       ToolGradle,
		buildFiles: []string{"build.gradle", "build.gradle.kts"},
		wrapper:    "gradlew",
		winWrapper: "gradlew.bat",
		bare:       "gradle",
		args:       []string{"build", "-x", "test", "--no-daemon"},
	},
}

// Detect picks the build command for dir on the current platform.
func Detect(dir string) (Plan, bool) {
	return DetectFor(dir, runtime.GOOS)
}

// DetectFor picks the build command for dir as it would run on goos. A
// wrapper script in the project wins over the bare executable.
func DetectFor(dir, goos string) (Plan, bool) {
	for _, spec := range toolSpecs {
		buildFile := firstExisting(dir, spec.buildFiles)
		if buildFile == "" {
			continue
		}

		wrapper := spec.wrapper
		if goos == "windows" {
			wrapper = spec.winWrapper
		}

		plan := Plan{
			Tool:       spec.tool,
			BuildFile:  buildFile,
			Executable: spec.bare,
			Args:       append([]string(nil), spec.args...),
		}
		if wrapperPath := filepath.Join(dir, wrapper); fileExists(wrapperPath) {
			plan.Executable = wrapperPath
			plan.Wrapper = true
		}
		return plan, true
	}
	return Plan{}, false
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		if fileExists(filepath.Join(dir, name)) {
			return name
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
