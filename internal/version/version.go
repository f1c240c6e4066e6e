// Package version holds build information for javaseeker.
package version

// Overridable at build time:
// go build -ldflags "-X javaseeker/internal/version.Version=1.2.0 -X javaseeker/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, with the short commit when one was stamped.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version report printed by `javaseeker version`.
func Full() string {
	return "javaseeker version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
