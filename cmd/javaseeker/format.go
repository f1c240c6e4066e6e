package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"javaseeker/internal/analysis"
	"javaseeker/internal/jobs"
	"javaseeker/internal/projects"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// outputFormat returns --format, defaulting to human on a terminal and JSON
// when stdout is piped.
func outputFormat() OutputFormat {
	if formatFlag != "" {
		return OutputFormat(formatFlag)
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatHuman
	}
	return FormatJSON
}

// printResponse formats resp and writes it to stdout.
func printResponse(resp any) error {
	out, err := FormatResponse(resp, outputFormat())
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp any) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp any) (string, error) {
	switch v := resp.(type) {
	case []projects.Descriptor:
		return formatProjectsHuman(v), nil
	case projects.Descriptor:
		return formatProjectHuman(v), nil
	case *analysis.Result:
		return formatResultHuman(v), nil
	case *jobs.ListJobsResponse:
		return formatJobsHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatProjectsHuman(list []projects.Descriptor) string {
	if len(list) == 0 {
		return "No projects configured."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-6s %-24s %s\n", "NAME", "SOURCE", "STATUS", "LOCATION")
	for _, d := range list {
		fmt.Fprintf(&b, "%-24s %-6s %-24s %s\n", d.Name, d.SourceKind, d.Status, d.Location)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatProjectHuman(d projects.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project:  %s\n", d.Name)
	fmt.Fprintf(&b, "Source:   %s\n", d.SourceKind)
	fmt.Fprintf(&b, "Location: %s\n", d.Location)
	if d.SourceKind == projects.SourceGit {
		fmt.Fprintf(&b, "Branch:   %s\n", d.TargetBranch())
	}
	fmt.Fprintf(&b, "Work dir: %s\n", d.WorkDir())
	fmt.Fprintf(&b, "Status:   %s", d.Status)
	return b.String()
}

func formatResultHuman(r *analysis.Result) string {
	var b strings.Builder
	target := r.Target
	if r.Resolved != "" {
		target = r.Resolved
	}
	fmt.Fprintf(&b, "%s in %s (%s, direction %s)\n", target, r.Project, orDash(r.Kind), r.Direction)
	fmt.Fprintf(&b, "%d TO, %d FROM, %dms\n", r.ToCount, r.FromCount, r.DurationMs)
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "note: %s\n", n)
	}
	for _, ref := range r.References {
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%s] %s  (%s)\n", ref.Direction, ref.QualifiedName, ref.Source)
		for _, line := range strings.Split(ref.CodeContext, "\n") {
			b.WriteString("    " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatJobsHuman(resp *jobs.ListJobsResponse) string {
	if len(resp.Jobs) == 0 {
		return "No lifecycle runs recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-20s %-10s %-24s %-8s %s\n", "CREATED", "PROJECT", "STATUS", "RESULT", "TRIGGER", "DURATION")
	for _, j := range resp.Jobs {
		fmt.Fprintf(&b, "%-20s %-20s %-10s %-24s %-8s %s\n",
			j.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			j.Project,
			j.Status,
			orDash(j.ProjectStatus),
			j.Trigger,
			j.Duration().Round(time.Millisecond),
		)
		if j.Error != "" {
			fmt.Fprintf(&b, "    error: %s\n", j.Error)
		}
	}
	fmt.Fprintf(&b, "%d of %d runs", len(resp.Jobs), resp.TotalCount)
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
