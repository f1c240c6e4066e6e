package main

import (
	"strings"
	"testing"
	"time"

	"javaseeker/internal/analysis"
	"javaseeker/internal/jobs"
	"javaseeker/internal/projects"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]any{"key": "value", "num": 42}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"key": "value"`) || !strings.Contains(result, `"num": 42`) {
		t.Errorf("unexpected JSON output: %s", result)
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestFormatProjectsHuman(t *testing.T) {
	list := []projects.Descriptor{
		{Name: "shop", SourceKind: projects.SourceGit, Location: "https://example.com/shop.git", Status: projects.StatusReady},
		{Name: "tools", SourceKind: projects.SourceLocal, Location: "/src/tools", Status: projects.StatusFailedBuild},
	}
	out, err := FormatResponse(list, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[2], "FAILED_BUILD") {
		t.Errorf("unexpected table: %q", out)
	}

	out, _ = FormatResponse([]projects.Descriptor{}, FormatHuman)
	if out != "No projects configured." {
		t.Errorf("empty list = %q", out)
	}
}

func TestFormatProjectHuman(t *testing.T) {
	out, err := FormatResponse(projects.Descriptor{
		Name: "shop", SourceKind: projects.SourceGit, Location: "https://example.com/shop.git",
		CachePath: "/cache/shop", Status: projects.StatusSyncing,
	}, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Project:  shop", "Branch:   main", "Work dir: /cache/shop", "Status:   SYNCING"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestFormatResultHuman(t *testing.T) {
	res := &analysis.Result{
		Project:   "shop",
		Target:    "ClassB",
		Resolved:  "pkg.ClassB",
		Kind:      "type",
		Direction: analysis.Both,
		ToCount:   1,
		Notes:     []string{"NO_CLASSPATH: model built without a classpath"},
		References: []analysis.Reference{{
			Source:        "shop",
			QualifiedName: "pkg.ClassA#methodA()",
			CodeContext:   "new ClassB().methodB();",
			Direction:     analysis.To,
		}},
	}
	out, err := FormatResponse(res, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"pkg.ClassB in shop (type, direction BOTH)",
		"1 TO, 0 FROM",
		"note: NO_CLASSPATH",
		"[TO] pkg.ClassA#methodA()  (shop)",
		"    new ClassB().methodB();",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJobsHuman(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)
	done := time.Now()
	resp := &jobs.ListJobsResponse{
		Jobs: []*jobs.Job{{
			Project:       "shop",
			Status:        jobs.JobFailed,
			ProjectStatus: "FAILED_BUILD",
			Trigger:       jobs.TriggerPoll,
			CreatedAt:     started,
			StartedAt:     &started,
			CompletedAt:   &done,
			Error:         "build exited with code 1",
		}},
		TotalCount: 4,
	}
	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"shop", "FAILED_BUILD", "error: build exited with code 1", "1 of 4 runs"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out, _ = FormatResponse(&jobs.ListJobsResponse{}, FormatHuman)
	if out != "No lifecycle runs recorded." {
		t.Errorf("empty history = %q", out)
	}
}

func TestOutputFormatFlagWins(t *testing.T) {
	old := formatFlag
	defer func() { formatFlag = old }()

	formatFlag = "json"
	if got := outputFormat(); got != FormatJSON {
		t.Errorf("outputFormat() = %s", got)
	}
}
