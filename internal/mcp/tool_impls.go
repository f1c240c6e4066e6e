package mcp

import (
	"context"
	"fmt"

	"javaseeker/internal/analysis"
	seekerrors "javaseeker/internal/errors"
	"javaseeker/internal/projects"
)

// ProjectInfo is a project as reported by the tools.
type ProjectInfo struct {
	Name       string `json:"name"`
	SourceType string `json:"sourceType"`
	Location   string `json:"location"`
	Branch     string `json:"branch,omitempty"`
	WorkDir    string `json:"workDir"`
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
}

func projectInfo(d projects.Descriptor) ProjectInfo {
	info := ProjectInfo{
		Name:       d.Name,
		SourceType: string(d.SourceKind),
		Location:   d.Location,
		WorkDir:    d.WorkDir(),
		Status:     d.Status.String(),
		Ready:      d.Status.IsReady(),
	}
	if d.SourceKind == projects.SourceGit {
		info.Branch = d.TargetBranch()
	}
	return info
}

func (s *MCPServer) toolAnalyzeJavaCodeReferences(ctx context.Context, params map[string]any) (any, error) {
	req := analysis.Request{}
	var err error
	if req.ProjectName, err = stringParam(params, "projectName", true); err != nil {
		return nil, err
	}
	if req.CodeSnippet, err = stringParam(params, "codeSnippet", true); err != nil {
		return nil, err
	}
	if req.Direction, err = stringParam(params, "direction", false); err != nil {
		return nil, err
	}
	if v, ok := params["strict"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, seekerrors.NewInvalidParameterError("strict", "must be a boolean")
		}
		req.Strict = b
	}
	return s.analyzer.Analyze(ctx, req)
}

func (s *MCPServer) toolListProjects(_ context.Context, _ map[string]any) (any, error) {
	list := s.projects.List()
	out := make([]ProjectInfo, 0, len(list))
	for _, d := range list {
		out = append(out, projectInfo(d))
	}
	return map[string]any{"projects": out, "count": len(out)}, nil
}

func (s *MCPServer) toolGetProjectStatus(_ context.Context, params map[string]any) (any, error) {
	name, err := stringParam(params, "projectName", true)
	if err != nil {
		return nil, err
	}
	d, ok := s.projects.Get(name)
	if !ok {
		return nil, seekerrors.NewProjectNotFoundError(name)
	}
	return projectInfo(d), nil
}

func stringParam(params map[string]any, key string, required bool) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		if required {
			return "", seekerrors.NewInvalidParameterError(key, "required")
		}
		return "", nil
	}
	str, ok := v.(string)
	if !ok {
		return "", seekerrors.NewInvalidParameterError(key, fmt.Sprintf("must be a string, got %T", v))
	}
	return str, nil
}
