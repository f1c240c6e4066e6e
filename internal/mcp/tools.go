package mcp

import "context"

// Tool is a tool definition as listed by tools/list.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolHandler runs one tool call. The result is marshalled to JSON text.
type ToolHandler func(ctx context.Context, params map[string]any) (any, error)

// GetToolDefinitions returns all tool definitions
func (s *MCPServer) GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "analyzeJavaCodeReferences",
			Description: "Find code references for a Java type or method in a configured project. " +
				"TO references are the places that use the target; FROM references are what the target uses, " +
				"tagged with their origin (self, platform or dependency:<artifact>).",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"projectName": map[string]any{
						"type":        "string",
						"description": "Name of the project as configured in the descriptor file",
					},
					"codeSnippet": map[string]any{
						"type":        "string",
						"description": "Target: a type (com.acme.Widget) or an executable (com.acme.Widget#spin(int,String))",
					},
					"direction": map[string]any{
						"type":        "string",
						"enum":        []string{"TO", "FROM", "BOTH"},
						"default":     "BOTH",
						"description": "Which references to report",
					},
					"strict": map[string]any{
						"type":        "boolean",
						"default":     false,
						"description": "Fail instead of returning an empty list when the target does not resolve",
					},
				},
				"required": []string{"projectName", "codeSnippet"},
			},
		},
		{
			Name:        "listProjects",
			Description: "List configured Java projects with their lifecycle status",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "getProjectStatus",
			Description: "Get the lifecycle status of one project and whether it can be analyzed",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"projectName": map[string]any{
						"type":        "string",
						"description": "Name of the project",
					},
				},
				"required": []string{"projectName"},
			},
		},
	}
}

// RegisterTools registers all tool handlers
func (s *MCPServer) RegisterTools() {
	s.tools["analyzeJavaCodeReferences"] = s.toolAnalyzeJavaCodeReferences
	s.tools["listProjects"] = s.toolListProjects
	s.tools["getProjectStatus"] = s.toolGetProjectStatus
}
