package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"javaseeker/internal/analysis"
	seekerrors "javaseeker/internal/errors"
	"javaseeker/internal/jobs"
	"javaseeker/internal/projects"
)

// ProjectResponse is one project in listings and lookups.
type ProjectResponse struct {
	Name       string `json:"name"`
	SourceType string `json:"sourceType"`
	Location   string `json:"location"`
	Branch     string `json:"branch,omitempty"`
	WorkDir    string `json:"workDir"`
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
}

func projectResponse(d projects.Descriptor) ProjectResponse {
	resp := ProjectResponse{
		Name:       d.Name,
		SourceType: string(d.SourceKind),
		Location:   d.Location,
		WorkDir:    d.WorkDir(),
		Status:     d.Status.String(),
		Ready:      d.Status.IsReady(),
	}
	if d.SourceKind == projects.SourceGit {
		resp.Branch = d.TargetBranch()
	}
	return resp
}

// GET /v1/projects
func (s *Server) handleListProjects(c *gin.Context) {
	list := s.projects.List()
	out := make([]ProjectResponse, 0, len(list))
	for _, d := range list {
		out = append(out, projectResponse(d))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out, "count": len(out)})
}

// GET /v1/projects/:name
func (s *Server) handleGetProject(c *gin.Context) {
	name := c.Param("name")
	d, ok := s.projects.Get(name)
	if !ok {
		WriteError(c, seekerrors.NewProjectNotFoundError(name))
		return
	}
	c.JSON(http.StatusOK, projectResponse(d))
}

// POST /v1/analyze
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, seekerrors.NewInvalidParameterError("body", err.Error()))
		return
	}

	res, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /v1/analyze/stream answers with Server-Sent Events: one "reference"
// event per unique reference, then "done" with the summary. Errors raised
// before the first event get a normal JSON error response; later ones are
// sent as an "error" event.
func (s *Server) handleAnalyzeStream(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, seekerrors.NewInvalidParameterError("body", err.Error()))
		return
	}

	started := false
	begin := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
	}

	res, err := s.analyzer.Stream(c.Request.Context(), req, func(r analysis.Reference) error {
		begin()
		c.SSEvent("reference", r)
		c.Writer.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		if !started {
			WriteError(c, err)
			return
		}
		_, body := errorResponse(err)
		body.RequestID = GetRequestID(c)
		c.SSEvent("error", body)
		c.Writer.Flush()
		return
	}

	begin()
	c.SSEvent("done", res)
	c.Writer.Flush()
}

// GET /v1/history?project=&status=&limit=&offset=
func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, &jobs.ListJobsResponse{Jobs: []*jobs.Job{}})
		return
	}

	opts := jobs.ListJobsOptions{Project: c.Query("project"), Limit: 50}
	if st := c.Query("status"); st != "" {
		opts.Status = []jobs.JobStatus{jobs.JobStatus(st)}
	}
	var err error
	if opts.Limit, err = intQuery(c, "limit", opts.Limit); err != nil {
		WriteError(c, err)
		return
	}
	if opts.Offset, err = intQuery(c, "offset", 0); err != nil {
		WriteError(c, err)
		return
	}

	resp, err := s.history.ListJobs(opts)
	if err != nil {
		WriteError(c, seekerrors.NewInternalError("list history", err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, seekerrors.NewInvalidParameterError(key, "must be a non-negative integer")
	}
	return n, nil
}
