// Package analysis answers reference queries against a project's Java model:
// who uses a type or method (TO), and what it uses (FROM).
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	seekerrors "javaseeker/internal/errors"
	"javaseeker/internal/javamodel"
	"javaseeker/internal/metrics"
	"javaseeker/internal/projects"
)

// Projects looks up descriptors by name.
type Projects interface {
	Get(name string) (projects.Descriptor, bool)
}

// ModelBuilder builds a model of a source tree.
type ModelBuilder interface {
	Build(ctx context.Context, root string) (*javamodel.Model, error)
}

// Request is one analysis query.
type Request struct {
	ProjectName string `json:"projectName" validate:"required"`
	CodeSnippet string `json:"codeSnippet" validate:"required"`
	// Direction is TO, FROM or BOTH; empty means BOTH.
	Direction string `json:"direction,omitempty"`
	// Strict turns an unresolvable target into an error instead of an
	// empty result.
	Strict bool `json:"strict,omitempty"`
}

// Result summarizes a query. References is nil for streamed queries.
type Result struct {
	Project     string      `json:"project"`
	Target      string      `json:"target"`
	Resolved    string      `json:"resolved,omitempty"`
	Kind        string      `json:"kind,omitempty"`
	Direction   Direction   `json:"direction"`
	References  []Reference `json:"references"`
	ToCount     int         `json:"toCount"`
	FromCount   int         `json:"fromCount"`
	NoClasspath bool        `json:"noClasspath,omitempty"`
	Notes       []string    `json:"notes,omitempty"`
	DurationMs  int64       `json:"durationMs"`
}

// Options configures a Service.
type Options struct {
	Projects Projects
	Builder  ModelBuilder
	Walker   *Walker
	// AllowNoBuildFile admits READY_NO_BUILD_FILE projects.
	AllowNoBuildFile bool
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// Service runs analysis requests. Each request builds its own model; nothing
// is cached between requests and project status is never changed.
type Service struct {
	projects         Projects
	builder          ModelBuilder
	walker           *Walker
	allowNoBuildFile bool
	metrics          *metrics.Metrics
	logger           *slog.Logger
	validate         *validator.Validate
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	walker := opts.Walker
	if walker == nil {
		walker = &Walker{}
	}
	return &Service{
		projects:         opts.Projects,
		builder:          opts.Builder,
		walker:           walker,
		allowNoBuildFile: opts.AllowNoBuildFile,
		metrics:          opts.Metrics,
		logger:           logger,
		validate:         validator.New(),
	}
}

// Analyze runs the query and returns the deduplicated references.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	set := NewReferenceSet()
	res, err := s.run(ctx, req, set, nil)
	if err != nil {
		return nil, err
	}
	res.References = set.Items()
	return res, nil
}

// Stream runs the query and calls emit once per unique reference as the
// passes find it. An emit error stops the query and is returned.
func (s *Service) Stream(ctx context.Context, req Request, emit func(Reference) error) (*Result, error) {
	return s.run(ctx, req, NewReferenceSet(), emit)
}

func (s *Service) run(ctx context.Context, req Request, set *ReferenceSet, emit func(Reference) error) (res *Result, err error) {
	started := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = outcomeOf(err)
		}
		s.metrics.AnalysisFinished(outcome, time.Since(started))
	}()

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, seekerrors.NewInvalidParameterError(lowerFirst(verrs[0].Field()), verrs[0].Tag())
		}
		return nil, seekerrors.NewInvalidParameterError("request", err.Error())
	}
	dir, ok := ParseDirection(req.Direction)
	if !ok {
		return nil, seekerrors.NewInvalidParameterError("direction", "must be TO, FROM or BOTH")
	}

	d, ok := s.projects.Get(req.ProjectName)
	if !ok {
		return nil, seekerrors.NewProjectNotFoundError(req.ProjectName)
	}
	if !s.ready(d.Status) {
		return nil, seekerrors.NewProjectNotReadyError(d.Name, d.Status.String())
	}
	spec, err := ParseSpecifier(req.CodeSnippet)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("project", d.Name, "target", spec.String())
	m, err := s.builder.Build(ctx, d.WorkDir())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Model build failed", "error", err)
		return nil, seekerrors.NewModelBuildError(d.Name, err)
	}

	res = &Result{
		Project:     d.Name,
		Target:      spec.String(),
		Direction:   dir,
		NoClasspath: m.NoClasspath,
	}
	if m.NoClasspath {
		res.Notes = append(res.Notes, "no compiled classes or dependency jars found; references to libraries are unresolved")
	}

	target := Resolve(m, spec)
	if target == nil {
		note := notFoundNote(spec)
		if req.Strict {
			return nil, seekerrors.NewTargetNotFoundError(d.Name, spec.String(), note)
		}
		outcome = "target_not_found"
		res.Notes = append(res.Notes, fmt.Sprintf("%s: %s not found (%s)", seekerrors.TargetNotFound, spec.String(), note))
		res.DurationMs = time.Since(started).Milliseconds()
		logger.Info("Analysis target not found", "note", note)
		return res, nil
	}
	res.Resolved = target.QualifiedName()
	res.Kind = kindOf(target)

	var emitErr error
	add := func(r Reference) {
		if emitErr != nil || !set.Add(r) {
			return
		}
		if emit != nil {
			emitErr = emit(r)
		}
	}

	if dir.includes(To) {
		s.walker.To(m, target, add)
	}
	if emitErr == nil && ctx.Err() == nil && dir.includes(From) {
		s.walker.From(m, target, add)
	}
	if emitErr != nil {
		return nil, emitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.ToCount = set.Count(To)
	res.FromCount = set.Count(From)
	res.DurationMs = time.Since(started).Milliseconds()
	s.metrics.AnalysisReferences(string(To), res.ToCount)
	s.metrics.AnalysisReferences(string(From), res.FromCount)

	logger.Info("Analysis finished",
		"resolved", res.Resolved,
		"direction", dir,
		"to", res.ToCount,
		"from", res.FromCount,
		"duration", time.Since(started).Round(time.Millisecond),
	)
	return res, nil
}

func (s *Service) ready(st projects.Status) bool {
	return st == projects.StatusReady || (s.allowNoBuildFile && st == projects.StatusReadyNoBuildFile)
}

func notFoundNote(spec Specifier) string {
	if spec.Qualified() {
		return "simple-name fallback not attempted for a qualified name"
	}
	return fmt.Sprintf("simple-name fallback found no type named %s", spec.Type)
}

func kindOf(d javamodel.Decl) string {
	if _, ok := d.(*javamodel.Executable); ok {
		return "executable"
	}
	return "type"
}

func outcomeOf(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	switch seekerrors.CodeOf(err) {
	case seekerrors.ProjectNotFound:
		return "project_not_found"
	case seekerrors.ProjectNotReady:
		return "not_ready"
	case seekerrors.TargetNotFound:
		return "target_not_found"
	case seekerrors.InvalidSpecifier, seekerrors.InvalidParameter:
		return "invalid"
	case seekerrors.ModelBuildFailed:
		return "build_failed"
	}
	return "error"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}
