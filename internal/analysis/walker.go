package analysis

import (
	"javaseeker/internal/javamodel"
)

const (
	defaultMaxContext      = 2000
	defaultFallbackContext = 500
)

// Walker runs the reference passes over a model.
type Walker struct {
	Classifier Classifier
	// MaxContext caps every code context; FallbackContext is the longest
	// enclosing declaration used when a reference sits outside any
	// statement.
	MaxContext      int
	FallbackContext int
}

// To reports every place that uses target, attributed to the enclosing
// method or type. Uses inside the target's own declaration header are
// skipped.
func (w *Walker) To(m *javamodel.Model, target javamodel.Decl, add func(Reference)) {
	for _, r := range m.Refs {
		if !refersTo(r, target) || r.Context == target {
			continue
		}
		add(Reference{
			Source:        w.Classifier.DeclOrigin(r.Context),
			QualifiedName: r.Context.QualifiedName(),
			CodeContext:   truncate(javamodel.DeclText(r.Context), w.maxContext()),
			Direction:     To,
		})
	}
}

// refersTo matches a reference against the target by binding, or by name
// when the reference could not be bound to a declaration.
func refersTo(r *javamodel.Ref, target javamodel.Decl) bool {
	switch t := target.(type) {
	case *javamodel.Type:
		if r.Kind != javamodel.TypeRef {
			return false
		}
		if r.Type.Decl != nil {
			return r.Type.Decl == t
		}
		return r.Type.Name == t.Qualified
	case *javamodel.Executable:
		if r.Kind != javamodel.ExecRef || r.Exec == nil {
			return false
		}
		if r.Exec.Decl != nil {
			return r.Exec.Decl == t
		}
		return r.Exec.Signature() == t.QualifiedName()
	}
	return false
}

// From reports what the target uses, recursive calls included. Platform
// types, type parameters and names that could not be qualified are left out.
func (w *Walker) From(m *javamodel.Model, target javamodel.Decl, add func(Reference)) {
	file, span := target.DeclFile(), target.DeclSpan()
	for _, r := range m.Refs {
		if r.File != file || !span.Contains(r.Span) {
			continue
		}

		var name, origin string
		switch r.Kind {
		case javamodel.TypeRef:
			if !w.include(r.Type) {
				continue
			}
			name, origin = r.Type.Name, w.Classifier.Origin(r.Type)
		case javamodel.ExecRef:
			if r.Exec == nil || !w.include(r.Exec.Declaring) {
				continue
			}
			name, origin = r.Exec.Signature(), w.Classifier.Origin(r.Exec.Declaring)
		}

		add(Reference{
			Source:        origin,
			QualifiedName: name,
			CodeContext:   w.fromContext(r),
			Direction:     From,
		})
	}
}

func (w *Walker) include(b javamodel.TypeBinding) bool {
	switch b.Kind {
	case javamodel.Primitive, javamodel.TypeParameter, javamodel.Platform:
		return false
	case javamodel.Unresolved:
		if !b.Qualified() {
			return false
		}
	}
	return !w.Classifier.IsPlatform(b.Name)
}

// fromContext is the enclosing statement, else the enclosing declaration
// when it is short enough, else a one-line pointer to it.
func (w *Walker) fromContext(r *javamodel.Ref) string {
	if !r.Statement.Empty() {
		return truncate(r.File.Text(r.Statement), w.maxContext())
	}
	text := javamodel.DeclText(r.Context)
	if len([]rune(text)) > w.fallbackContext() {
		text = r.Text() + " (in context of " + r.Context.QualifiedName() + ")"
	}
	return truncate(text, w.maxContext())
}

func (w *Walker) maxContext() int {
	if w.MaxContext < 4 {
		return defaultMaxContext
	}
	return w.MaxContext
}

func (w *Walker) fallbackContext() int {
	if w.FallbackContext <= 0 {
		return defaultFallbackContext
	}
	return w.FallbackContext
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
