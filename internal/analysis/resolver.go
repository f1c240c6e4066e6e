package analysis

import (
	"javaseeker/internal/javamodel"
)

// Resolve finds the declaration a specifier names, or nil. The type is
// looked up as a top-level type first, then among all types (nested ones
// included). An unqualified type name that matches nothing is retried as a
// simple name.
func Resolve(m *javamodel.Model, s Specifier) javamodel.Decl {
	if d := resolveIn(m, s, findQualified(m, s.Type)); d != nil {
		return d
	}
	if s.Qualified() {
		return nil
	}
	return resolveIn(m, s, findSimple(m, s.Type))
}

func resolveIn(m *javamodel.Model, s Specifier, t *javamodel.Type) javamodel.Decl {
	if t == nil {
		return nil
	}
	if !s.HasMethod() {
		return t
	}
	if e := findExecutable(t, s); e != nil {
		return e
	}
	return nil
}

func findQualified(m *javamodel.Model, name string) *javamodel.Type {
	if t := m.TopLevel(name); t != nil {
		return t
	}
	for _, t := range m.Types {
		if t.Qualified == name {
			return t
		}
	}
	return nil
}

func findSimple(m *javamodel.Model, name string) *javamodel.Type {
	for _, t := range m.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// findExecutable matches by simple name and parameter count, then each
// parameter by simple type name. A fully qualified token also matches the
// resolved parameter type.
func findExecutable(t *javamodel.Type, s Specifier) *javamodel.Executable {
	for _, e := range t.Executables {
		if e.Name != s.Method {
			continue
		}
		if s.AnyParams {
			return e
		}
		if len(e.Params) != len(s.Params) {
			continue
		}
		if paramsMatch(e.Params, s.Params) {
			return e
		}
	}
	return nil
}

func paramsMatch(params []*javamodel.Param, tokens []string) bool {
	for i, tok := range tokens {
		p := params[i]
		if javamodel.SimpleTypeName(tok, false) == p.SimpleTypeName() {
			continue
		}
		if normalizeTypeName(tok) == p.Type.Display() {
			continue
		}
		return false
	}
	return true
}
