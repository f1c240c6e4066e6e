package analysis

import (
	"fmt"
	"strings"

	seekerrors "javaseeker/internal/errors"
)

// Specifier is a parsed analysis target: a type, optionally narrowed to one
// of its methods or constructors.
type Specifier struct {
	Raw  string `json:"raw"`
	Type string `json:"type"` // dotted; nested types use . rather than $

	// Method is empty for type targets. Constructors are named after the
	// type.
	Method string `json:"method,omitempty"`
	// Params holds the parameter type tokens as written. AnyParams is set
	// when the method was given without a parameter list.
	Params    []string `json:"params,omitempty"`
	AnyParams bool     `json:"anyParams,omitempty"`
}

// HasMethod reports whether the specifier names an executable.
func (s Specifier) HasMethod() bool {
	return s.Method != ""
}

// Qualified reports whether the type part contains a package or outer type.
func (s Specifier) Qualified() bool {
	return strings.Contains(s.Type, ".")
}

func (s Specifier) String() string {
	if !s.HasMethod() {
		return s.Type
	}
	if s.AnyParams {
		return s.Type + "#" + s.Method
	}
	return s.Type + "#" + s.Method + "(" + strings.Join(s.Params, ",") + ")"
}

// ParseSpecifier parses "pkg.Type" or "pkg.Type#method(T1,T2)". Generic
// arguments on the type are ignored and $ is accepted for nested types.
func ParseSpecifier(raw string) (Specifier, error) {
	s := Specifier{Raw: raw}
	text := strings.TrimSpace(raw)
	if text == "" {
		return s, seekerrors.NewInvalidSpecifierError(raw, "empty")
	}

	typePart, methodPart, hasMethod := strings.Cut(text, "#")
	s.Type = normalizeTypeName(typePart)
	if s.Type == "" {
		return s, seekerrors.NewInvalidSpecifierError(raw, "missing type name")
	}
	if err := checkName(s.Type); err != nil {
		return s, seekerrors.NewInvalidSpecifierError(raw, err.Error())
	}
	if !hasMethod {
		return s, nil
	}

	methodPart = strings.TrimSpace(methodPart)
	open := strings.IndexByte(methodPart, '(')
	if open < 0 {
		s.Method = methodPart
		s.AnyParams = true
	} else {
		if !strings.HasSuffix(methodPart, ")") {
			return s, seekerrors.NewInvalidSpecifierError(raw, "unterminated parameter list")
		}
		s.Method = strings.TrimSpace(methodPart[:open])
		params, err := splitParams(methodPart[open+1 : len(methodPart)-1])
		if err != nil {
			return s, seekerrors.NewInvalidSpecifierError(raw, err.Error())
		}
		s.Params = params
	}
	if s.Method == "" {
		return s, seekerrors.NewInvalidSpecifierError(raw, "missing method name")
	}
	if err := checkName(s.Method); err != nil {
		return s, seekerrors.NewInvalidSpecifierError(raw, err.Error())
	}
	return s, nil
}

func normalizeTypeName(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0, r == ' ', r == '\t':
		case r == '$':
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func checkName(name string) error {
	for _, seg := range strings.Split(name, ".") {
		if seg == "" {
			return fmt.Errorf("empty name segment in %q", name)
		}
		for i, r := range seg {
			if r == '_' || r == '$' || isLetter(r) || (i > 0 && r >= '0' && r <= '9') {
				continue
			}
			return fmt.Errorf("unexpected character %q in %q", r, name)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 127
}

// splitParams splits on commas outside generic brackets.
func splitParams(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return []string{}, nil
	}
	var out []string
	depth, start := 0, 0
	for i, r := range list {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced '>' in parameter list")
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '<' in parameter list")
	}
	out = append(out, strings.TrimSpace(list[start:]))
	for _, p := range out {
		if p == "" {
			return nil, fmt.Errorf("empty parameter type")
		}
	}
	return out, nil
}
