// Package javamodel builds a syntax-level model of a Java source tree:
// declared types and executables, plus every type and executable reference
// bound to its declaration where the sources or the classpath allow it.
package javamodel

import (
	"strings"
)

// Span is a byte range in a file's source.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
	Line  int    `json:"line"` // 1-based line of Start
}

// Contains reports whether o lies inside s. Equal spans count as contained.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Empty reports a zero-length span.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// File is one parsed compilation unit.
type File struct {
	Path    string // absolute
	RelPath string // relative to the model root, slash separated
	Package string
	Imports []Import
	Source  []byte
	Types   []*Type // top-level types
}

// Text returns the source text of a span.
func (f *File) Text(s Span) string {
	if f == nil || int(s.End) > len(f.Source) || s.Start > s.End {
		return ""
	}
	return string(f.Source[s.Start:s.End])
}

// Import is one import declaration.
type Import struct {
	Name     string // a.b.C, or a.b for on-demand imports
	Static   bool
	OnDemand bool
}

// TypeKind distinguishes type declarations.
type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindRecord     TypeKind = "record"
	KindAnnotation TypeKind = "annotation"
)

// Decl is a source declaration a reference can resolve to: *Type or
// *Executable.
type Decl interface {
	// QualifiedName is the type's dotted name or the executable's signature.
	QualifiedName() string
	SimpleName() string
	DeclFile() *File
	DeclSpan() Span
}

// Type is a class, interface, enum, record or annotation declared in source.
// Nested types use dotted qualified names: pkg.Outer.Inner.
type Type struct {
	Name        string
	Qualified   string
	Package     string
	Kind        TypeKind
	File        *File
	Span        Span
	Outer       *Type
	Nested      []*Type
	Executables []*Executable
	Fields      []*Field
	TypeParams  []string

	// bound after all files are declared; Superclass is zero when the
	// declaration has no extends clause
	Superclass TypeBinding
	Supertypes []TypeBinding
}

func (t *Type) QualifiedName() string { return t.Qualified }
func (t *Type) SimpleName() string    { return t.Name }
func (t *Type) DeclFile() *File       { return t.File }
func (t *Type) DeclSpan() Span        { return t.Span }

// BinaryName is the JVM binary name, pkg.Outer$Inner.
func (t *Type) BinaryName() string {
	if t.Outer == nil {
		return t.Qualified
	}
	return t.Outer.BinaryName() + "$" + t.Name
}

// Constructors returns the declared constructors.
func (t *Type) Constructors() []*Executable {
	var out []*Executable
	for _, e := range t.Executables {
		if e.Constructor {
			out = append(out, e)
		}
	}
	return out
}

// Executable is a method or constructor declared in source.
type Executable struct {
	Name        string // constructors carry the type's simple name
	Declaring   *Type
	Constructor bool
	Params      []*Param
	TypeParams  []string
	Return      TypeBinding
	Span        Span
}

// Signature renders name(paramType,...) with parameter types qualified
// where they resolved, e.g. m(int,java.lang.String).
func (e *Executable) Signature() string {
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		parts[i] = p.Type.Display()
	}
	return e.Name + "(" + strings.Join(parts, ",") + ")"
}

func (e *Executable) QualifiedName() string { return e.Declaring.Qualified + "#" + e.Signature() }
func (e *Executable) SimpleName() string    { return e.Name }
func (e *Executable) DeclFile() *File       { return e.Declaring.File }
func (e *Executable) DeclSpan() Span        { return e.Span }

// Varargs reports whether the last parameter is variable arity.
func (e *Executable) Varargs() bool {
	return len(e.Params) > 0 && e.Params[len(e.Params)-1].Varargs
}

// Param is a formal parameter.
type Param struct {
	Name    string
	Written string // type as written, generics included
	Varargs bool
	Type    TypeBinding
}

// SimpleTypeName is the parameter type's simple name without generic
// arguments; arrays and varargs keep their [] suffix.
func (p *Param) SimpleTypeName() string {
	return SimpleTypeName(p.Written, p.Varargs)
}

// Field is a field or enum constant.
type Field struct {
	Name      string
	Declaring *Type
	Type      TypeBinding
}

// SimpleTypeName strips qualifiers and generic arguments from a written
// type: java.util.List<String> becomes List, String... becomes String[].
func SimpleTypeName(written string, varargs bool) string {
	s := stripGenerics(strings.TrimSpace(written))
	dims := ""
	for strings.HasSuffix(s, "[]") {
		dims += "[]"
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}
	if strings.HasSuffix(s, "...") {
		s = strings.TrimSuffix(s, "...")
		varargs = true
	}
	if varargs {
		dims += "[]"
	}
	if i := strings.LastIndexAny(s, ".$"); i >= 0 {
		s = s[i+1:]
	}
	return strings.Join(strings.Fields(s), "") + dims
}

func stripGenerics(s string) string {
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
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BindingKind says how a type name resolved.
type BindingKind int

const (
	// Unresolved names keep whatever qualification was written.
	Unresolved BindingKind = iota
	Primitive
	TypeParameter
	// Source types are declared in the model.
	Source
	// Binary types were found on the classpath.
	Binary
	// Platform types are known JDK types or sit under a platform wildcard
	// import.
	Platform
)

// TypeBinding is a resolved (or best-effort) type name.
type TypeBinding struct {
	Kind  BindingKind
	Name  string // qualified where known; primitive keyword; simple otherwise
	Dims  int
	Decl  *Type       // Source only
	Class *ClassEntry // Binary only
}

// Display renders the binding as it appears in signatures.
func (b TypeBinding) Display() string {
	if b.Name == "" {
		return "?"
	}
	return b.Name + strings.Repeat("[]", b.Dims)
}

// Known reports whether the binding names a concrete type.
func (b TypeBinding) Known() bool {
	return b.Kind == Source || b.Kind == Binary || b.Kind == Platform || b.Kind == Primitive
}

// Qualified reports whether Name is a usable qualified name even if the
// type itself was not found.
func (b TypeBinding) Qualified() bool {
	switch b.Kind {
	case Source, Binary, Platform:
		return true
	case Unresolved:
		return strings.Contains(b.Name, ".")
	}
	return false
}

// RefKind distinguishes type uses from executable uses.
type RefKind int

const (
	TypeRef RefKind = iota
	ExecRef
)

func (k RefKind) String() string {
	if k == ExecRef {
		return "executable"
	}
	return "type"
}

// ExecBinding is the executable an invocation, instantiation or method
// reference points at.
type ExecBinding struct {
	Decl        *Executable // set when the executable is declared in source
	Declaring   TypeBinding
	Name        string
	Constructor bool
	Args        []TypeBinding
}

// Signature renders Declaring#name(args). Declared executables use their
// declared signature; unknown argument types render as ?.
func (b *ExecBinding) Signature() string {
	if b.Decl != nil {
		return b.Decl.QualifiedName()
	}
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = a.Display()
	}
	return b.Declaring.Display() + "#" + b.Name + "(" + strings.Join(parts, ",") + ")"
}

// Ref is one type or executable reference in source.
type Ref struct {
	Kind RefKind
	File *File
	Span Span
	// Type is the referenced type, or the declaring type of an executable.
	Type TypeBinding
	Exec *ExecBinding
	// Context is the innermost enclosing executable or type.
	Context Decl
	// Statement is the innermost enclosing statement; empty when the
	// reference sits outside any statement (signatures, fields).
	Statement Span
}

// Target returns the source declaration the reference resolved to.
func (r *Ref) Target() Decl {
	if r.Kind == ExecRef {
		if r.Exec != nil && r.Exec.Decl != nil {
			return r.Exec.Decl
		}
		return nil
	}
	if r.Type.Decl != nil {
		return r.Type.Decl
	}
	return nil
}

// Name is the qualified name of a type reference or the signature of an
// executable reference.
func (r *Ref) Name() string {
	if r.Kind == ExecRef && r.Exec != nil {
		return r.Exec.Signature()
	}
	return r.Type.Display()
}

// Text is the source text of the reference node.
func (r *Ref) Text() string {
	return r.File.Text(r.Span)
}

// Model is the parsed project.
type Model struct {
	Root        string
	Classpath   []string
	NoClasspath bool
	Files       []*File
	Types       []*Type // every source type, nested ones included, in file order
	Refs        []*Ref
	Classes     *ClassIndex

	byName map[string]*Type
}

// TopLevel returns the top-level source type with the qualified name.
func (m *Model) TopLevel(qualified string) *Type {
	t := m.byName[qualified]
	if t == nil || t.Outer != nil {
		return nil
	}
	return t
}

// Lookup returns the source type with the dotted qualified name.
func (m *Model) Lookup(qualified string) *Type {
	return m.byName[qualified]
}

// DeclText returns the source text of a declaration.
func DeclText(d Decl) string {
	return d.DeclFile().Text(d.DeclSpan())
}
