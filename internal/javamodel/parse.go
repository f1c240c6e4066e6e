//go:build cgo

package javamodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"golang.org/x/sync/errgroup"
)

// spanKey identifies a node within one file.
type spanKey struct {
	start, end uint32
	kind       string
}

func keyOf(n *sitter.Node) spanKey {
	return spanKey{n.StartByte(), n.EndByte(), n.Type()}
}

// unit is one parsed file plus the nodes later phases need.
type unit struct {
	file *File
	tree *sitter.Tree // nodes below stay valid while the tree is reachable

	types  []typeDecl
	execs  []execDecl
	fields []fieldDecl

	typeAt map[spanKey]*Type
	execAt map[spanKey]*Executable

	refs []*Ref
}

type typeDecl struct {
	t    *Type
	node *sitter.Node
}

type execDecl struct {
	e          *Executable
	node       *sitter.Node
	paramTypes []*sitter.Node
	paramDims  []int
	ret        *sitter.Node
}

type fieldDecl struct {
	f        *Field
	typeNode *sitter.Node
	dims     int
}

var typeDeclNodes = map[string]TypeKind{
	"class_declaration":           KindClass,
	"interface_declaration":       KindInterface,
	"enum_declaration":            KindEnum,
	"record_declaration":          KindRecord,
	"annotation_type_declaration": KindAnnotation,
}

var execDeclNodes = map[string]bool{
	"method_declaration":                  true,
	"constructor_declaration":             true,
	"compact_constructor_declaration":     true,
	"annotation_type_element_declaration": true,
}

// parse runs the three phases: parse and declare each file, bind
// signatures, then walk bodies for references. Files and bodies are
// processed in parallel; each phase only writes to its own unit.
func (b *Builder) parse(ctx context.Context, m *Model, paths []string) error {
	logger := b.logger()
	units := make([]*unit, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for i, path := range paths {
		g.Go(func() error {
			u, err := parseUnit(gctx, m.Root, path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("Skipping unparsable file", "path", path, "error", err)
				return nil
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var live []*unit
	for _, u := range units {
		if u == nil {
			continue
		}
		live = append(live, u)
		m.Files = append(m.Files, u.file)
		for _, t := range u.file.Types {
			m.register(t)
		}
	}
	if err := b.eachUnit(ctx, live, func(u *unit) { b.bindSignatures(m, u) }); err != nil {
		return err
	}
	if err := b.eachUnit(ctx, live, func(u *unit) { b.walkUnit(m, u) }); err != nil {
		return err
	}

	for _, u := range live {
		m.Refs = append(m.Refs, u.refs...)
	}
	return nil
}

func (b *Builder) eachUnit(ctx context.Context, units []*unit, fn func(*unit)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for _, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(u)
			return nil
		})
	}
	return g.Wait()
}

func parseUnit(ctx context.Context, root, path string) (*unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	u := &unit{
		file:   &File{Path: path, RelPath: filepath.ToSlash(rel), Source: src},
		tree:   tree,
		typeAt: make(map[spanKey]*Type),
		execAt: make(map[spanKey]*Executable),
	}
	u.declareFile(tree.RootNode())
	return u, nil
}

func (u *unit) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(u.file.Source)
}

func spanOf(n *sitter.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte(), Line: int(n.StartPoint().Row) + 1}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (u *unit) declareFile(root *sitter.Node) {
	f := u.file
	for _, c := range namedChildren(root) {
		switch c.Type() {
		case "package_declaration":
			for _, p := range namedChildren(c) {
				if p.Type() == "identifier" || p.Type() == "scoped_identifier" {
					f.Package = compact(u.text(p))
				}
			}
		case "import_declaration":
			f.Imports = append(f.Imports, u.declareImport(c))
		}
	}
	for _, c := range namedChildren(root) {
		if _, ok := typeDeclNodes[c.Type()]; ok {
			f.Types = append(f.Types, u.declareType(c, nil))
		}
	}
}

func (u *unit) declareImport(n *sitter.Node) Import {
	var imp Import
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			imp.Static = true
		case "identifier", "scoped_identifier":
			imp.Name = compact(u.text(c))
		case "asterisk":
			imp.OnDemand = true
		}
	}
	return imp
}

func (u *unit) declareType(n *sitter.Node, outer *Type) *Type {
	name := u.text(n.ChildByFieldName("name"))
	t := &Type{
		Name:    name,
		Package: u.file.Package,
		Kind:    typeDeclNodes[n.Type()],
		File:    u.file,
		Span:    spanOf(n),
		Outer:   outer,
	}
	switch {
	case outer != nil:
		t.Qualified = outer.Qualified + "." + name
	case t.Package != "":
		t.Qualified = t.Package + "." + name
	default:
		t.Qualified = name
	}
	t.TypeParams = u.typeParams(n.ChildByFieldName("type_parameters"))

	u.types = append(u.types, typeDecl{t: t, node: n})
	u.typeAt[keyOf(n)] = t

	if t.Kind == KindRecord {
		for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
			if p.Type() != "formal_parameter" {
				continue
			}
			f := &Field{Name: u.text(p.ChildByFieldName("name")), Declaring: t}
			t.Fields = append(t.Fields, f)
			u.fields = append(u.fields, fieldDecl{f: f, typeNode: p.ChildByFieldName("type")})
		}
	}

	u.declareMembers(t, n.ChildByFieldName("body"))
	return t
}

func (u *unit) declareMembers(t *Type, body *sitter.Node) {
	for _, c := range namedChildren(body) {
		kind := c.Type()
		switch {
		case typeDeclNodes[kind] != "":
			t.Nested = append(t.Nested, u.declareType(c, t))
		case execDeclNodes[kind]:
			u.declareExec(t, c)
		case kind == "field_declaration" || kind == "constant_declaration":
			typeNode := c.ChildByFieldName("type")
			for _, d := range namedChildren(c) {
				if d.Type() != "variable_declarator" {
					continue
				}
				f := &Field{Name: u.text(d.ChildByFieldName("name")), Declaring: t}
				t.Fields = append(t.Fields, f)
				u.fields = append(u.fields, fieldDecl{f: f, typeNode: typeNode, dims: dimsOf(u.text(d.ChildByFieldName("dimensions")))})
				u.declareLocalTypes(t, d.ChildByFieldName("value"))
			}
		case kind == "enum_constant":
			f := &Field{
				Name:      u.text(c.ChildByFieldName("name")),
				Declaring: t,
				Type:      TypeBinding{Kind: Source, Name: t.Qualified, Decl: t},
			}
			t.Fields = append(t.Fields, f)
			u.declareLocalTypes(t, c)
		case kind == "enum_body_declarations":
			u.declareMembers(t, c)
		case kind == "static_initializer" || kind == "block":
			u.declareLocalTypes(t, c)
		}
	}
}

func (u *unit) declareExec(t *Type, n *sitter.Node) {
	kind := n.Type()
	e := &Executable{
		Name:        u.text(n.ChildByFieldName("name")),
		Declaring:   t,
		Constructor: kind == "constructor_declaration" || kind == "compact_constructor_declaration",
		TypeParams:  u.typeParams(n.ChildByFieldName("type_parameters")),
		Span:        spanOf(n),
	}
	if e.Constructor {
		e.Name = t.Name
	}
	d := execDecl{e: e, node: n}
	if !e.Constructor {
		d.ret = n.ChildByFieldName("type")
	}

	if kind == "compact_constructor_declaration" {
		// record components are the implicit parameters
		for _, f := range u.fields {
			if f.f.Declaring == t {
				e.Params = append(e.Params, &Param{Name: f.f.Name, Written: u.text(f.typeNode)})
				d.paramTypes = append(d.paramTypes, f.typeNode)
				d.paramDims = append(d.paramDims, 0)
			}
		}
	}

	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		switch p.Type() {
		case "formal_parameter":
			typeNode := p.ChildByFieldName("type")
			dimsText := u.text(p.ChildByFieldName("dimensions"))
			e.Params = append(e.Params, &Param{
				Name:    u.text(p.ChildByFieldName("name")),
				Written: u.text(typeNode) + dimsText,
			})
			d.paramTypes = append(d.paramTypes, typeNode)
			d.paramDims = append(d.paramDims, dimsOf(dimsText))
		case "spread_parameter":
			var typeNode *sitter.Node
			name := ""
			for _, c := range namedChildren(p) {
				switch {
				case c.Type() == "variable_declarator":
					name = u.text(c.ChildByFieldName("name"))
				case typeNode == nil && isTypeNode(c.Type()):
					typeNode = c
				}
			}
			e.Params = append(e.Params, &Param{Name: name, Written: u.text(typeNode), Varargs: true})
			d.paramTypes = append(d.paramTypes, typeNode)
			d.paramDims = append(d.paramDims, 0)
		}
	}

	t.Executables = append(t.Executables, e)
	u.execs = append(u.execs, d)
	u.execAt[keyOf(n)] = e
	u.declareLocalTypes(t, n.ChildByFieldName("body"))
}

// declareLocalTypes registers classes declared inside bodies as members of
// the enclosing type.
func (u *unit) declareLocalTypes(t *Type, n *sitter.Node) {
	for _, c := range namedChildren(n) {
		if typeDeclNodes[c.Type()] != "" {
			t.Nested = append(t.Nested, u.declareType(c, t))
			continue
		}
		u.declareLocalTypes(t, c)
	}
}

func (u *unit) typeParams(n *sitter.Node) []string {
	var out []string
	for _, p := range namedChildren(n) {
		if p.Type() != "type_parameter" {
			continue
		}
		for _, c := range namedChildren(p) {
			if c.Type() == "type_identifier" || c.Type() == "identifier" {
				out = append(out, u.text(c))
				break
			}
		}
	}
	return out
}

var typeNodes = map[string]bool{
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
	"integral_type":          true,
	"floating_point_type":    true,
	"boolean_type":           true,
	"void_type":              true,
	"annotated_type":         true,
}

func isTypeNode(kind string) bool {
	return typeNodes[kind]
}

func dimsOf(s string) int {
	return strings.Count(s, "[")
}

// compact removes whitespace inside dotted names.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
