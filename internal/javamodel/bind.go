//go:build cgo

package javamodel

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// scope is what a type name is resolved against: the innermost enclosing
// type and the type parameters visible at that point.
type scope struct {
	typ        *Type
	typeParams []string
	// inherit lets member-type lookup climb source supertypes; only safe
	// once every file's signatures are bound
	inherit bool
}

func (s scope) isTypeParam(name string) bool {
	for _, p := range s.typeParams {
		if p == name {
			return true
		}
	}
	for t := s.typ; t != nil; t = t.Outer {
		for _, p := range t.TypeParams {
			if p == name {
				return true
			}
		}
	}
	return false
}

// resolver binds written type names for one file.
type resolver struct {
	b *Builder
	m *Model
	u *unit
}

// bindSignatures resolves supertypes, field types, parameter and return
// types for every declaration in the unit.
func (b *Builder) bindSignatures(m *Model, u *unit) {
	r := &resolver{b: b, m: m, u: u}

	for _, d := range u.types {
		t, n := d.t, d.node
		sc := scope{typ: t}
		if sup := n.ChildByFieldName("superclass"); sup != nil {
			for _, c := range namedChildren(sup) {
				if isTypeNode(c.Type()) {
					t.Superclass = r.typeNode(c, sc)
					t.Supertypes = append(t.Supertypes, t.Superclass)
				}
			}
		}
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "super_interfaces", "extends_interfaces":
				for _, list := range namedChildren(c) {
					for _, it := range namedChildren(list) {
						if isTypeNode(it.Type()) {
							t.Supertypes = append(t.Supertypes, r.typeNode(it, sc))
						}
					}
				}
			}
		}
	}

	for _, d := range u.fields {
		if d.typeNode == nil {
			continue
		}
		b := r.typeNode(d.typeNode, scope{typ: d.f.Declaring})
		b.Dims += d.dims
		d.f.Type = b
	}

	for _, d := range u.execs {
		sc := scope{typ: d.e.Declaring, typeParams: d.e.TypeParams}
		for i, p := range d.e.Params {
			if d.paramTypes[i] == nil {
				p.Type = TypeBinding{Kind: Unresolved, Name: p.Written}
				continue
			}
			pb := r.typeNode(d.paramTypes[i], sc)
			pb.Dims += d.paramDims[i]
			if p.Varargs {
				pb.Dims++
			}
			p.Type = pb
		}
		if d.ret != nil {
			d.e.Return = r.typeNode(d.ret, sc)
		}
	}
}

// typeNode binds a type node. Generic arguments are dropped; array
// dimensions are kept.
func (r *resolver) typeNode(n *sitter.Node, sc scope) TypeBinding {
	if n == nil {
		return TypeBinding{}
	}
	switch n.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return TypeBinding{Kind: Primitive, Name: r.u.text(n)}
	case "type_identifier":
		return r.simple(r.u.text(n), sc)
	case "scoped_type_identifier":
		return r.name(stripAnnotations(r.u.text(n)), sc)
	case "generic_type":
		for _, c := range namedChildren(n) {
			if c.Type() == "type_identifier" || c.Type() == "scoped_type_identifier" {
				return r.typeNode(c, sc)
			}
		}
	case "array_type":
		b := r.typeNode(n.ChildByFieldName("element"), sc)
		b.Dims += dimsOf(r.u.text(n.ChildByFieldName("dimensions")))
		return b
	case "annotated_type":
		kids := namedChildren(n)
		for i := len(kids) - 1; i >= 0; i-- {
			if isTypeNode(kids[i].Type()) {
				return r.typeNode(kids[i], sc)
			}
		}
	}
	return TypeBinding{Kind: Unresolved, Name: compact(stripGenerics(r.u.text(n)))}
}

// name binds a possibly dotted name: a fully qualified name, or a type
// followed by member type names.
func (r *resolver) name(name string, sc scope) TypeBinding {
	name = compact(stripGenerics(name))
	if !strings.Contains(name, ".") {
		return r.simple(name, sc)
	}
	if b, ok := r.qualified(name); ok {
		return b
	}

	head, rest, _ := strings.Cut(name, ".")
	hb := r.simple(head, sc)
	switch hb.Kind {
	case Source:
		t := hb.Decl
		for _, seg := range strings.Split(rest, ".") {
			if t = r.member(t, seg, sc.inherit); t == nil {
				break
			}
		}
		if t != nil {
			return sourceBinding(t)
		}
	case Binary, Platform:
		full := hb.Name + "." + rest
		if e, ok := r.m.Classes.Lookup(full); ok {
			return TypeBinding{Kind: Binary, Name: full, Class: &e}
		}
		if hb.Kind == Platform {
			return TypeBinding{Kind: Platform, Name: full}
		}
	}
	if r.b.isPlatform(name) {
		return TypeBinding{Kind: Platform, Name: name}
	}
	return TypeBinding{Kind: Unresolved, Name: name}
}

// qualified looks a fully qualified name up among source and classpath types.
func (r *resolver) qualified(name string) (TypeBinding, bool) {
	if t := r.m.byName[name]; t != nil {
		return sourceBinding(t), true
	}
	if e, ok := r.m.Classes.Lookup(name); ok {
		return TypeBinding{Kind: Binary, Name: name, Class: &e}, true
	}
	return TypeBinding{}, false
}

// simple binds a simple type name following the language's shadowing
// order: type parameters, member types of enclosing types, single-type
// imports, the current package, on-demand imports, then java.lang.
func (r *resolver) simple(name string, sc scope) TypeBinding {
	if primitives[name] {
		return TypeBinding{Kind: Primitive, Name: name}
	}
	if sc.isTypeParam(name) {
		return TypeBinding{Kind: TypeParameter, Name: name}
	}

	for t := sc.typ; t != nil; t = t.Outer {
		if t.Name == name {
			return sourceBinding(t)
		}
		if n := r.member(t, name, sc.inherit); n != nil {
			return sourceBinding(n)
		}
	}

	f := r.u.file
	for _, imp := range f.Imports {
		if imp.OnDemand || lastSegment(imp.Name) != name {
			continue
		}
		if b, ok := r.qualified(imp.Name); ok {
			return b
		}
		if r.b.isPlatform(imp.Name) {
			return TypeBinding{Kind: Platform, Name: imp.Name}
		}
		return TypeBinding{Kind: Unresolved, Name: imp.Name}
	}

	if b, ok := r.qualified(joinName(f.Package, name)); ok {
		return b
	}

	for _, imp := range f.Imports {
		if !imp.OnDemand {
			continue
		}
		if b, ok := r.qualified(imp.Name + "." + name); ok {
			return b
		}
	}

	if javaLang[name] {
		return TypeBinding{Kind: Platform, Name: "java.lang." + name}
	}
	for _, imp := range f.Imports {
		if imp.OnDemand && !imp.Static && r.b.isPlatform(imp.Name+".") {
			return TypeBinding{Kind: Platform, Name: imp.Name + "." + name}
		}
	}
	return TypeBinding{Kind: Unresolved, Name: name}
}

// member finds a member type by simple name, optionally through source
// supertypes.
func (r *resolver) member(t *Type, name string, inherit bool) *Type {
	seen := map[*Type]bool{}
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, n := range cur.Nested {
			if n.Name == name {
				return n
			}
		}
		if !inherit {
			return nil
		}
		for _, s := range cur.Supertypes {
			if s.Kind == Source {
				queue = append(queue, s.Decl)
			}
		}
	}
	return nil
}

func sourceBinding(t *Type) TypeBinding {
	return TypeBinding{Kind: Source, Name: t.Qualified, Decl: t}
}

func lastSegment(name string) string {
	return name[strings.LastIndex(name, ".")+1:]
}

func joinName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// stripAnnotations drops type annotations written inside a scoped name,
// as in java.util.@Nullable List.
func stripAnnotations(s string) string {
	if !strings.Contains(s, "@") {
		return s
	}
	var out []string
	for _, f := range strings.Fields(strings.ReplaceAll(s, ".", ". ")) {
		if strings.HasPrefix(f, "@") {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, "")
}
