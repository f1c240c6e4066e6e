//go:build cgo

package javamodel

import (
	"slices"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// value is what an expression evaluates to, as far as syntax allows.
type value struct {
	typ    TypeBinding
	static bool   // the expression names a type, not an instance
	pkg    string // the expression names a package prefix
}

// walker records references while descending one file. Its fields are the
// lexical state at the current node; nodes that open a scope save and
// restore them.
type walker struct {
	r *resolver
	u *unit

	typ        *Type
	ctx        Decl
	typeParams []string
	locals     []map[string]TypeBinding
	stmt       Span
}

var statementNodes = map[string]bool{
	"expression_statement":            true,
	"local_variable_declaration":      true,
	"return_statement":                true,
	"if_statement":                    true,
	"while_statement":                 true,
	"for_statement":                   true,
	"enhanced_for_statement":          true,
	"do_statement":                    true,
	"throw_statement":                 true,
	"try_statement":                   true,
	"try_with_resources_statement":    true,
	"switch_expression":               true,
	"yield_statement":                 true,
	"assert_statement":                true,
	"labeled_statement":               true,
	"synchronized_statement":          true,
	"explicit_constructor_invocation": true,
}

var scopeNodes = map[string]bool{
	"block":                        true,
	"constructor_body":             true,
	"for_statement":                true,
	"try_with_resources_statement": true,
	"catch_clause":                 true,
	"switch_block_statement_group": true,
	"switch_rule":                  true,
}

// walkUnit records every type and executable reference in the unit.
func (b *Builder) walkUnit(m *Model, u *unit) {
	w := &walker{r: &resolver{b: b, m: m, u: u}, u: u}
	w.walk(u.tree.RootNode())
}

func (w *walker) scope() scope {
	return scope{typ: w.typ, typeParams: w.typeParams, inherit: true}
}

func (w *walker) push() { w.locals = append(w.locals, map[string]TypeBinding{}) }
func (w *walker) pop()  { w.locals = w.locals[:len(w.locals)-1] }

func (w *walker) declare(name string, b TypeBinding) {
	if name == "" || len(w.locals) == 0 {
		return
	}
	w.locals[len(w.locals)-1][name] = b
}

func (w *walker) local(name string) (TypeBinding, bool) {
	for i := len(w.locals) - 1; i >= 0; i-- {
		if b, ok := w.locals[i][name]; ok {
			return b, true
		}
	}
	return TypeBinding{}, false
}

func (w *walker) emitType(n *sitter.Node, b TypeBinding) {
	if w.ctx == nil || b.Name == "" || b.Kind == Primitive || b.Kind == TypeParameter {
		return
	}
	w.u.refs = append(w.u.refs, &Ref{
		Kind:      TypeRef,
		File:      w.u.file,
		Span:      spanOf(n),
		Type:      b,
		Context:   w.ctx,
		Statement: w.stmt,
	})
}

func (w *walker) emitExec(n *sitter.Node, eb *ExecBinding) {
	if w.ctx == nil || eb == nil {
		return
	}
	w.u.refs = append(w.u.refs, &Ref{
		Kind:      ExecRef,
		File:      w.u.file,
		Span:      spanOf(n),
		Type:      eb.Declaring,
		Exec:      eb,
		Context:   w.ctx,
		Statement: w.stmt,
	})
}

// children walks the named children of n, skipping declared names.
func (w *walker) children(n *sitter.Node) {
	skip := map[spanKey]bool{}
	for _, f := range []string{"name", "key"} {
		if c := n.ChildByFieldName(f); c != nil {
			skip[keyOf(c)] = true
		}
	}
	for _, c := range namedChildren(n) {
		if !skip[keyOf(c)] {
			w.walk(c)
		}
	}
}

func (w *walker) walk(n *sitter.Node) value {
	if n == nil {
		return value{}
	}
	kind := n.Type()
	if statementNodes[kind] {
		saved := w.stmt
		w.stmt = spanOf(n)
		defer func() { w.stmt = saved }()
	}
	if scopeNodes[kind] {
		w.push()
		defer w.pop()
	}
	if _, ok := typeDeclNodes[kind]; ok {
		w.typeDecl(n)
		return value{}
	}
	if execDeclNodes[kind] {
		w.execDecl(n)
		return value{}
	}

	switch kind {
	case "package_declaration", "import_declaration", "line_comment", "block_comment",
		"break_statement", "continue_statement":
		return value{}

	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type", "annotated_type":
		return value{typ: w.typeUse(n), static: true}
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return value{typ: TypeBinding{Kind: Primitive, Name: w.u.text(n)}, static: true}

	case "identifier":
		return w.identifier(n)
	case "this":
		return value{typ: w.thisType()}
	case "super":
		return value{typ: w.superType()}
	case "field_access":
		return w.fieldAccess(n)
	case "method_invocation":
		return w.invocation(n)
	case "object_creation_expression":
		return w.creation(n)
	case "explicit_constructor_invocation":
		w.constructorCall(n)
		return value{}
	case "method_reference":
		w.methodReference(n)
		return value{}
	case "enum_constant":
		w.enumConstant(n)
		return value{}
	case "marker_annotation", "annotation":
		w.annotation(n)
		return value{}

	case "local_variable_declaration", "field_declaration", "constant_declaration":
		w.variables(n, kind == "local_variable_declaration")
		return value{}
	case "formal_parameter", "catch_formal_parameter", "spread_parameter":
		w.parameter(n)
		return value{}
	case "resource":
		w.resource(n)
		return value{}
	case "enhanced_for_statement":
		w.enhancedFor(n)
		return value{}
	case "lambda_expression":
		w.lambda(n)
		return value{}
	case "instanceof_expression":
		w.instanceOf(n)
		return value{typ: primitive("boolean")}
	case "type_pattern":
		w.typePattern(n)
		return value{}
	case "labeled_statement":
		for _, c := range namedChildren(n) {
			if c.Type() != "identifier" {
				w.walk(c)
			}
		}
		return value{}

	case "class_literal":
		for _, c := range namedChildren(n) {
			w.walk(c)
		}
		return value{typ: TypeBinding{Kind: Platform, Name: "java.lang.Class"}}
	case "cast_expression":
		t := w.walk(n.ChildByFieldName("type"))
		w.walk(n.ChildByFieldName("value"))
		return value{typ: t.typ}
	case "parenthesized_expression":
		var v value
		for _, c := range namedChildren(n) {
			v = w.walk(c)
		}
		return v
	case "ternary_expression":
		w.walk(n.ChildByFieldName("condition"))
		a := w.walk(n.ChildByFieldName("consequence"))
		b := w.walk(n.ChildByFieldName("alternative"))
		if a.typ.Name == "" {
			return value{typ: b.typ}
		}
		return value{typ: a.typ}
	case "binary_expression":
		return w.binary(n)
	case "unary_expression":
		v := w.walk(n.ChildByFieldName("operand"))
		if op := n.ChildByFieldName("operator"); op != nil && w.u.text(op) == "!" {
			return value{typ: primitive("boolean")}
		}
		return value{typ: v.typ}
	case "update_expression":
		var v value
		for _, c := range namedChildren(n) {
			v = w.walk(c)
		}
		return value{typ: v.typ}
	case "assignment_expression":
		w.walk(n.ChildByFieldName("right"))
		return value{typ: w.walk(n.ChildByFieldName("left")).typ}
	case "array_access":
		a := w.walk(n.ChildByFieldName("array"))
		w.walk(n.ChildByFieldName("index"))
		if a.typ.Dims > 0 {
			t := a.typ
			t.Dims--
			return value{typ: t}
		}
		return value{}
	case "array_creation_expression":
		t := w.walk(n.ChildByFieldName("type")).typ
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "dimensions_expr":
				t.Dims++
				w.walk(c)
			case "dimensions":
				t.Dims += dimsOf(w.u.text(c))
			case "array_initializer":
				w.walk(c)
			}
		}
		return value{typ: t}

	case "string_literal", "text_block":
		return value{typ: TypeBinding{Kind: Platform, Name: "java.lang.String"}}
	case "character_literal":
		return value{typ: primitive("char")}
	case "true", "false":
		return value{typ: primitive("boolean")}
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(strings.ToLower(w.u.text(n)), "l") {
			return value{typ: primitive("long")}
		}
		return value{typ: primitive("int")}
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		if strings.HasSuffix(strings.ToLower(w.u.text(n)), "f") {
			return value{typ: primitive("float")}
		}
		return value{typ: primitive("double")}
	}

	w.children(n)
	return value{}
}

func primitive(name string) TypeBinding {
	return TypeBinding{Kind: Primitive, Name: name}
}

func (w *walker) typeDecl(n *sitter.Node) {
	t := w.u.typeAt[keyOf(n)]
	if t == nil {
		w.children(n)
		return
	}
	saved := *w
	w.typ, w.ctx, w.stmt = t, t, Span{}
	w.children(n)
	*w = saved
}

// execDecl walks a method or constructor. Methods of anonymous classes were
// never declared and keep the enclosing context.
func (w *walker) execDecl(n *sitter.Node) {
	saved := *w
	if e := w.u.execAt[keyOf(n)]; e != nil {
		w.ctx = e
	}
	w.stmt = Span{}
	w.typeParams = append(slices.Clone(w.typeParams), w.u.typeParams(n.ChildByFieldName("type_parameters"))...)
	w.push()
	w.children(n)
	*w = saved
}

// typeUse binds a type node and records it, together with any type
// arguments it carries.
func (w *walker) typeUse(n *sitter.Node) TypeBinding {
	switch n.Type() {
	case "generic_type":
		var b TypeBinding
		for _, c := range namedChildren(n) {
			if c.Type() == "type_arguments" {
				for _, a := range namedChildren(c) {
					w.walk(a)
				}
				continue
			}
			b = w.typeUse(c)
		}
		return b
	case "array_type":
		b := w.typeUse(n.ChildByFieldName("element"))
		dims := n.ChildByFieldName("dimensions")
		b.Dims += dimsOf(w.u.text(dims))
		w.children(dims)
		return b
	case "annotated_type":
		var b TypeBinding
		for _, c := range namedChildren(n) {
			if isTypeNode(c.Type()) {
				b = w.typeUse(c)
			} else {
				w.walk(c)
			}
		}
		return b
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return primitive(w.u.text(n))
	}
	b := w.r.typeNode(n, w.scope())
	w.emitType(n, b)
	return b
}

// declaredType walks the type of a declaration. A var type is inferred
// from init, which is walked either way.
func (w *walker) declaredType(typeNode, init *sitter.Node) TypeBinding {
	if typeNode != nil && w.u.text(typeNode) == "var" {
		return w.walk(init).typ
	}
	b := w.walk(typeNode).typ
	w.walk(init)
	return b
}

func (w *walker) thisType() TypeBinding {
	if w.typ == nil {
		return TypeBinding{}
	}
	return sourceBinding(w.typ)
}

func (w *walker) superType() TypeBinding {
	if w.typ == nil {
		return TypeBinding{}
	}
	if w.typ.Superclass.Name != "" {
		return w.typ.Superclass
	}
	return TypeBinding{Kind: Platform, Name: "java.lang.Object"}
}

func (w *walker) identifier(n *sitter.Node) value {
	name := w.u.text(n)
	if b, ok := w.local(name); ok {
		return value{typ: b}
	}
	for t := w.typ; t != nil; t = t.Outer {
		if f := fieldOf(sourceBinding(t), name); f != nil {
			return value{typ: f.Type}
		}
	}
	if w.staticField(name) {
		return value{}
	}
	return w.typeName(n, name)
}

// typeName treats an identifier in expression position as a type name when
// it resolves to one or looks like one; otherwise it is a package prefix.
func (w *walker) typeName(n *sitter.Node, name string) value {
	b := w.r.simple(name, w.scope())
	switch {
	case b.Kind == Source || b.Kind == Binary:
	case b.Kind == Platform && (javaLang[name] || w.imported(name) || typeLike(name)):
	case b.Kind == Unresolved && (w.imported(name) || typeLike(name)):
	default:
		return value{pkg: name}
	}
	w.emitType(n, b)
	return value{typ: b, static: true}
}

func (w *walker) imported(name string) bool {
	for _, imp := range w.u.file.Imports {
		if !imp.Static && !imp.OnDemand && lastSegment(imp.Name) == name {
			return true
		}
	}
	return false
}

func (w *walker) staticField(name string) bool {
	for _, imp := range w.u.file.Imports {
		if imp.Static && !imp.OnDemand && lastSegment(imp.Name) == name {
			return true
		}
	}
	return false
}

// typeLike reports a capitalized name that is not a constant.
func typeLike(name string) bool {
	if name == "" || !unicode.IsUpper([]rune(name)[0]) {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLower) >= 0
}

func (w *walker) fieldAccess(n *sitter.Node) value {
	o := w.walk(n.ChildByFieldName("object"))
	name := w.u.text(n.ChildByFieldName("field"))

	if o.pkg != "" {
		full := o.pkg + "." + name
		if b, ok := w.r.qualified(full); ok {
			w.emitType(n, b)
			return value{typ: b, static: true}
		}
		if typeLike(name) {
			b := TypeBinding{Kind: Unresolved, Name: full}
			if w.r.b.isPlatform(full) {
				b.Kind = Platform
			}
			w.emitType(n, b)
			return value{typ: b, static: true}
		}
		return value{pkg: full}
	}

	if o.static {
		switch o.typ.Kind {
		case Source:
			if t := w.r.member(o.typ.Decl, name, true); t != nil {
				b := sourceBinding(t)
				w.emitType(n, b)
				return value{typ: b, static: true}
			}
		case Binary, Platform:
			if e, ok := w.r.m.Classes.Lookup(o.typ.Name + "." + name); ok {
				b := TypeBinding{Kind: Binary, Name: e.Name, Class: &e}
				w.emitType(n, b)
				return value{typ: b, static: true}
			}
		}
	}
	if f := fieldOf(o.typ, name); f != nil {
		return value{typ: f.Type}
	}
	if name == "length" && o.typ.Dims > 0 {
		return value{typ: primitive("int")}
	}
	return value{}
}

// fieldOf finds a field on a source type or its source supertypes.
func fieldOf(b TypeBinding, name string) *Field {
	if b.Kind != Source || b.Dims > 0 {
		return nil
	}
	var found *Field
	eachSupertype(b.Decl, func(t *Type) bool {
		for _, f := range t.Fields {
			if f.Name == name {
				found = f
				return false
			}
		}
		return true
	})
	return found
}

// eachSupertype visits t and its source supertypes breadth first until fn
// returns false.
func eachSupertype(t *Type, fn func(*Type) bool) {
	seen := map[*Type]bool{}
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		if !fn(cur) {
			return
		}
		for _, s := range cur.Supertypes {
			if s.Kind == Source {
				queue = append(queue, s.Decl)
			}
		}
	}
}

func (w *walker) arguments(n *sitter.Node) []TypeBinding {
	args := []TypeBinding{}
	for _, c := range namedChildren(n) {
		if c.Type() == "line_comment" || c.Type() == "block_comment" {
			continue
		}
		args = append(args, w.walk(c).typ)
	}
	return args
}

func (w *walker) invocation(n *sitter.Node) value {
	obj := n.ChildByFieldName("object")
	var recv value
	if obj != nil {
		recv = w.walk(obj)
	}
	w.walk(n.ChildByFieldName("type_arguments"))
	name := w.u.text(n.ChildByFieldName("name"))
	args := w.arguments(n.ChildByFieldName("arguments"))

	eb := w.bindMethod(recv, obj != nil, name, args)
	w.emitExec(n, eb)
	if eb.Decl != nil && eb.Decl.Return.Kind != TypeParameter {
		return value{typ: eb.Decl.Return}
	}
	return value{}
}

// bindMethod finds the method an invocation calls. Unqualified calls look
// through the enclosing types, then static imports.
func (w *walker) bindMethod(recv value, qualified bool, name string, args []TypeBinding) *ExecBinding {
	eb := &ExecBinding{Name: name, Args: args}

	if qualified {
		eb.Declaring = recv.typ
		if recv.typ.Kind == Source && recv.typ.Dims == 0 {
			if e := findMethod(recv.typ.Decl, name, args); e != nil {
				eb.Decl = e
				eb.Declaring = sourceBinding(e.Declaring)
			}
		}
		return eb
	}

	for t := w.typ; t != nil; t = t.Outer {
		if e := findMethod(t, name, args); e != nil {
			eb.Decl = e
			eb.Declaring = sourceBinding(e.Declaring)
			return eb
		}
	}

	for _, imp := range w.u.file.Imports {
		if !imp.Static {
			continue
		}
		owner := imp.Name
		if !imp.OnDemand {
			if lastSegment(imp.Name) != name {
				continue
			}
			owner = imp.Name[:max(0, strings.LastIndex(imp.Name, "."))]
		}
		ob := w.r.name(owner, w.scope())
		if ob.Kind == Source {
			if e := findMethod(ob.Decl, name, args); e != nil {
				eb.Decl = e
				eb.Declaring = sourceBinding(e.Declaring)
				return eb
			}
			continue
		}
		if !imp.OnDemand {
			eb.Declaring = ob
			return eb
		}
	}

	// inherited from a compiled superclass
	if w.typ != nil && w.typ.Superclass.Kind != Source && w.typ.Superclass.Name != "" {
		eb.Declaring = w.typ.Superclass
	}
	return eb
}

func findMethod(t *Type, name string, args []TypeBinding) *Executable {
	var found *Executable
	eachSupertype(t, func(cur *Type) bool {
		found = bestExec(cur.Executables, name, false, args)
		return found == nil
	})
	return found
}

// bestExec picks the overload whose parameters fit the argument types
// best. Unknown argument types fit anything.
func bestExec(cands []*Executable, name string, ctor bool, args []TypeBinding) *Executable {
	var best *Executable
	bestScore := -1
	for _, e := range cands {
		if e.Constructor != ctor || (!ctor && e.Name != name) {
			continue
		}
		if score, ok := matchArgs(e, args); ok && score > bestScore {
			best, bestScore = e, score
		}
	}
	return best
}

func matchArgs(e *Executable, args []TypeBinding) (int, bool) {
	n := len(e.Params)
	score := 0
	switch {
	case len(args) == n:
		score++
	case e.Varargs() && len(args) >= n-1:
	default:
		return 0, false
	}
	for i, a := range args {
		pi := min(i, n-1)
		p := e.Params[pi].Type
		if e.Params[pi].Varargs && p.Dims > a.Dims {
			p.Dims--
		}
		score += argScore(a, p)
	}
	return score, true
}

func argScore(a, p TypeBinding) int {
	switch {
	case a.Name == "" || p.Name == "" || p.Kind == TypeParameter:
		return 1
	case a.Dims != p.Dims:
		return 0
	case a.Name == p.Name:
		return 3
	case assignable(a, p):
		return 2
	}
	return 0
}

var boxes = map[string]string{
	"boolean": "java.lang.Boolean", "byte": "java.lang.Byte", "char": "java.lang.Character",
	"short": "java.lang.Short", "int": "java.lang.Integer", "long": "java.lang.Long",
	"float": "java.lang.Float", "double": "java.lang.Double",
}

var widening = map[string][]string{
	"byte":  {"short", "int", "long", "float", "double"},
	"short": {"int", "long", "float", "double"},
	"char":  {"int", "long", "float", "double"},
	"int":   {"long", "float", "double"},
	"long":  {"float", "double"},
	"float": {"double"},
}

func assignable(a, p TypeBinding) bool {
	if p.Name == "java.lang.Object" && a.Kind != Primitive {
		return true
	}
	if boxes[a.Name] == p.Name || boxes[p.Name] == a.Name {
		return true
	}
	if slices.Contains(widening[a.Name], p.Name) {
		return true
	}
	if a.Kind == Source && p.Kind == Source {
		sub := false
		eachSupertype(a.Decl, func(t *Type) bool {
			sub = t == p.Decl
			return !sub
		})
		return sub
	}
	return a.Kind != p.Kind && lastSegment(a.Name) == lastSegment(p.Name)
}

func (w *walker) creation(n *sitter.Node) value {
	w.walk(n.ChildByFieldName("object"))
	w.walk(n.ChildByFieldName("type_arguments"))
	tb := w.walk(n.ChildByFieldName("type")).typ
	args := w.arguments(n.ChildByFieldName("arguments"))

	var body *sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "class_body" {
			body = c
		}
	}

	switch {
	case tb.Kind == Source:
		// implicit constructors have nothing to point at
		if c := bestExec(tb.Decl.Executables, "", true, args); c != nil {
			w.emitExec(n, &ExecBinding{Decl: c, Declaring: tb, Name: c.Name, Constructor: true, Args: args})
		}
	case tb.Name != "" && body == nil:
		w.emitExec(n, &ExecBinding{Declaring: tb, Name: lastSegment(tb.Name), Constructor: true, Args: args})
	}

	if body != nil {
		w.anonymousBody(body)
	}
	return value{typ: tb}
}

// anonymousBody walks a class body that declares nothing addressable; its
// references belong to the enclosing context.
func (w *walker) anonymousBody(body *sitter.Node) {
	saved := *w
	w.push()
	w.children(body)
	*w = saved
}

func (w *walker) constructorCall(n *sitter.Node) {
	w.walk(n.ChildByFieldName("object"))
	ctor := n.ChildByFieldName("constructor")
	args := w.arguments(n.ChildByFieldName("arguments"))

	tb := w.thisType()
	if ctor != nil && ctor.Type() == "super" {
		tb = w.superType()
	}
	w.bindConstructor(n, tb, args)
}

func (w *walker) bindConstructor(n *sitter.Node, tb TypeBinding, args []TypeBinding) {
	if tb.Name == "" {
		return
	}
	if tb.Kind == Source {
		if c := bestExec(tb.Decl.Executables, "", true, args); c != nil {
			w.emitExec(n, &ExecBinding{Decl: c, Declaring: tb, Name: c.Name, Constructor: true, Args: args})
		}
		return
	}
	w.emitExec(n, &ExecBinding{Declaring: tb, Name: lastSegment(tb.Name), Constructor: true, Args: args})
}

func (w *walker) enumConstant(n *sitter.Node) {
	for _, c := range namedChildren(n) {
		if c.Type() == "modifiers" {
			w.walk(c)
		}
	}
	if args := n.ChildByFieldName("arguments"); args != nil && w.typ != nil {
		w.bindConstructor(n, sourceBinding(w.typ), w.arguments(args))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.anonymousBody(body)
	}
}

// methodReference binds Type::method and Type::new. Argument types are not
// known at the reference, so a source type's sole or first-declared
// candidate is taken.
func (w *walker) methodReference(n *sitter.Node) {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return
	}
	recv := w.walk(kids[0])
	name := "new"
	for _, c := range kids[1:] {
		switch c.Type() {
		case "identifier":
			name = w.u.text(c)
		case "type_arguments":
			w.walk(c)
		}
	}

	tb := recv.typ
	if tb.Name == "" {
		return
	}
	eb := &ExecBinding{Declaring: tb, Name: name}
	if name == "new" {
		eb.Constructor = true
		eb.Name = lastSegment(tb.Name)
	}
	if tb.Kind == Source && tb.Dims == 0 {
		eachSupertype(tb.Decl, func(t *Type) bool {
			for _, e := range t.Executables {
				if e.Constructor == eb.Constructor && (eb.Constructor || e.Name == name) {
					eb.Decl = e
					eb.Declaring = sourceBinding(e.Declaring)
					return false
				}
			}
			return !eb.Constructor
		})
		if eb.Constructor && eb.Decl == nil {
			return
		}
	}
	w.emitExec(n, eb)
}

func (w *walker) annotation(n *sitter.Node) {
	if name := n.ChildByFieldName("name"); name != nil {
		w.emitType(name, w.r.name(w.u.text(name), w.scope()))
	}
	w.children(n)
}

func (w *walker) variables(n *sitter.Node, local bool) {
	typeNode := n.ChildByFieldName("type")
	inferred := typeNode != nil && w.u.text(typeNode) == "var"
	var declared TypeBinding
	for _, c := range namedChildren(n) {
		switch {
		case typeNode != nil && keyOf(c) == keyOf(typeNode):
			if !inferred {
				declared = w.walk(c).typ
			}
		case c.Type() == "variable_declarator":
			init := w.walk(c.ChildByFieldName("value"))
			b := declared
			if inferred {
				b = init.typ
			}
			b.Dims += dimsOf(w.u.text(c.ChildByFieldName("dimensions")))
			if local {
				w.declare(w.u.text(c.ChildByFieldName("name")), b)
			}
		default:
			w.walk(c)
		}
	}
}

func (w *walker) parameter(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	var b TypeBinding
	typed := false
	name := w.u.text(nameNode)
	for _, c := range namedChildren(n) {
		switch {
		case nameNode != nil && keyOf(c) == keyOf(nameNode):
		case !typed && isTypeNode(c.Type()):
			b, typed = w.walk(c).typ, true
		case c.Type() == "catch_type":
			for _, t := range namedChildren(c) {
				v := w.walk(t)
				if !typed {
					b, typed = v.typ, true
				}
			}
		case c.Type() == "variable_declarator":
			name = w.u.text(c.ChildByFieldName("name"))
			b.Dims++
		case c.Type() == "dimensions":
			b.Dims += dimsOf(w.u.text(c))
		default:
			w.walk(c)
		}
	}
	w.declare(name, b)
}

func (w *walker) resource(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		w.children(n)
		return
	}
	for _, c := range namedChildren(n) {
		if c.Type() == "modifiers" {
			w.walk(c)
		}
	}
	b := w.declaredType(typeNode, n.ChildByFieldName("value"))
	w.declare(w.u.text(n.ChildByFieldName("name")), b)
}

func (w *walker) enhancedFor(n *sitter.Node) {
	w.push()
	defer w.pop()
	for _, c := range namedChildren(n) {
		if c.Type() == "modifiers" {
			w.walk(c)
		}
	}
	typeNode := n.ChildByFieldName("type")
	iter := w.walk(n.ChildByFieldName("value")).typ
	var b TypeBinding
	if w.u.text(typeNode) == "var" {
		if iter.Dims > 0 {
			b = iter
			b.Dims--
		}
	} else {
		b = w.walk(typeNode).typ
	}
	b.Dims += dimsOf(w.u.text(n.ChildByFieldName("dimensions")))
	w.declare(w.u.text(n.ChildByFieldName("name")), b)
	w.walk(n.ChildByFieldName("body"))
}

func (w *walker) lambda(n *sitter.Node) {
	w.push()
	defer w.pop()
	params := n.ChildByFieldName("parameters")
	switch {
	case params == nil:
	case params.Type() == "identifier":
		w.declare(w.u.text(params), TypeBinding{})
	case params.Type() == "inferred_parameters":
		for _, c := range namedChildren(params) {
			w.declare(w.u.text(c), TypeBinding{})
		}
	default:
		w.walk(params)
	}
	w.walk(n.ChildByFieldName("body"))
}

func (w *walker) instanceOf(n *sitter.Node) {
	w.walk(n.ChildByFieldName("left"))
	t := w.walk(n.ChildByFieldName("right"))
	if name := n.ChildByFieldName("name"); name != nil {
		w.declare(w.u.text(name), t.typ)
	}
	w.walk(n.ChildByFieldName("pattern"))
}

func (w *walker) typePattern(n *sitter.Node) {
	var b TypeBinding
	for _, c := range namedChildren(n) {
		switch {
		case isTypeNode(c.Type()):
			b = w.walk(c).typ
		case c.Type() == "identifier":
			w.declare(w.u.text(c), b)
		default:
			w.walk(c)
		}
	}
}

func (w *walker) binary(n *sitter.Node) value {
	l := w.walk(n.ChildByFieldName("left")).typ
	r := w.walk(n.ChildByFieldName("right")).typ
	switch w.u.text(n.ChildByFieldName("operator")) {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return value{typ: primitive("boolean")}
	case "+":
		if l.Name == "java.lang.String" || r.Name == "java.lang.String" {
			return value{typ: TypeBinding{Kind: Platform, Name: "java.lang.String"}}
		}
	}
	for _, wide := range []string{"double", "float", "long"} {
		if l.Name == wide || r.Name == wide {
			return value{typ: primitive(wide)}
		}
	}
	if l.Kind == Primitive {
		return value{typ: l}
	}
	return value{typ: r}
}
