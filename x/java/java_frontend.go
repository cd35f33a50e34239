package java

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
	"github.com/CodMac/arch-depends/parser"
)

// FrontEndVersion 参与缓存键，事件语义变化时递增
const FrontEndVersion = "java-ts0.23-3"

// FrontEnd 基于 tree-sitter 的 Java 前端
type FrontEnd struct{}

func NewJavaFrontEnd() *FrontEnd {
	return &FrontEnd{}
}

func (f *FrontEnd) Language() core.Language { return core.LangJava }

func (f *FrontEnd) Version() string { return FrontEndVersion }

func (f *FrontEnd) Extensions() []string { return []string{".java"} }

// Parse 解析单个文件并按源码顺序发出事件。语法错误不会中断遍历，
// 事件全部发出后返回 PARSE_FAILURE，由调用方决定是否保留部分结果。
func (f *FrontEnd) Parse(ctx context.Context, path string, src []byte, l core.Listener) error {
	p, err := parser.NewParser(core.LangJava)
	if err != nil {
		return err
	}
	defer p.Close()

	tree, err := p.Parse(ctx, src)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &walker{src: src, path: path, l: l}

	l.StartFile(path)
	if err := w.header(root); err != nil {
		return err
	}
	w.program(root)
	l.EndFile()

	if root.HasError() {
		return core.NewAnalysisError(core.ParseFailure, "syntax errors in "+path, w.loc(root), nil)
	}
	return nil
}

// walker 一次遍历的状态
type walker struct {
	src   []byte
	path  string
	l     core.Listener
	types []typeFrame
}

// typeFrame 构造器调用 this(...)/super(...) 需要知道当前类和父类的名字
type typeFrame struct {
	name  string
	super string
}

// ==========================================
// 1. 文件头 (Header)
// ==========================================

func (w *walker) header(root *sitter.Node) error {
	tsLang, err := parser.GetLanguage(core.LangJava)
	if err != nil {
		return err
	}
	q, qerr := sitter.NewQuery(tsLang, JavaHeaderQuery)
	if qerr != nil {
		return fmt.Errorf("query init error: %w", qerr)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(q, root, w.src)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			node := c.Node
			switch node.Kind() {
			case "package_declaration":
				w.handlePackage(&node)
			case "import_declaration":
				w.handleImport(&node)
			}
		}
	}
	return nil
}

func (w *walker) handlePackage(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "scoped_identifier" || child.Kind() == "identifier" {
			w.l.OnPackage(w.text(child), w.loc(node))
			return
		}
	}
}

func (w *walker) handleImport(node *sitter.Node) {
	isStatic := false
	var pathParts []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "static":
			isStatic = true
		case "scoped_identifier", "identifier", "asterisk":
			pathParts = append(pathParts, w.text(child))
		}
	}
	if len(pathParts) == 0 {
		return
	}
	fullPath := strings.Join(pathParts, ".")
	entry := model.ImportEntry{
		Path:       fullPath,
		IsWildcard: strings.HasSuffix(fullPath, ".*"),
		IsStatic:   isStatic,
		Location:   w.loc(node),
	}
	if !entry.IsWildcard {
		entry.Alias = fullPath[strings.LastIndex(fullPath, ".")+1:]
	}
	w.l.OnImport(entry)
}

// ==========================================
// 2. 声明 (Declarations)
// ==========================================

func (w *walker) program(root *sitter.Node) {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case "package_declaration", "import_declaration":
		default:
			w.walk(child)
		}
	}
}

var typeFlavors = map[string]model.TypeFlavor{
	"class_declaration":           model.Class,
	"interface_declaration":       model.Interface,
	"enum_declaration":            model.Enum,
	"record_declaration":          model.Record,
	"annotation_type_declaration": model.AnnotationType,
}

func (w *walker) typeDecl(node *sitter.Node) {
	mods, annos := w.modifiers(node)
	decl := core.TypeDecl{
		Name:       w.text(node.ChildByFieldName("name")),
		Flavor:     typeFlavors[node.Kind()],
		Modifiers:  mods,
		TypeParams: w.typeParams(node.ChildByFieldName("type_parameters")),
		Location:   w.loc(node),
	}

	if super := node.ChildByFieldName("superclass"); super != nil {
		for _, t := range w.typeList(super) {
			decl.Supers = append(decl.Supers, core.SuperRef{Type: t, Kind: model.Extend})
		}
	}
	ifaceKind := model.Implement
	if node.Kind() == "interface_declaration" {
		ifaceKind = model.Extend
	}
	for _, n := range w.interfaceNodes(node) {
		for _, t := range w.typeList(n) {
			decl.Supers = append(decl.Supers, core.SuperRef{Type: t, Kind: ifaceKind})
		}
	}

	w.l.EnterType(decl)
	w.pushType(decl)
	defer w.popType()
	w.annotations(annos)
	if params := node.ChildByFieldName("parameters"); params != nil && node.Kind() == "record_declaration" {
		for _, p := range w.params(params) {
			t := p.Type
			w.l.OnField(core.VarDecl{Name: p.Name, Type: &t, Modifiers: []string{"private", "final"}, Location: p.Location})
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		w.body(body, decl.Name)
	}
	w.l.ExitType()
}

func (w *walker) pushType(decl core.TypeDecl) {
	f := typeFrame{name: decl.Name}
	for _, s := range decl.Supers {
		if s.Kind == model.Extend && decl.Flavor != model.Interface {
			f.super = simpleName(s.Type.Name)
			break
		}
	}
	w.types = append(w.types, f)
}

func (w *walker) popType() {
	if len(w.types) > 0 {
		w.types = w.types[:len(w.types)-1]
	}
}

func (w *walker) interfaceNodes(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	if n := node.ChildByFieldName("interfaces"); n != nil {
		out = append(out, n)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "extends_interfaces" {
			out = append(out, child)
		}
	}
	return out
}

// body 类/接口/枚举体，enumName 用于枚举常量的类型
func (w *walker) body(body *sitter.Node, enumName string) {
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		switch child.Kind() {
		case "field_declaration", "constant_declaration":
			w.field(child)
		case "method_declaration", "constructor_declaration", "compact_constructor_declaration",
			"annotation_type_element_declaration":
			w.method(child)
		case "enum_constant":
			w.enumConstant(child, enumName)
		case "enum_body_declarations":
			w.body(child, enumName)
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration",
			"annotation_type_declaration":
			w.typeDecl(child)
		default:
			// 初始化块等，归属当前类型
			w.walk(child)
		}
	}
}

func (w *walker) field(node *sitter.Node) {
	mods, annos := w.modifiers(node)
	t := w.typeRef(node.ChildByFieldName("type"))
	for i := uint(0); i < node.NamedChildCount(); i++ {
		d := node.NamedChild(i)
		if d.Kind() != "variable_declarator" {
			continue
		}
		ft := t
		ft.Dims += w.dims(d)
		w.l.OnField(core.VarDecl{
			Name:      w.text(d.ChildByFieldName("name")),
			Type:      &ft,
			Modifiers: mods,
			Location:  w.loc(d),
		})
		if v := d.ChildByFieldName("value"); v != nil {
			w.walk(v)
		}
	}
	w.annotations(annos)
}

func (w *walker) enumConstant(node *sitter.Node, enumName string) {
	w.l.OnField(core.VarDecl{
		Name:      w.text(node.ChildByFieldName("name")),
		Type:      &core.TypeRef{Name: enumName, Location: w.loc(node)},
		Modifiers: []string{"public", "static", "final"},
		Location:  w.loc(node),
	})
	if args := node.ChildByFieldName("arguments"); args != nil {
		w.walk(args)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		decl := core.TypeDecl{
			Flavor:   model.Class,
			Supers:   []core.SuperRef{{Type: core.TypeRef{Name: enumName, Location: w.loc(node)}, Kind: model.Extend}},
			Location: w.loc(body),
		}
		w.l.EnterType(decl)
		w.pushType(decl)
		w.body(body, enumName)
		w.popType()
		w.l.ExitType()
	}
}

func (w *walker) method(node *sitter.Node) {
	mods, annos := w.modifiers(node)
	decl := core.MethodDecl{
		Name:          w.text(node.ChildByFieldName("name")),
		Modifiers:     mods,
		IsConstructor: node.Kind() == "constructor_declaration" || node.Kind() == "compact_constructor_declaration",
		TypeParams:    w.typeParams(node.ChildByFieldName("type_parameters")),
		Location:      w.loc(node),
	}
	if t := node.ChildByFieldName("type"); t != nil && t.Kind() != "void_type" {
		ref := w.typeRef(t)
		ref.Dims += w.dims(node)
		decl.Return = &ref
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		decl.Params = w.params(params)
		decl.VarArgs = w.hasSpread(params)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "throws" {
			decl.Throws = w.typeList(child)
		}
	}

	w.l.EnterMethod(decl)
	w.annotations(annos)
	if body := node.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	if v := node.ChildByFieldName("value"); v != nil {
		w.walk(v)
	}
	w.l.ExitMethod()
}

func (w *walker) params(node *sitter.Node) []core.ParamDecl {
	var out []core.ParamDecl
	for i := uint(0); i < node.NamedChildCount(); i++ {
		p := node.NamedChild(i)
		switch p.Kind() {
		case "formal_parameter":
			t := w.typeRef(p.ChildByFieldName("type"))
			t.Dims += w.dims(p)
			out = append(out, core.ParamDecl{Name: w.text(p.ChildByFieldName("name")), Type: t, Location: w.loc(p)})
		case "spread_parameter":
			var t core.TypeRef
			name := ""
			for j := uint(0); j < p.NamedChildCount(); j++ {
				c := p.NamedChild(j)
				switch {
				case c.Kind() == "variable_declarator":
					name = w.text(c.ChildByFieldName("name"))
				case c.Kind() != "modifiers" && t.Name == "":
					t = w.typeRef(c)
				}
			}
			out = append(out, core.ParamDecl{Name: name, Type: t, Location: w.loc(p)})
		}
	}
	return out
}

func (w *walker) hasSpread(node *sitter.Node) bool {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.NamedChild(i).Kind() == "spread_parameter" {
			return true
		}
	}
	return false
}

func (w *walker) typeParams(node *sitter.Node) []model.TypeParam {
	if node == nil {
		return nil
	}
	var out []model.TypeParam
	for i := uint(0); i < node.NamedChildCount(); i++ {
		tp := node.NamedChild(i)
		if tp.Kind() != "type_parameter" {
			continue
		}
		var param model.TypeParam
		for j := uint(0); j < tp.NamedChildCount(); j++ {
			c := tp.NamedChild(j)
			switch c.Kind() {
			case "type_identifier", "identifier":
				if param.Name == "" {
					param.Name = w.text(c)
				}
			case "type_bound":
				if c.NamedChildCount() > 0 {
					param.Bound = w.typeRef(c.NamedChild(0)).Name
				}
			}
		}
		out = append(out, param)
	}
	return out
}

// modifiers 返回修饰符文本和注解节点
func (w *walker) modifiers(node *sitter.Node) ([]string, []*sitter.Node) {
	var mods []string
	var annos []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		m := node.NamedChild(i)
		if m.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < m.ChildCount(); j++ {
			c := m.Child(j)
			if strings.Contains(c.Kind(), "annotation") {
				annos = append(annos, c)
			} else if txt := w.text(c); txt != "" {
				mods = append(mods, txt)
			}
		}
	}
	return mods, annos
}

func (w *walker) annotations(annos []*sitter.Node) {
	for _, a := range annos {
		if name := a.ChildByFieldName("name"); name != nil {
			w.l.OnAnnotation(w.text(name), w.loc(a))
		}
		if args := a.ChildByFieldName("arguments"); args != nil {
			w.walk(args)
		}
	}
}

// ==========================================
// 3. 类型 (Types)
// ==========================================

// typeRef 结构化类型：去掉数组维度和注解，泛型实参单独列出
func (w *walker) typeRef(node *sitter.Node) core.TypeRef {
	if node == nil {
		return core.TypeRef{}
	}
	switch node.Kind() {
	case "generic_type":
		var ref core.TypeRef
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c := node.NamedChild(i)
			if c.Kind() == "type_arguments" {
				for j := uint(0); j < c.NamedChildCount(); j++ {
					if arg := w.typeRef(c.NamedChild(j)); arg.Name != "" {
						ref.Args = append(ref.Args, arg)
					}
				}
			} else if ref.Name == "" {
				ref.Name = w.typeRef(c).Name
			}
		}
		ref.Location = w.loc(node)
		return ref
	case "array_type":
		ref := w.typeRef(node.ChildByFieldName("element"))
		ref.Dims += w.dims(node)
		return ref
	case "annotated_type":
		if n := node.NamedChildCount(); n > 0 {
			return w.typeRef(node.NamedChild(n - 1))
		}
	case "wildcard":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if c := node.NamedChild(i); !strings.Contains(c.Kind(), "annotation") {
				return w.typeRef(c)
			}
		}
		return core.TypeRef{}
	}
	return core.TypeRef{Name: stripGenerics(w.text(node)), Location: w.loc(node)}
}

func (w *walker) typeList(node *sitter.Node) []core.TypeRef {
	var out []core.TypeRef
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c.Kind() == "type_list" {
			out = append(out, w.typeList(c)...)
			continue
		}
		if t := w.typeRef(c); t.Name != "" {
			out = append(out, t)
		}
	}
	return out
}

// dims 节点上的 dimensions 子节点中 [] 的个数
func (w *walker) dims(node *sitter.Node) int {
	n := 0
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c.Kind() == "dimensions" {
			n += strings.Count(w.text(c), "[")
		}
	}
	return n
}

func simpleName(s string) string {
	return s[strings.LastIndex(s, ".")+1:]
}

func stripGenerics(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0 && r != ' ' && r != '\n' && r != '\t':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ==========================================
// 4. 语句与表达式 (Statements & Expressions)
// ==========================================

// walk 按源码顺序遍历语句和表达式，声明类节点转交给对应处理函数
func (w *walker) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration",
		"annotation_type_declaration":
		w.typeDecl(node)
		return
	case "local_variable_declaration":
		w.localVars(node)
		return
	case "lambda_expression":
		w.lambda(node)
		return
	case "catch_clause":
		w.catchClause(node)
		return
	case "enhanced_for_statement":
		w.enhancedFor(node)
		return
	case "resource":
		w.resource(node)
		return
	case "method_invocation":
		w.call(node)
		return
	case "method_reference":
		w.methodRef(node)
		return
	case "explicit_constructor_invocation":
		w.explicitCtor(node)
		return
	case "object_creation_expression":
		w.create(node)
		return
	case "array_creation_expression":
		w.l.OnTypeReference(model.UseType, w.typeRef(node.ChildByFieldName("type")))
		w.walkChildren(node, "type")
		return
	case "field_access":
		w.fieldAccess(node, false)
		return
	case "identifier":
		w.l.OnFieldAccess(core.AccessExpr{Name: w.text(node), Location: w.loc(node)})
		return
	case "assignment_expression":
		w.assign(node)
		return
	case "cast_expression":
		w.l.OnCast(w.typeRef(node.ChildByFieldName("type")))
		w.walk(node.ChildByFieldName("value"))
		return
	case "instanceof_expression":
		w.walk(node.ChildByFieldName("left"))
		t := w.typeRef(node.ChildByFieldName("right"))
		if name := node.ChildByFieldName("name"); name != nil {
			w.l.OnVariable(core.VarDecl{Name: w.text(name), Type: &t, Location: w.loc(name)})
		} else {
			w.l.OnTypeReference(model.UseType, t)
		}
		if pattern := node.ChildByFieldName("pattern"); pattern != nil {
			w.walk(pattern)
		}
		return
	case "class_literal":
		if node.NamedChildCount() > 0 {
			w.l.OnTypeReference(model.UseType, w.typeRef(node.NamedChild(0)))
		}
		return
	case "marker_annotation", "annotation":
		w.annotations([]*sitter.Node{node})
		return
	case "element_value_pair":
		w.walk(node.ChildByFieldName("value"))
		return
	case "type_pattern":
		// case User u ->
		if node.NamedChildCount() >= 2 {
			t := w.typeRef(node.NamedChild(0))
			name := node.NamedChild(node.NamedChildCount() - 1)
			w.l.OnVariable(core.VarDecl{Name: w.text(name), Type: &t, Location: w.loc(name)})
		}
		return
	case "throw_statement":
		if node.NamedChildCount() > 0 {
			if ex := node.NamedChild(0); ex.Kind() == "object_creation_expression" {
				w.l.OnThrow(w.typeRef(ex.ChildByFieldName("type")))
			}
		}
		w.walkChildren(node)
		return
	case "labeled_statement":
		// 标签名不是变量
		for i := uint(1); i < node.NamedChildCount(); i++ {
			w.walk(node.NamedChild(i))
		}
		return
	case "break_statement", "continue_statement", "module_declaration", "scoped_identifier",
		"type_identifier", "scoped_type_identifier", "generic_type", "type_arguments",
		"line_comment", "block_comment", "modifiers":
		return
	}
	w.walkChildren(node)
}

// walkChildren 遍历命名子节点，跳过指定字段
func (w *walker) walkChildren(node *sitter.Node, skipFields ...string) {
	var skip []*sitter.Node
	for _, f := range skipFields {
		if c := node.ChildByFieldName(f); c != nil {
			skip = append(skip, c)
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if !containsNode(skip, c) {
			w.walk(c)
		}
	}
}

func (w *walker) localVars(node *sitter.Node) {
	mods, annos := w.modifiers(node)
	w.annotations(annos)
	typeNode := node.ChildByFieldName("type")
	var t *core.TypeRef
	if typeNode != nil && w.text(typeNode) != "var" {
		ref := w.typeRef(typeNode)
		t = &ref
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		d := node.NamedChild(i)
		if d.Kind() != "variable_declarator" {
			continue
		}
		// 初始化表达式先于变量本身求值
		if v := d.ChildByFieldName("value"); v != nil {
			w.walk(v)
		}
		var vt *core.TypeRef
		if t != nil {
			ref := *t
			ref.Dims += w.dims(d)
			vt = &ref
		}
		w.l.OnVariable(core.VarDecl{Name: w.text(d.ChildByFieldName("name")), Type: vt, Modifiers: mods, Location: w.loc(d)})
	}
}

func (w *walker) lambda(node *sitter.Node) {
	params := node.ChildByFieldName("parameters")
	if params != nil {
		switch params.Kind() {
		case "identifier":
			w.l.OnParameter(core.ParamDecl{Name: w.text(params), Location: w.loc(params)})
		case "inferred_parameters":
			for i := uint(0); i < params.NamedChildCount(); i++ {
				p := params.NamedChild(i)
				w.l.OnParameter(core.ParamDecl{Name: w.text(p), Location: w.loc(p)})
			}
		case "formal_parameters":
			for _, p := range w.params(params) {
				w.l.OnParameter(p)
			}
		}
	}
	w.walk(node.ChildByFieldName("body"))
}

func (w *walker) catchClause(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c.Kind() != "catch_formal_parameter" {
			w.walk(c)
			continue
		}
		var types []core.TypeRef
		name := ""
		for j := uint(0); j < c.NamedChildCount(); j++ {
			cc := c.NamedChild(j)
			switch cc.Kind() {
			case "catch_type":
				types = w.typeList(cc)
			case "identifier":
				name = w.text(cc)
			}
		}
		if n := c.ChildByFieldName("name"); n != nil {
			name = w.text(n)
		}
		if len(types) == 0 {
			continue
		}
		w.l.OnParameter(core.ParamDecl{Name: name, Type: types[0], Location: w.loc(c)})
		for _, t := range types[1:] {
			w.l.OnTypeReference(model.UseType, t)
		}
	}
}

func (w *walker) enhancedFor(node *sitter.Node) {
	w.walk(node.ChildByFieldName("value"))
	var t *core.TypeRef
	if tn := node.ChildByFieldName("type"); tn != nil && w.text(tn) != "var" {
		ref := w.typeRef(tn)
		t = &ref
	}
	if name := node.ChildByFieldName("name"); name != nil {
		w.l.OnVariable(core.VarDecl{Name: w.text(name), Type: t, Location: w.loc(name)})
	}
	w.walk(node.ChildByFieldName("body"))
}

func (w *walker) resource(node *sitter.Node) {
	name := node.ChildByFieldName("name")
	if name == nil {
		w.walkChildren(node)
		return
	}
	w.walk(node.ChildByFieldName("value"))
	var t *core.TypeRef
	if tn := node.ChildByFieldName("type"); tn != nil && w.text(tn) != "var" {
		ref := w.typeRef(tn)
		t = &ref
	}
	w.l.OnVariable(core.VarDecl{Name: w.text(name), Type: t, Location: w.loc(name)})
}

func (w *walker) call(node *sitter.Node) {
	obj := node.ChildByFieldName("object")
	args := node.ChildByFieldName("arguments")
	var recv []model.Segment
	if obj != nil {
		w.walkReceiver(obj)
		recv = w.segments(obj)
	}
	w.walk(args)
	w.l.OnCall(core.CallExpr{
		Name:     w.text(node.ChildByFieldName("name")),
		Receiver: recv,
		Arity:    arity(args),
		Location: w.loc(node),
	})
}

// methodRef Foo::bar / obj::bar / Foo::new，参数个数未知
func (w *walker) methodRef(node *sitter.Node) {
	if node.NamedChildCount() == 0 || node.ChildCount() < 3 {
		return
	}
	recvNode := node.NamedChild(0)
	if recvNode.Kind() != "identifier" && recvNode.Kind() != "field_access" && recvNode.Kind() != "this" && recvNode.Kind() != "super" {
		w.walkReceiver(recvNode)
	}
	name := w.text(node.Child(node.ChildCount() - 1))
	recv := w.segments(recvNode)
	if len(recv) == 0 {
		recv = []model.Segment{{Name: stripGenerics(w.text(recvNode)), Kind: model.SegName}}
	}
	if name == "new" {
		w.l.OnCreate(core.TypeRef{Name: stripGenerics(w.text(recvNode)), Location: w.loc(node)}, -1)
		return
	}
	w.l.OnCall(core.CallExpr{Name: name, Receiver: recv, Arity: -1, Location: w.loc(node)})
}

// explicitCtor this(...) / super(...)
func (w *walker) explicitCtor(node *sitter.Node) {
	args := node.ChildByFieldName("arguments")
	w.walk(args)
	ctor := node.ChildByFieldName("constructor")
	if ctor == nil || len(w.types) == 0 {
		return
	}
	// 构造器与类同名
	current := w.types[len(w.types)-1]
	seg, name := model.Segment{Kind: model.SegThis}, current.name
	if ctor.Kind() == "super" {
		seg.Kind, name = model.SegSuper, current.super
	}
	if name == "" {
		return
	}
	w.l.OnCall(core.CallExpr{Name: name, Receiver: []model.Segment{seg}, Arity: arity(args), Location: w.loc(node)})
}

func (w *walker) create(node *sitter.Node) {
	t := w.typeRef(node.ChildByFieldName("type"))
	args := node.ChildByFieldName("arguments")
	w.walk(args)
	w.l.OnCreate(t, arity(args))
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if body := node.NamedChild(i); body.Kind() == "class_body" {
			decl := core.TypeDecl{
				Flavor:   model.Class,
				Supers:   []core.SuperRef{{Type: t, Kind: model.Extend}},
				Location: w.loc(body),
			}
			w.l.EnterType(decl)
			w.pushType(decl)
			w.body(body, "")
			w.popType()
			w.l.ExitType()
		}
	}
}

func (w *walker) fieldAccess(node *sitter.Node, write bool) {
	obj := node.ChildByFieldName("object")
	w.walkReceiver(obj)
	w.l.OnFieldAccess(core.AccessExpr{
		Name:     w.text(node.ChildByFieldName("field")),
		Receiver: w.segments(obj),
		Write:    write,
		Location: w.loc(node),
	})
}

func (w *walker) assign(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil {
		w.walk(node.ChildByFieldName("right"))
		return
	}
	switch left.Kind() {
	case "identifier":
		w.l.OnFieldAccess(core.AccessExpr{Name: w.text(left), Write: true, Location: w.loc(left)})
	case "field_access":
		w.fieldAccess(left, true)
	default:
		w.walk(left)
	}
	w.walk(node.ChildByFieldName("right"))
}

// walkReceiver 接收者链中的内层调用单独产生引用；纯标识符/this 由 segments 表达
func (w *walker) walkReceiver(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier", "this", "super", "field_access":
		if node.Kind() == "field_access" {
			w.walkReceiver(node.ChildByFieldName("object"))
		}
		return
	}
	w.walk(node)
}

// segments 把接收者表达式转换为段序列，无法静态确定的部分用空名字段表示
func (w *walker) segments(node *sitter.Node) []model.Segment {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "identifier", "type_identifier":
		return []model.Segment{{Name: w.text(node), Kind: model.SegName}}
	case "this":
		return []model.Segment{{Kind: model.SegThis}}
	case "super":
		return []model.Segment{{Kind: model.SegSuper}}
	case "field_access":
		return append(w.segments(node.ChildByFieldName("object")),
			model.Segment{Name: w.text(node.ChildByFieldName("field")), Kind: model.SegName})
	case "method_invocation":
		var out []model.Segment
		if obj := node.ChildByFieldName("object"); obj != nil {
			out = w.segments(obj)
		}
		return append(out, model.Segment{
			Name:  w.text(node.ChildByFieldName("name")),
			Kind:  model.SegCall,
			Arity: arity(node.ChildByFieldName("arguments")),
		})
	case "object_creation_expression":
		return []model.Segment{{Name: w.typeRef(node.ChildByFieldName("type")).Name, Kind: model.SegNew}}
	case "cast_expression":
		return []model.Segment{{Name: w.typeRef(node.ChildByFieldName("type")).Name, Kind: model.SegNew}}
	case "parenthesized_expression":
		if node.NamedChildCount() > 0 {
			return w.segments(node.NamedChild(0))
		}
	case "string_literal", "text_block":
		return []model.Segment{{Name: "String", Kind: model.SegNew}}
	case "scoped_identifier":
		var out []model.Segment
		for _, p := range strings.Split(w.text(node), ".") {
			out = append(out, model.Segment{Name: p, Kind: model.SegName})
		}
		return out
	}
	return []model.Segment{{Kind: model.SegName}}
}

// ==========================================
// 5. 原子辅助函数 (Atomic Helpers)
// ==========================================

func containsNode(nodes []*sitter.Node, n *sitter.Node) bool {
	for _, x := range nodes {
		if x.StartByte() == n.StartByte() && x.EndByte() == n.EndByte() && x.Kind() == n.Kind() {
			return true
		}
	}
	return false
}

func arity(args *sitter.Node) int {
	if args == nil {
		return -1
	}
	n := 0
	for i := uint(0); i < args.NamedChildCount(); i++ {
		k := args.NamedChild(i).Kind()
		if k != "line_comment" && k != "block_comment" {
			n++
		}
	}
	return n
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(w.src)
}

func (w *walker) loc(n *sitter.Node) *model.Location {
	if n == nil {
		return nil
	}
	return &model.Location{
		FilePath:    w.path,
		StartLine:   int(n.StartPosition().Row) + 1,
		EndLine:     int(n.EndPosition().Row) + 1,
		StartColumn: int(n.StartPosition().Column),
		EndColumn:   int(n.EndPosition().Column),
	}
}
