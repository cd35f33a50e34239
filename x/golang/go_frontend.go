package golang

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
	"github.com/CodMac/arch-depends/parser"
)

// FrontEndVersion 参与缓存键，事件语义变化时递增
const FrontEndVersion = "go-ts0.23-2"

// FrontEnd 基于 tree-sitter 的 Go 前端
type FrontEnd struct{}

func NewGoFrontEnd() *FrontEnd {
	return &FrontEnd{}
}

func (f *FrontEnd) Language() core.Language { return core.LangGo }

func (f *FrontEnd) Version() string { return FrontEndVersion }

func (f *FrontEnd) Extensions() []string { return []string{".go"} }

func (f *FrontEnd) Parse(ctx context.Context, path string, src []byte, l core.Listener) error {
	p, err := parser.NewParser(core.LangGo)
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
	w.sourceFile(root)
	l.EndFile()

	if root.HasError() {
		return core.NewAnalysisError(core.ParseFailure, "syntax errors in "+path, w.loc(root), nil)
	}
	return nil
}

type walker struct {
	src  []byte
	path string
	l    core.Listener
}

// ==========================================
// 1. 顶层声明
// ==========================================

func (w *walker) sourceFile(root *sitter.Node) {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case "package_clause":
			if child.NamedChildCount() > 0 {
				w.l.OnPackage(w.text(child.NamedChild(0)), w.loc(child))
			}
		case "import_declaration":
			w.imports(child)
		case "type_declaration":
			w.typeDecl(child)
		case "function_declaration", "method_declaration":
			w.function(child)
		case "var_declaration", "const_declaration":
			w.varDecl(child)
		}
	}
}

func (w *walker) imports(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "import_spec":
			w.importSpec(child)
		case "import_spec_list":
			w.imports(child)
		}
	}
}

func (w *walker) importSpec(node *sitter.Node) {
	raw := w.text(node.ChildByFieldName("path"))
	path, err := strconv.Unquote(raw)
	if err != nil {
		path = strings.Trim(raw, "\"`")
	}
	entry := model.ImportEntry{Path: path, Alias: PackageName(path), Location: w.loc(node)}
	if name := node.ChildByFieldName("name"); name != nil {
		switch name.Kind() {
		case "dot":
			// 点导入把包内名字直接引入文件作用域
			entry.Alias = ""
			entry.IsWildcard = true
		case "blank_identifier":
			entry.Alias = "_"
		default:
			entry.Alias = w.text(name)
		}
	}
	w.l.OnImport(entry)
}

func (w *walker) typeDecl(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec.Kind() != "type_spec" && spec.Kind() != "type_alias" {
			continue
		}
		underlying := spec.ChildByFieldName("type")
		if underlying == nil {
			continue
		}
		decl := core.TypeDecl{
			Name:       w.text(spec.ChildByFieldName("name")),
			Flavor:     model.Alias,
			TypeParams: w.typeParams(spec.ChildByFieldName("type_parameters")),
			Location:   w.loc(spec),
		}
		if exported(decl.Name) {
			decl.Modifiers = []string{"exported"}
		}
		switch underlying.Kind() {
		case "struct_type":
			decl.Flavor = model.Struct
			decl.Supers = w.embedded(underlying)
		case "interface_type":
			decl.Flavor = model.Interface
			decl.Supers = w.embedded(underlying)
		}

		w.l.EnterType(decl)
		switch underlying.Kind() {
		case "struct_type":
			w.structFields(underlying)
		case "interface_type":
			w.interfaceMethods(underlying)
		default:
			// type Celsius float64 / type A = B
			w.l.OnTypeReference(model.UseType, w.typeRef(underlying))
		}
		w.l.ExitType()
	}
}

// embedded 结构体嵌入字段和接口嵌入，都按继承处理
func (w *walker) embedded(node *sitter.Node) []core.SuperRef {
	var out []core.SuperRef
	switch node.Kind() {
	case "struct_type":
		list := firstOfKind(node, "field_declaration_list")
		if list == nil {
			return nil
		}
		for i := uint(0); i < list.NamedChildCount(); i++ {
			f := list.NamedChild(i)
			if f.Kind() != "field_declaration" || f.ChildByFieldName("name") != nil {
				continue
			}
			if t := w.typeRef(f.ChildByFieldName("type")); t.Name != "" {
				out = append(out, core.SuperRef{Type: t, Kind: model.Extend})
			}
		}
	case "interface_type":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			e := node.NamedChild(i)
			if e.Kind() != "type_elem" || e.NamedChildCount() != 1 {
				// 约束联合 (~int | ~string) 不是嵌入
				continue
			}
			if t := w.typeRef(e.NamedChild(0)); t.Name != "" && !strings.HasPrefix(w.text(e), "~") {
				out = append(out, core.SuperRef{Type: t, Kind: model.Extend})
			}
		}
	}
	return out
}

func (w *walker) structFields(node *sitter.Node) {
	list := firstOfKind(node, "field_declaration_list")
	if list == nil {
		return
	}
	for i := uint(0); i < list.NamedChildCount(); i++ {
		f := list.NamedChild(i)
		if f.Kind() != "field_declaration" {
			continue
		}
		t := w.typeRef(f.ChildByFieldName("type"))
		for _, name := range w.fieldNames(f, "name") {
			ft := t
			w.l.OnField(core.VarDecl{Name: w.text(name), Type: &ft, Modifiers: exportMods(w.text(name)), Location: w.loc(name)})
		}
	}
}

func (w *walker) interfaceMethods(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		m := node.NamedChild(i)
		if m.Kind() != "method_elem" {
			continue
		}
		decl := core.MethodDecl{
			Name:      w.text(m.ChildByFieldName("name")),
			Modifiers: append(exportMods(w.text(m.ChildByFieldName("name"))), "abstract"),
			Location:  w.loc(m),
		}
		extra := w.signature(&decl, m)
		w.l.EnterMethod(decl)
		for _, t := range extra {
			w.l.OnTypeReference(model.Return, t)
		}
		w.l.ExitMethod()
	}
}

func (w *walker) function(node *sitter.Node) {
	name := w.text(node.ChildByFieldName("name"))
	decl := core.MethodDecl{
		Name:       name,
		Modifiers:  exportMods(name),
		TypeParams: w.typeParams(node.ChildByFieldName("type_parameters")),
		Location:   w.loc(node),
	}

	var recvName *sitter.Node
	var recvType core.TypeRef
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		if p := firstOfKind(recv, "parameter_declaration"); p != nil {
			recvName = p.ChildByFieldName("name")
			tn := p.ChildByFieldName("type")
			recvType = w.typeRef(tn)
			// func (s *Stack[T]) Push：接收者的类型实参是方法的类型形参
			for _, a := range recvType.Args {
				decl.TypeParams = append(decl.TypeParams, model.TypeParam{Name: a.Name})
			}
			recvType.Args = nil
			decl.Receiver = &recvType
		}
	}
	extra := w.signature(&decl, node)

	w.l.EnterMethod(decl)
	if recvName != nil {
		w.l.OnParameter(core.ParamDecl{Name: w.text(recvName), Type: recvType, Location: w.loc(recvName)})
	}
	for _, t := range extra {
		w.l.OnTypeReference(model.Return, t)
	}
	w.walk(node.ChildByFieldName("body"))
	w.l.ExitMethod()
}

// signature 填充参数和返回值，多返回值中第一个之外的类型作为额外引用返回
func (w *walker) signature(decl *core.MethodDecl, node *sitter.Node) []core.TypeRef {
	if params := node.ChildByFieldName("parameters"); params != nil {
		decl.Params, decl.VarArgs = w.params(params)
	}
	result := node.ChildByFieldName("result")
	if result == nil {
		return nil
	}
	if result.Kind() != "parameter_list" {
		t := w.typeRef(result)
		decl.Return = &t
		return nil
	}
	var types []core.TypeRef
	for _, p := range w.paramList(result) {
		types = append(types, p.Type)
	}
	if len(types) == 0 {
		return nil
	}
	decl.Return = &types[0]
	return types[1:]
}

func (w *walker) params(node *sitter.Node) ([]core.ParamDecl, bool) {
	variadic := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.NamedChild(i).Kind() == "variadic_parameter_declaration" {
			variadic = true
		}
	}
	return w.paramList(node), variadic
}

func (w *walker) paramList(node *sitter.Node) []core.ParamDecl {
	var out []core.ParamDecl
	for i := uint(0); i < node.NamedChildCount(); i++ {
		p := node.NamedChild(i)
		if p.Kind() != "parameter_declaration" && p.Kind() != "variadic_parameter_declaration" {
			continue
		}
		t := w.typeRef(p.ChildByFieldName("type"))
		if p.Kind() == "variadic_parameter_declaration" {
			t.Dims++
		}
		names := w.fieldNames(p, "name")
		if len(names) == 0 {
			out = append(out, core.ParamDecl{Name: "_", Type: t, Location: w.loc(p)})
			continue
		}
		for _, n := range names {
			out = append(out, core.ParamDecl{Name: w.text(n), Type: t, Location: w.loc(n)})
		}
	}
	return out
}

func (w *walker) typeParams(node *sitter.Node) []model.TypeParam {
	if node == nil {
		return nil
	}
	var out []model.TypeParam
	for i := uint(0); i < node.NamedChildCount(); i++ {
		d := node.NamedChild(i)
		if d.Kind() != "type_parameter_declaration" {
			continue
		}
		bound := ""
		if c := d.ChildByFieldName("type"); c != nil {
			if t := w.typeRef(c); t.Name != "any" && !strings.ContainsAny(w.text(c), "|~") {
				bound = t.Name
			}
		}
		for _, n := range w.fieldNames(d, "name") {
			out = append(out, model.TypeParam{Name: w.text(n), Bound: bound})
		}
	}
	return out
}

// varDecl var/const 声明；包级变量归属文件，函数内归属当前函数
func (w *walker) varDecl(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		switch spec.Kind() {
		case "var_spec", "const_spec":
			w.varSpec(spec)
		case "var_spec_list", "const_spec_list":
			w.varDecl(spec)
		}
	}
}

func (w *walker) varSpec(spec *sitter.Node) {
	value := spec.ChildByFieldName("value")
	w.walk(value)
	var t *core.TypeRef
	if tn := spec.ChildByFieldName("type"); tn != nil {
		ref := w.typeRef(tn)
		t = &ref
	}
	names := w.fieldNames(spec, "name")
	for i, n := range names {
		vt := t
		if vt == nil {
			vt = w.inferred(value, i, len(names))
		}
		w.l.OnVariable(core.VarDecl{Name: w.text(n), Type: vt, Modifiers: exportMods(w.text(n)), Location: w.loc(n)})
	}
}

// inferred x := T{} / x := &T{} 的类型可以直接从字面量读出，其余情况交给推断
func (w *walker) inferred(values *sitter.Node, i, n int) *core.TypeRef {
	if values == nil || values.NamedChildCount() != uint(n) {
		return nil
	}
	v := values.NamedChild(uint(i))
	if v.Kind() == "unary_expression" && strings.HasPrefix(w.text(v), "&") {
		v = v.ChildByFieldName("operand")
	}
	if v == nil || v.Kind() != "composite_literal" {
		return nil
	}
	t := w.typeRef(v.ChildByFieldName("type"))
	if t.Name == "" || t.Dims > 0 || predeclared[t.Name] {
		return nil
	}
	return &t
}

// ==========================================
// 2. 类型
// ==========================================

func (w *walker) typeRef(node *sitter.Node) core.TypeRef {
	if node == nil {
		return core.TypeRef{}
	}
	switch node.Kind() {
	case "type_identifier", "identifier":
		return core.TypeRef{Name: w.text(node), Location: w.loc(node)}
	case "qualified_type":
		return core.TypeRef{Name: w.text(node.ChildByFieldName("package")) + "." + w.text(node.ChildByFieldName("name")), Location: w.loc(node)}
	case "pointer_type", "parenthesized_type", "type_elem", "type_constraint":
		if node.NamedChildCount() > 0 {
			return w.typeRef(node.NamedChild(0))
		}
	case "slice_type", "array_type", "implicit_length_array_type":
		t := w.typeRef(node.ChildByFieldName("element"))
		t.Dims++
		return t
	case "generic_type":
		t := w.typeRef(node.ChildByFieldName("type"))
		if args := node.ChildByFieldName("type_arguments"); args != nil {
			for i := uint(0); i < args.NamedChildCount(); i++ {
				if a := w.typeRef(args.NamedChild(i)); a.Name != "" {
					t.Args = append(t.Args, a)
				}
			}
		}
		t.Location = w.loc(node)
		return t
	case "map_type":
		return core.TypeRef{
			Name:     "map",
			Args:     nonEmpty(w.typeRef(node.ChildByFieldName("key")), w.typeRef(node.ChildByFieldName("value"))),
			Location: w.loc(node),
		}
	case "channel_type":
		return core.TypeRef{Name: "chan", Args: nonEmpty(w.typeRef(node.ChildByFieldName("value"))), Location: w.loc(node)}
	case "function_type":
		t := core.TypeRef{Name: "func", Location: w.loc(node)}
		if params := node.ChildByFieldName("parameters"); params != nil {
			for _, p := range w.paramList(params) {
				t.Args = append(t.Args, nonEmpty(p.Type)...)
			}
		}
		if result := node.ChildByFieldName("result"); result != nil {
			if result.Kind() == "parameter_list" {
				for _, p := range w.paramList(result) {
					t.Args = append(t.Args, nonEmpty(p.Type)...)
				}
			} else {
				t.Args = append(t.Args, nonEmpty(w.typeRef(result))...)
			}
		}
		return t
	}
	// 匿名 struct / interface 等
	return core.TypeRef{}
}

func nonEmpty(refs ...core.TypeRef) []core.TypeRef {
	var out []core.TypeRef
	for _, r := range refs {
		if r.Name != "" {
			out = append(out, r)
		}
	}
	return out
}

func isTypeNode(kind string) bool {
	switch kind {
	case "type_identifier", "qualified_type", "pointer_type", "slice_type", "array_type",
		"implicit_length_array_type", "generic_type", "map_type", "channel_type", "function_type":
		return true
	}
	return false
}

// ==========================================
// 3. 语句与表达式
// ==========================================

func (w *walker) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "var_declaration", "const_declaration":
		w.varDecl(node)
		return
	case "type_declaration":
		w.typeDecl(node)
		return
	case "short_var_declaration":
		w.shortVar(node)
		return
	case "range_clause":
		w.rangeClause(node)
		return
	case "func_literal":
		if params := node.ChildByFieldName("parameters"); params != nil {
			for _, p := range w.paramList(params) {
				w.l.OnParameter(p)
			}
		}
		w.walk(node.ChildByFieldName("body"))
		return
	case "call_expression":
		w.call(node)
		return
	case "selector_expression":
		w.selector(node, false)
		return
	case "identifier":
		w.l.OnFieldAccess(core.AccessExpr{Name: w.text(node), Location: w.loc(node)})
		return
	case "assignment_statement":
		w.assign(node)
		return
	case "inc_statement", "dec_statement":
		if node.NamedChildCount() > 0 {
			w.write(node.NamedChild(0))
		}
		return
	case "composite_literal":
		w.composite(node)
		return
	case "type_assertion_expression":
		w.walk(node.ChildByFieldName("operand"))
		w.l.OnCast(w.typeRef(node.ChildByFieldName("type")))
		return
	case "type_conversion_expression":
		w.l.OnCast(w.typeRef(node.ChildByFieldName("type")))
		w.walk(node.ChildByFieldName("operand"))
		return
	case "type_switch_statement":
		w.typeSwitch(node)
		return
	case "labeled_statement":
		w.walk(node.ChildByFieldName("statement"))
		return
	case "label_name", "field_identifier", "package_identifier", "comment",
		"break_statement", "continue_statement", "goto_statement":
		return
	}
	if isTypeNode(node.Kind()) {
		// make([]T, n) / new(T) 等表达式位置上的类型
		w.l.OnTypeReference(model.UseType, w.typeRef(node))
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		w.walk(node.NamedChild(i))
	}
}

func (w *walker) shortVar(node *sitter.Node) {
	right := node.ChildByFieldName("right")
	w.walk(right)
	left := node.ChildByFieldName("left")
	if left == nil {
		return
	}
	n := int(left.NamedChildCount())
	for i := 0; i < n; i++ {
		id := left.NamedChild(uint(i))
		if id.Kind() != "identifier" || w.text(id) == "_" {
			continue
		}
		w.l.OnVariable(core.VarDecl{Name: w.text(id), Type: w.inferred(right, i, n), Location: w.loc(id)})
	}
}

func (w *walker) rangeClause(node *sitter.Node) {
	w.walk(node.ChildByFieldName("right"))
	left := node.ChildByFieldName("left")
	if left == nil {
		return
	}
	define := strings.Contains(w.text(node), ":=")
	for i := uint(0); i < left.NamedChildCount(); i++ {
		id := left.NamedChild(i)
		switch {
		case id.Kind() != "identifier" || w.text(id) == "_":
			w.walk(id)
		case define:
			w.l.OnVariable(core.VarDecl{Name: w.text(id), Location: w.loc(id)})
		default:
			w.write(id)
		}
	}
}

func (w *walker) call(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil {
		w.walk(args)
		return
	}
	call := core.CallExpr{Arity: arity(args), Location: w.loc(node)}
	switch fn.Kind() {
	case "identifier":
		call.Name = w.text(fn)
	case "selector_expression":
		operand := fn.ChildByFieldName("operand")
		w.walkReceiver(operand)
		call.Name = w.text(fn.ChildByFieldName("field"))
		call.Receiver = w.segments(operand)
	case "generic_type":
		// Map[K, V](m)：泛型函数显式实例化
		t := w.typeRef(fn)
		call.Name = t.Name
		for _, a := range t.Args {
			w.l.OnTypeReference(model.TypeArg, a)
		}
	default:
		w.walk(fn)
	}
	w.walk(args)
	if call.Name != "" {
		if i := strings.LastIndex(call.Name, "."); i >= 0 && call.Receiver == nil {
			call.Receiver = []model.Segment{{Name: call.Name[:i], Kind: model.SegName}}
			call.Name = call.Name[i+1:]
		}
		w.l.OnCall(call)
	}
}

func (w *walker) selector(node *sitter.Node, write bool) {
	operand := node.ChildByFieldName("operand")
	w.walkReceiver(operand)
	w.l.OnFieldAccess(core.AccessExpr{
		Name:     w.text(node.ChildByFieldName("field")),
		Receiver: w.segments(operand),
		Write:    write,
		Location: w.loc(node),
	})
}

func (w *walker) assign(node *sitter.Node) {
	w.walk(node.ChildByFieldName("right"))
	left := node.ChildByFieldName("left")
	if left == nil {
		return
	}
	for i := uint(0); i < left.NamedChildCount(); i++ {
		w.write(left.NamedChild(i))
	}
}

// write 赋值左侧：标识符和选择器产生 ASSIGN，其余 (下标、解引用) 按普通表达式遍历
func (w *walker) write(node *sitter.Node) {
	switch node.Kind() {
	case "identifier":
		if w.text(node) != "_" {
			w.l.OnFieldAccess(core.AccessExpr{Name: w.text(node), Write: true, Location: w.loc(node)})
		}
	case "selector_expression":
		w.selector(node, true)
	default:
		w.walk(node)
	}
}

func (w *walker) composite(node *sitter.Node) {
	tn := node.ChildByFieldName("type")
	t := w.typeRef(tn)
	named := t.Name != "" && t.Dims == 0 && !predeclared[t.Name]
	if named {
		w.l.OnCreate(t, -1)
	} else if tn != nil {
		w.l.OnTypeReference(model.UseType, t)
	}
	body := node.ChildByFieldName("body")
	if named {
		w.literal(body, t.Name)
	} else {
		w.walk(body)
	}
}

// literal T{Name: v}：键是 T 的字段
func (w *walker) literal(body *sitter.Node, typeName string) {
	if body == nil {
		return
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		el := body.NamedChild(i)
		if el.Kind() != "keyed_element" || el.NamedChildCount() < 2 {
			w.walk(el)
			continue
		}
		key, value := el.NamedChild(0), el.NamedChild(1)
		if key.Kind() == "literal_element" && key.NamedChildCount() > 0 {
			key = key.NamedChild(0)
		}
		if key.Kind() == "identifier" || key.Kind() == "field_identifier" {
			w.l.OnFieldAccess(core.AccessExpr{
				Name:     w.text(key),
				Receiver: []model.Segment{{Name: typeName, Kind: model.SegNew}},
				Write:    true,
				Location: w.loc(key),
			})
		} else {
			w.walk(key)
		}
		w.walk(value)
	}
}

func (w *walker) typeSwitch(node *sitter.Node) {
	if init := node.ChildByFieldName("initializer"); init != nil {
		w.walk(init)
	}
	w.walk(node.ChildByFieldName("value"))
	var alias *sitter.Node
	if a := node.ChildByFieldName("alias"); a != nil && a.NamedChildCount() > 0 {
		alias = a.NamedChild(0)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c.Kind() != "type_case" && c.Kind() != "default_case" {
			continue
		}
		var types []core.TypeRef
		for j := uint(0); j < c.NamedChildCount(); j++ {
			s := c.NamedChild(j)
			if isTypeNode(s.Kind()) {
				t := w.typeRef(s)
				types = append(types, t)
				w.l.OnCast(t)
			}
		}
		if alias != nil {
			// 单类型分支中别名的类型就是该类型
			var t *core.TypeRef
			if len(types) == 1 {
				t = &types[0]
			}
			w.l.OnVariable(core.VarDecl{Name: w.text(alias), Type: t, Location: w.loc(c)})
		}
		for j := uint(0); j < c.NamedChildCount(); j++ {
			if s := c.NamedChild(j); !isTypeNode(s.Kind()) {
				w.walk(s)
			}
		}
	}
}

// walkReceiver 接收者链中内层的调用和下标单独产生引用
func (w *walker) walkReceiver(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		return
	case "selector_expression":
		w.walkReceiver(node.ChildByFieldName("operand"))
		return
	}
	w.walk(node)
}

// segments 接收者表达式转换为段序列
func (w *walker) segments(node *sitter.Node) []model.Segment {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "identifier":
		return []model.Segment{{Name: w.text(node), Kind: model.SegName}}
	case "selector_expression":
		return append(w.segments(node.ChildByFieldName("operand")),
			model.Segment{Name: w.text(node.ChildByFieldName("field")), Kind: model.SegName})
	case "call_expression":
		fn := node.ChildByFieldName("function")
		a := arity(node.ChildByFieldName("arguments"))
		if fn == nil {
			break
		}
		switch fn.Kind() {
		case "identifier":
			return []model.Segment{{Name: w.text(fn), Kind: model.SegCall, Arity: a}}
		case "selector_expression":
			return append(w.segments(fn.ChildByFieldName("operand")),
				model.Segment{Name: w.text(fn.ChildByFieldName("field")), Kind: model.SegCall, Arity: a})
		}
	case "composite_literal":
		if t := w.typeRef(node.ChildByFieldName("type")); t.Name != "" && t.Dims == 0 {
			return []model.Segment{{Name: t.Name, Kind: model.SegNew}}
		}
	case "type_assertion_expression":
		if t := w.typeRef(node.ChildByFieldName("type")); t.Name != "" && t.Dims == 0 {
			return []model.Segment{{Name: t.Name, Kind: model.SegNew}}
		}
	case "unary_expression", "parenthesized_expression":
		if op := node.ChildByFieldName("operand"); op != nil {
			return w.segments(op)
		}
		if node.NamedChildCount() > 0 {
			return w.segments(node.NamedChild(0))
		}
	case "interpreted_string_literal", "raw_string_literal":
		return []model.Segment{{Name: "string", Kind: model.SegNew}}
	}
	return []model.Segment{{Kind: model.SegName}}
}

// ==========================================
// 4. 辅助函数
// ==========================================

func (w *walker) fieldNames(node *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			out = append(out, node.Child(i))
		}
	}
	return out
}

func firstOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c.Kind() == kind {
			return c
		}
	}
	return nil
}

func exported(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func exportMods(name string) []string {
	if exported(name) {
		return []string{"exported"}
	}
	return nil
}

func arity(args *sitter.Node) int {
	if args == nil {
		return -1
	}
	n := 0
	for i := uint(0); i < args.NamedChildCount(); i++ {
		if args.NamedChild(i).Kind() != "comment" {
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
