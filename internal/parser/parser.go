package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	gotypes "go/types"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/codeindex/pkg/types"
)

// Metadata keys the Go parser writes
const (
	MetaGoKind  = "go_kind"  // const, var, type, alias on symbols whose Kind is generic
	MetaScope   = "scope"    // exported or unexported
	MetaPackage = "package"  // package name, on the ParseOutcome
	MetaImports = "imports"  // comma separated import paths, on the ParseOutcome
	MetaRecv    = "receiver" // receiver type name on methods and fields
)

// Parser handles AST-based parsing of Go source files
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// ParseFile parses a Go source file and extracts symbols, references and
// relations. A nil content slice reads the file from disk. Syntax errors fail
// the whole file with an error wrapping types.ErrParseFailed.
func (p *Parser) ParseFile(path string, content []byte) (*types.ParseOutcome, error) {
	if content == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		content = data
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return nil, syntaxError(path, err)
	}

	e := newExtractor(fset, file, path)
	e.extract()
	return e.out, nil
}

// syntaxError converts the first scanner error into a types.ParseError
func syntaxError(path string, err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return &types.ParseError{
			File:    path,
			Line:    first.Pos.Line,
			Column:  first.Pos.Column,
			Message: fmt.Sprintf("syntax error: %s", first.Msg),
		}
	}
	return &types.ParseError{File: path, Message: fmt.Sprintf("syntax error: %v", err)}
}

// symbolExtractor walks one file's top-level declarations
type symbolExtractor struct {
	fset        *token.FileSet
	file        *ast.File
	filePath    string
	packageName string
	scope       string // "<dir>::<package>", shared by every file of the package

	declaredTypes map[string]struct{}
	relSeen       map[types.RelationKey]struct{}
	out           *types.ParseOutcome
}

func newExtractor(fset *token.FileSet, file *ast.File, path string) *symbolExtractor {
	pkg := file.Name.Name
	return &symbolExtractor{
		fset:          fset,
		file:          file,
		filePath:      path,
		packageName:   pkg,
		scope:         filepath.ToSlash(filepath.Dir(path)) + "::" + pkg,
		declaredTypes: make(map[string]struct{}),
		relSeen:       make(map[types.RelationKey]struct{}),
		out: &types.ParseOutcome{
			Language: "go",
			Metadata: map[string]string{MetaPackage: pkg},
		},
	}
}

// id builds a package scoped symbol id such as "/src/app::app.User.Name"
func (e *symbolExtractor) id(parts ...string) string {
	return e.scope + "." + strings.Join(parts, ".")
}

func (e *symbolExtractor) extract() {
	imports := make([]string, 0, len(e.file.Imports))
	for _, imp := range e.file.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	if len(imports) > 0 {
		e.out.Metadata[MetaImports] = strings.Join(imports, ",")
	}

	// Methods may precede their receiver type in the file
	for _, decl := range e.file.Decls {
		if gen, ok := decl.(*ast.GenDecl); ok && gen.Tok == token.TYPE {
			for _, spec := range gen.Specs {
				e.declaredTypes[spec.(*ast.TypeSpec).Name.Name] = struct{}{}
			}
		}
	}

	for _, decl := range e.file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			e.extractFunction(d)
		case *ast.GenDecl:
			e.extractGenDecl(d)
		}
	}
}

// extractFunction extracts function and method declarations
func (e *symbolExtractor) extractFunction(funcDecl *ast.FuncDecl) {
	name := funcDecl.Name.Name
	if name == "_" {
		return
	}

	sym := types.Symbol{
		Name:          name,
		Kind:          types.KindFunction,
		Namespace:     e.packageName,
		Signature:     e.extractFunctionSignature(funcDecl),
		Documentation: e.extractDocComment(funcDecl.Doc),
		Metadata:      map[string]string{MetaScope: determineScope(name)},
	}
	e.setPosition(&sym, funcDecl.Name.Pos())

	var recvType string
	var recvObj *ast.Object
	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		field := funcDecl.Recv.List[0]
		recvType = extractReceiverType(field.Type)
		if len(field.Names) > 0 {
			recvObj = field.Names[0].Obj
		}
	}

	switch {
	case recvType != "":
		sym.Kind = types.KindMethod
		sym.ID = e.id(recvType, name)
		sym.Metadata[MetaRecv] = recvType
		if _, ok := e.declaredTypes[recvType]; ok {
			sym.ParentID = e.id(recvType)
		}
		e.addRelation(e.id(recvType), sym.ID, types.RelationContains)
	case name == "init":
		// A package may declare any number of init functions
		pos := e.fset.Position(funcDecl.Pos())
		sym.ID = e.id(fmt.Sprintf("init@%s:%d", filepath.Base(e.filePath), pos.Line))
	default:
		sym.ID = e.id(name)
	}

	e.emit(sym, funcDecl.Name)
	e.typeUses(sym.ID, funcDecl.Type)
	if funcDecl.Body != nil {
		e.walkBody(sym.ID, recvObj, recvType, funcDecl.Body)
	}
}

// extractGenDecl extracts type, const, and var declarations
func (e *symbolExtractor) extractGenDecl(genDecl *ast.GenDecl) {
	for _, spec := range genDecl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			doc := s.Doc
			if doc == nil {
				doc = genDecl.Doc
			}
			e.extractTypeSpec(s, doc)
		case *ast.ValueSpec:
			doc := s.Doc
			if doc == nil {
				doc = genDecl.Doc
			}
			e.extractValueSpec(s, doc, genDecl.Tok)
		}
	}
}

// extractTypeSpec extracts struct, interface, and other named type declarations
func (e *symbolExtractor) extractTypeSpec(typeSpec *ast.TypeSpec, doc *ast.CommentGroup) {
	name := typeSpec.Name.Name
	if name == "_" {
		return
	}

	sym := types.Symbol{
		ID:            e.id(name),
		Name:          name,
		Namespace:     e.packageName,
		Documentation: e.extractDocComment(doc),
		Metadata:      map[string]string{MetaScope: determineScope(name)},
	}
	e.setPosition(&sym, typeSpec.Name.Pos())

	var fieldNames []string
	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		sym.Kind = types.KindStruct
		sym.Signature = e.extractStructSignature(name, t)
		fieldNames = structFieldNames(t)
	case *ast.InterfaceType:
		sym.Kind = types.KindInterface
		sym.Signature = e.extractInterfaceSignature(name, t)
	default:
		sym.Kind = types.KindClass
		if typeSpec.Assign.IsValid() {
			sym.Metadata[MetaGoKind] = "alias"
			sym.Signature = fmt.Sprintf("type %s = %s", name, e.exprToString(typeSpec.Type))
		} else {
			sym.Metadata[MetaGoKind] = "type"
			sym.Signature = fmt.Sprintf("type %s %s", name, e.exprToString(typeSpec.Type))
		}
	}

	detectDDDPatterns(&sym, fieldNames)
	e.emit(sym, typeSpec.Name)

	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		e.extractStructFields(name, sym.ID, t)
	case *ast.InterfaceType:
		e.extractInterfaceMethods(name, sym.ID, t)
	default:
		e.typeUses(sym.ID, typeSpec.Type)
	}
}

// extractStructFields extracts field symbols from a struct. Embedded fields
// become inherits_from relations.
func (e *symbolExtractor) extractStructFields(structName, structID string, structType *ast.StructType) {
	if structType.Fields == nil {
		return
	}

	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 {
			e.embedded(structID, field.Type)
			continue
		}
		for _, name := range field.Names {
			if name.Name == "_" {
				continue
			}
			fieldSym := types.Symbol{
				ID:            e.id(structName, name.Name),
				Name:          name.Name,
				Kind:          types.KindField,
				Namespace:     e.packageName,
				Signature:     fmt.Sprintf("%s %s", name.Name, e.exprToString(field.Type)),
				Documentation: e.extractDocComment(field.Doc),
				ParentID:      structID,
				Metadata: map[string]string{
					MetaScope: determineScope(name.Name),
					MetaRecv:  structName,
				},
			}
			e.setPosition(&fieldSym, name.Pos())
			e.emit(fieldSym, name)
			e.addRelation(structID, fieldSym.ID, types.RelationContains)
			e.typeUses(fieldSym.ID, field.Type)
		}
	}
}

// extractInterfaceMethods extracts the method set of an interface as child symbols
func (e *symbolExtractor) extractInterfaceMethods(ifaceName, ifaceID string, ifaceType *ast.InterfaceType) {
	if ifaceType.Methods == nil {
		return
	}

	for _, field := range ifaceType.Methods.List {
		if len(field.Names) == 0 {
			e.embedded(ifaceID, field.Type)
			continue
		}
		for _, name := range field.Names {
			methodSym := types.Symbol{
				ID:            e.id(ifaceName, name.Name),
				Name:          name.Name,
				Kind:          types.KindMethod,
				Namespace:     e.packageName,
				Signature:     name.Name + strings.TrimPrefix(e.exprToString(field.Type), "func"),
				Documentation: e.extractDocComment(field.Doc),
				ParentID:      ifaceID,
				Metadata: map[string]string{
					MetaScope: determineScope(name.Name),
					MetaRecv:  ifaceName,
				},
			}
			e.setPosition(&methodSym, name.Pos())
			e.emit(methodSym, name)
			e.addRelation(ifaceID, methodSym.ID, types.RelationContains)
			e.typeUses(methodSym.ID, field.Type)
		}
	}
}

// embedded records an embedded type as an inherits_from edge
func (e *symbolExtractor) embedded(ownerID string, expr ast.Expr) {
	ident := baseIdent(expr)
	if ident == nil {
		return
	}
	target, ok := e.resolve(ident)
	if !ok {
		return
	}
	e.addReference(target, ident, ownerID)
	e.addRelation(ownerID, target, types.RelationInheritsFrom)
}

// extractValueSpec extracts const and var declarations
func (e *symbolExtractor) extractValueSpec(valueSpec *ast.ValueSpec, doc *ast.CommentGroup, tok token.Token) {
	goKind := "var"
	if tok == token.CONST {
		goKind = "const"
	}

	for _, name := range valueSpec.Names {
		if name.Name == "_" {
			continue
		}
		sym := types.Symbol{
			ID:            e.id(name.Name),
			Name:          name.Name,
			Kind:          types.KindVariable,
			Namespace:     e.packageName,
			Documentation: e.extractDocComment(doc),
			Metadata: map[string]string{
				MetaScope:  determineScope(name.Name),
				MetaGoKind: goKind,
			},
		}
		e.setPosition(&sym, name.Pos())

		// Build signature
		if valueSpec.Type != nil {
			sym.Signature = fmt.Sprintf("%s %s %s", goKind, name.Name, e.exprToString(valueSpec.Type))
		} else if len(valueSpec.Values) > 0 {
			sym.Signature = fmt.Sprintf("%s %s = ...", goKind, name.Name)
		} else {
			sym.Signature = goKind + " " + name.Name
		}

		e.emit(sym, name)
		if valueSpec.Type != nil {
			e.typeUses(sym.ID, valueSpec.Type)
		}
		for _, v := range valueSpec.Values {
			e.walkBody(sym.ID, nil, "", v)
		}
	}
}

// emit adds the symbol and its definition reference
func (e *symbolExtractor) emit(sym types.Symbol, name *ast.Ident) {
	sym.FilePath = e.filePath
	e.out.AddSymbol(sym)

	ref := e.reference(sym.ID, name, sym.ParentID)
	ref.IsDefinition = true
	e.out.AddReference(ref)
}

// typeUses records every package level type named in expr as a reference
// and a uses edge from owner
func (e *symbolExtractor) typeUses(ownerID string, expr ast.Expr) {
	if expr == nil {
		return
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			// Qualified identifiers point into other packages
			return false
		case *ast.Ident:
			if target, ok := e.resolve(n); ok {
				e.addReference(target, n, ownerID)
				e.addRelation(ownerID, target, types.RelationUses)
			}
		}
		return true
	})
}

// walkBody records references and calls made inside a function body or
// initializer. Selectors on the method receiver resolve to the receiver's members.
func (e *symbolExtractor) walkBody(containerID string, recvObj *ast.Object, recvType string, node ast.Node) {
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CallExpr:
			if target, ok := e.callTarget(n.Fun, recvObj, recvType); ok {
				e.addRelation(containerID, target, types.RelationCalls)
			}
		case *ast.SelectorExpr:
			x, ok := n.X.(*ast.Ident)
			if !ok {
				ast.Inspect(n.X, visit)
				return false
			}
			if recvObj != nil && x.Obj == recvObj {
				e.addReference(e.id(recvType, n.Sel.Name), n.Sel, containerID)
				return false
			}
			if x.Obj == nil {
				// Package qualifier or a package level name from another file
				return false
			}
			visit(x)
			return false
		case *ast.KeyValueExpr:
			// Struct literal keys name fields, not package symbols
			if _, ok := n.Key.(*ast.Ident); ok {
				ast.Inspect(n.Value, visit)
				return false
			}
		case *ast.Ident:
			if target, ok := e.resolve(n); ok {
				e.addReference(target, n, containerID)
			}
		}
		return true
	}
	ast.Inspect(node, visit)
}

// callTarget resolves the callee of a call expression when it is a package
// level function or a method on the receiver
func (e *symbolExtractor) callTarget(fun ast.Expr, recvObj *ast.Object, recvType string) (string, bool) {
	switch f := fun.(type) {
	case *ast.Ident:
		return e.resolve(f)
	case *ast.SelectorExpr:
		if x, ok := f.X.(*ast.Ident); ok && recvObj != nil && x.Obj == recvObj {
			return e.id(recvType, f.Sel.Name), true
		}
	case *ast.IndexExpr:
		return e.callTarget(f.X, recvObj, recvType)
	case *ast.IndexListExpr:
		return e.callTarget(f.X, recvObj, recvType)
	case *ast.ParenExpr:
		return e.callTarget(f.X, recvObj, recvType)
	}
	return "", false
}

// resolve maps an identifier to a package level symbol id. Locals, builtins
// and blank identifiers do not resolve.
func (e *symbolExtractor) resolve(ident *ast.Ident) (string, bool) {
	name := ident.Name
	if name == "_" {
		return "", false
	}
	if ident.Obj != nil {
		if e.file.Scope.Lookup(name) == ident.Obj {
			return e.id(name), true
		}
		return "", false
	}
	if gotypes.Universe.Lookup(name) != nil {
		return "", false
	}
	// Declared in another file of the package
	return e.id(name), true
}

func (e *symbolExtractor) reference(symbolID string, ident *ast.Ident, containerID string) types.Reference {
	pos := e.fset.Position(ident.Pos())
	return types.Reference{
		SymbolID:    symbolID,
		FilePath:    e.filePath,
		Line:        pos.Line,
		Column:      pos.Column,
		ContainerID: containerID,
	}
}

func (e *symbolExtractor) addReference(symbolID string, ident *ast.Ident, containerID string) {
	e.out.AddReference(e.reference(symbolID, ident, containerID))
}

func (e *symbolExtractor) addRelation(source, target string, kind types.RelationKind) {
	if source == target {
		return
	}
	key := types.RelationKey{SourceID: source, TargetID: target, Kind: kind}
	if _, dup := e.relSeen[key]; dup {
		return
	}
	e.relSeen[key] = struct{}{}
	e.out.AddRelation(types.Relation{SourceID: source, TargetID: target, Kind: kind})
}

func (e *symbolExtractor) setPosition(sym *types.Symbol, pos token.Pos) {
	position := e.fset.Position(pos)
	sym.Line = position.Line
	sym.Column = position.Column
}

// extractReceiverType extracts the receiver type name from a method,
// including generic receivers such as *List[T]
func extractReceiverType(expr ast.Expr) string {
	if ident := baseIdent(expr); ident != nil {
		return ident.Name
	}
	return ""
}

// baseIdent strips pointers and type arguments from a type expression
func baseIdent(expr ast.Expr) *ast.Ident {
	switch t := expr.(type) {
	case *ast.Ident:
		return t
	case *ast.StarExpr:
		return baseIdent(t.X)
	case *ast.IndexExpr:
		return baseIdent(t.X)
	case *ast.IndexListExpr:
		return baseIdent(t.X)
	case *ast.ParenExpr:
		return baseIdent(t.X)
	}
	return nil
}

func structFieldNames(structType *ast.StructType) []string {
	if structType.Fields == nil {
		return nil
	}
	var names []string
	for _, field := range structType.Fields.List {
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
	}
	return names
}

// determineScope determines if a symbol is exported or unexported
func determineScope(name string) string {
	if token.IsExported(name) {
		return "exported"
	}
	return "unexported"
}

// extractFunctionSignature builds a function signature string
func (e *symbolExtractor) extractFunctionSignature(funcDecl *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")

	// Add receiver for methods
	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(e.exprToString(funcDecl.Recv.List[0].Type))
		sig.WriteString(") ")
	}

	sig.WriteString(funcDecl.Name.Name)
	if funcDecl.Type.TypeParams != nil {
		sig.WriteString("[")
		sig.WriteString(e.fieldListToString(funcDecl.Type.TypeParams))
		sig.WriteString("]")
	}
	sig.WriteString(e.funcTypeString(funcDecl.Type))

	return sig.String()
}

// funcTypeString renders parameters and results, e.g. "(a int) (string, error)"
func (e *symbolExtractor) funcTypeString(ft *ast.FuncType) string {
	var sig strings.Builder

	sig.WriteString("(")
	sig.WriteString(e.fieldListToString(ft.Params))
	sig.WriteString(")")

	if ft.Results != nil {
		results := e.fieldListToString(ft.Results)
		if results != "" {
			if ft.Results.NumFields() > 1 || len(ft.Results.List[0].Names) > 0 {
				sig.WriteString(" (")
				sig.WriteString(results)
				sig.WriteString(")")
			} else {
				sig.WriteString(" ")
				sig.WriteString(results)
			}
		}
	}

	return sig.String()
}

// extractStructSignature builds a struct signature string
func (e *symbolExtractor) extractStructSignature(name string, structType *ast.StructType) string {
	fieldCount := 0
	if structType.Fields != nil {
		fieldCount = structType.Fields.NumFields()
	}
	return fmt.Sprintf("type %s struct { ... } // %d fields", name, fieldCount)
}

// extractInterfaceSignature builds an interface signature string
func (e *symbolExtractor) extractInterfaceSignature(name string, interfaceType *ast.InterfaceType) string {
	methodCount := 0
	if interfaceType.Methods != nil {
		methodCount = interfaceType.Methods.NumFields()
	}
	return fmt.Sprintf("type %s interface { ... } // %d methods", name, methodCount)
}

// fieldListToString converts a field list to a string representation
func (e *symbolExtractor) fieldListToString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := e.exprToString(field.Type)
		if len(field.Names) > 0 {
			for _, name := range field.Names {
				parts = append(parts, fmt.Sprintf("%s %s", name.Name, typeStr))
			}
		} else {
			parts = append(parts, typeStr)
		}
	}

	return strings.Join(parts, ", ")
}

// exprToString converts a type expression to its short source form
func (e *symbolExtractor) exprToString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + e.exprToString(t.X)
	case *ast.ArrayType:
		if t.Len != nil {
			return "[" + e.exprToString(t.Len) + "]" + e.exprToString(t.Elt)
		}
		return "[]" + e.exprToString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", e.exprToString(t.Key), e.exprToString(t.Value))
	case *ast.ChanType:
		switch t.Dir {
		case ast.SEND:
			return "chan<- " + e.exprToString(t.Value)
		case ast.RECV:
			return "<-chan " + e.exprToString(t.Value)
		}
		return "chan " + e.exprToString(t.Value)
	case *ast.FuncType:
		return "func" + e.funcTypeString(t)
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{ ... }"
	case *ast.StructType:
		return "struct{ ... }"
	case *ast.SelectorExpr:
		return e.exprToString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + e.exprToString(t.Elt)
	case *ast.IndexExpr:
		return e.exprToString(t.X) + "[" + e.exprToString(t.Index) + "]"
	case *ast.IndexListExpr:
		args := make([]string, len(t.Indices))
		for i, idx := range t.Indices {
			args[i] = e.exprToString(idx)
		}
		return e.exprToString(t.X) + "[" + strings.Join(args, ", ") + "]"
	case *ast.BasicLit:
		return t.Value
	case *ast.ParenExpr:
		return "(" + e.exprToString(t.X) + ")"
	default:
		return "..."
	}
}

// extractDocComment extracts documentation from a comment group
func (e *symbolExtractor) extractDocComment(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}
