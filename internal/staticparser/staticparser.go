// Package staticparser implements discovery without execution (spec.md
// §4.7, C8): it recognises the DSL call surface syntactically using the
// standard library's own Go parser, since spec scripts are ordinary Go
// source (internal/scripthost renders them as statements inside a Define
// function). No third-party parsing library in the example corpus targets
// Go-source-as-data, so go/parser + go/ast is the justified stdlib
// exception recorded in DESIGN.md.
package staticparser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// Node mirrors the shape of a frozen spec tree minus executable bodies
// (spec.md §4.7: "produces the same shape of tree... with source-file path
// and line number for each node").
type Node struct {
	Description string
	SourceFile  string
	SourceLine  int
	Focused     bool
	Skipped     bool
	Pending     bool
	Tags        []string
	Children    []*Node
	Specs       []*Node
}

// FileResult is one script's discovery outcome. A parse failure is carried
// as Error rather than aborting the whole run (spec.md §4.7: "a malformed
// file surfaces as a single error entry rather than aborting the discovery
// run").
type FileResult struct {
	Path  string
	Root  *Node
	Error error
}

// dslCalls recognised at the top level of a script's statement list and
// inside any func literal passed to Describe/Context (spec.md §4.7: "matching
// describe/it/fit/xit/tag/withData call shapes").
const (
	callDescribe = "Describe"
	callContext  = "Context"
	callIt       = "It"
	callFIt      = "FIt"
	callXIt      = "XIt"
	callTag      = "Tag"
	callTags     = "Tags"
	callWithData = "WithData"
)

// DiscoverFile statically parses path and returns its discovery tree. The
// wrapping `func Define() { ... }` that internal/scripthost.render produces
// is not required here — this also tolerates raw, unrendered script
// fragments containing only the directive-stripped statement body, by
// wrapping content in a synthetic function during parsing.
func DiscoverFile(path string, source []byte) FileResult {
	wrapped := append([]byte("package main\nfunc Define() {\n"), source...)
	wrapped = append(wrapped, []byte("\n}\n")...)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, wrapped, parser.ParseComments)
	if err != nil {
		return FileResult{Path: path, Error: err}
	}

	root := &Node{Description: path}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != "Define" || fn.Body == nil {
			continue
		}
		walkStmts(fset, fn.Body.List, root)
	}

	return FileResult{Path: path, Root: root}
}

// walkStmts scans a statement list for top-level DSL calls and attaches
// discovered nodes to parent.
func walkStmts(fset *token.FileSet, stmts []ast.Stmt, parent *Node) {
	for _, stmt := range stmts {
		expr, ok := stmt.(*ast.ExprStmt)
		if !ok {
			continue
		}
		call, ok := expr.X.(*ast.CallExpr)
		if !ok {
			continue
		}
		handleCall(fset, call, parent)
	}
}

func handleCall(fset *token.FileSet, call *ast.CallExpr, parent *Node) {
	name := calleeName(call)
	pos := fset.Position(call.Pos())

	switch name {
	case callDescribe, callContext:
		desc, ok := stringLiteral(firstArg(call))
		if !ok {
			return
		}
		node := &Node{Description: desc, SourceFile: pos.Filename, SourceLine: pos.Line}
		parent.Children = append(parent.Children, node)
		if body := funcLitBody(call); body != nil {
			walkStmts(fset, body.List, node)
		}

	case callIt, callFIt, callXIt:
		desc, ok := stringLiteral(firstArg(call))
		if !ok {
			return
		}
		node := &Node{
			Description: desc,
			SourceFile:  pos.Filename,
			SourceLine:  pos.Line,
			Focused:     name == callFIt,
			Skipped:     name == callXIt,
			Pending:     len(call.Args) < 2,
		}
		parent.Specs = append(parent.Specs, node)

	case callTag:
		if tag, ok := stringLiteral(firstArg(call)); ok {
			parent.Tags = append(parent.Tags, tag)
		}

	case callTags:
		for _, arg := range call.Args {
			if tag, ok := stringLiteral(arg); ok {
				parent.Tags = append(parent.Tags, tag)
			}
		}

	case callWithData:
		// First arg is the description template; second is the literal row
		// slice when statically enumerable (spec.md §4.7: "the table-driven
		// expansion when rows are literal").
		if len(call.Args) < 2 {
			return
		}
		tmpl, ok := stringLiteral(call.Args[0])
		if !ok {
			return
		}
		rows, ok := call.Args[1].(*ast.CompositeLit)
		if !ok {
			return
		}
		for range rows.Elts {
			parent.Specs = append(parent.Specs, &Node{
				Description: tmpl,
				SourceFile:  pos.Filename,
				SourceLine:  pos.Line,
			})
		}
	}
}

func calleeName(call *ast.CallExpr) string {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return ""
	}
	return sel.Sel.Name
}

func firstArg(call *ast.CallExpr) ast.Expr {
	if len(call.Args) == 0 {
		return nil
	}
	return call.Args[0]
}

func stringLiteral(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	unquoted, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return unquoted, true
}

// funcLitBody returns the block of the last argument if it is a func
// literal (Describe/Context's body parameter).
func funcLitBody(call *ast.CallExpr) *ast.BlockStmt {
	if len(call.Args) == 0 {
		return nil
	}
	lit, ok := call.Args[len(call.Args)-1].(*ast.FuncLit)
	if !ok {
		return nil
	}
	return lit.Body
}
