package arch_test

import (
	"go/ast"
	"go/token"
	"strings"
	"testing"
)

// allowedGlobals names package-level vars that are deliberately shared state.
var allowedGlobals = map[string]map[string]bool{
	// The process-wide logrus logger, configured once by Setup.
	"logging": {"log": true},
}

// allowedGlobalPrefixes treats every var with one of these prefixes as
// constant-like.
var allowedGlobalPrefixes = map[string][]string{
	// lipgloss styles and colors are built once and only read.
	"tui": {"style", "color"},
}

// TestNoMutableGlobalState rejects package-level vars unless they are error
// sentinels, literal lookup tables, sync primitives, compiled regexps,
// interface assertions or explicitly allowed.
func TestNoMutableGlobalState(t *testing.T) {
	t.Parallel()

	for _, pkg := range packages(t) {
		for _, rel := range pkg.sortedFiles() {
			for _, v := range packageVars(pkg.Files[rel]) {
				if !globalAllowed(pkg.Name, v.name, v.typ, v.val) {
					t.Errorf("%s: package-level var %s holds mutable state; pass it explicitly instead", rel, v.name)
				}
			}
		}
	}
}

type packageVar struct {
	name     string
	typ, val ast.Expr
}

func packageVars(f *ast.File) []packageVar {
	var out []packageVar
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				v := packageVar{name: name.Name, typ: vs.Type}
				if i < len(vs.Values) {
					v.val = vs.Values[i]
				}
				out = append(out, v)
			}
		}
	}
	return out
}

func TestAllowedGlobalsExist(t *testing.T) {
	t.Parallel()

	declared := make(map[string]map[string]bool)
	for _, pkg := range packages(t) {
		declared[pkg.Name] = make(map[string]bool)
		for _, f := range pkg.Files {
			for _, v := range packageVars(f) {
				declared[pkg.Name][v.name] = true
			}
		}
	}
	for pkg, names := range allowedGlobals {
		for name := range names {
			if !declared[pkg][name] {
				t.Errorf("allowedGlobals[%q] lists %s, which is no longer declared", pkg, name)
			}
		}
	}
}

func globalAllowed(pkg, name string, typ, val ast.Expr) bool {
	if name == "_" || allowedGlobals[pkg][name] {
		return true
	}
	for _, p := range allowedGlobalPrefixes[pkg] {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	if id, ok := typ.(*ast.Ident); ok && id.Name == "error" {
		return true
	}
	if sel, ok := typ.(*ast.SelectorExpr); ok {
		if x, ok := sel.X.(*ast.Ident); ok && (x.Name == "sync" || x.Name == "atomic") {
			return true
		}
	}
	switch v := val.(type) {
	case *ast.BasicLit, *ast.CompositeLit:
		return true
	case *ast.CallExpr:
		switch callee(v) {
		case "errors.New", "fmt.Errorf", "regexp.MustCompile":
			return true
		}
	}
	return false
}

// callee returns "pkg.Func" for a qualified call, or "".
func callee(call *ast.CallExpr) string {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return ""
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return ""
	}
	return x.Name + "." + sel.Sel.Name
}

func TestGlobalAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  ast.Expr
		val  ast.Expr
		want bool
	}{
		{"sentinel", nil, call("errors", "New"), true},
		{"lookup table", nil, &ast.CompositeLit{}, true},
		{"mutex", &ast.SelectorExpr{X: ast.NewIdent("sync"), Sel: ast.NewIdent("Mutex")}, nil, true},
		{"cache", nil, call("lru", "New"), false},
		{"made map", nil, &ast.CallExpr{Fun: ast.NewIdent("make")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := globalAllowed("store", "v", tt.typ, tt.val); got != tt.want {
				t.Errorf("globalAllowed(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func call(pkg, fn string) *ast.CallExpr {
	return &ast.CallExpr{Fun: &ast.SelectorExpr{X: ast.NewIdent(pkg), Sel: ast.NewIdent(fn)}}
}
