package runner

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/xkilldash9x/staywright/internal/config"
)

// Strategy selects how target strings are interpreted.
type Strategy string

const (
	ByFile   Strategy = "file"
	ByMarker Strategy = "marker"
	ByName   Strategy = "name"
)

// ParseStrategy accepts file, marker or name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case ByFile, ByMarker, ByName:
		return st, nil
	default:
		return "", fmt.Errorf("%w: run strategy %q is not one of file, marker, name", config.ErrInvalid, s)
	}
}

// Target is what a run executes: each name is run as its own invocation.
type Target struct {
	Strategy Strategy
	Names    []string
}

// NewTarget validates and builds a Target.
func NewTarget(strategy string, names []string) (Target, error) {
	st, err := ParseStrategy(strategy)
	if err != nil {
		return Target{}, err
	}
	t := Target{Strategy: st, Names: append([]string(nil), names...)}
	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}

// Validate checks the target can be run at all.
func (t Target) Validate() error {
	if len(t.Names) == 0 {
		return fmt.Errorf("%w: the list of test targets is empty", config.ErrInvalid)
	}
	for _, n := range t.Names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: empty test target", config.ErrInvalid)
		}
		if t.Strategy == ByFile && !strings.HasSuffix(n, "_test.go") {
			return fmt.Errorf("%w: %q is not a Go test file", config.ErrInvalid, n)
		}
	}
	return nil
}

// selection renders the package and filter arguments of one target name.
// baseTags are the build tags already present in the runner arguments.
func selection(st Strategy, name, root, pkg string, baseTags []string) ([]string, error) {
	switch st {
	case ByName:
		return []string{pkg, "-run", name}, nil
	case ByMarker:
		tags := append(append([]string(nil), baseTags...), strings.Split(name, ",")...)
		return []string{pkg, "-tags=" + strings.Join(tags, ",")}, nil
	case ByFile:
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		tests, err := testFunctions(path)
		if err != nil {
			return nil, err
		}
		if len(tests) == 0 {
			return nil, fmt.Errorf("%w: %s declares no tests", config.ErrInvalid, name)
		}
		dir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil || strings.HasPrefix(dir, "..") {
			return nil, fmt.Errorf("%w: %s is outside the root folder", config.ErrInvalid, name)
		}
		return []string{"./" + filepath.ToSlash(dir), "-run", "^(" + strings.Join(tests, "|") + ")$"}, nil
	default:
		return nil, fmt.Errorf("%w: unknown run strategy %q", config.ErrInvalid, st)
	}
}

// testFunctions lists the top-level TestXxx(t *testing.T) functions of a file
// in declaration order.
func testFunctions(path string) ([]string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("%w: reading test file: %v", config.ErrInvalid, err)
	}
	var names []string
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !isTestName(fn.Name.Name) {
			continue
		}
		if params := fn.Type.Params.List; len(params) != 1 || !isTestingT(params[0].Type) {
			continue
		}
		names = append(names, fn.Name.Name)
	}
	return names, nil
}

func isTestName(name string) bool {
	if name == "TestMain" || !strings.HasPrefix(name, "Test") {
		return false
	}
	rest := name[len("Test"):]
	return rest == "" || !(rest[0] >= 'a' && rest[0] <= 'z')
}

func isTestingT(expr ast.Expr) bool {
	star, ok := expr.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "T"
}

// splitTags removes the -tags flag from args and returns its values.
func splitTags(args []string) (rest, tags []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case strings.HasPrefix(a, "-tags="):
			tags = append(tags, splitList(strings.TrimPrefix(a, "-tags="))...)
		case a == "-tags" && i+1 < len(args):
			tags = append(tags, splitList(args[i+1])...)
			i++
		default:
			rest = append(rest, a)
		}
	}
	return rest, tags
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
