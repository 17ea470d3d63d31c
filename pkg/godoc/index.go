// Package godoc recovers function documentation from Go source, since
// func values carry no doc strings at runtime.
package godoc

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

// Index maps function names to their doc comments
type Index struct {
	docs map[string]string
}

// Parse indexes the doc comment of every top-level func in src.
// Methods are keyed "Type.Method" with pointer receivers dereferenced.
func Parse(filename string, src []byte) (*Index, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	idx := &Index{docs: make(map[string]string)}
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Doc == nil {
			continue
		}
		idx.docs[funcKey(fd)] = strings.TrimSpace(fd.Doc.Text())
	}
	return idx, nil
}

// Merge copies every entry of other into idx, other winning on conflict
func (idx *Index) Merge(other *Index) {
	for k, v := range other.docs {
		idx.docs[k] = v
	}
}

// Doc returns the doc comment for name, or "" when undocumented
func (idx *Index) Doc(name string) string {
	return idx.docs[name]
}

// Names lists documented functions in sorted order
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.docs))
	for name := range idx.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns fn's metadata with the indexed documentation filled in
func (idx *Index) Describe(fn any) calltimer.Metadata {
	meta := calltimer.MetadataOf(fn)
	return meta.WithDoc(idx.Doc(lookupName(meta.Name)))
}

func funcKey(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return fd.Name.Name
	}
	return receiverName(fd.Recv.List[0].Type) + "." + fd.Name.Name
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

// lookupName maps a runtime short name like "(*T).M" to an index key "T.M"
func lookupName(name string) string {
	name = strings.TrimPrefix(name, "(*")
	return strings.Replace(name, ").", ".", 1)
}
