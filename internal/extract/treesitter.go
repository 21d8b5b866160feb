package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// langSpec configures the generic tree-sitter extractor for one language.
// Each hook classifies or reads one kind of node; returning "" means the
// node is not of interest and the walk continues into its children.
type langSpec struct {
	language *sitter.Language

	// symbolKind maps a definition node to its symbol kind.
	symbolKind func(n *sitter.Node, src []byte) string
	// symbolName extracts the definition's name.
	symbolName func(n *sitter.Node, src []byte) string
	// callee extracts the called name from a call node.
	callee func(n *sitter.Node, src []byte) string
	// importSource extracts the imported module/path from an import node.
	importSource func(n *sitter.Node, src []byte) string
	// visibility derives a visibility from a symbol name.
	visibility func(name string) string
	// doc extracts the docstring/comment for a definition node. Optional.
	doc func(n *sitter.Node, src []byte) string
}

// treeSitterExtractor walks a parsed syntax tree, applying the language
// spec's hooks at every named node.
type treeSitterExtractor struct {
	spec langSpec
}

func (e *treeSitterExtractor) Extract(path string, content []byte) (*Result, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.spec.language)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	res := &Result{}
	e.walk(tree.RootNode(), content, "", &res.Symbols, res)
	return res, nil
}

// walk visits named children of n. caller is the nearest enclosing symbol
// name; out receives symbols at this nesting level.
func (e *treeSitterExtractor) walk(n *sitter.Node, src []byte, caller string, out *[]Symbol, res *Result) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)

		if kind := e.spec.symbolKind(child, src); kind != "" {
			sym := Symbol{
				Name:      e.spec.symbolName(child, src),
				Kind:      kind,
				Signature: signature(child, src),
				StartLine: int(child.StartPoint().Row) + 1,
				EndLine:   int(child.EndPoint().Row) + 1,
			}
			if e.spec.visibility != nil {
				sym.Visibility = e.spec.visibility(sym.Name)
			}
			if e.spec.doc != nil {
				sym.Doc = e.spec.doc(child, src)
			}
			e.walk(child, src, sym.Name, &sym.Children, res)
			*out = append(*out, sym)
			continue
		}

		if callee := e.spec.callee(child, src); callee != "" {
			res.Calls = append(res.Calls, CallSite{
				Caller: caller,
				Callee: callee,
				Line:   int(child.StartPoint().Row) + 1,
			})
			// Arguments may contain further calls.
			e.walk(child, src, caller, out, res)
			continue
		}

		if source := e.spec.importSource(child, src); source != "" {
			res.Imports = append(res.Imports, Import{
				Source: source,
				Line:   int(child.StartPoint().Row) + 1,
			})
			continue
		}

		e.walk(child, src, caller, out, res)
	}
}

// signature returns the declaration header: everything from the node start
// up to its body, or the first line when the node has no body field.
func signature(n *sitter.Node, src []byte) string {
	if body := n.ChildByFieldName("body"); body != nil && body.StartByte() > n.StartByte() {
		return strings.TrimSpace(string(src[n.StartByte():body.StartByte()]))
	}
	text := string(src[n.StartByte():n.EndByte()])
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// nameField reads the conventional "name" field of a definition node.
func nameField(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

// precedingComment collects the run of comment lines directly above a
// definition, with comment markers stripped. A definition wrapped in a
// single-child declaration node (a Go type_spec inside its type_declaration,
// a JS variable_declarator inside its lexical_declaration) has its comment
// beside the wrapper, so climb out of those before scanning siblings.
func precedingComment(n *sitter.Node, src []byte) string {
	for n.PrevNamedSibling() == nil && n.Parent() != nil && n.Parent().NamedChildCount() == 1 {
		n = n.Parent()
	}

	var lines []string
	row := int(n.StartPoint().Row)

	for prev := n.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if prev.Type() != "comment" || int(prev.EndPoint().Row) != row-1 {
			break
		}
		lines = append([]string{stripCommentMarkers(prev.Content(src))}, lines...)
		row = int(prev.StartPoint().Row)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripCommentMarkers(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	case strings.HasPrefix(text, "#"):
		text = strings.TrimPrefix(text, "#")
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	}
	return strings.TrimSpace(text)
}
