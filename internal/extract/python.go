package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Python returns the extractor for Python source files.
func Python() Extractor {
	return &treeSitterExtractor{spec: langSpec{
		language: python.GetLanguage(),

		symbolKind: func(n *sitter.Node, src []byte) string {
			switch n.Type() {
			case "function_definition":
				if insideClass(n) {
					return "method"
				}
				return "function"
			case "class_definition":
				return "class"
			}
			return ""
		},

		symbolName: nameField,

		callee: func(n *sitter.Node, src []byte) string {
			if n.Type() != "call" {
				return ""
			}
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return ""
			}
			switch fn.Type() {
			case "identifier":
				return fn.Content(src)
			case "attribute":
				if attr := fn.ChildByFieldName("attribute"); attr != nil {
					return attr.Content(src)
				}
			}
			return ""
		},

		importSource: func(n *sitter.Node, src []byte) string {
			switch n.Type() {
			case "import_statement":
				if n.NamedChildCount() > 0 {
					return n.NamedChild(0).Content(src)
				}
			case "import_from_statement":
				if mod := n.ChildByFieldName("module_name"); mod != nil {
					return mod.Content(src)
				}
			}
			return ""
		},

		visibility: func(name string) string {
			if name == "" {
				return ""
			}
			if strings.HasPrefix(name, "_") {
				return "private"
			}
			return "public"
		},

		doc: pythonDocstring,
	}}
}

// insideClass reports whether a definition is lexically nested in a class.
func insideClass(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_definition":
			return true
		case "function_definition":
			return false
		}
	}
	return false
}

// pythonDocstring returns the leading string literal of a definition body.
func pythonDocstring(n *sitter.Node, src []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	text := str.Content(src)
	text = strings.Trim(text, "\"'")
	return strings.TrimSpace(text)
}
