package extract

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Go returns the extractor for Go source files.
func Go() Extractor {
	return &treeSitterExtractor{spec: langSpec{
		language: golang.GetLanguage(),

		symbolKind: func(n *sitter.Node, src []byte) string {
			switch n.Type() {
			case "function_declaration":
				return "function"
			case "method_declaration":
				return "method"
			case "type_spec":
				if t := n.ChildByFieldName("type"); t != nil {
					switch t.Type() {
					case "struct_type":
						return "struct"
					case "interface_type":
						return "interface"
					}
				}
				return "type"
			}
			return ""
		},

		symbolName: nameField,

		callee: func(n *sitter.Node, src []byte) string {
			if n.Type() != "call_expression" {
				return ""
			}
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return ""
			}
			switch fn.Type() {
			case "identifier":
				return fn.Content(src)
			case "selector_expression":
				if field := fn.ChildByFieldName("field"); field != nil {
					return field.Content(src)
				}
			}
			return ""
		},

		importSource: func(n *sitter.Node, src []byte) string {
			if n.Type() != "import_spec" {
				return ""
			}
			if path := n.ChildByFieldName("path"); path != nil {
				return strings.Trim(path.Content(src), "`\"")
			}
			return ""
		},

		visibility: func(name string) string {
			if name == "" {
				return ""
			}
			if unicode.IsUpper([]rune(name)[0]) {
				return "public"
			}
			return "private"
		},

		doc: precedingComment,
	}}
}
