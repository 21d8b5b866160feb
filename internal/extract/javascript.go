package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScript returns the extractor for JavaScript source files.
func JavaScript() Extractor {
	return &treeSitterExtractor{spec: jsSpec(javascript.GetLanguage())}
}

// jsSpec is shared by the JavaScript and TypeScript extractors; the
// TypeScript variant layers its extra declaration kinds on top.
func jsSpec(language *sitter.Language) langSpec {
	return langSpec{
		language: language,

		symbolKind: jsSymbolKind,

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
			case "member_expression":
				if prop := fn.ChildByFieldName("property"); prop != nil {
					return prop.Content(src)
				}
			}
			return ""
		},

		importSource: func(n *sitter.Node, src []byte) string {
			if n.Type() != "import_statement" {
				return ""
			}
			if source := n.ChildByFieldName("source"); source != nil {
				return strings.Trim(source.Content(src), "\"'`")
			}
			return ""
		},

		visibility: func(name string) string {
			if name == "" {
				return ""
			}
			if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "_") {
				return "private"
			}
			return "public"
		},

		doc: precedingComment,
	}
}

func jsSymbolKind(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		return "function"
	case "class_declaration":
		return "class"
	case "method_definition":
		return "method"
	case "variable_declarator":
		// const f = () => {} and friends
		if v := n.ChildByFieldName("value"); v != nil {
			switch v.Type() {
			case "arrow_function", "function_expression", "function":
				return "function"
			}
		}
	}
	return ""
}
