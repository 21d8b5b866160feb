package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScript returns the extractor for TypeScript source files. It shares
// the JavaScript spec and adds the TypeScript-only declaration kinds.
func TypeScript() Extractor {
	spec := jsSpec(typescript.GetLanguage())

	spec.symbolKind = func(n *sitter.Node, src []byte) string {
		switch n.Type() {
		case "interface_declaration":
			return "interface"
		case "enum_declaration":
			return "enum"
		case "type_alias_declaration":
			return "type"
		case "abstract_class_declaration":
			return "class"
		}
		return jsSymbolKind(n, src)
	}

	return &treeSitterExtractor{spec: spec}
}
