package locator

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language describes how to find functions in one grammar.
type Language struct {
	name          string
	extensions    []string
	language      *sitter.Language
	functionNodes map[string]struct{}
}

// NewLanguage creates a Language.
func NewLanguage(name string, extensions []string, lang *sitter.Language, functionNodes ...string) Language {
	nodes := make(map[string]struct{}, len(functionNodes))
	for _, n := range functionNodes {
		nodes[n] = struct{}{}
	}
	return Language{
		name:          name,
		extensions:    extensions,
		language:      lang,
		functionNodes: nodes,
	}
}

// Name returns the language name.
func (l Language) Name() string { return l.name }

// Extensions returns the file extensions handled by the language.
func (l Language) Extensions() []string { return l.extensions }

// SitterLanguage returns the tree-sitter grammar.
func (l Language) SitterLanguage() *sitter.Language { return l.language }

// IsFunctionNode reports whether nodeType declares a function.
func (l Language) IsFunctionNode(nodeType string) bool {
	_, ok := l.functionNodes[nodeType]
	return ok
}

// Languages indexes languages by file extension.
type Languages struct {
	byExt map[string]Language
}

// NewLanguages creates a registry of every supported language.
func NewLanguages() Languages {
	all := []Language{
		NewLanguage("go", []string{".go"}, golang.GetLanguage(),
			"function_declaration", "method_declaration"),
		NewLanguage("python", []string{".py"}, python.GetLanguage(),
			"function_definition"),
		NewLanguage("java", []string{".java"}, java.GetLanguage(),
			"method_declaration", "constructor_declaration"),
		NewLanguage("kotlin", []string{".kt", ".kts"}, kotlin.GetLanguage(),
			"function_declaration"),
		NewLanguage("javascript", []string{".js", ".jsx", ".mjs", ".cjs"}, javascript.GetLanguage(),
			"function_declaration", "generator_function_declaration", "method_definition", "arrow_function", "function_expression", "function"),
		NewLanguage("typescript", []string{".ts", ".mts", ".cts"}, typescript.GetLanguage(),
			"function_declaration", "generator_function_declaration", "method_definition", "arrow_function", "function_expression", "function"),
		NewLanguage("tsx", []string{".tsx"}, tsx.GetLanguage(),
			"function_declaration", "generator_function_declaration", "method_definition", "arrow_function", "function_expression", "function"),
		NewLanguage("rust", []string{".rs"}, rust.GetLanguage(),
			"function_item"),
		NewLanguage("c", []string{".c", ".h"}, c.GetLanguage(),
			"function_definition"),
		NewLanguage("cpp", []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}, cpp.GetLanguage(),
			"function_definition"),
		NewLanguage("csharp", []string{".cs"}, csharp.GetLanguage(),
			"method_declaration", "constructor_declaration", "local_function_statement"),
	}

	byExt := make(map[string]Language)
	for _, lang := range all {
		for _, ext := range lang.extensions {
			byExt[ext] = lang
		}
	}
	return Languages{byExt: byExt}
}

// ForPath returns the language for a file path.
func (l Languages) ForPath(path string) (Language, bool) {
	lang, ok := l.byExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Extensions returns every supported extension.
func (l Languages) Extensions() []string {
	exts := make([]string, 0, len(l.byExt))
	for ext := range l.byExt {
		exts = append(exts, ext)
	}
	return exts
}
