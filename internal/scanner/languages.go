package scanner

import (
	"path/filepath"
	"strings"
)

// LanguageForFile returns the language name for a file path, or "" for
// extensions we do not index.
func LanguageForFile(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".rb":
		return "ruby"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".jsx":
		return "jsx"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".kt":
		return "kotlin"
	case ".cs":
		return "csharp"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".hpp":
		return "cpp"
	case ".swift":
		return "swift"
	case ".php":
		return "php"
	case ".vue":
		return "vue"
	case ".svelte":
		return "svelte"
	case ".css", ".scss", ".sass":
		return "css"
	case ".sql":
		return "sql"
	case ".sh", ".bash":
		return "bash"
	}
	return ""
}

// Kind buckets drive what gets indexed: code always, tests optionally,
// everything else skipped.
const (
	KindCode   = "code"
	KindTest   = "test"
	KindConfig = "config"
	KindDocs   = "docs"
)

// FileKind classifies a file by its role in the project.
func FileKind(path string) string {
	name := filepath.Base(path)
	dir := filepath.Base(filepath.Dir(path))

	switch {
	case hasSuffix(name, "_test.go", "_spec.rb", ".test.ts", ".test.js", ".test.tsx", ".spec.ts", ".spec.js"):
		return KindTest
	case dir == "test" || dir == "tests" || dir == "spec" || dir == "__tests__":
		return KindTest
	case hasSuffix(name, ".yaml", ".yml", ".toml", ".json") || name == "Dockerfile" || name == "Makefile":
		return KindConfig
	case hasSuffix(name, ".md", ".mdx"):
		return KindDocs
	}
	return KindCode
}

func hasSuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
