// Package retrieve indexes candidate source files into semantic chunks,
// embeds them, and selects the most relevant code under a token budget.
package retrieve

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ChunkType classifies the declaration a chunk was cut at.
type ChunkType string

const (
	ChunkFunction  ChunkType = "function"
	ChunkClass     ChunkType = "class"
	ChunkInterface ChunkType = "interface"
	ChunkRoute     ChunkType = "route"
	ChunkComponent ChunkType = "component"
	ChunkHook      ChunkType = "hook"
	ChunkBlock     ChunkType = "block"
)

// File is one candidate source file supplied by the caller.
type File struct {
	Path    string
	Content string
}

// Chunk is a contiguous, semantically meaningful unit of source plus the
// import/export footprint it actually references.
type Chunk struct {
	ID        string
	File      string
	Type      ChunkType
	Name      string
	StartLine int // 1-based
	EndLine   int // 1-based, inclusive
	Content   string
	Imports   []string
	Exports   []string
}

// boundaryRule is one entry of the ordered declaration-detection table.
// Earlier rules win when several match the same line.
type boundaryRule struct {
	kind    ChunkType
	pattern *regexp.Regexp
}

// Ordered: the most specific shapes first so a route handler is not
// misfiled as a plain function and a hook is not misfiled as a component.
var boundaryRules = []boundaryRule{
	{ChunkRoute, regexp.MustCompile(`^\s*(?:app|router|server)\.(?:get|post|put|patch|delete|use)\s*\(\s*['"]([^'"]+)['"]`)},
	{ChunkHook, regexp.MustCompile(`^\s*(?:export\s+)?(?:function\s+|const\s+)(use[A-Z]\w*)`)},
	{ChunkComponent, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:function\s+|const\s+)([A-Z]\w*)\s*[=(]`)},
	{ChunkClass, regexp.MustCompile(`^\s*(?:export\s+)?(?:abstract\s+)?class\s+(\w+)`)},
	{ChunkInterface, regexp.MustCompile(`^\s*(?:export\s+)?(?:interface|type)\s+(\w+)`)},
	{ChunkFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)},
	{ChunkFunction, regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\(`)},
	{ChunkFunction, regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`)},
	{ChunkFunction, regexp.MustCompile(`^\s*def\s+(\w+)\s*\(`)},
}

var (
	importLinePattern = regexp.MustCompile(`^\s*import\s+(?:.*\s+from\s+)?['"]([^'"]+)['"]`)
	importNamePattern = regexp.MustCompile(`import\s+(?:\{([^}]*)\}|(\w+))`)
	exportPattern     = regexp.MustCompile(`^\s*export\s+(?:default\s+)?(?:const|function|class|interface|type|async\s+function)?\s*(\w+)?`)
)

// fallbackBlockLines is the slice size for files with no detectable
// declarations, so every file stays searchable.
const fallbackBlockLines = 40

// ChunkFile splits a file at declaration boundaries. Files with no
// detectable declarations are sliced into fixed-size line blocks.
func ChunkFile(f File) []Chunk {
	lines := strings.Split(f.Content, "\n")
	imports := fileImports(lines)

	type boundary struct {
		line int
		kind ChunkType
		name string
	}
	var boundaries []boundary
	for i, line := range lines {
		for _, rule := range boundaryRules {
			if m := rule.pattern.FindStringSubmatch(line); m != nil {
				name := ""
				if len(m) > 1 {
					name = m[1]
				}
				boundaries = append(boundaries, boundary{line: i, kind: rule.kind, name: name})
				break
			}
		}
	}

	if len(boundaries) == 0 {
		return blockChunks(f, lines, imports)
	}

	var chunks []Chunk
	for i, b := range boundaries {
		start := b.line
		if i == 0 {
			// Leading lines before the first declaration (imports,
			// file-level constants) join the first chunk so they stay
			// searchable.
			start = 0
		}
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].line
		}
		body := strings.Join(lines[start:end], "\n")
		// Import references count only from the declaration down, so a
		// folded header's own import lines do not register as uses.
		refBody := body
		if start != b.line {
			refBody = strings.Join(lines[b.line:end], "\n")
		}
		chunks = append(chunks, Chunk{
			ID:        chunkID(f.Path, start+1),
			File:      f.Path,
			Type:      b.kind,
			Name:      b.name,
			StartLine: start + 1,
			EndLine:   end,
			Content:   body,
			Imports:   referencedImports(refBody, imports),
			Exports:   chunkExports(lines[start:end]),
		})
	}

	return chunks
}

func blockChunks(f File, lines []string, imports map[string]string) []Chunk {
	var chunks []Chunk
	for start := 0; start < len(lines); start += fallbackBlockLines {
		end := start + fallbackBlockLines
		if end > len(lines) {
			end = len(lines)
		}
		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:        chunkID(f.Path, start+1),
			File:      f.Path,
			Type:      ChunkBlock,
			StartLine: start + 1,
			EndLine:   end,
			Content:   body,
			Imports:   referencedImports(body, imports),
			Exports:   chunkExports(lines[start:end]),
		})
	}
	return chunks
}

// fileImports maps imported identifier -> module path for the whole file.
func fileImports(lines []string) map[string]string {
	imports := make(map[string]string)
	for _, line := range lines {
		pathMatch := importLinePattern.FindStringSubmatch(line)
		if pathMatch == nil {
			continue
		}
		module := pathMatch[1]
		nameMatch := importNamePattern.FindStringSubmatch(line)
		if nameMatch == nil {
			continue
		}
		if nameMatch[1] != "" {
			for _, n := range strings.Split(nameMatch[1], ",") {
				n = strings.TrimSpace(n)
				if idx := strings.Index(n, " as "); idx >= 0 {
					n = strings.TrimSpace(n[idx+4:])
				}
				if n != "" {
					imports[n] = module
				}
			}
		} else if nameMatch[2] != "" {
			imports[nameMatch[2]] = module
		}
	}
	return imports
}

// referencedImports keeps only the imported names the chunk body actually
// uses.
func referencedImports(body string, imports map[string]string) []string {
	var out []string
	for name := range imports {
		if containsIdentifier(body, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func chunkExports(lines []string) []string {
	var out []string
	for _, line := range lines {
		if m := exportPattern.FindStringSubmatch(line); m != nil && len(m) > 1 && m[1] != "" {
			out = append(out, m[1])
		}
	}
	return out
}

func containsIdentifier(body, name string) bool {
	idx := 0
	for {
		i := strings.Index(body[idx:], name)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(body[i-1])
		afterIdx := i + len(name)
		after := afterIdx >= len(body) || !isWordByte(body[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(name)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func chunkID(path string, startLine int) string {
	return fmt.Sprintf("%s:%d", path, startLine)
}
