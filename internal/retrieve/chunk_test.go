package retrieve

import (
	"strings"
	"testing"
)

const sampleTSX = `import React from 'react'
import { fetchItems } from './api'

export function Dashboard() {
  const items = fetchItems()
  return <div>{items.length}</div>
}

export function useItems() {
  return fetchItems()
}

class ItemStore {
  items = []
}
`

func TestChunkFile_DetectsDeclarations(t *testing.T) {
	chunks := ChunkFile(File{Path: "src/Dashboard.tsx", Content: sampleTSX})

	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}

	byName := map[string]Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
	}

	if c, ok := byName["Dashboard"]; !ok || c.Type != ChunkComponent {
		t.Errorf("Dashboard chunk: %+v", byName["Dashboard"])
	}
	if c, ok := byName["useItems"]; !ok || c.Type != ChunkHook {
		t.Errorf("useItems chunk: %+v", byName["useItems"])
	}
	if c, ok := byName["ItemStore"]; !ok || c.Type != ChunkClass {
		t.Errorf("ItemStore chunk: %+v", byName["ItemStore"])
	}
}

func TestChunkFile_RecordsReferencedImportsOnly(t *testing.T) {
	chunks := ChunkFile(File{Path: "src/Dashboard.tsx", Content: sampleTSX})

	var dashboard Chunk
	for _, c := range chunks {
		if c.Name == "Dashboard" {
			dashboard = c
		}
	}

	foundFetch := false
	for _, imp := range dashboard.Imports {
		if imp == "fetchItems" {
			foundFetch = true
		}
		if imp == "React" {
			t.Error("Dashboard chunk records React import it never references")
		}
	}
	if !foundFetch {
		t.Errorf("Dashboard imports = %v, want fetchItems", dashboard.Imports)
	}
}

func TestChunkFile_RouteDetection(t *testing.T) {
	src := `const express = require('express')

app.get('/api/items', (req, res) => {
  res.json([])
})

app.post('/api/items', (req, res) => {
  res.status(201).end()
})
`
	chunks := ChunkFile(File{Path: "server.js", Content: src})

	routes := 0
	for _, c := range chunks {
		if c.Type == ChunkRoute {
			routes++
		}
	}
	if routes != 2 {
		t.Errorf("route chunks = %d, want 2", routes)
	}
}

func TestChunkFile_FallbackBlocks(t *testing.T) {
	var content string
	for i := 0; i < 100; i++ {
		content += "plain text line with no declarations at all\n"
	}
	chunks := ChunkFile(File{Path: "notes.txt", Content: content})

	if len(chunks) == 0 {
		t.Fatal("file without declarations must still produce block chunks")
	}
	for _, c := range chunks {
		if c.Type != ChunkBlock {
			t.Errorf("chunk type = %s, want block", c.Type)
		}
	}
	last := chunks[len(chunks)-1]
	if last.EndLine < 100 {
		t.Errorf("last block ends at %d, want coverage through line 100", last.EndLine)
	}
}

func TestChunkFile_HeaderFoldsIntoFirstChunk(t *testing.T) {
	src := `import { api } from './api'

const retryLimit = 5

export function loadItems() {
  return api.get('/items')
}

export function saveItems(items) {
  return api.post('/items', items)
}
`
	chunks := ChunkFile(File{Path: "src/items.ts", Content: src})
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}

	first := chunks[0]
	if first.StartLine != 1 {
		t.Errorf("first chunk starts at %d, want 1", first.StartLine)
	}
	if !strings.Contains(first.Content, "retryLimit") {
		t.Errorf("file-level constant missing from first chunk:\n%s", first.Content)
	}
	if !strings.Contains(first.Content, "import { api }") {
		t.Errorf("import lines missing from first chunk:\n%s", first.Content)
	}
	for _, c := range chunks {
		for _, imp := range c.Imports {
			if imp != "api" {
				t.Errorf("chunk %s imports = %v", c.Name, c.Imports)
			}
		}
	}
}

func TestChunkFile_LineRanges(t *testing.T) {
	chunks := ChunkFile(File{Path: "src/Dashboard.tsx", Content: sampleTSX})
	for _, c := range chunks {
		if c.StartLine < 1 || c.EndLine < c.StartLine {
			t.Errorf("bad range %d-%d for %s", c.StartLine, c.EndLine, c.Name)
		}
	}
}

func TestChunkFile_Exports(t *testing.T) {
	chunks := ChunkFile(File{Path: "src/Dashboard.tsx", Content: sampleTSX})
	var dashboard Chunk
	for _, c := range chunks {
		if c.Name == "Dashboard" {
			dashboard = c
		}
	}
	if len(dashboard.Exports) == 0 || dashboard.Exports[0] != "Dashboard" {
		t.Errorf("exports = %v, want [Dashboard]", dashboard.Exports)
	}
}
