package retrieve

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/weaverhq/weaver/internal/cache"
	"github.com/weaverhq/weaver/internal/embed"
)

// DefaultMaxIndexes bounds how many project indexes are retained in memory.
const DefaultMaxIndexes = 50

// ProjectIndex holds all chunks and embeddings for one project. It is
// always replaced in full, never patched.
type ProjectIndex struct {
	ProjectID string
	Chunks    map[string]Chunk
	Vectors   map[string][]float32
	IndexedAt time.Time
}

// ChunkCount returns the number of indexed chunks.
func (ix *ProjectIndex) ChunkCount() int { return len(ix.Chunks) }

// Indexer builds and caches project indexes. Reindexing the same project
// is serialized; different projects proceed independently.
type Indexer struct {
	embedder *embed.Resilient
	indexes  *cache.LRU[string, *ProjectIndex]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewIndexer creates an Indexer retaining at most maxIndexes projects.
func NewIndexer(embedder *embed.Resilient, maxIndexes int) *Indexer {
	if maxIndexes <= 0 {
		maxIndexes = DefaultMaxIndexes
	}
	return &Indexer{
		embedder: embedder,
		indexes:  cache.NewLRU[string, *ProjectIndex](maxIndexes, nil),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Reindex chunks and embeds the given files, replacing any previous index
// for the project wholesale. An empty file set produces an empty index.
func (ix *Indexer) Reindex(ctx context.Context, projectID string, files []File) (*ProjectIndex, error) {
	lock := ix.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	index := &ProjectIndex{
		ProjectID: projectID,
		Chunks:    make(map[string]Chunk),
		Vectors:   make(map[string][]float32),
		IndexedAt: time.Now(),
	}

	var ids []string
	var texts []string
	for _, f := range files {
		for _, c := range ChunkFile(f) {
			index.Chunks[c.ID] = c
			ids = append(ids, c.ID)
			texts = append(texts, serializeChunk(c))
		}
	}

	if len(texts) > 0 {
		// The resilient embedder preserves batch order and never fails.
		vecs, err := ix.embedder.Embed(ctx, texts)
		if err == nil && len(vecs) == len(ids) {
			for i, id := range ids {
				index.Vectors[id] = vecs[i]
			}
		}
	}

	ix.indexes.Put(projectID, index)
	return index, nil
}

// Index returns the cached index for a project, if any.
func (ix *Indexer) Index(projectID string) (*ProjectIndex, bool) {
	return ix.indexes.Get(projectID)
}

// Evict drops a project's index.
func (ix *Indexer) Evict(projectID string) {
	ix.indexes.Delete(projectID)
}

// IndexCount reports how many project indexes are cached.
func (ix *Indexer) IndexCount() int {
	return ix.indexes.Len()
}

func (ix *Indexer) projectLock(projectID string) *sync.Mutex {
	ix.locksMu.Lock()
	defer ix.locksMu.Unlock()
	lock, ok := ix.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		ix.locks[projectID] = lock
	}
	return lock
}

// serializeChunk builds the embedding input: path, type, exports, imports,
// then the body. Identifier context first so weak embeddings still carry
// the file's naming signal.
func serializeChunk(c Chunk) string {
	var sb strings.Builder
	sb.WriteString(c.File)
	sb.WriteString(" ")
	sb.WriteString(string(c.Type))
	if c.Name != "" {
		sb.WriteString(" ")
		sb.WriteString(c.Name)
	}
	if len(c.Exports) > 0 {
		sb.WriteString(" exports: ")
		sb.WriteString(strings.Join(c.Exports, " "))
	}
	if len(c.Imports) > 0 {
		sb.WriteString(" imports: ")
		sb.WriteString(strings.Join(c.Imports, " "))
	}
	sb.WriteString("\n")
	sb.WriteString(c.Content)
	return sb.String()
}
