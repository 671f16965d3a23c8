package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/weaverhq/weaver/internal/retrieve"
)

// SaveIndex replaces the persisted chunks and embeddings for a project.
func (s *Store) SaveIndex(projectID string, idx *retrieve.ProjectIndex) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chunks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("store: clear chunks: %w", err)
	}
	for id, c := range idx.Chunks {
		var blob []byte
		if vec, ok := idx.Vectors[id]; ok {
			blob = float32SliceToBlob(vec)
		}
		if _, err := tx.Exec(
			`INSERT INTO chunks (id, project_id, path, chunk_type, name, start_line, end_line, content, imports, exports, embedding, indexed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, projectID, c.File, string(c.Type), c.Name, c.StartLine, c.EndLine, c.Content,
			strings.Join(c.Imports, ","), strings.Join(c.Exports, ","), blob, idx.IndexedAt,
		); err != nil {
			return fmt.Errorf("store: save chunk %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	if s.hasVec {
		s.upsertVecRows(projectID, idx)
	}
	return nil
}

// upsertVecRows mirrors embeddings into the vec0 table. Failures degrade
// silently; the blob column remains authoritative.
func (s *Store) upsertVecRows(projectID string, idx *retrieve.ProjectIndex) {
	for id, c := range idx.Chunks {
		vec := idx.Vectors[id]
		if len(vec) == 0 {
			continue
		}
		_, _ = s.conn.Exec(
			`INSERT INTO vec_chunks (id, embedding) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET embedding = excluded.embedding`,
			c.ID, float32SliceToBlob(vec),
		)
	}
}

// LoadIndex restores a project's persisted index. ok is false when
// nothing was stored.
func (s *Store) LoadIndex(projectID string) (*retrieve.ProjectIndex, bool, error) {
	rows, err := s.conn.Query(
		`SELECT id, path, chunk_type, name, start_line, end_line, content, imports, exports, embedding, indexed_at
		 FROM chunks WHERE project_id = ? ORDER BY path, start_line`,
		projectID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("store: query chunks: %w", err)
	}
	defer rows.Close()

	idx := &retrieve.ProjectIndex{
		ProjectID: projectID,
		Chunks:    make(map[string]retrieve.Chunk),
		Vectors:   make(map[string][]float32),
	}
	for rows.Next() {
		var c retrieve.Chunk
		var chunkType, imports, exports string
		var blob []byte
		var indexedAt time.Time
		if err := rows.Scan(&c.ID, &c.File, &chunkType, &c.Name, &c.StartLine, &c.EndLine, &c.Content, &imports, &exports, &blob, &indexedAt); err != nil {
			return nil, false, fmt.Errorf("store: scan chunk: %w", err)
		}
		c.Type = retrieve.ChunkType(chunkType)
		c.Imports = splitList(imports)
		c.Exports = splitList(exports)
		idx.Chunks[c.ID] = c
		if vec := blobToFloat32Slice(blob); vec != nil {
			idx.Vectors[c.ID] = vec
		}
		idx.IndexedAt = indexedAt
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("store: iterate chunks: %w", err)
	}
	if len(idx.Chunks) == 0 {
		return nil, false, nil
	}
	return idx, true, nil
}

// float32SliceToBlob serialises to the little-endian layout sqlite-vec
// expects for BLOB input.
func float32SliceToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func blobToFloat32Slice(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
