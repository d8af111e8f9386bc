package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xhad/newsrag/internal/models"
)

// DefaultIndexPath is the fixed location of the index directory,
// relative to the working directory.
const DefaultIndexPath = "index"

const dbFileName = "index.db"

// Embedder turns texts into embedding vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStoreConfig struct {
	IndexPath   string
	SearchLimit int
}

// VectorStore owns the persistent on-disk index: a SQLite database
// holding each chunk's text, source URL and embedding. It assumes a
// single process has the index open at a time.
type VectorStore struct {
	config   VectorStoreConfig
	db       *sql.DB
	embedder Embedder
}

const schema = `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`

func NewWithConfig(config VectorStoreConfig, embedder Embedder) (*VectorStore, error) {
	if config.IndexPath == "" {
		config.IndexPath = DefaultIndexPath
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	if err := os.MkdirAll(config.IndexPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(config.IndexPath, dbFileName)+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return &VectorStore{
		config:   config,
		db:       db,
		embedder: embedder,
	}, nil
}

// IndexExists reports whether an index directory is present on disk.
func IndexExists(indexPath string) bool {
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}
	_, err := os.Stat(filepath.Join(indexPath, dbFileName))
	return err == nil
}

// Add embeds the chunks in one batch call and stores them, replacing
// everything previously held for each source URL in the batch. An
// article that shrank since its last processing leaves no stale tail
// chunks behind.
func (vs *VectorStore) Add(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := vs.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(chunks), len(vectors))
	}

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if seen[chunk.SourceURL] {
			continue
		}
		seen[chunk.SourceURL] = true
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source_url = ?`, chunk.SourceURL); err != nil {
			return fmt.Errorf("failed to drop existing chunks: %w", err)
		}
	}

	stmt := `
		INSERT INTO chunks (id, source_url, chunk_index, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			created_at = excluded.created_at`

	for i, chunk := range chunks {
		_, err := tx.ExecContext(ctx, stmt,
			chunkID(chunk),
			chunk.SourceURL,
			chunk.Ordinal,
			chunk.Text,
			vectorToBlob(vectors[i]),
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Retrieve embeds the query and returns the k stored chunks nearest
// to it by cosine similarity, best first. k <= 0 uses the configured
// search limit.
func (vs *VectorStore) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = vs.config.SearchLimit
	}

	vectors, err := vs.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vector for query")
	}
	queryVector := vectors[0]

	rows, err := vs.db.QueryContext(ctx, `SELECT source_url, chunk_index, content, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var (
			chunk models.Chunk
			blob  []byte
		)
		if err := rows.Scan(&chunk.SourceURL, &chunk.Ordinal, &chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		results = append(results, models.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(queryVector, blobToVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Count returns the number of indexed chunks.
func (vs *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := vs.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Clear closes the index and marks it for deletion. The database may
// hold open file handles while the process runs, so the directory is
// not removed here; the next startup consumes the marker.
func (vs *VectorStore) Clear() error {
	if err := vs.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	return MarkForDeletion(vs.config.IndexPath)
}

func (vs *VectorStore) Close() error {
	if vs.db != nil {
		return vs.db.Close()
	}
	return nil
}

func chunkID(chunk models.Chunk) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", chunk.SourceURL, chunk.Ordinal)))
	return fmt.Sprintf("%x", sum[:16])
}

// vectorToBlob encodes a vector as little-endian float32 bytes.
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func blobToVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
