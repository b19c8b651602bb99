// Package index persists chunk embeddings in SQLite and answers brute-force
// cosine similarity queries over them. The corpus is small (one document), so
// a full scan per query is well within budget and keeps the storage layer to a
// single file with no extra services.
package index

import (
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// metaChecksumKey stores the checksum of the corpus the chunks were built
// from. A mismatch on startup means the document changed and the index must
// be rebuilt.
const metaChecksumKey = "corpus_checksum"

// Entry is one indexed chunk: its text, its position in the document, and its
// embedding vector.
type Entry struct {
	ID        string
	Index     int
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// Scored pairs an entry with its cosine similarity to a query vector.
type Scored struct {
	Entry
	Score float32
}

// Store wraps a SQLite database holding the chunk index.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the index database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "spacebot.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been
// run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// Replace atomically swaps the whole index for a new set of entries and
// records the checksum of the corpus they came from. Either the full new
// index lands or the old one survives untouched.
func (s *Store) Replace(checksum string, entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (id, chunk_index, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		blob := encodeFloat32s(e.Embedding)
		if _, err := stmt.Exec(e.ID, e.Index, e.Text, blob, createdAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting chunk %d: %w", e.Index, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaChecksumKey, checksum,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("recording corpus checksum: %w", err)
	}

	return tx.Commit()
}

// Search performs a brute-force cosine similarity scan over all chunks and
// returns the top-K most similar, ordered by score descending. Ties keep
// document order. Asking for more results than the index holds returns
// everything.
func (s *Store) Search(vector []float32, topK int) ([]Scored, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, chunk_index, content, embedding, created_at
		FROM chunks ORDER BY chunk_index ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []Scored
	for rows.Next() {
		var e Entry
		var blob []byte
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Index, &e.Text, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		e.Embedding, err = decodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for chunk %d: %w", e.Index, err)
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for chunk %d: %w", e.Index, err)
		}
		e.CreatedAt = t

		results = append(results, Scored{
			Entry: e,
			Score: cosine(vector, e.Embedding, queryNorm),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Stable sort keeps chunk order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

// Checksum returns the corpus checksum recorded at the last Replace, or ""
// if the index has never been built.
func (s *Store) Checksum() (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaChecksumKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
// Returns an error if the byte slice length is not a multiple of 4 (indicates
// data corruption).
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes dot(a,b) / (aNorm * |b|). aNorm is the precomputed L2 norm
// of vector a. Mismatched dimensions or a zero vector score zero.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}
