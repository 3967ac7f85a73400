// Package sqlite stores indexes in a SQLite database (modernc.org/sqlite,
// no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/cognicore/polyfaq/pkg/polyfaq/corpus"
	"github.com/cognicore/polyfaq/pkg/polyfaq/embed"
	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/ingest"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
	"github.com/cognicore/polyfaq/pkg/polyfaq/lang"
)

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS index_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	build_id TEXT NOT NULL,
	built_at TEXT NOT NULL,
	analysis TEXT NOT NULL,
	languages TEXT NOT NULL,
	embedding_model TEXT
);

CREATE TABLE IF NOT EXISTS documents (
	position INTEGER PRIMARY KEY,
	id TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS document_keywords (
	position INTEGER NOT NULL,
	keyword TEXT NOT NULL,
	PRIMARY KEY(position, keyword),
	FOREIGN KEY(position) REFERENCES documents(position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS document_texts (
	position INTEGER NOT NULL,
	language TEXT NOT NULL,
	question TEXT,
	answer TEXT,
	PRIMARY KEY(position, language),
	FOREIGN KEY(position) REFERENCES documents(position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS document_embeddings (
	position INTEGER NOT NULL,
	language TEXT NOT NULL,
	vector BLOB NOT NULL,
	PRIMARY KEY(position, language),
	FOREIGN KEY(position) REFERENCES documents(position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS idf_scores (
	keyword TEXT PRIMARY KEY,
	score REAL NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveIndex replaces the stored index in one transaction.
func (s *Store) SaveIndex(ctx context.Context, ix *index.SearchIndex) error {
	if ix == nil {
		return errors.Wrap(internalerr.ErrInvalidIndex, "nil index")
	}
	if err := ix.Validate(); err != nil {
		return err
	}
	analysis, err := json.Marshal(ix.Analysis)
	if err != nil {
		return errors.Wrap(err, "encode analysis")
	}
	languages, err := json.Marshal(ix.Languages)
	if err != nil {
		return errors.Wrap(err, "encode languages")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM documents",
		"DELETE FROM idf_scores",
		"DELETE FROM index_meta",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "clear index")
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO index_meta (id, version, build_id, built_at, analysis, languages, embedding_model)
VALUES (1, ?, ?, ?, ?, ?, ?)`,
		ix.Version,
		ix.BuildID,
		ix.BuiltAt.UTC().Format(time.RFC3339Nano),
		string(analysis),
		string(languages),
		ix.EmbeddingModel,
	); err != nil {
		return errors.Wrap(err, "insert meta")
	}

	for pos := range ix.Documents {
		if err := insertDocument(ctx, tx, pos, &ix.Documents[pos]); err != nil {
			return err
		}
	}

	idfStmt, err := tx.PrepareContext(ctx, "INSERT INTO idf_scores (keyword, score) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer idfStmt.Close()
	for kw, score := range ix.IDF {
		if _, err := idfStmt.ExecContext(ctx, kw, score); err != nil {
			return errors.Wrapf(err, "insert idf %q", kw)
		}
	}

	return tx.Commit()
}

func insertDocument(ctx context.Context, tx *sql.Tx, pos int, d *index.Document) error {
	if _, err := tx.ExecContext(ctx, "INSERT INTO documents (position, id) VALUES (?, ?)", pos, string(d.ID)); err != nil {
		return errors.Wrapf(err, "insert document %s", d.ID)
	}
	for _, kw := range d.Keywords {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_keywords (position, keyword) VALUES (?, ?)", pos, kw); err != nil {
			return errors.Wrapf(err, "insert keyword %q", kw)
		}
	}

	codes := make(map[lang.Code]struct{}, len(d.Answers))
	for code := range d.Answers {
		codes[code] = struct{}{}
	}
	for code := range d.Questions {
		codes[code] = struct{}{}
	}
	for code := range codes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_texts (position, language, question, answer) VALUES (?, ?, ?, ?)",
			pos, string(code), nullable(d.Questions, code), nullable(d.Answers, code)); err != nil {
			return errors.Wrapf(err, "insert texts of %s", d.ID)
		}
	}
	for code, vec := range d.Embeddings {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_embeddings (position, language, vector) VALUES (?, ?, ?)",
			pos, string(code), embed.EncodeVector(vec)); err != nil {
			return errors.Wrapf(err, "insert embedding of %s", d.ID)
		}
	}
	return nil
}

func nullable(m map[lang.Code]string, code lang.Code) sql.NullString {
	s, ok := m[code]
	return sql.NullString{String: s, Valid: ok}
}

// LoadIndex reads and validates the stored index.
func (s *Store) LoadIndex(ctx context.Context) (*index.SearchIndex, error) {
	var (
		ix                  index.SearchIndex
		builtAt             string
		analysis, languages string
		model               sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT version, build_id, built_at, analysis, languages, embedding_model
FROM index_meta WHERE id = 1`).Scan(&ix.Version, &ix.BuildID, &builtAt, &analysis, &languages, &model)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(internalerr.ErrNotFound, "no index saved")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read meta")
	}
	if ix.BuiltAt, err = time.Parse(time.RFC3339Nano, builtAt); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidIndex, "built_at: %v", err)
	}
	var a ingest.Analysis
	if err := json.Unmarshal([]byte(analysis), &a); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidIndex, "analysis: %v", err)
	}
	ix.Analysis = a
	if err := json.Unmarshal([]byte(languages), &ix.Languages); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidIndex, "languages: %v", err)
	}
	ix.EmbeddingModel = model.String

	if err := s.loadDocuments(ctx, &ix); err != nil {
		return nil, err
	}
	if err := s.loadIDF(ctx, &ix); err != nil {
		return nil, err
	}
	if err := ix.Validate(); err != nil {
		return nil, err
	}
	return &ix, nil
}

func (s *Store) loadDocuments(ctx context.Context, ix *index.SearchIndex) error {
	rows, err := s.db.QueryContext(ctx, "SELECT position, id FROM documents ORDER BY position")
	if err != nil {
		return errors.Wrap(err, "read documents")
	}
	defer rows.Close()

	byPos := make(map[int]int)
	for rows.Next() {
		var (
			pos int
			id  string
		)
		if err := rows.Scan(&pos, &id); err != nil {
			return err
		}
		byPos[pos] = len(ix.Documents)
		ix.Documents = append(ix.Documents, index.Document{
			ID:        corpus.ID(id),
			Questions: make(map[lang.Code]string),
			Answers:   make(map[lang.Code]string),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Keywords come back sorted, which Document.HasKeyword relies on.
	kwRows, err := s.db.QueryContext(ctx, "SELECT position, keyword FROM document_keywords ORDER BY position, keyword")
	if err != nil {
		return errors.Wrap(err, "read keywords")
	}
	defer kwRows.Close()
	for kwRows.Next() {
		var (
			pos int
			kw  string
		)
		if err := kwRows.Scan(&pos, &kw); err != nil {
			return err
		}
		d := &ix.Documents[byPos[pos]]
		d.Keywords = append(d.Keywords, kw)
	}
	if err := kwRows.Err(); err != nil {
		return err
	}

	textRows, err := s.db.QueryContext(ctx, "SELECT position, language, question, answer FROM document_texts")
	if err != nil {
		return errors.Wrap(err, "read texts")
	}
	defer textRows.Close()
	for textRows.Next() {
		var (
			pos              int
			code             string
			question, answer sql.NullString
		)
		if err := textRows.Scan(&pos, &code, &question, &answer); err != nil {
			return err
		}
		d := &ix.Documents[byPos[pos]]
		if question.Valid {
			d.Questions[lang.Code(code)] = question.String
		}
		if answer.Valid {
			d.Answers[lang.Code(code)] = answer.String
		}
	}
	if err := textRows.Err(); err != nil {
		return err
	}

	embRows, err := s.db.QueryContext(ctx, "SELECT position, language, vector FROM document_embeddings")
	if err != nil {
		return errors.Wrap(err, "read embeddings")
	}
	defer embRows.Close()
	for embRows.Next() {
		var (
			pos  int
			code string
			blob []byte
		)
		if err := embRows.Scan(&pos, &code, &blob); err != nil {
			return err
		}
		vec, err := embed.DecodeVector(blob)
		if err != nil {
			return errors.Wrapf(internalerr.ErrInvalidIndex, "embedding: %v", err)
		}
		d := &ix.Documents[byPos[pos]]
		if d.Embeddings == nil {
			d.Embeddings = make(map[lang.Code][]float32)
		}
		d.Embeddings[lang.Code(code)] = vec
	}
	return embRows.Err()
}

func (s *Store) loadIDF(ctx context.Context, ix *index.SearchIndex) error {
	rows, err := s.db.QueryContext(ctx, "SELECT keyword, score FROM idf_scores")
	if err != nil {
		return errors.Wrap(err, "read idf")
	}
	defer rows.Close()

	ix.IDF = make(index.IDFTable)
	for rows.Next() {
		var (
			kw    string
			score float64
		)
		if err := rows.Scan(&kw, &score); err != nil {
			return err
		}
		ix.IDF[kw] = score
	}
	return rows.Err()
}
