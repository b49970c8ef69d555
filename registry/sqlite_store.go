package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dhamidi/cxg/construction"
	_ "github.com/mattn/go-sqlite3"
)

// GrammarInfo summarises a stored grammar.
type GrammarInfo struct {
	ID            string
	Description   string
	Constructions int
	LoadedAt      time.Time
}

// SQLiteStore persists grammars in a SQLite database and serves them as
// registries.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS grammars (
		id TEXT PRIMARY KEY,
		description TEXT,
		loaded_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS constructions (
		grammar_id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		construction_type TEXT,
		priority INTEGER,
		definition_json TEXT NOT NULL,
		PRIMARY KEY (grammar_id, name),
		FOREIGN KEY(grammar_id) REFERENCES grammars(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_constructions_grammar ON constructions(grammar_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveGrammar replaces the stored copy of g.
func (s *SQLiteStore) SaveGrammar(g *construction.Grammar) error {
	if g == nil || g.ID == "" {
		return errors.New("grammar id required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO grammars (id, description, loaded_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		description=excluded.description,
		loaded_at=excluded.loaded_at
	`, g.ID, g.Description, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM constructions WHERE grammar_id = ?`, g.ID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT INTO constructions (grammar_id, name, position, construction_type, priority, definition_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, def := range g.Constructions {
		data, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode %s: %w", def.Name, err)
		}
		if _, err := stmt.Exec(g.ID, def.Name, i, string(def.Type), def.Priority, string(data)); err != nil {
			return fmt.Errorf("store %s: %w", def.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Infof("stored grammar %s (%d constructions)", g.ID, len(g.Constructions))
	return nil
}

// LoadGrammar reads a stored grammar back in load order.
func (s *SQLiteStore) LoadGrammar(id string) (*construction.Grammar, error) {
	g := &construction.Grammar{ID: id}
	var desc sql.NullString
	err := s.db.QueryRow(`SELECT description FROM grammars WHERE id = ?`, id).Scan(&desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGrammarNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	g.Description = desc.String

	rows, err := s.db.Query(`SELECT definition_json FROM constructions WHERE grammar_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var def construction.Definition
		if err := json.Unmarshal([]byte(data), &def); err != nil {
			return nil, fmt.Errorf("decode construction of %s: %w", id, err)
		}
		g.Constructions = append(g.Constructions, &def)
	}
	return g, rows.Err()
}

// Grammars lists stored grammars ordered by id.
func (s *SQLiteStore) Grammars() ([]GrammarInfo, error) {
	rows, err := s.db.Query(`
	SELECT g.id, g.description, g.loaded_at, COUNT(c.name)
	FROM grammars g LEFT JOIN constructions c ON c.grammar_id = g.id
	GROUP BY g.id ORDER BY g.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GrammarInfo
	for rows.Next() {
		var info GrammarInfo
		var desc sql.NullString
		var loaded sql.NullTime
		if err := rows.Scan(&info.ID, &desc, &loaded, &info.Constructions); err != nil {
			return nil, err
		}
		info.Description = desc.String
		info.LoadedAt = loaded.Time
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteGrammar removes a grammar and its constructions.
func (s *SQLiteStore) DeleteGrammar(id string) error {
	res, err := s.db.Exec(`DELETE FROM grammars WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGrammarNotFound, id)
	}
	return nil
}

// LoadConstructions implements Loader.
func (s *SQLiteStore) LoadConstructions(grammarID string) (Registry, error) {
	g, err := s.LoadGrammar(grammarID)
	if err != nil {
		return nil, err
	}
	return NewMemory(g.ID, g.Constructions)
}
