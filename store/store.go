package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	_ "modernc.org/sqlite"
)

var log = logging.Logger("store")

// The closed set of collections the wire protocol can address. One
// table per collection; documents are JSON keyed by their "id" field.
var collections = map[string]bool{
	"users":    true,
	"entities": true,
	"diagrams": true,
}

// IsCollection reports whether name addresses a real collection.
func IsCollection(name string) bool {
	return collections[name]
}

// Store persists the console's generic records: users, diagram
// documents and diagram entities. Performer live state never touches
// it; that lives in the registry and dies with the session.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	for name := range collections {
		if _, err := db.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id  TEXT PRIMARY KEY,
				doc TEXT NOT NULL
			);
		`, name)); err != nil {
			db.Close()
			return nil, fmt.Errorf("create %s table: %w", name, err)
		}
	}

	log.Infow("store opened", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FindOne returns the first document matching every field of query, or
// nil when nothing matches.
func (s *Store) FindOne(collection string, query map[string]any) (map[string]any, error) {
	docs, err := s.find(collection, query, 1)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// FindAll returns every document matching the query. An empty query
// matches the whole collection.
func (s *Store) FindAll(collection string, query map[string]any) ([]map[string]any, error) {
	return s.find(collection, query, 0)
}

func (s *Store) find(collection string, query map[string]any, limit int) ([]map[string]any, error) {
	if !IsCollection(collection) {
		return nil, fmt.Errorf("invalid collection %q", collection)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Fast path: querying by id hits the primary key.
	if id, ok := query["id"].(string); ok && len(query) == 1 {
		var raw string
		err := s.db.QueryRow(
			fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", collection), id).Scan(&raw)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		return []map[string]any{doc}, nil
	}

	rows, err := s.db.Query(fmt.Sprintf("SELECT doc FROM %s ORDER BY id", collection))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		if !matches(doc, query) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// Update merges data into the document whose id equals data["id"].
// The id itself cannot be changed.
func (s *Store) Update(collection string, data map[string]any) error {
	if !IsCollection(collection) {
		return fmt.Errorf("invalid collection %q", collection)
	}
	id, ok := data["id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("update requires a string id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", collection), id).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no %s document with id %q", collection, id)
	}
	if err != nil {
		return err
	}
	doc, err := decodeDoc(raw)
	if err != nil {
		return err
	}
	for k, v := range data {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	enc, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		fmt.Sprintf("UPDATE %s SET doc = ? WHERE id = ?", collection), string(enc), id)
	return err
}

// Delete removes the document with the given id. No-op if absent.
func (s *Store) Delete(collection, id string) error {
	if !IsCollection(collection) {
		return fmt.Errorf("invalid collection %q", collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", collection), id)
	return err
}

// Create inserts a new document and returns its id, generating one
// when the caller didn't supply it.
func (s *Store) Create(collection string, data map[string]any) (string, error) {
	if !IsCollection(collection) {
		return "", fmt.Errorf("invalid collection %q", collection)
	}
	id, ok := data["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		data["id"] = id
	}
	enc, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (?, ?)", collection), id, string(enc))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	return id, nil
}

func decodeDoc(raw string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	return doc, nil
}

// matches reports whether doc carries every query field with an equal
// value. Values compare as decoded JSON (numbers are float64).
func matches(doc, query map[string]any) bool {
	for k, want := range query {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
