// Package store persists spreadsheet rows and saved views in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a row or view id does not exist.
var ErrNotFound = errors.New("not found")

// Row holds a generic DB row: ID and JSON blob data
type Row struct {
	ID   int
	Data map[string]any
}

// View represents a saved column visibility configuration
type View struct {
	ID      int
	Name    string
	Columns []string
}

// Store is a SQLite database with an entries and a views table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the tables exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}

	createEntries := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data TEXT
	);
	`
	if _, err := db.Exec(createEntries); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring entries table exists: %w", err)
	}

	// views store a name and a JSON array of column names
	createViews := `
	CREATE TABLE IF NOT EXISTS views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		data TEXT
	);
	`
	if _, err := db.Exec(createViews); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring views table exists: %w", err)
	}

	log.Debug().Str("path", path).Msg("database open")
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a row and returns its id.
func (s *Store) Insert(data map[string]any) (int, error) {
	js, err := json.Marshal(data)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec("INSERT INTO entries (data) VALUES (?)", string(js))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// Rows returns all rows in id order with their JSON data decoded.
func (s *Store) Rows() ([]Row, error) {
	rows, err := s.db.Query("SELECT id, data FROM entries ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id int
		var dataStr string
		if err := rows.Scan(&id, &dataStr); err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(dataStr), &m); err != nil {
			// keep the raw text of rows that are not valid JSON
			log.Warn().Int("id", id).Err(err).Msg("row data is not JSON")
			m = map[string]any{"_raw": dataStr}
		}
		out = append(out, Row{ID: id, Data: m})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace replaces the entire data map of a row.
func (s *Store) Replace(id int, data map[string]any) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	res, err := s.db.Exec("UPDATE entries SET data = ? WHERE id = ?", string(js), id)
	if err != nil {
		return err
	}
	return expectOne(res, "row", id)
}

// Delete deletes a row by id.
func (s *Store) Delete(id int) error {
	res, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res, "row", id)
}

// DeleteAll removes every row.
func (s *Store) DeleteAll() error {
	_, err := s.db.Exec("DELETE FROM entries")
	return err
}

// Views returns all stored views.
func (s *Store) Views() ([]View, error) {
	rows, err := s.db.Query("SELECT id, name, data FROM views ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []View
	for rows.Next() {
		var id int
		var name string
		var dataStr string
		if err := rows.Scan(&id, &name, &dataStr); err != nil {
			return nil, err
		}
		var cols []string
		if err := json.Unmarshal([]byte(dataStr), &cols); err != nil {
			cols = []string{}
		}
		out = append(out, View{ID: id, Name: name, Columns: cols})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ViewByName returns the first view with the given name.
func (s *Store) ViewByName(name string) (View, error) {
	views, err := s.Views()
	if err != nil {
		return View{}, err
	}
	for _, v := range views {
		if v.Name == name {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("view %q: %w", name, ErrNotFound)
}

// InsertView creates a new view and returns its id.
func (s *Store) InsertView(name string, cols []string) (int, error) {
	js, err := json.Marshal(cols)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec("INSERT INTO views (name, data) VALUES (?, ?)", name, string(js))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// UpdateView updates an existing view.
func (s *Store) UpdateView(id int, name string, cols []string) error {
	js, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	res, err := s.db.Exec("UPDATE views SET name = ?, data = ? WHERE id = ?", name, string(js), id)
	if err != nil {
		return err
	}
	return expectOne(res, "view", id)
}

// DeleteView deletes a single view by id.
func (s *Store) DeleteView(id int) error {
	res, err := s.db.Exec("DELETE FROM views WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOne(res, "view", id)
}

// DeleteAllViews removes all stored views.
func (s *Store) DeleteAllViews() error {
	_, err := s.db.Exec("DELETE FROM views")
	return err
}

func expectOne(res sql.Result, what string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
