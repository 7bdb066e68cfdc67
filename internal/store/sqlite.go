package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a queried row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        text TEXT NOT NULL,
        sentiment REAL NOT NULL DEFAULT 0,
        keywords_json TEXT NOT NULL DEFAULT '[]',
        created_at DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_entries_user_created ON entries (user_id, created_at DESC);

    CREATE TABLE IF NOT EXISTS personas (
        user_id INTEGER PRIMARY KEY,
        curiosity REAL NOT NULL,
        empathy REAL NOT NULL,
        rigor REAL NOT NULL,
        mystique REAL NOT NULL,
        challenge_rate REAL NOT NULL,
        version INTEGER NOT NULL DEFAULT 1,
        updated_at DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash) VALUES (?, ?)", externalUserID, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Entry methods
func (s *SQLiteStore) InsertEntry(userID int64, createdAt time.Time, text string, sentiment float64, keywords []string) (*Entry, error) {
	keywordsBytes, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}

	stmt, err := s.db.Prepare("INSERT INTO entries (user_id, text, sentiment, keywords_json, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(userID, text, sentiment, string(keywordsBytes), createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute entry insert: %w", err)
	}
	id, _ := res.LastInsertId()

	return &Entry{
		ID:           id,
		UserID:       userID,
		Text:         text,
		Sentiment:    sentiment,
		Keywords:     keywords,
		KeywordsJSON: string(keywordsBytes),
		CreatedAt:    createdAt,
	}, nil
}

func (s *SQLiteStore) GetEntryByID(entryID, userID int64) (*Entry, error) {
	row := s.db.QueryRow("SELECT id, user_id, text, sentiment, keywords_json, created_at FROM entries WHERE id = ? AND user_id = ?", entryID, userID)
	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// ListRecentEntries returns up to limit entries for the user, newest first.
// excludeID > 0 filters out a single entry, typically the one just inserted
// so it does not match against itself.
func (s *SQLiteStore) ListRecentEntries(userID, excludeID int64, limit int) ([]Entry, error) {
	query := `
        SELECT id, user_id, text, sentiment, keywords_json, created_at
        FROM entries
        WHERE user_id = ? AND id != ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `

	rows, err := s.db.Query(query, userID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.Text, &entry.Sentiment, &entry.KeywordsJSON, &entry.CreatedAt); err != nil {
		return nil, err
	}
	if entry.KeywordsJSON != "" {
		if err := json.Unmarshal([]byte(entry.KeywordsJSON), &entry.Keywords); err != nil {
			log.Printf("Warning: failed to unmarshal keywords for entry %d: %v. Keyword set will be empty.", entry.ID, err)
			entry.Keywords = nil
		}
	}
	return &entry, nil
}

// Persona methods
func (s *SQLiteStore) GetPersona(userID int64) (*Persona, error) {
	var p Persona
	err := s.db.QueryRow(
		"SELECT user_id, curiosity, empathy, rigor, mystique, challenge_rate, version, updated_at FROM personas WHERE user_id = ?",
		userID,
	).Scan(&p.UserID, &p.Traits.Curiosity, &p.Traits.Empathy, &p.Traits.Rigor, &p.Traits.Mystique, &p.Traits.ChallengeRate, &p.Version, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}
	return &p, nil
}

// UpsertPersona writes the full trait vector. Last write wins; callers that
// need stronger consistency must serialize their own read-modify-write.
func (s *SQLiteStore) UpsertPersona(userID int64, traits Traits, version int64, updatedAt time.Time) error {
	query := `
        INSERT INTO personas (user_id, curiosity, empathy, rigor, mystique, challenge_rate, version, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            curiosity = excluded.curiosity,
            empathy = excluded.empathy,
            rigor = excluded.rigor,
            mystique = excluded.mystique,
            challenge_rate = excluded.challenge_rate,
            version = excluded.version,
            updated_at = excluded.updated_at
    `
	_, err := s.db.Exec(query, userID, traits.Curiosity, traits.Empathy, traits.Rigor, traits.Mystique, traits.ChallengeRate, version, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert persona: %w", err)
	}
	return nil
}

// CreateDefaultPersona seeds the persona row at user-creation time. It is a
// no-op if the row already exists.
func (s *SQLiteStore) CreateDefaultPersona(userID int64, defaults Traits) (*Persona, error) {
	now := time.Now()
	query := `
        INSERT INTO personas (user_id, curiosity, empathy, rigor, mystique, challenge_rate, version, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 1, ?)
        ON CONFLICT(user_id) DO NOTHING
    `
	_, err := s.db.Exec(query, userID, defaults.Curiosity, defaults.Empathy, defaults.Rigor, defaults.Mystique, defaults.ChallengeRate, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create default persona: %w", err)
	}
	return s.GetPersona(userID)
}
