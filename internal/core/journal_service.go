package core

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-app/inkwell/internal/store"
)

// ErrEmptyText rejects ingestion before any side effect happens.
var ErrEmptyText = errors.New("entry text cannot be empty")

// JournalService orchestrates entry ingestion: analyze, persist, find the
// best related entry, evolve the persona. Persona updates are serialized per
// user because the evolution step is a read-modify-write over a single row.
type JournalService struct {
	dbStore *store.SQLiteStore

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewJournalService(db *store.SQLiteStore) *JournalService {
	return &JournalService{
		dbStore:   db,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *JournalService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// CreateUser registers a user and seeds their default persona row.
func (s *JournalService) CreateUser(externalUserID, passwordHash string) (*store.User, error) {
	user, err := s.dbStore.CreateUser(externalUserID, passwordHash)
	if err != nil {
		return nil, err
	}
	if _, err := s.dbStore.CreateDefaultPersona(user.ID, DefaultTraits); err != nil {
		return nil, fmt.Errorf("failed to seed persona for new user: %w", err)
	}
	return user, nil
}

func (s *JournalService) GetUserByExternalID(externalUserID string) (*store.User, error) {
	return s.dbStore.GetUserByExternalID(externalUserID)
}

// IngestResult is what one ingestion call produces. Related is nil when the
// candidate pool was empty; Persona is nil only if evolution failed and no
// prior persona row could be read back.
type IngestResult struct {
	Entry   *store.Entry   `json:"entry"`
	Persona *store.Persona `json:"persona,omitempty"`
	Related *MatchResult   `json:"related,omitempty"`
	Mode    string         `json:"mode"`
}

// Ingest runs the full pipeline for one new entry. The entry insert is the
// only fatal step: once the entry is persisted, failures in relevance lookup
// or persona evolution degrade the result instead of failing the call.
func (s *JournalService) Ingest(userID int64, text, mode string) (*IngestResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}

	keywords := ExtractKeywords(trimmed)
	sentiment := ScoreSentiment(trimmed)

	entry, err := s.dbStore.InsertEntry(userID, time.Now(), trimmed, sentiment, keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to store entry: %w", err)
	}

	result := &IngestResult{Entry: entry, Mode: NormalizeMode(mode)}

	pool, err := s.dbStore.ListRecentEntries(userID, entry.ID, CandidatePoolSize)
	if err != nil {
		log.Printf("Failed to load candidate pool for user %d: %v. Skipping related lookup.", userID, err)
	} else if matches := FindRelated(entry, pool, 1); len(matches) > 0 {
		result.Related = &matches[0]
	}

	persona, err := s.EvolvePersona(userID)
	if err != nil {
		// The entry is already persisted and must never be reported lost
		// because a downstream scoring step failed.
		log.Printf("Persona evolution failed for user %d (entry %d is saved): %v", userID, entry.ID, err)
		if current, getErr := s.dbStore.GetPersona(userID); getErr == nil {
			result.Persona = current
		}
	} else {
		result.Persona = persona
	}

	return result, nil
}

// EvolvePersona folds the user's recent entries into the trait vector. It
// recomputes from the stored window rather than applying deltas, so re-running
// it with the same inputs is safe.
func (s *JournalService) EvolvePersona(userID int64) (*store.Persona, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entries, err := s.dbStore.ListRecentEntries(userID, 0, EvolveWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}

	traits := DefaultTraits
	version := int64(0)
	if current, err := s.dbStore.GetPersona(userID); err == nil {
		traits = current.Traits
		version = current.Version
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}

	updated := evolveTraits(traits, measureSignals(entries))
	version++
	now := time.Now()

	if err := s.dbStore.UpsertPersona(userID, updated, version, now); err != nil {
		return nil, err
	}

	return &store.Persona{
		UserID:    userID,
		Traits:    updated,
		Version:   version,
		UpdatedAt: now,
	}, nil
}

func (s *JournalService) GetPersona(userID int64) (*store.Persona, error) {
	return s.dbStore.GetPersona(userID)
}

func (s *JournalService) ListEntries(userID int64, limit int) ([]store.Entry, error) {
	return s.dbStore.ListRecentEntries(userID, 0, limit)
}

func (s *JournalService) GetEntry(entryID, userID int64) (*store.Entry, error) {
	return s.dbStore.GetEntryByID(entryID, userID)
}
