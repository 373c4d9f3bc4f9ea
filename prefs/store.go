package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Blob keys. Bump the suffix when the stored shape changes.
const (
	FavoritesKey = "favorites_v2"
	UsageKey     = "usage_v1"
)

// Store is the persistent preference record: favorites plus usage. Both
// blobs are read once when the store is opened and written back whole on
// every mutation.
//
// Store is not safe for concurrent use; the controller mutates it from the
// UI goroutine only.
type Store struct {
	blob      Blob
	favorites *Favorites
	usage     UsageLog
	logger    *slog.Logger
	now       func() time.Time
}

// Open loads preferences from blob. Unreadable or corrupt blobs are
// replaced by empty defaults.
func Open(blob Blob, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		blob:      blob,
		favorites: NewFavorites(),
		usage:     UsageLog{},
		logger:    logger,
		now:       time.Now,
	}

	if data := s.read(FavoritesKey); data != nil {
		favorites := NewFavorites()
		if err := json.Unmarshal(data, favorites); err != nil {
			logger.Debug("discarding corrupt favorites", "error", err)
		} else {
			s.favorites = favorites
		}
	}

	if data := s.read(UsageKey); data != nil {
		var usage UsageLog
		if err := json.Unmarshal(data, &usage); err != nil {
			logger.Debug("discarding corrupt usage data", "error", err)
		} else if usage != nil {
			s.usage = usage
		}
	}

	return s
}

func (s *Store) read(key string) []byte {
	data, err := s.blob.Get(key)
	if err != nil {
		s.logger.Warn("failed to read preferences", "key", key, "error", err)
		return nil
	}
	return data
}

// WithClock replaces the time source used for usage records
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Favorites returns the live favorites record. Callers must not modify it;
// use the Toggle methods so changes are persisted.
func (s *Store) Favorites() *Favorites {
	return s.favorites
}

func (s *Store) IsFavorite(accountID, roleName string) bool {
	return s.favorites.IsFavorite(accountID, roleName)
}

// ToggleAccount flips the account favorite and persists the result
func (s *Store) ToggleAccount(accountID string) (bool, error) {
	on := s.favorites.ToggleAccount(accountID)
	return on, s.saveFavorites()
}

// ToggleRole flips the global role favorite and persists the result
func (s *Store) ToggleRole(roleName string) (bool, error) {
	on := s.favorites.ToggleRole(roleName)
	return on, s.saveFavorites()
}

// ToggleCombo flips the pair favorite and persists the result
func (s *Store) ToggleCombo(accountID, roleName string) (bool, error) {
	on := s.favorites.ToggleCombo(accountID, roleName)
	return on, s.saveFavorites()
}

// ReplaceFavorites swaps in a whole favorites record, e.g. from an import
func (s *Store) ReplaceFavorites(f *Favorites) error {
	s.favorites = f.Clone()
	return s.saveFavorites()
}

// RecordUsage counts one launch of the pair and persists the usage map
func (s *Store) RecordUsage(accountID, accountName, roleName, consoleURL string) (Usage, error) {
	u := s.usage.Record(accountID, accountName, roleName, consoleURL, s.now())
	return u, s.save(UsageKey, s.usage)
}

// Usage returns all usage records
func (s *Store) Usage() []Usage {
	return s.usage.Records()
}

// UsageFor returns the record of a pair
func (s *Store) UsageFor(accountID, roleName string) (Usage, bool) {
	u, ok := s.usage[ComboKey(accountID, roleName)]
	return u, ok
}

func (s *Store) saveFavorites() error {
	return s.save(FavoritesKey, s.favorites)
}

func (s *Store) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.blob.Set(key, data); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
