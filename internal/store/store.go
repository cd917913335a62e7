// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package store persists users, their watch history and followed authors in
// BadgerDB. Each user is one JSON document under "user:<username>".
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
)

const (
	userKeyPrefix = "user:"

	// maxConflictRetries bounds retries of a read-modify-write transaction
	// that lost a race with a concurrent writer.
	maxConflictRetries = 25
)

var (
	// ErrUserNotFound is returned when no user has the requested name.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrInvalidUsername is returned for empty or malformed usernames.
	ErrInvalidUsername = errors.New("store: invalid username")
)

// UserStore is a BadgerDB-backed user repository. It is safe for concurrent
// use; read-modify-write operations run in a single transaction.
type UserStore struct {
	db     *badger.DB
	owned  bool
	logger zerolog.Logger
}

// New wraps an open database. The caller keeps ownership of db.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *badger.DB, logger zerolog.Logger) *UserStore {
	return &UserStore{db: db, logger: logger.With().Str("component", "store").Logger()}
}

// Open opens the database described by cfg and seeds the default users if
// configured to.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg *config.StoreConfig, logger zerolog.Logger) (*UserStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	s := New(db, logger)
	s.owned = true

	if cfg.SeedDefaultUsers {
		created, err := s.SeedDefaults(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if created > 0 {
			s.logger.Info().Int("created", created).Msg("Seeded default users")
		}
	}

	if n, err := s.Count(ctx); err == nil {
		metrics.UsersTotal.Set(float64(n))
	}

	s.logger.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("User store opened")
	return s, nil
}

// Close closes the database if Open created it.
func (s *UserStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is usable.
func (s *UserStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("store: database closed")
	}
	return nil
}

// Get returns the user named username.
func (s *UserStore) Get(_ context.Context, username string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		u, err := getUser(txn, username)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user ordered by username.
func (s *UserStore) List(_ context.Context) ([]models.User, error) {
	users := []models.User{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var u models.User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("skipping undecodable user")
				continue
			}
			users = append(users, normalize(u))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Count returns the number of stored users.
func (s *UserStore) Count(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Put creates or replaces a user.
func (s *UserStore) Put(_ context.Context, user *models.User) error {
	if err := validateUsername(user.Username); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return putUser(txn, user)
	})
}

// Create stores a new empty user. It is a no-op if the user already exists
// and reports whether a user was created.
func (s *UserStore) Create(_ context.Context, username string) (bool, error) {
	if err := validateUsername(username); err != nil {
		return false, err
	}

	created := false
	err := s.updateTxn(func(txn *badger.Txn) error {
		created = false
		_, err := getUser(txn, username)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		u := models.NewUser(username)
		created = true
		return putUser(txn, &u)
	})
	if err != nil {
		return false, err
	}
	if created {
		metrics.UsersTotal.Inc()
	}
	return created, nil
}

// SeedDefaults creates the default users that do not exist yet.
func (s *UserStore) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, u := range models.DefaultUsers() {
		ok, err := s.Create(ctx, u.Username)
		if err != nil {
			return created, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// AppendHistory records a watched video. An exact repeat of an existing
// entry is ignored so redelivered events stay idempotent.
func (s *UserStore) AppendHistory(_ context.Context, username string, entry models.HistoryEntry) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return s.update(username, func(u *models.User) bool {
		if slices.ContainsFunc(u.History, func(h models.HistoryEntry) bool { return sameEntry(h, entry) }) {
			return false
		}
		u.History = append(u.History, entry)
		return true
	})
}

// Follow adds author to the user's followed list.
func (s *UserStore) Follow(_ context.Context, username, author string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return s.update(username, func(u *models.User) bool {
		if u.Follows(author) {
			return false
		}
		u.Following = append(u.Following, author)
		return true
	})
}

// Unfollow removes author from the user's followed list.
func (s *UserStore) Unfollow(_ context.Context, username, author string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return s.update(username, func(u *models.User) bool {
		i := slices.Index(u.Following, author)
		if i < 0 {
			return false
		}
		u.Following = slices.Delete(u.Following, i, i+1)
		return true
	})
}

// update applies fn to the stored user in one transaction. fn reports
// whether it changed anything.
func (s *UserStore) update(username string, fn func(*models.User) bool) error {
	return s.updateTxn(func(txn *badger.Txn) error {
		u, err := getUser(txn, username)
		if err != nil {
			return err
		}
		if !fn(u) {
			return nil
		}
		return putUser(txn, u)
	})
}

// updateTxn runs fn in an update transaction, retrying on write conflicts.
func (s *UserStore) updateTxn(fn func(*badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("update after %d conflicts: %w", maxConflictRetries, err)
}

func getUser(txn *badger.Txn, username string) (*models.User, error) {
	item, err := txn.Get([]byte(userKeyPrefix + username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var u models.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &u)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", username, err)
	}
	u = normalize(u)
	return &u, nil
}

func putUser(txn *badger.Txn, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := txn.Set([]byte(userKeyPrefix+u.Username), data); err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	return nil
}

// normalize replaces nil lists so users always encode as arrays.
func normalize(u models.User) models.User {
	if u.History == nil {
		u.History = []models.HistoryEntry{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.Followers == nil {
		u.Followers = []string{}
	}
	return u
}

func sameEntry(a, b models.HistoryEntry) bool {
	if a.ID != b.ID || a.Author != b.Author {
		return false
	}
	switch {
	case a.WatchedAt == nil && b.WatchedAt == nil:
		return true
	case a.WatchedAt == nil || b.WatchedAt == nil:
		return false
	default:
		return a.WatchedAt.Equal(*b.WatchedAt)
	}
}

func validateUsername(username string) error {
	if username == "" || strings.ContainsAny(username, ":/ \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return nil
}
