package creds

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/remotehelp/internal/common"
)

// Store verifies and manages credentials on top of a Repository.
//
// Writes are serialized per username: a migration write-back and a
// concurrent password change on the same account cannot interleave.
// Distinct usernames proceed concurrently.
type Store struct {
	repo Repository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, locks: make(map[string]*sync.Mutex)}
}

// userLock returns the mutex serializing operations on one username.
// Lock entries are never removed; the user population is small and stable.
func (s *Store) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

// Verify checks a username/password pair. It fails closed: an unknown
// username and a wrong password are both reported as plain false, never
// signaling which factor failed.
//
// A legacy record that verifies successfully is transparently rewritten as
// a salted record before Verify returns. If that write-back fails the
// error is returned and the caller must treat the attempt as failed; the
// original record is untouched, so the password keeps working once storage
// recovers.
func (s *Store) Verify(ctx context.Context, username, password string) (bool, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reading credential: %w", err)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if subtle.ConstantTimeCompare(rec.Hash, rec.digest(pw)) != 1 {
		return false, nil
	}

	if rec.Kind == KindLegacy {
		if err := s.repo.Put(ctx, newSaltedRecord(username, pw)); err != nil {
			return false, fmt.Errorf("migrating legacy credential: %w", err)
		}
	}

	return true, nil
}

// CreateOrMigrate registers a credential. For an unknown username it
// creates a fresh salted record. For an existing record the supplied
// password must match; a matching legacy record is rewritten salted, a
// matching salted record is left alone, and a mismatch returns
// common.ErrUnauthorized so an attacker cannot overwrite someone else's
// account by re-registering it.
func (s *Store) CreateOrMigrate(ctx context.Context, username, password string) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("reading credential: %w", err)
		}
		return s.repo.Put(ctx, newSaltedRecord(username, pw))
	}

	if subtle.ConstantTimeCompare(rec.Hash, rec.digest(pw)) != 1 {
		return common.ErrUnauthorized
	}
	if rec.Kind == KindSalted {
		return nil
	}
	return s.repo.Put(ctx, newSaltedRecord(username, pw))
}

// ChangePassword replaces the stored hash, regenerating the salt. The
// account must exist.
func (s *Store) ChangePassword(ctx context.Context, username, newPassword string) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	if _, err := s.repo.Get(ctx, username); err != nil {
		return err
	}

	pw := []byte(newPassword)
	defer common.WipeByteArray(pw)

	return s.repo.Put(ctx, newSaltedRecord(username, pw))
}

// Delete removes an account.
func (s *Store) Delete(ctx context.Context, username string) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	return s.repo.Delete(ctx, username)
}
