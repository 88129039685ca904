// Package boltrepo implements the credential repository on an embedded
// bbolt database: one bucket, username keys, CBOR-encoded records. This is
// the default backend for single-host deployments (the agent's direct
// listener and small mediators).
package boltrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

const credentialsBucket = "credentials"

type Repository struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database file and ensures the
// credentials bucket exists. Callers own the returned repository and must
// Close it.
func Open(path string) (*Repository, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening credential db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating credentials bucket: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// record is the stored form; kept separate from creds.Record so the disk
// layout does not silently change with the domain type.
type record struct {
	Kind      uint8  `cbor:"1,keyasint"`
	Salt      []byte `cbor:"2,keyasint,omitempty"`
	Hash      []byte `cbor:"3,keyasint"`
	CreatedAt int64  `cbor:"4,keyasint"`
}

func (r *Repository) Get(ctx context.Context, username string) (*creds.Record, error) {
	var raw []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(credentialsBucket)).Get([]byte(username))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if raw == nil {
		return nil, common.ErrorNotFound
	}

	var stored record
	if err := cbor.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decoding credential record: %w", err)
	}

	return &creds.Record{
		Username:  username,
		Kind:      creds.Kind(stored.Kind),
		Salt:      stored.Salt,
		Hash:      stored.Hash,
		CreatedAt: time.Unix(stored.CreatedAt, 0),
	}, nil
}

func (r *Repository) Put(ctx context.Context, rec *creds.Record) error {
	raw, err := cbor.Marshal(&record{
		Kind:      uint8(rec.Kind),
		Salt:      rec.Salt,
		Hash:      rec.Hash,
		CreatedAt: rec.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("encoding credential record: %w", err)
	}

	// Update commits (fsync) before returning, which is what makes Put
	// durable as the Repository contract requires.
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(credentialsBucket)).Put([]byte(rec.Username), raw)
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, username string) error {
	found := false
	err := r.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(credentialsBucket))
		if bkt.Get([]byte(username)) == nil {
			return nil
		}
		found = true
		return bkt.Delete([]byte(username))
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !found {
		return common.ErrorNotFound
	}
	return nil
}
