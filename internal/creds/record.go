// Package creds implements the credential store: salted-hash verification
// of usernames and passwords, transparent migration of legacy unsalted
// records, and durable persistence behind a small repository interface.
package creds

import (
	"crypto/sha256"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"golang.org/x/crypto/argon2"
)

// Kind tags how a record's hash was produced.
type Kind uint8

const (
	// KindLegacy is an unsalted sha256 digest of the bare password, the
	// scheme used before salting was introduced. Legacy records are
	// rewritten as salted on their next successful verification.
	KindLegacy Kind = iota + 1
	// KindSalted is an argon2id digest bound to a per-record random salt.
	KindSalted
)

const saltSize = 32

// Record is one stored credential. Salt is empty iff Kind is KindLegacy.
type Record struct {
	Username  string
	Kind      Kind
	Salt      []byte
	Hash      []byte
	CreatedAt time.Time
}

// digest computes the verifier for the given password against this
// record's kind and salt.
func (r *Record) digest(password []byte) []byte {
	switch r.Kind {
	case KindLegacy:
		h := sha256.Sum256(password)
		return h[:]
	default:
		return saltedDigest(password, r.Salt)
	}
}

// saltedDigest derives the argon2id verifier for a password and salt.
func saltedDigest(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// newSaltedRecord builds a fresh salted record for the given password.
func newSaltedRecord(username string, password []byte) *Record {
	salt := common.GenerateRandByteArray(saltSize)
	return &Record{
		Username:  username,
		Kind:      KindSalted,
		Salt:      salt,
		Hash:      saltedDigest(password, salt),
		CreatedAt: time.Now(),
	}
}

// NewLegacyRecord models a record imported from the pre-salt user database:
// no salt, hash is the bare sha256 of the password. It exists for migration
// tooling and tests; new registrations always produce salted records.
func NewLegacyRecord(username, password string) *Record {
	h := sha256.Sum256([]byte(password))
	return &Record{
		Username:  username,
		Kind:      KindLegacy,
		Hash:      h[:],
		CreatedAt: time.Now(),
	}
}
