// Package session holds the current bearer credential. The token is
// persisted in a small bolt file so a session survives console restarts,
// but logout removes it for good.
package session

import (
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/rs/zerolog/log"

	"github.com/gatewaylabs/payconsole/internal/apperrors"
	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/pkg/token"
)

const (
	bucketName = "session"
	tokenKey   = "token"
)

// Credential is the decoded session: either fully present (token plus a
// valid role) or entirely absent. It is never constructed independently of
// a token.
type Credential struct {
	Token string
	Role  models.Role
}

// Store wraps the bolt database holding the persisted token.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the session database at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set decodes the token's role claim and persists the token. A token whose
// claims cannot be decoded is not stored: the store falls back to the
// absent state and ErrDecode is returned for logging.
func (s *Store) Set(tok string) error {
	if _, err := token.DecodeRole(tok); err != nil {
		log.Warn().Err(err).Msg("rejecting session token with undecodable claims")
		if clearErr := s.Clear(); clearErr != nil {
			return clearErr
		}
		return apperrors.ErrDecode
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(tokenKey), []byte(tok))
	})
}

// Get returns the current credential, or false when no valid session
// exists. A persisted token that no longer decodes counts as absent.
func (s *Store) Get() (Credential, bool) {
	var tok string
	_ = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(tokenKey)); v != nil {
			tok = string(v)
		}
		return nil
	})
	if tok == "" {
		return Credential{}, false
	}
	role, err := token.DecodeRole(tok)
	if err != nil {
		return Credential{}, false
	}
	return Credential{Token: tok, Role: role}, true
}

// Clear removes the persisted session. Clearing an absent session is a
// no-op.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(tokenKey))
	})
}

// Token implements gateway.TokenSource.
func (s *Store) Token() (string, bool) {
	cred, ok := s.Get()
	if !ok {
		return "", false
	}
	return cred.Token, true
}
