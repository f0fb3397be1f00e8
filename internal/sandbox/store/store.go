// Package store provides the bolt-backed persistence for the sandbox
// backend. Everything lives in a single file so the sandbox runs with no
// external database process.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"

	"github.com/gatewaylabs/payconsole/internal/models"
)

const (
	bucketAccounts     = "accounts"
	bucketMerchants    = "merchants"
	bucketTransactions = "transactions"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrMerchantHasTransactions guards referential integrity: a merchant
	// with existing transactions cannot be deleted.
	ErrMerchantHasTransactions = errors.New("merchant has transactions")

	ErrUsernameTaken = errors.New("username already exists")
)

// Account is a login identity. Admin accounts have no merchant attached.
type Account struct {
	Username     string      `json:"username"`
	PasswordHash string      `json:"passwordHash"`
	Role         models.Role `json:"role"`
	MerchantID   int         `json:"merchantId,omitempty"`
}

// Store wraps the bolt database holding accounts, merchants, and
// transactions.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the sandbox database at the given path and
// ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketAccounts, bucketMerchants, bucketTransactions} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
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

// GetAccount looks up a login identity by username.
func (s *Store) GetAccount(username string) (*Account, error) {
	var a Account
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketAccounts)).Get([]byte(username))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// PutAccount stores a login identity, overwriting any existing one with
// the same username.
func (s *Store) PutAccount(a *Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketAccounts)).Put([]byte(a.Username), data)
	})
}

// CreateMerchant assigns a server-side id and persists the merchant
// together with its login account. Fails with ErrUsernameTaken when the
// username is already registered.
func (s *Store) CreateMerchant(m *models.Merchant, passwordHash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket([]byte(bucketAccounts))
		if accounts.Get([]byte(m.Username)) != nil {
			return ErrUsernameTaken
		}

		merchants := tx.Bucket([]byte(bucketMerchants))
		seq, err := merchants.NextSequence()
		if err != nil {
			return err
		}
		m.ID = int(seq)

		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := merchants.Put(itob(m.ID), data); err != nil {
			return err
		}

		acc := Account{
			Username:     m.Username,
			PasswordHash: passwordHash,
			Role:         models.RoleMerchant,
			MerchantID:   m.ID,
		}
		accData, err := json.Marshal(acc)
		if err != nil {
			return err
		}
		return accounts.Put([]byte(m.Username), accData)
	})
}

// GetMerchant retrieves a merchant by id.
func (s *Store) GetMerchant(id int) (*models.Merchant, error) {
	var m models.Merchant
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketMerchants)).Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMerchant overwrites an existing merchant record. The id and
// username are immutable; the stored values win.
func (s *Store) UpdateMerchant(m *models.Merchant) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketMerchants))
		v := b.Get(itob(m.ID))
		if v == nil {
			return ErrNotFound
		}
		var existing models.Merchant
		if err := json.Unmarshal(v, &existing); err != nil {
			return err
		}
		m.Username = existing.Username
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return b.Put(itob(m.ID), data)
	})
}

// DeleteMerchant removes a merchant and its login account. Refuses with
// ErrMerchantHasTransactions when any transaction references the merchant.
func (s *Store) DeleteMerchant(id int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		merchants := tx.Bucket([]byte(bucketMerchants))
		v := merchants.Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		var m models.Merchant
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}

		hasTrx := false
		err := tx.Bucket([]byte(bucketTransactions)).ForEach(func(_, tv []byte) error {
			var t models.Transaction
			if err := json.Unmarshal(tv, &t); err != nil {
				return err
			}
			if t.MerchantID == id {
				hasTrx = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if hasTrx {
			return ErrMerchantHasTransactions
		}

		if err := tx.Bucket([]byte(bucketAccounts)).Delete([]byte(m.Username)); err != nil {
			return err
		}
		return merchants.Delete(itob(id))
	})
}

// ListMerchants returns all merchants, unsorted.
func (s *Store) ListMerchants() ([]models.Merchant, error) {
	var items []models.Merchant
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketMerchants)).ForEach(func(_, v []byte) error {
			var m models.Merchant
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			items = append(items, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Merchant{}
	}
	return items, nil
}

// CreateTransaction persists a transaction and applies its effect on the
// merchant's server-computed transaction sum (CHARGE adds, REFUND
// subtracts; AUTHORIZE and REVERSAL leave it untouched).
func (s *Store) CreateTransaction(t *models.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bucketTransactions)).Put([]byte(t.UUID), data); err != nil {
			return err
		}

		var delta decimal.Decimal
		switch t.TransactionType {
		case models.TrxTypeCharge:
			delta = t.Amount
		case models.TrxTypeRefund:
			delta = t.Amount.Neg()
		default:
			return nil
		}

		merchants := tx.Bucket([]byte(bucketMerchants))
		v := merchants.Get(itob(t.MerchantID))
		if v == nil {
			return ErrNotFound
		}
		var m models.Merchant
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		m.TotalTransactionSum = m.TotalTransactionSum.Add(delta)
		mdata, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return merchants.Put(itob(t.MerchantID), mdata)
	})
}

// GetTransaction retrieves a transaction by uuid.
func (s *Store) GetTransaction(uuid string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketTransactions)).Get([]byte(uuid))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransactionStatus records a server-side status transition, e.g.
// flipping the referenced transaction to REFUNDED or REVERSED.
func (s *Store) UpdateTransactionStatus(uuid string, status models.TransactionStatus) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTransactions))
		v := b.Get([]byte(uuid))
		if v == nil {
			return ErrNotFound
		}
		var t models.Transaction
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		t.Status = status
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put([]byte(uuid), data)
	})
}

// ListTransactionsByMerchant returns a merchant's transactions, newest
// first.
func (s *Store) ListTransactionsByMerchant(merchantID int) ([]models.Transaction, error) {
	var items []models.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTransactions)).ForEach(func(_, v []byte) error {
			var t models.Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if t.MerchantID == merchantID {
				items = append(items, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Transaction{}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreationDate.After(items[j].CreationDate)
	})
	return items, nil
}

func itob(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
