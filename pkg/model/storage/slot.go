package storage

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/kvstore"
)

// Slot is a single JSON encoded value stored under a fixed key.
type Slot struct {
	store kvstore.KVStore
	key   kvstore.Key
}

// NewSlot returns the slot stored under prefix + name.
func NewSlot(store kvstore.KVStore, prefix byte, name string) *Slot {
	return &Slot{
		store: store,
		key:   append([]byte{prefix}, name...),
	}
}

// Key returns the database key of the slot.
func (s *Slot) Key() kvstore.Key {
	return s.key
}

// Load decodes the stored value into v.
// It returns false if nothing was stored yet, and ErrCorruptedValue if the value could not be decoded.
func (s *Slot) Load(v interface{}) (bool, error) {
	data, err := s.store.Get(s.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(NewDatabaseError(err), "failed to read %s", s.key)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return true, errors.Wrapf(ErrCorruptedValue, "key %s: %s", s.key, err)
	}
	return true, nil
}

// Store encodes v and writes it to the slot.
func (s *Slot) Store(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", s.key)
	}

	if err := s.store.Set(s.key, data); err != nil {
		return errors.Wrapf(NewDatabaseError(err), "failed to write %s", s.key)
	}
	return nil
}

// Raw returns the stored bytes, or nil if nothing was stored yet.
func (s *Slot) Raw() ([]byte, error) {
	data, err := s.store.Get(s.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(NewDatabaseError(err), "failed to read %s", s.key)
	}
	return data, nil
}

// Delete removes the stored value.
func (s *Slot) Delete() error {
	if err := s.store.Delete(s.key); err != nil {
		return errors.Wrapf(NewDatabaseError(err), "failed to delete %s", s.key)
	}
	return nil
}
