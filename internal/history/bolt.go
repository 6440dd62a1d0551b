package history

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
)

const (
	bucketName    = "history"
	dbPermissions = 0600
)

// record is the CBOR value stored per application id.
type record struct {
	Count uint64 `cbor:"1,keyasint"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("history: CBOR encoder initialization failed: " + err.Error())
	}
}

// BoltStore keeps the history in a bbolt database, one key per id.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, dbPermissions, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load() (*History, error) {
	h := New()
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec record
			if err := cbor.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode record %q: %w", k, err)
			}
			if len(k) > 0 {
				h.counts[string(k)] = rec.Count
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[HISTORY] Loaded %d usage records from bolt", h.Len())
	return h, nil
}

func (s *BoltStore) Save(h *History) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(bucketName)) != nil {
			if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
				return fmt.Errorf("failed to reset bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		for id, count := range h.counts {
			val, err := encMode.Marshal(record{Count: count})
			if err != nil {
				return fmt.Errorf("failed to encode record %q: %w", id, err)
			}
			if err := b.Put([]byte(id), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
