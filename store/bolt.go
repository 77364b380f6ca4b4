// Package store persists sampler archives. BoltIO stores draws in a
// bolt database while a chain runs; ExportSQLite writes finished
// archives into a long-format SQLite table.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/tefactor/sampler"
)

// Bucket names.
var (
	// META stores archive metadata.
	META = []byte("meta")
	// DRAWS stores one sub-bucket of draws per chain.
	DRAWS = []byte("draws")
)

// ChainKey returns the key of a chain.
func ChainKey(runID string, chain int) []byte {
	return []byte(fmt.Sprintf("%s/%d", runID, chain))
}

// iterKey returns the key of an iteration, keys are sorted by
// iteration.
func iterKey(iter int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(iter))
	return k
}

// pending is a serialized draw waiting to be saved.
type pending struct {
	chain []byte
	iter  []byte
	data  []byte
}

// BoltIO saves draws to a bolt database. Draws are buffered and
// written when the last save is older than the given number of
// seconds. BoltIO can be shared between chains.
type BoltIO struct {
	db      *bolt.DB
	seconds float64

	mu      sync.Mutex
	last    time.Time
	buffer  []pending
	written map[string]bool
}

// NewBoltIO creates a new BoltIO.
func NewBoltIO(db *bolt.DB, seconds float64) *BoltIO {
	s := &BoltIO{
		db:      db,
		seconds: seconds,
		written: make(map[string]bool),
	}
	s.SetNow()
	return s
}

// Old returns true if the last save was too long ago.
func (s *BoltIO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets the last save time to now.
func (s *BoltIO) SetNow() {
	s.last = time.Now()
}

// Record buffers a draw and saves the buffer if it is old.
func (s *BoltIO) Record(meta *sampler.Meta, d *sampler.Draw) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ChainKey(meta.RunID, meta.Chain)
	if !s.written[string(key)] {
		metaB, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := SaveData(s.db, META, key, metaB); err != nil {
			log.Error("Error saving archive metadata", err)
			return err
		}
		s.written[string(key)] = true
	}

	dataB, err := json.Marshal(d)
	if err != nil {
		log.Error("Error serializing draw", err)
		return err
	}
	s.buffer = append(s.buffer, pending{chain: key, iter: iterKey(d.Iter), data: dataB})
	if s.Old() {
		return s.flush()
	}
	return nil
}

// Flush saves all the buffered draws.
func (s *BoltIO) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// flush saves the buffer, the caller holds the lock.
func (s *BoltIO) flush() error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	if len(s.buffer) == 0 || s.db == nil {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		draws, err := tx.CreateBucketIfNotExists(DRAWS)
		if err != nil {
			return err
		}
		for _, p := range s.buffer {
			b, err := draws.CreateBucketIfNotExists(p.chain)
			if err != nil {
				return err
			}
			if err := b.Put(p.iter, p.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Error saving draws", err)
		return err
	}
	log.Debugf("Saved %d draws", len(s.buffer))
	s.buffer = s.buffer[:0]
	return nil
}

// SaveData saves a value in a bolt database bucket.
func SaveData(db *bolt.DB, bucket, key, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads a value from a bolt database bucket. It returns nil
// if the value doesn't exist.
func LoadData(db *bolt.DB, bucket, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ErrNotFound is returned if an archive is not in the database.
var ErrNotFound = errors.New("archive not found")

// Chains returns metadata of all the stored chains.
func Chains(db *bolt.DB) ([]sampler.Meta, error) {
	var metas []sampler.Meta
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(META)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var meta sampler.Meta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("%s: %v", k, err)
			}
			metas = append(metas, meta)
			return nil
		})
	})
	return metas, err
}

// LoadArchive reads an archive from the database.
func LoadArchive(db *bolt.DB, runID string, chain int) (*sampler.Archive, error) {
	key := ChainKey(runID, chain)
	metaB, err := LoadData(db, META, key)
	if err != nil {
		return nil, err
	}
	if metaB == nil {
		return nil, ErrNotFound
	}
	var meta sampler.Meta
	if err := json.Unmarshal(metaB, &meta); err != nil {
		return nil, err
	}
	a := sampler.NewArchive(meta)

	err = db.View(func(tx *bolt.Tx) error {
		draws := tx.Bucket(DRAWS)
		if draws == nil {
			return nil
		}
		b := draws.Bucket(key)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var d sampler.Draw
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("iteration %d: %v", binary.BigEndian.Uint64(k), err)
			}
			return a.Append(d)
		})
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded chain %s: %d of %d draws", key, a.Rows(), a.Total)
	return a, nil
}
