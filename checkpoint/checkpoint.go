// Package checkpoint stores finished fits in a bolt database, so that
// interrupted batch runs can be resumed.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all fits.
var MAIN = []byte("main")

// CheckpointData stores a single fit.
type CheckpointData struct {
	Parameters map[string]float64 `json:"parameters"`
	Likelihood float64            `json:"lnL"`
	// Lower and Upper are the confidence interval bounds of the
	// parameters for which an interval was computed.
	Lower     map[string]float64 `json:"lower,omitempty"`
	Upper     map[string]float64 `json:"upper,omitempty"`
	Iter      int                `json:"iterations"`
	Converged bool               `json:"converged"`
	Error     string             `json:"error,omitempty"`
	Final     bool               `json:"final"`
	// Setup identifies the input and settings of the fit; data with
	// a different setup is stale.
	Setup string `json:"setup,omitempty"`
}

// Open opens (or creates) a checkpoint database.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint %s: %w", path, err)
	}
	return db, nil
}

// CheckpointIO saves and loads the fit stored under a key.
type CheckpointIO struct {
	db  *bolt.DB
	key []byte
}

// NewCheckpointIO creates a new CheckpointIO. A nil database turns
// all the operations into no-ops.
func NewCheckpointIO(db *bolt.DB, key []byte) (s *CheckpointIO) {
	s = &CheckpointIO{
		db:  db,
		key: key,
	}
	return
}

// Save saves checkpoint to the database.
func (s *CheckpointIO) Save(data *CheckpointData) error {
	dataB, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, dataB)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns the stored fit, or nil if there is none.
func (s *CheckpointIO) Load() (*CheckpointData, error) {
	var data *CheckpointData

	b, err := LoadData(s.db, s.key)

	if err != nil || b == nil {
		return nil, err
	}

	err = json.Unmarshal(b, &data)

	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, nil
	}

	if data.Final {
		log.Debugf("Found finished fit %s (iter=%v, lnL=%v)", s.key, data.Iter, data.Likelihood)
	} else {
		log.Debugf("Found unfinished fit %s (iter=%v, lnL=%v)", s.key, data.Iter, data.Likelihood)
	}

	return data, nil
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		// values are only valid inside the transaction
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

// Keys returns all the stored keys in byte order.
func Keys(db *bolt.DB) ([]string, error) {
	var keys []string
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
