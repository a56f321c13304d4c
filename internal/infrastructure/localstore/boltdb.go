// Package localstore is the durable on-disk replica of the per-user schedule:
// the live activity list keyed by id, the last-active-date marker and the
// local copy of day archives. It is the "L" side of reconciliation and must
// stay readable without any network.
package localstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vendaplan/backend/domain"
)

var (
	bucketActivities = []byte("activities")
	bucketState      = []byte("state")
	bucketArchive    = []byte("archive")
)

// Store wraps BoltDB with one bucket per concern. Keys are prefixed with the
// user id so a single file serves every user of the instance.
type Store struct {
	db *bolt.DB
}

// Open initializes the BoltDB file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketActivities, bucketState, bucketArchive} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// GetActivities returns the cached live list for the user, ordered by id.
// Individual entries that no longer unmarshal are skipped; a failure to read
// the store at all is returned so the caller can degrade to remote-only.
func (s *Store) GetActivities(userID string) ([]domain.Activity, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	prefix := activityPrefix(userID)
	var activities []domain.Activity
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketActivities).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var activity domain.Activity
			if err := json.Unmarshal(v, &activity); err != nil {
				continue
			}
			activities = append(activities, activity)
		}
		return nil
	})
	return activities, err
}

// PutActivity inserts or replaces one cached activity.
func (s *Store) PutActivity(userID string, activity domain.Activity) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if activity.ID == 0 {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(activity)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketActivities).Put(activityKey(userID, activity.ID), payload)
	})
}

// ReplaceActivities overwrites the user's whole cached list.
func (s *Store) ReplaceActivities(userID string, activities []domain.Activity) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	prefix := activityPrefix(userID)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivities)
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		for i := range activities {
			payload, err := json.Marshal(activities[i])
			if err != nil {
				return err
			}
			if err := b.Put(activityKey(userID, activities[i].ID), payload); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteActivity removes one cached activity. Missing keys are not an error.
func (s *Store) DeleteActivity(userID string, id domain.ActivityID) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketActivities).Delete(activityKey(userID, id))
	})
}

// GetLastActiveDate returns the persisted rollover marker, empty when the
// user has never loaded on this instance.
func (s *Store) GetLastActiveDate(userID string) (string, error) {
	if s == nil || s.db == nil {
		return "", bolt.ErrDatabaseNotOpen
	}
	var marker string
	err := s.db.View(func(tx *bolt.Tx) error {
		marker = string(tx.Bucket(bucketState).Get([]byte(userID)))
		return nil
	})
	return marker, err
}

// SetLastActiveDate advances the rollover marker.
func (s *Store) SetLastActiveDate(userID, date string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(userID), []byte(date))
	})
}

// WriteArchive stores the day snapshot locally, replacing any prior entry
// for the same date.
func (s *Store) WriteArchive(userID, dateKey string, snapshot []domain.Activity) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketArchive).Put(archiveKey(userID, dateKey), payload)
	})
}

// GetArchive returns one locally stored day snapshot.
func (s *Store) GetArchive(userID, dateKey string) ([]domain.Activity, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var snapshot []domain.Activity
	err := s.db.View(func(tx *bolt.Tx) error {
		payload := tx.Bucket(bucketArchive).Get(archiveKey(userID, dateKey))
		if payload == nil {
			return domain.ErrArchiveNotFound
		}
		return json.Unmarshal(payload, &snapshot)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// History returns every locally archived snapshot for the user, keyed by date.
func (s *Store) History(userID string) (map[string][]domain.Activity, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	prefix := []byte(userID + "/")
	history := make(map[string][]domain.Activity)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketArchive).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var snapshot []domain.Activity
			if err := json.Unmarshal(v, &snapshot); err != nil {
				continue
			}
			history[string(k[len(prefix):])] = snapshot
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func activityPrefix(userID string) []byte {
	return []byte(userID + "/")
}

func activityKey(userID string, id domain.ActivityID) []byte {
	return []byte(fmt.Sprintf("%s/%020d", userID, int64(id)))
}

func archiveKey(userID, dateKey string) []byte {
	return []byte(userID + "/" + dateKey)
}
