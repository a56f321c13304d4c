package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Queue wraps BoltDB to persist pending changes while the remote store is
// unavailable. Keys encode the enqueue timestamp so a cursor walk yields
// strict insertion order.
type Queue struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Queue, error) {
	if bucket == "" {
		bucket = "pending_changes"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Queue{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue durably appends a change. The key is derived from the enqueue
// timestamp, never from the replay attempt, so retried entries keep their
// original position.
func (q *Queue) Enqueue(change Change) error {
	if q == nil || q.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	change.normalize()
	change.bucketKey = []byte(buildKey(change))

	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	return q.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(q.bucket).Put(change.bucketKey, payload)
	})
}

// Peek returns up to limit changes in insertion order without removing them.
// Entries that no longer unmarshal are skipped here and purged by the drain.
func (q *Queue) Peek(limit int) ([]Change, error) {
	if q == nil || q.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var changes []Change
	err := q.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(q.bucket).Cursor()
		for k, v := c.First(); k != nil && len(changes) < limit; k, v = c.Next() {
			var change Change
			if err := json.Unmarshal(v, &change); err != nil {
				continue
			}
			change.bucketKey = append([]byte(nil), k...)
			changes = append(changes, change)
		}
		return nil
	})
	return changes, err
}

// Remove deletes the provided change from the queue.
func (q *Queue) Remove(change Change) error {
	if q == nil || q.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(change.bucketKey) == 0 {
		return q.deleteByID(change.ID)
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(q.bucket).Delete(change.bucketKey)
	})
}

// Update rewrites a change in place (same key), used to persist the retry
// counter without disturbing the drain order.
func (q *Queue) Update(change Change) error {
	if q == nil || q.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(change.bucketKey) == 0 {
		change.bucketKey = []byte(buildKey(change))
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(q.bucket).Put(change.bucketKey, payload)
	})
}

// Size returns the number of pending changes.
func (q *Queue) Size() (int, error) {
	if q == nil || q.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := q.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(q.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes changes older than the provided timestamp.
func (q *Queue) Cleanup(olderThan time.Time) error {
	if q == nil || q.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(q.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var change Change
			if err := json.Unmarshal(v, &change); err != nil {
				continue
			}
			if change.Timestamp.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the Bolt database.
func (q *Queue) Close() error {
	if q == nil || q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (q *Queue) Stats() bolt.Stats {
	if q == nil || q.db == nil {
		return bolt.Stats{}
	}
	return q.db.Stats()
}

func (q *Queue) deleteByID(id string) error {
	if id == "" {
		return nil
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(q.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var change Change
			if err := json.Unmarshal(v, &change); err != nil {
				continue
			}
			if change.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

func buildKey(change Change) string {
	return fmt.Sprintf("%020d_%s", change.Timestamp.UnixNano(), change.ID)
}
