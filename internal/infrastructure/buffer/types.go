package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vendaplan/backend/domain"
)

const (
	KindCreate = "create"
	KindUpdate = "update"
	KindDelete = "delete"
)

// Change is a local mutation that could not be confirmed against the remote
// store and must be replayed. Replay is at-least-once; safety relies on the
// remote write being an idempotent upsert.
type Change struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Kind       string            `json:"kind"`
	ActivityID domain.ActivityID `json:"activity_id"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Retries    int               `json:"retries"`
	Timestamp  time.Time         `json:"timestamp"`

	bucketKey []byte
}

func (c *Change) normalize() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
}

// Valid reports whether the change carries enough identity to be replayed.
// Entries failing this are dropped by the drain instead of blocking it.
func (c *Change) Valid() bool {
	if c == nil || c.UserID == "" || c.ActivityID == 0 {
		return false
	}
	switch c.Kind {
	case KindCreate, KindUpdate, KindDelete:
		return true
	default:
		return false
	}
}
