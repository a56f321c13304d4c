package transport

import (
	"encoding/json"
	"time"
)

// Envelope wraps every API payload, success and error alike, so clients can
// branch on Status before touching Data.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: StatusSuccess,
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: StatusError,
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// HealthReport is the /health payload. The instance keeps serving from the
// local cache while offline, so each dependency is reported individually
// instead of one aggregate flag.
type HealthReport struct {
	Timestamp time.Time  `json:"timestamp"`
	Services  ServiceSet `json:"services"`
}

type ServiceSet struct {
	PostgreSQL bool        `json:"postgresql"`
	Redis      bool        `json:"redis"`
	Queue      QueueStatus `json:"queue"`
}

// QueueStatus exposes the pending-change queue: depth tells operators how
// much offline work is waiting for the next drain.
type QueueStatus struct {
	Online bool `json:"online"`
	Depth  int  `json:"depth"`
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
