package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActivityStatus enumerates the lifecycle states of a scheduled activity.
// The values mirror the wire format used by the field-sales clients (pt-BR).
type ActivityStatus string

const (
	StatusNotStarted ActivityStatus = "nao_iniciado"
	StatusInProgress ActivityStatus = "em_andamento"
	StatusPaused     ActivityStatus = "pausada"
	StatusCompleted  ActivityStatus = "concluido"
	StatusCancelled  ActivityStatus = "cancelada"
)

// ActivityID arrives from clients as a JSON number or a numeric string.
// Values that cannot be coerced decode to zero; the sanitizer rejects those.
type ActivityID int64

func (id *ActivityID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = ActivityID(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*id = ActivityID(int64(f))
		return nil
	}
	*id = 0
	return nil
}

// Counter is a per-day metric. Clients occasionally send these as strings or
// garbage; anything non-numeric decodes to zero instead of failing the whole
// payload.
type Counter int

func (c *Counter) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*c = Counter(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*c = Counter(int(f))
		return nil
	}
	*c = 0
	return nil
}

// Activity is a scheduled unit of sales work. The same identity survives day
// rollover; only the per-day fields are reset.
type Activity struct {
	ID               ActivityID     `json:"id"`
	Name             string         `json:"nome"`
	StartTime        string         `json:"horario_inicio"`
	EndTime          string         `json:"horario_fim,omitempty"`
	Duration         Counter        `json:"duracao,omitempty"`
	Status           ActivityStatus `json:"status,omitempty"`
	LeadsContacted   Counter        `json:"leads_contatados"`
	VisitsDone       Counter        `json:"visitas_realizadas"`
	SchedulingsMade  Counter        `json:"agendamentos_realizados"`
	Notes            string         `json:"observacoes,omitempty"`
	ActualStart      string         `json:"inicio_real,omitempty"`
	ActualEnd        string         `json:"fim_real,omitempty"`
	NotificationSent bool           `json:"notificacao_enviada,omitempty"`
	Date             string         `json:"date,omitempty"`
	UpdatedAt        string         `json:"updatedAt,omitempty"`
}

// clockLayouts are tried in order when parsing UpdatedAt. Clients emit ISO
// timestamps with varying precision.
var clockLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Clock parses UpdatedAt as the activity's logical clock. The second return
// is false when no usable timestamp is present, in which case the record must
// never win a merge.
func (a *Activity) Clock() (time.Time, bool) {
	if a == nil || a.UpdatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, a.UpdatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Touch stamps the logical clock with the given instant.
func (a *Activity) Touch(now time.Time) {
	a.UpdatedAt = now.UTC().Format(time.RFC3339)
}

// ResetForNewDay clears every per-day field in place. Identity, name, time
// window, duration and the logical clock are untouched.
func (a *Activity) ResetForNewDay() {
	a.Status = StatusNotStarted
	a.LeadsContacted = 0
	a.VisitsDone = 0
	a.SchedulingsMade = 0
	a.Notes = ""
	a.ActualStart = ""
	a.ActualEnd = ""
	a.NotificationSent = false
}

// Stamped returns a copy of the activity tagged with the given calendar date,
// as stored in day archives.
func (a Activity) Stamped(date string) Activity {
	a.Date = date
	return a
}

// Signature is the identity key used by the deduplicator: two records with
// the same name (case- and space-insensitive) and the same time window are
// the same logical activity.
func (a *Activity) Signature() string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(strings.TrimSpace(a.Name)), a.StartTime, a.EndTime)
}

func (a *Activity) IsCompleted() bool {
	return a != nil && a.Status == StatusCompleted
}

// DayKey formats an instant as the calendar-day key used by the rollover
// marker and the archive ("2006-01-02", local calendar).
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
