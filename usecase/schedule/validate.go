package schedule

import (
	"regexp"
	"strings"

	"github.com/vendaplan/backend/domain"
)

// timeOfDay matches a real HH:MM wall-clock value.
var timeOfDay = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Sanitize normalizes a list of activities and drops the unrecoverably
// corrupt ones. A record is dropped when it lacks a numeric id, a usable
// name, or a real HH:MM start time; these are corruption, not defaults.
// Survivors get negative counters clamped to zero, the duration backfilled
// from the time window and an empty status defaulted to not-started.
//
// The pass is idempotent: running it on already-clean data changes nothing.
// It runs on every load (after rollover), on import, and after a merge.
func Sanitize(in []domain.Activity) ([]domain.Activity, int) {
	if len(in) == 0 {
		return nil, 0
	}

	out := make([]domain.Activity, 0, len(in))
	dropped := 0
	for _, activity := range in {
		if !usable(&activity) {
			dropped++
			continue
		}
		normalize(&activity)
		out = append(out, activity)
	}
	if len(out) == 0 {
		out = nil
	}
	return out, dropped
}

func usable(a *domain.Activity) bool {
	if a.ID == 0 {
		return false
	}
	name := strings.TrimSpace(a.Name)
	if name == "" || name == "undefined" {
		return false
	}
	start := strings.TrimSpace(a.StartTime)
	if start == "" || start == "undefined" || start == "--:--" || !timeOfDay.MatchString(start) {
		return false
	}
	return true
}

func normalize(a *domain.Activity) {
	if a.LeadsContacted < 0 {
		a.LeadsContacted = 0
	}
	if a.VisitsDone < 0 {
		a.VisitsDone = 0
	}
	if a.SchedulingsMade < 0 {
		a.SchedulingsMade = 0
	}
	if a.Duration <= 0 {
		a.Duration = domain.Counter(windowMinutes(a.StartTime, a.EndTime))
	}
	if a.Status == "" {
		a.Status = domain.StatusNotStarted
	}
}

// windowMinutes derives the duration from the HH:MM window. A window ending
// past midnight wraps forward; an unusable end time yields zero.
func windowMinutes(start, end string) int {
	startMin, ok := parseMinutes(start)
	if !ok {
		return 0
	}
	endMin, ok := parseMinutes(end)
	if !ok {
		return 0
	}
	diff := endMin - startMin
	if diff < 0 {
		diff += 24 * 60
	}
	return diff
}

func parseMinutes(value string) (int, bool) {
	if !timeOfDay.MatchString(value) {
		return 0, false
	}
	h := int(value[0]-'0')*10 + int(value[1]-'0')
	m := int(value[3]-'0')*10 + int(value[4]-'0')
	return h*60 + m, true
}
