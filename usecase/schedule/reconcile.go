package schedule

import (
	"github.com/vendaplan/backend/domain"
)

// MergeResult is the outcome of reconciling the remote snapshot with the
// local cache. Callers only write back when Changed reports true.
type MergeResult struct {
	Activities []domain.Activity
	Inserted   int
	Replaced   int
}

func (r MergeResult) Changed() bool {
	return r.Inserted > 0 || r.Replaced > 0
}

// Merge produces one authoritative list from the remote snapshot and the
// local cache under last-write-wins:
//
//   - a local id absent from the remote list is inserted (created offline)
//   - a shared id is replaced only when the local clock is strictly newer;
//     equal clocks, a missing local clock, or an unparseable one all keep
//     the remote record (an untimestamped copy never overwrites server state)
//   - an empty remote snapshot (first login) adopts the local list as-is
//   - an empty local cache leaves the remote list untouched
//
// Merge is deterministic: remote order is preserved, replacements happen in
// place and insertions append in local order.
func Merge(remote, local []domain.Activity) MergeResult {
	if len(local) == 0 {
		return MergeResult{Activities: remote}
	}
	if len(remote) == 0 {
		return MergeResult{Activities: local, Inserted: len(local)}
	}

	merged := make([]domain.Activity, len(remote))
	copy(merged, remote)

	index := make(map[domain.ActivityID]int, len(merged))
	for i := range merged {
		index[merged[i].ID] = i
	}

	var result MergeResult
	for _, entry := range local {
		pos, shared := index[entry.ID]
		if !shared {
			merged = append(merged, entry)
			index[entry.ID] = len(merged) - 1
			result.Inserted++
			continue
		}

		localClock, localOK := entry.Clock()
		if !localOK {
			continue
		}
		remoteClock, remoteOK := merged[pos].Clock()
		if !remoteOK || localClock.After(remoteClock) {
			merged[pos] = entry
			result.Replaced++
		}
	}

	result.Activities = merged
	return result
}
