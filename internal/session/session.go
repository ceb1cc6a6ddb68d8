// Package session partitions each category's events into sessions.
//
// Input id lists must be chronological and restricted to one category.
// Every id lands in exactly one session, and sessions come out in order.
package session

import (
	"sort"
	"time"

	"github.com/pable/casinolog/internal/model"
)

// Segment applies the default strategy used for bar, changer and ptop: a new
// session starts when the gap to the previous event exceeds gap, or when a
// casino exit was recorded between the two events.
func Segment(events []model.Event, ids []int, exits []int, gap time.Duration) []model.Session {
	var out []model.Session
	var cur []int

	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, model.Session{
			Category: events[cur[0]].Category,
			Index:    len(out),
			IDs:      cur,
		})
		cur = nil
	}

	for _, id := range ids {
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			if events[id].Time.Sub(events[prev].Time) > gap || exitBetween(exits, prev, id) {
				flush()
			}
		}
		cur = append(cur, id)
	}
	flush()
	return out
}

// exitBetween reports whether a sorted exits list holds an id in (prev, id).
func exitBetween(exits []int, prev, id int) bool {
	i := sort.SearchInts(exits, prev+1)
	return i < len(exits) && exits[i] < id
}
