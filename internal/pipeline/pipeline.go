// Package pipeline runs the casino log stages in order: match, segment,
// resolve, aggregate. Each stage sees the complete output of the previous
// one before it starts.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pable/casinolog/internal/aggregator"
	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/logfile"
	"github.com/pable/casinolog/internal/model"
	"github.com/pable/casinolog/internal/parser"
	"github.com/pable/casinolog/internal/resolver"
	"github.com/pable/casinolog/internal/session"
)

// ErrNoCatalog is returned when the run has neither bar items nor slot machines.
var ErrNoCatalog = errors.New("no catalog loaded")

// Result is everything a run produces.
type Result struct {
	Events   []model.Event   // indexed by Event.ID
	Sessions []model.Session // grouped by category in model.Categories order
	Exits    []int           // ids of status events that left the casino
	Stats    *model.Stats
}

// Run processes days in the order given.
func Run(days []logfile.Day, cat *model.Catalog, cfg *config.Config) (*Result, error) {
	if cat == nil || (len(cat.Bars) == 0 && len(cat.Slots) == 0) {
		return nil, ErrNoCatalog
	}

	res := &Result{}

	// ---- Stage 1: match lines into the event table. ----

	m := parser.NewMatcher(cfg.Scope)
	for _, day := range days {
		for _, line := range day.Lines {
			wasIn := m.Status.InScope()
			ev, ok := m.Match(day.Date, line)
			if !ok {
				continue
			}
			if err := ev.Validate(); err != nil {
				slog.Debug("dropping malformed event", "file", day.Name, "err", err)
				continue
			}
			ev.ID = len(res.Events)
			res.Events = append(res.Events, ev)
			if ev.Category == model.CategoryStatus && wasIn && !m.Status.InScope() {
				res.Exits = append(res.Exits, ev.ID)
			}
		}
	}
	slog.Debug("matched events", "events", len(res.Events), "exits", len(res.Exits))

	// ---- Stage 2: segment each category. ----

	ids := idsByCategory(res.Events)
	for _, c := range model.Categories {
		var sessions []model.Session
		if c == model.CategorySlot {
			sessions = session.SegmentSlot(res.Events, ids[c], session.SlotOptions{
				Gap:       cfg.Segment.SlotGap,
				FreeRoles: cfg.Slot.FreeSpinRoles,
				Catalog:   cat,
			})
		} else {
			sessions = session.Segment(res.Events, ids[c], res.Exits, cfg.Segment.Gap)
		}
		slog.Debug("segmented", "category", c, "sessions", len(sessions))
		res.Sessions = append(res.Sessions, sessions...)
	}

	// ---- Stage 3: resolve identities. ----

	r := resolver.New(cat, cfg)
	demoted, unresolved := 0, 0
	for _, s := range res.Sessions {
		switch s.Category {
		case model.CategoryBar:
			demoted += r.ResolveBar(res.Events, s)
		case model.CategorySlot:
			if r.ResolveSlot(res.Events, s) == model.Unknown {
				unresolved++
			}
		}
	}
	slog.Debug("resolved identities", "demoted_purchases", demoted, "unresolved_slot_sessions", unresolved)

	// ---- Stage 4: aggregate. ----

	stats, err := aggregator.Aggregate(res.Events, res.Sessions, cat, aggregator.Options{
		Continuation: cfg.Bar.Continuation,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	res.Stats = stats
	return res, nil
}

// idsByCategory lists each casino category's event ids in time order. Ties
// keep table order.
func idsByCategory(events []model.Event) map[model.Category][]int {
	out := make(map[model.Category][]int)
	for _, ev := range events {
		if ev.Category == model.CategoryStatus {
			continue
		}
		out[ev.Category] = append(out[ev.Category], ev.ID)
	}
	for _, ids := range out {
		sort.SliceStable(ids, func(i, j int) bool {
			return events[ids[i]].Time.Before(events[ids[j]].Time)
		})
	}
	return out
}

// Session returns the events of one indexed session in id order.
func (r *Result) Session(key model.IndexKey) []model.Event {
	var out []model.Event
	for _, id := range r.Stats.Index[key] {
		out = append(out, r.Events[id])
	}
	return out
}
