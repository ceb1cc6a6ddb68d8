package resolver

import (
	"slices"
	"time"

	"github.com/pable/casinolog/internal/model"
)

// barState is the per-session memory of the forward pass.
type barState struct {
	payout     map[int]string // payout amount -> most recently bought item
	lastBuy    map[string]time.Time
	lastPayout map[string]time.Time
	tiers      map[int]bool // ladder tiers announced so far
}

func (r *Resolver) newBarState() *barState {
	st := &barState{
		payout:     make(map[int]string),
		lastBuy:    make(map[string]time.Time),
		lastPayout: make(map[string]time.Time),
		tiers:      make(map[int]bool),
	}
	for _, b := range r.cat.Bars {
		st.payout[b.Payout] = b.Name
	}
	return st
}

// ResolveBar names the payouts of one bar session, then clears the names of
// purchases that nothing in the session confirmed. It returns the number of
// purchases cleared.
func (r *Resolver) ResolveBar(events []model.Event, s model.Session) int {
	st := r.newBarState()

	// ---- Pass 1: forward, attribute payouts. ----

	for _, id := range s.IDs {
		ev := &events[id]
		switch ev.Direction {
		case model.DirPay:
			if item, ok := r.cat.Bar(ev.Name); ok {
				st.payout[item.Payout] = item.Name
			}
			st.lastBuy[ev.Name] = ev.Time

		case model.DirGain:
			name := r.overridden(st, st.payout[ev.Amount], ev.Time)
			ev.Name = name
			if name != "" {
				st.lastPayout[name] = ev.Time
			}

		case model.DirCharge:
			ev.Name = r.charge(st, ev.Amount, ev.Time)

		case model.DirMessage:
			ev.Name = r.ladderMessage(st, ev.Amount)
			if ev.Name != "" {
				st.lastPayout[ev.Name] = ev.Time
			}
		}
	}

	// ---- Pass 2: backward, drop purchases that were never used. ----

	confirmed := make(map[string]bool)
	demoted := 0
	for i := len(s.IDs) - 1; i >= 0; i-- {
		ev := &events[s.IDs[i]]
		switch ev.Direction {
		case model.DirGain, model.DirCharge, model.DirMessage:
			if ev.Name != "" {
				confirmed[ev.Name] = true
			}
		case model.DirPay:
			if ev.Name != "" && !confirmed[ev.Name] && !r.singleShot[ev.Name] {
				ev.Name = ""
				demoted++
			}
		}
	}
	return demoted
}

// overridden applies the shared-payout rule: after the cut-over date, a
// payout of the override item goes to its replacement unless the item itself
// was bought within the window.
func (r *Resolver) overridden(st *barState, name string, at time.Time) string {
	o := r.bar.Override
	if !r.override || name != o.Item || at.Before(r.since) {
		return name
	}
	if t, ok := st.lastBuy[o.Item]; ok && at.Sub(t) <= o.Window {
		return name
	}
	return o.Replacement
}

// tierReached reports whether tier is a ladder tier and every tier below
// it was already announced in the session.
func (r *Resolver) tierReached(st *barState, tier int) bool {
	for _, t := range r.bar.LadderTiers {
		if t == tier {
			return true
		}
		if !st.tiers[t] {
			return false
		}
	}
	return false
}

// ladderMessage attributes a tier announcement to the most recently bought
// ladder item, provided every lower tier was already announced.
func (r *Resolver) ladderMessage(st *barState, tier int) string {
	if !slices.Contains(r.bar.LadderTiers, tier) {
		return ""
	}
	reached := r.tierReached(st, tier)
	st.tiers[tier] = true
	if !reached {
		return ""
	}

	best := ""
	var bestAt time.Time
	for _, name := range r.ladder {
		if t, ok := st.lastBuy[name]; ok && (best == "" || t.After(bestAt)) {
			best, bestAt = name, t
		}
	}
	return best
}

// charge attributes a cash-out of a ladder item. Only tier amounts whose
// lower tiers were announced qualify; the item is the one whose last payout,
// or failing that last purchase, lies closest within the charge window.
func (r *Resolver) charge(st *barState, amount int, at time.Time) string {
	if !r.tierReached(st, amount) {
		return ""
	}
	name := nearest(r.ladder, st.lastPayout, at, r.bar.ChargeWindow)
	if name == "" {
		name = nearest(r.ladder, st.lastBuy, at, r.bar.ChargeWindow)
	}
	return name
}

// nearest returns the candidate whose timestamp in seen lies within window
// before at with the smallest delta. Ties keep the earlier candidate.
func nearest(candidates []string, seen map[string]time.Time, at time.Time, window time.Duration) string {
	best := ""
	var bestDelta time.Duration
	for _, name := range candidates {
		t, ok := seen[name]
		if !ok {
			continue
		}
		d := at.Sub(t)
		if d < 0 || d > window {
			continue
		}
		if best == "" || d < bestDelta {
			best, bestDelta = name, d
		}
	}
	return best
}
