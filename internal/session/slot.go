package session

import (
	"time"

	"github.com/pable/casinolog/internal/model"
)

// SlotOptions configures slot segmentation.
type SlotOptions struct {
	Gap       time.Duration
	FreeRoles []string       // hint roles that award free spins
	Catalog   *model.Catalog // used to name the machine a free run came from
}

// slotState is the fold carried across slot events. step never looks at
// anything but the state and the current event.
type slotState struct {
	last    time.Time       // last pay, gain or lose
	price   int             // price of the current paid run
	lastDir model.Direction // last pay or gain
	role    string          // latest hint role since the last pay
	free    bool
	source  string // machine whose hint started the free run
}

// slotStep is the outcome of folding one event.
type slotStep struct {
	split bool
	price int // price stamped on the event
}

// SegmentSlot splits slot events on inactivity, price changes and free-spin
// boundaries. It stamps each event's Price: pays carry their own amount,
// other events inherit the run price, and free-run events carry 0.
func SegmentSlot(events []model.Event, ids []int, opts SlotOptions) []model.Session {
	var out []model.Session
	var cur model.Session
	st := slotState{}

	flush := func() {
		if len(cur.IDs) == 0 {
			return
		}
		cur.Category = model.CategorySlot
		cur.Index = len(out)
		out = append(out, cur)
		cur = model.Session{}
	}

	for _, id := range ids {
		ev := &events[id]
		var step slotStep
		st, step = st.step(*ev, opts)
		if step.split {
			flush()
		}
		ev.Price = step.price
		if len(cur.IDs) == 0 {
			cur.Price = step.price
			cur.Free = st.free
			cur.Source = st.source
		}
		cur.IDs = append(cur.IDs, id)
	}
	flush()
	return out
}

func (st slotState) step(ev model.Event, opts SlotOptions) (slotState, slotStep) {
	idle := !st.last.IsZero() && ev.Time.Sub(st.last) > opts.Gap

	switch ev.Direction {
	case model.DirHint:
		st.role = ev.Role
		return st, slotStep{price: st.runPrice()}

	case model.DirLose:
		st.last = ev.Time
		return st, slotStep{split: idle, price: st.runPrice()}

	case model.DirPay:
		split := idle || st.free || (st.lastDir != "" && ev.Amount != st.price)
		st.last = ev.Time
		st.price = ev.Amount
		st.lastDir = model.DirPay
		st.role = ""
		st.free = false
		st.source = ""
		return st, slotStep{split: split, price: ev.Amount}

	case model.DirGain:
		split := idle
		if containsString(opts.FreeRoles, st.role) {
			src := freeSource(opts.Catalog, st.price, st.role)
			switch {
			case !st.free && st.lastDir == model.DirGain:
				st.free = true
				st.source = src
				split = true
			case st.free && src != st.source:
				st.source = src
				split = true
			}
		}
		st.last = ev.Time
		st.lastDir = model.DirGain
		return st, slotStep{split: split, price: st.runPrice()}
	}

	return st, slotStep{price: st.runPrice()}
}

func (st slotState) runPrice() int {
	if st.free {
		return 0
	}
	return st.price
}

// freeSource names the first machine at price whose roles include role.
func freeSource(cat *model.Catalog, price int, role string) string {
	if cat == nil {
		return model.Unknown
	}
	for _, m := range cat.SlotsAt(price) {
		if m.HasRole(role) {
			return m.Name
		}
	}
	return model.Unknown
}

func containsString(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
