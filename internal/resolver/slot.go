package resolver

import "github.com/pable/casinolog/internal/model"

// fallbackRoles mark a machine as the catch-all for its price.
var fallbackRoles = []string{"other", "undefined"}

// ResolveSlot names every event of a slot session with the machine it was
// played on and returns that name.
func (r *Resolver) ResolveSlot(events []model.Event, s model.Session) string {
	name := r.slotMachine(events, s)
	for _, id := range s.IDs {
		events[id].Name = name
	}
	return name
}

func (r *Resolver) slotMachine(events []model.Event, s model.Session) string {
	if s.Free {
		return r.freeMachine(events, s)
	}

	for _, id := range s.IDs {
		if ev := events[id]; ev.Direction == model.DirPay && ev.Amount != s.Price {
			return model.Unknown
		}
	}

	candidates := r.cat.SlotsAt(s.Price)
	switch len(candidates) {
	case 0:
		return model.Unknown
	case 1:
		return candidates[0].Name
	}

	// A hint votes for the first machine, in catalog order, that lists its role.
	votes := make(map[string]int)
	for _, id := range s.IDs {
		ev := events[id]
		if ev.Direction != model.DirHint {
			continue
		}
		for _, m := range candidates {
			if m.HasRole(ev.Role) {
				votes[m.Name]++
				break
			}
		}
	}

	if len(votes) == 0 {
		var fallback []string
		for _, m := range candidates {
			for _, role := range fallbackRoles {
				if m.HasRole(role) {
					fallback = append(fallback, m.Name)
					break
				}
			}
		}
		if len(fallback) == 1 {
			return fallback[0]
		}
		return model.Unknown
	}

	best, top, tied := "", 0, false
	for _, m := range candidates {
		n := votes[m.Name]
		switch {
		case n > top:
			best, top, tied = m.Name, n, false
		case n == top && n > 0:
			tied = true
		}
	}
	if tied {
		return model.Unknown
	}
	return best
}

// freeMachine names a free-spin session by the payout band holding its
// largest gain.
func (r *Resolver) freeMachine(events []model.Event, s model.Session) string {
	largest := 0
	for _, id := range s.IDs {
		if ev := events[id]; ev.Direction == model.DirGain && ev.Amount > largest {
			largest = ev.Amount
		}
	}
	if largest == 0 {
		return model.Unknown
	}
	for _, b := range r.bands {
		if largest >= b.Min && largest <= b.Max {
			return b.Machine
		}
	}
	return model.Unknown
}
