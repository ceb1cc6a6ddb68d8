package aggregator

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pable/casinolog/internal/model"
)

// Options carries the bar settings the fold needs beyond the catalog.
type Options struct {
	Continuation []string // items whose payout means "one more round"
}

// ptopGroup is the index group for player-to-player events, which have no
// per-entity breakdown.
const ptopGroup = "total"

// Aggregate folds resolved events into the statistics tree. Sessions may be
// listed in any category order but must be chronological within a category.
func Aggregate(events []model.Event, sessions []model.Session, cat *model.Catalog, opts Options) (*model.Stats, error) {
	if cat == nil {
		return nil, fmt.Errorf("nil catalog")
	}

	stats := &model.Stats{
		Bar:         model.NewNode(string(model.CategoryBar)),
		Slot:        model.NewNode(string(model.CategorySlot)),
		Changer:     model.NewNode(string(model.CategoryChanger)),
		PtoP:        model.NewNode(string(model.CategoryPtoP)),
		LoseStreaks: make(map[string][]model.StreakRun),
		WinStreaks:  make(map[string][]model.StreakRun),
		Index:       model.SessionIndex{},
	}

	byCategory := make(map[model.Category][]model.Session)
	for _, s := range sessions {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	// ---- Pass 1: bar ledger and streak runs. ----

	foldBar(stats, events, byCategory[model.CategoryBar], cat)

	// ---- Pass 2: slot ledger, durations and role histograms. ----

	for _, s := range byCategory[model.CategorySlot] {
		foldSlot(stats, events, s)
	}

	// ---- Pass 3: changer prizes and player-to-player totals. ----

	for _, s := range byCategory[model.CategoryChanger] {
		for _, id := range s.IDs {
			ev := events[id]
			prize := ev.Name
			if prize == "" {
				prize = model.Unknown
			}
			credit(ev, stats.Changer, stats.Changer.Child(prize))
			stats.Index.Add(model.IndexKey{Category: model.CategoryChanger, Group: prize, Session: s.Index}, id)
		}
	}
	for _, s := range byCategory[model.CategoryPtoP] {
		for _, id := range s.IDs {
			credit(events[id], stats.PtoP)
			stats.Index.Add(model.IndexKey{Category: model.CategoryPtoP, Group: ptopGroup, Session: s.Index}, id)
		}
	}

	// ---- Pass 4: totals and probabilities, once everything is folded. ----

	finalize(stats, opts)
	return stats, nil
}

// credit adds one event's amount and count to every node on its path.
func credit(ev model.Event, nodes ...*model.Node) {
	for _, n := range nodes {
		switch {
		case ev.Direction == model.DirPay:
			n.PayAmount += int64(ev.Amount)
			n.PayCount++
		case ev.IsWin():
			n.GainAmount += int64(ev.Amount)
			n.GainCount++
		case ev.Direction == model.DirLose:
			n.LoseCount++
		}
	}
}

// barRun tracks one item's open lose and win runs.
type barRun struct {
	lose, win           int
	loseStart, winStart int
}

func foldBar(stats *model.Stats, events []model.Event, sessions []model.Session, cat *model.Catalog) {
	runs := make(map[string]*barRun)
	run := func(item string) *barRun {
		r, ok := runs[item]
		if !ok {
			r = &barRun{}
			runs[item] = r
		}
		return r
	}
	lastID := -1

	for _, s := range sessions {
		var touched []string // items seen in this session, for indexing losses
		seen := make(map[string]bool)

		for _, id := range s.IDs {
			ev := events[id]
			lastID = id

			if ev.Direction == model.DirLose {
				credit(ev, stats.Bar)
				for _, item := range touched {
					stats.Index.Add(model.IndexKey{Category: model.CategoryBar, Group: item, Session: s.Index}, id)
				}
				// A loss is category-wide: every open win run ends here.
				for _, item := range sortedKeys(runs) {
					r := runs[item]
					if r.win > 0 {
						stats.WinStreaks[item] = append(stats.WinStreaks[item], model.StreakRun{Count: r.win, StartID: r.winStart, EndID: id})
						r.win = 0
					}
				}
				continue
			}

			genre, item := barGroup(cat, ev.Name)
			g := stats.Bar.Child(genre)
			n := g.Child(item)
			if !seen[item] {
				seen[item] = true
				touched = append(touched, item)
			}
			stats.Index.Add(model.IndexKey{Category: model.CategoryBar, Group: item, Session: s.Index}, id)

			if b, ok := cat.Bar(item); ok {
				n.Payout = b.Payout
			}

			r := run(item)
			switch {
			case ev.Direction == model.DirPay:
				credit(ev, stats.Bar, g, n)
				if n.UnitPrice == 0 {
					n.UnitPrice = ev.Amount
				}
				if r.lose == 0 {
					r.loseStart = id
				}
				r.lose++

			case ev.IsWin():
				credit(ev, stats.Bar, g, n)
				if n.Outcomes == nil {
					n.Outcomes = make(map[int]int)
				}
				n.Outcomes[ev.Amount]++
				if r.lose > 0 {
					stats.LoseStreaks[item] = append(stats.LoseStreaks[item], model.StreakRun{Count: r.lose, StartID: r.loseStart, EndID: id})
					r.lose = 0
				}
				if r.win == 0 {
					r.winStart = id
				}
				r.win++

			case ev.Direction == model.DirMessage:
				if n.Messages == nil {
					n.Messages = make(map[int]int)
				}
				n.Messages[ev.Amount]++
			}
		}
	}

	// Runs still open at the end of input are kept as partial runs.
	for _, item := range sortedKeys(runs) {
		r := runs[item]
		if r.lose > 0 {
			stats.LoseStreaks[item] = append(stats.LoseStreaks[item], model.StreakRun{Count: r.lose, StartID: r.loseStart, EndID: lastID})
		}
		if r.win > 0 {
			stats.WinStreaks[item] = append(stats.WinStreaks[item], model.StreakRun{Count: r.win, StartID: r.winStart, EndID: lastID})
		}
	}
}

// barGroup returns the genre and item an event is booked under.
func barGroup(cat *model.Catalog, name string) (genre, item string) {
	if name == "" {
		return model.Unknown, model.Unknown
	}
	if b, ok := cat.Bar(name); ok {
		return b.Genre, b.Name
	}
	return model.Unknown, name
}

func foldSlot(stats *model.Stats, events []model.Event, s model.Session) {
	if len(s.IDs) == 0 {
		return
	}
	machine := events[s.IDs[0]].Name
	if machine == "" {
		machine = model.Unknown
	}
	g := stats.Slot.Child(strconv.Itoa(s.Price))
	n := g.Child(machine)
	if s.Free && s.Source != "" {
		if n.Sources == nil {
			n.Sources = make(map[string]int)
		}
		n.Sources[s.Source]++
	}

	for _, id := range s.IDs {
		ev := events[id]
		stats.Index.Add(model.IndexKey{Category: model.CategorySlot, Group: machine, Session: s.Index}, id)

		switch ev.Direction {
		case model.DirHint:
			if n.Roles == nil {
				n.Roles = make(map[string]int)
			}
			n.Roles[ev.Role]++
		case model.DirGain:
			if n.Outcomes == nil {
				n.Outcomes = make(map[int]int)
			}
			n.Outcomes[ev.Amount]++
		}
		credit(ev, stats.Slot, g, n)
	}

	d := events[s.IDs[len(s.IDs)-1]].Time.Sub(events[s.IDs[0]].Time)
	stats.Slot.Duration += d
	g.Duration += d
	n.Duration += d
}

func finalize(stats *model.Stats, opts Options) {
	continuation := make(map[string]bool)
	for _, name := range opts.Continuation {
		continuation[name] = true
	}

	for _, c := range model.Categories {
		stats.Root(c).Walk(func(path []string, n *model.Node) {
			n.Total = n.GainAmount - n.PayAmount
		})
	}

	// Bar items sit at depth two: genre, item.
	stats.Bar.Walk(func(path []string, n *model.Node) {
		if len(path) != 2 || n.PayCount == 0 {
			return
		}
		p := float64(n.GainCount) / float64(n.PayCount)
		if continuation[n.Name] {
			p = p / (p + 1)
		}
		n.Probability = p
	})
}

func sortedKeys(m map[string]*barRun) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
