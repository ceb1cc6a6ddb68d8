package resolver

import (
	"testing"
	"time"

	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/model"
)

var t0 = time.Date(2025, 4, 10, 20, 0, 0, 0, time.UTC)

func barCatalog() *model.Catalog {
	return model.NewCatalog([]model.BarItem{
		{Name: "A", Genre: "Beginner", Payout: 250000},
		{Name: "B", Genre: "Beginner", Payout: 30000},
		{Name: "スライムウィスキー", Genre: "Gambler", Payout: 50000},
		{Name: "店長特製ブルームーン", Genre: "BarSlot", Payout: 100000},
		{Name: "花よりdan5", Genre: "Dan5", Payout: 1600000},
	}, nil)
}

func ev(d model.Direction, amount int, name string, offset time.Duration) model.Event {
	return model.Event{Category: model.CategoryBar, Direction: d, Amount: amount, Name: name, Time: t0.Add(offset)}
}

// session numbers events and wraps all of them in one session.
func session(events []model.Event) model.Session {
	s := model.Session{Category: events[0].Category}
	for i := range events {
		events[i].ID = i
		s.IDs = append(s.IDs, i)
	}
	return s
}

func TestResolveBarScenario(t *testing.T) {
	events := []model.Event{
		ev(model.DirPay, 5000, "A", 0),
		ev(model.DirPay, 5000, "A", time.Second),
		ev(model.DirPay, 5000, "A", 2*time.Second),
		ev(model.DirGain, 250000, "", 3*time.Second),
	}
	r := New(barCatalog(), config.Default())
	if n := r.ResolveBar(events, session(events)); n != 0 {
		t.Errorf("expected no demotions, got %d", n)
	}
	for i, e := range events {
		if e.Name != "A" {
			t.Errorf("event %d: Name = %q, want A", i, e.Name)
		}
	}
}

func TestResolveBarDemotesUnusedPurchase(t *testing.T) {
	events := []model.Event{
		ev(model.DirPay, 5000, "A", 0),
		ev(model.DirGain, 250000, "", time.Second),
		ev(model.DirPay, 3000, "B", 2*time.Second),
		ev(model.DirLose, 0, "", 3*time.Second),
		ev(model.DirPay, 100000, "店長特製ブルームーン", 4*time.Second),
	}
	r := New(barCatalog(), config.Default())
	if n := r.ResolveBar(events, session(events)); n != 1 {
		t.Errorf("expected 1 demotion, got %d", n)
	}
	if events[0].Name != "A" {
		t.Errorf("confirmed purchase lost its name")
	}
	if events[2].Name != "" {
		t.Errorf("unconfirmed purchase kept name %q", events[2].Name)
	}
	if events[4].Name != "店長特製ブルームーン" {
		t.Errorf("single-shot purchase should keep its name")
	}
}

func TestResolveBarUnknownPayout(t *testing.T) {
	events := []model.Event{
		ev(model.DirPay, 5000, "A", 0),
		ev(model.DirGain, 12345, "", time.Second),
	}
	New(barCatalog(), config.Default()).ResolveBar(events, session(events))
	if events[1].Name != "" {
		t.Errorf("payout with no matching item should stay unnamed, got %q", events[1].Name)
	}
	if events[0].Name != "" {
		t.Errorf("purchase without a confirmed payout should be demoted")
	}
}

func TestResolveBarOverride(t *testing.T) {
	tests := []struct {
		name   string
		events []model.Event
		want   string
	}{
		{
			"recent purchase keeps item",
			[]model.Event{
				ev(model.DirPay, 5000, "スライムウィスキー", 0),
				ev(model.DirGain, 50000, "", 2*time.Minute),
			},
			"スライムウィスキー",
		},
		{
			"stale purchase goes to replacement",
			[]model.Event{
				ev(model.DirPay, 5000, "スライムウィスキー", 0),
				ev(model.DirGain, 50000, "", 6*time.Minute),
			},
			"店長特製ブルームーン",
		},
	}
	for _, tt := range tests {
		r := New(barCatalog(), config.Default())
		r.ResolveBar(tt.events, session(tt.events))
		if got := tt.events[1].Name; got != tt.want {
			t.Errorf("%s: payout name = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveBarOverrideBeforeCutover(t *testing.T) {
	events := []model.Event{
		ev(model.DirPay, 5000, "スライムウィスキー", 0),
		ev(model.DirGain, 50000, "", 30*time.Minute),
	}
	for i := range events {
		events[i].Time = events[i].Time.AddDate(-1, 0, 0)
	}
	New(barCatalog(), config.Default()).ResolveBar(events, session(events))
	if events[1].Name != "スライムウィスキー" {
		t.Errorf("override applied before its date: %q", events[1].Name)
	}
}

func TestResolveBarLadder(t *testing.T) {
	events := []model.Event{
		ev(model.DirPay, 50000, "花よりdan5", 0),
		ev(model.DirMessage, 200000, "", time.Second), // tier 1 before tier 0
		ev(model.DirMessage, 100000, "", 2*time.Second),
		ev(model.DirMessage, 200000, "", 3*time.Second),
		ev(model.DirCharge, 200000, "", 4*time.Second),
	}
	r := New(barCatalog(), config.Default())
	r.ResolveBar(events, session(events))

	if events[1].Name != "" {
		t.Errorf("out-of-order tier accepted as %q", events[1].Name)
	}
	if events[2].Name != "花よりdan5" || events[3].Name != "花よりdan5" {
		t.Errorf("in-order tiers not attributed: %q %q", events[2].Name, events[3].Name)
	}
	if events[4].Name != "花よりdan5" {
		t.Errorf("charge not attributed: %q", events[4].Name)
	}
	if events[0].Name != "花よりdan5" {
		t.Errorf("ladder purchase should be confirmed by its messages")
	}
}

func TestResolveChargeOutsideWindow(t *testing.T) {
	events := []model.Event{
		ev(model.DirPay, 50000, "花よりdan5", 0),
		ev(model.DirCharge, 100000, "", 15*time.Minute),
	}
	New(barCatalog(), config.Default()).ResolveBar(events, session(events))
	if events[1].Name != "" {
		t.Errorf("charge outside window attributed to %q", events[1].Name)
	}
}

func TestResolveChargeRequiresLadderTier(t *testing.T) {
	tests := []struct {
		name   string
		events []model.Event
		want   string
	}{
		{
			"first tier needs no announcements",
			[]model.Event{
				ev(model.DirPay, 50000, "花よりdan5", 0),
				ev(model.DirCharge, 100000, "", time.Minute),
			},
			"花よりdan5",
		},
		{
			"amount that is not a tier",
			[]model.Event{
				ev(model.DirPay, 50000, "花よりdan5", 0),
				ev(model.DirCharge, 3000000, "", time.Minute),
			},
			"",
		},
		{
			"top tier without lower announcements",
			[]model.Event{
				ev(model.DirPay, 50000, "花よりdan5", 0),
				ev(model.DirCharge, 800000, "", 2*time.Minute),
			},
			"",
		},
		{
			"top tier after every lower announcement",
			[]model.Event{
				ev(model.DirPay, 50000, "花よりdan5", 0),
				ev(model.DirMessage, 100000, "", time.Second),
				ev(model.DirMessage, 200000, "", 2*time.Second),
				ev(model.DirMessage, 400000, "", 3*time.Second),
				ev(model.DirCharge, 800000, "", time.Minute),
			},
			"花よりdan5",
		},
	}
	for _, tt := range tests {
		New(barCatalog(), config.Default()).ResolveBar(tt.events, session(tt.events))
		if got := tt.events[len(tt.events)-1].Name; got != tt.want {
			t.Errorf("%s: charge name = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNearestTieKeepsCatalogOrder(t *testing.T) {
	seen := map[string]time.Time{"x": t0, "y": t0}
	if got := nearest([]string{"y", "x"}, seen, t0.Add(time.Minute), time.Hour); got != "y" {
		t.Errorf("nearest = %q, want y", got)
	}
}

// ---- Slot ----

func slotEvents(price int, roles ...string) []model.Event {
	events := []model.Event{{Category: model.CategorySlot, Direction: model.DirPay, Amount: price, Price: price, Time: t0}}
	for i, r := range roles {
		events = append(events, model.Event{Category: model.CategorySlot, Direction: model.DirHint, Role: r, Price: price, Time: t0.Add(time.Duration(i+1) * time.Second)})
	}
	return events
}

func TestResolveSlot(t *testing.T) {
	machines := []model.SlotMachine{
		{Name: "Solo", Price: 1000, Roles: []string{"A"}},
		{Name: "M1", Price: 10000, Roles: []string{"X", "BIG"}},
		{Name: "M2", Price: 10000, Roles: []string{"Y", "BIG"}},
		{Name: "C1", Price: 5000, Roles: []string{"other"}},
		{Name: "C2", Price: 5000, Roles: []string{"Z"}},
		{Name: "D1", Price: 3000, Roles: []string{"other"}},
		{Name: "D2", Price: 3000, Roles: []string{"undefined"}},
	}
	r := New(model.NewCatalog(nil, machines), config.Default())

	tests := []struct {
		name   string
		events []model.Event
		want   string
	}{
		{"single candidate", slotEvents(1000), "Solo"},
		{"single candidate ignores hints", slotEvents(1000, "Q"), "Solo"},
		{"majority vote", slotEvents(10000, "X", "X", "Y"), "M1"},
		{"tied vote", slotEvents(10000, "X", "Y"), model.Unknown},
		{"shared role votes for first machine", slotEvents(10000, "BIG", "BIG", "BIG"), "M1"},
		{"shared roles outvoted", slotEvents(10000, "BIG", "Y", "Y"), "M2"},
		{"no votes, one fallback", slotEvents(5000), "C1"},
		{"no votes, two fallbacks", slotEvents(3000), model.Unknown},
		{"no machine at price", slotEvents(7777), model.Unknown},
	}
	for _, tt := range tests {
		s := session(tt.events)
		s.Price = tt.events[0].Amount
		got := r.ResolveSlot(tt.events, s)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
		for _, e := range tt.events {
			if e.Name != got {
				t.Errorf("%s: event name %q not stamped with %q", tt.name, e.Name, got)
			}
		}
	}
}

func TestResolveSlotInconsistentPrice(t *testing.T) {
	r := New(model.NewCatalog(nil, []model.SlotMachine{{Name: "Solo", Price: 1000}}), config.Default())
	events := slotEvents(1000)
	events = append(events, model.Event{Category: model.CategorySlot, Direction: model.DirPay, Amount: 2000, Time: t0.Add(time.Minute)})
	s := session(events)
	s.Price = 1000
	if got := r.ResolveSlot(events, s); got != model.Unknown {
		t.Errorf("mixed-price session resolved to %q", got)
	}
}

func TestResolveSlotFreeBands(t *testing.T) {
	r := New(model.NewCatalog(nil, nil), config.Default())
	tests := []struct {
		gains []int
		want  string
	}{
		{[]int{500, 20000}, "free-low"},
		{[]int{500, 150000}, "free-high"},
		{nil, model.Unknown},
	}
	for _, tt := range tests {
		events := []model.Event{{Category: model.CategorySlot, Direction: model.DirLose, Time: t0}}
		for _, g := range tt.gains {
			events = append(events, model.Event{Category: model.CategorySlot, Direction: model.DirGain, Amount: g, Time: t0})
		}
		s := session(events)
		s.Free = true
		if got := r.ResolveSlot(events, s); got != tt.want {
			t.Errorf("gains %v: got %q, want %q", tt.gains, got, tt.want)
		}
	}
}
