package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/model"
)

var day = time.Date(2025, 4, 10, 0, 0, 0, 0, time.Local)

func logLine(clock, msg string) string {
	return fmt.Sprintf("[%s] [Render thread/INFO]: %s", clock, msg)
}

func chatLine(clock, text string) string {
	return logLine(clock, "[System] [CHAT] "+text)
}

// enteredMatcher returns a matcher that has logged in, connected, and warped
// into the casino.
func enteredMatcher(t *testing.T) *Matcher {
	t.Helper()
	m := NewMatcher(config.Default().Scope)
	for _, l := range []string{
		logLine("10:00:00", "Setting user: Steve_01"),
		logLine("10:00:01", "Connecting to dan5.red, 25565"),
		chatLine("10:00:02", "[Warps] You were teleported to 'casino'"),
	} {
		if _, ok := m.Match(day, l); !ok {
			t.Fatalf("status line not recognized: %s", l)
		}
	}
	if !m.Status.InScope() {
		t.Fatal("expected matcher to be in scope")
	}
	return m
}

func TestStatusTransitions(t *testing.T) {
	m := NewMatcher(config.Default().Scope)
	if m.Status.Zone != ZoneLogin {
		t.Errorf("initial zone = %q, want %q", m.Status.Zone, ZoneLogin)
	}

	if _, ok := m.Match(day, logLine("10:00:00", "Setting user: x")); ok {
		t.Error("expected illegal identity to be ignored")
	}

	ev, ok := m.Match(day, logLine("10:00:00", "Setting user: Steve_01"))
	if !ok || ev.Direction != model.DirMCID || ev.Name != "Steve_01" {
		t.Fatalf("unexpected identity event %+v ok=%v", ev, ok)
	}
	m.Match(day, logLine("10:00:01", "Connecting to dan5.red, 25565"))
	if m.Status.InScope() {
		t.Error("login zone should not be in scope")
	}

	ev, _ = m.Match(day, chatLine("10:00:02", "[Warps] テレポートされました 'devil_room'"))
	if ev.Direction != model.DirLocation || ev.Name != "devil_room" {
		t.Errorf("unexpected warp event %+v", ev)
	}
	if !m.Status.InScope() {
		t.Error("expected devil_room to be in scope")
	}

	ev, ok = m.Match(day, chatLine("10:05:00", "Steve_01（旧名Steve）がゲームに参加しました"))
	if !ok || ev.Name != ZoneLogin {
		t.Errorf("unexpected rejoin event %+v ok=%v", ev, ok)
	}
	if m.Status.InScope() {
		t.Error("rejoin should leave scope")
	}

	if _, ok := m.Match(day, chatLine("10:06:00", "Alex がゲームに参加しました")); ok {
		t.Error("join of an unknown player should be ignored")
	}
}

func TestOutOfScopeChatIgnored(t *testing.T) {
	m := NewMatcher(config.Default().Scope)
	m.Match(day, logLine("10:00:00", "Setting user: Steve_01"))
	m.Match(day, logLine("10:00:01", "Connecting to other.server, 25565"))
	m.Match(day, chatLine("10:00:02", "[Warps] You were teleported to 'casino'"))
	if _, ok := m.Match(day, chatLine("10:00:03", "1,000円支払いました")); ok {
		t.Error("expected chat on another server to be ignored")
	}
}

func TestRecognizers(t *testing.T) {
	tests := []struct {
		text string
		want model.Event
		ok   bool
	}{
		{"あなたは ◆ 一万搾り を 10,000円 で購入しました", model.Event{Category: model.CategoryBar, Direction: model.DirPay, Amount: 10000, Name: "一万搾り"}, true},
		{"あなたは ◆ 一万搾り を 300,000円 で購入しました", model.Event{}, false},
		{"あなたは 50,000円 獲得しました", model.Event{Category: model.CategoryBar, Direction: model.DirGain, Amount: 50000}, true},
		{"[Man10Bank]50,000円チャージしました！", model.Event{Category: model.CategoryBar, Direction: model.DirCharge, Amount: 50000}, true},
		{"[Man10Bank]300,000円チャージしました！", model.Event{Category: model.CategoryBar, Direction: model.DirCharge, Amount: 300000}, true},
		{"[Man10Bank]12,345円チャージしました！", model.Event{}, false},
		{"ハズレ!", model.Event{Category: model.CategoryBar, Direction: model.DirLose}, true},
		{"§4§lまだ引き返せる...", model.Event{Category: model.CategoryBar, Direction: model.DirMessage, Amount: 400000}, true},
		{"1,000円支払いました", model.Event{Category: model.CategorySlot, Direction: model.DirPay, Amount: 1000}, true},
		{"2,000,000円支払いました", model.Event{}, false},
		{"5,000円受け取りました", model.Event{Category: model.CategorySlot, Direction: model.DirGain, Amount: 5000}, true},
		{"[Man10Slot]おめでとうございます！BIGです！", model.Event{Category: model.CategorySlot, Direction: model.DirHint, Role: "BIG"}, true},
		{"[Man10Slot]外れました", model.Event{Category: model.CategorySlot, Direction: model.DirLose}, true},
		{"[Gacha2]XXXgold($1,000)XXXが当たりました。", model.Event{Category: model.CategoryChanger, Direction: model.DirGain, Amount: 1000, Name: "gold($1,000)"}, true},
		{"[Gacha2]XXgold($5)XXが当たりました。", model.Event{}, false},
		{"250.0円支払いました", model.Event{Category: model.CategoryPtoP, Direction: model.DirPay, Amount: 250}, true},
		{"250.0円受取りました", model.Event{Category: model.CategoryPtoP, Direction: model.DirGain, Amount: 250}, true},
		{"こんにちは", model.Event{}, false},
	}

	for _, tt := range tests {
		m := enteredMatcher(t)
		ev, ok := m.Match(day, chatLine("10:01:00", tt.text))
		if ok != tt.ok {
			t.Errorf("%q: ok = %v, want %v", tt.text, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if ev.Category != tt.want.Category || ev.Direction != tt.want.Direction ||
			ev.Amount != tt.want.Amount || ev.Name != tt.want.Name || ev.Role != tt.want.Role {
			t.Errorf("%q: got %+v, want %+v", tt.text, ev, tt.want)
		}
		if ev.Chat != tt.text {
			t.Errorf("%q: Chat = %q", tt.text, ev.Chat)
		}
		if err := ev.Validate(); err != nil {
			t.Errorf("%q: recognized event invalid: %v", tt.text, err)
		}
	}
}

func TestEventTime(t *testing.T) {
	m := enteredMatcher(t)
	ev, ok := m.Match(day, chatLine("21:34:56", "ハズレ!"))
	if !ok {
		t.Fatal("expected lose event")
	}
	want := time.Date(2025, 4, 10, 21, 34, 56, 0, time.Local)
	if !ev.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", ev.Time, want)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	m := enteredMatcher(t)
	lines := []string{
		"[1:2:3] [Render thread/INFO]: [System] [CHAT] ハズレ!",
		"[10:00:00] [Worker-1/INFO]: [System] [CHAT] ハズレ!",
		"garbage 円",
	}
	for _, l := range lines {
		if _, ok := m.Match(day, l); ok {
			t.Errorf("expected %q to be rejected", l)
		}
	}
}
