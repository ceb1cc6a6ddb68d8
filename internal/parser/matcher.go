// Package parser turns raw client log lines into typed casino events.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/model"
)

// filterMarkers are the characters one of which every casino chat line
// carries after the fixed-width log prefix.
const filterMarkers = "円飲酔引後!！外参$"

// prefixWidth is the width of "[HH:MM:SS] [Render thread/INFO]: ".
const prefixWidth = 33

var (
	envelopeRe = regexp.MustCompile(`^\[(.*?)\] \[(.*?)\]: (.*)`)
	chatRe     = regexp.MustCompile(`^\[System\] \[CHAT\] (.+)`)
)

// Matcher recognizes events in a single log stream. It is stateful: the
// Status it owns decides whether chat lines are in scope, so lines must be
// fed in order.
type Matcher struct {
	Status *Status

	thread string
}

// NewMatcher returns a matcher in the initial login state.
func NewMatcher(scope config.ScopeConfig) *Matcher {
	return &Matcher{Status: NewStatus(scope), thread: scope.Thread}
}

// Match parses one line logged on date. It returns false for lines that are
// not events: noise, malformed envelopes, other threads, and chat that
// arrives while the player is outside the casino.
func (m *Matcher) Match(date time.Time, line string) (model.Event, bool) {
	if !worthParsing(line) {
		return model.Event{}, false
	}

	env := envelopeRe.FindStringSubmatch(line)
	if env == nil || len(env[1]) != 8 || env[2] != m.thread {
		return model.Event{}, false
	}
	clock, err := time.Parse("15:04:05", env[1])
	if err != nil {
		return model.Event{}, false
	}
	at := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, date.Location())
	msg := env[3]

	if ev, ok := m.Status.observe(msg); ok {
		ev.Time = at
		ev.Chat = msg
		return ev, true
	}

	if !m.Status.InScope() {
		return model.Event{}, false
	}

	chat := chatRe.FindStringSubmatch(msg)
	if chat == nil {
		return model.Event{}, false
	}
	text := strings.TrimSpace(chat[1])
	for _, rec := range recognizers {
		if ev, ok := rec(text); ok {
			ev.Time = at
			ev.Chat = text
			return ev, true
		}
	}
	return model.Event{}, false
}

// worthParsing is a cheap pre-filter applied before any regex runs.
func worthParsing(line string) bool {
	if len(line) > prefixWidth && strings.ContainsAny(line[prefixWidth:], filterMarkers) {
		return true
	}
	for _, kw := range []string{"Setting", "Connect", "Warps", "Gacha2"} {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}
