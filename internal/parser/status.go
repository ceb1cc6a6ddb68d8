package parser

import (
	"regexp"
	"strings"

	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/model"
)

// ZoneLogin is the zone assumed at login and after a rejoin, before any warp.
const ZoneLogin = "login"

var (
	userRe     = regexp.MustCompile(`^Setting user: (.+)`)
	identityRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,16}$`)
	serverRe   = regexp.MustCompile(`^Connecting to (.+)`)
	warpRe     = regexp.MustCompile(`^\[System\] \[CHAT\] \[Warps\] (?:You were teleported to|テレポートされました) '([^']+)'`)
	joinedRe   = regexp.MustCompile(`^\[System\] \[CHAT\] ([a-zA-Z0-9_]{3,16})(?:（旧名.*?）)?がゲームに参加しました`)
)

// Status tracks who is playing, where they are connected, and which warp
// zone they are in. Several accounts may share one log stream; all of them
// are remembered so a rejoin of any of them is recognized.
type Status struct {
	Identity string
	Server   string
	Zone     string

	identities map[string]bool
	scope      config.ScopeConfig
}

// NewStatus returns a tracker in the login zone with no identity or server.
func NewStatus(scope config.ScopeConfig) *Status {
	return &Status{Zone: ZoneLogin, identities: make(map[string]bool), scope: scope}
}

// InScope reports whether chat lines currently count as casino activity.
func (s *Status) InScope() bool {
	if s.Identity == "" || s.Server != s.scope.Server {
		return false
	}
	for _, z := range s.scope.Zones {
		if z != "" && strings.Contains(s.Zone, z) {
			return true
		}
	}
	return false
}

// observe applies one log message to the tracker and returns the status
// event it produced, if any.
func (s *Status) observe(msg string) (model.Event, bool) {
	if m := userRe.FindStringSubmatch(msg); m != nil {
		name := strings.TrimSpace(m[1])
		if !identityRe.MatchString(name) {
			return model.Event{}, false
		}
		s.Identity = name
		s.identities[name] = true
		return statusEvent(model.DirMCID, name), true
	}

	if m := serverRe.FindStringSubmatch(msg); m != nil {
		s.Server = strings.TrimSpace(m[1])
		return statusEvent(model.DirServer, s.Server), true
	}

	if m := warpRe.FindStringSubmatch(msg); m != nil {
		s.Zone = m[1]
		return statusEvent(model.DirLocation, s.Zone), true
	}

	if m := joinedRe.FindStringSubmatch(msg); m != nil && s.identities[m[1]] {
		s.Zone = ZoneLogin
		return statusEvent(model.DirLocation, ZoneLogin), true
	}

	return model.Event{}, false
}

func statusEvent(dir model.Direction, name string) model.Event {
	return model.Event{Category: model.CategoryStatus, Direction: dir, Name: name}
}
