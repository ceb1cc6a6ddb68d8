// Package resolver decides which bar item or slot machine produced each
// event of a session. It rewrites event names in place and never fails:
// anything it cannot attribute is left empty (bar) or named model.Unknown
// (slot) for the aggregator to bucket.
package resolver

import (
	"time"

	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/model"
)

// Resolver holds the read-only inputs shared by every session.
type Resolver struct {
	cat   *model.Catalog
	bar   config.BarConfig
	bands []config.FreeBand

	ladder     []string // ladder item names in catalog order
	singleShot map[string]bool
	since      time.Time
	override   bool
}

// New builds a resolver over cat using the bar and slot sections of cfg.
func New(cat *model.Catalog, cfg *config.Config) *Resolver {
	r := &Resolver{
		cat:        cat,
		bar:        cfg.Bar,
		bands:      cfg.Slot.FreeBands,
		singleShot: make(map[string]bool),
	}
	for _, b := range cat.BarsInGenre(cfg.Bar.LadderGenre) {
		r.ladder = append(r.ladder, b.Name)
	}
	for _, name := range cfg.Bar.SingleShot {
		r.singleShot[name] = true
	}
	r.since, r.override = cfg.Bar.Override.SinceTime()
	return r
}
