package model

import (
	"fmt"
	"time"
)

// Category is the gambling mechanism (or status stream) an event belongs to.
type Category string

const (
	CategoryBar     Category = "bar"
	CategorySlot    Category = "slot"
	CategoryChanger Category = "changer"
	CategoryPtoP    Category = "ptop"
	CategoryStatus  Category = "status"
)

// Categories lists the casino categories in report order.
var Categories = []Category{CategoryBar, CategorySlot, CategoryChanger, CategoryPtoP}

// Direction describes the flow of an event relative to the player.
type Direction string

const (
	DirPay      Direction = "pay"
	DirGain     Direction = "gain"
	DirLose     Direction = "lose"
	DirHint     Direction = "hint"
	DirCharge   Direction = "charge"
	DirMessage  Direction = "message"
	DirMCID     Direction = "mcid"
	DirServer   Direction = "server"
	DirLocation Direction = "location"
)

// Unknown is the sentinel name for identities the resolver could not attribute.
const Unknown = "unknown"

// ---- Raw events emitted by the matcher ----

// Event is one recognized log line. ID is the index into the event table.
type Event struct {
	ID        int
	Time      time.Time
	Category  Category
	Direction Direction
	Amount    int    // zero when the direction carries no amount
	Name      string // resolved entity name; empty until resolved (or after demotion)
	Role      string // slot outcome label
	Price     int    // slot wager denomination
	Chat      string // original chat payload
}

// field flags for the per-direction shape table.
const (
	fAmount = 1 << iota
	fName
	fRole
)

type shapeKey struct {
	c Category
	d Direction
}

// shapes lists, per category and direction, the fields an event must carry.
var shapes = map[shapeKey]int{
	{CategoryBar, DirPay}:         fAmount | fName,
	{CategoryBar, DirGain}:        fAmount,
	{CategoryBar, DirCharge}:      fAmount,
	{CategoryBar, DirMessage}:     fAmount,
	{CategoryBar, DirLose}:        0,
	{CategorySlot, DirPay}:        fAmount,
	{CategorySlot, DirGain}:       fAmount,
	{CategorySlot, DirHint}:       fRole,
	{CategorySlot, DirLose}:       0,
	{CategoryChanger, DirGain}:    fAmount | fName,
	{CategoryPtoP, DirPay}:        fAmount,
	{CategoryPtoP, DirGain}:       fAmount,
	{CategoryStatus, DirMCID}:     fName,
	{CategoryStatus, DirServer}:   fName,
	{CategoryStatus, DirLocation}: fName,
}

// Validate checks that the event has a known category/direction pair and
// carries the fields that pair requires.
func (e Event) Validate() error {
	need, ok := shapes[shapeKey{e.Category, e.Direction}]
	if !ok {
		return fmt.Errorf("invalid event shape %s/%s", e.Category, e.Direction)
	}
	if e.Amount < 0 {
		return fmt.Errorf("negative amount %d for %s/%s", e.Amount, e.Category, e.Direction)
	}
	if need&fAmount != 0 && e.Amount == 0 {
		return fmt.Errorf("%s/%s requires an amount", e.Category, e.Direction)
	}
	if need&fAmount == 0 && e.Amount != 0 {
		return fmt.Errorf("%s/%s carries no amount", e.Category, e.Direction)
	}
	if need&fName != 0 && e.Name == "" {
		return fmt.Errorf("%s/%s requires a name", e.Category, e.Direction)
	}
	if need&fRole != 0 && e.Role == "" {
		return fmt.Errorf("%s/%s requires a role", e.Category, e.Direction)
	}
	return nil
}

// HasAmount reports whether the event's direction carries an amount.
func (e Event) HasAmount() bool {
	return shapes[shapeKey{e.Category, e.Direction}]&fAmount != 0
}

// IsWin reports whether the event settles a purchase in the player's favour.
func (e Event) IsWin() bool {
	return e.Direction == DirGain || e.Direction == DirCharge
}

// ---- Catalogs ----

// BarItem is a purchasable drink with a configured payout.
type BarItem struct {
	Name   string
	Genre  string
	Payout int
}

// SlotMachine is a configured slot with its wager price and outcome roles.
type SlotMachine struct {
	Name  string
	Price int
	Roles []string
}

// HasRole reports whether role is one of the machine's outcome roles.
func (m SlotMachine) HasRole(role string) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Catalog holds both static catalogs. Slices preserve declaration order,
// which is used for deterministic tie-breaking.
type Catalog struct {
	Bars  []BarItem
	Slots []SlotMachine

	barIdx  map[string]int
	slotIdx map[string]int
}

// NewCatalog indexes the given items and machines. Later duplicates replace
// earlier ones in place.
func NewCatalog(bars []BarItem, slots []SlotMachine) *Catalog {
	c := &Catalog{barIdx: make(map[string]int), slotIdx: make(map[string]int)}
	for _, b := range bars {
		if i, ok := c.barIdx[b.Name]; ok {
			c.Bars[i] = b
			continue
		}
		c.barIdx[b.Name] = len(c.Bars)
		c.Bars = append(c.Bars, b)
	}
	for _, s := range slots {
		if i, ok := c.slotIdx[s.Name]; ok {
			c.Slots[i] = s
			continue
		}
		c.slotIdx[s.Name] = len(c.Slots)
		c.Slots = append(c.Slots, s)
	}
	return c
}

// Bar looks up a bar item by name.
func (c *Catalog) Bar(name string) (BarItem, bool) {
	i, ok := c.barIdx[name]
	if !ok {
		return BarItem{}, false
	}
	return c.Bars[i], true
}

// Slot looks up a slot machine by name.
func (c *Catalog) Slot(name string) (SlotMachine, bool) {
	i, ok := c.slotIdx[name]
	if !ok {
		return SlotMachine{}, false
	}
	return c.Slots[i], true
}

// SlotsAt returns the machines whose wager price equals price, in catalog order.
func (c *Catalog) SlotsAt(price int) []SlotMachine {
	var out []SlotMachine
	for _, s := range c.Slots {
		if s.Price == price {
			out = append(out, s)
		}
	}
	return out
}

// BarsInGenre returns the items of one genre, in catalog order.
func (c *Catalog) BarsInGenre(genre string) []BarItem {
	var out []BarItem
	for _, b := range c.Bars {
		if b.Genre == genre {
			out = append(out, b)
		}
	}
	return out
}

// ---- Sessions ----

// Session is a contiguous run of same-category event ids.
type Session struct {
	Category Category
	Index    int   // position within the category's session list
	IDs      []int // chronological
	Price    int   // slot wager price; 0 for free runs
	Free     bool  // slot free-spin run
	Source   string // machine whose hint started a free run
}
