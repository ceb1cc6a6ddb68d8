package model

import (
	"sort"
	"time"
)

// ---- Aggregated statistics ----

// Node is one level of the statistics tree: a category total, a genre or
// price group, or a single item/machine.
type Node struct {
	Name string

	PayAmount  int64
	GainAmount int64
	Total      int64 // GainAmount - PayAmount, set by Finalize

	PayCount  int
	GainCount int
	LoseCount int

	UnitPrice int // first observed purchase price (bar items)
	Payout    int // configured payout (bar items)

	Duration    time.Duration // summed session durations (slot)
	Probability float64       // win probability (bar items), set by Finalize

	Roles    map[string]int // slot outcome role histogram
	Sources  map[string]int // free-spin sessions per originating machine (slot)
	Outcomes map[int]int    // win amount histogram
	Messages map[int]int    // ladder tier message histogram

	Children map[string]*Node
}

// NewNode returns an empty node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Child returns the named child, creating it on first use.
func (n *Node) Child(name string) *Node {
	if n.Children == nil {
		n.Children = make(map[string]*Node)
	}
	c, ok := n.Children[name]
	if !ok {
		c = NewNode(name)
		n.Children[name] = c
	}
	return c
}

// Lookup follows a path of child names. It returns nil when any step is missing.
func (n *Node) Lookup(path ...string) *Node {
	cur := n
	for _, p := range path {
		if cur == nil || cur.Children == nil {
			return nil
		}
		cur = cur.Children[p]
	}
	return cur
}

// SortedChildren returns children ordered by Total descending, then name,
// with the unknown bucket last.
func (n *Node) SortedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Name == Unknown) != (b.Name == Unknown) {
			return b.Name == Unknown
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Name < b.Name
	})
	return out
}

// Walk visits n and every descendant depth-first, children in name order.
func (n *Node) Walk(fn func(path []string, node *Node)) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node)) {
	fn(path, n)
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		next := append(append([]string(nil), path...), name)
		n.Children[name].walk(next, fn)
	}
}

// StreakRun is one finished (or end-of-input) run of consecutive losses or wins.
type StreakRun struct {
	Count   int
	StartID int
	EndID   int
}

// IndexKey addresses the events behind one aggregate figure.
type IndexKey struct {
	Category Category
	Group    string
	Session  int
}

// SessionIndex maps (category, group, session) to the event ids of that session.
type SessionIndex map[IndexKey][]int

// Add appends id under key unless it is already the last id recorded there.
func (x SessionIndex) Add(key IndexKey, id int) {
	ids := x[key]
	if len(ids) > 0 && ids[len(ids)-1] == id {
		return
	}
	x[key] = append(ids, id)
}

// Keys returns the index keys in deterministic order.
func (x SessionIndex) Keys() []IndexKey {
	keys := make([]IndexKey, 0, len(x))
	for k := range x {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Session < b.Session
	})
	return keys
}

// Stats is the finalized statistics tree plus streak runs and the reverse index.
type Stats struct {
	Bar     *Node // total -> genre -> item
	Slot    *Node // total -> price group -> machine
	Changer *Node // total -> prize text
	PtoP    *Node // total only

	LoseStreaks map[string][]StreakRun // bar item -> purchases-since-last-win runs
	WinStreaks  map[string][]StreakRun // bar item -> consecutive-win runs

	Index SessionIndex
}

// Root returns the subtree for a category.
func (s *Stats) Root(c Category) *Node {
	switch c {
	case CategoryBar:
		return s.Bar
	case CategorySlot:
		return s.Slot
	case CategoryChanger:
		return s.Changer
	case CategoryPtoP:
		return s.PtoP
	default:
		return nil
	}
}
