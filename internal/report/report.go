// Package report renders casino statistics as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pable/casinolog/internal/model"
)

// GenreOrder is the display order of bar genres. Other genres follow
// alphabetically, then the unknown bucket.
var GenreOrder = []string{"Beginner", "Gambler", "VIP", "Dan5", "Secret", "BarSlot"}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintAll writes every category table followed by the streak table.
func PrintAll(w io.Writer, stats *model.Stats) {
	PrintBarTable(w, stats.Bar)
	PrintLadderTable(w, stats.Bar)
	PrintSlotTable(w, stats.Slot)
	PrintChangerTable(w, stats.Changer)
	PrintPtoPTable(w, stats.PtoP)
	PrintStreakTable(w, stats)
}

func title(w io.Writer, s string) {
	fmt.Fprintf(w, "\n%s\n", cTitle.Sprint(s))
}

// sortedGenres orders genre nodes by GenreOrder, then name, unknown last.
func sortedGenres(root *model.Node) []*model.Node {
	rank := make(map[string]int, len(GenreOrder))
	for i, g := range GenreOrder {
		rank[g] = i
	}
	out := make([]*model.Node, 0, len(root.Children))
	for _, c := range root.Children {
		out = append(out, c)
	}
	order := func(n *model.Node) int {
		if n.Name == model.Unknown {
			return len(GenreOrder) + 1
		}
		if r, ok := rank[n.Name]; ok {
			return r
		}
		return len(GenreOrder)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := order(out[i]), order(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// PrintBarTable prints one row per genre followed by its items.
func PrintBarTable(w io.Writer, bar *model.Node) {
	title(w, "Bar")
	table := newTable(w)
	table.Header("GENRE", "ITEM", "PRICE", "PAYOUT", "BUY", "WIN", "PAY", "GAIN", "TOTAL", "WIN%")

	for _, g := range sortedGenres(bar) {
		table.Append(g.Name, "", "", "", strconv.Itoa(g.PayCount), strconv.Itoa(g.GainCount),
			Yen(g.PayAmount), Yen(g.GainAmount), Total(g.Total), "")
		for _, it := range g.SortedChildren() {
			table.Append("", it.Name, priceCell(it.UnitPrice), priceCell(it.Payout),
				strconv.Itoa(it.PayCount), strconv.Itoa(it.GainCount),
				Yen(it.PayAmount), Yen(it.GainAmount), Total(it.Total), Probability(it.Probability, it.PayCount))
		}
	}
	table.Append("TOTAL", "", "", "", strconv.Itoa(bar.PayCount), strconv.Itoa(bar.GainCount),
		Yen(bar.PayAmount), Yen(bar.GainAmount), Total(bar.Total), "")
	table.Render()
}

func priceCell(n int) string {
	if n == 0 {
		return "-"
	}
	return Yen(int64(n))
}

// PrintLadderTable prints tier announcements and payout amounts for items
// that have more than one possible payout.
func PrintLadderTable(w io.Writer, bar *model.Node) {
	type row struct {
		item, kind string
		amount     int
		count      int
	}
	var rows []row
	bar.Walk(func(path []string, n *model.Node) {
		if len(path) != 2 {
			return
		}
		for amount, c := range n.Messages {
			rows = append(rows, row{n.Name, "message", amount, c})
		}
		if len(n.Messages) > 0 || len(n.Outcomes) > 1 {
			for amount, c := range n.Outcomes {
				rows = append(rows, row{n.Name, "payout", amount, c})
			}
		}
	})
	if len(rows) == 0 {
		return
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.item != b.item {
			return a.item < b.item
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.amount < b.amount
	})

	title(w, "Bar payouts by amount")
	table := newTable(w)
	table.Header("ITEM", "KIND", "AMOUNT", "COUNT")
	for _, r := range rows {
		table.Append(r.item, r.kind, Yen(int64(r.amount)), strconv.Itoa(r.count))
	}
	table.Render()
}

// PrintSlotTable prints one row per price group followed by its machines.
func PrintSlotTable(w io.Writer, slot *model.Node) {
	title(w, "Slot")
	table := newTable(w)
	table.Header("PRICE", "MACHINE", "SPINS", "WINS", "PAY", "GAIN", "TOTAL", "TIME", "TOP ROLES", "FREE FROM")

	groups := make([]*model.Node, 0, len(slot.Children))
	for _, g := range slot.Children {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, _ := strconv.Atoi(groups[i].Name)
		b, _ := strconv.Atoi(groups[j].Name)
		return a < b
	})

	for _, g := range groups {
		price := "free"
		if g.Name != "0" {
			n, _ := strconv.ParseInt(g.Name, 10, 64)
			price = Yen(n)
		}
		table.Append(price, "", strconv.Itoa(g.PayCount), strconv.Itoa(g.GainCount),
			Yen(g.PayAmount), Yen(g.GainAmount), Total(g.Total), Duration(g.Duration), "", "")
		for _, m := range g.SortedChildren() {
			table.Append("", m.Name, strconv.Itoa(m.PayCount), strconv.Itoa(m.GainCount),
				Yen(m.PayAmount), Yen(m.GainAmount), Total(m.Total), Duration(m.Duration), topRoles(m.Roles, 3), topRoles(m.Sources, 2))
		}
	}
	table.Append("TOTAL", "", strconv.Itoa(slot.PayCount), strconv.Itoa(slot.GainCount),
		Yen(slot.PayAmount), Yen(slot.GainAmount), Total(slot.Total), Duration(slot.Duration), "", "")
	table.Render()
}

// topRoles lists the n most frequent keys of a histogram as "KEY×count".
func topRoles(roles map[string]int, n int) string {
	names := make([]string, 0, len(roles))
	for r := range roles {
		names = append(names, r)
	}
	sort.Slice(names, func(i, j int) bool {
		if roles[names[i]] != roles[names[j]] {
			return roles[names[i]] > roles[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	parts := make([]string, len(names))
	for i, r := range names {
		parts[i] = fmt.Sprintf("%s×%d", r, roles[r])
	}
	return strings.Join(parts, " ")
}

// PrintChangerTable prints one row per prize.
func PrintChangerTable(w io.Writer, changer *model.Node) {
	title(w, "Changer")
	table := newTable(w)
	table.Header("PRIZE", "COUNT", "GAIN")
	for _, p := range changer.SortedChildren() {
		table.Append(p.Name, strconv.Itoa(p.GainCount), Yen(p.GainAmount))
	}
	table.Append("TOTAL", strconv.Itoa(changer.GainCount), Yen(changer.GainAmount))
	table.Render()
}

// PrintPtoPTable prints player-to-player totals.
func PrintPtoPTable(w io.Writer, ptop *model.Node) {
	title(w, "Player to player")
	table := newTable(w)
	table.Header("SENT", "RECEIVED", "PAY", "GAIN", "TOTAL")
	table.Append(strconv.Itoa(ptop.PayCount), strconv.Itoa(ptop.GainCount),
		Yen(ptop.PayAmount), Yen(ptop.GainAmount), Total(ptop.Total))
	table.Render()
}

// StreakSummary condenses an item's streak runs.
type StreakSummary struct {
	Item        string
	LoseRuns    int
	LongestLose int
	MeanLose    float64
	WinRuns     int
	LongestWin  int
}

// SummarizeStreaks returns one summary per item, sorted by name with the
// unknown bucket last.
func SummarizeStreaks(stats *model.Stats) []StreakSummary {
	items := make(map[string]bool)
	for k := range stats.LoseStreaks {
		items[k] = true
	}
	for k := range stats.WinStreaks {
		items[k] = true
	}

	var out []StreakSummary
	for item := range items {
		s := StreakSummary{Item: item}
		total := 0
		for _, r := range stats.LoseStreaks[item] {
			s.LoseRuns++
			total += r.Count
			s.LongestLose = max(s.LongestLose, r.Count)
		}
		if s.LoseRuns > 0 {
			s.MeanLose = float64(total) / float64(s.LoseRuns)
		}
		for _, r := range stats.WinStreaks[item] {
			s.WinRuns++
			s.LongestWin = max(s.LongestWin, r.Count)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Item, out[j].Item
		if (a == model.Unknown) != (b == model.Unknown) {
			return b == model.Unknown
		}
		return a < b
	})
	return out
}

// PrintStreakTable prints lose and win streak summaries per bar item.
func PrintStreakTable(w io.Writer, stats *model.Stats) {
	rows := SummarizeStreaks(stats)
	if len(rows) == 0 {
		return
	}
	title(w, "Bar streaks")
	table := newTable(w)
	table.Header("ITEM", "LOSE_RUNS", "LONGEST_LOSE", "MEAN_LOSE", "WIN_RUNS", "LONGEST_WIN")
	for _, s := range rows {
		table.Append(s.Item, strconv.Itoa(s.LoseRuns), strconv.Itoa(s.LongestLose),
			fmt.Sprintf("%.1f", s.MeanLose), strconv.Itoa(s.WinRuns), strconv.Itoa(s.LongestWin))
	}
	table.Render()
}

// PrintEventTable prints raw events, used to audit one aggregate figure.
func PrintEventTable(w io.Writer, events []model.Event) {
	table := newTable(w)
	table.Header("ID", "TIME", "CATEGORY", "DIR", "AMOUNT", "NAME", "CHAT")
	for _, e := range events {
		amount := ""
		if e.HasAmount() {
			amount = Yen(int64(e.Amount))
		}
		table.Append(strconv.Itoa(e.ID), e.Time.Format("2006-01-02 15:04:05"), string(e.Category),
			string(e.Direction), amount, e.Name, e.Chat)
	}
	table.Render()
}

// PrintRows prints an ad-hoc result set, as returned by a raw SQL query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}
