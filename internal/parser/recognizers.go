package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/casinolog/internal/model"
)

// recognizer inspects one chat payload and reports the event it denotes.
type recognizer func(text string) (model.Event, bool)

// recognizers run in order; the first match wins.
var recognizers = []recognizer{
	barPay, barGain, barCharge, barLose, barMessage,
	slotPay, slotGain, slotHint, slotLose,
	changerWin,
	ptopPay, ptopGain,
}

// yen matches a comma-grouped amount such as 1,234,567.
const yen = `(\d{1,3}(?:,\d{3})*)`

var (
	barPayRe    = regexp.MustCompile(`^あなたは ◆ (.+) を ` + yen + `円 で購入しました$`)
	barGainRe   = regexp.MustCompile(`^あなたは ` + yen + `円 獲得しました$`)
	barChargeRe = regexp.MustCompile(`^\[Man10Bank\]` + yen + `円チャージしました！$`)

	slotPayRe  = regexp.MustCompile(`^` + yen + `円支払いました$`)
	slotGainRe = regexp.MustCompile(`^` + yen + `円受け取りました$`)
	slotHintRe = regexp.MustCompile(`^\[Man10Slot\]おめでとうございます！(.+?)です！$`)

	changerRe       = regexp.MustCompile(`^\[Gacha2\]X+([A-Za-z0-9]+\(\$\d{1,3}(?:,\d{3})*\))X+が当たりました。$`)
	changerAmountRe = regexp.MustCompile(`\$` + yen)

	ptopPayRe  = regexp.MustCompile(`^(\d+)\.0円支払いました$`)
	ptopGainRe = regexp.MustCompile(`^(\d+)\.0円受取りました$`)
)

const (
	barLoseText  = "ハズレ!"
	slotLoseText = "[Man10Slot]外れました"
)

// ladderMessages are the escalating bar warnings and the tier each announces.
var ladderMessages = map[string]int{
	"§d§lまだまだ飲めそうな気がする": 100000,
	"§c§l酔いを感じる...":     200000,
	"§4§lまだ引き返せる...":    400000,
	"§5§l後戻りはできない...":   800000,
}

// parseYen converts a comma-grouped amount and checks it against [lo, hi].
func parseYen(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func amountEvent(re *regexp.Regexp, text string, c model.Category, d model.Direction, lo, hi int) (model.Event, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return model.Event{}, false
	}
	n, ok := parseYen(m[1], lo, hi)
	if !ok {
		return model.Event{}, false
	}
	return model.Event{Category: c, Direction: d, Amount: n}, true
}

// ---- Bar ----

func barPay(text string) (model.Event, bool) {
	m := barPayRe.FindStringSubmatch(text)
	if m == nil {
		return model.Event{}, false
	}
	n, ok := parseYen(m[2], 1, 200000)
	if !ok {
		return model.Event{}, false
	}
	return model.Event{Category: model.CategoryBar, Direction: model.DirPay, Amount: n, Name: m[1]}, true
}

func barGain(text string) (model.Event, bool) {
	return amountEvent(barGainRe, text, model.CategoryBar, model.DirGain, 1, 10000000)
}

func barCharge(text string) (model.Event, bool) {
	ev, ok := amountEvent(barChargeRe, text, model.CategoryBar, model.DirCharge, 1, 1<<31-1)
	if !ok || (ev.Amount != 50000 && ev.Amount%100000 != 0) {
		return model.Event{}, false
	}
	return ev, true
}

func barLose(text string) (model.Event, bool) {
	if text != barLoseText {
		return model.Event{}, false
	}
	return model.Event{Category: model.CategoryBar, Direction: model.DirLose}, true
}

func barMessage(text string) (model.Event, bool) {
	tier, ok := ladderMessages[text]
	if !ok {
		return model.Event{}, false
	}
	return model.Event{Category: model.CategoryBar, Direction: model.DirMessage, Amount: tier}, true
}

// ---- Slot ----

func slotPay(text string) (model.Event, bool) {
	return amountEvent(slotPayRe, text, model.CategorySlot, model.DirPay, 1, 1000000)
}

func slotGain(text string) (model.Event, bool) {
	return amountEvent(slotGainRe, text, model.CategorySlot, model.DirGain, 1, 50000000)
}

func slotHint(text string) (model.Event, bool) {
	m := slotHintRe.FindStringSubmatch(text)
	if m == nil {
		return model.Event{}, false
	}
	return model.Event{Category: model.CategorySlot, Direction: model.DirHint, Role: m[1]}, true
}

func slotLose(text string) (model.Event, bool) {
	if text != slotLoseText {
		return model.Event{}, false
	}
	return model.Event{Category: model.CategorySlot, Direction: model.DirLose}, true
}

// ---- Changer ----

func changerWin(text string) (model.Event, bool) {
	m := changerRe.FindStringSubmatch(text)
	if m == nil {
		return model.Event{}, false
	}
	a := changerAmountRe.FindStringSubmatch(m[1])
	if a == nil {
		return model.Event{}, false
	}
	n, ok := parseYen(a[1], 10, 1000000)
	if !ok {
		return model.Event{}, false
	}
	return model.Event{Category: model.CategoryChanger, Direction: model.DirGain, Amount: n, Name: m[1]}, true
}

// ---- Player to player ----

func ptopPay(text string) (model.Event, bool) {
	return amountEvent(ptopPayRe, text, model.CategoryPtoP, model.DirPay, 1, 100000000)
}

func ptopGain(text string) (model.Event, bool) {
	return amountEvent(ptopGainRe, text, model.CategoryPtoP, model.DirGain, 1, 100000000)
}
