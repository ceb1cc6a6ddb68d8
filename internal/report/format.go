package report

import (
	"fmt"
	"math"
	"time"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	cGain  = color.New(color.FgGreen)
	cLoss  = color.New(color.FgRed)
	cMuted = color.New(color.Faint)
	cTitle = color.New(color.FgCyan, color.Bold)
)

var printer = message.NewPrinter(language.Japanese)

// Yen renders an amount as "￥1,234,567".
func Yen(n int64) string {
	return "￥" + printer.Sprintf("%d", n)
}

// Total renders a net amount colored by sign.
func Total(n int64) string {
	switch {
	case n > 0:
		return cGain.Sprint(Yen(n))
	case n < 0:
		return cLoss.Sprint(Yen(n))
	default:
		return Yen(n)
	}
}

// Probability renders p as a percentage, adding a "(1/N)" hint below 10%.
// Items never bought show "no data".
func Probability(p float64, buys int) string {
	if buys == 0 {
		return cMuted.Sprint("no data")
	}
	s := fmt.Sprintf("%.3f%%", p*100)
	if p == 0 || p >= 0.1 {
		return s
	}
	inv := 1 / p
	switch {
	case inv == math.Trunc(inv):
		return fmt.Sprintf("%s (1/%d)", s, int64(inv))
	case inv < 10000:
		return fmt.Sprintf("%s (1/%.1f)", s, inv)
	default:
		return fmt.Sprintf("%s (1/%.1e)", s, inv)
	}
}

// Duration renders summed play time with second precision.
func Duration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
