package dashboard

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/michel-emel/imce-project/internal/analytics"
)

const dash = "—"

// num formats a count with thousands separators
func num(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%d", int64(math.Round(v)))
}

func count(n int) string {
	return num(float64(n))
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return dash
	}
	return fmt.Sprintf("%.0f%%", v)
}

func pct1(v float64) string {
	if math.IsNaN(v) {
		return dash
	}
	return fmt.Sprintf("%.1f%%", v)
}

// plural picks the singular or plural form of noun for n
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dash
	}
	return s
}

func yesNo(ok bool) string {
	if ok {
		return "Yes"
	}
	return "No"
}

func tick(ok bool) Cell {
	if ok {
		return Cell{Text: "✓", Level: analytics.LevelSuccess}
	}
	return Cell{Text: "✗", Level: analytics.LevelDanger}
}
