package dashboard

import "github.com/michel-emel/imce-project/internal/analytics"

// Design tokens shared by the HTML templates and the SVG renderer
const (
	ColorPrimary   = "#0D2137"
	ColorSecondary = "#00BFA5"
	ColorAccent    = "#1565C0"
	ColorSuccess   = "#2E7D32"
	ColorWarning   = "#E65100"
	ColorDanger    = "#B71C1C"
	ColorLightBg   = "#F0F4F8"
	ColorCard      = "#FFFFFF"
	ColorMuted     = "#607D8B"
	ColorBorder    = "#E0E8F0"

	ColorSuccessBg = "#E8F5E9"
	ColorWarningBg = "#FFF3E0"
	ColorDangerBg  = "#FFEBEE"
)

// Palette is the categorical series palette
var Palette = []string{"#1565C0", "#00BFA5", "#FFA726", "#EF5350", "#AB47BC", "#26A69A"}

// P returns palette colour i (1-based, like the design tokens p1..p6)
func P(i int) string {
	return Palette[(i-1)%len(Palette)]
}

// LevelColor maps a colour band to its token
func LevelColor(l Level) string {
	switch l {
	case analytics.LevelSuccess:
		return ColorSuccess
	case analytics.LevelWarning:
		return ColorWarning
	case analytics.LevelDanger:
		return ColorDanger
	case analytics.LevelMuted:
		return ColorMuted
	default:
		return ColorAccent
	}
}

// LevelBackground maps a colour band to its tinted background
func LevelBackground(l Level) string {
	switch l {
	case analytics.LevelSuccess:
		return ColorSuccessBg
	case analytics.LevelWarning:
		return ColorWarningBg
	case analytics.LevelDanger:
		return ColorDangerBg
	default:
		return ColorLightBg
	}
}

func levelColors(values []float64, grade func(float64) Level) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = LevelColor(grade(v))
	}
	return out
}

func paletteColors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = Palette[i%len(Palette)]
	}
	return out
}

func mappedColors(labels []string, colors map[string]string, fallback string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		if c, ok := colors[l]; ok {
			out[i] = c
		} else {
			out[i] = fallback
		}
	}
	return out
}

// atLeast and atMost build graders for levelColors
func atLeast(good, warn float64) func(float64) Level {
	return func(v float64) Level { return analytics.LevelAtLeast(v, good, warn) }
}

func atMost(good, warn float64) func(float64) Level {
	return func(v float64) Level { return analytics.LevelAtMost(v, good, warn) }
}
