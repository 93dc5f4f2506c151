package analytics

// Level is the colour band of a KPI, bar or indicator
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelInfo    Level = "info"
	LevelMuted   Level = "muted"
)

// LevelAtLeast grades a value where higher is better
func LevelAtLeast(v, good, warn float64) Level {
	switch {
	case v >= good:
		return LevelSuccess
	case v >= warn:
		return LevelWarning
	default:
		return LevelDanger
	}
}

// LevelAtMost grades a value where lower is better
func LevelAtMost(v, good, warn float64) Level {
	switch {
	case v <= good:
		return LevelSuccess
	case v <= warn:
		return LevelWarning
	default:
		return LevelDanger
	}
}

// ScoreLevel grades a 0-100 composite score
func ScoreLevel(v float64) Level {
	return LevelAtLeast(v, 75, 50)
}

// RiskLevel grades a count of at-risk rows: none is success, a share
// below warnPct is a warning, anything more is danger.
func RiskLevel(count, total int, warnPct float64) Level {
	if count == 0 {
		return LevelSuccess
	}
	if Percent(float64(count), float64(total)) < warnPct {
		return LevelWarning
	}
	return LevelDanger
}
