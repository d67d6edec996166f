package aggregate

// Level is the heatmap bucket of a cell, ordered from least to most
// available. LevelNoData sorts below everything else.
type Level int

const (
	LevelNoData Level = iota
	LevelAllNG
	LevelNearlyNG
	LevelFewOK
	LevelHalf
	LevelManyOK
	LevelMostlyOK
	LevelAllOK
)

var levelNames = map[Level]string{
	LevelNoData:   "no-data",
	LevelAllNG:    "all-ng",
	LevelNearlyNG: "nearly-ng",
	LevelFewOK:    "few-ok",
	LevelHalf:     "half",
	LevelManyOK:   "many-ok",
	LevelMostlyOK: "mostly-ok",
	LevelAllOK:    "all-ok",
}

// String returns a stable name for the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// HeatLevel buckets a cell by its OK ratio. Thresholds are inclusive and
// checked from the top. Inputs are clamped so that every pair of integers
// maps to a level.
func HeatLevel(ngCount, respondents int) Level {
	if respondents <= 0 {
		return LevelNoData
	}
	if ngCount < 0 {
		ngCount = 0
	}
	if ngCount > respondents {
		ngCount = respondents
	}

	ok := respondents - ngCount
	if ok == respondents {
		return LevelAllOK
	}
	ratio := float64(ok) / float64(respondents)
	switch {
	case ratio >= 0.8:
		return LevelMostlyOK
	case ratio >= 0.6:
		return LevelManyOK
	case ratio >= 0.4:
		return LevelHalf
	case ratio >= 0.2:
		return LevelFewOK
	case ok > 0:
		return LevelNearlyNG
	default:
		return LevelAllNG
	}
}

// Level returns the heat level of the cell.
func (c Cell) Level() Level {
	return HeatLevel(c.NGCount, c.Respondents())
}
