// Package rotation selects the ambient spin of the globe and its cloud layer.
package rotation

import "strings"

// Mode is a named ambient-motion state.
type Mode int

const (
	Search Mode = iota
	Focusing
	Locked
	Free
)

var modeNames = map[Mode]string{
	Search:   "search",
	Focusing: "focusing",
	Locked:   "locked",
	Free:     "free",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode resolves a mode name, case-insensitively. Unknown names fall back to Free.
func ParseMode(name string) Mode {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == name {
			return m
		}
	}
	return Free
}

// Base angular speeds in radians per second.
const (
	GlobeSpeed = 0.012
	CloudSpeed = 0.018
)

// Search effect ring rotation rates in radians per second.
const (
	SearchEffectsSpeedX = 0.12
	SearchEffectsSpeedY = 0.45
)

// Speeds is a pair of non-negative angular speeds in radians per second.
type Speeds struct {
	Globe  float64
	Clouds float64
}

var modeSpeeds = map[Mode]Speeds{
	Search:   {Globe: GlobeSpeed * 3.5, Clouds: CloudSpeed * 3},
	Focusing: {Globe: GlobeSpeed * 1.2, Clouds: CloudSpeed * 1.6},
	Locked:   {Globe: 0, Clouds: CloudSpeed * 0.9},
	Free:     {Globe: GlobeSpeed, Clouds: CloudSpeed * 1.05},
}

// SpeedsFor returns the speeds of m, using Free for modes outside the table.
func SpeedsFor(m Mode) Speeds {
	if s, ok := modeSpeeds[m]; ok {
		return s
	}
	return modeSpeeds[Free]
}
