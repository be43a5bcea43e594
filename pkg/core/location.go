// pkg/core/location.go
package core

import "time"

// LocationSource tags where a coordinate came from.
type LocationSource string

const (
	SourceDevice     LocationSource = "device"
	SourceIP         LocationSource = "ip"
	SourceUnresolved LocationSource = "unresolved"
)

// Location is a geographic coordinate in degrees.
type Location struct {
	Lat    float64        `json:"lat"`
	Lon    float64        `json:"lon"`
	Source LocationSource `json:"source"`
}

// Unresolved is the result of a lookup where every source failed.
var Unresolved = Location{Source: SourceUnresolved}

// Resolved reports whether the location carries a usable coordinate.
func (l Location) Resolved() bool {
	return l.Source == SourceDevice || l.Source == SourceIP
}

// LocationRecord is a single location lookup outcome kept for telemetry.
type LocationRecord struct {
	ID        uint
	SessionID string
	Time      time.Time
	Location  Location
	Duration  time.Duration
}
