package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Viewpoint{},
	&LocationLookup{},
}

// Viewpoint is a named, shareable camera position
type Viewpoint struct {
	gorm.Model
	Name       string         `json:"name" gorm:"size:127;uniqueIndex"`
	Descriptor string         `json:"descriptor" gorm:"size:255"`
	Camera     datatypes.JSON `json:"camera"`
}

func (*Viewpoint) TableName() string {
	return "viewpoints"
}

// LocationLookup is one location resolution outcome. Location is EPSG:3857
// and is empty when the lookup did not resolve.
type LocationLookup struct {
	ID         uint       `json:"id" gorm:"primarykey;autoIncrement"`
	Time       time.Time  `json:"time" gorm:"index:idx_location_lookup_time"`
	SessionID  string     `json:"sessionId" gorm:"size:64;index:idx_location_lookup_session"`
	Source     string     `json:"source" gorm:"size:16"`
	Resolved   bool       `json:"resolved"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Location   geom.Point `json:"location"`
	DurationMs int64      `json:"durationMs"`
}

func (*LocationLookup) TableName() string {
	return "location_lookups"
}
