// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/earthview/globe/internal/geo"
	"github.com/earthview/globe/internal/model"
	"github.com/earthview/globe/pkg/core"
	"gorm.io/datatypes"
)

// CoreToViewpoint converts a core.Viewpoint to a GORM model.Viewpoint.
func CoreToViewpoint(v core.Viewpoint) (model.Viewpoint, error) {
	camera, err := json.Marshal(v.Camera)
	if err != nil {
		return model.Viewpoint{}, fmt.Errorf("marshal camera: %w", err)
	}
	m := model.Viewpoint{
		Name:       v.Name,
		Descriptor: v.Descriptor,
		Camera:     datatypes.JSON(camera),
	}
	m.ID = v.ID
	m.CreatedAt = v.CreatedAt
	return m, nil
}

// CoreToLocationLookup converts a core.LocationRecord to a GORM model.LocationLookup.
// Unresolved records keep an empty point.
func CoreToLocationLookup(r core.LocationRecord) model.LocationLookup {
	m := model.LocationLookup{
		ID:         r.ID,
		Time:       r.Time,
		SessionID:  r.SessionID,
		Source:     string(r.Location.Source),
		Resolved:   r.Location.Resolved(),
		Latitude:   r.Location.Lat,
		Longitude:  r.Location.Lon,
		DurationMs: r.Duration.Milliseconds(),
	}
	if m.Resolved {
		if pt, err := geo.Point3857(r.Location.Lat, r.Location.Lon); err == nil {
			m.Location = pt
		}
	}
	return m
}
