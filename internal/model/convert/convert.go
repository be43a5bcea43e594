package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/earthview/globe/internal/model"
	"github.com/earthview/globe/pkg/core"
)

// ViewpointToCore converts a GORM model.Viewpoint to a core.Viewpoint.
func ViewpointToCore(m model.Viewpoint) (core.Viewpoint, error) {
	v := core.Viewpoint{
		ID:         m.ID,
		Name:       m.Name,
		Descriptor: m.Descriptor,
		CreatedAt:  m.CreatedAt,
	}
	if len(m.Camera) > 0 {
		if err := json.Unmarshal(m.Camera, &v.Camera); err != nil {
			return core.Viewpoint{}, fmt.Errorf("unmarshal camera of %q: %w", m.Name, err)
		}
	}
	return v, nil
}

// LocationLookupToCore converts a GORM model.LocationLookup to a core.LocationRecord.
func LocationLookupToCore(m model.LocationLookup) core.LocationRecord {
	return core.LocationRecord{
		ID:        m.ID,
		SessionID: m.SessionID,
		Time:      m.Time,
		Location: core.Location{
			Lat:    m.Latitude,
			Lon:    m.Longitude,
			Source: core.LocationSource(m.Source),
		},
		Duration: time.Duration(m.DurationMs) * time.Millisecond,
	}
}
