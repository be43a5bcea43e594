package geo

import (
	"math"

	"github.com/earthview/globe/pkg/core"
)

// Globe geometry in scene units.
const (
	GlobeRadius = 1.0
	// MarkerRadius is where the location marker sits, just above the surface.
	MarkerRadius = GlobeRadius + 0.02
	// HaloRadius is where pulse rings are anchored.
	HaloRadius = GlobeRadius + 0.025
)

// Camera framing around a located point.
const (
	FocusDistance = 2.6
	FocusLateral  = 0.22
	FocusLift     = 0.45
	FocusMinY     = -0.4
	FocusMaxY     = 1.5
)

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

// LatLonToVector3 maps a geographic coordinate onto a sphere of the given
// radius in the globe's scene frame (y up, lon 0 facing +x).
func LatLonToVector3(lat, lon, radius float64) core.Vec3 {
	phi := degToRad(90 - lat)
	theta := degToRad(lon + 180)
	return core.Vec3{
		X: -(radius * math.Sin(phi) * math.Cos(theta)),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// MarkerAnchor returns the pulse anchor for a coordinate: a point on the
// halo shell and the outward normal the rings face.
func MarkerAnchor(lat, lon float64) core.Anchor {
	normal := LatLonToVector3(lat, lon, MarkerRadius).Normalize()
	return core.Anchor{
		Position: normal.Scale(HaloRadius),
		Normal:   normal,
	}
}

// FocusPosition returns where the camera should sit to frame a marker at
// location: out along its normal, nudged sideways and up, height clamped.
func FocusPosition(location core.Vec3) core.Vec3 {
	normal := location.Normalize()
	target := normal.Scale(FocusDistance)

	lateral := normal.Cross(core.WorldUp)
	if lateral.LengthSq() < 0.001 {
		lateral = core.Vec3{X: 1}
	}
	target = target.Add(lateral.Normalize().Scale(FocusLateral))
	target = target.Add(core.WorldUp.Scale(FocusLift))
	target.Y = min(FocusMaxY, max(FocusMinY, target.Y))
	return target
}
