// pkg/core/camera.go
package core

// Field of view limits in degrees.
const (
	DefaultFov = 45.0
	MinFov     = 15.0
	MaxFov     = 90.0
)

// CameraState is a shareable viewpoint: where the camera sits, how it is
// rolled about its view axis and how wide it sees.
type CameraState struct {
	Position Vec3    `json:"position"`
	RollDeg  float64 `json:"rollDeg"`
	FovDeg   float64 `json:"fovDeg"`
}

// NewCameraState returns a camera at position with no roll and the default fov.
func NewCameraState(position Vec3) CameraState {
	return CameraState{Position: position, FovDeg: DefaultFov}
}

// SetFov assigns the field of view, clamped to [MinFov, MaxFov].
func (c *CameraState) SetFov(deg float64) {
	c.FovDeg = ClampFov(deg)
}

// ClampFov clamps deg to [MinFov, MaxFov]. Non-finite values yield DefaultFov.
func ClampFov(deg float64) float64 {
	if !isFinite(deg) {
		return DefaultFov
	}
	return min(MaxFov, max(MinFov, deg))
}
