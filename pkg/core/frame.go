// pkg/core/frame.go
package core

// Anchor is the transform a marker pulse is attached to: a point on the
// globe surface and the outward normal the ring faces.
type Anchor struct {
	Position Vec3 `json:"position"`
	Normal   Vec3 `json:"normal"`
}

// PulseFrame is one live pulse as the renderer should draw it.
type PulseFrame struct {
	Anchor  Anchor  `json:"anchor"`
	Scale   float64 `json:"scale"`
	Opacity float64 `json:"opacity"`
}

// Status is the banner text shown to the user, empty when hidden.
type Status struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// Frame is everything the renderer needs for one tick.
type Frame struct {
	Seq    uint64      `json:"seq"`
	Camera CameraState `json:"camera"`
	// Target is the look-at point in scene space.
	Target Vec3 `json:"target"`

	Mode       string  `json:"mode"`
	GlobeDelta float64 `json:"globeDelta"`
	CloudDelta float64 `json:"cloudDelta"`
	GlobeAngle float64 `json:"globeAngle"`
	CloudAngle float64 `json:"cloudAngle"`

	SearchEffects SearchEffects `json:"searchEffects"`
	Pulses        []PulseFrame  `json:"pulses"`
	Status        Status        `json:"status"`
}

// SearchEffects describes the spinning rings shown while searching.
type SearchEffects struct {
	Visible   bool    `json:"visible"`
	RotationX float64 `json:"rotationX"`
	RotationY float64 `json:"rotationY"`
}
