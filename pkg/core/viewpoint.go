// pkg/core/viewpoint.go
package core

import "time"

// Viewpoint is a named, saved camera descriptor.
type Viewpoint struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	Descriptor string      `json:"descriptor"`
	Camera     CameraState `json:"camera"`
	CreatedAt  time.Time   `json:"createdAt"`
}
