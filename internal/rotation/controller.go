package rotation

// Event is something that happened outside the controller which may change the mode.
type Event int

const (
	// InitWithoutDescriptor fires at startup when no viewpoint was supplied.
	InitWithoutDescriptor Event = iota
	// InitWithDescriptor fires at startup when a valid viewpoint was supplied.
	InitWithDescriptor
	// SearchStarted fires when an auto-framing location lookup begins.
	SearchStarted
	// LocationFramed fires when a location resolved and the camera starts flying to it.
	LocationFramed
	// TransitionCompleted fires when the flight toward a located point lands.
	TransitionCompleted
	// LocationFailed fires when every location source failed.
	LocationFailed
	// AutoFrameDisabled fires when a location resolved but framing was not requested.
	AutoFrameDisabled
	// DescriptorApplied fires when a user-supplied viewpoint replaces the camera.
	DescriptorApplied
)

var eventNames = map[Event]string{
	InitWithoutDescriptor: "init_without_descriptor",
	InitWithDescriptor:    "init_with_descriptor",
	SearchStarted:         "search_started",
	LocationFramed:        "location_framed",
	TransitionCompleted:   "transition_completed",
	LocationFailed:        "location_failed",
	AutoFrameDisabled:     "auto_frame_disabled",
	DescriptorApplied:     "descriptor_applied",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// transitions maps each event to the mode it selects, whatever the current mode.
var transitions = map[Event]Mode{
	InitWithoutDescriptor: Search,
	InitWithDescriptor:    Free,
	SearchStarted:         Search,
	LocationFramed:        Focusing,
	TransitionCompleted:   Locked,
	LocationFailed:        Free,
	AutoFrameDisabled:     Free,
	DescriptorApplied:     Free,
}

// Controller holds the active mode. It starts in Search. Changes take effect
// on the next Advance. Not safe for concurrent use.
type Controller struct {
	mode Mode

	effectsX float64
	effectsY float64
}

// NewController returns a controller in Search mode.
func NewController() *Controller {
	return &Controller{mode: Search}
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Set switches to m. Modes outside the known set become Free.
func (c *Controller) Set(m Mode) {
	if _, ok := modeSpeeds[m]; !ok {
		m = Free
	}
	c.mode = m
}

// SetByName switches to the named mode, falling back to Free.
func (c *Controller) SetByName(name string) {
	c.Set(ParseMode(name))
}

// Handle applies an event and returns the resulting mode. Unknown events
// leave the mode unchanged.
func (c *Controller) Handle(e Event) Mode {
	if m, ok := transitions[e]; ok {
		c.Set(m)
	}
	return c.mode
}

// Speeds returns the speeds of the active mode.
func (c *Controller) Speeds() Speeds {
	return SpeedsFor(c.mode)
}

// Advance returns the globe and cloud rotation increments for a frame of dt
// seconds, and spins the search effects while searching.
func (c *Controller) Advance(dt float64) (globe, clouds float64) {
	if dt < 0 {
		dt = 0
	}
	s := c.Speeds()
	if c.SearchEffectsVisible() {
		c.effectsX += SearchEffectsSpeedX * dt
		c.effectsY += SearchEffectsSpeedY * dt
	}
	return s.Globe * dt, s.Clouds * dt
}

// SearchEffectsVisible reports whether the searching rings should be drawn.
func (c *Controller) SearchEffectsVisible() bool {
	return c.mode == Search
}

// SearchEffectsRotation returns the accumulated ring rotation about x and y.
func (c *Controller) SearchEffectsRotation() (x, y float64) {
	return c.effectsX, c.effectsY
}
