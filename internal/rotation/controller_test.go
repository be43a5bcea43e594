package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_StartsInSearch(t *testing.T) {
	c := NewController()
	assert.Equal(t, Search, c.Mode())
	assert.True(t, c.SearchEffectsVisible())
}

func TestController_Handle(t *testing.T) {
	tests := []struct {
		event Event
		want  Mode
	}{
		{InitWithoutDescriptor, Search},
		{InitWithDescriptor, Free},
		{SearchStarted, Search},
		{LocationFramed, Focusing},
		{TransitionCompleted, Locked},
		{LocationFailed, Free},
		{AutoFrameDisabled, Free},
		{DescriptorApplied, Free},
	}

	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			c := NewController()
			c.Set(Locked)
			assert.Equal(t, tt.want, c.Handle(tt.event))
			assert.Equal(t, tt.want, c.Mode())
		})
	}
}

func TestController_AutoFrameFlow(t *testing.T) {
	c := NewController()

	c.Handle(InitWithoutDescriptor)
	c.Handle(SearchStarted)
	assert.Equal(t, Search, c.Mode())

	c.Handle(LocationFramed)
	assert.Equal(t, Focusing, c.Mode())

	c.Handle(TransitionCompleted)
	assert.Equal(t, Locked, c.Mode())
	assert.False(t, c.SearchEffectsVisible())
}

func TestController_UnknownEventKeepsMode(t *testing.T) {
	c := NewController()
	c.Set(Focusing)
	assert.Equal(t, Focusing, c.Handle(Event(99)))
}

func TestController_SetByName(t *testing.T) {
	c := NewController()
	c.SetByName("locked")
	assert.Equal(t, Locked, c.Mode())

	c.SetByName("warp")
	assert.Equal(t, Free, c.Mode())

	c.Set(Mode(-1))
	assert.Equal(t, Free, c.Mode())
}

func TestController_Advance(t *testing.T) {
	c := NewController()

	globe, clouds := c.Advance(2)
	assert.InDelta(t, 0.084, globe, 1e-12)
	assert.InDelta(t, 0.108, clouds, 1e-12)

	x, y := c.SearchEffectsRotation()
	assert.InDelta(t, 0.24, x, 1e-12)
	assert.InDelta(t, 0.9, y, 1e-12)

	c.Set(Locked)
	globe, clouds = c.Advance(1)
	assert.Equal(t, 0.0, globe)
	assert.InDelta(t, 0.0162, clouds, 1e-12)

	// effects only spin while searching
	x2, y2 := c.SearchEffectsRotation()
	assert.Equal(t, x, x2)
	assert.Equal(t, y, y2)

	globe, clouds = c.Advance(-1)
	assert.Equal(t, 0.0, globe)
	assert.Equal(t, 0.0, clouds)
}
