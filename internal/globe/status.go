package globe

import (
	"time"

	"github.com/earthview/globe/pkg/core"
)

// Banner texts.
const (
	StatusSearching   = "Searching for your location..."
	StatusFailed      = "Unable to get your position"
	StatusDetected    = "Position detected"
	StatusApproximate = "Approximate position"
	statusAlignSuffix = ", aligning..."
)

// Banner hide delays.
const (
	StatusLinger       = 3200 * time.Millisecond
	StatusLandedDelay  = 1200 * time.Millisecond
	StatusNoFrameDelay = 1500 * time.Millisecond
)

// banner is the status line with its pending auto-hide.
type banner struct {
	text    string
	visible bool
	hideAt  time.Time
}

// show displays text. A non-persistent banner hides after 3200 ms.
// Showing a new text always drops the previous pending hide.
func (b *banner) show(text string, persist bool, now time.Time) {
	b.text = text
	b.visible = true
	b.hideAt = time.Time{}
	if !persist {
		b.hideAt = now.Add(StatusLinger)
	}
}

// hideAfter schedules the banner to hide delay after now, replacing any
// pending hide. delay <= 0 hides immediately.
func (b *banner) hideAfter(delay time.Duration, now time.Time) {
	if delay <= 0 {
		b.visible = false
		b.hideAt = time.Time{}
		return
	}
	b.hideAt = now.Add(delay)
}

func (b *banner) tick(now time.Time) core.Status {
	if b.visible && !b.hideAt.IsZero() && !now.Before(b.hideAt) {
		b.visible = false
		b.hideAt = time.Time{}
	}
	if !b.visible {
		return core.Status{}
	}
	return core.Status{Text: b.text, Visible: true}
}

// locationLabel picks the banner text for a resolved location.
func locationLabel(src core.LocationSource, autoFrame bool) string {
	label := StatusApproximate
	if src == core.SourceDevice {
		label = StatusDetected
	}
	if autoFrame {
		label += statusAlignSuffix
	}
	return label
}
