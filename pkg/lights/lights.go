// Package lights defines the interface for pushing detected colors onto
// smart lamps. The daemon only talks to the Service interface so lamp
// vendors stay swappable.
package lights

import (
	"time"

	"github.com/maniglio/tinge/pkg/chroma"
)

// Service pushes colors to a group of lamps. Implementations keep their own
// discovery state and are expected to tolerate lamps coming and going.
type Service interface {
	// LightCount reports how many lamps are currently reachable.
	LightCount() int
	// SetColor fades the group to the given color over the given duration.
	SetColor(color chroma.RGB, duration time.Duration) error
	// Close stops discovery and releases network resources.
	Close() error
}
