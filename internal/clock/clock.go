// Package clock abstracts wall-clock time so expiry logic is testable.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock returns the current time in UTC.
type Clock interface {
	Now() time.Time
}

// Module provides the system clock.
var Module = fx.Provide(NewSystemClock)

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
