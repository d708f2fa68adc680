package viewsync

import (
	"math"
	"time"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
)

type options struct {
	threshold float64
	now       func() time.Time
}

// Option configures a Synchronizer.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := &options{threshold: constants.DefaultViewThreshold, now: time.Now}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithThreshold sets the per-axis hysteresis threshold in degrees.
func WithThreshold(degrees float64) Option {
	return func(o *options) error {
		if degrees < 0 || math.IsNaN(degrees) || math.IsInf(degrees, 0) {
			return &errors.ValidationError{
				Field:   "threshold",
				Value:   degrees,
				Message: "must be a finite non-negative number of degrees",
			}
		}
		o.threshold = degrees
		return nil
	}
}

// WithClock overrides the clock used to stamp commands.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}
