package reconciler

import (
	"math"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
)

type options struct {
	tolerance float64
}

func defaultOptions() *options {
	return &options{tolerance: constants.DefaultMergeTolerance}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithTolerance sets the per-axis coordinate tolerance in degrees.
func WithTolerance(degrees float64) Option {
	return func(o *options) error {
		if degrees < 0 || math.IsNaN(degrees) || math.IsInf(degrees, 0) {
			return &errors.ValidationError{
				Field:   "tolerance",
				Value:   degrees,
				Message: "must be a finite non-negative number of degrees",
			}
		}
		o.tolerance = degrees
		return nil
	}
}
