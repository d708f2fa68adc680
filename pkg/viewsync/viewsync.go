// Package viewsync owns the map's center of interest and mediates between
// its two writers: programmatic navigation (geolocation, search selection,
// re-scan) and the user's own pan gestures reported by the rendered map.
//
// The two directions are one-way channels. Programmatic proposals may emit a
// fly-to Command; pan reports only ever write the center. A Command is issued
// only when the target differs from the map's latest known position by more
// than the threshold, so a map reporting where it already is can never be
// told to fly there again.
package viewsync

import (
	"sync"
	"time"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Command tells the rendered map to animate to Target.
type Command struct {
	Seq      uint64            `json:"seq"`
	Target   venues.Coordinate `json:"target"`
	Reason   string            `json:"reason"`
	IssuedAt time.Time         `json:"issued_at"`
}

// Outcome describes the effect of one write.
type Outcome struct {
	// Changed is true when the center of interest moved.
	Changed bool
	Center  venues.Coordinate
	// Command is non-nil when the map must be told to fly.
	Command *Command
}

// Synchronizer is safe for concurrent use.
type Synchronizer struct {
	mu        sync.Mutex
	threshold float64
	now       func() time.Time

	center        venues.Coordinate
	mapAt         venues.Coordinate // latest position the map was sent to or reported
	lastCommanded *venues.Coordinate
	lastReported  *venues.Coordinate
	seq           uint64
}

// New creates a Synchronizer starting at initial. The map is assumed to
// render initial until it reports otherwise.
func New(initial venues.Coordinate, opts ...Option) (*Synchronizer, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if !initial.Valid() {
		initial = DefaultCenter()
	}
	return &Synchronizer{
		threshold: o.threshold,
		now:       o.now,
		center:    initial,
		mapAt:     initial,
	}, nil
}

// DefaultCenter is the center used before any navigation.
func DefaultCenter() venues.Coordinate {
	return venues.Coordinate{Latitude: constants.DefaultCenterLat, Longitude: constants.DefaultCenterLng}
}

// Differs reports whether a and b are farther apart than threshold on either axis.
func Differs(a, b venues.Coordinate, threshold float64) bool {
	return !a.Within(b, threshold)
}

// Propose handles a programmatic center request. Requests within the
// threshold of the current center are suppressed entirely.
func (s *Synchronizer) Propose(target venues.Coordinate, reason string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !target.Valid() || !Differs(target, s.center, s.threshold) {
		return Outcome{Center: s.center}
	}
	s.center = target
	out := Outcome{Changed: true, Center: target}
	if Differs(target, s.mapAt, s.threshold) {
		s.seq++
		cmd := &Command{Seq: s.seq, Target: target, Reason: reason, IssuedAt: s.now()}
		commanded := target
		s.lastCommanded = &commanded
		s.mapAt = target
		out.Command = cmd
	}
	return out
}

// ReportPan handles a move-completion event from the rendered map. It never
// returns a Command.
func (s *Synchronizer) ReportPan(reported venues.Coordinate) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !reported.Valid() {
		return Outcome{Center: s.center}
	}
	r := reported
	s.lastReported = &r
	s.mapAt = reported
	if !Differs(reported, s.center, s.threshold) {
		return Outcome{Center: s.center}
	}
	s.center = reported
	return Outcome{Changed: true, Center: reported}
}

// Restore sets the center without issuing a command, for warm starts from
// persisted state. The map is assumed to be rendered at the restored center.
func (s *Synchronizer) Restore(center venues.Coordinate) {
	if !center.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = center
	s.mapAt = center
}

// Center returns the current center of interest.
func (s *Synchronizer) Center() venues.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// LastCommanded returns the target of the most recent Command.
func (s *Synchronizer) LastCommanded() (venues.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCommanded == nil {
		return venues.Coordinate{}, false
	}
	return *s.lastCommanded, true
}

// LastReported returns the most recent position reported by the map.
func (s *Synchronizer) LastReported() (venues.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReported == nil {
		return venues.Coordinate{}, false
	}
	return *s.lastReported, true
}

// Threshold returns the per-axis threshold in degrees.
func (s *Synchronizer) Threshold() float64 {
	return s.threshold
}

// Commands returns the number of commands issued so far.
func (s *Synchronizer) Commands() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
