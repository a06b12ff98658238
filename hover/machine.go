// Package hover decides, once per frame, which city marker (if any) is under
// the pointer, and keeps the marker highlight, the tooltip and the rotation
// pause in step with that decision.
//
// The machine has two states, Idle and Hovering. Each frame is classified
// into one event and the (state, event) pair is looked up in a fixed table:
//
//	            Gated   Miss    HitSame  HitOther
//	Idle        -       -       -        enter
//	Hovering    exit    exit    -        switch
//
// Gated means the observer is farther from the globe than the threshold, so
// no picking happens at all. The machine must be stepped every frame, not only
// on pointer moves, because the camera moves on its own.
package hover

import (
	"github.com/echoflaresat/globeview/catalog"
	"github.com/echoflaresat/globeview/observability"
	"github.com/echoflaresat/globeview/session"
	"github.com/echoflaresat/globeview/vectors"
)

// DefaultMaxDistance is the observer distance beyond which hovering is off.
const DefaultMaxDistance = 50.0

// Picker finds the marker nearest to the observer along the ray through a
// point in normalized device coordinates.
type Picker interface {
	Pick(ndc vectors.Vec2) (*catalog.Marker, bool)
}

// Tooltip is the single on-screen info box. Show replaces whatever is shown.
type Tooltip interface {
	Show(label Label, at vectors.Vec2)
	Hide()
}

// State is the machine state.
type State int

const (
	Idle State = iota
	Hovering
)

func (s State) String() string {
	if s == Hovering {
		return "hovering"
	}
	return "idle"
}

type event int

const (
	evGated event = iota
	evMiss
	evHitSame
	evHitOther
	numEvents
)

// Action is what a frame did to the hover state.
type Action int

const (
	None Action = iota
	Enter
	Switch
	Exit
)

func (a Action) String() string {
	switch a {
	case Enter:
		return "enter"
	case Switch:
		return "switch"
	case Exit:
		return "exit"
	default:
		return "none"
	}
}

var transitions = [2][numEvents]Action{
	Idle:     {evGated: None, evMiss: None, evHitSame: None, evHitOther: Enter},
	Hovering: {evGated: Exit, evMiss: Exit, evHitSame: None, evHitOther: Switch},
}

// Frame is the per-frame input that is not part of the session.
type Frame struct {
	// ObserverDistance is the distance from the camera to the globe's centre.
	ObserverDistance float64
}

// Machine is the hover state machine. It is not safe for concurrent use; the
// frame loop owns it.
type Machine struct {
	picker      Picker
	tooltip     Tooltip
	maxDistance float64
	metrics     *observability.Metrics

	state   State
	current *catalog.Marker
}

// New returns an idle machine. maxDistance <= 0 selects DefaultMaxDistance.
func New(picker Picker, tooltip Tooltip, maxDistance float64, metrics *observability.Metrics) *Machine {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &Machine{
		picker:      picker,
		tooltip:     tooltip,
		maxDistance: maxDistance,
		metrics:     metrics,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Current returns the hovered marker, or nil when idle.
func (m *Machine) Current() *catalog.Marker { return m.current }

// Step advances the machine by one frame and returns what it did.
func (m *Machine) Step(s *session.Session, f Frame) Action {
	ev, hit := m.classify(s, f)
	action := transitions[m.state][ev]

	switch action {
	case Enter:
		m.enter(s, hit)
	case Switch:
		m.current.Reset()
		m.enter(s, hit)
	case Exit:
		m.exit(s)
	}

	if action != None && m.metrics != nil {
		m.metrics.HoverTransitions.WithLabelValues(action.String()).Inc()
	}
	return action
}

func (m *Machine) classify(s *session.Session, f Frame) (event, *catalog.Marker) {
	if f.ObserverDistance > m.maxDistance {
		return evGated, nil
	}
	if !s.HasPointer {
		return evMiss, nil
	}
	hit, ok := m.picker.Pick(s.PointerNDC())
	if !ok || hit == nil {
		return evMiss, nil
	}
	if hit == m.current {
		return evHitSame, hit
	}
	return evHitOther, hit
}

func (m *Machine) enter(s *session.Session, marker *catalog.Marker) {
	marker.Highlight()
	m.tooltip.Show(LabelFor(marker.Record), s.Pointer)
	m.state = Hovering
	m.current = marker
	s.Paused = true
	if m.metrics != nil {
		m.metrics.TooltipShows.Inc()
	}
}

func (m *Machine) exit(s *session.Session) {
	m.current.Reset()
	m.tooltip.Hide()
	m.state = Idle
	m.current = nil
	s.Paused = false
}
