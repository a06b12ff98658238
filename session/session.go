// Package session holds the per-viewer state shared by the animation step and
// the hover step of a frame.
package session

import (
	"github.com/echoflaresat/globeview/panel"
	"github.com/echoflaresat/globeview/vectors"
)

// Session is the render session context. It is owned by the frame goroutine.
type Session struct {
	Params *panel.Params

	// Paused suspends the ambient rotation while a marker is hovered. It is
	// independent of Params.Animation, which is the user's switch.
	Paused bool

	// Pointer is the last pointer position in viewport pixels. HasPointer is
	// false until the pointer first enters the viewport and after it leaves.
	Pointer    vectors.Vec2
	HasPointer bool
	Width      int
	Height     int
}

// New returns a session for a width×height viewport.
func New(params *panel.Params, width, height int) *Session {
	return &Session{Params: params, Width: width, Height: height}
}

// MovePointer records a pointer position in viewport pixels.
func (s *Session) MovePointer(x, y float64) {
	s.Pointer = vectors.Vec2{X: x, Y: y}
	s.HasPointer = true
}

// LeavePointer records that the pointer left the viewport.
func (s *Session) LeavePointer() {
	s.HasPointer = false
}

// PointerNDC returns the pointer in normalized device coordinates.
func (s *Session) PointerNDC() vectors.Vec2 {
	return vectors.NDC(s.Pointer.X, s.Pointer.Y, s.Width, s.Height)
}

// Animating reports whether the ambient rotation should advance this frame.
func (s *Session) Animating() bool {
	return s.Params.Animation && !s.Paused
}
