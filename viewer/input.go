package viewer

import (
	"fmt"
	"math"

	"github.com/echoflaresat/globeview/config"
)

// Input types sent by the browser.
const (
	InputPointer = "pointer"
	InputLeave   = "leave"
	InputOrbit   = "orbit"
	InputZoom    = "zoom"
	InputResize  = "resize"
	InputParam   = "param"
)

// MaxFrameSize bounds a resize request in either dimension.
const MaxFrameSize = config.MaxFrameSize

// zoomStep is the distance factor of one wheel notch.
const zoomStep = 0.95

// Input is one browser event. Only the fields of its Type are meaningful.
type Input struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Name   string  `json:"name,omitempty"`
	Value  any     `json:"value,omitempty"`
}

// apply runs on the frame goroutine.
func (v *Viewer) apply(in Input) error {
	switch in.Type {
	case InputPointer:
		v.session.MovePointer(in.X, in.Y)
	case InputLeave:
		v.session.LeavePointer()
	case InputOrbit:
		// a drag across the full viewport height turns the camera once around
		h := float64(max(1, v.session.Height))
		v.camera.Orbit(-2*math.Pi*in.DX/h, -2*math.Pi*in.DY/h)
	case InputZoom:
		switch {
		case in.Delta > 0:
			v.camera.Zoom(1 / zoomStep)
		case in.Delta < 0:
			v.camera.Zoom(zoomStep)
		}
	case InputResize:
		if in.Width <= 0 || in.Height <= 0 || in.Width > MaxFrameSize || in.Height > MaxFrameSize {
			return fmt.Errorf("invalid frame size %dx%d", in.Width, in.Height)
		}
		v.session.Width, v.session.Height = in.Width, in.Height
		v.camera.SetAspect(in.Width, in.Height)
	case InputParam:
		return v.panel.Set(in.Name, in.Value)
	default:
		return fmt.Errorf("unknown input type %q", in.Type)
	}
	return nil
}
