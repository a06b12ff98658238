// Package panel is the debug control panel of the viewer: a flat list of
// controllers, each bound to one field of Params, with optional on-change
// callbacks. The browser renders the controllers from Controls and sends
// changes back through Set.
package panel

import (
	"errors"
	"fmt"
	"math"

	"github.com/echoflaresat/globeview/colors"
)

// ErrUnknownControl is returned by Set for a name that was never added.
var ErrUnknownControl = errors.New("unknown control")

// Kind is the widget type of a controller.
type Kind string

const (
	KindNumber Kind = "number"
	KindColor  Kind = "color"
	KindBool   Kind = "bool"
)

// Control is the serialisable description of a controller.
type Control struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Kind  Kind    `json:"kind"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Step  float64 `json:"step,omitempty"`
	Value any     `json:"value"`
}

// Controller binds one Params field to the panel.
type Controller struct {
	name  string
	label string
	kind  Kind

	min, max, step float64

	num   *float64
	flag  *bool
	color *colors.Color4

	onChange []func(value any)
}

// OnChange registers fn to run after every successful Set of this control.
// It returns the controller so calls can be chained.
func (c *Controller) OnChange(fn func(value any)) *Controller {
	c.onChange = append(c.onChange, fn)
	return c
}

// Name changes the displayed label.
func (c *Controller) Name(label string) *Controller {
	c.label = label
	return c
}

func (c *Controller) value() any {
	switch c.kind {
	case KindNumber:
		return *c.num
	case KindBool:
		return *c.flag
	default:
		return c.color.String()
	}
}

func (c *Controller) describe() Control {
	return Control{
		Name:  c.name,
		Label: c.label,
		Kind:  c.kind,
		Min:   c.min,
		Max:   c.max,
		Step:  c.step,
		Value: c.value(),
	}
}

func (c *Controller) set(v any) error {
	switch c.kind {
	case KindNumber:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%s: expected a number, got %T", c.name, v)
		}
		*c.num = c.snap(f)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%s: expected a boolean, got %T", c.name, v)
		}
		*c.flag = b
	case KindColor:
		col, err := toColor(v)
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		*c.color = col
	}
	for _, fn := range c.onChange {
		fn(c.value())
	}
	return nil
}

// snap clamps f to [min, max] and rounds it to the nearest step from min.
func (c *Controller) snap(f float64) float64 {
	if math.IsNaN(f) {
		return *c.num
	}
	if c.step > 0 {
		f = c.min + math.Round((f-c.min)/c.step)*c.step
	}
	if c.max > c.min {
		f = math.Max(c.min, math.Min(c.max, f))
	}
	return f
}

// Panel is an ordered set of controllers.
type Panel struct {
	controllers []*Controller
	byName      map[string]*Controller
}

func New() *Panel {
	return &Panel{byName: make(map[string]*Controller)}
}

// Number adds a slider over [min, max] with the given step.
func (p *Panel) Number(name string, v *float64, min, max, step float64) *Controller {
	return p.add(&Controller{name: name, label: name, kind: KindNumber, num: v, min: min, max: max, step: step})
}

// Bool adds a checkbox.
func (p *Panel) Bool(name string, v *bool) *Controller {
	return p.add(&Controller{name: name, label: name, kind: KindBool, flag: v})
}

// Color adds a color picker.
func (p *Panel) Color(name string, v *colors.Color4) *Controller {
	return p.add(&Controller{name: name, label: name, kind: KindColor, color: v})
}

func (p *Panel) add(c *Controller) *Controller {
	if _, dup := p.byName[c.name]; dup {
		panic("panel: duplicate control " + c.name)
	}
	p.controllers = append(p.controllers, c)
	p.byName[c.name] = c
	return c
}

// Set assigns a value coming from the UI. Numbers are clamped and stepped,
// colors accept "#rrggbb" strings or 0xRRGGBB numbers.
func (p *Panel) Set(name string, value any) error {
	c, ok := p.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	return c.set(value)
}

// Controls describes every controller in the order they were added.
func (p *Panel) Controls() []Control {
	out := make([]Control, 0, len(p.controllers))
	for _, c := range p.controllers {
		out = append(out, c.describe())
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toColor(v any) (colors.Color4, error) {
	switch c := v.(type) {
	case string:
		return colors.ParseHex(c)
	case colors.Color4:
		return c, nil
	}
	if f, ok := toFloat(v); ok && f >= 0 && f <= 0xffffff {
		return colors.FromHex(uint32(f)), nil
	}
	return colors.Color4{}, fmt.Errorf("expected a color, got %v", v)
}
