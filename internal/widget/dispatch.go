package widget

import "context"

// Control names an interactive element of the widget.
type Control string

const (
	ControlSend     Control = "send-button"
	ControlInput    Control = "user-input"
	ControlRepair   Control = "repair-toggle"
	ControlClear    Control = "clear-button"
	ControlZoomIn   Control = "zoom-in"
	ControlZoomOut  Control = "zoom-out"
	ControlViewer   Control = "image-container"
	ControlDocument Control = "document"
)

// EventKind is the type of input event.
type EventKind string

const (
	EventClick   EventKind = "click"
	EventKeyDown EventKind = "keydown"
	EventWheel   EventKind = "wheel"
)

// Event is an input event aimed at a control.
type Event struct {
	Control Control
	Kind    EventKind
	Key     string
	Ctrl    bool
	Meta    bool
	Shift   bool
	// DeltaY is the wheel movement; positive is wheel-down.
	DeltaY float64
}

func (e Event) modifier() bool { return e.Ctrl || e.Meta }

// Handler reacts to an event and reports whether it consumed it.
type Handler func(ctx context.Context, ev Event) bool

type binding struct {
	control Control
	kind    EventKind
}

// Dispatcher routes events to handlers through a fixed table.
type Dispatcher struct {
	table map[binding]Handler
}

// NewDispatcher wires the default bindings for c. Sending and clearing
// call the backend synchronously; front ends with an event loop replace
// those bindings with Handle.
func NewDispatcher(c *Controller) *Dispatcher {
	d := &Dispatcher{table: make(map[binding]Handler)}

	send := func(ctx context.Context, _ Event) bool {
		c.Generate(ctx)
		return true
	}
	d.Handle(ControlSend, EventClick, send)
	d.Handle(ControlInput, EventKeyDown, func(ctx context.Context, ev Event) bool {
		if ev.Key != "Enter" || ev.Shift {
			return false
		}
		return send(ctx, ev)
	})
	d.Handle(ControlRepair, EventClick, func(context.Context, Event) bool {
		c.ToggleRepair()
		return true
	})
	d.Handle(ControlClear, EventClick, func(ctx context.Context, _ Event) bool {
		c.Clear(ctx)
		return true
	})
	d.Handle(ControlZoomIn, EventClick, func(context.Context, Event) bool {
		return c.viewer.ZoomIn()
	})
	d.Handle(ControlZoomOut, EventClick, func(context.Context, Event) bool {
		return c.viewer.ZoomOut()
	})
	d.Handle(ControlDocument, EventKeyDown, func(_ context.Context, ev Event) bool {
		if !ev.modifier() {
			return false
		}
		switch ev.Key {
		case "=", "+":
			c.viewer.ZoomIn()
			return true
		case "-":
			c.viewer.ZoomOut()
			return true
		}
		return false
	})
	// Wheel-down zooms in.
	d.Handle(ControlViewer, EventWheel, func(_ context.Context, ev Event) bool {
		if !ev.modifier() || ev.DeltaY == 0 {
			return false
		}
		if ev.DeltaY > 0 {
			c.viewer.ZoomIn()
		} else {
			c.viewer.ZoomOut()
		}
		return true
	})
	return d
}

// Handle sets the handler for a control and event kind, replacing any
// existing one.
func (d *Dispatcher) Handle(control Control, kind EventKind, h Handler) {
	d.table[binding{control, kind}] = h
}

// Dispatch runs the handler bound to the event and reports whether the
// event was consumed.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) bool {
	h, ok := d.table[binding{ev.Control, ev.Kind}]
	if !ok {
		return false
	}
	return h(ctx, ev)
}
