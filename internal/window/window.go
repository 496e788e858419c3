// Package window provides a fixed-capacity rolling window over the most
// recent samples of a telemetry quantity.
package window

import "github.com/asecurityteam/rolling"

// Window holds the last Capacity() samples pushed into it, overwriting the
// oldest sample once full. It is owned by a single producer; aggregate
// reads cover every slot, including slots not yet overwritten.
type Window struct {
	capacity int
	policy   *rolling.PointPolicy
}

// New creates a window with the given capacity. Capacities below one are
// raised to one so the window always reports a value once pushed into.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}

	return &Window{
		capacity: capacity,
		policy:   rolling.NewPointPolicy(rolling.NewWindow(capacity)),
	}
}

// Fill seeds every slot with the given value. Used with the first telemetry
// sample so aggregates reflect real data instead of zeros while the window
// warms up.
func (w *Window) Fill(value float64) {
	for i := 0; i < w.capacity; i++ {
		w.policy.Append(value)
	}
}

// Push records a sample, overwriting the oldest slot when the window is full.
func (w *Window) Push(value float64) {
	w.policy.Append(value)
}

// Max returns the largest sample currently in the window.
func (w *Window) Max() float64 {
	return w.policy.Reduce(rolling.Max)
}

// Mean returns the arithmetic mean of the samples currently in the window.
func (w *Window) Mean() float64 {
	return w.policy.Reduce(rolling.Avg)
}

// Capacity returns the fixed slot count.
func (w *Window) Capacity() int {
	return w.capacity
}
