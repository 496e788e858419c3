// Package curve maps a normalized power load to a fan duty-cycle byte by
// piecewise-linear interpolation over a table of calibration breakpoints.
package curve

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aprilwade/teslafanctl/internal/errors"
)

// Point is a single calibration breakpoint: at the given normalized load,
// drive the fan at the given duty cycle.
type Point struct {
	Load  float64
	Speed byte
}

// Curve is an immutable calibration table, sorted ascending by load.
type Curve struct {
	points []Point
}

// New builds a curve from the given breakpoints. Input order does not
// matter. Breakpoints with loads outside [0, 1] or with duplicate loads
// are rejected; a shared load would make the interpolation divide by zero.
func New(points []Point) (*Curve, error) {
	errFactory := errors.New()

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Load < sorted[j].Load
	})

	for i, p := range sorted {
		if p.Load < 0 || p.Load > 1 {
			return nil, errFactory.WithData(errors.ErrInvalidCurve,
				"load must be between 0.0 and 1.0")
		}
		if i > 0 && p.Load == sorted[i-1].Load {
			return nil, errFactory.WithData(errors.ErrInvalidCurve,
				"duplicate load "+strconv.FormatFloat(p.Load, 'g', -1, 64))
		}
	}

	return &Curve{points: sorted}, nil
}

// Default returns the built-in calibration table.
func Default() *Curve {
	c, err := New([]Point{
		{Load: 0.30, Speed: 0},
		{Load: 0.40, Speed: 70},
		{Load: 0.60, Speed: 120},
		{Load: 0.70, Speed: 170},
		{Load: 0.80, Speed: 210},
		{Load: 0.95, Speed: 255},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}

	return c
}

// Parse builds a curve from a comma-separated list of load:speed pairs,
// e.g. "0.3:0,0.6:120,0.95:255".
func Parse(s string) (*Curve, error) {
	errFactory := errors.New()

	entries := strings.Split(s, ",")
	points := make([]Point, 0, len(entries))
	for i, entry := range entries {
		before, after, found := strings.Cut(entry, ":")
		if !found {
			return nil, errFactory.WithData(errors.ErrInvalidCurve,
				"missing ':' in entry "+strconv.Itoa(i)+
					": each entry needs a power load and a fan speed")
		}

		load, err := strconv.ParseFloat(strings.TrimSpace(before), 64)
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidCurve, err)
		}
		if load < 0 || load > 1 {
			return nil, errFactory.WithData(errors.ErrInvalidCurve,
				"load must be between 0.0 and 1.0 in entry "+strconv.Itoa(i))
		}

		speed, err := strconv.ParseUint(strings.TrimSpace(after), 10, 8)
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidCurve, err)
		}

		points = append(points, Point{Load: load, Speed: byte(speed)})
	}

	return New(points)
}

// Lookup returns the duty cycle for the given load. The load is clamped to
// [0, 1]; a load landing exactly on a breakpoint returns that breakpoint's
// speed, anything else is interpolated between the nearest breakpoint
// strictly below (falling back to 0.0:0) and strictly above (falling back
// to 1.0:255).
func (c *Curve) Lookup(load float64) byte {
	load = clamp(load, 0, 1)

	upper := Point{Load: 1.0, Speed: 255}
	for _, p := range c.points {
		if load == p.Load {
			return p.Speed
		}
		if load < p.Load {
			upper = p
			break
		}
	}

	lower := Point{Load: 0.0, Speed: 0}
	for i := len(c.points) - 1; i >= 0; i-- {
		if load > c.points[i].Load {
			lower = c.points[i]
			break
		}
	}

	ratio := (load - lower.Load) / (upper.Load - lower.Load)
	speed := float64(lower.Speed) + ratio*(float64(upper.Speed)-float64(lower.Speed))

	return byte(speed)
}

// Points returns a copy of the calibration table.
func (c *Curve) Points() []Point {
	points := make([]Point, len(c.points))
	copy(points, c.points)

	return points
}

func clamp(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}

	return value
}
