// Package controller runs the closed-loop fan control algorithm: sample
// telemetry, derive a duty cycle from the calibration curve, smooth it
// against noise, and command the fan controller.
package controller

import (
	"context"
	"math"
	"time"

	"github.com/aprilwade/teslafanctl/internal/curve"
	"github.com/aprilwade/teslafanctl/internal/errors"
	"github.com/aprilwade/teslafanctl/internal/fanctl"
	"github.com/aprilwade/teslafanctl/internal/gpu"
	"github.com/aprilwade/teslafanctl/internal/logger"
	"github.com/aprilwade/teslafanctl/internal/metrics"
	"github.com/aprilwade/teslafanctl/internal/window"
)

const (
	// historySeconds is the rolling horizon covered by the telemetry windows.
	historySeconds = 60.0

	// cutoffTemperature forces maximum cooling whenever the window max
	// reaches it, regardless of power draw.
	cutoffTemperature = 77

	// boostTemperature adds boostAmount to the curve output as a thermal
	// margin while the window max stays at or above it.
	boostTemperature = 72
	boostAmount      = 50

	// hysteresisBand is the duty-cycle delta (about 5% of full scale) below
	// which a new candidate is not worth re-commanding.
	hysteresisBand = 12.75

	maxSpeed = 255
)

type Config struct {
	// Interval between ticks, in seconds.
	Interval float64

	// Monitor computes and logs speeds without ever commanding the fan.
	Monitor bool
}

// Controller owns all loop state: the telemetry windows, the previously
// commanded speed and the fan controller connection slot. It is driven by
// a single goroutine; no locking.
type Controller struct {
	fanCurve  *curve.Curve
	source    gpu.TelemetrySource
	opener    fanctl.Opener
	collector metrics.Collector

	interval time.Duration
	monitor  bool

	tempHistory  *window.Window
	powerHistory *window.Window
	seeded       bool

	prevSpeed int // -1 until the first successful command
	conn      fanctl.Connection
}

// New builds a controller. The telemetry windows are sized to cover a
// 60-second horizon at the given interval. The collector may be nil.
func New(cfg Config, fanCurve *curve.Curve, source gpu.TelemetrySource,
	opener fanctl.Opener, collector metrics.Collector,
) (*Controller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidInterval, cfg.Interval)
	}

	capacity := int(math.Ceil(historySeconds / cfg.Interval))

	return &Controller{
		fanCurve:     fanCurve,
		source:       source,
		opener:       opener,
		collector:    collector,
		interval:     time.Duration(cfg.Interval * float64(time.Second)),
		monitor:      cfg.Monitor,
		tempHistory:  window.New(capacity),
		powerHistory: window.New(capacity),
		prevSpeed:    -1,
	}, nil
}

// Run ticks the controller at the configured interval until the context is
// cancelled, then releases the fan controller connection.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer c.dropConnection()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick executes one control iteration. Every failure inside a tick is
// non-fatal: it is logged and retried naturally on the next tick.
func (c *Controller) Tick(ctx context.Context) {
	// The fan controller may be disconnected at any time. Without a live
	// connection there is nothing to command, so skip the whole tick and
	// keep the telemetry history untouched.
	if !c.monitor && c.conn == nil {
		conn, err := c.opener.Open()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to find fan controller")
			return
		}
		c.conn = conn
		logger.Debug().Msg("Fan controller connected")
	}

	computed, adjusted, sampled := c.computeCandidate()

	snapshot := &metrics.Snapshot{
		Timestamp:     time.Now(),
		ComputedSpeed: computed,
		AdjustedSpeed: adjusted,
		PreviousSpeed: c.prevSpeed,
		TelemetryOK:   sampled,
	}
	if c.seeded {
		snapshot.MaxTemperature = int(c.tempHistory.Max())
		snapshot.AvgPowerRatio = c.powerHistory.Mean()
	}

	// Small fluctuations around the previous command are ignored to avoid
	// PWM chatter, but a transition onto either extreme is always reported
	// once: 0 means the fan may spin down, 255 means maximum cooling.
	if c.prevSpeed >= 0 && withinHysteresis(c.prevSpeed, adjusted) {
		c.record(ctx, snapshot)
		return
	}

	if c.monitor {
		c.record(ctx, snapshot)
		return
	}

	if err := c.conn.Send(byte(adjusted)); err != nil {
		// Assume the command did not take effect and force a reconnect
		// next tick; prevSpeed deliberately keeps its old value.
		logger.Error().Err(err).Msg("Error updating fan controller")
		c.dropConnection()
		c.record(ctx, snapshot)
		return
	}

	logger.Info().Int("speed", adjusted).Msg("Set fan speed")
	c.prevSpeed = adjusted
	snapshot.Commanded = true
	c.record(ctx, snapshot)
}

// computeCandidate samples telemetry, updates the rolling windows and
// derives the candidate duty cycle. Any read failure forces maximum
// cooling for this tick without polluting the history.
func (c *Controller) computeCandidate() (computed, adjusted int, sampled bool) {
	temperature, err := c.source.Temperature()
	if err != nil {
		logger.Error().Err(err).Msg("Error reading GPU temperature")
		return maxSpeed, maxSpeed, false
	}

	powerDraw, err := c.source.PowerDraw()
	if err != nil {
		logger.Error().Err(err).Msg("Error reading GPU power draw")
		return maxSpeed, maxSpeed, false
	}

	powerLimit, err := c.source.PowerLimit()
	if err != nil || powerLimit == 0 {
		logger.Error().Err(err).Msg("Error reading GPU power limit")
		return maxSpeed, maxSpeed, false
	}

	powerRatio := float64(powerDraw) / float64(powerLimit)

	if !c.seeded {
		// First successful sample: seed every slot so the aggregates
		// reflect real readings while the window warms up.
		c.tempHistory.Fill(float64(temperature))
		c.powerHistory.Fill(powerRatio)
		c.seeded = true
	} else {
		c.tempHistory.Push(float64(temperature))
		c.powerHistory.Push(powerRatio)
	}

	maxTemperature := int(c.tempHistory.Max())

	// Safety cutoff in case of runaway temperatures.
	if maxTemperature >= cutoffTemperature {
		logger.Warn().Int("max_temperature", maxTemperature).
			Msg("Temperature cutoff reached, forcing maximum fan speed")
		return maxSpeed, maxSpeed, true
	}

	avgPower := c.powerHistory.Mean()
	computed = int(c.fanCurve.Lookup(avgPower))

	adjusted = computed
	if maxTemperature >= boostTemperature {
		adjusted = saturatingAdd(computed, boostAmount)
	}

	logger.Info().
		Float64("avg_power_pct", avgPower*100).
		Int("max_temperature", maxTemperature).
		Int("computed_speed", computed).
		Int("previous_speed", c.prevSpeed).
		Int("adjusted_speed", adjusted).
		Msg("")

	return computed, adjusted, true
}

func (c *Controller) dropConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		logger.Debug().Err(err).Msg("Error closing fan controller connection")
	}
	c.conn = nil
}

func (c *Controller) record(ctx context.Context, snapshot *metrics.Snapshot) {
	if c.collector == nil {
		return
	}
	if err := c.collector.Record(ctx, snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to record tick snapshot")
	}
}

// withinHysteresis reports whether commanding the candidate is suppressed.
// Transitions into 0 from nonzero and into 255 from non-255 always pass.
func withinHysteresis(previous, candidate int) bool {
	if math.Abs(float64(candidate-previous)) > hysteresisBand {
		return false
	}
	if candidate == 0 && previous != 0 {
		return false
	}
	if candidate == maxSpeed && previous != maxSpeed {
		return false
	}

	return true
}

func saturatingAdd(speed, amount int) int {
	if speed+amount > maxSpeed {
		return maxSpeed
	}

	return speed + amount
}
