// config.go

// This file contains the tunable gains, limits and flight parameters.

// Copyright (C) 2025  The LiteWing Authors

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package litewing

import (
	"fmt"
	"strconv"
)

// Config holds every operator-tunable parameter of the position-hold
// controller.  A Config is always handled by value: the flight worker reads a
// snapshot at the start of each control cycle, so the operator may retune
// mid-flight without locking against the control loop.  A one-cycle-stale
// value is an accepted trade.
type Config struct {
	// Flight profile
	TargetHeight  float64 // hover height above ground, m
	TakeoffTime   float64 // s
	StabilizeTime float64 // s
	HoverDuration float64 // s
	LandingTime   float64 // s

	// Position-loop PID gains
	PositionKp float64
	PositionKi float64
	PositionKd float64

	// Velocity-loop PID gains
	VelocityKp float64
	VelocityKi float64
	VelocityKd float64

	// Limits
	MaxCorrection         float64 // m/s, clamp on the combined PID output
	VelocityThreshold     float64 // m/s, dead-zone below which velocity reads as zero
	DriftCompensationRate float64 // 1/s, pull-to-zero rate when near-stationary
	MaxPositionError      float64 // m, hard clamp on the dead-reckoned position
	PeriodicResetInterval float64 // s, dead-reckoning origin redefinition period

	// Velocity estimation
	SmoothingAlpha   float64 // blend weight for the 2-slot filter, 0.0 to 1.5
	FlowFOVDeg       float64 // per-axis sensor field of view, degrees
	FlowScale        float64 // empirical scale used when height scaling is off
	UseHeightScaling bool
	SensorPeriodMs   float64 // nominal motion logging period

	// Outbound command bias
	TrimVX float64
	TrimVY float64

	// Safety
	LowBatteryVolts float64

	// DebugMode suppresses all outbound setpoints; sample processing,
	// telemetry and logging continue unchanged.  Used for bench tuning
	// without arming the motors.
	DebugMode bool
}

// DefaultConfig returns the tuning that flies the stock LiteWing airframe.
func DefaultConfig() Config {
	return Config{
		TargetHeight:  0.3,
		TakeoffTime:   1.0,
		StabilizeTime: 3.0,
		HoverDuration: 30.0,
		LandingTime:   0.5,

		PositionKp: 1.5,
		PositionKi: 0.0,
		PositionKd: 0.0,

		VelocityKp: 1.2,
		VelocityKi: 0.0,
		VelocityKd: 0.0,

		MaxCorrection:         0.1,
		VelocityThreshold:     0.005,
		DriftCompensationRate: 0.002,
		MaxPositionError:      2.0,
		PeriodicResetInterval: 30.0,

		SmoothingAlpha:   0.8,
		FlowFOVDeg:       4.2,
		FlowScale:        3.7,
		UseHeightScaling: false,
		SensorPeriodMs:   10,

		TrimVX: 0.1,
		TrimVY: -0.02,

		LowBatteryVolts: 3.4,
	}
}

// sensorPeriod is the nominal sample spacing in seconds.
func (c Config) sensorPeriod() float64 {
	return c.SensorPeriodMs / 1000.0
}

// Validate checks a Config for values which would destabilise the control
// loop or blow up the estimator.
func (c Config) Validate() error {
	if c.TargetHeight <= 0 {
		return fmt.Errorf("target height must be positive, got %v", c.TargetHeight)
	}
	if c.SensorPeriodMs <= 0 {
		return fmt.Errorf("sensor period must be positive, got %vms", c.SensorPeriodMs)
	}
	if c.SmoothingAlpha < 0 || c.SmoothingAlpha > 1.5 {
		return fmt.Errorf("smoothing alpha must be in [0, 1.5], got %v", c.SmoothingAlpha)
	}
	if c.MaxCorrection <= 0 {
		return fmt.Errorf("max correction must be positive, got %v", c.MaxCorrection)
	}
	if c.MaxPositionError <= 0 {
		return fmt.Errorf("max position error must be positive, got %v", c.MaxPositionError)
	}
	if c.PeriodicResetInterval <= 0 {
		return fmt.Errorf("periodic reset interval must be positive, got %vs", c.PeriodicResetInterval)
	}
	return nil
}

// WithField returns a copy of the Config with the named parameter replaced by
// the parsed operator input.  This is the boundary where free-text tuning
// entries are rejected: on any error the receiver is returned unchanged, so
// the prior valid configuration stays in effect.
func (c Config) WithField(name, value string) (Config, error) {
	updated := c

	if name == "flow.heightscaling" || name == "debug" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return c, fmt.Errorf("invalid value %q for %s: %v", value, name, err)
		}
		switch name {
		case "flow.heightscaling":
			updated.UseHeightScaling = b
		case "debug":
			updated.DebugMode = b
		}
		return updated, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return c, fmt.Errorf("invalid value %q for %s: %v", value, name, err)
	}

	switch name {
	case "position.kp":
		updated.PositionKp = f
	case "position.ki":
		updated.PositionKi = f
	case "position.kd":
		updated.PositionKd = f
	case "velocity.kp":
		updated.VelocityKp = f
	case "velocity.ki":
		updated.VelocityKi = f
	case "velocity.kd":
		updated.VelocityKd = f
	case "trim.vx":
		updated.TrimVX = f
	case "trim.vy":
		updated.TrimVY = f
	case "flow.scale":
		updated.FlowScale = f
	case "flow.fov":
		updated.FlowFOVDeg = f
	case "smoothing.alpha":
		updated.SmoothingAlpha = f
	case "target.height":
		updated.TargetHeight = f
	case "hover.duration":
		updated.HoverDuration = f
	default:
		return c, fmt.Errorf("unknown tuning parameter %q", name)
	}

	if err := updated.Validate(); err != nil {
		return c, err
	}
	return updated, nil
}
