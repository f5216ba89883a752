// litewing project pid_test.go

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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectionNotReady(t *testing.T) {
	cfg := DefaultConfig()
	var c Controller

	x, y := c.Correction(PositionEstimate{}, PositionEstimate{X: 1, Y: 1},
		VelocityEstimate{VX: 1, VY: 1}, false, 0.02, cfg)

	assert.Zero(t, x)
	assert.Zero(t, y)
	// No state may be touched before the sensor is ready.
	assert.Equal(t, Controller{}, c)

	x, y = c.Correction(PositionEstimate{}, PositionEstimate{X: 1},
		VelocityEstimate{}, true, 0, cfg)
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Equal(t, Controller{}, c)
}

func TestCorrectionPullsTowardTarget(t *testing.T) {
	cfg := DefaultConfig()
	var c Controller

	// Displaced +X with no motion: the correction must push back (-X).
	x, y := c.Correction(PositionEstimate{}, PositionEstimate{X: 0.05},
		VelocityEstimate{}, true, 0.02, cfg)
	assert.Negative(t, x)
	assert.Zero(t, y)

	// Pure motion with no displacement: the velocity loop damps it.
	c.Reset()
	x, _ = c.Correction(PositionEstimate{}, PositionEstimate{},
		VelocityEstimate{VX: 0.02}, true, 0.02, cfg)
	assert.Negative(t, x)
}

func TestCorrectionProportional(t *testing.T) {
	cfg := DefaultConfig() // Ki = Kd = 0: pure P on both loops
	var c Controller

	x, y := c.Correction(PositionEstimate{}, PositionEstimate{X: 0.05, Y: -0.02},
		VelocityEstimate{VX: 0.01}, true, 0.02, cfg)

	assert.InDelta(t, -0.05*cfg.PositionKp-0.01*cfg.VelocityKp, x, 1e-12)
	assert.InDelta(t, 0.02*cfg.PositionKp, y, 1e-12)
}

func TestCorrectionOutputClamp(t *testing.T) {
	cfg := DefaultConfig()
	var c Controller

	x, y := c.Correction(PositionEstimate{}, PositionEstimate{X: 2.0, Y: -2.0},
		VelocityEstimate{}, true, 0.02, cfg)

	assert.Equal(t, -cfg.MaxCorrection, x)
	assert.Equal(t, cfg.MaxCorrection, y)
}

func TestIntegralAntiWindup(t *testing.T) {
	var s pidState

	// A sustained unit error would wind the accumulator without bound;
	// the clamp caps the I contribution at clamp * Ki.
	var out float64
	for i := 0; i < 1000; i++ {
		out = s.update(1.0, 0.02, 0, 1.0, 0, positionIntegralClamp)
	}
	assert.InDelta(t, positionIntegralClamp, out, 1e-12)

	// And it recovers: error reversal starts unwinding immediately.
	out = s.update(-1.0, 0.02, 0, 1.0, 0, positionIntegralClamp)
	assert.Less(t, out, positionIntegralClamp)
}

func TestControllerReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PositionKi = 0.5
	var c Controller

	c.Correction(PositionEstimate{}, PositionEstimate{X: 0.5},
		VelocityEstimate{}, true, 0.02, cfg)
	assert.NotEqual(t, Controller{}, c)

	c.Reset()
	assert.Equal(t, Controller{}, c)
}
