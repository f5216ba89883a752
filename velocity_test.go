// litewing project velocity_test.go

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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateVelocityZeroAltitude(t *testing.T) {
	cfg := DefaultConfig()
	var hist FlowHistory

	assert.Zero(t, EstimateVelocity(500, 0, &hist, cfg))
	assert.Zero(t, EstimateVelocity(500, -0.1, &hist, cfg))

	cfg.UseHeightScaling = true
	assert.Zero(t, EstimateVelocity(500, 0, &hist, cfg))
}

func TestEstimateVelocityDeadZone(t *testing.T) {
	cfg := DefaultConfig()
	var hist FlowHistory

	// 3.7 * 0.01 * delta(=0.1) would be well under the 0.005 threshold;
	// the output must be exactly zero, not merely small.
	v := EstimateVelocity(0, 0.3, &hist, cfg)
	assert.Equal(t, 0.0, v)

	// One count per sample is 0.037 m/s - outside the dead-zone.
	hist = FlowHistory{}
	cfg.SmoothingAlpha = 1.0
	v = EstimateVelocity(1, 0.3, &hist, cfg)
	assert.NotZero(t, v)
}

func TestEstimateVelocityEmpiricalScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 1.0 // isolate the raw conversion
	var hist FlowHistory

	v := EstimateVelocity(10, 0.3, &hist, cfg)
	assert.InDelta(t, 10*3.7*0.01, v, 1e-12)

	// Empirical mode ignores the actual altitude (beyond validity).
	hist = FlowHistory{}
	v2 := EstimateVelocity(10, 1.2, &hist, cfg)
	assert.Equal(t, v, v2)
}

func TestEstimateVelocityHeightScaling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseHeightScaling = true
	cfg.FlowFOVDeg = 5.4
	cfg.SmoothingAlpha = 1.0
	var hist FlowHistory

	want := 5 * 0.3 * (5.4 * math.Pi / 180.0) / (30 * 0.01)
	v := EstimateVelocity(5, 0.3, &hist, cfg)
	assert.InDelta(t, want, v, 1e-12)

	// Same flow delta at double the altitude means double the speed.
	hist = FlowHistory{}
	v2 := EstimateVelocity(5, 0.6, &hist, cfg)
	assert.InDelta(t, 2*want, v2, 1e-12)
}

func TestEstimateVelocitySmoothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 0.8
	var hist FlowHistory

	EstimateVelocity(10, 0.3, &hist, cfg) // raw 0.37
	v := EstimateVelocity(20, 0.3, &hist, cfg)
	assert.InDelta(t, 0.74*0.8+0.37*0.2, v, 1e-12)
}

func TestEstimateVelocityExtrapolation(t *testing.T) {
	// Alpha above 1.0 over-weights the newest sample and subtracts the
	// previous one, so the blend leads a rising trend.
	cfg := DefaultConfig()
	cfg.SmoothingAlpha = 1.5
	var hist FlowHistory

	EstimateVelocity(10, 0.3, &hist, cfg)
	v := EstimateVelocity(20, 0.3, &hist, cfg)
	assert.InDelta(t, 0.74*1.5-0.37*0.5, v, 1e-12)
	assert.Greater(t, v, 0.74)
}
