// velocity.go

// This file converts raw optical-flow deltas into smoothed ground velocity.

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

import "math"

// flowPixelsPerFrame is the PMW3901's per-axis resolution constant.
const flowPixelsPerFrame = 30.0

const degToRad = math.Pi / 180.0

// FlowHistory is the 2-slot rolling buffer the smoothing filter works over.
// New values enter slot 0; the previous slot-0 value shifts to slot 1.
type FlowHistory [2]float64

func (h *FlowHistory) push(v float64) {
	h[1] = h[0]
	h[0] = v
}

// VelocityEstimate is the smoothed ground-plane velocity in the optical-flow
// sensor's horizontal axes, m/s.
type VelocityEstimate struct {
	VX, VY float64
}

// rawVelocity converts one flow delta into an instantaneous velocity.
// With no valid altitude there is nothing the flow count can tell us about
// ground motion, so the velocity is zero.
func rawVelocity(delta, altitude float64, cfg Config) float64 {
	if altitude <= 0 {
		return 0.0
	}
	if cfg.UseHeightScaling {
		// Angular pixel displacement scaled by altitude approximates
		// ground displacement per sample period.
		k := (cfg.FlowFOVDeg * degToRad) / (flowPixelsPerFrame * cfg.sensorPeriod())
		return delta * altitude * k
	}
	return delta * cfg.FlowScale * cfg.sensorPeriod()
}

// EstimateVelocity converts a raw optical-flow delta plus the current
// altitude into a smoothed single-axis ground velocity, pushing the raw value
// through the axis history buffer.
//
// The blend deliberately permits alpha above 1.0: with alpha = 1.5 the newest
// sample is over-weighted and the previous one subtracted, a mild
// extrapolation that counters optical-flow lag.  Outputs inside the
// stationary dead-zone are forced to exactly zero so that sensor noise never
// produces actuation chatter.
func EstimateVelocity(delta int, altitude float64, hist *FlowHistory, cfg Config) float64 {
	hist.push(rawVelocity(float64(delta), altitude, cfg))

	smoothed := hist[0]*cfg.SmoothingAlpha + hist[1]*(1-cfg.SmoothingAlpha)
	if math.Abs(smoothed) < cfg.VelocityThreshold {
		return 0.0
	}
	return smoothed
}
