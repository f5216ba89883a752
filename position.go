// position.go

// This file integrates velocity into the dead-reckoned position estimate.

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

// maxIntegrationDt is the longest sample gap we are willing to integrate
// over.  A larger gap means the stream stalled; trusting it would inject a
// huge spurious displacement.
const maxIntegrationDt = 0.1 // s

// PositionEstimate is the dead-reckoned displacement, in metres, since the
// last reset.  Both axes always stay within the configured clamp band.
type PositionEstimate struct {
	X, Y float64

	lastReset float64 // wall-clock seconds of the last zeroing
}

// Integrate advances the estimate by vx, vy over dt seconds.  Non-positive
// or excessive dt skips the update entirely, leaving the estimate unchanged.
//
// When the instantaneous speed is close to the stationary dead-zone, any
// accumulated position is more likely integration drift than true
// displacement, so it is bled gently back toward zero instead of being
// trusted indefinitely.
func (p *PositionEstimate) Integrate(vx, vy, dt float64, cfg Config) {
	if dt <= 0 || dt > maxIntegrationDt {
		return
	}

	p.X += vx * dt
	p.Y += vy * dt

	if math.Sqrt(vx*vx+vy*vy) < cfg.VelocityThreshold*2 {
		p.X -= p.X * cfg.DriftCompensationRate * dt
		p.Y -= p.Y * cfg.DriftCompensationRate * dt
	}

	p.X = clamp(p.X, -cfg.MaxPositionError, cfg.MaxPositionError)
	p.Y = clamp(p.Y, -cfg.MaxPositionError, cfg.MaxPositionError)
}

// CheckPeriodicReset zeroes the estimate once the reset interval has elapsed
// and reports whether it did so.  Redefining the hold origin as "wherever the
// vehicle currently is" bounds how long open-loop drift can accumulate.
func (p *PositionEstimate) CheckPeriodicReset(now float64, cfg Config) bool {
	if now-p.lastReset < cfg.PeriodicResetInterval {
		return false
	}
	p.Reset(now)
	return true
}

// Reset zeroes both axes and restarts the periodic-reset clock.
func (p *PositionEstimate) Reset(now float64) {
	p.X = 0.0
	p.Y = 0.0
	p.lastReset = now
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
