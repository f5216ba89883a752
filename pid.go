// pid.go

// This file contains the cascaded position/velocity PID controller.

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

// Integral accumulator clamp bands.  The anti-windup clamp is applied to the
// accumulator itself, not the output, so it persists across cycles.  The
// velocity loop gets the tighter band: its error signal is noisier.
const (
	positionIntegralClamp = 0.1
	velocityIntegralClamp = 0.05
)

// pidState holds the integral accumulator and previous error of one PID loop
// on one axis.
type pidState struct {
	integral float64
	lastErr  float64
}

// update runs one standard PID step and returns the loop output.
func (s *pidState) update(err, dt, kp, ki, kd, integralClamp float64) float64 {
	p := err * kp

	s.integral += err * dt
	s.integral = clamp(s.integral, -integralClamp, integralClamp)
	i := s.integral * ki

	d := (err - s.lastErr) / dt * kd
	s.lastErr = err

	return p + i + d
}

// Controller is the cascaded PID pair for both horizontal axes: a position
// loop pulling the dead-reckoned position back to the hold target, plus an
// independent velocity loop damping motion toward zero.
//
// The cascade exists because raw optical-flow velocity is noisy: a pure
// position-P controller oscillates, and differentiating the position error
// directly would amplify that noise.  The velocity loop supplies the damping
// from an independently filtered signal instead.
type Controller struct {
	posX, posY pidState
	velX, velY pidState
}

// Reset clears all integral accumulators and stored errors.  Called whenever
// the position estimate is reset and whenever gains change at runtime.
func (c *Controller) Reset() {
	*c = Controller{}
}

// Correction computes the bounded velocity-correction pair for the current
// position and velocity estimates against the hold target.
//
// ready reports whether the sensor has produced a valid sample yet; until it
// has, the correction is (0, 0) and no controller state is touched, so a
// spurious kick is never injected before the estimator has real data.
func (c *Controller) Correction(target, current PositionEstimate, vel VelocityEstimate, ready bool, dt float64, cfg Config) (corrX, corrY float64) {
	if !ready || dt <= 0 {
		return 0.0, 0.0
	}

	corrX = c.axisCorrection(&c.posX, &c.velX, current.X-target.X, vel.VX, dt, cfg)
	corrY = c.axisCorrection(&c.posY, &c.velY, current.Y-target.Y, vel.VY, dt, cfg)
	return corrX, corrY
}

// axisCorrection runs both loops for a single axis and combines them.
// Errors are negated so that positive output drives the vehicle back toward
// the target and against its current motion.
func (c *Controller) axisCorrection(pos, vel *pidState, posOffset, velocity, dt float64, cfg Config) float64 {
	posOut := pos.update(-posOffset, dt,
		cfg.PositionKp, cfg.PositionKi, cfg.PositionKd, positionIntegralClamp)
	velOut := vel.update(-velocity, dt,
		cfg.VelocityKp, cfg.VelocityKi, cfg.VelocityKd, velocityIntegralClamp)

	return clamp(posOut+velOut, -cfg.MaxCorrection, cfg.MaxCorrection)
}
