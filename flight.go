// flight.go

// This file contains the flight phase state machine and the hold-mode
// control loop.

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
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"
)

const (
	controlPeriodMs = 20 // hold-loop actuation cadence
	climbPeriodMs   = 10 // takeoff/landing send cadence
)

// FlightPhase identifies where the session is in its flight profile.
type FlightPhase int

// Flight phases...
const (
	PhaseIdle FlightPhase = iota
	PhaseTakeoff
	PhaseStabilizing
	PhaseHover
	PhaseHoverReset
	PhaseLanding
	PhaseComplete
	PhaseError
	PhaseEmergencyStop
)

func (p FlightPhase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseTakeoff:
		return "TAKEOFF"
	case PhaseStabilizing:
		return "STABILIZING"
	case PhaseHover:
		return "HOVER"
	case PhaseHoverReset:
		return "HOVER (RESET)"
	case PhaseLanding:
		return "LANDING"
	case PhaseComplete:
		return "COMPLETE"
	case PhaseError:
		return "ERROR"
	case PhaseEmergencyStop:
		return "EMERGENCY STOP"
	default:
		return fmt.Sprintf("FlightPhase(%d)", int(p))
	}
}

// MarshalJSON renders the phase by name so streamed telemetry stays
// readable without the numeric mapping.
func (p FlightPhase) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// Phase returns the current flight phase.
func (lw *LiteWing) Phase() FlightPhase {
	lw.flightMu.RLock()
	p := lw.phase
	lw.flightMu.RUnlock()
	return p
}

// StartFlight runs the full profile - takeoff, stabilise, position hold,
// land - on a worker Goroutine and returns immediately.  The caller may
// optionally listen on the 'done' channel for completion (which may have
// been an abort).
//
// Safety preconditions are checked here, once, before any motor command is
// sent: a known-low battery refuses the flight outright.
func (lw *LiteWing) StartFlight() (done chan bool, err error) {
	cfg := lw.Config()

	if !lw.Connected() && !cfg.DebugMode {
		return nil, errors.New("not connected to a LiteWing")
	}

	lw.estMu.RLock()
	batteryReady, battery := lw.batteryReady, lw.battery
	sensorReady := lw.sensorReady
	lw.estMu.RUnlock()
	if batteryReady && battery < cfg.LowBatteryVolts {
		return nil, fmt.Errorf("battery too low for flight: %.2fV < %.2fV", battery, cfg.LowBatteryVolts)
	}
	if !sensorReady && !cfg.DebugMode {
		return nil, errors.New("no motion samples received yet - flow sensor not ready")
	}

	lw.flightMu.Lock()
	if lw.flightActive {
		lw.flightMu.Unlock()
		return nil, errors.New("flight already in progress")
	}
	lw.flightActive = true
	lw.flightMu.Unlock()

	done = make(chan bool, 1) // buffered so send doesn't block

	go lw.flightLoop(done)

	return done, nil
}

func (lw *LiteWing) flightLoop(done chan bool) {
	cfg := lw.Config()

	// Takeoff is open-loop climb with trim only.  The vehicle is moving
	// vertically by design, so integrating "drift" here would corrupt the
	// hold target; integration stays off until the climb is over.
	lw.setIntegration(false)
	lw.setPhase(PhaseTakeoff)
	lw.phaseLoop(cfg.TakeoffTime, climbPeriodMs*time.Millisecond, func(c Config) {
		lw.sendHover(c.TrimVX, c.TrimVY, 0, c.TargetHeight)
	})

	// The hold target is redefined as wherever the vehicle is right now.
	lw.resetHold()
	lw.setIntegration(true)

	// Stabilise with corrections active but no periodic reset yet.
	lw.setPhase(PhaseStabilizing)
	lw.phaseLoop(cfg.StabilizeTime, controlPeriodMs*time.Millisecond, func(c Config) {
		lw.holdStep(c, false)
	})

	lw.setPhase(PhaseHover)
	lw.phaseLoop(cfg.HoverDuration, controlPeriodMs*time.Millisecond, func(c Config) {
		lw.holdStep(c, true)
	})

	lw.setPhase(PhaseLanding)
	lw.phaseLoop(cfg.LandingTime, climbPeriodMs*time.Millisecond, func(c Config) {
		lw.sendHover(c.TrimVX, c.TrimVY, 0, 0)
	})

	lw.sendStop()
	lw.setIntegration(false)

	lw.flightMu.Lock()
	completed := lw.flightActive // false if stopped/faulted mid-flight
	lw.flightActive = false
	if completed {
		lw.phase = PhaseComplete
	}
	lw.flightMu.Unlock()

	done <- true
}

// phaseLoop drives one flight phase: step at the given cadence until the
// phase duration elapses or the flight is cut short.  The running check is
// independent of the duration guard so an emergency stop always wins.
func (lw *LiteWing) phaseLoop(durationSecs float64, period time.Duration, step func(Config)) {
	start := time.Now()
	for time.Since(start).Seconds() < durationSecs && lw.flying() {
		step(lw.Config())
		time.Sleep(period)
	}
}

// holdStep runs one control cycle of position hold: cascaded PID correction,
// optional periodic origin reset, then the outbound hover setpoint.
//
// The flow sensor is mounted 90° from the body frame, so the controller's x
// output feeds the command's vy and vice versa.  Preserved exactly as flown;
// do not "fix" the mapping.
func (lw *LiteWing) holdStep(cfg Config, allowReset bool) {
	dt := float64(controlPeriodMs) / 1000.0

	lw.estMu.Lock()
	ready := lw.sensorReady && lw.height > 0
	corrX, corrY := lw.ctrl.Correction(lw.target, lw.pos, lw.vel, ready, dt, cfg)
	lw.corrVX, lw.corrVY = corrX, corrY
	reset := false
	if allowReset && ready {
		reset = lw.pos.CheckPeriodicReset(wallSeconds(), cfg)
	}
	lw.estMu.Unlock()

	if reset {
		lw.setPhase(PhaseHoverReset)
	} else if allowReset {
		lw.setPhase(PhaseHover)
	}

	lw.flightMu.RLock()
	manVX, manVY := lw.manualVX, lw.manualVY
	lw.flightMu.RUnlock()

	totalVX := cfg.TrimVX + manVX + corrY
	totalVY := cfg.TrimVY + manVY + corrX
	lw.sendHover(totalVX, totalVY, 0, cfg.TargetHeight)
}

// resetHold zeroes the position estimate, the controller state and the
// sample clock, making the present location the hold target.
func (lw *LiteWing) resetHold() {
	now := wallSeconds()
	lw.estMu.Lock()
	lw.pos.Reset(now)
	lw.target = PositionEstimate{}
	lw.ctrl.Reset()
	lw.corrVX, lw.corrVY = 0, 0
	lw.lastSampleTime = now
	lw.estMu.Unlock()
}

func (lw *LiteWing) setIntegration(enabled bool) {
	lw.estMu.Lock()
	lw.integrationEnabled = enabled
	lw.estMu.Unlock()
}

// setPhase records a phase transition unless the flight has already been
// stopped, in which case the terminal phase (ERROR / EMERGENCY STOP) stands.
func (lw *LiteWing) setPhase(p FlightPhase) {
	lw.flightMu.Lock()
	if lw.flightActive {
		lw.phase = p
	}
	lw.flightMu.Unlock()
}

func (lw *LiteWing) flying() bool {
	lw.flightMu.RLock()
	f := lw.flightActive
	lw.flightMu.RUnlock()
	return f
}

// SetManualVelocity sets an operator-supplied body-frame velocity which the
// hold loop adds to every outbound command, allowing joystick nudges while
// the stabiliser keeps working underneath.
func (lw *LiteWing) SetManualVelocity(vx, vy float64) {
	lw.flightMu.Lock()
	lw.manualVX = vx
	lw.manualVY = vy
	lw.flightMu.Unlock()
}

// Hover simply zeroes the manual velocity input - useful as a panic action!
func (lw *LiteWing) Hover() {
	lw.SetManualVelocity(0, 0)
}

// EmergencyStop collapses any flight phase directly to motor cutoff,
// bypassing the landing sequence.  It always takes priority over whatever
// the phase loops are doing.
func (lw *LiteWing) EmergencyStop() {
	lw.flightMu.Lock()
	lw.flightActive = false
	lw.phase = PhaseEmergencyStop
	lw.flightMu.Unlock()

	lw.sendStop()
	lw.setIntegration(false)
}

// transportFault fails the current session: the flight stops, the phase goes
// to ERROR, and a final stop command is attempted in case the link is still
// half-alive.
func (lw *LiteWing) transportFault(err error) {
	log.Printf("Transport fault: %v", err)

	lw.flightMu.Lock()
	wasActive := lw.flightActive
	lw.flightActive = false
	lw.phase = PhaseError
	lw.flightMu.Unlock()

	if wasActive {
		lw.sendStop()
	}
}

// abortFlight stops a flight without marking the session failed; used on
// orderly disconnect.
func (lw *LiteWing) abortFlight() {
	lw.flightMu.Lock()
	active := lw.flightActive
	lw.flightActive = false
	lw.flightMu.Unlock()
	if active {
		lw.sendStop()
	}
}

// sendHover issues one hover setpoint unless dry-run debugging is on.
func (lw *LiteWing) sendHover(vx, vy, yawRate, height float64) {
	if lw.Config().DebugMode {
		return
	}
	lw.sendFunc(hoverSetpointPacket(float32(vx), float32(vy), float32(yawRate), float32(height)))
}

// sendStop cuts the motors unless dry-run debugging is on.
func (lw *LiteWing) sendStop() {
	if lw.Config().DebugMode {
		return
	}
	lw.sendFunc(stopPacket())
}
