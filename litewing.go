// litewing.go

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
	"net"
	"sync"
	"time"
)

// LiteWing holds the current state of a session with a LiteWing drone.
type LiteWing struct {
	ctrlMu        sync.RWMutex // protects the connection fields
	ctrlConn      *net.UDPConn
	ctrlStopChan  chan bool
	ctrlConnected bool

	cfgMu sync.RWMutex
	cfg   Config

	// Estimator and controller state.  Mutated only on the worker thread;
	// the mutex exists so UI/telemetry consumers can take consistent
	// snapshots without ever blocking the control loop for long.
	estMu              sync.RWMutex
	histX, histY       FlowHistory
	vel                VelocityEstimate
	pos                PositionEstimate
	target             PositionEstimate
	ctrl               Controller
	sensorReady        bool
	height             float64
	lastSampleTime     float64
	integrationEnabled bool
	corrVX, corrVY     float64
	battery            float64
	batteryReady       bool
	startWall          float64

	flightMu           sync.RWMutex
	phase              FlightPhase
	flightActive       bool
	manualVX, manualVY float64

	telemetryStreaming bool

	csv             *CSVLogger
	monitor         *Monitor
	lastMonitorPush time.Time

	// sendFunc is the actuation sink.  It defaults to the UDP writer and
	// is only ever called from the flight worker goroutine.
	sendFunc func(pkt []byte)
}

// New returns a LiteWing session with the default tuning applied.
func New() *LiteWing {
	lw := &LiteWing{cfg: DefaultConfig(), phase: PhaseIdle}
	lw.sendFunc = lw.writePacket
	return lw
}

// Config returns a snapshot of the current tuning.
func (lw *LiteWing) Config() Config {
	lw.cfgMu.RLock()
	c := lw.cfg
	lw.cfgMu.RUnlock()
	return c
}

// SetConfig replaces the tuning wholesale and resets the controller state so
// the new gains start from a clean accumulator.
func (lw *LiteWing) SetConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	lw.cfgMu.Lock()
	lw.cfg = c
	lw.cfgMu.Unlock()

	lw.estMu.Lock()
	lw.ctrl.Reset()
	lw.estMu.Unlock()
	return nil
}

// ApplyTuning parses one operator-entered tuning field (eg. "position.kp",
// "1.5") and applies it.  Invalid input is rejected here at the boundary and
// the prior configuration stays in effect.
func (lw *LiteWing) ApplyTuning(name, value string) error {
	lw.cfgMu.Lock()
	updated, err := lw.cfg.WithField(name, value)
	if err != nil {
		lw.cfgMu.Unlock()
		return err
	}
	lw.cfg = updated
	lw.cfgMu.Unlock()

	lw.estMu.Lock()
	lw.ctrl.Reset()
	lw.estMu.Unlock()
	return nil
}

// Telemetry is the per-sample record exported for logging and live plotting.
type Telemetry struct {
	Elapsed      float64     `json:"elapsed"`
	PositionX    float64     `json:"positionX"`
	PositionY    float64     `json:"positionY"`
	Height       float64     `json:"height"`
	VX           float64     `json:"vx"`
	VY           float64     `json:"vy"`
	CorrectionVX float64     `json:"correctionVX"`
	CorrectionVY float64     `json:"correctionVY"`
	Phase        FlightPhase `json:"phase"`
	BatteryVolts float64     `json:"batteryVolts"`
}

// HandleSample feeds one raw optical-flow sample through the velocity
// estimator and, when integration is enabled, the dead-reckoning position
// integrator.  now is wall-clock seconds; dt is measured between successive
// samples rather than assumed from the nominal period, so scheduling jitter
// and dropped packets cannot corrupt the integral.
//
// The network listener calls this on packet arrival, strictly in order, from
// a single goroutine.  Hosts bypassing the built-in transport may call it
// directly from their own sample source.
func (lw *LiteWing) HandleSample(deltaX, deltaY int, height, now float64) {
	cfg := lw.Config()

	lw.estMu.Lock()
	lw.height = height
	lw.sensorReady = true
	lw.vel.VX = EstimateVelocity(deltaX, height, &lw.histX, cfg)
	lw.vel.VY = EstimateVelocity(deltaY, height, &lw.histY, cfg)
	if lw.lastSampleTime > 0 && lw.integrationEnabled {
		lw.pos.Integrate(lw.vel.VX, lw.vel.VY, now-lw.lastSampleTime, cfg)
	}
	lw.lastSampleTime = now
	if lw.startWall == 0 {
		lw.startWall = now
	}
	lw.estMu.Unlock()

	lw.exportTelemetry(now)
}

// GetTelemetry returns the current known state of the session.
func (lw *LiteWing) GetTelemetry() Telemetry {
	lw.estMu.RLock()
	t := Telemetry{
		PositionX:    lw.pos.X,
		PositionY:    lw.pos.Y,
		Height:       lw.height,
		VX:           lw.vel.VX,
		VY:           lw.vel.VY,
		CorrectionVX: lw.corrVX,
		CorrectionVY: lw.corrVY,
		BatteryVolts: lw.battery,
	}
	if lw.startWall > 0 {
		t.Elapsed = lw.lastSampleTime - lw.startWall
	}
	lw.estMu.RUnlock()
	t.Phase = lw.Phase()
	return t
}

// StreamTelemetry starts a Goroutine which sends a Telemetry snapshot to a
// channel every period.  The streamer never blocks on the channel, so
// unconsumed updates are lost.
func (lw *LiteWing) StreamTelemetry(period time.Duration) (<-chan Telemetry, error) {
	lw.estMu.Lock()
	if lw.telemetryStreaming {
		lw.estMu.Unlock()
		return nil, errors.New("already streaming telemetry from this session")
	}
	lw.telemetryStreaming = true
	lw.estMu.Unlock()

	tChan := make(chan Telemetry, 2)
	go func() {
		for {
			select {
			case tChan <- lw.GetTelemetry():
			default:
			}
			time.Sleep(period)
		}
	}()
	return tChan, nil
}

// AttachCSVLogger directs per-sample telemetry to l until the logger is
// detached or closed.
func (lw *LiteWing) AttachCSVLogger(l *CSVLogger) {
	lw.estMu.Lock()
	lw.csv = l
	lw.estMu.Unlock()
}

// AttachMonitor directs throttled telemetry to the web monitor m.
func (lw *LiteWing) AttachMonitor(m *Monitor) {
	lw.estMu.Lock()
	lw.monitor = m
	lw.estMu.Unlock()
}

// BatteryVolts returns the last reported pack voltage, or 0 before the first
// battery sample arrives.
func (lw *LiteWing) BatteryVolts() float64 {
	lw.estMu.RLock()
	v := lw.battery
	lw.estMu.RUnlock()
	return v
}

const monitorPushPeriod = 100 * time.Millisecond

// exportTelemetry fans the current snapshot out to the CSV logger and, at a
// reduced cadence, the web monitor.
func (lw *LiteWing) exportTelemetry(now float64) {
	lw.estMu.RLock()
	csv, monitor := lw.csv, lw.monitor
	lw.estMu.RUnlock()
	if csv == nil && monitor == nil {
		return
	}

	t := lw.GetTelemetry()
	if csv != nil {
		csv.Log(t)
	}
	if monitor != nil && time.Since(lw.lastMonitorPush) >= monitorPushPeriod {
		lw.lastMonitorPush = time.Now()
		monitor.Push(t)
	}
}

func (lw *LiteWing) setBattery(volts float64) {
	lw.estMu.Lock()
	lw.battery = volts
	lw.batteryReady = true
	lw.estMu.Unlock()
}

// wallSeconds is the session clock used for sample timestamps.
func wallSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
