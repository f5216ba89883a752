// litewing project litewing_test.go

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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationarySamplesStayAtOrigin(t *testing.T) {
	lw := New()
	lw.setIntegration(true)

	// A drone sitting still reports zero flow forever: position and
	// velocity must stay exactly zero, with no numerical creep.
	for i := 0; i < 100; i++ {
		lw.HandleSample(0, 0, 0.3, 1.0+float64(i)*0.01)
	}

	tel := lw.GetTelemetry()
	assert.Equal(t, 0.0, tel.PositionX)
	assert.Equal(t, 0.0, tel.PositionY)
	assert.Equal(t, 0.0, tel.VX)
	assert.Equal(t, 0.0, tel.VY)
	assert.Equal(t, 0.0, tel.CorrectionVX)
	assert.Equal(t, 0.0, tel.CorrectionVY)
	assert.Equal(t, 0.3, tel.Height)
}

func TestHandleSampleIntegrates(t *testing.T) {
	lw := New()
	cfg := lw.Config()
	cfg.SmoothingAlpha = 1.0
	require.NoError(t, lw.SetConfig(cfg))
	lw.setIntegration(true)

	// Constant 10 counts/sample is 0.37 m/s; the first sample only arms
	// the clock, so two further samples integrate 2 * 0.37 * 0.01.
	lw.HandleSample(10, 10, 0.3, 5.00)
	lw.HandleSample(10, 10, 0.3, 5.01)
	lw.HandleSample(10, 10, 0.3, 5.02)

	tel := lw.GetTelemetry()
	assert.InDelta(t, 0.37, tel.VX, 1e-12)
	assert.InDelta(t, 0.0074, tel.PositionX, 1e-12)
	assert.InDelta(t, 0.0074, tel.PositionY, 1e-12)
	assert.InDelta(t, 0.02, tel.Elapsed, 1e-9)
}

func TestConstantDriftIntegration(t *testing.T) {
	lw := New()
	cfg := lw.Config()
	cfg.UseHeightScaling = true
	cfg.FlowFOVDeg = 5.4
	cfg.SmoothingAlpha = 1.0
	require.NoError(t, lw.SetConfig(cfg))
	lw.setIntegration(true)

	// Two seconds of constant +X flow at 10 ms spacing: velocity is the
	// same exact value every sample and position ratchets up monotonically.
	want := 5 * 0.3 * (5.4 * math.Pi / 180.0) / (30 * 0.01)
	prevX := 0.0
	for i := 0; i < 200; i++ {
		lw.HandleSample(5, 0, 0.3, 10.0+float64(i)*0.01)
		tel := lw.GetTelemetry()
		assert.InDelta(t, want, tel.VX, 1e-12)
		if i > 0 {
			assert.Greater(t, tel.PositionX, prevX)
		}
		prevX = tel.PositionX
		assert.Zero(t, tel.PositionY)
	}
	assert.LessOrEqual(t, prevX, cfg.MaxPositionError)
}

func TestHandleSampleIntegrationDisabled(t *testing.T) {
	lw := New()

	lw.HandleSample(10, 10, 0.3, 5.00)
	lw.HandleSample(10, 10, 0.3, 5.01)

	tel := lw.GetTelemetry()
	assert.Zero(t, tel.PositionX)
	assert.NotZero(t, tel.VX) // estimation runs even when integration doesn't
}

func TestApplyTuning(t *testing.T) {
	lw := New()

	require.NoError(t, lw.ApplyTuning("velocity.kp", "0.9"))
	assert.Equal(t, 0.9, lw.Config().VelocityKp)

	err := lw.ApplyTuning("velocity.kp", "quick")
	assert.Error(t, err)
	assert.Equal(t, 0.9, lw.Config().VelocityKp)
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	lw := New()
	bad := lw.Config()
	bad.TargetHeight = -1

	assert.Error(t, lw.SetConfig(bad))
	assert.Equal(t, DefaultConfig(), lw.Config())
}

func TestStreamTelemetry(t *testing.T) {
	lw := New()
	lw.HandleSample(0, 0, 0.3, 1.0)

	tChan, err := lw.StreamTelemetry(time.Millisecond)
	require.NoError(t, err)

	select {
	case tel := <-tChan:
		assert.Equal(t, 0.3, tel.Height)
	case <-time.After(time.Second):
		t.Fatal("No telemetry received")
	}

	_, err = lw.StreamTelemetry(time.Millisecond)
	assert.Error(t, err)
}
