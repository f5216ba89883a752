// csvlog.go - record each telemetry sample to a CSV file for post-flight
// analysis and tuning.

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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// CSVLogger writes one row per telemetry sample to a timestamped CSV file.
// It is safe for use from the sensor Goroutine.
type CSVLogger struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	closed bool
}

var csvHeader = []string{
	"Timestamp (s)",
	"Position X (m)",
	"Position Y (m)",
	"Height (m)",
	"Velocity X (m/s)",
	"Velocity Y (m/s)",
	"Correction VX",
	"Correction VY",
}

// NewCSVLogger creates a flight log named for the current wall-clock time,
// e.g. position_hold_log_20250614_153012.csv, in the given directory
// ("" means the working directory), and writes the header row.
func NewCSVLogger(dir string) (*CSVLogger, error) {
	name := fmt.Sprintf("position_hold_log_%s.csv", time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("could not create flight log: %v", err)
	}
	w := csv.NewWriter(f)
	if err = w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not write flight log header: %v", err)
	}
	w.Flush()
	return &CSVLogger{file: f, writer: w}, nil
}

// Log appends one telemetry sample.  Logging to a closed logger is a no-op
// so the sensor loop never has to care about shutdown ordering.
func (cl *CSVLogger) Log(t Telemetry) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return
	}
	cl.writer.Write([]string{
		strconv.FormatFloat(t.Elapsed, 'f', 3, 64),
		strconv.FormatFloat(t.PositionX, 'f', 4, 64),
		strconv.FormatFloat(t.PositionY, 'f', 4, 64),
		strconv.FormatFloat(t.Height, 'f', 3, 64),
		strconv.FormatFloat(t.VX, 'f', 4, 64),
		strconv.FormatFloat(t.VY, 'f', 4, 64),
		strconv.FormatFloat(t.CorrectionVX, 'f', 4, 64),
		strconv.FormatFloat(t.CorrectionVY, 'f', 4, 64),
	})
}

// Name returns the path of the underlying log file.
func (cl *CSVLogger) Name() string {
	return cl.file.Name()
}

// Close flushes and closes the log file.
func (cl *CSVLogger) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return nil
	}
	cl.closed = true
	cl.writer.Flush()
	if err := cl.writer.Error(); err != nil {
		cl.file.Close()
		return err
	}
	return cl.file.Close()
}
