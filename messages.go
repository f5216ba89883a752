// messages.go

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
	"encoding/binary"
	"math"
)

// The LiteWing speaks CRTP (Crazy RealTime Protocol) over its UDP WiFi link.
// Every packet starts with a single header byte: port in the high nibble,
// the two link bits set, and the channel in the low two bits.

// CRTP ports
const (
	crtpPortConsole         = 0x0
	crtpPortParam           = 0x2
	crtpPortCommander       = 0x3
	crtpPortLog             = 0x5
	crtpPortSetpointGeneric = 0x7
	crtpPortPlatform        = 0xd
	crtpPortLink            = 0xf
)

// Log-port channels
const (
	logChanTOC     = 0
	logChanControl = 1
	logChanData    = 2
)

// Generic-setpoint payload types (first payload byte on the generic
// setpoint port)
const (
	setpointTypeStop  = 0
	setpointTypeHover = 5
)

// Log block IDs streamed by the drone once logging is configured
const (
	logBlockMotion  = 1
	logBlockBattery = 2
)

func crtpHeader(port, channel byte) byte {
	return (port&0x0f)<<4 | 0x3<<2 | channel&0x03
}

func crtpPort(header byte) byte {
	return header >> 4
}

func crtpChannel(header byte) byte {
	return header & 0x03
}

// hoverSetpointPacket builds the generic hover setpoint: body-frame
// velocities in m/s, yaw rate in deg/s and an absolute height in metres which
// the drone's own height controller maintains.
func hoverSetpointPacket(vx, vy, yawRate, zDistance float32) []byte {
	buff := make([]byte, 18)
	buff[0] = crtpHeader(crtpPortSetpointGeneric, 0)
	buff[1] = setpointTypeHover
	putFloat32(buff[2:], vx)
	putFloat32(buff[6:], vy)
	putFloat32(buff[10:], yawRate)
	putFloat32(buff[14:], zDistance)
	return buff
}

// rpytSetpointPacket builds the legacy commander setpoint: roll/pitch in
// degrees, yaw rate in deg/s and raw thrust.  With everything zeroed it both
// unlocks the commander after connect and cuts the motors.
func rpytSetpointPacket(roll, pitch, yawRate float32, thrust uint16) []byte {
	buff := make([]byte, 15)
	buff[0] = crtpHeader(crtpPortCommander, 0)
	putFloat32(buff[1:], roll)
	putFloat32(buff[5:], pitch)
	putFloat32(buff[9:], yawRate)
	binary.LittleEndian.PutUint16(buff[13:], thrust)
	return buff
}

// stopPacket cuts the motors immediately via the generic setpoint port.
func stopPacket() []byte {
	return []byte{crtpHeader(crtpPortSetpointGeneric, 0), setpointTypeStop}
}

// motionData is one decoded sample from the motion log block: raw optical
// flow deltas, the ranged height, and the drone-side timestamp.
type motionData struct {
	deltaX    int16
	deltaY    int16
	height    float32
	timestamp uint32 // ms since drone boot
}

const motionDataLen = 12 // block id + 3-byte timestamp + 2*int16 + float32

// payloadToMotionData decodes a log-data payload for the motion block.
// Layout after the block ID is the drone's 3-byte little-endian millisecond
// timestamp followed by the logged variables in configuration order.
func payloadToMotionData(pl []byte) (md motionData, ok bool) {
	if len(pl) < motionDataLen || pl[0] != logBlockMotion {
		return md, false
	}
	md.timestamp = uint32(pl[1]) | uint32(pl[2])<<8 | uint32(pl[3])<<16
	md.deltaX = int16(uint16(pl[4]) | uint16(pl[5])<<8)
	md.deltaY = int16(uint16(pl[6]) | uint16(pl[7])<<8)
	md.height = bytesToFloat32(pl[8:12])
	return md, true
}

const batteryDataLen = 8 // block id + 3-byte timestamp + float32

// payloadToBattery decodes a log-data payload for the battery block and
// returns the pack voltage.
func payloadToBattery(pl []byte) (volts float32, ok bool) {
	if len(pl) < batteryDataLen || pl[0] != logBlockBattery {
		return 0, false
	}
	return bytesToFloat32(pl[4:8]), true
}

func putFloat32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}

func bytesToFloat32(b []byte) (fl float32) {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
