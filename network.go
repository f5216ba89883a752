// network.go

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
	"log"
	"net"
	"strconv"
)

const (
	defaultDroneAddr = "192.168.43.42"
	defaultDronePort = 2390
	defaultLocalPort = 2399
)

// Connect attempts to open the CRTP-over-UDP link to a LiteWing at the
// provided network addr.  It then starts the packet listener Goroutine which
// feeds motion samples into the estimator.
func (lw *LiteWing) Connect(udpAddr string, dronePort, localPort int) (err error) {
	lw.ctrlMu.RLock()
	if lw.ctrlConnected {
		lw.ctrlMu.RUnlock()
		return errors.New("LiteWing already connected")
	}
	lw.ctrlMu.RUnlock()

	droneAddr, err := net.ResolveUDPAddr("udp", udpAddr+":"+strconv.Itoa(dronePort))
	if err != nil {
		return err
	}
	localAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(localPort))
	if err != nil {
		return err
	}

	lw.ctrlMu.Lock()
	lw.ctrlConn, err = net.DialUDP("udp", localAddr, droneAddr)
	if err != nil {
		lw.ctrlMu.Unlock()
		return err
	}
	lw.ctrlStopChan = make(chan bool, 2)
	lw.ctrlConnected = true
	lw.ctrlMu.Unlock()

	go lw.packetListener()

	// an all-zero RPYT setpoint unlocks the drone's commander
	lw.sendFunc(rpytSetpointPacket(0, 0, 0, 0))

	return nil
}

// ConnectDefault attempts to connect to a LiteWing on its default WiFi
// addresses.
func (lw *LiteWing) ConnectDefault() (err error) {
	return lw.Connect(defaultDroneAddr, defaultDronePort, defaultLocalPort)
}

// Disconnect stops the packet listener and closes the link.  Any flight in
// progress is aborted first so the drone is never left with live motors and
// no commander.
func (lw *LiteWing) Disconnect() {
	lw.abortFlight()

	lw.ctrlMu.Lock()
	if !lw.ctrlConnected {
		lw.ctrlMu.Unlock()
		return
	}
	lw.ctrlConnected = false
	lw.ctrlStopChan <- true
	lw.ctrlConn.Close()
	lw.ctrlMu.Unlock()
}

// Connected returns true if the UDP link is currently up.
func (lw *LiteWing) Connected() (c bool) {
	lw.ctrlMu.RLock()
	c = lw.ctrlConnected
	lw.ctrlMu.RUnlock()
	return c
}

// packetListener receives CRTP packets and dispatches them.  Motion log data
// drives the estimator synchronously, in arrival order, on this single
// goroutine; everything else updates session state or is dropped.
func (lw *LiteWing) packetListener() {
	buff := make([]byte, 256)

	for {
		n, err := lw.ctrlConn.Read(buff)

		select {
		case <-lw.ctrlStopChan:
			log.Println("Packet listener stopped")
			return
		default:
		}
		if err != nil {
			log.Printf("Network read error - %v\n", err)
			lw.transportFault(err)
			return
		}
		if n < 1 {
			continue
		}

		switch crtpPort(buff[0]) {
		case crtpPortLog:
			if crtpChannel(buff[0]) != logChanData || n < 2 {
				continue
			}
			pl := buff[1:n]
			switch pl[0] {
			case logBlockMotion:
				if md, ok := payloadToMotionData(pl); ok {
					lw.HandleSample(int(md.deltaX), int(md.deltaY),
						float64(md.height), wallSeconds())
				}
			case logBlockBattery:
				if volts, ok := payloadToBattery(pl); ok {
					lw.setBattery(float64(volts))
				}
			default:
				log.Printf("Unknown log block from LiteWing <%d>\n", pl[0])
			}
		case crtpPortConsole:
			if n > 1 {
				log.Printf("LiteWing console: %s", string(buff[1:n]))
			}
		case crtpPortLink:
			// null/echo packets, nothing to do
		default:
			log.Printf("Unexpected CRTP port from LiteWing <%d>\n", crtpPort(buff[0]))
		}
	}
}

// writePacket is the default actuation sink: one CRTP packet onto the UDP
// link.  A write error is a transport fault and fails the session.
func (lw *LiteWing) writePacket(pkt []byte) {
	lw.ctrlMu.RLock()
	conn, connected := lw.ctrlConn, lw.ctrlConnected
	lw.ctrlMu.RUnlock()
	if !connected {
		return
	}
	if _, err := conn.Write(pkt); err != nil {
		log.Printf("Network write error - %v\n", err)
		lw.transportFault(err)
	}
}
