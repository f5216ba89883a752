// monitor.go - live telemetry monitor: a small HTTP server that pushes
// telemetry JSON to any attached browser over a websocket.

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
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 10
)

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

// Monitor fans telemetry out to every connected websocket client.
type Monitor struct {
	// forward holds telemetry messages waiting to be fanned out.
	forward chan []byte
	// join is for clients wishing to attach.
	join chan *monitorClient
	// leave is for clients detaching.
	leave chan *monitorClient
	// clients holds all currently attached clients.
	clients map[*monitorClient]bool
}

// NewMonitor makes a monitor that is ready to go.  The caller runs
// Run() on its own Goroutine and hangs the monitor off an http.ServeMux.
func NewMonitor() *Monitor {
	return &Monitor{
		forward: make(chan []byte, messageBufferSize),
		join:    make(chan *monitorClient),
		leave:   make(chan *monitorClient),
		clients: make(map[*monitorClient]bool),
	}
}

// Run services joins, leaves and fan-out forever.
func (m *Monitor) Run() {
	for {
		select {
		case client := <-m.join:
			m.clients[client] = true
			log.Println("Monitor: client attached")
		case client := <-m.leave:
			delete(m.clients, client)
			close(client.send)
			log.Println("Monitor: client detached")
		case msg := <-m.forward:
			for client := range m.clients {
				select {
				case client.send <- msg:
				default:
					// slow client - drop this sample for it
				}
			}
		}
	}
}

// Push queues one telemetry sample for fan-out.  It never blocks: if the
// monitor is saturated the sample is simply dropped, since the next one is
// at most a control period away.
func (m *Monitor) Push(t Telemetry) {
	buf, err := json.Marshal(t)
	if err != nil {
		log.Printf("Monitor: could not marshal telemetry: %v", err)
		return
	}
	select {
	case m.forward <- buf:
	default:
	}
}

// ServeHTTP upgrades the request to a websocket and services the client
// until it disconnects.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("Monitor: websocket upgrade failed: %v", err)
		return
	}
	client := &monitorClient{
		socket:  socket,
		send:    make(chan []byte, messageBufferSize),
		monitor: m,
	}
	m.join <- client
	defer func() { m.leave <- client }()
	go client.write()
	client.read()
}

// monitorClient is one attached websocket viewer.
type monitorClient struct {
	socket  *websocket.Conn
	send    chan []byte
	monitor *Monitor
}

// read discards anything the viewer sends - the feed is one-way - but keeps
// reading so pings are processed and closure is noticed.
func (c *monitorClient) read() {
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			break
		}
	}
	c.socket.Close()
}

func (c *monitorClient) write() {
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.socket.Close()
}
