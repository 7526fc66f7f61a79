// Package ws exposes the controller over websockets: a commands feed that
// mirrors every light change notification, and a control socket for mode and
// vehicle-state injection. It is a render listener like any other; a stalled
// socket never blocks the control core.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/openboard/lightcore/internal/lights"
	"github.com/openboard/lightcore/internal/vehicle"
)

// Controller is the slice of the control core the sockets drive.
type Controller interface {
	RequestLightMode(lights.Mode)
	QueueVehicleState(vehicle.State) bool
}

const (
	commandsQueueDepth = 8
	clientSendDepth    = 16
	writeTimeout       = 200 * time.Millisecond
)

// client is one commands-feed connection. All writes to conn go through the
// send queue and its write pump; nothing else may touch conn for writing.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Service bridges the control core to websocket clients. Register it both as
// a render listener and as a process hook: notifications land in the bounded
// queue and are broadcast on the next processing cycle.
type Service struct {
	log   zerolog.Logger
	ctrl  Controller
	queue chan lights.Commands

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    lights.Commands
	seq     uint64
	start   time.Time
}

func NewService(log zerolog.Logger, ctrl Controller) *Service {
	return &Service{
		log:     log,
		ctrl:    ctrl,
		queue:   make(chan lights.Commands, commandsQueueDepth),
		clients: map[*client]struct{}{},
		start:   time.Now(),
	}
}

// CommandsQueue is the listener channel the control core notifies into.
func (s *Service) CommandsQueue() chan lights.Commands { return s.queue }

// Process drains pending notifications and broadcasts them. Called once per
// control cycle on the processing task.
func (s *Service) Process() {
	for {
		select {
		case b := <-s.queue:
			s.merge(b)
			s.broadcast(b)
		default:
			return
		}
	}
}

func (s *Service) merge(b lights.Commands) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last.Mode = b.Mode
	if b.Brake != lights.NoCommand {
		s.last.Brake = b.Brake
	}
	if b.Turn != lights.NoCommand {
		s.last.Turn = b.Turn
	}
	if b.Headlight != lights.NoCommand {
		s.last.Headlight = b.Headlight
	}
	s.seq++
}

type commandMsg struct {
	T         int64  `json:"t"`
	Seq       uint64 `json:"seq"`
	Mode      string `json:"mode"`
	Brake     string `json:"brake,omitempty"`
	Turn      string `json:"turn,omitempty"`
	Headlight string `json:"headlight,omitempty"`
}

func encodeBundle(seq uint64, b lights.Commands) []byte {
	m := commandMsg{T: time.Now().UnixNano(), Seq: seq, Mode: b.Mode.String()}
	if b.Brake != lights.NoCommand {
		m.Brake = b.Brake.String()
	}
	if b.Turn != lights.NoCommand {
		m.Turn = b.Turn.String()
	}
	if b.Headlight != lights.NoCommand {
		m.Headlight = b.Headlight.String()
	}
	out, _ := json.Marshal(m)
	return out
}

// broadcast enqueues a bundle onto every client's send queue. A full queue
// drops the frame for that client only; the connection itself is never
// written here.
func (s *Service) broadcast(b lights.Commands) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg := encodeBundle(s.seq, b)
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.log.Debug().Msg("client queue full, frame dropped")
		}
	}
}

// HandleCommandsWS streams light command bundles to the client. The current
// merged state is queued first so a late joiner starts from real state.
func (s *Service) HandleCommandsWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendDepth)}

	// Queue the snapshot and register under the same critical section so no
	// broadcast can slip in ahead of it.
	s.mu.Lock()
	c.send <- encodeBundle(s.seq, s.last)
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readLoop(c)
}

// writePump is the sole writer for one connection. It exits when the send
// queue is closed (removal) or a write fails.
func (s *Service) writePump(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.log.Debug().Err(err).Msg("write commands")
			s.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = c.conn.Close()
}

// readLoop discards inbound frames to detect disconnects.
func (s *Service) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.remove(c)
			return
		}
	}
}

// remove deregisters a client exactly once. Closing send after the client
// left the map is safe: broadcast only sends to clients it finds in the map,
// under the same lock.
func (s *Service) remove(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	if ok {
		delete(s.clients, c)
	}
	s.mu.Unlock()
	if ok {
		close(c.send)
		_ = c.conn.Close()
	}
}

type controlMsg struct {
	Mode  *string `json:"mode"`
	State *struct {
		Acceleration string `json:"acceleration"`
		Turn         string `json:"turn"`
		Orientation  string `json:"orientation"`
	} `json:"state"`
}

// HandleControlWS accepts mode requests and vehicle state samples. Samples
// that the core's queue rejects are acknowledged as dropped.
func (s *Service) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg controlMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Mode != nil {
			s.ctrl.RequestLightMode(lights.ParseMode(*msg.Mode))
		}
		if msg.State != nil {
			ok := s.ctrl.QueueVehicleState(vehicle.State{
				Acceleration: vehicle.ParseAcceleration(msg.State.Acceleration),
				Turn:         vehicle.ParseTurn(msg.State.Turn),
				Orientation:  vehicle.ParseOrientation(msg.State.Orientation),
			})
			if !ok {
				s.log.Debug().Msg("vehicle state dropped, queue full")
			}
		}
	}
}

// HandleHealth reports the merged command state and client count.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"mode":      s.last.Mode.String(),
		"brake":     s.last.Brake.String(),
		"turn":      s.last.Turn.String(),
		"headlight": s.last.Headlight.String(),
		"seq":       s.seq,
		"clients":   len(s.clients),
		"uptime_s":  time.Since(s.start).Seconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
