package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/plume-sim/backend/internal/observability"
	"github.com/plume-sim/backend/internal/session"
	"github.com/plume-sim/backend/internal/sim"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster is the distribution sink: it fans each published frame out
// to every connected observer and replays the latest frame to observers
// that connect between ticks.
type Broadcaster struct {
	mu        sync.RWMutex
	clients   map[*client]bool
	lastFrame []byte // marshaled snapshot message from the most recent tick
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
	}
}

// Publish implements session.Sink. Marshaling happens once per frame,
// outside any per-client work.
func (b *Broadcaster) Publish(markers []sim.Marker, cloud session.PointCloud) {
	if markers == nil {
		markers = []sim.Marker{}
	}
	points := cloud.Points
	if points == nil {
		points = []sim.Vector3{}
	}

	msg := WSMessage{
		Type: MsgSnapshot,
		Payload: SnapshotPayload{
			Markers: markers,
			Cloud: CloudPayload{
				FrameID: cloud.FrameID,
				Stamp:   cloud.Stamp,
				Points:  points,
			},
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.Lock()
	b.lastFrame = data
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			log.Printf("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	last := b.lastFrame
	n := len(b.clients)
	b.mu.Unlock()

	observability.SetObserverClients(n)

	if last != nil {
		select {
		case c.send <- last:
		default:
			// Client too slow, drop the replay
		}
	}

	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	n := len(b.clients)
	b.mu.Unlock()

	observability.SetObserverClients(n)
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
