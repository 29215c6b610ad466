// Package render is the client binary's rendering and input adapter: a
// websocket hub that streams board snapshots at the frame cadence and maps
// incoming key events through the board's key bindings. The engine never
// blocks on a slow viewer; full buffers drop frames.
package render

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // local viewer tooling
	},
}

// viewer is one connected renderer.
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// keyEvent is the inbound message a viewer sends for keyboard input.
type keyEvent struct {
	Type string `json:"type"` // "keydown" or "keyup"
	Key  string `json:"key"`
}

// Hub fans board snapshots out to viewers and funnels their key events into
// the simulation.
type Hub struct {
	engine *sim.Engine

	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

// NewHub creates a hub bound to an engine.
func NewHub(engine *sim.Engine) *Hub {
	return &Hub{
		engine:  engine,
		viewers: make(map[*viewer]struct{}),
	}
}

// Broadcast queues a snapshot frame for every viewer. Slow viewers miss
// frames rather than stalling the caller.
func (h *Hub) Broadcast(snap board.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[RENDER] marshal snapshot: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
		}
	}
}

// Router builds the adapter's HTTP surface: the snapshot stream plus a
// one-shot state endpoint.
func (h *Hub) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/ws", h.handleWS)
	router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, h.engine.Board().Snapshot())
	})
	return router
}

// Serve runs the adapter on addr; it blocks like http.ListenAndServe.
func (h *Hub) Serve(addr string) error {
	return h.Router().Run(addr)
}

func (h *Hub) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[RENDER] upgrade: %v", err)
		return
	}
	v := &viewer{conn: conn, send: make(chan []byte, 8)}
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()

	go h.writePump(v)
	h.readPump(v)
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
	h.mu.Unlock()
}

// writePump pushes queued frames to one viewer.
func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()
	for {
		select {
		case data, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump receives key events and posts the mapped triggers to the engine;
// they take effect at the next frame boundary.
func (h *Hub) readPump(v *viewer) {
	defer h.remove(v)
	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev keyEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("[RENDER] bad key event: %v", err)
			continue
		}
		if ev.Type != "keydown" && ev.Type != "keyup" {
			continue
		}
		h.engine.Post(func(b *board.Board) { b.TriggerKey(ev.Type, ev.Key) })
	}
}
