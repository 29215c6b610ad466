package render

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/sim"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubStreamsSnapshots(t *testing.T) {
	bd := board.New("View")
	if err := bd.AddBall(board.NewBall("b", geometry.NewVector(5, 5), geometry.Vector{})); err != nil {
		t.Fatal(err)
	}
	engine := sim.New(bd)
	h := NewHub(engine)
	conn := dialHub(t, h)

	// Give the hub a beat to register the viewer, then publish a frame.
	time.Sleep(20 * time.Millisecond)
	h.Broadcast(bd.Snapshot())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var snap board.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("frame is not a snapshot: %v", err)
	}
	if snap.Board != "View" || len(snap.Balls) != 1 {
		t.Errorf("streamed snapshot wrong: %+v", snap)
	}
}

func TestHubKeyEventTriggersGadget(t *testing.T) {
	bd := board.New("View")
	bd.SetGravity(0)
	bd.SetFriction1(0)
	bd.SetFriction2(0)
	if err := bd.AddAbsorber(board.NewAbsorber("abs", 0, 18, 20, 2)); err != nil {
		t.Fatal(err)
	}
	bd.AddKeyBinding(board.KeyBinding{Event: "keydown", Key: "space", Action: "abs"})
	// Park a ball in the absorber by hand-off.
	bd.Apply(wire.Message{Kind: wire.KindTeleportWall, Board: "View", Ball: "stored", X: 5, Y: 19, Wall: "bottom"})
	if len(bd.AbsorberQueue("abs")) != 1 {
		t.Fatalf("setup: ball not queued")
	}

	engine := sim.New(bd)
	h := NewHub(engine)
	conn := dialHub(t, h)

	if err := conn.WriteJSON(keyEvent{Type: "keydown", Key: "space"}); err != nil {
		t.Fatal(err)
	}

	// The trigger lands at a frame boundary.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		engine.Frame(0.0001)
		if len(bd.Balls()) == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("key trigger never emitted the stored ball")
}
