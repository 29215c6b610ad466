package client

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/sim"
)

// fakeRelay is the relay side of a pipe for driving a session by hand.
type fakeRelay struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newSessionPair(t *testing.T, bd *board.Board) (*Session, *fakeRelay, *sim.Engine) {
	t.Helper()
	clientEnd, relayEnd := net.Pipe()
	engine := sim.New(bd)
	s := Attach(clientEnd, engine)
	t.Cleanup(func() {
		s.Close()
		relayEnd.Close()
	})
	return s, &fakeRelay{conn: relayEnd, scanner: bufio.NewScanner(relayEnd)}, engine
}

func (r *fakeRelay) sendLine(t *testing.T, line string) {
	t.Helper()
	r.conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := r.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("relay write: %v", err)
	}
}

func (r *fakeRelay) readLine(t *testing.T) string {
	t.Helper()
	r.conn.SetReadDeadline(time.Now().Add(time.Second))
	if !r.scanner.Scan() {
		t.Fatalf("relay read: %v", r.scanner.Err())
	}
	return r.scanner.Text()
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session state = %v, want %v", s.State(), want)
}

func TestSessionHandshake(t *testing.T) {
	bd := board.New("Halley")
	s, relay, _ := newSessionPair(t, bd)

	if s.State() != Registering {
		t.Fatalf("fresh session state = %v, want registering", s.State())
	}

	relay.sendLine(t, "getClientBoardName")
	if got := relay.readLine(t); got != "Halley" {
		t.Fatalf("handshake response = %q, want board name", got)
	}

	relay.sendLine(t, "success allConnectedBoards= Halley")
	waitForState(t, s, Online)
}

func TestSessionPostsMessagesToEngine(t *testing.T) {
	bd := board.New("Halley")
	s, relay, engine := newSessionPair(t, bd)
	_ = s

	relay.sendLine(t, "success allConnectedBoards= Halley Encke")
	relay.sendLine(t, "success joinHorizontal= Halley Encke")

	// Events apply at the next frame boundary.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		engine.Frame(0.001)
		if bd.JoinState()[board.WallRight] == "Encke" {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("join never reached the board: %v", bd.JoinState())
}

func TestSessionAnnouncesRemotePortals(t *testing.T) {
	bd := board.New("Halley")
	if err := bd.AddPortal(board.NewPortal("wormhole", 5, 5, "Encke", "exit")); err != nil {
		t.Fatal(err)
	}
	_, relay, _ := newSessionPair(t, bd)

	relay.sendLine(t, "success allConnectedBoards= Halley Encke")
	if got := relay.readLine(t); got != "connectPortal= Encke wormhole" {
		t.Fatalf("announcement = %q", got)
	}
}

func TestSessionMalformedLineKeepsRunning(t *testing.T) {
	bd := board.New("Halley")
	s, relay, _ := newSessionPair(t, bd)

	relay.sendLine(t, "gibberish that is not protocol")
	relay.sendLine(t, "getClientBoardName")
	if got := relay.readLine(t); got != "Halley" {
		t.Fatalf("session should survive a malformed line, got %q", got)
	}
	if s.State() != Registering {
		t.Errorf("state after malformed line = %v", s.State())
	}
}

func TestSessionSocketCloseReturnsToStandalone(t *testing.T) {
	bd := board.New("Halley")
	s, relay, engine := newSessionPair(t, bd)

	relay.sendLine(t, "success allConnectedBoards= Halley Encke")
	relay.sendLine(t, "success joinHorizontal= Halley Encke")
	waitForState(t, s, Online)
	engine.Frame(0.001)

	relay.conn.Close()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("reader did not exit on socket close")
	}
	waitForState(t, s, Offline)

	engine.Frame(0.001)
	if bd.JoinState()[board.WallRight] != "" {
		t.Errorf("joins should clear when the relay drops: %v", bd.JoinState())
	}
}
