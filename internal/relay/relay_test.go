package relay

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testBoard is a minimal scripted client for exercising the relay.
type testBoard struct {
	name    string
	conn    net.Conn
	scanner *bufio.Scanner
}

func connectBoard(t *testing.T, s *Server, name string) *testBoard {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", s.Port()))
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	tb := &testBoard{name: name, conn: conn, scanner: bufio.NewScanner(conn)}
	t.Cleanup(func() { conn.Close() })

	// Name handshake.
	if got := tb.readLine(t); got != "getClientBoardName" {
		t.Fatalf("expected handshake, got %q", got)
	}
	tb.sendLine(t, name)
	return tb
}

func (tb *testBoard) sendLine(t *testing.T, line string) {
	t.Helper()
	tb.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := tb.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("%s: write: %v", tb.name, err)
	}
}

func (tb *testBoard) readLine(t *testing.T) string {
	t.Helper()
	tb.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if !tb.scanner.Scan() {
		t.Fatalf("%s: read: %v", tb.name, tb.scanner.Err())
	}
	return tb.scanner.Text()
}

// readUntil skips lines until one matches the predicate.
func (tb *testBoard) readUntil(t *testing.T, what string, match func(string) bool) string {
	t.Helper()
	for i := 0; i < 20; i++ {
		line := tb.readLine(t)
		if match(line) {
			return line
		}
	}
	t.Fatalf("%s: never saw %s", tb.name, what)
	return ""
}

func startRelay(t *testing.T) *Server {
	t.Helper()
	s, err := New(0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go s.Serve()
	t.Cleanup(s.Close)
	return s
}

func isRoster(line string) bool {
	return strings.HasPrefix(line, "success allConnectedBoards=")
}

// rosterHas reports whether a roster line lists the board. It checks the
// name tokens only, since the command word itself contains capital letters.
func rosterHas(line, board string) bool {
	for _, name := range strings.Fields(strings.TrimPrefix(line, "success allConnectedBoards=")) {
		if name == board {
			return true
		}
	}
	return false
}

func TestRegistrationAndRosterBroadcast(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")

	roster := a.readUntil(t, "roster", isRoster)
	if !rosterHas(roster, "A") {
		t.Errorf("roster missing A: %q", roster)
	}

	b := connectBoard(t, s, "B")
	roster = b.readUntil(t, "roster", isRoster)
	if !rosterHas(roster, "A") || !rosterHas(roster, "B") {
		t.Errorf("roster should list both boards: %q", roster)
	}
}

func TestDuplicateNameRefused(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	a.readUntil(t, "roster", isRoster)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", s.Port()))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	dup := &testBoard{name: "dup", conn: conn, scanner: bufio.NewScanner(conn)}
	if got := dup.readLine(t); got != "getClientBoardName" {
		t.Fatalf("expected handshake, got %q", got)
	}
	dup.sendLine(t, "A")
	if got := dup.readLine(t); got != "failure" {
		t.Errorf("duplicate registration should get failure, got %q", got)
	}

	boards := s.Boards()
	if len(boards) != 1 || boards[0] != "A" {
		t.Errorf("registry must stay injective: %v", boards)
	}
}

func TestForwardingBySecondToken(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	b := connectBoard(t, s, "B")
	a.readUntil(t, "two-board roster", func(l string) bool { return isRoster(l) && rosterHas(l, "B") })
	b.readUntil(t, "roster", isRoster)

	a.sendLine(t, "teleportWall= B ballA 10 0 20 7.5 right")
	got := b.readUntil(t, "teleport", func(l string) bool { return strings.Contains(l, "teleportWall=") })
	if got != "success teleportWall= B ballA 10 0 20 7.5 right" {
		t.Errorf("forwarded line = %q", got)
	}
}

func TestForwardToUnknownBoardReturnsFailure(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	a.readUntil(t, "roster", isRoster)

	a.sendLine(t, "teleportPortal= Ghost ball 1 2 p")
	if got := a.readUntil(t, "failure", func(l string) bool { return l == "failure" }); got != "failure" {
		t.Errorf("want failure, got %q", got)
	}
}

func TestJoinFanOut(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	b := connectBoard(t, s, "B")
	c := connectBoard(t, s, "C")
	for _, tb := range []*testBoard{a, b, c} {
		tb.readUntil(t, "full roster", func(l string) bool { return isRoster(l) && rosterHas(l, "C") })
	}

	if err := s.Join("h", "A", "B"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	wantJoin := "success joinHorizontal= A B"
	for _, tb := range []*testBoard{a, b} {
		if got := tb.readUntil(t, "join", func(l string) bool { return strings.Contains(l, "joinHorizontal=") }); got != wantJoin {
			t.Errorf("%s join line = %q", tb.name, got)
		}
	}
	// The bystander gets the eviction notices instead.
	got := c.readUntil(t, "evict", func(l string) bool { return strings.Contains(l, "disconnectWall=") })
	if got != "success disconnectWall= A right" && got != "success disconnectWall= B left" {
		t.Errorf("bystander eviction line = %q", got)
	}
}

func TestJoinUnknownBoardFails(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	a.readUntil(t, "roster", isRoster)
	if err := s.Join("h", "A", "Nope"); err == nil {
		t.Error("joining an unconnected board must fail")
	}
}

func TestQuitRemovesBoardFromRoster(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	b := connectBoard(t, s, "B")
	a.readUntil(t, "two-board roster", func(l string) bool { return isRoster(l) && rosterHas(l, "B") })
	b.readUntil(t, "roster", isRoster)

	b.sendLine(t, "quit")
	got := a.readUntil(t, "shrunk roster", func(l string) bool { return isRoster(l) && !rosterHas(l, "B") })
	if rosterHas(got, "B") {
		t.Errorf("B should be gone from the roster: %q", got)
	}
}

func TestStatusAPI(t *testing.T) {
	s := startRelay(t)
	a := connectBoard(t, s, "A")
	a.readUntil(t, "roster", isRoster)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/boards")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /boards: %v", resp.Status)
	}
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "A") {
		t.Errorf("/boards should list A: %s", buf[:n])
	}
}
