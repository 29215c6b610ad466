// Package client maintains a board's connection to the relay: the handshake,
// the reader goroutine that turns incoming lines into simulation events, and
// the serialized write path the engine sends hand-offs through.
package client

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/sim"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

// State is the session lifecycle: Offline until dialed, Registering while the
// name handshake is in flight, Online once the relay acknowledges with the
// connected-board roster.
type State int

const (
	Offline State = iota
	Registering
	Online
)

func (s State) String() string {
	switch s {
	case Registering:
		return "registering"
	case Online:
		return "online"
	default:
		return "offline"
	}
}

// Session is one board's relay connection.
type Session struct {
	boardName string
	engine    *sim.Engine

	mu    sync.Mutex // guards conn writes and state
	conn  net.Conn
	state State

	done chan struct{}
}

// Dial connects to the relay and starts the reader goroutine. The returned
// session is Registering until the relay completes the name handshake.
func Dial(host string, port int, engine *sim.Engine) (*Session, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("client: dial relay: %w", err)
	}
	return Attach(conn, engine), nil
}

// Attach wraps an established connection; split from Dial so tests can run
// the session over a pipe.
func Attach(conn net.Conn, engine *sim.Engine) *Session {
	s := &Session{
		boardName: engine.Board().Name(),
		engine:    engine,
		conn:      conn,
		state:     Registering,
		done:      make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send writes one message line to the relay. Writes from the engine and the
// handshake path are serialized on the session mutex.
func (s *Session) Send(m wire.Message) error {
	return s.sendLine(m.Encode())
}

func (s *Session) sendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("client: offline")
	}
	if _, err := fmt.Fprintf(s.conn, "%s\n", line); err != nil {
		return fmt.Errorf("client: write: %w", err)
	}
	return nil
}

// Quit sends the graceful shutdown message and closes the socket.
func (s *Session) Quit() {
	if err := s.sendLine("quit"); err != nil {
		log.Printf("[CLIENT] quit: %v", err)
	}
	s.Close()
}

// Close drops the connection; the reader goroutine then winds the board back
// to standalone play.
func (s *Session) Close() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = Offline
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Done is closed once the reader goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// readLoop pulls lines off the socket until it closes, posting parsed events
// to the simulation actor. It may block indefinitely on the read; Close
// cancels it by closing the socket.
func (s *Session) readLoop() {
	defer close(s.done)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		m, err := wire.Parse(line)
		if err != nil {
			// Protocol errors discard the line, never the session.
			log.Printf("[CLIENT] %v", err)
			continue
		}
		s.handle(m)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[CLIENT] relay connection lost: %v", err)
	}

	// Peer gone: drop any walls that referenced it and play on standalone.
	s.mu.Lock()
	s.conn = nil
	s.state = Offline
	s.mu.Unlock()
	s.engine.Post(func(b *board.Board) { b.ClearJoins() })
}

func (s *Session) handle(m wire.Message) {
	switch m.Kind {
	case wire.KindGetClientBoardName:
		if err := s.sendLine(s.boardName); err != nil {
			log.Printf("[CLIENT] handshake: %v", err)
		}

	case wire.KindAllConnectedBoards:
		s.mu.Lock()
		first := s.state == Registering
		if first {
			s.state = Online
		}
		s.mu.Unlock()
		s.engine.PostMessage(m)
		if first {
			s.announcePortals()
		}

	case wire.KindDisconnect:
		s.Close()

	default:
		s.engine.PostMessage(m)
	}
}

// announcePortals publishes this board's remote-peered portals so the boards
// they point at can mark them live.
func (s *Session) announcePortals() {
	for _, m := range s.engine.Board().PortalAnnouncements() {
		if err := s.Send(m); err != nil {
			log.Printf("[CLIENT] portal announcement: %v", err)
			return
		}
	}
}
