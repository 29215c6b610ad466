// Package relay implements the central message router. It speaks the
// line-oriented protocol over TCP: each newcomer is asked for its board name,
// the roster is broadcast, and any client line whose second token names a
// known board is forwarded there with a "success " prefix. The operator
// console joins boards edge-to-edge.
package relay

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/wire"
)

// Server is the relay. Its board-name -> connection map is the only state
// shared between the accept loop, the console, and the per-client readers.
type Server struct {
	listener net.Listener

	mu      sync.Mutex
	clients map[string]*client   // injective: one connection per board name
	joins   map[string][2]string // "h"/"v" -> last joined pair, for the status API
	closed  bool
}

// client owns one board connection. Writes come from several goroutines
// (broadcasts, forwards, console joins), so they serialize on wmu.
type client struct {
	name string
	conn net.Conn
	wmu  sync.Mutex
}

func (c *client) writeLine(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	return err
}

// New starts listening on the port. Port 0 picks a free one.
func New(port int) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("relay: listen: %w", err)
	}
	return &Server{
		listener: ln,
		clients:  make(map[string]*client),
		joins:    make(map[string][2]string),
	}, nil
}

// Port returns the bound listener port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Serve accepts clients until the listener closes.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("relay: accept: %w", err)
		}
		go s.handle(conn)
	}
}

// handle runs one client from handshake to disconnect.
func (s *Server) handle(conn net.Conn) {
	c := &client{conn: conn}
	reader := bufio.NewScanner(conn)

	name, err := s.handshake(c, reader)
	if err != nil {
		log.Printf("[RELAY] handshake failed: %v", err)
		conn.Close()
		return
	}
	c.name = name
	log.Printf("[RELAY] board %q connected from %v", name, conn.RemoteAddr())
	s.broadcastRoster()

	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}
		s.forward(c, line)
	}
	if err := reader.Err(); err != nil {
		log.Printf("[RELAY] board %q read error: %v", name, err)
	}

	s.drop(name)
	conn.Close()
	log.Printf("[RELAY] board %q disconnected", name)
	s.broadcastRoster()
}

// handshake asks the newcomer for its board name and registers it. A name
// already in use is refused so the registry stays injective.
func (s *Server) handshake(c *client, reader *bufio.Scanner) (string, error) {
	if err := c.writeLine(wire.Message{Kind: wire.KindGetClientBoardName}.Encode()); err != nil {
		return "", err
	}
	if !reader.Scan() {
		if err := reader.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	name := strings.TrimSpace(reader.Text())
	if name == "" {
		return "", fmt.Errorf("empty board name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.clients[name]; taken {
		c.writeLine("failure")
		return "", fmt.Errorf("board name %q already connected", name)
	}
	s.clients[name] = c
	return name, nil
}

func (s *Server) drop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, name)
}

func (s *Server) snapshotClients() []*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

// Boards returns the connected board names.
func (s *Server) Boards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.clients))
	for name := range s.clients {
		out = append(out, name)
	}
	return out
}

// Joins returns the last horizontal and vertical join pairs.
func (s *Server) Joins() map[string][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][2]string, len(s.joins))
	for k, v := range s.joins {
		out[k] = v
	}
	return out
}

// broadcastRoster sends the current board set to every client.
func (s *Server) broadcastRoster() {
	msg := wire.Message{Kind: wire.KindAllConnectedBoards, Success: true, Boards: s.Boards()}
	line := msg.Encode()
	for _, c := range s.snapshotClients() {
		if err := c.writeLine(line); err != nil {
			log.Printf("[RELAY] roster to %q: %v", c.name, err)
		}
	}
}

// forward routes a client line to the board named by its second token,
// prefixed with "success ". An unresolvable target earns the sender a
// "failure" line; the session survives.
func (s *Server) forward(from *client, line string) {
	target, ok := wire.RouteTarget(line)
	if !ok {
		log.Printf("[RELAY] unroutable line from %q: %q", from.name, line)
		return
	}
	s.mu.Lock()
	dest := s.clients[target]
	s.mu.Unlock()
	if dest == nil {
		log.Printf("[RELAY] %q -> unknown board %q", from.name, target)
		if err := from.writeLine("failure"); err != nil {
			log.Printf("[RELAY] failure to %q: %v", from.name, err)
		}
		return
	}
	if err := dest.writeLine("success " + line); err != nil {
		log.Printf("[RELAY] forward to %q: %v", target, err)
	}
}

// Join wires two boards edge-to-edge. dir is "h" (first board left) or "v"
// (first board top). Both parties get the join message; everyone else gets
// the eviction notices for the two freshly occupied walls.
func (s *Server) Join(dir, first, second string) error {
	s.mu.Lock()
	a, b := s.clients[first], s.clients[second]
	if a == nil || b == nil {
		s.mu.Unlock()
		return fmt.Errorf("relay: join %s %s %s: both boards must be connected", dir, first, second)
	}
	s.joins[dir] = [2]string{first, second}
	others := make([]*client, 0, len(s.clients))
	for name, c := range s.clients {
		if name != first && name != second {
			others = append(others, c)
		}
	}
	s.mu.Unlock()

	var join wire.Message
	var evictFirst, evictSecond wire.Message
	switch dir {
	case "h":
		join = wire.Message{Kind: wire.KindJoinHorizontal, Success: true, First: first, Second: second}
		evictFirst = wire.Message{Kind: wire.KindDisconnectWall, Success: true, First: first, Wall: "right"}
		evictSecond = wire.Message{Kind: wire.KindDisconnectWall, Success: true, First: second, Wall: "left"}
	case "v":
		join = wire.Message{Kind: wire.KindJoinVertical, Success: true, First: first, Second: second}
		evictFirst = wire.Message{Kind: wire.KindDisconnectWall, Success: true, First: first, Wall: "bottom"}
		evictSecond = wire.Message{Kind: wire.KindDisconnectWall, Success: true, First: second, Wall: "top"}
	default:
		return fmt.Errorf("relay: unknown join direction %q", dir)
	}

	for _, c := range others {
		if err := c.writeLine(evictFirst.Encode()); err != nil {
			log.Printf("[RELAY] evict notice to %q: %v", c.name, err)
		}
		if err := c.writeLine(evictSecond.Encode()); err != nil {
			log.Printf("[RELAY] evict notice to %q: %v", c.name, err)
		}
	}
	for _, c := range []*client{a, b} {
		if err := c.writeLine(join.Encode()); err != nil {
			return fmt.Errorf("relay: join to %q: %w", c.name, err)
		}
	}
	return nil
}

// DisconnectAll empties the roster on every client and closes the relay.
func (s *Server) DisconnectAll() {
	for _, c := range s.snapshotClients() {
		c.writeLine("success allConnectedBoards=")
		c.writeLine(wire.Message{Kind: wire.KindDisconnect}.Encode())
		c.conn.Close()
	}
	s.Close()
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.listener.Close()
}

// RunConsole reads operator commands: "h A B", "v A B", "disconnect".
// It returns when r is exhausted or the relay disconnects.
func (s *Server) RunConsole(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "disconnect":
			s.DisconnectAll()
			return
		case "h", "v":
			if len(tokens) != 3 {
				fmt.Printf("usage: %s LEFT_OR_TOP RIGHT_OR_BOTTOM\n", tokens[0])
				continue
			}
			if err := s.Join(tokens[0], tokens[1], tokens[2]); err != nil {
				fmt.Printf("%v\n", err)
			}
		default:
			fmt.Printf("unknown command %q (want: h A B | v A B | disconnect)\n", tokens[0])
		}
	}
}
