// Package wire implements the line-oriented ASCII protocol spoken between
// boards and the relay. Every message is a single '\n'-terminated line of
// whitespace-separated tokens; messages forwarded by the relay carry a
// leading "success" token.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a protocol message.
type Kind int

const (
	KindUnknown Kind = iota
	KindGetClientBoardName
	KindAllConnectedBoards
	KindJoinHorizontal
	KindJoinVertical
	KindDisconnectWall
	KindTeleportPortal
	KindTeleportWall
	KindConnectPortal
	KindDisconnectPortal
	KindQuit
	KindDisconnect
	KindFailure
)

// Message is one parsed protocol line. Only the fields relevant to the Kind
// are populated.
type Message struct {
	Kind    Kind
	Success bool // line carried the relay's "success" prefix

	Boards []string // AllConnectedBoards
	First  string   // JoinHorizontal: left; JoinVertical: top; DisconnectWall: board
	Second string   // JoinHorizontal: right; JoinVertical: bottom

	Board  string  // Teleport*/ConnectPortal/DisconnectPortal: destination board
	Ball   string  // Teleport*: ball name
	VX, VY float64 // Teleport*: ball velocity
	X, Y   float64 // TeleportWall: exit position on the sender's wall
	Wall   string  // TeleportWall/DisconnectWall: wall name (left|right|top|bottom)
	Portal string  // TeleportPortal/ConnectPortal/DisconnectPortal: portal name
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Encode renders the message as a protocol line without the trailing newline.
// The "success" prefix is included when Success is set.
func (m Message) Encode() string {
	var body string
	switch m.Kind {
	case KindGetClientBoardName:
		body = "getClientBoardName"
	case KindAllConnectedBoards:
		body = strings.TrimRight("allConnectedBoards= "+strings.Join(m.Boards, " "), " ")
	case KindJoinHorizontal:
		body = fmt.Sprintf("joinHorizontal= %s %s", m.First, m.Second)
	case KindJoinVertical:
		body = fmt.Sprintf("joinVertical= %s %s", m.First, m.Second)
	case KindDisconnectWall:
		body = fmt.Sprintf("disconnectWall= %s %s", m.First, m.Wall)
	case KindTeleportPortal:
		body = fmt.Sprintf("teleportPortal= %s %s %s %s %s", m.Board, m.Ball, num(m.VX), num(m.VY), m.Portal)
	case KindTeleportWall:
		body = fmt.Sprintf("teleportWall= %s %s %s %s %s %s %s",
			m.Board, m.Ball, num(m.VX), num(m.VY), num(m.X), num(m.Y), m.Wall)
	case KindConnectPortal:
		body = fmt.Sprintf("connectPortal= %s %s", m.Board, m.Portal)
	case KindDisconnectPortal:
		body = fmt.Sprintf("disconnectPortal= %s %s", m.Board, m.Portal)
	case KindQuit:
		body = "quit"
	case KindDisconnect:
		body = "disconnect"
	case KindFailure:
		return "failure"
	default:
		body = ""
	}
	if m.Success {
		return "success " + body
	}
	return body
}

// Parse decodes one protocol line. Malformed lines yield an error; the caller
// discards the line without tearing down the session.
func Parse(line string) (Message, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Message{}, fmt.Errorf("wire: empty line")
	}

	var m Message
	if tokens[0] == "success" {
		m.Success = true
		tokens = tokens[1:]
		if len(tokens) == 0 {
			return Message{}, fmt.Errorf("wire: bare success prefix")
		}
	}

	switch tokens[0] {
	case "getClientBoardName":
		m.Kind = KindGetClientBoardName
		return m, nil
	case "quit":
		m.Kind = KindQuit
		return m, nil
	case "disconnect":
		m.Kind = KindDisconnect
		return m, nil
	case "failure":
		m.Kind = KindFailure
		return m, nil
	case "allConnectedBoards=":
		m.Kind = KindAllConnectedBoards
		m.Boards = append([]string(nil), tokens[1:]...)
		return m, nil
	case "joinHorizontal=", "joinVertical=":
		if len(tokens) != 3 {
			return Message{}, fmt.Errorf("wire: %s wants 2 board names, got %d tokens", tokens[0], len(tokens)-1)
		}
		if tokens[0] == "joinHorizontal=" {
			m.Kind = KindJoinHorizontal
		} else {
			m.Kind = KindJoinVertical
		}
		m.First, m.Second = tokens[1], tokens[2]
		return m, nil
	case "disconnectWall=":
		if len(tokens) != 3 {
			return Message{}, fmt.Errorf("wire: disconnectWall= wants board and wall")
		}
		m.Kind = KindDisconnectWall
		m.First, m.Wall = tokens[1], tokens[2]
		return m, nil
	case "teleportPortal=":
		if len(tokens) != 6 {
			return Message{}, fmt.Errorf("wire: teleportPortal= wants 5 fields, got %d", len(tokens)-1)
		}
		m.Kind = KindTeleportPortal
		m.Board, m.Ball, m.Portal = tokens[1], tokens[2], tokens[5]
		var err error
		if m.VX, err = strconv.ParseFloat(tokens[3], 64); err != nil {
			return Message{}, fmt.Errorf("wire: bad vx %q: %w", tokens[3], err)
		}
		if m.VY, err = strconv.ParseFloat(tokens[4], 64); err != nil {
			return Message{}, fmt.Errorf("wire: bad vy %q: %w", tokens[4], err)
		}
		return m, nil
	case "teleportWall=":
		if len(tokens) != 8 {
			return Message{}, fmt.Errorf("wire: teleportWall= wants 7 fields, got %d", len(tokens)-1)
		}
		m.Kind = KindTeleportWall
		m.Board, m.Ball, m.Wall = tokens[1], tokens[2], tokens[7]
		for i, dst := range []*float64{&m.VX, &m.VY, &m.X, &m.Y} {
			v, err := strconv.ParseFloat(tokens[3+i], 64)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad number %q: %w", tokens[3+i], err)
			}
			*dst = v
		}
		return m, nil
	case "connectPortal=", "disconnectPortal=":
		if len(tokens) != 3 {
			return Message{}, fmt.Errorf("wire: %s wants board and portal", tokens[0])
		}
		if tokens[0] == "connectPortal=" {
			m.Kind = KindConnectPortal
		} else {
			m.Kind = KindDisconnectPortal
		}
		m.Board, m.Portal = tokens[1], tokens[2]
		return m, nil
	}
	return Message{}, fmt.Errorf("wire: unknown command %q", tokens[0])
}

// RouteTarget returns the board the relay should forward a client line to.
// The relay routes on the second whitespace token; commands without one are
// not routable.
func RouteTarget(line string) (string, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return "", false
	}
	return tokens[1], true
}
