package wire

import (
	"strings"
	"testing"
)

func TestParseTeleportWall(t *testing.T) {
	m, err := Parse("success teleportWall= Mars ballA 10 0 20 7.5 right")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.Success || m.Kind != KindTeleportWall {
		t.Fatalf("kind/success wrong: %+v", m)
	}
	if m.Board != "Mars" || m.Ball != "ballA" || m.Wall != "right" {
		t.Errorf("fields wrong: %+v", m)
	}
	if m.VX != 10 || m.VY != 0 || m.X != 20 || m.Y != 7.5 {
		t.Errorf("numbers wrong: %+v", m)
	}
}

func TestParseTeleportPortalRoundTrip(t *testing.T) {
	in := Message{Kind: KindTeleportPortal, Board: "Venus", Ball: "b1", VX: 3.5, VY: -2, Portal: "gamma"}
	out, err := Parse(in.Encode())
	if err != nil {
		t.Fatalf("Parse(%q): %v", in.Encode(), err)
	}
	if out.Kind != in.Kind || out.Board != in.Board || out.Ball != in.Ball ||
		out.VX != in.VX || out.VY != in.VY || out.Portal != in.Portal {
		t.Errorf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestParseAllConnectedBoards(t *testing.T) {
	m, err := Parse("success allConnectedBoards= A B C")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Boards) != 3 || m.Boards[0] != "A" || m.Boards[2] != "C" {
		t.Errorf("boards wrong: %v", m.Boards)
	}

	// An empty roster is legal (relay about to shut down).
	m, err = Parse("success allConnectedBoards=")
	if err != nil {
		t.Fatalf("Parse empty roster: %v", err)
	}
	if len(m.Boards) != 0 {
		t.Errorf("want empty roster, got %v", m.Boards)
	}
}

func TestParseJoinAndBareCommands(t *testing.T) {
	m, err := Parse("success joinHorizontal= Left Right")
	if err != nil || m.Kind != KindJoinHorizontal || m.First != "Left" || m.Second != "Right" {
		t.Errorf("joinHorizontal parse: %+v err=%v", m, err)
	}
	for _, line := range []string{"getClientBoardName", "quit", "failure", "disconnect"} {
		if _, err := Parse(line); err != nil {
			t.Errorf("Parse(%q): %v", line, err)
		}
	}
}

func TestParseMalformedLines(t *testing.T) {
	for _, line := range []string{
		"",
		"success",
		"teleportWall= B only 3 tokens",
		"teleportPortal= B b notanumber 0 p",
		"frobnicate= A B",
	} {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) should fail", line)
		}
	}
}

func TestEncodeHasNoTrailingSpace(t *testing.T) {
	m := Message{Kind: KindAllConnectedBoards, Success: true}
	if got := m.Encode(); strings.HasSuffix(got, " ") && got != "success allConnectedBoards=" {
		t.Errorf("Encode left trailing space: %q", got)
	}
}

func TestRouteTarget(t *testing.T) {
	if tgt, ok := RouteTarget("teleportPortal= Mars b 1 2 p"); !ok || tgt != "Mars" {
		t.Errorf("RouteTarget = %q %v", tgt, ok)
	}
	if _, ok := RouteTarget("quit"); ok {
		t.Error("quit must not be routable")
	}
}
