// Package parser reads the textual board-definition format (.fb): one
// declaration per line, whitespace-separated key=value tokens, # comments.
// Descriptor errors are fatal; a fire line may forward-reference gadgets and
// is resolved in a second pass after the whole file is read.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

// ParseFile reads a board file from disk.
func ParseFile(path string) (*board.Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	defer f.Close()
	bd, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}
	return bd, nil
}

// Parse reads a board definition from r.
func Parse(r io.Reader) (*board.Board, error) {
	bd := board.New("default")
	sawBoard := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		attrs, err := parseAttrs(tokens[1:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch tokens[0] {
		case "board":
			if sawBoard {
				return nil, fmt.Errorf("line %d: duplicate board line", lineNo)
			}
			sawBoard = true
			if err := applyBoardLine(bd, attrs); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

		case "ball":
			name, err := attrs.name()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			x, err := attrs.float("x")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			y, err := attrs.float("y")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vx, err := attrs.float("xVelocity")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vy, err := attrs.float("yVelocity")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			b := board.NewBall(name, geometry.NewVector(x, y), geometry.NewVector(vx, vy))
			if err := bd.AddBall(b); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

		case "squareBumper", "circleBumper", "triangleBumper":
			if err := addBumperLine(bd, tokens[0], attrs); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

		case "absorber":
			name, err := attrs.name()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			x, y, err := attrs.gridPos()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			w, err := attrs.int("width")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			h, err := attrs.int("height")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if err := bd.AddAbsorber(board.NewAbsorber(name, x, y, w, h)); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

		case "leftFlipper", "rightFlipper":
			name, err := attrs.name()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			x, y, err := attrs.gridPos()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			orient, err := attrs.orientation()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			right := tokens[0] == "rightFlipper"
			if err := bd.AddFlipper(board.NewFlipper(name, right, x, y, orient)); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

		case "portal":
			name, err := attrs.name()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			x, y, err := attrs.gridPos()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			peer, ok := attrs["otherPortal"]
			if !ok {
				return nil, fmt.Errorf("line %d: portal missing otherPortal=", lineNo)
			}
			remote := attrs["otherBoard"] // optional; empty means local
			if err := bd.AddPortal(board.NewPortal(name, x, y, remote, peer)); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

		case "fire":
			trigger, ok1 := attrs["trigger"]
			action, ok2 := attrs["action"]
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("line %d: fire wants trigger= and action=", lineNo)
			}
			bd.SetTrigger(trigger, action)

		case "keydown", "keyup":
			key, ok1 := attrs["key"]
			action, ok2 := attrs["action"]
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("line %d: %s wants key= and action=", lineNo, tokens[0])
			}
			bd.AddKeyBinding(board.KeyBinding{Event: tokens[0], Key: key, Action: action})

		default:
			return nil, fmt.Errorf("line %d: unknown declaration %q", lineNo, tokens[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawBoard {
		return nil, fmt.Errorf("no board line")
	}

	// Second pass over forward-referencing fire lines; still-unknown pairs
	// are dropped silently.
	bd.ResolveTriggers()
	return bd, nil
}

func applyBoardLine(bd *board.Board, attrs attrMap) error {
	name, err := attrs.name()
	if err != nil {
		return err
	}
	bd.SetName(name)
	if v, ok := attrs["gravity"]; ok {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("bad gravity %q", v)
		}
		bd.SetGravity(g)
	}
	if v, ok := attrs["friction1"]; ok {
		mu, err := strconv.ParseFloat(v, 64)
		if err != nil || mu < 0 {
			return fmt.Errorf("bad friction1 %q", v)
		}
		bd.SetFriction1(mu)
	}
	if v, ok := attrs["friction2"]; ok {
		mu, err := strconv.ParseFloat(v, 64)
		if err != nil || mu < 0 {
			return fmt.Errorf("bad friction2 %q", v)
		}
		bd.SetFriction2(mu)
	}
	return nil
}

func addBumperLine(bd *board.Board, kind string, attrs attrMap) error {
	name, err := attrs.name()
	if err != nil {
		return err
	}
	x, y, err := attrs.gridPos()
	if err != nil {
		return err
	}
	switch kind {
	case "squareBumper":
		return bd.AddBumper(board.NewSquareBumper(name, x, y))
	case "circleBumper":
		return bd.AddBumper(board.NewCircleBumper(name, x, y))
	default:
		orient, err := attrs.orientation()
		if err != nil {
			return err
		}
		return bd.AddBumper(board.NewTriangleBumper(name, x, y, orient))
	}
}

// attrMap holds the key=value tokens of one line.
type attrMap map[string]string

func parseAttrs(tokens []string) (attrMap, error) {
	attrs := make(attrMap, len(tokens))
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("malformed token %q", tok)
		}
		if _, dup := attrs[key]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", key)
		}
		attrs[key] = value
	}
	return attrs, nil
}

func (a attrMap) name() (string, error) {
	name, ok := a["name"]
	if !ok {
		return "", fmt.Errorf("missing name=")
	}
	return name, nil
}

func (a attrMap) float(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("missing %s=", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q", key, v)
	}
	return f, nil
}

func (a attrMap) int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("missing %s=", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q", key, v)
	}
	return n, nil
}

func (a attrMap) gridPos() (int, int, error) {
	x, err := a.int("x")
	if err != nil {
		return 0, 0, err
	}
	y, err := a.int("y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// orientation reads the optional orientation attribute, defaulting to 0 and
// accepting only the cardinal degrees.
func (a attrMap) orientation() (geometry.Angle, error) {
	v, ok := a["orientation"]
	if !ok {
		return geometry.AngleZero, nil
	}
	switch v {
	case "0":
		return geometry.AngleZero, nil
	case "90":
		return geometry.Deg90, nil
	case "180":
		return geometry.Deg180, nil
	case "270":
		return geometry.Deg270, nil
	}
	return 0, fmt.Errorf("bad orientation %q", v)
}
