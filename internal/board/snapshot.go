package board

import (
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

// Snapshot is the immutable view a renderer draws from: the moving pieces per
// frame, the static background gadgets, and the wall-join banners.
type Snapshot struct {
	Board   string            `json:"board"`
	Balls   []BallView        `json:"balls"`
	Flipper []FlipperView     `json:"flippers"`
	Static  []GadgetView      `json:"static"`
	Joins   map[string]string `json:"joins"` // wall name -> remote board
}

// BallView is one free ball.
type BallView struct {
	Name string          `json:"name"`
	Pos  geometry.Vector `json:"pos"`
	Vel  geometry.Vector `json:"vel"`
}

// FlipperView is one flipper's drawable arm.
type FlipperView struct {
	Name     string           `json:"name"`
	Line     geometry.Segment `json:"line"`
	Rotation float64          `json:"rotationDeg"`
	Moving   bool             `json:"moving"`
}

// GadgetView describes one static gadget for the background layer.
type GadgetView struct {
	Type        string          `json:"type"` // squareBumper, circleBumper, triangleBumper, absorber, portal
	Name        string          `json:"name"`
	Pos         geometry.Vector `json:"pos"`
	Width       int             `json:"width,omitempty"`
	Height      int             `json:"height,omitempty"`
	Orientation float64         `json:"orientationDeg,omitempty"`
}

// Snapshot captures the current render state.
func (bd *Board) Snapshot() Snapshot {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	snap := Snapshot{
		Board: bd.name,
		Joins: make(map[string]string),
	}
	for _, b := range bd.balls {
		snap.Balls = append(snap.Balls, BallView{Name: b.Name, Pos: b.Pos, Vel: b.Vel})
	}
	for _, f := range bd.flippers {
		snap.Flipper = append(snap.Flipper, FlipperView{
			Name:     f.Name(),
			Line:     f.Line(),
			Rotation: f.Rotation().Degrees(),
			Moving:   f.Flipping(),
		})
	}
	for _, bp := range bd.bumpers {
		snap.Static = append(snap.Static, GadgetView{
			Type:        bp.Kind().String(),
			Name:        bp.Name(),
			Pos:         bp.Location(),
			Orientation: bp.Orientation().Degrees(),
		})
	}
	for _, a := range bd.absorbers {
		snap.Static = append(snap.Static, GadgetView{
			Type:   "absorber",
			Name:   a.Name(),
			Pos:    a.Location(),
			Width:  a.Width(),
			Height: a.Height(),
		})
	}
	for _, p := range bd.portals {
		snap.Static = append(snap.Static, GadgetView{
			Type: "portal",
			Name: p.Name(),
			Pos:  p.Location(),
		})
	}
	for _, w := range walls {
		if bd.joined[w] != "" {
			snap.Joins[w.String()] = bd.joined[w]
		}
	}
	return snap
}
