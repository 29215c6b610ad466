package board

import (
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

// PortalRadius is half the 1L portal diameter.
const PortalRadius = 0.5

// Portal is a circular gadget that teleports balls to a peer portal, which
// may live on a different board. A portal with an empty RemoteBoard (or one
// naming its own board) is local: its peer is looked up on the same board.
type Portal struct {
	name        string
	pos         geometry.Vector // integer-grid top-left corner
	remoteBoard string          // "" when the peer is local
	peer        string
	circle      geometry.Circle
}

// NewPortal builds a portal in the cell at (x, y). remoteBoard is empty for a
// local peer.
func NewPortal(name string, x, y int, remoteBoard, peer string) *Portal {
	p := geometry.NewVector(float64(x), float64(y))
	return &Portal{
		name:        name,
		pos:         p,
		remoteBoard: remoteBoard,
		peer:        peer,
		circle:      geometry.NewCircle(p.Plus(geometry.NewVector(PortalRadius, PortalRadius)), PortalRadius),
	}
}

func (p *Portal) Name() string { return p.name }

// Location returns the grid top-left corner.
func (p *Portal) Location() geometry.Vector { return p.pos }

// Center returns the portal's center point.
func (p *Portal) Center() geometry.Vector { return p.circle.Center }

// RemoteBoard returns the peer's board name, empty when the peer is local.
func (p *Portal) RemoteBoard() string { return p.remoteBoard }

// Peer returns the peer portal's name.
func (p *Portal) Peer() string { return p.peer }

// Contains reports whether the ball's center sits inside the portal circle.
func (p *Portal) Contains(b Ball) bool {
	return geometry.DistanceSquared(b.Pos, p.circle.Center) < PortalRadius*PortalRadius
}

// Intersects reports whether any part of the ball touches the portal.
func (p *Portal) Intersects(b Ball) bool {
	reach := PortalRadius + BallRadius
	return geometry.DistanceSquared(b.Pos, p.circle.Center) <= reach*reach
}

// TimeToHit returns the time until the ball reaches the portal rim. A ball
// already inside passes freely.
func (p *Portal) TimeToHit(b Ball, delta float64) float64 {
	if p.Contains(b) {
		return geometry.Inf
	}
	t := geometry.TimeToCircle(p.circle, b.Circle(), b.Vel)
	if t > delta {
		return geometry.Inf
	}
	return t
}

// Release returns the ball re-emitted from this portal's center with its
// velocity unchanged.
func (p *Portal) Release(b Ball) Ball {
	return NewBall(b.Name, p.circle.Center, b.Vel)
}

// Rejects always reports false; portals swallow arriving balls rather than
// refusing them.
func (p *Portal) Rejects(Ball) bool { return false }
