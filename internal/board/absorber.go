package board

import (
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

// absorberEjectSpeed is the upward launch speed of an emitted ball in L/s.
const absorberEjectSpeed = 50

// Absorber is a rectangular gadget that captures balls. Captured balls leave
// the free-ball list and live only as names in the board's queue for this
// absorber until a trigger emits them again, FIFO.
type Absorber struct {
	name          string
	pos           geometry.Vector // integer-grid top-left corner
	width, height int

	segments []geometry.Segment
	circles  []geometry.Circle
}

// NewAbsorber builds a width x height absorber with its top-left at (x, y).
func NewAbsorber(name string, x, y, width, height int) *Absorber {
	p := geometry.NewVector(float64(x), float64(y))
	w, h := float64(width), float64(height)
	tr := p.Plus(geometry.NewVector(w, 0))
	bl := p.Plus(geometry.NewVector(0, h))
	br := p.Plus(geometry.NewVector(w, h))
	return &Absorber{
		name:   name,
		pos:    p,
		width:  width,
		height: height,
		segments: []geometry.Segment{
			geometry.NewSegment(p, tr),
			geometry.NewSegment(tr, br),
			geometry.NewSegment(br, bl),
			geometry.NewSegment(bl, p),
		},
		circles: []geometry.Circle{
			geometry.NewCircle(p, 0),
			geometry.NewCircle(tr, 0),
			geometry.NewCircle(br, 0),
			geometry.NewCircle(bl, 0),
		},
	}
}

func (a *Absorber) Name() string { return a.name }

// Location returns the grid top-left corner.
func (a *Absorber) Location() geometry.Vector { return a.pos }

func (a *Absorber) Width() int  { return a.width }
func (a *Absorber) Height() int { return a.height }

// Contains reports whether the ball's center is inside the absorber's
// rectangle.
func (a *Absorber) Contains(b Ball) bool {
	return b.Pos.X >= a.pos.X && b.Pos.X <= a.pos.X+float64(a.width) &&
		b.Pos.Y >= a.pos.Y && b.Pos.Y <= a.pos.Y+float64(a.height)
}

// Intersects reports whether any part of the ball touches the absorber.
func (a *Absorber) Intersects(b Ball) bool {
	return b.Pos.X >= a.pos.X-BallRadius && b.Pos.X <= a.pos.X+float64(a.width)+BallRadius &&
		b.Pos.Y >= a.pos.Y-BallRadius && b.Pos.Y <= a.pos.Y+float64(a.height)+BallRadius
}

// TimeToHit returns the time until the ball reaches the absorber's border.
// Balls already held inside never re-collide.
func (a *Absorber) TimeToHit(b Ball, delta float64) float64 {
	if a.Contains(b) {
		return geometry.Inf
	}
	min := geometry.Inf
	for _, seg := range a.segments {
		if t := geometry.TimeToSegment(seg, b.Circle(), b.Vel); t < min {
			min = t
		}
	}
	for _, c := range a.circles {
		if t := geometry.TimeToCircle(c, b.Circle(), b.Vel); t < min {
			min = t
		}
	}
	if min > delta {
		return geometry.Inf
	}
	return min
}

// Emit returns the ball launched when the absorber fires: it appears a
// quarter-unit inside the bottom-right corner, heading straight up.
func (a *Absorber) Emit(ballName string) Ball {
	pos := a.pos.Plus(geometry.NewVector(float64(a.width)-BallRadius, float64(a.height)-BallRadius))
	return NewBall(ballName, pos, geometry.NewVector(0, -absorberEjectSpeed))
}

// Rejects always reports false; an arriving ball that lands on an absorber is
// captured instead of refused.
func (a *Absorber) Rejects(Ball) bool { return false }
