package board

import (
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

// BumperKind distinguishes the three static bumper shapes.
type BumperKind int

const (
	SquareBumper BumperKind = iota
	CircleBumper
	TriangleBumper
)

var bumperKindNames = [...]string{"squareBumper", "circleBumper", "triangleBumper"}

func (k BumperKind) String() string {
	return bumperKindNames[k]
}

// Bumper is an immutable static obstacle occupying one grid cell. It is
// decomposed at construction into segments and corner circles; the radius-0
// corners give balls a smooth reflection off sharp edges.
type Bumper struct {
	name        string
	kind        BumperKind
	pos         geometry.Vector // integer-grid top-left corner
	orientation geometry.Angle  // triangles only

	segments []geometry.Segment
	circles  []geometry.Circle
}

// NewSquareBumper builds a 1x1 square bumper with its top-left at (x, y).
func NewSquareBumper(name string, x, y int) *Bumper {
	p := geometry.NewVector(float64(x), float64(y))
	tr := p.Plus(geometry.NewVector(1, 0))
	bl := p.Plus(geometry.NewVector(0, 1))
	br := p.Plus(geometry.NewVector(1, 1))
	return &Bumper{
		name: name,
		kind: SquareBumper,
		pos:  p,
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

// NewCircleBumper builds a diameter-1 circular bumper filling the cell at (x, y).
func NewCircleBumper(name string, x, y int) *Bumper {
	p := geometry.NewVector(float64(x), float64(y))
	return &Bumper{
		name:    name,
		kind:    CircleBumper,
		pos:     p,
		circles: []geometry.Circle{geometry.NewCircle(p.Plus(geometry.NewVector(0.5, 0.5)), 0.5)},
	}
}

// NewTriangleBumper builds a right-triangle bumper in the cell at (x, y). At
// orientation 0 the legs run along the top and left edges; other cardinal
// orientations rotate the shape about the cell center.
func NewTriangleBumper(name string, x, y int, orientation geometry.Angle) *Bumper {
	p := geometry.NewVector(float64(x), float64(y))
	tr := p.Plus(geometry.NewVector(1, 0))
	bl := p.Plus(geometry.NewVector(0, 1))
	center := p.Plus(geometry.NewVector(0.5, 0.5))

	segments := []geometry.Segment{
		geometry.NewSegment(p, tr),
		geometry.NewSegment(p, bl),
		geometry.NewSegment(bl, tr), // hypotenuse
	}
	circles := []geometry.Circle{
		geometry.NewCircle(p, 0),
		geometry.NewCircle(tr, 0),
		geometry.NewCircle(bl, 0),
	}
	for i := range segments {
		segments[i] = geometry.RotateSegment(segments[i], center, orientation)
	}
	for i := range circles {
		circles[i] = geometry.RotateCircle(circles[i], center, orientation)
	}
	return &Bumper{
		name:        name,
		kind:        TriangleBumper,
		pos:         p,
		orientation: orientation,
		segments:    segments,
		circles:     circles,
	}
}

func (bp *Bumper) Name() string { return bp.name }

// Kind returns the bumper's shape.
func (bp *Bumper) Kind() BumperKind { return bp.kind }

// Location returns the grid top-left corner.
func (bp *Bumper) Location() geometry.Vector { return bp.pos }

// Orientation returns the triangle rotation; zero for the other kinds.
func (bp *Bumper) Orientation() geometry.Angle { return bp.orientation }

// TimeToHit returns the minimum collision time over the bumper's surfaces,
// or +Inf beyond the foresight window.
func (bp *Bumper) TimeToHit(b Ball, delta float64) float64 {
	min := geometry.Inf
	for _, seg := range bp.segments {
		if t := geometry.TimeToSegment(seg, b.Circle(), b.Vel); t < min {
			min = t
		}
	}
	for _, c := range bp.circles {
		if t := geometry.TimeToCircle(c, b.Circle(), b.Vel); t < min {
			min = t
		}
	}
	if min > delta {
		return geometry.Inf
	}
	return min
}

// Resolve reflects the ball off whichever surface is currently imminent. A
// ball with no imminent surface comes back unchanged.
func (bp *Bumper) Resolve(b Ball) Ball {
	for _, seg := range bp.segments {
		if geometry.TimeToSegment(seg, b.Circle(), b.Vel) < geometry.Eps12 {
			return b.WithVelocity(geometry.ReflectSegment(seg, b.Vel))
		}
	}
	for _, c := range bp.circles {
		if geometry.TimeToCircle(c, b.Circle(), b.Vel) < geometry.Eps12 {
			return b.WithVelocity(geometry.ReflectCircle(c.Center, b.Pos, b.Vel))
		}
	}
	return b
}

// Rejects reports whether the ball overlaps the bumper's cell; used to refuse
// impossible teleport placements.
func (bp *Bumper) Rejects(b Ball) bool {
	if bp.kind == CircleBumper {
		c := bp.circles[0]
		reach := c.Radius + BallRadius
		return geometry.DistanceSquared(b.Pos, c.Center) < reach*reach
	}
	left := bp.pos.X - BallRadius
	top := bp.pos.Y - BallRadius
	return b.Pos.X >= left && b.Pos.X <= left+1+BallDiameter &&
		b.Pos.Y >= top && b.Pos.Y <= top+1+BallDiameter
}
