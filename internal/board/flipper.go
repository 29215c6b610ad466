package board

import (
	"math"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

const (
	// FlipperLength is the length of the flipper arm in board units.
	FlipperLength = 2
	// FlipperOmega is the magnitude of the flipper's angular velocity
	// (1080 degrees per second) in radians.
	FlipperOmega = 1080 * math.Pi / 180
	// FlipperRestitution scales the momentum a moving flipper injects into a
	// ball at contact.
	FlipperRestitution = 0.95
)

// Flipper is an immutable flipper value: a length-2 arm anchored at a pivot
// corner of its 2x2 bounding box, sweeping between a rest line (rotation 0)
// and the 90-degree extended line. The board replaces flipper values each
// step, like balls.
type Flipper struct {
	name        string
	right       bool            // handedness; false for a left flipper
	pos         geometry.Vector // top-left of the 2x2 bounding box
	orientation geometry.Angle  // base orientation, cardinal
	rotation    geometry.Angle  // current sweep progress, [0, 90] degrees
	flipping    bool
	angularVel  float64 // signed; starts positive for left flippers, negative for right; flips at each endpoint

	pivot geometry.Vector
	line  geometry.Segment
	ends  [2]geometry.Circle
}

// NewFlipper builds a flipper at rest. Left flippers start with positive
// angular velocity, right flippers negative; the sign alternates at each
// endpoint of the sweep.
func NewFlipper(name string, right bool, x, y int, orientation geometry.Angle) *Flipper {
	vel := FlipperOmega
	if right {
		vel = -FlipperOmega
	}
	return newFlipper(name, right, geometry.NewVector(float64(x), float64(y)), orientation, 0, false, vel)
}

func newFlipper(name string, right bool, pos geometry.Vector, orientation, rotation geometry.Angle,
	flipping bool, angularVel float64) *Flipper {

	f := &Flipper{
		name:        name,
		right:       right,
		pos:         pos,
		orientation: orientation,
		rotation:    rotation,
		flipping:    flipping,
		angularVel:  angularVel,
	}
	f.derive()
	return f
}

// derive computes the pivot, arm segment, and endpoint circles from the
// handedness, orientation, and current rotation. The pivot sits at the corner
// of the bounding box that stays fixed through the sweep.
func (f *Flipper) derive() {
	length := float64(FlipperLength)
	var rest geometry.Vector // rest-line endpoint relative to pos

	if f.right {
		switch f.orientation.Canonical() {
		case geometry.AngleZero:
			f.pivot = f.pos.Plus(geometry.NewVector(length, 0)) // NE
			rest = geometry.NewVector(length, length)
		case geometry.Deg90:
			f.pivot = f.pos.Plus(geometry.NewVector(length, length)) // SE
			rest = geometry.NewVector(0, length)
		case geometry.Deg180:
			f.pivot = f.pos.Plus(geometry.NewVector(0, length)) // SW
			rest = geometry.NewVector(0, 0)
		default:
			f.pivot = f.pos // NW
			rest = geometry.NewVector(length, 0)
		}
	} else {
		switch f.orientation.Canonical() {
		case geometry.AngleZero:
			f.pivot = f.pos // NW
			rest = geometry.NewVector(0, length)
		case geometry.Deg90:
			f.pivot = f.pos.Plus(geometry.NewVector(0, length)) // SW
			rest = geometry.NewVector(length, length)
		case geometry.Deg180:
			f.pivot = f.pos.Plus(geometry.NewVector(length, length)) // SE
			rest = geometry.NewVector(length, 0)
		default:
			f.pivot = f.pos.Plus(geometry.NewVector(length, 0)) // NE
			rest = geometry.NewVector(0, 0)
		}
	}

	// Left flippers sweep by -rotation, right flippers by +rotation, so both
	// lift away from their rest line into the bounding box.
	applied := f.rotation
	if !f.right {
		applied = -f.rotation
	}
	restLine := geometry.NewSegment(f.pivot, f.pos.Plus(rest))
	f.line = geometry.RotateSegment(restLine, f.pivot, applied)
	f.ends = [2]geometry.Circle{
		geometry.NewCircle(f.line.P1, 0),
		geometry.NewCircle(f.line.P2, 0),
	}
}

func (f *Flipper) Name() string { return f.name }

// Right reports the handedness.
func (f *Flipper) Right() bool { return f.right }

// Location returns the top-left corner of the 2x2 bounding box.
func (f *Flipper) Location() geometry.Vector { return f.pos }

// Rotation returns the sweep progress in [0, 90] degrees.
func (f *Flipper) Rotation() geometry.Angle { return f.rotation }

// Flipping reports whether the flipper is between its endpoint states.
func (f *Flipper) Flipping() bool { return f.flipping }

// Line returns the flipper's current arm segment.
func (f *Flipper) Line() geometry.Segment { return f.line }

// Pivot returns the fixed rotation anchor.
func (f *Flipper) Pivot() geometry.Vector { return f.pivot }

// geometricOmega is the angular velocity of the arm's applied angle. Left
// flippers apply -rotation, so a growing rotation turns the arm negatively;
// right flippers shrink rotation by angularVel. Both reduce to the same sign
// flip.
func (f *Flipper) geometricOmega() float64 {
	return -f.angularVel
}

// Flip advances the sweep by dt. A flipper at rest starts moving; one
// crossing an endpoint clamps there, stops, and reverses its angular velocity
// for the next trigger.
func (f *Flipper) Flip(dt float64) *Flipper {
	rot := f.rotation
	if f.right {
		rot -= geometry.Angle(dt * f.angularVel)
	} else {
		rot += geometry.Angle(dt * f.angularVel)
	}

	flipping := true
	vel := f.angularVel
	if rot <= 0 || rot >= geometry.Deg90 {
		flipping = false
		vel = -f.angularVel
		if (!f.right && f.angularVel > 0) || (f.right && f.angularVel < 0) {
			rot = geometry.Deg90
		} else {
			rot = 0
		}
	}
	return newFlipper(f.name, f.right, f.pos, f.orientation, rot, flipping, vel)
}

// TimeToHit returns the time until the ball meets the arm or an endpoint,
// using the rotating primitives while the flipper is moving.
func (f *Flipper) TimeToHit(b Ball, delta float64) float64 {
	min := geometry.Inf
	if f.flipping {
		omega := f.geometricOmega()
		min = geometry.TimeToRotatingSegment(f.line, f.pivot, omega, b.Circle(), b.Vel)
		for _, end := range f.ends {
			if t := geometry.TimeToRotatingCircle(end, f.pivot, omega, b.Circle(), b.Vel); t < min {
				min = t
			}
		}
	} else {
		min = geometry.TimeToSegment(f.line, b.Circle(), b.Vel)
		for _, end := range f.ends {
			if t := geometry.TimeToCircle(end, b.Circle(), b.Vel); t < min {
				min = t
			}
		}
	}
	if min > delta {
		return geometry.Inf
	}
	return min
}

// Resolve reflects the ball off whichever flipper surface is imminent. A
// moving flipper bounces in its rotating frame, so the arm's tangential
// velocity at the contact point carries into the ball, bounded by
// FlipperRestitution.
func (f *Flipper) Resolve(b Ball) Ball {
	if f.flipping {
		omega := f.geometricOmega()
		for _, end := range f.ends {
			if geometry.TimeToRotatingCircle(end, f.pivot, omega, b.Circle(), b.Vel) < geometry.Eps12 {
				v := geometry.ReflectRotatingCircle(end, f.pivot, omega, b.Circle(), b.Vel, FlipperRestitution)
				return b.WithVelocity(v)
			}
		}
		if geometry.TimeToRotatingSegment(f.line, f.pivot, omega, b.Circle(), b.Vel) < geometry.Eps12 {
			v := geometry.ReflectRotatingSegment(f.line, f.pivot, omega, b.Circle(), b.Vel, FlipperRestitution)
			return b.WithVelocity(v)
		}
		return b
	}

	for _, end := range f.ends {
		if geometry.TimeToCircle(end, b.Circle(), b.Vel) < geometry.Eps12 {
			return b.WithVelocity(geometry.ReflectCircle(end.Center, b.Pos, b.Vel))
		}
	}
	if geometry.TimeToSegment(f.line, b.Circle(), b.Vel) < geometry.Eps12 {
		return b.WithVelocity(geometry.ReflectSegment(f.line, b.Vel))
	}
	return b
}

// Rejects reports whether the ball overlaps the flipper's bounding box.
func (f *Flipper) Rejects(b Ball) bool {
	left := f.pos.X - BallRadius
	top := f.pos.Y - BallRadius
	side := float64(FlipperLength) + BallDiameter
	return b.Pos.X >= left && b.Pos.X <= left+side &&
		b.Pos.Y >= top && b.Pos.Y <= top+side
}
