package board

import (
	"math"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

const (
	// BallRadius is the radius of every ball in board units.
	BallRadius = 0.25
	// BallDiameter is twice BallRadius.
	BallDiameter = 0.5
	// MaxBallSpeed bounds the velocity magnitude of any ball.
	MaxBallSpeed = 500
)

// Ball is an immutable ball value. The board replaces ball values wholesale
// each simulation step rather than mutating them in place.
type Ball struct {
	Name string
	Pos  geometry.Vector // center
	Vel  geometry.Vector
}

// NewBall builds a ball, clamping the velocity magnitude to MaxBallSpeed.
func NewBall(name string, pos, vel geometry.Vector) Ball {
	return Ball{Name: name, Pos: pos, Vel: clampSpeed(vel)}
}

func clampSpeed(v geometry.Vector) geometry.Vector {
	speed := v.Length()
	if speed > MaxBallSpeed {
		return v.Times(MaxBallSpeed / speed)
	}
	return v
}

// Circle returns the ball's disc.
func (b Ball) Circle() geometry.Circle {
	return geometry.NewCircle(b.Pos, BallRadius)
}

// Advance returns the ball moved along its velocity for dt seconds.
func (b Ball) Advance(dt float64) Ball {
	return Ball{Name: b.Name, Pos: b.Pos.Plus(b.Vel.Times(dt)), Vel: b.Vel}
}

// WithVelocity returns the ball with a replacement velocity.
func (b Ball) WithVelocity(v geometry.Vector) Ball {
	return Ball{Name: b.Name, Pos: b.Pos, Vel: clampSpeed(v)}
}

// Integrate applies friction and gravity over dt:
//
//	v <- v * max(0, 1 - mu1*dt - mu2*|v|*dt) + (0, g*dt)
func (b Ball) Integrate(dt, gravity, mu1, mu2 float64) Ball {
	speed := b.Vel.Length()
	scale := 1 - mu1*dt - mu2*speed*dt
	if scale < 0 || math.IsNaN(scale) {
		scale = 0
	}
	v := b.Vel.Times(scale).Plus(geometry.NewVector(0, gravity*dt))
	return b.WithVelocity(v)
}

// TimeToHit returns the time until this ball touches other, or +Inf when the
// contact falls outside the foresight window.
func (b Ball) TimeToHit(other Ball, delta float64) float64 {
	t := geometry.TimeToBallBall(b.Circle(), b.Vel, other.Circle(), other.Vel)
	if t > delta {
		return geometry.Inf
	}
	return t
}

// Rejects reports whether placing other at its current position would overlap
// this ball; teleport hand-offs refuse such placements.
func (b Ball) Rejects(other Ball) bool {
	return geometry.DistanceSquared(b.Pos, other.Pos) < BallDiameter*BallDiameter
}
