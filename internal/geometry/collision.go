package geometry

import "math"

// The time functions below return the earliest non-negative time at which the
// moving ball first touches the target shape, or +Inf when the approach is
// backwards in time or numerically degenerate. Callers compare the result to
// their remaining frame budget and treat anything larger as "no collision".

// TimeToSegment returns the time until the moving ball touches seg.
func TimeToSegment(seg Segment, ball Circle, vel Vector) float64 {
	d := seg.P2.Minus(seg.P1)
	length := d.Length()
	if length < Eps16 {
		return Inf
	}
	u := d.Times(1 / length)
	n := u.Perp()

	dist := ball.Center.Minus(seg.P1).Dot(n) // signed distance to the line
	vn := vel.Dot(n)

	var t float64
	switch {
	case dist > ball.Radius:
		if vn >= -Eps16 {
			return Inf
		}
		t = (dist - ball.Radius) / -vn
	case dist < -ball.Radius:
		if vn <= Eps16 {
			return Inf
		}
		t = (-dist - ball.Radius) / vn
	default:
		// Already within the slab; the touch counts only while approaching.
		if dist*vn >= 0 {
			return Inf
		}
		t = 0
	}

	hit := ball.Center.Plus(vel.Times(t))
	s := hit.Minus(seg.P1).Dot(u)
	if s < -Eps12 || s > length+Eps12 {
		return Inf
	}
	return t
}

// TimeToCircle returns the time until the moving ball touches the static
// circle. Radius-0 circles model corner points.
func TimeToCircle(c Circle, ball Circle, vel Vector) float64 {
	rsum := c.Radius + ball.Radius
	f := ball.Center.Minus(c.Center)

	a := vel.LengthSquared()
	if a < Eps16 {
		return Inf
	}
	b := 2 * f.Dot(vel)
	q := f.LengthSquared() - rsum*rsum

	disc := b*b - 4*a*q
	if disc < 0 || math.IsNaN(disc) {
		return Inf
	}
	sq := math.Sqrt(disc)
	enter := (-b - sq) / (2 * a)
	exit := (-b + sq) / (2 * a)

	if exit < 0 {
		return Inf
	}
	if enter < 0 {
		// Already overlapping; imminent only while converging.
		if b < 0 {
			return 0
		}
		return Inf
	}
	return enter
}

// TimeToBallBall returns the time until two moving balls touch, computed in
// the rest frame of the second ball.
func TimeToBallBall(a Circle, va Vector, b Circle, vb Vector) float64 {
	return TimeToCircle(b, a, va.Minus(vb))
}

// rotatingStep is the slice width used when sweeping a rotating body for its
// first contact. rotatingHorizon bounds the search; it comfortably exceeds a
// frame budget.
const (
	rotatingStep    = 1e-4
	rotatingHorizon = 5e-2
)

// TimeToRotatingSegment returns the time until the ball touches a segment
// that rotates rigidly about pivot at angular speed omega (radians/s). The
// sweep freezes the segment per rotatingStep-wide time slice and moves the
// ball relative to the segment's surface velocity at the nearest point.
func TimeToRotatingSegment(seg Segment, pivot Vector, omega float64, ball Circle, vel Vector) float64 {
	if math.Abs(omega) < Eps16 {
		return TimeToSegment(seg, ball, vel)
	}
	for t := 0.0; t <= rotatingHorizon; t += rotatingStep {
		frozen := RotateSegment(seg, pivot, Angle(omega*t))
		at := Circle{Center: ball.Center.Plus(vel.Times(t)), Radius: ball.Radius}
		rel := vel.Minus(surfaceVelocity(frozen.ClosestPoint(at.Center), pivot, omega))
		tau := TimeToSegment(frozen, at, rel)
		if tau <= rotatingStep {
			return t + tau
		}
	}
	return Inf
}

// TimeToRotatingCircle is the rotating analogue of TimeToCircle; it covers a
// flipper's endpoint circles.
func TimeToRotatingCircle(c Circle, pivot Vector, omega float64, ball Circle, vel Vector) float64 {
	if math.Abs(omega) < Eps16 {
		return TimeToCircle(c, ball, vel)
	}
	for t := 0.0; t <= rotatingHorizon; t += rotatingStep {
		frozen := RotateCircle(c, pivot, Angle(omega*t))
		at := Circle{Center: ball.Center.Plus(vel.Times(t)), Radius: ball.Radius}
		rel := vel.Minus(surfaceVelocity(frozen.Center, pivot, omega))
		tau := TimeToCircle(frozen, at, rel)
		if tau <= rotatingStep {
			return t + tau
		}
	}
	return Inf
}
