package geometry

// ReflectSegment reflects a velocity specularly about the segment's normal.
func ReflectSegment(seg Segment, v Vector) Vector {
	n := seg.Normal()
	if n.IsZero() {
		return v
	}
	return v.Minus(n.Times(2 * v.Dot(n)))
}

// ReflectCircle reflects a velocity about the line joining the circle center
// and the ball center.
func ReflectCircle(center, ballPos Vector, v Vector) Vector {
	n := ballPos.Minus(center).Normalize()
	if n.IsZero() {
		return v
	}
	return v.Minus(n.Times(2 * v.Dot(n)))
}

// ReflectBalls resolves an equal-mass elastic collision between two balls by
// exchanging the velocity components along the center-to-center line.
func ReflectBalls(p1, v1, p2, v2 Vector) (Vector, Vector) {
	n := p2.Minus(p1).Normalize()
	if n.IsZero() {
		return v1, v2
	}
	a := v1.Dot(n)
	b := v2.Dot(n)
	return v1.Plus(n.Times(b - a)), v2.Plus(n.Times(a - b))
}

// surfaceVelocity is the instantaneous velocity of a point on a body rotating
// about pivot at angular speed omega.
func surfaceVelocity(p, pivot Vector, omega float64) Vector {
	return p.Minus(pivot).Perp().Times(omega)
}

// ReflectRotatingSegment reflects a ball off a rotating segment. The bounce
// happens in the wall's moving frame, so the wall's tangential velocity at
// the contact point is injected into the ball, scaled by the restitution k.
func ReflectRotatingSegment(seg Segment, pivot Vector, omega float64, ball Circle, v Vector, k float64) Vector {
	contact := seg.ClosestPoint(ball.Center)
	wall := surfaceVelocity(contact, pivot, omega)

	n := seg.Normal()
	if n.IsZero() {
		return v
	}
	rel := v.Minus(wall)
	rel = rel.Minus(n.Times((1 + k) * rel.Dot(n)))
	return rel.Plus(wall)
}

// ReflectRotatingCircle is the rotating analogue of ReflectCircle for a
// flipper's endpoint circles.
func ReflectRotatingCircle(c Circle, pivot Vector, omega float64, ball Circle, v Vector, k float64) Vector {
	n := ball.Center.Minus(c.Center).Normalize()
	if n.IsZero() {
		return v
	}
	contact := c.Center.Plus(n.Times(c.Radius))
	wall := surfaceVelocity(contact, pivot, omega)

	rel := v.Minus(wall)
	rel = rel.Minus(n.Times((1 + k) * rel.Dot(n)))
	return rel.Plus(wall)
}
