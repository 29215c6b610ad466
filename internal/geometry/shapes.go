package geometry

// Circle is a disc with a center and a non-negative radius. A radius-0 circle
// stands in for a corner point so balls reflect smoothly off gadget corners.
type Circle struct {
	Center Vector  `json:"center"`
	Radius float64 `json:"radius"`
}

func NewCircle(center Vector, radius float64) Circle {
	return Circle{Center: center, Radius: radius}
}

// Segment is a line segment between two points. Its normal is two-sided; the
// reflection primitives give the same result for either side.
type Segment struct {
	P1 Vector `json:"p1"`
	P2 Vector `json:"p2"`
}

func NewSegment(p1, p2 Vector) Segment {
	return Segment{P1: p1, P2: p2}
}

func (s Segment) Length() float64 {
	return s.P2.Minus(s.P1).Length()
}

// Direction returns the unit vector from P1 toward P2, or zero for a
// degenerate segment.
func (s Segment) Direction() Vector {
	return s.P2.Minus(s.P1).Normalize()
}

// Normal returns a unit normal of the segment. Which of the two sides it
// faces is unspecified; callers that care use the sign of a dot product.
func (s Segment) Normal() Vector {
	return s.Direction().Perp()
}

// ClosestPoint returns the point on the segment nearest to p.
func (s Segment) ClosestPoint(p Vector) Vector {
	d := s.P2.Minus(s.P1)
	lenSq := d.LengthSquared()
	if lenSq < Eps16 {
		return s.P1
	}
	t := p.Minus(s.P1).Dot(d) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.P1.Plus(d.Times(t))
}

// RotateCircle rotates a circle rigidly about pivot.
func RotateCircle(c Circle, pivot Vector, by Angle) Circle {
	return Circle{Center: RotateAround(c.Center, pivot, by), Radius: c.Radius}
}

// RotateSegment rotates a segment rigidly about pivot.
func RotateSegment(s Segment, pivot Vector, by Angle) Segment {
	return Segment{
		P1: RotateAround(s.P1, pivot, by),
		P2: RotateAround(s.P2, pivot, by),
	}
}
