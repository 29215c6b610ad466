package board

import (
	"fmt"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

// L is the side length of the square playfield in board units.
const L = 20

// Wall identifies one of the four playfield borders.
type Wall int

const (
	WallLeft Wall = iota
	WallRight
	WallTop
	WallBottom
)

var wallNames = [...]string{"left", "right", "top", "bottom"}

func (w Wall) String() string {
	if w < WallLeft || w > WallBottom {
		return fmt.Sprintf("Wall(%d)", int(w))
	}
	return wallNames[w]
}

// ParseWall maps a protocol wall token to a Wall.
func ParseWall(s string) (Wall, error) {
	for i, name := range wallNames {
		if s == name {
			return Wall(i), nil
		}
	}
	return 0, fmt.Errorf("board: unknown wall %q", s)
}

// Opposite returns the wall across the playfield from w: a neighbor joined on
// this board's w wall has this board on its Opposite(w) wall.
func (w Wall) Opposite() Wall {
	switch w {
	case WallLeft:
		return WallRight
	case WallRight:
		return WallLeft
	case WallTop:
		return WallBottom
	default:
		return WallTop
	}
}

// Segment returns the border segment for the wall.
func (w Wall) Segment() geometry.Segment {
	return wallSegments[w]
}

var wallSegments = [...]geometry.Segment{
	WallLeft:   geometry.NewSegment(geometry.NewVector(0, 0), geometry.NewVector(0, L)),
	WallRight:  geometry.NewSegment(geometry.NewVector(L, 0), geometry.NewVector(L, L)),
	WallTop:    geometry.NewSegment(geometry.NewVector(0, 0), geometry.NewVector(L, 0)),
	WallBottom: geometry.NewSegment(geometry.NewVector(0, L), geometry.NewVector(L, L)),
}

// walls enumerates the borders in tie-break order for the collision scan.
var walls = [...]Wall{WallLeft, WallRight, WallTop, WallBottom}
