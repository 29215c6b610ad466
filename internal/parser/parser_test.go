package parser

import (
	"strings"
	"testing"

	"github.com/ajgaidis/multiplayer-networked-pinball/internal/board"
	"github.com/ajgaidis/multiplayer-networked-pinball/internal/geometry"
)

const sampleBoard = `
# a small test board
board name=Sample gravity=20.0 friction1=0.02 friction2=0.03

ball name=BallA x=1.25 y=1.25 xVelocity=0 yVelocity=0
ball name=BallB x=5.5 y=5.5 xVelocity=3 yVelocity=-2

squareBumper name=Square x=0 y=17
circleBumper name=Circle x=4 y=3
triangleBumper name=Tri x=19 y=0 orientation=90

# fire may forward-reference Abs
fire trigger=Square action=Abs
absorber name=Abs x=0 y=19 width=20 height=1

leftFlipper name=FlipL x=10 y=7
rightFlipper name=FlipR x=12 y=7 orientation=180

portal name=Alpha x=5 y=7 otherBoard=Mercury otherPortal=Beta
portal name=Gamma x=15 y=7 otherPortal=Delta
portal name=Delta x=17 y=7 otherPortal=Gamma

keydown key=space action=Abs
keyup key=left action=FlipL
`

func TestParseSampleBoard(t *testing.T) {
	bd, err := Parse(strings.NewReader(sampleBoard))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bd.Name() != "Sample" {
		t.Errorf("name = %q", bd.Name())
	}
	if got := len(bd.Balls()); got != 2 {
		t.Errorf("balls = %d, want 2", got)
	}

	snap := bd.Snapshot()
	types := map[string]int{}
	for _, g := range snap.Static {
		types[g.Type]++
	}
	if types["squareBumper"] != 1 || types["circleBumper"] != 1 || types["triangleBumper"] != 1 {
		t.Errorf("bumper counts wrong: %v", types)
	}
	if types["absorber"] != 1 || types["portal"] != 3 {
		t.Errorf("gadget counts wrong: %v", types)
	}
	if len(snap.Flipper) != 2 {
		t.Errorf("flippers = %d, want 2", len(snap.Flipper))
	}

	if kbs := bd.KeyBindings(); len(kbs) != 2 || kbs[0].Event != "keydown" || kbs[0].Key != "space" {
		t.Errorf("key bindings wrong: %v", kbs)
	}
}

func TestParseForwardReferencedFire(t *testing.T) {
	bd, err := Parse(strings.NewReader(sampleBoard))
	if err != nil {
		t.Fatal(err)
	}
	// The fire Square->Abs line preceded the absorber; Parse must accept it
	// (the first-pass miss is parked, not an error). Firing the absorber by
	// name with its queue still empty must leave the balls untouched.
	bd.TriggerByName("Abs") // empty queue: no-op, must not panic
	if got := len(bd.Balls()); got != 2 {
		t.Errorf("TriggerByName on empty absorber changed balls: %d", got)
	}
}

func TestParseDefaults(t *testing.T) {
	bd, err := Parse(strings.NewReader("board name=Plain\n"))
	if err != nil {
		t.Fatal(err)
	}
	if bd.Name() != "Plain" {
		t.Errorf("name = %q", bd.Name())
	}
	// Defaults are observable through free fall: gravity 25 pulls a ball
	// down while friction bleeds horizontal speed.
	if err := bd.AddBall(board.NewBall("b", geometry.NewVector(5, 5), geometry.NewVector(10, 0))); err != nil {
		t.Fatal(err)
	}
	bd.Update(0.02)
	bd.ApplyFrictionGravity(0.02)
	b := bd.Balls()[0]
	if b.Vel.Y <= 0 {
		t.Errorf("default gravity missing: %v", b.Vel)
	}
	if b.Vel.X >= 10 {
		t.Errorf("default friction missing: %v", b.Vel)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing board line":   "ball name=b x=5 y=5 xVelocity=0 yVelocity=0\n",
		"unknown declaration":  "board name=B\nwidget name=w x=1 y=1\n",
		"malformed token":      "board name=B\nball name=b x=5 y 5\n",
		"bad number":           "board name=B\nball name=b x=five y=5 xVelocity=0 yVelocity=0\n",
		"duplicate name":       "board name=B\nsquareBumper name=s x=1 y=1\nsquareBumper name=s x=2 y=2\n",
		"absorber too large":   "board name=B\nabsorber name=a x=15 y=15 width=10 height=2\n",
		"bad orientation":      "board name=B\ntriangleBumper name=t x=1 y=1 orientation=45\n",
		"ball out of field":    "board name=B\nball name=b x=30 y=5 xVelocity=0 yVelocity=0\n",
		"portal missing peer":  "board name=B\nportal name=p x=3 y=3\n",
		"duplicate board line": "board name=B\nboard name=C\n",
	}
	for what, input := range cases {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("%s: Parse should fail", what)
		}
	}
}

func TestParseDroppedUnresolvedFire(t *testing.T) {
	input := "board name=B\nsquareBumper name=s x=1 y=1\nfire trigger=s action=ghost\n"
	if _, err := Parse(strings.NewReader(input)); err != nil {
		t.Errorf("unresolved fire must be dropped silently, got %v", err)
	}
}
