package server

import (
	"errors"
	"testing"
)

func TestDirectionDeltasAreUnitVectors(t *testing.T) {
	cases := []struct {
		dir    Direction
		dx, dy int
	}{
		{DirUpLeft, -1, 0},
		{DirUpRight, 0, -1},
		{DirDownLeft, 0, 1},
		{DirDownRight, 1, 0},
	}
	for _, tc := range cases {
		dx, dy := tc.dir.Delta()
		if dx != tc.dx || dy != tc.dy {
			t.Fatalf("%v.Delta() = (%d,%d), want (%d,%d)", tc.dir, dx, dy, tc.dx, tc.dy)
		}
	}
}

func TestParseDirectionRoundTrip(t *testing.T) {
	for _, name := range []string{"upleft", "upright", "downleft", "downright"} {
		d, err := ParseDirection(name)
		if err != nil {
			t.Fatalf("ParseDirection(%q) = %v", name, err)
		}
		if d.String() != name {
			t.Fatalf("round trip %q -> %q", name, d.String())
		}
	}
	if _, err := ParseDirection("north"); !errors.Is(err, ErrBadDirection) {
		t.Fatalf("ParseDirection(north) = %v, want ErrBadDirection", err)
	}
}

func TestPositionStepDoesNotMutate(t *testing.T) {
	p := Position{RoomID: "alpha", X: 2, Y: 3}
	q := p.Step(DirUpRight)
	if q != (Position{RoomID: "alpha", X: 2, Y: 2}) {
		t.Fatalf("Step = %v, want alpha(2,2)", q)
	}
	if p.X != 2 || p.Y != 3 {
		t.Fatalf("Step mutated the receiver: %v", p)
	}
}
