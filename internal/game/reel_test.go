package game

import (
	"math"
	"testing"
	"time"

	"go-fairwheel/internal/config"
)

const spin = 3 * time.Second

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTravelFractionPhaseBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		want    float64
	}{
		{name: "Start", elapsed: 0, want: 0},
		{name: "EaseInEnd", elapsed: 500 * time.Millisecond, want: 0.2},
		{name: "LinearMid", elapsed: time.Second, want: 0.5},
		{name: "LinearEnd", elapsed: 1500 * time.Millisecond, want: 0.8},
		{name: "End", elapsed: spin, want: 1},
		{name: "PastEnd", elapsed: 5 * time.Second, want: 1},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := TravelFraction(tc.elapsed, spin)
			if !almostEqual(got, tc.want) {
				t.Errorf("unexpected fraction, want: %f, got: %f", tc.want, got)
			}
		})
	}
}

func TestTravelFractionMonotone(t *testing.T) {
	t.Parallel()

	prev := -1.0

	for ms := 0; ms <= 3000; ms += 10 {
		f := TravelFraction(time.Duration(ms)*time.Millisecond, spin)

		if f < prev {
			t.Fatalf("fraction decreased at %dms: %f < %f", ms, f, prev)
		}
		if f < 0 || f > 1 {
			t.Fatalf("fraction out of range at %dms: %f", ms, f)
		}

		prev = f
	}
}

func TestReelPositionCentersWinningTile(t *testing.T) {
	t.Parallel()

	for pos := 0; pos < config.WheelSize; pos++ {
		offset := ReelPosition(pos)

		// The tile under the marker is the one whose center lands on the
		// reference midpoint after the offset is applied.
		markerOnStrip := float64(config.ReferenceWidth)/2 - offset
		tileIndex := int(markerOnStrip) / config.TileWidth

		if tileIndex%config.WheelSize != pos {
			t.Errorf("position %d: marker over tile %d", pos, tileIndex%config.WheelSize)
		}

		centerWithinTile := markerOnStrip - float64(tileIndex*config.TileWidth)
		if !almostEqual(centerWithinTile, float64(config.TileWidth)/2) {
			t.Errorf("position %d: tile not centered, off by %f", pos, centerWithinTile)
		}
	}
}

func TestPositionAtEndpoints(t *testing.T) {
	t.Parallel()

	start, target := 0.0, ReelPosition(3)

	if got := PositionAt(start, target, 0, spin); !almostEqual(got, start) {
		t.Errorf("unexpected start position: %f", got)
	}

	if got := PositionAt(start, target, spin, spin); !almostEqual(got, target) {
		t.Errorf("unexpected end position, want: %f, got: %f", target, got)
	}
}

func TestTranslateForContainer(t *testing.T) {
	cases := []struct {
		name  string
		width float64
		want  float64
	}{
		{name: "ReferenceWidth", width: 1000, want: ReelPosition(0)},
		{name: "Narrower", width: 500, want: ReelPosition(0) - 250},
		{name: "Wider", width: 1400, want: ReelPosition(0) + 200},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := TranslateForContainer(ReelPosition(0), tc.width); !almostEqual(got, tc.want) {
				t.Errorf("unexpected translation, want: %f, got: %f", tc.want, got)
			}
		})
	}
}

func TestEnsureBackwardTravelKeepsSlotAlignment(t *testing.T) {
	t.Parallel()

	target := ReelPosition(9)
	current := -12345.0

	adjusted := EnsureBackwardTravel(target, current, 2)

	if adjusted > current-float64(2*FullRotation) {
		t.Errorf("target not far enough behind current: %f vs %f", adjusted, current)
	}

	diff := target - adjusted
	if rem := math.Mod(diff, float64(FullRotation)); !almostEqual(rem, 0) {
		t.Errorf("adjustment is not a whole number of rotations: %f", rem)
	}
}
