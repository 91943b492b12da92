package game

import (
	"time"

	"go-fairwheel/internal/config"
)

// FullRotation is the strip distance of one complete wheel revolution.
const FullRotation = config.WheelSize * config.TileWidth

// ReelPosition computes the strip offset at which the winning tile sits
// centered under the reference container's marker, ExtraRotations full
// revolutions into the strip. Offsets are negative because travel is
// leftward.
func ReelPosition(position int) float64 {
	tileCenter := float64((config.ExtraRotations*config.WheelSize+position)*config.TileWidth) +
		float64(config.TileWidth)/2

	return -(tileCenter - float64(config.ReferenceWidth)/2)
}

// TravelFraction is the three-phase easing curve over the spin window:
// quadratic ease-in to 20% of the distance in the first sixth of the
// window, linear to 80% by the halfway point, cubic ease-out to 100%.
// It is continuous and monotone, so the animation never stalls or jumps.
func TravelFraction(elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed >= total {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}

	t := elapsed.Seconds()
	d := total.Seconds()

	easeIn := d / 6
	linearEnd := d / 2

	switch {
	case t < easeIn:
		u := t / easeIn

		return 0.2 * u * u
	case t < linearEnd:
		return 0.2 + 0.6*(t-easeIn)/(linearEnd-easeIn)
	default:
		u := (t - linearEnd) / (d - linearEnd)
		inv := 1 - u

		return 0.8 + 0.2*(1-inv*inv*inv)
	}
}

// PositionAt interpolates the strip offset at elapsed time into the spin.
// Pure in all inputs: drive it from any monotonic clock.
func PositionAt(start, target float64, elapsed, total time.Duration) float64 {
	return start + (target-start)*TravelFraction(elapsed, total)
}

// TranslateForContainer shifts a reference-width offset to a container of a
// different width by the difference of the two center marks.
func TranslateForContainer(position, containerWidth float64) float64 {
	return position + (containerWidth-float64(config.ReferenceWidth))/2
}

// EnsureBackwardTravel moves the target earlier by whole rotations until it
// lies at least minRotations behind the current offset. Whole-rotation
// shifts keep the centered slot unchanged; only the visual distance grows.
func EnsureBackwardTravel(target, current float64, minRotations int) float64 {
	for target > current-float64(minRotations*FullRotation) {
		target -= FullRotation
	}

	return target
}
