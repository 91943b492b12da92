package config

type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

func (c Color) Valid() bool {
	switch c {
	case Green, Red, Black:
		return true
	}

	return false
}

// WheelSlot is one of the fifteen fixed sectors on the wheel.
type WheelSlot struct {
	SlotNumber int   `json:"slot_number"`
	Color      Color `json:"color"`
	Multiplier int64 `json:"multiplier"`
}

const WheelSize = 15

// WheelOrder is the visual order of sectors on the reel strip. The resolver
// indexes into this array by position, the reel protocol by adjacency.
// Changing the order invalidates every stored reel_position.
var WheelOrder = [WheelSize]WheelSlot{
	{SlotNumber: 1, Color: Red, Multiplier: 2},
	{SlotNumber: 8, Color: Black, Multiplier: 2},
	{SlotNumber: 2, Color: Red, Multiplier: 2},
	{SlotNumber: 9, Color: Black, Multiplier: 2},
	{SlotNumber: 3, Color: Red, Multiplier: 2},
	{SlotNumber: 10, Color: Black, Multiplier: 2},
	{SlotNumber: 4, Color: Red, Multiplier: 2},
	{SlotNumber: 11, Color: Black, Multiplier: 2},
	{SlotNumber: 5, Color: Red, Multiplier: 2},
	{SlotNumber: 12, Color: Black, Multiplier: 2},
	{SlotNumber: 6, Color: Red, Multiplier: 2},
	{SlotNumber: 13, Color: Black, Multiplier: 2},
	{SlotNumber: 7, Color: Red, Multiplier: 2},
	{SlotNumber: 14, Color: Black, Multiplier: 2},
	{SlotNumber: 0, Color: Green, Multiplier: 14},
}

// Reel geometry the server computes reel positions against. Clients with a
// different container width translate by the difference of centers.
const (
	TileWidth      = 100
	ReferenceWidth = 1000
	ExtraRotations = 4
)

func MultiplierFor(color Color) int64 {
	switch color {
	case Green:
		return 14
	case Red, Black:
		return 2
	}

	return 0
}

// SlotAt returns the sector at a wheel-order position in [0, WheelSize).
func SlotAt(pos int) WheelSlot {
	return WheelOrder[pos%WheelSize]
}

// PositionOf returns the wheel-order position of a slot number, or -1.
func PositionOf(slotNumber int) int {
	for i, s := range WheelOrder {
		if s.SlotNumber == slotNumber {
			return i
		}
	}

	return -1
}
