package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"go-fairwheel/internal/config"
)

// Outcome is a resolved wheel sector: the position in the visual order and
// the sector itself.
type Outcome struct {
	Position int
	Slot     config.WheelSlot
}

// Resolve maps seed material and a round number to a wheel sector.
//
// The derivation is the public audit contract: any third party holding the
// revealed seed and lotto must be able to reproduce it bit for bit.
//
//	digest = SHA256(server_seed + "-" + lotto + "-" + round_number)
//	p      = uint32(digest hex[:8]) mod 15
func Resolve(serverSeed, lotto string, roundNumber int64) (Outcome, error) {
	const op = "game.outcome.Resolve"

	if serverSeed == "" || lotto == "" {
		return Outcome{}, fmt.Errorf("%s: empty seed material", op)
	}

	input := serverSeed + "-" + lotto + "-" + strconv.FormatInt(roundNumber, 10)

	digest := sha256.Sum256([]byte(input))
	digestHex := hex.EncodeToString(digest[:])

	number, err := strconv.ParseUint(digestHex[:8], 16, 32)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}

	position := int(number % config.WheelSize)

	return Outcome{
		Position: position,
		Slot:     config.SlotAt(position),
	}, nil
}

// HashHex is the commitment function: SHA-256 over the raw value, hex.
func HashHex(value string) string {
	digest := sha256.Sum256([]byte(value))

	return hex.EncodeToString(digest[:])
}
