package model

import "time"

// DailySeed is the commit material for one 24h window of rounds. The raw
// seed and lotto stay server-side until RevealedAt passes; only the hashes
// are ever serialized before that.
type DailySeed struct {
	ID             int64      `json:"id"`
	Date           time.Time  `json:"date"`
	ServerSeed     string     `json:"-"`
	ServerSeedHash string     `json:"server_seed_hash"`
	Lotto          string     `json:"-"`
	LottoHash      string     `json:"lotto_hash"`
	RevealedAt     *time.Time `json:"revealed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Revealed reports whether the raw seed material may be disclosed at now.
func (s *DailySeed) Revealed(now time.Time) bool {
	return s.RevealedAt != nil && !s.RevealedAt.After(now)
}
