package event

import "sync"

// RoundSequencer stamps every message for a round with the next sequence
// number before handing it to the underlying transport. One sequencer per
// wheel, matching the single-writer scheduler.
type RoundSequencer struct {
	broadcaster Broadcaster
	mu          sync.Mutex
	next        map[int64]int64
}

func NewRoundSequencer(broadcaster Broadcaster) *RoundSequencer {
	return &RoundSequencer{
		broadcaster: broadcaster,
		next:        make(map[int64]int64),
	}
}

// TriggerRound stamps and sends under one mutex hold, so the order the
// transport sees is exactly the stamp order. A failed send still consumes
// its seq: consumers may observe gaps, never inversions.
func (s *RoundSequencer) TriggerRound(roundID int64, channel, eventName string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.next[roundID]
	s.next[roundID] = seq + 1

	return s.broadcaster.TriggerEvent(Message{
		Channel: channel,
		Event:   eventName,
		Seq:     seq,
		Data:    data,
	})
}

// DropRound releases the counter once a round is archived.
func (s *RoundSequencer) DropRound(roundID int64) {
	s.mu.Lock()
	delete(s.next, roundID)
	s.mu.Unlock()
}
