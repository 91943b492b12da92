package event

import (
	"errors"
	"sync"
	"testing"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []Message
	failNext bool
}

func (b *recordingBroadcaster) TriggerEvent(m Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failNext {
		b.failNext = false

		return errors.New("transport down")
	}

	b.messages = append(b.messages, m)

	return nil
}

func (b *recordingBroadcaster) byRound(roundID int64) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []Message
	for _, m := range b.messages {
		if m.Data["round_id"] == roundID {
			matched = append(matched, m)
		}
	}

	return matched
}

func trigger(t *testing.T, s *RoundSequencer, roundID int64, eventName string) {
	t.Helper()

	if err := s.TriggerRound(roundID, "wheel", eventName, map[string]interface{}{"round_id": roundID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSequencerStampsMonotonicPerRound(t *testing.T) {
	t.Parallel()

	transport := &recordingBroadcaster{}
	sequencer := NewRoundSequencer(transport)

	trigger(t, sequencer, 1, "round.betting")
	trigger(t, sequencer, 1, "round.spinning")
	trigger(t, sequencer, 2, "round.betting")
	trigger(t, sequencer, 1, "round.completed")

	for i, m := range transport.byRound(1) {
		if m.Seq != int64(i) {
			t.Errorf("round 1 message %d carries seq %d", i, m.Seq)
		}
	}

	other := transport.byRound(2)
	if len(other) != 1 || other[0].Seq != 0 {
		t.Errorf("rounds must be sequenced independently, got %+v", other)
	}
}

func TestSequencerWireOrderMatchesSeqOrder(t *testing.T) {
	t.Parallel()

	transport := &recordingBroadcaster{}
	sequencer := NewRoundSequencer(transport)

	const sends = 50

	var wg sync.WaitGroup

	for i := 0; i < sends; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = sequencer.TriggerRound(1, "wheel", "bet.placed", map[string]interface{}{"round_id": int64(1)})
		}()
	}

	wg.Wait()

	messages := transport.byRound(1)
	if len(messages) != sends {
		t.Fatalf("expected %d messages, got %d", sends, len(messages))
	}

	// The transport must receive messages in stamp order even under
	// concurrent senders.
	for i, m := range messages {
		if m.Seq != int64(i) {
			t.Fatalf("message %d arrived with seq %d", i, m.Seq)
		}
	}
}

func TestSequencerFailedSendConsumesSeq(t *testing.T) {
	t.Parallel()

	transport := &recordingBroadcaster{}
	sequencer := NewRoundSequencer(transport)

	trigger(t, sequencer, 1, "round.betting")

	transport.failNext = true

	if err := sequencer.TriggerRound(1, "wheel", "bet.placed", map[string]interface{}{"round_id": int64(1)}); err == nil {
		t.Fatal("transport failure must surface")
	}

	trigger(t, sequencer, 1, "round.spinning")

	messages := transport.byRound(1)
	if len(messages) != 2 {
		t.Fatalf("expected 2 delivered messages, got %d", len(messages))
	}

	// Consumers see a gap where the failed send was, never an inversion.
	if messages[1].Seq != 2 {
		t.Errorf("failed send must consume its seq, got %d", messages[1].Seq)
	}
}

func TestSequencerDropRoundResets(t *testing.T) {
	t.Parallel()

	transport := &recordingBroadcaster{}
	sequencer := NewRoundSequencer(transport)

	trigger(t, sequencer, 1, "round.betting")
	trigger(t, sequencer, 1, "round.settled")

	sequencer.DropRound(1)

	trigger(t, sequencer, 1, "round.betting")

	messages := transport.byRound(1)
	if messages[len(messages)-1].Seq != 0 {
		t.Errorf("dropped round must restart at seq 0, got %d", messages[len(messages)-1].Seq)
	}
}
