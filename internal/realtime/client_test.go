package realtime

import (
	"testing"
	"time"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/playback"
)

func TestDispatch_DuplicateStateSyncAnswers(t *testing.T) {
	c := newPlayerClient(nil)

	ch := make(chan playback.StateSyncResult, 1)
	c.pending[7] = ch

	internalPaused := true
	isValid := true
	answer := playerMessage{
		Type:           msgStateSync,
		Seq:            7,
		InternalPaused: &internalPaused,
		IsValid:        &isValid,
	}

	// A misbehaving player answering the same seq twice must not block
	// the read pump on the full channel.
	done := make(chan struct{})
	go func() {
		c.dispatch(answer)
		c.dispatch(answer)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked on a duplicate statesync answer")
	}

	res := <-ch
	if !res.InternalPaused || !res.IsValid {
		t.Errorf("first answer lost: %+v", res)
	}
}

func TestDispatch_StateSyncAnswerAfterTimeout(t *testing.T) {
	c := newPlayerClient(nil)

	// No pending entry for this seq: the querier already timed out and
	// cleaned up. The answer is dropped.
	internalPaused := false
	c.dispatch(playerMessage{Type: msgStateSync, Seq: 99, InternalPaused: &internalPaused})

	if len(c.pending) != 0 {
		t.Errorf("pending map grew on an orphan answer: %d entries", len(c.pending))
	}
}
