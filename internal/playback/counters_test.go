package playback

import "testing"

func TestLatencyWindow_Average(t *testing.T) {
	var w latencyWindow
	if w.average() != 0 {
		t.Errorf("empty window average = %v, want 0", w.average())
	}

	w.add(100)
	w.add(200)
	if got := w.average(); got != 150 {
		t.Errorf("average = %v, want 150", got)
	}
}

func TestLatencyWindow_EvictsOldest(t *testing.T) {
	var w latencyWindow
	for i := 0; i < latencyWindowSize; i++ {
		w.add(100)
	}
	if got := w.average(); got != 100 {
		t.Fatalf("average = %v, want 100", got)
	}

	// The 51st sample pushes out one of the 100ms samples.
	w.add(100 + latencyWindowSize*50)
	want := float64(100*(latencyWindowSize-1)+100+latencyWindowSize*50) / float64(latencyWindowSize)
	if got := w.average(); got != want {
		t.Errorf("average after eviction = %v, want %v", got, want)
	}
	if w.n != latencyWindowSize {
		t.Errorf("window size = %d, want %d", w.n, latencyWindowSize)
	}
}

func TestHistoryBuffer_Bounds(t *testing.T) {
	var h history
	for i := 0; i < historyCap*2; i++ {
		h.append(Snapshot{IntendedPaused: i%2 == 0})
	}
	got := h.list()
	if len(got) != historyCap {
		t.Errorf("list length = %d, want %d", len(got), historyCap)
	}
}
