package stats

import (
	"testing"
	"time"
)

func TestWindowSnapshotPercentiles(t *testing.T) {
	w := NewWindow(time.Hour)
	for i := 1; i <= 5; i++ {
		w.Record(Outcome{Duration: time.Duration(i*100) * time.Microsecond, Headings: i, Changed: i%2 == 0})
	}
	w.Record(Outcome{Failed: true})

	snap := w.Snapshot()
	if snap.Count != 6 {
		t.Fatalf("expected count=6, got %d", snap.Count)
	}
	if snap.MinUs != 0 {
		t.Errorf("expected min=0, got %d", snap.MinUs)
	}
	if snap.MaxUs != 500 {
		t.Errorf("expected max=500, got %d", snap.MaxUs)
	}
	if snap.AvgUs != 250 {
		t.Errorf("expected avg=250, got %f", snap.AvgUs)
	}
	if snap.P50Us != 250 {
		t.Errorf("expected p50=250, got %f", snap.P50Us)
	}
	if snap.Headings != 15 || snap.Changed != 2 || snap.Failed != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
}

func TestWindowPrunesOldSamples(t *testing.T) {
	now := time.Now()
	w := NewWindow(time.Minute)
	w.now = func() time.Time { return now }
	w.Record(Outcome{Duration: time.Millisecond})

	now = now.Add(2 * time.Minute)
	w.Record(Outcome{Duration: 2 * time.Millisecond})

	snap := w.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 after pruning, got %d", snap.Count)
	}
	if snap.MinUs != 2000 {
		t.Errorf("expected remaining sample 2000us, got %d", snap.MinUs)
	}
}

func TestWindowEmpty(t *testing.T) {
	if snap := NewWindow(0).Snapshot(); snap.Count != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestPercentileEdges(t *testing.T) {
	values := []int64{10, 20, 30}
	if got := percentile(values, 0); got != 10 {
		t.Errorf("expected 10, got %f", got)
	}
	if got := percentile(values, 100); got != 30 {
		t.Errorf("expected 30, got %f", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}
