package eventlog

import "testing"

func TestBufferThreshold(t *testing.T) {
	buf := batchBuffer{limit: 3}

	for i := 0; i < 2; i++ {
		if buf.add(Entry{}) {
			t.Fatalf("threshold reported at %d entries, limit is 3", i+1)
		}
	}
	if !buf.add(Entry{}) {
		t.Fatal("threshold not reported at limit")
	}
}

func TestBufferTakeAllPreservesOrderAndEmpties(t *testing.T) {
	redactor := NewRedactor(nil)
	buf := batchBuffer{limit: 10}
	for _, msg := range []string{"a", "b", "c"} {
		buf.add(newEntry("n", "n", CategoryOperation, redactor, nil, Fields{"message": msg}, nil))
	}

	taken := buf.takeAll()
	if len(taken) != 3 {
		t.Fatalf("takeAll returned %d entries, want 3", len(taken))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got, _ := taken[i].Field("message"); got != want {
			t.Fatalf("entry %d message = %v, want %s", i, got, want)
		}
	}
	if buf.size() != 0 {
		t.Fatalf("buffer not empty after takeAll, size=%d", buf.size())
	}

	// New arrivals land in the fresh buffer without touching the taken batch.
	buf.add(newEntry("n", "n", CategoryOperation, redactor, nil, Fields{"message": "d"}, nil))
	if len(taken) != 3 {
		t.Fatal("taken batch mutated by later enqueue")
	}
	if buf.size() != 1 {
		t.Fatalf("fresh buffer size = %d, want 1", buf.size())
	}
}
