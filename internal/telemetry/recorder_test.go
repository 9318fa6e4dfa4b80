package telemetry

import "testing"

func TestAppendAndLen(t *testing.T) {
	r := NewRecorder(10)
	for i := 0; i < 5; i++ {
		if err := r.Append(float64(i) * 0.1); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if r.Len() != i+1 {
			t.Fatalf("len = %d after %d appends", r.Len(), i+1)
		}
	}
}

func TestSamplesChronological(t *testing.T) {
	r := NewRecorder(3)
	_ = r.Append(0.1)
	_ = r.Append(0.2)
	_ = r.Append(0.3)
	got := r.Samples()
	want := []float64{0.1, 0.2, 0.3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFreezeRefusesAppend(t *testing.T) {
	r := NewRecorder(2)
	_ = r.Append(0.1)
	r.Freeze()
	if !r.Frozen() {
		t.Fatal("recorder should report frozen")
	}
	if err := r.Append(0.2); err == nil {
		t.Fatal("append to frozen trace must be refused")
	}
	if r.Len() != 1 {
		t.Fatalf("frozen trace mutated: len = %d", r.Len())
	}
}

func TestSamplesReturnsCopy(t *testing.T) {
	r := NewRecorder(2)
	_ = r.Append(0.5)
	got := r.Samples()
	got[0] = 99
	if r.Samples()[0] != 0.5 {
		t.Fatal("caller mutated the recorded trace through Samples")
	}
}

func TestResetClearsAndUnfreezes(t *testing.T) {
	r := NewRecorder(2)
	_ = r.Append(0.1)
	r.Freeze()
	r.Reset(4)
	if r.Len() != 0 || r.Frozen() {
		t.Fatalf("reset did not clear: len=%d frozen=%v", r.Len(), r.Frozen())
	}
	if err := r.Append(0.2); err != nil {
		t.Fatalf("append after reset: %v", err)
	}
}
