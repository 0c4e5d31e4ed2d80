package chance

import "testing"

func TestNewIsDeterministicPerSeed(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("expected identical sequences for identical seeds")
		}
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	src := New(7)
	items := []int{1, 2, 3, 4, 5}
	for i := 0; i < 50; i++ {
		got := Sample(src, items, 3)
		if len(got) != 3 {
			t.Fatalf("expected 3 items, got %d", len(got))
		}
		seen := map[int]bool{}
		for _, v := range got {
			if seen[v] {
				t.Fatalf("duplicate %d in %v", v, got)
			}
			seen[v] = true
		}
	}
	if items[0] != 1 || items[4] != 5 {
		t.Errorf("input modified: %v", items)
	}
}

func TestSampleCapsAtLength(t *testing.T) {
	if got := Sample(New(1), []string{"a"}, 2); len(got) != 1 {
		t.Errorf("expected 1 item, got %v", got)
	}
	if got := Sample(New(1), []string(nil), 2); len(got) != 0 {
		t.Errorf("expected no items, got %v", got)
	}
}

func TestNewSeed(t *testing.T) {
	if _, err := NewSeed(); err != nil {
		t.Fatalf("new seed: %v", err)
	}
}
