package daily

import (
	"testing"
	"time"
)

func TestTargetIDDeterministic(t *testing.T) {
	morning := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	if TargetID(morning, "salt", 16726) != TargetID(evening, "salt", 16726) {
		t.Fatal("same UTC day must map to the same target")
	}

	seen := map[int]bool{}
	for d := 0; d < 30; d++ {
		id := TargetID(morning.AddDate(0, 0, d), "salt", 16726)
		if id < 0 || id >= 16726 {
			t.Fatalf("id %d out of range", id)
		}
		seen[id] = true
	}
	if len(seen) < 25 {
		t.Fatalf("expected mostly distinct ids over 30 days, got %d", len(seen))
	}
}

func TestTargetIDDependsOnSalt(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if TargetID(day, "a", 1<<30) == TargetID(day, "b", 1<<30) {
		t.Fatal("different salts should produce different ids")
	}
	if TargetID(day, "a", 0) != 0 {
		t.Fatal("empty corpus must yield 0")
	}
}

func TestPickerSteps(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := TargetID(day, "salt", 10)
	p := Picker(day, "salt", 10)
	for i := 0; i < 12; i++ {
		if got, want := p(), (first+i)%10; got != want {
			t.Fatalf("pick %d = %d, want %d", i, got, want)
		}
	}
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	if got := DateKey(time.Date(2024, 5, 2, 5, 0, 0, 0, loc)); got != "2024-05-01" {
		t.Fatalf("DateKey = %q", got)
	}
}
