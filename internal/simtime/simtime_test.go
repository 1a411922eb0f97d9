package simtime

import "testing"

func TestParseRoundTrip(t *testing.T) {
	ts, err := Parse("2024-03-01 00:00:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := ts.String(); got != "2024-03-01 00:00:00" {
		t.Fatalf("String() = %q, want unchanged round trip", got)
	}
}

func TestSequence(t *testing.T) {
	start, _ := Parse("2024-03-01 00:00:00")
	end, _ := Parse("2024-03-01 00:01:40")
	n, err := Sequence(start, end, 1)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if n != 100 {
		t.Fatalf("n = %d, want 100", n)
	}
}

func TestSequenceRejectsNonPositiveDelta(t *testing.T) {
	start, _ := Parse("2024-03-01 00:00:00")
	end, _ := Parse("2024-03-01 00:01:00")
	if _, err := Sequence(start, end, 0); err == nil {
		t.Fatalf("expected error for zero delta")
	}
	if _, err := Sequence(end, start, 1); err == nil {
		t.Fatalf("expected error when end before start")
	}
}

func TestStepAdvancesLockstep(t *testing.T) {
	start, _ := Parse("2024-03-01 00:00:00")
	s10 := Step(start, 0.5, 10)
	if got := s10.SinceSeconds(start); got != 5 {
		t.Fatalf("Step offset = %v, want 5", got)
	}
}
