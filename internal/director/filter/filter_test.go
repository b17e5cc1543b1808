package filter

import (
	"testing"
	"time"
)

func TestParseBeatFilterEmpty(t *testing.T) {
	cond, err := ParseBeatFilter("   ")
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if cond.Clause != "" || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseBeatFilterComparison(t *testing.T) {
	cond, err := ParseBeatFilter(`type = "comeback"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "beat_type = ?" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	if len(cond.Params) != 1 || cond.Params[0] != "comeback" {
		t.Fatalf("params = %v", cond.Params)
	}
}

func TestParseBeatFilterLogical(t *testing.T) {
	cond, err := ParseBeatFilter(`phase = "climax" AND week >= 3`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(phase = ? AND week_number >= ?)" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	if len(cond.Params) != 2 {
		t.Fatalf("params = %v", cond.Params)
	}
}

func TestParseBeatFilterTimestamp(t *testing.T) {
	cond, err := ParseBeatFilter(`ts > timestamp("2026-03-01T00:00:00Z")`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "occurred_at > ?" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if len(cond.Params) != 1 || cond.Params[0] != want {
		t.Fatalf("params = %v, want %d", cond.Params, want)
	}
}

func TestParseBeatFilterUnknownField(t *testing.T) {
	if _, err := ParseBeatFilter(`mood = "tense"`); err == nil {
		t.Fatal("expected error for undeclared field")
	}
}

func TestParseStallFilter(t *testing.T) {
	cond, err := ParseStallFilter(`severity = "high" OR duration_hours > 48`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(severity = ? OR duration_hours > ?)" {
		t.Fatalf("clause = %q", cond.Clause)
	}
}
