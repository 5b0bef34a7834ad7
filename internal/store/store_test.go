package store

import (
	"path/filepath"
	"testing"
)

func TestMemoryStore_MissingKeyIsNotAnError(t *testing.T) {
	m := NewMemoryStore()
	_, ok, err := m.Get("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("missing key must report ok=false")
	}
}

func TestRuleRoundTrip(t *testing.T) {
	m := NewMemoryStore()

	rule := AlertRule{
		Symbol:            "TQQQ",
		BasePrice:         52.02,
		ThresholdPercents: []float64{7, 14},
		Enabled:           true,
	}
	if err := SaveRule(m, rule); err != nil {
		t.Fatal(err)
	}

	got, ok, err := LoadRule(m, "TQQQ")
	if err != nil || !ok {
		t.Fatalf("load failed: ok=%v err=%v", ok, err)
	}
	if got.BasePrice != rule.BasePrice || len(got.ThresholdPercents) != 2 || !got.Enabled {
		t.Errorf("rule did not survive the round trip: %+v", got)
	}

	if _, ok, _ := LoadRule(m, "SOXL"); ok {
		t.Error("rule for an unconfigured symbol must be absent")
	}
}

func TestSQLiteStore_SetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Set("k", "v1"); err != nil {
		t.Fatal(err)
	}
	// Upsert overwrites.
	if err := s.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get after upsert: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("deleted key must be absent")
	}
}
