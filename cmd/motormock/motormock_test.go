package main

import "testing"

func TestFormatSummary(t *testing.T) {
	if s := formatSummary(map[int]float64{}); s != "no frames yet" {
		t.Fatalf("Unexpected empty summary %q", s)
	}
	s := formatSummary(map[int]float64{2: -1, 0: 0.5, 1: 0})
	if s != "m0=+0.500 m1=+0.000 m2=-1.000" {
		t.Fatalf("Unexpected summary %q", s)
	}
}
