package ordering

import "testing"

func fPtr(v float64) *float64 { return &v }

func TestNextKey(t *testing.T) {
	if got := NextKey(0, false); got != 1.0 {
		t.Errorf("NextKey on empty document = %v, want 1.0", got)
	}
	if got := NextKey(3.5, true); got != 4.5 {
		t.Errorf("NextKey(3.5) = %v, want 4.5", got)
	}
}

func TestMidpoint(t *testing.T) {
	tests := []struct {
		name string
		prev *float64
		next *float64
		want float64
	}{
		{"between two neighbors", fPtr(1), fPtr(2), 1.5},
		{"no predecessor", nil, fPtr(1), 0.5},
		{"no successor", fPtr(4), nil, 5},
		{"empty document", nil, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Midpoint(tt.prev, tt.next); got != tt.want {
				t.Errorf("Midpoint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMidpointBetweenness(t *testing.T) {
	pairs := [][2]float64{{0, 1}, {1, 2}, {2.5, 2.75}, {100, 101}}
	for _, p := range pairs {
		got := Midpoint(&p[0], &p[1])
		if !(p[0] < got && got < p[1]) {
			t.Errorf("Midpoint(%v, %v) = %v, not strictly between", p[0], p[1], got)
		}
	}
}

func TestMidpointRepeatedBisection(t *testing.T) {
	// Keep inserting at the top; each key must stay above 0 and below the
	// previous one until precision runs out.
	upper := 1.0
	for i := 0; i < 50; i++ {
		key := Midpoint(nil, &upper)
		if !(0 < key && key < upper) {
			t.Fatalf("iteration %d: key %v escaped (0, %v)", i, key, upper)
		}
		upper = key
	}
}
