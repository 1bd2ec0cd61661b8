package estimate

import (
	"math"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		items      []Item
		wantSum    float64
		wantBuffer float64
		wantTotal  float64
	}{
		{
			name:    "empty document",
			items:   nil,
			wantSum: 0, wantBuffer: 0, wantTotal: 0,
		},
		{
			name: "four items of 100",
			items: []Item{
				{Value: 100, Quantity: 1},
				{Value: 100, Quantity: 1},
				{Value: 100, Quantity: 1},
				{Value: 100, Quantity: 1},
			},
			wantSum: 400, wantBuffer: 200, wantTotal: 600,
		},
		{
			name: "two items of 1",
			items: []Item{
				{Value: 1, Quantity: 1},
				{Value: 1, Quantity: 1},
			},
			wantSum:    2,
			wantBuffer: 2 / math.Sqrt(2),
			wantTotal:  2 + 2/math.Sqrt(2),
		},
		{
			name: "quantity does not change the document sum",
			items: []Item{
				{Value: 50, Quantity: 10},
			},
			wantSum: 50, wantBuffer: 50, wantTotal: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.items)
			if math.Abs(got.Sum-tt.wantSum) > 1e-9 {
				t.Errorf("Sum = %v, want %v", got.Sum, tt.wantSum)
			}
			if math.Abs(got.Buffer-tt.wantBuffer) > 1e-9 {
				t.Errorf("Buffer = %v, want %v", got.Buffer, tt.wantBuffer)
			}
			if math.Abs(got.Total-tt.wantTotal) > 1e-9 {
				t.Errorf("Total = %v, want %v", got.Total, tt.wantTotal)
			}
		})
	}
}

func TestSummarizeActuals(t *testing.T) {
	items := []Item{
		{Value: 100, Quantity: 1, Actual: intPtr(80)},
		{Value: 100, Quantity: 1},
		{Value: 100, Quantity: 1, Actual: intPtr(40)},
		{Value: 100, Quantity: 1},
	}
	s := Summarize(items)

	if s.ActualSum != 120 {
		t.Errorf("ActualSum = %v, want 120 (absent actuals contribute 0)", s.ActualSum)
	}
	// total = 600, health = 120/600
	if math.Abs(s.BufferHealth-0.2) > 1e-9 {
		t.Errorf("BufferHealth = %v, want 0.2", s.BufferHealth)
	}
}

func TestSummarizeHealthZeroTotal(t *testing.T) {
	s := Summarize(nil)
	if s.BufferHealth != 0 {
		t.Errorf("BufferHealth = %v, want 0 when total is 0", s.BufferHealth)
	}
}

func TestItemTotal(t *testing.T) {
	if got := ItemTotal(100, 3); got != 300 {
		t.Errorf("ItemTotal(100, 3) = %d, want 300", got)
	}
	if got := ItemTotal(0, 5); got != 0 {
		t.Errorf("ItemTotal(0, 5) = %d, want 0", got)
	}
}

func TestHealthBand(t *testing.T) {
	tests := []struct {
		health float64
		want   string
	}{
		{0, BandHealthy},
		{0.79, BandHealthy},
		{0.8, BandWarning},
		{0.99, BandWarning},
		{1.0, BandDanger},
		{1.5, BandDanger},
	}
	for _, tt := range tests {
		if got := HealthBand(tt.health); got != tt.want {
			t.Errorf("HealthBand(%v) = %s, want %s", tt.health, got, tt.want)
		}
	}
}
