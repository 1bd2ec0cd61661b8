// Package estimate computes the derived figures of an estimation from its
// line items. Everything here is recomputed from scratch on every call so
// broadcast payloads always reflect the exact post-commit state.
package estimate

import "math"

// Item is the minimal view of a line item the engine needs.
type Item struct {
	Value    int
	Quantity int
	Actual   *int
}

// Summary holds the document-level figures.
type Summary struct {
	Sum          float64 `json:"sum"`
	Buffer       float64 `json:"buffer"`
	Total        float64 `json:"total"`
	ActualSum    float64 `json:"actualSum"`
	BufferHealth float64 `json:"bufferHealth"`
}

// Health bands consumers bucket BufferHealth into.
const (
	BandHealthy = "healthy"
	BandWarning = "warning"
	BandDanger  = "danger"
)

// Summarize computes all document-level figures.
//
// sum is the plain sum of item values; quantity multiplies only per-row
// (see ItemTotal). buffer = sum/sqrt(n), 0 for an empty document.
func Summarize(items []Item) Summary {
	var s Summary
	for _, it := range items {
		s.Sum += float64(it.Value)
		if it.Actual != nil {
			s.ActualSum += float64(*it.Actual)
		}
	}
	if n := len(items); n > 0 {
		s.Buffer = s.Sum / math.Sqrt(float64(n))
	}
	s.Total = s.Sum + s.Buffer
	if s.Total > 0 {
		s.BufferHealth = s.ActualSum / s.Total
	}
	return s
}

// ItemTotal is the per-row display total. It is never folded into the
// document-level sum.
func ItemTotal(value, quantity int) int {
	return value * quantity
}

// HealthBand buckets a buffer-health ratio.
func HealthBand(health float64) string {
	switch {
	case health >= 1.0:
		return BandDanger
	case health >= 0.8:
		return BandWarning
	default:
		return BandHealthy
	}
}
