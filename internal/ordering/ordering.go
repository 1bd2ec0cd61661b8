// Package ordering assigns sparse fractional order keys to estimation items
// so moving an item between two neighbors never renumbers other rows.
package ordering

// NextKey returns the key for an item appended at the end of a document.
func NextKey(maxKey float64, hasItems bool) float64 {
	if !hasItems {
		return 1.0
	}
	return maxKey + 1.0
}

// Midpoint returns a key strictly between two neighbors. A nil prev defaults
// to 0, a nil next defaults to prev+2, so a move to either end still bisects.
//
// Repeated bisection at the same spot eventually exhausts float64 precision;
// that boundary is accepted and there is no renumbering fallback.
func Midpoint(prev, next *float64) float64 {
	p := 0.0
	if prev != nil {
		p = *prev
	}
	n := p + 2
	if next != nil {
		n = *next
	}
	return (p + n) / 2
}
