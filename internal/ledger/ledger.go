// Package ledger holds the demerit point arithmetic of the license ledger.
package ledger

import "fmt"

// Apply adds points to the current balance, clamped at ceiling. atMax reports
// whether the new balance has reached the ceiling; it is advisory and does
// not imply any license status change.
func Apply(current, points, ceiling int) (next int, atMax bool) {
	next = current + points
	if next > ceiling {
		next = ceiling
	}
	return next, next >= ceiling
}

// CheckAssessment verifies that assessed points match the catalog's
// canonical value for the violation type.
func CheckAssessment(catalogPoints, assessed int) error {
	if assessed != catalogPoints {
		return fmt.Errorf("points must be %d for this violation type", catalogPoints)
	}
	return nil
}
