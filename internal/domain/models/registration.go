package models

import (
	"time"

	"domainreg/pkg/timeutil"
)

// MaxRegistrationYears caps how far in the future an expiration may be.
const MaxRegistrationYears = 10

// ExtendRegistrationWithCap adds years to currentExpiration without going past
// now plus the maximum registration length, and never moves it backwards.
func ExtendRegistrationWithCap(now, currentExpiration time.Time, years int) time.Time {
	maxExpiration := timeutil.AddYears(now, MaxRegistrationYears)
	extended := timeutil.AddYears(currentExpiration, years)
	return timeutil.LatestOf(currentExpiration, timeutil.EarliestOf(extended, maxExpiration))
}

// ExceedsMaxRegistration reports whether newExpiration is further out than the cap allows at now.
func ExceedsMaxRegistration(now, newExpiration time.Time) bool {
	return timeutil.AddYears(now, MaxRegistrationYears).Before(newExpiration)
}
