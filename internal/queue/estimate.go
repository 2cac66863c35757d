package queue

import "time"

// DefaultWaitPerCustomer is the fallback per-customer wait used when
// no value is configured. Both the page-load queue status and the
// live recalculator must receive the same value; neither hard-codes
// its own copy.
const DefaultWaitPerCustomer = 15 * time.Minute

// Rank converts a count of still-waiting entries ahead into a 1-based
// queue rank. Rank is always derived by counting; stored positions can
// have gaps and are never read as ranks directly.
func Rank(waitingAhead int) int {
	if waitingAhead < 0 {
		waitingAhead = 0
	}
	return waitingAhead + 1
}

// Estimate is the linear wait estimate for a customer with the given
// number of waiting entries ahead.
func Estimate(waitingAhead int, perCustomer time.Duration) time.Duration {
	if waitingAhead < 0 {
		waitingAhead = 0
	}
	if perCustomer <= 0 {
		perCustomer = DefaultWaitPerCustomer
	}
	return time.Duration(waitingAhead) * perCustomer
}

// EstimateMinutes is Estimate rounded down to whole minutes, the unit
// every API response uses.
func EstimateMinutes(waitingAhead int, perCustomer time.Duration) int {
	return int(Estimate(waitingAhead, perCustomer) / time.Minute)
}
