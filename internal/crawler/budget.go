package crawler

import "time"

// Budget bounds one crawl run by wall-clock time and by consecutive
// candidate failures. A burst of failures usually means a provider is
// down or throttling hard, and continuing would only burn quota.
type Budget struct {
	deadline            time.Time
	maxConsecutive      int
	consecutiveFailures int
}

// NewBudget creates a budget expiring after limit, aborting after
// maxConsecutive back-to-back failures. A zero or negative limit is
// already spent: the run stops before scanning anything. A non-positive
// maxConsecutive means no failure bound.
func NewBudget(limit time.Duration, maxConsecutive int) *Budget {
	return &Budget{
		deadline:       time.Now().Add(limit),
		maxConsecutive: maxConsecutive,
	}
}

// Expired reports whether the time budget is used up.
func (b *Budget) Expired() bool {
	return !time.Now().Before(b.deadline)
}

// RecordFailure counts one failed candidate and reports whether the
// failure streak has exhausted the budget.
func (b *Budget) RecordFailure() bool {
	b.consecutiveFailures++
	return b.maxConsecutive > 0 && b.consecutiveFailures >= b.maxConsecutive
}

// RecordSuccess resets the failure streak.
func (b *Budget) RecordSuccess() {
	b.consecutiveFailures = 0
}

// ConsecutiveFailures returns the current failure streak length.
func (b *Budget) ConsecutiveFailures() int {
	return b.consecutiveFailures
}
