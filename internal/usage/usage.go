// Package usage accumulates token, cost and search-credit consumption across
// concurrent validation tasks.
package usage

import (
	"sync"

	"domaincheck/pkg/domain"
)

// Accumulator sums UsageRecords as they stream in from workers. The zero
// value is ready to use and safe for concurrent use.
type Accumulator struct {
	mu    sync.Mutex
	total domain.UsageRecord
}

// Add folds one record into the running total.
func (a *Accumulator) Add(rec domain.UsageRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total = a.total.Add(rec)
}

// Total returns a snapshot of the running total.
func (a *Accumulator) Total() domain.UsageRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.total
}

// TotalWithCost returns the running total with CostUSD extended by the token
// cost under the given rates. Cost already recorded on individual records is
// preserved.
func (a *Accumulator) TotalWithCost(rates domain.CostRates) domain.UsageRecord {
	total := a.Total()
	total.CostUSD += total.TokenCost(rates)

	return total
}
