// Package budget keeps the daily AI spend counter backing the advisory
// budget check. The counter is process-local; a restart starts the day
// at zero and the persisted cost records remain the source of truth.
package budget

import "sync"

// Ledger accumulates tracked spend per calendar date. Only one date is
// held at a time; the first Add under a new date resets the total.
type Ledger struct {
	mu    sync.Mutex
	date  string
	total float64
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Add(date string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if date != l.date {
		l.date = date
		l.total = 0
	}
	l.total += amount
}

func (l *Ledger) Spent(date string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if date != l.date {
		return 0
	}
	return l.total
}
