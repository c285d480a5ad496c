// Package score combines evidence into an audited 0-100 score.
package score

import "sync"

// PhoneFrequency counts normalized phones observed across a batch run.
// Shared call-center numbers show up here with high counts and are
// treated as weak evidence. Constructed once per batch run and passed
// by reference; counts grow monotonically for the run's duration.
type PhoneFrequency struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewPhoneFrequency creates an empty frequency model.
func NewPhoneFrequency() *PhoneFrequency {
	return &PhoneFrequency{counts: make(map[string]int)}
}

// Observe increments the count for each phone.
func (f *PhoneFrequency) Observe(phones ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range phones {
		if p != "" {
			f.counts[p]++
		}
	}
}

// Count returns the observations recorded for a phone.
func (f *PhoneFrequency) Count(phone string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[phone]
}

// MaxCount returns the highest count among the given phones.
func (f *PhoneFrequency) MaxCount(phones []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, p := range phones {
		if c := f.counts[p]; c > max {
			max = c
		}
	}
	return max
}
