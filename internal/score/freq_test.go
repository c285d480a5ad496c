package score

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneFrequency_Counts(t *testing.T) {
	f := NewPhoneFrequency()

	f.Observe("+39045123456", "+39045123456", "+39045999888")

	assert.Equal(t, 2, f.Count("+39045123456"))
	assert.Equal(t, 1, f.Count("+39045999888"))
	assert.Equal(t, 0, f.Count("+39000000000"))
	assert.Equal(t, 2, f.MaxCount([]string{"+39045999888", "+39045123456"}))
	assert.Equal(t, 0, f.MaxCount(nil))
}

func TestPhoneFrequency_ConcurrentObserve(t *testing.T) {
	f := NewPhoneFrequency()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Observe("+39045123456")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, f.Count("+39045123456"))
}
