package budget

import (
	"sync"
	"testing"
	"time"
)

func TestLockWeek_TableEmptiesAfterRelease(t *testing.T) {
	// GIVEN: Many goroutines contending on the same week's init lock
	// WHEN: All of them have released it
	// THEN: The lock table holds no entries

	l := NewLedger(nil, nil)
	w := Week{Time: time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC)}

	held := l.lockWeek(w)
	l.initMu.Lock()
	if len(l.init) != 1 {
		t.Errorf("expected 1 entry while held, got %d", len(l.init))
	}
	l.initMu.Unlock()
	held()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := l.lockWeek(w)
			release()
		}()
	}
	wg.Wait()

	l.initMu.Lock()
	defer l.initMu.Unlock()
	if len(l.init) != 0 {
		t.Errorf("lock table not pruned: %d entries remain", len(l.init))
	}
}
