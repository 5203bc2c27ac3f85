package ai

import (
	"fmt"
	"sync"

	"github.com/hubtoday/weeklyagent/internal/logger"
)

// Budget caps model requests for one run so a misbehaving upstream
// cannot burn through the quota.
type Budget struct {
	mu   sync.Mutex
	used int
	max  int
}

// NewBudget returns a budget, max <= 0 means unlimited.
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Use reserves one request or fails when the cap is reached.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		return fmt.Errorf("ai request budget exhausted (%d/%d)", b.used, b.max)
	}
	b.used++
	if b.max > 0 {
		logger.Debug("ai request", "used", b.used, "max", b.max)
	}
	return nil
}

// Used reports how many requests this run consumed.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}
