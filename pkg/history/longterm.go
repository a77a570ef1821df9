package history

import (
	"slices"
	"sync"

	"github.com/charlie0129/bmslink/pkg/types"
)

// LongTermView caches the most recent record set fetched from the device.
// It is read-only to everyone but the battery_history handler and is
// replaced as a whole on every fetch.
type LongTermView struct {
	mu      sync.RWMutex
	current *types.LongTermHistory
}

func NewLongTermView() *LongTermView {
	return &LongTermView{}
}

// Replace swaps in h, discarding whatever was cached.
func (v *LongTermView) Replace(h *types.LongTermHistory) {
	c := cloneLongTerm(h)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = c
}

// Get returns a copy of the cached set, or nil.
func (v *LongTermView) Get() *types.LongTermHistory {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneLongTerm(v.current)
}

// Clear drops the cached set.
func (v *LongTermView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = nil
}

func cloneLongTerm(h *types.LongTermHistory) *types.LongTermHistory {
	if h == nil {
		return nil
	}
	c := *h
	c.Records = make([]types.LongTermRecord, len(h.Records))
	for i, r := range h.Records {
		r.Cells = slices.Clone(r.Cells)
		c.Records[i] = r
	}
	return &c
}
