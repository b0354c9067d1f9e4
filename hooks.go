package promise

import (
	"sync"

	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/register"
)

// Hook function types for run events
type (
	// BatchCheckedHook is called after each catalog query of a check
	BatchCheckedHook func(pallet string, done, total int)

	// ItemRegisteredHook is called after each registration request
	ItemRegisteredHook func(item pallets.Item, outcome register.Outcome, err error)

	// PalletSavedHook is called after a pallet snapshot is persisted
	PalletSavedHook func(summary pallets.Summary)
)

// Hooks provides event callback registration.
type Hooks interface {
	// OnBatchChecked registers a callback for answered catalog queries
	OnBatchChecked(BatchCheckedHook)

	// OnItemRegistered registers a callback for registration requests
	OnItemRegistered(ItemRegisteredHook)

	// OnPalletSaved registers a callback for saved snapshots
	OnPalletSaved(PalletSavedHook)
}

// hooks manages event callbacks for runs
type hooks struct {
	mu               sync.RWMutex
	onBatchChecked   []BatchCheckedHook
	onItemRegistered []ItemRegisteredHook
	onPalletSaved    []PalletSavedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnBatchChecked registers a callback for answered catalog queries
func (c *client) OnBatchChecked(fn BatchCheckedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onBatchChecked = append(c.hooks.onBatchChecked, fn)
}

// OnItemRegistered registers a callback for registration requests
func (c *client) OnItemRegistered(fn ItemRegisteredHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onItemRegistered = append(c.hooks.onItemRegistered, fn)
}

// OnPalletSaved registers a callback for saved snapshots
func (c *client) OnPalletSaved(fn PalletSavedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onPalletSaved = append(c.hooks.onPalletSaved, fn)
}

func (h *hooks) batchChecked(pallet string, done, total int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onBatchChecked {
		fn(pallet, done, total)
	}
}

func (h *hooks) itemRegistered(item *pallets.Item, outcome register.Outcome, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onItemRegistered {
		fn(*item, outcome, err)
	}
}

func (h *hooks) palletSaved(p *pallets.Pallet) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.onPalletSaved) == 0 {
		return
	}
	summary, err := p.Summary()
	if err != nil {
		summary = pallets.Summary{Name: p.Name(), URL: p.URL(), Total: p.Len(), Created: p.Created(), Updated: p.Updated()}
	}
	for _, fn := range h.onPalletSaved {
		fn(summary)
	}
}
