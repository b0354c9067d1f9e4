// Package pallets models pallets of donated books and the per-item catalog
// status tracked across reconciliation and registration runs.
//
// A Pallet owns its items. Hit, miss and original-miss aggregates are always
// derived from the items and are unavailable until the pallet has completed
// its first reconciliation pass.
package pallets

import (
	"slices"
	"strings"
	"time"

	"github.com/agentstation/promise/pkg/errors"
)

// Pallet is the unit of reconciliation: a named, sorted collection of items.
type Pallet struct {
	name            string
	url             string
	items           []*Item
	index           map[string]*Item
	queried         bool
	registrationRun bool
	created         time.Time
	updated         time.Time
	clock           func() time.Time
}

// New creates a pallet from raw identifiers. Identifiers are de-duplicated
// exactly, filtered by the configured exclusion prefixes and sorted. The
// creation time comes from the configured clock.
func New(name, url string, isbns []string, opts ...Option) *Pallet {
	o := defaults().apply(opts...)

	seen := make(map[string]struct{}, len(isbns))
	ids := make([]string, 0, len(isbns))
	for _, id := range isbns {
		if id == "" || excluded(id, o.excludePrefixes) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	items := make([]*Item, len(ids))
	for i, id := range ids {
		items[i] = &Item{ISBN: id, Pallet: name}
	}

	now := o.clock()
	p := &Pallet{
		name:    name,
		url:     url,
		items:   items,
		created: now,
		updated: now,
		clock:   o.clock,
	}
	p.reindex()
	return p
}

func excluded(id string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

func (p *Pallet) reindex() {
	p.index = make(map[string]*Item, len(p.items))
	for _, item := range p.items {
		p.index[item.ISBN] = item
	}
}

// Name returns the pallet name.
func (p *Pallet) Name() string { return p.name }

// URL returns the listing URL the pallet was created from.
func (p *Pallet) URL() string { return p.url }

// Len returns the number of items.
func (p *Pallet) Len() int { return len(p.items) }

// Queried reports whether at least one reconciliation pass has completed.
func (p *Pallet) Queried() bool { return p.queried }

// RegistrationRun reports whether a registration run has completed.
func (p *Pallet) RegistrationRun() bool { return p.registrationRun }

// Created returns the creation time.
func (p *Pallet) Created() time.Time { return p.created }

// Updated returns the time of the last recorded change.
func (p *Pallet) Updated() time.Time { return p.updated }

// Items returns the items in ISBN order. The items themselves are shared with
// the pallet; the slice is a copy.
func (p *Pallet) Items() []*Item {
	return slices.Clone(p.items)
}

// ISBNs returns the identifiers of every item in ISBN order.
func (p *Pallet) ISBNs() []string {
	out := make([]string, len(p.items))
	for i, item := range p.items {
		out[i] = item.ISBN
	}
	return out
}

// Item returns the item with the given ISBN.
func (p *Pallet) Item(isbn string) (*Item, error) {
	item, ok := p.index[isbn]
	if !ok {
		return nil, errors.NewNotFoundError("item", isbn)
	}
	return item, nil
}

// MarkQueried records that a reconciliation pass completed.
func (p *Pallet) MarkQueried() {
	p.queried = true
	p.Touch()
}

// MarkRegistrationRun records that a registration run completed.
func (p *Pallet) MarkRegistrationRun() {
	p.registrationRun = true
	p.Touch()
}

// Touch sets the updated time from the pallet clock.
func (p *Pallet) Touch() {
	p.updated = p.clock()
}

func (p *Pallet) requireQueried(operation string) error {
	if !p.queried {
		return errors.NewPreconditionError(operation, "pallet "+p.name+" has not been reconciled")
	}
	return nil
}

func (p *Pallet) filter(match func(*Item) bool) []*Item {
	var out []*Item
	for _, item := range p.items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Hits returns the items present in the catalog at the most recent pass.
func (p *Pallet) Hits() ([]*Item, error) {
	if err := p.requireQueried("list hits"); err != nil {
		return nil, err
	}
	return p.filter(func(i *Item) bool { return i.Presence == Present }), nil
}

// Misses returns the items absent from the catalog at the most recent pass.
func (p *Pallet) Misses() ([]*Item, error) {
	if err := p.requireQueried("list misses"); err != nil {
		return nil, err
	}
	return p.filter(func(i *Item) bool { return i.Presence == Absent }), nil
}

// OriginalMisses returns the items that were absent when first checked,
// whatever their current status.
func (p *Pallet) OriginalMisses() ([]*Item, error) {
	if err := p.requireQueried("list original misses"); err != nil {
		return nil, err
	}
	return p.filter((*Item).OriginallyMissing), nil
}

// HitCount returns len(Hits()).
func (p *Pallet) HitCount() (int, error) {
	hits, err := p.Hits()
	return len(hits), err
}

// MissCount returns len(Misses()).
func (p *Pallet) MissCount() (int, error) {
	misses, err := p.Misses()
	return len(misses), err
}

// OriginalMissCount returns len(OriginalMisses()).
func (p *Pallet) OriginalMissCount() (int, error) {
	misses, err := p.OriginalMisses()
	return len(misses), err
}

// AttemptedCount returns the number of items registration was requested for.
func (p *Pallet) AttemptedCount() int {
	return len(p.filter(func(i *Item) bool { return i.RegistrationAttempted }))
}
