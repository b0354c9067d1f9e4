package pallets

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/promise/pkg/errors"
)

// DocumentVersion is the snapshot schema version written by Document.
const DocumentVersion = 1

// Document is the persisted form of a pallet.
type Document struct {
	Version         int          `json:"version" yaml:"version"`
	Name            string       `json:"name" yaml:"name"`
	URL             string       `json:"url" yaml:"url"`
	Queried         bool         `json:"queried" yaml:"queried"`
	RegistrationRun bool         `json:"registration_run" yaml:"registration_run"`
	Created         time.Time    `json:"created" yaml:"created"`
	Updated         time.Time    `json:"updated" yaml:"updated"`
	Items           []ItemRecord `json:"items" yaml:"items"`
}

// ItemRecord is the persisted form of an item.
type ItemRecord struct {
	ISBN                  string `json:"isbn" yaml:"isbn"`
	Pallet                string `json:"pallet" yaml:"pallet"`
	Presence              string `json:"presence" yaml:"presence"`
	RegistrationAttempted bool   `json:"registration_attempted" yaml:"registration_attempted"`
	Origin                string `json:"origin" yaml:"origin"`
}

// Document returns the persisted form of the pallet.
func (p *Pallet) Document() *Document {
	doc := &Document{
		Version:         DocumentVersion,
		Name:            p.name,
		URL:             p.url,
		Queried:         p.queried,
		RegistrationRun: p.registrationRun,
		Created:         p.created.UTC(),
		Updated:         p.updated.UTC(),
		Items:           make([]ItemRecord, len(p.items)),
	}
	for i, item := range p.items {
		doc.Items[i] = ItemRecord{
			ISBN:                  item.ISBN,
			Pallet:                item.Pallet,
			Presence:              item.Presence.String(),
			RegistrationAttempted: item.RegistrationAttempted,
			Origin:                item.Origin.String(),
		}
	}
	return doc
}

// FromDocument rebuilds a pallet from its persisted form. Documents that
// break the pallet invariants are rejected with a validation error: before the
// first pass every item must be unchecked, afterwards every item must be
// checked, and an origin is recorded exactly for checked items.
func FromDocument(doc *Document, opts ...Option) (*Pallet, error) {
	if doc == nil {
		return nil, errors.NewValidationError("document", nil, "is nil")
	}
	if doc.Version != DocumentVersion {
		return nil, errors.NewValidationError("version", doc.Version, fmt.Sprintf("unsupported snapshot version (want %d)", DocumentVersion))
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, errors.NewValidationError("name", doc.Name, "is required")
	}

	o := defaults().apply(opts...)
	p := &Pallet{
		name:            doc.Name,
		url:             doc.URL,
		queried:         doc.Queried,
		registrationRun: doc.RegistrationRun,
		created:         doc.Created.UTC(),
		updated:         doc.Updated.UTC(),
		clock:           o.clock,
		items:           make([]*Item, 0, len(doc.Items)),
	}

	seen := make(map[string]struct{}, len(doc.Items))
	for _, rec := range doc.Items {
		item, err := itemFromRecord(doc, rec)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[item.ISBN]; dup {
			return nil, errors.NewValidationError("items", item.ISBN, "duplicate isbn")
		}
		seen[item.ISBN] = struct{}{}
		p.items = append(p.items, item)
	}

	slices.SortFunc(p.items, func(a, b *Item) int { return strings.Compare(a.ISBN, b.ISBN) })
	p.reindex()
	return p, nil
}

func itemFromRecord(doc *Document, rec ItemRecord) (*Item, error) {
	if rec.ISBN == "" {
		return nil, errors.NewValidationError("isbn", rec.ISBN, "is required")
	}
	presence, err := ParsePresence(rec.Presence)
	if err != nil {
		return nil, err
	}
	origin, err := ParseOrigin(rec.Origin)
	if err != nil {
		return nil, err
	}

	palletName := rec.Pallet
	if palletName == "" {
		palletName = doc.Name
	}
	if palletName != doc.Name {
		return nil, errors.NewValidationError("pallet", rec.Pallet, "item "+rec.ISBN+" belongs to another pallet")
	}

	switch {
	case !doc.Queried && presence != Unchecked:
		return nil, errors.NewValidationError("presence", rec.Presence, "item "+rec.ISBN+" is checked but the pallet was never reconciled")
	case doc.Queried && presence == Unchecked:
		return nil, errors.NewValidationError("presence", rec.Presence, "item "+rec.ISBN+" is unchecked in a reconciled pallet")
	case (presence == Unchecked) != (origin == OriginUnset):
		return nil, errors.NewValidationError("origin", rec.Origin, "item "+rec.ISBN+" origin must be set exactly when the item is checked")
	}

	return &Item{
		ISBN:                  rec.ISBN,
		Pallet:                palletName,
		Presence:              presence,
		RegistrationAttempted: rec.RegistrationAttempted,
		Origin:                origin,
	}, nil
}
