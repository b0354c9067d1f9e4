package pallets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/promise/pkg/errors"
)

func reconciledPallet(t *testing.T) *Pallet {
	t.Helper()
	p := newTestPallet(t)
	for _, item := range p.Items() {
		item.Observe(item.ISBN != "9782723496117")
	}
	p.MarkQueried()
	item, err := p.Item("9782723496117")
	require.NoError(t, err)
	item.MarkAttempted()
	p.MarkRegistrationRun()
	return p
}

func TestDocumentRoundTrip(t *testing.T) {
	for name, p := range map[string]*Pallet{
		"fresh":      newTestPallet(t),
		"reconciled": reconciledPallet(t),
	} {
		t.Run(name, func(t *testing.T) {
			doc := p.Document()
			assert.Equal(t, DocumentVersion, doc.Version)

			restored, err := FromDocument(doc, WithClock(fixedClock))
			require.NoError(t, err)
			assert.Equal(t, doc, restored.Document())
			assert.Equal(t, p.Items(), restored.Items())
			assert.Equal(t, p.Queried(), restored.Queried())
			assert.Equal(t, p.RegistrationRun(), restored.RegistrationRun())
		})
	}
}

func TestFromDocumentSortsAndIndexes(t *testing.T) {
	doc := &Document{
		Version: DocumentVersion,
		Name:    "p",
		Items: []ItemRecord{
			{ISBN: "9788189999520"},
			{ISBN: "9781405892469"},
		},
	}
	p, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"9781405892469", "9788189999520"}, p.ISBNs())

	item, err := p.Item("9788189999520")
	require.NoError(t, err)
	assert.Equal(t, "p", item.Pallet, "missing pallet names default to the document name")
}

func TestFromDocumentValidation(t *testing.T) {
	valid := func() *Document {
		return &Document{
			Version: DocumentVersion,
			Name:    "p",
			Queried: true,
			Created: time.Now(),
			Items: []ItemRecord{
				{ISBN: "9781405892469", Pallet: "p", Presence: "present", Origin: "present"},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"version", func(d *Document) { d.Version = 99 }},
		{"name", func(d *Document) { d.Name = "" }},
		{"unchecked in queried pallet", func(d *Document) { d.Items[0].Presence = "unchecked"; d.Items[0].Origin = "unset" }},
		{"checked in unqueried pallet", func(d *Document) { d.Queried = false }},
		{"origin without check", func(d *Document) {
			d.Queried = false
			d.Items[0].Presence = "unchecked"
		}},
		{"unknown presence", func(d *Document) { d.Items[0].Presence = "maybe" }},
		{"unknown origin", func(d *Document) { d.Items[0].Origin = "maybe" }},
		{"foreign pallet", func(d *Document) { d.Items[0].Pallet = "other" }},
		{"duplicate", func(d *Document) { d.Items = append(d.Items, d.Items[0]) }},
		{"empty isbn", func(d *Document) { d.Items[0].ISBN = "" }},
	}

	_, err := FromDocument(valid())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(doc)
			_, err := FromDocument(doc)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}

	_, err = FromDocument(nil)
	assert.True(t, errors.IsValidationError(err))
}
