package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabledQuiet(t *testing.T) {
	assert.False(t, Enabled(true))
}

func TestNilBarIsNoop(t *testing.T) {
	var b *Bar
	assert.NotPanics(t, func() {
		b.Set(3)
		b.Add()
		b.Finish()
	})
}

func TestDisabledTrackerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, false)
	tr.Step("p", "checking", 1, 2)
	tr.Close()
	assert.Empty(t, buf.String())
}

func TestTrackerDraws(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, true)
	tr.Step("pallet-a", "checking", 1, 2)
	tr.Step("pallet-a", "checking", 2, 2)
	tr.Step("pallet-b", "checking", 1, 3)
	tr.Close()
	assert.Contains(t, buf.String(), "pallet-b")
}
