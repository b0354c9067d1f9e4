package pallets

import (
	"fmt"
	"strings"

	"github.com/agentstation/promise/pkg/errors"
)

// Presence is the catalog status an item had at the most recent completed pass.
type Presence int

// Presence values.
const (
	Unchecked Presence = iota
	Present
	Absent
)

// String returns the string representation of the presence.
func (p Presence) String() string {
	switch p {
	case Unchecked:
		return "unchecked"
	case Present:
		return "present"
	case Absent:
		return "absent"
	}
	return fmt.Sprintf("presence(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Presence) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Presence) UnmarshalText(text []byte) error {
	v, err := ParsePresence(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePresence converts a presence name back into a Presence.
func ParsePresence(s string) (Presence, error) {
	switch strings.ToLower(s) {
	case "unchecked", "":
		return Unchecked, nil
	case "present":
		return Present, nil
	case "absent":
		return Absent, nil
	}
	return Unchecked, errors.NewValidationError("presence", s, "must be one of unchecked, present, absent")
}

// Origin records what the first completed observation of an item found.
// It is assigned once and never changes afterwards.
type Origin int

// Origin values.
const (
	OriginUnset Origin = iota
	OriginMissing
	OriginPresent
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginUnset:
		return "unset"
	case OriginMissing:
		return "missing"
	case OriginPresent:
		return "present"
	}
	return fmt.Sprintf("origin(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(text []byte) error {
	v, err := ParseOrigin(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOrigin converts an origin name back into an Origin.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(s) {
	case "unset", "":
		return OriginUnset, nil
	case "missing":
		return OriginMissing, nil
	case "present":
		return OriginPresent, nil
	}
	return OriginUnset, errors.NewValidationError("origin", s, "must be one of unset, missing, present")
}

// Item is a single donated book on a pallet.
type Item struct {
	ISBN                  string   `json:"isbn" yaml:"isbn"`
	Pallet                string   `json:"pallet" yaml:"pallet"`
	Presence              Presence `json:"presence" yaml:"presence"`
	RegistrationAttempted bool     `json:"registration_attempted" yaml:"registration_attempted"`
	Origin                Origin   `json:"origin" yaml:"origin"`
}

// Observe records the outcome of a catalog lookup. Presence always follows the
// latest observation; Origin is only set by the first one.
func (i *Item) Observe(present bool) {
	if present {
		i.Presence = Present
	} else {
		i.Presence = Absent
	}
	if i.Origin == OriginUnset {
		if present {
			i.Origin = OriginPresent
		} else {
			i.Origin = OriginMissing
		}
	}
}

// MarkAttempted records that registration was requested for the item.
func (i *Item) MarkAttempted() {
	i.RegistrationAttempted = true
}

// Checked reports whether the item has been observed at least once.
func (i *Item) Checked() bool {
	return i.Presence != Unchecked
}

// OriginallyMissing reports whether the item was absent the first time it was checked.
func (i *Item) OriginallyMissing() bool {
	return i.Origin == OriginMissing
}
