// Package isbn converts raw book identifiers into canonical ISBN-13 form.
//
// Identifiers that do not have a valid ISBN shape (wrong length, stray
// characters or a bad check digit) are kept verbatim, so vendor codes such as
// "BWBM52088056" survive normalization untouched.
package isbn

import (
	"slices"
	"strings"
)

// Normalize canonicalizes every identifier and returns the distinct results.
// An ISBN-10 and its ISBN-13 equivalent collapse into one element; identifiers
// that cannot be converted collapse only when textually identical.
func Normalize(ids ...string) Set {
	set := make(Set, len(ids))
	for _, id := range ids {
		set.Add(Canonical(id))
	}
	return set
}

// Canonical returns the ISBN-13 form of id, or id unchanged when it is not a valid ISBN.
func Canonical(id string) string {
	if isbn13, ok := To13(id); ok {
		return isbn13
	}
	return id
}

// To13 converts a valid ISBN-10 or ISBN-13 (hyphens and spaces allowed) to
// its 13-digit form.
func To13(s string) (string, bool) {
	clean := strip(s)
	switch len(clean) {
	case 10:
		if !Valid10(clean) {
			return "", false
		}
		body := "978" + clean[:9]
		return body + string(check13(body)), true
	case 13:
		if !Valid13(clean) {
			return "", false
		}
		return clean, true
	}
	return "", false
}

// Valid10 reports whether s is a well-formed ISBN-10 with a correct check digit.
// The final character may be 'X' (or 'x') standing for ten.
func Valid10(s string) bool {
	s = strip(s)
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case i == 9 && (c == 'X' || c == 'x'):
			v = 10
		default:
			return false
		}
		sum += (10 - i) * v
	}
	return sum%11 == 0
}

// Valid13 reports whether s is a well-formed ISBN-13 with a correct check digit.
func Valid13(s string) bool {
	s = strip(s)
	if len(s) != 13 || !allDigits(s) {
		return false
	}
	if !strings.HasPrefix(s, "978") && !strings.HasPrefix(s, "979") {
		return false
	}
	return check13(s[:12]) == s[12]
}

// check13 computes the ISBN-13 check digit for a 12-digit body.
func check13(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += w * int(body[i]-'0')
	}
	return byte('0' + (10-sum%10)%10)
}

func strip(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "- ") {
		return s
	}
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Set is an unordered collection of distinct identifiers.
type Set map[string]struct{}

// NewSet builds a set from ids without normalizing them.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s Set) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of elements.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the elements in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
