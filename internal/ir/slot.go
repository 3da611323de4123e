package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot identifies one counter position ("the n-th prime"). Slots are
// 0-based internally and totally ordered by position.
type Slot int

// NoSlot marks an absent optional slot (no remainder, no partner).
const NoSlot Slot = -1

// Valid reports whether s names a real position (s >= 0).
func (s Slot) Valid() bool {
	return s >= 0
}

// Name returns the 1-based display name, e.g. Slot(0).Name() == "p1".
// NoSlot renders as the empty string.
func (s Slot) Name() string {
	if s < 0 {
		return ""
	}
	return "p" + strconv.Itoa(int(s)+1)
}

// String implements fmt.Stringer.
func (s Slot) String() string {
	if s < 0 {
		return "none"
	}
	return s.Name()
}

// ParseSlot parses a display name ("p1", "P12") into a Slot.
// The empty string parses to NoSlot.
func ParseSlot(name string) (Slot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return NoSlot, nil
	}
	if len(name) < 2 || (name[0] != 'p' && name[0] != 'P') {
		return NoSlot, fmt.Errorf("invalid slot name %q: want p<n>", name)
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 1 {
		return NoSlot, fmt.Errorf("invalid slot name %q: want p<n> with n >= 1", name)
	}
	return Slot(n - 1), nil
}

// MustParseSlot is like ParseSlot but panics on error.
// Use only in tests or with literal names.
func MustParseSlot(name string) Slot {
	s, err := ParseSlot(name)
	if err != nil {
		panic(err)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
