package ir

// EventKind identifies the operation an Event records.
type EventKind string

const (
	// EventFusion records one applied fusion rule (Rule indexes Fusion).
	EventFusion EventKind = "fusion"
	// EventCycle records one applied CNO cycle rule (Rule indexes Fission).
	EventCycle EventKind = "cycle"
	// EventDecay records one applied heavy decay rule (Rule indexes Fission).
	EventDecay EventKind = "decay"
	// EventMint records one unit credited to Slot outside any rule.
	EventMint EventKind = "mint"
	// EventReset records a reset back to the seed inventory.
	EventReset EventKind = "reset"
)

// Event is one applied, state-changing operation. Failed attempts are
// never recorded.
type Event struct {
	Seq  int64     `json:"seq"`
	Kind EventKind `json:"kind"`
	Rule int       `json:"rule"` // -1 for mint and reset
	Slot Slot      `json:"slot"` // credited slot for mint, NoSlot otherwise
}

// Snapshot is a consistent copy of the simulation state.
type Snapshot struct {
	Seq      int64   `json:"seq"`
	Counts   []int64 `json:"counts"`
	Fusions  int64   `json:"fusions"`
	Fissions int64   `json:"fissions"`
	LastOK   bool    `json:"last_ok"`
}

// Total returns the sum of all counts.
func (s Snapshot) Total() int64 {
	var total int64
	for _, c := range s.Counts {
		total += c
	}
	return total
}

// SlotCount pairs a slot with its count.
type SlotCount struct {
	Slot  Slot  `json:"slot"`
	Count int64 `json:"count"`
}

// NonZero returns the slots holding at least one unit, in slot order.
// When skip is a valid slot it is left out.
func (s Snapshot) NonZero(skip Slot) []SlotCount {
	var out []SlotCount
	for i, c := range s.Counts {
		if c == 0 || Slot(i) == skip {
			continue
		}
		out = append(out, SlotCount{Slot: Slot(i), Count: c})
	}
	return out
}
