package engine

import "github.com/ssesselmann/prime-number-fusion/internal/ir"

// Inventory holds one non-negative count per slot, indexed by slot.
// Its size is fixed when the State is created.
type Inventory []int64

// Count returns the count of s, or 0 for a slot outside the inventory.
func (inv Inventory) Count(s ir.Slot) int64 {
	if s < 0 || int(s) >= len(inv) {
		return 0
	}
	return inv[s]
}

// Total returns the sum of all counts.
func (inv Inventory) Total() int64 {
	var total int64
	for _, c := range inv {
		total += c
	}
	return total
}

// Clone returns a copy that shares no memory with inv.
func (inv Inventory) Clone() Inventory {
	return append(Inventory(nil), inv...)
}

// debit is the number of units one operation takes from a slot.
type debit struct {
	slot  ir.Slot
	units int64
}

// aggregate folds a list of debited slots into per-slot totals, so that
// a rule naming the same slot twice needs two units of it. Invalid
// (absent) slots are skipped.
func aggregate(slots ...ir.Slot) []debit {
	out := make([]debit, 0, len(slots))
next:
	for _, s := range slots {
		if !s.Valid() {
			continue
		}
		for i := range out {
			if out[i].slot == s {
				out[i].units++
				continue next
			}
		}
		out = append(out, debit{slot: s, units: 1})
	}
	return out
}

// available reports whether every debit can be taken.
func (inv Inventory) available(debits []debit) bool {
	for _, d := range debits {
		if inv.Count(d.slot) < d.units {
			return false
		}
	}
	return true
}

// transfer takes every debit and adds one unit to every valid credit
// slot. All debits are verified before anything is mutated.
func (inv Inventory) transfer(op string, debits []debit, credits ...ir.Slot) error {
	for _, d := range debits {
		if have := inv.Count(d.slot); have < d.units {
			return &InvariantViolation{Op: op, Slot: d.slot, Have: have, Debit: d.units}
		}
	}
	for _, d := range debits {
		inv[d.slot] -= d.units
	}
	for _, c := range credits {
		if c.Valid() {
			inv[c]++
		}
	}
	return nil
}
