package engine

import (
	"fmt"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// State is the simulation state: the inventory plus its run counters.
//
// State is NOT safe for concurrent use. Loop guards its State with a
// mutex; every other caller owns its State exclusively.
type State struct {
	table    *ir.RuleTable
	seed     int64
	counts   Inventory
	fusions  int64
	fissions int64
	lastOK   bool
	clock    *Clock
	observe  func(ir.Event)
}

// NewState creates a state for table with seed units on the base slot and
// every other slot empty. The table is cloned so rule order cannot change
// underneath the engines.
func NewState(table *ir.RuleTable, seed int64) *State {
	st := &State{
		table: table.Clone(),
		seed:  seed,
		clock: NewClock(),
	}
	st.counts = st.seedInventory()
	return st
}

func (st *State) seedInventory() Inventory {
	inv := make(Inventory, st.table.NumSlots())
	inv[st.table.Base] = st.seed
	return inv
}

// SetObserver registers fn to receive every applied event, in seq order.
// Pass nil to stop observing.
func (st *State) SetObserver(fn func(ir.Event)) {
	st.observe = fn
}

// Table returns the state's rule table. Callers must not modify it.
func (st *State) Table() *ir.RuleTable { return st.table }

// Seed returns the number of base units the state starts from.
func (st *State) Seed() int64 { return st.seed }

// Count returns the count of slot s.
func (st *State) Count(s ir.Slot) int64 { return st.counts.Count(s) }

// Total returns the total inventory.
func (st *State) Total() int64 { return st.counts.Total() }

// Fusions returns the number of fusion rules applied since the last reset.
func (st *State) Fusions() int64 { return st.fusions }

// Fissions returns the number of fission rules applied since the last reset.
func (st *State) Fissions() int64 { return st.fissions }

// LastOK reports whether the most recent attempted operation succeeded.
func (st *State) LastOK() bool { return st.lastOK }

// Counts returns a copy of the inventory.
func (st *State) Counts() Inventory { return st.counts.Clone() }

// Snapshot returns a consistent copy of the state.
func (st *State) Snapshot() ir.Snapshot {
	return ir.Snapshot{
		Seq:      st.clock.Current(),
		Counts:   st.counts.Clone(),
		Fusions:  st.fusions,
		Fissions: st.fissions,
		LastOK:   st.lastOK,
	}
}

// Reset restores the seed inventory and zeroes both counters. The
// logical clock keeps running.
func (st *State) Reset() {
	st.counts = st.seedInventory()
	st.fusions = 0
	st.fissions = 0
	st.lastOK = false
	st.emit(ir.EventReset, -1, ir.NoSlot)
}

// Mint credits one unit to slot s outside any rule.
func (st *State) Mint(s ir.Slot) {
	st.counts[s]++
	st.emit(ir.EventMint, -1, s)
}

func (st *State) emit(kind ir.EventKind, rule int, slot ir.Slot) {
	ev := ir.Event{Seq: st.clock.Next(), Kind: kind, Rule: rule, Slot: slot}
	if st.observe != nil {
		st.observe(ev)
	}
}

// fuse applies fusion rule idx. Unavailable operands return false and
// leave the state untouched.
func (st *State) fuse(idx int) (bool, error) {
	r := st.table.Fusion[idx]
	debits := aggregate(r.A, r.B)
	if !st.counts.available(debits) {
		st.lastOK = false
		return false, nil
	}
	if err := st.counts.transfer("fusion "+r.String(), debits, r.Result, r.Remainder); err != nil {
		st.lastOK = false
		return false, err
	}
	st.fusions++
	st.lastOK = true
	st.emit(ir.EventFusion, idx, ir.NoSlot)
	return true, nil
}

// fission applies fission rule idx. Cycle rules consume source and
// partner; decay rules consume the source only.
func (st *State) fission(kind ir.EventKind, idx int) (bool, error) {
	r := st.table.Fission[idx]
	var debits []debit
	if kind == ir.EventCycle {
		debits = aggregate(r.Source, r.Partner)
	} else {
		debits = aggregate(r.Source)
	}
	if !st.counts.available(debits) {
		st.lastOK = false
		return false, nil
	}
	if err := st.counts.transfer(string(kind)+" "+r.String(), debits, r.Product, r.Byproduct); err != nil {
		st.lastOK = false
		return false, err
	}
	st.fissions++
	st.lastOK = true
	st.emit(kind, idx, ir.NoSlot)
	return true, nil
}

// apply re-applies a recorded event without availability checks: a
// recorded debit that cannot be taken is an invariant violation.
func (st *State) apply(ev ir.Event) error {
	switch ev.Kind {
	case ir.EventFusion:
		if ev.Rule < 0 || ev.Rule >= len(st.table.Fusion) {
			return badEvent(ev, "fusion rule out of range")
		}
		r := st.table.Fusion[ev.Rule]
		if err := st.counts.transfer("fusion "+r.String(), aggregate(r.A, r.B), r.Result, r.Remainder); err != nil {
			return err
		}
		st.fusions++
		st.lastOK = true
	case ir.EventCycle, ir.EventDecay:
		if ev.Rule < 0 || ev.Rule >= len(st.table.Fission) {
			return badEvent(ev, "fission rule out of range")
		}
		r := st.table.Fission[ev.Rule]
		debits := aggregate(r.Source)
		if ev.Kind == ir.EventCycle {
			debits = aggregate(r.Source, r.Partner)
		}
		if err := st.counts.transfer(string(ev.Kind)+" "+r.String(), debits, r.Product, r.Byproduct); err != nil {
			return err
		}
		st.fissions++
		st.lastOK = true
	case ir.EventMint:
		if !ev.Slot.Valid() || int(ev.Slot) >= len(st.counts) {
			return badEvent(ev, "mint slot out of range")
		}
		st.counts[ev.Slot]++
	case ir.EventReset:
		st.counts = st.seedInventory()
		st.fusions = 0
		st.fissions = 0
		st.lastOK = false
	default:
		return badEvent(ev, "unknown event kind")
	}
	return nil
}

func badEvent(ev ir.Event, msg string) error {
	return &RuntimeError{
		Code:    ErrCodeBadEvent,
		Message: fmt.Sprintf("event seq %d (%s rule %d): %s", ev.Seq, ev.Kind, ev.Rule, msg),
	}
}
