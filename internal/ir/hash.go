package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRuleTable = "fusion/ruletable/v1"
	DomainSnapshot  = "fusion/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalTable converts a table to its canonical IRObject form. Slots
// are rendered by name; absent optional slots are omitted.
func CanonicalTable(t *RuleTable) IRObject {
	fusion := make(IRArray, len(t.Fusion))
	for i, r := range t.Fusion {
		obj := IRObject{
			"a":      IRString(r.A.Name()),
			"b":      IRString(r.B.Name()),
			"result": IRString(r.Result.Name()),
		}
		if r.HasRemainder() {
			obj["remainder"] = IRString(r.Remainder.Name())
		}
		fusion[i] = obj
	}

	fission := make(IRArray, len(t.Fission))
	for i, r := range t.Fission {
		obj := IRObject{
			"source":    IRString(r.Source.Name()),
			"product":   IRString(r.Product.Name()),
			"byproduct": IRString(r.Byproduct.Name()),
		}
		if r.HasPartner() {
			obj["partner"] = IRString(r.Partner.Name())
		}
		fission[i] = obj
	}

	light := make(IRArray, len(t.LightSlots))
	for i, s := range t.LightSlots {
		light[i] = IRString(s.Name())
	}

	return IRObject{
		"schema_version": IRString(SchemaVersion),
		"primes":         IntArray(t.Primes),
		"base":           IRString(t.Base.Name()),
		"fusion":         fusion,
		"fission":        fission,
		"cycle_count":    IRInt(t.CycleCount),
		"decay_count":    IRInt(t.DecayCount),
		"light_slots":    light,
	}
}

// TableHash computes the content hash identifying a rule table version.
// Two tables with equal hashes drive the engines identically.
func TableHash(t *RuleTable) (string, error) {
	canonical, err := MarshalCanonical(CanonicalTable(t))
	if err != nil {
		return "", fmt.Errorf("TableHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleTable, canonical), nil
}

// SnapshotHash computes a content hash over counts and counters, used to
// compare a replayed state against a recorded one.
func SnapshotHash(s Snapshot) (string, error) {
	obj := IRObject{
		"counts":   IntArray(s.Counts),
		"fusions":  IRInt(s.Fusions),
		"fissions": IRInt(s.Fissions),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustTableHash is like TableHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTableHash(t *RuleTable) string {
	h, err := TableHash(t)
	if err != nil {
		panic(err)
	}
	return h
}
