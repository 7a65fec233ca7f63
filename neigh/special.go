// Special-bond filtering and neighbor-entry bit packing.
//
// Every builder variant funnels exclusion decisions through
// SpecialPolicy.Classify so the semantics cannot drift between variants.
// Neighbor entries pack the partner index, the scale class, and the
// persistent-contact history bit into a single uint64.

package neigh

import "fmt"

// Neighbor entry layout: bits 0-55 partner index, bits 56-57 scale class,
// bit 63 history (persistent contact) flag.
const (
	entryIndexBits = 56
	entryIndexMask = uint64(1)<<entryIndexBits - 1
	entryScaleBits = 2
	entryScaleMask = (uint64(1)<<entryScaleBits - 1) << entryIndexBits
	entryHistory   = uint64(1) << 63
)

// EncodeEntry packs a neighbor index, scale class (0 = unscaled, 1-3 = the
// scaled-exclusion classes) and history flag into one list entry.
func EncodeEntry(j int, scaleClass int, history bool) uint64 {
	e := uint64(j)&entryIndexMask | uint64(scaleClass)<<entryIndexBits
	if history {
		e |= entryHistory
	}
	return e
}

// DecodeEntry is the inverse of EncodeEntry.
func DecodeEntry(e uint64) (j int, scaleClass int, history bool) {
	return int(e & entryIndexMask),
		int(e & entryScaleMask >> entryIndexBits),
		e&entryHistory != 0
}

// EntryIndex extracts just the partner index from a list entry. Force
// evaluators use this on their hot path.
func EntryIndex(e uint64) int { return int(e & entryIndexMask) }

// SpecialVerdict is the outcome of the special-bond filter for one pair.
type SpecialVerdict int

const (
	// NotSpecial: the pair is an ordinary interaction.
	NotSpecial SpecialVerdict = iota
	// Excluded: the pair must not appear in any list.
	Excluded
	// Scaled1, Scaled2, Scaled3: the pair is kept but tagged so the force
	// evaluator applies the coefficient of the corresponding bond class.
	Scaled1
	Scaled2
	Scaled3
)

// ScaleClass returns the 2-bit scale tag stored in list entries: 0 for
// ordinary pairs, 1-3 for the scaled classes. Excluded pairs never reach
// an entry, so the value for Excluded is unused.
func (v SpecialVerdict) ScaleClass() int {
	switch v {
	case Scaled1:
		return 1
	case Scaled2:
		return 2
	case Scaled3:
		return 3
	}
	return 0
}

// SpecialPolicy maps the three bond classes (1-2, 1-3, 1-4) to verdicts. A
// coefficient of 0 excludes the pair entirely, 1 keeps it as an ordinary
// pair, and anything in between keeps it tagged with the class so the
// consumer can rescale it.
type SpecialPolicy struct {
	coeffs   [4]float64
	verdicts [4]SpecialVerdict
}

// NewSpecialPolicy builds a policy from the per-class coefficients. The
// conventional default of {0, 0, 0} excludes all bonded pairs.
func NewSpecialPolicy(coeffs [3]float64) (*SpecialPolicy, error) {
	p := &SpecialPolicy{}
	p.coeffs[0] = 1.0
	p.verdicts[0] = NotSpecial
	scaled := [3]SpecialVerdict{Scaled1, Scaled2, Scaled3}
	for c := 0; c < 3; c++ {
		w := coeffs[c]
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("special coefficient for bond class %d is %g, must be in [0, 1]", c+1, w)
		}
		p.coeffs[c+1] = w
		switch w {
		case 0:
			p.verdicts[c+1] = Excluded
		case 1:
			p.verdicts[c+1] = NotSpecial
		default:
			p.verdicts[c+1] = scaled[c]
		}
	}
	return p, nil
}

// Coeffs returns the 4-entry scale table indexed by scale class; entry 0 is
// always 1.0. Consumers index this table with the tag decoded from entries.
func (p *SpecialPolicy) Coeffs() [4]float64 { return p.coeffs }

// Classify is the single shared special-bond filter: given owned particle i
// and a candidate partner's global tag, it reports how the pair must be
// treated. The minimum-image escape (a bonded pair whose current separation
// is not the nearest image) is applied by the caller, which knows the
// displacement vector.
func (p *SpecialPolicy) Classify(ps *ParticleSet, i int, jTag int64) SpecialVerdict {
	if ps.Special == nil {
		return NotSpecial
	}
	list := ps.Special[i]
	for k, tag := range list {
		if tag != jTag {
			continue
		}
		ns := ps.NSpecial[i]
		switch {
		case k < ns[0]:
			return p.verdicts[1]
		case k < ns[1]:
			return p.verdicts[2]
		default:
			return p.verdicts[3]
		}
	}
	return NotSpecial
}
