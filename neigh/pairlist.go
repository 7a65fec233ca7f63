// NeighborList is the compact adjacency structure handed to force
// evaluators. Per-particle runs live in page-pool storage that is never
// relocated, so a run stays valid for the lifetime of the list. Lists are
// disposable: every rebuild produces a fresh one and never mutates the
// previous one.

package neigh

// NeighborList exposes, per reference particle, a contiguous run of
// encoded neighbor entries (see EncodeEntry for the bit layout).
type NeighborList struct {
	kind    ListKind
	newton  bool
	history bool

	// runs[i] views the page storage holding particle i's neighbors. For
	// ghost-inclusive lists runs covers owned+ghost particles, otherwise
	// owned only.
	runs  [][]uint64
	pools []*PagePool

	withNeighbors int
	totalEntries  int
	scaleCoeffs   [4]float64
}

// Kind reports whether this is a half or full list.
func (l *NeighborList) Kind() ListKind { return l.kind }

// Newton reports whether the list was built with the newton-on
// decomposition.
func (l *NeighborList) Newton() bool { return l.newton }

// HasHistory reports whether entries carry the persistent-contact bit.
func (l *NeighborList) HasHistory() bool { return l.history }

// NumParticles returns the number of reference particles the list covers.
func (l *NeighborList) NumParticles() int { return len(l.runs) }

// NumWithNeighbors returns how many reference particles have at least one
// neighbor.
func (l *NeighborList) NumWithNeighbors() int { return l.withNeighbors }

// TotalEntries returns the total number of stored neighbor entries.
func (l *NeighborList) TotalEntries() int { return l.totalEntries }

// Count returns the neighbor count of reference particle i.
func (l *NeighborList) Count(i int) int { return len(l.runs[i]) }

// Run returns particle i's neighbor entries. The slice aliases page
// storage; callers must not modify it. Entry order within a run is
// unspecified.
func (l *NeighborList) Run(i int) []uint64 { return l.runs[i] }

// ScaleCoeffs returns the 4-entry scale table indexed by the scale class
// decoded from entries; entry 0 is always 1.0.
func (l *NeighborList) ScaleCoeffs() [4]float64 { return l.scaleCoeffs }

// Pages returns the total page count across all worker pools, a proxy for
// the list's memory footprint.
func (l *NeighborList) Pages() int {
	n := 0
	for _, p := range l.pools {
		n += p.Pages()
	}
	return n
}

// finalize computes the summary counters after all runs are written.
func (l *NeighborList) finalize() {
	l.withNeighbors = 0
	l.totalEntries = 0
	for _, run := range l.runs {
		if len(run) > 0 {
			l.withNeighbors++
		}
		l.totalEntries += len(run)
	}
}
