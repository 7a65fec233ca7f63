// Page allocator backing neighbor-list storage. Runs of neighbor entries
// are carved out of fixed-size pages; pages are only ever appended, never
// relocated, so a run handed out for one particle stays valid for the
// lifetime of the list. Each build worker owns a private pool, which keeps
// the owned-particle loop lock-free.

package neigh

import "fmt"

// DefaultPageSize is the number of entries per page when the caller does
// not configure one.
const DefaultPageSize = 1 << 16

// PagePool hands out contiguous runs of uint64 entries from fixed-size
// pages. It is not safe for concurrent use; builders create one per worker.
type PagePool struct {
	pageSize int
	pages    [][]uint64
	used     int // entries consumed in the current (last) page
	runStart int // offset of the in-progress run in the current page
}

// NewPagePool returns a pool with the given entries-per-page capacity.
func NewPagePool(pageSize int) *PagePool {
	if pageSize <= 0 {
		panic(fmt.Sprintf("NewPagePool: page size must be positive, got %d", pageSize))
	}
	return &PagePool{pageSize: pageSize}
}

func (p *PagePool) grow() {
	p.pages = append(p.pages, make([]uint64, p.pageSize))
	p.used = 0
}

// Begin starts a new run and returns an empty slice positioned at the next
// free spot of the current page. The run is appended to exclusively through
// Push and sealed with Commit.
func (p *PagePool) Begin() []uint64 {
	if len(p.pages) == 0 || p.used == p.pageSize {
		p.grow()
	}
	p.runStart = p.used
	page := p.pages[len(p.pages)-1]
	return page[p.used:p.used:p.pageSize]
}

// Push appends one entry to the in-progress run. If the current page is
// exhausted mid-run, the partial run is moved onto a fresh page so every
// run stays contiguous. A run that cannot fit in a single page is a sizing
// error surfaced to the caller, never silently truncated.
func (p *PagePool) Push(run []uint64, e uint64) ([]uint64, error) {
	if len(run) == cap(run) {
		if len(run) >= p.pageSize {
			return nil, fmt.Errorf(
				"neighbor run exceeds page size %d entries; increase the page size", p.pageSize)
		}
		p.grow()
		page := p.pages[len(p.pages)-1]
		n := copy(page, run)
		p.runStart = 0
		run = page[:n:p.pageSize]
	}
	return append(run, e), nil
}

// Commit seals the current run, reserving its entries in the pool.
func (p *PagePool) Commit(run []uint64) {
	p.used = p.runStart + len(run)
}

// Pages returns the number of pages allocated so far.
func (p *PagePool) Pages() int { return len(p.pages) }

// Capacity returns the number of entry slots consumed across all pages,
// including tails wasted when a run was moved to a fresh page.
func (p *PagePool) Capacity() int {
	if len(p.pages) == 0 {
		return 0
	}
	return (len(p.pages)-1)*p.pageSize + p.used
}
