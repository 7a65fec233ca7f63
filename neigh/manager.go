// Manager ties the components together: one bin grid, the stencils of
// every registered request, and the per-request list builds. Multiple
// differently-configured requests are satisfied from a single grid rebuild;
// the decision WHEN to rebuild (displacement bookkeeping, cadence) belongs
// to the domain/communication layer, which simply calls Rebuild.

package neigh

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Config carries the manager-level tuning knobs.
type Config struct {
	// Grid tunes bin geometry; see GridConfig.
	Grid GridConfig

	// Skin is the extra margin added to size-based cutoffs so lists stay
	// valid between rebuilds. Fixed-cutoff requests fold their own skin
	// into the requested cutoff.
	Skin float64

	// PageSize is the entries-per-page capacity of list storage.
	// DefaultPageSize when zero.
	PageSize int

	// Workers bounds the goroutines used for binning and list builds.
	// GOMAXPROCS when zero.
	Workers int

	// StencilSlack widens the stencil coverage radius. Coverage is exact
	// without it; it exists as a safety margin for unusual geometries.
	StencilSlack float64

	// SpecialCoeffs are the per-bond-class (1-2, 1-3, 1-4) scale
	// coefficients. Nil applies the conventional {0, 0, 0}: all bonded
	// pairs excluded.
	SpecialCoeffs *[3]float64
}

// Manager owns the neighbor-search state for one rank.
type Manager struct {
	box    *Box
	cfg    Config
	policy *SpecialPolicy

	grid       *BinGrid
	gridCutoff float64
	requests   []*Request

	rebuilds int
	stats    BuildStats
}

// NewManager creates a manager for the given box. Requests are registered
// with AddRequest before the first Rebuild.
func NewManager(box *Box, cfg Config) (*Manager, error) {
	if box == nil {
		return nil, fmt.Errorf("manager: box must not be nil")
	}
	coeffs := [3]float64{0, 0, 0}
	if cfg.SpecialCoeffs != nil {
		coeffs = *cfg.SpecialCoeffs
	}
	policy, err := NewSpecialPolicy(coeffs)
	if err != nil {
		return nil, err
	}
	return &Manager{box: box, cfg: cfg, policy: policy}, nil
}

// AddRequest validates and registers a neighbor-list request. The next
// Rebuild resizes the grid if the new request needs a larger cutoff.
func (m *Manager) AddRequest(rc RequestConfig) (*Request, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	r := &Request{cfg: rc}
	m.requests = append(m.requests, r)
	// Force grid re-setup so the ghost margin covers the new cutoff.
	m.gridCutoff = 0
	return r, nil
}

// Requests returns the registered requests in registration order.
func (m *Manager) Requests() []*Request { return m.requests }

// Rebuilds returns how many rebuilds have completed.
func (m *Manager) Rebuilds() int { return m.rebuilds }

// Stats returns aggregate statistics over completed rebuilds.
func (m *Manager) Stats() *BuildStats { return &m.stats }

func (m *Manager) workers() int {
	if m.cfg.Workers > 0 {
		return m.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// GhostCutoff returns the ghost-halo depth the communication layer must
// provide for the given particle set: the largest cutoff any registered
// request scans with.
func (m *Manager) GhostCutoff(ps *ParticleSet) float64 {
	maxCut := 0.0
	for _, r := range m.requests {
		if c := r.cfg.maxCutoff(ps, m.cfg.Skin); c > maxCut {
			maxCut = c
		}
	}
	return maxCut
}

// Rebuild re-bins the particle set once and rebuilds every registered
// request's list from that shared grid state. Each call uses exactly the
// positions passed in; lists from earlier rebuilds are never mutated.
func (m *Manager) Rebuild(ps *ParticleSet) error {
	if len(m.requests) == 0 {
		return fmt.Errorf("rebuild: no neighbor requests registered")
	}
	if err := ps.Validate(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	maxCut := m.GhostCutoff(ps)
	if maxCut <= 0 {
		return fmt.Errorf("rebuild: no positive cutoff across requests; size-based requests need particle radii")
	}

	if m.grid == nil || maxCut > m.gridCutoff {
		if m.grid == nil {
			m.grid = &BinGrid{}
		}
		if err := m.grid.Setup(m.box, maxCut, m.cfg.Grid); err != nil {
			return err
		}
		m.gridCutoff = maxCut
		for _, r := range m.requests {
			r.stencils = nil
		}
		logrus.Infof("grid setup: %d bins covering cutoff %.4g", m.grid.NBins(), maxCut)
	}

	if err := m.grid.Rebuild(ps, m.workers()); err != nil {
		return err
	}

	for _, r := range m.requests {
		if err := m.ensureStencils(r, ps); err != nil {
			return err
		}
		list, err := buildList(ps, m.box, m.grid, r, m.policy, m.cfg.Skin, m.cfg.PageSize, m.workers())
		if err != nil {
			return err
		}
		r.list = list
	}

	m.rebuilds++
	m.stats.observe(m.grid, m.requests)
	logrus.Infof("[rebuild %d] %d owned + %d ghost particles, %d lists, %d pairs",
		m.rebuilds, ps.NLocal, ps.NGhost, len(m.requests), m.stats.LastPairs)
	return nil
}

// ensureStencils builds or refreshes a request's stencils. Fixed-cutoff
// stencils survive until grid geometry changes; size-based stencils are
// also recomputed whenever the largest pairwise radius sum grows (radii
// can change under growth/erosion dynamics, not just positions).
func (m *Manager) ensureStencils(r *Request, ps *ParticleSet) error {
	needCut := r.cfg.maxCutoff(ps, m.cfg.Skin)
	if r.stencils != nil && r.stencilCut >= needCut {
		return nil
	}
	shape := r.cfg.shape(m.box.Triclinic)
	if r.cfg.Multi() {
		r.stencils = buildStencilSet(m.grid, r.cfg.CollectionCutoffs, m.cfg.StencilSlack, shape)
	} else {
		r.stencils = buildStencilSet(m.grid, [][]float64{{needCut}}, m.cfg.StencilSlack, shape)
	}
	r.stencilCut = needCut
	return nil
}
