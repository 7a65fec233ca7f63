// Neighbor-list requests. Each force-law or diagnostic consumer registers
// one request at setup time describing the list flavor it needs; a single
// grid rebuild then satisfies every registered request. Unsupported flag
// combinations are rejected here, naming the offending combination, so a
// misconfiguration never survives to build time.

package neigh

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRequest is wrapped by every request-validation failure.
var ErrUnsupportedRequest = errors.New("unsupported neighbor request")

// ListKind selects half (each pair stored once) or full (both directions)
// enumeration.
type ListKind string

const (
	HalfList ListKind = "half"
	FullList ListKind = "full"
)

// RequestConfig describes the list a consumer needs.
type RequestConfig struct {
	Kind ListKind `yaml:"kind"`

	// Newton enables the forward-bin decomposition for half lists: each
	// pair is enumerated once system-wide and the communication layer is
	// expected to reverse-accumulate forces onto ghosts. Ignored for full
	// lists.
	Newton bool `yaml:"newton"`

	// Size switches the cutoff test to (radius_i + radius_j + skin)^2 for
	// polydisperse particles. Requires per-particle radii.
	Size bool `yaml:"size"`

	// History tags entries whose pair is in actual contact (distance below
	// the radius sum, without skin) so consumers can track persistent
	// contact state. Only meaningful for size-based lists.
	History bool `yaml:"history"`

	// Ghost extends enumeration to ghost reference particles, producing
	// ghost-ghost pairs. Only supported for full lists.
	Ghost bool `yaml:"ghost"`

	// Cutoff is the scalar neighbor cutoff for fixed-cutoff builds. The
	// caller folds any skin into this value. Ignored when Size is set.
	Cutoff float64 `yaml:"cutoff"`

	// CollectionCutoffs is the per-(reference, scanned) collection cutoff
	// matrix for multi-collection builds; leave nil for single-collection.
	// It is not assumed symmetric.
	CollectionCutoffs [][]float64 `yaml:"collection_cutoffs"`
}

// Multi reports whether the request is a multi-collection build.
func (rc *RequestConfig) Multi() bool { return rc.CollectionCutoffs != nil }

// Validate rejects unsupported flag combinations and malformed cutoffs.
func (rc *RequestConfig) Validate() error {
	switch rc.Kind {
	case HalfList, FullList:
	default:
		return fmt.Errorf("%w: unknown list kind %q", ErrUnsupportedRequest, rc.Kind)
	}
	if rc.Size {
		if rc.Kind != HalfList {
			return fmt.Errorf("%w: size-based %s lists are not implemented", ErrUnsupportedRequest, rc.Kind)
		}
		if rc.Multi() {
			return fmt.Errorf("%w: size-based + multi-collection", ErrUnsupportedRequest)
		}
	}
	if rc.History && !rc.Size {
		return fmt.Errorf("%w: history bits require a size-based list", ErrUnsupportedRequest)
	}
	if rc.Ghost {
		if rc.Kind != FullList {
			return fmt.Errorf("%w: ghost-ghost pairs require a full list, got %s", ErrUnsupportedRequest, rc.Kind)
		}
		if rc.Size {
			return fmt.Errorf("%w: ghost + size-based", ErrUnsupportedRequest)
		}
	}
	if rc.Multi() {
		n := len(rc.CollectionCutoffs)
		for ic, row := range rc.CollectionCutoffs {
			if len(row) != n {
				return fmt.Errorf("%w: collection cutoff matrix is ragged (row %d has %d of %d entries)",
					ErrUnsupportedRequest, ic, len(row), n)
			}
			for jc, cut := range row {
				if cut <= 0 {
					return fmt.Errorf("%w: collection cutoff [%d][%d] = %g, must be positive",
						ErrUnsupportedRequest, ic, jc, cut)
				}
			}
		}
	} else if !rc.Size && rc.Cutoff <= 0 {
		return fmt.Errorf("%w: cutoff %g, must be positive for fixed-cutoff lists", ErrUnsupportedRequest, rc.Cutoff)
	}
	return nil
}

// maxCutoff returns the largest Cartesian cutoff this request can test a
// pair against, given the current particle set. The grid and ghost margin
// must cover it.
func (rc *RequestConfig) maxCutoff(ps *ParticleSet, skin float64) float64 {
	if rc.Size {
		return 2*ps.MaxRadius() + skin
	}
	if rc.Multi() {
		max := 0.0
		for _, row := range rc.CollectionCutoffs {
			for _, cut := range row {
				if cut > max {
					max = cut
				}
			}
		}
		return max
	}
	return rc.Cutoff
}

// shape returns the stencil shape the request's variant scans with.
func (rc *RequestConfig) shape(triclinic bool) stencilShape {
	if rc.Kind == HalfList && rc.Newton {
		// Triclinic and multi-collection builds resolve direction with a
		// per-pair coordinate ordering, so their stencils keep the whole
		// dz >= 0 half-space; only the single-collection orthogonal build
		// can pre-select direction at the bin level.
		if triclinic || rc.Multi() {
			return shapeHalfZ
		}
		return shapeHalfForward
	}
	// Full lists scan symmetrically; half newton-off also scans the
	// symmetric stencil and resolves ownership by particle-index order.
	return shapeFull
}

// Request is a registered neighbor-list request: the validated config plus
// the stencil state and most recent list built for it.
type Request struct {
	cfg RequestConfig

	stencils   *StencilSet
	stencilCut float64 // cutoff the current stencils cover
	list       *NeighborList
}

// Config returns the request's configuration.
func (r *Request) Config() RequestConfig { return r.cfg }

// List returns the neighbor list produced by the most recent rebuild, or
// nil before the first one.
func (r *Request) List() *NeighborList { return r.list }
