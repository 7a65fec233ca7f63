// Tracks rebuild statistics for reporting and tuning: pair counts, page
// consumption, bin-overflow retries, and the neighbor-count distribution.

package neigh

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BuildStats aggregates statistics across rebuilds. The per-particle
// neighbor distribution is the main tuning signal for the bin-size ratio.
type BuildStats struct {
	Rebuilds    int // rebuilds observed
	GridRetries int // total bin-overflow regrow passes

	LastPairs         int     // entries across all lists in the last rebuild
	LastWithNeighbors int     // reference particles with >= 1 neighbor
	LastPages         int     // pages allocated in the last rebuild
	MeanNeighbors     float64 // mean run length in the last rebuild
	MaxNeighbors      float64 // longest run in the last rebuild
}

func (s *BuildStats) observe(grid *BinGrid, requests []*Request) {
	s.Rebuilds++
	s.GridRetries += grid.Retries()

	s.LastPairs = 0
	s.LastWithNeighbors = 0
	s.LastPages = 0
	var counts []float64
	for _, r := range requests {
		l := r.List()
		if l == nil {
			continue
		}
		s.LastPairs += l.TotalEntries()
		s.LastWithNeighbors += l.NumWithNeighbors()
		s.LastPages += l.Pages()
		for i := 0; i < l.NumParticles(); i++ {
			counts = append(counts, float64(l.Count(i)))
		}
	}
	if len(counts) > 0 {
		s.MeanNeighbors = stat.Mean(counts, nil)
		s.MaxNeighbors = floats.Max(counts)
	} else {
		s.MeanNeighbors, s.MaxNeighbors = 0, 0
	}
}

// Print displays the aggregate statistics after a run.
func (s *BuildStats) Print() {
	fmt.Println("=== Neighbor Build Stats ===")
	fmt.Printf("Rebuilds             : %d\n", s.Rebuilds)
	fmt.Printf("Grid overflow retries: %d\n", s.GridRetries)
	fmt.Printf("Pairs (last rebuild) : %d\n", s.LastPairs)
	fmt.Printf("With neighbors       : %d\n", s.LastWithNeighbors)
	fmt.Printf("Pages allocated      : %d\n", s.LastPages)
	fmt.Printf("Neighbors per particle: mean %.2f, max %.0f\n", s.MeanNeighbors, s.MaxNeighbors)
}
