package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/neighbor-sim/neighbor-sim/neigh"
)

var (
	// CLI flags for the synthetic workload
	seed         int64   // Seed for deterministic particle generation
	numParticles int     // Owned particles to generate
	boxLen       float64 // Edge length of the cubic periodic box
	radiusMin    float64 // Min particle radius (size-based lists)
	radiusMax    float64 // Max particle radius (size-based lists)

	// CLI flags for the neighbor configuration
	kind       string  // List kind: half or full
	newton     bool    // Newton-on decomposition for half lists
	sizeBased  bool    // Size-based (polydisperse) cutoffs
	history    bool    // Persistent-contact history bits
	cutoff     float64 // Neighbor cutoff (fixed-cutoff lists)
	skin       float64 // Margin added to size-based cutoffs
	binRatio   float64 // Bin edge length as a fraction of the cutoff
	workers    int     // Worker goroutines (0 = GOMAXPROCS)
	rebuilds   int     // Rebuild iterations to run
	configPath string  // Optional YAML request bundle; overrides the flags above
)

// benchCmd builds a synthetic particle set and measures rebuild throughput.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark neighbor-list rebuilds on a synthetic particle set",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, ps, err := setupBench()
		if err != nil {
			logrus.Fatalf("bench setup: %v", err)
		}

		start := time.Now()
		for it := 0; it < rebuilds; it++ {
			if err := mgr.Rebuild(ps); err != nil {
				logrus.Fatalf("rebuild %d: %v", it, err)
			}
		}
		elapsed := time.Since(start)

		mgr.Stats().Print()
		fmt.Printf("Elapsed              : %v (%.2f ms/rebuild)\n",
			elapsed, float64(elapsed.Milliseconds())/float64(rebuilds))
	},
}

// setupBench assembles the manager and the ghost-extended particle set
// from the CLI flags or a YAML bundle.
func setupBench() (*neigh.Manager, *neigh.ParticleSet, error) {
	box, err := neigh.NewOrthoBox(
		[3]float64{0, 0, 0}, [3]float64{boxLen, boxLen, boxLen})
	if err != nil {
		return nil, nil, err
	}

	var cfg neigh.Config
	var requests []neigh.RequestConfig
	if configPath != "" {
		bundle, err := neigh.LoadRequestBundle(configPath)
		if err != nil {
			return nil, nil, err
		}
		if err := bundle.Validate(); err != nil {
			return nil, nil, err
		}
		cfg = bundle.ManagerConfig()
		requests = bundle.Requests
	} else {
		cfg = neigh.Config{Skin: skin}
		requests = []neigh.RequestConfig{{
			Kind:    neigh.ListKind(kind),
			Newton:  newton,
			Size:    sizeBased,
			History: history,
			Cutoff:  cutoff,
		}}
	}
	cfg.Grid.BinSizeRatio = binRatio
	cfg.Workers = workers

	mgr, err := neigh.NewManager(box, cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, rc := range requests {
		if _, err := mgr.AddRequest(rc); err != nil {
			return nil, nil, err
		}
	}

	rng := neigh.NewPartitionedRNG(seed)
	ps := neigh.UniformSet(rng, box, numParticles)
	needRadii := sizeBased
	for _, rc := range requests {
		if rc.Size {
			needRadii = true
		}
	}
	if needRadii {
		ps = neigh.WithUniformRadii(rng, ps, radiusMin, radiusMax)
	}
	ps = neigh.ReplicateGhosts(ps, box, mgr.GhostCutoff(ps))
	logrus.Infof("generated %d owned + %d ghost particles in a %g^3 box",
		ps.NLocal, ps.NGhost, boxLen)
	return mgr, ps, nil
}

func init() {
	benchCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for deterministic particle generation")
	benchCmd.Flags().IntVar(&numParticles, "particles", 32000, "Number of owned particles")
	benchCmd.Flags().Float64Var(&boxLen, "box", 40.0, "Edge length of the cubic periodic box")
	benchCmd.Flags().Float64Var(&radiusMin, "radius-min", 0.4, "Min particle radius (size-based lists)")
	benchCmd.Flags().Float64Var(&radiusMax, "radius-max", 0.6, "Max particle radius (size-based lists)")

	benchCmd.Flags().StringVar(&kind, "kind", "half", "List kind (half, full)")
	benchCmd.Flags().BoolVar(&newton, "newton", true, "Newton-on decomposition for half lists")
	benchCmd.Flags().BoolVar(&sizeBased, "size", false, "Size-based (polydisperse) cutoffs")
	benchCmd.Flags().BoolVar(&history, "history", false, "Tag persistent-contact history bits (requires --size)")
	benchCmd.Flags().Float64Var(&cutoff, "cutoff", 2.5, "Neighbor cutoff for fixed-cutoff lists")
	benchCmd.Flags().Float64Var(&skin, "skin", 0.3, "Margin added to size-based cutoffs")
	benchCmd.Flags().Float64Var(&binRatio, "bin-ratio", 0.5, "Bin edge length as a fraction of the cutoff")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	benchCmd.Flags().IntVar(&rebuilds, "rebuilds", 10, "Rebuild iterations to run")
	benchCmd.Flags().StringVar(&configPath, "config", "", "YAML neighbor config (overrides list flags)")

	rootCmd.AddCommand(benchCmd)
}
