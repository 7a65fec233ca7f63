package neigh

import (
	"math"
	"testing"
)

func TestBox_LamdaRoundTrip_Triclinic(t *testing.T) {
	// GIVEN a tilted box
	box, err := NewBox(
		[3]float64{-2, 0, 1}, [3]float64{8, 10, 11},
		[3]float64{2.0, 1.5, 1.0}, true, [3]bool{true, true, true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// WHEN mapping Cartesian -> lamda -> Cartesian
	pts := [][3]float64{{0, 0, 2}, {3.3, 7.1, 5.9}, {-1.5, 9.9, 10.5}}
	for _, x := range pts {
		back := box.LamdaToX(box.XToLamda(x))

		// THEN the round trip reproduces the point
		for d := 0; d < 3; d++ {
			if math.Abs(back[d]-x[d]) > 1e-12 {
				t.Errorf("round trip of %v axis %d: got %v", x, d, back)
			}
		}
	}
}

func TestBox_LamdaUnitCube(t *testing.T) {
	// GIVEN a tilted box
	box, err := NewBox(
		[3]float64{0, 0, 0}, [3]float64{10, 10, 10},
		[3]float64{3, 2, 1}, true, [3]bool{true, true, true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// WHEN mapping the corner lo + xy*ey + ... (the tilted upper corner)
	corner := [3]float64{10 + 3 + 2, 10 + 1, 10}
	l := box.XToLamda(corner)

	// THEN it lands at lamda (1,1,1)
	for d := 0; d < 3; d++ {
		if math.Abs(l[d]-1) > 1e-12 {
			t.Errorf("upper corner lamda axis %d: got %v, want 1", d, l)
		}
	}
}

func TestBox_MinimumImage_Orthogonal(t *testing.T) {
	// GIVEN a 10^3 periodic box
	box, err := NewOrthoBox([3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// WHEN wrapping a displacement past the half box
	d := box.MinimumImage([3]float64{6, -7, 4})

	// THEN each axis maps to its nearest image
	want := [3]float64{-4, 3, 4}
	if d != want {
		t.Errorf("MinimumImage: got %v, want %v", d, want)
	}
}

func TestBox_MinimumImage_NonPeriodicAxisUntouched(t *testing.T) {
	// GIVEN a box periodic only in x
	box, err := NewBox([3]float64{0, 0, 0}, [3]float64{10, 10, 10},
		[3]float64{}, false, [3]bool{true, false, false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// WHEN wrapping a displacement large on every axis
	d := box.MinimumImage([3]float64{8, 8, -8})

	// THEN only the periodic axis wraps
	want := [3]float64{-2, 8, -8}
	if d != want {
		t.Errorf("MinimumImage: got %v, want %v", d, want)
	}
}

func TestBox_MinimumImage_TriclinicAppliesTilt(t *testing.T) {
	// GIVEN a tilted periodic box
	box, err := NewBox([3]float64{0, 0, 0}, [3]float64{10, 10, 10},
		[3]float64{2, 1.5, 1}, true, [3]bool{true, true, true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// WHEN wrapping a displacement past the half box in z
	d := box.MinimumImage([3]float64{0, 0, 7})

	// THEN the z wrap drags the xz and yz tilt along
	want := [3]float64{-1.5, -1, -3}
	for a := 0; a < 3; a++ {
		if math.Abs(d[a]-want[a]) > 1e-12 {
			t.Errorf("MinimumImage: got %v, want %v", d, want)
			break
		}
	}
}

func TestBox_MinimumImageCheck(t *testing.T) {
	// GIVEN a 10^3 periodic box
	box, err := NewOrthoBox([3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN displacements beyond the half box are flagged, others are not
	if box.MinimumImageCheck(4.9, 0, 0) {
		t.Error("4.9 on a half-box of 5 flagged as non-minimum image")
	}
	if !box.MinimumImageCheck(5.1, 0, 0) {
		t.Error("5.1 on a half-box of 5 not flagged")
	}
	if !box.MinimumImageCheck(0, -5.1, 0) {
		t.Error("-5.1 in y not flagged")
	}
}

func TestNewBox_RejectsBadGeometry(t *testing.T) {
	// WHEN constructing a box with a zero-extent axis
	_, err := NewOrthoBox([3]float64{0, 0, 0}, [3]float64{10, 0, 10})
	// THEN construction fails
	if err == nil {
		t.Error("expected error for zero-extent axis")
	}

	// WHEN passing tilt factors without the triclinic flag
	_, err = NewBox([3]float64{0, 0, 0}, [3]float64{10, 10, 10},
		[3]float64{1, 0, 0}, false, [3]bool{true, true, true})
	// THEN construction fails
	if err == nil {
		t.Error("expected error for tilt without triclinic flag")
	}
}
