package geospatial

import (
	"math"
	"testing"
)

func TestDistance_OneDegreeAtEquator(t *testing.T) {
	got := Distance(0, 0, 0, 1)
	if math.Abs(got-111.19) > 0.1 {
		t.Errorf("expected ~111.19 km, got %.4f", got)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	points := [][2]float64{
		{0, 0}, {43.263, -2.935}, {-33.86, 151.21}, {89.9, 179.9}, {-89.9, -179.9}, {51.5, -0.12},
	}
	for _, a := range points {
		for _, b := range points {
			ab := Distance(a[0], a[1], b[0], b[1])
			ba := Distance(b[0], b[1], a[0], a[1])
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("distance(%v,%v)=%f != distance(%v,%v)=%f", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestDistance_ZeroForSamePoint(t *testing.T) {
	for _, p := range [][2]float64{{0, 0}, {43.263, -2.935}, {-12.5, 130}} {
		if d := Distance(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("expected 0 for %v, got %f", p, d)
		}
	}
}

func TestDistance_GeofenceBoundary(t *testing.T) {
	if d := Distance(0, 0, 0, 0.0000449); d >= 0.005 {
		t.Errorf("expected ~5m point under 0.005 km, got %f", d)
	}
	if d := Distance(0, 0, 0, 0.00009); d < 0.005 {
		t.Errorf("expected ~10m point at or over 0.005 km, got %f", d)
	}
}

func TestHaversine_Meters(t *testing.T) {
	km := Distance(43.263, -2.935, 43.264, -2.934)
	m := Haversine(43.263, -2.935, 43.264, -2.934)
	if math.Abs(m-km*1000) > 1e-9 {
		t.Errorf("expected %f meters, got %f", km*1000, m)
	}
}
