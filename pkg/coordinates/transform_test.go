package coordinates

import (
	"math"
	"testing"
)

// TestFromPolar tests conversion of range and bearing to plane coordinates
func TestFromPolar(t *testing.T) {
	tests := []struct {
		name      string
		r         float64
		fi        float64
		want      V2
		tolerance float64
	}{
		{
			name:      "Along the X1 axis",
			r:         10,
			fi:        0,
			want:      V2{X1: 10, X2: 0},
			tolerance: 1e-12,
		},
		{
			name:      "Along the X2 axis",
			r:         5,
			fi:        math.Pi / 2,
			want:      V2{X1: 0, X2: 5},
			tolerance: 1e-12,
		},
		{
			name:      "Sixty degrees",
			r:         10,
			fi:        math.Pi / 3,
			want:      V2{X1: 5, X2: 10 * math.Sqrt(3) / 2},
			tolerance: 1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromPolar(tt.r, tt.fi)
			if math.Abs(got.X1-tt.want.X1) > tt.tolerance {
				t.Errorf("X1 = %f, want %f", got.X1, tt.want.X1)
			}
			if math.Abs(got.X2-tt.want.X2) > tt.tolerance {
				t.Errorf("X2 = %f, want %f", got.X2, tt.want.X2)
			}
		})
	}
}

// TestDistance tests straight-line distance
func TestDistance(t *testing.T) {
	d := Distance(V2{X1: 0, X2: 0}, V2{X1: 3, X2: 4})
	if d != 5 {
		t.Errorf("Expected distance 5, got %f", d)
	}

	if Distance(V2{X1: 1, X2: 1}, V2{X1: 1, X2: 1}) != 0 {
		t.Error("Expected zero distance for identical points")
	}
}

// TestBearing tests bearing calculation and normalization
func TestBearing(t *testing.T) {
	t.Run("Straight along X2", func(t *testing.T) {
		b := Bearing(V2{}, V2{X1: 0, X2: 1})
		if math.Abs(b-math.Pi/2) > 1e-12 {
			t.Errorf("Expected π/2, got %f", b)
		}
	})

	t.Run("Negative angle is normalized", func(t *testing.T) {
		b := Bearing(V2{}, V2{X1: 0, X2: -1})
		if math.Abs(b-3*math.Pi/2) > 1e-12 {
			t.Errorf("Expected 3π/2, got %f", b)
		}
	})
}

// TestV2String tests the "(x1;x2)" text form
func TestV2String(t *testing.T) {
	tests := []struct {
		v    V2
		want string
	}{
		{V2{X1: 0, X2: 0}, "(0;0)"},
		{V2{X1: 1.5, X2: -2}, "(1.5;-2)"},
		{NewV2(10, 0.25), "(10;0.25)"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// TestV2IsFinite tests detection of NaN and infinite components
func TestV2IsFinite(t *testing.T) {
	if !NewV2(1, 2).IsFinite() {
		t.Error("Expected finite vector")
	}
	if NewV2(math.NaN(), 0).IsFinite() {
		t.Error("Expected NaN component to be reported")
	}
	if NewV2(0, math.Inf(-1)).IsFinite() {
		t.Error("Expected infinite component to be reported")
	}
}
