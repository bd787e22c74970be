package chroma

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     uint16
		ceiling uint16
		want    uint8
	}{
		{"zero ceiling yields black", 1234, 0, 0},
		{"zero raw", 0, 1000, 0},
		{"raw equals ceiling", 1000, 1000, 255},
		{"raw above ceiling clamps", 1500, 1000, 255},
		{"floor division", 1, 3, 85},
		{"rounds down", 999, 1000, 254},
		{"typical calibrated read", 800, 1000, 204},
		{"max raw against max ceiling", 65535, 65535, 255},
		{"no overflow near the top", 65535, 65534, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.ceiling); got != tt.want {
				t.Errorf("Normalize(%d, %d) = %d, want %d", tt.raw, tt.ceiling, got, tt.want)
			}
		})
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	const ceiling = 977
	prev := Normalize(0, ceiling)
	for raw := uint16(1); raw < 3000; raw++ {
		cur := Normalize(raw, ceiling)
		if cur < prev {
			t.Fatalf("Normalize(%d, %d) = %d, below Normalize(%d, %d) = %d",
				raw, ceiling, cur, raw-1, ceiling, prev)
		}
		prev = cur
	}
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func hsvNear(a, b HSV) bool {
	return near(a.H, b.H, 0.05) && near(a.S, b.S, 0.001) && near(a.V, b.V, 0.001)
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want HSV
	}{
		{"pure red", RGB{255, 0, 0}, HSV{0, 1, 1}},
		{"pure green", RGB{0, 255, 0}, HSV{120, 1, 1}},
		{"pure blue", RGB{0, 0, 255}, HSV{240, 1, 1}},
		{"yellow", RGB{255, 255, 0}, HSV{60, 1, 1}},
		{"cyan", RGB{0, 255, 255}, HSV{180, 1, 1}},
		{"magenta", RGB{255, 0, 255}, HSV{300, 1, 1}},
		{"white", RGB{255, 255, 255}, HSV{0, 0, 1}},
		{"black", RGB{0, 0, 0}, HSV{0, 0, 0}},
		{"negative hue wraps", RGB{255, 0, 128}, HSV{329.88, 1, 1}},
		{"calibrated orange", RGB{204, 102, 25}, HSV{25.81, 0.8775, 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSV(tt.in)
			if !hsvNear(got, tt.want) {
				t.Errorf("RGBToHSV(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRGBToHSVGrayAxis(t *testing.T) {
	for _, v := range []uint8{0, 1, 77, 128, 254, 255} {
		got := RGBToHSV(RGB{v, v, v})
		if got.H != 0 || got.S != 0 {
			t.Errorf("RGBToHSV(gray %d) = %+v, want zero hue and saturation", v, got)
		}
		if !near(got.V, float64(v)/255, 1e-9) {
			t.Errorf("RGBToHSV(gray %d).V = %v, want %v", v, got.V, float64(v)/255)
		}
	}
}

func TestRGBToHSVHueRange(t *testing.T) {
	// Sweep a coarse grid and make sure hue always lands in [0,360).
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 15 {
				hsv := RGBToHSV(RGB{uint8(r), uint8(g), uint8(b)})
				if hsv.H < 0 || hsv.H >= 360 {
					t.Fatalf("RGBToHSV(%d,%d,%d).H = %v, out of [0,360)", r, g, b, hsv.H)
				}
				if hsv.S < 0 || hsv.S > 1 || hsv.V < 0 || hsv.V > 1 {
					t.Fatalf("RGBToHSV(%d,%d,%d) = %+v, S/V out of [0,1]", r, g, b, hsv)
				}
			}
		}
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		name    string
		in      RGB
		want    uint32
		wantStr string
	}{
		{"mixed", RGB{255, 160, 11}, 0xFFA00B, "#FFA00B"},
		{"black", RGB{0, 0, 0}, 0x000000, "#000000"},
		{"blue only", RGB{0, 0, 255}, 0x0000FF, "#0000FF"},
		{"low bytes keep padding", RGB{1, 2, 3}, 0x010203, "#010203"},
		{"white", RGB{255, 255, 255}, 0xFFFFFF, "#FFFFFF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Hex(); got != tt.want {
				t.Errorf("Hex() = %#06x, want %#06x", got, tt.want)
			}
			if got := tt.in.HexString(); got != tt.wantStr {
				t.Errorf("HexString() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}
