package chroma

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInRange(t *testing.T) {
	box := Range{HueMin: 100, HueMax: 140, SatMin: 0.2, SatMax: 0.8, ValMin: 0.2, ValMax: 0.8}
	wrap := Range{HueMin: 340, HueMax: 20, SatMin: 0, SatMax: 1, ValMin: 0, ValMax: 1}

	tests := []struct {
		name string
		hsv  HSV
		r    Range
		want bool
	}{
		{"inside simple box", HSV{120, 0.5, 0.5}, box, true},
		{"hue below box", HSV{99, 0.5, 0.5}, box, false},
		{"hue above box", HSV{141, 0.5, 0.5}, box, false},
		{"hue bounds are closed", HSV{100, 0.5, 0.5}, box, true},
		{"sat upper bound closed", HSV{120, 0.8, 0.5}, box, true},
		{"sat above", HSV{120, 0.801, 0.5}, box, false},
		{"val lower bound closed", HSV{120, 0.5, 0.2}, box, true},
		{"val below", HSV{120, 0.5, 0.199}, box, false},
		{"wraparound catches 350", HSV{350, 0.5, 0.5}, wrap, true},
		{"wraparound catches 10", HSV{10, 0.5, 0.5}, wrap, true},
		{"wraparound excludes 180", HSV{180, 0.5, 0.5}, wrap, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRange(tt.hsv, tt.r); got != tt.want {
				t.Errorf("InRange(%+v, %+v) = %v, want %v", tt.hsv, tt.r, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		hsv       HSV
		color     StandardColor
		tolerance float64
		want      bool
	}{
		{"red low side of wrap", HSV{350, 0.6, 0.5}, Red, 0, true},
		{"red high side of wrap", HSV{10, 0.6, 0.5}, Red, 0, true},
		{"red excludes orange hue", HSV{25, 0.6, 0.5}, Red, 0, false},
		{"orange in band", HSV{30, 0.6, 0.5}, Orange, 0, true},
		{"orange sat floor", HSV{30, 0.49, 0.5}, Orange, 0, false},
		{"orange sat floor loosened", HSV{30, 0.49, 0.5}, Orange, 0.02, true},
		{"yellow val floor", HSV{60, 0.6, 0.49}, Yellow, 0, false},
		{"yellow val floor loosened", HSV{60, 0.6, 0.49}, Yellow, 0.01, true},
		{"green in band", HSV{100, 0.45, 0.35}, Green, 0, true},
		{"cyan in band", HSV{180, 0.5, 0.5}, Cyan, 0, true},
		{"blue in band", HSV{240, 0.45, 0.35}, Blue, 0, true},
		{"purple in band", HSV{280, 0.45, 0.35}, Purple, 0, true},
		{"magenta in band", HSV{320, 0.6, 0.5}, Magenta, 0, true},
		{"band upper edge excluded", HSV{50, 0.6, 0.5}, Orange, 0, false},
		{"white", HSV{123, 0.15, 0.8}, White, 0, true},
		{"white sat cap", HSV{123, 0.25, 0.8}, White, 0, false},
		{"white sat cap loosened", HSV{123, 0.25, 0.8}, White, 0.05, true},
		{"black", HSV{200, 0.9, 0.15}, Black, 0, true},
		{"black val cap", HSV{200, 0.9, 0.25}, Black, 0, false},
		{"black val cap loosened", HSV{200, 0.9, 0.25}, Black, 0.05, true},
		{"unknown never matches", HSV{30, 1, 1}, Unknown, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.hsv, tt.color, tt.tolerance); got != tt.want {
				t.Errorf("Matches(%+v, %v, %v) = %v, want %v",
					tt.hsv, tt.color, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		hsv       HSV
		tolerance float64
		want      StandardColor
	}{
		{"black wins over chromatic", HSV{0, 1, 0.1}, 0, Black},
		{"white when washed out", HSV{200, 0.1, 0.9}, 0, White},
		{"below sat gate", HSV{100, 0.25, 0.5}, 0, Unknown},
		{"below val gate", HSV{100, 0.5, 0.23}, 0, Unknown},
		{"band floor misses", HSV{60, 0.4, 0.9}, 0, Unknown},
		{"red wrap low", HSV{355, 1, 1}, 0, Red},
		{"red wrap high", HSV{5, 1, 1}, 0, Red},
		{"orange", HSV{25.81, 0.877, 0.8}, 0, Orange},
		{"green", HSV{120, 0.5, 0.5}, 0, Green},
		{"tolerance revives band floor", HSV{60, 0.42, 0.9}, 0.1, Yellow},
		{"tolerance widens black", HSV{0, 1, 0.3}, 0.15, Black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.hsv, tt.tolerance); got != tt.want {
				t.Errorf("Detect(%+v, %v) = %v, want %v", tt.hsv, tt.tolerance, got, tt.want)
			}
		})
	}
}

// Full-saturation full-value hues must land in exactly the table bands, with
// transitions at the documented edges and no Unknown gaps.
func TestDetectPartitionsColorWheel(t *testing.T) {
	type change struct {
		Hue   float64
		Color string
	}
	var got []change
	prev := ""
	for h := 0; h < 360; h++ {
		c := Detect(HSV{H: float64(h), S: 1, V: 1}, 0)
		if c == Unknown {
			t.Fatalf("hue %d at full saturation/value classified Unknown", h)
		}
		if c.String() != prev {
			got = append(got, change{float64(h), c.String()})
			prev = c.String()
		}
	}
	want := []change{
		{0, "Red"},
		{20, "Orange"},
		{50, "Yellow"},
		{80, "Green"},
		{165, "Cyan"},
		{210, "Blue"},
		{265, "Purple"},
		{295, "Magenta"},
		{340, "Red"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("color wheel partition mismatch (-want +got):\n%s", diff)
	}
}

// Matches checks only the per-color gates while Detect runs the achromatic
// rules first, so the two can disagree. Keep these pinned: the asymmetry is
// intentional, not a bug to unify.
func TestDetectAndMatchesDisagree(t *testing.T) {
	dim := HSV{H: 100, S: 0.5, V: 0.3}
	if !Matches(dim, Green, 0.15) {
		t.Errorf("Matches(%+v, Green, 0.15) = false, want true", dim)
	}
	if got := Detect(dim, 0.15); got != Black {
		t.Errorf("Detect(%+v, 0.15) = %v, want Black", dim, got)
	}

	washed := HSV{H: 100, S: 0.3, V: 0.9}
	if !Matches(washed, Green, 0.15) {
		t.Errorf("Matches(%+v, Green, 0.15) = false, want true", washed)
	}
	if got := Detect(washed, 0.15); got != White {
		t.Errorf("Detect(%+v, 0.15) = %v, want White", washed, got)
	}
}

func TestToleranceClamped(t *testing.T) {
	// Negative tolerance must behave like zero, not tighten the gates.
	atFloor := HSV{H: 30, S: 0.5, V: 0.4}
	if !Matches(atFloor, Orange, -5) {
		t.Errorf("Matches with negative tolerance tightened the floors")
	}
	if got := Detect(atFloor, -5); got != Orange {
		t.Errorf("Detect(%+v, -5) = %v, want Orange", atFloor, got)
	}

	// Tolerance above 1 behaves like 1: the black rule then swallows
	// everything in Detect, and every floor collapses in Matches.
	if got := Detect(HSV{0, 1, 1}, 99); got != Black {
		t.Errorf("Detect with huge tolerance = %v, want Black", got)
	}
	if !Matches(HSV{300, 1, 0}, White, 99) {
		t.Errorf("Matches(White) with huge tolerance = false, want true")
	}
}

func TestCalibratedOrangeClassifies(t *testing.T) {
	rgb := RGB{R: 204, G: 102, B: 25}
	hsv := RGBToHSV(rgb)
	if !Matches(hsv, Orange, 0.15) {
		t.Errorf("Matches(%+v, Orange, 0.15) = false, want true", hsv)
	}
	if got := Detect(hsv, 0.15); got != Orange {
		t.Errorf("Detect(%+v, 0.15) = %v, want Orange", hsv, got)
	}
}

func TestParseStandardColor(t *testing.T) {
	for i, name := range standardColorNames {
		got, err := ParseStandardColor(name)
		if err != nil {
			t.Fatalf("ParseStandardColor(%q) returned error: %v", name, err)
		}
		if got != StandardColor(i) {
			t.Errorf("ParseStandardColor(%q) = %v, want %v", name, got, StandardColor(i))
		}
	}

	if got, err := ParseStandardColor("ORANGE"); err != nil || got != Orange {
		t.Errorf("ParseStandardColor(\"ORANGE\") = %v, %v, want Orange", got, err)
	}
	if _, err := ParseStandardColor("teal"); err == nil {
		t.Errorf("ParseStandardColor(\"teal\") should fail")
	}
}

func TestStandardColorString(t *testing.T) {
	if got := StandardColor(99).String(); got != "Unknown" {
		t.Errorf("StandardColor(99).String() = %q, want %q", got, "Unknown")
	}
	if got := StandardColor(-1).String(); got != "Unknown" {
		t.Errorf("StandardColor(-1).String() = %q, want %q", got, "Unknown")
	}
	if got := Magenta.String(); got != "Magenta" {
		t.Errorf("Magenta.String() = %q, want %q", got, "Magenta")
	}
}
