package chroma

import (
	"fmt"
	"strings"
)

// StandardColor is one of the named colors the classifier can report.
type StandardColor int

const (
	Unknown StandardColor = iota
	Red
	Orange
	Yellow
	Green
	Cyan
	Blue
	Purple
	Magenta
	White
	Black
)

var standardColorNames = [...]string{
	Unknown: "Unknown",
	Red:     "Red",
	Orange:  "Orange",
	Yellow:  "Yellow",
	Green:   "Green",
	Cyan:    "Cyan",
	Blue:    "Blue",
	Purple:  "Purple",
	Magenta: "Magenta",
	White:   "White",
	Black:   "Black",
}

func (c StandardColor) String() string {
	if c < Unknown || int(c) >= len(standardColorNames) {
		return standardColorNames[Unknown]
	}
	return standardColorNames[c]
}

// ParseStandardColor maps a color name to its constant, case-insensitively.
func ParseStandardColor(s string) (StandardColor, error) {
	for i, name := range standardColorNames {
		if strings.EqualFold(s, name) {
			return StandardColor(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown color %q", s)
}

// Range is an HSV box with closed saturation/value intervals. HueMin >
// HueMax selects the wraparound arc crossing 0 (e.g. 340..20 covers red).
type Range struct {
	HueMin float64 `json:"hueMin"`
	HueMax float64 `json:"hueMax"`
	SatMin float64 `json:"satMin"`
	SatMax float64 `json:"satMax"`
	ValMin float64 `json:"valMin"`
	ValMax float64 `json:"valMax"`
}

// InRange reports whether hsv falls inside r.
func InRange(hsv HSV, r Range) bool {
	var hueOK bool
	if r.HueMin > r.HueMax {
		hueOK = hsv.H >= r.HueMin || hsv.H <= r.HueMax
	} else {
		hueOK = hsv.H >= r.HueMin && hsv.H <= r.HueMax
	}
	return hueOK &&
		hsv.S >= r.SatMin && hsv.S <= r.SatMax &&
		hsv.V >= r.ValMin && hsv.V <= r.ValMax
}

// band is one row of the hue table: a half-open arc [hueLo,hueHi) plus the
// per-color saturation/value floors.
type band struct {
	color  StandardColor
	hueLo  float64
	hueHi  float64
	wrap   bool
	minSat float64
	minVal float64
}

// The bands are contiguous and non-overlapping and together cover the whole
// wheel. Evaluated in order, first match wins.
var bands = []band{
	{Red, 340, 20, true, 0.5, 0.3},
	{Orange, 20, 50, false, 0.5, 0.4},
	{Yellow, 50, 80, false, 0.5, 0.5},
	{Green, 80, 165, false, 0.4, 0.3},
	{Cyan, 165, 210, false, 0.4, 0.4},
	{Blue, 210, 265, false, 0.4, 0.3},
	{Purple, 265, 295, false, 0.4, 0.3},
	{Magenta, 295, 340, false, 0.5, 0.4},
}

const (
	whiteMaxSat = 0.2
	whiteMinVal = 0.7
	blackMaxVal = 0.2

	// Chromatic gate used by Detect only. Tuned independently from the
	// per-color floors; see the Matches/Detect doc comments.
	detectMinSat = 0.3
	detectMinVal = 0.25
)

func clampTolerance(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func (b band) contains(h float64) bool {
	if b.wrap {
		return h >= b.hueLo || h < b.hueHi
	}
	return h >= b.hueLo && h < b.hueHi
}

// Matches reports whether hsv qualifies as the given standard color within
// tolerance (clamped to [0,1]). Tolerance loosens every floor and cap.
//
// Matches and Detect use independently tuned gates: for some inputs
// Matches(hsv, c, t) is true while Detect(hsv, t) picks a different color.
// Both behaviors are intentional and covered by tests.
func Matches(hsv HSV, c StandardColor, tolerance float64) bool {
	t := clampTolerance(tolerance)
	switch c {
	case White:
		return hsv.S <= whiteMaxSat+t && hsv.V >= whiteMinVal-t
	case Black:
		return hsv.V <= blackMaxVal+t
	case Unknown:
		return false
	}
	for _, b := range bands {
		if b.color == c {
			return b.contains(hsv.H) && hsv.S >= b.minSat-t && hsv.V >= b.minVal-t
		}
	}
	return false
}

// Detect classifies hsv into a standard color. The rules run in a fixed
// order with first match winning: Black, then White, then a chromatic gate
// (below it everything is Unknown), then the hue bands in table order.
func Detect(hsv HSV, tolerance float64) StandardColor {
	t := clampTolerance(tolerance)

	if hsv.V <= blackMaxVal+t {
		return Black
	}
	if hsv.S <= whiteMaxSat+t && hsv.V >= whiteMinVal-t {
		return White
	}
	if hsv.S < detectMinSat-t || hsv.V < detectMinVal-t {
		return Unknown
	}
	for _, b := range bands {
		if b.contains(hsv.H) && hsv.S >= b.minSat-t && hsv.V >= b.minVal-t {
			return b.color
		}
	}
	return Unknown
}
