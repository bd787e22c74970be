package chroma

import (
	"fmt"
	"math"
)

// grayEpsilon is the delta below which a color sits on the gray axis and
// hue is undefined.
const grayEpsilon = 1e-9

// RawReading is one uncalibrated 4-channel sample straight from the sensor
// ADC. The usable ceiling of each channel depends on integration time, gain
// and lighting, which is why calibration exists.
type RawReading struct {
	Ambient uint16 `json:"ambient"`
	Red     uint16 `json:"red"`
	Green   uint16 `json:"green"`
	Blue    uint16 `json:"blue"`
}

// RGB is a calibrated 8-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSV holds hue in degrees [0,360) and saturation/value in [0,1].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Normalize maps a raw channel value onto 0-255 against the channel's
// calibrated ceiling. A zero ceiling (uncalibrated channel) yields 0 rather
// than dividing by zero. Values above the ceiling clamp to 255: the current
// light can legitimately be brighter than the calibration light was.
func Normalize(raw, ceiling uint16) uint8 {
	if ceiling == 0 {
		return 0
	}
	// 65535*255 fits a uint32, no overflow possible.
	v := uint32(raw) * 255 / uint32(ceiling)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Hex packs the color into 0xRRGGBB.
func (c RGB) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// HexString renders the color as uppercase "#RRGGBB".
func (c RGB) HexString() string {
	return fmt.Sprintf("#%06X", c.Hex())
}

func (c RGB) String() string {
	return c.HexString()
}

// RGBToHSV converts an 8-bit RGB color to HSV. On the gray axis (all
// channels equal) hue and saturation are reported as 0.
func RGBToHSV(c RGB) HSV {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	if delta < grayEpsilon {
		return HSV{H: 0, S: 0, V: max}
	}

	var h float64
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}

	// delta > 0 implies max > 0, so the division is safe.
	return HSV{H: h, S: delta / max, V: max}
}
