// Package chroma holds the pure color math used across the project:
//
//   - Normalize: raw 16-bit channel -> 8-bit against a calibrated ceiling
//   - RGBToHSV: 8-bit RGB -> hue/saturation/value
//   - RGB hex packing ("#RRGGBB")
//   - StandardColor: named-color classification with tunable tolerance
//
// Everything here is side-effect free and hardware agnostic. Sensor access
// and calibration state live in pkg/sensor.
package chroma
