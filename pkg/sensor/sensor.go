package sensor

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/chroma"
)

// Transport is the low-level channel access the sensor core drives. The
// apds9960 package implements it against real hardware; tests substitute
// fakes.
type Transport interface {
	// Init powers the device and enables its light engine.
	Init() error
	ReadAmbient() (uint16, error)
	ReadRed() (uint16, error)
	ReadGreen() (uint16, error)
	ReadBlue() (uint16, error)
}

// ColorSensor turns raw channel readings into calibrated colors and owns
// the calibration state machine.
//
// It is not safe for concurrent use. Callers that share one across
// goroutines serialize access themselves; the daemon does exactly that.
type ColorSensor struct {
	transport Transport

	status   calibration.Status
	ceilings calibration.Ceilings
	report   *calibration.Report

	// Clock seams, swapped by tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New wraps a transport. The sensor starts uncalibrated; call Begin before
// reading.
func New(t Transport) *ColorSensor {
	return &ColorSensor{
		transport: t,
		status:    calibration.Uncalibrated,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Begin initializes the underlying transport.
func (s *ColorSensor) Begin() error {
	if err := s.transport.Init(); err != nil {
		return errors.Wrap(err, "initialize sensor transport")
	}
	logrus.Debug("sensor transport initialized")
	return nil
}

// Status reports how the current ceilings were obtained.
func (s *ColorSensor) Status() calibration.Status {
	return s.status
}

// Calibrated reports whether ceilings are in effect, measured or defaults.
func (s *ColorSensor) Calibrated() bool {
	return s.status.Ready()
}

// Ceilings returns the active normalization ceilings.
func (s *ColorSensor) Ceilings() calibration.Ceilings {
	return s.ceilings
}

// LastReport returns the report of the most recent calibration run, or nil
// if none ran yet.
func (s *ColorSensor) LastReport() *calibration.Report {
	return s.report
}

// UseDefaultCalibration discards any measured ceilings and applies the
// factory defaults.
func (s *ColorSensor) UseDefaultCalibration() {
	s.ceilings = calibration.DefaultCeilings()
	s.status = calibration.CalibratedDefaults
	logrus.Debugf("default calibration applied, ceilings=%d", calibration.DefaultCeiling)
}

// ReadRaw reads all four channels, ambient first. The first failing channel
// aborts the read; partial data is never returned.
func (s *ColorSensor) ReadRaw() (chroma.RawReading, error) {
	var r chroma.RawReading
	var err error
	if r.Ambient, err = s.transport.ReadAmbient(); err != nil {
		return chroma.RawReading{}, errors.Wrap(err, "read ambient channel")
	}
	if r.Red, err = s.transport.ReadRed(); err != nil {
		return chroma.RawReading{}, errors.Wrap(err, "read red channel")
	}
	if r.Green, err = s.transport.ReadGreen(); err != nil {
		return chroma.RawReading{}, errors.Wrap(err, "read green channel")
	}
	if r.Blue, err = s.transport.ReadBlue(); err != nil {
		return chroma.RawReading{}, errors.Wrap(err, "read blue channel")
	}
	logrus.Tracef("raw reading a=%d r=%d g=%d b=%d", r.Ambient, r.Red, r.Green, r.Blue)
	return r, nil
}

// ReadRGB returns the current color normalized against the active ceilings.
//
// An uncalibrated sensor silently switches to the default calibration before
// reading, so the read path is always usable at the cost of unscaled color
// on first use. That state check lives here on purpose instead of hiding
// inside a ceilings getter.
func (s *ColorSensor) ReadRGB() (chroma.RGB, error) {
	if s.status == calibration.Uncalibrated {
		logrus.Debug("read on uncalibrated sensor, applying default calibration")
		s.UseDefaultCalibration()
	}

	raw, err := s.ReadRaw()
	if err != nil {
		return chroma.RGB{}, err
	}
	return s.NormalizeReading(raw), nil
}

// NormalizeReading converts an already-captured raw reading to RGB using the
// active ceilings, without touching the transport. Callers that need several
// derived forms of one sample (the daemon's monitor loop) read raw once and
// normalize here. Same first-use fallback as ReadRGB.
func (s *ColorSensor) NormalizeReading(raw chroma.RawReading) chroma.RGB {
	if s.status == calibration.Uncalibrated {
		logrus.Debug("normalize on uncalibrated sensor, applying default calibration")
		s.UseDefaultCalibration()
	}

	return chroma.RGB{
		R: chroma.Normalize(raw.Red, s.ceilings.Red),
		G: chroma.Normalize(raw.Green, s.ceilings.Green),
		B: chroma.Normalize(raw.Blue, s.ceilings.Blue),
	}
}

// ReadHSV reads the current color as HSV. This is the explicit-error
// variant callers use when black must be distinguishable from a failed
// read.
func (s *ColorSensor) ReadHSV() (chroma.HSV, error) {
	rgb, err := s.ReadRGB()
	if err != nil {
		return chroma.HSV{}, err
	}
	return chroma.RGBToHSV(rgb), nil
}

// ReadHex returns the current color packed as 0xRRGGBB. A failed read
// yields black; use ReadRGB to tell the two apart.
func (s *ColorSensor) ReadHex() uint32 {
	rgb, err := s.ReadRGB()
	if err != nil {
		logrus.Debugf("hex read failed, reporting black: %v", err)
		return 0
	}
	return rgb.Hex()
}

// ReadHexString returns the current color as "#RRGGBB", or "#000000" on a
// failed read.
func (s *ColorSensor) ReadHexString() string {
	rgb, err := s.ReadRGB()
	if err != nil {
		logrus.Debugf("hex read failed, reporting black: %v", err)
		return chroma.RGB{}.HexString()
	}
	return rgb.HexString()
}

// DetectColor reads the sensor and classifies the result into a standard
// color.
func (s *ColorSensor) DetectColor(tolerance float64) (chroma.StandardColor, error) {
	hsv, err := s.ReadHSV()
	if err != nil {
		return chroma.Unknown, err
	}
	return chroma.Detect(hsv, tolerance), nil
}

// IsStandardColor reads the sensor and reports whether the reading matches
// the given color within tolerance.
func (s *ColorSensor) IsStandardColor(c chroma.StandardColor, tolerance float64) (bool, error) {
	hsv, err := s.ReadHSV()
	if err != nil {
		return false, err
	}
	return chroma.Matches(hsv, c, tolerance), nil
}

// IsColorInRange reads the sensor and reports whether the reading falls in
// the given HSV box.
func (s *ColorSensor) IsColorInRange(r chroma.Range) (bool, error) {
	hsv, err := s.ReadHSV()
	if err != nil {
		return false, err
	}
	return chroma.InRange(hsv, r), nil
}
