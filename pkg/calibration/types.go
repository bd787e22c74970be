package calibration

import (
	"errors"
	"time"
)

// Status describes how the sensor's normalization ceilings were obtained.
// The values are the wire names served over HTTP.
type Status string

const (
	// Uncalibrated means no ceilings are set yet. Reads that need them
	// fall back to the defaults on first use.
	Uncalibrated Status = "NOT_CALIBRATED"
	// Calibrated means the ceilings come from a successful sampling run.
	Calibrated Status = "CALIBRATED_OK"
	// CalibratedDefaults means the factory ceilings are in effect, either
	// forced or as fallback after a failed run.
	CalibratedDefaults Status = "CALIBRATED_WITH_DEFAULTS"
)

// String returns the wire name, or "UNKNOWN" for values outside the enum.
func (s Status) String() string {
	switch s {
	case Uncalibrated, Calibrated, CalibratedDefaults:
		return string(s)
	}
	return "UNKNOWN"
}

// Ready reports whether ceilings are in effect, measured or defaults.
func (s Status) Ready() bool {
	return s == Calibrated || s == CalibratedDefaults
}

// Sampling parameters of a calibration run.
const (
	DefaultDurationSeconds = 5
	MinDurationSeconds     = 1
	MaxDurationSeconds     = 10

	// MinSamplesPerSecond is the least sampling rate a run must sustain
	// (polling runs at roughly 10 Hz, so this leaves headroom for skipped
	// reads).
	MinSamplesPerSecond = 5

	// MinThreshold is the least a channel maximum must reach for the run
	// to count as having seen real light.
	MinThreshold = 10

	// SaturationThreshold flags a channel stuck at the ADC rail.
	SaturationThreshold = 65000

	// DefaultCeiling is the factory normalization ceiling applied when a
	// run fails with fallback enabled or defaults are forced.
	DefaultCeiling = 1000
)

// Validation failures a calibration run can report, in the order they are
// checked.
var (
	ErrTooFewSamples = errors.New("too few samples collected")
	ErrTooDark       = errors.New("ambient channel never reached the minimum threshold")
	ErrNoColorSignal = errors.New("no color channel reached the minimum threshold")
	ErrSaturated     = errors.New("channel saturated during sampling")
	ErrNoSignal      = errors.New("all channels read zero")
)

// Ceilings are the per-channel normalization maxima.
type Ceilings struct {
	Ambient uint16 `json:"ambient"`
	Red     uint16 `json:"red"`
	Green   uint16 `json:"green"`
	Blue    uint16 `json:"blue"`
}

// DefaultCeilings returns the factory ceilings.
func DefaultCeilings() Ceilings {
	return Ceilings{
		Ambient: DefaultCeiling,
		Red:     DefaultCeiling,
		Green:   DefaultCeiling,
		Blue:    DefaultCeiling,
	}
}

// ChannelStats summarizes one channel's samples from a calibration run.
type ChannelStats struct {
	Max    uint16  `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Report is the outcome of one calibration run. Failure is empty when the
// run validated; Status reflects what the sensor was left with. Ceilings
// and the per-channel maxima diverge when a failed run fell back to the
// defaults.
type Report struct {
	ID               string       `json:"id"`
	StartedAt        time.Time    `json:"startedAt"`
	RequestedSeconds int          `json:"requestedSeconds"`
	EffectiveSeconds int          `json:"effectiveSeconds"`
	Samples          int          `json:"samples"`
	MinSamples       int          `json:"minSamples"`
	Ceilings         Ceilings     `json:"ceilings"`
	Ambient          ChannelStats `json:"ambient"`
	Red              ChannelStats `json:"red"`
	Green            ChannelStats `json:"green"`
	Blue             ChannelStats `json:"blue"`
	Failure          string       `json:"failure,omitempty"`
	Status           Status       `json:"status"`
}

// Request are the knobs accepted by the daemon's calibrate endpoint.
type Request struct {
	Seconds              int  `json:"seconds"`
	UseDefaultsOnFailure bool `json:"useDefaultsOnFailure"`
}

// Overview is the view model served by the daemon's calibration endpoint
// and rendered by the CLI.
type Overview struct {
	Status   Status     `json:"status"`
	Ceilings Ceilings   `json:"ceilings"`
	Report   *Report    `json:"report,omitempty"`
	Cron     string     `json:"cron,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
	Running  bool       `json:"running"`
}

// Schedule is the view model served by the daemon's schedule endpoint.
// Running reports whether a cron expression is set and armed, not whether a
// calibration run is in progress right now.
type Schedule struct {
	Cron     string      `json:"cron,omitempty"`
	NextRuns []time.Time `json:"nextRuns,omitempty"`
	Running  bool        `json:"running"`
}
