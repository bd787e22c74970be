package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Config interface {
	PollInterval() time.Duration
	CalibrationSeconds() int
	UseDefaultsOnFailure() bool
	CalibrateOnStart() bool
	Tolerance() float64
	ScheduleCron() string
	AllowNonRootAccess() bool
	MirrorEnabled() bool
	MirrorGroup() string
	MirrorMaxBrightness() float64

	SetPollInterval(time.Duration)
	SetCalibrationSeconds(int)
	SetUseDefaultsOnFailure(bool)
	SetCalibrateOnStart(bool)
	SetTolerance(float64)
	SetScheduleCron(string)
	SetAllowNonRootAccess(bool)
	SetMirrorEnabled(bool)
	SetMirrorGroup(string)
	SetMirrorMaxBrightness(float64)

	// LogrusFields returns the effective settings as structured log fields.
	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
