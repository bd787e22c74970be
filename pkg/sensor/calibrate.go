package sensor

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/maniglio/tinge/pkg/calibration"
)

const (
	// settleDelay gives the caller time to position the reference target
	// and the ADC a full integration cycle before the first sample.
	settleDelay = 500 * time.Millisecond

	// sampleInterval paces the polling loop at roughly 10 Hz.
	sampleInterval = 100 * time.Millisecond
)

// channelSamples accumulates one channel's values during a run.
type channelSamples struct {
	max    uint16
	values []float64
}

func (c *channelSamples) add(v uint16) {
	if v > c.max {
		c.max = v
	}
	c.values = append(c.values, float64(v))
}

func (c *channelSamples) stats() calibration.ChannelStats {
	st := calibration.ChannelStats{Max: c.max}
	if len(c.values) > 0 {
		st.Mean = stat.Mean(c.values, nil)
	}
	if len(c.values) > 1 {
		st.StdDev = stat.StdDev(c.values, nil)
	}
	return st
}

// Calibrate samples the sensor against a reference white target for the
// given number of seconds and installs the observed channel maxima as the
// normalization ceilings.
//
// A duration outside [1,10] seconds silently falls back to the default of
// 5; calibration is meant to be forgiving in interactive use. The call
// blocks for the whole run and cannot be cancelled.
//
// On validation failure the returned error wraps one of the calibration
// sentinels. With useDefaultsOnFailure the sensor is left usable on the
// factory ceilings, but the error is returned regardless so callers know
// the run measured nothing.
func (s *ColorSensor) Calibrate(seconds int, useDefaultsOnFailure bool) (*calibration.Report, error) {
	effective := seconds
	if effective < calibration.MinDurationSeconds || effective > calibration.MaxDurationSeconds {
		logrus.Debugf("calibration duration %ds out of range, using %ds",
			seconds, calibration.DefaultDurationSeconds)
		effective = calibration.DefaultDurationSeconds
	}

	report := &calibration.Report{
		ID:               uuid.NewString(),
		StartedAt:        s.now(),
		RequestedSeconds: seconds,
		EffectiveSeconds: effective,
		MinSamples:       calibration.MinSamplesPerSecond * effective,
	}

	logrus.WithFields(logrus.Fields{
		"id":      report.ID,
		"seconds": effective,
	}).Info("calibration started")

	s.sleep(settleDelay)

	var ambient, red, green, blue channelSamples
	deadline := s.now().Add(time.Duration(effective) * time.Second)
	for s.now().Before(deadline) {
		raw, err := s.ReadRaw()
		if err != nil {
			// A flaky poll is skipped, never fatal. The sample-count
			// floor catches a sensor that misses too many.
			logrus.Debugf("calibration poll failed, skipping sample: %v", err)
			s.sleep(sampleInterval)
			continue
		}
		ambient.add(raw.Ambient)
		red.add(raw.Red)
		green.add(raw.Green)
		blue.add(raw.Blue)
		report.Samples++
		s.sleep(sampleInterval)
	}

	report.Ambient = ambient.stats()
	report.Red = red.stats()
	report.Green = green.stats()
	report.Blue = blue.stats()

	maxima := calibration.Ceilings{
		Ambient: ambient.max,
		Red:     red.max,
		Green:   green.max,
		Blue:    blue.max,
	}

	if err := validate(report.Samples, report.MinSamples, maxima); err != nil {
		report.Failure = err.Error()
		if useDefaultsOnFailure {
			s.UseDefaultCalibration()
			logrus.Warnf("calibration failed, falling back to default ceilings: %v", err)
		} else {
			s.ceilings = calibration.Ceilings{}
			s.status = calibration.Uncalibrated
			logrus.Warnf("calibration failed: %v", err)
		}
		report.Ceilings = s.ceilings
		report.Status = s.status
		s.report = report
		return report, err
	}

	s.ceilings = maxima
	s.status = calibration.Calibrated
	report.Ceilings = maxima
	report.Status = s.status
	s.report = report

	logrus.WithFields(logrus.Fields{
		"id":      report.ID,
		"samples": report.Samples,
		"ambient": maxima.Ambient,
		"red":     maxima.Red,
		"green":   maxima.Green,
		"blue":    maxima.Blue,
	}).Info("calibration succeeded")
	return report, nil
}

// validate applies the acceptance criteria to a finished run. First failure
// wins.
func validate(samples, minSamples int, m calibration.Ceilings) error {
	if samples < minSamples {
		return errors.Wrapf(calibration.ErrTooFewSamples, "got %d, need %d", samples, minSamples)
	}
	if m.Ambient < calibration.MinThreshold {
		return errors.Wrapf(calibration.ErrTooDark, "ambient max %d below %d",
			m.Ambient, calibration.MinThreshold)
	}
	if m.Red < calibration.MinThreshold && m.Green < calibration.MinThreshold &&
		m.Blue < calibration.MinThreshold {
		return errors.Wrapf(calibration.ErrNoColorSignal, "maxima r=%d g=%d b=%d",
			m.Red, m.Green, m.Blue)
	}
	if m.Ambient > calibration.SaturationThreshold || m.Red > calibration.SaturationThreshold ||
		m.Green > calibration.SaturationThreshold || m.Blue > calibration.SaturationThreshold {
		return errors.Wrapf(calibration.ErrSaturated, "maxima a=%d r=%d g=%d b=%d",
			m.Ambient, m.Red, m.Green, m.Blue)
	}
	if m.Ambient == 0 && m.Red == 0 && m.Green == 0 && m.Blue == 0 {
		return calibration.ErrNoSignal
	}
	return nil
}
