package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/events"
)

// ErrCalibrationInProgress is returned when a calibration run is requested
// while another one is still sampling.
var ErrCalibrationInProgress = errors.New("calibration already in progress")

var (
	calibrationMu      = &sync.Mutex{}
	calibrationRunning bool
)

func beginCalibration() bool {
	calibrationMu.Lock()
	defer calibrationMu.Unlock()

	if calibrationRunning {
		return false
	}
	calibrationRunning = true
	return true
}

func endCalibration() {
	calibrationMu.Lock()
	defer calibrationMu.Unlock()

	calibrationRunning = false
}

func isCalibrationRunning() bool {
	calibrationMu.Lock()
	defer calibrationMu.Unlock()

	return calibrationRunning
}

// The calibration mirror is a copy of the sensor's calibration state that
// handlers can read without contending on sensorMu. A calibration run holds
// sensorMu for its whole sampling window, and status queries must not block
// behind it.
var (
	calMirrorMu sync.RWMutex
	calMirror   calibration.Overview
)

// refreshCalibrationMirror copies the sensor's calibration state into the
// mirror. Callers must hold sensorMu.
func refreshCalibrationMirror() {
	calMirrorMu.Lock()
	defer calMirrorMu.Unlock()

	calMirror = calibration.Overview{
		Status:   colorSensor.Status(),
		Ceilings: colorSensor.Ceilings(),
		Report:   colorSensor.LastReport(),
	}
}

// calibrationOverview assembles the calibration view served over HTTP:
// mirrored sensor state plus the live run flag and schedule.
func calibrationOverview() calibration.Overview {
	calMirrorMu.RLock()
	ov := calMirror
	calMirrorMu.RUnlock()

	ov.Running = isCalibrationRunning()
	ov.Cron = conf.ScheduleCron()
	if nextRun, running := calScheduler.Status(); running && !nextRun.IsZero() {
		t := nextRun
		ov.NextRun = &t
	}

	return ov
}

func defaultCalibrationRequest() calibration.Request {
	return calibration.Request{
		Seconds:              conf.CalibrationSeconds(),
		UseDefaultsOnFailure: conf.UseDefaultsOnFailure(),
	}
}

// runCalibration performs one calibration run. It serializes against other
// runs and holds the sensor for the whole sampling window, so color reads
// served meanwhile come from the last frame. A report is returned whenever
// sampling completed, together with the validation error if the run failed.
func runCalibration(req calibration.Request) (*calibration.Report, error) {
	if !beginCalibration() {
		return nil, ErrCalibrationInProgress
	}
	defer endCalibration()

	sensorMu.Lock()
	from := colorSensor.Status()
	report, err := colorSensor.Calibrate(req.Seconds, req.UseDefaultsOnFailure)
	to := colorSensor.Status()
	refreshCalibrationMirror()
	sensorMu.Unlock()

	// The run stalled the monitor loop for its whole window. Drop the gap
	// so it is not reported as missed polls.
	pollRecorder.ClearRecords()

	msg := ""
	if err != nil {
		msg = err.Error()
	} else if report != nil {
		msg = fmt.Sprintf("calibrated: %d samples in %ds", report.Samples, report.EffectiveSeconds)
	}
	hub.Publish(events.CalibrationPhase, events.CalibrationPhaseEvent{
		From:    from.String(),
		To:      to.String(),
		Message: msg,
		Ts:      time.Now().Unix(),
	})

	return report, err
}

// applyDefaultCalibration forces the factory ceilings without sampling.
func applyDefaultCalibration() calibration.Overview {
	sensorMu.Lock()
	from := colorSensor.Status()
	colorSensor.UseDefaultCalibration()
	to := colorSensor.Status()
	refreshCalibrationMirror()
	sensorMu.Unlock()

	if from != to {
		hub.Publish(events.CalibrationPhase, events.CalibrationPhaseEvent{
			From:    from.String(),
			To:      to.String(),
			Message: "default calibration applied",
			Ts:      time.Now().Unix(),
		})
	}
	logrus.Infof("default calibration applied, ceilings reset to %d", calibration.DefaultCeiling)

	return calibrationOverview()
}
