package daemon

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/events"
)

// scheduledCalibration is the task driven by the scheduler.
func scheduledCalibration() error {
	logrus.Info("running scheduled calibration")

	report, err := runCalibration(defaultCalibrationRequest())
	if err != nil {
		return err
	}

	logrus.Infof("scheduled calibration done: %d samples", report.Samples)
	return nil
}

// sensorPreCheck is the scheduler's pre-run condition: a single raw read
// must succeed before a calibration is allowed to start.
func sensorPreCheck() error {
	sensorMu.Lock()
	defer sensorMu.Unlock()

	_, err := colorSensor.ReadRaw()
	return err
}

func notifyUpcoming(data any) {
	runAt, ok := data.(time.Time)
	if !ok {
		return
	}

	hub.Publish(events.ScheduleAction, events.ScheduleActionEvent{
		Action:  events.ScheduleUpcoming,
		Message: fmt.Sprintf("calibration will run at %s", runAt.Format(time.DateTime)),
		NextRun: &runAt,
		Ts:      time.Now().Unix(),
	})
}

func notifyScheduleError(data any) {
	err, ok := data.(error)
	if !ok {
		return
	}

	hub.Publish(events.ScheduleAction, events.ScheduleActionEvent{
		Action:  events.ScheduleError,
		Message: err.Error(),
		Ts:      time.Now().Unix(),
	})
}

// syncSchedule arms or disarms the scheduler from a cron expression without
// touching the config. Used at startup and on config reload.
func syncSchedule(cronExpr string) error {
	if cronExpr == "" {
		calScheduler.Stop()
		return nil
	}

	if err := calScheduler.Schedule(cronExpr); err != nil {
		return err
	}
	calScheduler.Start()
	return nil
}

// schedule sets the cron expression for scheduled calibrations and returns
// the next run times. An empty expression disables the schedule.
func schedule(cronExpr string) ([]time.Time, error) {
	if cronExpr == "" {
		prevCron := conf.ScheduleCron()
		if prevCron == "" {
			// Already disabled
			return nil, nil
		}

		conf.SetScheduleCron("")
		if err := conf.Save(); err != nil {
			logrus.WithError(err).Error("failed to save config")
			return nil, fmt.Errorf("failed to save config: %w", err)
		}
		calScheduler.Stop()
		hub.Publish(events.ScheduleAction, events.ScheduleActionEvent{
			Action:  events.ScheduleDisabled,
			Message: "calibration schedule disabled",
			Ts:      time.Now().Unix(),
		})
		return nil, nil
	}

	// Validate cron expression
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	conf.SetScheduleCron(cronExpr)
	if err := conf.Save(); err != nil {
		logrus.WithError(err).Error("failed to save config")
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	if err := calScheduler.Schedule(cronExpr); err != nil {
		logrus.WithError(err).Error("failed to schedule calibration")
		return nil, err
	}
	calScheduler.Start()

	// generate three next run times for response
	nextRuns := []time.Time{}
	now := time.Now()
	for i := 0; i < 3; i++ {
		next := sched.Next(now)
		nextRuns = append(nextRuns, next)
		now = next
	}

	hub.Publish(events.ScheduleAction, events.ScheduleActionEvent{
		Action:  events.ScheduleSet,
		Message: fmt.Sprintf("calibration scheduled at %s", nextRuns[0].Format("Jan _2 15:04")),
		NextRun: &nextRuns[0],
		Ts:      time.Now().Unix(),
	})

	return nextRuns, nil
}

func postpone(duration time.Duration) error {
	if err := calScheduler.Postpone(duration); err != nil {
		logrus.WithError(err).Error("failed to postpone calibration")
		return err
	}

	hub.Publish(events.ScheduleAction, events.ScheduleActionEvent{
		Action:  events.SchedulePostpone,
		Message: fmt.Sprintf("calibration postponed for %s", duration.String()),
		Ts:      time.Now().Unix(),
	})
	return nil
}

func skipNextSchedule() error {
	if err := calScheduler.Skip(); err != nil {
		logrus.WithError(err).Error("failed to skip next scheduled calibration")
		return err
	}

	hub.Publish(events.ScheduleAction, events.ScheduleActionEvent{
		Action:  events.ScheduleSkip,
		Message: "next scheduled calibration skipped",
		Ts:      time.Now().Unix(),
	})
	return nil
}

// scheduleStatus assembles the schedule view served over HTTP.
func scheduleStatus() calibration.Schedule {
	st := calibration.Schedule{
		Cron: conf.ScheduleCron(),
	}
	_, st.Running = calScheduler.Status()
	if st.Running {
		st.NextRuns = calScheduler.NextRuns(3)
	}
	return st
}
