package events

import (
	"encoding/json"
	"time"

	"github.com/maniglio/tinge/pkg/chroma"
)

// Event name constants
const (
	CalibrationPhase = "calibration.phase"
	ColorChanged     = "color.changed"
	ScheduleAction   = "schedule.action"
)

// Event is a generic named event from the daemon. It is delivered verbatim
// over SSE and the websocket stream.
type Event struct {
	Name string          // event name
	Data json.RawMessage // raw JSON payload
}

// CalibrationPhaseEvent is the typed payload for calibration.phase. It is
// published whenever the sensor calibration status transitions.
type CalibrationPhaseEvent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// ColorChangedEvent is the typed payload for color.changed. It is published
// by the monitor loop when the detected standard color differs from the
// previous poll.
type ColorChangedEvent struct {
	Previous string     `json:"previous"`
	Current  string     `json:"current"`
	RGB      chroma.RGB `json:"rgb"`
	HSV      chroma.HSV `json:"hsv"`
	Hex      string     `json:"hex"`
	Ts       int64      `json:"ts"`
}

// Schedule actions carried by schedule.action events.
const (
	ScheduleSet      = "set"
	ScheduleDisabled = "disabled"
	SchedulePostpone = "postponed"
	ScheduleSkip     = "skipped"
	ScheduleUpcoming = "upcoming"
	ScheduleError    = "error"
)

// ScheduleActionEvent is the typed payload for schedule.action. It reports
// changes to the recalibration schedule and the scheduler's run outcomes.
type ScheduleActionEvent struct {
	Action  string     `json:"action"`
	Message string     `json:"message,omitempty"`
	NextRun *time.Time `json:"nextRun,omitempty"`
	Ts      int64      `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.ColorChangedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Previous, payload.Current)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
