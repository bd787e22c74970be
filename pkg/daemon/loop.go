package daemon

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/chroma"
	"github.com/maniglio/tinge/pkg/events"
)

var (
	loopInterval = time.Second
	pollRecorder = NewTimeSeriesRecorder(60)

	// mirrorFade is the lamp transition time for mirrored colors. Slightly
	// below the default poll interval so fades finish before the next push.
	mirrorFade = 800 * time.Millisecond
)

// Frame is one monitor loop sample: the raw reading plus everything derived
// from it. The latest frame backs the read endpoints and is broadcast to
// websocket subscribers.
type Frame struct {
	At    time.Time         `json:"at"`
	Raw   chroma.RawReading `json:"raw"`
	RGB   chroma.RGB        `json:"rgb"`
	Hex   string            `json:"hex"`
	HSV   chroma.HSV        `json:"hsv"`
	Color string            `json:"color"`
}

var (
	frameMu   = &sync.RWMutex{}
	lastFrame *Frame
)

func latestFrame() *Frame {
	frameMu.RLock()
	defer frameMu.RUnlock()
	return lastFrame
}

func storeFrame(f *Frame) {
	frameMu.Lock()
	lastFrame = f
	frameMu.Unlock()
}

// TimeSeriesRecorder records the last N successful poll times.
type TimeSeriesRecorder struct {
	MaxRecordCount int
	LastPollTimes  []time.Time
	mu             *sync.Mutex
}

// NewTimeSeriesRecorder returns a new TimeSeriesRecorder.
func NewTimeSeriesRecorder(maxRecordCount int) *TimeSeriesRecorder {
	return &TimeSeriesRecorder{
		MaxRecordCount: maxRecordCount,
		LastPollTimes:  make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecordNow adds a new record with the current time.
func (r *TimeSeriesRecorder) AddRecordNow() {
	r.AddRecord(time.Now())
}

// AddRecord adds a new record.
func (r *TimeSeriesRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading so time.Since stays accurate across
	// system suspends.
	t = t.Round(0)

	if len(r.LastPollTimes) >= r.MaxRecordCount {
		r.LastPollTimes = r.LastPollTimes[1:]
	}
	r.LastPollTimes = append(r.LastPollTimes, t)
}

// ClearRecords clears all records.
func (r *TimeSeriesRecorder) ClearRecords() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LastPollTimes = make([]time.Time, 0)
}

// GetRecords returns the records.
func (r *TimeSeriesRecorder) GetRecords() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.LastPollTimes
}

// GetRecordsIn returns the number of continuous records in the last duration.
func (r *TimeSeriesRecorder) GetRecordsIn(last time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The last record must be within the last duration.
	if len(r.LastPollTimes) > 0 && time.Since(r.LastPollTimes[len(r.LastPollTimes)-1]) >= loopInterval+time.Second {
		return 0
	}

	// Find continuous records from the end of the list.
	// Continuous records are defined as the time difference between
	// two adjacent records is less than loopInterval+1 second.
	count := 0
	for i := len(r.LastPollTimes) - 1; i >= 0; i-- {
		record := r.LastPollTimes[i]
		if time.Since(record) > last {
			break
		}

		theRecordAfter := record
		if i+1 < len(r.LastPollTimes) {
			theRecordAfter = r.LastPollTimes[i+1]
		}

		if theRecordAfter.Sub(record) >= loopInterval+time.Second {
			break
		}
		count++
	}

	return count
}

// GetLastRecords returns the records within the last duration, newest first.
func (r *TimeSeriesRecorder) GetLastRecords(last time.Duration) []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastPollTimes) == 0 {
		return nil
	}

	var records []time.Time
	for i := len(r.LastPollTimes) - 1; i >= 0; i-- {
		record := r.LastPollTimes[i]
		if time.Since(record) > last {
			break
		}
		records = append(records, record)
	}

	return records
}

// GetLastRecord returns the last record.
func (r *TimeSeriesRecorder) GetLastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastPollTimes) == 0 {
		return time.Time{}
	}

	return r.LastPollTimes[len(r.LastPollTimes)-1]
}

func formatRelativeTimes(times []time.Time) []string {
	var timesString []string
	for _, t := range times {
		timesString = append(timesString, time.Since(t).String())
	}
	return timesString
}

// monitorLoop runs forever, polling the sensor at the configured interval.
// It is started by the daemon.
func monitorLoop() {
	for {
		if d := conf.PollInterval(); d > 0 && d != loopInterval {
			logrus.Debugf("poll interval changed to %s", d)
			loopInterval = d
		}

		checkMissedPolls()
		pollOnce()

		time.Sleep(loopInterval)
	}
}

// pollHealthWindow is the sliding window used to judge sensor health: eight
// intervals plus slack for scheduling jitter.
func pollHealthWindow() time.Duration {
	return 8*loopInterval + 2*time.Second
}

func checkMissedPolls() bool {
	// An empty recorder means startup or a deliberate reset after a
	// calibration stalled the loop; neither is a health problem.
	if len(pollRecorder.GetRecords()) == 0 {
		return false
	}

	window := pollHealthWindow()
	pollCount := pollRecorder.GetRecordsIn(window)
	expectedPollCount := int(window / loopInterval)
	minPollCount := expectedPollCount - 1
	relativeTimes := pollRecorder.GetLastRecords(window)

	if pollCount < minPollCount {
		logrus.WithFields(logrus.Fields{
			"pollCount":         pollCount,
			"expectedPollCount": expectedPollCount,
			"minPollCount":      minPollCount,
			"recentRecords":     formatRelativeTimes(relativeTimes),
		}).Infof("possibly missed sensor polls")
		return true
	}
	return false
}

// pollOnce takes one sensor reading, refreshes the latest frame, and fans
// the result out: color-change events, websocket broadcast, lamp mirror.
func pollOnce() bool {
	sensorMu.Lock()
	raw, err := colorSensor.ReadRaw()
	if err != nil {
		sensorMu.Unlock()
		logrus.Debugf("sensor poll failed: %v", err)
		return false
	}
	rgb := colorSensor.NormalizeReading(raw)
	refreshCalibrationMirror()
	sensorMu.Unlock()

	hsv := chroma.RGBToHSV(rgb)
	detected := chroma.Detect(hsv, conf.Tolerance())

	frame := &Frame{
		At:    time.Now(),
		Raw:   raw,
		RGB:   rgb,
		Hex:   rgb.HexString(),
		HSV:   hsv,
		Color: detected.String(),
	}

	prev := latestFrame()
	storeFrame(frame)
	pollRecorder.AddRecordNow()

	printFrame(frame)

	previous := chroma.Unknown.String()
	if prev != nil {
		previous = prev.Color
	}
	if prev == nil || previous != frame.Color {
		hub.Publish(events.ColorChanged, events.ColorChangedEvent{
			Previous: previous,
			Current:  frame.Color,
			RGB:      frame.RGB,
			HSV:      frame.HSV,
			Hex:      frame.Hex,
			Ts:       frame.At.Unix(),
		})
	}

	wsHub.broadcastFrame(frame)
	pushMirror(frame.RGB)

	return true
}

func pushMirror(rgb chroma.RGB) {
	if mirror == nil {
		return
	}
	// Failures are routine while lamp discovery is still running.
	if err := mirror.SetColor(rgb, mirrorFade); err != nil {
		logrus.Tracef("mirror push failed: %v", err)
	}
}

var (
	lastPrintTime  time.Time
	lastPrintColor string
)

// printFrame logs the frame at debug when the detected color changed (or
// enough time passed), and at trace otherwise, so steady scenes do not spam
// the log.
func printFrame(f *Frame) {
	fields := logrus.Fields{
		"ambient": f.Raw.Ambient,
		"rgb":     f.RGB.String(),
		"hex":     f.Hex,
		"color":   f.Color,
	}

	defer func() { lastPrintTime = time.Now() }()

	if time.Since(lastPrintTime) < loopInterval+time.Second && f.Color == lastPrintColor {
		logrus.WithFields(fields).Trace("monitor frame")
		return
	}

	logrus.WithFields(fields).Debug("monitor frame")

	lastPrintColor = f.Color
}
