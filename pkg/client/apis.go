package client

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/chroma"
	"github.com/maniglio/tinge/pkg/config"
)

// GetRawColor returns the latest uncalibrated 4-channel reading.
func (c *Client) GetRawColor() (*chroma.RawReading, error) {
	ret, err := c.Get("/color/raw")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get raw reading")
	}

	var raw chroma.RawReading
	if err := json.Unmarshal([]byte(ret), &raw); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal raw reading")
	}

	return &raw, nil
}

// GetRGB returns the current normalized color.
func (c *Client) GetRGB() (*chroma.RGB, error) {
	ret, err := c.Get("/color/rgb")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get rgb color")
	}

	var rgb chroma.RGB
	if err := json.Unmarshal([]byte(ret), &rgb); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal rgb color")
	}

	return &rgb, nil
}

// GetHex returns the current color as "#RRGGBB".
func (c *Client) GetHex() (string, error) {
	ret, err := c.Get("/color/hex")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get hex color")
	}
	return strings.Trim(ret, "\""), nil
}

// GetHSV returns the current color in HSV space.
func (c *Client) GetHSV() (*chroma.HSV, error) {
	ret, err := c.Get("/color/hsv")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get hsv color")
	}

	var hsv chroma.HSV
	if err := json.Unmarshal([]byte(ret), &hsv); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal hsv color")
	}

	return &hsv, nil
}

// GetColorName classifies the current reading into a standard color name.
// A negative tolerance uses the daemon's configured default.
func (c *Client) GetColorName(tolerance float64) (string, error) {
	path := "/color/name"
	if tolerance >= 0 {
		path += "?tolerance=" + strconv.FormatFloat(tolerance, 'f', -1, 64)
	}

	ret, err := c.Get(path)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get color name")
	}
	return strings.Trim(ret, "\""), nil
}

// MatchColor reports whether the current reading matches the named standard
// color. A negative tolerance uses the daemon's configured default.
func (c *Client) MatchColor(color string, tolerance float64) (bool, error) {
	req := struct {
		Color     string   `json:"color"`
		Tolerance *float64 `json:"tolerance,omitempty"`
	}{Color: color}
	if tolerance >= 0 {
		req.Tolerance = &tolerance
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return false, err
	}

	ret, err := c.Post("/color/match", string(payload))
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to match color")
	}
	return parseBoolResponse(ret)
}

// MatchRange reports whether the current reading falls inside the HSV box.
func (c *Client) MatchRange(r chroma.Range) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}

	ret, err := c.Post("/color/range", string(payload))
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to match range")
	}
	return parseBoolResponse(ret)
}

// GetCalibration returns the daemon's calibration state.
func (c *Client) GetCalibration() (*calibration.Overview, error) {
	ret, err := c.Get("/calibration")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get calibration state")
	}

	var ov calibration.Overview
	if err := json.Unmarshal([]byte(ret), &ov); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration state")
	}

	return &ov, nil
}

// Calibrate runs a calibration pass and returns its report. The report is
// present even when the run failed validation; check Report.Failure.
func (c *Client) Calibrate(req calibration.Request) (*calibration.Report, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ret, err := c.Post("/calibration", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to calibrate")
	}

	var report calibration.Report
	if err := json.Unmarshal([]byte(ret), &report); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration report")
	}

	return &report, nil
}

// UseDefaultCalibration forces the factory ceilings without sampling.
func (c *Client) UseDefaultCalibration() (*calibration.Overview, error) {
	ret, err := c.Post("/calibration/defaults", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to apply default calibration")
	}

	var ov calibration.Overview
	if err := json.Unmarshal([]byte(ret), &ov); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration state")
	}

	return &ov, nil
}

// GetSchedule returns the recalibration schedule.
func (c *Client) GetSchedule() (*calibration.Schedule, error) {
	ret, err := c.Get("/schedule")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get schedule")
	}

	var sched calibration.Schedule
	if err := json.Unmarshal([]byte(ret), &sched); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}

	return &sched, nil
}

// SetSchedule sets the recalibration cron expression and returns the next
// run times. An empty expression disables the schedule.
func (c *Client) SetSchedule(cronExpr string) ([]time.Time, error) {
	payload, err := json.Marshal(cronExpr)
	if err != nil {
		return nil, err
	}

	ret, err := c.Put("/schedule", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set schedule")
	}

	var nextRuns []time.Time
	if err := json.Unmarshal([]byte(ret), &nextRuns); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal next run times")
	}

	return nextRuns, nil
}

// PostponeSchedule pushes the next scheduled run back by d.
func (c *Client) PostponeSchedule(d time.Duration) (string, error) {
	payload, err := json.Marshal(d.String())
	if err != nil {
		return "", err
	}
	return c.Post("/schedule/postpone", string(payload))
}

// SkipSchedule skips the next scheduled run.
func (c *Client) SkipSchedule() (string, error) {
	return c.Post("/schedule/skip", "")
}

// GetConfig returns the daemon's configuration.
func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

// SetPollInterval sets how often the daemon polls the sensor.
func (c *Client) SetPollInterval(d time.Duration) (string, error) {
	payload, err := json.Marshal(d.String())
	if err != nil {
		return "", err
	}
	return c.Put("/poll-interval", string(payload))
}

// SetTolerance sets the daemon's default detection tolerance.
func (c *Client) SetTolerance(t float64) (string, error) {
	return c.Put("/tolerance", strconv.FormatFloat(t, 'f', -1, 64))
}

// GetSwatch fetches a PNG swatch of the current color. Size is in pixels;
// zero or negative asks for the daemon default.
func (c *Client) GetSwatch(size int) ([]byte, error) {
	path := "/swatch"
	if size > 0 {
		path += "?size=" + strconv.Itoa(size)
	}

	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get swatch")
	}
	return []byte(ret), nil
}

// GetVersion returns the daemon's version string.
func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// The body is a JSON-encoded string; trim the quotes instead of decoding.
	return strings.Trim(ret, "\""), nil
}

func parseBoolResponse(resp string) (bool, error) {
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
