package daemon

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/chroma"
	"github.com/maniglio/tinge/pkg/config"
	"github.com/maniglio/tinge/pkg/version"
)

var errNoReadingYet = errors.New("no reading available yet, calibration in progress")

// currentFrame returns the latest monitor frame when it is fresh enough,
// falling back to a live sensor read. While a calibration run holds the
// sensor, the last frame is served regardless of age so color queries do
// not block for the whole sampling window.
func currentFrame() (*Frame, error) {
	f := latestFrame()
	if f != nil {
		if time.Since(f.At) <= 2*loopInterval+time.Second || isCalibrationRunning() {
			return f, nil
		}
	}
	if isCalibrationRunning() {
		return nil, errNoReadingYet
	}
	return liveFrame()
}

// liveFrame performs one sensor read outside the monitor loop.
func liveFrame() (*Frame, error) {
	sensorMu.Lock()
	raw, err := colorSensor.ReadRaw()
	if err != nil {
		sensorMu.Unlock()
		return nil, err
	}
	rgb := colorSensor.NormalizeReading(raw)
	refreshCalibrationMirror()
	sensorMu.Unlock()

	hsv := chroma.RGBToHSV(rgb)
	return &Frame{
		At:    time.Now(),
		Raw:   raw,
		RGB:   rgb,
		Hex:   rgb.HexString(),
		HSV:   hsv,
		Color: chroma.Detect(hsv, conf.Tolerance()).String(),
	}, nil
}

func getRawColor(c *gin.Context) {
	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("getRawColor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, f.Raw)
}

func getRGB(c *gin.Context) {
	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("getRGB failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, f.RGB)
}

func getHex(c *gin.Context) {
	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("getHex failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, f.Hex)
}

func getHSV(c *gin.Context) {
	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("getHSV failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, f.HSV)
}

func getColorName(c *gin.Context) {
	tolerance := conf.Tolerance()
	if q := c.Query("tolerance"); q != "" {
		t, err := strconv.ParseFloat(q, 64)
		if err != nil {
			err = fmt.Errorf("invalid tolerance %q: %w", q, err)
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		tolerance = t
	}

	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("getColorName failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, chroma.Detect(f.HSV, tolerance).String())
}

type matchRequest struct {
	Color     string   `json:"color"`
	Tolerance *float64 `json:"tolerance,omitempty"`
}

func matchColor(c *gin.Context) {
	var req matchRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	target, err := chroma.ParseStandardColor(req.Color)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	tolerance := conf.Tolerance()
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}

	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("matchColor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, chroma.Matches(f.HSV, target, tolerance))
}

func matchRange(c *gin.Context) {
	var r chroma.Range
	if err := c.BindJSON(&r); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("matchRange failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, chroma.InRange(f.HSV, r))
}

func getCalibration(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, calibrationOverview())
}

func postCalibration(c *gin.Context) {
	var req calibration.Request
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	report, err := runCalibration(req)
	if errors.Is(err, ErrCalibrationInProgress) {
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}
	if report == nil {
		logrus.Errorf("calibration failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// A completed run is reported even when validation failed; the report's
	// Failure field tells the two apart.
	c.IndentedJSON(http.StatusCreated, report)
}

func postCalibrationDefaults(c *gin.Context) {
	c.IndentedJSON(http.StatusCreated, applyDefaultCalibration())
}

func getSchedule(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, scheduleStatus())
}

func setSchedule(c *gin.Context) {
	var cronExpr string
	if err := c.BindJSON(&cronExpr); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	nextRuns, err := schedule(cronExpr)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	logrus.Infof("set calibration schedule to %q", cronExpr)

	c.IndentedJSON(http.StatusCreated, nextRuns)
}

func postponeSchedule(c *gin.Context) {
	var raw string
	if err := c.BindJSON(&raw); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		err = fmt.Errorf("invalid duration %q: %w", raw, err)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if err := postpone(d); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func skipSchedule(c *gin.Context) {
	if err := skipNextSchedule(); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func setPollInterval(c *gin.Context) {
	var raw string
	if err := c.BindJSON(&raw); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		err = fmt.Errorf("invalid duration %q: %w", raw, err)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if d < 100*time.Millisecond {
		err := fmt.Errorf("poll interval must be at least 100ms, got %s", d)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetPollInterval(d)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set poll interval to %s", d)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set poll interval to %s", d))
}

func setTolerance(c *gin.Context) {
	var t float64
	if err := c.BindJSON(&t); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if t < 0 || t > 1 {
		err := fmt.Errorf("tolerance must be between 0 and 1, got %v", t)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetTolerance(t)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set default tolerance to %v", t)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set tolerance to %v", t))
}

const (
	defaultSwatchSize = 128
	minSwatchSize     = 16
	maxSwatchSize     = 512
)

// getSwatch renders the current color as a PNG square, mostly for quick
// eyeballing in a browser or embedding in dashboards.
func getSwatch(c *gin.Context) {
	size := defaultSwatchSize
	if q := c.Query("size"); q != "" {
		s, err := strconv.Atoi(q)
		if err != nil {
			err = fmt.Errorf("invalid size %q: %w", q, err)
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		size = min(max(s, minSwatchSize), maxSwatchSize)
	}

	f, err := currentFrame()
	if err != nil {
		logrus.Errorf("getSwatch failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	img := imaging.New(size, size, color.NRGBA{R: f.RGB.R, G: f.RGB.G, B: f.RGB.B, A: 255})

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := imaging.Encode(c.Writer, img, imaging.PNG); err != nil {
		logrus.Errorf("encode swatch failed: %v", err)
	}
}

func getEvents(c *gin.Context) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}

// The API is served over a unix socket, so browser origin checks do not
// apply.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func getStream(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		err := errors.New("websocket upgrade required")
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := newStreamClient(wsHub, conn)
	wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
