package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/maniglio/tinge/pkg/apds9960"
	"github.com/maniglio/tinge/pkg/config"
	"github.com/maniglio/tinge/pkg/events"
	"github.com/maniglio/tinge/pkg/lights"
	"github.com/maniglio/tinge/pkg/lights/lifx"
	"github.com/maniglio/tinge/pkg/sensor"
)

var (
	conf config.Config

	// colorSensor is guarded by sensorMu: the monitor loop, live reads and
	// calibration runs all share the one i2c device.
	colorSensor *sensor.ColorSensor
	sensorMu    = &sync.Mutex{}
	sensorBus   i2c.BusCloser
	sensorDev   *apds9960.Dev

	hub          *events.EventHub
	wsHub        *streamHub
	mirror       lights.Service
	calScheduler *Scheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/color/raw", getRawColor)
	router.GET("/color/rgb", getRGB)
	router.GET("/color/hex", getHex)
	router.GET("/color/hsv", getHSV)
	router.GET("/color/name", getColorName)
	router.POST("/color/match", matchColor)
	router.POST("/color/range", matchRange)
	router.GET("/calibration", getCalibration)
	router.POST("/calibration", postCalibration)
	router.POST("/calibration/defaults", postCalibrationDefaults)
	router.GET("/schedule", getSchedule)
	router.PUT("/schedule", setSchedule)
	router.POST("/schedule/postpone", postponeSchedule)
	router.POST("/schedule/skip", skipSchedule)
	router.GET("/config", getConfig)
	router.PUT("/poll-interval", setPollInterval)
	router.PUT("/tolerance", setTolerance)
	router.GET("/swatch", getSwatch)
	router.GET("/events", getEvents)
	router.GET("/stream", getStream)
	router.GET("/version", getVersion)

	return router
}

// openSensor brings up the host drivers, opens the i2c bus and powers the
// sensor. An empty bus name opens the first available bus.
func openSensor(busName string) error {
	if _, err := host.Init(); err != nil {
		return pkgerrors.Wrap(err, "failed to initialize host drivers")
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open i2c bus %q", busName)
	}

	dev := apds9960.New(bus)
	s := sensor.New(dev)
	if err := s.Begin(); err != nil {
		_ = bus.Close()
		return err
	}

	sensorBus = bus
	sensorDev = dev
	colorSensor = s

	sensorMu.Lock()
	refreshCalibrationMirror()
	sensorMu.Unlock()

	return nil
}

func Run(configPath, unixSocketPath, i2cBus string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			if err := syncSchedule(conf.ScheduleCron()); err != nil {
				logrus.Errorf("failed to apply reloaded schedule: %v", err)
			}
			logrus.Infof("config reloaded")
		}
	}()

	hub = events.NewEventHub()
	wsHub = newStreamHub()
	go wsHub.run()

	if err := openSensor(i2cBus); err != nil {
		logrus.Fatal(err)
	}

	if conf.MirrorEnabled() && conf.MirrorGroup() != "" {
		m, err := lifx.NewGroup(lifx.Config{
			GroupLabel:    conf.MirrorGroup(),
			MaxBrightness: conf.MirrorMaxBrightness(),
		})
		if err != nil {
			logrus.Errorf("failed to start lifx mirror: %v", err)
		} else {
			mirror = m
			logrus.Infof("mirroring colors to lifx group %q", conf.MirrorGroup())
		}
	}

	calScheduler = NewScheduler(scheduledCalibration, sensorPreCheck, notifyUpcoming, notifyScheduleError)
	if cron := conf.ScheduleCron(); cron != "" {
		if err := syncSchedule(cron); err != nil {
			logrus.Errorf("failed to apply configured schedule %q: %v", cron, err)
		}
	}

	if conf.CalibrateOnStart() {
		go func() {
			if _, err := runCalibration(defaultCalibrationRequest()); err != nil {
				logrus.Warnf("startup calibration failed: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Handler: router,
	}

	// Remove a stale socket left over from a previous run.
	if _, err := os.Stat(unixSocketPath); err == nil {
		if err := os.Remove(unixSocketPath); err != nil {
			logrus.Fatal(err)
		}
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	go func() {
		logrus.Debugln("monitor loop starts")

		monitorLoop()

		logrus.Errorf("monitor loop exited unexpectedly")
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping scheduler")
	calScheduler.Stop()

	logrus.Info("closing event hub")
	hub.Close()

	if mirror != nil {
		logrus.Info("closing lifx mirror")
		if err := mirror.Close(); err != nil {
			logrus.Errorf("failed to close lifx mirror: %v", err)
		}
	}

	logrus.Info("powering down sensor")
	if err := sensorDev.Halt(); err != nil {
		logrus.Errorf("failed to power down sensor: %v", err)
	}

	logrus.Info("closing i2c bus")
	if err := sensorBus.Close(); err != nil {
		logrus.Errorf("failed to close i2c bus: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
