// Package lifx mirrors colors onto a LIFX lamp group discovered over the
// local network.
package lifx

import (
	"math"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/common"
	"github.com/pdf/golifx/protocol"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/chroma"
	"github.com/maniglio/tinge/pkg/lights"
)

const (
	discoveryInterval = 15 * time.Second
	discoveryTimeout  = 5 * time.Second
	// Neutral white point for every pushed color.
	lampKelvin = 3500
)

var _ lights.Service = &Group{}

// Config selects which lamps to drive and how bright they may get.
type Config struct {
	// GroupLabel is the LIFX group to mirror onto, as configured in the
	// vendor app.
	GroupLabel string
	// MaxBrightness caps lamp brightness, 0..1. Zero means no cap.
	MaxBrightness float64
}

// Group drives all lamps in a single LIFX group. Discovery runs in the
// background and re-resolves the group periodically, so lamps that join
// or leave the network are picked up without a restart.
type Group struct {
	config Config
	client *golifx.Client

	mu    sync.RWMutex
	group common.Group

	stop chan struct{}
}

// NewGroup creates the LAN client and starts background discovery. The
// group may not be resolved yet when NewGroup returns; SetColor errors
// until it is.
func NewGroup(config Config) (*Group, error) {
	client, err := golifx.NewClient(&protocol.V2{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create lifx client")
	}
	client.SetDiscoveryInterval(discoveryInterval)

	g := &Group{
		config: config,
		client: client,
		stop:   make(chan struct{}),
	}
	go g.discoverLoop()

	return g, nil
}

func (g *Group) discoverLoop() {
	g.discover()

	ticker := time.NewTicker(discoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.discover()
		case <-g.stop:
			return
		}
	}
}

// discover resolves the configured group label. GetGroupByLabel blocks
// until the client hears from a matching device, so it runs in its own
// goroutine with a deadline here.
func (g *Group) discover() {
	logrus.Debugf("looking for lifx group %q", g.config.GroupLabel)

	found := make(chan common.Group, 1)
	go func() {
		grp, err := g.client.GetGroupByLabel(g.config.GroupLabel)
		if err != nil {
			logrus.Warnf("failed to resolve lifx group %q: %v", g.config.GroupLabel, err)
			return
		}
		found <- grp
	}()

	select {
	case grp := <-found:
		g.mu.Lock()
		g.group = grp
		g.mu.Unlock()
		logrus.Debugf("lifx group %q resolved", grp.GetLabel())
	case <-time.After(discoveryTimeout):
		logrus.Debugf("lifx discovery for group %q timed out", g.config.GroupLabel)
	case <-g.stop:
	}
}

func (g *Group) LightCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.group == nil {
		return 0
	}
	return len(g.group.Lights())
}

func (g *Group) SetColor(color chroma.RGB, duration time.Duration) error {
	g.mu.RLock()
	grp := g.group
	g.mu.RUnlock()

	if grp == nil {
		return errors.Errorf("lifx group %q not discovered yet", g.config.GroupLabel)
	}

	lampColor := toLampColor(color, g.config.MaxBrightness)
	logrus.Tracef("pushing %s to lifx group %q as %+v", color, g.config.GroupLabel, lampColor)

	err := grp.SetColor(lampColor, duration)
	if err != nil {
		return errors.Wrapf(err, "failed to set color on lifx group %q", g.config.GroupLabel)
	}

	return nil
}

func (g *Group) Close() error {
	close(g.stop)
	return g.client.Close()
}

// toLampColor converts an 8-bit RGB color to the 16-bit HSBK quad lamps
// expect. maxBrightness caps the brightness channel when positive.
func toLampColor(color chroma.RGB, maxBrightness float64) common.Color {
	hsv := chroma.RGBToHSV(color)

	brightness := hsv.V
	if maxBrightness > 0 && brightness > maxBrightness {
		brightness = maxBrightness
	}

	return common.Color{
		Hue:        uint16(math.Round(hsv.H / 360 * 0xFFFF)),
		Saturation: uint16(math.Round(hsv.S * 0xFFFF)),
		Brightness: uint16(math.Round(brightness * 0xFFFF)),
		Kelvin:     lampKelvin,
	}
}
