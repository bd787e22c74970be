package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/maniglio/tinge/pkg/utils/ptr"
)

const defaultPollInterval = time.Second

var (
	defaultFileConfig = &RawFileConfig{
		PollInterval:         ptr.To("1s"),
		CalibrationSeconds:   ptr.To(5),
		UseDefaultsOnFailure: ptr.To(true),
		CalibrateOnStart:     ptr.To(false),
		Tolerance:            ptr.To(0.1),
		ScheduleCron:         ptr.To(""),
		AllowNonRootAccess:   ptr.To(false),
		MirrorEnabled:        ptr.To(false),
		MirrorGroup:          ptr.To(""),
		// Full lamp brightness unless the user dims the mirror.
		MirrorMaxBrightness: ptr.To(1.0),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	PollInterval         *string  `json:"pollInterval,omitempty"`
	CalibrationSeconds   *int     `json:"calibrationSeconds,omitempty"`
	UseDefaultsOnFailure *bool    `json:"useDefaultsOnFailure,omitempty"`
	CalibrateOnStart     *bool    `json:"calibrateOnStart,omitempty"`
	Tolerance            *float64 `json:"tolerance,omitempty"`
	ScheduleCron         *string  `json:"scheduleCron,omitempty"`
	AllowNonRootAccess   *bool    `json:"allowNonRootAccess,omitempty"`
	MirrorEnabled        *bool    `json:"mirrorEnabled,omitempty"`
	MirrorGroup          *string  `json:"mirrorGroup,omitempty"`
	MirrorMaxBrightness  *float64 `json:"mirrorMaxBrightness,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		PollInterval:         ptr.To(c.PollInterval().String()),
		CalibrationSeconds:   ptr.To(c.CalibrationSeconds()),
		UseDefaultsOnFailure: ptr.To(c.UseDefaultsOnFailure()),
		CalibrateOnStart:     ptr.To(c.CalibrateOnStart()),
		Tolerance:            ptr.To(c.Tolerance()),
		ScheduleCron:         ptr.To(c.ScheduleCron()),
		AllowNonRootAccess:   ptr.To(c.AllowNonRootAccess()),
		MirrorEnabled:        ptr.To(c.MirrorEnabled()),
		MirrorGroup:          ptr.To(c.MirrorGroup()),
		MirrorMaxBrightness:  ptr.To(c.MirrorMaxBrightness()),
	}

	return rawConfig, nil
}

func (f *File) PollInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	raw := *defaultFileConfig.PollInterval
	if f.c.PollInterval != nil {
		raw = *f.c.PollInterval
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logrus.Warnf("invalid pollInterval %q in config, using %s", raw, defaultPollInterval)
		return defaultPollInterval
	}

	return d
}

func (f *File) CalibrationSeconds() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.CalibrationSeconds != nil {
		return *f.c.CalibrationSeconds
	}
	return *defaultFileConfig.CalibrationSeconds
}

func (f *File) UseDefaultsOnFailure() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.UseDefaultsOnFailure != nil {
		return *f.c.UseDefaultsOnFailure
	}
	return *defaultFileConfig.UseDefaultsOnFailure
}

func (f *File) CalibrateOnStart() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.CalibrateOnStart != nil {
		return *f.c.CalibrateOnStart
	}
	return *defaultFileConfig.CalibrateOnStart
}

func (f *File) Tolerance() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Tolerance != nil {
		return *f.c.Tolerance
	}
	return *defaultFileConfig.Tolerance
}

func (f *File) ScheduleCron() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.ScheduleCron != nil {
		return *f.c.ScheduleCron
	}
	return *defaultFileConfig.ScheduleCron
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AllowNonRootAccess != nil {
		return *f.c.AllowNonRootAccess
	}
	return *defaultFileConfig.AllowNonRootAccess
}

func (f *File) MirrorEnabled() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.MirrorEnabled != nil {
		return *f.c.MirrorEnabled
	}
	return *defaultFileConfig.MirrorEnabled
}

func (f *File) MirrorGroup() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.MirrorGroup != nil {
		return *f.c.MirrorGroup
	}
	return *defaultFileConfig.MirrorGroup
}

func (f *File) MirrorMaxBrightness() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.MirrorMaxBrightness != nil {
		return *f.c.MirrorMaxBrightness
	}
	return *defaultFileConfig.MirrorMaxBrightness
}

func (f *File) SetPollInterval(d time.Duration) {
	if f.c == nil {
		panic("config is nil")
	}

	if d <= 0 {
		panic("poll interval must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PollInterval = ptr.To(d.String())
}

func (f *File) SetCalibrationSeconds(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.CalibrationSeconds = &i
}

func (f *File) SetUseDefaultsOnFailure(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.UseDefaultsOnFailure = &b
}

func (f *File) SetCalibrateOnStart(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.CalibrateOnStart = &b
}

func (f *File) SetTolerance(t float64) {
	if f.c == nil {
		panic("config is nil")
	}

	if t < 0 || t > 1 {
		panic("tolerance must be between 0 and 1")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Tolerance = &t
}

func (f *File) SetScheduleCron(expr string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ScheduleCron = &expr
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) SetMirrorEnabled(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.MirrorEnabled = &b
}

func (f *File) SetMirrorGroup(group string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.MirrorGroup = &group
}

func (f *File) SetMirrorMaxBrightness(b float64) {
	if f.c == nil {
		panic("config is nil")
	}

	if b < 0 || b > 1 {
		panic("mirror brightness must be between 0 and 1")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.MirrorMaxBrightness = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"pollInterval":         f.PollInterval().String(),
		"calibrationSeconds":   f.CalibrationSeconds(),
		"useDefaultsOnFailure": f.UseDefaultsOnFailure(),
		"calibrateOnStart":     f.CalibrateOnStart(),
		"tolerance":            f.Tolerance(),
		"scheduleCron":         f.ScheduleCron(),
		"allowNonRootAccess":   f.AllowNonRootAccess(),
		"mirrorEnabled":        f.MirrorEnabled(),
		"mirrorGroup":          f.MirrorGroup(),
		"mirrorMaxBrightness":  f.MirrorMaxBrightness(),
	}
}
