// Package apds9960 drives the ALS/RGBC half of an APDS-9960 over I2C. Only
// the color engine is programmed; the proximity and gesture engines stay
// off. The Dev type implements the transport interface the sensor core
// consumes.
package apds9960

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

// Dev is a handle to an APDS-9960. Create one with New, then call Init to
// power the device and enable the color engine.
type Dev struct {
	c i2c.Dev
}

// New binds the device at its fixed address on the given bus. No I/O
// happens until Init.
func New(bus i2c.Bus) *Dev {
	return &Dev{c: i2c.Dev{Bus: bus, Addr: Addr}}
}

func (d *Dev) String() string {
	return fmt.Sprintf("APDS9960{%s}", &d.c)
}

// Init verifies the chip ID, programs integration time and gain, then
// powers the device on and enables the ambient light engine.
func (d *Dev) Init() error {
	id, err := d.readReg(regID)
	if err != nil {
		return errors.Wrap(err, "read chip ID")
	}
	if id != chipID1 && id != chipID2 {
		return errors.Errorf("unexpected chip ID %#02x", id)
	}

	// Known state first: every engine off.
	if err := d.writeReg(regEnable, 0x00); err != nil {
		return errors.Wrap(err, "disable engines")
	}
	if err := d.writeReg(regATime, defaultATime); err != nil {
		return errors.Wrap(err, "set integration time")
	}
	if err := d.writeReg(regControl, defaultAGain); err != nil {
		return errors.Wrap(err, "set ALS gain")
	}
	if err := d.writeReg(regEnable, enablePON); err != nil {
		return errors.Wrap(err, "power on")
	}
	// t(WAKE) before the engine may be enabled.
	time.Sleep(10 * time.Millisecond)
	if err := d.writeReg(regEnable, enablePON|enableAEN); err != nil {
		return errors.Wrap(err, "enable light engine")
	}

	logrus.Debugf("apds9960 %#02x initialized on %s", id, d.c.Bus)
	return nil
}

// Halt powers the device back down.
func (d *Dev) Halt() error {
	return errors.Wrap(d.writeReg(regEnable, 0x00), "power off")
}

// ReadAmbient returns the clear-channel count.
func (d *Dev) ReadAmbient() (uint16, error) {
	return d.readChannel(regCDataL, "ambient")
}

// ReadRed returns the red-channel count.
func (d *Dev) ReadRed() (uint16, error) {
	return d.readChannel(regRDataL, "red")
}

// ReadGreen returns the green-channel count.
func (d *Dev) ReadGreen() (uint16, error) {
	return d.readChannel(regGDataL, "green")
}

// ReadBlue returns the blue-channel count.
func (d *Dev) ReadBlue() (uint16, error) {
	return d.readChannel(regBDataL, "blue")
}

// readChannel checks AVALID, then reads the channel's 16-bit count, low
// byte first.
func (d *Dev) readChannel(reg byte, name string) (uint16, error) {
	st, err := d.readReg(regStatus)
	if err != nil {
		return 0, errors.Wrapf(err, "read status for %s", name)
	}
	if st&statusAVALID == 0 {
		return 0, errors.Errorf("%s: no valid sample yet", name)
	}
	var buf [2]byte
	if err := d.c.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, errors.Wrapf(err, "read %s data", name)
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

func (d *Dev) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := d.c.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *Dev) writeReg(reg, val byte) error {
	return d.c.Tx([]byte{reg, val}, nil)
}
