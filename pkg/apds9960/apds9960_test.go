package apds9960

import (
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestInit(t *testing.T) {
	b := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: Addr, W: []byte{regID}, R: []byte{0xAB}},
			{Addr: Addr, W: []byte{regEnable, 0x00}, R: nil},
			{Addr: Addr, W: []byte{regATime, defaultATime}, R: nil},
			{Addr: Addr, W: []byte{regControl, defaultAGain}, R: nil},
			{Addr: Addr, W: []byte{regEnable, enablePON}, R: nil},
			{Addr: Addr, W: []byte{regEnable, enablePON | enableAEN}, R: nil},
		},
	}
	d := New(b)
	if err := d.Init(); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("playback left unconsumed ops: %v", err)
	}
}

func TestInitRejectsUnknownChip(t *testing.T) {
	b := &i2ctest.Playback{
		DontPanic: true,
		Ops: []i2ctest.IO{
			{Addr: Addr, W: []byte{regID}, R: []byte{0x42}},
		},
	}
	d := New(b)
	if err := d.Init(); err == nil {
		t.Fatalf("Init() accepted chip ID 0x42")
	}
}

func TestReadChannels(t *testing.T) {
	// 500, 800, 400, 100 little-endian, each read preceded by a status
	// check with AVALID set.
	b := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: Addr, W: []byte{regStatus}, R: []byte{statusAVALID}},
			{Addr: Addr, W: []byte{regCDataL}, R: []byte{0xF4, 0x01}},
			{Addr: Addr, W: []byte{regStatus}, R: []byte{statusAVALID}},
			{Addr: Addr, W: []byte{regRDataL}, R: []byte{0x20, 0x03}},
			{Addr: Addr, W: []byte{regStatus}, R: []byte{statusAVALID}},
			{Addr: Addr, W: []byte{regGDataL}, R: []byte{0x90, 0x01}},
			{Addr: Addr, W: []byte{regStatus}, R: []byte{statusAVALID}},
			{Addr: Addr, W: []byte{regBDataL}, R: []byte{0x64, 0x00}},
		},
	}
	d := New(b)

	reads := []struct {
		name string
		fn   func() (uint16, error)
		want uint16
	}{
		{"ambient", d.ReadAmbient, 500},
		{"red", d.ReadRed, 800},
		{"green", d.ReadGreen, 400},
		{"blue", d.ReadBlue, 100},
	}
	for _, r := range reads {
		got, err := r.fn()
		if err != nil {
			t.Fatalf("Read %s returned error: %v", r.name, err)
		}
		if got != r.want {
			t.Errorf("Read %s = %d, want %d", r.name, got, r.want)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("playback left unconsumed ops: %v", err)
	}
}

func TestReadBeforeDataValid(t *testing.T) {
	b := &i2ctest.Playback{
		DontPanic: true,
		Ops: []i2ctest.IO{
			{Addr: Addr, W: []byte{regStatus}, R: []byte{0x00}},
		},
	}
	d := New(b)
	if _, err := d.ReadAmbient(); err == nil {
		t.Fatalf("ReadAmbient() should fail while AVALID is clear")
	}
}
