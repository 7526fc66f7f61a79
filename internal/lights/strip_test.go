package lights_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openboard/lightcore/internal/led"
	. "github.com/openboard/lightcore/internal/lights"
)

func twoChannelConfig() Config {
	cfg := Config{
		Channels: map[uint8]Channel{
			0: {Channel: 0, LEDs: 10, Type: NeoPixelGRB},
			1: {Channel: 1, LEDs: 6, Type: NeoPixelGRB},
		},
		Regions: map[string]Region{
			// Tail half of channel 0 plus the front of channel 1, wired
			// across a physical gap between them.
			"tail": {
				Sections: []Section{
					{Channel: 0, Start: 5, End: 9},
					{Channel: 1, Start: 0, End: 2},
				},
				Breaks: []uint16{5},
			},
			"front": {
				Sections: []Section{{Channel: 1, Start: 3, End: 5}},
			},
		},
	}
	cfg.Normalize()
	return cfg
}

func TestStripRegionAddressing(t *testing.T) {
	cfg := twoChannelConfig()
	d0 := led.NewSim(10)
	d1 := led.NewSim(6)
	s := NewStrip(cfg, map[uint8]led.Driver{0: d0, 1: d1})

	assert.Equal(t, 16, s.Count())

	// Pixel 0 of "tail" lands on channel 0 pixel 5; pixel 5 crosses the
	// section boundary onto channel 1 pixel 0.
	s.SetRegionPixel("tail", 0, Color{R: 255})
	s.SetRegionPixel("tail", 5, Color{G: 255})
	assert.NoError(t, s.Render())

	f0 := d0.Frame()
	assert.Equal(t, byte(255), f0[5*3])
	f1 := d1.Frame()
	assert.Equal(t, byte(255), f1[1])
}

func TestStripFillRegionAndClear(t *testing.T) {
	cfg := twoChannelConfig()
	d1 := led.NewSim(6)
	s := NewStrip(cfg, map[uint8]led.Driver{1: d1})

	s.FillRegion("front", Color{B: 40})
	assert.NoError(t, s.Render())
	f := d1.Frame()
	for i := 3; i <= 5; i++ {
		assert.Equal(t, byte(40), f[i*3+2], "pixel %d", i)
	}
	// Pixels outside the region stay dark.
	assert.Equal(t, byte(0), f[0])

	s.Clear()
	assert.NoError(t, s.Render())
	for _, b := range d1.Frame() {
		assert.Equal(t, byte(0), b)
	}
}

func TestStripOutOfRangeIsIgnored(t *testing.T) {
	cfg := twoChannelConfig()
	s := NewStrip(cfg, nil)
	s.SetRegionPixel("tail", 99, Color{R: 1})
	s.SetRegionPixel("nope", 0, Color{R: 1})
	s.SetAt(-1, Color{R: 1})
	assert.NoError(t, s.Render())
}

func TestStripBrightnessScalesOutput(t *testing.T) {
	cfg := twoChannelConfig()
	d1 := led.NewSim(6)
	s := NewStrip(cfg, map[uint8]led.Driver{1: d1})

	s.FillRegion("front", Color{R: 200})
	s.SetBrightness(0.5)
	assert.NoError(t, s.Render())
	assert.Equal(t, byte(100), d1.Frame()[3*3])

	// Buffers keep full-scale values: restoring brightness restores output.
	s.SetBrightness(1)
	assert.NoError(t, s.Render())
	assert.Equal(t, byte(200), d1.Frame()[3*3])
}

func TestNormalizePrecomputesCounts(t *testing.T) {
	cfg := twoChannelConfig()
	assert.Equal(t, uint32(8), cfg.Regions["tail"].Count)
	assert.Equal(t, "tail", cfg.Regions["tail"].Name)
}
