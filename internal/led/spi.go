package led

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
)

// NRZ strips want ~800kHz of pixel clock; 3 SPI bits encode one NRZ bit,
// plus headroom for the latch.
const stripClockKHz = 800

// Display adapts a periph display.Drawer (nrzled over SPI, or the terminal
// screen) to the Driver interface.
type Display struct {
	drawer display.Drawer
	img    *image.NRGBA
	count  int
	port   spi.PortCloser
}

// NewSPI opens an SPI port and drives an NRZ LED strip of count pixels on it.
// An empty dev selects the first available port.
func NewSPI(dev string, count int) (*Display, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi port: %w", err)
	}
	opts := nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      ((stripClockKHz * 3) + 100) * physic.KiloHertz,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	_ = d.Halt()
	disp := NewDrawer(d, count)
	disp.port = port
	return disp, nil
}

// NewPreview renders frames as colored blocks on the terminal. Used when no
// SPI port is present.
func NewPreview(count int) *Display {
	return NewDrawer(screen1d.New(&screen1d.Opts{X: count}), count)
}

// NewDrawer wraps an arbitrary drawer; tests use it with nrzled over a
// playback SPI port.
func NewDrawer(d display.Drawer, count int) *Display {
	return &Display{
		drawer: d,
		img:    image.NewNRGBA(image.Rect(0, 0, count, 1)),
		count:  count,
	}
}

func (d *Display) Write(rgb []byte) error {
	if len(rgb) != d.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), d.count)
	}
	for i := 0; i < d.count; i++ {
		d.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 255})
	}
	return d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{})
}

func (d *Display) Close() error {
	err := d.drawer.Halt()
	if d.port != nil {
		if cerr := d.port.Close(); err == nil {
			err = cerr
		}
		d.port = nil
	}
	return err
}
