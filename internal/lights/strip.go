package lights

import (
	"fmt"
	"sort"

	"github.com/openboard/lightcore/internal/led"
)

// Strip owns one RGB frame buffer per physical channel and addresses pixels
// either globally or through named regions. Renderers mutate the buffers and
// call Render to push them to the hardware.
type Strip struct {
	cfg     Config
	order   []uint8
	drivers map[uint8]led.Driver
	bufs    map[uint8][]byte

	brightness float64
	scaled     map[uint8][]byte
}

// NewStrip builds buffers for every configured channel. Channels without a
// driver are rendered into memory only.
func NewStrip(cfg Config, drivers map[uint8]led.Driver) *Strip {
	s := &Strip{
		cfg:        cfg,
		drivers:    drivers,
		bufs:       make(map[uint8][]byte, len(cfg.Channels)),
		brightness: 1,
	}
	for id, ch := range cfg.Channels {
		s.bufs[id] = make([]byte, int(ch.LEDs)*3)
		s.order = append(s.order, id)
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return s
}

// Count is the total pixel count across all channels.
func (s *Strip) Count() int {
	n := 0
	for _, id := range s.order {
		n += len(s.bufs[id]) / 3
	}
	return n
}

// Region looks up a configured region by name.
func (s *Strip) Region(name string) (Region, bool) {
	r, ok := s.cfg.Regions[name]
	return r, ok
}

// RegionNames returns the configured region names, sorted.
func (s *Strip) RegionNames() []string {
	names := make([]string, 0, len(s.cfg.Regions))
	for name := range s.cfg.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetAt sets one pixel by global index, walking channels in id order.
func (s *Strip) SetAt(i int, c Color) {
	for _, id := range s.order {
		n := len(s.bufs[id]) / 3
		if i < n {
			s.setChannelPixel(id, i, c)
			return
		}
		i -= n
	}
}

// Fill sets every pixel on every channel.
func (s *Strip) Fill(c Color) {
	for _, id := range s.order {
		buf := s.bufs[id]
		for i := 0; i < len(buf); i += 3 {
			buf[i], buf[i+1], buf[i+2] = c.R, c.G, c.B
		}
	}
}

// Clear blanks every channel buffer.
func (s *Strip) Clear() { s.Fill(Color{}) }

// SetRegionPixel sets pixel i of a named region, resolving through the
// region's sections onto the owning channel.
func (s *Strip) SetRegionPixel(name string, i int, c Color) {
	r, ok := s.cfg.Regions[name]
	if !ok || i < 0 {
		return
	}
	for _, sec := range r.Sections {
		if sec.End < sec.Start {
			continue
		}
		n := int(sec.End-sec.Start) + 1
		if i < n {
			s.setChannelPixel(sec.Channel, int(sec.Start)+i, c)
			return
		}
		i -= n
	}
}

// FillRegion sets every pixel of a named region.
func (s *Strip) FillRegion(name string, c Color) {
	r, ok := s.cfg.Regions[name]
	if !ok {
		return
	}
	for _, sec := range r.Sections {
		for p := int(sec.Start); p <= int(sec.End); p++ {
			s.setChannelPixel(sec.Channel, p, c)
		}
	}
}

func (s *Strip) setChannelPixel(channel uint8, i int, c Color) {
	buf, ok := s.bufs[channel]
	if !ok || i < 0 || i*3+2 >= len(buf) {
		return
	}
	buf[i*3], buf[i*3+1], buf[i*3+2] = c.R, c.G, c.B
}

// SetBrightness scales all output globally. Values are clamped to [0, 1];
// effect buffers keep their full-scale values.
func (s *Strip) SetBrightness(b float64) {
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}
	s.brightness = b
}

// Render pushes every channel buffer to its driver. The first driver error
// is returned after all channels have been attempted.
func (s *Strip) Render() error {
	var first error
	for _, id := range s.order {
		drv, ok := s.drivers[id]
		if !ok || drv == nil {
			continue
		}
		if err := drv.Write(s.frame(id)); err != nil && first == nil {
			first = fmt.Errorf("channel %d: %w", id, err)
		}
	}
	return first
}

// frame returns the channel buffer to send, brightness-scaled into a scratch
// buffer when dimmed.
func (s *Strip) frame(id uint8) []byte {
	buf := s.bufs[id]
	if s.brightness >= 1 {
		return buf
	}
	if s.scaled == nil {
		s.scaled = make(map[uint8][]byte, len(s.bufs))
	}
	out := s.scaled[id]
	if len(out) != len(buf) {
		out = make([]byte, len(buf))
		s.scaled[id] = out
	}
	for i, b := range buf {
		out[i] = byte(float64(b) * s.brightness)
	}
	return out
}
