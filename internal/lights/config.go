package lights

// StripType is the physical LED strip protocol/order on one channel.
type StripType uint8

const (
	NeoPixelGRB StripType = iota
	NeoPixelGRBW
	NeoPixelRGB
	NeoPixelRGBW
	DotStarBGR
	DotStarLBGR
	DotStarGRB
	DotStarLGRB
)

// Channel is one physical LED data line.
type Channel struct {
	Channel uint8     `yaml:"channel"`
	LEDs    uint16    `yaml:"leds"`
	Type    StripType `yaml:"type"`
}

// Section is a contiguous pixel range [Start, End] on a physical channel.
type Section struct {
	Channel uint8  `yaml:"channel"`
	Start   uint16 `yaml:"start"`
	End     uint16 `yaml:"end"`
}

// Region aggregates one or more sections into a single logical addressable
// surface. Breaks mark sub-segment boundaries for strips wired across
// physical gaps; Count is the precomputed total pixel count.
type Region struct {
	Name     string    `yaml:"name"`
	Sections []Section `yaml:"sections"`
	Count    uint32    `yaml:"count"`
	Breaks   []uint16  `yaml:"breaks,omitempty"`
}

// Config is the parsed lighting topology: named regions over physical
// channels.
type Config struct {
	Regions  map[string]Region `yaml:"regions"`
	Channels map[uint8]Channel `yaml:"channels"`
}

// PixelCount recomputes a region's total pixel count from its sections.
func (r Region) PixelCount() uint32 {
	var n uint32
	for _, s := range r.Sections {
		if s.End >= s.Start {
			n += uint32(s.End-s.Start) + 1
		}
	}
	return n
}

// Normalize fills in derived fields (region names and pixel counts) after a
// config load.
func (c *Config) Normalize() {
	for name, r := range c.Regions {
		r.Name = name
		if r.Count == 0 {
			r.Count = r.PixelCount()
		}
		c.Regions[name] = r
	}
}
