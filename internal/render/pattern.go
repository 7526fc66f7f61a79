package render

import (
	"math/rand"
	"time"

	"github.com/openboard/lightcore/internal/lights"
)

// Pattern names accepted by NewPattern.
const (
	PatternRainbow             = "rainbow"
	PatternTheaterChase        = "theater-chase"
	PatternTheaterChaseRainbow = "theater-chase-rainbow"
	PatternLightning           = "lightning"
)

// Pattern is a whole-strip animation renderer parameterized by name. It owns
// its RenderStep cursor; a fresh instance is constructed on every mode change
// so animation state never leaks across renderer swaps.
type Pattern struct {
	strip *lights.Strip
	name  string
	step  lights.RenderStep
	rng   *rand.Rand
	now   func() uint64
}

func NewPattern(strip *lights.Strip, name string) *Pattern {
	return &Pattern{
		strip: strip,
		name:  name,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   func() uint64 { return uint64(time.Now().UnixMilli()) },
	}
}

// Process advances the animation if its next deadline has passed and pushes a
// frame. Safe to call more often than the animation rate.
func (p *Pattern) Process() {
	now := p.now()
	if now < p.step.Next {
		return
	}
	var interval uint64
	switch p.name {
	case PatternTheaterChase:
		interval = p.theaterChase(lights.Color{R: 200, G: 120, B: 0})
	case PatternTheaterChaseRainbow:
		interval = p.theaterChaseRainbow()
	case PatternLightning:
		interval = p.lightning()
	default:
		interval = p.rainbow()
	}
	p.step.Step++
	p.step.Next = now + interval
	_ = p.strip.Render()
}

// Shutdown blanks the strip. Called once, after the host task has stopped.
func (p *Pattern) Shutdown() {
	p.strip.Clear()
	_ = p.strip.Render()
}

// Step exposes the animation cursor for tests.
func (p *Pattern) Step() lights.RenderStep { return p.step }

func (p *Pattern) rainbow() uint64 {
	n := p.strip.Count()
	if n == 0 {
		return 20
	}
	for i := 0; i < n; i++ {
		p.strip.SetAt(i, colorWheel(byte((i*256/n+int(p.step.Step))&0xff)))
	}
	return 20
}

func (p *Pattern) theaterChase(c lights.Color) uint64 {
	n := p.strip.Count()
	phase := int(p.step.Step % 3)
	for i := 0; i < n; i++ {
		if i%3 == phase {
			p.strip.SetAt(i, c)
		} else {
			p.strip.SetAt(i, lights.Color{})
		}
	}
	return 50
}

func (p *Pattern) theaterChaseRainbow() uint64 {
	n := p.strip.Count()
	phase := int(p.step.Step % 3)
	for i := 0; i < n; i++ {
		if i%3 == phase {
			p.strip.SetAt(i, colorWheel(byte((i+int(p.step.Step))&0xff)))
		} else {
			p.strip.SetAt(i, lights.Color{})
		}
	}
	return 50
}

func (p *Pattern) lightning() uint64 {
	// TempPixel counts remaining flash frames for the current burst.
	if p.step.TempPixel > 0 {
		p.step.TempPixel--
		if p.step.TempPixel%2 == 1 {
			p.strip.Fill(lights.Color{R: 255, G: 255, B: 255})
		} else {
			p.strip.Clear()
		}
		return 40
	}
	p.strip.Clear()
	if p.rng.Intn(8) == 0 {
		p.step.TempPixel = uint32(2 + p.rng.Intn(5))
		return 20
	}
	return 120
}

// colorWheel maps 0..255 onto a red->green->blue->red hue cycle.
func colorWheel(pos byte) lights.Color {
	switch {
	case pos < 85:
		return lights.Color{R: 255 - pos*3, G: pos * 3}
	case pos < 170:
		pos -= 85
		return lights.Color{G: 255 - pos*3, B: pos * 3}
	default:
		pos -= 170
		return lights.Color{B: 255 - pos*3, R: pos * 3}
	}
}
