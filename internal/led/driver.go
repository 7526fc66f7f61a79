// Package led abstracts LED strip output sinks: SPI-attached NRZ strips via
// periph.io, a terminal preview, and an in-memory sim for tests.
package led

// Driver is an LED output sink for one physical channel.
type Driver interface {
	// Write pushes an RGB frame. len(rgb) must be 3*N for N pixels.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}
