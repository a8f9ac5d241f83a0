package matrix

// Sink abstracts an LED output target.
type Sink interface {
	// Write pushes an RGB frame in chain order. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}
