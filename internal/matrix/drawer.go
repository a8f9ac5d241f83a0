package matrix

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// DrawerSink adapts a periph display.Drawer (nrzled over SPI, the console
// screen device, ...) to the Sink interface. The chain is presented to the
// drawer as a 1xN image.
type DrawerSink struct {
	mu  sync.Mutex
	d   display.Drawer
	img *image.NRGBA
	n   int
}

func NewDrawerSink(d display.Drawer, pixels int) *DrawerSink {
	return &DrawerSink{
		d:   d,
		img: image.NewNRGBA(image.Rect(0, 0, pixels, 1)),
		n:   pixels,
	}
}

func (s *DrawerSink) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(rgb) != s.n*3 {
		return fmt.Errorf("matrix: rgb length %d does not match %d pixels", len(rgb), s.n)
	}
	for i := 0; i < s.n; i++ {
		s.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[i*3+0], G: rgb[i*3+1], B: rgb[i*3+2], A: 0xFF})
	}
	return s.d.Draw(s.d.Bounds(), s.img, image.Point{})
}

func (s *DrawerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Halt()
}

// OpenSPI initializes the host and opens an NRZ LED chain on the given SPI
// port (empty string picks the first available). speedHz should sit in the
// 2.4-3.2MHz window the 3x NRZ encoding expects.
func OpenSPI(dev string, pixels int, speedHz int) (*DrawerSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("matrix: host init: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("matrix: open spi %q: %w", dev, err)
	}
	s, err := NewNRZ(port, pixels, speedHz)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// NewNRZ wraps an already-open SPI port. Split out so tests can substitute
// a spitest port.
func NewNRZ(port spi.Port, pixels int, speedHz int) (*DrawerSink, error) {
	if speedHz <= 0 {
		speedHz = 2400000
	}
	opts := nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      physic.Frequency(speedHz) * physic.Hertz,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("matrix: nrzled: %w", err)
	}
	return NewDrawerSink(d, pixels), nil
}

// OpenTerm returns a console preview sink.
func OpenTerm(pixels int) *DrawerSink {
	return NewDrawerSink(screen.New(pixels), pixels)
}
