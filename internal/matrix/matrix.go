// Package matrix owns the double-buffered output path to an LED panel.
// A Matrix hands out writable canvases and publishes them to a Sink on
// SwapOnSync, so a sink only ever sees finished frames.
package matrix

import (
	"errors"
	"sync"

	"github.com/coreman2200/funtimes-ledview/internal/panel"
)

// FrameHook observes published frames. rgb is in display order and must not
// be retained past the call.
type FrameHook func(frameID uint64, rgb []byte)

type Matrix struct {
	mu         sync.Mutex
	geo        panel.Geometry
	sink       Sink
	brightness int // 1..100

	front, back *Canvas
	scaled      []byte // display order, brightness applied
	chain       []byte // chain order, what the sink receives
	frameID     uint64
	hook        FrameHook
}

// New allocates both canvases. brightness is clamped into 1..100.
func New(geo panel.Geometry, sink Sink, brightness int) (*Matrix, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, errors.New("matrix: nil sink")
	}
	w, h := geo.Width(), geo.Height()
	return &Matrix{
		geo:        geo,
		sink:       sink,
		brightness: clampBrightness(brightness),
		front:      newCanvas(w, h),
		back:       newCanvas(w, h),
		scaled:     make([]byte, w*h*3),
		chain:      make([]byte, geo.Count()*3),
	}, nil
}

func (m *Matrix) Size() (w, h int) { return m.geo.Width(), m.geo.Height() }

// Canvas returns the current writable canvas.
func (m *Matrix) Canvas() *Canvas {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.back
}

// SwapOnSync publishes c to the sink and returns the next writable canvas.
// Brightness scaling and chain-order mapping happen here, so brightness
// changes take effect on the next published frame.
func (m *Matrix) SwapOnSync(c *Canvas) (*Canvas, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scale := uint32(m.brightness)
	for i, v := range c.pix {
		m.scaled[i] = byte(uint32(v) * scale / 100)
	}
	w := m.geo.Width()
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			src := (y*w + x) * 3
			dst := m.geo.Index(x, y) * 3
			m.chain[dst+0] = m.scaled[src+0]
			m.chain[dst+1] = m.scaled[src+1]
			m.chain[dst+2] = m.scaled[src+2]
		}
	}
	if err := m.sink.Write(m.chain); err != nil {
		return c, err
	}
	m.frameID++
	if m.hook != nil {
		m.hook(m.frameID, m.scaled)
	}

	m.front, m.back = c, m.front
	return m.back, nil
}

// SetBrightness clamps v into 1..100.
func (m *Matrix) SetBrightness(v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brightness = clampBrightness(v)
}

func (m *Matrix) Brightness() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brightness
}

func (m *Matrix) FrameID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameID
}

// SetFrameHook registers an observer for published frames.
func (m *Matrix) SetFrameHook(h FrameHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = h
}

// Blank pushes an all-off frame without touching the canvases.
func (m *Matrix) Blank() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.chain {
		m.chain[i] = 0
	}
	return m.sink.Write(m.chain)
}

func (m *Matrix) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sink.Close()
}

func clampBrightness(v int) int {
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
