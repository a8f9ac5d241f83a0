// Package player runs the playback loop: decode the next frame, copy it
// into the writable canvas, publish with swap-on-sync, wait out the frame
// interval. An unreadable frame is logged and skipped; the previously
// published buffer stays on the panel for that slot.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ledview/internal/matrix"
)

// ErrEmptyPlaylist rejects starting playback with nothing to show.
var ErrEmptyPlaylist = errors.New("playlist is empty")

// Decoder yields a pixel grid sized to the display for one file.
type Decoder interface {
	Decode(path string) (*image.RGBA, error)
}

type State string

const (
	Playing State = "playing"
	Stopped State = "stopped"
)

type Player struct {
	mu       sync.Mutex
	mtx      *matrix.Matrix
	dec      Decoder
	interval time.Duration
	loop     bool

	playlist []string
	idx      int
	state    State
	current  string
	skipped  uint64
}

func New(mtx *matrix.Matrix, dec Decoder, interval time.Duration, loop bool) *Player {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &Player{
		mtx:      mtx,
		dec:      dec,
		interval: interval,
		loop:     loop,
		state:    Stopped,
	}
}

// Load installs the initial playlist and arms playback.
func (p *Player) Load(paths []string) error {
	if len(paths) == 0 {
		return ErrEmptyPlaylist
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playlist = append([]string(nil), paths...)
	p.idx = 0
	p.state = Playing
	return nil
}

// SetPlaylist swaps the playlist under a running loop. The position is
// clamped so the next tick stays in range.
func (p *Player) SetPlaylist(paths []string) {
	if len(paths) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playlist = append([]string(nil), paths...)
	if p.idx >= len(p.playlist) {
		p.idx = 0
	}
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.playlist) > 0 {
		p.state = Playing
	}
}

// Stop pauses playback and blanks the panel.
func (p *Player) Stop() {
	p.mu.Lock()
	p.state = Stopped
	p.current = ""
	p.mu.Unlock()
	if err := p.mtx.Blank(); err != nil {
		log.Warn().Err(err).Msg("blank on stop failed")
	}
}

// Jump repositions playback at the playlist entry whose base name matches
// name and resumes.
func (p *Player) Jump(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, path := range p.playlist {
		if base(path) == name {
			p.idx = i
			p.state = Playing
			return nil
		}
	}
	return fmt.Errorf("frame not found: %s", name)
}

// Status is a snapshot for the control surface.
type Status struct {
	State    State         `json:"state"`
	Current  string        `json:"current,omitempty"`
	Frames   int           `json:"frames"`
	Skipped  uint64        `json:"skipped"`
	Interval time.Duration `json:"-"`
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		State:    p.state,
		Current:  p.current,
		Frames:   len(p.playlist),
		Skipped:  p.skipped,
		Interval: p.interval,
	}
}

// Playlist returns a copy of the current playlist.
func (p *Player) Playlist() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.playlist...)
}

// Run drives the loop until ctx is canceled, or until one full pass
// completes when looping is off. Decode failures never halt the loop.
func (p *Player) Run(ctx context.Context) error {
	canvas := p.mtx.Canvas()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		path, last, ok := p.advance()
		if !ok {
			continue
		}

		img, err := p.dec.Decode(path)
		if err != nil {
			p.markSkipped(path, err)
			if last && !p.loop {
				return nil
			}
			continue
		}

		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := img.PixOffset(x, y)
				canvas.SetPixel(x-b.Min.X, y-b.Min.Y, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			}
		}

		next, err := p.mtx.SwapOnSync(canvas)
		if err != nil {
			log.Error().Err(err).Str("frame", path).Msg("frame write failed")
		} else {
			canvas = next
		}

		if last && !p.loop {
			return nil
		}
	}
}

// advance picks the next frame and moves the cursor. last reports that the
// picked frame is the final playlist entry.
func (p *Player) advance() (path string, last bool, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || len(p.playlist) == 0 {
		return "", false, false
	}
	path = p.playlist[p.idx]
	p.current = base(path)
	last = p.idx == len(p.playlist)-1
	p.idx++
	if p.idx >= len(p.playlist) {
		p.idx = 0
	}
	return path, last, true
}

func (p *Player) markSkipped(path string, err error) {
	p.mu.Lock()
	p.skipped++
	p.mu.Unlock()
	log.Warn().Err(err).Str("frame", path).Msg("skipping unreadable frame")
}

func base(path string) string { return filepath.Base(path) }
