// Package web exposes the control surface: a JSON API mirroring the panel
// controls (status, playlist, start/stop, brightness) and a websocket that
// streams published frames to preview clients.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ledview/internal/matrix"
	"github.com/coreman2200/funtimes-ledview/internal/player"
)

const pushThrottle = 50 * time.Millisecond // ~20 FPS to preview clients

type Server struct {
	mtx    *matrix.Matrix
	player *player.Player
	start  time.Time

	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	lastPush time.Time
}

func NewServer(mtx *matrix.Matrix, p *player.Player) *Server {
	s := &Server{
		mtx:     mtx,
		player:  p,
		start:   time.Now(),
		clients: map[*websocket.Conn]bool{},
	}
	mtx.SetFrameHook(s.pushFrame)
	return s
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/frames", s.handleFrames)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/brightness", s.handleBrightness)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("control server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	width, height := s.mtx.Size()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_s":   time.Since(s.start).Seconds(),
		"frame_id":   s.mtx.FrameID(),
		"brightness": s.mtx.Brightness(),
		"width":      width,
		"height":     height,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.player.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       st.State,
		"current":     st.Current,
		"frames":      st.Frames,
		"skipped":     st.Skipped,
		"interval_ms": st.Interval.Milliseconds(),
		"brightness":  s.mtx.Brightness(),
	})
}

type frameInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	var out []frameInfo
	for _, path := range s.player.Playlist() {
		fi := frameInfo{Name: filepath.Base(path)}
		if st, err := os.Stat(path); err == nil {
			fi.Size = st.Size()
		}
		out = append(out, fi)
	}
	writeJSON(w, http.StatusOK, map[string]any{"frames": out})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Frame      string `json:"frame"`
		Brightness *int   `json:"brightness"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body starts from current position
	}
	if req.Brightness != nil {
		if *req.Brightness < 1 || *req.Brightness > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "brightness must be between 1 and 100"})
			return
		}
		s.mtx.SetBrightness(*req.Brightness)
	}
	if req.Frame != "" {
		if err := s.player.Jump(req.Frame); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
			return
		}
	} else {
		s.player.Play()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.player.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Brightness *int `json:"brightness"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Brightness == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "brightness is required"})
		return
	}
	if *req.Brightness < 1 || *req.Brightness > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "brightness must be between 1 and 100"})
		return
	}
	s.mtx.SetBrightness(*req.Brightness)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "brightness": *req.Brightness})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// pushFrame runs on the playback goroutine via the matrix frame hook.
func (s *Server) pushFrame(frameID uint64, rgb []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	now := time.Now()
	if s.lastPush.Add(pushThrottle).After(now) {
		return
	}
	s.lastPush = now

	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: now.UnixNano(), FrameID: frameID, RGB: rgb})
	for c := range s.clients {
		c.SetWriteDeadline(now.Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
