package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ledview/internal/frames"
	"github.com/coreman2200/funtimes-ledview/internal/matrix"
	"github.com/coreman2200/funtimes-ledview/internal/matrix/fake"
	"github.com/coreman2200/funtimes-ledview/internal/panel"
	"github.com/coreman2200/funtimes-ledview/internal/player"
	"github.com/coreman2200/funtimes-ledview/internal/web"
)

func newTestServer(t *testing.T) (*httptest.Server, *matrix.Matrix, *player.Player) {
	t.Helper()
	geo := panel.Geometry{Rows: 4, Cols: 4, Chain: 1, Parallel: 1}
	m, err := matrix.New(geo, fake.New(), 80)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"001.png", "002.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("xxxx"), 0644))
	}
	paths, err := frames.List(dir, ".png")
	require.NoError(t, err)

	p := player.New(m, frames.NewDecoder(geo.Width(), geo.Height()), 33*time.Millisecond, true)
	require.NoError(t, p.Load(paths))

	srv := httptest.NewServer(web.NewServer(m, p).Routes())
	t.Cleanup(srv.Close)
	return srv, m, p
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	out := getJSON(t, srv.URL+"/healthz")
	assert.Equal(t, float64(4), out["width"])
	assert.Equal(t, float64(4), out["height"])
	assert.Equal(t, float64(80), out["brightness"])
}

func TestStatusAndFrames(t *testing.T) {
	srv, _, _ := newTestServer(t)

	st := getJSON(t, srv.URL+"/api/status")
	assert.Equal(t, "playing", st["state"])
	assert.Equal(t, float64(2), st["frames"])

	fr := getJSON(t, srv.URL+"/api/frames")
	list := fr["frames"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "001.png", first["name"])
	assert.Equal(t, float64(4), first["size"])
}

func TestBrightnessValidation(t *testing.T) {
	srv, m, _ := newTestServer(t)

	for _, body := range []string{`{"brightness":0}`, `{"brightness":101}`, `{}`, `garbage`} {
		resp := postJSON(t, srv.URL+"/api/brightness", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body=%s", body)
	}
	assert.Equal(t, 80, m.Brightness())

	resp := postJSON(t, srv.URL+"/api/brightness", `{"brightness":45}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 45, m.Brightness())
}

func TestStopAndStart(t *testing.T) {
	srv, _, p := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/stop", ``)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, player.Stopped, p.Status().State)

	resp = postJSON(t, srv.URL+"/api/start", `{"frame":"002.png","brightness":60}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, player.Playing, p.Status().State)

	resp = postJSON(t, srv.URL+"/api/start", `{"frame":"missing.png"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartRejectsBadBrightness(t *testing.T) {
	srv, m, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/start", `{"brightness":500}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 80, m.Brightness())
}

func TestWSPushesPublishedFrames(t *testing.T) {
	srv, m, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	type frameMsg struct {
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	got := make(chan frameMsg, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg frameMsg
			if json.Unmarshal(data, &msg) == nil && len(msg.RGB) > 0 {
				select {
				case got <- msg:
				default:
				}
				return
			}
		}
	}()

	// The client lands in the broadcast set asynchronously after the
	// upgrade, so keep publishing until a push arrives.
	canvas := m.Canvas()
	deadline := time.After(3 * time.Second)
	for {
		canvas.SetPixel(0, 0, 10, 20, 30)
		next, err := m.SwapOnSync(canvas)
		require.NoError(t, err)
		canvas = next

		select {
		case msg := <-got:
			assert.NotZero(t, msg.FrameID)
			require.Len(t, msg.RGB, 4*4*3)
			// Channels arrive scaled by the configured brightness of 80.
			assert.Equal(t, []byte{8, 16, 24}, msg.RGB[:3])
			return
		case <-deadline:
			t.Fatal("no frame pushed over websocket")
		case <-time.After(60 * time.Millisecond):
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/stop")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
