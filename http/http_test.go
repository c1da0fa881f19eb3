package http

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wydy/robot36/internal/sstvtest"
	"github.com/wydy/robot36/sstv"
	"github.com/wydy/robot36/station"
	"github.com/wydy/robot36/store"
)

const testRate = 8000

func newTestServer(t *testing.T) (*httptest.Server, *station.Station) {
	dir := t.TempDir()
	is, err := store.NewImageStore(dir, "%Y%m%d-%H%M%S")
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	st := station.New(testRate, sstv.Mono, 320, 240,
		station.WithStore(is, store.NewImageIndex(), filepath.Join(dir, "index.gob")),
		station.WithMetrics(station.NewMetrics(reg)))
	srv := httptest.NewServer(Handler(st, dir, 5, reg, nil))
	t.Cleanup(srv.Close)
	return srv, st
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestIndexAndSnapshots(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "waiting")

	resp, body = get(t, srv.URL+"/scope.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))

	resp, _ = get(t, srv.URL+"/image.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "robot36_samples_total")

	resp, _ = get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSetMode(t *testing.T) {
	srv, st := newTestServer(t)
	resp, err := http.Post(srv.URL+"/modes?name=Martin+1", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, st.Status().Locked)
	assert.Equal(t, "Martin 1", st.Status().Mode)

	resp, err = http.Post(srv.URL+"/modes?name=Martin+7", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/?mode=")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, st.Status().Locked)
}

func TestLineStream(t *testing.T) {
	srv, st := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/lines", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return st.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	s := sstvtest.NewSynth(testRate)
	s.Tone(sstvtest.BlackHz, 0.1)
	s.VIS(8)
	for i := 0; i < 40; i++ {
		s.Tone(sstvtest.SyncHz, 0.009)
		s.Tone(sstvtest.BlackHz, 0.003)
		s.Level(200, 0.088)
		if i%2 == 0 {
			s.Tone(sstvtest.BlackHz, 0.0045)
		} else {
			s.Tone(sstvtest.WhiteHz, 0.0045)
		}
		s.Tone(sstvtest.LeaderHz, 0.0015)
		s.Level(128, 0.044)
	}
	go func() {
		for samps := range sstvtest.Chunks(s.Out, 256) {
			st.Process(samps)
		}
	}()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	typ, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, typ)
	var ev eventMessage
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, eventMessage{Type: "header", Mode: "Robot 36 Color", Code: 8}, ev)

	for line := 0; line < 4; line++ {
		typ, msg, err = conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, typ)
		require.Equal(t, byte(frameLine), msg[0])
		assert.Equal(t, uint32(line), binary.BigEndian.Uint32(msg[1:]))
		width := binary.BigEndian.Uint32(msg[5:])
		assert.Equal(t, uint32(320), width)
		assert.Len(t, msg, 9+3*int(width))
	}
}

func TestLineFrame(t *testing.T) {
	frame := lineFrame(station.Event{Line: 3, Width: 2, Pixels: []uint32{0xff102030, 0xff405060}})
	assert.Equal(t, []byte{1, 0, 0, 0, 3, 0, 0, 0, 2, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60}, frame)
}
