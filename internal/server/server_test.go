package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uitmedia/framefusion/pkg/booth"
	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/imagesource"
	"github.com/uitmedia/framefusion/pkg/observability"
	"github.com/uitmedia/framefusion/pkg/render"
)

type stateBody struct {
	Step        string   `json:"step"`
	FrameWidth  int      `json:"frameWidth"`
	FrameHeight int      `json:"frameHeight"`
	Slots       []any    `json:"slots"`
	Assignments []string `json:"assignments"`
	Tray        []string `json:"tray"`
	Photos      []any    `json:"photos"`
	Selected    int      `json:"selected"`
	CanUndo     bool     `json:"canUndo"`
}

type harness struct {
	t      *testing.T
	ts     *httptest.Server
	screen *display.Screen
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newMetricsHarness(t, nil)
}

func newMetricsHarness(t *testing.T, metrics *observability.Counters) *harness {
	t.Helper()
	images := imagesource.New()
	screen := display.NewScreen()
	sess := booth.New(booth.WithImages(images), booth.WithSyncer(screen))
	t.Cleanup(func() { _ = sess.Close() })

	srv, err := New(Options{
		Session:  sess,
		Images:   images,
		Renderer: render.New(images, render.DefaultStyle()),
		Screen:   screen,
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{t: t, ts: ts, screen: screen}
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writePNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pngBytes(t, w, h, c), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (h *harness) do(method, path, contentType string, body []byte) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(method, h.ts.URL+path, bytes.NewReader(body))
	if err != nil {
		h.t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.ts.Client().Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) json(method, path string, v any) *http.Response {
	h.t.Helper()
	var body []byte
	if v != nil {
		var err error
		if body, err = json.Marshal(v); err != nil {
			h.t.Fatal(err)
		}
	}
	return h.do(method, path, "application/json", body)
}

// state decodes a successful response.
func (h *harness) state(resp *http.Response) stateBody {
	h.t.Helper()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		h.t.Fatalf("%s %s: status %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, data)
	}
	var st stateBody
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		h.t.Fatal(err)
	}
	return st
}

func (h *harness) failure(resp *http.Response, status int) errorBody {
	h.t.Helper()
	if resp.StatusCode != status {
		h.t.Fatalf("%s %s: status = %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, status)
	}
	var e errorBody
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		h.t.Fatal(err)
	}
	return e
}

var twoSlots = map[string]any{
	"slots": []map[string]any{
		{"id": "left", "x": 0, "y": 0, "width": 0.5, "height": 1},
		{"id": "right", "x": 0.5, "y": 0, "width": 0.5, "height": 1},
	},
}

// toEditing drives a fresh server to the edit step with two photos.
func (h *harness) toEditing() stateBody {
	h.t.Helper()
	dir := h.t.TempDir()

	st := h.state(h.do(http.MethodPost, "/api/frame", "image/png", pngBytes(h.t, 60, 90, color.RGBA{A: 0})))
	if st.Step != "template-design" || st.FrameWidth != 60 || st.FrameHeight != 90 {
		h.t.Fatalf("after frame: %+v", st)
	}
	h.state(h.json(http.MethodPut, "/api/layout/slots", twoSlots))
	st = h.state(h.json(http.MethodPost, "/api/layout/confirm", nil))
	if st.Step != "photo-upload" || len(st.Slots) != 2 {
		h.t.Fatalf("after confirm: %+v", st)
	}

	red := writePNG(h.t, dir, "red.png", 40, 80, color.RGBA{R: 255, A: 255})
	blue := writePNG(h.t, dir, "blue.png", 40, 80, color.RGBA{B: 255, A: 255})
	st = h.state(h.json(http.MethodPost, "/api/sources", map[string]any{"sources": []string{red, blue}}))
	if len(st.Tray) != 2 {
		h.t.Fatalf("tray = %v", st.Tray)
	}
	h.state(h.json(http.MethodPost, "/api/slots/0", map[string]any{"tray": 0}))
	st = h.state(h.json(http.MethodPost, "/api/slots/1", map[string]any{"tray": 0}))
	if len(st.Tray) != 0 || st.Assignments[0] != red || st.Assignments[1] != blue {
		h.t.Fatalf("after placing: %+v", st)
	}
	return h.state(h.json(http.MethodPost, "/api/photos/finalize", nil))
}

func TestWorkflow(t *testing.T) {
	h := newHarness(t)
	st := h.toEditing()
	if st.Step != "edit-and-export" || len(st.Photos) != 2 || st.Selected != 0 {
		t.Fatalf("after finalize: %+v", st)
	}

	resp := h.do(http.MethodGet, "/api/export", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("export content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "framefusion.jpg") {
		t.Errorf("export disposition = %q", cd)
	}
	cfg, format, err := image.DecodeConfig(resp.Body)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if format != "jpeg" || cfg.Width != 60 || cfg.Height != 90 {
		t.Errorf("export = %s %dx%d, want jpeg 60x90", format, cfg.Width, cfg.Height)
	}

	resp = h.do(http.MethodGet, "/api/export?format=png", "", nil)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("png export content type = %q", ct)
	}

	resp = h.do(http.MethodGet, "/api/preview", "", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("preview = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Errorf("decode preview: %v", err)
	}
}

func TestEditing(t *testing.T) {
	h := newHarness(t)
	h.toEditing()

	st := h.state(h.json(http.MethodPut, "/api/photos/1/rotation", map[string]any{"degrees": 30}))
	if !st.CanUndo {
		t.Error("rotation should be undoable")
	}
	st = h.state(h.json(http.MethodPost, "/api/photos/0/reorder", map[string]any{"direction": "forward"}))
	if st.Selected != 1 {
		t.Errorf("selected after reorder = %d, want 1", st.Selected)
	}

	h.state(h.json(http.MethodPost, "/api/undo", nil))
	st = h.state(h.json(http.MethodPost, "/api/undo", nil))
	if st.CanUndo {
		t.Error("history should be back at the finalized photos")
	}

	var key struct {
		Consumed bool `json:"consumed"`
	}
	resp := h.json(http.MethodPost, "/api/keys", map[string]any{"name": "z", "ctrl": true, "shift": true})
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		t.Fatal(err)
	}
	if !key.Consumed {
		t.Error("ctrl+shift+z should redo")
	}

	// A press in the middle of the left photo starts a drag.
	h.state(h.json(http.MethodPost, "/api/editor/pointer/down", map[string]any{"x": 15, "y": 45}))
	h.state(h.json(http.MethodPost, "/api/editor/pointer/move", map[string]any{"x": 20, "y": 45}))
	st = h.state(h.json(http.MethodPost, "/api/editor/pointer/up", nil))
	if !st.CanUndo {
		t.Error("drag should commit a history entry")
	}
}

func TestExportDuringDragUsesCommittedPhotos(t *testing.T) {
	h := newHarness(t)
	h.toEditing()

	export := func() []byte {
		t.Helper()
		resp := h.do(http.MethodGet, "/api/export?format=png", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("export status = %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	before := export()
	h.state(h.json(http.MethodPost, "/api/editor/pointer/down", map[string]any{"x": 15, "y": 45}))
	h.state(h.json(http.MethodPost, "/api/editor/pointer/move", map[string]any{"x": 40, "y": 60}))
	during := export()
	h.state(h.json(http.MethodPost, "/api/editor/pointer/up", nil))

	if !bytes.Equal(before, during) {
		t.Error("export during a drag should match the last committed photos")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"confirm before frame", http.MethodPost, "/api/layout/confirm", nil, http.StatusConflict, "INVALID_STEP"},
		{"export before edit", http.MethodGet, "/api/export", nil, http.StatusConflict, "INVALID_STEP"},
		{"unknown field", http.MethodPost, "/api/canvas", map[string]any{"w": 10}, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty canvas", http.MethodPost, "/api/canvas", map[string]any{"width": 0, "height": 0}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad index", http.MethodPost, "/api/photos/x/reset", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad pointer phase", http.MethodPost, "/api/editor/pointer/hover", map[string]any{"x": 1, "y": 1}, http.StatusNotFound, "NOT_FOUND"},
		{"bad guest mode", http.MethodPost, "/api/guest/mode", map[string]any{"mode": "karaoke"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty frame upload", http.MethodPost, "/api/frame", nil, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			var resp *http.Response
			if tt.body == nil && tt.method == http.MethodPost && tt.path == "/api/frame" {
				resp = h.do(tt.method, tt.path, "image/png", nil)
			} else {
				resp = h.json(tt.method, tt.path, tt.body)
			}
			e := h.failure(resp, tt.status)
			if string(e.Code) != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if e.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestFinalizeUnfilled(t *testing.T) {
	h := newHarness(t)
	h.state(h.do(http.MethodPost, "/api/frame", "image/png", pngBytes(t, 30, 30, color.White)))
	h.state(h.json(http.MethodPut, "/api/layout/slots", twoSlots))
	h.state(h.json(http.MethodPost, "/api/layout/confirm", nil))

	e := h.failure(h.json(http.MethodPost, "/api/photos/finalize", nil), http.StatusUnprocessableEntity)
	if e.Code != "UNFILLED_SLOTS" {
		t.Errorf("code = %q", e.Code)
	}
	if !strings.Contains(e.Error, "2 slots are still empty") {
		t.Errorf("message = %q", e.Error)
	}
}

func TestLayoutDesigner(t *testing.T) {
	h := newHarness(t)
	h.state(h.do(http.MethodPost, "/api/frame", "image/png", pngBytes(t, 100, 100, color.White)))

	h.state(h.json(http.MethodPost, "/api/layout/slots", nil))
	h.state(h.json(http.MethodPost, "/api/layout/slots", nil))
	h.state(h.json(http.MethodPut, "/api/layout/aspect", map[string]any{"ratio": "1:1"}))

	e := h.failure(h.json(http.MethodPut, "/api/layout/aspect", map[string]any{"ratio": "wide"}), http.StatusBadRequest)
	if e.Code != "INVALID_ASPECT_RATIO" {
		t.Errorf("code = %q", e.Code)
	}

	h.state(h.json(http.MethodDelete, "/api/layout/slots/selected", nil))
	st := h.state(h.json(http.MethodPost, "/api/layout/confirm", nil))
	if len(st.Slots) != 1 {
		t.Errorf("confirmed %d slots, want 1", len(st.Slots))
	}

	h.failure(h.json(http.MethodPut, "/api/layout/slots", map[string]any{"slots": []any{}}), http.StatusBadRequest)
}

func TestGuestScreen(t *testing.T) {
	h := newHarness(t)
	h.toEditing()

	var snap display.Snapshot
	resp := h.json(http.MethodPost, "/api/guest/mode", map[string]any{"mode": "countdown", "count": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Mode != display.ModeCountdown || snap.Count != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Photos) != 2 {
		t.Errorf("guest screen has %d photos, want 2", len(snap.Photos))
	}
	if got := h.screen.Current().Mode; got != display.ModeCountdown {
		t.Errorf("screen mode = %s", got)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	resp := h.do(http.MethodGet, "/api/version", "", nil)
	var info struct {
		Version string `json:"version"`
		Go      string `json:"go"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version == "" || !strings.HasPrefix(info.Go, "go") {
		t.Errorf("version = %+v", info)
	}
}

func TestMetrics(t *testing.T) {
	if resp := newHarness(t).do(http.MethodGet, "/api/metrics", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("metrics without counters: status = %d, want 404", resp.StatusCode)
	}

	counters := observability.NewCounters()
	observability.SetImageHooks(counters)
	observability.SetExportHooks(counters)
	t.Cleanup(observability.Reset)

	h := newMetricsHarness(t, counters)
	h.toEditing()
	if resp := h.do(http.MethodGet, "/api/export", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status = %d", resp.StatusCode)
	}

	resp := h.do(http.MethodGet, "/api/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: status = %d", resp.StatusCode)
	}
	var stats struct {
		Fetches map[string]int `json:"fetches"`
		Decodes map[string]int `json:"decodes"`
		Exports map[string]int `json:"exports"`
		Bytes   int64          `json:"exportedBytes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Exports["jpeg"] != 1 || stats.Bytes == 0 {
		t.Errorf("exports = %v (%d bytes), want one jpeg", stats.Exports, stats.Bytes)
	}
	if stats.Fetches["upload"] == 0 {
		t.Errorf("fetches = %v, want the uploaded frame counted", stats.Fetches)
	}
	if stats.Decodes["png"] == 0 {
		t.Errorf("decodes = %v, want png decodes", stats.Decodes)
	}
}
