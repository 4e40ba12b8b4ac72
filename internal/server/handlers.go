package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/uitmedia/framefusion/pkg/booth"
	"github.com/uitmedia/framefusion/pkg/buildinfo"
	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/photo"
	"github.com/uitmedia/framefusion/pkg/render"
)

type pointBody struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p pointBody) point() geom.Point { return geom.Pt(p.X, p.Y) }

// ok answers with the session state after a successful action.
func (s *Server) ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// =============================================================================
// Session
// =============================================================================

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.ok(w)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Stats())
}

func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "x and y query parameters are required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cursor": s.session.Cursor(geom.Pt(x, y))})
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	var c layout.Canvas
	if err := decode(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetCanvas(c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var k booth.Key
	if err := decode(r, &k); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"consumed": s.session.KeyDown(k)})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.session.Undo()
	s.ok(w)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.session.Redo()
	s.ok(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	s.ok(w)
}

func (s *Server) handleCreateNew(w http.ResponseWriter, r *http.Request) {
	if err := s.session.CreateNew(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

// =============================================================================
// Frame
// =============================================================================

// readSources returns the sources a request carries: a JSON body
// {"sources": [...]} or {"src": "..."}, or a raw image body that is kept in
// memory.
func (s *Server) readSources(w http.ResponseWriter, r *http.Request) ([]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Src     string   `json:"src"`
			Sources []string `json:"sources"`
		}
		if err := decode(r, &body); err != nil {
			return nil, err
		}
		if body.Src != "" {
			body.Sources = append([]string{body.Src}, body.Sources...)
		}
		if len(body.Sources) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "no image sources given")
		}
		return body.Sources, nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty upload")
	}
	return []string{s.images.AddBytes(data)}, nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	srcs, err := s.readSources(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetFrame(r.Context(), srcs[0]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleOpacity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Opacity float64 `json:"opacity"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetFrameOpacity(body.Opacity); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleScale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scale float64 `json:"scale"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetGlobalScale(body.Scale); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

// =============================================================================
// Layout designer
// =============================================================================

func (s *Server) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.AddSlot(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleLoadSlots(w http.ResponseWriter, r *http.Request) {
	var doc layout.Document
	if err := decode(r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := doc.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.LoadSlots(doc.Slots); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleRemoveSlot(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.RemoveSelectedSlot(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleSelectSlot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.session.SelectSlot(body.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found && body.ID != "" {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no slot %q", body.ID))
		return
	}
	s.ok(w)
}

func (s *Server) handleAspect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ratio string `json:"ratio"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetSlotAspectRatio(body.Ratio); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleLayoutPointer(w http.ResponseWriter, r *http.Request) {
	var p pointBody
	phase := chi.URLParam(r, "phase")
	if phase == "down" || phase == "move" {
		if err := decode(r, &p); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	var err error
	switch phase {
	case "down":
		err = s.session.LayoutPointerDown(p.point())
	case "move":
		_, err = s.session.LayoutPointerMove(p.point())
	case "up", "leave":
		err = s.session.LayoutPointerUp()
	default:
		err = errors.New(errors.ErrCodeNotFound, "unknown pointer phase %q", phase)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.ConfirmLayout(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

// =============================================================================
// Slot filling
// =============================================================================

func (s *Server) handleAddSources(w http.ResponseWriter, r *http.Request) {
	srcs, err := s.readSources(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.AddSources(srcs...); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	i, err := intParam(r, "index")
	if err == nil {
		err = s.session.RemoveFromTray(i)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleFillSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := intParam(r, "slot")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Tray int  `json:"tray"`
		Drop bool `json:"drop"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Drop {
		err = s.session.Drop(body.Tray, slot)
	} else {
		err = s.session.Place(body.Tray, slot)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleEmptySlot(w http.ResponseWriter, r *http.Request) {
	slot, err := intParam(r, "slot")
	if err == nil {
		err = s.session.ReturnToTray(slot)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleClickSlot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		pointBody
		Tray int `json:"tray"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.session.ClickSlot(body.point(), body.Tray); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleDragOver(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Slot int `json:"slot"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.session.SetDragOver(body.Slot)
	s.ok(w)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.FinalizePhotos(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

// =============================================================================
// Photo editor
// =============================================================================

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var p pointBody
	phase := chi.URLParam(r, "phase")
	if phase == "down" || phase == "move" {
		if err := decode(r, &p); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	var err error
	switch phase {
	case "down":
		_, err = s.session.PointerDown(p.point())
	case "move":
		_, err = s.session.PointerMove(p.point())
	case "up":
		_, err = s.session.PointerUp()
	case "leave":
		_, err = s.session.PointerLeave()
	default:
		err = errors.New(errors.ErrCodeNotFound, "unknown pointer phase %q", phase)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		pointBody
		DeltaY float64 `json:"deltaY"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.session.Wheel(body.point(), body.DeltaY); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleSelectPhoto(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.session.Select(body.Index)
	s.ok(w)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	i, err := intParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Direction string `json:"direction"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	dir, ok := photo.ParseDirection(body.Direction)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "direction must be backward or forward"))
		return
	}
	if _, err := s.session.Reorder(i, dir); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleRotation(w http.ResponseWriter, r *http.Request) {
	i, err := intParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Degrees float64 `json:"degrees"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetRotation(i, body.Degrees); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	i, err := intParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var c geom.Crop
	if err := decode(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.SetCrop(i, c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

func (s *Server) handleResetPhoto(w http.ResponseWriter, r *http.Request) {
	i, err := intParam(r, "index")
	if err == nil {
		err = s.session.ResetAdjustments(i)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w)
}

// =============================================================================
// Output
// =============================================================================

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, err := render.Encode(s.preview(), render.FormatPNG, 0)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode preview"))
		return
	}
	w.Header().Set("Content-Type", render.FormatPNG.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts := s.export
	if f := r.URL.Query().Get("format"); f != "" {
		opts.Format = render.ParseFormat(f)
	}
	data, err := s.exportComposite(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("composition exported", "format", opts.Format, "bytes", len(data))
	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="framefusion`+opts.Format.Extension()+`"`)
	_, _ = w.Write(data)
}

func (s *Server) handleGuestMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode  string `json:"mode"`
		Count int    `json:"count"`
		QR    string `json:"qr"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := display.ParseMode(body.Mode)
	if err == nil {
		err = s.screen.SetMode(m, body.Count, body.QR)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.screen.Current())
}

func (s *Server) handleGuestState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screen.Current())
}
