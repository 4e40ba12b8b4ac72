package server

import (
	"context"
	"image"

	"github.com/uitmedia/framefusion/pkg/booth"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/render"
)

func canvasSize(st booth.State) (int, int) {
	return max(int(st.Canvas.Width), 1), max(int(st.Canvas.Height), 1)
}

func (s *Server) frameBitmap(src string) image.Image {
	if src == "" {
		return nil
	}
	img, ok := s.images.Bitmap(src)
	if !ok {
		return nil
	}
	return img
}

// scene is the render loop's view of the edit step.
func (s *Server) scene() render.Scene {
	return s.editScene(s.session.Snapshot())
}

func (s *Server) editScene(st booth.State) render.Scene {
	w, h := canvasSize(st)
	return render.Scene{
		Width:        w,
		Height:       h,
		Frame:        s.frameBitmap(st.FrameSrc),
		FrameOpacity: st.FrameOpacity,
		Photos:       st.Photos,
		Selected:     st.Selected,
		GlobalScale:  st.GlobalScale,
		DPR:          st.Canvas.DPR,
	}
}

// preview draws the operator canvas for the current step.
func (s *Server) preview() *image.RGBA {
	st := s.session.Snapshot()
	w, h := canvasSize(st)
	frame := s.frameBitmap(st.FrameSrc)

	switch st.Step {
	case booth.StepTemplateDesign:
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		s.renderer.DrawLayout(dst, render.LayoutScene{
			Width: w, Height: h, Frame: frame,
			Slots: st.Design, Selected: st.SelectedSlotID, DPR: st.Canvas.DPR,
		})
		return dst
	case booth.StepPhotoUpload:
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		s.renderer.DrawSlots(dst, render.SlotScene{
			Width: w, Height: h, Frame: frame, FrameOpacity: st.FrameOpacity,
			Slots: layout.Rects(st.Slots), Sources: st.Assignments,
			DragOver: st.DragOver, DPR: st.Canvas.DPR,
		})
		return dst
	case booth.StepEditAndExport:
		if img, ok := s.lastFrame(); ok && img.Bounds().Dx() == w && img.Bounds().Dy() == h {
			return img
		}
	}
	return s.renderer.Render(s.editScene(st))
}

// exportComposite renders the committed composition at the frame's native
// size. It waits for every bitmap so the result never misses a photo.
func (s *Server) exportComposite(ctx context.Context, opts render.ExportOptions) ([]byte, error) {
	st := s.session.Snapshot()
	if st.Step != booth.StepEditAndExport {
		return nil, errors.New(errors.ErrCodeInvalidStep, "export needs step %s, session is at %s", booth.StepEditAndExport, st.Step)
	}
	if st.FrameSrc == "" {
		return nil, errors.New(errors.ErrCodeExportFailed, "no frame to export")
	}
	frame, err := s.images.Wait(ctx, st.FrameSrc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "frame unavailable")
	}
	photos := st.Committed
	for _, p := range photos {
		if _, err := s.images.Wait(ctx, p.Src); err != nil {
			return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "photo %s unavailable", p.Src)
		}
	}
	if opts.PreviewWidth == 0 {
		opts.PreviewWidth = st.Canvas.Width
	}
	return s.renderer.Export(ctx, render.Scene{
		Frame:        frame,
		FrameOpacity: st.FrameOpacity,
		Photos:       photos,
		GlobalScale:  st.GlobalScale,
	}, opts)
}
