package booth

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/uitmedia/framefusion/pkg/display"
	"github.com/uitmedia/framefusion/pkg/errors"
	"github.com/uitmedia/framefusion/pkg/geom"
	"github.com/uitmedia/framefusion/pkg/layout"
	"github.com/uitmedia/framefusion/pkg/photo"
)

type fakeImages struct {
	mu        sync.Mutex
	loaded    []string
	forgotten []string
}

func (f *fakeImages) Forget(src string) {
	f.mu.Lock()
	f.forgotten = append(f.forgotten, src)
	f.mu.Unlock()
}

func (f *fakeImages) dropped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.forgotten)
	slices.Sort(out)
	return out
}

func (f *fakeImages) Load(src string) {
	f.mu.Lock()
	f.loaded = append(f.loaded, src)
	f.mu.Unlock()
}

func (f *fakeImages) Dimensions(context.Context, string) (int, int, error) {
	return 1000, 1500, nil
}

type syncRecorder struct {
	mu  sync.Mutex
	got []display.Content
}

func (r *syncRecorder) Sync(c display.Content) {
	r.mu.Lock()
	r.got = append(r.got, c)
	r.mu.Unlock()
}

func (r *syncRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func (r *syncRecorder) last() display.Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

var testSlots = []layout.Placeholder{
	{ID: "a", X: 0, Y: 0, Width: 0.5, Height: 0.5},
	{ID: "b", X: 0.5, Y: 0, Width: 0.5, Height: 0.5},
	{ID: "c", X: 0, Y: 0.5, Width: 1, Height: 0.5},
}

// designed returns a session on the photo upload step with testSlots
// confirmed over a 600x900 frame.
func designed(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New(append([]Option{WithImages(&fakeImages{})}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.SetFrameSized("frame.png", 600, 900); err != nil {
		t.Fatalf("SetFrameSized: %v", err)
	}
	if err := s.LoadSlots(testSlots); err != nil {
		t.Fatalf("LoadSlots: %v", err)
	}
	if _, err := s.ConfirmLayout(); err != nil {
		t.Fatalf("ConfirmLayout: %v", err)
	}
	return s
}

// editing returns a session on the edit step with a.jpg, b.jpg and c.jpg in
// slot order.
func editing(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := designed(t, opts...)
	if err := s.AddSources("a.jpg", "b.jpg", "c.jpg"); err != nil {
		t.Fatalf("AddSources: %v", err)
	}
	for slot := range 3 {
		if err := s.Place(0, slot); err != nil {
			t.Fatalf("Place(0, %d): %v", slot, err)
		}
	}
	if _, err := s.FinalizePhotos(context.Background()); err != nil {
		t.Fatalf("FinalizePhotos: %v", err)
	}
	return s
}

func sources(ps []photo.Photo) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Src
	}
	return out
}

func TestWorkflow(t *testing.T) {
	s := editing(t)

	if got := s.Snapshot().Step; got != StepEditAndExport {
		t.Fatalf("step = %v, want edit-and-export", got)
	}
	if got := s.Selected(); got != 0 {
		t.Errorf("selected = %d, want 0", got)
	}
	photos := s.Committed()
	if got := sources(photos); !slices.Equal(got, []string{"a.jpg", "b.jpg", "c.jpg"}) {
		t.Fatalf("sources = %v", got)
	}
	for i, p := range photos {
		r := testSlots[i].Rect()
		cx, cy := r.Center()
		if p.Transform.X != cx || p.Transform.Y != cy || p.Transform.Width != r.Width || p.Transform.Height != r.Height {
			t.Errorf("photo %d transform = %+v, want slot %+v", i, p.Transform, r)
		}
		if p.Crop != geom.IdentityCrop() {
			t.Errorf("photo %d crop = %+v, want identity", i, p.Crop)
		}
	}
}

func TestFinalizeUnfilled(t *testing.T) {
	s := designed(t)
	if err := s.AddSources("a.jpg", "b.jpg"); err != nil {
		t.Fatal(err)
	}
	_ = s.Place(0, 0)
	_ = s.Place(0, 1)

	_, err := s.FinalizePhotos(context.Background())
	var unfilled *errors.UnfilledSlotsError
	if !stderrors.As(err, &unfilled) {
		t.Fatalf("FinalizePhotos err = %v, want UnfilledSlotsError", err)
	}
	if unfilled.Remaining != 1 || unfilled.Total != 3 {
		t.Errorf("unfilled = %+v, want 1 of 3", unfilled)
	}
	if !errors.Is(err, errors.ErrCodeUnfilledSlots) {
		t.Errorf("code = %v", errors.GetCode(err))
	}
	if got := s.Snapshot().Step; got != StepPhotoUpload {
		t.Errorf("step = %v, want photo-upload", got)
	}
}

func TestSlotFilling(t *testing.T) {
	s := designed(t)
	if err := s.AddSources("a.jpg", "b.jpg", "c.jpg"); err != nil {
		t.Fatal(err)
	}

	check := func(step string, slot0 string, tray ...string) {
		t.Helper()
		if got := s.Assignments()[0]; got != slot0 {
			t.Errorf("%s: slot 0 = %q, want %q", step, got, slot0)
		}
		if got := s.Tray(); !slices.Equal(got, tray) {
			t.Errorf("%s: tray = %v, want %v", step, got, tray)
		}
	}

	if err := s.Place(0, 0); err != nil {
		t.Fatal(err)
	}
	check("place", "a.jpg", "b.jpg", "c.jpg")

	if err := s.Place(0, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Place into filled slot err = %v", err)
	}

	if err := s.Drop(0, 0); err != nil {
		t.Fatal(err)
	}
	check("drop swaps", "b.jpg", "a.jpg", "c.jpg")

	if err := s.ReturnToTray(0); err != nil {
		t.Fatal(err)
	}
	check("return", "", "b.jpg", "a.jpg", "c.jpg")

	s.Undo()
	check("undo return", "b.jpg", "a.jpg", "c.jpg")
	s.Undo()
	check("undo drop", "a.jpg", "b.jpg", "c.jpg")
	s.Undo()
	check("undo place", "", "a.jpg", "b.jpg", "c.jpg")
	if s.Undo() {
		t.Error("Undo at the start of history reported a change")
	}
	s.Redo()
	check("redo place", "a.jpg", "b.jpg", "c.jpg")
}

func TestClickSlot(t *testing.T) {
	s := designed(t)
	_ = s.AddSources("a.jpg", "b.jpg")

	// Slot b covers the top right quarter of the 600x900 canvas.
	slot, err := s.ClickSlot(geom.Point{X: 450, Y: 225}, 1)
	if err != nil || slot != 1 {
		t.Fatalf("ClickSlot = %d, %v", slot, err)
	}
	if got := s.Assignments(); got[1] != "b.jpg" {
		t.Errorf("assignments = %v", got)
	}

	// Clicking a filled slot returns its photo to the front of the tray.
	if _, err := s.ClickSlot(geom.Point{X: 450, Y: 225}, -1); err != nil {
		t.Fatal(err)
	}
	if got := s.Tray(); !slices.Equal(got, []string{"b.jpg", "a.jpg"}) {
		t.Errorf("tray = %v", got)
	}

	if slot, _ := s.ClickSlot(geom.Point{X: -10, Y: -10}, 0); slot != -1 {
		t.Errorf("click outside slots = %d, want -1", slot)
	}
}

func TestDragCommitsOnce(t *testing.T) {
	rec := &syncRecorder{}
	s := editing(t, WithSyncer(rec))

	// Photo a is centered at (150, 225) on the 600x900 canvas.
	if _, err := s.PointerDown(geom.Point{X: 150, Y: 225}); err != nil {
		t.Fatal(err)
	}
	if !s.Dragging() {
		t.Fatal("body press did not start a drag")
	}
	synced := rec.count()
	for _, p := range []geom.Point{{X: 170, Y: 235}, {X: 190, Y: 245}, {X: 200, Y: 255}} {
		if _, err := s.PointerMove(p); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.Photos()[0].Crop; got.X != 50 || got.Y != 30 {
		t.Errorf("draft crop = %+v, want (50, 30)", got)
	}
	if got := s.Committed()[0].Crop; got != geom.IdentityCrop() {
		t.Errorf("committed crop moved during drag: %+v", got)
	}
	st := s.Snapshot()
	if st.Photos[0].Crop.X != 50 || st.Committed[0].Crop != geom.IdentityCrop() {
		t.Errorf("snapshot during drag: draft crop %+v, committed crop %+v", st.Photos[0].Crop, st.Committed[0].Crop)
	}
	if rec.count() != synced {
		t.Error("drag draft was synced to the guest screen")
	}

	out, err := s.PointerUp()
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed() {
		t.Fatal("release did not commit")
	}
	if got := s.Committed()[0].Crop; got.X != 50 || got.Y != 30 {
		t.Errorf("committed crop = %+v, want (50, 30)", got)
	}
	if rec.count() != synced+1 {
		t.Errorf("syncs after release = %d, want %d", rec.count(), synced+1)
	}
	if got := rec.last().Photos[0].Crop.X; got != 50 {
		t.Errorf("synced crop x = %v, want 50", got)
	}

	if !s.Undo() {
		t.Fatal("Undo did nothing")
	}
	if got := s.Committed()[0].Crop; got != geom.IdentityCrop() {
		t.Errorf("crop after undo = %+v", got)
	}
	if !s.CanRedo() {
		t.Error("CanRedo = false after undo")
	}
	s.Redo()
	if got := s.Committed()[0].Crop; got.X != 50 {
		t.Errorf("crop after redo = %+v", got)
	}
}

func TestUndoInterruptsDrag(t *testing.T) {
	s := editing(t)
	if err := s.SetRotation(0, 15); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PointerDown(geom.Point{X: 150, Y: 225}); err != nil {
		t.Fatal(err)
	}
	_, _ = s.PointerMove(geom.Point{X: 190, Y: 225})

	s.Undo()
	if s.Dragging() {
		t.Error("drag survived undo")
	}
	got := s.Photos()[0]
	if got.Transform.Rotation != 0 || got.Crop != geom.IdentityCrop() {
		t.Errorf("photo after undo = %+v", got)
	}
	if out, _ := s.PointerUp(); out.Committed() {
		t.Error("release after undo committed the dropped draft")
	}
}

func TestReorder(t *testing.T) {
	s := editing(t)
	idx, err := s.Reorder(1, photo.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 || s.Selected() != 2 {
		t.Errorf("index = %d, selected = %d, want 2", idx, s.Selected())
	}
	if got := sources(s.Committed()); !slices.Equal(got, []string{"a.jpg", "c.jpg", "b.jpg"}) {
		t.Errorf("order = %v", got)
	}
}

func TestAdjustments(t *testing.T) {
	s := editing(t)
	tests := []struct {
		name  string
		apply func() error
		check func(photo.Photo) bool
	}{
		{"rotation", func() error { return s.SetRotation(2, -30) }, func(p photo.Photo) bool { return p.Transform.Rotation == -30 }},
		{"crop", func() error { return s.SetCrop(2, geom.Crop{X: 5, Y: -5, Scale: 2}) }, func(p photo.Photo) bool { return p.Crop == geom.Crop{X: 5, Y: -5, Scale: 2} }},
		{"crop floor", func() error { return s.SetCrop(2, geom.Crop{Scale: 0.01}) }, func(p photo.Photo) bool { return p.Crop.Scale == geom.MinCropScale }},
		{"reset", func() error { return s.ResetAdjustments(2) }, func(p photo.Photo) bool {
			return p.Transform.Rotation == 0 && p.Crop == geom.IdentityCrop()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.apply(); err != nil {
				t.Fatal(err)
			}
			if p := s.Committed()[2]; !tt.check(p) {
				t.Errorf("photo = %+v", p)
			}
		})
	}

	if err := s.SetRotation(7, 10); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("out of range err = %v", err)
	}
	if err := s.SetFrameOpacity(1.5); err == nil {
		t.Error("opacity 1.5 accepted")
	}
	if err := s.SetGlobalScale(0); err == nil {
		t.Error("global scale 0 accepted")
	}
}

func TestWrongStep(t *testing.T) {
	s := New()
	if _, err := s.PointerDown(geom.Point{}); !errors.Is(err, errors.ErrCodeInvalidStep) {
		t.Errorf("PointerDown err = %v", err)
	}
	if _, err := s.AddSlot(); !errors.Is(err, errors.ErrCodeInvalidStep) {
		t.Errorf("AddSlot err = %v", err)
	}
	if err := s.AddSources("a.jpg"); !errors.Is(err, errors.ErrCodeInvalidStep) {
		t.Errorf("AddSources err = %v", err)
	}
	if err := s.CreateNew(); !errors.Is(err, errors.ErrCodeInvalidStep) {
		t.Errorf("CreateNew err = %v", err)
	}
}

func TestKeys(t *testing.T) {
	s := New(WithImages(&fakeImages{}))
	_ = s.SetFrameSized("frame.png", 600, 900)
	_, _ = s.AddSlot()
	if !s.KeyDown(Key{Name: "Delete"}) {
		t.Error("Delete not consumed in the designer")
	}
	if n := len(s.DesignSlots()); n != 0 {
		t.Errorf("slots after Delete = %d", n)
	}
	if s.KeyDown(Key{Name: "z", Ctrl: true}) {
		t.Error("undo consumed before photo upload")
	}

	s = editing(t)
	_ = s.SetRotation(0, 45)

	tests := []struct {
		name     string
		key      Key
		consumed bool
		rotation float64
	}{
		{"plain z", Key{Name: "z"}, false, 45},
		{"ctrl z", Key{Name: "z", Ctrl: true}, true, 0},
		{"cmd shift z", Key{Name: "Z", Meta: true, Shift: true}, true, 45},
		{"ctrl z again", Key{Name: "z", Ctrl: true}, true, 0},
		{"ctrl y", Key{Name: "y", Ctrl: true}, true, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.KeyDown(tt.key); got != tt.consumed {
				t.Errorf("KeyDown = %v, want %v", got, tt.consumed)
			}
			if got := s.Committed()[0].Transform.Rotation; got != tt.rotation {
				t.Errorf("rotation = %v, want %v", got, tt.rotation)
			}
		})
	}
}

func TestCreateNewAndReset(t *testing.T) {
	s := editing(t)
	if err := s.CreateNew(); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.Step != StepPhotoUpload || len(st.Photos) != 0 || len(st.Slots) != 3 || st.FrameSrc != "frame.png" {
		t.Errorf("after CreateNew: %+v", st)
	}
	if !slices.Equal(st.Assignments, []string{"", "", ""}) {
		t.Errorf("assignments = %v", st.Assignments)
	}

	_ = s.SetFrameOpacity(0.3)
	s.Reset()
	st = s.Snapshot()
	if st.Step != StepFrameUpload || st.FrameSrc != "" || len(st.Slots) != 0 || st.FrameOpacity != 1 {
		t.Errorf("after Reset: %+v", st)
	}
}

func TestAutoReset(t *testing.T) {
	s := editing(t, WithAutoReset(20*time.Millisecond))

	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().Step != StepPhotoUpload {
		if time.Now().After(deadline) {
			t.Fatal("session was not reset after inactivity")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(s.Committed()); n != 0 {
		t.Errorf("photos after auto reset = %d", n)
	}
	if n := len(s.Slots()); n != 3 {
		t.Errorf("layout lost on auto reset: %d slots", n)
	}
}

func TestSetFrameFollowsCanvas(t *testing.T) {
	s := New()
	if err := s.SetFrameSized("frame.png", 1200, 1800); err != nil {
		t.Fatal(err)
	}
	if c := s.Canvas(); c.Width != 1200 || c.Height != 1800 {
		t.Errorf("canvas = %+v", c)
	}
	if err := s.SetCanvas(layout.Canvas{Width: 400, Height: 600, DPR: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFrameSized("other.png", 1000, 1000); err != nil {
		t.Fatal(err)
	}
	if c := s.Canvas(); c.Width != 400 {
		t.Errorf("explicit canvas replaced by frame: %+v", c)
	}
	if err := s.SetFrame(context.Background(), "x.png"); err == nil {
		t.Error("SetFrame without an image resolver succeeded")
	}
}

func TestSlotFillingDuplicateSources(t *testing.T) {
	s := designed(t)
	// Uploading the same bytes twice yields the same reference twice.
	if err := s.AddSources("same.jpg", "same.jpg", "other.jpg"); err != nil {
		t.Fatal(err)
	}
	_ = s.Place(0, 0)
	_ = s.Place(0, 1)

	check := func(step string, slots []string, tray ...string) {
		t.Helper()
		if got := s.Assignments(); !slices.Equal(got, slots) {
			t.Errorf("%s: slots = %q, want %q", step, got, slots)
		}
		if got := s.Tray(); !slices.Equal(got, tray) {
			t.Errorf("%s: tray = %q, want %q", step, got, tray)
		}
	}
	check("placed", []string{"same.jpg", "same.jpg", ""}, "other.jpg")

	s.Undo()
	check("undo", []string{"same.jpg", "", ""}, "same.jpg", "other.jpg")
	s.Undo()
	check("undo twice", []string{"", "", ""}, "same.jpg", "same.jpg", "other.jpg")
	s.Redo()
	check("redo", []string{"same.jpg", "", ""}, "same.jpg", "other.jpg")
	s.Redo()
	check("redo twice", []string{"same.jpg", "same.jpg", ""}, "other.jpg")
}

// gatedImages blocks Dimensions until release is closed.
type gatedImages struct {
	fakeImages
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedImages() *gatedImages {
	return &gatedImages{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedImages) Dimensions(ctx context.Context, src string) (int, int, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
	return 1000, 1500, nil
}

func fillAll(t *testing.T, s *Session) {
	t.Helper()
	if err := s.AddSources("a.jpg", "b.jpg", "c.jpg"); err != nil {
		t.Fatal(err)
	}
	for slot := range 3 {
		if err := s.Place(0, slot); err != nil {
			t.Fatalf("Place(0, %d): %v", slot, err)
		}
	}
}

func TestFinalizeDoesNotHoldLock(t *testing.T) {
	images := newGatedImages()
	s := designed(t, WithImages(images))
	fillAll(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.FinalizePhotos(context.Background())
		done <- err
	}()
	<-images.entered

	snap := make(chan State, 1)
	go func() { snap <- s.Snapshot() }()
	select {
	case st := <-snap:
		if st.Step != StepPhotoUpload {
			t.Errorf("step during finalize = %v, want photo-upload", st.Step)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Snapshot blocked while photo dimensions were pending")
	}

	close(images.release)
	if err := <-done; err != nil {
		t.Fatalf("FinalizePhotos: %v", err)
	}
	if got := s.Snapshot().Step; got != StepEditAndExport {
		t.Errorf("step = %v, want edit-and-export", got)
	}
}

func TestFinalizeDiscardedWhenSlotsChange(t *testing.T) {
	images := newGatedImages()
	s := designed(t, WithImages(images))
	fillAll(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.FinalizePhotos(context.Background())
		done <- err
	}()
	<-images.entered

	if err := s.ReturnToTray(2); err != nil {
		t.Fatal(err)
	}
	close(images.release)

	if err := <-done; !errors.Is(err, errors.ErrCodeInvalidStep) {
		t.Fatalf("FinalizePhotos err = %v, want INVALID_STEP", err)
	}
	st := s.Snapshot()
	if st.Step != StepPhotoUpload {
		t.Errorf("step = %v, want photo-upload", st.Step)
	}
	if got := s.Tray(); !slices.Equal(got, []string{"c.jpg"}) {
		t.Errorf("tray = %v, want [c.jpg]", got)
	}
}

func TestTransitionsReleaseImages(t *testing.T) {
	images := &fakeImages{}
	s := editing(t, WithImages(images))

	if err := s.CreateNew(); err != nil {
		t.Fatal(err)
	}
	if got := images.dropped(); !slices.Equal(got, []string{"a.jpg", "b.jpg", "c.jpg"}) {
		t.Errorf("forgotten after CreateNew = %v, want the photos only", got)
	}

	_ = s.AddSources("d.jpg")
	s.Reset()
	if got := images.dropped(); !slices.Equal(got, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "frame.png"}) {
		t.Errorf("forgotten after Reset = %v, want the tray and the frame too", got)
	}
}
