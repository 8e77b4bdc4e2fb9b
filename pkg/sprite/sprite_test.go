package sprite

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/surface"
)

// fakeSurface はサイズだけを持つテスト用サーフェス
// 描画先として使うと Blit と Update の呼び出しを記録する
type fakeSurface struct {
	name    string
	w, h    int
	blits   []blitCall
	updates []image.Rectangle
	onBlit  func(src surface.Surface)
}

type blitCall struct {
	src     surface.Surface
	dst     image.Point
	srcRect image.Rectangle
}

func newFake(name string, w, h int) *fakeSurface {
	return &fakeSurface{name: name, w: w, h: h}
}

func (f *fakeSurface) Width() int              { return f.w }
func (f *fakeSurface) Height() int             { return f.h }
func (f *fakeSurface) Bounds() image.Rectangle { return image.Rect(0, 0, f.w, f.h) }

func (f *fakeSurface) Blit(src surface.Surface, dst image.Point, srcRect image.Rectangle) image.Rectangle {
	f.blits = append(f.blits, blitCall{src: src, dst: dst, srcRect: srcRect})
	if f.onBlit != nil {
		f.onBlit(src)
	}
	return surface.BlitRect(dst, surface.SourceRect(src, srcRect))
}

func (f *fakeSurface) Update(rects ...image.Rectangle) {
	f.updates = append(f.updates, rects...)
}

func (f *fakeSurface) Fill(image.Rectangle, color.Color)              {}
func (f *fakeSurface) FillPath(*surface.Path, color.Color)            {}
func (f *fakeSurface) StrokePath(*surface.Path, float32, color.Color) {}

// blitNames は描画元の名前を描画順に返す
func (f *fakeSurface) blitNames() []string {
	names := make([]string, 0, len(f.blits))
	for _, b := range f.blits {
		if fs, ok := b.src.(*fakeSurface); ok {
			names = append(names, fs.name)
		}
	}
	return names
}

// recordingObserver は受け取った通知を記録する
type recordingObserver struct {
	got []Notification
}

func (o *recordingObserver) Notify(n Notification) { o.got = append(o.got, n) }

func mustSprite(t *testing.T, name string, x, y, z, w, h int) *Sprite {
	t.Helper()
	s, err := New(newFake(name, w, h), NewVector(x, y, z))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNewNilSurface(t *testing.T) {
	s, err := New(nil, Vector{})
	if s != nil {
		t.Error("expected nil sprite")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	s := mustSprite(t, "a", 5, 6, 2, 4, 3)
	if !s.Visible() {
		t.Error("expected sprite to be visible by default")
	}
	if s.LastBlitRectangle() != (image.Rectangle{}) {
		t.Errorf("expected empty last blit rect, got %v", s.LastBlitRectangle())
	}
	other := mustSprite(t, "b", 0, 0, 0, 1, 1)
	if s.ID() == other.ID() {
		t.Error("expected unique sprite IDs")
	}
}

func TestSpriteGeometry(t *testing.T) {
	s := mustSprite(t, "a", 5, 6, 2, 4, 3)

	if got, want := s.Rectangle(), image.Rect(5, 6, 9, 9); got != want {
		t.Errorf("Rectangle: expected %v, got %v", want, got)
	}
	if s.Left() != 5 || s.Right() != 9 || s.Top() != 6 || s.Bottom() != 9 {
		t.Errorf("unexpected edges: %d %d %d %d", s.Left(), s.Right(), s.Top(), s.Bottom())
	}
	if s.Size() != image.Pt(4, 3) {
		t.Errorf("unexpected size %v", s.Size())
	}
	if s.Center() != image.Pt(7, 7) {
		t.Errorf("unexpected center %v", s.Center())
	}

	s.SetCenter(image.Pt(20, 20))
	if s.Position() != image.Pt(18, 19) {
		t.Errorf("SetCenter: unexpected position %v", s.Position())
	}
	if s.Z() != 2 {
		t.Errorf("SetCenter must not change Z, got %d", s.Z())
	}
}

func TestSetRectangle(t *testing.T) {
	s := mustSprite(t, "a", 5, 6, 7, 4, 3)
	s.SetRectangle(image.Rect(1, 2, 100, 100))
	if s.Position() != image.Pt(1, 2) {
		t.Errorf("expected position (1,2), got %v", s.Position())
	}
	if s.Z() != 0 {
		t.Errorf("expected Z reset to 0, got %d", s.Z())
	}
	if s.Rectangle() != image.Rect(1, 2, 5, 5) {
		t.Errorf("expected rectangle to follow surface size, got %v", s.Rectangle())
	}
}

func TestBoundingBoxMode(t *testing.T) {
	s := mustSprite(t, "a", 5, 6, 0, 4, 3)
	s.SetBoundingBox(true)

	// 未設定の場合は位置 + サイズで初期化される
	if got := s.Rectangle(); got != image.Rect(5, 6, 9, 9) {
		t.Errorf("expected lazily initialised box, got %v", got)
	}

	box := image.Rect(0, 0, 2, 2)
	s.SetRectangle(box)
	s.SetPosition(image.Pt(50, 50))
	if got := s.Rectangle(); got != box {
		t.Errorf("expected explicit box %v, got %v", box, got)
	}
	if !s.IntersectsWithPoint(image.Pt(1, 1)) {
		t.Error("expected point inside explicit box")
	}
}

func TestIntersectsWithPointBoundaries(t *testing.T) {
	s := mustSprite(t, "a", 10, 20, 0, 5, 5)
	tests := []struct {
		p    image.Point
		want bool
	}{
		{image.Pt(10, 20), true},
		{image.Pt(14, 24), true},
		{image.Pt(15, 20), false},
		{image.Pt(10, 25), false},
		{image.Pt(9, 20), false},
	}
	for _, tt := range tests {
		if got := s.IntersectsWithPoint(tt.p); got != tt.want {
			t.Errorf("IntersectsWithPoint(%v): expected %v, got %v", tt.p, tt.want, got)
		}
	}
}

func TestIntersectsWithRectAndSprite(t *testing.T) {
	a := mustSprite(t, "a", 0, 0, 0, 10, 10)
	b := mustSprite(t, "b", 5, 5, 0, 10, 10)
	c := mustSprite(t, "c", 10, 0, 0, 10, 10)

	if ok, err := a.IntersectsWithSprite(b); err != nil || !ok {
		t.Errorf("expected a and b to intersect, got %v %v", ok, err)
	}
	// 半開区間なので接しているだけでは重ならない
	if ok, _ := a.IntersectsWithSprite(c); ok {
		t.Error("expected adjacent sprites not to intersect")
	}
	if _, err := a.IntersectsWithSprite(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestIntersectsWithRectTolerance(t *testing.T) {
	s := mustSprite(t, "a", 0, 0, 0, 10, 10)
	r := image.Rect(5, 5, 15, 15)

	tests := []struct {
		tol  int
		want bool
	}{
		{0, true},
		{5, true},
		{6, false},
	}
	for _, tt := range tests {
		if got := s.IntersectsWithRectTolerance(r, tt.tol); got != tt.want {
			t.Errorf("tol=%d: expected %v, got %v", tt.tol, tt.want, got)
		}
	}

	// 許容量0では接している矩形も重なりとみなす
	if !s.IntersectsWithRectTolerance(image.Rect(10, 0, 20, 10), 0) {
		t.Error("expected touching rect to count with zero tolerance")
	}
	if s.IntersectsWithRectTolerance(image.Rect(11, 0, 20, 10), 0) {
		t.Error("expected separated rect not to intersect")
	}
}

func TestIntersectsWithRadius(t *testing.T) {
	a := mustSprite(t, "a", 0, 0, 0, 10, 10)
	near := mustSprite(t, "near", 10, 0, 0, 10, 10)
	far := mustSprite(t, "far", 20, 0, 0, 10, 10)

	if a.DefaultRadius() != 5 {
		t.Fatalf("expected default radius 5, got %d", a.DefaultRadius())
	}
	if ok, err := a.IntersectsWithDefaultRadius(near); err != nil || !ok {
		t.Errorf("centers 10 apart with radius 5+5: expected intersect, got %v %v", ok, err)
	}
	if ok, _ := a.IntersectsWithDefaultRadius(far); ok {
		t.Error("centers 20 apart with radius 5+5: expected no intersect")
	}
	// d² - (r1+r2)² = 400 - 100 = 300 <= tol² となる許容量
	if ok, _ := a.IntersectsWithRadius(far, 5, 5, 18); !ok {
		t.Error("expected tolerance 18 to cover the gap")
	}
	if _, err := a.IntersectsWithRadius(nil, 1, 1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSetZNotifiesObservers(t *testing.T) {
	s := mustSprite(t, "a", 0, 0, 0, 1, 1)
	o1 := &recordingObserver{}
	o2 := &recordingObserver{}
	s.Subscribe(o1)
	s.Subscribe(o2)
	s.Subscribe(o1)

	s.SetZ(5)
	for i, o := range []*recordingObserver{o1, o2} {
		if len(o.got) != 1 {
			t.Fatalf("observer %d: expected 1 notification, got %d", i, len(o.got))
		}
		if _, ok := o.got[0].(ZChanged); !ok {
			t.Errorf("observer %d: expected ZChanged, got %T", i, o.got[0])
		}
		if o.got[0].Sprite() != s {
			t.Errorf("observer %d: notification from wrong sprite", i)
		}
	}

	s.Unsubscribe(o2)
	s.SetVector(NewVector(3, 3, 5))
	if len(o1.got) != 1 {
		t.Errorf("SetVector without Z change must not notify, got %d", len(o1.got))
	}
	s.SetVector(NewVector(3, 3, 6))
	if len(o1.got) != 2 {
		t.Errorf("SetVector with Z change must notify, got %d", len(o1.got))
	}
	if len(o2.got) != 1 {
		t.Errorf("unsubscribed observer must not be notified, got %d", len(o2.got))
	}
}

func TestKillBroadcastsLastBlit(t *testing.T) {
	s := mustSprite(t, "a", 0, 0, 0, 4, 4)
	s.lastBlit = image.Rect(1, 1, 5, 5)
	o := &recordingObserver{}
	s.Subscribe(o)

	s.Kill()
	if len(o.got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(o.got))
	}
	k, ok := o.got[0].(Killed)
	if !ok {
		t.Fatalf("expected Killed, got %T", o.got[0])
	}
	if k.Rect != image.Rect(1, 1, 5, 5) {
		t.Errorf("unexpected killed rect %v", k.Rect)
	}
}

func TestUpdateBehavior(t *testing.T) {
	s := mustSprite(t, "a", 0, 0, 0, 1, 1)
	// 振る舞いがなければ何もしない
	s.Update(event.Keyboard{Key: 1, Down: true})

	var got []event.Event
	s.SetBehavior(BehaviorFunc(func(sp *Sprite, ev event.Event) {
		if sp != s {
			t.Error("behavior called with wrong sprite")
		}
		got = append(got, ev)
	}))
	s.Update(event.Keyboard{Key: 1, Down: true})
	s.Update(nil)
	if len(got) != 1 {
		t.Errorf("expected 1 event, got %d", len(got))
	}
}

func TestAlphaForwardedToSurface(t *testing.T) {
	img := surface.NewImageSurface(2, 2)
	s, err := NewAt(img, image.Pt(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	s.SetAlpha(100)
	if img.Alpha() != 100 || s.Alpha() != 100 {
		t.Errorf("expected alpha 100, got %d / %d", img.Alpha(), s.Alpha())
	}
	s.SetTransparentColor(color.RGBA{255, 0, 255, 255}, true)
	if _, on := img.ColorKey(); !on {
		t.Error("expected color key enabled on surface")
	}

	plain := mustSprite(t, "p", 0, 0, 0, 1, 1)
	plain.SetAlpha(10)
	if plain.Alpha() != 255 {
		t.Errorf("expected 255 for surface without alpha, got %d", plain.Alpha())
	}
}
