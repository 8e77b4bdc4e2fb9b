package sprite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"strings"
	"testing"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/surface"
)

func mustAdd(t *testing.T, c *Collection, sprites ...*Sprite) {
	t.Helper()
	for _, s := range sprites {
		if _, err := c.Add(s); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
}

func TestDrawBackToFront(t *testing.T) {
	c := NewCollection()
	mustAdd(t, c,
		mustSprite(t, "C", 0, 0, 3, 2, 2),
		mustSprite(t, "B", 0, 0, 2, 2, 2),
		mustSprite(t, "A", 0, 0, 1, 2, 2),
	)
	screen := newFake("screen", 100, 100)

	if _, err := c.Draw(screen); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if got, want := screen.blitNames(), []string{"A", "B", "C"}; !slices.Equal(got, want) {
		t.Errorf("expected draw order %v, got %v", want, got)
	}
	if !c.IsSorted() {
		t.Error("expected collection to be sorted after Draw")
	}
}

func TestDrawStableForEqualZ(t *testing.T) {
	c := NewCollection()
	mustAdd(t, c,
		mustSprite(t, "first", 0, 0, 1, 1, 1),
		mustSprite(t, "second", 0, 0, 1, 1, 1),
		mustSprite(t, "back", 0, 0, 0, 1, 1),
		mustSprite(t, "third", 0, 0, 1, 1, 1),
	)
	screen := newFake("screen", 10, 10)
	if _, err := c.Draw(screen); err != nil {
		t.Fatal(err)
	}
	want := []string{"back", "first", "second", "third"}
	if got := screen.blitNames(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDrawResortsAfterSetZ(t *testing.T) {
	c := NewCollection()
	a := mustSprite(t, "A", 0, 0, 1, 1, 1)
	b := mustSprite(t, "B", 0, 0, 2, 1, 1)
	mustAdd(t, c, a, b)
	screen := newFake("screen", 10, 10)
	if _, err := c.Draw(screen); err != nil {
		t.Fatal(err)
	}

	a.SetZ(10)
	if c.IsSorted() {
		t.Error("expected SetZ to mark collection unsorted")
	}
	screen.blits = nil
	if _, err := c.Draw(screen); err != nil {
		t.Fatal(err)
	}
	if got, want := screen.blitNames(), []string{"B", "A"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDrawTwiceKeepsOrder(t *testing.T) {
	tests := []struct {
		name string
		zs   []int
		want []string
	}{
		{"追加順", []int{0, 1, 2}, []string{"0", "1", "2"}},
		{"逆順", []int{2, 1, 0}, []string{"2", "1", "0"}},
		{"同じZ", []int{1, 1, 1}, []string{"0", "1", "2"}},
		{"混在", []int{1, 0, 1, 0}, []string{"1", "3", "0", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection()
			for i, z := range tt.zs {
				mustAdd(t, c, mustSprite(t, fmt.Sprint(i), 0, 0, z, 1, 1))
			}
			screen := newFake("screen", 10, 10)
			for frame := range 2 {
				screen.blits = nil
				if _, err := c.Draw(screen); err != nil {
					t.Fatal(err)
				}
				if got := screen.blitNames(); !slices.Equal(got, tt.want) {
					t.Errorf("frame %d: expected %v, got %v", frame, tt.want, got)
				}
				if !c.IsSorted() {
					t.Errorf("frame %d: expected collection to stay sorted", frame)
				}
			}
		})
	}
}

func TestDrawEqualZKeepsOrderWhileOthersMove(t *testing.T) {
	c := NewCollection()
	first := mustSprite(t, "first", 0, 0, 1, 1, 1)
	mover := mustSprite(t, "mover", 0, 0, 0, 1, 1)
	second := mustSprite(t, "second", 0, 0, 1, 1, 1)
	mustAdd(t, c, first, mover, second)
	screen := newFake("screen", 10, 10)

	steps := []struct {
		z    int
		want []string
	}{
		{0, []string{"mover", "first", "second"}},
		{5, []string{"first", "second", "mover"}},
		{1, []string{"first", "second", "mover"}},
		{-1, []string{"mover", "first", "second"}},
	}
	for i, st := range steps {
		mover.SetZ(st.z)
		screen.blits = nil
		if _, err := c.Draw(screen); err != nil {
			t.Fatal(err)
		}
		if got := screen.blitNames(); !slices.Equal(got, st.want) {
			t.Errorf("step %d (z=%d): expected %v, got %v", i, st.z, st.want, got)
		}
	}
}

func TestDrawRects(t *testing.T) {
	c := NewCollection()
	s := mustSprite(t, "A", 2, 3, 0, 4, 5)
	hidden := mustSprite(t, "H", 0, 0, 0, 4, 4)
	hidden.SetVisible(false)
	mustAdd(t, c, s, hidden)
	screen := newFake("screen", 20, 20)

	rects, err := c.Draw(screen)
	if err != nil {
		t.Fatal(err)
	}
	// 初回は前回の描画矩形（空）と今回の描画矩形
	want := []image.Rectangle{{}, image.Rect(2, 3, 6, 8)}
	if !slices.Equal(rects, want) {
		t.Errorf("first frame: expected %v, got %v", want, rects)
	}
	if s.LastBlitRectangle() != image.Rect(2, 3, 6, 8) {
		t.Errorf("unexpected last blit rect %v", s.LastBlitRectangle())
	}
	if hidden.LastBlitRectangle() != (image.Rectangle{}) {
		t.Error("hidden sprite must not be drawn")
	}

	s.SetPosition(image.Pt(10, 10))
	rects, err = c.Draw(screen)
	if err != nil {
		t.Fatal(err)
	}
	want = []image.Rectangle{image.Rect(2, 3, 6, 8), image.Rect(10, 10, 14, 15)}
	if !slices.Equal(rects, want) {
		t.Errorf("second frame: expected %v, got %v", want, rects)
	}
	if !slices.Equal(c.LastRects(), want) {
		t.Errorf("LastRects: expected %v, got %v", want, c.LastRects())
	}
}

func TestDrawNilDestination(t *testing.T) {
	c := NewCollection()
	mustAdd(t, c, mustSprite(t, "A", 0, 0, 0, 1, 1))
	if _, err := c.Draw(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAddNilAndDuplicate(t *testing.T) {
	c := NewCollection()
	if _, err := c.Add(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	s := mustSprite(t, "A", 0, 0, 0, 1, 1)
	if added, _ := c.Add(s); !added {
		t.Error("expected first Add to succeed")
	}
	if added, _ := c.Add(s); added {
		t.Error("expected duplicate Add to be ignored")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 sprite, got %d", c.Len())
	}
}

func TestAddCollection(t *testing.T) {
	a := NewCollection()
	b := NewCollection()
	shared := mustSprite(t, "S", 0, 0, 0, 1, 1)
	mustAdd(t, a, shared, mustSprite(t, "A", 0, 0, 0, 1, 1))
	mustAdd(t, b, shared, mustSprite(t, "B", 0, 0, 0, 1, 1))

	n, err := a.AddCollection(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 sprites, got %d", n)
	}
	if _, err := a.AddCollection(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestKillRemovesAndQueuesRect(t *testing.T) {
	c := NewCollection()
	s := mustSprite(t, "A", 1, 1, 0, 3, 3)
	other := mustSprite(t, "B", 5, 5, 0, 3, 3)
	mustAdd(t, c, s, other)
	screen := newFake("screen", 20, 20)
	if _, err := c.Draw(screen); err != nil {
		t.Fatal(err)
	}

	s.Kill()
	if c.Contains(s) {
		t.Error("expected killed sprite to be removed")
	}
	if got := c.LostRects(); !slices.Equal(got, []image.Rectangle{image.Rect(1, 1, 4, 4)}) {
		t.Errorf("expected exactly one lost rect, got %v", got)
	}

	bg := newFake("bg", 20, 20)
	if err := c.Erase(screen, bg); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(screen.updates, []image.Rectangle{image.Rect(1, 1, 4, 4)}) {
		t.Errorf("expected lost rect to be updated, got %v", screen.updates)
	}
	if len(c.LostRects()) != 0 {
		t.Error("expected lost rects to be cleared by Erase")
	}
}

func TestKillReachesEveryCollection(t *testing.T) {
	r1 := NewCollection()
	r2 := NewCollection()
	s := mustSprite(t, "A", 0, 0, 0, 2, 2)
	mustAdd(t, r1, s)
	mustAdd(t, r2, s)
	if _, err := r1.Draw(newFake("screen", 10, 10)); err != nil {
		t.Fatal(err)
	}

	s.Kill()
	if r1.Contains(s) || r2.Contains(s) {
		t.Error("expected sprite removed from both collections")
	}
	if len(r1.LostRects()) != 1 || len(r2.LostRects()) != 1 {
		t.Errorf("expected one lost rect per collection, got %d and %d", len(r1.LostRects()), len(r2.LostRects()))
	}

	// 取り除いた後の通知は届かない
	s.SetZ(3)
	if !r1.IsSorted() {
		t.Error("removed sprite must not affect collection")
	}
}

func TestCollectionKill(t *testing.T) {
	c := NewCollection()
	mustAdd(t, c,
		mustSprite(t, "A", 0, 0, 0, 1, 1),
		mustSprite(t, "B", 0, 0, 0, 1, 1),
		mustSprite(t, "C", 0, 0, 0, 1, 1),
	)
	c.Kill()
	if c.Len() != 0 {
		t.Errorf("expected empty collection, got %d", c.Len())
	}
	if len(c.LostRects()) != 3 {
		t.Errorf("expected 3 lost rects, got %d", len(c.LostRects()))
	}
}

func TestKillDuringDrawIsDeferred(t *testing.T) {
	c := NewCollection()
	a := mustSprite(t, "A", 0, 0, 0, 1, 1)
	b := mustSprite(t, "B", 0, 0, 1, 1, 1)
	mustAdd(t, c, a, b)

	screen := newFake("screen", 10, 10)
	screen.onBlit = func(src surface.Surface) {
		if src == a.Surface() {
			b.Kill()
		}
	}
	if _, err := c.Draw(screen); err != nil {
		t.Fatal(err)
	}
	if got := screen.blitNames(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("expected only A drawn, got %v", got)
	}
	if c.Contains(b) || c.Len() != 1 {
		t.Error("expected B removed after the pass")
	}
	if len(c.LostRects()) != 1 {
		t.Errorf("expected one lost rect, got %d", len(c.LostRects()))
	}
}

func TestRemoveCollection(t *testing.T) {
	r1 := NewCollection()
	r2 := NewCollection()
	shared := mustSprite(t, "S", 0, 0, 0, 2, 2)
	onlyR1 := mustSprite(t, "X", 0, 0, 0, 2, 2)
	onlyR2 := mustSprite(t, "Y", 0, 0, 0, 2, 2)
	mustAdd(t, r1, shared, onlyR1)
	mustAdd(t, r2, shared, onlyR2)
	screen := newFake("screen", 10, 10)
	if _, err := r2.Draw(screen); err != nil {
		t.Fatal(err)
	}

	if err := r2.Remove(r1); err != nil {
		t.Fatal(err)
	}
	if r2.Contains(shared) {
		t.Error("expected shared sprite removed from r2")
	}
	if !r2.Contains(onlyR2) || r2.Len() != 1 {
		t.Error("expected r2 to keep its own sprite")
	}
	if !r1.Contains(shared) {
		t.Error("r1 must be unchanged")
	}
	if got := r2.LostRects(); !slices.Equal(got, []image.Rectangle{image.Rect(0, 0, 2, 2)}) {
		t.Errorf("expected one lost rect, got %v", got)
	}
	if err := r2.Remove(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEraseRestoresBackground(t *testing.T) {
	screen := surface.NewImageSurface(10, 10)
	bg := surface.NewImageSurface(10, 10)
	bg.Fill(bg.Bounds(), color.RGBA{0, 0, 255, 255})
	screen.Blit(bg, image.Pt(0, 0), image.Rectangle{})

	red := surface.NewImageSurface(2, 2)
	red.Fill(red.Bounds(), color.RGBA{255, 0, 0, 255})
	s, err := NewAt(red, image.Pt(3, 3))
	if err != nil {
		t.Fatal(err)
	}
	c := NewCollection()
	mustAdd(t, c, s)

	if _, err := c.Draw(screen); err != nil {
		t.Fatal(err)
	}
	if screen.At(3, 3) != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("expected sprite drawn, got %v", screen.At(3, 3))
	}

	// 直近の Draw の矩形にも背景が描かれる
	if err := c.Erase(screen, bg); err != nil {
		t.Fatal(err)
	}
	if screen.At(3, 3) != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("expected background restored, got %v", screen.At(3, 3))
	}
}

func TestEraseNilArguments(t *testing.T) {
	c := NewCollection()
	bg := newFake("bg", 1, 1)
	if err := c.Erase(nil, bg); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nil surface, got %v", err)
	}
	if err := c.Erase(bg, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for nil background, got %v", err)
	}
}

func TestSortByZAxisDescending(t *testing.T) {
	c := NewCollection()
	mustAdd(t, c,
		mustSprite(t, "A", 0, 0, 1, 1, 1),
		mustSprite(t, "B", 0, 0, 3, 1, 1),
		mustSprite(t, "C", 0, 0, 2, 1, 1),
	)
	c.SortByZAxis(Descending)
	var zs []int
	for _, s := range c.Sprites() {
		zs = append(zs, s.Z())
	}
	if !slices.Equal(zs, []int{3, 2, 1}) {
		t.Errorf("expected descending order, got %v", zs)
	}
}

func TestCollectionIntersections(t *testing.T) {
	c := NewCollection()
	a := mustSprite(t, "A", 0, 0, 0, 10, 10)
	b := mustSprite(t, "B", 50, 50, 0, 10, 10)
	under := mustSprite(t, "U", 4, 4, -1, 3, 3)
	mustAdd(t, c, a, b, under)
	cursor := mustSprite(t, "P", 5, 5, 0, 2, 2)

	// 結果は現在の描画順
	hits, err := c.IntersectsWithSprite(cursor)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(hits, []*Sprite{a, under}) {
		t.Errorf("expected A then U before sorting, got %v", hits)
	}
	if _, err := c.Draw(newFake("screen", 100, 100)); err != nil {
		t.Fatal(err)
	}
	if hits, _ = c.IntersectsWithSprite(cursor); !slices.Equal(hits, []*Sprite{under, a}) {
		t.Errorf("expected U then A after Draw, got %v", hits)
	}
	if ok, _ := cursor.IntersectsWithCollection(c); !ok {
		t.Error("expected cursor to intersect collection")
	}
	if _, err := c.IntersectsWithSprite(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	// メンバーごとに other 内で最初に重なったもの。重ならないメンバーは含まれない
	second := mustSprite(t, "Q", 6, 6, 0, 2, 2)
	others := NewCollection()
	mustAdd(t, others, cursor, second)
	pairs, err := c.IntersectsWithCollection(others)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 || pairs[a] != cursor || pairs[under] != cursor {
		t.Errorf("unexpected pairs %v", pairs)
	}
	if _, ok := pairs[b]; ok {
		t.Error("expected B to be absent")
	}
}

func TestEventRelay(t *testing.T) {
	d := event.NewDispatcher(nil)
	c := NewCollection()
	var got []int64
	for i := 0; i < 2; i++ {
		s := mustSprite(t, "S", 0, 0, 0, 1, 1)
		s.SetBehavior(BehaviorFunc(func(s *Sprite, ev event.Event) {
			got = append(got, s.ID())
		}))
		mustAdd(t, c, s)
	}

	if err := c.EnableKeyboardEvent(d); err != nil {
		t.Fatal(err)
	}
	if err := c.EnableKeyboardEvent(d); err != nil {
		t.Fatal(err)
	}
	d.Publish(event.Keyboard{Down: true})
	d.Publish(event.MouseMotion{})
	if len(got) != 2 {
		t.Fatalf("expected each sprite to receive one event, got %d", len(got))
	}
	if !c.EventsEnabled(event.CategoryKeyboardDown) {
		t.Error("expected keyboard relay enabled")
	}

	c.DisableKeyboardEvent()
	d.Publish(event.Keyboard{Down: true})
	if len(got) != 2 {
		t.Errorf("expected no events after disabling, got %d", len(got))
	}
	if d.Count(event.CategoryKeyboardDown) != 0 {
		t.Error("expected dispatcher subscription removed")
	}

	if err := c.EnableEvents(nil, event.CategoryTick); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDrawOrderDump(t *testing.T) {
	c := NewCollection()
	s := mustSprite(t, "A", 0, 0, 4, 1, 1)
	s.SetVisible(false)
	mustAdd(t, c, s)
	out := c.DrawOrder()
	if want := "z=4 (hidden)"; !strings.Contains(out, want) {
		t.Errorf("expected %q in %q", want, out)
	}
}
