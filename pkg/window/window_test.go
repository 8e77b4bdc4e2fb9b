package window

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"testing/quick"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/spritekit/pkg/event"
	"github.com/zurustar/spritekit/pkg/sprite"
	"github.com/zurustar/spritekit/pkg/surface"
	"github.com/zurustar/spritekit/pkg/title"
)

// fakeScene は呼び出しを記録するシーン
type fakeScene struct {
	d          *event.Dispatcher
	overlay    *sprite.DebugOverlay
	ticks      []event.Tick
	updates    int
	renders    int
	invalidate int
	muted      bool
	closed     bool
	updateErr  error
}

func newFakeScene() *fakeScene {
	s := &fakeScene{d: event.NewDispatcher(nil), overlay: sprite.NewDebugOverlay()}
	s.d.Subscribe(event.CategoryTick, func(ev event.Event) { s.ticks = append(s.ticks, ev.(event.Tick)) })
	return s
}

func (s *fakeScene) Title() string                 { return "fake" }
func (s *fakeScene) Size() (int, int)              { return 32, 24 }
func (s *fakeScene) Dispatcher() *event.Dispatcher { return s.d }
func (s *fakeScene) Overlay() *sprite.DebugOverlay { return s.overlay }
func (s *fakeScene) Frame() int64                  { return int64(s.updates) }
func (s *fakeScene) SetMuted(muted bool)           { s.muted = muted }
func (s *fakeScene) Update() error                 { s.updates++; return s.updateErr }
func (s *fakeScene) Invalidate()                   { s.invalidate++ }
func (s *fakeScene) Close()                        { s.closed = true }
func (s *fakeScene) Render(dst surface.Surface) error {
	s.renders++
	dst.Fill(image.Rect(0, 0, 1, 1), color.RGBA{255, 0, 0, 255})
	dst.Update(image.Rect(0, 0, 1, 1))
	return nil
}

// pressed は指定キーだけが押されたことにする
func pressed(keys ...ebiten.Key) func(ebiten.Key) bool {
	return func(k ebiten.Key) bool {
		for _, p := range keys {
			if p == k {
				return true
			}
		}
		return false
	}
}

// withScene はシーンモードの Game を作り、入力の取得を Tick の配送だけにする
func withScene(s *fakeScene) *Game {
	g := NewGame(ModeSelection, nil, 0)
	g.justPressed = pressed()
	g.closing = func() bool { return false }
	g.SetScene(s)
	ticker := event.NewTicker(nil)
	g.poll = func() { s.d.Publish(ticker.Next()) }
	return g
}

func titles(n int) []title.Title {
	ts := make([]title.Title, n)
	for i := range ts {
		ts[i] = title.Title{Name: string(rune('a' + i))}
	}
	return ts
}

func TestNewGame(t *testing.T) {
	game := NewGame(ModeSelection, titles(2), 10*time.Second)
	if game.mode != ModeSelection || len(game.titles) != 2 || game.selectedIndex != 0 {
		t.Errorf("unexpected initial state: mode %v, %d titles, index %d", game.mode, len(game.titles), game.selectedIndex)
	}
	if game.timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", game.timeout)
	}
	if game.SelectedTitle() != nil || game.Scene() != nil {
		t.Error("expected nothing selected")
	}
}

func TestLayout(t *testing.T) {
	game := NewGame(ModeSelection, nil, 0)
	if w, h := game.Layout(0, 0); w != selectionWidth || h != selectionHeight {
		t.Errorf("expected selection size, got %dx%d", w, h)
	}
	game = withScene(newFakeScene())
	if w, h := game.Layout(800, 600); w != 32 || h != 24 {
		t.Errorf("expected scene size, got %dx%d", w, h)
	}
}

func TestUpdate_Timeout(t *testing.T) {
	s := newFakeScene()
	game := withScene(s)
	game.timeout = time.Nanosecond
	time.Sleep(time.Millisecond)
	if err := game.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("expected termination, got %v", err)
	}
	if !s.closed {
		t.Error("expected scene closed on timeout")
	}
}

func TestUpdateScene_DeliversTick(t *testing.T) {
	s := newFakeScene()
	game := withScene(s)
	for range 3 {
		if err := game.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if s.updates != 3 || len(s.ticks) != 3 || s.ticks[2].Frame != 3 {
		t.Errorf("expected 3 ticks and updates, got %d/%d", len(s.ticks), s.updates)
	}

	s.updateErr = errors.New("boom")
	if err := game.Update(); !errors.Is(err, s.updateErr) {
		t.Errorf("expected update error, got %v", err)
	}
}

func TestUpdateScene_ToggleKeys(t *testing.T) {
	s := newFakeScene()
	game := withScene(s)

	game.justPressed = pressed(keyOverlay, keyMute)
	if err := game.Update(); err != nil {
		t.Fatal(err)
	}
	if !s.overlay.IsEnabled() || !s.muted {
		t.Error("expected overlay on and muted")
	}
	if s.invalidate == 0 {
		t.Error("toggling the overlay must repaint the screen")
	}

	if err := game.Update(); err != nil {
		t.Fatal(err)
	}
	if s.overlay.IsEnabled() || s.muted {
		t.Error("expected overlay off and unmuted")
	}
}

func TestUpdateScene_Quit(t *testing.T) {
	s := newFakeScene()
	game := withScene(s)
	game.poll = func() { s.d.Publish(event.Quit{}) }
	if err := game.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("expected termination on quit, got %v", err)
	}
	if !s.closed || game.Scene() != nil {
		t.Error("expected scene closed")
	}
	if s.d.Count(event.CategoryQuit) != 0 {
		t.Error("expected subscriptions removed")
	}
}

// プロパティ: ESC は選択画面があれば戻り、なければ終了する。どちらでもシーンは閉じられる
func TestProperty_EscapeKeyBehavior(t *testing.T) {
	property := func(hasSelection bool, numTitles uint8) bool {
		s := newFakeScene()
		game := withScene(s)
		game.titles = titles(int(numTitles)%5 + 1)
		game.SetHasTitleSelection(hasSelection)
		game.justPressed = pressed(ebiten.KeyEscape)

		err := game.Update()
		if !s.closed || game.Scene() != nil {
			return false
		}
		if hasSelection {
			return err == nil && game.mode == ModeSelection && len(game.titles) == int(numTitles)%5+1
		}
		return errors.Is(err, ebiten.Termination)
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 100}); err != nil {
		t.Error(err)
	}
}

func TestUpdateSelection_Navigate(t *testing.T) {
	game := NewGame(ModeSelection, titles(3), 0)
	game.closing = func() bool { return false }

	steps := []struct {
		key  ebiten.Key
		want int
	}{
		{ebiten.KeyUp, 0},
		{ebiten.KeyDown, 1},
		{ebiten.KeyDown, 2},
		{ebiten.KeyDown, 2},
		{ebiten.KeyUp, 1},
	}
	for _, st := range steps {
		game.justPressed = pressed(st.key)
		if err := game.Update(); err != nil {
			t.Fatal(err)
		}
		if game.selectedIndex != st.want {
			t.Errorf("after %v expected index %d, got %d", st.key, st.want, game.selectedIndex)
		}
	}

	game.justPressed = pressed(ebiten.KeyEscape)
	if err := game.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("expected termination on ESC, got %v", err)
	}

	game.justPressed = pressed()
	game.closing = func() bool { return true }
	if err := game.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("expected termination on window close, got %v", err)
	}
}

func TestUpdateSelection_Enter(t *testing.T) {
	game := NewGame(ModeSelection, titles(2), 0)
	game.closing = func() bool { return false }
	game.selectedIndex = 1

	s := newFakeScene()
	var opened *title.Title
	game.SetOnTitleSelected(func(t *title.Title) (Scene, error) {
		opened = t
		return s, nil
	})
	game.justPressed = pressed(ebiten.KeyEnter)
	if err := game.Update(); err != nil {
		t.Fatal(err)
	}
	if opened == nil || opened.Name != "b" || game.SelectedTitle().Name != "b" {
		t.Errorf("expected title b opened, got %v", opened)
	}
	if game.mode != ModeScene || game.Scene() != s {
		t.Error("expected scene mode")
	}

	failing := NewGame(ModeSelection, titles(2), 0)
	failing.closing = func() bool { return false }
	want := errors.New("broken scene")
	failing.SetOnTitleSelected(func(*title.Title) (Scene, error) { return nil, want })
	failing.justPressed = pressed(ebiten.KeyEnter)
	if err := failing.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("expected termination, got %v", err)
	}
	if !errors.Is(failing.TransitionError(), want) {
		t.Errorf("expected transition error, got %v", failing.TransitionError())
	}
}

func TestSetMuted(t *testing.T) {
	game := NewGame(ModeSelection, nil, 0)
	game.SetMuted(true)
	s := newFakeScene()
	game.SetScene(s)
	if !s.muted {
		t.Error("a new scene must inherit the mute state")
	}
}

func TestRunScene_Frames(t *testing.T) {
	s := newFakeScene()
	screen, err := RunScene(context.Background(), s, HeadlessOptions{Frames: 5, TPS: 10})
	if err != nil {
		t.Fatalf("RunScene failed: %v", err)
	}
	if s.updates != 5 || s.renders != 5 {
		t.Errorf("expected 5 updates and renders, got %d/%d", s.updates, s.renders)
	}
	if got := s.ticks[4].Elapsed; got != 500*time.Millisecond {
		t.Errorf("expected virtual time 500ms, got %v", got)
	}
	if s.ticks[0].Delta != 100*time.Millisecond {
		t.Errorf("expected 100ms delta, got %v", s.ticks[0].Delta)
	}
	if screen.Width() != 32 || screen.Height() != 24 {
		t.Errorf("expected 32x24 screen, got %dx%d", screen.Width(), screen.Height())
	}
	if len(screen.Updates()) != 0 {
		t.Error("expected updates reset after each frame")
	}
	if s.d.Count(event.CategoryQuit) != 0 {
		t.Error("expected quit subscription removed")
	}
}

func TestRunScene_Quit(t *testing.T) {
	s := newFakeScene()
	s.d.Subscribe(event.CategoryTick, func(ev event.Event) {
		if ev.(event.Tick).Frame == 2 {
			s.d.Publish(event.Quit{})
		}
	})
	if _, err := RunScene(context.Background(), s, HeadlessOptions{Frames: 10}); err != nil {
		t.Fatal(err)
	}
	if s.updates != 1 {
		t.Errorf("expected to stop on the second frame, got %d updates", s.updates)
	}
}

func TestRunScene_TimeoutAndCancel(t *testing.T) {
	s := newFakeScene()
	if _, err := RunScene(context.Background(), s, HeadlessOptions{Timeout: 50 * time.Millisecond, TPS: 1000}); err != nil {
		t.Errorf("timeout must end the run normally, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunScene(ctx, newFakeScene(), HeadlessOptions{Frames: 3}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWriteSnapshot(t *testing.T) {
	screen := surface.NewImageSurface(4, 3)
	screen.Fill(screen.Bounds(), color.RGBA{0, 0, 255, 255})
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, screen); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("expected PNG, got %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
	if err := WriteSnapshot(io.Discard, nil); !errors.Is(err, surface.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSelectHeadless_SingleTitle(t *testing.T) {
	var output strings.Builder
	selected, err := SelectHeadless(titles(1), 0, strings.NewReader(""), &output)
	if err != nil || selected == nil || selected.Name != "a" {
		t.Fatalf("expected auto-selection, got %v, %v", selected, err)
	}
	if !strings.Contains(output.String(), "Auto-selecting") {
		t.Error("expected auto-selection message")
	}

	if _, err := SelectHeadless(nil, 0, strings.NewReader(""), io.Discard); !errors.Is(err, title.ErrNoTitles) {
		t.Errorf("expected ErrNoTitles, got %v", err)
	}
}

func TestSelectHeadless_InvalidThenValid(t *testing.T) {
	var output strings.Builder
	selected, err := SelectHeadless(titles(2), 0, strings.NewReader("abc\n0\n3\n2\n"), &output)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if selected.Name != "b" {
		t.Errorf("expected b, got %s", selected.Name)
	}
	out := output.String()
	for _, want := range []string{"Available scenes:", "Invalid input", "Invalid selection", "Selected: b"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestSelectHeadless_QuitAndClosed(t *testing.T) {
	if _, err := SelectHeadless(titles(2), 0, strings.NewReader("Q\n"), io.Discard); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if _, err := SelectHeadless(titles(2), 0, strings.NewReader(""), io.Discard); !errors.Is(err, ErrInputClosed) {
		t.Errorf("expected ErrInputClosed, got %v", err)
	}
}

func TestSelectHeadless_Timeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	if _, err := SelectHeadless(titles(2), 10*time.Millisecond, r, io.Discard); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}
